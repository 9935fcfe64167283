package elaborate

import (
	"testing"

	"github.com/sunholo/rowscript/internal/coreerr"
	"github.com/sunholo/rowscript/internal/core"
	"github.com/sunholo/rowscript/internal/ident"
	"github.com/sunholo/rowscript/internal/resolve"
	"github.com/sunholo/rowscript/internal/sigma"
	"github.com/sunholo/rowscript/internal/surface"
	"github.com/sunholo/rowscript/internal/term"
)

// End-to-end scenarios exercising resolve -> elaborate -> normalize
// together, one per representative surface program. Each builds its
// own surface.Expr tree by hand (there is no parser in this module)
// rather than through source text.

func sname(v string) surface.Name { return surface.Name{Value: v} }

func resolveAndElaborate(t *testing.T, e *Elaborator, r *resolve.Resolver, x surface.Expr) (term.Term, term.Term) {
	t.Helper()
	resolved, err := r.Expr(x)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	tm, ty, err := e.Infer(resolved)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	n := core.NewNormalizer(e.Sigma, sigma.Loc{})
	nTm, err := n.Term(tm)
	if err != nil {
		t.Fatalf("normalize term: %v", err)
	}
	nTy, err := n.Term(ty)
	if err != nil {
		t.Fatalf("normalize type: %v", err)
	}
	return nTm, nTy
}

// S1: `let x: Number = 42; x` normalizes to 42 of type Number.
func TestScenarioS1LetBindingEvaluatesToItsBody(t *testing.T) {
	f := ident.NewFactory()
	e := New(sigma.New(f))
	r := resolve.New(f, nil)

	prog := surface.Let{
		Name: sname("x"),
		Typ:  surface.Number{},
		Rhs:  surface.Num{Value: "42"},
		Body: surface.Unresolved{Name: "x"},
	}

	tm, ty := resolveAndElaborate(t, e, r, prog)
	if ty != (term.Number{}) {
		t.Fatalf("expected type Number, got %#v", ty)
	}
	num, ok := tm.(term.Num)
	if !ok || num.Value != 42 {
		t.Fatalf("expected Num{42}, got %#v", tm)
	}
}

// S2: `let r = {a: 1, b: "x"}; r.a` normalizes to 1 of type Number.
func TestScenarioS2RecordLiteralFieldAccess(t *testing.T) {
	f := ident.NewFactory()
	e := New(sigma.New(f))
	r := resolve.New(f, nil)

	prog := surface.Let{
		Name: sname("r"),
		Rhs: surface.Obj{Fields: surface.Fields{Fields: []surface.Field{
			{Name: sname("a"), Value: surface.Num{Value: "1"}},
			{Name: sname("b"), Value: surface.Str{Value: "x"}},
		}}},
		Body: surface.Access{Obj: surface.Unresolved{Name: "r"}, Name: "a"},
	}

	tm, ty := resolveAndElaborate(t, e, r, prog)
	if ty != (term.Number{}) {
		t.Fatalf("expected type Number, got %#v", ty)
	}
	num, ok := tm.(term.Num)
	if !ok || num.Value != 1 {
		t.Fatalf("expected Num{1}, got %#v", tm)
	}
}

// S3: `let r = {a:1,b:2}; let s = {...r, c:3}; s.c` normalizes to 3,
// and s's row merges r's fields with the spread's own.
func TestScenarioS3RecordSpreadMergesRows(t *testing.T) {
	f := ident.NewFactory()
	e := New(sigma.New(f))
	r := resolve.New(f, nil)

	prog := surface.Let{
		Name: sname("r"),
		Rhs: surface.Obj{Fields: surface.Fields{Fields: []surface.Field{
			{Name: sname("a"), Value: surface.Num{Value: "1"}},
			{Name: sname("b"), Value: surface.Num{Value: "2"}},
		}}},
		Body: surface.Let{
			Name: sname("s"),
			Rhs: surface.Concat{
				A: surface.Unresolved{Name: "r"},
				B: surface.Obj{Fields: surface.Fields{Fields: []surface.Field{
					{Name: sname("c"), Value: surface.Num{Value: "3"}},
				}}},
			},
			Body: surface.Access{Obj: surface.Unresolved{Name: "s"}, Name: "c"},
		},
	}

	tm, ty := resolveAndElaborate(t, e, r, prog)
	if ty != (term.Number{}) {
		t.Fatalf("expected type Number, got %#v", ty)
	}
	num, ok := tm.(term.Num)
	if !ok || num.Value != 3 {
		t.Fatalf("expected Num{3}, got %#v", tm)
	}
}

// S4: `let v: Enum{A:Number,B:Number} = A(1); switch(v){case A(x):x; case B(y):0}`
// is exhaustive and normalizes to 1; dropping the B case is rejected
// as non-exhaustive.
func TestScenarioS4SwitchExhaustiveEvaluatesMatchingCase(t *testing.T) {
	f := ident.NewFactory()
	e := New(sigma.New(f))
	r := resolve.New(f, nil)

	enumRow := wrapTerm{
		Term: term.FieldsTerm{Fields: term.Fields{"A": term.Number{}, "B": term.Number{}}},
		Typ:  term.Row{},
	}
	prog := surface.Let{
		Name: sname("v"),
		Typ:  surface.Enum{Row: enumRow},
		Rhs:  surface.Variant{Tag: "A", Value: surface.Num{Value: "1"}},
		Body: surface.Switch{
			Scrutinee: surface.Unresolved{Name: "v"},
			Cases: []surface.Case{
				{Tag: "A", Name: sname("x"), Body: surface.Unresolved{Name: "x"}},
				{Tag: "B", Name: sname("y"), Body: surface.Num{Value: "0"}},
			},
		},
	}

	tm, _ := resolveAndElaborate(t, e, r, prog)
	num, ok := tm.(term.Num)
	if !ok || num.Value != 1 {
		t.Fatalf("expected Num{1}, got %#v", tm)
	}
}

func TestScenarioS4SwitchNonExhaustiveErrors(t *testing.T) {
	f := ident.NewFactory()
	e := New(sigma.New(f))
	r := resolve.New(f, nil)

	enumRow := wrapTerm{
		Term: term.FieldsTerm{Fields: term.Fields{"A": term.Number{}, "B": term.Number{}}},
		Typ:  term.Row{},
	}
	prog := surface.Let{
		Name: sname("v"),
		Typ:  surface.Enum{Row: enumRow},
		Rhs:  surface.Variant{Tag: "A", Value: surface.Num{Value: "1"}},
		Body: surface.Switch{
			Scrutinee: surface.Unresolved{Name: "v"},
			Cases: []surface.Case{
				{Tag: "A", Name: sname("x"), Body: surface.Unresolved{Name: "x"}},
			},
		},
	}

	resolved, err := r.Expr(prog)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, _, err := e.Infer(resolved); err == nil {
		t.Fatal("expected a non-exhaustive switch error")
	} else if _, ok := err.(*coreerr.NonExhaustiveError); !ok {
		t.Fatalf("expected *coreerr.NonExhaustiveError, got %#v", err)
	}
}

// S5: `interface Show { show: String }`, `implements Show for Int { show = "n" }`.
// There is no surface syntax in this module that performs automatic
// interface-method dispatch through an ordinary call (no elaboration
// rule ever builds a term.Find node — see DESIGN.md), so the dispatch
// itself is exercised directly through core.SearchInstance/FindMethod,
// the same entry points a future call-site desugaring would use.
func TestScenarioS5InterfaceMethodDispatchViaFindMethod(t *testing.T) {
	f := ident.NewFactory()
	e := New(sigma.New(f))

	mustDecl(t, e, surface.InterfaceDecl{
		Name: sname("Show"),
		Methods: []surface.InterfaceMethod{
			{Name: sname("show"), Ret: surface.String{}},
		},
	})
	mustDecl(t, e, surface.FnDecl{Name: sname("Int"), Ret: surface.Number{}, Body: nil})
	mustDecl(t, e, surface.ImplementsDecl{
		Interface: sname("Show"),
		Type:      sname("Int"),
		Methods: []surface.ImplementsMethod{
			{Name: sname("show"), Ret: surface.String{}, Body: surface.Str{Value: "n"}},
		},
	})

	ifaceVar := findByName(t, e.Sigma, "Show")
	intVar := findByName(t, e.Sigma, "Int")
	showMethodVar := e.Sigma.MustGet(ifaceVar).Body.(sigma.Interface).Fns[0]

	subject := e.Sigma.MustGet(intVar).ToType()
	found, err := core.FindMethod(e.Sigma, sigma.Loc{}, subject, ifaceVar, showMethodVar)
	if err != nil {
		t.Fatalf("FindMethod: %v", err)
	}
	n := core.NewNormalizer(e.Sigma, sigma.Loc{})
	nf, err := n.Term(found)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if s, ok := nf.(term.Str); !ok || s.Value != "n" {
		t.Fatalf("expected Str{\"n\"}, got %#v", nf)
	}
}

func TestScenarioS5InterfaceMethodDispatchMissingImplementationErrors(t *testing.T) {
	f := ident.NewFactory()
	e := New(sigma.New(f))

	mustDecl(t, e, surface.InterfaceDecl{
		Name: sname("Show"),
		Methods: []surface.InterfaceMethod{
			{Name: sname("show"), Ret: surface.String{}},
		},
	})
	mustDecl(t, e, surface.FnDecl{Name: sname("Int"), Ret: surface.Number{}, Body: nil})
	mustDecl(t, e, surface.ImplementsDecl{
		Interface: sname("Show"),
		Type:      sname("Int"),
		Methods: []surface.ImplementsMethod{
			{Name: sname("show"), Ret: surface.String{}, Body: surface.Str{Value: "n"}},
		},
	})
	mustDecl(t, e, surface.FnDecl{Name: sname("Boolean"), Ret: surface.Boolean{}, Body: nil})

	ifaceVar := findByName(t, e.Sigma, "Show")
	boolVar := findByName(t, e.Sigma, "Boolean")
	showMethodVar := e.Sigma.MustGet(ifaceVar).Body.(sigma.Interface).Fns[0]

	subject := e.Sigma.MustGet(boolVar).ToType()
	_, err := core.FindMethod(e.Sigma, sigma.Loc{}, subject, ifaceVar, showMethodVar)
	if err == nil {
		t.Fatal("expected an error for a type with no registered implementation")
	}
	if _, ok := err.(*coreerr.UnresolvedImplementationError); !ok {
		t.Fatalf("expected *coreerr.UnresolvedImplementationError, got %#v", err)
	}
}

// S6: a let's own name is out of scope in its own RHS, so a
// self-referential RHS is an unresolved-variable error at resolve
// time, never reaching the elaborator.
func TestScenarioS6CyclicSelfReferenceUnresolvedAtResolveTime(t *testing.T) {
	f := ident.NewFactory()
	r := resolve.New(f, nil)

	prog := surface.Let{
		Name: sname("x"),
		Rhs:  surface.Unresolved{Name: "x"},
		Body: surface.TT{},
	}

	_, err := r.Expr(prog)
	if err == nil {
		t.Fatal("expected an unresolved-variable error for a self-referential let RHS")
	}
	if _, ok := err.(*coreerr.UnresolvedVarError); !ok {
		t.Fatalf("expected *coreerr.UnresolvedVarError, got %#v", err)
	}
}
