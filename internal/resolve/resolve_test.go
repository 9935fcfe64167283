package resolve

import (
	"testing"

	"github.com/sunholo/rowscript/internal/coreerr"
	"github.com/sunholo/rowscript/internal/ident"
	"github.com/sunholo/rowscript/internal/surface"
)

func name(v string) surface.Name { return surface.Name{Value: v} }

func TestResolveUnresolvedBuiltin(t *testing.T) {
	f := ident.NewFactory()
	builtinVar := f.Fresh("print")
	r := New(f, map[string]*ident.Var{"print": builtinVar})

	got, err := r.Expr(surface.Unresolved{Name: "print"})
	if err != nil {
		t.Fatal(err)
	}
	res, ok := got.(surface.Resolved)
	if !ok || res.Var != builtinVar {
		t.Fatalf("expected Resolved{Var: builtinVar}, got %#v", got)
	}
}

func TestResolveUnresolvedUnknownErrors(t *testing.T) {
	f := ident.NewFactory()
	r := New(f, nil)
	_, err := r.Expr(surface.Unresolved{Name: "nope"})
	if _, ok := err.(*coreerr.UnresolvedVarError); !ok {
		t.Fatalf("expected *coreerr.UnresolvedVarError, got %#v", err)
	}
}

func TestResolveLetBindsNameInBodyOnly(t *testing.T) {
	f := ident.NewFactory()
	r := New(f, nil)

	let := surface.Let{
		Name: name("x"),
		Rhs:  surface.Num{Value: "1"},
		Body: surface.Unresolved{Name: "x"},
	}
	got, err := r.Expr(let)
	if err != nil {
		t.Fatal(err)
	}
	resolved := got.(surface.Let)
	body := resolved.Body.(surface.Resolved)
	if body.Var != resolved.Name.Var {
		t.Fatal("the let-bound name should resolve inside its own body")
	}

	// Outside the let, the name is no longer visible.
	if _, err := r.Expr(surface.Unresolved{Name: "x"}); err == nil {
		t.Fatal("x should not be visible after the Let expression returns")
	}
}

func TestResolveLetRhsCannotSeeItsOwnName(t *testing.T) {
	f := ident.NewFactory()
	r := New(f, nil)
	let := surface.Let{
		Name: name("x"),
		Rhs:  surface.Unresolved{Name: "x"},
		Body: surface.TT{},
	}
	if _, err := r.Expr(let); err == nil {
		t.Fatal("a self-referential let RHS should be an unresolved-variable error")
	}
}

func TestResolveLamShadowsOuterScope(t *testing.T) {
	f := ident.NewFactory()
	outer := f.Fresh("x")
	r := New(f, map[string]*ident.Var{"x": outer})

	lam := surface.Lam{Name: name("x"), Body: surface.Unresolved{Name: "x"}}
	got, err := r.Expr(lam)
	if err != nil {
		t.Fatal(err)
	}
	resolved := got.(surface.Lam)
	body := resolved.Body.(surface.Resolved)
	if body.Var == outer {
		t.Fatal("the inner binder should shadow the outer builtin, not resolve to it")
	}
	if body.Var != resolved.Name.Var {
		t.Fatal("the body should resolve to the Lam's own fresh binder")
	}
}

func TestResolvePiThreadsParamIntoBody(t *testing.T) {
	f := ident.NewFactory()
	r := New(f, nil)
	pi := surface.Pi{
		Param: surface.ExprParam{Name: name("x"), Info: surface.Explicit, Typ: surface.Number{}},
		Body:  surface.Unresolved{Name: "x"},
	}
	got, err := r.Expr(pi)
	if err != nil {
		t.Fatal(err)
	}
	resolved := got.(surface.Pi)
	body := resolved.Body.(surface.Resolved)
	if body.Var != resolved.Param.Name.Var {
		t.Fatal("Pi's body should see its own parameter")
	}
}

func TestResolveFieldsRejectsDuplicateName(t *testing.T) {
	f := ident.NewFactory()
	r := New(f, nil)
	fields := surface.Fields{Fields: []surface.Field{
		{Name: name("a"), Value: surface.Num{Value: "1"}},
		{Name: name("a"), Value: surface.Num{Value: "2"}},
	}}
	_, err := r.Expr(fields)
	if _, ok := err.(*coreerr.DuplicateNameError); !ok {
		t.Fatalf("expected *coreerr.DuplicateNameError, got %#v", err)
	}
}

func TestResolveFieldsAllowsDistinctNames(t *testing.T) {
	f := ident.NewFactory()
	r := New(f, nil)
	fields := surface.Fields{Fields: []surface.Field{
		{Name: name("a"), Value: surface.Num{Value: "1"}},
		{Name: name("b"), Value: surface.Num{Value: "2"}},
	}}
	if _, err := r.Expr(fields); err != nil {
		t.Fatalf("distinct field names should resolve: %v", err)
	}
}

func TestResolveSwitchCaseBinderScopedPerCase(t *testing.T) {
	f := ident.NewFactory()
	r := New(f, nil)
	sw := surface.Switch{
		Scrutinee: surface.TT{},
		Cases: []surface.Case{
			{Tag: "Ok", Name: name("v"), Body: surface.Unresolved{Name: "v"}},
			{Tag: "Err", Name: name("v"), Body: surface.Unresolved{Name: "v"}},
		},
	}
	got, err := r.Expr(sw)
	if err != nil {
		t.Fatal(err)
	}
	resolved := got.(surface.Switch)
	for i, c := range resolved.Cases {
		body := c.Body.(surface.Resolved)
		if body.Var != c.Name.Var {
			t.Fatalf("case %d body should resolve to its own case binder", i)
		}
	}
	if resolved.Cases[0].Name.Var == resolved.Cases[1].Name.Var {
		t.Fatal("each case should mint an independent fresh binder for the same display name")
	}
}

func TestResolveImplementsOfLooksUpInterfaceName(t *testing.T) {
	f := ident.NewFactory()
	ifaceVar := f.Fresh("Show")
	r := New(f, map[string]*ident.Var{"Show": ifaceVar})

	_, err := r.Expr(surface.ImplementsOf{Term: surface.TT{}, Interface: name("Show")})
	if err != nil {
		t.Fatal(err)
	}
}

func TestResolveImplementsOfUnknownInterfaceErrors(t *testing.T) {
	f := ident.NewFactory()
	r := New(f, nil)
	_, err := r.Expr(surface.ImplementsOf{Term: surface.TT{}, Interface: name("Ghost")})
	if _, ok := err.(*coreerr.UnresolvedVarError); !ok {
		t.Fatalf("expected *coreerr.UnresolvedVarError, got %#v", err)
	}
}

func TestResolveTupleLetBindsBothNames(t *testing.T) {
	f := ident.NewFactory()
	r := New(f, nil)
	tl := surface.TupleLet{
		Fst:       name("a"),
		Snd:       name("b"),
		Scrutinee: surface.TT{},
		Body: surface.Tuple{
			Fst: surface.Unresolved{Name: "a"},
			Snd: surface.Unresolved{Name: "b"},
		},
	}
	got, err := r.Expr(tl)
	if err != nil {
		t.Fatal(err)
	}
	resolved := got.(surface.TupleLet)
	body := resolved.Body.(surface.Tuple)
	if body.Fst.(surface.Resolved).Var != resolved.Fst.Var {
		t.Fatal("body should resolve 'a' to Fst's binder")
	}
	if body.Snd.(surface.Resolved).Var != resolved.Snd.Var {
		t.Fatal("body should resolve 'b' to Snd's binder")
	}
}

func TestResolvePassthroughLeafExprsUnchanged(t *testing.T) {
	f := ident.NewFactory()
	r := New(f, nil)
	leaves := []surface.Expr{
		surface.Hole{}, surface.Univ{}, surface.Unit{}, surface.TT{},
		surface.Boolean{}, surface.False{}, surface.True{}, surface.String{},
		surface.Str{Value: "x"}, surface.Number{}, surface.Num{Value: "1"},
		surface.BigInt{}, surface.Big{Text: "1"}, surface.Row{}, surface.RowSat{}, surface.RowRefl{},
	}
	for _, l := range leaves {
		got, err := r.Expr(l)
		if err != nil {
			t.Fatalf("%#v: unexpected error %v", l, err)
		}
		if got != l {
			t.Fatalf("leaf expr should pass through unchanged: got %#v, want %#v", got, l)
		}
	}
}
