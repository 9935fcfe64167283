package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sunholo/rowscript/internal/coreerr"
	"github.com/sunholo/rowscript/internal/ident"
	"github.com/sunholo/rowscript/internal/sigma"
	"github.com/sunholo/rowscript/internal/term"
)

func newUnifySigma() (*ident.Factory, *sigma.Sigma) {
	f := ident.NewFactory()
	return f, sigma.New(f)
}

func TestUnifyBaseTypesReflexive(t *testing.T) {
	_, s := newUnifySigma()
	u := NewUnifier(s, sigma.Loc{})
	cases := []term.Term{term.Univ{}, term.Unit{}, term.Number{}, term.String{}, term.Boolean{}}
	for _, c := range cases {
		if err := u.Unify(c, c); err != nil {
			t.Fatalf("%#v should unify with itself: %v", c, err)
		}
	}
}

func TestUnifyMismatchedBaseTypesErrors(t *testing.T) {
	_, s := newUnifySigma()
	u := NewUnifier(s, sigma.Loc{})
	err := u.Unify(term.Number{}, term.String{})
	if _, ok := err.(*coreerr.NonUnifiableError); !ok {
		t.Fatalf("expected *coreerr.NonUnifiableError, got %#v", err)
	}
}

func TestUnifyPiIsAlphaEquivalent(t *testing.T) {
	f, s := newUnifySigma()
	x := f.Fresh("x")
	y := f.Fresh("y")
	// (x: Number) -> Number  and  (y: Number) -> Number should unify despite
	// the different binder identity.
	a := term.Pi{Param: term.Param[term.Term]{Var: x, Info: term.Explicit, Typ: term.Number{}}, Body: term.Number{}}
	b := term.Pi{Param: term.Param[term.Term]{Var: y, Info: term.Explicit, Typ: term.Number{}}, Body: term.Number{}}
	if err := NewUnifier(s, sigma.Loc{}).Unify(a, b); err != nil {
		t.Fatalf("alpha-equivalent Pi types should unify: %v", err)
	}
}

func TestUnifyPiDependentBodyReference(t *testing.T) {
	f, s := newUnifySigma()
	x := f.Fresh("x")
	y := f.Fresh("y")
	// (x: Number) -> Ref(x)  and  (y: Number) -> Ref(y): the dependent
	// body must be compared under x renamed to y's binder.
	a := term.Pi{Param: term.Param[term.Term]{Var: x, Info: term.Explicit, Typ: term.Number{}}, Body: term.Ref{Var: x}}
	b := term.Pi{Param: term.Param[term.Term]{Var: y, Info: term.Explicit, Typ: term.Number{}}, Body: term.Ref{Var: y}}
	if err := NewUnifier(s, sigma.Loc{}).Unify(a, b); err != nil {
		t.Fatalf("dependent Pi bodies referencing their own binder should unify: %v", err)
	}
}

func TestUnifyAppRequiresSameMode(t *testing.T) {
	f, s := newUnifySigma()
	v := f.Fresh("f")
	explicit := term.App{Func: term.Ref{Var: v}, Info: term.Explicit, Arg: term.Num{Value: 1}}
	implicit := term.App{Func: term.Ref{Var: v}, Info: term.Implicit, Arg: term.Num{Value: 1}}
	if err := NewUnifier(s, sigma.Loc{}).Unify(explicit, implicit); err == nil {
		t.Fatal("App nodes with different ParamInfo should not unify")
	}
}

func TestUnifySolvesMetaFirstWriteWins(t *testing.T) {
	_, s := newUnifySigma()
	v, ref := s.FreshMeta(ident.InsertedMeta, sigma.Loc{}, nil, term.Number{})

	if err := NewUnifier(s, sigma.Loc{}).Unify(ref, term.Num{Value: 1}); err != nil {
		t.Fatalf("unifying an unsolved meta should solve it: %v", err)
	}
	if err := NewUnifier(s, sigma.Loc{}).Unify(ref, term.Num{Value: 2}); err != nil {
		t.Fatalf("re-unifying an already-solved meta is a no-op, should not error: %v", err)
	}

	m := s.MustGet(v).Body.(sigma.Meta[term.Term])
	if num, ok := (*m.Solution).(term.Num); !ok || num.Value != 1 {
		t.Fatalf("solution should remain the first write (1), got %#v", *m.Solution)
	}
}

func TestUnifyFieldsOrdAllowsExtraBigFields(t *testing.T) {
	_, s := newUnifySigma()
	small := term.Fields{"a": term.Number{}}
	big := term.Fields{"a": term.Number{}, "b": term.String{}}
	if err := NewUnifier(s, sigma.Loc{}).UnifyFieldsOrd(small, big); err != nil {
		t.Fatalf("small subset of big should satisfy ordering: %v", err)
	}
}

func TestUnifyFieldsOrdRejectsMissingField(t *testing.T) {
	_, s := newUnifySigma()
	small := term.Fields{"a": term.Number{}, "c": term.Number{}}
	big := term.Fields{"a": term.Number{}}
	err := NewUnifier(s, sigma.Loc{}).UnifyFieldsOrd(small, big)
	if _, ok := err.(*coreerr.NonRowSatError); !ok {
		t.Fatalf("expected *coreerr.NonRowSatError, got %#v", err)
	}
}

func TestUnifyFieldsEqRejectsDifferentArity(t *testing.T) {
	_, s := newUnifySigma()
	a := term.Fields{"a": term.Number{}}
	b := term.Fields{"a": term.Number{}, "b": term.Number{}}
	if err := NewUnifier(s, sigma.Loc{}).UnifyFieldsEq(a, b); err == nil {
		t.Fatal("Fields of different arity should not unify as equal")
	}
}

func TestUnifyFieldsEqAcceptsSameFieldsDifferentOrder(t *testing.T) {
	_, s := newUnifySigma()
	a := term.Fields{"a": term.Number{}, "b": term.String{}}
	b := term.Fields{"b": term.String{}, "a": term.Number{}}
	if err := NewUnifier(s, sigma.Loc{}).UnifyFieldsEq(a, b); err != nil {
		t.Fatalf("Fields with the same entries regardless of map order should unify: %v", err)
	}
}

// TestUnifySolvedMetaSolutionMatchesCmpDiff diffs the recorded solution
// structurally with go-cmp rather than a type assertion plus field
// check, mirroring the teacher's own use of go-cmp for structural
// comparison (internal/parser/testutil.go goldenCompare).
func TestUnifySolvedMetaSolutionMatchesCmpDiff(t *testing.T) {
	_, s := newUnifySigma()
	v, ref := s.FreshMeta(ident.InsertedMeta, sigma.Loc{}, nil, term.Row{})
	rhs := term.FieldsTerm{Fields: term.Fields{"a": term.Number{}, "b": term.String{}}}

	if err := NewUnifier(s, sigma.Loc{}).Unify(ref, rhs); err != nil {
		t.Fatalf("unifying an unsolved meta against a row should solve it: %v", err)
	}

	m := s.MustGet(v).Body.(sigma.Meta[term.Term])
	if diff := cmp.Diff(rhs, *m.Solution); diff != "" {
		t.Fatalf("recorded solution mismatch (-want +got):\n%s", diff)
	}
}
