package core

import (
	"testing"

	"github.com/sunholo/rowscript/internal/coreerr"
	"github.com/sunholo/rowscript/internal/ident"
	"github.com/sunholo/rowscript/internal/sigma"
	"github.com/sunholo/rowscript/internal/term"
)

func newInterface(t *testing.T, f *ident.Factory, s *sigma.Sigma, name string) *ident.Var {
	t.Helper()
	v := f.Fresh(name)
	if err := s.Insert(&sigma.Def[term.Term]{Name: v, Body: sigma.Undefined{}}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBody(v, sigma.Interface{}); err != nil {
		t.Fatal(err)
	}
	return v
}

// registerImpl registers iface's implementation for a type (denoted
// by its own Def whose Ret is the type term itself) with one method
// bound to a distinguishing body term, returning the Implements Var.
func registerImpl(t *testing.T, f *ident.Factory, s *sigma.Sigma, iface *ident.Var, ty term.Term, method *ident.Var, fnBody term.Term) *ident.Var {
	t.Helper()
	implementor := f.Fresh("Ty")
	if err := s.Insert(&sigma.Def[term.Term]{Name: implementor, Body: sigma.Postulate{}, Ret: ty}); err != nil {
		t.Fatal(err)
	}

	fn := f.Fresh("fn")
	if err := s.Insert(&sigma.Def[term.Term]{Name: fn, Body: sigma.Undefined{}}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBody(fn, sigma.ImplementsFn[term.Term]{Term: fnBody}); err != nil {
		t.Fatal(err)
	}

	implVar := f.Fresh("impl")
	fns := map[*ident.Var]*ident.Var{}
	if method != nil {
		fns[method] = fn
	}
	if err := s.Insert(&sigma.Def[term.Term]{Name: implVar, Body: sigma.Undefined{}}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBody(implVar, sigma.Implements{Interface: iface, Implementor: implementor, Fns: fns}); err != nil {
		t.Fatal(err)
	}
	if err := s.RegisterImplementation(iface, implVar); err != nil {
		t.Fatal(err)
	}
	return implVar
}

func TestSearchInstanceFindsMatchingImplementor(t *testing.T) {
	f := ident.NewFactory()
	s := sigma.New(f)
	iface := newInterface(t, f, s, "Show")
	registerImpl(t, f, s, iface, term.Number{}, nil, nil)

	if err := SearchInstance(s, sigma.Loc{}, term.Number{}, iface); err != nil {
		t.Fatalf("a registered implementor matching the subject type should be found: %v", err)
	}
}

func TestSearchInstanceNoMatchErrors(t *testing.T) {
	f := ident.NewFactory()
	s := sigma.New(f)
	iface := newInterface(t, f, s, "Show")
	registerImpl(t, f, s, iface, term.Number{}, nil, nil)

	err := SearchInstance(s, sigma.Loc{}, term.String{}, iface)
	if _, ok := err.(*coreerr.UnresolvedImplementationError); !ok {
		t.Fatalf("expected *coreerr.UnresolvedImplementationError, got %#v", err)
	}
}

func TestSearchInstanceNonInterfaceBodyErrors(t *testing.T) {
	f := ident.NewFactory()
	s := sigma.New(f)
	v := f.Fresh("NotAnInterface")
	if err := s.Insert(&sigma.Def[term.Term]{Name: v, Body: sigma.Undefined{}}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBody(v, sigma.Fun[term.Term]{Term: term.TT{}}); err != nil {
		t.Fatal(err)
	}

	err := SearchInstance(s, sigma.Loc{}, term.Number{}, v)
	if err == nil {
		t.Fatal("searching a non-interface Var should error")
	}
}

func TestSearchInstanceFallsBackToSuper(t *testing.T) {
	f := ident.NewFactory()
	s := sigma.New(f)
	eq := newInterface(t, f, s, "Eq")
	registerImpl(t, f, s, eq, term.Number{}, nil, nil)

	ord := f.Fresh("Ord")
	if err := s.Insert(&sigma.Def[term.Term]{Name: ord, Body: sigma.Undefined{}}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBody(ord, sigma.Interface{Supers: []*ident.Var{eq}}); err != nil {
		t.Fatal(err)
	}

	// Ord has no direct implementor of Number, but derives it from Eq.
	if err := SearchInstance(s, sigma.Loc{}, term.Number{}, ord); err != nil {
		t.Fatalf("SearchInstance should fall back to a superclass's implementors: %v", err)
	}
}

func TestFindMethodMostRecentRegistrationWins(t *testing.T) {
	f := ident.NewFactory()
	s := sigma.New(f)
	iface := newInterface(t, f, s, "Show")
	method := f.Fresh("show")

	registerImpl(t, f, s, iface, term.Number{}, method, term.Str{Value: "first"})
	registerImpl(t, f, s, iface, term.Number{}, method, term.Str{Value: "second"})

	got, err := FindMethod(s, sigma.Loc{}, term.Number{}, iface, method)
	if err != nil {
		t.Fatal(err)
	}
	if str, ok := got.(term.Str); !ok || str.Value != "second" {
		t.Fatalf("the most recently registered implementation should win on overlap, got %#v", got)
	}
}

func TestFindMethodFallsBackToSuper(t *testing.T) {
	f := ident.NewFactory()
	s := sigma.New(f)
	eq := newInterface(t, f, s, "Eq")
	method := f.Fresh("eq")
	registerImpl(t, f, s, eq, term.Number{}, method, term.Str{Value: "eq-number"})

	ord := f.Fresh("Ord")
	if err := s.Insert(&sigma.Def[term.Term]{Name: ord, Body: sigma.Undefined{}}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBody(ord, sigma.Interface{Supers: []*ident.Var{eq}}); err != nil {
		t.Fatal(err)
	}

	got, err := FindMethod(s, sigma.Loc{}, term.Number{}, ord, method)
	if err != nil {
		t.Fatal(err)
	}
	if str, ok := got.(term.Str); !ok || str.Value != "eq-number" {
		t.Fatalf("FindMethod should derive the method from a superclass's implementor, got %#v", got)
	}
}

func TestFindMethodUnmatchedMethodErrors(t *testing.T) {
	f := ident.NewFactory()
	s := sigma.New(f)
	iface := newInterface(t, f, s, "Show")
	registerImpl(t, f, s, iface, term.Number{}, nil, nil)

	other := f.Fresh("otherMethod")
	_, err := FindMethod(s, sigma.Loc{}, term.Number{}, iface, other)
	if _, ok := err.(*coreerr.UnresolvedImplementationError); !ok {
		t.Fatalf("expected *coreerr.UnresolvedImplementationError when no implementor binds the method, got %#v", err)
	}
}
