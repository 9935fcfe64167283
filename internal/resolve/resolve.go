// Package resolve implements the Resolver (spec.md §4.1): it walks a
// surface.Expr tree replacing every surface.Unresolved with a
// surface.Resolved bound to a freshly-identified *ident.Var, enforcing
// scoping and duplicate-field detection along the way.
//
// Grounded on the teacher's internal/link/resolver.go scope-stack walk
// (a slice-of-frames pushed on entering a binder, popped on exit,
// restoring whatever name it shadowed) and on
// original_source/core/src/theory/conc/data.rs's wrap_tuple_lets for
// the tuple-lambda desugaring.
package resolve

import (
	"github.com/sunholo/rowscript/internal/coreerr"
	"github.com/sunholo/rowscript/internal/ident"
	"github.com/sunholo/rowscript/internal/sigma"
	"github.com/sunholo/rowscript/internal/surface"
)

// scope is one frame of the active name map: module-level globals, or
// one binder's worth of local names.
type scope struct {
	parent *scope
	names  map[string]*ident.Var
}

func (s *scope) lookup(name string) (*ident.Var, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.names[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Resolver threads the active scope chain and a shared ident.Factory
// through a single resolution pass (spec.md §4.1).
type Resolver struct {
	factory *ident.Factory
	top     *scope
}

// New creates a Resolver whose module-level scope is pre-populated
// with the builtins/imports map (loader-supplied names, spec.md §6
// "prelude registered as built-ins").
func New(factory *ident.Factory, builtins map[string]*ident.Var) *Resolver {
	names := make(map[string]*ident.Var, len(builtins))
	for k, v := range builtins {
		names[k] = v
	}
	return &Resolver{factory: factory, top: &scope{names: names}}
}

func (r *Resolver) push() { r.top = &scope{parent: r.top, names: make(map[string]*ident.Var)} }
func (r *Resolver) pop()  { r.top = r.top.parent }

// bind introduces name into the innermost scope, returning its fresh
// Var. Re-binding the same name within ONE scope frame (e.g. two
// fields of the same record/variant row) is a DuplicateName error;
// shadowing a name from an enclosing scope is allowed.
func (r *Resolver) bind(loc sigma.Loc, name string) (*ident.Var, error) {
	if _, ok := r.top.names[name]; ok {
		return nil, &coreerr.DuplicateNameError{Loc: loc, Name: name}
	}
	v := r.factory.Fresh(name)
	r.top.names[name] = v
	return v, nil
}

// Expr resolves every Unresolved name reachable from e.
func (r *Resolver) Expr(e surface.Expr) (surface.Expr, error) {
	switch e := e.(type) {
	case surface.Unresolved:
		v, ok := r.top.lookup(e.Name)
		if !ok {
			return nil, &coreerr.UnresolvedVarError{Loc: e.Loc.ToSigma(), Name: e.Name}
		}
		return surface.Resolved{Loc: e.Loc, Var: v}, nil

	case surface.Resolved, surface.Hole, surface.InsertedHole, surface.Univ,
		surface.Unit, surface.TT, surface.Boolean, surface.False, surface.True,
		surface.String, surface.Str, surface.Number, surface.Num,
		surface.BigInt, surface.Big, surface.Row, surface.RowSat, surface.RowRefl:
		return e, nil

	case surface.Let:
		rhs, err := r.Expr(e.Rhs)
		if err != nil {
			return nil, err
		}
		var typ surface.Expr
		if e.Typ != nil {
			typ, err = r.Expr(e.Typ)
			if err != nil {
				return nil, err
			}
		}
		r.push()
		defer r.pop()
		v, err := r.bind(e.Name.Loc.ToSigma(), e.Name.Value)
		if err != nil {
			return nil, err
		}
		body, err := r.Expr(e.Body)
		if err != nil {
			return nil, err
		}
		return surface.Let{Loc: e.Loc, Name: named(e.Name.Loc, v), Typ: typ, Rhs: rhs, Body: body}, nil

	case surface.Pi:
		typ, err := r.Expr(e.Param.Typ)
		if err != nil {
			return nil, err
		}
		r.push()
		defer r.pop()
		v, err := r.bind(e.Param.Name.Loc.ToSigma(), e.Param.Name.Value)
		if err != nil {
			return nil, err
		}
		body, err := r.Expr(e.Body)
		if err != nil {
			return nil, err
		}
		return surface.Pi{Loc: e.Loc, Param: surface.ExprParam{Name: named(e.Param.Name.Loc, v), Info: e.Param.Info, Typ: typ}, Body: body}, nil

	case surface.Sigma:
		typ, err := r.Expr(e.Param.Typ)
		if err != nil {
			return nil, err
		}
		r.push()
		defer r.pop()
		v, err := r.bind(e.Param.Name.Loc.ToSigma(), e.Param.Name.Value)
		if err != nil {
			return nil, err
		}
		body, err := r.Expr(e.Body)
		if err != nil {
			return nil, err
		}
		return surface.Sigma{Loc: e.Loc, Param: surface.ExprParam{Name: named(e.Param.Name.Loc, v), Info: e.Param.Info, Typ: typ}, Body: body}, nil

	case surface.Lam:
		r.push()
		defer r.pop()
		v, err := r.bind(e.Name.Loc.ToSigma(), e.Name.Value)
		if err != nil {
			return nil, err
		}
		body, err := r.Expr(e.Body)
		if err != nil {
			return nil, err
		}
		return surface.Lam{Loc: e.Loc, Name: named(e.Name.Loc, v), Body: body}, nil

	case surface.TupledLam:
		// Desugar (x, y, ...) => body into nested TupleLet bindings over
		// freshly-named untupled variables (spec.md §4.1), then resolve
		// the desugared form directly so only Lam/TupleLet ever need a
		// binder case downstream.
		return r.Expr(desugarTupledLam(e))

	case surface.App:
		fn, err := r.Expr(e.Fn)
		if err != nil {
			return nil, err
		}
		arg, err := r.Expr(e.Arg)
		if err != nil {
			return nil, err
		}
		return surface.App{Loc: e.Loc, Fn: fn, Info: e.Info, Name: e.Name, Arg: arg}, nil

	case surface.Tuple:
		a, err := r.Expr(e.Fst)
		if err != nil {
			return nil, err
		}
		b, err := r.Expr(e.Snd)
		if err != nil {
			return nil, err
		}
		return surface.Tuple{Loc: e.Loc, Fst: a, Snd: b}, nil

	case surface.TupleLet:
		scrutinee, err := r.Expr(e.Scrutinee)
		if err != nil {
			return nil, err
		}
		r.push()
		defer r.pop()
		fst, err := r.bind(e.Fst.Loc.ToSigma(), e.Fst.Value)
		if err != nil {
			return nil, err
		}
		snd, err := r.bind(e.Snd.Loc.ToSigma(), e.Snd.Value)
		if err != nil {
			return nil, err
		}
		body, err := r.Expr(e.Body)
		if err != nil {
			return nil, err
		}
		return surface.TupleLet{Loc: e.Loc, Fst: named(e.Fst.Loc, fst), Snd: named(e.Snd.Loc, snd), Scrutinee: scrutinee, Body: body}, nil

	case surface.UnitLet:
		scrutinee, err := r.Expr(e.Scrutinee)
		if err != nil {
			return nil, err
		}
		body, err := r.Expr(e.Body)
		if err != nil {
			return nil, err
		}
		return surface.UnitLet{Loc: e.Loc, Scrutinee: scrutinee, Body: body}, nil

	case surface.If:
		p, err := r.Expr(e.Pred)
		if err != nil {
			return nil, err
		}
		t, err := r.Expr(e.Then)
		if err != nil {
			return nil, err
		}
		el, err := r.Expr(e.Else)
		if err != nil {
			return nil, err
		}
		return surface.If{Loc: e.Loc, Pred: p, Then: t, Else: el}, nil

	case surface.Fields:
		return r.fields(e)

	case surface.Combine:
		a, err := r.Expr(e.A)
		if err != nil {
			return nil, err
		}
		b, err := r.Expr(e.B)
		if err != nil {
			return nil, err
		}
		return surface.Combine{Loc: e.Loc, A: a, B: b}, nil

	case surface.RowOrd:
		a, err := r.Expr(e.A)
		if err != nil {
			return nil, err
		}
		b, err := r.Expr(e.B)
		if err != nil {
			return nil, err
		}
		return surface.RowOrd{Loc: e.Loc, A: a, Dir: e.Dir, B: b}, nil

	case surface.RowEq:
		a, err := r.Expr(e.A)
		if err != nil {
			return nil, err
		}
		b, err := r.Expr(e.B)
		if err != nil {
			return nil, err
		}
		return surface.RowEq{Loc: e.Loc, A: a, B: b}, nil

	case surface.Object:
		row, err := r.Expr(e.Row)
		if err != nil {
			return nil, err
		}
		return surface.Object{Loc: e.Loc, Row: row}, nil

	case surface.Obj:
		f, err := r.Expr(e.Fields)
		if err != nil {
			return nil, err
		}
		return surface.Obj{Loc: e.Loc, Fields: f}, nil

	case surface.Concat:
		a, err := r.Expr(e.A)
		if err != nil {
			return nil, err
		}
		b, err := r.Expr(e.B)
		if err != nil {
			return nil, err
		}
		return surface.Concat{Loc: e.Loc, A: a, B: b}, nil

	case surface.Access:
		obj, err := r.Expr(e.Obj)
		if err != nil {
			return nil, err
		}
		return surface.Access{Loc: e.Loc, Obj: obj, Name: e.Name}, nil

	case surface.Cast:
		obj, err := r.Expr(e.Obj)
		if err != nil {
			return nil, err
		}
		return surface.Cast{Loc: e.Loc, Obj: obj}, nil

	case surface.Enum:
		row, err := r.Expr(e.Row)
		if err != nil {
			return nil, err
		}
		return surface.Enum{Loc: e.Loc, Row: row}, nil

	case surface.Variant:
		v, err := r.Expr(e.Value)
		if err != nil {
			return nil, err
		}
		return surface.Variant{Loc: e.Loc, Tag: e.Tag, Value: v}, nil

	case surface.Switch:
		scrutinee, err := r.Expr(e.Scrutinee)
		if err != nil {
			return nil, err
		}
		cases := make([]surface.Case, len(e.Cases))
		for i, c := range e.Cases {
			r.push()
			v, err := r.bind(c.Name.Loc.ToSigma(), c.Name.Value)
			if err != nil {
				r.pop()
				return nil, err
			}
			body, err := r.Expr(c.Body)
			r.pop()
			if err != nil {
				return nil, err
			}
			cases[i] = surface.Case{Tag: c.Tag, Name: named(c.Name.Loc, v), Body: body}
		}
		return surface.Switch{Loc: e.Loc, Scrutinee: scrutinee, Cases: cases}, nil

	case surface.Lookup:
		obj, err := r.Expr(e.Obj)
		if err != nil {
			return nil, err
		}
		arg, err := r.Expr(e.Arg)
		if err != nil {
			return nil, err
		}
		return surface.Lookup{Loc: e.Loc, Obj: obj, Name: e.Name, Arg: arg}, nil

	case surface.ImplementsOf:
		tm, err := r.Expr(e.Term)
		if err != nil {
			return nil, err
		}
		iv, ok := r.top.lookup(e.Interface.Value)
		if !ok {
			return nil, &coreerr.UnresolvedVarError{Loc: e.Interface.Loc.ToSigma(), Name: e.Interface.Value}
		}
		return surface.ImplementsOf{Loc: e.Loc, Term: tm, Interface: named(e.Interface.Loc, iv)}, nil

	default:
		return e, nil
	}
}

func (r *Resolver) fields(e surface.Fields) (surface.Expr, error) {
	out := make([]surface.Field, len(e.Fields))
	seen := make(map[string]bool, len(e.Fields))
	for i, f := range e.Fields {
		if seen[f.Name.Value] {
			return nil, &coreerr.DuplicateNameError{Loc: f.Name.Loc.ToSigma(), Name: f.Name.Value}
		}
		seen[f.Name.Value] = true
		v, err := r.Expr(f.Value)
		if err != nil {
			return nil, err
		}
		out[i] = surface.Field{Name: f.Name, Value: v}
	}
	return surface.Fields{Loc: e.Loc, Fields: out}, nil
}

func named(loc surface.Loc, v *ident.Var) surface.Name {
	return surface.Name{Loc: loc, Value: v.Name(), Var: v}
}
