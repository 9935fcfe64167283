// Package core implements the three tightly-coupled algorithms at the
// heart of the type theory: the normalizer (spec.md §4.3), the unifier
// (§4.4), and instance search (§4.5). Each one recursively invokes the
// other two, so — like the teacher's internal/types package, where
// Unifier and RowUnifier share one file set — they live together here
// rather than behind an artificial package boundary that Go's import
// graph would reject anyway (the original Rust's normalize.rs and
// unify.rs already import each other).
package core

import (
	"github.com/sunholo/rowscript/internal/coreerr"
	"github.com/sunholo/rowscript/internal/ident"
	"github.com/sunholo/rowscript/internal/sigma"
	"github.com/sunholo/rowscript/internal/term"
)

// Normalizer reduces terms to weak-head normal form under (Σ, ρ),
// unfolding metavariables, β-redexes, and row/record/variant
// operations (spec.md §4.3). Grounded step-for-step on
// original_source/core/src/theory/abs/normalize.rs; the env-threading
// idiom mirrors the teacher's eval_core.go weak-head stepping.
type Normalizer struct {
	Sigma *sigma.Sigma
	Rho   *sigma.Rho
	Loc   sigma.Loc
	depth *term.DepthGuard
}

// NewNormalizer creates a normalizer over an empty ρ at the given
// location (used for error messages).
func NewNormalizer(s *sigma.Sigma, loc sigma.Loc) *Normalizer {
	return &Normalizer{Sigma: s, Rho: nil, Loc: loc, depth: term.NewDepthGuard("normalize")}
}

// withRho returns a copy of n with a different ρ, sharing depth guard
// and Sigma/Loc; used internally so pushing bindings never mutates a
// caller's Normalizer.
func (n *Normalizer) withRho(rho *sigma.Rho) *Normalizer {
	return &Normalizer{Sigma: n.Sigma, Rho: rho, Loc: n.Loc, depth: n.depth}
}

// Term normalizes t to weak-head normal form.
func (n *Normalizer) Term(t term.Term) (term.Term, error) {
	leave, err := n.depth.Enter()
	if err != nil {
		return nil, err
	}
	defer leave()
	return n.termImpl(t)
}

func (n *Normalizer) termImpl(t term.Term) (term.Term, error) {
	switch t := t.(type) {
	case term.Ref:
		if v, ok := n.Rho.Lookup(t.Var); ok {
			return n.Term(term.Rename(n.Sigma.Factory(), v))
		}
		return t, nil

	case term.MetaRef:
		return n.normalizeMetaRef(t)

	case term.Undef:
		d := n.Sigma.MustGet(t.Var)
		return d.ToTerm(n.Sigma.Factory()), nil

	case term.Let:
		a, err := n.Term(t.Rhs)
		if err != nil {
			return nil, err
		}
		if _, isMeta := a.(term.MetaRef); isMeta {
			return term.Let{Param: t.Param, Rhs: a, Body: t.Body}, nil
		}
		return n.With([]binding{{t.Param.Var, a}}, t.Body)

	case term.Pi:
		p, err := n.normParam(t.Param)
		if err != nil {
			return nil, err
		}
		b, err := n.Term(t.Body)
		if err != nil {
			return nil, err
		}
		return term.Pi{Param: p, Body: b}, nil

	case term.Lam:
		p, err := n.normParam(t.Param)
		if err != nil {
			return nil, err
		}
		b, err := n.Term(t.Body)
		if err != nil {
			return nil, err
		}
		return term.Lam{Param: p, Body: b}, nil

	case term.App:
		f, err := n.Term(t.Func)
		if err != nil {
			return nil, err
		}
		x, err := n.Term(t.Arg)
		if err != nil {
			return nil, err
		}
		if _, isMeta := x.(term.MetaRef); isMeta {
			return term.App{Func: f, Info: t.Info, Arg: x}, nil
		}
		if lam, ok := f.(term.Lam); ok {
			return n.With([]binding{{lam.Param.Var, x}}, lam.Body)
		}
		return term.App{Func: f, Info: t.Info, Arg: x}, nil

	case term.Sigma:
		p, err := n.normParam(t.Param)
		if err != nil {
			return nil, err
		}
		b, err := n.Term(t.Body)
		if err != nil {
			return nil, err
		}
		return term.Sigma{Param: p, Body: b}, nil

	case term.Tuple:
		a, err := n.Term(t.Fst)
		if err != nil {
			return nil, err
		}
		b, err := n.Term(t.Snd)
		if err != nil {
			return nil, err
		}
		return term.Tuple{Fst: a, Snd: b}, nil

	case term.TupleLet:
		a, err := n.Term(t.Scrutinee)
		if err != nil {
			return nil, err
		}
		if _, isMeta := a.(term.MetaRef); isMeta {
			return term.TupleLet{Fst: t.Fst, Snd: t.Snd, Scrutinee: a, Body: t.Body}, nil
		}
		if tup, ok := a.(term.Tuple); ok {
			return n.With([]binding{{t.Fst.Var, tup.Fst}, {t.Snd.Var, tup.Snd}}, t.Body)
		}
		return term.TupleLet{Fst: t.Fst, Snd: t.Snd, Scrutinee: a, Body: t.Body}, nil

	case term.UnitLet:
		a, err := n.Term(t.Scrutinee)
		if err != nil {
			return nil, err
		}
		if _, isMeta := a.(term.MetaRef); isMeta {
			return term.UnitLet{Scrutinee: a, Body: t.Body}, nil
		}
		if _, ok := a.(term.TT); ok {
			return n.Term(t.Body)
		}
		return term.UnitLet{Scrutinee: a, Body: t.Body}, nil

	case term.If:
		p, err := n.Term(t.Pred)
		if err != nil {
			return nil, err
		}
		switch p.(type) {
		case term.True:
			return n.Term(t.Then)
		case term.False:
			return n.Term(t.Else)
		default:
			then, err := n.Term(t.Then)
			if err != nil {
				return nil, err
			}
			els, err := n.Term(t.Else)
			if err != nil {
				return nil, err
			}
			return term.If{Pred: p, Then: then, Else: els}, nil
		}

	case term.FieldsTerm:
		nf := make(term.Fields, len(t.Fields))
		for name, v := range t.Fields {
			nv, err := n.Term(v)
			if err != nil {
				return nil, err
			}
			nf[name] = nv
		}
		return term.FieldsTerm{Fields: nf}, nil

	case term.Combine:
		a, err := n.Term(t.A)
		if err != nil {
			return nil, err
		}
		b, err := n.Term(t.B)
		if err != nil {
			return nil, err
		}
		af, aok := a.(term.FieldsTerm)
		bf, bok := b.(term.FieldsTerm)
		if aok && bok {
			return term.FieldsTerm{Fields: term.Merge(af.Fields, bf.Fields)}, nil
		}
		return term.Combine{A: a, B: b}, nil

	case term.RowOrd:
		a, err := n.Term(t.A)
		if err != nil {
			return nil, err
		}
		b, err := n.Term(t.B)
		if err != nil {
			return nil, err
		}
		af, aok := a.(term.FieldsTerm)
		bf, bok := b.(term.FieldsTerm)
		if aok && bok {
			u := NewUnifier(n.Sigma, n.Loc)
			var uerr error
			if t.Dir == term.Le {
				uerr = u.UnifyFieldsOrd(af.Fields, bf.Fields)
			} else {
				uerr = u.UnifyFieldsOrd(bf.Fields, af.Fields)
			}
			if uerr != nil {
				return nil, uerr
			}
		}
		return term.RowOrd{A: a, B: b, Dir: t.Dir}, nil

	case term.RowEq:
		a, err := n.Term(t.A)
		if err != nil {
			return nil, err
		}
		b, err := n.Term(t.B)
		if err != nil {
			return nil, err
		}
		af, aok := a.(term.FieldsTerm)
		bf, bok := b.(term.FieldsTerm)
		if aok && bok {
			if err := NewUnifier(n.Sigma, n.Loc).UnifyFieldsEq(af.Fields, bf.Fields); err != nil {
				return nil, err
			}
		}
		return term.RowEq{A: a, B: b}, nil

	case term.Object:
		r, err := n.Term(t.Row)
		if err != nil {
			return nil, err
		}
		return term.Object{Row: r}, nil

	case term.Obj:
		f, err := n.Term(t.Fields)
		if err != nil {
			return nil, err
		}
		return term.Obj{Fields: f}, nil

	case term.Concat:
		a, err := n.Term(t.A)
		if err != nil {
			return nil, err
		}
		b, err := n.Term(t.B)
		if err != nil {
			return nil, err
		}
		if ao, ok := a.(term.Obj); ok {
			if bo, ok := b.(term.Obj); ok {
				if af, ok := ao.Fields.(term.FieldsTerm); ok {
					if bf, ok := bo.Fields.(term.FieldsTerm); ok {
						return term.Obj{Fields: term.FieldsTerm{Fields: term.Merge(af.Fields, bf.Fields)}}, nil
					}
				}
			}
		}
		return term.Concat{A: a, B: b}, nil

	case term.Access:
		a, err := n.Term(t.Obj)
		if err != nil {
			return nil, err
		}
		if ao, ok := a.(term.Obj); ok {
			if af, ok := ao.Fields.(term.FieldsTerm); ok {
				if v, ok := af.Fields[t.Name]; ok {
					return v, nil
				}
				return nil, &coreerr.UnresolvedFieldError{Loc: n.Loc, Name: t.Name, Type: a}
			}
		}
		return term.Access{Obj: a, Name: t.Name}, nil

	case term.Downcast:
		a, err := n.Term(t.Obj)
		if err != nil {
			return nil, err
		}
		f, err := n.Term(t.ToFields)
		if err != nil {
			return nil, err
		}
		if ao, ok := a.(term.Obj); ok {
			if yf, ok := f.(term.FieldsTerm); ok {
				if xf, ok := ao.Fields.(term.FieldsTerm); ok {
					nf := make(term.Fields, len(yf.Fields))
					for name := range yf.Fields {
						v, ok := xf.Fields[name]
						if !ok {
							return nil, &coreerr.UnresolvedFieldError{Loc: n.Loc, Name: name, Type: a}
						}
						nf[name] = v
					}
					return term.Obj{Fields: term.FieldsTerm{Fields: nf}}, nil
				}
			}
		}
		return term.Downcast{Obj: a, ToFields: f}, nil

	case term.Enum:
		r, err := n.Term(t.Row)
		if err != nil {
			return nil, err
		}
		return term.Enum{Row: r}, nil

	case term.Variant:
		f, err := n.Term(t.Fields)
		if err != nil {
			return nil, err
		}
		return term.Variant{Fields: f}, nil

	case term.Upcast:
		a, err := n.Term(t.Variant)
		if err != nil {
			return nil, err
		}
		f, err := n.Term(t.ToFields)
		if err != nil {
			return nil, err
		}
		if vo, ok := a.(term.Variant); ok {
			if yf, ok := f.(term.FieldsTerm); ok {
				if xf, ok := vo.Fields.(term.FieldsTerm); ok {
					nf := make(term.Fields, len(xf.Fields))
					for name := range xf.Fields {
						v, ok := yf.Fields[name]
						if !ok {
							return nil, &coreerr.UnresolvedFieldError{Loc: n.Loc, Name: name, Type: f}
						}
						nf[name] = v
					}
					return term.Variant{Fields: term.FieldsTerm{Fields: nf}}, nil
				}
			}
		}
		return term.Upcast{Variant: a, ToFields: f}, nil

	case term.Switch:
		a, err := n.Term(t.Scrutinee)
		if err != nil {
			return nil, err
		}
		if vo, ok := a.(term.Variant); ok {
			if xf, ok := vo.Fields.(term.FieldsTerm); ok {
				for name, payload := range xf.Fields {
					c, ok := t.Cases[name]
					if !ok {
						return nil, &coreerr.NonExhaustiveError{Loc: n.Loc, Type: a}
					}
					return n.With([]binding{{c.Var, payload}}, c.Body)
				}
			}
		}
		return term.Switch{Scrutinee: a, Cases: t.Cases}, nil

	case term.ImplementsOf:
		if _, isRef := t.Term.(term.Ref); !isRef {
			if err := n.checkConstraint(t.Term, t.Interface); err != nil {
				return nil, err
			}
		}
		return t, nil

	case term.Find:
		if _, isRef := t.Type.(term.Ref); isRef {
			return t, nil
		}
		return n.findImplementation(t.Type, t.Interface, t.Method)

	case term.Univ, term.Unit, term.TT, term.Boolean, term.False, term.True,
		term.String, term.Str, term.Number, term.Num, term.BigInt, term.Big,
		term.Row, term.RowSat, term.RowRefl, term.Vptr, term.ImplementsSat,
		term.Qualified:
		return t, nil

	default:
		return t, nil
	}
}

type binding struct {
	v *ident.Var
	t term.Term
}

// With extends ρ with the given bindings and normalizes tm under it,
// mirroring original_source's Normalizer::with.
func (n *Normalizer) With(bindings []binding, tm term.Term) (term.Term, error) {
	rho := n.Rho
	for _, b := range bindings {
		rho = rho.Push(b.v, b.t)
	}
	return n.withRho(rho).Term(tm)
}

// Apply applies f to args left to right, β-reducing through any
// leading Lam and rebuilding App nodes otherwise (original_source's
// Normalizer::apply).
func (n *Normalizer) Apply(f term.Term, info term.ParamInfo, args []term.Term) (term.Term, error) {
	ret := f
	for _, x := range args {
		if lam, ok := ret.(term.Lam); ok {
			r, err := n.With([]binding{{lam.Param.Var, x}}, lam.Body)
			if err != nil {
				return nil, err
			}
			ret = r
		} else {
			ret = term.App{Func: ret, Info: info, Arg: x}
		}
	}
	return ret, nil
}

func (n *Normalizer) normParam(p term.Param[term.Term]) (term.Param[term.Term], error) {
	t, err := n.Term(p.Typ)
	if err != nil {
		return term.Param[term.Term]{}, err
	}
	return term.Param[term.Term]{Var: p.Var, Info: p.Info, Typ: t}, nil
}

// normalizeMetaRef unfolds a MetaRef: if the metavariable is solved,
// instantiate its solution against the pending spine; if unsolved and
// its return type is itself a trivially-discharged predicate
// (RowEq/RowOrd/ImplementsOf), auto-solve it with the canonical
// witness and store that solution.
func (n *Normalizer) normalizeMetaRef(t term.MetaRef) (term.Term, error) {
	d := n.Sigma.MustGet(t.Var)
	ret, err := n.Term(d.Ret)
	if err != nil {
		return nil, err
	}
	d.Ret = ret

	m, ok := d.Body.(sigma.Meta[term.Term])
	if !ok {
		panic("core: normalizeMetaRef: Σ entry is not a Meta")
	}
	if m.Solution != nil {
		unfolded := term.Rename(n.Sigma.Factory(), term.LamTele(d.Tele, *m.Solution))
		for _, arg := range t.Spine {
			unfolded = term.App{Func: unfolded, Info: arg.Info, Arg: arg.Term}
		}
		return n.Term(unfolded)
	}

	if witness := autoImplicitWitness(ret); witness != nil {
		if err := n.Sigma.SolveMeta(t.Var, witness); err != nil {
			return nil, err
		}
		return witness, nil
	}

	sp := make(term.Spine, len(t.Spine))
	for i, a := range t.Spine {
		at, err := n.Term(a.Term)
		if err != nil {
			return nil, err
		}
		sp[i] = term.SpineArg{Info: a.Info, Term: at}
	}
	return term.MetaRef{Kind: t.Kind, Var: t.Var, Spine: sp}, nil
}

// autoImplicitWitness returns the canonical proof term for the three
// predicates that are always trivially discharged once their shape is
// known, or nil if typ is not one of them.
func autoImplicitWitness(typ term.Term) term.Term {
	switch typ.(type) {
	case term.RowEq:
		return term.RowRefl{}
	case term.RowOrd:
		return term.RowSat{}
	case term.ImplementsOf:
		return term.ImplementsSat{}
	default:
		return nil
	}
}

// checkConstraint discharges an ImplementsOf predicate whose subject
// is not a bare Ref by delegating to instance search.
func (n *Normalizer) checkConstraint(subject term.Term, iface *ident.Var) error {
	return SearchInstance(n.Sigma, n.Loc, subject, iface)
}

// findImplementation resolves a Find node whose subject type is known
// by delegating to instance search and returning the implementation's
// canonical term.
func (n *Normalizer) findImplementation(ty term.Term, iface, method *ident.Var) (term.Term, error) {
	return FindMethod(n.Sigma, n.Loc, ty, iface, method)
}
