package core

import (
	"github.com/sunholo/rowscript/internal/coreerr"
	"github.com/sunholo/rowscript/internal/ident"
	"github.com/sunholo/rowscript/internal/sigma"
	"github.com/sunholo/rowscript/internal/term"
)

// Unifier performs structural term equality modulo ρ and
// α-renaming, solving metavariables as it goes (spec.md §4.4).
// Grounded on original_source/core/src/theory/abs/unify.rs, with row
// comparison borrowing the common/only1/only2 split idiom from the
// teacher's internal/types/row_unification.go (expressed here over
// term.Fields instead of a separate Row type, since this theory
// represents rows and records with the same Fields map).
type Unifier struct {
	Sigma *sigma.Sigma
	Loc   sigma.Loc
	depth *term.DepthGuard
}

// NewUnifier creates a unifier reporting errors at the given location.
func NewUnifier(s *sigma.Sigma, loc sigma.Loc) *Unifier {
	return &Unifier{Sigma: s, Loc: loc, depth: term.NewDepthGuard("unify")}
}

func (u *Unifier) err(lhs, rhs term.Term) error {
	return &coreerr.NonUnifiableError{Loc: u.Loc, Lhs: lhs, Rhs: rhs}
}

func (u *Unifier) normalizer() *Normalizer {
	return NewNormalizer(u.Sigma, u.Loc)
}

// Unify asserts lhs and rhs are definitionally equal, instantiating
// any metavariable found on either side.
func (u *Unifier) Unify(lhs, rhs term.Term) error {
	leave, err := u.depth.Enter()
	if err != nil {
		return err
	}
	defer leave()
	return u.unifyImpl(lhs, rhs)
}

func (u *Unifier) unifyImpl(lhs, rhs term.Term) error {
	if m, ok := lhs.(term.MetaRef); ok {
		return u.solve(m.Var, rhs)
	}
	if m, ok := rhs.(term.MetaRef); ok {
		return u.solve(m.Var, lhs)
	}

	switch a := lhs.(type) {
	case term.Ref:
		if b, ok := rhs.(term.Ref); ok && a.Var == b.Var {
			return nil
		}
		if d, ok := u.Sigma.Get(a.Var); ok {
			return u.Unify(d.ToTerm(u.Sigma.Factory()), rhs)
		}
		return u.err(lhs, rhs)

	case term.Qualified:
		if b, ok := rhs.(term.Qualified); ok && a.Var == b.Var {
			return nil
		}
		if d, ok := u.Sigma.Get(a.Var); ok {
			return u.Unify(d.ToTerm(u.Sigma.Factory()), rhs)
		}
		return u.err(lhs, rhs)

	case term.Let:
		b, ok := rhs.(term.Let)
		if !ok {
			return u.err(lhs, rhs)
		}
		if err := u.Unify(a.Param.Typ, b.Param.Typ); err != nil {
			return err
		}
		if err := u.Unify(a.Rhs, b.Rhs); err != nil {
			return err
		}
		return u.Unify(a.Body, b.Body)

	case term.Pi:
		b, ok := rhs.(term.Pi)
		if !ok {
			return u.err(lhs, rhs)
		}
		if err := u.Unify(a.Param.Typ, b.Param.Typ); err != nil {
			return err
		}
		renamedBody, err := u.normalizer().With([]binding{{b.Param.Var, term.Ref{Var: a.Param.Var}}}, b.Body)
		if err != nil {
			return err
		}
		return u.Unify(a.Body, renamedBody)

	case term.Lam:
		if _, ok := rhs.(term.Lam); !ok {
			return u.err(lhs, rhs)
		}
		etaBody, err := u.normalizer().Apply(rhs, a.Param.Info, []term.Term{term.Ref{Var: a.Param.Var}})
		if err != nil {
			return err
		}
		return u.Unify(a.Body, etaBody)

	case term.App:
		b, ok := rhs.(term.App)
		if !ok || a.Info != b.Info {
			return u.err(lhs, rhs)
		}
		if err := u.Unify(a.Func, b.Func); err != nil {
			return err
		}
		return u.Unify(a.Arg, b.Arg)

	case term.Sigma:
		b, ok := rhs.(term.Sigma)
		if !ok {
			return u.err(lhs, rhs)
		}
		if err := u.Unify(a.Param.Typ, b.Param.Typ); err != nil {
			return err
		}
		renamedBody, err := u.normalizer().With([]binding{{b.Param.Var, term.Ref{Var: a.Param.Var}}}, b.Body)
		if err != nil {
			return err
		}
		return u.Unify(a.Body, renamedBody)

	case term.Tuple:
		b, ok := rhs.(term.Tuple)
		if !ok {
			return u.err(lhs, rhs)
		}
		if err := u.Unify(a.Fst, b.Fst); err != nil {
			return err
		}
		return u.Unify(a.Snd, b.Snd)

	case term.TupleLet:
		b, ok := rhs.(term.TupleLet)
		if !ok {
			return u.err(lhs, rhs)
		}
		renamedBody, err := u.normalizer().With([]binding{
			{b.Fst.Var, term.Ref{Var: a.Fst.Var}},
			{b.Snd.Var, term.Ref{Var: a.Snd.Var}},
		}, b.Body)
		if err != nil {
			return err
		}
		if err := u.Unify(a.Scrutinee, b.Scrutinee); err != nil {
			return err
		}
		return u.Unify(a.Body, renamedBody)

	case term.UnitLet:
		b, ok := rhs.(term.UnitLet)
		if !ok {
			return u.err(lhs, rhs)
		}
		if err := u.Unify(a.Scrutinee, b.Scrutinee); err != nil {
			return err
		}
		return u.Unify(a.Body, b.Body)

	case term.If:
		b, ok := rhs.(term.If)
		if !ok {
			return u.err(lhs, rhs)
		}
		if err := u.Unify(a.Pred, b.Pred); err != nil {
			return err
		}
		if err := u.Unify(a.Then, b.Then); err != nil {
			return err
		}
		return u.Unify(a.Else, b.Else)

	case term.FieldsTerm:
		b, ok := rhs.(term.FieldsTerm)
		if !ok {
			return u.err(lhs, rhs)
		}
		return u.UnifyFieldsEq(a.Fields, b.Fields)

	case term.Object:
		b, ok := rhs.(term.Object)
		if !ok {
			return u.err(lhs, rhs)
		}
		return u.Unify(a.Row, b.Row)

	case term.Obj:
		b, ok := rhs.(term.Obj)
		if !ok {
			return u.err(lhs, rhs)
		}
		return u.Unify(a.Fields, b.Fields)

	case term.Enum:
		b, ok := rhs.(term.Enum)
		if !ok {
			return u.err(lhs, rhs)
		}
		return u.Unify(a.Row, b.Row)

	case term.Variant:
		b, ok := rhs.(term.Variant)
		if !ok {
			return u.err(lhs, rhs)
		}
		return u.Unify(a.Fields, b.Fields)

	case term.Str:
		b, ok := rhs.(term.Str)
		if !ok || a.Value != b.Value {
			return u.err(lhs, rhs)
		}
		return nil

	case term.Num:
		b, ok := rhs.(term.Num)
		if !ok || a.Value != b.Value {
			return u.err(lhs, rhs)
		}
		return nil

	case term.Big:
		b, ok := rhs.(term.Big)
		if !ok || a.Text != b.Text {
			return u.err(lhs, rhs)
		}
		return nil

	case term.Vptr:
		b, ok := rhs.(term.Vptr)
		if !ok || a.Class != b.Class {
			return u.err(lhs, rhs)
		}
		return nil

	case term.Univ:
		_, ok := rhs.(term.Univ)
		return okOrErr(ok, u, lhs, rhs)
	case term.Unit:
		_, ok := rhs.(term.Unit)
		return okOrErr(ok, u, lhs, rhs)
	case term.TT:
		_, ok := rhs.(term.TT)
		return okOrErr(ok, u, lhs, rhs)
	case term.Boolean:
		_, ok := rhs.(term.Boolean)
		return okOrErr(ok, u, lhs, rhs)
	case term.False:
		_, ok := rhs.(term.False)
		return okOrErr(ok, u, lhs, rhs)
	case term.True:
		_, ok := rhs.(term.True)
		return okOrErr(ok, u, lhs, rhs)
	case term.String:
		_, ok := rhs.(term.String)
		return okOrErr(ok, u, lhs, rhs)
	case term.Number:
		_, ok := rhs.(term.Number)
		return okOrErr(ok, u, lhs, rhs)
	case term.BigInt:
		_, ok := rhs.(term.BigInt)
		return okOrErr(ok, u, lhs, rhs)
	case term.Row:
		_, ok := rhs.(term.Row)
		return okOrErr(ok, u, lhs, rhs)
	case term.RowSat:
		_, ok := rhs.(term.RowSat)
		return okOrErr(ok, u, lhs, rhs)
	case term.RowRefl:
		_, ok := rhs.(term.RowRefl)
		return okOrErr(ok, u, lhs, rhs)
	case term.ImplementsSat:
		_, ok := rhs.(term.ImplementsSat)
		return okOrErr(ok, u, lhs, rhs)

	default:
		return u.err(lhs, rhs)
	}
}

func okOrErr(ok bool, u *Unifier, lhs, rhs term.Term) error {
	if ok {
		return nil
	}
	return u.err(lhs, rhs)
}

// solve writes meta_var's solution in Σ (first write wins, spec.md
// §8 property 7), then sanity-checks first-order solutions: if tm is
// itself a Ref to one of the meta's own telescope parameters, its
// return type must unify with that parameter's type.
func (u *Unifier) solve(metaVar *ident.Var, tm term.Term) error {
	d := u.Sigma.MustGet(metaVar)
	m, ok := d.Body.(sigma.Meta[term.Term])
	if !ok {
		panic("core: solve: target is not a metavariable")
	}
	if m.Solution != nil {
		return nil
	}
	if err := u.Sigma.SolveMeta(metaVar, tm); err != nil {
		return err
	}

	if r, ok := tm.(term.Ref); ok {
		for _, p := range d.Tele {
			if p.Var == r.Var {
				return u.Unify(d.Ret, p.Typ)
			}
		}
	}
	return nil
}

// UnifyFieldsOrd checks small ≤ big: every field of small must be
// present in big with a unifiable type. Extra fields of big are
// permitted.
func (u *Unifier) UnifyFieldsOrd(small, big term.Fields) error {
	for _, name := range small.SortedNames() {
		bt, ok := big[name]
		if !ok {
			return &coreerr.NonRowSatError{
				Loc:   u.Loc,
				Small: term.FieldsTerm{Fields: small},
				Big:   term.FieldsTerm{Fields: big},
			}
		}
		if err := u.Unify(small[name], bt); err != nil {
			return err
		}
	}
	return nil
}

// UnifyFieldsEq checks a and b name exactly the same fields, each
// with unifiable type.
func (u *Unifier) UnifyFieldsEq(a, b term.Fields) error {
	if len(a) != len(b) {
		return u.err(term.FieldsTerm{Fields: a}, term.FieldsTerm{Fields: b})
	}
	for _, name := range a.SortedNames() {
		bv, ok := b[name]
		if !ok {
			return u.err(term.FieldsTerm{Fields: a}, term.FieldsTerm{Fields: b})
		}
		if err := u.Unify(a[name], bv); err != nil {
			return err
		}
	}
	return nil
}
