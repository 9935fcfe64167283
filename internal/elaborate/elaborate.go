// Package elaborate implements the bidirectional Elaborator (spec.md
// §4.2): the infer/check judgments that turn a resolved surface.Expr
// tree into a term.Term plus its type, invoking internal/core's
// Normalizer and Unifier as it goes. Grounded step-for-step on
// original_source/core/src/theory/conc/elab.rs, generalizing the
// teacher's internal/elaborate (read in full before deletion, see
// DESIGN.md) "infer returns (term, type)" calling convention to this
// theory's richer term language.
package elaborate

import (
	"fmt"

	"github.com/sunholo/rowscript/internal/coreerr"
	"github.com/sunholo/rowscript/internal/core"
	"github.com/sunholo/rowscript/internal/ident"
	"github.com/sunholo/rowscript/internal/sigma"
	"github.com/sunholo/rowscript/internal/surface"
	"github.com/sunholo/rowscript/internal/term"
)

// Elaborator threads Σ and the current Γ through one elaboration pass.
// Loc tracks the source position of the node currently being processed,
// refreshed on every recursive call so errors report precisely.
type Elaborator struct {
	Sigma *sigma.Sigma
	Gamma *sigma.Gamma
	Loc   sigma.Loc
}

// New creates an Elaborator over an empty local context.
func New(s *sigma.Sigma) *Elaborator {
	return &Elaborator{Sigma: s, Gamma: nil}
}

func (e *Elaborator) at(loc surface.Loc) *Elaborator {
	return &Elaborator{Sigma: e.Sigma, Gamma: e.Gamma, Loc: loc.ToSigma()}
}

func (e *Elaborator) withGamma(g *sigma.Gamma) *Elaborator {
	return &Elaborator{Sigma: e.Sigma, Gamma: g, Loc: e.Loc}
}

func (e *Elaborator) normalizer() *core.Normalizer {
	n := core.NewNormalizer(e.Sigma, e.Loc)
	// Gamma bindings carry no rho substitution of their own (they are
	// not yet definitionally known values), so the normalizer's rho
	// here is only ever extended locally by With/Apply call sites.
	return n
}

func (e *Elaborator) normalize(t term.Term) (term.Term, error) {
	return e.normalizer().Term(t)
}

func (e *Elaborator) unify(lhs, rhs term.Term) error {
	return core.NewUnifier(e.Sigma, e.Loc).Unify(lhs, rhs)
}

// instantiatePi substitutes pi's bound variable with arg in its body
// and normalizes the result, via the normalizer's own Apply (so a
// MetaRef arg substitutes through rho instead of staying wrapped in a
// closed Let, which is what substParam+normalize would otherwise do
// per the Let rule's keep-closed-under-MetaRef guard).
func (e *Elaborator) instantiatePi(pi term.Pi, arg term.Term) (term.Term, error) {
	return e.normalizer().Apply(term.Lam{Param: pi.Param, Body: pi.Body}, pi.Param.Info, []term.Term{arg})
}

func (e *Elaborator) freshMeta(kind ident.Kind, ret term.Term) term.Term {
	_, mt := e.Sigma.FreshMeta(kind, e.Loc, e.Gamma.Tele(), ret)
	return mt
}

// freshHole allocates a term metavariable of unknown type, itself
// typed by a fresh type metavariable (spec.md §4.2 "Holes").
func (e *Elaborator) freshHole(kind ident.Kind) (term.Term, term.Term) {
	typMeta := e.freshMeta(kind, term.Univ{})
	termMeta := e.freshMeta(kind, typMeta)
	return termMeta, typMeta
}

// Infer implements `e ⇒ (t, T)`.
func (e *Elaborator) Infer(expr surface.Expr) (term.Term, term.Term, error) {
	e = e.at(locOf(expr))

	switch x := expr.(type) {
	case wrapTerm:
		return x.Term, x.Typ, nil

	case surface.Resolved:
		if d, ok := e.Sigma.Get(x.Var); ok {
			return term.Undef{Var: x.Var}, d.ToType(), nil
		}
		typ, ok := e.Gamma.Lookup(x.Var)
		if !ok {
			return nil, nil, &coreerr.UnresolvedVarError{Loc: e.Loc, Name: x.Var.Name()}
		}
		return term.Ref{Var: x.Var}, typ, nil

	case surface.Hole:
		tm, ty := e.freshHole(ident.UserMeta)
		return tm, ty, nil

	case surface.InsertedHole:
		tm, ty := e.freshHole(ident.InsertedMeta)
		return tm, ty, nil

	case surface.Univ:
		return term.Univ{}, term.Univ{}, nil

	case surface.Pi:
		typ, err := e.Check(x.Param.Typ, term.Univ{})
		if err != nil {
			return nil, nil, err
		}
		v := x.Param.Name.Var
		if v == nil {
			v = e.Sigma.Fresh(x.Param.Name.Value)
		}
		inner := e.withGamma(e.Gamma.Push(v, typ))
		body, _, err := inner.Infer(x.Body)
		if err != nil {
			return nil, nil, err
		}
		return term.Pi{Param: term.Param[term.Term]{Var: v, Info: toParamInfo(x.Param.Info), Typ: typ}, Body: body}, term.Univ{}, nil

	case surface.Sigma:
		typ, err := e.Check(x.Param.Typ, term.Univ{})
		if err != nil {
			return nil, nil, err
		}
		v := x.Param.Name.Var
		if v == nil {
			v = e.Sigma.Fresh(x.Param.Name.Value)
		}
		inner := e.withGamma(e.Gamma.Push(v, typ))
		body, _, err := inner.Infer(x.Body)
		if err != nil {
			return nil, nil, err
		}
		return term.Sigma{Param: term.Param[term.Term]{Var: v, Info: toParamInfo(x.Param.Info), Typ: typ}, Body: body}, term.Univ{}, nil

	case surface.Let:
		return e.inferLet(x)

	case surface.App:
		return e.inferApp(x)

	case surface.Unit:
		return term.Unit{}, term.Univ{}, nil
	case surface.TT:
		return term.TT{}, term.Unit{}, nil

	case surface.UnitLet:
		a, err := e.Check(x.Scrutinee, term.Unit{})
		if err != nil {
			return nil, nil, err
		}
		body, ty, err := e.Infer(x.Body)
		if err != nil {
			return nil, nil, err
		}
		return term.UnitLet{Scrutinee: a, Body: body}, ty, nil

	case surface.Boolean:
		return term.Boolean{}, term.Univ{}, nil
	case surface.False:
		return term.False{}, term.Boolean{}, nil
	case surface.True:
		return term.True{}, term.Boolean{}, nil

	case surface.If:
		p, err := e.Check(x.Pred, term.Boolean{})
		if err != nil {
			return nil, nil, err
		}
		then, ty, err := e.Infer(x.Then)
		if err != nil {
			return nil, nil, err
		}
		els, err := e.Check(x.Else, ty)
		if err != nil {
			return nil, nil, err
		}
		return term.If{Pred: p, Then: then, Else: els}, ty, nil

	case surface.String:
		return term.String{}, term.Univ{}, nil
	case surface.Str:
		return term.Str{Value: x.Value}, term.String{}, nil
	case surface.Number:
		return term.Number{}, term.Univ{}, nil
	case surface.Num:
		var f float64
		fmt.Sscanf(x.Value, "%g", &f)
		return term.Num{Value: f}, term.Number{}, nil
	case surface.BigInt:
		return term.BigInt{}, term.Univ{}, nil
	case surface.Big:
		return term.Big{Text: x.Text}, term.BigInt{}, nil

	case surface.Row:
		return term.Row{}, term.Univ{}, nil

	case surface.Fields:
		return e.inferFields(x)

	case surface.Combine:
		a, at, err := e.Infer(x.A)
		if err != nil {
			return nil, nil, err
		}
		b, bt, err := e.Infer(x.B)
		if err != nil {
			return nil, nil, err
		}
		if err := e.checkIsRow(at); err != nil {
			return nil, nil, err
		}
		if err := e.checkIsRow(bt); err != nil {
			return nil, nil, err
		}
		return term.Combine{A: a, B: b}, term.Row{}, nil

	case surface.RowOrd:
		a, err := e.Check(x.A, term.Row{})
		if err != nil {
			return nil, nil, err
		}
		b, err := e.Check(x.B, term.Row{})
		if err != nil {
			return nil, nil, err
		}
		return term.RowOrd{A: a, B: b, Dir: toDir(x.Dir)}, term.Univ{}, nil

	case surface.RowSat:
		return term.RowSat{}, nil, nil // checked only against a known RowOrd, never inferred standalone

	case surface.RowEq:
		a, err := e.Check(x.A, term.Row{})
		if err != nil {
			return nil, nil, err
		}
		b, err := e.Check(x.B, term.Row{})
		if err != nil {
			return nil, nil, err
		}
		return term.RowEq{A: a, B: b}, term.Univ{}, nil

	case surface.RowRefl:
		return term.RowRefl{}, nil, nil

	case surface.Object:
		row, err := e.Check(x.Row, term.Row{})
		if err != nil {
			return nil, nil, err
		}
		return term.Object{Row: row}, term.Univ{}, nil

	case surface.Obj:
		return e.inferObj(x)

	case surface.Concat:
		return e.inferConcat(x)

	case surface.Access:
		return e.inferAccess(x)

	case surface.Cast:
		return nil, nil, fmt.Errorf("elaborate: Cast requires a checking hint (downcast/upcast), got none")

	case surface.Enum:
		row, err := e.Check(x.Row, term.Row{})
		if err != nil {
			return nil, nil, err
		}
		return term.Enum{Row: row}, term.Univ{}, nil

	case surface.Variant:
		return nil, nil, fmt.Errorf("elaborate: Variant %q requires a checking hint (Enum type)", x.Tag)

	case surface.Switch:
		return e.inferSwitch(x)

	case surface.Lookup:
		return e.inferLookup(x)

	case surface.ImplementsOf:
		tm, _, err := e.Infer(x.Term)
		if err != nil {
			return nil, nil, err
		}
		iv, ok := lookupInterfaceVar(e, x.Interface)
		if !ok {
			return nil, nil, &coreerr.UnresolvedVarError{Loc: e.Loc, Name: x.Interface.Value}
		}
		return term.ImplementsOf{Term: tm, Interface: iv}, term.Univ{}, nil

	case surface.TupledLam, surface.Lam, surface.Tuple, surface.TupleLet:
		return nil, nil, fmt.Errorf("elaborate: %T requires a checking hint (Pi/Sigma type)", x)

	default:
		return nil, nil, fmt.Errorf("elaborate: infer: unhandled surface node %T", expr)
	}
}

// Check implements `e ⇐ T ⇒ t`, falling back to subsumption
// (infer + implicit-hole insertion + unify) when no direct check rule
// applies (spec.md §4.2).
func (e *Elaborator) Check(expr surface.Expr, want term.Term) (term.Term, error) {
	e = e.at(locOf(expr))
	want, err := e.normalize(want)
	if err != nil {
		return nil, err
	}

	switch x := expr.(type) {
	case surface.Let:
		return e.checkLet(x, want)

	case surface.Lam:
		pi, ok := want.(term.Pi)
		if !ok {
			return nil, coreerr.ExpectedPi(want, e.Loc)
		}
		v := x.Name.Var
		if v == nil {
			v = e.Sigma.Fresh(x.Name.Value)
		}
		bodyTy, err := e.withGamma(e.Gamma.Push(v, pi.Param.Typ)).normalize(substParam(pi, term.Ref{Var: v}))
		if err != nil {
			return nil, err
		}
		body, err := e.withGamma(e.Gamma.Push(v, pi.Param.Typ)).Check(x.Body, bodyTy)
		if err != nil {
			return nil, err
		}
		return term.Lam{Param: term.Param[term.Term]{Var: v, Info: pi.Param.Info, Typ: pi.Param.Typ}, Body: body}, nil

	case surface.TupledLam:
		return nil, fmt.Errorf("elaborate: TupledLam must be desugared by the Resolver before elaboration")

	case surface.Tuple:
		s, ok := want.(term.Sigma)
		if !ok {
			return nil, coreerr.ExpectedSigma(want, e.Loc)
		}
		a, err := e.Check(x.Fst, s.Param.Typ)
		if err != nil {
			return nil, err
		}
		bodyTy, err := e.normalize(substParam(s, a))
		if err != nil {
			return nil, err
		}
		b, err := e.Check(x.Snd, bodyTy)
		if err != nil {
			return nil, err
		}
		return term.Tuple{Fst: a, Snd: b}, nil

	case surface.TupleLet:
		scrutinee, scrTy, err := e.Infer(x.Scrutinee)
		if err != nil {
			return nil, err
		}
		scrTyN, err := e.normalize(scrTy)
		if err != nil {
			return nil, err
		}
		s, ok := scrTyN.(term.Sigma)
		if !ok {
			return nil, coreerr.ExpectedSigma(scrTyN, e.Loc)
		}
		fstV := x.Fst.Var
		if fstV == nil {
			fstV = e.Sigma.Fresh(x.Fst.Value)
		}
		sndTy, err := e.normalize(substParam(s, term.Ref{Var: fstV}))
		if err != nil {
			return nil, err
		}
		sndV := x.Snd.Var
		if sndV == nil {
			sndV = e.Sigma.Fresh(x.Snd.Value)
		}
		inner := e.withGamma(e.Gamma.Push(fstV, s.Param.Typ).Push(sndV, sndTy))
		body, err := inner.Check(x.Body, want)
		if err != nil {
			return nil, err
		}
		return term.TupleLet{
			Fst:       term.Param[term.Term]{Var: fstV, Info: term.Explicit, Typ: s.Param.Typ},
			Snd:       term.Param[term.Term]{Var: sndV, Info: term.Explicit, Typ: sndTy},
			Scrutinee: scrutinee, Body: body,
		}, nil

	case surface.If:
		p, err := e.Check(x.Pred, term.Boolean{})
		if err != nil {
			return nil, err
		}
		then, err := e.Check(x.Then, want)
		if err != nil {
			return nil, err
		}
		els, err := e.Check(x.Else, want)
		if err != nil {
			return nil, err
		}
		return term.If{Pred: p, Then: then, Else: els}, nil

	case surface.RowSat:
		if _, ok := want.(term.RowOrd); !ok {
			return nil, fmt.Errorf("elaborate: sat requires a RowOrd hint, got %s", want)
		}
		return term.RowSat{}, nil

	case surface.RowRefl:
		if _, ok := want.(term.RowEq); !ok {
			return nil, fmt.Errorf("elaborate: refl requires a RowEq hint, got %s", want)
		}
		return term.RowRefl{}, nil

	case surface.Cast:
		return e.checkCast(x, want)

	case surface.Variant:
		return e.checkVariant(x, want)

	case surface.Fields:
		return e.checkFields(x, want)

	default:
		return e.checkBySubsumption(expr, want)
	}
}

// checkBySubsumption is the fallback rule: infer, insert implicit
// holes until the head aligns, then unify the inferred type against
// the expected one.
func (e *Elaborator) checkBySubsumption(expr surface.Expr, want term.Term) (term.Term, error) {
	tm, ty, err := e.Infer(expr)
	if err != nil {
		return nil, err
	}
	ty, err = e.normalize(ty)
	if err != nil {
		return nil, err
	}
	want, err = e.normalize(want)
	if err != nil {
		return nil, err
	}
	for isHoleInsertable(want) {
		pi, ok := ty.(term.Pi)
		if !ok || pi.Param.Info != term.Implicit {
			break
		}
		hole, _ := e.freshHole(ident.InsertedMeta)
		tm = term.App{Func: tm, Info: term.Implicit, Arg: hole}
		ty, err = e.instantiatePi(pi, hole)
		if err != nil {
			return nil, err
		}
	}
	if err := e.unify(want, ty); err != nil {
		return nil, err
	}
	return tm, nil
}

// isHoleInsertable reports whether want's head is NOT itself an
// implicit Pi — spec.md §9: holes are inserted until the callee's type
// head aligns with a non-implicit-Pi expectation.
func isHoleInsertable(want term.Term) bool {
	pi, ok := want.(term.Pi)
	return !ok || pi.Param.Info != term.Implicit
}

func (e *Elaborator) inferLet(x surface.Let) (term.Term, term.Term, error) {
	var rhsTy term.Term
	var rhs term.Term
	var err error
	if x.Typ != nil {
		rhsTy, err = e.Check(x.Typ, term.Univ{})
		if err != nil {
			return nil, nil, err
		}
		rhs, err = e.Check(x.Rhs, rhsTy)
	} else {
		rhs, rhsTy, err = e.Infer(x.Rhs)
	}
	if err != nil {
		return nil, nil, err
	}
	v := x.Name.Var
	if v == nil {
		v = e.Sigma.Fresh(x.Name.Value)
	}
	inner := e.withGamma(e.Gamma.Push(v, rhsTy))
	body, bodyTy, err := inner.Infer(x.Body)
	if err != nil {
		return nil, nil, err
	}
	return term.Let{Param: term.Param[term.Term]{Var: v, Info: term.Explicit, Typ: rhsTy}, Rhs: rhs, Body: body}, bodyTy, nil
}

func (e *Elaborator) checkLet(x surface.Let, want term.Term) (term.Term, error) {
	tm, _, err := e.inferLetWithWant(x, want)
	return tm, err
}

func (e *Elaborator) inferLetWithWant(x surface.Let, want term.Term) (term.Term, term.Term, error) {
	var rhsTy term.Term
	var rhs term.Term
	var err error
	if x.Typ != nil {
		rhsTy, err = e.Check(x.Typ, term.Univ{})
		if err != nil {
			return nil, nil, err
		}
		rhs, err = e.Check(x.Rhs, rhsTy)
	} else {
		rhs, rhsTy, err = e.Infer(x.Rhs)
	}
	if err != nil {
		return nil, nil, err
	}
	v := x.Name.Var
	if v == nil {
		v = e.Sigma.Fresh(x.Name.Value)
	}
	inner := e.withGamma(e.Gamma.Push(v, rhsTy))
	body, err := inner.Check(x.Body, want)
	if err != nil {
		return nil, nil, err
	}
	return term.Let{Param: term.Param[term.Term]{Var: v, Info: term.Explicit, Typ: rhsTy}, Rhs: rhs, Body: body}, want, nil
}

// inferApp implements spec.md §4.2's App rule including implicit-hole
// insertion up to a NamedImplicit target or an UnnamedExplicit arg.
func (e *Elaborator) inferApp(x surface.App) (term.Term, term.Term, error) {
	f, fty, err := e.Infer(x.Fn)
	if err != nil {
		return nil, nil, err
	}
	fty, err = e.normalize(fty)
	if err != nil {
		return nil, nil, err
	}

	for {
		pi, ok := fty.(term.Pi)
		if !ok {
			return nil, nil, coreerr.ExpectedPi(fty, e.Loc)
		}
		if pi.Param.Info == term.Explicit {
			break
		}
		switch x.Info {
		case surface.NamedImplicit:
			if pi.Param.Var.Name() == x.Name {
				goto apply
			}
		case surface.UnnamedImplicit:
			goto apply
		}
		hole, _ := e.freshHole(ident.InsertedMeta)
		f = term.App{Func: f, Info: term.Implicit, Arg: hole}
		fty, err = e.instantiatePi(pi, hole)
		if err != nil {
			return nil, nil, err
		}
	}
apply:
	pi := fty.(term.Pi)
	arg, err := e.Check(x.Arg, pi.Param.Typ)
	if err != nil {
		return nil, nil, err
	}
	retTy, err := e.normalize(substParam(pi, arg))
	if err != nil {
		return nil, nil, err
	}
	info := term.Explicit
	if pi.Param.Info == term.Implicit {
		info = term.Implicit
	}
	return term.App{Func: f, Info: info, Arg: arg}, retTy, nil
}

func (e *Elaborator) inferFields(x surface.Fields) (term.Term, term.Term, error) {
	fields := make(term.Fields, len(x.Fields))
	rowFields := make(term.Fields, len(x.Fields))
	for _, f := range x.Fields {
		tm, ty, err := e.Infer(f.Value)
		if err != nil {
			return nil, nil, err
		}
		fields[f.Name.Value] = tm
		rowFields[f.Name.Value] = ty
	}
	return term.FieldsTerm{Fields: fields}, term.FieldsTerm{Fields: rowFields}, nil
}

func (e *Elaborator) checkFields(x surface.Fields, want term.Term) (term.Term, error) {
	wf, ok := want.(term.FieldsTerm)
	if !ok {
		return e.checkBySubsumption(x, want)
	}
	out := make(term.Fields, len(x.Fields))
	for _, f := range x.Fields {
		fieldTy, ok := wf.Fields[f.Name.Value]
		if !ok {
			return nil, &coreerr.UnresolvedFieldError{Loc: e.Loc, Name: f.Name.Value, Type: want}
		}
		tm, err := e.Check(f.Value, fieldTy)
		if err != nil {
			return nil, err
		}
		out[f.Name.Value] = tm
	}
	return term.FieldsTerm{Fields: out}, nil
}

// inferObj synthesizes `{...}` record literals by inferring each
// field's value and building the corresponding Object(Fields) type.
func (e *Elaborator) inferObj(x surface.Obj) (term.Term, term.Term, error) {
	fieldsTm, fieldsTy, err := e.Infer(x.Fields)
	if err != nil {
		return nil, nil, err
	}
	return term.Obj{Fields: fieldsTm}, term.Object{Row: fieldsTy}, nil
}

func (e *Elaborator) inferConcat(x surface.Concat) (term.Term, term.Term, error) {
	a, aty, err := e.Infer(x.A)
	if err != nil {
		return nil, nil, err
	}
	b, bty, err := e.Infer(x.B)
	if err != nil {
		return nil, nil, err
	}
	aObj, err := e.requireObject(aty)
	if err != nil {
		return nil, nil, err
	}
	bObj, err := e.requireObject(bty)
	if err != nil {
		return nil, nil, err
	}
	return term.Concat{A: a, B: b}, term.Object{Row: term.Combine{A: aObj.Row, B: bObj.Row}}, nil
}

// inferAccess synthesizes `.name` per spec.md §4.2: "synthesize a
// polymorphic accessor" — here specialized immediately against the
// object's own inferred row rather than generalizing over a fresh
// Object/row metavariable pair, since Access is always applied
// (surface.Access.Obj is non-nil) in this surface grammar.
func (e *Elaborator) inferAccess(x surface.Access) (term.Term, term.Term, error) {
	obj, objTy, err := e.Infer(x.Obj)
	if err != nil {
		return nil, nil, err
	}
	row, err := e.requireObject(objTy)
	if err != nil {
		return nil, nil, err
	}
	rowN, err := e.normalize(row.Row)
	if err != nil {
		return nil, nil, err
	}
	ft, ok := rowN.(term.FieldsTerm)
	if !ok {
		return nil, nil, &coreerr.FieldsUnknownError{Loc: e.Loc, Got: rowN}
	}
	fieldTy, ok := ft.Fields[x.Name]
	if !ok {
		return nil, nil, &coreerr.UnresolvedFieldError{Loc: e.Loc, Name: x.Name, Type: rowN}
	}
	return term.Access{Obj: obj, Name: x.Name}, fieldTy, nil
}

func (e *Elaborator) requireObject(ty term.Term) (term.Object, error) {
	ty, err := e.normalize(ty)
	if err != nil {
		return term.Object{}, err
	}
	o, ok := ty.(term.Object)
	if !ok {
		return term.Object{}, coreerr.ExpectedObject(ty, e.Loc)
	}
	return o, nil
}

func (e *Elaborator) checkIsRow(ty term.Term) error {
	ty, err := e.normalize(ty)
	if err != nil {
		return err
	}
	if _, ok := ty.(term.Row); !ok {
		return coreerr.ExpectedObject(ty, e.Loc)
	}
	return nil
}

// checkCast implements Downcast/Upcast, disambiguated by the checking
// hint's shape (spec.md §4.2 infer(Downcast)/infer(Upcast), adapted to
// a check rule since the surface Cast node carries no hint of its own
// and original_source resolves the same ambiguity from context).
func (e *Elaborator) checkCast(x surface.Cast, want term.Term) (term.Term, error) {
	switch w := want.(type) {
	case term.Object:
		toFields, err := e.normalize(w.Row)
		if err != nil {
			return nil, err
		}
		obj, fromTy, err := e.Infer(x.Obj)
		if err != nil {
			return nil, err
		}
		fromObj, err := e.requireObject(fromTy)
		if err != nil {
			return nil, err
		}
		// witness RowOrd(to ≤ from) is discharged implicitly by the
		// normalizer/instance machinery once both sides are concrete.
		if _, err := e.normalize(term.RowOrd{A: toFields, B: fromObj.Row, Dir: term.Le}); err != nil {
			return nil, err
		}
		return term.Downcast{Obj: obj, ToFields: toFields}, nil

	case term.Enum:
		toFields, err := e.normalize(w.Row)
		if err != nil {
			return nil, err
		}
		v, fromTy, err := e.Infer(x.Obj)
		if err != nil {
			return nil, err
		}
		fromN, err := e.normalize(fromTy)
		if err != nil {
			return nil, err
		}
		fromEnum, ok := fromN.(term.Enum)
		if !ok {
			return nil, coreerr.ExpectedEnum(fromN, e.Loc)
		}
		if _, err := e.normalize(term.RowOrd{A: fromEnum.Row, B: toFields, Dir: term.Le}); err != nil {
			return nil, err
		}
		return term.Upcast{Variant: v, ToFields: toFields}, nil

	default:
		return nil, fmt.Errorf("elaborate: cast requires an Object or Enum hint, got %s", want)
	}
}

func (e *Elaborator) checkVariant(x surface.Variant, want term.Term) (term.Term, error) {
	en, ok := want.(term.Enum)
	if !ok {
		return nil, coreerr.ExpectedEnum(want, e.Loc)
	}
	rowN, err := e.normalize(en.Row)
	if err != nil {
		return nil, err
	}
	ft, ok := rowN.(term.FieldsTerm)
	if !ok {
		return nil, &coreerr.FieldsUnknownError{Loc: e.Loc, Got: rowN}
	}
	payloadTy, ok := ft.Fields[x.Tag]
	if !ok {
		return nil, &coreerr.UnresolvedFieldError{Loc: e.Loc, Name: x.Tag, Type: rowN}
	}
	payload, err := e.Check(x.Value, payloadTy)
	if err != nil {
		return nil, err
	}
	return term.Variant{Fields: term.FieldsTerm{Fields: term.Fields{x.Tag: payload}}}, nil
}

func (e *Elaborator) inferSwitch(x surface.Switch) (term.Term, term.Term, error) {
	scrutinee, scrTy, err := e.Infer(x.Scrutinee)
	if err != nil {
		return nil, nil, err
	}
	scrTyN, err := e.normalize(scrTy)
	if err != nil {
		return nil, nil, err
	}
	en, ok := scrTyN.(term.Enum)
	if !ok {
		return nil, nil, coreerr.ExpectedEnum(scrTyN, e.Loc)
	}
	rowN, err := e.normalize(en.Row)
	if err != nil {
		return nil, nil, err
	}
	ft, ok := rowN.(term.FieldsTerm)
	if !ok {
		return nil, nil, &coreerr.FieldsUnknownError{Loc: e.Loc, Got: rowN}
	}
	if len(x.Cases) != len(ft.Fields) {
		return nil, nil, &coreerr.NonExhaustiveError{Loc: e.Loc, Type: scrTyN}
	}

	retHole, _ := e.freshHole(ident.InsertedMeta)
	cases := make(map[string]term.SwitchCase, len(x.Cases))
	for _, c := range x.Cases {
		payloadTy, ok := ft.Fields[c.Tag]
		if !ok {
			return nil, nil, &coreerr.UnresolvedFieldError{Loc: e.Loc, Name: c.Tag, Type: rowN}
		}
		v := c.Name.Var
		if v == nil {
			v = e.Sigma.Fresh(c.Name.Value)
		}
		inner := e.withGamma(e.Gamma.Push(v, payloadTy))
		body, err := inner.Check(c.Body, retHole)
		if err != nil {
			return nil, nil, err
		}
		cases[c.Tag] = term.SwitchCase{Var: v, Body: body}
	}
	return term.Switch{Scrutinee: scrutinee, Cases: cases}, retHole, nil
}

// inferLookup desugars a method call `o.name(arg)` to
// `Access(name)(vtbl_lookup(Access(VPTR, o)))(o, arg)`, per spec.md
// §4.2. The vtbl lookup indirection is represented directly in terms
// here rather than re-entering the surface grammar, since Access/App
// already have elaboration rules above.
func (e *Elaborator) inferLookup(x surface.Lookup) (term.Term, term.Term, error) {
	obj, objTy, err := e.Infer(x.Obj)
	if err != nil {
		return nil, nil, err
	}
	objTyN, err := e.normalize(objTy)
	if err != nil {
		return nil, nil, err
	}
	classObj, ok := objTyN.(term.Object)
	if !ok {
		return nil, nil, coreerr.ExpectedClass(objTyN, e.Loc)
	}
	vptrAccess := term.Access{Obj: obj, Name: "__vptr__"}

	rowN, err := e.normalize(classObj.Row)
	if err != nil {
		return nil, nil, err
	}
	ft, ok := rowN.(term.FieldsTerm)
	if !ok {
		return nil, nil, coreerr.ExpectedClass(objTyN, e.Loc)
	}
	vptrTy, ok := ft.Fields["__vptr__"]
	if !ok {
		return nil, nil, coreerr.ExpectedClass(objTyN, e.Loc)
	}
	vptrTyN, err := e.normalize(vptrTy)
	if err != nil {
		return nil, nil, err
	}
	vp, ok := vptrTyN.(term.Vptr)
	if !ok {
		return nil, nil, coreerr.ExpectedClass(objTyN, e.Loc)
	}

	// The vtbl is resolved by the class's synthesized vtbl_lookup
	// function, looked up in Σ by convention name; callers whose object
	// did not go through class desugaring (internal/elaborate decl.go)
	// will not have one, surfacing ExpectedClass.
	lookupVar, ok := e.lookupConventionName(vp.Class.Name() + ".vtbl_lookup")
	if !ok {
		return nil, nil, coreerr.ExpectedClass(objTyN, e.Loc)
	}
	vtbl, vtblTy, err := e.Infer(surface.Resolved{Var: lookupVar})
	if err != nil {
		return nil, nil, err
	}
	vtblApplied := term.App{Func: vtbl, Info: term.Explicit, Arg: vptrAccess}
	vtblTyN, err := e.normalize(vtblTy)
	if err != nil {
		return nil, nil, err
	}
	pi, ok := vtblTyN.(term.Pi)
	if !ok {
		return nil, nil, coreerr.ExpectedPi(vtblTyN, e.Loc)
	}
	vtblRecordTy, err := e.normalize(substParam(pi, vptrAccess))
	if err != nil {
		return nil, nil, err
	}
	method := term.Access{Obj: vtblApplied, Name: x.Name}
	methodTy, err := e.requireAccessType(vtblRecordTy, x.Name)
	if err != nil {
		return nil, nil, err
	}
	return e.inferApp(surface.App{
		Loc:  x.Loc,
		Fn:   wrapTerm{Term: method, Typ: methodTy},
		Info: surface.UnnamedExplicit,
		Arg:  x.Arg,
	})
}

func (e *Elaborator) requireAccessType(recordTy term.Term, name string) (term.Term, error) {
	o, err := e.requireObject(recordTy)
	if err != nil {
		return nil, err
	}
	rowN, err := e.normalize(o.Row)
	if err != nil {
		return nil, err
	}
	ft, ok := rowN.(term.FieldsTerm)
	if !ok {
		return nil, &coreerr.FieldsUnknownError{Loc: e.Loc, Got: rowN}
	}
	ty, ok := ft.Fields[name]
	if !ok {
		return nil, &coreerr.UnresolvedFieldError{Loc: e.Loc, Name: name, Type: rowN}
	}
	return ty, nil
}

// lookupConventionName resolves a synthesized Def by its conventional
// dotted name (e.g. "Foo.vtbl_lookup") by linear Σ scan, used only by
// method-call desugaring. A name table keyed this way is acceptable
// here since class desugaring (decl.go) is the sole producer of such
// names and method calls are not a hot path in this core.
func (e *Elaborator) lookupConventionName(name string) (*ident.Var, bool) {
	for _, v := range e.Sigma.Order() {
		if v.Name() == name {
			return v, true
		}
	}
	return nil, false
}

// wrapTerm lets inferApp's Fn position be a pre-elaborated (term, type)
// pair instead of a surface.Expr. It satisfies surface.Expr through the
// embedded surface.Hole, whose marker method is promoted, and is
// special-cased in Infer before any surface case is tried.
type wrapTerm struct {
	surface.Hole
	Term term.Term
	Typ  term.Term
}

func locOf(expr surface.Expr) surface.Loc {
	switch x := expr.(type) {
	case surface.Unresolved:
		return x.Loc
	case surface.Resolved:
		return x.Loc
	case surface.Hole:
		return x.Loc
	case surface.InsertedHole:
		return x.Loc
	case surface.Let:
		return x.Loc
	case surface.Univ:
		return x.Loc
	case surface.Pi:
		return x.Loc
	case surface.TupledLam:
		return x.Loc
	case surface.Lam:
		return x.Loc
	case surface.App:
		return x.Loc
	case surface.Sigma:
		return x.Loc
	case surface.Tuple:
		return x.Loc
	case surface.TupleLet:
		return x.Loc
	case surface.Unit:
		return x.Loc
	case surface.TT:
		return x.Loc
	case surface.UnitLet:
		return x.Loc
	case surface.Boolean:
		return x.Loc
	case surface.False:
		return x.Loc
	case surface.True:
		return x.Loc
	case surface.If:
		return x.Loc
	case surface.String:
		return x.Loc
	case surface.Str:
		return x.Loc
	case surface.Number:
		return x.Loc
	case surface.Num:
		return x.Loc
	case surface.BigInt:
		return x.Loc
	case surface.Big:
		return x.Loc
	case surface.Row:
		return x.Loc
	case surface.Fields:
		return x.Loc
	case surface.Combine:
		return x.Loc
	case surface.RowOrd:
		return x.Loc
	case surface.RowSat:
		return x.Loc
	case surface.RowEq:
		return x.Loc
	case surface.RowRefl:
		return x.Loc
	case surface.Object:
		return x.Loc
	case surface.Obj:
		return x.Loc
	case surface.Concat:
		return x.Loc
	case surface.Access:
		return x.Loc
	case surface.Cast:
		return x.Loc
	case surface.Enum:
		return x.Loc
	case surface.Variant:
		return x.Loc
	case surface.Switch:
		return x.Loc
	case surface.Lookup:
		return x.Loc
	case surface.ImplementsOf:
		return x.Loc
	default:
		return surface.Loc{}
	}
}

func toParamInfo(i surface.ParamInfo) term.ParamInfo {
	if i == surface.Implicit {
		return term.Implicit
	}
	return term.Explicit
}

func toDir(d surface.Dir) term.Dir {
	if d == surface.Ge {
		return term.Ge
	}
	return term.Le
}

// substParam substitutes a Pi/Sigma's bound variable with arg in its
// body, returning a term still needing normalize() to actually reduce
// (wrapping in a Let lets the existing normalizer do the substitution).
// Only safe when arg is known not to normalize to a MetaRef: the
// normalizer's Let rule keeps the binding closed in that case instead
// of substituting it through (spec.md §4.3), which is why hole
// insertion uses instantiatePi instead.
func substParam(headed term.Term, arg term.Term) term.Term {
	switch h := headed.(type) {
	case term.Pi:
		return term.Let{Param: h.Param, Rhs: arg, Body: h.Body}
	case term.Sigma:
		return term.Let{Param: h.Param, Rhs: arg, Body: h.Body}
	default:
		panic(fmt.Sprintf("elaborate: substParam: not a Pi/Sigma: %T", headed))
	}
}

func lookupInterfaceVar(e *Elaborator, name surface.Name) (*ident.Var, bool) {
	if name.Var != nil {
		return name.Var, true
	}
	for _, v := range e.Sigma.Order() {
		if v.Name() == name.Value {
			return v, true
		}
	}
	return nil, false
}
