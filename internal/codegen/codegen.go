// Package codegen is the code generator's external-interface contract
// (spec.md §6): the core hands a module's Σ, its fully elaborated
// Defs, and a list of includes to a backend; this package owns only
// the erasure-safety check the core guarantees before handing off,
// since the backend itself — the thing that emits target-language
// text — is an out-of-scope external collaborator. The Rust original's
// own codegen (original_source/core/src/theory/conc/trans.rs) is
// itself an incomplete ES6 stub, so there is no concrete backend to
// port; this package stays a documented stub rather than inventing a
// target the original never committed to (DESIGN.md Open Question 1).
package codegen

import (
	"github.com/sunholo/rowscript/internal/coreerr"
	"github.com/sunholo/rowscript/internal/ident"
	"github.com/sunholo/rowscript/internal/sigma"
	"github.com/sunholo/rowscript/internal/term"
)

// Include is a pass-through file the backend should copy alongside its
// generated output, carried over unchanged from internal/loader's
// AuxiliaryFile.
type Include struct {
	Path string
	Data []byte
}

// Unit is the `(Σ, []Def<Term>, includes)` payload handed to a backend
// per module (spec.md §6). Defs holds only the Vars the module itself
// defines, in source order; Sigma is the full global table so a
// backend can resolve any Ref/Qualified a Def's term mentions.
type Unit struct {
	Sigma    *sigma.Sigma
	Defs     []*sigma.Def[term.Term]
	Includes []Include
}

// CheckErasable verifies every term the unit's Defs denote is
// erasable: it must not contain a free Ref to a type-only definition
// (spec.md §6 "NonErasable(term, loc)"). It does not check that the
// Defs are closed: an Undefined body unfolds to an Undef term, which
// this check accepts. Type-only means a Def whose
// Ret is Univ and whose body is Postulate or Alias — the core's
// convention for "this name classifies values, it does not produce
// one" (no type-in-type runtime representation exists to erase to).
func CheckErasable(u Unit) error {
	for _, d := range u.Defs {
		body := d.ToTerm(u.Sigma.Factory())
		if err := checkTerm(u.Sigma, body, d.Loc); err != nil {
			return err
		}
	}
	return nil
}

func checkTerm(s *sigma.Sigma, t term.Term, loc sigma.Loc) error {
	bad := false
	walk(t, func(sub term.Term) {
		var v *ident.Var
		switch r := sub.(type) {
		case term.Ref:
			v = r.Var
		case term.Qualified:
			v = r.Var
		default:
			return
		}
		if d, ok := s.Get(v); ok && isTypeOnly(d) {
			bad = true
		}
	})
	if bad {
		return &coreerr.NonErasableError{Loc: loc, Term: t}
	}
	return nil
}

// walk visits every Term reachable from t, calling visit on each node
// including t itself. A small hand-written descent rather than a
// shared term.Walk: the erasure check is codegen's only consumer, and
// the Term sum is closed, so there is no second caller to justify
// lifting this into internal/term.
func walk(t term.Term, visit func(term.Term)) {
	if t == nil {
		return
	}
	visit(t)
	switch x := t.(type) {
	case term.Let:
		walk(x.Param.Typ, visit)
		walk(x.Rhs, visit)
		walk(x.Body, visit)
	case term.Pi:
		walk(x.Param.Typ, visit)
		walk(x.Body, visit)
	case term.Lam:
		walk(x.Param.Typ, visit)
		walk(x.Body, visit)
	case term.App:
		walk(x.Func, visit)
		walk(x.Arg, visit)
	case term.Sigma:
		walk(x.Param.Typ, visit)
		walk(x.Body, visit)
	case term.Tuple:
		walk(x.Fst, visit)
		walk(x.Snd, visit)
	case term.TupleLet:
		walk(x.Fst.Typ, visit)
		walk(x.Snd.Typ, visit)
		walk(x.Scrutinee, visit)
		walk(x.Body, visit)
	case term.UnitLet:
		walk(x.Scrutinee, visit)
		walk(x.Body, visit)
	case term.If:
		walk(x.Pred, visit)
		walk(x.Then, visit)
		walk(x.Else, visit)
	case term.FieldsTerm:
		for _, v := range x.Fields {
			walk(v, visit)
		}
	case term.Combine:
		walk(x.A, visit)
		walk(x.B, visit)
	case term.RowOrd:
		walk(x.A, visit)
		walk(x.B, visit)
	case term.RowEq:
		walk(x.A, visit)
		walk(x.B, visit)
	case term.Object:
		walk(x.Row, visit)
	case term.Obj:
		walk(x.Fields, visit)
	case term.Concat:
		walk(x.A, visit)
		walk(x.B, visit)
	case term.Access:
		walk(x.Obj, visit)
	case term.Downcast:
		walk(x.Obj, visit)
		walk(x.ToFields, visit)
	case term.Enum:
		walk(x.Row, visit)
	case term.Variant:
		walk(x.Fields, visit)
	case term.Upcast:
		walk(x.Variant, visit)
		walk(x.ToFields, visit)
	case term.Switch:
		walk(x.Scrutinee, visit)
		for _, c := range x.Cases {
			walk(c.Body, visit)
		}
	case term.ImplementsOf:
		walk(x.Term, visit)
	case term.Find:
		walk(x.Type, visit)
	case term.Vptr:
		for _, a := range x.TypeArgs {
			walk(a, visit)
		}
	case term.MetaRef:
		for _, a := range x.Spine {
			walk(a.Term, visit)
		}
	}
}

func isTypeOnly(d *sigma.Def[term.Term]) bool {
	if _, ok := d.Ret.(term.Univ); !ok {
		return false
	}
	switch d.Body.(type) {
	case sigma.Postulate, sigma.Alias[term.Term]:
		return true
	default:
		return false
	}
}
