// Package term implements the internal term language of the core
// theory: binders, metavariables, spines, and row/record/variant
// constructs (spec.md §3). It is the shared currency of every other
// core package — the resolver emits terms' surface mirror, the
// elaborator produces terms, the normalizer reduces them, and the
// unifier compares them.
package term

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sunholo/rowscript/internal/ident"
)

// ParamInfo marks whether a parameter is written explicitly at call
// sites or threaded implicitly by the elaborator.
type ParamInfo int

const (
	Explicit ParamInfo = iota
	Implicit
)

func (i ParamInfo) String() string {
	if i == Implicit {
		return "implicit"
	}
	return "explicit"
}

// Param is a single entry of a telescope: a binder, its mode, and its
// type (spec.md §3 Param<T>). Generic over T, like sigma.Def;
// internal/surface does not use it and has its own ExprParam mirror.
type Param[T any] struct {
	Var  *ident.Var
	Info ParamInfo
	Typ  T
}

// Telescope is a dependent, ordered parameter list: binds left to
// right, so later Typ values may mention earlier Vars.
type Telescope[T any] []Param[T]

// Dir is the direction of a row ordering predicate.
type Dir int

const (
	Le Dir = iota // every field of the left row is present in the right
	Ge            // every field of the right row is present in the left
)

func (d Dir) String() string {
	if d == Ge {
		return "≥"
	}
	return "≤"
}

// SpineArg is one pending application recorded against a MetaRef,
// preserving the explicit/implicit mode it was applied with.
type SpineArg struct {
	Info ParamInfo
	Term Term
}

// Spine is the ordered sequence of arguments applied to a metavariable
// reference before it was solved.
type Spine []SpineArg

// Fields is a finite map from field label to term, the representation
// shared by records, variants, and the rows that type them. Equality
// ignores insertion order (spec.md §3 invariant); iteration for
// anything observable (mangling, pretty-printing) must go through
// SortedNames.
type Fields map[string]Term

// SortedNames returns the field's labels in lexical order.
func (f Fields) SortedNames() []string {
	names := make([]string, 0, len(f))
	for n := range f {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone makes a shallow copy of the field map (new map, same Term
// values), used whenever a reduction rule needs to merge two rows
// without aliasing the input maps.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Merge returns a new Fields with b's entries overriding a's on
// collision (right-biased Combine, spec.md §4.3).
func Merge(a, b Fields) Fields {
	out := a.Clone()
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Term is the sum type of the core language (spec.md §3). Each
// variant below is a distinct Go type implementing this marker
// interface, mirroring the teacher's CoreExpr sum-via-interface
// pattern (internal/core/core.go) generalized to our richer grammar.
type Term interface {
	fmt.Stringer
	isTerm()
}

// --- Binding / abstraction -------------------------------------------------

// Ref is an occurrence of a local or Sigma-bound variable.
type Ref struct{ Var *ident.Var }

// MetaRef is an occurrence of a metavariable applied to a pending
// spine of arguments; Kind distinguishes user holes from inserted ones.
type MetaRef struct {
	Kind ident.Kind
	Var  *ident.Var
	Spine Spine
}

// Undef is a forward reference to a Sigma entry whose body has not yet
// been elaborated (two-phase scheme, spec.md §5).
type Undef struct{ Var *ident.Var }

// Qualified is a cross-module reference: same unfolding behavior as
// Ref, but carries the defining module for diagnostics (SPEC_FULL §4,
// grounded on original_source's Term::Qualified).
type Qualified struct {
	Module string
	Var    *ident.Var
}

// Let is a non-recursive local binding.
type Let struct {
	Param Param[Term]
	Rhs   Term
	Body  Term
}

// Pi is a dependent function type.
type Pi struct {
	Param Param[Term]
	Body  Term
}

// Lam is a dependent function value.
type Lam struct {
	Param Param[Term]
	Body  Term
}

// App is function application; Info records whether this argument was
// supplied explicitly or implicitly (needed by the unifier to compare
// spines componentwise).
type App struct {
	Func Term
	Info ParamInfo
	Arg  Term
}

// Sigma is a dependent pair type.
type Sigma struct {
	Param Param[Term]
	Body  Term
}

// Tuple is a dependent pair value.
type Tuple struct{ Fst, Snd Term }

// TupleLet destructures a Sigma value into two fresh binders.
type TupleLet struct {
	Fst, Snd  Param[Term]
	Scrutinee Term
	Body      Term
}

// UnitLet sequences a Unit-typed scrutinee before a body.
type UnitLet struct {
	Scrutinee Term
	Body      Term
}

// If is a boolean conditional.
type If struct{ Pred, Then, Else Term }

// --- Universes and base types -----------------------------------------------

type Univ struct{}
type Unit struct{}
type TT struct{}
type Boolean struct{}
type False struct{}
type True struct{}
type String struct{}
type Str struct{ Value string }
type Number struct{}
type Num struct{ Value float64 }
type BigInt struct{}
type Big struct{ Text string }

// --- Rows, records, variants -------------------------------------------------

// Row is the type of rows themselves (the kind of Fields terms).
type Row struct{}

// FieldsTerm wraps a Fields map as a term (a finite row/record/variant
// body). Named FieldsTerm to avoid colliding with the Fields map type.
type FieldsTerm struct{ Fields Fields }

// Combine merges two rows, right-biased on overlapping labels.
type Combine struct{ A, B Term }

// RowOrd asserts a row ordering predicate (a ≤ b or a ≥ b).
type RowOrd struct {
	A, B Term
	Dir  Dir
}

// RowEq asserts two rows have exactly the same field map.
type RowEq struct{ A, B Term }

// RowSat is the canonical witness that a RowOrd predicate holds.
type RowSat struct{}

// RowRefl is the canonical witness that a RowEq predicate holds.
type RowRefl struct{}

// Object is the type of records shaped by a row.
type Object struct{ Row Term }

// Obj is a record value.
type Obj struct{ Fields Term }

// Concat is record concatenation (right-biased on overlap).
type Concat struct{ A, B Term }

// Access projects a named field out of a record.
type Access struct {
	Obj  Term
	Name string
}

// Downcast narrows a record to a subset of its fields, witnessed
// implicitly by a RowOrd(to ≤ from) predicate inserted by the
// elaborator.
type Downcast struct {
	Obj     Term
	ToFields Term // a Fields/Row term naming the target shape
}

// Enum is the type of tagged unions shaped by a row.
type Enum struct{ Row Term }

// Variant is a tagged union value (exactly one field populated).
type Variant struct{ Fields Term }

// Upcast widens a variant to a superset of its tags, witnessed
// implicitly by a RowOrd(from ≤ to) predicate.
type Upcast struct {
	Variant  Term
	ToFields Term
}

// SwitchCase is one arm of a Switch: the fresh binder for the payload
// and the branch body.
type SwitchCase struct {
	Var  *ident.Var
	Body Term
}

// Switch is a single-layer match over a Variant's tag.
type Switch struct {
	Scrutinee Term
	Cases     map[string]SwitchCase
}

// --- Interfaces --------------------------------------------------------------

// ImplementsOf is the predicate "term's type implements interface".
type ImplementsOf struct {
	Term      Term
	Interface *ident.Var
}

// ImplementsSat is the canonical witness that an ImplementsOf
// predicate holds.
type ImplementsSat struct{}

// Find resolves an interface method for a concrete type, used by
// method-call desugaring and by type-class-style dispatch.
type Find struct {
	Type      Term
	Interface *ident.Var
	Method    *ident.Var
}

// Vptr is a compiler-synthesized per-class marker type, tagged by the
// class it belongs to and its (possibly dependent) type arguments.
type Vptr struct {
	Class     *ident.Var
	TypeArgs  []Term
}

func (Ref) isTerm()           {}
func (MetaRef) isTerm()       {}
func (Undef) isTerm()         {}
func (Qualified) isTerm()     {}
func (Let) isTerm()           {}
func (Pi) isTerm()            {}
func (Lam) isTerm()           {}
func (App) isTerm()           {}
func (Sigma) isTerm()         {}
func (Tuple) isTerm()         {}
func (TupleLet) isTerm()      {}
func (UnitLet) isTerm()       {}
func (If) isTerm()            {}
func (Univ) isTerm()          {}
func (Unit) isTerm()          {}
func (TT) isTerm()            {}
func (Boolean) isTerm()       {}
func (False) isTerm()         {}
func (True) isTerm()          {}
func (String) isTerm()        {}
func (Str) isTerm()           {}
func (Number) isTerm()        {}
func (Num) isTerm()           {}
func (BigInt) isTerm()        {}
func (Big) isTerm()           {}
func (Row) isTerm()           {}
func (FieldsTerm) isTerm()    {}
func (Combine) isTerm()       {}
func (RowOrd) isTerm()        {}
func (RowEq) isTerm()         {}
func (RowSat) isTerm()        {}
func (RowRefl) isTerm()       {}
func (Object) isTerm()        {}
func (Obj) isTerm()           {}
func (Concat) isTerm()        {}
func (Access) isTerm()        {}
func (Downcast) isTerm()      {}
func (Enum) isTerm()          {}
func (Variant) isTerm()       {}
func (Upcast) isTerm()        {}
func (Switch) isTerm()        {}
func (ImplementsOf) isTerm()  {}
func (ImplementsSat) isTerm() {}
func (Find) isTerm()          {}
func (Vptr) isTerm()          {}

// --- String() -----------------------------------------------------------

func (t Ref) String() string       { return t.Var.String() }
func (t Undef) String() string     { return "undef(" + t.Var.String() + ")" }
func (t Qualified) String() string { return t.Module + "." + t.Var.String() }

func (t MetaRef) String() string {
	var b strings.Builder
	b.WriteString(t.Var.String())
	for _, a := range t.Spine {
		if a.Info == Implicit {
			b.WriteString(fmt.Sprintf("{%s}", a.Term))
		} else {
			b.WriteString(fmt.Sprintf("(%s)", a.Term))
		}
	}
	return b.String()
}

func (t Let) String() string { return fmt.Sprintf("let %s = %s; %s", t.Param.Var, t.Rhs, t.Body) }
func (t Pi) String() string  { return fmt.Sprintf("(%s: %s) -> %s", t.Param.Var, t.Param.Typ, t.Body) }
func (t Lam) String() string { return fmt.Sprintf("\\%s. %s", t.Param.Var, t.Body) }
func (t App) String() string {
	if t.Info == Implicit {
		return fmt.Sprintf("%s{%s}", t.Func, t.Arg)
	}
	return fmt.Sprintf("%s(%s)", t.Func, t.Arg)
}
func (t Sigma) String() string    { return fmt.Sprintf("(%s: %s) * %s", t.Param.Var, t.Param.Typ, t.Body) }
func (t Tuple) String() string    { return fmt.Sprintf("(%s, %s)", t.Fst, t.Snd) }
func (t TupleLet) String() string { return fmt.Sprintf("let (%s, %s) = %s; %s", t.Fst.Var, t.Snd.Var, t.Scrutinee, t.Body) }
func (t UnitLet) String() string  { return fmt.Sprintf("let () = %s; %s", t.Scrutinee, t.Body) }
func (t If) String() string       { return fmt.Sprintf("if %s then %s else %s", t.Pred, t.Then, t.Else) }

func (Univ) String() string    { return "Type" }
func (Unit) String() string    { return "Unit" }
func (TT) String() string      { return "()" }
func (Boolean) String() string { return "Boolean" }
func (False) String() string   { return "false" }
func (True) String() string    { return "true" }
func (String) String() string  { return "String" }
func (t Str) String() string   { return fmt.Sprintf("%q", t.Value) }
func (Number) String() string  { return "Number" }
func (t Num) String() string   { return fmt.Sprintf("%v", t.Value) }
func (BigInt) String() string  { return "BigInt" }
func (t Big) String() string   { return t.Text }

func (Row) String() string { return "Row" }
func (t FieldsTerm) String() string {
	names := t.Fields.SortedNames()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s: %s", n, t.Fields[n])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (t Combine) String() string { return fmt.Sprintf("%s \\+ %s", t.A, t.B) }
func (t RowOrd) String() string  { return fmt.Sprintf("%s %s %s", t.A, t.Dir, t.B) }
func (t RowEq) String() string   { return fmt.Sprintf("%s == %s", t.A, t.B) }
func (RowSat) String() string    { return "rowsat" }
func (RowRefl) String() string   { return "rowrefl" }
func (t Object) String() string  { return fmt.Sprintf("Object(%s)", t.Row) }
func (t Obj) String() string     { return fmt.Sprintf("obj(%s)", t.Fields) }
func (t Concat) String() string  { return fmt.Sprintf("%s ++ %s", t.A, t.B) }
func (t Access) String() string  { return fmt.Sprintf("%s.%s", t.Obj, t.Name) }
func (t Downcast) String() string { return fmt.Sprintf("(%s :> %s)", t.Obj, t.ToFields) }
func (t Enum) String() string    { return fmt.Sprintf("Enum(%s)", t.Row) }
func (t Variant) String() string { return fmt.Sprintf("variant(%s)", t.Fields) }
func (t Upcast) String() string  { return fmt.Sprintf("(%s <: %s)", t.Variant, t.ToFields) }
func (t Switch) String() string {
	names := make([]string, 0, len(t.Cases))
	for n := range t.Cases {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		c := t.Cases[n]
		parts[i] = fmt.Sprintf("case %s(%s): %s", n, c.Var, c.Body)
	}
	return fmt.Sprintf("switch %s { %s }", t.Scrutinee, strings.Join(parts, "; "))
}

func (t ImplementsOf) String() string { return fmt.Sprintf("%s implements %s", t.Term, t.Interface) }
func (ImplementsSat) String() string  { return "implementssat" }
func (t Find) String() string         { return fmt.Sprintf("find(%s, %s, %s)", t.Type, t.Interface, t.Method) }
func (t Vptr) String() string         { return fmt.Sprintf("vptr(%s)", t.Class) }

// TeleToString pretty-prints a telescope using the teacher's
// parenthesized-binder convention (explicit in parens, implicit in
// braces).
func TeleToString(tele Telescope[Term]) string {
	var b strings.Builder
	for _, p := range tele {
		if p.Info == Implicit {
			fmt.Fprintf(&b, "{%s: %s}", p.Var, p.Typ)
		} else {
			fmt.Fprintf(&b, "(%s: %s)", p.Var, p.Typ)
		}
	}
	return b.String()
}

// LamTele builds nested Lam terms over a telescope around body, used when
// unfolding a Def's (tele, body) pair into a single closed term.
func LamTele(tele Telescope[Term], body Term) Term {
	for i := len(tele) - 1; i >= 0; i-- {
		body = Lam{Param: tele[i], Body: body}
	}
	return body
}

// PiTele builds nested Pi types over a telescope.
func PiTele(tele Telescope[Term], ret Term) Term {
	for i := len(tele) - 1; i >= 0; i-- {
		ret = Pi{Param: tele[i], Body: ret}
	}
	return ret
}

// SpineOf converts a telescope into a spine of Ref arguments, used
// when allocating a metavariable whose pending context is the current
// Gamma (spec.md §4.2 "Holes").
func SpineOf(tele Telescope[Term]) Spine {
	sp := make(Spine, len(tele))
	for i, p := range tele {
		sp[i] = SpineArg{Info: p.Info, Term: Ref{Var: p.Var}}
	}
	return sp
}
