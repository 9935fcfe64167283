// Package surface defines the surface AST data contract the core
// consumes from the (out-of-scope) parser collaborator, and that the
// Resolver and Elaborator walk (spec.md §4.1/§4.2/§6). No textual
// parser lives in this module: per spec.md §1 the concrete grammar is
// "specified only at its interface to the core", so Expr values here
// are built directly, by the (future) parser collaborator in
// production and by Go struct literals in this module's tests.
//
// Grounded on original_source/core/src/theory/conc/data.rs's Expr enum
// and the Switch/Lookup/ImplementsOf/Cast variants added to it by
// elab.rs and trans.rs (conc/data.rs's own printed listing lagged
// those two files, so this package follows the fuller shape elab.rs
// and trans.rs actually consume).
package surface

import "github.com/sunholo/rowscript/internal/ident"

// ArgInfo tags how an argument is supplied at a call site (spec.md
// §4.2's implicit-insertion rules dispatch on this).
type ArgInfo int

const (
	UnnamedExplicit ArgInfo = iota
	UnnamedImplicit
	NamedImplicit // carries Name
)

// Name identifies a binder's display name. Var is nil as produced by
// the parser collaborator and filled in by the Resolver once it mints
// the binder's fresh identity, so downstream passes (Elaborator) never
// need to re-resolve a binder site by string.
type Name struct {
	Loc   Loc
	Value string
	Var   *ident.Var
}

// Loc is re-exported at the surface boundary rather than importing
// internal/sigma directly, so the parser collaborator's contract does
// not need to depend on the elaborated term representation's package.
// The Resolver converts this 1:1 into a sigma.Loc.
type Loc struct {
	File                               string
	FileOffsetStart, FileOffsetEnd     int
	Line, Col                          int
}

// Expr is the sum of surface expression shapes. Every variant carries
// its own Loc field directly (idiomatic Go: no Expr.Loc() dispatch
// needed since callers already hold the concrete type when they need
// it, and the Resolver/Elaborator type-switch on Expr anyway).
type Expr interface{ isExpr() }

// Unresolved names a surface identifier before resolution.
type Unresolved struct {
	Loc  Loc
	Name string
}

// Resolved replaces an Unresolved once the Resolver has bound it.
type Resolved struct {
	Loc Loc
	Var *ident.Var
}

// Hole is a surface `?`, becoming a user metavariable.
type Hole struct{ Loc Loc }

// InsertedHole is synthesized by app_insert_holes during elaboration;
// it never appears in parser output, only in elaborator-rewritten
// trees (spec.md §9 "Spine of implicit insertion").
type InsertedHole struct{ Loc Loc }

// Let: `let x[: Typ]? = Rhs; Body`. Typ is nil when omitted.
type Let struct {
	Loc  Loc
	Name Name
	Typ  Expr // nilable
	Rhs  Expr
	Body Expr
}

type Univ struct{ Loc Loc }

// Pi: `(x: Typ) -> Body` / `{x: Typ} -> Body`, Param.Info selects mode.
type Pi struct {
	Loc   Loc
	Param ExprParam
	Body  Expr
}

// ExprParam mirrors term.Param but over surface Expr types (and an
// unresolved Name instead of a resolved *ident.Var).
type ExprParam struct {
	Name Name
	Info ParamInfo
	Typ  Expr
}

type ParamInfo int

const (
	Explicit ParamInfo = iota
	Implicit
)

// TupledLam: `(x, y, ...) => Body`, desugared by the Resolver into
// nested TupleLet bindings over freshly-named untupled variables
// (spec.md §4.1).
type TupledLam struct {
	Loc    Loc
	Params []Name
	Body   Expr
}

// Lam: `x => Body`.
type Lam struct {
	Loc  Loc
	Name Name
	Body Expr
}

type App struct {
	Loc  Loc
	Fn   Expr
	Info ArgInfo
	Name string // only meaningful when Info == NamedImplicit
	Arg  Expr
}

type Sigma struct {
	Loc   Loc
	Param ExprParam
	Body  Expr
}

type Tuple struct {
	Loc     Loc
	Fst, Snd Expr
}

// TupleLet: `let (x, y) = Scrutinee; Body`.
type TupleLet struct {
	Loc             Loc
	Fst, Snd        Name
	Scrutinee, Body Expr
}

type Unit struct{ Loc Loc }
type TT struct{ Loc Loc }

type UnitLet struct {
	Loc             Loc
	Scrutinee, Body Expr
}

type Boolean struct{ Loc Loc }
type False struct{ Loc Loc }
type True struct{ Loc Loc }

type If struct {
	Loc              Loc
	Pred, Then, Else Expr
}

type String struct{ Loc Loc }
type Str struct {
	Loc   Loc
	Value string
}

type Number struct{ Loc Loc }
type Num struct {
	Loc   Loc
	Value string // lexeme, parsed to float64 by the elaborator
}

type BigInt struct{ Loc Loc }
type Big struct {
	Loc  Loc
	Text string
}

type Row struct{ Loc Loc }

// Field is one `name: Expr` entry of a Fields/record/variant literal.
type Field struct {
	Name  Name
	Value Expr
}

type Fields struct {
	Loc    Loc
	Fields []Field
}

type Combine struct {
	Loc     Loc
	A, B    Expr
}

// Dir mirrors term.Dir at the surface.
type Dir int

const (
	Le Dir = iota
	Ge
)

type RowOrd struct {
	Loc  Loc
	A    Expr
	Dir  Dir
	B    Expr
}

type RowSat struct{ Loc Loc }

type RowEq struct {
	Loc  Loc
	A, B Expr
}

type RowRefl struct{ Loc Loc }

type Object struct {
	Loc Loc
	Row Expr
}

type Obj struct {
	Loc    Loc
	Fields Expr
}

type Concat struct {
	Loc  Loc
	A, B Expr
}

// Access: `.name`, used postfix as `App(Access(n), UnnamedExplicit, obj)`
// by the trans.rs desugaring it was grounded on; kept here as a
// standalone node purely for readability, with the Elaborator treating
// any `Access` node as already fully applied to its Obj.
type Access struct {
	Loc  Loc
	Obj  Expr
	Name string
}

// Cast denotes a record-width coercion whose direction (Downcast vs
// Upcast) is decided by the Elaborator from the checking hint, mirroring
// original_source's single Cast surface node disambiguated by context
// (core/src/theory/conc/elab.rs's Cast-handling branch).
type Cast struct {
	Loc Loc
	Obj Expr
}

type Enum struct {
	Loc Loc
	Row Expr
}

// Variant: `Tag(Value)`.
type Variant struct {
	Loc   Loc
	Tag   string
	Value Expr
}

// Case is one `case Tag(x): Body` arm of a Switch.
type Case struct {
	Tag  string
	Name Name
	Body Expr
}

type Switch struct {
	Loc       Loc
	Scrutinee Expr
	Cases     []Case
}

// Lookup: `o.n(arg)` method call through a class's vtbl, desugared by
// the Elaborator to an Access/vtbl_lookup/App chain (spec.md §4.2).
type Lookup struct {
	Loc  Loc
	Obj  Expr
	Name string
	Arg  Expr
}

// ImplementsOf: a constraint expression `T impl I` appearing in a
// telescope, e.g. an interface method's implicit parameter.
type ImplementsOf struct {
	Loc       Loc
	Term      Expr
	Interface Name
}

func (Unresolved) isExpr()   {}
func (Resolved) isExpr()     {}
func (Hole) isExpr()         {}
func (InsertedHole) isExpr() {}
func (Let) isExpr()          {}
func (Univ) isExpr()         {}
func (Pi) isExpr()           {}
func (TupledLam) isExpr()    {}
func (Lam) isExpr()          {}
func (App) isExpr()          {}
func (Sigma) isExpr()        {}
func (Tuple) isExpr()        {}
func (TupleLet) isExpr()     {}
func (Unit) isExpr()         {}
func (TT) isExpr()           {}
func (UnitLet) isExpr()      {}
func (Boolean) isExpr()      {}
func (False) isExpr()        {}
func (True) isExpr()         {}
func (If) isExpr()           {}
func (String) isExpr()       {}
func (Str) isExpr()          {}
func (Number) isExpr()       {}
func (Num) isExpr()          {}
func (BigInt) isExpr()       {}
func (Big) isExpr()          {}
func (Row) isExpr()          {}
func (Fields) isExpr()       {}
func (Combine) isExpr()      {}
func (RowOrd) isExpr()       {}
func (RowSat) isExpr()       {}
func (RowEq) isExpr()        {}
func (RowRefl) isExpr()      {}
func (Object) isExpr()       {}
func (Obj) isExpr()          {}
func (Concat) isExpr()       {}
func (Access) isExpr()       {}
func (Cast) isExpr()         {}
func (Enum) isExpr()         {}
func (Variant) isExpr()      {}
func (Switch) isExpr()       {}
func (Lookup) isExpr()       {}
func (ImplementsOf) isExpr() {}
