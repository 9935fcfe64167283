package surface

// Decl is a top-level surface declaration, resolved and elaborated in
// source order (spec.md §5 ordering guarantee). Grounded on
// original_source/core/src/theory/conc/trans.rs's top-level parse
// rules (fn_def, class_def, interface_def, implements_def) and the
// Def<Expr> shapes elab.rs's `check_decl` accepts.
type Decl interface{ isDecl() }

// FnDecl: `fn name(tele) : ret { body }` or `fn name(tele) : ret` (a
// postulate, when Body is nil) or `type name(tele) = ret` (an alias,
// when IsAlias is true and Body holds the aliased type expression).
type FnDecl struct {
	Loc     Loc
	Name    Name
	Tele    []ExprParam
	Ret     Expr
	Body    Expr // nil => Postulate
	IsAlias bool
}

// ClassMember is one `name: Typ` field of a class's record payload.
type ClassMember struct {
	Name Name
	Typ  Expr
}

// ClassMethod is one `fn name(tele): ret { body }` inside a class body;
// `self` is implicit and not listed in Tele (the Elaborator's class
// desugaring inserts it, spec.md §4.2 class desugaring step 3/6).
type ClassMethod struct {
	Name Name
	Tele []ExprParam
	Ret  Expr
	Body Expr
}

// ClassDecl: `class Name { members...; methods... }`.
type ClassDecl struct {
	Loc     Loc
	Name    Name
	Members []ClassMember
	Methods []ClassMethod
}

// InterfaceMethod: `fn name(tele): ret` inside an `interface` block,
// implicitly parameterized over the implementor type alias (spec.md
// §4.2: "an implicit alias parameter standing for the implementor type").
type InterfaceMethod struct {
	Name Name
	Tele []ExprParam
	Ret  Expr
}

// InterfaceDecl: `interface Name [: Supers...] { fns... }`. Supers is
// the SPEC_FULL.md additive superclass feature.
type InterfaceDecl struct {
	Loc     Loc
	Name    Name
	Supers  []Name
	Methods []InterfaceMethod
}

// ImplementsMethod: `fn name(tele): ret { body }` inside an
// `implements` block.
type ImplementsMethod struct {
	Name Name
	Tele []ExprParam
	Ret  Expr
	Body Expr
}

// ImplementsDecl: `implements Interface for Type { fns... }`.
type ImplementsDecl struct {
	Loc       Loc
	Interface Name
	Type      Name
	Methods   []ImplementsMethod
}

func (FnDecl) isDecl()         {}
func (ClassDecl) isDecl()      {}
func (InterfaceDecl) isDecl()  {}
func (ImplementsDecl) isDecl() {}

// File is the resolved/elaborated unit handed to the module loader
// boundary (spec.md §6): an ordered list of top-level declarations.
type File struct {
	Decls []Decl
}
