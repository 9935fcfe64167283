package elaborate

import (
	"fmt"

	"github.com/sunholo/rowscript/internal/coreerr"
	"github.com/sunholo/rowscript/internal/ident"
	"github.com/sunholo/rowscript/internal/sigma"
	"github.com/sunholo/rowscript/internal/surface"
	"github.com/sunholo/rowscript/internal/term"
)

// File elaborates every top-level Decl of a resolved surface.File in
// order, inserting each into Σ before moving to the next so later
// declarations can forward-reference earlier ones (and, via the
// two-phase Undefined scheme, themselves and each other).
func (e *Elaborator) File(f *surface.File) error {
	for _, d := range f.Decls {
		if err := e.Decl(d); err != nil {
			return err
		}
	}
	return nil
}

func (e *Elaborator) Decl(d surface.Decl) error {
	switch x := d.(type) {
	case surface.FnDecl:
		return e.fnDecl(&x)
	case surface.ClassDecl:
		return e.classDecl(&x)
	case surface.InterfaceDecl:
		return e.interfaceDecl(&x)
	case surface.ImplementsDecl:
		return e.implementsDecl(&x)
	default:
		return fmt.Errorf("elaborate: unhandled decl %T", d)
	}
}

// exprTele elaborates a surface telescope into a term.Telescope,
// threading each parameter's type into Γ for the remaining parameters
// and, finally, the caller's own body/return elaboration.
func (e *Elaborator) exprTele(params []surface.ExprParam) (*Elaborator, term.Telescope[term.Term], error) {
	cur := e
	tele := make(term.Telescope[term.Term], 0, len(params))
	for _, p := range params {
		typ, err := cur.Check(p.Typ, term.Univ{})
		if err != nil {
			return nil, nil, err
		}
		v := p.Name.Var
		if v == nil {
			v = cur.Sigma.Fresh(p.Name.Value)
		}
		tele = append(tele, term.Param[term.Term]{Var: v, Info: toParamInfo(p.Info), Typ: typ})
		cur = cur.withGamma(cur.Gamma.Push(v, typ))
	}
	return cur, tele, nil
}

// fnDecl elaborates `fn name(tele): ret = body` (or `postulate`/`alias`
// when Body is nil / IsAlias), inserting one Fun/Postulate/Alias Def.
func (e *Elaborator) fnDecl(x *surface.FnDecl) error {
	v := x.Name.Var
	if v == nil {
		v = e.Sigma.Fresh(x.Name.Value)
	}
	// Forward-declare so a recursive body can refer to v (spec.md §5).
	if err := e.Sigma.Insert(&sigma.Def[term.Term]{Loc: e.Loc, Name: v, Body: sigma.Undefined{}}); err != nil {
		return err
	}

	inner, tele, err := e.exprTele(x.Tele)
	if err != nil {
		return err
	}
	ret, err := inner.Check(x.Ret, term.Univ{})
	if err != nil {
		return err
	}

	// Record the declared Pi-quantified type on the forward-declared Def
	// before checking the body, so a self-recursive reference to v
	// within its own body resolves through Infer's surface.Resolved case
	// to its real type instead of the placeholder's zero value.
	placeholder := e.Sigma.MustGet(v)
	placeholder.Tele = tele
	placeholder.Ret = ret

	var body sigma.Body[term.Term]
	switch {
	case x.Body == nil:
		body = sigma.Postulate{}
	case x.IsAlias:
		tm, err := inner.Check(x.Body, ret)
		if err != nil {
			return err
		}
		body = sigma.Alias[term.Term]{Term: tm}
	default:
		tm, err := inner.Check(x.Body, ret)
		if err != nil {
			return err
		}
		body = sigma.Fun[term.Term]{Term: tm}
	}

	return e.Sigma.SetBody(v, body)
}

// classDecl desugars `class Name { members; methods }` into the six
// auxiliary Defs plus one per-method Def spec.md §4.2 describes:
// vptr_type, vptr_ctor, the class's own Object/ctor pair, vtbl_type,
// vtbl_lookup, and a Method entry (pointing at a MethodImpl Def) for
// every method. Grounded on original_source's class_def
// (core/src/theory/conc/trans.rs), generalized from tag+switch style
// vtbl dispatch to this language's row-typed records.
func (e *Elaborator) classDecl(x *surface.ClassDecl) error {
	className := x.Name.Value

	memberFields := make(term.Fields, len(x.Members))
	for _, m := range x.Members {
		typ, err := e.Check(m.Typ, term.Univ{})
		if err != nil {
			return err
		}
		memberFields[m.Name.Value] = typ
	}

	vptrVar := e.Sigma.Fresh(className + ".vptr")
	if err := e.Sigma.Insert(&sigma.Def[term.Term]{
		Loc: e.Loc, Name: vptrVar, Ret: term.Univ{},
		Body: sigma.VptrType[term.Term]{Term: term.Vptr{Class: vptrVar}},
	}); err != nil {
		return err
	}

	vptrCtorVar := e.Sigma.Fresh(className + ".vptr_ctor")
	if err := e.Sigma.Insert(&sigma.Def[term.Term]{
		Loc: e.Loc, Name: vptrCtorVar, Ret: term.Ref{Var: vptrVar},
		Body: sigma.VptrCtor{ClassName: className},
	}); err != nil {
		return err
	}

	objectFields := memberFields.Clone()
	objectFields["__vptr__"] = term.Ref{Var: vptrVar}
	objectRow := term.FieldsTerm{Fields: objectFields}

	methods := make([]sigma.Method, 0, len(x.Methods))
	vtblFields := make(term.Fields, len(x.Methods))
	for _, m := range x.Methods {
		implVar := e.Sigma.Fresh(className + "." + m.Name.Value)
		if err := e.Sigma.Insert(&sigma.Def[term.Term]{Loc: e.Loc, Name: implVar, Body: sigma.Undefined{}}); err != nil {
			return err
		}
		inner, tele, err := e.exprTele(m.Tele)
		if err != nil {
			return err
		}
		ret, err := inner.Check(m.Ret, term.Univ{})
		if err != nil {
			return err
		}
		body, err := inner.Check(m.Body, ret)
		if err != nil {
			return err
		}
		if err := e.Sigma.SetBody(implVar, sigma.MethodImpl[term.Term]{Term: body}); err != nil {
			return err
		}
		methodVar := e.Sigma.Fresh(className + "#" + m.Name.Value)
		if err := e.Sigma.Insert(&sigma.Def[term.Term]{
			Loc: e.Loc, Name: methodVar, Tele: tele, Ret: ret,
			Body: sigma.Fun[term.Term]{Term: term.Undef{Var: implVar}},
		}); err != nil {
			return err
		}
		methods = append(methods, sigma.Method{Name: m.Name.Value, Var: methodVar})
		vtblFields[m.Name.Value] = term.PiTele(tele, ret)
	}

	vtblTypeVar := e.Sigma.Fresh(className + ".vtbl_type")
	vtblRow := term.FieldsTerm{Fields: vtblFields}
	if err := e.Sigma.Insert(&sigma.Def[term.Term]{
		Loc: e.Loc, Name: vtblTypeVar, Ret: term.Univ{},
		Body: sigma.VtblType[term.Term]{Term: term.Object{Row: vtblRow}},
	}); err != nil {
		return err
	}

	vtblLookupVar := e.Sigma.Fresh(className + ".vtbl_lookup")
	if err := e.Sigma.Insert(&sigma.Def[term.Term]{
		Loc: e.Loc, Name: vtblLookupVar,
		Tele: term.Telescope[term.Term]{{Var: e.Sigma.Fresh("vp"), Info: term.Explicit, Typ: term.Ref{Var: vptrVar}}},
		Ret:  term.Ref{Var: vtblTypeVar},
		Body: sigma.VtblLookup{},
	}); err != nil {
		return err
	}

	ctorVar := e.Sigma.Fresh(className + ".ctor")
	ctorTele := make(term.Telescope[term.Term], 0, len(x.Members))
	for _, m := range x.Members {
		ctorTele = append(ctorTele, term.Param[term.Term]{Var: e.Sigma.Fresh(m.Name.Value), Info: term.Explicit, Typ: memberFields[m.Name.Value]})
	}
	if err := e.Sigma.Insert(&sigma.Def[term.Term]{
		Loc: e.Loc, Name: ctorVar, Tele: ctorTele, Ret: term.Object{Row: objectRow},
		Body: sigma.Ctor[term.Term]{},
	}); err != nil {
		return err
	}

	classVar := x.Name.Var
	if classVar == nil {
		classVar = e.Sigma.Fresh(className)
	}
	return e.Sigma.Insert(&sigma.Def[term.Term]{
		Loc: e.Loc, Name: classVar, Ret: term.Univ{},
		Body: sigma.Class[term.Term]{
			Object: term.Object{Row: objectRow}, Methods: methods,
			Ctor: ctorVar, Vptr: vptrVar, VptrCtor: vptrCtorVar,
			Vtbl: vtblTypeVar, VtblLookup: vtblLookupVar,
		},
	})
}

// interfaceDecl inserts an Interface Def plus one Findable postulate
// per method (spec.md §4.2); Supers is the SPEC_FULL.md superclass
// extension, recorded on the Interface body and consulted by instance
// search (internal/core.SearchInstance/FindMethod).
func (e *Elaborator) interfaceDecl(x *surface.InterfaceDecl) error {
	ifaceVar := x.Name.Var
	if ifaceVar == nil {
		ifaceVar = e.Sigma.Fresh(x.Name.Value)
	}
	if err := e.Sigma.Insert(&sigma.Def[term.Term]{Loc: e.Loc, Name: ifaceVar, Body: sigma.Undefined{}}); err != nil {
		return err
	}

	supers := make([]*ident.Var, 0, len(x.Supers))
	for _, s := range x.Supers {
		v, ok := lookupInterfaceVar(e, s)
		if !ok {
			return &coreerr.UnresolvedVarError{Loc: e.Loc, Name: s.Value}
		}
		supers = append(supers, v)
	}

	fns := make([]*ident.Var, 0, len(x.Methods))
	for _, m := range x.Methods {
		inner, tele, err := e.exprTele(m.Tele)
		if err != nil {
			return err
		}
		ret, err := inner.Check(m.Ret, term.Univ{})
		if err != nil {
			return err
		}

		fnVar := e.Sigma.Fresh(x.Name.Value + "." + m.Name.Value)
		if err := e.Sigma.Insert(&sigma.Def[term.Term]{
			Loc: e.Loc, Name: fnVar, Tele: tele, Ret: ret,
			Body: sigma.Findable{Interface: ifaceVar},
		}); err != nil {
			return err
		}
		fns = append(fns, fnVar)
	}

	return e.Sigma.SetBody(ifaceVar, sigma.Interface{Fns: fns, Ims: nil, Supers: supers})
}

// implementsDecl elaborates `implements I for T { fn m(...) = body; ... }`:
// one ImplementsFn Def per method, one Implements Def recording the
// Fns map, and appends the new Implements Var onto Σ[I].Ims (spec.md
// §4.2 "most recently registered implementation wins" is enforced by
// internal/core.SearchInstance scanning Ims back-to-front).
func (e *Elaborator) implementsDecl(x *surface.ImplementsDecl) error {
	ifaceVar, ok := lookupInterfaceVar(e, x.Interface)
	if !ok {
		return &coreerr.UnresolvedVarError{Loc: e.Loc, Name: x.Interface.Value}
	}
	ifaceDef := e.Sigma.MustGet(ifaceVar)
	iv, ok := ifaceDef.Body.(sigma.Interface)
	if !ok {
		return coreerr.ExpectedInterface(ifaceDef.ToType(), e.Loc)
	}

	implementorVar, ok := lookupInterfaceVar(e, x.Type)
	if !ok {
		return &coreerr.UnresolvedVarError{Loc: e.Loc, Name: x.Type.Value}
	}

	byName := make(map[string]*surface.ImplementsMethod, len(x.Methods))
	for i := range x.Methods {
		byName[x.Methods[i].Name.Value] = &x.Methods[i]
	}

	fns := make(map[*ident.Var]*ident.Var, len(iv.Fns))
	for _, ifaceFnVar := range iv.Fns {
		fnDef := e.Sigma.MustGet(ifaceFnVar)
		suffix := methodSuffix(fnDef.Name.Name())
		m, ok := byName[suffix]
		if !ok {
			return fmt.Errorf("elaborate: implements %s for %s: missing method %q", x.Interface.Value, x.Type.Value, suffix)
		}
		inner, tele, err := e.exprTele(m.Tele)
		if err != nil {
			return err
		}
		ret, err := inner.Check(m.Ret, term.Univ{})
		if err != nil {
			return err
		}
		body, err := inner.Check(m.Body, ret)
		if err != nil {
			return err
		}
		implFnVar := e.Sigma.Fresh(x.Interface.Value + "." + x.Type.Value + "." + suffix)
		if err := e.Sigma.Insert(&sigma.Def[term.Term]{
			Loc: e.Loc, Name: implFnVar, Tele: tele, Ret: ret,
			Body: sigma.ImplementsFn[term.Term]{Term: body},
		}); err != nil {
			return err
		}
		fns[ifaceFnVar] = implFnVar
	}
	for name := range byName {
		found := false
		for _, ifaceFnVar := range iv.Fns {
			if methodSuffix(e.Sigma.MustGet(ifaceFnVar).Name.Name()) == name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("elaborate: implements %s for %s: unknown method %q", x.Interface.Value, x.Type.Value, name)
		}
	}

	implementsVar := e.Sigma.Fresh(x.Interface.Value + "." + x.Type.Value)
	if err := e.Sigma.Insert(&sigma.Def[term.Term]{
		Loc: e.Loc, Name: implementsVar,
		Body: sigma.Implements{Interface: ifaceVar, Implementor: implementorVar, Fns: fns},
	}); err != nil {
		return err
	}

	return e.Sigma.RegisterImplementation(ifaceVar, implementsVar)
}

// methodSuffix strips an interface method Def's "Interface.method"
// synthesized name back down to "method", for matching against an
// implements block's surface method names.
func methodSuffix(fullName string) string {
	for i := len(fullName) - 1; i >= 0; i-- {
		if fullName[i] == '.' {
			return fullName[i+1:]
		}
	}
	return fullName
}
