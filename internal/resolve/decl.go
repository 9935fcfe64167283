package resolve

import (
	"fmt"

	"github.com/sunholo/rowscript/internal/coreerr"
	"github.com/sunholo/rowscript/internal/surface"
)

// File resolves every top-level Decl of f. Names are bound in two
// passes: every declared top-level name is registered into the
// module-level scope first, then each Decl's internals (parameter
// types, bodies) are resolved against that fully-populated scope, so
// declarations may forward-reference each other regardless of source
// order (spec.md §5's two-phase scheme extended to whole declarations,
// not just one body).
func (r *Resolver) File(f *surface.File) (*surface.File, error) {
	names := make([]surface.Name, len(f.Decls))
	for i, d := range f.Decls {
		name, err := r.declName(d, i)
		if err != nil {
			return nil, err
		}
		v, err := r.bind(name.Loc.ToSigma(), name.Value)
		if err != nil {
			return nil, err
		}
		names[i] = named(name.Loc, v)
	}

	out := make([]surface.Decl, len(f.Decls))
	for i, d := range f.Decls {
		resolved, err := r.decl(d, names[i])
		if err != nil {
			return nil, err
		}
		out[i] = resolved
	}
	return &surface.File{Decls: out}, nil
}

func (r *Resolver) declName(d surface.Decl, index int) (surface.Name, error) {
	switch x := d.(type) {
	case surface.FnDecl:
		return x.Name, nil
	case surface.ClassDecl:
		return x.Name, nil
	case surface.InterfaceDecl:
		return x.Name, nil
	case surface.ImplementsDecl:
		// implements blocks register against an existing interface
		// rather than declaring a new name; give each one a synthetic,
		// never looked-up binding (qualified by its position so two
		// implements blocks in one File don't collide as a duplicate
		// name) so File's uniform two-pass shape still works.
		return surface.Name{Loc: x.Loc, Value: fmt.Sprintf("$implements%d", index)}, nil
	default:
		return surface.Name{}, &coreerr.UnresolvedVarError{Name: "<unknown decl>"}
	}
}

func (r *Resolver) decl(d surface.Decl, resolvedName surface.Name) (surface.Decl, error) {
	switch x := d.(type) {
	case surface.FnDecl:
		return r.fnDecl(x, resolvedName)
	case surface.ClassDecl:
		return r.classDecl(x, resolvedName)
	case surface.InterfaceDecl:
		return r.interfaceDecl(x, resolvedName)
	case surface.ImplementsDecl:
		return r.implementsDecl(x)
	default:
		return nil, &coreerr.UnresolvedVarError{Name: "<unknown decl>"}
	}
}

func (r *Resolver) tele(params []surface.ExprParam) ([]surface.ExprParam, error) {
	out := make([]surface.ExprParam, len(params))
	for i, p := range params {
		typ, err := r.Expr(p.Typ)
		if err != nil {
			return nil, err
		}
		v, err := r.bind(p.Name.Loc.ToSigma(), p.Name.Value)
		if err != nil {
			return nil, err
		}
		out[i] = surface.ExprParam{Name: named(p.Name.Loc, v), Info: p.Info, Typ: typ}
	}
	return out, nil
}

func (r *Resolver) fnDecl(x surface.FnDecl, resolvedName surface.Name) (surface.Decl, error) {
	r.push()
	defer r.pop()
	tele, err := r.tele(x.Tele)
	if err != nil {
		return nil, err
	}
	ret, err := r.Expr(x.Ret)
	if err != nil {
		return nil, err
	}
	var body surface.Expr
	if x.Body != nil {
		body, err = r.Expr(x.Body)
		if err != nil {
			return nil, err
		}
	}
	return surface.FnDecl{Loc: x.Loc, Name: resolvedName, Tele: tele, Ret: ret, Body: body, IsAlias: x.IsAlias}, nil
}

func (r *Resolver) classDecl(x surface.ClassDecl, resolvedName surface.Name) (surface.Decl, error) {
	r.push()
	defer r.pop()

	members := make([]surface.ClassMember, len(x.Members))
	for i, m := range x.Members {
		typ, err := r.Expr(m.Typ)
		if err != nil {
			return nil, err
		}
		members[i] = surface.ClassMember{Name: m.Name, Typ: typ}
	}

	methods := make([]surface.ClassMethod, len(x.Methods))
	for i, m := range x.Methods {
		resolved, err := r.classMethod(m)
		if err != nil {
			return nil, err
		}
		methods[i] = resolved
	}

	return surface.ClassDecl{Loc: x.Loc, Name: resolvedName, Members: members, Methods: methods}, nil
}

func (r *Resolver) classMethod(m surface.ClassMethod) (surface.ClassMethod, error) {
	r.push()
	defer r.pop()
	tele, err := r.tele(m.Tele)
	if err != nil {
		return surface.ClassMethod{}, err
	}
	ret, err := r.Expr(m.Ret)
	if err != nil {
		return surface.ClassMethod{}, err
	}
	body, err := r.Expr(m.Body)
	if err != nil {
		return surface.ClassMethod{}, err
	}
	return surface.ClassMethod{Name: m.Name, Tele: tele, Ret: ret, Body: body}, nil
}

func (r *Resolver) interfaceDecl(x surface.InterfaceDecl, resolvedName surface.Name) (surface.Decl, error) {
	supers := make([]surface.Name, len(x.Supers))
	for i, s := range x.Supers {
		v, ok := r.top.lookup(s.Value)
		if !ok {
			return nil, &coreerr.UnresolvedVarError{Loc: s.Loc.ToSigma(), Name: s.Value}
		}
		supers[i] = named(s.Loc, v)
	}

	methods := make([]surface.InterfaceMethod, len(x.Methods))
	for i, m := range x.Methods {
		r.push()
		tele, err := r.tele(m.Tele)
		if err != nil {
			r.pop()
			return nil, err
		}
		ret, err := r.Expr(m.Ret)
		r.pop()
		if err != nil {
			return nil, err
		}
		methods[i] = surface.InterfaceMethod{Name: m.Name, Tele: tele, Ret: ret}
	}

	return surface.InterfaceDecl{Loc: x.Loc, Name: resolvedName, Supers: supers, Methods: methods}, nil
}

func (r *Resolver) implementsDecl(x surface.ImplementsDecl) (surface.Decl, error) {
	ifaceV, ok := r.top.lookup(x.Interface.Value)
	if !ok {
		return nil, &coreerr.UnresolvedVarError{Loc: x.Interface.Loc.ToSigma(), Name: x.Interface.Value}
	}
	typeV, ok := r.top.lookup(x.Type.Value)
	if !ok {
		return nil, &coreerr.UnresolvedVarError{Loc: x.Type.Loc.ToSigma(), Name: x.Type.Value}
	}

	methods := make([]surface.ImplementsMethod, len(x.Methods))
	for i, m := range x.Methods {
		r.push()
		tele, err := r.tele(m.Tele)
		if err != nil {
			r.pop()
			return nil, err
		}
		ret, err := r.Expr(m.Ret)
		if err != nil {
			r.pop()
			return nil, err
		}
		body, err := r.Expr(m.Body)
		r.pop()
		if err != nil {
			return nil, err
		}
		methods[i] = surface.ImplementsMethod{Name: m.Name, Tele: tele, Ret: ret, Body: body}
	}

	return surface.ImplementsDecl{
		Loc:       x.Loc,
		Interface: named(x.Interface.Loc, ifaceV),
		Type:      named(x.Type.Loc, typeV),
		Methods:   methods,
	}, nil
}
