package term

import "github.com/sunholo/rowscript/internal/ident"

// Rename produces a structurally identical copy of t in which every
// bound variable is replaced by a fresh one, preserving
// α-equivalence. It is applied whenever a closed term (a Def's body,
// a solved meta's solution) is unfolded into a new position, so that
// repeated unfoldings never let two unrelated binders alias the same
// *ident.Var (original_source/core/src/theory/abs/rename.rs).
func Rename(f *ident.Factory, t Term) Term {
	return renameWith(f, map[*ident.Var]*ident.Var{}, t)
}

func renameVar(f *ident.Factory, env map[*ident.Var]*ident.Var, v *ident.Var) *ident.Var {
	if nv, ok := env[v]; ok {
		return nv
	}
	return v
}

func renameParam(f *ident.Factory, env map[*ident.Var]*ident.Var, p Param[Term]) (Param[Term], map[*ident.Var]*ident.Var) {
	nv := f.Rename(p.Var)
	next := make(map[*ident.Var]*ident.Var, len(env)+1)
	for k, v := range env {
		next[k] = v
	}
	next[p.Var] = nv
	return Param[Term]{Var: nv, Info: p.Info, Typ: renameWith(f, env, p.Typ)}, next
}

func renameWith(f *ident.Factory, env map[*ident.Var]*ident.Var, t Term) Term {
	switch t := t.(type) {
	case Ref:
		return Ref{Var: renameVar(f, env, t.Var)}
	case MetaRef:
		sp := make(Spine, len(t.Spine))
		for i, a := range t.Spine {
			sp[i] = SpineArg{Info: a.Info, Term: renameWith(f, env, a.Term)}
		}
		return MetaRef{Kind: t.Kind, Var: t.Var, Spine: sp}
	case Undef, Qualified, Univ, Unit, TT, Boolean, False, True, String, Str,
		Number, Num, BigInt, Big, Row, RowSat, RowRefl, ImplementsSat:
		return t
	case Let:
		rhs := renameWith(f, env, t.Rhs)
		p, next := renameParam(f, env, t.Param)
		return Let{Param: p, Rhs: rhs, Body: renameWith(f, next, t.Body)}
	case Pi:
		p, next := renameParam(f, env, t.Param)
		return Pi{Param: p, Body: renameWith(f, next, t.Body)}
	case Lam:
		p, next := renameParam(f, env, t.Param)
		return Lam{Param: p, Body: renameWith(f, next, t.Body)}
	case App:
		return App{Func: renameWith(f, env, t.Func), Info: t.Info, Arg: renameWith(f, env, t.Arg)}
	case Sigma:
		p, next := renameParam(f, env, t.Param)
		return Sigma{Param: p, Body: renameWith(f, next, t.Body)}
	case Tuple:
		return Tuple{Fst: renameWith(f, env, t.Fst), Snd: renameWith(f, env, t.Snd)}
	case TupleLet:
		scrut := renameWith(f, env, t.Scrutinee)
		fst, next := renameParam(f, env, t.Fst)
		snd, next2 := renameParam(f, next, t.Snd)
		return TupleLet{Fst: fst, Snd: snd, Scrutinee: scrut, Body: renameWith(f, next2, t.Body)}
	case UnitLet:
		return UnitLet{Scrutinee: renameWith(f, env, t.Scrutinee), Body: renameWith(f, env, t.Body)}
	case If:
		return If{Pred: renameWith(f, env, t.Pred), Then: renameWith(f, env, t.Then), Else: renameWith(f, env, t.Else)}
	case FieldsTerm:
		nf := make(Fields, len(t.Fields))
		for n, v := range t.Fields {
			nf[n] = renameWith(f, env, v)
		}
		return FieldsTerm{Fields: nf}
	case Combine:
		return Combine{A: renameWith(f, env, t.A), B: renameWith(f, env, t.B)}
	case RowOrd:
		return RowOrd{A: renameWith(f, env, t.A), B: renameWith(f, env, t.B), Dir: t.Dir}
	case RowEq:
		return RowEq{A: renameWith(f, env, t.A), B: renameWith(f, env, t.B)}
	case Object:
		return Object{Row: renameWith(f, env, t.Row)}
	case Obj:
		return Obj{Fields: renameWith(f, env, t.Fields)}
	case Concat:
		return Concat{A: renameWith(f, env, t.A), B: renameWith(f, env, t.B)}
	case Access:
		return Access{Obj: renameWith(f, env, t.Obj), Name: t.Name}
	case Downcast:
		return Downcast{Obj: renameWith(f, env, t.Obj), ToFields: renameWith(f, env, t.ToFields)}
	case Enum:
		return Enum{Row: renameWith(f, env, t.Row)}
	case Variant:
		return Variant{Fields: renameWith(f, env, t.Fields)}
	case Upcast:
		return Upcast{Variant: renameWith(f, env, t.Variant), ToFields: renameWith(f, env, t.ToFields)}
	case Switch:
		cases := make(map[string]SwitchCase, len(t.Cases))
		for n, c := range t.Cases {
			nv := f.Rename(c.Var)
			next := make(map[*ident.Var]*ident.Var, len(env)+1)
			for k, v := range env {
				next[k] = v
			}
			next[c.Var] = nv
			cases[n] = SwitchCase{Var: nv, Body: renameWith(f, next, c.Body)}
		}
		return Switch{Scrutinee: renameWith(f, env, t.Scrutinee), Cases: cases}
	case ImplementsOf:
		return ImplementsOf{Term: renameWith(f, env, t.Term), Interface: t.Interface}
	case Find:
		return Find{Type: renameWith(f, env, t.Type), Interface: t.Interface, Method: t.Method}
	case Vptr:
		args := make([]Term, len(t.TypeArgs))
		for i, a := range t.TypeArgs {
			args[i] = renameWith(f, env, a)
		}
		return Vptr{Class: t.Class, TypeArgs: args}
	default:
		panic("term: Rename: unhandled term variant")
	}
}
