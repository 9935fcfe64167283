package core

import (
	"github.com/sunholo/rowscript/internal/coreerr"
	"github.com/sunholo/rowscript/internal/ident"
	"github.com/sunholo/rowscript/internal/sigma"
	"github.com/sunholo/rowscript/internal/term"
)

// SearchInstance discharges an ImplementsOf constraint: subject must
// be the type some registered implementor of iface unifies with.
// Σ[iface].Ims is walked most-recent-registration-first (spec.md §4.5,
// "last one wins" on overlap), and superclasses derived by the
// SPEC_FULL.md additive "interface supers" feature are tried once no
// direct implementor matches. Grounded on
// original_source/core/src/theory/abs/normalize.rs's check_constraint
// and the Implements body kept in internal/sigma/def.go.
func SearchInstance(s *sigma.Sigma, loc sigma.Loc, subject term.Term, iface *ident.Var) error {
	ifaceDef := s.MustGet(iface)
	iv, ok := ifaceDef.Body.(sigma.Interface)
	if !ok {
		return coreerr.ExpectedInterface(subject, loc)
	}

	for i := len(iv.Ims) - 1; i >= 0; i-- {
		implV := iv.Ims[i]
		implDef := s.MustGet(implV)
		im, ok := implDef.Body.(sigma.Implements)
		if !ok {
			continue
		}
		implementorTy := s.MustGet(im.Implementor).ToType()
		if err := NewUnifier(s, loc).Unify(implementorTy, subject); err == nil {
			return nil
		}
	}

	for _, super := range iv.Supers {
		if err := SearchInstance(s, loc, subject, super); err == nil {
			return nil
		}
	}

	return &coreerr.UnresolvedImplementationError{Loc: loc, Type: subject}
}

// FindMethod resolves which concrete implementation function backs
// method for ty's implementation of iface, performing the same search
// as SearchInstance but returning the implementation's term instead of
// merely confirming one exists.
func FindMethod(s *sigma.Sigma, loc sigma.Loc, ty term.Term, iface, method *ident.Var) (term.Term, error) {
	ifaceDef := s.MustGet(iface)
	iv, ok := ifaceDef.Body.(sigma.Interface)
	if !ok {
		return nil, coreerr.ExpectedInterface(ty, loc)
	}

	for i := len(iv.Ims) - 1; i >= 0; i-- {
		implV := iv.Ims[i]
		implDef := s.MustGet(implV)
		im, ok := implDef.Body.(sigma.Implements)
		if !ok {
			continue
		}
		implementorTy := s.MustGet(im.Implementor).ToType()
		if err := NewUnifier(s, loc).Unify(implementorTy, ty); err != nil {
			continue
		}
		fnVar, ok := im.Fns[method]
		if !ok {
			continue
		}
		return unfoldImplementsFn(s, fnVar), nil
	}

	for _, super := range iv.Supers {
		if tm, err := FindMethod(s, loc, ty, super, method); err == nil {
			return tm, nil
		}
	}

	return nil, &coreerr.UnresolvedImplementationError{Loc: loc, Type: ty}
}

// unfoldImplementsFn unfolds one implementation function's Def into a
// closed term, mirroring the Fun case of Def.ToTerm: ImplementsFn
// bodies are deliberately excluded from ToTerm's generic switch (only
// instance search is meant to unfold them), so it is done here.
func unfoldImplementsFn(s *sigma.Sigma, v *ident.Var) term.Term {
	d := s.MustGet(v)
	im, ok := d.Body.(sigma.ImplementsFn[term.Term])
	if !ok {
		panic("core: unfoldImplementsFn: body is not ImplementsFn")
	}
	return term.Rename(s.Factory(), term.LamTele(d.Tele, im.Term))
}
