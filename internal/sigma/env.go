package sigma

import (
	"github.com/sunholo/rowscript/internal/ident"
	"github.com/sunholo/rowscript/internal/term"
)

// Gamma is the local typing context: Var -> its type. It is a
// persistent linked scope so "push on enter, restore on exit" falls
// out of structural sharing instead of explicit save/restore bookkeeping
// — the caller simply keeps the old *Gamma around and resumes using it
// on any exit path, including error returns (spec.md §5).
type Gamma struct {
	parent *Gamma
	v      *ident.Var
	typ    term.Term
}

// Push extends g with a single new binding, returning a new head of
// the chain; g itself is untouched.
func (g *Gamma) Push(v *ident.Var, typ term.Term) *Gamma {
	return &Gamma{parent: g, v: v, typ: typ}
}

// Lookup walks the chain from the innermost binding outward.
func (g *Gamma) Lookup(v *ident.Var) (term.Term, bool) {
	for cur := g; cur != nil; cur = cur.parent {
		if cur.v == v {
			return cur.typ, true
		}
	}
	return nil, false
}

// Tele reifies every binding currently in scope as an explicit
// telescope, in outermost-first order, used to build the context a
// fresh metavariable is parameterized over (spec.md §4.2).
func (g *Gamma) Tele() term.Telescope[term.Term] {
	var rev term.Telescope[term.Term]
	for cur := g; cur != nil; cur = cur.parent {
		rev = append(rev, term.Param[term.Term]{Var: cur.v, Info: term.Explicit, Typ: cur.typ})
	}
	out := make(term.Telescope[term.Term], len(rev))
	for i, p := range rev {
		out[len(rev)-1-i] = p
	}
	return out
}

// Rho is the normalization environment: Var -> the term it is
// definitionally equal to (from lets and β-redexes). Same persistent
// chain discipline as Gamma.
type Rho struct {
	parent *Rho
	v      *ident.Var
	term   term.Term
}

// Push extends rho with one substitution.
func (r *Rho) Push(v *ident.Var, t term.Term) *Rho {
	return &Rho{parent: r, v: v, term: t}
}

// Lookup finds the term a Var is currently substituted to, if any.
func (r *Rho) Lookup(v *ident.Var) (term.Term, bool) {
	for cur := r; cur != nil; cur = cur.parent {
		if cur.v == v {
			return cur.term, true
		}
	}
	return nil, false
}
