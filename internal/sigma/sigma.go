package sigma

import (
	"fmt"

	"github.com/sunholo/rowscript/internal/ident"
	"github.com/sunholo/rowscript/internal/term"
)

// Sigma is the global definition table: the single source of truth
// for every named entity in a compilation unit (spec.md §3). It grows
// monotonically — once a *ident.Var is inserted it is never removed;
// its Body may transition Undefined -> <body> and Meta(nil) ->
// Meta(solution) exactly once each.
type Sigma struct {
	defs    map[*ident.Var]*Def[term.Term]
	order   []*ident.Var // insertion order, for deterministic iteration
	factory *ident.Factory
}

// New creates an empty Sigma sharing the given Var factory, so every
// fresh name minted while elaborating ends up identity-consistent with
// names already stored here.
func New(factory *ident.Factory) *Sigma {
	return &Sigma{defs: make(map[*ident.Var]*Def[term.Term]), factory: factory}
}

// Factory returns the Var factory backing this Sigma.
func (s *Sigma) Factory() *ident.Factory { return s.factory }

// Insert adds a brand-new Def. It is an error to insert the same Var
// twice (Σ grows monotonically, but each name is defined once).
func (s *Sigma) Insert(d *Def[term.Term]) error {
	if _, ok := s.defs[d.Name]; ok {
		return fmt.Errorf("sigma: %s already defined at %s", d.Name, d.Loc)
	}
	s.defs[d.Name] = d
	s.order = append(s.order, d.Name)
	return nil
}

// Get looks up a Def by Var, the second result reporting presence.
func (s *Sigma) Get(v *ident.Var) (*Def[term.Term], bool) {
	d, ok := s.defs[v]
	return d, ok
}

// MustGet looks up a Def, panicking if absent: callers use this once
// the resolver/elaborator invariant (every Ref/Undef/MetaRef names a
// live Σ entry) is known to hold.
func (s *Sigma) MustGet(v *ident.Var) *Def[term.Term] {
	d, ok := s.defs[v]
	if !ok {
		panic(fmt.Sprintf("sigma: %s has no Σ entry", v))
	}
	return d
}

// SetBody overwrites an Undefined Def's body once its term has been
// elaborated (two-phase recursion scheme, spec.md §5). It is an error
// to call this on a Def that is not currently Undefined.
func (s *Sigma) SetBody(v *ident.Var, body Body[term.Term]) error {
	d, ok := s.defs[v]
	if !ok {
		return fmt.Errorf("sigma: SetBody: %s not in Σ", v)
	}
	if _, isUndef := d.Body.(Undefined); !isUndef {
		return fmt.Errorf("sigma: SetBody: %s body already set", v)
	}
	d.Body = body
	return nil
}

// SolveMeta writes a metavariable's solution. First-write wins: a
// second call on an already-solved meta is a silent no-op, matching
// spec.md §8 property 7 (meta monotonicity) and the unifier's "solve"
// rule (original_source/unify.rs).
func (s *Sigma) SolveMeta(v *ident.Var, solution term.Term) error {
	d, ok := s.defs[v]
	if !ok {
		return fmt.Errorf("sigma: SolveMeta: %s not in Σ", v)
	}
	m, isMeta := d.Body.(Meta[term.Term])
	if !isMeta {
		return fmt.Errorf("sigma: SolveMeta: %s is not a metavariable", v)
	}
	if m.Solution != nil {
		return nil // first write wins
	}
	sol := solution
	d.Body = Meta[term.Term]{Kind: m.Kind, Solution: &sol}
	return nil
}

// RegisterImplementation appends implementsVar onto iface's Interface
// body's Ims list. Unlike SetBody this is a repeated mutation: Ims is
// the one part of Σ that keeps growing after its Def's initial body is
// set, since each `implements` block registers another instance against
// an interface declared once (spec.md §4.5 "most recently registered
// implementation wins" relies on Ims' append order).
func (s *Sigma) RegisterImplementation(iface *ident.Var, implementsVar *ident.Var) error {
	d, ok := s.defs[iface]
	if !ok {
		return fmt.Errorf("sigma: RegisterImplementation: %s not in Σ", iface)
	}
	iv, ok := d.Body.(Interface)
	if !ok {
		return fmt.Errorf("sigma: RegisterImplementation: %s is not an interface", iface)
	}
	iv.Ims = append(iv.Ims, implementsVar)
	d.Body = iv
	return nil
}

// Order returns every inserted Var in insertion order, for
// deterministic iteration (codegen, diagnostics).
func (s *Sigma) Order() []*ident.Var {
	out := make([]*ident.Var, len(s.order))
	copy(out, s.order)
	return out
}

// Fresh mints a fresh ordinary Var via the shared factory.
func (s *Sigma) Fresh(name string) *ident.Var { return s.factory.Fresh(name) }

// FreshMeta mints a fresh metavariable Var, inserts its Def (telescope
// = the current Gamma reified, return type = typ), and returns both
// the Var and a MetaRef term applying it to that Gamma's spine
// (spec.md §4.2 "Holes").
func (s *Sigma) FreshMeta(kind ident.Kind, loc Loc, tele term.Telescope[term.Term], ret term.Term) (*ident.Var, term.Term) {
	v := s.factory.FreshMeta(kind)
	_ = s.Insert(&Def[term.Term]{
		Loc:  loc,
		Name: v,
		Tele: tele,
		Ret:  ret,
		Body: Meta[term.Term]{Kind: kind},
	})
	return v, term.MetaRef{Kind: kind, Var: v, Spine: term.SpineOf(tele)}
}
