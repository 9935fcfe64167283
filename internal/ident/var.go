// Package ident implements variable identity for the core theory.
//
// A Var is a fresh, pointer-identical handle with a display name.
// Two variables that print the same are still distinct unless they
// share the same underlying *Var, mirroring the teacher's fresh-counter
// idiom (internal/types.freshTypeVar) but with identity rather than
// name-based equality, since the core needs α-equivalence to survive
// shadowing and renaming.
package ident

import "fmt"

// Kind distinguishes ordinary binders from metavariables.
type Kind int

const (
	// Binder is an ordinary lambda/pi/let-bound variable.
	Binder Kind = iota
	// UserMeta is a hole the surface program wrote explicitly (`?`).
	UserMeta
	// InsertedMeta is a hole the elaborator inserted (implicit argument/instance).
	InsertedMeta
)

// Var is a fresh identity. Equality is pointer identity; never compare
// Vars with ==  across a copy boundary other than the pointer itself.
type Var struct {
	id   uint64
	name string
	kind Kind
}

// Name returns the display name used in pretty-printing and error
// messages. It is not part of identity.
func (v *Var) Name() string { return v.name }

// Kind reports whether this is an ordinary binder or a metavariable.
func (v *Var) Kind() Kind { return v.kind }

func (v *Var) String() string {
	if v.name == "" {
		return fmt.Sprintf("_%d", v.id)
	}
	return v.name
}

// Factory mints fresh Vars with monotonically increasing ids, scoped to
// one compilation run (one Factory per driver, per the single-threaded
// model in spec.md §5).
type Factory struct {
	next     uint64
	metaUser uint64
	metaIns  uint64
}

// NewFactory creates an empty Var factory.
func NewFactory() *Factory { return &Factory{} }

// Fresh mints an ordinary binder Var with the given display name.
func (f *Factory) Fresh(name string) *Var {
	f.next++
	return &Var{id: f.next, name: name, kind: Binder}
}

// FreshMeta mints a metavariable Var. User holes are named `?u<N>`,
// inserted holes `?i<N>`, per spec.md §3.
func (f *Factory) FreshMeta(kind Kind) *Var {
	f.next++
	var name string
	switch kind {
	case UserMeta:
		f.metaUser++
		name = fmt.Sprintf("?u%d", f.metaUser)
	case InsertedMeta:
		f.metaIns++
		name = fmt.Sprintf("?i%d", f.metaIns)
	default:
		panic("ident: FreshMeta called with non-meta kind")
	}
	return &Var{id: f.next, name: name, kind: kind}
}

// Rename mints a fresh copy of v with the same display name and kind,
// used by the renamer to preserve α-equivalence across substitution.
func (f *Factory) Rename(v *Var) *Var {
	f.next++
	return &Var{id: f.next, name: v.name, kind: v.kind}
}

// Special, compiler-wide singletons. Unlike ordinary Vars these are
// shared across every Factory, since they never participate in capture:
// Unbound is a placeholder that must never be referenced, and Tupled
// is a shared name for a compiler-synthesized tuple aggregate. The
// resolver's tuple-lambda desugaring does not use Tupled; it binds a
// fresh Var named "$tupled0" for each lambda.
var (
	Unbound = &Var{id: 0, name: "_", kind: Binder}
	Tupled  = &Var{id: 0, name: "$tupled", kind: Binder}
)

// IsUnbound reports whether v is the shared placeholder variable.
func IsUnbound(v *Var) bool { return v == Unbound }
