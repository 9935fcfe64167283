// Package sigma implements the core theory's three environments:
// Σ (the global, monotonically-growing definition table), Γ (local
// typing context), and ρ (the normalization substitution), per
// spec.md §3. It is grounded on the teacher's Program/decl-table shape
// (internal/core/core.go) generalized to the Def<T> sum from
// original_source/core/src/theory/abs/def.rs.
package sigma

import (
	"fmt"

	"github.com/sunholo/rowscript/internal/ident"
	"github.com/sunholo/rowscript/internal/term"
)

// Body is the sum of ways a Def's name can be realized. T is term.Term
// for fully elaborated definitions and may be instantiated with a
// surface expression type by collaborators upstream of elaboration.
type Body[T any] interface{ isBody() }

type Fun[T any] struct{ Term T }
type Postulate struct{}
type Alias[T any] struct{ Term T }

// Method names one method of a class: its surface name and the Var of
// the synthesized per-method Def (spec.md §4.2 class desugaring).
type Method struct {
	Name string
	Var  *ident.Var
}

// Class is the body of a class definition: it records the six
// auxiliary Vars synthesized alongside it plus its method table.
type Class[T any] struct {
	Object     T // record type: { ...members..., __vptr__: vptr_type }
	Methods    []Method
	Ctor       *ident.Var
	Vptr       *ident.Var
	VptrCtor   *ident.Var
	Vtbl       *ident.Var
	VtblLookup *ident.Var
}

type Ctor[T any] struct{ Term T }
type MethodImpl[T any] struct{ Term T }
type VptrType[T any] struct{ Term T }
type VptrCtor struct{ ClassName string }
type VtblType[T any] struct{ Term T }
type VtblLookup struct{}

// Interface is the body of an `interface I { fns }` declaration.
// Supers is additive over spec.md (SPEC_FULL.md §4): superclasses this
// interface can derive methods from, grounded on the teacher's
// Ord-provides-Eq pattern (internal/types/instances.go).
type Interface struct {
	Fns    []*ident.Var
	Ims    []*ident.Var
	Supers []*ident.Var
}

// Implements is the body of an `implements I for T { ... }` block.
type Implements struct {
	Interface   *ident.Var
	Implementor *ident.Var
	Fns         map[*ident.Var]*ident.Var // interface fn Var -> impl fn Var
}

type ImplementsFn[T any] struct{ Term T }

// Findable is the body of the per-method postulate an interface
// declaration synthesizes (spec.md §4.2).
type Findable struct{ Interface *ident.Var }

// Undefined marks a forward-declared Def awaiting its body (two-phase
// elaboration scheme, spec.md §5).
type Undefined struct{}

// Meta is the body of a metavariable Def. Solution is nil until solved;
// once non-nil it must never change (spec.md §3 invariant, §8 property 7).
type Meta[T any] struct {
	Kind     ident.Kind
	Solution *T
}

func (Fun[T]) isBody()         {}
func (Postulate) isBody()      {}
func (Alias[T]) isBody()       {}
func (Class[T]) isBody()       {}
func (Ctor[T]) isBody()        {}
func (MethodImpl[T]) isBody()  {}
func (VptrType[T]) isBody()    {}
func (VptrCtor) isBody()       {}
func (VtblType[T]) isBody()    {}
func (VtblLookup) isBody()     {}
func (Interface) isBody()      {}
func (Implements) isBody()     {}
func (ImplementsFn[T]) isBody() {}
func (Findable) isBody()       {}
func (Undefined) isBody()      {}
func (Meta[T]) isBody()        {}

// Def is a single Σ entry: a name, its telescope, return type/kind,
// and a body (spec.md §3 Def<T>).
type Def[T any] struct {
	Loc  Loc
	Name *ident.Var
	Tele term.Telescope[T]
	Ret  T
	Body Body[T]
}

// ToTerm unfolds a fully elaborated Def into the closed term that a
// Ref/Undef to its Name should be replaced by, mirroring
// original_source's Def::to_term. Only bodies that denote a term
// reach here (Fun, Postulate, Alias, Undefined); other bodies are
// unfolded by their specific consumer (the elaborator for Ctor/Method,
// instance search for Implements) rather than generically.
func (d *Def[T]) ToTerm(f *ident.Factory) term.Term {
	switch b := any(d.Body).(type) {
	case Fun[term.Term]:
		return term.Rename(f, term.LamTele(any(d.Tele).(term.Telescope[term.Term]), b.Term))
	case Postulate:
		return term.Ref{Var: d.Name}
	case Alias[term.Term]:
		return term.Rename(f, term.LamTele(any(d.Tele).(term.Telescope[term.Term]), b.Term))
	case Undefined:
		return term.Undef{Var: d.Name}
	default:
		panic(fmt.Sprintf("sigma: ToTerm: Def %s has no term-denoting body (%T)", d.Name, d.Body))
	}
}

// ToType builds the Pi-quantified type of this Def from its telescope
// and return type, used by the elaborator when it looks a name up in
// Σ rather than Γ.
func (d *Def[T]) ToType() term.Term {
	return term.PiTele(any(d.Tele).(term.Telescope[term.Term]), any(d.Ret).(term.Term))
}
