// Package coreerr implements the core's error taxonomy (spec.md §7).
// Every kind carries a source Loc; none of them are recovered locally
// — the first one returned aborts elaboration of the current
// top-level definition and bubbles to the driver, which hands it to
// internal/diagnostic for pretty-printing. Grounded on the teacher's
// one-struct-per-kind convention (internal/types/errors.go's
// TypeCheckError, MissingInstanceError).
package coreerr

import (
	"fmt"

	"github.com/sunholo/rowscript/internal/sigma"
	"github.com/sunholo/rowscript/internal/term"
)

// --- IO / Parsing: propagated verbatim from external collaborators ---------

// IOError wraps a failure from the module loader collaborator.
type IOError struct {
	Loc sigma.Loc
	Err error
}

func (e *IOError) Error() string  { return fmt.Sprintf("%s: io error: %v", e.Loc, e.Err) }
func (e *IOError) Unwrap() error  { return e.Err }

// ParseError wraps a failure from the surface parser collaborator.
type ParseError struct {
	Loc sigma.Loc
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: parse error: %v", e.Loc, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// --- Resolution --------------------------------------------------------------

// UnresolvedVarError: a name has no binding in any enclosing scope.
type UnresolvedVarError struct {
	Loc  sigma.Loc
	Name string
}

func (e *UnresolvedVarError) Error() string {
	return fmt.Sprintf("%s: unresolved variable %q", e.Loc, e.Name)
}

// DuplicateNameError: the same name was bound twice in one field list
// (record/variant row) or one scope.
type DuplicateNameError struct {
	Loc  sigma.Loc
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s: duplicate name %q", e.Loc, e.Name)
}

// UnresolvedImplicitParamError: a NamedImplicit argument names a
// parameter that is never reached while walking the callee's Pi spine.
type UnresolvedImplicitParamError struct {
	Loc  sigma.Loc
	Name string
}

func (e *UnresolvedImplicitParamError) Error() string {
	return fmt.Sprintf("%s: no implicit parameter named %q", e.Loc, e.Name)
}

// --- Shape mismatches (expected K, got T) ------------------------------------

type shapeMismatch struct {
	Loc  sigma.Loc
	Kind string
	Got  term.Term
}

func (e *shapeMismatch) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Loc, e.Kind, e.Got)
}

func ExpectedPi(got term.Term, loc sigma.Loc) error            { return &shapeMismatch{loc, "Pi", got} }
func ExpectedSigma(got term.Term, loc sigma.Loc) error         { return &shapeMismatch{loc, "Sigma", got} }
func ExpectedObject(got term.Term, loc sigma.Loc) error        { return &shapeMismatch{loc, "Object", got} }
func ExpectedEnum(got term.Term, loc sigma.Loc) error          { return &shapeMismatch{loc, "Enum", got} }
func ExpectedClass(got term.Term, loc sigma.Loc) error         { return &shapeMismatch{loc, "class", got} }
func ExpectedInterface(got term.Term, loc sigma.Loc) error     { return &shapeMismatch{loc, "interface", got} }
func ExpectedAlias(got term.Term, loc sigma.Loc) error         { return &shapeMismatch{loc, "type alias", got} }
func ExpectedImplementsOf(got term.Term, loc sigma.Loc) error  { return &shapeMismatch{loc, "ImplementsOf", got} }

// FieldsUnknownError: a row/record operation was attempted on a term
// whose field map is not yet known (e.g. still a bare row variable).
type FieldsUnknownError struct {
	Loc sigma.Loc
	Got term.Term
}

func (e *FieldsUnknownError) Error() string {
	return fmt.Sprintf("%s: fields not yet known for %s", e.Loc, e.Got)
}

// --- Structural ---------------------------------------------------------------

// UnresolvedFieldError: Access/Switch named a field absent from the
// row.
type UnresolvedFieldError struct {
	Loc  sigma.Loc
	Name string
	Type term.Term
}

func (e *UnresolvedFieldError) Error() string {
	return fmt.Sprintf("%s: no field %q in %s", e.Loc, e.Name, e.Type)
}

// NonExhaustiveError: a Switch does not cover every tag of its
// scrutinee's Enum type.
type NonExhaustiveError struct {
	Loc  sigma.Loc
	Type term.Term
}

func (e *NonExhaustiveError) Error() string {
	return fmt.Sprintf("%s: non-exhaustive switch over %s", e.Loc, e.Type)
}

// --- Unification ---------------------------------------------------------------

// NonUnifiableError: two terms could not be made equal.
type NonUnifiableError struct {
	Loc      sigma.Loc
	Lhs, Rhs term.Term
}

func (e *NonUnifiableError) Error() string {
	return fmt.Sprintf("%s: cannot unify %s with %s", e.Loc, e.Lhs, e.Rhs)
}

// NonRowSatError: a row ordering predicate (small ≤ big) failed.
type NonRowSatError struct {
	Loc        sigma.Loc
	Small, Big term.Term
}

func (e *NonRowSatError) Error() string {
	return fmt.Sprintf("%s: %s does not satisfy row bound %s", e.Loc, e.Small, e.Big)
}

// --- Closure ----------------------------------------------------------------

// UnsolvedMetaError: a top-level definition finished elaboration with
// a metavariable no constraint determined.
type UnsolvedMetaError struct {
	Loc  sigma.Loc
	Term term.Term
}

func (e *UnsolvedMetaError) Error() string {
	return fmt.Sprintf("%s: unsolved metavariable in %s", e.Loc, e.Term)
}

// NonErasableError: a term destined for codegen still contains a free
// reference to a type-only definition.
type NonErasableError struct {
	Loc  sigma.Loc
	Term term.Term
}

func (e *NonErasableError) Error() string {
	return fmt.Sprintf("%s: %s is not erasable", e.Loc, e.Term)
}

// --- Instance search ----------------------------------------------------------

// UnresolvedImplementationError: instance search found no
// implementation of an interface for a concrete type.
type UnresolvedImplementationError struct {
	Loc  sigma.Loc
	Type term.Term
}

func (e *UnresolvedImplementationError) Error() string {
	return fmt.Sprintf("%s: no implementation found for %s", e.Loc, e.Type)
}
