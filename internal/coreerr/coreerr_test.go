package coreerr

import (
	"errors"
	"strings"
	"testing"

	"github.com/sunholo/rowscript/internal/sigma"
	"github.com/sunholo/rowscript/internal/term"
)

func loc(line int) sigma.Loc {
	return sigma.Loc{File: "mod.rws", Line: line, Col: 1}
}

func TestIOErrorWrapsAndFormats(t *testing.T) {
	inner := errors.New("disk full")
	e := &IOError{Loc: loc(1), Err: inner}

	if !strings.Contains(e.Error(), "mod.rws:1:1") {
		t.Fatalf("Error() should include the Loc: %q", e.Error())
	}
	if !strings.Contains(e.Error(), "disk full") {
		t.Fatalf("Error() should include the wrapped message: %q", e.Error())
	}
	if !errors.Is(e, inner) {
		t.Fatal("Unwrap should expose the wrapped error to errors.Is")
	}
}

func TestParseErrorWrapsAndFormats(t *testing.T) {
	inner := errors.New("unexpected token")
	e := &ParseError{Loc: loc(2), Err: inner}

	if !strings.Contains(e.Error(), "unexpected token") {
		t.Fatalf("Error() should include the wrapped message: %q", e.Error())
	}
	if !errors.Is(e, inner) {
		t.Fatal("Unwrap should expose the wrapped error to errors.Is")
	}
}

func TestUnresolvedVarError(t *testing.T) {
	e := &UnresolvedVarError{Loc: loc(3), Name: "foo"}
	if !strings.Contains(e.Error(), "foo") || !strings.Contains(e.Error(), "mod.rws:3:1") {
		t.Fatalf("Error() should mention both the name and Loc: %q", e.Error())
	}
}

func TestDuplicateNameError(t *testing.T) {
	e := &DuplicateNameError{Loc: loc(4), Name: "x"}
	if !strings.Contains(e.Error(), "x") {
		t.Fatalf("Error() should mention the duplicated name: %q", e.Error())
	}
}

func TestUnresolvedImplicitParamError(t *testing.T) {
	e := &UnresolvedImplicitParamError{Loc: loc(5), Name: "T"}
	if !strings.Contains(e.Error(), "T") {
		t.Fatalf("Error() should mention the implicit param name: %q", e.Error())
	}
}

func TestShapeMismatchConstructors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"ExpectedPi", ExpectedPi(term.Unit{}, loc(1)), "Pi"},
		{"ExpectedSigma", ExpectedSigma(term.Unit{}, loc(1)), "Sigma"},
		{"ExpectedObject", ExpectedObject(term.Unit{}, loc(1)), "Object"},
		{"ExpectedEnum", ExpectedEnum(term.Unit{}, loc(1)), "Enum"},
		{"ExpectedClass", ExpectedClass(term.Unit{}, loc(1)), "class"},
		{"ExpectedInterface", ExpectedInterface(term.Unit{}, loc(1)), "interface"},
		{"ExpectedAlias", ExpectedAlias(term.Unit{}, loc(1)), "type alias"},
		{"ExpectedImplementsOf", ExpectedImplementsOf(term.Unit{}, loc(1)), "ImplementsOf"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			msg := c.err.Error()
			if !strings.Contains(msg, c.want) {
				t.Fatalf("%s: expected message to mention %q, got %q", c.name, c.want, msg)
			}
			if !strings.Contains(msg, term.Unit{}.String()) {
				t.Fatalf("%s: expected message to mention the got-term, got %q", c.name, msg)
			}
		})
	}
}

func TestFieldsUnknownError(t *testing.T) {
	e := &FieldsUnknownError{Loc: loc(1), Got: term.Row{}}
	if !strings.Contains(e.Error(), "Row") {
		t.Fatalf("Error() should mention the term: %q", e.Error())
	}
}

func TestUnresolvedFieldError(t *testing.T) {
	e := &UnresolvedFieldError{Loc: loc(1), Name: "bar", Type: term.Object{Row: term.Row{}}}
	msg := e.Error()
	if !strings.Contains(msg, "bar") {
		t.Fatalf("Error() should mention the missing field name: %q", msg)
	}
}

func TestNonExhaustiveError(t *testing.T) {
	e := &NonExhaustiveError{Loc: loc(1), Type: term.Enum{Row: term.Row{}}}
	if !strings.Contains(e.Error(), "non-exhaustive") {
		t.Fatalf("Error() should flag non-exhaustiveness: %q", e.Error())
	}
}

func TestNonUnifiableError(t *testing.T) {
	e := &NonUnifiableError{Loc: loc(1), Lhs: term.Number{}, Rhs: term.String{}}
	msg := e.Error()
	if !strings.Contains(msg, "Number") || !strings.Contains(msg, "String") {
		t.Fatalf("Error() should mention both sides: %q", msg)
	}
}

func TestNonRowSatError(t *testing.T) {
	e := &NonRowSatError{Loc: loc(1), Small: term.FieldsTerm{Fields: term.Fields{"a": term.Unit{}}}, Big: term.Row{}}
	if !strings.Contains(e.Error(), "row bound") {
		t.Fatalf("Error() should describe a row-bound failure: %q", e.Error())
	}
}

func TestUnsolvedMetaError(t *testing.T) {
	e := &UnsolvedMetaError{Loc: loc(1), Term: term.Univ{}}
	if !strings.Contains(e.Error(), "unsolved metavariable") {
		t.Fatalf("Error() should describe an unsolved meta: %q", e.Error())
	}
}

func TestNonErasableError(t *testing.T) {
	e := &NonErasableError{Loc: loc(1), Term: term.Univ{}}
	if !strings.Contains(e.Error(), "not erasable") {
		t.Fatalf("Error() should describe non-erasability: %q", e.Error())
	}
}

func TestUnresolvedImplementationError(t *testing.T) {
	e := &UnresolvedImplementationError{Loc: loc(1), Type: term.Number{}}
	msg := e.Error()
	if !strings.Contains(msg, "no implementation found") || !strings.Contains(msg, "Number") {
		t.Fatalf("Error() should name the type with no implementation: %q", msg)
	}
}

func TestEveryErrorCarriesItsLoc(t *testing.T) {
	// Every Loc-carrying error must render <unknown> for the zero Loc,
	// so a caller that forgets to set one gets a visibly incomplete
	// diagnostic rather than a silently wrong line number.
	e := &UnresolvedVarError{Name: "x"}
	if !strings.Contains(e.Error(), "<unknown>") {
		t.Fatalf("zero Loc should render as <unknown>: %q", e.Error())
	}
}
