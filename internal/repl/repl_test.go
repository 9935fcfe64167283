package repl

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/sunholo/rowscript/internal/surface"
)

// stubFrontend resolves a fixed table of input lines to surface.Expr
// values, standing in for the out-of-scope parser.
type stubFrontend struct {
	exprs map[string]surface.Expr
}

func (f *stubFrontend) ParseExpr(input string) (surface.Expr, error) {
	if e, ok := f.exprs[input]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("stubFrontend: no expression registered for %q", input)
}

func TestEvalLinePrintsTypeAndNormalForm(t *testing.T) {
	fe := &stubFrontend{exprs: map[string]surface.Expr{
		"42": surface.Num{Value: "42"},
	}}
	r := New(fe, nil)
	var buf bytes.Buffer
	r.evalLine("42", &buf)
	out := buf.String()
	if !strings.Contains(out, "=") || !strings.Contains(out, ":") {
		t.Fatalf("expected a %q : %q = %q style result line, got %q", "_", "type", "value", out)
	}
}

func TestEvalLineParseErrorRendersDiagnostic(t *testing.T) {
	fe := &stubFrontend{exprs: map[string]surface.Expr{}}
	r := New(fe, nil)
	var buf bytes.Buffer
	r.evalLine("garbage", &buf)
	if buf.Len() == 0 {
		t.Fatal("expected a rendered diagnostic for an unparseable line")
	}
}

func TestEvalLineUnresolvedNameRendersDiagnostic(t *testing.T) {
	fe := &stubFrontend{exprs: map[string]surface.Expr{
		"x": surface.Unresolved{Name: "x"},
	}}
	r := New(fe, nil)
	var buf bytes.Buffer
	r.evalLine("x", &buf)
	if !strings.Contains(buf.String(), "error") {
		t.Fatalf("expected a rendered diagnostic for an unresolved name, got %q", buf.String())
	}
}

func TestEvalLineSigmaNeverShrinksAcrossCalls(t *testing.T) {
	fe := &stubFrontend{exprs: map[string]surface.Expr{
		"1": surface.Num{Value: "1"},
		"2": surface.Num{Value: "2"},
	}}
	r := New(fe, nil)
	var buf bytes.Buffer
	before := len(r.sigma.Order())
	r.evalLine("1", &buf)
	r.evalLine("2", &buf)
	after := len(r.sigma.Order())
	if after < before {
		t.Fatalf("expected Sigma to never shrink across evaluated lines: before=%d after=%d", before, after)
	}
}

func TestHandleCommandSigmaOnEmptySigmaDoesNotPanic(t *testing.T) {
	r := New(&stubFrontend{}, nil)
	var buf bytes.Buffer
	r.handleCommand(":sigma", &buf)
	// an empty Sigma prints nothing but must not panic or error.
	_ = buf.String()
}

func TestHandleCommandHistoryEchoesPriorInput(t *testing.T) {
	r := New(&stubFrontend{}, nil)
	r.history = append(r.history, "1", "2")
	var buf bytes.Buffer
	r.handleCommand(":history", &buf)
	out := buf.String()
	if !strings.Contains(out, "1") || !strings.Contains(out, "2") {
		t.Fatalf("expected both history entries printed, got %q", out)
	}
}

func TestHandleCommandUnknownReportsError(t *testing.T) {
	r := New(&stubFrontend{}, nil)
	var buf bytes.Buffer
	r.handleCommand(":bogus", &buf)
	if !strings.Contains(buf.String(), "Unknown command") {
		t.Fatalf("expected an unknown-command message, got %q", buf.String())
	}
}

func TestNewWithVersionDefaultsWhenEmpty(t *testing.T) {
	r := NewWithVersion(&stubFrontend{}, nil, "", "")
	if r.version != "dev" || r.buildTime != "unknown" {
		t.Fatalf("expected default version/buildTime, got %q/%q", r.version, r.buildTime)
	}
}

func TestNewWithVersionKeepsSuppliedValues(t *testing.T) {
	r := NewWithVersion(&stubFrontend{}, nil, "1.2.3", "2026-01-01")
	if r.version != "1.2.3" || r.buildTime != "2026-01-01" {
		t.Fatalf("expected supplied version/buildTime preserved, got %q/%q", r.version, r.buildTime)
	}
}
