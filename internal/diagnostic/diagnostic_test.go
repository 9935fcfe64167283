package diagnostic

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sunholo/rowscript/internal/coreerr"
	"github.com/sunholo/rowscript/internal/sigma"
	"github.com/sunholo/rowscript/internal/term"
	"github.com/sunholo/rowscript/testutil"
)

func loc(line, col int) sigma.Loc {
	return sigma.Loc{File: "main.rws", Line: line, Col: col}
}

func TestToReportAssignsCodeAndMessage(t *testing.T) {
	err := &coreerr.UnresolvedVarError{Loc: loc(3, 5), Name: "x"}
	r := ToReport(err)
	if r.Code != "RES001" {
		t.Fatalf("expected code RES001, got %q", r.Code)
	}
	if r.Message != err.Error() {
		t.Fatalf("expected Message to match err.Error(), got %q", r.Message)
	}
	if r.Loc == nil || r.Loc.Line != 3 || r.Loc.Col != 5 {
		t.Fatalf("expected Loc to carry the error's location, got %#v", r.Loc)
	}
	if r.Schema == "" {
		t.Fatal("expected a non-empty Schema field")
	}
}

func TestToReportCodeCoversEveryCoreerrKind(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{&coreerr.IOError{}, "IO001"},
		{&coreerr.ParseError{}, "PAR001"},
		{&coreerr.UnresolvedVarError{}, "RES001"},
		{&coreerr.DuplicateNameError{}, "RES002"},
		{&coreerr.UnresolvedImplicitParamError{}, "RES003"},
		{&coreerr.FieldsUnknownError{}, "STR001"},
		{&coreerr.UnresolvedFieldError{}, "STR002"},
		{&coreerr.NonExhaustiveError{}, "STR003"},
		{&coreerr.NonUnifiableError{}, "UNI001"},
		{&coreerr.NonRowSatError{}, "UNI002"},
		{&coreerr.UnsolvedMetaError{}, "CLO001"},
		{&coreerr.NonErasableError{}, "CLO002"},
		{&coreerr.UnresolvedImplementationError{}, "INST001"},
	}
	for _, c := range cases {
		if got := ToReport(c.err).Code; got != c.code {
			t.Errorf("%T: got code %q, want %q", c.err, got, c.code)
		}
	}
}

func TestToReportUnknownErrorGetsGenericCode(t *testing.T) {
	err := errorString("boom")
	r := ToReport(err)
	if r.Code != "GEN000" {
		t.Fatalf("expected GEN000 for an unrecognized error type, got %q", r.Code)
	}
	if r.Loc != nil {
		t.Fatalf("expected no Loc for an error outside the taxonomy, got %#v", r.Loc)
	}
}

type errorString string

func (e errorString) Error() string { return string(e) }

func TestReportToJSONRoundTrips(t *testing.T) {
	r := ToReport(&coreerr.DuplicateNameError{Loc: loc(1, 1), Name: "dup"})
	out, err := r.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	var decoded Report
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("ToJSON output did not round-trip through json.Unmarshal: %v", err)
	}
	if decoded.Code != "RES002" || decoded.Message != r.Message {
		t.Fatalf("round-tripped report mismatched: %#v", decoded)
	}
}

func TestRenderIncludesSourceLineAndCaret(t *testing.T) {
	err := &coreerr.UnresolvedVarError{Loc: loc(2, 3), Name: "y"}
	src := "let x = 1;\nlet y = x + z;\n"
	out := Render(err, src)
	if !strings.Contains(out, "let y = x + z;") {
		t.Fatalf("expected the offending source line in the rendered output, got %q", out)
	}
	if !strings.Contains(out, "^") {
		t.Fatalf("expected a caret marker in the rendered output, got %q", out)
	}
}

func TestRenderWithoutSourceOmitsSnippet(t *testing.T) {
	err := &coreerr.UnresolvedVarError{Loc: loc(2, 3), Name: "y"}
	out := Render(err, "")
	if strings.Contains(out, "|") {
		t.Fatalf("expected no source-line gutter when src is empty, got %q", out)
	}
}

func TestRenderUnlocatedErrorOmitsSnippetEvenWithSource(t *testing.T) {
	err := errorString("boom")
	out := Render(err, "some source\n")
	if strings.Contains(out, "some source") {
		t.Fatalf("expected no snippet for an error with no known Loc, got %q", out)
	}
}

func TestRenderNFCNormalizesSourceBeforeSlicing(t *testing.T) {
	// "cafe" + combining acute accent (NFD) should render identically
	// to its precomposed NFC form ("caf\u00e9") once normalized.
	nfd := "cafe\u0301"
	nfc := "caf\u00e9"
	err := &coreerr.UnresolvedVarError{Loc: loc(1, 1), Name: "x"}
	out := Render(err, nfd+"\n")
	if !strings.Contains(out, nfc) {
		t.Fatalf("expected the NFD source line to be NFC-normalized in the rendered output, got %q", out)
	}
}

func TestToReportPreservesTermDetail(t *testing.T) {
	err := &coreerr.NonErasableError{Loc: loc(4, 1), Term: term.Univ{}}
	r := ToReport(err)
	if !strings.Contains(r.Message, "not erasable") {
		t.Fatalf("expected the message to come from err.Error(), got %q", r.Message)
	}
}

// TestToJSONMatchesGolden pins the wire shape tooling consumes (an
// editor or CI log parsing this core's structured diagnostics) against
// testdata/diagnostic/unresolved_var.golden.
func TestToJSONMatchesGolden(t *testing.T) {
	err := &coreerr.UnresolvedVarError{Loc: loc(3, 5), Name: "x"}
	got, jsonErr := ToReport(err).ToJSON()
	if jsonErr != nil {
		t.Fatal(jsonErr)
	}
	testutil.CompareWithGolden(t, "diagnostic", "unresolved_var", got)
}
