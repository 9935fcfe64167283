// Package diagnostic renders coreerr values for a terminal (colorized,
// with a source snippet) or as structured JSON for tooling, grounded on
// the teacher's internal/errors report/code/phase schema.
package diagnostic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/unicode/norm"

	"github.com/sunholo/rowscript/internal/coreerr"
	"github.com/sunholo/rowscript/internal/sigma"
)

var (
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// Report is the JSON-serializable shape of a rendered diagnostic,
// mirroring the teacher's internal/errors.Report schema/code/phase
// fields, specialized to this core's error taxonomy instead of AILANG's
// parser/loader/typecheck phases.
type Report struct {
	Schema  string         `json:"schema"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Loc     *sigma.Loc     `json:"loc,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// code assigns a short error code per coreerr kind, mirroring the
// teacher's codes.go (IMP010, LDR001, ...) convention but scoped to
// this taxonomy (spec.md §7).
func code(err error) string {
	switch err.(type) {
	case *coreerr.IOError:
		return "IO001"
	case *coreerr.ParseError:
		return "PAR001"
	case *coreerr.UnresolvedVarError:
		return "RES001"
	case *coreerr.DuplicateNameError:
		return "RES002"
	case *coreerr.UnresolvedImplicitParamError:
		return "RES003"
	case *coreerr.FieldsUnknownError:
		return "STR001"
	case *coreerr.UnresolvedFieldError:
		return "STR002"
	case *coreerr.NonExhaustiveError:
		return "STR003"
	case *coreerr.NonUnifiableError:
		return "UNI001"
	case *coreerr.NonRowSatError:
		return "UNI002"
	case *coreerr.UnsolvedMetaError:
		return "CLO001"
	case *coreerr.NonErasableError:
		return "CLO002"
	case *coreerr.UnresolvedImplementationError:
		return "INST001"
	default:
		return "GEN000"
	}
}

func locOf(err error) (sigma.Loc, bool) {
	switch e := err.(type) {
	case *coreerr.IOError:
		return e.Loc, true
	case *coreerr.ParseError:
		return e.Loc, true
	case *coreerr.UnresolvedVarError:
		return e.Loc, true
	case *coreerr.DuplicateNameError:
		return e.Loc, true
	case *coreerr.UnresolvedImplicitParamError:
		return e.Loc, true
	case *coreerr.FieldsUnknownError:
		return e.Loc, true
	case *coreerr.UnresolvedFieldError:
		return e.Loc, true
	case *coreerr.NonExhaustiveError:
		return e.Loc, true
	case *coreerr.NonUnifiableError:
		return e.Loc, true
	case *coreerr.NonRowSatError:
		return e.Loc, true
	case *coreerr.UnsolvedMetaError:
		return e.Loc, true
	case *coreerr.NonErasableError:
		return e.Loc, true
	case *coreerr.UnresolvedImplementationError:
		return e.Loc, true
	default:
		return sigma.Loc{}, false
	}
}

// ToReport builds the structured Report for err, independent of
// terminal rendering.
func ToReport(err error) *Report {
	r := &Report{Schema: "rowscript.error/v1", Code: code(err), Message: err.Error()}
	if loc, ok := locOf(err); ok {
		r.Loc = &loc
	}
	return r
}

// ToJSON renders err as deterministic, indented JSON (teacher's
// Report.ToJSON idiom).
func (r *Report) ToJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Render prints err for a terminal: a colorized one-line summary plus,
// when src is non-empty and the error carries a Loc, the offending
// source line with a caret under the column.
func Render(err error, src string) string {
	var b strings.Builder
	loc, hasLoc := locOf(err)
	fmt.Fprintf(&b, "%s %s: %s\n", red("error["+code(err)+"]"), dim(loc.String()), err.Error())
	if hasLoc && src != "" {
		if line, ok := sourceLine(src, loc.Line); ok {
			fmt.Fprintf(&b, "  %s %s\n", dim(fmt.Sprintf("%d |", loc.Line)), line)
			if loc.Col > 0 {
				fmt.Fprintf(&b, "  %s %s%s\n", dim("  |"), strings.Repeat(" ", loc.Col-1), yellow("^"))
			}
		}
	}
	return b.String()
}

// sourceLine extracts line (1-indexed) from src, NFC-normalizing it
// first so its column count matches the Loc.Col an upstream pass
// computed (the loader normalizes BOM/CRLF only, not combining forms;
// mirrors the teacher's lexer.Normalize NFC step one layer downstream).
func sourceLine(src string, line int) (string, bool) {
	if line <= 0 {
		return "", false
	}
	normalized := src
	if !norm.NFC.IsNormal([]byte(src)) {
		normalized = norm.NFC.String(src)
	}
	lines := strings.Split(normalized, "\n")
	if line > len(lines) {
		return "", false
	}
	return lines[line-1], true
}
