package main

import (
	"fmt"

	"github.com/sunholo/rowscript/internal/surface"
)

// noFrontend is the stand-in for the surface grammar collaborator
// (spec.md §1 keeps the parser external, specified only at its
// surface.Expr data-contract boundary). It lets `check`/`repl` exercise
// the rest of the pipeline's wiring (loader -> resolve -> elaborate ->
// core -> diagnostic) end to end without inventing concrete syntax this
// module was never asked to own, the same stance internal/codegen takes
// toward its backend.
type noFrontend struct{}

func (noFrontend) ParseExpr(input string) (surface.Expr, error) {
	return nil, fmt.Errorf("rwsc: no surface grammar wired in this build; surface.Expr values must be supplied programmatically")
}
