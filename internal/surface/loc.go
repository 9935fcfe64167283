package surface

import "github.com/sunholo/rowscript/internal/sigma"

// ToSigma converts a surface Loc into the core's sigma.Loc, the one
// point where the surface boundary's location shape is adapted to the
// elaborated representation's (spec.md §6: "every node carries a
// source location").
func (l Loc) ToSigma() sigma.Loc {
	return sigma.Loc{
		File:            l.File,
		FileOffsetStart: l.FileOffsetStart,
		FileOffsetEnd:   l.FileOffsetEnd,
		Line:            l.Line,
		Col:             l.Col,
	}
}
