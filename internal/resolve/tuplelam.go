package resolve

import (
	"fmt"

	"github.com/sunholo/rowscript/internal/surface"
)

// desugarTupledLam rewrites `(x, y, z) => body` into nested
// single-variable Lam/TupleLet bindings over synthesized "untupled"
// names, mirroring original_source's Expr::wrap_tuple_lets: the
// lambda itself binds one fresh tuple variable, and each original
// parameter is peeled off it one TupleLet at a time.
//
// (x, y, z) => body desugars to:
//
//	$tupled0 => let (x, $untupled1) = $tupled0; let (y, z) = $untupled1; body
//
// The untupled names are positional ($untupled1, $untupled2, ...); they
// are not derived from the parameters' display names.
func desugarTupledLam(e surface.TupledLam) surface.Expr {
	n := len(e.Params)
	switch n {
	case 0:
		return surface.Lam{Loc: e.Loc, Name: surface.Name{Loc: e.Loc, Value: "_"}, Body: e.Body}
	case 1:
		return surface.Lam{Loc: e.Loc, Name: e.Params[0], Body: e.Body}
	}

	tupledName := surface.Name{Loc: e.Loc, Value: "$tupled0"}

	// restNames[i], for i in [0, n-1), names the tuple that still holds
	// params[i:]; the last one, restNames[n-2], is the scrutinee of the
	// TupleLet that binds the final pair of params directly.
	restNames := make([]surface.Name, n-1)
	restNames[0] = tupledName
	for i := 1; i < n-1; i++ {
		restNames[i] = surface.Name{Loc: e.Loc, Value: fmt.Sprintf("$untupled%d", i)}
	}

	body := e.Body
	for i := n - 2; i >= 0; i-- {
		snd := e.Params[i+1]
		if i < n-2 {
			snd = restNames[i+1]
		}
		body = surface.TupleLet{
			Loc:       e.Loc,
			Fst:       e.Params[i],
			Snd:       snd,
			Scrutinee: surface.Unresolved{Loc: e.Loc, Name: restNames[i].Value},
			Body:      body,
		}
	}

	return surface.Lam{Loc: e.Loc, Name: tupledName, Body: body}
}
