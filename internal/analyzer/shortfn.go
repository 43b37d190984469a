package analyzer

import (
	"fmt"

	"github.com/andreasronge/ptclisp/internal/ast"
	"github.com/andreasronge/ptclisp/internal/core"
	"github.com/andreasronge/ptclisp/internal/diag"
)

// analyzeShortFn expands #(...) into an fn whose arity is defined by the
// highest placeholder index referenced in the body. % is an alias for %1.
func (a *Analyzer) analyzeShortFn(n *ast.ShortFn) (core.Node, *diag.Error) {
	if a.shortFn > 0 {
		return nil, diag.New(diag.InvalidPlaceholder, "nested #() is not supported").At(n.Token)
	}

	maxIdx := 0
	scanPlaceholders(n.Body, &maxIdx)

	a.shortFn++
	body, err := a.analyzeList(n.Body)
	a.shortFn--
	if err != nil {
		return nil, err
	}

	params := make([]core.Pattern, maxIdx)
	for i := 0; i < maxIdx; i++ {
		params[i] = core.VarPat{Name: fmt.Sprintf("%%%d", i+1)}
	}
	return core.Fn{Params: params, Body: []core.Node{body}}, nil
}

func scanPlaceholders(node ast.Node, maxIdx *int) {
	switch n := node.(type) {
	case *ast.Symbol:
		if isPlaceholder(n.Name) {
			if idx := placeholderIndex(n.Name); idx > *maxIdx {
				*maxIdx = idx
			}
		}
	case *ast.List:
		for _, item := range n.Items {
			scanPlaceholders(item, maxIdx)
		}
	case *ast.Vector:
		for _, item := range n.Items {
			scanPlaceholders(item, maxIdx)
		}
	case *ast.Set:
		for _, item := range n.Items {
			scanPlaceholders(item, maxIdx)
		}
	case *ast.Map:
		for _, pair := range n.Pairs {
			scanPlaceholders(pair.Key, maxIdx)
			scanPlaceholders(pair.Value, maxIdx)
		}
	case *ast.ShortFn:
		scanPlaceholders(n.Body, maxIdx)
	}
}
