package analyzer

import (
	"github.com/andreasronge/ptclisp/internal/ast"
	"github.com/andreasronge/ptclisp/internal/core"
	"github.com/andreasronge/ptclisp/internal/diag"
)

// Threading macros are desugared on the raw AST so that tail analysis and
// evaluation only ever see plain calls.

func analyzeThreadFirst(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	return a.analyzeThread(n, head, false)
}

func analyzeThreadLast(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	return a.analyzeThread(n, head, true)
}

func (a *Analyzer) analyzeThread(n *ast.List, head *ast.Symbol, last bool) (core.Node, *diag.Error) {
	if len(n.Items) < 2 {
		return nil, diag.Newf(diag.InvalidThreadForm,
			"(%s) requires an initial value", head.Name).At(head.Token)
	}
	acc := n.Items[1]
	for _, step := range n.Items[2:] {
		threaded, err := threadStep(acc, step, head, last)
		if err != nil {
			return nil, err
		}
		acc = threaded
	}
	return a.Analyze(acc)
}

func threadStep(acc, step ast.Node, head *ast.Symbol, last bool) (ast.Node, *diag.Error) {
	switch s := step.(type) {
	case *ast.List:
		if len(s.Items) == 0 {
			return nil, diag.Newf(diag.InvalidThreadForm,
				"(%s) cannot thread through an empty form", head.Name).At(s.Token)
		}
		items := make([]ast.Node, 0, len(s.Items)+1)
		if last {
			items = append(items, s.Items...)
			items = append(items, acc)
		} else {
			items = append(items, s.Items[0], acc)
			items = append(items, s.Items[1:]...)
		}
		return &ast.List{Token: s.Token, Items: items}, nil
	case *ast.Symbol, *ast.NSSymbol, *ast.Keyword, *ast.ShortFn:
		// Bare steps become 1-arg calls.
		return &ast.List{Token: step.GetToken(), Items: []ast.Node{step, acc}}, nil
	}
	return nil, diag.Newf(diag.InvalidThreadForm,
		"(%s) steps must be forms or symbols", head.Name).At(step.GetToken())
}
