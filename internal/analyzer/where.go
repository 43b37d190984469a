package analyzer

import (
	"github.com/andreasronge/ptclisp/internal/ast"
	"github.com/andreasronge/ptclisp/internal/core"
	"github.com/andreasronge/ptclisp/internal/diag"
)

var whereOps = map[string]core.WhereOp{
	"=":         core.WhereEq,
	"not=":      core.WhereNotEq,
	">":         core.WhereGt,
	"<":         core.WhereLt,
	">=":        core.WhereGte,
	"<=":        core.WhereLte,
	"includes?": core.WhereIncludes,
	"includes":  core.WhereIncludes,
	"in":        core.WhereIn,
}

// analyzeWhere normalises (where field op value) into a core predicate.
// The unary form (where field) tests truthiness of the field.
func analyzeWhere(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) != 2 && len(n.Items) != 4 {
		return nil, diag.New(diag.InvalidWhereForm,
			"expected (where field) or (where field op value)").At(head.Token)
	}

	path, err := wherePath(n.Items[1], head)
	if err != nil {
		return nil, err
	}

	if len(n.Items) == 2 {
		return core.Where{Path: path, Op: core.WhereTruthy}, nil
	}

	opName, ok := symbolName(n.Items[2])
	if !ok {
		return nil, diag.New(diag.InvalidWhereOperator,
			"(where) operator must be a symbol").At(head.Token)
	}
	op, ok := whereOps[opName]
	if !ok {
		return nil, diag.Newf(diag.InvalidWhereOperator,
			"unknown (where) operator %q", opName).At(head.Token)
	}

	value, aerr := a.Analyze(n.Items[3])
	if aerr != nil {
		return nil, aerr
	}
	return core.Where{Path: path, Op: op, Value: value}, nil
}

// wherePath accepts a single keyword/string or a non-empty vector of them.
func wherePath(node ast.Node, head *ast.Symbol) ([]string, *diag.Error) {
	switch f := node.(type) {
	case *ast.Keyword:
		return []string{f.Name}, nil
	case *ast.String:
		return []string{f.Value}, nil
	case *ast.Vector:
		if len(f.Items) == 0 {
			return nil, diag.New(diag.InvalidWhereForm,
				"(where) field path must not be empty").At(head.Token)
		}
		path := make([]string, 0, len(f.Items))
		for _, item := range f.Items {
			switch el := item.(type) {
			case *ast.Keyword:
				path = append(path, el.Name)
			case *ast.String:
				path = append(path, el.Value)
			default:
				return nil, diag.New(diag.InvalidWhereForm,
					"(where) field path elements must be keywords or strings").At(head.Token)
			}
		}
		return path, nil
	}
	return nil, diag.New(diag.InvalidWhereForm,
		"(where) field must be a keyword, string, or vector of them").At(head.Token)
}
