package analyzer

import (
	"github.com/andreasronge/ptclisp/internal/core"
	"github.com/andreasronge/ptclisp/internal/diag"
)

// CountSymbols walks the core AST and counts distinct user symbols and
// keywords. coreNames is the closed set of names that never count against
// the budget: builtins, special forms, and :else (which the analyzer has
// already desugared away).
func CountSymbols(node core.Node, coreNames map[string]bool) int {
	seen := make(map[string]bool)
	countSymbols(node, coreNames, seen)
	return len(seen)
}

// CheckBudget rejects programs whose distinct-symbol count exceeds max.
func CheckBudget(node core.Node, coreNames map[string]bool, max int) *diag.Error {
	if max <= 0 {
		return nil
	}
	count := CountSymbols(node, coreNames)
	if count > max {
		return diag.Newf(diag.SymbolLimitExceeded,
			"program uses %d distinct symbols, limit is %d", count, max).
			With("count", count).With("limit", max)
	}
	return nil
}

func countSymbols(node core.Node, coreNames, seen map[string]bool) {
	note := func(name string) {
		if !coreNames[name] {
			seen[name] = true
		}
	}
	noteKeyword := func(name string) {
		seen[":"+name] = true
	}

	switch n := node.(type) {
	case core.Keyword:
		noteKeyword(n.Name)
	case core.Var:
		note(n.Name)
	case core.Data:
		note(n.Name)
	case core.Def:
		note(n.Name)
		countSymbols(n.Value, coreNames, seen)
	case core.MemoryGet:
		countSymbols(n.Key, coreNames, seen)
	case core.MemoryPut:
		countSymbols(n.Key, coreNames, seen)
		countSymbols(n.Value, coreNames, seen)
	case core.VectorLit:
		for _, item := range n.Items {
			countSymbols(item, coreNames, seen)
		}
	case core.SetLit:
		for _, item := range n.Items {
			countSymbols(item, coreNames, seen)
		}
	case core.MapLit:
		for _, pair := range n.Pairs {
			countSymbols(pair.Key, coreNames, seen)
			countSymbols(pair.Value, coreNames, seen)
		}
	case core.If:
		countSymbols(n.Cond, coreNames, seen)
		countSymbols(n.Then, coreNames, seen)
		if n.Else != nil {
			countSymbols(n.Else, coreNames, seen)
		}
	case core.Do:
		for _, e := range n.Exprs {
			countSymbols(e, coreNames, seen)
		}
	case core.And:
		for _, e := range n.Exprs {
			countSymbols(e, coreNames, seen)
		}
	case core.Or:
		for _, e := range n.Exprs {
			countSymbols(e, coreNames, seen)
		}
	case core.Let:
		countBindings(n.Bindings, coreNames, seen)
		for _, e := range n.Body {
			countSymbols(e, coreNames, seen)
		}
	case core.Loop:
		countBindings(n.Bindings, coreNames, seen)
		for _, e := range n.Body {
			countSymbols(e, coreNames, seen)
		}
	case core.Recur:
		for _, e := range n.Args {
			countSymbols(e, coreNames, seen)
		}
	case core.Fn:
		for _, p := range n.Params {
			countPattern(p, coreNames, seen)
		}
		if n.Variadic != nil {
			countPattern(n.Variadic, coreNames, seen)
		}
		for _, e := range n.Body {
			countSymbols(e, coreNames, seen)
		}
	case core.Call:
		countSymbols(n.Fn, coreNames, seen)
		for _, e := range n.Args {
			countSymbols(e, coreNames, seen)
		}
	case core.CallTool:
		note(n.Name)
		if n.Arg != nil {
			countSymbols(n.Arg, coreNames, seen)
		}
	case core.Task:
		countSymbols(n.ID, coreNames, seen)
		for _, e := range n.Body {
			countSymbols(e, coreNames, seen)
		}
	case core.StepDone:
		countSymbols(n.ID, coreNames, seen)
		countSymbols(n.Text, coreNames, seen)
	case core.TaskReset:
		countSymbols(n.ID, coreNames, seen)
	case core.Pmap:
		countSymbols(n.Fn, coreNames, seen)
		countSymbols(n.Coll, coreNames, seen)
	case core.Pcalls:
		for _, e := range n.Thunks {
			countSymbols(e, coreNames, seen)
		}
	case core.Juxt:
		for _, e := range n.Fns {
			countSymbols(e, coreNames, seen)
		}
	case core.Where:
		for _, key := range n.Path {
			noteKeyword(key)
		}
		if n.Value != nil {
			countSymbols(n.Value, coreNames, seen)
		}
	case core.PredComb:
		for _, e := range n.Preds {
			countSymbols(e, coreNames, seen)
		}
	case core.Return:
		countSymbols(n.Expr, coreNames, seen)
	case core.Fail:
		countSymbols(n.Expr, coreNames, seen)
	}
}

func countBindings(bindings []core.Binding, coreNames, seen map[string]bool) {
	for _, b := range bindings {
		countPattern(b.Pattern, coreNames, seen)
		countSymbols(b.Value, coreNames, seen)
	}
}

func countPattern(pat core.Pattern, coreNames, seen map[string]bool) {
	for _, name := range core.BoundNames(pat) {
		if !coreNames[name] {
			seen[name] = true
		}
	}
	if mp, ok := pat.(core.MapPat); ok {
		for _, def := range mp.Defaults {
			countSymbols(def.Value, coreNames, seen)
		}
	}
	if as, ok := pat.(core.AsPat); ok {
		countPattern(as.Inner, coreNames, seen)
	}
}
