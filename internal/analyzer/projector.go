package analyzer

import (
	"github.com/andreasronge/ptclisp/internal/core"
)

// RequiredDataKeys returns every distinct context key the program reads
// via ctx/name or data/name, in first-seen order. The caller uses this to
// strip unreferenced large values from the context before evaluation.
func RequiredDataKeys(node core.Node) []string {
	var keys []string
	seen := make(map[string]bool)
	collectDataKeys(node, seen, &keys)
	return keys
}

func collectDataKeys(node core.Node, seen map[string]bool, out *[]string) {
	visit := func(name string) {
		if !seen[name] {
			seen[name] = true
			*out = append(*out, name)
		}
	}

	switch n := node.(type) {
	case core.Data:
		visit(n.Name)
	case core.MemoryGet:
		collectDataKeys(n.Key, seen, out)
	case core.MemoryPut:
		collectDataKeys(n.Key, seen, out)
		collectDataKeys(n.Value, seen, out)
	case core.VectorLit:
		for _, item := range n.Items {
			collectDataKeys(item, seen, out)
		}
	case core.SetLit:
		for _, item := range n.Items {
			collectDataKeys(item, seen, out)
		}
	case core.MapLit:
		for _, pair := range n.Pairs {
			collectDataKeys(pair.Key, seen, out)
			collectDataKeys(pair.Value, seen, out)
		}
	case core.If:
		collectDataKeys(n.Cond, seen, out)
		collectDataKeys(n.Then, seen, out)
		if n.Else != nil {
			collectDataKeys(n.Else, seen, out)
		}
	case core.Do:
		for _, e := range n.Exprs {
			collectDataKeys(e, seen, out)
		}
	case core.And:
		for _, e := range n.Exprs {
			collectDataKeys(e, seen, out)
		}
	case core.Or:
		for _, e := range n.Exprs {
			collectDataKeys(e, seen, out)
		}
	case core.Let:
		for _, b := range n.Bindings {
			collectDataKeys(b.Value, seen, out)
			collectPatternKeys(b.Pattern, seen, out)
		}
		for _, e := range n.Body {
			collectDataKeys(e, seen, out)
		}
	case core.Loop:
		for _, b := range n.Bindings {
			collectDataKeys(b.Value, seen, out)
			collectPatternKeys(b.Pattern, seen, out)
		}
		for _, e := range n.Body {
			collectDataKeys(e, seen, out)
		}
	case core.Recur:
		for _, e := range n.Args {
			collectDataKeys(e, seen, out)
		}
	case core.Fn:
		for _, e := range n.Body {
			collectDataKeys(e, seen, out)
		}
	case core.Def:
		collectDataKeys(n.Value, seen, out)
	case core.Call:
		collectDataKeys(n.Fn, seen, out)
		for _, e := range n.Args {
			collectDataKeys(e, seen, out)
		}
	case core.CallTool:
		if n.Arg != nil {
			collectDataKeys(n.Arg, seen, out)
		}
	case core.Task:
		collectDataKeys(n.ID, seen, out)
		for _, e := range n.Body {
			collectDataKeys(e, seen, out)
		}
	case core.StepDone:
		collectDataKeys(n.ID, seen, out)
		collectDataKeys(n.Text, seen, out)
	case core.TaskReset:
		collectDataKeys(n.ID, seen, out)
	case core.Pmap:
		collectDataKeys(n.Fn, seen, out)
		collectDataKeys(n.Coll, seen, out)
	case core.Pcalls:
		for _, e := range n.Thunks {
			collectDataKeys(e, seen, out)
		}
	case core.Juxt:
		for _, e := range n.Fns {
			collectDataKeys(e, seen, out)
		}
	case core.Where:
		if n.Value != nil {
			collectDataKeys(n.Value, seen, out)
		}
	case core.PredComb:
		for _, e := range n.Preds {
			collectDataKeys(e, seen, out)
		}
	case core.Return:
		collectDataKeys(n.Expr, seen, out)
	case core.Fail:
		collectDataKeys(n.Expr, seen, out)
	}
}

func collectPatternKeys(pat core.Pattern, seen map[string]bool, out *[]string) {
	switch p := pat.(type) {
	case core.MapPat:
		for _, def := range p.Defaults {
			collectDataKeys(def.Value, seen, out)
		}
	case core.AsPat:
		collectPatternKeys(p.Inner, seen, out)
	case core.SeqPat:
		for _, item := range p.Items {
			collectPatternKeys(item, seen, out)
		}
	case core.SeqRestPat:
		for _, item := range p.Items {
			collectPatternKeys(item, seen, out)
		}
		collectPatternKeys(p.Rest, seen, out)
	}
}
