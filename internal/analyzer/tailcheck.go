package analyzer

import (
	"github.com/andreasronge/ptclisp/internal/core"
	"github.com/andreasronge/ptclisp/internal/diag"
)

// recurPoint is a recursion target established by loop or fn.
type recurPoint struct {
	arity int
}

// checkRecur verifies that every recur sits in tail position of its
// enclosing recursion point and matches its binding count. This runs once
// over the finished core AST, after all desugaring.
func checkRecur(node core.Node) *diag.Error {
	return walkTail(node, nil, true)
}

func walkTail(node core.Node, point *recurPoint, tail bool) *diag.Error {
	switch n := node.(type) {
	case core.Recur:
		if point == nil || !tail {
			return diag.New(diag.InvalidForm, "(recur) is only allowed in tail position of loop or fn")
		}
		if len(n.Args) != point.arity {
			return diag.Newf(diag.InvalidArity,
				"(recur): expected %d arguments to match the recursion point, got %d",
				point.arity, len(n.Args))
		}
		return walkAll(n.Args, point)
	case core.If:
		if err := walkTail(n.Cond, point, false); err != nil {
			return err
		}
		if err := walkTail(n.Then, point, tail); err != nil {
			return err
		}
		if n.Else != nil {
			return walkTail(n.Else, point, tail)
		}
		return nil
	case core.Do:
		return walkBody(n.Exprs, point, tail)
	case core.Let:
		for _, b := range n.Bindings {
			if err := walkTail(b.Value, point, false); err != nil {
				return err
			}
			if err := walkDefaults(b.Pattern, point); err != nil {
				return err
			}
		}
		return walkBody(n.Body, point, tail)
	case core.Loop:
		for _, b := range n.Bindings {
			if err := walkTail(b.Value, point, false); err != nil {
				return err
			}
			if err := walkDefaults(b.Pattern, point); err != nil {
				return err
			}
		}
		inner := &recurPoint{arity: len(n.Bindings)}
		return walkBody(n.Body, inner, true)
	case core.Fn:
		arity := len(n.Params)
		if n.Variadic != nil {
			arity++
		}
		inner := &recurPoint{arity: arity}
		return walkBody(n.Body, inner, true)
	case core.And:
		return walkAll(n.Exprs, point)
	case core.Or:
		return walkAll(n.Exprs, point)
	case core.Def:
		return walkTail(n.Value, point, false)
	case core.Call:
		if err := walkTail(n.Fn, point, false); err != nil {
			return err
		}
		return walkAll(n.Args, point)
	case core.VectorLit:
		return walkAll(n.Items, point)
	case core.SetLit:
		return walkAll(n.Items, point)
	case core.MapLit:
		for _, pair := range n.Pairs {
			if err := walkTail(pair.Key, point, false); err != nil {
				return err
			}
			if err := walkTail(pair.Value, point, false); err != nil {
				return err
			}
		}
		return nil
	case core.CallTool:
		if n.Arg != nil {
			return walkTail(n.Arg, point, false)
		}
		return nil
	case core.Task:
		if err := walkTail(n.ID, point, false); err != nil {
			return err
		}
		return walkAll(n.Body, nil)
	case core.StepDone:
		if err := walkTail(n.ID, point, false); err != nil {
			return err
		}
		return walkTail(n.Text, point, false)
	case core.TaskReset:
		return walkTail(n.ID, point, false)
	case core.MemoryGet:
		return walkTail(n.Key, point, false)
	case core.MemoryPut:
		if err := walkTail(n.Key, point, false); err != nil {
			return err
		}
		return walkTail(n.Value, point, false)
	case core.Pmap:
		if err := walkTail(n.Fn, point, false); err != nil {
			return err
		}
		return walkTail(n.Coll, point, false)
	case core.Pcalls:
		return walkAll(n.Thunks, point)
	case core.Juxt:
		return walkAll(n.Fns, point)
	case core.Where:
		if n.Value != nil {
			return walkTail(n.Value, point, false)
		}
		return nil
	case core.PredComb:
		return walkAll(n.Preds, point)
	case core.Return:
		return walkTail(n.Expr, point, false)
	case core.Fail:
		return walkTail(n.Expr, point, false)
	}
	return nil
}

func walkBody(body []core.Node, point *recurPoint, tail bool) *diag.Error {
	for i, expr := range body {
		exprTail := tail && i == len(body)-1
		if err := walkTail(expr, point, exprTail); err != nil {
			return err
		}
	}
	return nil
}

func walkAll(nodes []core.Node, point *recurPoint) *diag.Error {
	for _, n := range nodes {
		if err := walkTail(n, point, false); err != nil {
			return err
		}
	}
	return nil
}

func walkDefaults(pat core.Pattern, point *recurPoint) *diag.Error {
	switch p := pat.(type) {
	case core.MapPat:
		for _, def := range p.Defaults {
			if err := walkTail(def.Value, point, false); err != nil {
				return err
			}
		}
	case core.AsPat:
		return walkDefaults(p.Inner, point)
	case core.SeqPat:
		for _, item := range p.Items {
			if err := walkDefaults(item, point); err != nil {
				return err
			}
		}
	case core.SeqRestPat:
		for _, item := range p.Items {
			if err := walkDefaults(item, point); err != nil {
				return err
			}
		}
		return walkDefaults(p.Rest, point)
	}
	return nil
}
