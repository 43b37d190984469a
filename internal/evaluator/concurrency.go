package evaluator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/andreasronge/ptclisp/internal/core"
	"github.com/andreasronge/ptclisp/internal/diag"
)

// workerAbort wraps the first in-band signal a parallel worker produced,
// so errgroup can carry it back through its error channel.
type workerAbort struct{ signal Object }

func (w *workerAbort) Error() string { return w.signal.Inspect() }

// evalPmap maps each element of coll through f on independent workers.
// Results come back in input order; any worker failure fails the whole
// operation atomically. Worker prints, tool-call logs, and namespace
// writes are discarded.
func (e *Evaluator) evalPmap(n core.Pmap, env *Environment) Object {
	fn := e.Eval(n.Fn, env)
	if isAbort(fn) {
		return fn
	}
	collVal := e.Eval(n.Coll, env)
	if isAbort(collVal) {
		return collVal
	}
	items, ok := asSequence(collVal)
	if !ok {
		return typeErrorf("(pmap): expected a sequence, got %s", typeName(collVal))
	}

	thunks := make([]func(e *Evaluator) Object, len(items))
	for i := range items {
		item := items[i]
		thunks[i] = func(we *Evaluator) Object { return we.Apply(fn, []Object{item}) }
	}
	return e.runParallel(thunks)
}

// evalPcalls evaluates zero-arity thunks in parallel, collecting results
// in argument order.
func (e *Evaluator) evalPcalls(n core.Pcalls, env *Environment) Object {
	fns := make([]Object, len(n.Thunks))
	for i, thunk := range n.Thunks {
		val := e.Eval(thunk, env)
		if isAbort(val) {
			return val
		}
		fns[i] = val
	}
	thunks := make([]func(e *Evaluator) Object, len(fns))
	for i := range fns {
		fn := fns[i]
		thunks[i] = func(we *Evaluator) Object { return we.Apply(fn, nil) }
	}
	return e.runParallel(thunks)
}

func (e *Evaluator) runParallel(thunks []func(e *Evaluator) Object) Object {
	if len(thunks) == 0 {
		return &Vector{}
	}

	parent := e.Ctx.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx := parent
	cancel := context.CancelFunc(func() {})
	if e.Ctx.PmapTimeout > 0 {
		ctx, cancel = context.WithTimeout(parent, e.Ctx.PmapTimeout)
	}
	defer cancel()

	results := make([]Object, len(thunks))
	g, gctx := errgroup.WithContext(ctx)
	for i := range thunks {
		i := i
		g.Go(func() error {
			worker := New(e.Ctx.fork(gctx))
			result := thunks[i](worker)
			if isAbort(result) {
				return &workerAbort{signal: result}
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if abort, ok := err.(*workerAbort); ok {
			return abort.signal
		}
		return newError(diag.Timeout, "parallel section timed out")
	}
	if ctx.Err() != nil {
		return newError(diag.Timeout, "parallel section timed out")
	}
	return &Vector{Items: results}
}
