package evaluator

import (
	"context"
	"errors"

	"github.com/andreasronge/ptclisp/internal/config"
	"github.com/andreasronge/ptclisp/internal/core"
	"github.com/andreasronge/ptclisp/internal/diag"
)

// Evaluator walks the core AST, threading the run's EvalContext. Every
// Eval call returns either a plain value or an in-band signal (error,
// return/fail sentinel, recur).
type Evaluator struct {
	Ctx      *RunContext
	builtins map[string]*Builtin

	steps int
}

func New(rc *RunContext) *Evaluator {
	return &Evaluator{Ctx: rc, builtins: builtinCatalog}
}

// LookupBuiltin exposes catalog entries for the shadow check and apply.
func (e *Evaluator) LookupBuiltin(name string) (*Builtin, bool) {
	b, ok := e.builtins[name]
	return b, ok
}

func (e *Evaluator) Eval(node core.Node, env *Environment) Object {
	e.steps++
	if e.steps%config.EvalCheckInterval == 0 {
		if err := e.checkCancelled(); err != nil {
			return err
		}
	}

	switch n := node.(type) {
	case core.Nil:
		return NilValue
	case core.Bool:
		return boolValue(n.Value)
	case core.Int:
		return &Integer{Value: n.Value}
	case core.Float:
		return &Float{Value: n.Value}
	case core.Str:
		return &String{Value: n.Value}
	case core.Keyword:
		return &Keyword{Name: n.Name}

	case core.Var:
		return e.resolveVar(n.Name, env)
	case core.Data:
		if val, ok := e.Ctx.ContextData.GetFlex(&Keyword{Name: n.Name}); ok {
			return val
		}
		return NilValue
	case core.MemoryGet:
		return e.evalMemoryGet(n, env)
	case core.MemoryPut:
		return e.evalMemoryPut(n, env)
	case core.TurnRegister:
		if n.Index <= len(e.Ctx.TurnHistory) {
			return e.Ctx.TurnHistory[n.Index-1]
		}
		return NilValue
	case core.BudgetRemaining:
		if e.Ctx.Budget == nil {
			return NilValue
		}
		return e.Ctx.Budget
	case core.TurnHistory:
		items := make([]Object, len(e.Ctx.TurnHistory))
		copy(items, e.Ctx.TurnHistory)
		return &Vector{Items: items}

	case core.VectorLit:
		items := make([]Object, 0, len(n.Items))
		for _, item := range n.Items {
			val := e.Eval(item, env)
			if isAbort(val) {
				return val
			}
			items = append(items, val)
		}
		return &Vector{Items: items}
	case core.MapLit:
		m := NewMap()
		for _, pair := range n.Pairs {
			k := e.Eval(pair.Key, env)
			if isAbort(k) {
				return k
			}
			v := e.Eval(pair.Value, env)
			if isAbort(v) {
				return v
			}
			// Duplicate literal keys: the later entry wins.
			m.Set(k, v)
		}
		return m
	case core.SetLit:
		s := NewSet()
		for _, item := range n.Items {
			val := e.Eval(item, env)
			if isAbort(val) {
				return val
			}
			s.Add(val)
		}
		return s

	case core.If:
		cond := e.Eval(n.Cond, env)
		if isAbort(cond) {
			return cond
		}
		if isTruthy(cond) {
			return e.Eval(n.Then, env)
		}
		if n.Else != nil {
			return e.Eval(n.Else, env)
		}
		return NilValue
	case core.Do:
		return e.evalBody(n.Exprs, env)
	case core.And:
		var last Object = TrueValue
		for _, expr := range n.Exprs {
			last = e.Eval(expr, env)
			if isAbort(last) {
				return last
			}
			if !isTruthy(last) {
				return last
			}
		}
		return last
	case core.Or:
		var last Object = NilValue
		for _, expr := range n.Exprs {
			last = e.Eval(expr, env)
			if isAbort(last) {
				return last
			}
			if isTruthy(last) {
				return last
			}
		}
		return last

	case core.Let:
		inner := NewEnclosedEnvironment(env)
		for _, b := range n.Bindings {
			val := e.Eval(b.Value, inner)
			if isAbort(val) {
				return val
			}
			if err := e.match(b.Pattern, val, inner); err != nil {
				return err
			}
		}
		return e.evalBody(n.Body, inner)
	case core.Loop:
		return e.evalLoop(n, env)
	case core.Recur:
		args := make([]Object, 0, len(n.Args))
		for _, arg := range n.Args {
			val := e.Eval(arg, env)
			if isAbort(val) {
				return val
			}
			args = append(args, val)
		}
		return &RecurSignal{Args: args}

	case core.Fn:
		history := make([]Object, len(e.Ctx.TurnHistory))
		copy(history, e.Ctx.TurnHistory)
		return &Function{
			Params:      n.Params,
			Variadic:    n.Variadic,
			Body:        n.Body,
			Env:         env.Snapshot(),
			TurnHistory: history,
			Doc:         n.Doc,
		}
	case core.Def:
		if _, ok := e.builtins[n.Name]; ok {
			return newError(diag.CannotShadowBuiltin,
				"cannot redefine built-in %q", n.Name)
		}
		val := e.Eval(n.Value, env)
		if isAbort(val) {
			return val
		}
		e.Ctx.UserNS.Set(n.Name, val)
		return &Var{Name: n.Name}

	case core.Call:
		fn := e.Eval(n.Fn, env)
		if isAbort(fn) {
			return fn
		}
		args := make([]Object, 0, len(n.Args))
		for _, arg := range n.Args {
			val := e.Eval(arg, env)
			if isAbort(val) {
				return val
			}
			args = append(args, val)
		}
		return e.Apply(fn, args)

	case core.CallTool:
		return e.evalToolCall(n, env)
	case core.Task:
		return e.evalTask(n, env)
	case core.StepDone:
		return e.evalStepDone(n, env)
	case core.TaskReset:
		id := e.Eval(n.ID, env)
		if isAbort(id) {
			return id
		}
		e.Ctx.Journal.Reset(plainString(id))
		return NilValue

	case core.Pmap:
		return e.evalPmap(n, env)
	case core.Pcalls:
		return e.evalPcalls(n, env)

	case core.Juxt:
		fns := make([]Object, 0, len(n.Fns))
		for _, f := range n.Fns {
			val := e.Eval(f, env)
			if isAbort(val) {
				return val
			}
			fns = append(fns, val)
		}
		return &JuxtFn{Fns: fns}
	case core.Where:
		var val Object
		if n.Value != nil {
			val = e.Eval(n.Value, env)
			if isAbort(val) {
				return val
			}
		}
		return &WherePred{Path: n.Path, Op: n.Op, Value: val}
	case core.PredComb:
		preds := make([]Object, 0, len(n.Preds))
		for _, p := range n.Preds {
			val := e.Eval(p, env)
			if isAbort(val) {
				return val
			}
			preds = append(preds, val)
		}
		return &PredCombFn{Kind: n.Kind, Preds: preds}

	case core.Return:
		val := e.Eval(n.Expr, env)
		if isAbort(val) {
			return val
		}
		return &ReturnSignal{Value: val}
	case core.Fail:
		val := e.Eval(n.Expr, env)
		if isAbort(val) {
			return val
		}
		return &FailSignal{Value: val}
	}

	return newError(diag.InvalidForm, "unknown core form %T", node)
}

func (e *Evaluator) evalBody(body []core.Node, env *Environment) Object {
	var last Object = NilValue
	for _, expr := range body {
		last = e.Eval(expr, env)
		if isAbort(last) {
			return last
		}
	}
	return last
}

// resolveVar implements the resolution precedence: local lexical env,
// then the user namespace, then builtins. Placeholders outside #() are
// rejected statically by the analyzer, so anything left over is unbound.
func (e *Evaluator) resolveVar(name string, env *Environment) Object {
	if val, ok := env.Get(name); ok {
		return val
	}
	if val, ok := e.Ctx.UserNS.Get(name); ok {
		return val
	}
	if b, ok := e.builtins[name]; ok {
		return b
	}
	return newError(diag.UnboundVar, "unbound symbol %q", name)
}

func (e *Evaluator) evalMemoryGet(n core.MemoryGet, env *Environment) Object {
	key := e.Eval(n.Key, env)
	if isAbort(key) {
		return key
	}
	name, ok := bindingName(key)
	if !ok {
		return typeErrorf("(memory/get): key must be a keyword or string, got %s", typeName(key))
	}
	if val, found := e.Ctx.UserNS.Get(name); found {
		return val
	}
	return NilValue
}

func (e *Evaluator) evalMemoryPut(n core.MemoryPut, env *Environment) Object {
	key := e.Eval(n.Key, env)
	if isAbort(key) {
		return key
	}
	name, ok := bindingName(key)
	if !ok {
		return typeErrorf("(memory/put): key must be a keyword or string, got %s", typeName(key))
	}
	if _, isBuiltin := e.builtins[name]; isBuiltin {
		return newError(diag.CannotShadowBuiltin, "cannot redefine built-in %q", name)
	}
	val := e.Eval(n.Value, env)
	if isAbort(val) {
		return val
	}
	e.Ctx.UserNS.Set(name, val)
	return val
}

func (e *Evaluator) evalLoop(n core.Loop, env *Environment) Object {
	inner := NewEnclosedEnvironment(env)
	for _, b := range n.Bindings {
		val := e.Eval(b.Value, inner)
		if isAbort(val) {
			return val
		}
		if err := e.match(b.Pattern, val, inner); err != nil {
			return err
		}
	}

	iterations := 0
	for {
		result := e.evalBody(n.Body, inner)
		recur, ok := result.(*RecurSignal)
		if !ok {
			return result
		}
		iterations++
		if iterations >= e.Ctx.LoopLimit {
			return newError(diag.LoopLimitExceeded,
				"(loop) exceeded %d iterations", e.Ctx.LoopLimit)
		}
		// Rebind in a fresh frame so closures over earlier iterations
		// keep their captured values.
		inner = NewEnclosedEnvironment(env)
		for i, b := range n.Bindings {
			if err := e.match(b.Pattern, recur.Args[i], inner); err != nil {
				return err
			}
		}
	}
}

func (e *Evaluator) evalStepDone(n core.StepDone, env *Environment) Object {
	id := e.Eval(n.ID, env)
	if isAbort(id) {
		return id
	}
	text := e.Eval(n.Text, env)
	if isAbort(text) {
		return text
	}
	e.Ctx.Summaries[plainString(id)] = plainString(text)
	return NilValue
}

func (e *Evaluator) evalTask(n core.Task, env *Environment) Object {
	idVal := e.Eval(n.ID, env)
	if isAbort(idVal) {
		return idVal
	}
	id := plainString(idVal)

	if cached, ok := e.Ctx.Journal.Get(id); ok {
		return cached
	}

	result := e.evalBody(n.Body, env)
	switch result.(type) {
	case *Error, *FailSignal, *ReturnSignal, *RecurSignal:
		// Only successful completion commits to the journal.
		return result
	}
	e.Ctx.Journal.Commit(id, result)
	return result
}

// checkCancelled converts context cancellation into the taxonomy error
// recorded as the cancellation cause (timeout or memory_exceeded).
func (e *Evaluator) checkCancelled() *Error {
	ctx := e.Ctx.Context
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
	default:
		return nil
	}
	cause := context.Cause(ctx)
	var derr *diag.Error
	if errors.As(cause, &derr) {
		return &Error{Reason: derr.Reason, Message: derr.Message}
	}
	return newError(diag.Timeout, "evaluation exceeded the configured wall-clock cap")
}

// bindingName accepts the key shapes memory/get and memory/put allow.
func bindingName(obj Object) (string, bool) {
	switch o := obj.(type) {
	case *Keyword:
		return o.Name, true
	case *String:
		return o.Value, true
	}
	return "", false
}

// plainString renders a value the way str does: strings verbatim,
// everything else in its printed notation.
func plainString(obj Object) string {
	if s, ok := obj.(*String); ok {
		return s.Value
	}
	return obj.Inspect()
}
