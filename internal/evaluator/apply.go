package evaluator

import (
	"github.com/andreasronge/ptclisp/internal/diag"
)

// Apply invokes a callable value with already-evaluated arguments.
func (e *Evaluator) Apply(fn Object, args []Object) Object {
	switch f := fn.(type) {
	case *Function:
		return e.applyFunction(f, args)
	case *Builtin:
		return e.applyBuiltin(f, args)
	case *Keyword:
		return applyKeyword(f, args)
	case *Map:
		return applyMapLookup(f, args)
	case *Set:
		return applySetLookup(f, args)
	case *WherePred:
		if len(args) != 1 {
			return newError(diag.ArityError, "(where) predicate takes 1 argument, got %d", len(args))
		}
		return e.applyWhere(f, args[0])
	case *JuxtFn:
		return e.applyJuxt(f, args)
	case *PredCombFn:
		return e.applyPredComb(f, args)
	case *Vector:
		return typeErrorf(
			"a vector is not callable; to select a field use a single keyword, e.g. (filter :status coll)")
	}
	return typeErrorf("%s is not callable", typeName(fn))
}

// applyFunction binds arguments to the closure's parameter patterns and
// runs the body, trampolining recur back to the function head.
func (e *Evaluator) applyFunction(f *Function, args []Object) Object {
	// The closure observes the turn history captured at creation time.
	savedHistory := e.Ctx.TurnHistory
	e.Ctx.TurnHistory = f.TurnHistory
	defer func() { e.Ctx.TurnHistory = savedHistory }()

	if len(args) > len(f.Params) && f.Variadic == nil {
		return newError(diag.ArityMismatch,
			"function takes %d arguments, got %d", len(f.Params), len(args))
	}

	iterations := 0
	for {
		env := NewEnclosedEnvironment(f.Env)
		for i, pat := range f.Params {
			var val Object = NilValue
			if i < len(args) {
				val = args[i]
			}
			if err := e.match(pat, val, env); err != nil {
				return err
			}
		}
		if f.Variadic != nil {
			rest := &Vector{}
			if iterations == 0 {
				if len(args) > len(f.Params) {
					rest.Items = append(rest.Items, args[len(f.Params):]...)
				}
				if err := e.match(f.Variadic, rest, env); err != nil {
					return err
				}
			} else {
				// A recur rebind passes the rest value positionally.
				var val Object = NilValue
				if len(args) > len(f.Params) {
					val = args[len(f.Params)]
				}
				if err := e.match(f.Variadic, val, env); err != nil {
					return err
				}
			}
		}

		result := e.evalBody(f.Body, env)
		recur, ok := result.(*RecurSignal)
		if !ok {
			return result
		}
		iterations++
		if iterations >= e.Ctx.LoopLimit {
			return newError(diag.LoopLimitExceeded,
				"(recur) exceeded %d iterations", e.Ctx.LoopLimit)
		}
		args = recur.Args
	}
}

func (e *Evaluator) applyBuiltin(b *Builtin, args []Object) Object {
	fn, err := b.Spec.dispatch(b.Name, len(args))
	if err != nil {
		return err
	}
	return fn(e, args)
}

func applyKeyword(k *Keyword, args []Object) Object {
	if len(args) < 1 || len(args) > 2 {
		return newError(diag.ArityError, "keyword lookup takes 1 or 2 arguments, got %d", len(args))
	}
	var fallback Object = NilValue
	if len(args) == 2 {
		fallback = args[1]
	}
	m, ok := args[0].(*Map)
	if !ok {
		return fallback
	}
	if val, found := m.GetFlex(k); found {
		return val
	}
	return fallback
}

func applyMapLookup(m *Map, args []Object) Object {
	if len(args) < 1 || len(args) > 2 {
		return newError(diag.ArityError, "map lookup takes 1 or 2 arguments, got %d", len(args))
	}
	if val, found := m.GetFlex(args[0]); found {
		return val
	}
	if len(args) == 2 {
		return args[1]
	}
	return NilValue
}

func applySetLookup(s *Set, args []Object) Object {
	if len(args) != 1 {
		return newError(diag.ArityError, "set lookup takes 1 argument, got %d", len(args))
	}
	if s.Has(args[0]) {
		return args[0]
	}
	return NilValue
}

func (e *Evaluator) applyJuxt(j *JuxtFn, args []Object) Object {
	out := make([]Object, 0, len(j.Fns))
	for _, fn := range j.Fns {
		val := e.Apply(fn, args)
		if isAbort(val) {
			return val
		}
		out = append(out, val)
	}
	return &Vector{Items: out}
}

func (e *Evaluator) applyPredComb(p *PredCombFn, args []Object) Object {
	if len(args) != 1 {
		return newError(diag.ArityError, "(%s) predicate takes 1 argument, got %d", p.Kind, len(args))
	}
	for _, pred := range p.Preds {
		val := e.Apply(pred, args)
		if isAbort(val) {
			return val
		}
		truthy := isTruthy(val)
		switch p.Kind {
		case "all-of":
			if !truthy {
				return FalseValue
			}
		case "any-of":
			if truthy {
				return TrueValue
			}
		case "none-of":
			if truthy {
				return FalseValue
			}
		}
	}
	switch p.Kind {
	case "any-of":
		return FalseValue
	}
	return TrueValue
}

// applyWhere evaluates the normalised field predicate against one item.
func (e *Evaluator) applyWhere(w *WherePred, item Object) Object {
	field := digPath(item, w.Path)

	switch w.Op {
	case "truthy":
		return boolValue(isTruthy(field))
	case "eq":
		return boolValue(flexEqual(field, w.Value))
	case "not_eq":
		return boolValue(!flexEqual(field, w.Value))
	case "gt", "lt", "gte", "lte":
		c, ok := compareNumbers(field, w.Value)
		if !ok {
			return FalseValue
		}
		switch w.Op {
		case "gt":
			return boolValue(c > 0)
		case "lt":
			return boolValue(c < 0)
		case "gte":
			return boolValue(c >= 0)
		default:
			return boolValue(c <= 0)
		}
	case "includes":
		return boolValue(whereIncludes(field, w.Value))
	case "in":
		return boolValue(whereIn(field, w.Value))
	}
	return newError(diag.InvalidWhereOperator, "unknown (where) operator %q", string(w.Op))
}

// digPath walks nested maps with flex keyword/string lookup.
func digPath(value Object, path []string) Object {
	cur := value
	for _, key := range path {
		m, ok := cur.(*Map)
		if !ok {
			return NilValue
		}
		val, found := m.GetFlex(&Keyword{Name: key})
		if !found {
			return NilValue
		}
		cur = val
	}
	return cur
}

func whereIncludes(field, needle Object) bool {
	switch f := field.(type) {
	case *Vector:
		for _, item := range f.Items {
			if flexEqual(item, needle) {
				return true
			}
		}
	case *Set:
		for _, item := range f.Items() {
			if flexEqual(item, needle) {
				return true
			}
		}
	case *String:
		if s, ok := stringish(needle); ok {
			return stringContains(f.Value, s)
		}
	}
	return false
}

func whereIn(field, coll Object) bool {
	switch c := coll.(type) {
	case *Vector:
		for _, item := range c.Items {
			if flexEqual(item, field) {
				return true
			}
		}
	case *Set:
		for _, item := range c.Items() {
			if flexEqual(item, field) {
				return true
			}
		}
	}
	return false
}
