package evaluator

func init() {
	register("nil?", typePred(func(o Object) bool { _, ok := o.(*Nil); return ok }))
	register("some?", typePred(func(o Object) bool { _, ok := o.(*Nil); return !ok }))
	register("true?", typePred(func(o Object) bool { b, ok := o.(*Boolean); return ok && b.Value }))
	register("false?", typePred(func(o Object) bool { b, ok := o.(*Boolean); return ok && !b.Value }))
	register("boolean?", typePred(func(o Object) bool { _, ok := o.(*Boolean); return ok }))
	register("number?", typePred(func(o Object) bool {
		_, ok := numberOf(o)
		return ok
	}))
	register("int?", typePred(func(o Object) bool { _, ok := o.(*Integer); return ok }))
	register("float?", typePred(func(o Object) bool { _, ok := o.(*Float); return ok }))
	register("string?", typePred(func(o Object) bool { _, ok := o.(*String); return ok }))
	register("keyword?", typePred(func(o Object) bool { _, ok := o.(*Keyword); return ok }))
	register("map?", typePred(func(o Object) bool { _, ok := o.(*Map); return ok }))
	register("vector?", typePred(func(o Object) bool { _, ok := o.(*Vector); return ok }))
	register("set?", typePred(func(o Object) bool { _, ok := o.(*Set); return ok }))
	register("fn?", typePred(func(o Object) bool {
		switch o.(type) {
		case *Function, *Builtin, *WherePred, *JuxtFn, *PredCombFn:
			return true
		}
		return false
	}))
	register("empty?", Fixed{N: 1, Fn: builtinEmpty})
	register("zero?", typePred(func(o Object) bool {
		n, ok := numberOf(o)
		return ok && n.asFloat() == 0
	}))
	register("pos?", typePred(func(o Object) bool {
		n, ok := numberOf(o)
		return ok && n.asFloat() > 0
	}))
	register("neg?", typePred(func(o Object) bool {
		n, ok := numberOf(o)
		return ok && n.asFloat() < 0
	}))
	register("even?", intPred(func(i int64) bool { return i%2 == 0 }))
	register("odd?", intPred(func(i int64) bool { return i%2 != 0 }))

	register("identity", Fixed{N: 1, Fn: func(_ *Evaluator, args []Object) Object {
		return args[0]
	}})
	register("fnil", Fixed{N: 2, Fn: builtinFnil})
	register("juxt", VariadicNonempty{Fn: func(_ *Evaluator, args []Object) Object {
		fns := make([]Object, len(args))
		copy(fns, args)
		return &JuxtFn{Fns: fns}
	}})
}

func typePred(pred func(Object) bool) Fixed {
	return Fixed{N: 1, Fn: func(_ *Evaluator, args []Object) Object {
		return boolValue(pred(args[0]))
	}}
}

func intPred(pred func(int64) bool) Fixed {
	return Fixed{N: 1, Fn: func(_ *Evaluator, args []Object) Object {
		i, err := requireInt("even?/odd?", args[0])
		if err != nil {
			return err
		}
		return boolValue(pred(i))
	}}
}

func builtinEmpty(_ *Evaluator, args []Object) Object {
	switch o := args[0].(type) {
	case *Nil:
		return TrueValue
	case *Vector:
		return boolValue(len(o.Items) == 0)
	case *Map:
		return boolValue(o.Len() == 0)
	case *Set:
		return boolValue(o.Len() == 0)
	case *String:
		return boolValue(len(o.Value) == 0)
	}
	return typeErrorf("(empty?): expected a collection or string, got %s", typeName(args[0]))
}

// builtinFnil wraps a function so a nil first argument is replaced by the
// supplied default before the call.
func builtinFnil(_ *Evaluator, args []Object) Object {
	fn := args[0]
	def := args[1]
	if err := requireCallable("fnil", fn); err != nil {
		return err
	}
	return &Builtin{
		Name: "fnil",
		Spec: VariadicNonempty{Fn: func(e *Evaluator, inner []Object) Object {
			patched := make([]Object, len(inner))
			copy(patched, inner)
			if _, isNil := patched[0].(*Nil); isNil {
				patched[0] = def
			}
			return e.Apply(fn, patched)
		}},
	}
}
