package evaluator

func init() {
	register("sum-by", Fixed{N: 2, Fn: builtinSumBy})
	register("avg-by", Fixed{N: 2, Fn: builtinAvgBy})
	register("min-by", Fixed{N: 2, Fn: builtinMinBy})
	register("max-by", Fixed{N: 2, Fn: builtinMaxBy})
	register("group-by", Fixed{N: 2, Fn: builtinGroupBy})
	register("pluck", Fixed{N: 2, Fn: builtinPluck})
}

func aggregateKeys(e *Evaluator, name string, keyfn Object, coll Object) ([]Object, []Object, *Error) {
	if err := requireCallable(name, keyfn); err != nil {
		return nil, nil, err
	}
	items, err := requireSequence(name, coll)
	if err != nil {
		return nil, nil, err
	}
	keys := make([]Object, len(items))
	for i, item := range items {
		k := e.call1(keyfn, item)
		if abortErr, ok := k.(*Error); ok {
			return nil, nil, abortErr
		}
		if isAbort(k) {
			return nil, nil, typeErrorf("(%s): key function aborted", name)
		}
		keys[i] = k
	}
	return items, keys, nil
}

func builtinSumBy(e *Evaluator, args []Object) Object {
	_, keys, err := aggregateKeys(e, "sum-by", args[0], args[1])
	if err != nil {
		return err
	}
	acc := number{}
	for _, k := range keys {
		n, ok := numberOf(k)
		if !ok {
			// nil fields contribute nothing; other shapes are errors.
			if _, isNil := k.(*Nil); isNil {
				continue
			}
			return typeErrorf("(sum-by): field value is %s, expected a number", typeName(k))
		}
		acc = addNumbers(acc, n)
	}
	return acc.toObject()
}

func builtinAvgBy(e *Evaluator, args []Object) Object {
	items, keys, err := aggregateKeys(e, "avg-by", args[0], args[1])
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return NilValue
	}
	sum := 0.0
	count := 0
	for _, k := range keys {
		n, ok := numberOf(k)
		if !ok {
			if _, isNil := k.(*Nil); isNil {
				continue
			}
			return typeErrorf("(avg-by): field value is %s, expected a number", typeName(k))
		}
		sum += n.asFloat()
		count++
	}
	if count == 0 {
		return NilValue
	}
	return &Float{Value: sum / float64(count)}
}

func builtinMinBy(e *Evaluator, args []Object) Object {
	return pickBy(e, "min-by", args, -1)
}

func builtinMaxBy(e *Evaluator, args []Object) Object {
	return pickBy(e, "max-by", args, 1)
}

// pickBy returns the element whose key compares best; nil keys are
// skipped, an empty collection yields nil.
func pickBy(e *Evaluator, name string, args []Object, want int) Object {
	items, keys, err := aggregateKeys(e, name, args[0], args[1])
	if err != nil {
		return err
	}
	var best Object
	var bestKey Object
	for i, item := range items {
		if _, isNil := keys[i].(*Nil); isNil {
			continue
		}
		if best == nil || compareValues(keys[i], bestKey) == want {
			best = item
			bestKey = keys[i]
		}
	}
	if best == nil {
		return NilValue
	}
	return best
}

func builtinGroupBy(e *Evaluator, args []Object) Object {
	items, keys, err := aggregateKeys(e, "group-by", args[0], args[1])
	if err != nil {
		return err
	}
	out := NewMap()
	for i, item := range items {
		key := keys[i]
		var group *Vector
		if existing, ok := out.Get(key); ok {
			group = existing.(*Vector)
		} else {
			group = &Vector{}
			out.Set(key, group)
		}
		group.Items = append(group.Items, item)
		out.Set(key, group)
	}
	return out
}

// builtinPluck maps a flex key lookup over the collection.
func builtinPluck(e *Evaluator, args []Object) Object {
	items, err := requireSequence("pluck", args[1])
	if err != nil {
		return err
	}
	out := make([]Object, 0, len(items))
	for _, item := range items {
		val := builtinGet(e, []Object{item, args[0]})
		if isAbort(val) {
			return val
		}
		out = append(out, val)
	}
	return &Vector{Items: out}
}
