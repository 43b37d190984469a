package evaluator

import (
	"sort"
)

func init() {
	register("count", Fixed{N: 1, Fn: builtinCount})
	register("first", Fixed{N: 1, Fn: builtinFirst})
	register("last", Fixed{N: 1, Fn: builtinLast})
	register("nth", Multi{Arities: map[int]BuiltinFn{2: builtinNth, 3: builtinNth}})
	register("take", Fixed{N: 2, Fn: builtinTake})
	register("drop", Fixed{N: 2, Fn: builtinDrop})
	register("take-while", Fixed{N: 2, Fn: builtinTakeWhile})
	register("drop-while", Fixed{N: 2, Fn: builtinDropWhile})
	register("reverse", Fixed{N: 1, Fn: builtinReverse})
	register("sort", Multi{Arities: map[int]BuiltinFn{1: builtinSort, 2: builtinSort}})
	register("sort-by", Multi{Arities: map[int]BuiltinFn{2: builtinSortBy, 3: builtinSortBy}})
	register("distinct", Fixed{N: 1, Fn: builtinDistinct})
	register("concat", Variadic{Min: 0, Fn: builtinConcat})
	register("flatten", Fixed{N: 1, Fn: builtinFlatten})
	register("conj", VariadicNonempty{Fn: builtinConj})
	register("into", Fixed{N: 2, Fn: builtinInto})
	register("partition", Multi{Arities: map[int]BuiltinFn{2: builtinPartition, 3: builtinPartition}})
	register("partition-by", Fixed{N: 2, Fn: builtinPartitionBy})
	register("range", Multi{Arities: map[int]BuiltinFn{1: builtinRange, 2: builtinRange, 3: builtinRange}})
	register("repeat", Fixed{N: 2, Fn: builtinRepeat})
	register("map", Variadic{Min: 2, Fn: builtinMap})
	register("mapv", Variadic{Min: 2, Fn: builtinMap})
	register("filter", Fixed{N: 2, Fn: builtinFilter})
	register("remove", Fixed{N: 2, Fn: builtinRemove})
	register("find", Fixed{N: 2, Fn: builtinFind})
	register("some", Fixed{N: 2, Fn: builtinSome})
	register("not-any?", Fixed{N: 2, Fn: builtinNotAny})
	register("every?", Fixed{N: 2, Fn: builtinEvery})
	register("reduce", Multi{Arities: map[int]BuiltinFn{2: builtinReduce, 3: builtinReduce}})
	register("combinations", Fixed{N: 2, Fn: builtinCombinations})
}

func builtinCount(_ *Evaluator, args []Object) Object {
	switch o := args[0].(type) {
	case *Nil:
		return &Integer{Value: 0}
	case *Vector:
		return &Integer{Value: int64(len(o.Items))}
	case *Map:
		return &Integer{Value: int64(o.Len())}
	case *Set:
		return &Integer{Value: int64(o.Len())}
	case *String:
		return &Integer{Value: int64(len([]rune(o.Value)))}
	}
	return typeErrorf("(count): expected a collection or string, got %s", typeName(args[0]))
}

func builtinFirst(_ *Evaluator, args []Object) Object {
	items, err := requireSequence("first", args[0])
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return NilValue
	}
	return items[0]
}

func builtinLast(_ *Evaluator, args []Object) Object {
	items, err := requireSequence("last", args[0])
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return NilValue
	}
	return items[len(items)-1]
}

func builtinNth(_ *Evaluator, args []Object) Object {
	items, err := requireSequence("nth", args[0])
	if err != nil {
		return err
	}
	idx, err := requireInt("nth", args[1])
	if err != nil {
		return err
	}
	if idx >= 0 && idx < int64(len(items)) {
		return items[idx]
	}
	if len(args) == 3 {
		return args[2]
	}
	return NilValue
}

func builtinTake(_ *Evaluator, args []Object) Object {
	n, err := requireInt("take", args[0])
	if err != nil {
		return err
	}
	items, err := requireSequence("take", args[1])
	if err != nil {
		return err
	}
	if n < 0 {
		n = 0
	}
	if n > int64(len(items)) {
		n = int64(len(items))
	}
	out := make([]Object, n)
	copy(out, items[:n])
	return &Vector{Items: out}
}

func builtinDrop(_ *Evaluator, args []Object) Object {
	n, err := requireInt("drop", args[0])
	if err != nil {
		return err
	}
	items, err := requireSequence("drop", args[1])
	if err != nil {
		return err
	}
	if n < 0 {
		n = 0
	}
	if n > int64(len(items)) {
		n = int64(len(items))
	}
	out := make([]Object, len(items)-int(n))
	copy(out, items[n:])
	return &Vector{Items: out}
}

func builtinTakeWhile(e *Evaluator, args []Object) Object {
	if err := requireCallable("take-while", args[0]); err != nil {
		return err
	}
	items, err := requireSequence("take-while", args[1])
	if err != nil {
		return err
	}
	var out []Object
	for _, item := range items {
		res := e.call1(args[0], item)
		if isAbort(res) {
			return res
		}
		if !isTruthy(res) {
			break
		}
		out = append(out, item)
	}
	return &Vector{Items: out}
}

func builtinDropWhile(e *Evaluator, args []Object) Object {
	if err := requireCallable("drop-while", args[0]); err != nil {
		return err
	}
	items, err := requireSequence("drop-while", args[1])
	if err != nil {
		return err
	}
	i := 0
	for ; i < len(items); i++ {
		res := e.call1(args[0], items[i])
		if isAbort(res) {
			return res
		}
		if !isTruthy(res) {
			break
		}
	}
	out := make([]Object, len(items)-i)
	copy(out, items[i:])
	return &Vector{Items: out}
}

func builtinReverse(_ *Evaluator, args []Object) Object {
	items, err := requireSequence("reverse", args[0])
	if err != nil {
		return err
	}
	out := make([]Object, len(items))
	for i, item := range items {
		out[len(items)-1-i] = item
	}
	return &Vector{Items: out}
}

func builtinSort(e *Evaluator, args []Object) Object {
	coll := args[len(args)-1]
	items, err := requireSequence("sort", coll)
	if err != nil {
		return err
	}
	out := make([]Object, len(items))
	copy(out, items)

	if len(args) == 1 {
		sort.SliceStable(out, func(i, j int) bool {
			return compareValues(out[i], out[j]) < 0
		})
		return &Vector{Items: out}
	}

	cmp := args[0]
	if cerr := requireCallable("sort", cmp); cerr != nil {
		return cerr
	}
	var abort Object
	sort.SliceStable(out, func(i, j int) bool {
		if abort != nil {
			return false
		}
		res := e.Apply(cmp, []Object{out[i], out[j]})
		if isAbort(res) {
			abort = res
			return false
		}
		return comparatorLess(res)
	})
	if abort != nil {
		return abort
	}
	return &Vector{Items: out}
}

func builtinSortBy(e *Evaluator, args []Object) Object {
	keyfn := args[0]
	if err := requireCallable("sort-by", keyfn); err != nil {
		return err
	}
	coll := args[len(args)-1]
	items, err := requireSequence("sort-by", coll)
	if err != nil {
		return err
	}

	keys := make([]Object, len(items))
	for i, item := range items {
		k := e.call1(keyfn, item)
		if isAbort(k) {
			return k
		}
		keys[i] = k
	}

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}

	var abort Object
	if len(args) == 3 {
		cmp := args[1]
		if cerr := requireCallable("sort-by", cmp); cerr != nil {
			return cerr
		}
		sort.SliceStable(idx, func(i, j int) bool {
			if abort != nil {
				return false
			}
			res := e.Apply(cmp, []Object{keys[idx[i]], keys[idx[j]]})
			if isAbort(res) {
				abort = res
				return false
			}
			return comparatorLess(res)
		})
	} else {
		sort.SliceStable(idx, func(i, j int) bool {
			return compareValues(keys[idx[i]], keys[idx[j]]) < 0
		})
	}
	if abort != nil {
		return abort
	}

	out := make([]Object, len(items))
	for i, j := range idx {
		out[i] = items[j]
	}
	return &Vector{Items: out}
}

// comparatorLess accepts both comparator conventions: a negative number
// or a boolean true mean "less".
func comparatorLess(res Object) bool {
	switch r := res.(type) {
	case *Boolean:
		return r.Value
	case *Integer:
		return r.Value < 0
	case *Float:
		return r.Value < 0
	}
	return false
}

func builtinDistinct(_ *Evaluator, args []Object) Object {
	items, err := requireSequence("distinct", args[0])
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	var out []Object
	for _, item := range items {
		key := hashKey(item)
		if !seen[key] {
			seen[key] = true
			out = append(out, item)
		}
	}
	return &Vector{Items: out}
}

func builtinConcat(_ *Evaluator, args []Object) Object {
	var out []Object
	for _, arg := range args {
		items, err := requireSequence("concat", arg)
		if err != nil {
			return err
		}
		out = append(out, items...)
	}
	return &Vector{Items: out}
}

func builtinFlatten(_ *Evaluator, args []Object) Object {
	items, err := requireSequence("flatten", args[0])
	if err != nil {
		return err
	}
	var out []Object
	var walk func(items []Object)
	walk = func(items []Object) {
		for _, item := range items {
			if v, ok := item.(*Vector); ok {
				walk(v.Items)
			} else {
				out = append(out, item)
			}
		}
	}
	walk(items)
	return &Vector{Items: out}
}

// builtinConj grows a collection. A nil target creates a vector; map
// targets accept [k v] entry vectors or maps.
func builtinConj(_ *Evaluator, args []Object) Object {
	target := args[0]
	rest := args[1:]

	switch t := target.(type) {
	case *Nil:
		out := make([]Object, len(rest))
		copy(out, rest)
		return &Vector{Items: out}
	case *Vector:
		out := make([]Object, len(t.Items), len(t.Items)+len(rest))
		copy(out, t.Items)
		out = append(out, rest...)
		return &Vector{Items: out}
	case *Set:
		out := t.Copy()
		for _, item := range rest {
			out.Add(item)
		}
		return out
	case *Map:
		out := t.Copy()
		for _, item := range rest {
			switch entry := item.(type) {
			case *Vector:
				if len(entry.Items) != 2 {
					return typeErrorf("(conj): map entry must be a [key value] pair")
				}
				out.Set(entry.Items[0], entry.Items[1])
			case *Map:
				entry.Each(func(k, v Object) { out.Set(k, v) })
			default:
				return typeErrorf("(conj): cannot add %s to a map", typeName(item))
			}
		}
		return out
	}
	return typeErrorf("(conj): expected a collection, got %s", typeName(target))
}

func builtinInto(_ *Evaluator, args []Object) Object {
	items, err := requireSequence("into", args[1])
	if err != nil {
		return err
	}
	switch t := args[0].(type) {
	case *Nil, *Vector:
		var base []Object
		if v, ok := t.(*Vector); ok {
			base = v.Items
		}
		out := make([]Object, len(base), len(base)+len(items))
		copy(out, base)
		out = append(out, items...)
		return &Vector{Items: out}
	case *Set:
		out := t.Copy()
		for _, item := range items {
			out.Add(item)
		}
		return out
	case *Map:
		out := t.Copy()
		for _, item := range items {
			entry, ok := item.(*Vector)
			if !ok || len(entry.Items) != 2 {
				return typeErrorf("(into): map entries must be [key value] pairs")
			}
			out.Set(entry.Items[0], entry.Items[1])
		}
		return out
	}
	return typeErrorf("(into): expected a collection target, got %s", typeName(args[0]))
}

func builtinPartition(_ *Evaluator, args []Object) Object {
	n, err := requireInt("partition", args[0])
	if err != nil {
		return err
	}
	if n <= 0 {
		return typeErrorf("(partition): size must be positive, got %d", n)
	}
	step := n
	collArg := args[1]
	if len(args) == 3 {
		step, err = requireInt("partition", args[1])
		if err != nil {
			return err
		}
		if step <= 0 {
			return typeErrorf("(partition): step must be positive, got %d", step)
		}
		collArg = args[2]
	}
	items, err := requireSequence("partition", collArg)
	if err != nil {
		return err
	}
	var out []Object
	for i := int64(0); i+n <= int64(len(items)); i += step {
		chunk := make([]Object, n)
		copy(chunk, items[i:i+n])
		out = append(out, &Vector{Items: chunk})
	}
	return &Vector{Items: out}
}

func builtinPartitionBy(e *Evaluator, args []Object) Object {
	if err := requireCallable("partition-by", args[0]); err != nil {
		return err
	}
	items, err := requireSequence("partition-by", args[1])
	if err != nil {
		return err
	}
	var out []Object
	var chunk []Object
	var prev Object
	for i, item := range items {
		key := e.call1(args[0], item)
		if isAbort(key) {
			return key
		}
		if i > 0 && !objectsEqual(key, prev) {
			out = append(out, &Vector{Items: chunk})
			chunk = nil
		}
		chunk = append(chunk, item)
		prev = key
	}
	if len(chunk) > 0 {
		out = append(out, &Vector{Items: chunk})
	}
	return &Vector{Items: out}
}

func builtinRange(_ *Evaluator, args []Object) Object {
	var start, end, step int64
	step = 1
	var err *Error
	switch len(args) {
	case 1:
		end, err = requireInt("range", args[0])
	case 2:
		start, err = requireInt("range", args[0])
		if err == nil {
			end, err = requireInt("range", args[1])
		}
	case 3:
		start, err = requireInt("range", args[0])
		if err == nil {
			end, err = requireInt("range", args[1])
		}
		if err == nil {
			step, err = requireInt("range", args[2])
		}
	}
	if err != nil {
		return err
	}
	if step == 0 {
		return typeErrorf("(range): step must not be zero")
	}
	var out []Object
	if step > 0 {
		for i := start; i < end; i += step {
			out = append(out, &Integer{Value: i})
		}
	} else {
		for i := start; i > end; i += step {
			out = append(out, &Integer{Value: i})
		}
	}
	return &Vector{Items: out}
}

func builtinRepeat(_ *Evaluator, args []Object) Object {
	n, err := requireInt("repeat", args[0])
	if err != nil {
		return err
	}
	if n < 0 {
		n = 0
	}
	out := make([]Object, n)
	for i := range out {
		out[i] = args[1]
	}
	return &Vector{Items: out}
}

func builtinMap(e *Evaluator, args []Object) Object {
	fn := args[0]
	if err := requireCallable("map", fn); err != nil {
		return err
	}
	colls := make([][]Object, len(args)-1)
	minLen := -1
	for i, arg := range args[1:] {
		items, err := requireSequence("map", arg)
		if err != nil {
			return err
		}
		colls[i] = items
		if minLen < 0 || len(items) < minLen {
			minLen = len(items)
		}
	}
	out := make([]Object, 0, minLen)
	for i := 0; i < minLen; i++ {
		callArgs := make([]Object, len(colls))
		for j, coll := range colls {
			callArgs[j] = coll[i]
		}
		res := e.Apply(fn, callArgs)
		if isAbort(res) {
			return res
		}
		out = append(out, res)
	}
	return &Vector{Items: out}
}

func builtinFilter(e *Evaluator, args []Object) Object {
	return filterWith(e, "filter", args, true)
}

func builtinRemove(e *Evaluator, args []Object) Object {
	return filterWith(e, "remove", args, false)
}

func filterWith(e *Evaluator, name string, args []Object, keep bool) Object {
	if err := requireCallable(name, args[0]); err != nil {
		return err
	}
	items, err := requireSequence(name, args[1])
	if err != nil {
		return err
	}
	var out []Object
	for _, item := range items {
		res := e.call1(args[0], item)
		if isAbort(res) {
			return res
		}
		if isTruthy(res) == keep {
			out = append(out, item)
		}
	}
	return &Vector{Items: out}
}

// builtinFind returns the first element satisfying the predicate.
func builtinFind(e *Evaluator, args []Object) Object {
	if err := requireCallable("find", args[0]); err != nil {
		return err
	}
	items, err := requireSequence("find", args[1])
	if err != nil {
		return err
	}
	for _, item := range items {
		res := e.call1(args[0], item)
		if isAbort(res) {
			return res
		}
		if isTruthy(res) {
			return item
		}
	}
	return NilValue
}

// builtinSome returns the first truthy predicate result.
func builtinSome(e *Evaluator, args []Object) Object {
	if err := requireCallable("some", args[0]); err != nil {
		return err
	}
	items, err := requireSequence("some", args[1])
	if err != nil {
		return err
	}
	for _, item := range items {
		res := e.call1(args[0], item)
		if isAbort(res) {
			return res
		}
		if isTruthy(res) {
			return res
		}
	}
	return NilValue
}

func builtinNotAny(e *Evaluator, args []Object) Object {
	res := builtinSome(e, args)
	if isAbort(res) {
		return res
	}
	return boolValue(!isTruthy(res))
}

func builtinEvery(e *Evaluator, args []Object) Object {
	if err := requireCallable("every?", args[0]); err != nil {
		return err
	}
	items, err := requireSequence("every?", args[1])
	if err != nil {
		return err
	}
	for _, item := range items {
		res := e.call1(args[0], item)
		if isAbort(res) {
			return res
		}
		if !isTruthy(res) {
			return FalseValue
		}
	}
	return TrueValue
}

func builtinReduce(e *Evaluator, args []Object) Object {
	fn := args[0]
	if err := requireCallable("reduce", fn); err != nil {
		return err
	}
	var acc Object
	var items []Object
	if len(args) == 2 {
		seq, err := requireSequence("reduce", args[1])
		if err != nil {
			return err
		}
		if len(seq) == 0 {
			return e.Apply(fn, nil)
		}
		acc = seq[0]
		items = seq[1:]
	} else {
		seq, err := requireSequence("reduce", args[2])
		if err != nil {
			return err
		}
		acc = args[1]
		items = seq
	}
	for _, item := range items {
		res := e.Apply(fn, []Object{acc, item})
		if isAbort(res) {
			return res
		}
		acc = res
	}
	return acc
}

// builtinCombinations returns all k-element combinations of the
// collection, preserving element order.
func builtinCombinations(_ *Evaluator, args []Object) Object {
	k, err := requireInt("combinations", args[0])
	if err != nil {
		return err
	}
	items, err := requireSequence("combinations", args[1])
	if err != nil {
		return err
	}
	if k < 0 || k > int64(len(items)) {
		return &Vector{}
	}
	var out []Object
	combo := make([]Object, 0, k)
	var build func(start int)
	build = func(start int) {
		if int64(len(combo)) == k {
			picked := make([]Object, k)
			copy(picked, combo)
			out = append(out, &Vector{Items: picked})
			return
		}
		for i := start; i < len(items); i++ {
			combo = append(combo, items[i])
			build(i + 1)
			combo = combo[:len(combo)-1]
		}
	}
	build(0)
	return &Vector{Items: out}
}
