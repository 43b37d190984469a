package evaluator

func init() {
	register("get", Multi{Arities: map[int]BuiltinFn{2: builtinGet, 3: builtinGet}})
	register("get-in", Multi{Arities: map[int]BuiltinFn{2: builtinGetIn, 3: builtinGetIn}})
	register("assoc", Variadic{Min: 3, Fn: builtinAssoc})
	register("assoc-in", Fixed{N: 3, Fn: builtinAssocIn})
	register("dissoc", Variadic{Min: 2, Fn: builtinDissoc})
	register("merge", Variadic{Min: 0, Fn: builtinMerge})
	register("select-keys", Fixed{N: 2, Fn: builtinSelectKeys})
	register("update", Variadic{Min: 3, Fn: builtinUpdate})
	register("update-in", Variadic{Min: 3, Fn: builtinUpdateIn})
	register("contains?", Fixed{N: 2, Fn: builtinContains})
	register("keys", Fixed{N: 1, Fn: builtinKeys})
	register("vals", Fixed{N: 1, Fn: builtinVals})

	register("set", Fixed{N: 1, Fn: builtinSet})
	register("vec", Fixed{N: 1, Fn: builtinVec})
}

// builtinGet is the flex-keyed lookup: maps try the keyword/string twin,
// vectors index, sets test membership.
func builtinGet(_ *Evaluator, args []Object) Object {
	var fallback Object = NilValue
	if len(args) == 3 {
		fallback = args[2]
	}
	switch target := args[0].(type) {
	case *Nil:
		return fallback
	case *Map:
		if val, ok := target.GetFlex(args[1]); ok {
			return val
		}
		return fallback
	case *Vector:
		if idx, ok := args[1].(*Integer); ok {
			if idx.Value >= 0 && idx.Value < int64(len(target.Items)) {
				return target.Items[idx.Value]
			}
		}
		return fallback
	case *Set:
		if target.Has(args[1]) {
			return args[1]
		}
		return fallback
	}
	return typeErrorf("(get): expected a collection, got %s", typeName(args[0]))
}

func builtinGetIn(e *Evaluator, args []Object) Object {
	path, err := requireSequence("get-in", args[1])
	if err != nil {
		return err
	}
	var fallback Object = NilValue
	if len(args) == 3 {
		fallback = args[2]
	}
	cur := args[0]
	for _, key := range path {
		res := builtinGet(e, []Object{cur, key})
		if isAbort(res) {
			return res
		}
		if _, isNil := res.(*Nil); isNil {
			return fallback
		}
		cur = res
	}
	return cur
}

func builtinAssoc(_ *Evaluator, args []Object) Object {
	if (len(args)-1)%2 != 0 {
		return typeErrorf("(assoc): expected key/value pairs")
	}
	m, err := requireMapOrNil("assoc", args[0])
	if err != nil {
		return err
	}
	var out *Map
	if m == nil {
		out = NewMap()
	} else {
		out = m.Copy()
	}
	for i := 1; i < len(args); i += 2 {
		assocFlex(out, args[i], args[i+1])
	}
	return out
}

// assocFlex overwrites the stored twin key when one exists, so a keyword
// write lands on an existing string key instead of duplicating it.
func assocFlex(m *Map, key, val Object) {
	if _, ok := m.Get(key); ok {
		m.Set(key, val)
		return
	}
	switch k := key.(type) {
	case *Keyword:
		twin := &String{Value: k.Name}
		if _, ok := m.Get(twin); ok {
			m.Set(twin, val)
			return
		}
	case *String:
		twin := &Keyword{Name: k.Value}
		if _, ok := m.Get(twin); ok {
			m.Set(twin, val)
			return
		}
	}
	m.Set(key, val)
}

func builtinAssocIn(e *Evaluator, args []Object) Object {
	path, err := requireSequence("assoc-in", args[1])
	if err != nil {
		return err
	}
	if len(path) == 0 {
		return typeErrorf("(assoc-in): path must not be empty")
	}
	return assocInPath(args[0], path, args[2])
}

func assocInPath(target Object, path []Object, val Object) Object {
	m, err := requireMapOrNil("assoc-in", target)
	if err != nil {
		return err
	}
	var out *Map
	if m == nil {
		out = NewMap()
	} else {
		out = m.Copy()
	}
	key := path[0]
	if len(path) == 1 {
		assocFlex(out, key, val)
		return out
	}
	var child Object = NilValue
	if existing, ok := out.GetFlex(key); ok {
		child = existing
	}
	nested := assocInPath(child, path[1:], val)
	if isAbort(nested) {
		return nested
	}
	assocFlex(out, key, nested)
	return out
}

func builtinDissoc(_ *Evaluator, args []Object) Object {
	m, err := requireMapOrNil("dissoc", args[0])
	if err != nil {
		return err
	}
	if m == nil {
		return NilValue
	}
	out := m.Copy()
	for _, key := range args[1:] {
		out.Delete(key)
		switch k := key.(type) {
		case *Keyword:
			out.Delete(&String{Value: k.Name})
		case *String:
			out.Delete(&Keyword{Name: k.Value})
		}
	}
	return out
}

func builtinMerge(_ *Evaluator, args []Object) Object {
	out := NewMap()
	sawMap := false
	for _, arg := range args {
		m, err := requireMapOrNil("merge", arg)
		if err != nil {
			return err
		}
		if m == nil {
			continue
		}
		sawMap = true
		m.Each(func(k, v Object) { assocFlex(out, k, v) })
	}
	if !sawMap {
		return NilValue
	}
	return out
}

func builtinSelectKeys(_ *Evaluator, args []Object) Object {
	m, err := requireMapOrNil("select-keys", args[0])
	if err != nil {
		return err
	}
	keys, err := requireSequence("select-keys", args[1])
	if err != nil {
		return err
	}
	out := NewMap()
	if m == nil {
		return out
	}
	for _, key := range keys {
		if val, ok := m.GetFlex(key); ok {
			out.Set(key, val)
		}
	}
	return out
}

func builtinUpdate(e *Evaluator, args []Object) Object {
	m, err := requireMapOrNil("update", args[0])
	if err != nil {
		return err
	}
	key := args[1]
	fn := args[2]
	if cerr := requireCallable("update", fn); cerr != nil {
		return cerr
	}
	var out *Map
	if m == nil {
		out = NewMap()
	} else {
		out = m.Copy()
	}
	var cur Object = NilValue
	if val, ok := out.GetFlex(key); ok {
		cur = val
	}
	callArgs := append([]Object{cur}, args[3:]...)
	res := e.Apply(fn, callArgs)
	if isAbort(res) {
		return res
	}
	assocFlex(out, key, res)
	return out
}

func builtinUpdateIn(e *Evaluator, args []Object) Object {
	path, err := requireSequence("update-in", args[1])
	if err != nil {
		return err
	}
	if len(path) == 0 {
		return typeErrorf("(update-in): path must not be empty")
	}
	fn := args[2]
	if cerr := requireCallable("update-in", fn); cerr != nil {
		return cerr
	}
	cur := builtinGetIn(e, []Object{args[0], args[1]})
	if isAbort(cur) {
		return cur
	}
	callArgs := append([]Object{cur}, args[3:]...)
	res := e.Apply(fn, callArgs)
	if isAbort(res) {
		return res
	}
	return assocInPath(args[0], path, res)
}

func builtinContains(_ *Evaluator, args []Object) Object {
	switch target := args[0].(type) {
	case *Nil:
		return FalseValue
	case *Map:
		return boolValue(target.HasFlex(args[1]))
	case *Set:
		return boolValue(target.Has(args[1]))
	case *Vector:
		if idx, ok := args[1].(*Integer); ok {
			return boolValue(idx.Value >= 0 && idx.Value < int64(len(target.Items)))
		}
		return FalseValue
	}
	return typeErrorf("(contains?): expected a collection, got %s", typeName(args[0]))
}

func builtinKeys(_ *Evaluator, args []Object) Object {
	m, err := requireMapOrNil("keys", args[0])
	if err != nil {
		return err
	}
	if m == nil {
		return NilValue
	}
	out := make([]Object, len(m.Keys()))
	copy(out, m.Keys())
	return &Vector{Items: out}
}

func builtinVals(_ *Evaluator, args []Object) Object {
	m, err := requireMapOrNil("vals", args[0])
	if err != nil {
		return err
	}
	if m == nil {
		return NilValue
	}
	out := make([]Object, len(m.Vals()))
	copy(out, m.Vals())
	return &Vector{Items: out}
}

func builtinSet(_ *Evaluator, args []Object) Object {
	items, err := requireSequence("set", args[0])
	if err != nil {
		return err
	}
	out := NewSet()
	for _, item := range items {
		out.Add(item)
	}
	return out
}

func builtinVec(_ *Evaluator, args []Object) Object {
	items, err := requireSequence("vec", args[0])
	if err != nil {
		return err
	}
	out := make([]Object, len(items))
	copy(out, items)
	return &Vector{Items: out}
}
