package evaluator

// isTruthy follows the Lisp rule: nil and false are falsy, everything
// else (including 0 and "") is truthy.
func isTruthy(obj Object) bool {
	switch o := obj.(type) {
	case *Nil:
		return false
	case *Boolean:
		return o.Value
	}
	return true
}

// objectsEqual is deep structural equality. Ints and integral floats
// compare equal; keywords and strings do NOT unify here (flex coercion is
// opt-in per operation).
func objectsEqual(a, b Object) bool {
	switch av := a.(type) {
	case *Nil:
		_, ok := b.(*Nil)
		return ok
	case *Boolean:
		bv, ok := b.(*Boolean)
		return ok && av.Value == bv.Value
	case *Integer:
		switch bv := b.(type) {
		case *Integer:
			return av.Value == bv.Value
		case *Float:
			return float64(av.Value) == bv.Value
		}
		return false
	case *Float:
		switch bv := b.(type) {
		case *Integer:
			return av.Value == float64(bv.Value)
		case *Float:
			return av.Value == bv.Value
		}
		return false
	case *String:
		bv, ok := b.(*String)
		return ok && av.Value == bv.Value
	case *Keyword:
		bv, ok := b.(*Keyword)
		return ok && av.Name == bv.Name
	case *Vector:
		bv, ok := b.(*Vector)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !objectsEqual(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case *Map:
		bv, ok := b.(*Map)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		equal := true
		av.Each(func(k, v Object) {
			if !equal {
				return
			}
			other, found := bv.Get(k)
			if !found || !objectsEqual(v, other) {
				equal = false
			}
		})
		return equal
	case *Set:
		bv, ok := b.(*Set)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, item := range av.Items() {
			if !bv.Has(item) {
				return false
			}
		}
		return true
	case *Date:
		bv, ok := b.(*Date)
		return ok && av.Time.Equal(bv.Time)
	}
	// Functions, builtins, and other opaque values compare by identity.
	return a == b
}

// flexEqual is equality with keyword↔string coercion, used by the where
// operators and flex map access. Booleans and numbers stay un-coerced.
func flexEqual(a, b Object) bool {
	if objectsEqual(a, b) {
		return true
	}
	if ak, ok := a.(*Keyword); ok {
		if bs, ok := b.(*String); ok {
			return ak.Name == bs.Value
		}
	}
	if as, ok := a.(*String); ok {
		if bk, ok := b.(*Keyword); ok {
			return as.Value == bk.Name
		}
	}
	return false
}

// compareNumbers returns -1/0/1 for numeric operands; ok=false otherwise.
func compareNumbers(a, b Object) (int, bool) {
	af, aok := numericValue(a)
	bf, bok := numericValue(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	}
	return 0, true
}

func numericValue(obj Object) (float64, bool) {
	switch o := obj.(type) {
	case *Integer:
		return float64(o.Value), true
	case *Float:
		return o.Value, true
	}
	return 0, false
}

// compareValues orders values for sort: two numbers numerically, two
// strings/keywords lexically, two dates chronologically. Any other pair,
// including booleans and mixed kinds, orders by rendered form so sorts
// stay deterministic.
func compareValues(a, b Object) int {
	if c, ok := compareNumbers(a, b); ok {
		return c
	}
	as, aok := stringish(a)
	bs, bok := stringish(b)
	if aok && bok {
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		}
		return 0
	}
	if ad, ok := a.(*Date); ok {
		if bd, ok := b.(*Date); ok {
			switch {
			case ad.Time.Before(bd.Time):
				return -1
			case ad.Time.After(bd.Time):
				return 1
			}
			return 0
		}
	}
	ai, bi := a.Inspect(), b.Inspect()
	switch {
	case ai < bi:
		return -1
	case ai > bi:
		return 1
	}
	return 0
}

func stringish(obj Object) (string, bool) {
	switch o := obj.(type) {
	case *String:
		return o.Value, true
	case *Keyword:
		return o.Name, true
	}
	return "", false
}
