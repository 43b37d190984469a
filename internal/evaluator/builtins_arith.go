package evaluator

import (
	"github.com/andreasronge/ptclisp/internal/diag"
)

func init() {
	register("+", Variadic{Min: 0, Fn: builtinAdd})
	register("-", VariadicNonempty{Fn: builtinSub})
	register("*", Variadic{Min: 0, Fn: builtinMul})
	register("/", VariadicNonempty{Fn: builtinDiv})
	register("mod", Fixed{N: 2, Fn: builtinMod})
	register("inc", Fixed{N: 1, Fn: builtinInc})
	register("dec", Fixed{N: 1, Fn: builtinDec})
	register("max", VariadicNonempty{Fn: builtinMax})
	register("min", VariadicNonempty{Fn: builtinMin})

	register("=", VariadicNonempty{Fn: builtinEq})
	register("not=", VariadicNonempty{Fn: builtinNotEq})
	register("<", VariadicNonempty{Fn: compareChain(func(c int) bool { return c < 0 })})
	register(">", VariadicNonempty{Fn: compareChain(func(c int) bool { return c > 0 })})
	register("<=", VariadicNonempty{Fn: compareChain(func(c int) bool { return c <= 0 })})
	register(">=", VariadicNonempty{Fn: compareChain(func(c int) bool { return c >= 0 })})

	register("not", Fixed{N: 1, Fn: func(_ *Evaluator, args []Object) Object {
		return boolValue(!isTruthy(args[0]))
	}})
}

// number accumulates int64 arithmetic, promoting to float64 the moment a
// float operand appears.
type number struct {
	i       int64
	f       float64
	isFloat bool
}

func numberOf(obj Object) (number, bool) {
	switch o := obj.(type) {
	case *Integer:
		return number{i: o.Value}, true
	case *Float:
		return number{f: o.Value, isFloat: true}, true
	}
	return number{}, false
}

func (n number) toObject() Object {
	if n.isFloat {
		return &Float{Value: n.f}
	}
	return &Integer{Value: n.i}
}

func (n number) asFloat() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

func numericArgs(name string, args []Object) ([]number, *Error) {
	nums := make([]number, len(args))
	for i, arg := range args {
		num, ok := numberOf(arg)
		if !ok {
			return nil, typeErrorf("(%s): expected a number, got %s", name, typeName(arg))
		}
		nums[i] = num
	}
	return nums, nil
}

func builtinAdd(_ *Evaluator, args []Object) Object {
	nums, err := numericArgs("+", args)
	if err != nil {
		return err
	}
	acc := number{}
	for _, n := range nums {
		acc = addNumbers(acc, n)
	}
	return acc.toObject()
}

func builtinSub(_ *Evaluator, args []Object) Object {
	nums, err := numericArgs("-", args)
	if err != nil {
		return err
	}
	if len(nums) == 1 {
		return addNumbers(number{}, negate(nums[0])).toObject()
	}
	acc := nums[0]
	for _, n := range nums[1:] {
		acc = addNumbers(acc, negate(n))
	}
	return acc.toObject()
}

func builtinMul(_ *Evaluator, args []Object) Object {
	nums, err := numericArgs("*", args)
	if err != nil {
		return err
	}
	acc := number{i: 1}
	for _, n := range nums {
		if acc.isFloat || n.isFloat {
			acc = number{f: acc.asFloat() * n.asFloat(), isFloat: true}
		} else {
			acc = number{i: acc.i * n.i}
		}
	}
	return acc.toObject()
}

func builtinDiv(_ *Evaluator, args []Object) Object {
	nums, err := numericArgs("/", args)
	if err != nil {
		return err
	}
	if len(nums) == 1 {
		nums = []number{{i: 1}, nums[0]}
	}
	acc := nums[0]
	for _, n := range nums[1:] {
		if n.asFloat() == 0 {
			return newError(diag.TypeError, "(/): division by zero")
		}
		if !acc.isFloat && !n.isFloat && acc.i%n.i == 0 {
			acc = number{i: acc.i / n.i}
		} else {
			acc = number{f: acc.asFloat() / n.asFloat(), isFloat: true}
		}
	}
	return acc.toObject()
}

func builtinMod(_ *Evaluator, args []Object) Object {
	a, err := requireInt("mod", args[0])
	if err != nil {
		return err
	}
	b, err := requireInt("mod", args[1])
	if err != nil {
		return err
	}
	if b == 0 {
		return newError(diag.TypeError, "(mod): division by zero")
	}
	// Result takes the sign of the divisor, per the usual mod convention.
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return &Integer{Value: m}
}

func builtinInc(_ *Evaluator, args []Object) Object {
	num, ok := numberOf(args[0])
	if !ok {
		return typeErrorf("(inc): expected a number, got %s", typeName(args[0]))
	}
	return addNumbers(num, number{i: 1}).toObject()
}

func builtinDec(_ *Evaluator, args []Object) Object {
	num, ok := numberOf(args[0])
	if !ok {
		return typeErrorf("(dec): expected a number, got %s", typeName(args[0]))
	}
	return addNumbers(num, number{i: -1}).toObject()
}

func builtinMax(_ *Evaluator, args []Object) Object {
	nums, err := numericArgs("max", args)
	if err != nil {
		return err
	}
	best := 0
	for i := 1; i < len(nums); i++ {
		if nums[i].asFloat() > nums[best].asFloat() {
			best = i
		}
	}
	return args[best]
}

func builtinMin(_ *Evaluator, args []Object) Object {
	nums, err := numericArgs("min", args)
	if err != nil {
		return err
	}
	best := 0
	for i := 1; i < len(nums); i++ {
		if nums[i].asFloat() < nums[best].asFloat() {
			best = i
		}
	}
	return args[best]
}

func addNumbers(a, b number) number {
	if a.isFloat || b.isFloat {
		return number{f: a.asFloat() + b.asFloat(), isFloat: true}
	}
	return number{i: a.i + b.i}
}

func negate(n number) number {
	if n.isFloat {
		return number{f: -n.f, isFloat: true}
	}
	return number{i: -n.i}
}

func builtinEq(_ *Evaluator, args []Object) Object {
	for i := 1; i < len(args); i++ {
		if !objectsEqual(args[i-1], args[i]) {
			return FalseValue
		}
	}
	return TrueValue
}

func builtinNotEq(_ *Evaluator, args []Object) Object {
	eq := builtinEq(nil, args)
	return boolValue(!isTruthy(eq))
}

func compareChain(ok func(c int) bool) BuiltinFn {
	return func(_ *Evaluator, args []Object) Object {
		for i := 1; i < len(args); i++ {
			c, valid := compareNumbers(args[i-1], args[i])
			if !valid {
				return typeErrorf("comparison expects numbers, got %s and %s",
					typeName(args[i-1]), typeName(args[i]))
			}
			if !ok(c) {
				return FalseValue
			}
		}
		return TrueValue
	}
}
