package evaluator

import (
	"strconv"
	"strings"
)

func init() {
	register("str", Variadic{Min: 0, Fn: builtinStr})
	register("subs", Multi{Arities: map[int]BuiltinFn{2: builtinSubs, 3: builtinSubs}})
	register("join", Multi{Arities: map[int]BuiltinFn{1: builtinJoin, 2: builtinJoin}})
	register("split", Fixed{N: 2, Fn: builtinSplit})
	register("trim", Fixed{N: 1, Fn: stringOp(strings.TrimSpace)})
	register("upper-case", Fixed{N: 1, Fn: stringOp(strings.ToUpper)})
	register("lower-case", Fixed{N: 1, Fn: stringOp(strings.ToLower)})
	register("starts-with?", Fixed{N: 2, Fn: stringTest(strings.HasPrefix)})
	register("ends-with?", Fixed{N: 2, Fn: stringTest(strings.HasSuffix)})
	register("includes?", Fixed{N: 2, Fn: stringTest(strings.Contains)})
	register("replace", Fixed{N: 3, Fn: builtinReplace})
	register("parse-long", Fixed{N: 1, Fn: builtinParseLong})
	register("parse-double", Fixed{N: 1, Fn: builtinParseDouble})
	register("seq", Fixed{N: 1, Fn: builtinSeq})
}

// builtinStr concatenates printed forms; nil renders as the empty string
// and top-level strings stay unquoted.
func builtinStr(e *Evaluator, args []Object) Object {
	var sb strings.Builder
	for _, arg := range args {
		if _, isNil := arg.(*Nil); isNil {
			continue
		}
		sb.WriteString(printString(arg, e.Ctx.FloatPrecision))
	}
	return &String{Value: sb.String()}
}

func builtinSubs(_ *Evaluator, args []Object) Object {
	s, err := requireString("subs", args[0])
	if err != nil {
		return err
	}
	runes := []rune(s)
	start, err := requireInt("subs", args[1])
	if err != nil {
		return err
	}
	end := int64(len(runes))
	if len(args) == 3 {
		end, err = requireInt("subs", args[2])
		if err != nil {
			return err
		}
	}
	if start < 0 {
		start = 0
	}
	if end > int64(len(runes)) {
		end = int64(len(runes))
	}
	if start > end {
		return &String{Value: ""}
	}
	return &String{Value: string(runes[start:end])}
}

func builtinJoin(e *Evaluator, args []Object) Object {
	sep := ""
	collArg := args[0]
	if len(args) == 2 {
		s, err := requireString("join", args[0])
		if err != nil {
			return err
		}
		sep = s
		collArg = args[1]
	}
	items, err := requireSequence("join", collArg)
	if err != nil {
		return err
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if _, isNil := item.(*Nil); isNil {
			parts = append(parts, "")
			continue
		}
		parts = append(parts, printString(item, e.Ctx.FloatPrecision))
	}
	return &String{Value: strings.Join(parts, sep)}
}

func builtinSplit(_ *Evaluator, args []Object) Object {
	s, err := requireString("split", args[0])
	if err != nil {
		return err
	}
	switch sep := args[1].(type) {
	case *String:
		parts := strings.Split(s, sep.Value)
		return stringVector(parts)
	case *Regex:
		return stringVector(sep.Re.Split(s, -1))
	}
	return typeErrorf("(split): separator must be a string or pattern, got %s", typeName(args[1]))
}

func stringOp(f func(string) string) BuiltinFn {
	return func(_ *Evaluator, args []Object) Object {
		s, err := requireString("string operation", args[0])
		if err != nil {
			return err
		}
		return &String{Value: f(s)}
	}
}

func stringTest(f func(s, sub string) bool) BuiltinFn {
	return func(_ *Evaluator, args []Object) Object {
		s, err := requireString("string test", args[0])
		if err != nil {
			return err
		}
		sub, err := requireString("string test", args[1])
		if err != nil {
			return err
		}
		return boolValue(f(s, sub))
	}
}

func builtinReplace(_ *Evaluator, args []Object) Object {
	s, err := requireString("replace", args[0])
	if err != nil {
		return err
	}
	repl, err := requireString("replace", args[2])
	if err != nil {
		return err
	}
	switch match := args[1].(type) {
	case *String:
		return &String{Value: strings.ReplaceAll(s, match.Value, repl)}
	case *Regex:
		return &String{Value: match.Re.ReplaceAllString(s, repl)}
	}
	return typeErrorf("(replace): match must be a string or pattern, got %s", typeName(args[1]))
}

func builtinParseLong(_ *Evaluator, args []Object) Object {
	s, err := requireString("parse-long", args[0])
	if err != nil {
		return err
	}
	i, perr := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if perr != nil {
		return NilValue
	}
	return &Integer{Value: i}
}

func builtinParseDouble(_ *Evaluator, args []Object) Object {
	s, err := requireString("parse-double", args[0])
	if err != nil {
		return err
	}
	f, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if perr != nil {
		return NilValue
	}
	return &Float{Value: f}
}

// builtinSeq views a value as a sequence, nil when empty: strings become
// single-character strings, maps become [k v] entries.
func builtinSeq(_ *Evaluator, args []Object) Object {
	if s, ok := args[0].(*String); ok {
		if len(s.Value) == 0 {
			return NilValue
		}
		runes := []rune(s.Value)
		out := make([]Object, len(runes))
		for i, r := range runes {
			out[i] = &String{Value: string(r)}
		}
		return &Vector{Items: out}
	}
	items, err := requireSequence("seq", args[0])
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return NilValue
	}
	out := make([]Object, len(items))
	copy(out, items)
	return &Vector{Items: out}
}

func stringVector(parts []string) *Vector {
	out := make([]Object, len(parts))
	for i, p := range parts {
		out[i] = &String{Value: p}
	}
	return &Vector{Items: out}
}
