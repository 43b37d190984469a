package evaluator

import (
	"regexp"
	"strings"
	"time"
)

func init() {
	register("println", Variadic{Min: 0, Fn: builtinPrintln})

	register("re-pattern", Fixed{N: 1, Fn: builtinRePattern})
	register("re-seq", Fixed{N: 2, Fn: builtinReSeq})
	register("re-split", Fixed{N: 2, Fn: builtinReSplit})

	// Interop shims kept for LLM-emitted Java-flavored code.
	register("java.util.Date.", Fixed{N: 0, Fn: builtinDateNow})
	register("System/currentTimeMillis", Fixed{N: 0, Fn: builtinCurrentMillis})
	register("LocalDate/parse", Fixed{N: 1, Fn: builtinLocalDateParse})
	register(".getTime", Fixed{N: 1, Fn: builtinGetTime})
	register(".indexOf", Fixed{N: 2, Fn: builtinIndexOf})
	register(".lastIndexOf", Fixed{N: 2, Fn: builtinLastIndexOf})
}

// builtinPrintln captures a rendered line into the run's prints; nothing
// ever reaches real stdout.
func builtinPrintln(e *Evaluator, args []Object) Object {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = printString(arg, e.Ctx.FloatPrecision)
	}
	line := strings.Join(parts, " ")
	if !e.Ctx.parallel {
		e.Ctx.appendPrint(line)
	}
	return NilValue
}

func builtinRePattern(_ *Evaluator, args []Object) Object {
	src, err := requireString("re-pattern", args[0])
	if err != nil {
		return err
	}
	re, cerr := regexp.Compile(src)
	if cerr != nil {
		return typeErrorf("(re-pattern): invalid pattern %q: %v", src, cerr)
	}
	return &Regex{Source: src, Re: re}
}

func patternArg(name string, obj Object) (*Regex, *Error) {
	switch p := obj.(type) {
	case *Regex:
		return p, nil
	case *String:
		re, err := regexp.Compile(p.Value)
		if err != nil {
			return nil, typeErrorf("(%s): invalid pattern %q: %v", name, p.Value, err)
		}
		return &Regex{Source: p.Value, Re: re}, nil
	}
	return nil, typeErrorf("(%s): expected a pattern, got %s", name, typeName(obj))
}

// builtinReSeq returns all matches; when the pattern has groups each
// match is a vector of [whole group...].
func builtinReSeq(_ *Evaluator, args []Object) Object {
	re, err := patternArg("re-seq", args[0])
	if err != nil {
		return err
	}
	s, err := requireString("re-seq", args[1])
	if err != nil {
		return err
	}
	matches := re.Re.FindAllStringSubmatch(s, -1)
	if matches == nil {
		return NilValue
	}
	out := make([]Object, len(matches))
	for i, m := range matches {
		if len(m) == 1 {
			out[i] = &String{Value: m[0]}
		} else {
			out[i] = stringVector(m)
		}
	}
	return &Vector{Items: out}
}

func builtinReSplit(_ *Evaluator, args []Object) Object {
	re, err := patternArg("re-split", args[0])
	if err != nil {
		return err
	}
	s, err := requireString("re-split", args[1])
	if err != nil {
		return err
	}
	return stringVector(re.Re.Split(s, -1))
}

func builtinDateNow(e *Evaluator, _ []Object) Object {
	return &Date{Time: e.Ctx.Now()}
}

func builtinCurrentMillis(e *Evaluator, _ []Object) Object {
	return &Integer{Value: e.Ctx.Now().UnixMilli()}
}

func builtinLocalDateParse(_ *Evaluator, args []Object) Object {
	s, err := requireString("LocalDate/parse", args[0])
	if err != nil {
		return err
	}
	t, perr := time.Parse("2006-01-02", s)
	if perr != nil {
		return typeErrorf("(LocalDate/parse): cannot parse %q as yyyy-MM-dd", s)
	}
	return &Date{Time: t}
}

func builtinGetTime(_ *Evaluator, args []Object) Object {
	d, ok := args[0].(*Date)
	if !ok {
		return typeErrorf("(.getTime): expected a date, got %s", typeName(args[0]))
	}
	return &Integer{Value: d.Time.UnixMilli()}
}

func builtinIndexOf(_ *Evaluator, args []Object) Object {
	return indexOf(args, false)
}

func builtinLastIndexOf(_ *Evaluator, args []Object) Object {
	return indexOf(args, true)
}

func indexOf(args []Object, last bool) Object {
	switch target := args[0].(type) {
	case *String:
		sub, err := requireString(".indexOf", args[1])
		if err != nil {
			return err
		}
		if last {
			return &Integer{Value: int64(strings.LastIndex(target.Value, sub))}
		}
		return &Integer{Value: int64(strings.Index(target.Value, sub))}
	case *Vector:
		found := int64(-1)
		for i, item := range target.Items {
			if objectsEqual(item, args[1]) {
				found = int64(i)
				if !last {
					break
				}
			}
		}
		return &Integer{Value: found}
	}
	return typeErrorf("(.indexOf): expected a string or vector, got %s", typeName(args[0]))
}
