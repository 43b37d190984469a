package evaluator

import (
	"github.com/andreasronge/ptclisp/internal/core"
)

// match binds value to pattern inside env. It returns nil on success or
// an *Error. nil values destructure leniently: every name binds nil.
func (e *Evaluator) match(pattern core.Pattern, value Object, env *Environment) Object {
	switch pat := pattern.(type) {
	case core.VarPat:
		env.Set(pat.Name, value)
		return nil

	case core.SeqPat:
		items, err := sequenceForPattern(value)
		if err != nil {
			return err
		}
		for i, sub := range pat.Items {
			var el Object = NilValue
			if i < len(items) {
				el = items[i]
			}
			if merr := e.match(sub, el, env); merr != nil {
				return merr
			}
		}
		return nil

	case core.SeqRestPat:
		items, err := sequenceForPattern(value)
		if err != nil {
			return err
		}
		for i, sub := range pat.Items {
			var el Object = NilValue
			if i < len(items) {
				el = items[i]
			}
			if merr := e.match(sub, el, env); merr != nil {
				return merr
			}
		}
		rest := &Vector{}
		if len(items) > len(pat.Items) {
			rest.Items = append(rest.Items, items[len(pat.Items):]...)
		}
		return e.match(pat.Rest, rest, env)

	case core.MapPat:
		m, err := mapForPattern(value)
		if err != nil {
			return err
		}
		bind := func(local, key string) Object {
			if m != nil {
				if val, ok := m.GetFlex(&Keyword{Name: key}); ok {
					// Explicit nil is a present value; :or does not apply.
					env.Set(local, val)
					return nil
				}
			}
			if def, ok := findDefault(pat.Defaults, local); ok {
				val := e.Eval(def, env)
				if isAbort(val) {
					return val
				}
				env.Set(local, val)
				return nil
			}
			env.Set(local, NilValue)
			return nil
		}
		for _, name := range pat.Keys {
			if berr := bind(name, name); berr != nil {
				return berr
			}
		}
		for _, rename := range pat.Renames {
			if berr := bind(rename.Local, rename.Key); berr != nil {
				return berr
			}
		}
		return nil

	case core.AsPat:
		env.Set(pat.Alias, value)
		return e.match(pat.Inner, value, env)
	}

	return typeErrorf("unsupported pattern %T", pattern)
}

func findDefault(defaults []core.Default, name string) (core.Node, bool) {
	for _, def := range defaults {
		if def.Name == name {
			return def.Value, true
		}
	}
	return nil, false
}

func sequenceForPattern(value Object) ([]Object, *Error) {
	switch v := value.(type) {
	case *Vector:
		return v.Items, nil
	case *Nil:
		return nil, nil
	}
	return nil, typeErrorf("cannot destructure %s as a sequence", typeName(value))
}

func mapForPattern(value Object) (*Map, *Error) {
	switch v := value.(type) {
	case *Map:
		return v, nil
	case *Nil:
		return nil, nil
	}
	return nil, typeErrorf("cannot destructure %s as a map", typeName(value))
}
