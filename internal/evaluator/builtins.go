package evaluator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/andreasronge/ptclisp/internal/diag"
)

// The builtin catalog is data-driven: every entry declares its arity
// shape and dispatch happens on argument count before the Go function is
// ever called. Groups register themselves from their files' init.

type AritySpec interface {
	dispatch(name string, n int) (BuiltinFn, *Error)
	arities() string
}

// Fixed accepts exactly N arguments.
type Fixed struct {
	N  int
	Fn BuiltinFn
}

func (s Fixed) dispatch(name string, n int) (BuiltinFn, *Error) {
	if n != s.N {
		return nil, arityErr(name, s, n)
	}
	return s.Fn, nil
}

func (s Fixed) arities() string { return fmt.Sprintf("%d", s.N) }

// Multi accepts a closed set of arities, each with its own function.
type Multi struct {
	Arities map[int]BuiltinFn
}

func (s Multi) dispatch(name string, n int) (BuiltinFn, *Error) {
	fn, ok := s.Arities[n]
	if !ok {
		return nil, arityErr(name, s, n)
	}
	return fn, nil
}

func (s Multi) arities() string {
	counts := make([]int, 0, len(s.Arities))
	for n := range s.Arities {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	parts := make([]string, len(counts))
	for i, n := range counts {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, " or ")
}

// Variadic accepts Min or more arguments.
type Variadic struct {
	Min int
	Fn  BuiltinFn
}

func (s Variadic) dispatch(name string, n int) (BuiltinFn, *Error) {
	if n < s.Min {
		return nil, arityErr(name, s, n)
	}
	return s.Fn, nil
}

func (s Variadic) arities() string { return fmt.Sprintf("%d or more", s.Min) }

// VariadicNonempty accepts one or more arguments.
type VariadicNonempty struct {
	Fn BuiltinFn
}

func (s VariadicNonempty) dispatch(name string, n int) (BuiltinFn, *Error) {
	if n < 1 {
		return nil, arityErr(name, s, n)
	}
	return s.Fn, nil
}

func (s VariadicNonempty) arities() string { return "1 or more" }

func arityErr(name string, spec AritySpec, got int) *Error {
	return newError(diag.ArityError,
		"(%s) takes %s arguments, got %d", name, spec.arities(), got)
}

var builtinCatalog = make(map[string]*Builtin)

func register(name string, spec AritySpec) {
	builtinCatalog[name] = &Builtin{Name: name, Spec: spec}
}

// BuiltinNames returns every stdlib name, sorted. Used by the shadow
// check and the symbol budget's core-symbol set.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinCatalog))
	for name := range builtinCatalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsBuiltinName reports whether name is a stdlib name.
func IsBuiltinName(name string) bool {
	_, ok := builtinCatalog[name]
	return ok
}

// --- Shared coercions ---

// asSequence views a value as an ordered slice of elements. Maps view as
// [k v] entry vectors; nil is the empty sequence.
func asSequence(obj Object) ([]Object, bool) {
	switch o := obj.(type) {
	case *Vector:
		return o.Items, true
	case *Set:
		return o.Items(), true
	case *Map:
		entries := make([]Object, 0, o.Len())
		o.Each(func(k, v Object) {
			entries = append(entries, &Vector{Items: []Object{k, v}})
		})
		return entries, true
	case *Nil:
		return nil, true
	}
	return nil, false
}

func requireSequence(name string, obj Object) ([]Object, *Error) {
	items, ok := asSequence(obj)
	if !ok {
		return nil, typeErrorf("(%s): expected a sequence, got %s", name, typeName(obj))
	}
	return items, nil
}

func requireMapOrNil(name string, obj Object) (*Map, *Error) {
	switch o := obj.(type) {
	case *Map:
		return o, nil
	case *Nil:
		return nil, nil
	}
	return nil, typeErrorf("(%s): expected a map, got %s", name, typeName(obj))
}

func requireString(name string, obj Object) (string, *Error) {
	s, ok := obj.(*String)
	if !ok {
		return "", typeErrorf("(%s): expected a string, got %s", name, typeName(obj))
	}
	return s.Value, nil
}

func requireInt(name string, obj Object) (int64, *Error) {
	i, ok := obj.(*Integer)
	if !ok {
		return 0, typeErrorf("(%s): expected an integer, got %s", name, typeName(obj))
	}
	return i.Value, nil
}

// requireCallable rejects the common LLM mistake of passing a field
// vector where a predicate belongs.
func requireCallable(name string, obj Object) *Error {
	switch obj.(type) {
	case *Function, *Builtin, *Keyword, *WherePred, *JuxtFn, *PredCombFn, *Map, *Set:
		return nil
	case *Vector:
		return typeErrorf(
			"(%s): a vector is not a predicate; use a single keyword, e.g. (%s :status coll)", name, name)
	}
	return typeErrorf("(%s): expected a function, got %s", name, typeName(obj))
}

// call1 applies a callable to one argument.
func (e *Evaluator) call1(fn, arg Object) Object {
	return e.Apply(fn, []Object{arg})
}
