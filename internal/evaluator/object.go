package evaluator

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andreasronge/ptclisp/internal/core"
)

type ObjectType string

const (
	NIL_OBJ     = "NIL"
	BOOLEAN_OBJ = "BOOLEAN"
	INTEGER_OBJ = "INTEGER"
	FLOAT_OBJ   = "FLOAT"
	STRING_OBJ  = "STRING"
	KEYWORD_OBJ = "KEYWORD"
	VECTOR_OBJ  = "VECTOR"
	MAP_OBJ     = "MAP"
	SET_OBJ     = "SET"

	FUNCTION_OBJ = "FUNCTION"
	BUILTIN_OBJ  = "BUILTIN"
	VAR_OBJ      = "VAR"
	WHERE_OBJ    = "WHERE"
	JUXT_OBJ     = "JUXT"
	PRED_OBJ     = "PRED"

	DATE_OBJ  = "DATE"
	REGEX_OBJ = "REGEX"

	ERROR_OBJ  = "ERROR"
	RETURN_OBJ = "RETURN_SIGNAL"
	FAIL_OBJ   = "FAIL_SIGNAL"
	RECUR_OBJ  = "RECUR_SIGNAL"
)

type Object interface {
	Type() ObjectType
	Inspect() string
}

// --- Scalars ---

type Nil struct{}

func (n *Nil) Type() ObjectType { return NIL_OBJ }
func (n *Nil) Inspect() string  { return "nil" }

type Boolean struct{ Value bool }

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

type Integer struct{ Value int64 }

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }

type Float struct{ Value float64 }

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string  { return formatFloat(f.Value) }

type String struct{ Value string }

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return strconv.Quote(s.Value) }

type Keyword struct{ Name string }

func (k *Keyword) Type() ObjectType { return KEYWORD_OBJ }
func (k *Keyword) Inspect() string  { return ":" + k.Name }

// --- Collections ---

type Vector struct{ Items []Object }

func (v *Vector) Type() ObjectType { return VECTOR_OBJ }
func (v *Vector) Inspect() string {
	parts := make([]string, len(v.Items))
	for i, item := range v.Items {
		parts[i] = item.Inspect()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Map is an insertion-ordered map. Keys are indexed through hashKey, so
// scalars and dates match by value and any other key by its rendered
// form; re-assoc of an existing key keeps its original position.
type Map struct {
	keys  []Object
	vals  []Object
	index map[string]int
}

func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

func (m *Map) Type() ObjectType { return MAP_OBJ }
func (m *Map) Inspect() string {
	parts := make([]string, 0, len(m.keys))
	for i, k := range m.keys {
		parts = append(parts, k.Inspect()+" "+m.vals[i].Inspect())
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func (m *Map) Len() int { return len(m.keys) }

// Set associates key with val, later writes winning over earlier ones.
func (m *Map) Set(key, val Object) {
	hk := hashKey(key)
	if i, ok := m.index[hk]; ok {
		m.vals[i] = val
		return
	}
	m.index[hk] = len(m.keys)
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, val)
}

// Get returns the value for an exactly-equal key.
func (m *Map) Get(key Object) (Object, bool) {
	i, ok := m.index[hashKey(key)]
	if !ok {
		return nil, false
	}
	return m.vals[i], true
}

// GetFlex tries the key as given, then its keyword/string twin.
func (m *Map) GetFlex(key Object) (Object, bool) {
	if val, ok := m.Get(key); ok {
		return val, true
	}
	switch k := key.(type) {
	case *Keyword:
		return m.Get(&String{Value: k.Name})
	case *String:
		return m.Get(&Keyword{Name: k.Value})
	}
	return nil, false
}

// HasFlex reports whether the key (or its twin) is present, even when the
// stored value is nil.
func (m *Map) HasFlex(key Object) bool {
	_, ok := m.GetFlex(key)
	return ok
}

func (m *Map) Delete(key Object) {
	hk := hashKey(key)
	i, ok := m.index[hk]
	if !ok {
		return
	}
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.vals = append(m.vals[:i], m.vals[i+1:]...)
	delete(m.index, hk)
	for j := i; j < len(m.keys); j++ {
		m.index[hashKey(m.keys[j])] = j
	}
}

func (m *Map) Keys() []Object { return m.keys }
func (m *Map) Vals() []Object { return m.vals }

// Each visits entries in insertion order.
func (m *Map) Each(f func(k, v Object)) {
	for i, k := range m.keys {
		f(k, m.vals[i])
	}
}

func (m *Map) Copy() *Map {
	out := NewMap()
	m.Each(func(k, v Object) { out.Set(k, v) })
	return out
}

// Set is an unordered collection rendered in sorted-hash order for
// deterministic output.
type Set struct {
	items map[string]Object
}

func NewSet() *Set {
	return &Set{items: make(map[string]Object)}
}

func (s *Set) Type() ObjectType { return SET_OBJ }
func (s *Set) Inspect() string {
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, s.items[k].Inspect())
	}
	return "#{" + strings.Join(parts, " ") + "}"
}

func (s *Set) Len() int             { return len(s.items) }
func (s *Set) Add(obj Object)       { s.items[hashKey(obj)] = obj }
func (s *Set) Has(obj Object) bool  { _, ok := s.items[hashKey(obj)]; return ok }
func (s *Set) Remove(obj Object)    { delete(s.items, hashKey(obj)) }

// Items returns the elements in deterministic (hash-sorted) order.
func (s *Set) Items() []Object {
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Object, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.items[k])
	}
	return out
}

func (s *Set) Copy() *Set {
	out := NewSet()
	for _, v := range s.items {
		out.Add(v)
	}
	return out
}

// --- Callables ---

// Function is a closure: parameter patterns, body, a snapshot of the
// lexical environment, and the turn history current at creation time.
type Function struct {
	Params      []core.Pattern
	Variadic    core.Pattern
	Body        []core.Node
	Env         *Environment
	TurnHistory []Object
	Doc         string
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string  { return "#<fn>" }

// FixedArity returns the number of fixed parameters.
func (f *Function) FixedArity() int { return len(f.Params) }

type BuiltinFn func(e *Evaluator, args []Object) Object

// Builtin is one catalog entry; its Spec drives data-driven arity dispatch.
type Builtin struct {
	Name string
	Spec AritySpec
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "#<builtin " + b.Name + ">" }

// Var is the sentinel value returned by def, so a binding can be observed
// without printing its body.
type Var struct{ Name string }

func (v *Var) Type() ObjectType { return VAR_OBJ }
func (v *Var) Inspect() string  { return "#'" + v.Name }

// WherePred is the runtime predicate produced by (where ...).
type WherePred struct {
	Path  []string
	Op    core.WhereOp
	Value Object // nil for truthy form
}

func (w *WherePred) Type() ObjectType { return WHERE_OBJ }
func (w *WherePred) Inspect() string  { return "#<where>" }

// JuxtFn applies each wrapped function and collects results in a vector.
type JuxtFn struct{ Fns []Object }

func (j *JuxtFn) Type() ObjectType { return JUXT_OBJ }
func (j *JuxtFn) Inspect() string  { return "#<juxt>" }

// PredCombFn is the runtime value of all-of / any-of / none-of.
type PredCombFn struct {
	Kind  string
	Preds []Object
}

func (p *PredCombFn) Type() ObjectType { return PRED_OBJ }
func (p *PredCombFn) Inspect() string  { return "#<" + p.Kind + ">" }

// --- Host data ---

type Date struct{ Time time.Time }

func (d *Date) Type() ObjectType { return DATE_OBJ }
func (d *Date) Inspect() string  { return "#inst \"" + d.Time.UTC().Format(time.RFC3339) + "\"" }

type Regex struct {
	Source string
	Re     *regexp.Regexp
}

func (r *Regex) Type() ObjectType { return REGEX_OBJ }
func (r *Regex) Inspect() string  { return "#\"" + r.Source + "\"" }

// --- Signals ---

// Error is an in-band failure value; Reason is a diag taxonomy atom.
type Error struct {
	Reason  string
	Message string
	Details map[string]any
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string  { return "#<error " + e.Reason + ": " + e.Message + ">" }

// ReturnSignal short-circuits the run with a final value.
type ReturnSignal struct{ Value Object }

func (r *ReturnSignal) Type() ObjectType { return RETURN_OBJ }
func (r *ReturnSignal) Inspect() string  { return "#<return>" }

// FailSignal short-circuits the run with a user failure payload.
type FailSignal struct{ Value Object }

func (f *FailSignal) Type() ObjectType { return FAIL_OBJ }
func (f *FailSignal) Inspect() string  { return "#<fail>" }

// RecurSignal carries rebind arguments to the enclosing recursion point.
// It never escapes loop or function application.
type RecurSignal struct{ Args []Object }

func (r *RecurSignal) Type() ObjectType { return RECUR_OBJ }
func (r *RecurSignal) Inspect() string  { return "#<recur>" }

// --- Shared singletons ---

var (
	NilValue   = &Nil{}
	TrueValue  = &Boolean{Value: true}
	FalseValue = &Boolean{Value: false}
)

func boolValue(b bool) *Boolean {
	if b {
		return TrueValue
	}
	return FalseValue
}

// hashKey renders a hashable scalar into a stable string key for map and
// set indexes. Collection keys hash by rendered content.
func hashKey(obj Object) string {
	switch o := obj.(type) {
	case *Nil:
		return "0"
	case *Boolean:
		return "b" + strconv.FormatBool(o.Value)
	case *Integer:
		return "i" + strconv.FormatInt(o.Value, 10)
	case *Float:
		if o.Value == float64(int64(o.Value)) {
			// Integral floats hash like ints so 1 and 1.0 collide as keys.
			return "i" + strconv.FormatInt(int64(o.Value), 10)
		}
		return "f" + strconv.FormatFloat(o.Value, 'g', -1, 64)
	case *String:
		return "s" + o.Value
	case *Keyword:
		return "k" + o.Name
	case *Date:
		return "d" + strconv.FormatInt(o.Time.UnixMilli(), 10)
	default:
		return "x" + obj.Inspect()
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// typeName renders an object's type for error messages.
func typeName(obj Object) string {
	if obj == nil {
		return "nil"
	}
	return strings.ToLower(string(obj.Type()))
}
