package ptclisp

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/andreasronge/ptclisp/internal/core"
	"github.com/andreasronge/ptclisp/internal/evaluator"
	"github.com/andreasronge/ptclisp/internal/pipeline"
	"github.com/andreasronge/ptclisp/internal/serializer"
)

// Marshaller handles conversion between Go and runtime values.
type Marshaller struct{}

func NewMarshaller() *Marshaller {
	return &Marshaller{}
}

// ToValue converts a Go value to a runtime Object. Map keys become
// keywords, matching how programs address context and tool data.
func (m *Marshaller) ToValue(val any) (evaluator.Object, error) {
	if val == nil {
		return evaluator.NilValue, nil
	}

	switch v := val.(type) {
	case evaluator.Object:
		return v, nil
	case Keyword:
		return &evaluator.Keyword{Name: string(v)}, nil
	case Closure:
		return m.closureFromSource(v.Source)
	case *Closure:
		return m.closureFromSource(v.Source)
	case time.Time:
		return &evaluator.Date{Time: v}, nil
	case string:
		return &evaluator.String{Value: v}, nil
	case bool:
		return boolObject(v), nil
	}

	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &evaluator.Integer{Value: rv.Int()}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &evaluator.Integer{Value: int64(rv.Uint())}, nil
	case reflect.Float32, reflect.Float64:
		return &evaluator.Float{Value: rv.Float()}, nil
	case reflect.Slice, reflect.Array:
		items := make([]evaluator.Object, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := m.ToValue(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return &evaluator.Vector{Items: items}, nil
	case reflect.Map:
		out := evaluator.NewMap()
		mapKeys := rv.MapKeys()
		sort.Slice(mapKeys, func(i, j int) bool {
			return fmt.Sprint(mapKeys[i].Interface()) < fmt.Sprint(mapKeys[j].Interface())
		})
		for _, mk := range mapKeys {
			key, err := m.mapKey(mk.Interface())
			if err != nil {
				return nil, err
			}
			v, err := m.ToValue(rv.MapIndex(mk).Interface())
			if err != nil {
				return nil, err
			}
			out.Set(key, v)
		}
		return out, nil
	case reflect.Struct:
		out := evaluator.NewMap()
		rt := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			field := rt.Field(i)
			if field.PkgPath != "" { // skip unexported fields
				continue
			}
			v, err := m.ToValue(rv.Field(i).Interface())
			if err != nil {
				return nil, err
			}
			out.Set(&evaluator.Keyword{Name: field.Name}, v)
		}
		return out, nil
	case reflect.Ptr:
		if rv.IsNil() {
			return evaluator.NilValue, nil
		}
		return m.ToValue(rv.Elem().Interface())
	}
	return nil, fmt.Errorf("unsupported value type %T", val)
}

func (m *Marshaller) mapKey(key any) (evaluator.Object, error) {
	switch k := key.(type) {
	case string:
		return &evaluator.Keyword{Name: k}, nil
	case Keyword:
		return &evaluator.Keyword{Name: string(k)}, nil
	}
	obj, err := m.ToValue(key)
	if err != nil {
		return nil, err
	}
	switch obj.(type) {
	case *evaluator.Integer, *evaluator.Float, *evaluator.Boolean, *evaluator.Keyword, *evaluator.String:
		return obj, nil
	}
	return nil, fmt.Errorf("unsupported map key type %T", key)
}

// FromValue converts a runtime Object back to a Go value. Closures come
// back as Closure references; map keys flatten to strings.
func (m *Marshaller) FromValue(obj evaluator.Object) any {
	switch o := obj.(type) {
	case nil, *evaluator.Nil:
		return nil
	case *evaluator.Boolean:
		return o.Value
	case *evaluator.Integer:
		return o.Value
	case *evaluator.Float:
		return o.Value
	case *evaluator.String:
		return o.Value
	case *evaluator.Keyword:
		return Keyword(o.Name)
	case *evaluator.Vector:
		out := make([]any, len(o.Items))
		for i, item := range o.Items {
			out[i] = m.FromValue(item)
		}
		return out
	case *evaluator.Set:
		items := o.Items()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = m.FromValue(item)
		}
		return out
	case *evaluator.Map:
		out := make(map[string]any, o.Len())
		o.Each(func(k, v evaluator.Object) {
			out[flattenKey(k)] = m.FromValue(v)
		})
		return out
	case *evaluator.Date:
		return o.Time
	case *evaluator.Function:
		return Closure{Source: serializer.PrintFn(o.Params, o.Variadic, o.Body)}
	case *evaluator.Regex:
		return o.Source
	case *evaluator.Var:
		return "#'" + o.Name
	case *evaluator.Builtin:
		return "#<builtin " + o.Name + ">"
	}
	return obj.Inspect()
}

func flattenKey(key evaluator.Object) string {
	switch k := key.(type) {
	case *evaluator.Keyword:
		return k.Name
	case *evaluator.String:
		return k.Value
	}
	return key.Inspect()
}

// closureFromSource rebuilds a closure from its serialized fn form. The
// captured environment was dropped at export; name resolution at call
// time goes through the user namespace, so mutually recursive functions
// still work.
func (m *Marshaller) closureFromSource(src string) (evaluator.Object, error) {
	ctx := pipeline.NewPipelineContext(src)
	ctx = pipeline.New(
		&pipeline.LexerProcessor{},
		&pipeline.ParserProcessor{},
		&pipeline.AnalyzerProcessor{},
	).Run(ctx)
	if ctx.Err != nil {
		return nil, fmt.Errorf("invalid closure source: %s", ctx.Err.Message)
	}
	fn, ok := ctx.CoreRoot.(core.Fn)
	if !ok {
		return nil, fmt.Errorf("closure source must be a single fn form")
	}
	return &evaluator.Function{
		Params:   fn.Params,
		Variadic: fn.Variadic,
		Body:     fn.Body,
		Env:      evaluator.NewEnvironment(),
		Doc:      fn.Doc,
	}, nil
}

func boolObject(b bool) evaluator.Object {
	if b {
		return evaluator.TrueValue
	}
	return evaluator.FalseValue
}
