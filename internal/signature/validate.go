package signature

import (
	"fmt"

	"github.com/andreasronge/ptclisp/internal/diag"
	"github.com/andreasronge/ptclisp/internal/evaluator"
)

// ValidateContext checks the supplied context map against the parameter
// list. Nothing is coerced; a mismatch reports the offending path.
func (s *Signature) ValidateContext(ctx *evaluator.Map) *diag.Error {
	for _, param := range s.Params {
		val, ok := ctx.GetFlex(&evaluator.Keyword{Name: param.Name})
		if !ok {
			return diag.Newf(diag.ValidationError,
				"missing context key %q required by signature", param.Name).
				With("path", param.Name)
		}
		if err := checkType(param.Type, val, param.Name); err != nil {
			return err
		}
	}
	return nil
}

// ValidateReturn checks the final value against the output type.
func (s *Signature) ValidateReturn(val evaluator.Object) *diag.Error {
	if s.Output == nil {
		return nil
	}
	return checkType(s.Output, val, "return")
}

func checkType(t Type, val evaluator.Object, path string) *diag.Error {
	mismatch := func(expected string) *diag.Error {
		return diag.Newf(diag.ValidationError,
			"%s: expected %s, got %s", path, expected, describe(val)).
			With("path", path)
	}

	switch typ := t.(type) {
	case Prim:
		switch typ.Kind {
		case "any":
			return nil
		case "string":
			if _, ok := val.(*evaluator.String); !ok {
				return mismatch(":string")
			}
		case "int":
			if _, ok := val.(*evaluator.Integer); !ok {
				return mismatch(":int")
			}
		case "float":
			switch val.(type) {
			case *evaluator.Float, *evaluator.Integer:
			default:
				return mismatch(":float")
			}
		case "bool":
			if _, ok := val.(*evaluator.Boolean); !ok {
				return mismatch(":bool")
			}
		case "keyword":
			if _, ok := val.(*evaluator.Keyword); !ok {
				return mismatch(":keyword")
			}
		case "map":
			if _, ok := val.(*evaluator.Map); !ok {
				return mismatch(":map")
			}
		}
		return nil

	case List:
		vec, ok := val.(*evaluator.Vector)
		if !ok {
			return mismatch(typ.String())
		}
		for i, item := range vec.Items {
			if err := checkType(typ.Elem, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil

	case Record:
		m, ok := val.(*evaluator.Map)
		if !ok {
			return mismatch(typ.String())
		}
		for _, field := range typ.Fields {
			fieldVal, present := m.GetFlex(&evaluator.Keyword{Name: field.Name})
			fieldPath := path + "." + field.Name
			if !present {
				if field.Optional {
					continue
				}
				return diag.Newf(diag.ValidationError,
					"%s: missing required field", fieldPath).With("path", fieldPath)
			}
			if field.Optional {
				if _, isNil := fieldVal.(*evaluator.Nil); isNil {
					continue
				}
			}
			if err := checkType(field.Type, fieldVal, fieldPath); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func describe(val evaluator.Object) string {
	if val == nil {
		return "nil"
	}
	switch val.(type) {
	case *evaluator.Nil:
		return "nil"
	case *evaluator.Integer:
		return ":int"
	case *evaluator.Float:
		return ":float"
	case *evaluator.String:
		return ":string"
	case *evaluator.Boolean:
		return ":bool"
	case *evaluator.Keyword:
		return ":keyword"
	case *evaluator.Map:
		return "a map"
	case *evaluator.Vector:
		return "a vector"
	case *evaluator.Set:
		return "a set"
	}
	return "an unsupported value"
}
