package evaluator

import (
	"math"
	"strings"
)

// renderValue produces the Clojure-like notation used by println and the
// Step record. precision >= 0 rounds floats to that many decimals.
func renderValue(obj Object, precision int) string {
	switch o := obj.(type) {
	case *Float:
		return formatFloat(roundFloat(o.Value, precision))
	case *Vector:
		parts := make([]string, len(o.Items))
		for i, item := range o.Items {
			parts[i] = renderValue(item, precision)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case *Map:
		parts := make([]string, 0, o.Len())
		o.Each(func(k, v Object) {
			parts = append(parts, renderValue(k, precision)+" "+renderValue(v, precision))
		})
		return "{" + strings.Join(parts, " ") + "}"
	case *Set:
		items := o.Items()
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = renderValue(item, precision)
		}
		return "#{" + strings.Join(parts, " ") + "}"
	}
	return obj.Inspect()
}

// printString is renderValue except top-level strings print verbatim.
func printString(obj Object, precision int) string {
	if s, ok := obj.(*String); ok {
		return s.Value
	}
	return renderValue(obj, precision)
}

func roundFloat(f float64, precision int) float64 {
	if precision < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	shift := math.Pow(10, float64(precision))
	return math.Round(f*shift) / shift
}

// RoundFloats walks a value and rounds every float to the configured
// precision, returning a rewritten value. Applied to the Step's return
// value when float_precision is set.
func RoundFloats(obj Object, precision int) Object {
	if precision < 0 {
		return obj
	}
	switch o := obj.(type) {
	case *Float:
		return &Float{Value: roundFloat(o.Value, precision)}
	case *Vector:
		items := make([]Object, len(o.Items))
		for i, item := range o.Items {
			items[i] = RoundFloats(item, precision)
		}
		return &Vector{Items: items}
	case *Map:
		out := NewMap()
		o.Each(func(k, v Object) {
			out.Set(RoundFloats(k, precision), RoundFloats(v, precision))
		})
		return out
	case *Set:
		out := NewSet()
		for _, item := range o.Items() {
			out.Add(RoundFloats(item, precision))
		}
		return out
	}
	return obj
}

// RenderForHost renders a value the way println does, for hosts that
// need the user-facing notation (e.g. a fail payload message).
func RenderForHost(obj Object, precision int) string {
	return printString(obj, precision)
}

func stringContains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
