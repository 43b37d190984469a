package serializer

import (
	"strconv"
	"strings"

	"github.com/andreasronge/ptclisp/internal/evaluator"
)

// PrintValue renders a runtime value as parseable source text. Closures
// render as fn forms (their captured environment is dropped); dates and
// regexes render as the calls that rebuild them.
func PrintValue(obj evaluator.Object) string {
	switch o := obj.(type) {
	case *evaluator.Nil:
		return "nil"
	case *evaluator.Boolean:
		return strconv.FormatBool(o.Value)
	case *evaluator.Integer:
		return strconv.FormatInt(o.Value, 10)
	case *evaluator.Float:
		s := strconv.FormatFloat(o.Value, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case *evaluator.String:
		return strconv.Quote(o.Value)
	case *evaluator.Keyword:
		return ":" + o.Name
	case *evaluator.Vector:
		parts := make([]string, len(o.Items))
		for i, item := range o.Items {
			parts[i] = PrintValue(item)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case *evaluator.Map:
		parts := make([]string, 0, o.Len())
		o.Each(func(k, v evaluator.Object) {
			parts = append(parts, PrintValue(k)+" "+PrintValue(v))
		})
		return "{" + strings.Join(parts, " ") + "}"
	case *evaluator.Set:
		items := o.Items()
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = PrintValue(item)
		}
		return "#{" + strings.Join(parts, " ") + "}"
	case *evaluator.Function:
		return PrintFn(o.Params, o.Variadic, o.Body)
	case *evaluator.Regex:
		return "(re-pattern " + strconv.Quote(o.Source) + ")"
	case *evaluator.Date:
		return "(LocalDate/parse " + strconv.Quote(o.Time.UTC().Format("2006-01-02")) + ")"
	case *evaluator.Var:
		return "#'" + o.Name
	}
	return obj.Inspect()
}

// ExportNamespace renders the user namespace as a do block of def forms,
// so a later turn can rehydrate its bindings by re-running the export.
func ExportNamespace(ns *evaluator.Namespace) string {
	names := ns.Names()
	if len(names) == 0 {
		return "(do)"
	}
	var sb strings.Builder
	sb.WriteString("(do")
	for _, name := range names {
		val, ok := ns.Get(name)
		if !ok {
			continue
		}
		sb.WriteString(" (def " + name + " " + PrintValue(val) + ")")
	}
	sb.WriteString(")")
	return sb.String()
}
