package serializer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/andreasronge/ptclisp/internal/core"
)

// Printer renders core AST back into surface Lisp text. The output is a
// well-defined subset: everything the analyzer can produce round-trips
// through analyze(serialize(analyze(s))) == analyze(s).
type Printer struct {
	buf bytes.Buffer
}

func New() *Printer {
	return &Printer{}
}

// Print renders a single core node.
func Print(node core.Node) string {
	p := New()
	p.writeNode(node)
	return p.buf.String()
}

// PrintFn renders a closure's params and body, dropping its environment.
// Closures produced by #() expansion carry %N parameters, which are only
// readable inside a short-fn literal, so those print back as #(...).
func PrintFn(params []core.Pattern, variadic core.Pattern, body []core.Node) string {
	if variadic == nil && isShortFnShape(params, body) {
		p := New()
		p.writeNode(body[0])
		return "#" + p.buf.String()
	}
	p := New()
	p.buf.WriteString("(fn [")
	for i, pat := range params {
		if i > 0 {
			p.buf.WriteByte(' ')
		}
		p.writePattern(pat)
	}
	if variadic != nil {
		if len(params) > 0 {
			p.buf.WriteByte(' ')
		}
		p.buf.WriteString("& ")
		p.writePattern(variadic)
	}
	p.buf.WriteByte(']')
	for _, expr := range body {
		p.buf.WriteByte(' ')
		p.writeNode(expr)
	}
	p.buf.WriteByte(')')
	return p.buf.String()
}

// isShortFnShape detects the #() expansion: one body form that prints as
// a parenthesised call, with parameters %1..%N in order.
func isShortFnShape(params []core.Pattern, body []core.Node) bool {
	if len(params) == 0 || len(body) != 1 {
		return false
	}
	for i, pat := range params {
		vp, ok := pat.(core.VarPat)
		if !ok || vp.Name != fmt.Sprintf("%%%d", i+1) {
			return false
		}
	}
	switch body[0].(type) {
	case core.VectorLit, core.MapLit, core.SetLit, core.Nil, core.Bool,
		core.Int, core.Float, core.Str, core.Keyword, core.Var, core.Data,
		core.TurnRegister:
		return false
	}
	return true
}

func (p *Printer) writeNode(node core.Node) {
	switch n := node.(type) {
	case core.Nil:
		p.buf.WriteString("nil")
	case core.Bool:
		p.buf.WriteString(strconv.FormatBool(n.Value))
	case core.Int:
		p.buf.WriteString(strconv.FormatInt(n.Value, 10))
	case core.Float:
		s := strconv.FormatFloat(n.Value, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		p.buf.WriteString(s)
	case core.Str:
		p.buf.WriteString(strconv.Quote(n.Value))
	case core.Keyword:
		p.buf.WriteString(":" + n.Name)
	case core.Var:
		p.buf.WriteString(n.Name)
	case core.Data:
		p.buf.WriteString("ctx/" + n.Name)
	case core.TurnRegister:
		fmt.Fprintf(&p.buf, "*%d", n.Index)
	case core.BudgetRemaining:
		p.buf.WriteString("(budget-remaining)")
	case core.TurnHistory:
		p.buf.WriteString("(turn-history)")
	case core.MemoryGet:
		p.writeForm("memory/get", n.Key)
	case core.MemoryPut:
		p.writeForm("memory/put", n.Key, n.Value)
	case core.VectorLit:
		p.buf.WriteByte('[')
		p.writeSpaced(n.Items)
		p.buf.WriteByte(']')
	case core.MapLit:
		p.buf.WriteByte('{')
		for i, pair := range n.Pairs {
			if i > 0 {
				p.buf.WriteByte(' ')
			}
			p.writeNode(pair.Key)
			p.buf.WriteByte(' ')
			p.writeNode(pair.Value)
		}
		p.buf.WriteByte('}')
	case core.SetLit:
		p.buf.WriteString("#{")
		p.writeSpaced(n.Items)
		p.buf.WriteByte('}')
	case core.If:
		if n.Else != nil {
			p.writeForm("if", n.Cond, n.Then, n.Else)
		} else {
			p.writeForm("if", n.Cond, n.Then)
		}
	case core.Do:
		p.writeForm("do", n.Exprs...)
	case core.And:
		p.writeForm("and", n.Exprs...)
	case core.Or:
		p.writeForm("or", n.Exprs...)
	case core.Let:
		p.writeBindingForm("let", n.Bindings, n.Body)
	case core.Loop:
		p.writeBindingForm("loop", n.Bindings, n.Body)
	case core.Recur:
		p.writeForm("recur", n.Args...)
	case core.Fn:
		p.buf.WriteString(PrintFn(n.Params, n.Variadic, n.Body))
	case core.Def:
		p.buf.WriteString("(def " + n.Name + " ")
		p.writeNode(n.Value)
		p.buf.WriteByte(')')
	case core.Call:
		p.buf.WriteByte('(')
		p.writeNode(n.Fn)
		for _, arg := range n.Args {
			p.buf.WriteByte(' ')
			p.writeNode(arg)
		}
		p.buf.WriteByte(')')
	case core.CallTool:
		ns := "tool"
		if n.ViaCtx {
			ns = "ctx"
		}
		p.buf.WriteString("(" + ns + "/" + n.Name)
		if n.Arg != nil {
			p.buf.WriteByte(' ')
			p.writeNode(n.Arg)
		}
		p.buf.WriteByte(')')
	case core.Task:
		p.buf.WriteString("(task ")
		p.writeNode(n.ID)
		for _, expr := range n.Body {
			p.buf.WriteByte(' ')
			p.writeNode(expr)
		}
		p.buf.WriteByte(')')
	case core.StepDone:
		p.writeForm("step-done", n.ID, n.Text)
	case core.TaskReset:
		p.writeForm("task-reset", n.ID)
	case core.Pmap:
		p.writeForm("pmap", n.Fn, n.Coll)
	case core.Pcalls:
		p.writeForm("pcalls", n.Thunks...)
	case core.Juxt:
		p.writeForm("juxt", n.Fns...)
	case core.Where:
		p.buf.WriteString("(where ")
		p.writeWherePath(n.Path)
		if n.Op != core.WhereTruthy {
			p.buf.WriteByte(' ')
			p.buf.WriteString(whereOpName(n.Op))
			p.buf.WriteByte(' ')
			p.writeNode(n.Value)
		}
		p.buf.WriteByte(')')
	case core.PredComb:
		p.writeForm(n.Kind, n.Preds...)
	case core.Return:
		p.writeForm("return", n.Expr)
	case core.Fail:
		p.writeForm("fail", n.Expr)
	default:
		fmt.Fprintf(&p.buf, "#<unprintable %T>", node)
	}
}

func (p *Printer) writeSpaced(nodes []core.Node) {
	for i, node := range nodes {
		if i > 0 {
			p.buf.WriteByte(' ')
		}
		p.writeNode(node)
	}
}

func (p *Printer) writeForm(name string, args ...core.Node) {
	p.buf.WriteString("(" + name)
	for _, arg := range args {
		p.buf.WriteByte(' ')
		p.writeNode(arg)
	}
	p.buf.WriteByte(')')
}

func (p *Printer) writeBindingForm(name string, bindings []core.Binding, body []core.Node) {
	p.buf.WriteString("(" + name + " [")
	for i, b := range bindings {
		if i > 0 {
			p.buf.WriteByte(' ')
		}
		p.writePattern(b.Pattern)
		p.buf.WriteByte(' ')
		p.writeNode(b.Value)
	}
	p.buf.WriteByte(']')
	for _, expr := range body {
		p.buf.WriteByte(' ')
		p.writeNode(expr)
	}
	p.buf.WriteByte(')')
}

func (p *Printer) writePattern(pat core.Pattern) {
	switch pt := pat.(type) {
	case core.VarPat:
		p.buf.WriteString(pt.Name)
	case core.SeqPat:
		p.buf.WriteByte('[')
		for i, item := range pt.Items {
			if i > 0 {
				p.buf.WriteByte(' ')
			}
			p.writePattern(item)
		}
		p.buf.WriteByte(']')
	case core.SeqRestPat:
		p.buf.WriteByte('[')
		for i, item := range pt.Items {
			if i > 0 {
				p.buf.WriteByte(' ')
			}
			p.writePattern(item)
		}
		if len(pt.Items) > 0 {
			p.buf.WriteByte(' ')
		}
		p.buf.WriteString("& ")
		p.writePattern(pt.Rest)
		p.buf.WriteByte(']')
	case core.MapPat:
		p.writeMapPattern(pt, "")
	case core.AsPat:
		if inner, ok := pt.Inner.(core.MapPat); ok {
			p.writeMapPattern(inner, pt.Alias)
			return
		}
		p.writePattern(pt.Inner)
	}
}

func (p *Printer) writeMapPattern(pt core.MapPat, alias string) {
	p.buf.WriteByte('{')
	wrote := false
	sep := func() {
		if wrote {
			p.buf.WriteByte(' ')
		}
		wrote = true
	}
	if len(pt.Keys) > 0 {
		sep()
		p.buf.WriteString(":keys [")
		p.buf.WriteString(strings.Join(pt.Keys, " "))
		p.buf.WriteByte(']')
	}
	for _, rename := range pt.Renames {
		sep()
		p.buf.WriteString(rename.Local + " :" + rename.Key)
	}
	if len(pt.Defaults) > 0 {
		sep()
		p.buf.WriteString(":or {")
		for i, def := range pt.Defaults {
			if i > 0 {
				p.buf.WriteByte(' ')
			}
			p.buf.WriteString(def.Name + " ")
			p.writeNode(def.Value)
		}
		p.buf.WriteByte('}')
	}
	if alias != "" {
		sep()
		p.buf.WriteString(":as " + alias)
	}
	p.buf.WriteByte('}')
}

func (p *Printer) writeWherePath(path []string) {
	if len(path) == 1 {
		p.buf.WriteString(":" + path[0])
		return
	}
	p.buf.WriteByte('[')
	for i, key := range path {
		if i > 0 {
			p.buf.WriteByte(' ')
		}
		p.buf.WriteString(":" + key)
	}
	p.buf.WriteByte(']')
}

func whereOpName(op core.WhereOp) string {
	switch op {
	case core.WhereEq:
		return "="
	case core.WhereNotEq:
		return "not="
	case core.WhereGt:
		return ">"
	case core.WhereLt:
		return "<"
	case core.WhereGte:
		return ">="
	case core.WhereLte:
		return "<="
	case core.WhereIncludes:
		return "includes"
	case core.WhereIn:
		return "in"
	}
	return string(op)
}
