package analyzer

import (
	"github.com/andreasronge/ptclisp/internal/ast"
	"github.com/andreasronge/ptclisp/internal/core"
	"github.com/andreasronge/ptclisp/internal/diag"
)

type specialFormFn func(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error)

var specialForms map[string]specialFormFn

func init() {
	specialForms = map[string]specialFormFn{
		"if":               analyzeIf,
		"do":               analyzeDo,
		"when":             analyzeWhen,
		"cond":             analyzeCond,
		"and":              analyzeAnd,
		"or":               analyzeOr,
		"let":              analyzeLet,
		"loop":             analyzeLoop,
		"recur":            analyzeRecurForm,
		"fn":               analyzeFn,
		"def":              analyzeDef,
		"defn":             analyzeDefn,
		"if-let":           analyzeIfLet,
		"when-let":         analyzeWhenLet,
		"->":               analyzeThreadFirst,
		"->>":              analyzeThreadLast,
		"juxt":             analyzeJuxt,
		"pcalls":           analyzePcalls,
		"pmap":             analyzePmap,
		"task":             analyzeTask,
		"task-reset":       analyzeTaskReset,
		"step-done":        analyzeStepDone,
		"where":            analyzeWhere,
		"all-of":           analyzePredComb,
		"any-of":           analyzePredComb,
		"none-of":          analyzePredComb,
		"call":             analyzeCallForm,
		"return":           analyzeReturn,
		"fail":             analyzeFail,
		"budget-remaining": analyzeBudgetRemaining,
		"turn-history":     analyzeTurnHistory,
	}
}

// SpecialFormNames lists the analyzer-owned form names, used by the
// symbol budget's core-symbol set.
func SpecialFormNames() []string {
	names := make([]string, 0, len(specialForms))
	for name := range specialForms {
		names = append(names, name)
	}
	return names
}

func arityError(head *ast.Symbol, msg string) *diag.Error {
	return diag.Newf(diag.InvalidArity, "(%s): %s", head.Name, msg).At(head.Token)
}

func analyzeIf(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) < 3 || len(n.Items) > 4 {
		return nil, arityError(head, "expected (if test then else?)")
	}
	cond, err := a.Analyze(n.Items[1])
	if err != nil {
		return nil, err
	}
	then, err := a.Analyze(n.Items[2])
	if err != nil {
		return nil, err
	}
	var els core.Node
	if len(n.Items) == 4 {
		els, err = a.Analyze(n.Items[3])
		if err != nil {
			return nil, err
		}
	}
	return core.If{Cond: cond, Then: then, Else: els}, nil
}

func analyzeDo(a *Analyzer, n *ast.List, _ *ast.Symbol) (core.Node, *diag.Error) {
	exprs, err := a.analyzeAll(n.Items[1:])
	if err != nil {
		return nil, err
	}
	if len(exprs) == 0 {
		return core.Nil{}, nil
	}
	return core.Do{Exprs: exprs}, nil
}

func analyzeWhen(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) < 2 {
		return nil, arityError(head, "expected (when test body...)")
	}
	cond, err := a.Analyze(n.Items[1])
	if err != nil {
		return nil, err
	}
	body, err := a.analyzeAll(n.Items[2:])
	if err != nil {
		return nil, err
	}
	var then core.Node = core.Nil{}
	if len(body) == 1 {
		then = body[0]
	} else if len(body) > 1 {
		then = core.Do{Exprs: body}
	}
	return core.If{Cond: cond, Then: then}, nil
}

func analyzeCond(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	clauses := n.Items[1:]
	if len(clauses)%2 != 0 {
		return nil, diag.New(diag.InvalidCondForm,
			"(cond) requires an even number of test/result forms").At(head.Token)
	}
	// Build nested ifs from the last clause backwards.
	var node core.Node = core.Nil{}
	for i := len(clauses) - 2; i >= 0; i -= 2 {
		var test core.Node
		if kw, ok := clauses[i].(*ast.Keyword); ok && kw.Name == "else" {
			test = core.Bool{Value: true}
		} else {
			var err *diag.Error
			test, err = a.Analyze(clauses[i])
			if err != nil {
				return nil, err
			}
		}
		result, err := a.Analyze(clauses[i+1])
		if err != nil {
			return nil, err
		}
		node = core.If{Cond: test, Then: result, Else: node}
	}
	return node, nil
}

func analyzeAnd(a *Analyzer, n *ast.List, _ *ast.Symbol) (core.Node, *diag.Error) {
	exprs, err := a.analyzeAll(n.Items[1:])
	if err != nil {
		return nil, err
	}
	return core.And{Exprs: exprs}, nil
}

func analyzeOr(a *Analyzer, n *ast.List, _ *ast.Symbol) (core.Node, *diag.Error) {
	exprs, err := a.analyzeAll(n.Items[1:])
	if err != nil {
		return nil, err
	}
	return core.Or{Exprs: exprs}, nil
}

func (a *Analyzer) analyzeBindingVector(head *ast.Symbol, node ast.Node) ([]core.Binding, *diag.Error) {
	vec, ok := node.(*ast.Vector)
	if !ok {
		return nil, diag.Newf(diag.InvalidForm,
			"(%s) requires a binding vector", head.Name).At(head.Token)
	}
	if len(vec.Items)%2 != 0 {
		return nil, diag.Newf(diag.InvalidForm,
			"(%s) binding vector requires an even number of forms", head.Name).At(head.Token)
	}
	bindings := make([]core.Binding, 0, len(vec.Items)/2)
	for i := 0; i < len(vec.Items); i += 2 {
		pat, err := a.analyzePattern(vec.Items[i])
		if err != nil {
			return nil, err
		}
		val, err := a.Analyze(vec.Items[i+1])
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, core.Binding{Pattern: pat, Value: val})
	}
	return bindings, nil
}

func analyzeLet(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) < 2 {
		return nil, arityError(head, "expected (let [bindings] body...)")
	}
	bindings, err := a.analyzeBindingVector(head, n.Items[1])
	if err != nil {
		return nil, err
	}
	body, err := a.analyzeAll(n.Items[2:])
	if err != nil {
		return nil, err
	}
	return core.Let{Bindings: bindings, Body: body}, nil
}

func analyzeLoop(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) < 2 {
		return nil, arityError(head, "expected (loop [bindings] body...)")
	}
	bindings, err := a.analyzeBindingVector(head, n.Items[1])
	if err != nil {
		return nil, err
	}
	body, err := a.analyzeAll(n.Items[2:])
	if err != nil {
		return nil, err
	}
	return core.Loop{Bindings: bindings, Body: body}, nil
}

func analyzeRecurForm(a *Analyzer, n *ast.List, _ *ast.Symbol) (core.Node, *diag.Error) {
	args, err := a.analyzeAll(n.Items[1:])
	if err != nil {
		return nil, err
	}
	return core.Recur{Args: args}, nil
}

// analyzeParamVector splits a fn parameter vector into fixed patterns and
// an optional & rest pattern.
func (a *Analyzer) analyzeParamVector(head *ast.Symbol, node ast.Node) ([]core.Pattern, core.Pattern, *diag.Error) {
	vec, ok := node.(*ast.Vector)
	if !ok {
		return nil, nil, diag.Newf(diag.InvalidForm,
			"(%s) requires a parameter vector", head.Name).At(head.Token)
	}
	var params []core.Pattern
	for i := 0; i < len(vec.Items); i++ {
		if name, ok := symbolName(vec.Items[i]); ok && name == "&" {
			if i != len(vec.Items)-2 {
				return nil, nil, diag.Newf(diag.InvalidForm,
					"(%s): & must be followed by exactly one rest parameter", head.Name).At(head.Token)
			}
			rest, err := a.analyzePattern(vec.Items[i+1])
			if err != nil {
				return nil, nil, err
			}
			return params, rest, nil
		}
		pat, err := a.analyzePattern(vec.Items[i])
		if err != nil {
			return nil, nil, err
		}
		params = append(params, pat)
	}
	return params, nil, nil
}

func analyzeFn(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) < 2 {
		return nil, arityError(head, "expected (fn [params] body...)")
	}
	params, variadic, err := a.analyzeParamVector(head, n.Items[1])
	if err != nil {
		return nil, err
	}
	body, err := a.analyzeAll(n.Items[2:])
	if err != nil {
		return nil, err
	}
	return core.Fn{Params: params, Variadic: variadic, Body: body}, nil
}

func analyzeDef(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) != 3 {
		return nil, arityError(head, "expected (def name value)")
	}
	name, ok := symbolName(n.Items[1])
	if !ok {
		return nil, diag.New(diag.InvalidForm, "(def) requires a simple symbol name").At(head.Token)
	}
	val, err := a.Analyze(n.Items[2])
	if err != nil {
		return nil, err
	}
	return core.Def{Name: name, Value: val}, nil
}

func analyzeDefn(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) < 3 {
		return nil, arityError(head, "expected (defn name docstring? [params] body...)")
	}
	name, ok := symbolName(n.Items[1])
	if !ok {
		return nil, diag.New(diag.InvalidForm, "(defn) requires a simple symbol name").At(head.Token)
	}
	rest := n.Items[2:]
	doc := ""
	if len(rest) > 1 {
		if str, ok := rest[0].(*ast.String); ok {
			doc = str.Value
			rest = rest[1:]
		}
	}
	if len(rest) < 1 {
		return nil, arityError(head, "expected a parameter vector")
	}
	params, variadic, err := a.analyzeParamVector(head, rest[0])
	if err != nil {
		return nil, err
	}
	body, err := a.analyzeAll(rest[1:])
	if err != nil {
		return nil, err
	}
	return core.Def{Name: name, Value: core.Fn{Params: params, Variadic: variadic, Body: body, Doc: doc}}, nil
}

// analyzeCondLet handles if-let and when-let: a single simple-symbol
// binding desugared to let + if.
func (a *Analyzer) analyzeCondLet(n *ast.List, head *ast.Symbol, withElse bool) (core.Node, *diag.Error) {
	if len(n.Items) < 3 {
		return nil, arityError(head, "expected a binding vector and a body")
	}
	vec, ok := n.Items[1].(*ast.Vector)
	if !ok || len(vec.Items) != 2 {
		return nil, diag.Newf(diag.InvalidForm,
			"(%s) requires a [symbol value] binding vector", head.Name).At(head.Token)
	}
	name, ok := symbolName(vec.Items[0])
	if !ok {
		return nil, diag.Newf(diag.InvalidForm,
			"(%s) binding must be a simple symbol", head.Name).At(head.Token)
	}
	val, err := a.Analyze(vec.Items[1])
	if err != nil {
		return nil, err
	}
	if withElse {
		if len(n.Items) > 4 {
			return nil, arityError(head, "expected (if-let [sym val] then else?)")
		}
		then, err := a.Analyze(n.Items[2])
		if err != nil {
			return nil, err
		}
		var els core.Node
		if len(n.Items) == 4 {
			els, err = a.Analyze(n.Items[3])
			if err != nil {
				return nil, err
			}
		}
		return core.Let{
			Bindings: []core.Binding{{Pattern: core.VarPat{Name: name}, Value: val}},
			Body:     []core.Node{core.If{Cond: core.Var{Name: name}, Then: then, Else: els}},
		}, nil
	}
	body, err := a.analyzeAll(n.Items[2:])
	if err != nil {
		return nil, err
	}
	var then core.Node = core.Nil{}
	if len(body) == 1 {
		then = body[0]
	} else if len(body) > 1 {
		then = core.Do{Exprs: body}
	}
	return core.Let{
		Bindings: []core.Binding{{Pattern: core.VarPat{Name: name}, Value: val}},
		Body:     []core.Node{core.If{Cond: core.Var{Name: name}, Then: then}},
	}, nil
}

func analyzeIfLet(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	return a.analyzeCondLet(n, head, true)
}

func analyzeWhenLet(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	return a.analyzeCondLet(n, head, false)
}

func analyzeJuxt(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) < 2 {
		return nil, arityError(head, "expected (juxt f...)")
	}
	fns, err := a.analyzeAll(n.Items[1:])
	if err != nil {
		return nil, err
	}
	return core.Juxt{Fns: fns}, nil
}

func analyzePcalls(a *Analyzer, n *ast.List, _ *ast.Symbol) (core.Node, *diag.Error) {
	thunks, err := a.analyzeAll(n.Items[1:])
	if err != nil {
		return nil, err
	}
	return core.Pcalls{Thunks: thunks}, nil
}

func analyzePmap(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) != 3 {
		return nil, arityError(head, "expected (pmap f coll)")
	}
	fn, err := a.Analyze(n.Items[1])
	if err != nil {
		return nil, err
	}
	coll, err := a.Analyze(n.Items[2])
	if err != nil {
		return nil, err
	}
	return core.Pmap{Fn: fn, Coll: coll}, nil
}

func analyzeTask(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) < 3 {
		return nil, arityError(head, "expected (task id body...)")
	}
	id, err := a.Analyze(n.Items[1])
	if err != nil {
		return nil, err
	}
	body, err := a.analyzeAll(n.Items[2:])
	if err != nil {
		return nil, err
	}
	return core.Task{ID: id, Body: body}, nil
}

func analyzeTaskReset(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) != 2 {
		return nil, arityError(head, "expected (task-reset id)")
	}
	id, err := a.Analyze(n.Items[1])
	if err != nil {
		return nil, err
	}
	return core.TaskReset{ID: id}, nil
}

func analyzeStepDone(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) != 3 {
		return nil, arityError(head, "expected (step-done id summary)")
	}
	id, err := a.Analyze(n.Items[1])
	if err != nil {
		return nil, err
	}
	text, err := a.Analyze(n.Items[2])
	if err != nil {
		return nil, err
	}
	return core.StepDone{ID: id, Text: text}, nil
}

func analyzePredComb(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) < 2 {
		return nil, arityError(head, "expected at least one predicate")
	}
	preds, err := a.analyzeAll(n.Items[1:])
	if err != nil {
		return nil, err
	}
	return core.PredComb{Kind: head.Name, Preds: preds}, nil
}

func analyzeCallForm(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) < 2 {
		return nil, arityError(head, "expected (call f args...)")
	}
	fn, err := a.Analyze(n.Items[1])
	if err != nil {
		return nil, err
	}
	args, err := a.analyzeAll(n.Items[2:])
	if err != nil {
		return nil, err
	}
	return core.Call{Fn: fn, Args: args}, nil
}

func analyzeReturn(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) != 2 {
		return nil, arityError(head, "expected (return value)")
	}
	expr, err := a.Analyze(n.Items[1])
	if err != nil {
		return nil, err
	}
	return core.Return{Expr: expr}, nil
}

func analyzeFail(a *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) != 2 {
		return nil, arityError(head, "expected (fail message)")
	}
	expr, err := a.Analyze(n.Items[1])
	if err != nil {
		return nil, err
	}
	return core.Fail{Expr: expr}, nil
}

func analyzeBudgetRemaining(_ *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) != 1 {
		return nil, arityError(head, "expected (budget-remaining)")
	}
	return core.BudgetRemaining{}, nil
}

func analyzeTurnHistory(_ *Analyzer, n *ast.List, head *ast.Symbol) (core.Node, *diag.Error) {
	if len(n.Items) != 1 {
		return nil, arityError(head, "expected (turn-history)")
	}
	return core.TurnHistory{}, nil
}
