package analyzer

import (
	"fmt"

	"github.com/andreasronge/ptclisp/internal/ast"
	"github.com/andreasronge/ptclisp/internal/core"
	"github.com/andreasronge/ptclisp/internal/diag"
)

// Analyzer transforms the raw syntactic AST into the canonical core AST.
// All surface sugar is resolved here; the evaluator never sees threading
// forms, cond, when, short fns, or unresolved destructuring.
type Analyzer struct {
	// shortFn is non-zero while analyzing the body of a #() literal, in
	// which case % placeholders resolve to generated parameter names.
	shortFn int
}

func New() *Analyzer {
	return &Analyzer{}
}

// AnalyzeProgram analyzes every top-level form and wraps them in a do.
// A single-form program stays unwrapped. After analysis, recur placement
// is verified across the whole tree.
func (a *Analyzer) AnalyzeProgram(prog *ast.Program) (core.Node, *diag.Error) {
	if len(prog.Forms) == 0 {
		return core.Nil{}, nil
	}
	var node core.Node
	if len(prog.Forms) == 1 {
		n, err := a.Analyze(prog.Forms[0])
		if err != nil {
			return nil, err
		}
		node = n
	} else {
		exprs := make([]core.Node, 0, len(prog.Forms))
		for _, form := range prog.Forms {
			n, err := a.Analyze(form)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, n)
		}
		node = core.Do{Exprs: exprs}
	}
	if err := checkRecur(node); err != nil {
		return nil, err
	}
	return node, nil
}

// Analyze transforms one raw node.
func (a *Analyzer) Analyze(node ast.Node) (core.Node, *diag.Error) {
	switch n := node.(type) {
	case *ast.Nil:
		return core.Nil{}, nil
	case *ast.Bool:
		return core.Bool{Value: n.Value}, nil
	case *ast.Number:
		if n.IsFloat {
			return core.Float{Value: n.Float}, nil
		}
		return core.Int{Value: n.Int}, nil
	case *ast.String:
		return core.Str{Value: n.Value}, nil
	case *ast.Keyword:
		return core.Keyword{Name: n.Name}, nil
	case *ast.Symbol:
		return a.analyzeSymbol(n)
	case *ast.NSSymbol:
		return a.analyzeNSSymbol(n)
	case *ast.Vector:
		items, err := a.analyzeAll(n.Items)
		if err != nil {
			return nil, err
		}
		return core.VectorLit{Items: items}, nil
	case *ast.Map:
		pairs := make([]core.MapPair, 0, len(n.Pairs))
		for _, pair := range n.Pairs {
			k, err := a.Analyze(pair.Key)
			if err != nil {
				return nil, err
			}
			v, err := a.Analyze(pair.Value)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, core.MapPair{Key: k, Value: v})
		}
		return core.MapLit{Pairs: pairs}, nil
	case *ast.Set:
		items, err := a.analyzeAll(n.Items)
		if err != nil {
			return nil, err
		}
		return core.SetLit{Items: items}, nil
	case *ast.ShortFn:
		return a.analyzeShortFn(n)
	case *ast.List:
		return a.analyzeList(n)
	case *ast.Program:
		return a.AnalyzeProgram(n)
	}
	return nil, diag.Newf(diag.InvalidForm, "unsupported form %T", node)
}

func (a *Analyzer) analyzeAll(nodes []ast.Node) ([]core.Node, *diag.Error) {
	out := make([]core.Node, 0, len(nodes))
	for _, n := range nodes {
		c, err := a.Analyze(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (a *Analyzer) analyzeSymbol(n *ast.Symbol) (core.Node, *diag.Error) {
	if isPlaceholder(n.Name) {
		if a.shortFn == 0 {
			return nil, diag.Newf(diag.InvalidPlaceholder,
				"%s placeholder is only valid inside #(...)", n.Name).At(n.Token)
		}
		return core.Var{Name: normalizePlaceholder(n.Name)}, nil
	}
	if idx, ok := turnRegister(n.Name); ok {
		return core.TurnRegister{Index: idx}, nil
	}
	return core.Var{Name: n.Name}, nil
}

func (a *Analyzer) analyzeNSSymbol(n *ast.NSSymbol) (core.Node, *diag.Error) {
	switch n.NS {
	case "ctx", "data":
		return core.Data{Name: n.Name}, nil
	case "tool":
		return nil, diag.Newf(diag.InvalidForm,
			"tool/%s must be called, e.g. (tool/%s {})", n.Name, n.Name).At(n.Token)
	case "memory":
		return nil, diag.Newf(diag.InvalidForm,
			"memory/%s must be called", n.Name).At(n.Token)
	}
	// Interop shims (System/currentTimeMillis, LocalDate/parse) resolve as
	// plain vars against the builtin environment.
	return core.Var{Name: n.NS + "/" + n.Name}, nil
}

func (a *Analyzer) analyzeList(n *ast.List) (core.Node, *diag.Error) {
	if len(n.Items) == 0 {
		// () evaluates to an empty vector, matching the sequence model.
		return core.VectorLit{}, nil
	}

	switch head := n.Items[0].(type) {
	case *ast.Symbol:
		if fn, ok := specialForms[head.Name]; ok {
			return fn(a, n, head)
		}
	case *ast.NSSymbol:
		switch head.NS {
		case "tool":
			return a.analyzeToolCall(n, head, false)
		case "ctx":
			return a.analyzeToolCall(n, head, true)
		case "memory":
			return a.analyzeMemoryCall(n, head)
		}
	}

	fn, err := a.Analyze(n.Items[0])
	if err != nil {
		return nil, err
	}
	args, err := a.analyzeAll(n.Items[1:])
	if err != nil {
		return nil, err
	}
	return core.Call{Fn: fn, Args: args}, nil
}

func (a *Analyzer) analyzeToolCall(n *ast.List, head *ast.NSSymbol, viaCtx bool) (core.Node, *diag.Error) {
	if head.Name == "" {
		return nil, diag.New(diag.InvalidCallToolName, "tool call requires a tool name").At(head.Token)
	}
	if viaCtx {
		// ctx/<name> in call position dispatches a tool; the name segment
		// must be a plain symbol without nested slashes.
		for _, r := range head.Name {
			if r == '/' {
				return nil, diag.Newf(diag.InvalidCallToolName,
					"invalid tool name ctx/%s", head.Name).At(head.Token)
			}
		}
	}
	if len(n.Items) > 2 {
		return nil, diag.Newf(diag.InvalidArity,
			"tool call (%s/%s ...) takes at most one args map, got %d arguments",
			head.NS, head.Name, len(n.Items)-1).At(head.Token)
	}
	var arg core.Node
	if len(n.Items) == 2 {
		var err *diag.Error
		arg, err = a.Analyze(n.Items[1])
		if err != nil {
			return nil, err
		}
	}
	return core.CallTool{Name: head.Name, Arg: arg, ViaCtx: viaCtx}, nil
}

func (a *Analyzer) analyzeMemoryCall(n *ast.List, head *ast.NSSymbol) (core.Node, *diag.Error) {
	switch head.Name {
	case "get":
		if len(n.Items) != 2 {
			return nil, diag.Newf(diag.InvalidArity,
				"(memory/get key) takes 1 argument, got %d", len(n.Items)-1).At(head.Token)
		}
		key, err := a.Analyze(n.Items[1])
		if err != nil {
			return nil, err
		}
		return core.MemoryGet{Key: key}, nil
	case "put":
		if len(n.Items) != 3 {
			return nil, diag.Newf(diag.InvalidArity,
				"(memory/put key value) takes 2 arguments, got %d", len(n.Items)-1).At(head.Token)
		}
		key, err := a.Analyze(n.Items[1])
		if err != nil {
			return nil, err
		}
		val, err := a.Analyze(n.Items[2])
		if err != nil {
			return nil, err
		}
		return core.MemoryPut{Key: key, Value: val}, nil
	}
	return nil, diag.Newf(diag.InvalidForm, "unknown memory operation memory/%s", head.Name).At(head.Token)
}

func isPlaceholder(name string) bool {
	if name == "%" {
		return true
	}
	return len(name) == 2 && name[0] == '%' && name[1] >= '1' && name[1] <= '9'
}

func normalizePlaceholder(name string) string {
	if name == "%" {
		return "%1"
	}
	return name
}

func placeholderIndex(name string) int {
	if name == "%" {
		return 1
	}
	return int(name[1] - '0')
}

func turnRegister(name string) (int, bool) {
	switch name {
	case "*1":
		return 1, true
	case "*2":
		return 2, true
	case "*3":
		return 3, true
	}
	return 0, false
}

func symbolName(node ast.Node) (string, bool) {
	sym, ok := node.(*ast.Symbol)
	if !ok {
		return "", false
	}
	return sym.Name, true
}

func formName(n *ast.List) string {
	if len(n.Items) == 0 {
		return "()"
	}
	if name, ok := symbolName(n.Items[0]); ok {
		return name
	}
	return fmt.Sprintf("%v", n.Items[0])
}
