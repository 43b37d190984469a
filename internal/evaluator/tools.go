package evaluator

import (
	"github.com/andreasronge/ptclisp/internal/core"
	"github.com/andreasronge/ptclisp/internal/diag"
)

// evalToolCall dispatches (tool/name args) or (ctx/name args) to the
// registered host callback. The args expression must evaluate to a map;
// the result and arguments are logged in evaluation order.
func (e *Evaluator) evalToolCall(n core.CallTool, env *Environment) Object {
	var args *Map
	if n.Arg == nil {
		args = NewMap()
	} else {
		val := e.Eval(n.Arg, env)
		if isAbort(val) {
			return val
		}
		m, ok := val.(*Map)
		if !ok {
			return newError(diag.InvalidForm,
				"tool %q arguments must be a map, got %s", n.Name, typeName(val))
		}
		args = m
	}

	tool, ok := e.Ctx.Tools[n.Name]
	if !ok {
		return newError(diag.ToolNotFound, "no tool registered as %q", n.Name)
	}
	if tool.Fn == nil {
		return newError(diag.InvalidTool, "tool %q has no callable", n.Name)
	}

	result, err := e.invokeTool(tool, args)
	if err != nil {
		return err
	}

	e.Ctx.ToolCalls = append(e.Ctx.ToolCalls, ToolCall{
		ID:     e.Ctx.NewID(),
		Name:   n.Name,
		Args:   args,
		Result: result,
	})
	return result
}

// invokeTool shields the run from misbehaving callbacks: panics and
// returned errors both surface as tool_error.
func (e *Evaluator) invokeTool(tool *Tool, args *Map) (result Object, errObj *Error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			errObj = newError(diag.ToolError, "tool %q panicked: %v", tool.Name, r)
		}
	}()

	out, err := tool.Fn(args)
	if err != nil {
		return nil, newError(diag.ToolError, "tool %q failed: %v", tool.Name, err)
	}
	if out == nil {
		return NilValue, nil
	}
	if e2, ok := out.(*Error); ok {
		return nil, e2
	}
	return out, nil
}
