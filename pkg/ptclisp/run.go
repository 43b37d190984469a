package ptclisp

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/andreasronge/ptclisp/internal/analyzer"
	"github.com/andreasronge/ptclisp/internal/config"
	"github.com/andreasronge/ptclisp/internal/diag"
	"github.com/andreasronge/ptclisp/internal/evaluator"
	"github.com/andreasronge/ptclisp/internal/pipeline"
	"github.com/andreasronge/ptclisp/internal/sandbox"
	"github.com/andreasronge/ptclisp/internal/signature"
)

// Run executes one program under the configured caps and returns a Step.
// It never panics and never aborts the process; every failure mode lands
// in Step.Fail.
func Run(source string, opts Options) Step {
	started := time.Now()
	step := Step{
		ID:        uuid.NewString(),
		Signature: opts.Signature,
	}
	m := NewMarshaller()

	finishFail := func(err *diag.Error) Step {
		step.Fail = &Fail{Reason: err.Reason, Message: err.Message, Details: err.Details}
		// Failed runs preserve the caller-supplied memory untouched.
		step.Memory = cloneAnyMap(opts.Memory)
		step.MemoryDelta = map[string]any{}
		if opts.Journal != nil {
			step.Journal = cloneAnyMap(opts.Journal)
		}
		step.Usage.DurationMs = time.Since(started).Milliseconds()
		return step
	}

	if opts.PriorStep != nil && opts.PriorStep.Fail != nil {
		return finishFail(diag.Newf(diag.ChainedFailure,
			"prior step failed with %s: %s",
			opts.PriorStep.Fail.Reason, opts.PriorStep.Fail.Message))
	}

	var sig *signature.Signature
	if opts.Signature != "" {
		parsed, err := signature.Parse(opts.Signature)
		if err != nil {
			return finishFail(err)
		}
		sig = parsed
	}

	// Static stages: lex, read, analyze, budget.
	pctx := pipeline.NewPipelineContext(source)
	pctx.CoreNames = coreSymbolNames()
	pctx.MaxSymbols = opts.maxSymbols()
	pctx = pipeline.New(
		&pipeline.LexerProcessor{},
		&pipeline.ParserProcessor{},
		&pipeline.AnalyzerProcessor{},
		&pipeline.BudgetProcessor{},
	).Run(pctx)
	if pctx.Err != nil {
		return finishFail(pctx.Err)
	}

	rc, err := buildRunContext(m, opts, pctx)
	if err != nil {
		return finishFail(err)
	}

	if sig != nil && len(sig.Params) > 0 {
		if verr := sig.ValidateContext(rc.ContextData); verr != nil {
			return finishFail(verr)
		}
	}

	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	result := sandbox.Execute(context.Background(), opts.timeout(), opts.maxHeap(),
		func(ctx context.Context) evaluator.Object {
			rc.Context = ctx
			ev := evaluator.New(rc)
			return ev.Eval(pctx.CoreRoot, evaluator.NewEnvironment())
		})

	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)
	if memAfter.TotalAlloc > memBefore.TotalAlloc {
		step.Usage.MemoryBytes = int64(memAfter.TotalAlloc - memBefore.TotalAlloc)
	}

	precision := opts.floatPrecision()

	switch r := result.(type) {
	case *evaluator.Error:
		if r.Reason == diag.Timeout || r.Reason == diag.MemoryExceeded {
			// Resource caps preserve the caller-supplied memory.
			return finishFail(&diag.Error{Reason: r.Reason, Message: r.Message, Details: r.Details})
		}
		step.Fail = &Fail{Reason: r.Reason, Message: r.Message, Details: r.Details}
	case *evaluator.FailSignal:
		step.Fail = &Fail{Reason: "fail", Message: evaluator.RenderForHost(r.Value, precision)}
	case *evaluator.ReturnSignal:
		step.Return = m.FromValue(evaluator.RoundFloats(r.Value, precision))
	case *evaluator.RecurSignal:
		step.Fail = &Fail{Reason: diag.InvalidForm, Message: "(recur) escaped its recursion point"}
	default:
		step.Return = m.FromValue(evaluator.RoundFloats(result, precision))
	}

	if step.Fail == nil && sig != nil {
		rounded := evaluator.RoundFloats(resultValue(result), precision)
		if verr := sig.ValidateReturn(rounded); verr != nil {
			step.Return = nil
			step.Fail = &Fail{Reason: verr.Reason, Message: verr.Message, Details: verr.Details}
		}
	}

	// Evaluation ran: report the namespace as it stands, including defs
	// made before a runtime failure.
	step.Memory = make(map[string]any, rc.UserNS.Len())
	for _, name := range rc.UserNS.Names() {
		if val, ok := rc.UserNS.Get(name); ok {
			step.Memory[name] = m.FromValue(val)
		}
	}
	step.MemoryDelta = make(map[string]any)
	for _, name := range rc.UserNS.DeltaNames() {
		if val, ok := rc.UserNS.Get(name); ok {
			step.MemoryDelta[name] = m.FromValue(val)
		}
	}

	step.Prints = append([]string(nil), rc.Prints...)
	for _, call := range rc.ToolCalls {
		args, _ := m.FromValue(call.Args).(map[string]any)
		step.ToolCalls = append(step.ToolCalls, ToolCall{
			ID:     call.ID,
			Name:   call.Name,
			Args:   args,
			Result: m.FromValue(call.Result),
		})
	}
	if len(rc.Summaries) > 0 {
		step.Summaries = make(map[string]string, len(rc.Summaries))
		for k, v := range rc.Summaries {
			step.Summaries[k] = v
		}
	}
	if rc.Journal != nil {
		step.Journal = make(map[string]any)
		for _, id := range rc.Journal.IDs() {
			if val, ok := rc.Journal.Get(id); ok {
				step.Journal[id] = m.FromValue(val)
			}
		}
	}

	step.Usage.DurationMs = time.Since(started).Milliseconds()
	return step
}

func resultValue(result evaluator.Object) evaluator.Object {
	if ret, ok := result.(*evaluator.ReturnSignal); ok {
		return ret.Value
	}
	return result
}

// buildRunContext marshals the caller's options into the EvalContext.
func buildRunContext(m *Marshaller, opts Options, pctx *pipeline.PipelineContext) (*evaluator.RunContext, *diag.Error) {
	rc := evaluator.NewRunContext()
	rc.LoopLimit = opts.loopLimit()
	rc.PmapTimeout = opts.pmapTimeout()
	rc.FloatPrecision = opts.floatPrecision()
	rc.Now = opts.now()
	rc.NewID = uuid.NewString

	// Context values, optionally projected down to referenced keys.
	contextData, err := marshalContext(m, opts, pctx)
	if err != nil {
		return nil, err
	}
	rc.ContextData = contextData

	for name, val := range opts.Memory {
		obj, merr := m.ToValue(val)
		if merr != nil {
			return nil, diag.Newf(diag.TypeError, "memory key %q: %v", name, merr)
		}
		rc.UserNS.Seed(name, obj)
	}

	if opts.Journal != nil {
		journal := evaluator.NewJournal()
		for id, val := range opts.Journal {
			obj, merr := m.ToValue(val)
			if merr != nil {
				return nil, diag.Newf(diag.TypeError, "journal entry %q: %v", id, merr)
			}
			journal.Commit(id, obj)
		}
		rc.Journal = journal
	}

	for i, val := range opts.TurnHistory {
		obj, merr := m.ToValue(val)
		if merr != nil {
			return nil, diag.Newf(diag.TypeError, "turn history entry %d: %v", i, merr)
		}
		rc.TurnHistory = append(rc.TurnHistory, obj)
	}

	if opts.BudgetRemaining != nil {
		obj, merr := m.ToValue(opts.BudgetRemaining)
		if merr != nil {
			return nil, diag.Newf(diag.TypeError, "budget value: %v", merr)
		}
		rc.Budget = obj
	}

	for name, entry := range opts.Tools {
		tool, terr := wrapTool(m, name, entry)
		if terr != nil {
			return nil, terr
		}
		if tool != nil {
			rc.Tools[name] = tool
		}
	}

	return rc, nil
}

func marshalContext(m *Marshaller, opts Options, pctx *pipeline.PipelineContext) (*evaluator.Map, *diag.Error) {
	required := make(map[string]bool)
	for _, key := range analyzer.RequiredDataKeys(pctx.CoreRoot) {
		required[key] = true
	}
	filter := opts.filterContext()

	out := evaluator.NewMap()
	for name, val := range opts.Context {
		obj, err := m.ToValue(val)
		if err != nil {
			return nil, diag.Newf(diag.TypeError, "context key %q: %v", name, err)
		}
		if filter && !required[name] && droppable(obj) {
			continue
		}
		out.Set(&evaluator.Keyword{Name: name}, obj)
	}
	return out, nil
}

// droppable reports whether an unreferenced context value is large enough
// to strip. Scalars and short strings always survive.
func droppable(obj evaluator.Object) bool {
	switch obj.(type) {
	case *evaluator.Vector, *evaluator.Map, *evaluator.Set:
		return len(obj.Inspect()) > config.FilterSizeThreshold
	}
	return false
}

func wrapTool(m *Marshaller, name string, entry any) (*evaluator.Tool, *diag.Error) {
	switch t := entry.(type) {
	case skipMarker:
		return nil, nil
	case func(map[string]any) (any, error):
		return &evaluator.Tool{Name: name, Fn: hostFn(m, t)}, nil
	case ToolSpec:
		if t.Fn == nil {
			return nil, diag.Newf(diag.InvalidTool, "tool %q has no function", name)
		}
		return &evaluator.Tool{
			Name:        name,
			Fn:          hostFn(m, t.Fn),
			Signature:   t.Signature,
			Description: t.Description,
		}, nil
	case *ToolSpec:
		return wrapTool(m, name, *t)
	}
	return nil, diag.Newf(diag.InvalidTool,
		"tool %q has unsupported shape %T", name, entry)
}

// hostFn adapts a host callback to the evaluator's tool contract,
// marshalling the args map out and the result back in.
func hostFn(m *Marshaller, fn func(map[string]any) (any, error)) evaluator.ToolFunc {
	return func(args *evaluator.Map) (evaluator.Object, error) {
		goArgs, _ := m.FromValue(args).(map[string]any)
		if goArgs == nil {
			goArgs = map[string]any{}
		}
		result, err := fn(goArgs)
		if err != nil {
			return nil, err
		}
		obj, merr := m.ToValue(result)
		if merr != nil {
			return &evaluator.Error{
				Reason:  diag.InvalidToolResult,
				Message: fmt.Sprintf("tool returned an unsupported value: %v", merr),
			}, nil
		}
		return obj, nil
	}
}

// coreSymbolNames is the budget-exempt set: stdlib names, special forms,
// and the reader-level words.
func coreSymbolNames() map[string]bool {
	names := make(map[string]bool)
	for _, name := range evaluator.BuiltinNames() {
		names[name] = true
	}
	for _, name := range analyzer.SpecialFormNames() {
		names[name] = true
	}
	for _, name := range []string{"&", "else", "nil", "true", "false", "%", "*1", "*2", "*3"} {
		names[name] = true
	}
	for i := 1; i <= 9; i++ {
		names[fmt.Sprintf("%%%d", i)] = true
	}
	return names
}

func cloneAnyMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
