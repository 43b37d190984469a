package ptclisp

import (
	"sort"

	"github.com/andreasronge/ptclisp/internal/analyzer"
	"github.com/andreasronge/ptclisp/internal/config"
	"github.com/andreasronge/ptclisp/internal/evaluator"
	"github.com/andreasronge/ptclisp/internal/pipeline"
	"github.com/andreasronge/ptclisp/internal/serializer"
)

// AnalyzeOnly runs the static stages (read, analyze, symbol budget)
// without evaluating, for cheap pre-flight validation of LLM output.
// The returned error is nil when the program is statically valid.
func AnalyzeOnly(source string) error {
	ctx := staticPipeline(source, config.DefaultMaxSymbols)
	if ctx.Err != nil {
		return ctx.Err
	}
	return nil
}

// RequiredDataKeys reports which context keys the program reads via
// ctx/name or data/name, in first-seen order.
func RequiredDataKeys(source string) ([]string, error) {
	ctx := staticPipeline(source, config.DefaultMaxSymbols)
	if ctx.Err != nil {
		return nil, ctx.Err
	}
	return analyzer.RequiredDataKeys(ctx.CoreRoot), nil
}

// ProjectContext strips unreferenced large values from a context map the
// same way Run's filter_context option does, without running anything.
// Callers use it to keep prompts small.
func ProjectContext(source string, context map[string]any) (map[string]any, error) {
	keys, err := RequiredDataKeys(source)
	if err != nil {
		return nil, err
	}
	required := make(map[string]bool, len(keys))
	for _, key := range keys {
		required[key] = true
	}

	m := NewMarshaller()
	out := make(map[string]any, len(context))
	for name, val := range context {
		if !required[name] {
			obj, merr := m.ToValue(val)
			if merr == nil && droppable(obj) {
				continue
			}
		}
		out[name] = val
	}
	return out, nil
}

// SymbolCount returns the distinct user symbol/keyword count of a
// program, the quantity the symbol budget caps.
func SymbolCount(source string) (int, error) {
	ctx := staticPipeline(source, 0)
	if ctx.Err != nil {
		return 0, ctx.Err
	}
	return analyzer.CountSymbols(ctx.CoreRoot, coreSymbolNames()), nil
}

// Format reads, analyzes, and re-serializes a program: a canonical
// single-line rendering of what the interpreter will actually run.
func Format(source string) (string, error) {
	ctx := staticPipeline(source, 0)
	if ctx.Err != nil {
		return "", ctx.Err
	}
	return serializer.Print(ctx.CoreRoot), nil
}

// ExportMemory renders a Step's memory as a do block of def forms; a
// later turn can rehydrate the namespace by running it.
func ExportMemory(step Step) (string, error) {
	m := NewMarshaller()
	ns := evaluator.NewNamespace()
	names := make([]string, 0, len(step.Memory))
	for name := range step.Memory {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		obj, err := m.ToValue(step.Memory[name])
		if err != nil {
			return "", err
		}
		ns.Seed(name, obj)
	}
	return serializer.ExportNamespace(ns), nil
}

func staticPipeline(source string, maxSymbols int) *pipeline.PipelineContext {
	ctx := pipeline.NewPipelineContext(source)
	ctx.CoreNames = coreSymbolNames()
	ctx.MaxSymbols = maxSymbols
	return pipeline.New(
		&pipeline.LexerProcessor{},
		&pipeline.ParserProcessor{},
		&pipeline.AnalyzerProcessor{},
		&pipeline.BudgetProcessor{},
	).Run(ctx)
}
