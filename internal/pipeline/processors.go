package pipeline

import (
	"github.com/andreasronge/ptclisp/internal/analyzer"
	"github.com/andreasronge/ptclisp/internal/lexer"
	"github.com/andreasronge/ptclisp/internal/parser"
)

// LexerProcessor tokenizes the source.
type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Err != nil {
		return ctx
	}
	ctx.Tokens = lexer.New(ctx.SourceCode).Tokens()
	return ctx
}

// ParserProcessor reads tokens into the raw AST.
type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Err != nil || ctx.Tokens == nil {
		return ctx
	}
	prog, err := parser.New(ctx.Tokens, ctx.SourceCode).Parse()
	if err != nil {
		return ctx.fail(err)
	}
	ctx.AstRoot = prog
	return ctx
}

// AnalyzerProcessor produces the core AST.
type AnalyzerProcessor struct{}

func (ap *AnalyzerProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Err != nil || ctx.AstRoot == nil {
		return ctx
	}
	node, err := analyzer.New().AnalyzeProgram(ctx.AstRoot)
	if err != nil {
		return ctx.fail(err)
	}
	ctx.CoreRoot = node
	return ctx
}

// BudgetProcessor enforces the distinct-symbol cap before any evaluation.
type BudgetProcessor struct{}

func (bp *BudgetProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Err != nil || ctx.CoreRoot == nil {
		return ctx
	}
	if err := analyzer.CheckBudget(ctx.CoreRoot, ctx.CoreNames, ctx.MaxSymbols); err != nil {
		return ctx.fail(err)
	}
	return ctx
}
