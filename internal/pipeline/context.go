package pipeline

import (
	"github.com/andreasronge/ptclisp/internal/ast"
	"github.com/andreasronge/ptclisp/internal/core"
	"github.com/andreasronge/ptclisp/internal/diag"
	"github.com/andreasronge/ptclisp/internal/token"
)

// PipelineContext carries one program through the static stages:
// source → tokens → raw AST → core AST → budget check.
type PipelineContext struct {
	SourceCode string

	Tokens   []token.Token
	AstRoot  *ast.Program
	CoreRoot core.Node

	// CoreNames is the closed set of names exempt from the symbol budget.
	CoreNames  map[string]bool
	MaxSymbols int

	Err *diag.Error
}

func NewPipelineContext(source string) *PipelineContext {
	return &PipelineContext{SourceCode: source}
}

func (ctx *PipelineContext) fail(err *diag.Error) *PipelineContext {
	if ctx.Err == nil {
		ctx.Err = err
	}
	return ctx
}
