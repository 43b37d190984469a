package evaluator

import (
	"context"
	"time"

	"github.com/andreasronge/ptclisp/internal/config"
)

// ToolFunc executes a host tool against an evaluated args map. A non-nil
// error is wrapped as a tool_error; a returned *Error object passes
// through with its own reason.
type ToolFunc func(args *Map) (Object, error)

// Tool is a registered host callback with optional metadata.
type Tool struct {
	Name        string
	Fn          ToolFunc
	Signature   string
	Description string
}

// ToolCall is one logged dispatch.
type ToolCall struct {
	ID     string
	Name   string
	Args   Object
	Result Object
}

// RunContext is the EvalContext of a single run: the accumulator for
// prints, tool calls, journal, summaries, and the user namespace, plus
// the knobs the evaluator consults. It is exclusively owned by the
// sequential evaluator; parallel workers get forks that never merge back.
type RunContext struct {
	Context context.Context

	Prints    []string
	ToolCalls []ToolCall
	Journal   *Journal
	Summaries map[string]string
	UserNS    *Namespace

	Tools       map[string]*Tool
	ContextData *Map
	TurnHistory []Object
	Budget      Object // value of (budget-remaining); defaults to nil

	LoopLimit      int
	PmapTimeout    time.Duration
	FloatPrecision int // -1 disables rounding
	PrintWidth     int

	Now func() time.Time

	// NewID mints tool-call ids; injected so replays are stable in tests.
	NewID func() string

	// parallel marks a forked worker context: prints, tool calls, and
	// namespace writes are discarded instead of merged.
	parallel bool
}

func NewRunContext() *RunContext {
	return &RunContext{
		Context:        context.Background(),
		Summaries:      make(map[string]string),
		UserNS:         NewNamespace(),
		Tools:          make(map[string]*Tool),
		ContextData:    NewMap(),
		Budget:         NilValue,
		LoopLimit:      config.DefaultLoopLimit,
		FloatPrecision: -1,
		PrintWidth:     config.PrintTruncateWidth,
		Now:            time.Now,
		NewID:          func() string { return "" },
	}
}

// fork builds a worker context for a parallel section. The worker shares
// the read-only inputs (tools, context data, turn history) but owns
// throwaway accumulators and a cloned namespace so def writes are
// discarded. It gets no journal, so task sections inside a worker always
// run their body.
func (rc *RunContext) fork(ctx context.Context) *RunContext {
	ns := NewNamespace()
	for _, name := range rc.UserNS.Names() {
		if val, ok := rc.UserNS.Get(name); ok {
			ns.Seed(name, val)
		}
	}
	return &RunContext{
		Context:        ctx,
		Summaries:      make(map[string]string),
		UserNS:         ns,
		Journal:        nil, // task caching is sequential-only
		Tools:          rc.Tools,
		ContextData:    rc.ContextData,
		TurnHistory:    rc.TurnHistory,
		Budget:         rc.Budget,
		LoopLimit:      rc.LoopLimit,
		PmapTimeout:    rc.PmapTimeout,
		FloatPrecision: rc.FloatPrecision,
		PrintWidth:     rc.PrintWidth,
		Now:            rc.Now,
		NewID:          rc.NewID,
		parallel:       true,
	}
}

func (rc *RunContext) appendPrint(line string) {
	if rc.PrintWidth > 0 && len(line) > rc.PrintWidth {
		line = line[:rc.PrintWidth] + "..."
	}
	rc.Prints = append(rc.Prints, line)
}
