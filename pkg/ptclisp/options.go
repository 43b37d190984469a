package ptclisp

import (
	"time"

	"github.com/andreasronge/ptclisp/internal/config"
)

// Keyword marks a string as a keyword value when marshalling into the
// runtime, and is how keyword values come back out.
type Keyword string

// skipMarker hides a tool; see Skip.
type skipMarker struct{}

// Skip, used as a tool entry value, unregisters the tool for this run.
var Skip = skipMarker{}

// ToolSpec is the structured descriptor form of a tool entry.
type ToolSpec struct {
	Fn          func(args map[string]any) (any, error)
	Signature   string
	Description string
}

// Options configures a single Run. The zero value is usable: no context,
// no tools, default caps.
type Options struct {
	// Context maps names to values reachable via ctx/name and data/name.
	Context map[string]any

	// Memory is the prior user namespace to merge in before evaluation.
	Memory map[string]any

	// Tools maps tool names to callbacks. Values may be a
	// func(map[string]any) (any, error), a ToolSpec, or Skip.
	Tools map[string]any

	// Signature optionally validates context inputs and the return value.
	Signature string

	// Journal enables task replay; nil disables caching entirely. An
	// empty (non-nil) map starts a fresh journal.
	Journal map[string]any

	// TurnHistory holds previous-turn returns, newest first, reachable
	// via *1 *2 *3 and (turn-history).
	TurnHistory []any

	// BudgetRemaining is surfaced by (budget-remaining); typically the
	// number of turns the outer loop will still grant.
	BudgetRemaining any

	// PriorStep, when supplied, chains this run to the previous one; a
	// failed prior step aborts immediately with chained_failure.
	PriorStep *Step

	// FloatPrecision, when non-nil, rounds every float in the return
	// value and in prints to this many decimals.
	FloatPrecision *int

	Timeout     time.Duration // wall clock; 0 means the 1 s default
	MaxHeap     int64         // heap cap in bytes; 0 means the default
	PmapTimeout time.Duration // parallel-worker cap; 0 inherits Timeout
	MaxSymbols  int           // distinct-symbol cap; 0 means the default

	// FilterContext strips unreferenced large context values before
	// evaluation. Defaults to true; set to disable.
	FilterContext *bool

	// Now is the clock used by the date shims; defaults to time.Now.
	Now func() time.Time

	// LoopLimit caps loop/recur iterations; 0 means the default.
	LoopLimit int
}

func (o *Options) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return config.DefaultTimeoutMs * time.Millisecond
}

func (o *Options) maxHeap() uint64 {
	if o.MaxHeap > 0 {
		return uint64(o.MaxHeap)
	}
	return config.DefaultMaxHeapBytes
}

func (o *Options) pmapTimeout() time.Duration {
	if o.PmapTimeout > 0 {
		return o.PmapTimeout
	}
	return o.timeout()
}

func (o *Options) maxSymbols() int {
	if o.MaxSymbols > 0 {
		return o.MaxSymbols
	}
	return config.DefaultMaxSymbols
}

func (o *Options) loopLimit() int {
	if o.LoopLimit > 0 {
		return o.LoopLimit
	}
	return config.DefaultLoopLimit
}

func (o *Options) floatPrecision() int {
	if o.FloatPrecision == nil {
		return -1
	}
	return *o.FloatPrecision
}

func (o *Options) filterContext() bool {
	if o.FilterContext == nil {
		return true
	}
	return *o.FilterContext
}

func (o *Options) now() func() time.Time {
	if o.Now != nil {
		return o.Now
	}
	return time.Now
}
