package ptclisp

// Step is the single result type of Run. On success Fail is nil; on
// failure Return is nil and Fail carries the taxonomy reason.
type Step struct {
	ID string `json:"id" yaml:"id"`

	Return any   `json:"return" yaml:"return"`
	Fail   *Fail `json:"fail,omitempty" yaml:"fail,omitempty"`

	// Memory is the full updated user namespace; MemoryDelta holds only
	// the keys written during this run. Closure values appear as Closure
	// references and rehydrate when passed back via Options.Memory.
	Memory      map[string]any `json:"memory" yaml:"memory"`
	MemoryDelta map[string]any `json:"memory_delta" yaml:"memory_delta"`

	Prints    []string          `json:"prints,omitempty" yaml:"prints,omitempty"`
	ToolCalls []ToolCall        `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`
	Summaries map[string]string `json:"summaries,omitempty" yaml:"summaries,omitempty"`

	// Journal is present only when the caller supplied one.
	Journal map[string]any `json:"journal,omitempty" yaml:"journal,omitempty"`

	Usage Usage `json:"usage" yaml:"usage"`

	Signature string `json:"signature,omitempty" yaml:"signature,omitempty"`

	// Turns is populated by multi-turn callers, never by Run itself.
	Turns []Turn `json:"turns,omitempty" yaml:"turns,omitempty"`
}

// OK reports whether the run succeeded.
func (s *Step) OK() bool { return s.Fail == nil }

type Fail struct {
	Reason  string         `json:"reason" yaml:"reason"`
	Message string         `json:"message" yaml:"message"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

type ToolCall struct {
	ID     string         `json:"id,omitempty" yaml:"id,omitempty"`
	Name   string         `json:"name" yaml:"name"`
	Args   map[string]any `json:"args" yaml:"args"`
	Result any            `json:"result" yaml:"result"`
}

type Usage struct {
	DurationMs  int64 `json:"duration_ms" yaml:"duration_ms"`
	MemoryBytes int64 `json:"memory_bytes" yaml:"memory_bytes"`
	Turns       int   `json:"turns,omitempty" yaml:"turns,omitempty"`
}

// Turn is one record of a multi-turn exchange, attached by the caller.
type Turn struct {
	Index    int    `json:"index" yaml:"index"`
	Program  string `json:"program" yaml:"program"`
	Return   any    `json:"return" yaml:"return"`
	FailText string `json:"fail,omitempty" yaml:"fail,omitempty"`
}

// Closure is how a user-defined function appears in Memory: its source
// rendering with the captured environment dropped. Passing it back in
// Options.Memory rebuilds a callable closure.
type Closure struct {
	Source string `json:"source" yaml:"source"`
}
