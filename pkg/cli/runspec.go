// Package cli holds the runspec format and Step rendering shared by the
// ptclisp command tree.
package cli

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/andreasronge/ptclisp/pkg/ptclisp"
)

// RunSpec is the YAML file the CLI feeds into Run: context data, mock
// tools, and option knobs. Mock tools answer with a fixed result so
// authors can exercise tool flows offline.
type RunSpec struct {
	Context   map[string]any `yaml:"context"`
	Memory    map[string]any `yaml:"memory"`
	Signature string         `yaml:"signature"`

	Tools map[string]MockTool `yaml:"tools"`

	Journal     map[string]any `yaml:"journal"`
	TurnHistory []any          `yaml:"turn_history"`

	TimeoutMs      int64 `yaml:"timeout_ms"`
	MaxHeap        int64 `yaml:"max_heap"`
	PmapTimeoutMs  int64 `yaml:"pmap_timeout_ms"`
	MaxSymbols     int   `yaml:"max_symbols"`
	LoopLimit      int   `yaml:"loop_limit"`
	FloatPrecision *int  `yaml:"float_precision"`
	FilterContext  *bool `yaml:"filter_context"`

	BudgetRemaining any `yaml:"budget_remaining"`
}

// MockTool is a canned tool: every call returns Result. Error makes the
// call fail instead; Skip hides the tool.
type MockTool struct {
	Result      any    `yaml:"result"`
	Error       string `yaml:"error"`
	Skip        bool   `yaml:"skip"`
	Description string `yaml:"description"`
	Signature   string `yaml:"signature"`
}

// LoadRunSpec reads and decodes a runspec file.
func LoadRunSpec(path string) (*RunSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading runspec: %w", err)
	}
	var spec RunSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing runspec: %w", err)
	}
	return &spec, nil
}

// Options converts the runspec into Run options.
func (spec *RunSpec) Options() ptclisp.Options {
	opts := ptclisp.Options{
		Context:         spec.Context,
		Memory:          spec.Memory,
		Signature:       spec.Signature,
		Journal:         spec.Journal,
		TurnHistory:     spec.TurnHistory,
		BudgetRemaining: spec.BudgetRemaining,
		FloatPrecision:  spec.FloatPrecision,
		FilterContext:   spec.FilterContext,
		MaxSymbols:      spec.MaxSymbols,
		LoopLimit:       spec.LoopLimit,
	}
	if spec.TimeoutMs > 0 {
		opts.Timeout = time.Duration(spec.TimeoutMs) * time.Millisecond
	}
	if spec.MaxHeap > 0 {
		opts.MaxHeap = spec.MaxHeap
	}
	if spec.PmapTimeoutMs > 0 {
		opts.PmapTimeout = time.Duration(spec.PmapTimeoutMs) * time.Millisecond
	}
	if len(spec.Tools) > 0 {
		opts.Tools = make(map[string]any, len(spec.Tools))
		for name, mock := range spec.Tools {
			opts.Tools[name] = mock.toolEntry()
		}
	}
	return opts
}

func (mock MockTool) toolEntry() any {
	if mock.Skip {
		return ptclisp.Skip
	}
	result := mock.Result
	errText := mock.Error
	return ptclisp.ToolSpec{
		Fn: func(_ map[string]any) (any, error) {
			if errText != "" {
				return nil, fmt.Errorf("%s", errText)
			}
			return result, nil
		},
		Signature:   mock.Signature,
		Description: mock.Description,
	}
}
