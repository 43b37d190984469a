package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/andreasronge/ptclisp/pkg/ptclisp"
)

// Format selects how a Step is rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
	ansiDim   = "\033[2m"
)

// RenderStep writes the Step in the requested format. Text output is
// colorized only when w is a terminal.
func RenderStep(w io.Writer, step ptclisp.Step, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(step)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(step)
	}
	renderText(w, step)
	return nil
}

func renderText(w io.Writer, step ptclisp.Step) {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + ansiReset
	}

	if step.Fail != nil {
		fmt.Fprintf(w, "%s %s: %s\n",
			paint(ansiRed, "FAIL"), step.Fail.Reason, step.Fail.Message)
	} else {
		fmt.Fprintf(w, "%s %v\n", paint(ansiGreen, "OK"), renderAny(step.Return))
	}

	for _, line := range step.Prints {
		fmt.Fprintf(w, "%s %s\n", paint(ansiDim, ";"), line)
	}
	for _, call := range step.ToolCalls {
		fmt.Fprintf(w, "%s tool %s(%v) -> %v\n",
			paint(ansiDim, ";"), call.Name, renderAny(call.Args), renderAny(call.Result))
	}
	if len(step.MemoryDelta) > 0 {
		names := make([]string, 0, len(step.MemoryDelta))
		for name := range step.MemoryDelta {
			names = append(names, name)
		}
		fmt.Fprintf(w, "%s memory: %s\n", paint(ansiDim, ";"), strings.Join(names, " "))
	}
	fmt.Fprintf(w, "%s %d ms\n", paint(ansiDim, ";"), step.Usage.DurationMs)
}

func renderAny(v any) string {
	if v == nil {
		return "nil"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
