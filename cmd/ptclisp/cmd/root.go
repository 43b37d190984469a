package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andreasronge/ptclisp/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "ptclisp",
	Short: "Sandboxed Lisp runner for LLM-authored programs",
	Long: `ptclisp executes short Lisp programs the way an LLM-driven agent
loop would: resource-capped, sandboxed, and observable. Every run
returns a Step record with the value, captured prints, tool calls,
and the updated memory namespace.

Context data, mock tools, and option knobs come from a YAML runspec.`,
	Version:       config.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
