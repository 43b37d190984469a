package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andreasronge/ptclisp/pkg/ptclisp"
)

var checkCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Statically validate a program without running it",
	Long: `check reads, analyzes, and budget-checks a program, then reports
the context keys it will need. Useful as a cheap pre-flight on
LLM output before spending a real run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading program: %w", err)
		}

		if err := ptclisp.AnalyzeOnly(string(source)); err != nil {
			return err
		}

		count, err := ptclisp.SymbolCount(string(source))
		if err != nil {
			return err
		}
		keys, err := ptclisp.RequiredDataKeys(string(source))
		if err != nil {
			return err
		}

		fmt.Printf("ok: %d distinct symbols\n", count)
		if len(keys) > 0 {
			fmt.Printf("context keys: %s\n", strings.Join(keys, " "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
