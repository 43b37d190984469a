package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/andreasronge/ptclisp/pkg/cli"
	"github.com/andreasronge/ptclisp/pkg/ptclisp"
	"github.com/andreasronge/ptclisp/pkg/store"
)

var runFlags struct {
	spec      string
	timeoutMs int64
	maxHeap   int64
	journal   string
	session   string
	asJSON    bool
	asYAML    bool
}

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Execute a program and print its Step",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading program: %w", err)
		}

		var opts ptclisp.Options
		if runFlags.spec != "" {
			spec, err := cli.LoadRunSpec(runFlags.spec)
			if err != nil {
				return err
			}
			opts = spec.Options()
		}
		if runFlags.timeoutMs > 0 {
			opts.Timeout = time.Duration(runFlags.timeoutMs) * time.Millisecond
		}
		if runFlags.maxHeap > 0 {
			opts.MaxHeap = runFlags.maxHeap
		}

		var db *store.Store
		if runFlags.journal != "" {
			db, err = store.Open(runFlags.journal)
			if err != nil {
				return err
			}
			defer db.Close()
			journal, err := db.LoadJournal(runFlags.session)
			if err != nil {
				return err
			}
			opts.Journal = journal
		}

		step := ptclisp.Run(string(source), opts)

		if db != nil {
			if err := db.SaveTurn(runFlags.session, step); err != nil {
				return err
			}
		}

		format := cli.FormatText
		if runFlags.asJSON {
			format = cli.FormatJSON
		} else if runFlags.asYAML {
			format = cli.FormatYAML
		}
		return cli.RenderStep(os.Stdout, step, format)
	},
}

func init() {
	runCmd.Flags().StringVar(&runFlags.spec, "spec", "", "YAML runspec with context, tools, and options")
	runCmd.Flags().Int64Var(&runFlags.timeoutMs, "timeout", 0, "wall-clock cap in milliseconds")
	runCmd.Flags().Int64Var(&runFlags.maxHeap, "max-heap", 0, "heap cap in bytes")
	runCmd.Flags().StringVar(&runFlags.journal, "journal", "", "sqlite file for task-journal persistence")
	runCmd.Flags().StringVar(&runFlags.session, "session", "default", "session id within the journal store")
	runCmd.Flags().BoolVar(&runFlags.asJSON, "json", false, "render the Step as JSON")
	runCmd.Flags().BoolVar(&runFlags.asYAML, "yaml", false, "render the Step as YAML")
	rootCmd.AddCommand(runCmd)
}
