package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andreasronge/ptclisp/pkg/ptclisp"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt FILE",
	Short: "Print the canonical form the interpreter will run",
	Long: `fmt reads and analyzes a program, then prints its canonical
serialized form: sugar desugared, one line. The output parses back
to the same core program.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading program: %w", err)
		}
		out, err := ptclisp.Format(string(source))
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fmtCmd)
}
