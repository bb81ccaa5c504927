package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clj-lang/clj/internal/printer"
	"github.com/clj-lang/clj/pkg/clj"
)

var (
	evalExpr    string
	requireNses []string
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a clj file or expression",
	Long: `Execute a clj program from a file or inline expression, printing the
value of the last top-level form.

Examples:
  # Run a script file
  clj run script.clj

  # Evaluate an inline expression
  clj run -e "(+ 1 2)"

  # Run on the bytecode backend instead of the tree-walk evaluator
  clj run --bytecode script.clj

  # Run both backends and fail on disagreement
  clj run --compare script.clj

  # Load a namespace off the classpath before running
  clj run --classpath ./src --require my-app.core -e "(my-app.core/greet)"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline code instead of reading from file")
	runCmd.Flags().StringSliceVar(&requireNses, "require", nil, "namespaces to load off --classpath before running, in order")
}

func runScript(cmd *cobra.Command, args []string) error {
	input, filename, err := readSource(evalExpr, args)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	rt := clj.New(contextFromFlags(cmd))

	for _, ns := range requireNses {
		if err := rt.Require(ns); err != nil {
			return err
		}
	}

	result, err := rt.Evaluate(input, filename)
	if err != nil {
		return err
	}

	fmt.Println(printer.PrintWithApplier(result, rt.Applier()))

	if verbose {
		stats := rt.GCStats()
		fmt.Fprintf(os.Stderr, "gc: %d cycle(s), last live=%d bytes=%d\n", stats.Cycles, stats.LastLive, stats.LastBytes)
	}
	return nil
}

// readSource resolves a command's input source: an inline expression flag
// takes priority, then a single file argument, otherwise it's an error.
func readSource(eval string, args []string) (input, filename string, err error) {
	if eval != "" {
		return eval, "<eval>", nil
	}
	if len(args) == 1 {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
		return string(content), args[0], nil
	}
	return "", "", fmt.Errorf("either provide a file path or use -e for inline code")
}
