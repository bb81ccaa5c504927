package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clj-lang/clj/internal/analyzer"
	"github.com/clj-lang/clj/internal/builtins"
	"github.com/clj-lang/clj/internal/reader"
	"github.com/clj-lang/clj/internal/runtime"
)

var (
	parseEvalExpr string
	showAnalyzed  bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Read a clj file or expression and print its form tree",
	Long: `Read a clj program into its Form tree and print it, for debugging the
reader. With --analyzed, also run the analyzer and print the resulting
Node tree for each top-level form.

Examples:
  # Print the forms read from a file
  clj parse script.clj

  # Print the forms read from an inline expression
  clj parse -e "(defn f [x] (+ x 1))"

  # Also print the analyzed Node tree
  clj parse --analyzed script.clj`,
	Args: cobra.MaximumNArgs(1),
	RunE: parseScript,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseEvalExpr, "eval", "e", "", "parse inline code instead of reading from file")
	parseCmd.Flags().BoolVar(&showAnalyzed, "analyzed", false, "also print each form's analyzed Node tree")
}

func parseScript(cmd *cobra.Command, args []string) error {
	input, filename, err := readSource(parseEvalExpr, args)
	if err != nil {
		return err
	}

	forms, errs := reader.ReadAll(input, filename)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Println(e)
		}
		return fmt.Errorf("reading failed with %d error(s)", len(errs))
	}

	var az *analyzer.Analyzer
	if showAnalyzed {
		env := runtime.NewEnv()
		core := env.FindOrCreateNamespace("clojure.core")
		builtins.Install(env, core)
		az = analyzer.New(env)
	}

	for i, f := range forms {
		fmt.Printf("form %d: %s\n", i, f.String())
		if az != nil {
			n, err := az.AnalyzeTopLevel(f)
			if err != nil {
				return fmt.Errorf("analyzing form %d: %w", i, err)
			}
			fmt.Printf("  node: %+v\n", n)
		}
	}
	return nil
}
