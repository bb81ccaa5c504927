package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clj-lang/clj/internal/analyzer"
	"github.com/clj-lang/clj/internal/builtins"
	"github.com/clj-lang/clj/internal/bytecode"
	"github.com/clj-lang/clj/internal/reader"
	"github.com/clj-lang/clj/internal/runtime"
)

var disassemble bool

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile a clj file or expression to bytecode",
	Long: `Compile a clj program's top-level forms to bytecode chunks and report
their size, without running them.

User-defined macros are never expanded here, since compiling alone never
runs anything: only the in-analyzer core macros (when, cond, ->, defn, ...)
expand without a live macro invoker, and a form using a user macro is
analyzed as an ordinary call (failing if its arguments don't resolve).

Examples:
  # Compile a script and report chunk sizes
  clj compile script.clj

  # Compile and print the disassembled bytecode
  clj compile --disassemble script.clj`,
	Args: cobra.ExactArgs(1),
	RunE: compileScript,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().BoolVar(&disassemble, "disassemble", false, "print disassembled bytecode for each compiled form")
}

func compileScript(cmd *cobra.Command, args []string) error {
	filename := args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	input := string(content)

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		fmt.Fprintf(os.Stderr, "Compiling %s...\n", filename)
	}

	forms, errs := reader.ReadAll(input, filename)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return fmt.Errorf("parsing failed with %d error(s)", len(errs))
	}

	env := runtime.NewEnv()
	core := env.FindOrCreateNamespace("clojure.core")
	builtins.Install(env, core)
	az := analyzer.New(env)

	totalInstrs, totalNames := 0, 0
	for i, f := range forms {
		n, err := az.AnalyzeTopLevel(f)
		if err != nil {
			return fmt.Errorf("analyzing form %d: %w", i, err)
		}
		chunk, err := bytecode.Compile(n)
		if err != nil {
			return fmt.Errorf("compiling form %d: %w", i, err)
		}
		totalInstrs += len(chunk.Code)
		totalNames += len(chunk.Names)

		if disassemble {
			fmt.Printf("== form %d ==\n", i)
			bytecode.NewDisassembler(chunk, os.Stdout).Disassemble()
			fmt.Println()
		}
	}

	fmt.Printf("Compiled %s: %d form(s), %d instruction(s), %d name ref(s)\n",
		filename, len(forms), totalInstrs, totalNames)
	return nil
}
