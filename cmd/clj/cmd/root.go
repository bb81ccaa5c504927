package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information, set by build flags.
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "clj",
	Short: "clj is a from-scratch Clojure-dialect interpreter and compiler",
	Long: `clj is a Go implementation of a Clojure-dialect scripting language.

It provides:
  - A reader producing data-shaped forms from source text
  - An analyzer lowering forms to a resolved intermediate representation
  - Two evaluator backends: a tree-walk interpreter and a bytecode VM
  - Persistent, structurally-shared collections and lazy sequences`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().Bool("bytecode", false, "use the bytecode backend instead of the tree-walk evaluator")
	rootCmd.PersistentFlags().Bool("compare", false, "run both backends and fail on disagreement")
	rootCmd.PersistentFlags().Int("gc-threshold", 1<<20, "GC pressure threshold in bytes (0 disables automatic collection)")
	rootCmd.PersistentFlags().StringSlice("classpath", nil, "directories searched by `require`, in order")
}
