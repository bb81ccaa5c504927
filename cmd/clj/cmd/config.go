package cmd

import (
	"github.com/spf13/cobra"

	"github.com/clj-lang/clj/internal/clojcfg"
	"github.com/clj-lang/clj/internal/engine"
)

// contextFromFlags builds a RuntimeContext from the persistent flags every
// subcommand inherits from rootCmd.
func contextFromFlags(cmd *cobra.Command) *clojcfg.RuntimeContext {
	bytecodeBackend, _ := cmd.Flags().GetBool("bytecode")
	compare, _ := cmd.Flags().GetBool("compare")
	gcThreshold, _ := cmd.Flags().GetInt("gc-threshold")
	classpath, _ := cmd.Flags().GetStringSlice("classpath")

	backend := engine.BackendTreeWalk
	switch {
	case compare:
		backend = engine.BackendCompare
	case bytecodeBackend:
		backend = engine.BackendBytecode
	}

	return clojcfg.New(
		clojcfg.WithBackend(backend),
		clojcfg.WithGC(gcThreshold),
		clojcfg.WithClasspath(classpath...),
	)
}
