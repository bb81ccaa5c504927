// Command clj is the CLI front end over pkg/clj: run, compile, lex, parse,
// and version subcommands built on cobra, mirroring the teacher's
// cmd/dwscript entry point.
package main

import (
	"fmt"
	"os"

	"github.com/clj-lang/clj/cmd/clj/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
