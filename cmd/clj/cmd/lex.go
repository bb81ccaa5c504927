package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clj-lang/clj/internal/lexer"
	"github.com/clj-lang/clj/internal/token"
)

var (
	lexShowPos    bool
	onlyIllegal   bool
	lexEvalExpr   string
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a clj file or expression",
	Long: `Tokenize a clj program and print the resulting tokens, one per line.

Examples:
  # Tokenize a script file
  clj lex script.clj

  # Tokenize an inline expression
  clj lex -e "(+ 1 2)"

  # Show token positions
  clj lex --show-pos script.clj

  # Show only illegal tokens
  clj lex --only-illegal script.clj`,
	Args: cobra.MaximumNArgs(1),
	RunE: lexScript,
}

func init() {
	rootCmd.AddCommand(lexCmd)
	lexCmd.Flags().StringVarP(&lexEvalExpr, "eval", "e", "", "tokenize inline code instead of reading from file")
	lexCmd.Flags().BoolVar(&lexShowPos, "show-pos", false, "show token positions (line:column)")
	lexCmd.Flags().BoolVar(&onlyIllegal, "only-illegal", false, "show only illegal tokens")
}

func lexScript(cmd *cobra.Command, args []string) error {
	input, filename, err := readSource(lexEvalExpr, args)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		fmt.Printf("Tokenizing: %s\n", filename)
		fmt.Printf("Input length: %d bytes\n", len(input))
		fmt.Println("---")
	}

	l := lexer.New(input, filename)
	illegalCount := 0
	tokenCount := 0

	for {
		tok := l.Next()
		if onlyIllegal && tok.Kind != token.ILLEGAL {
			if tok.Kind == token.EOF {
				break
			}
			continue
		}

		tokenCount++
		if tok.Kind == token.ILLEGAL {
			illegalCount++
		}
		printToken(tok)

		if tok.Kind == token.EOF {
			break
		}
	}

	if verbose {
		fmt.Println("---")
		fmt.Printf("Total tokens: %d\n", tokenCount)
	}
	if errs := l.Errors(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return fmt.Errorf("found %d lexical error(s)", len(errs))
	}
	return nil
}

func printToken(tok token.Token) {
	out := fmt.Sprintf("%-14s %q", tok.Kind, tok.Literal)
	if lexShowPos {
		out += " @" + tok.Position.String()
	}
	fmt.Println(out)
}
