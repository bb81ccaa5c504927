package lexer

import (
	"unicode"

	"golang.org/x/text/unicode/rangetable"
)

// extraSymbolRunes covers the handful of ASCII punctuation characters
// Clojure allows inside symbols and keywords beyond letters/digits
// (*+!-_'?<>=/.%&$#:) packaged as a rangetable so classification composes
// with unicode.In the same way the stdlib's own tables do.
var extraSymbolRunes = rangetable.New(
	'*', '+', '!', '-', '_', '\'', '?', '<', '>', '=', '/', '.', '%', '&', '$', '#', ':',
)

// isSymbolRune reports whether r may appear inside a symbol/keyword name,
// beyond the delimiter exclusions handled by isSymbolConstituent.
func isSymbolRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.In(r, extraSymbolRunes)
}
