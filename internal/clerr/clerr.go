// Package clerr implements the error taxonomy of spec §7: one Error type
// whose Kind and Category fields identify the error kind for programmatic
// matching, built by one constructor per kind and carrying a source
// position, plus the separate UserException and Internal types. Errors are
// formatted with a source-line caret the way the teacher's
// internal/errors.CompilerError does.
package clerr

import (
	"fmt"
	"strings"

	"github.com/clj-lang/clj/internal/token"
)

// Category classifies an error for programmatic matching at the §6
// boundary.
type Category int

const (
	CategoryLex Category = iota
	CategoryParse
	CategoryAnalysis
	CategoryRuntime
	CategoryUser
	CategoryInternal
)

func (c Category) String() string {
	switch c {
	case CategoryLex:
		return "lex"
	case CategoryParse:
		return "parse"
	case CategoryAnalysis:
		return "analysis"
	case CategoryRuntime:
		return "runtime"
	case CategoryUser:
		return "user"
	case CategoryInternal:
		return "internal"
	}
	return "unknown"
}

// Error is a single structured error: a kind, a message, a source location,
// and a category.
type Error struct {
	Kind     string
	Message  string
	Position token.Position
	Category Category
	Source   string // the originating source line's file contents, for caret rendering
}

func (e *Error) Error() string { return e.Format(false) }

// Format renders the error with file/line/column and a caret pointing at
// the offending column, mirroring the teacher's CompilerError.Format.
func (e *Error) Format(color bool) string {
	var sb strings.Builder
	if e.Position.File != "" {
		fmt.Fprintf(&sb, "%s error in %s:%d:%d: %s\n", e.Kind, e.Position.File, e.Position.Line, e.Position.Column, e.Message)
	} else {
		fmt.Fprintf(&sb, "%s error at %d:%d: %s\n", e.Kind, e.Position.Line, e.Position.Column, e.Message)
	}
	if line := e.sourceLine(); line != "" {
		sb.WriteString(line)
		sb.WriteByte('\n')
		col := e.Position.Column
		if col < 0 {
			col = 0
		}
		sb.WriteString(strings.Repeat(" ", col))
		sb.WriteString("^\n")
	}
	return sb.String()
}

func (e *Error) sourceLine() string {
	if e.Source == "" {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	idx := e.Position.Line - 1
	if idx < 0 || idx >= len(lines) {
		return ""
	}
	return lines[idx]
}

func newErr(kind string, cat Category, pos token.Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Category: cat, Position: pos, Message: fmt.Sprintf(format, args...)}
}

// Lex reports a tokenizer-stage failure.
func Lex(pos token.Position, format string, args ...any) *Error {
	return newErr("lex", CategoryLex, pos, format, args...)
}

// Parse reports a reader-stage failure.
func Parse(pos token.Position, format string, args ...any) *Error {
	return newErr("parse", CategoryParse, pos, format, args...)
}

// Analysis reports an analyzer-stage failure (undefined symbol, invalid
// special form, invalid binding, invalid arity).
func Analysis(pos token.Position, format string, args ...any) *Error {
	return newErr("analysis", CategoryAnalysis, pos, format, args...)
}

// Runtime reports a wrong-arity, no-matching-method, division-by-zero, or
// similar evaluation-time failure catchable by `try`.
func Runtime(pos token.Position, format string, args ...any) *Error {
	return newErr("runtime", CategoryRuntime, pos, format, args...)
}

// UserException wraps a value thrown via `throw` — it is not a textual
// error but must still satisfy Go's error interface so it can travel
// through the same return-path as the other kinds.
type UserException struct {
	Value any // the thrown Value; typed any to avoid an import cycle with package value
}

func (u *UserException) Error() string { return fmt.Sprintf("user exception: %v", u.Value) }

// Internal reports an allocator-exhaustion or GC-invariant failure. Per
// spec §7 these are non-catchable in the language; callers should treat an
// *Internal as fatal.
type Internal struct {
	Message string
}

func (i *Internal) Error() string { return "internal error: " + i.Message }
