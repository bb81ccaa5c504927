// Package reader builds Form trees from a token stream and expands the
// reader macros (spec §4.2): quote/syntax-quote/unquote/unquote-splicing,
// deref, var-quote, anonymous-fn, set literals, discard, reader
// conditionals and metadata shorthand.
package reader

import (
	"fmt"

	"github.com/clj-lang/clj/internal/token"
)

// Kind identifies a Form's variant.
type Kind int

const (
	// atomic
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindRatio
	KindString
	KindChar
	KindSymbol
	KindKeyword
	KindRegex

	// composite
	KindList
	KindVector
	KindMap
	KindSet
)

// Form is the syntactic data structure produced by the Reader — pre-semantic,
// a direct transcription of the source text's shape.
type Form struct {
	Kind Kind
	Pos  token.Position

	// atomic payloads (exactly one populated, selected by Kind)
	Bool   bool
	Int    int64
	Float  float64
	RatioN int64 // ratio numerator
	RatioD int64 // ratio denominator (> 0)
	Str    string
	Char   rune

	// symbol/keyword
	Namespace string
	Name      string

	// composite payload
	Children []*Form

	// Meta holds reader-attached metadata (from ^meta shorthand), or nil.
	Meta *Form
}

func sym(ns, name string, pos token.Position) *Form {
	return &Form{Kind: KindSymbol, Namespace: ns, Name: name, Pos: pos}
}

// Sym builds an unqualified symbol Form, used by the analyzer and macro
// expansion when synthesizing forms (e.g. `fn*`, `quote`).
func Sym(name string) *Form { return sym("", name, token.Position{}) }

// List builds a list Form from children, used when synthesizing forms.
func List(children ...*Form) *Form {
	return &Form{Kind: KindList, Children: children}
}

// Vector builds a vector Form from children.
func Vector(children ...*Form) *Form {
	return &Form{Kind: KindVector, Children: children}
}

// IsSymbolNamed reports whether f is an unqualified symbol with the given name.
func (f *Form) IsSymbolNamed(name string) bool {
	return f != nil && f.Kind == KindSymbol && f.Namespace == "" && f.Name == name
}

// String renders a Form the way the reader would re-print it — used by the
// printer and by reader round-trip tests (testable property 1).
func (f *Form) String() string {
	if f == nil {
		return "nil"
	}
	switch f.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		if f.Bool {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", f.Int)
	case KindFloat:
		return fmt.Sprintf("%g", f.Float)
	case KindRatio:
		return fmt.Sprintf("%d/%d", f.RatioN, f.RatioD)
	case KindString:
		return fmt.Sprintf("%q", f.Str)
	case KindChar:
		return fmt.Sprintf("\\%c", f.Char)
	case KindSymbol:
		if f.Namespace != "" {
			return f.Namespace + "/" + f.Name
		}
		return f.Name
	case KindKeyword:
		if f.Namespace != "" {
			return ":" + f.Namespace + "/" + f.Name
		}
		return ":" + f.Name
	case KindRegex:
		return fmt.Sprintf("#%q", f.Str)
	case KindList:
		return joinForms("(", f.Children, ")")
	case KindVector:
		return joinForms("[", f.Children, "]")
	case KindSet:
		return joinForms("#{", f.Children, "}")
	case KindMap:
		return joinForms("{", f.Children, "}")
	}
	return "<invalid-form>"
}

func joinForms(open string, children []*Form, close string) string {
	s := open
	for i, c := range children {
		if i > 0 {
			s += " "
		}
		s += c.String()
	}
	return s + close
}
