// Package regex implements the small backtracking regular-expression engine
// spec §6 calls for as a peripheral, interface-only capability: compiled
// patterns are ordinary runtime Values (spec G9) usable from `re-pattern`,
// `re-matches`, `re-find`, and `re-seq`.
package regex

import "fmt"

// Pattern is a compiled regular expression, exposed to the language runtime
// as an opaque Value (TypeName "Pattern").
type Pattern struct {
	Source string
	root   node
}

func (*Pattern) TypeName() string  { return "Pattern" }
func (p *Pattern) String() string  { return "#\"" + p.Source + "\"" }

// Compile parses src into a Pattern, or returns a syntax error.
func Compile(src string) (*Pattern, error) {
	p := &parser{input: []rune(src)}
	n, err := p.parseAlt()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("regex: unexpected %q at position %d", p.input[p.pos], p.pos)
	}
	return &Pattern{Source: src, root: n}, nil
}

// Match attempts to match pat anchored at every starting offset of s in
// turn, returning the [start,end) span and submatch spans of the first
// match the backtracking search finds at the earliest matching offset, or
// ok=false. Quantifiers try more repetitions first unless lazy and
// alternatives are tried left to right, so that match is not necessarily
// the longest one at its offset.
func (p *Pattern) Match(s string) (groups []Span, ok bool) {
	runes := []rune(s)
	for start := 0; start <= len(runes); start++ {
		st := &state{input: runes, groups: newGroupSpans(maxGroup(p.root) + 1)}
		if end, matched := match(p.root, runes, start, st); matched {
			st.groups[0] = Span{start, end}
			return st.groups, true
		}
		if start < len(runes) && isAnchoredStart(p.root) {
			break
		}
	}
	return nil, false
}

// MatchWhole implements `re-matches`: the whole string must match.
func (p *Pattern) MatchWhole(s string) (groups []Span, ok bool) {
	runes := []rune(s)
	st := &state{input: runes, groups: newGroupSpans(maxGroup(p.root) + 1)}
	end, matched := match(p.root, runes, 0, st)
	if !matched || end != len(runes) {
		return nil, false
	}
	st.groups[0] = Span{0, end}
	return st.groups, true
}

// Span is a half-open [Start,End) rune-index range, or {-1,-1} for an
// unmatched optional group.
type Span struct{ Start, End int }

func (s Span) Valid() bool { return s.Start >= 0 }

func newGroupSpans(n int) []Span {
	spans := make([]Span, n)
	for i := range spans {
		spans[i] = Span{-1, -1}
	}
	return spans
}
