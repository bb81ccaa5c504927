// Package printer renders runtime Values the way `pr-str` and `str` do,
// grounded on the teacher's pkg/printer (an AST-to-source pretty printer):
// the same dispatch-by-concrete-type, recurse-into-children shape, aimed at
// a different target (a readable Value form rather than re-emitted source).
//
// value.Value.String() already gives every type a rendering, but it is a
// debug/display rendering: a String value stringifies to its own bare
// characters, not the quoted-and-escaped literal `pr-str` must produce so
// collections round-trip through the reader. Print fixes that one
// discrepancy recursively; everywhere else it defers to String().
package printer

import (
	"strings"

	"github.com/clj-lang/clj/internal/lazyseq"
	"github.com/clj-lang/clj/internal/value"
)

// Print renders v the way `pr-str` does: machine-readable, every String
// quoted and escaped, recursing into collection elements the same way. A
// *lazyseq.Seq is rendered in its current (possibly unrealized) state —
// use PrintWithApplier to force it first, the way `pr-str` actually does.
func Print(v value.Value) string {
	return PrintWithApplier(v, nil)
}

// PrintWithApplier is Print, but given a non-nil Applier it drives any
// *lazyseq.Seq encountered (including nested inside collections) through
// First/Rest to fully realize it before rendering, matching `pr-str`'s
// "both sides are forced completely" behavior (spec §4.6).
func PrintWithApplier(v value.Value, app value.Applier) string {
	var sb strings.Builder
	print1(v, app, &sb)
	return sb.String()
}

// PrintAll renders each of vs with Print, space-separated — `pr-str`'s
// multi-arg form.
func PrintAll(vs []value.Value) string {
	return PrintAllWithApplier(vs, nil)
}

// PrintAllWithApplier is PrintAll, forcing lazy sequences through app.
func PrintAllWithApplier(vs []value.Value, app value.Applier) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = PrintWithApplier(v, app)
	}
	return strings.Join(parts, " ")
}

func print1(v value.Value, app value.Applier, sb *strings.Builder) {
	if v == nil {
		sb.WriteString("nil")
		return
	}
	switch t := v.(type) {
	case value.Nil:
		sb.WriteString("nil")
	case value.Str:
		writeQuoted(string(t), sb)
	case value.Char:
		sb.WriteString(charLiteral(rune(t)))
	case *value.List:
		sb.WriteByte('(')
		printSeq(t.Items(), app, sb)
		sb.WriteByte(')')
	case *value.Vector:
		sb.WriteByte('[')
		printSeq(t.Items(), app, sb)
		sb.WriteByte(']')
	case *value.Set:
		sb.WriteString("#{")
		printSeq(t.Items(), app, sb)
		sb.WriteByte('}')
	case *value.Map:
		sb.WriteByte('{')
		first := true
		t.Each(func(k, val value.Value) bool {
			if !first {
				sb.WriteByte(' ')
			}
			first = false
			print1(k, app, sb)
			sb.WriteByte(' ')
			print1(val, app, sb)
			return true
		})
		sb.WriteByte('}')
	case *lazyseq.Seq:
		printLazySeq(t, app, sb)
	default:
		sb.WriteString(v.String())
	}
}

// printLazySeq renders a lazy sequence. Without an Applier it can't force
// anything beyond what's already realized, so it falls back to Seq's own
// String(). With one, it drives First/Rest to completion the way `pr-str`
// forces a seq before printing it.
func printLazySeq(s *lazyseq.Seq, app value.Applier, sb *strings.Builder) {
	if app == nil {
		sb.WriteString(s.String())
		return
	}
	sb.WriteByte('(')
	first := true
	cur := s
	for {
		empty, err := cur.IsEmpty(app)
		if err != nil || empty {
			break
		}
		head, err := cur.First(app)
		if err != nil {
			break
		}
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		print1(head, app, sb)
		next, err := cur.Rest(app)
		if err != nil {
			break
		}
		cur = next
	}
	sb.WriteByte(')')
}

func printSeq(items []value.Value, app value.Applier, sb *strings.Builder) {
	for i, it := range items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		print1(it, app, sb)
	}
}

func writeQuoted(s string, sb *strings.Builder) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
}

func charLiteral(r rune) string {
	switch r {
	case ' ':
		return "\\space"
	case '\n':
		return "\\newline"
	case '\t':
		return "\\tab"
	case '\r':
		return "\\return"
	default:
		return "\\" + string(r)
	}
}

// Display renders v the way `str` does: a String argument contributes its
// bare characters, nil contributes nothing, and everything else falls back
// to Print — `(str [1 "a"])` is `"[1 \"a\"]"` (the vector's own printed
// form), but `(str "a" nil "b")` is `"ab"`.
func Display(v value.Value) string {
	return DisplayWithApplier(v, nil)
}

// DisplayWithApplier is Display, forcing lazy sequences through app.
func DisplayWithApplier(v value.Value, app value.Applier) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case value.Nil:
		return ""
	case value.Str:
		return string(t)
	default:
		return PrintWithApplier(v, app)
	}
}

// DisplayAll concatenates Display(v) for each of vs — `str`'s multi-arg
// form.
func DisplayAll(vs []value.Value) string {
	return DisplayAllWithApplier(vs, nil)
}

// DisplayAllWithApplier is DisplayAll, forcing lazy sequences through app.
func DisplayAllWithApplier(vs []value.Value, app value.Applier) string {
	var sb strings.Builder
	for _, v := range vs {
		sb.WriteString(DisplayWithApplier(v, app))
	}
	return sb.String()
}
