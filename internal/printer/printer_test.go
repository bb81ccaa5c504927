package printer_test

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/clj-lang/clj/internal/printer"
	"github.com/clj-lang/clj/internal/value"
)

func TestPrint(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
	}{
		{"nil", nil},
		{"explicit nil", value.NilValue},
		{"true", value.True},
		{"int", value.Int(42)},
		{"float", value.Float(3.5)},
		{"string", value.Str("hi \"there\"\n")},
		{"char", value.Char(' ')},
		{"keyword", value.InternKeyword("", "foo")},
		{"qualified keyword", value.InternKeyword("ns", "foo")},
		{"list", value.NewList(value.Int(1), value.Str("a"))},
		{"vector", value.NewVector(value.Int(1), value.Str("a"))},
		{"set", value.NewSet(value.Int(1))},
		{"map", value.NewMap(value.InternKeyword("", "a"), value.Int(1))},
		{"nested", value.NewVector(value.NewList(value.Str("x")), value.Int(2))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snaps.MatchSnapshot(t, printer.Print(tt.v))
		})
	}
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
	}{
		{"nil", nil},
		{"explicit nil", value.NilValue},
		{"string", value.Str("hi")},
		{"int", value.Int(7)},
		{"vector with string", value.NewVector(value.Int(1), value.Str("a"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snaps.MatchSnapshot(t, printer.Display(tt.v))
		})
	}
}

func TestDisplayAllConcatenatesBareStrings(t *testing.T) {
	got := printer.DisplayAll([]value.Value{value.Str("a"), value.NilValue, value.Str("b")})
	if got != "ab" {
		t.Fatalf("DisplayAll = %q, want %q", got, "ab")
	}
}

func TestPrintAllQuotesStrings(t *testing.T) {
	got := printer.PrintAll([]value.Value{value.Str("a"), value.Int(1)})
	if got != `"a" 1` {
		t.Fatalf("PrintAll = %q, want %q", got, `"a" 1`)
	}
}
