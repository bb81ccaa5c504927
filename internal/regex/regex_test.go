package regex_test

import (
	"testing"

	"github.com/clj-lang/clj/internal/regex"
)

func TestMatchFindsFirstOccurrence(t *testing.T) {
	p, err := regex.Compile("a+b")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	groups, ok := p.Match("xx aaab yy")
	if !ok {
		t.Fatalf("expected a match")
	}
	span := groups[0]
	if "xx aaab yy"[span.Start:span.End] != "aaab" {
		t.Fatalf("matched span = %q, want %q", "xx aaab yy"[span.Start:span.End], "aaab")
	}
}

func TestMatchNoOccurrence(t *testing.T) {
	p, err := regex.Compile("xyz")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, ok := p.Match("abc"); ok {
		t.Fatalf("expected no match")
	}
}

func TestMatchWholeRequiresEntireString(t *testing.T) {
	p, err := regex.Compile("[0-9]+")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, ok := p.MatchWhole("123abc"); ok {
		t.Fatalf("MatchWhole should fail on a partial match")
	}
	if _, ok := p.MatchWhole("12345"); !ok {
		t.Fatalf("MatchWhole should succeed when the whole string matches")
	}
}

func TestCaptureGroups(t *testing.T) {
	p, err := regex.Compile("(a+)(b+)")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	groups, ok := p.MatchWhole("aaabb")
	if !ok {
		t.Fatalf("expected a match")
	}
	if len(groups) < 3 {
		t.Fatalf("expected 3 groups (whole + 2 captures), got %d", len(groups))
	}
	s := "aaabb"
	if s[groups[1].Start:groups[1].End] != "aaa" {
		t.Fatalf("group 1 = %q, want aaa", s[groups[1].Start:groups[1].End])
	}
	if s[groups[2].Start:groups[2].End] != "bb" {
		t.Fatalf("group 2 = %q, want bb", s[groups[2].Start:groups[2].End])
	}
}

func TestAlternationAndOptional(t *testing.T) {
	p, err := regex.Compile("cats?|dog")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, s := range []string{"cat", "cats", "dog"} {
		if _, ok := p.MatchWhole(s); !ok {
			t.Fatalf("expected %q to match cats?|dog", s)
		}
	}
	if _, ok := p.MatchWhole("bird"); ok {
		t.Fatalf("bird should not match cats?|dog")
	}
}

func TestInvalidPatternIsSyntaxError(t *testing.T) {
	if _, err := regex.Compile("(unterminated"); err == nil {
		t.Fatalf("expected a syntax error for an unbalanced group")
	}
}
