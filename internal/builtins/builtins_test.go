package builtins_test

import (
	"strings"
	"testing"

	"github.com/clj-lang/clj/internal/engine"
	"github.com/clj-lang/clj/internal/printer"
)

func eval(t *testing.T, src string) string {
	t.Helper()
	e := engine.New(engine.BackendTreeWalk)
	got, err := e.EvaluateString(src, "<test>")
	if err != nil {
		t.Fatalf("EvaluateString(%q): %v", src, err)
	}
	return printer.PrintWithApplier(got, e.Applier())
}

func evalErr(t *testing.T, src string) error {
	t.Helper()
	e := engine.New(engine.BackendTreeWalk)
	_, err := e.EvaluateString(src, "<test>")
	return err
}

func TestArithmetic(t *testing.T) {
	cases := map[string]string{
		`(+ 1 2 3)`:     "6",
		`(- 10 3 2)`:    "5",
		`(* 2 3 4)`:     "24",
		`(/ 10 2)`:      "5",
		`(mod 7 3)`:     "1",
		`(inc 41)`:      "42",
		`(dec 1)`:       "0",
		`(max 1 5 3)`:   "5",
		`(min 1 5 3)`:   "1",
		`(+ 1 2.5)`:     "3.5",
	}
	for src, want := range cases {
		if got := eval(t, src); got != want {
			t.Errorf("%s = %s, want %s", src, got, want)
		}
	}
}

func TestIntegerDivisionByZeroIsRuntimeError(t *testing.T) {
	if err := evalErr(t, `(/ 1 0)`); err == nil {
		t.Fatalf("expected a runtime error dividing by zero")
	}
}

func TestComparisons(t *testing.T) {
	cases := map[string]string{
		`(< 1 2 3)`:   "true",
		`(< 1 3 2)`:   "false",
		`(= 1 1 1)`:   "true",
		`(= 1 2)`:     "false",
		`(>= 3 3 2)`:  "true",
	}
	for src, want := range cases {
		if got := eval(t, src); got != want {
			t.Errorf("%s = %s, want %s", src, got, want)
		}
	}
}

func TestPredicates(t *testing.T) {
	cases := map[string]string{
		`(nil? nil)`:     "true",
		`(nil? 1)`:       "false",
		`(number? 1)`:    "true",
		`(string? "a")`:  "true",
		`(vector? [1])`:  "true",
		`(odd? 3)`:       "true",
		`(even? 3)`:      "false",
	}
	for src, want := range cases {
		if got := eval(t, src); got != want {
			t.Errorf("%s = %s, want %s", src, got, want)
		}
	}
}

func TestSeqOperations(t *testing.T) {
	cases := map[string]string{
		`(first [1 2 3])`:          "1",
		`(rest [1 2 3])`:           "(2 3)",
		`(cons 0 [1 2])`:           "(0 1 2)",
		`(conj [1 2] 3)`:           "[1 2 3]",
		`(count [1 2 3])`:          "3",
		`(nth [1 2 3] 1)`:          "2",
		`(reverse [1 2 3])`:        "(3 2 1)",
		`(map inc [1 2 3])`:        "(2 3 4)",
		`(filter odd? [1 2 3 4])`:  "(1 3)",
		`(reduce + 0 [1 2 3 4])`:   "10",
		`(apply + [1 2 3])`:        "6",
		`(take 2 [1 2 3])`:         "(1 2)",
		`(drop 2 [1 2 3])`:         "(3)",
	}
	for src, want := range cases {
		if got := eval(t, src); got != want {
			t.Errorf("%s = %s, want %s", src, got, want)
		}
	}
}

func TestMapOperations(t *testing.T) {
	cases := map[string]string{
		`(get {:a 1} :a)`:         "1",
		`(get {:a 1} :b 99)`:      "99",
		`(assoc {:a 1} :b 2)`:     "{:a 1 :b 2}",
		`(dissoc {:a 1 :b 2} :a)`: "{:b 2}",
		`(contains? {:a 1} :a)`:   "true",
		`(keys {:a 1 :b 2})`:      "(:a :b)",
		`(vals {:a 1 :b 2})`:      "(1 2)",
	}
	for src, want := range cases {
		if got := eval(t, src); got != want {
			t.Errorf("%s = %s, want %s", src, got, want)
		}
	}
}

func TestStringBuiltins(t *testing.T) {
	cases := map[string]string{
		`(str "a" "b" 1)`:       `"ab1"`,
		`(subs "hello" 1 3)`:    `"el"`,
		`(count "hello")`:       "5",
		`(symbol "x")`:          "x",
		`(keyword "x")`:         ":x",
		`(name :foo)`:           `"foo"`,
	}
	for src, want := range cases {
		if got := eval(t, src); got != want {
			t.Errorf("%s = %s, want %s", src, got, want)
		}
	}
}

func TestIdentityBuiltinsAtomAndDelay(t *testing.T) {
	if got := eval(t, `(let [a (atom 1)] (reset! a 5) @a)`); got != "5" {
		t.Errorf("atom reset!/deref = %s, want 5", got)
	}
	if got := eval(t, `(let [v (volatile! 1)] (vswap! v inc) @v)`); got != "2" {
		t.Errorf("volatile!/vswap!/deref = %s, want 2", got)
	}
}

func TestRegexBuiltins(t *testing.T) {
	if got := eval(t, `(re-find (re-pattern "[0-9]+") "abc123def")`); got != `"123"` {
		t.Errorf("re-find = %s, want \"123\"", got)
	}
	if got := eval(t, `(re-matches (re-pattern "[a-z]+") "abc")`); got != `"abc"` {
		t.Errorf(`re-matches on a whole match = %s, want "abc"`, got)
	}
}

func TestInstallLeavesCoreBuiltinsReachable(t *testing.T) {
	// Install panics on a duplicate name; this test only checks that
	// engine.New's Install completed and core builtins are reachable (a
	// duplicate-name panic would have surfaced at engine.New time already,
	// in every other test in this file).
	e := engine.New(engine.BackendTreeWalk)
	got, err := e.EvaluateString(`(+ 1 1)`, "<test>")
	if err != nil || !strings.Contains(printer.Print(got), "2") {
		t.Fatalf("expected a working engine after Install, got %v err=%v", got, err)
	}
}
