package clj_test

import (
	"testing"

	"github.com/clj-lang/clj/internal/printer"
	"github.com/clj-lang/clj/internal/value"
	"github.com/clj-lang/clj/pkg/clj"
)

func eval(t *testing.T, rt *clj.Runtime, src string) value.Value {
	t.Helper()
	v, err := rt.Evaluate(src, "<test>")
	if err != nil {
		t.Fatalf("Evaluate(%q): %v", src, err)
	}
	return v
}

func TestEvaluateArithmetic(t *testing.T) {
	rt := clj.New(nil)
	got := eval(t, rt, `(+ 1 2 3)`)
	if printer.Print(got) != "6" {
		t.Fatalf("(+ 1 2 3) = %s, want 6", printer.Print(got))
	}
}

func TestEvaluateRecursiveFn(t *testing.T) {
	rt := clj.New(nil)
	got := eval(t, rt, `((fn fact [n] (if (<= n 1) 1 (* n (fact (- n 1))))) 5)`)
	if printer.Print(got) != "120" {
		t.Fatalf("fact(5) = %s, want 120", printer.Print(got))
	}
}

func TestEvaluateAtomSwap(t *testing.T) {
	rt := clj.New(nil)
	got := eval(t, rt, `(let [a (atom 0)] (dotimes [_ 1000] (swap! a inc)) @a)`)
	if printer.Print(got) != "1000" {
		t.Fatalf("swap! loop result = %s, want 1000", printer.Print(got))
	}
}

func TestBindRootAndSnapshotRestore(t *testing.T) {
	rt := clj.New(nil)
	if err := rt.BindRoot("user", "x", value.Int(10)); err != nil {
		t.Fatalf("BindRoot: %v", err)
	}

	snap := rt.SnapshotVars()

	if err := rt.BindRoot("user", "x", value.Int(20)); err != nil {
		t.Fatalf("BindRoot (second): %v", err)
	}
	got := eval(t, rt, `user/x`)
	if printer.Print(got) != "20" {
		t.Fatalf("user/x after rebind = %s, want 20", printer.Print(got))
	}

	rt.RestoreVars(snap)
	got = eval(t, rt, `user/x`)
	if printer.Print(got) != "10" {
		t.Fatalf("user/x after restore = %s, want 10", printer.Print(got))
	}
}

func TestEvaluateFormReadsExactlyOneForm(t *testing.T) {
	rt := clj.New(nil)
	got, err := rt.EvaluateForm(`(+ 1 1) (+ 2 2)`, "<test>")
	if err != nil {
		t.Fatalf("EvaluateForm: %v", err)
	}
	if printer.Print(got) != "2" {
		t.Fatalf("EvaluateForm result = %s, want 2 (only the first form)", printer.Print(got))
	}
}
