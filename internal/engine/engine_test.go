package engine_test

import (
	"testing"

	"github.com/clj-lang/clj/internal/engine"
	"github.com/clj-lang/clj/internal/printer"
	"github.com/clj-lang/clj/internal/reader"
)

// evalAllPrinted evaluates src and renders the result the way `pr-str`
// does, forcing any lazy sequence in the result through the engine's
// Applier first (spec §4.6 — `pr-str` never leaves a seq pending).
func evalAllPrinted(t *testing.T, backend engine.Backend, src string) string {
	t.Helper()
	e := engine.New(backend)
	v, err := e.EvaluateString(src, "<test>")
	if err != nil {
		t.Fatalf("backend %v: EvaluateString(%q): %v", backend, src, err)
	}
	return printer.PrintWithApplier(v, e.Applier())
}

// scenarios are spec §8's S1-S7 end-to-end examples. Each must pass under
// all three backends (tree-walk, bytecode, compare).
var scenarios = []struct {
	name string
	src  string
	want string
}{
	{"S1", `(+ 1 2 3)`, "6"},
	{"S2", `((fn fact [n] (if (<= n 1) 1 (* n (fact (- n 1))))) 5)`, "120"},
	{"S3", `(take 5 (filter odd? (map (fn [x] (* x x)) (range))))`, "(1 9 25 49 81)"},
	{"S4", `(let [a (atom 0)] (dotimes [_ 1000] (swap! a inc)) @a)`, "1000"},
	{
		"S5",
		`(try (throw (ex-info "boom" {:code 42})) (catch Exception e [(ex-message e) (:code (ex-data e))]))`,
		`["boom" 42]`,
	},
	{
		"S6",
		`(do (defprotocol P (f [x])) (extend-type String P (f [s] (count s))) (f "hello"))`,
		"5",
	},
	{
		"S7",
		`(do
		   (defmulti area :shape)
		   (defmethod area :circle [c] (* 3 (:r c) (:r c)))
		   (defmethod area :rect [r] (* (:w r) (:h r)))
		   (area {:shape :rect :w 3 :h 4}))`,
		"12",
	},
}

func TestScenariosAcrossBackends(t *testing.T) {
	backends := []struct {
		name string
		b    engine.Backend
	}{
		{"tree-walk", engine.BackendTreeWalk},
		{"bytecode", engine.BackendBytecode},
		{"compare", engine.BackendCompare},
	}
	for _, be := range backends {
		for _, sc := range scenarios {
			t.Run(be.name+"/"+sc.name, func(t *testing.T) {
				got := evalAllPrinted(t, be.b, sc.src)
				if got != sc.want {
					t.Fatalf("%s under %s = %s, want %s", sc.name, be.name, got, sc.want)
				}
			})
		}
	}
}

func TestCompareModeDetectsIdenticalBackendsAgree(t *testing.T) {
	e := engine.New(engine.BackendCompare)
	_, err := e.EvaluateString(`(+ 1 (* 2 3))`, "<test>")
	if err != nil {
		t.Fatalf("compare mode should not fail when both backends agree: %v", err)
	}
}

func TestCompareModeIsolatesVarEffectsAcrossTheTwoRuns(t *testing.T) {
	// def has a side effect (binds a Var root). Compare mode must not
	// double-apply it: after evaluating the def once under compare mode,
	// the var's root must reflect exactly one evaluation's value, not two
	// nested defs layered on top of each other.
	e := engine.New(engine.BackendCompare)
	_, err := e.EvaluateString(`(def counter 1)`, "<test>")
	if err != nil {
		t.Fatalf("EvaluateString: %v", err)
	}
	got, err := e.EvaluateString(`counter`, "<test>")
	if err != nil {
		t.Fatalf("EvaluateString: %v", err)
	}
	if printer.Print(got) != "1" {
		t.Fatalf("counter = %s, want 1 (compare mode must not double-apply def's side effect)", printer.Print(got))
	}
}

func TestEvaluateFormReadsOnlyOneForm(t *testing.T) {
	e := engine.New(engine.BackendTreeWalk)
	forms, errs := reader.ReadAll(`(+ 1 1) (+ 2 2)`, "<test>")
	if len(errs) > 0 {
		t.Fatalf("ReadAll errors: %v", errs)
	}
	got, err := e.EvaluateForm(forms[0])
	if err != nil {
		t.Fatalf("EvaluateForm: %v", err)
	}
	if printer.Print(got) != "2" {
		t.Fatalf("EvaluateForm(first form) = %s, want 2", printer.Print(got))
	}
}

func TestGCStatsAccumulateAcrossTopLevelForms(t *testing.T) {
	e := engine.NewWithGCThreshold(engine.BackendTreeWalk, 1)
	for i := 0; i < 3; i++ {
		if _, err := e.EvaluateString(`(+ 1 1)`, "<test>"); err != nil {
			t.Fatalf("EvaluateString: %v", err)
		}
	}
	stats := e.GCStats()
	if stats.Cycles == 0 {
		t.Fatalf("expected at least one GC cycle with a threshold of 1 byte, got 0")
	}
}
