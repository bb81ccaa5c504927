package bytecode_test

import (
	"testing"

	"github.com/clj-lang/clj/internal/analyzer"
	"github.com/clj-lang/clj/internal/builtins"
	"github.com/clj-lang/clj/internal/bytecode"
	"github.com/clj-lang/clj/internal/printer"
	"github.com/clj-lang/clj/internal/reader"
	"github.com/clj-lang/clj/internal/runtime"
	"github.com/clj-lang/clj/internal/value"
)

// vmEnv bundles everything runVM needs to analyze-then-compile-then-run
// each top-level form against one shared Env, so defs in one call are
// visible to a later one.
type vmEnv struct {
	env *runtime.Env
	az  *analyzer.Analyzer
	vm  *bytecode.VM
}

func newVMEnv(t *testing.T) *vmEnv {
	t.Helper()
	env := runtime.NewEnv()
	core := env.FindOrCreateNamespace("clojure.core")
	builtins.Install(env, core)
	az := analyzer.New(env)
	vm := bytecode.NewVM(env)
	az.SetMacroInvoker(func(fn *value.Fn, args []value.Value) (value.Value, error) {
		return vm.Apply(fn, args)
	})
	return &vmEnv{env: env, az: az, vm: vm}
}

func (e *vmEnv) run(t *testing.T, src string) value.Value {
	t.Helper()
	forms, errs := reader.ReadAll(src, "<test>")
	if len(errs) > 0 {
		t.Fatalf("ReadAll(%q): %v", src, errs)
	}
	var result value.Value = value.NilValue
	for _, f := range forms {
		n, err := e.az.AnalyzeTopLevel(f)
		if err != nil {
			t.Fatalf("AnalyzeTopLevel(%q): %v", src, err)
		}
		chunk, err := bytecode.Compile(n)
		if err != nil {
			t.Fatalf("Compile(%q): %v", src, err)
		}
		result, err = e.vm.Run(chunk)
		if err != nil {
			t.Fatalf("Run(%q): %v", src, err)
		}
	}
	return result
}

func TestVMArithmeticAndIf(t *testing.T) {
	e := newVMEnv(t)
	cases := map[string]string{
		`(+ 1 2 3)`:      "6",
		`(if true 1 2)`:  "1",
		`(if false 1 2)`: "2",
		`(if nil 1 2)`:   "2",
		`(if 0 1 2)`:     "1",
	}
	for src, want := range cases {
		if got := printer.Print(e.run(t, src)); got != want {
			t.Errorf("%s = %s, want %s", src, got, want)
		}
	}
}

func TestVMLetAndClosures(t *testing.T) {
	e := newVMEnv(t)
	got := printer.Print(e.run(t, `(let [x 10] ((fn [y] (+ x y)) 5))`))
	if got != "15" {
		t.Fatalf("closure capture = %s, want 15", got)
	}
}

func TestVMLoopRecurIsStackSafe(t *testing.T) {
	e := newVMEnv(t)
	got := printer.Print(e.run(t, `(loop [i 0 acc 0] (if (= i 50000) acc (recur (inc i) (+ acc i))))`))
	want := printer.Print(value.Int(49999 * 50000 / 2))
	if got != want {
		t.Fatalf("loop/recur sum 0..49999 = %s, want %s (testable property 3)", got, want)
	}
}

func TestVMRecursiveFnThroughVar(t *testing.T) {
	e := newVMEnv(t)
	e.run(t, `(def fact (fn [n] (if (<= n 1) 1 (* n (fact (- n 1))))))`)
	got := printer.Print(e.run(t, `(fact 5)`))
	if got != "120" {
		t.Fatalf("fact(5) = %s, want 120", got)
	}
}

func TestVMTryThrowUnwindsToHandler(t *testing.T) {
	e := newVMEnv(t)
	got := printer.Print(e.run(t, `(try (throw :oops) (catch Exception e e))`))
	if got != ":oops" {
		t.Fatalf("try/catch result = %s, want :oops", got)
	}
}

func TestVMTryFinallyRunsOnException(t *testing.T) {
	e := newVMEnv(t)
	got := printer.Print(e.run(t, `
		(let [log (atom [])]
		  (try
		    (throw :boom)
		    (catch Exception e (swap! log conj :caught))
		    (finally (swap! log conj :finally)))
		  @log)`))
	if got != "[:caught :finally]" {
		t.Fatalf("finally must run after catch = %s, want [:caught :finally]", got)
	}
}

func TestVMLetfnMutualRecursion(t *testing.T) {
	e := newVMEnv(t)
	got := printer.Print(e.run(t, `
		(letfn [(even2? [n] (if (= n 0) true (odd2? (dec n))))
		        (odd2? [n] (if (= n 0) false (even2? (dec n))))]
		  (even2? 10))`))
	if got != "true" {
		t.Fatalf("letfn mutual recursion even2?(10) = %s, want true", got)
	}
}

func TestVMKeywordMapSetAsFunctions(t *testing.T) {
	e := newVMEnv(t)
	if got := printer.Print(e.run(t, `(:a {:a 1})`)); got != "1" {
		t.Fatalf("keyword-as-function = %s, want 1", got)
	}
	if got := printer.Print(e.run(t, `({:a 1} :a)`)); got != "1" {
		t.Fatalf("map-as-function = %s, want 1", got)
	}
	if got := printer.Print(e.run(t, `(#{:a :b} :a)`)); got != ":a" {
		t.Fatalf("set-as-function membership = %s, want :a", got)
	}
}

func TestVMMultimethodDispatch(t *testing.T) {
	e := newVMEnv(t)
	e.run(t, `(defmulti area :shape)`)
	e.run(t, `(defmethod area :circle [c] (* 3 (:r c) (:r c)))`)
	e.run(t, `(defmethod area :rect [r] (* (:w r) (:h r)))`)
	got := printer.Print(e.run(t, `(area {:shape :rect :w 3 :h 4})`))
	if got != "12" {
		t.Fatalf("multimethod dispatch = %s, want 12", got)
	}
}
