package treewalk_test

import (
	"testing"

	"github.com/clj-lang/clj/internal/analyzer"
	"github.com/clj-lang/clj/internal/builtins"
	"github.com/clj-lang/clj/internal/printer"
	"github.com/clj-lang/clj/internal/reader"
	"github.com/clj-lang/clj/internal/runtime"
	"github.com/clj-lang/clj/internal/treewalk"
	"github.com/clj-lang/clj/internal/value"
)

func newInterp(t *testing.T) (*treewalk.Interp, *analyzer.Analyzer) {
	t.Helper()
	env := runtime.NewEnv()
	core := env.FindOrCreateNamespace("clojure.core")
	builtins.Install(env, core)
	az := analyzer.New(env)
	tw := treewalk.New(env)
	az.SetMacroInvoker(func(fn *value.Fn, args []value.Value) (value.Value, error) {
		return tw.Apply(fn, args)
	})
	return tw, az
}

func evalSrc(t *testing.T, tw *treewalk.Interp, az *analyzer.Analyzer, src string) value.Value {
	t.Helper()
	forms, errs := reader.ReadAll(src, "<test>")
	if len(errs) > 0 {
		t.Fatalf("ReadAll(%q): %v", src, errs)
	}
	var result value.Value = value.NilValue
	for _, f := range forms {
		n, err := az.AnalyzeTopLevel(f)
		if err != nil {
			t.Fatalf("AnalyzeTopLevel(%q): %v", src, err)
		}
		result, err = tw.Eval(n)
		if err != nil {
			t.Fatalf("Eval(%q): %v", src, err)
		}
	}
	return result
}

func TestIfTreatsOnlyNilAndFalseAsFalsy(t *testing.T) {
	tw, az := newInterp(t)
	cases := map[string]string{
		`(if nil :a :b)`:   ":b",
		`(if false :a :b)`: ":b",
		`(if 0 :a :b)`:     ":a",
		`(if [] :a :b)`:    ":a",
	}
	for src, want := range cases {
		got := printer.Print(evalSrc(t, tw, az, src))
		if got != want {
			t.Errorf("%s = %s, want %s", src, got, want)
		}
	}
}

func TestLetBindingsPopOnNormalExit(t *testing.T) {
	tw, az := newInterp(t)
	got := printer.Print(evalSrc(t, tw, az, `(let [a 1] (let [b 2] (+ a b)))`))
	if got != "3" {
		t.Fatalf("nested let = %s, want 3", got)
	}
}

func TestLoopRecurAccumulates(t *testing.T) {
	tw, az := newInterp(t)
	got := printer.Print(evalSrc(t, tw, az, `(loop [i 0 acc 0] (if (= i 5) acc (recur (inc i) (+ acc i))))`))
	if got != "10" {
		t.Fatalf("loop/recur sum 0..4 = %s, want 10", got)
	}
}

func TestLoopRecurIsStackSafe(t *testing.T) {
	tw, az := newInterp(t)
	got := printer.Print(evalSrc(t, tw, az, `(loop [i 0] (if (= i 50000) i (recur (inc i))))`))
	if got != "50000" {
		t.Fatalf("loop/recur 50000 iterations = %s, want 50000 (testable property 3)", got)
	}
}

func TestClosureCapturesEnclosingBinding(t *testing.T) {
	tw, az := newInterp(t)
	got := printer.Print(evalSrc(t, tw, az, `(let [x 10] ((fn [y] (+ x y)) 5))`))
	if got != "15" {
		t.Fatalf("closure capture = %s, want 15", got)
	}
}

func TestDefEnablesDirectRecursion(t *testing.T) {
	tw, az := newInterp(t)
	evalSrc(t, tw, az, `(def fact (fn [n] (if (<= n 1) 1 (* n (fact (dec n))))))`)
	got := printer.Print(evalSrc(t, tw, az, `(fact 6)`))
	if got != "720" {
		t.Fatalf("fact(6) = %s, want 720", got)
	}
}

func TestTryCatchBindsThrownValue(t *testing.T) {
	tw, az := newInterp(t)
	got := printer.Print(evalSrc(t, tw, az, `(try (throw :oops) (catch Exception e e))`))
	if got != ":oops" {
		t.Fatalf("try/catch result = %s, want :oops", got)
	}
}

func TestTryFinallyAlwaysRuns(t *testing.T) {
	tw, az := newInterp(t)
	got := printer.Print(evalSrc(t, tw, az, `
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

func TestArityErrorOnWrongArgCount(t *testing.T) {
	tw, az := newInterp(t)
	forms, errs := reader.ReadAll(`((fn [a b] (+ a b)) 1)`, "<test>")
	if len(errs) > 0 {
		t.Fatalf("ReadAll: %v", errs)
	}
	n, err := az.AnalyzeTopLevel(forms[0])
	if err != nil {
		t.Fatalf("AnalyzeTopLevel: %v", err)
	}
	if _, err := tw.Eval(n); err == nil {
		t.Fatalf("expected an arity error calling a 2-arg fn with 1 arg")
	}
}

func TestMultimethodDispatch(t *testing.T) {
	tw, az := newInterp(t)
	evalSrc(t, tw, az, `(defmulti area :shape)`)
	evalSrc(t, tw, az, `(defmethod area :circle [c] (* 3 (:r c) (:r c)))`)
	evalSrc(t, tw, az, `(defmethod area :rect [r] (* (:w r) (:h r)))`)
	got := printer.Print(evalSrc(t, tw, az, `(area {:shape :rect :w 3 :h 4})`))
	if got != "12" {
		t.Fatalf("multimethod dispatch = %s, want 12", got)
	}
}

func TestKeywordAndMapAsFunctions(t *testing.T) {
	tw, az := newInterp(t)
	if got := printer.Print(evalSrc(t, tw, az, `(:a {:a 1})`)); got != "1" {
		t.Fatalf("keyword-as-function = %s, want 1", got)
	}
	if got := printer.Print(evalSrc(t, tw, az, `({:a 1} :a)`)); got != "1" {
		t.Fatalf("map-as-function = %s, want 1", got)
	}
	if got := printer.Print(evalSrc(t, tw, az, `(#{:a :b} :a)`)); got != ":a" {
		t.Fatalf("set-as-function membership = %s, want :a", got)
	}
}
