package analyzer_test

import (
	"testing"

	"github.com/clj-lang/clj/internal/analyzer"
	"github.com/clj-lang/clj/internal/builtins"
	"github.com/clj-lang/clj/internal/node"
	"github.com/clj-lang/clj/internal/reader"
	"github.com/clj-lang/clj/internal/runtime"
	"github.com/clj-lang/clj/internal/value"
)

func newAnalyzer(t *testing.T) *analyzer.Analyzer {
	t.Helper()
	env := runtime.NewEnv()
	core := env.FindOrCreateNamespace("clojure.core")
	builtins.Install(env, core)
	return analyzer.New(env)
}

func analyzeOne(t *testing.T, az *analyzer.Analyzer, src string) *node.Node {
	t.Helper()
	forms, errs := reader.ReadAll(src, "<test>")
	if len(errs) > 0 {
		t.Fatalf("ReadAll(%q): %v", src, errs)
	}
	if len(forms) != 1 {
		t.Fatalf("ReadAll(%q) produced %d forms, want 1", src, len(forms))
	}
	n, err := az.AnalyzeTopLevel(forms[0])
	if err != nil {
		t.Fatalf("AnalyzeTopLevel(%q): %v", src, err)
	}
	return n
}

func TestConstantFoldsPureArithmetic(t *testing.T) {
	az := newAnalyzer(t)
	n := analyzeOne(t, az, `(+ 1 2 3)`)
	if n.Kind != node.KindConstant {
		t.Fatalf("Kind = %v, want KindConstant (constant folding of pure arithmetic)", n.Kind)
	}
	if !value.Equal(n.Const.(value.Value), value.Int(6)) {
		t.Fatalf("Const = %v, want 6", n.Const)
	}
}

func TestConstantFoldsComparison(t *testing.T) {
	az := newAnalyzer(t)
	n := analyzeOne(t, az, `(< 1 2)`)
	if n.Kind != node.KindConstant {
		t.Fatalf("Kind = %v, want KindConstant", n.Kind)
	}
	if !value.Equal(n.Const.(value.Value), value.True) {
		t.Fatalf("Const = %v, want true", n.Const)
	}
}

func TestArithmeticWithNonConstantArgDoesNotFold(t *testing.T) {
	az := newAnalyzer(t)
	n := analyzeOne(t, az, `(fn [x] (+ x 1))`)
	if n.Kind != node.KindFn {
		t.Fatalf("Kind = %v, want KindFn", n.Kind)
	}
	body := n.Arities[0].Body[0]
	if body.Kind != node.KindCall {
		t.Fatalf("body Kind = %v, want KindCall (non-constant operand must not fold)", body.Kind)
	}
}

func TestLocalRefSlotIndices(t *testing.T) {
	az := newAnalyzer(t)
	n := analyzeOne(t, az, `(fn [a b] b)`)
	if n.Kind != node.KindFn {
		t.Fatalf("Kind = %v, want KindFn", n.Kind)
	}
	body := n.Arities[0].Body[0]
	if body.Kind != node.KindLocalRef {
		t.Fatalf("body Kind = %v, want KindLocalRef", body.Kind)
	}
	if body.LocalName != "b" || body.LocalSlot != 1 {
		t.Fatalf("LocalRef = {%s %d}, want {b 1}", body.LocalName, body.LocalSlot)
	}
}

func TestUndefinedSymbolIsAnalysisError(t *testing.T) {
	az := newAnalyzer(t)
	_, errs := reader.ReadAll(`totally-unbound-name`, "<test>")
	if len(errs) != 0 {
		t.Fatalf("unexpected read error: %v", errs)
	}
	forms, _ := reader.ReadAll(`totally-unbound-name`, "<test>")
	_, err := az.AnalyzeTopLevel(forms[0])
	if err == nil {
		t.Fatalf("expected UndefinedSymbol analysis error")
	}
}

func TestWhenMacroExpandsToIf(t *testing.T) {
	az := newAnalyzer(t)
	n := analyzeOne(t, az, `(when true 1 2)`)
	if n.Kind != node.KindIf {
		t.Fatalf("(when ...) Kind = %v, want KindIf (macro expansion)", n.Kind)
	}
}

func TestThreadFirstMacroExpansion(t *testing.T) {
	az := newAnalyzer(t)
	// (-> 1 (+ 2) (+ 3)) expands to (+ (+ 1 2) 3); every operand is a
	// literal, so the whole chain constant-folds.
	n := analyzeOne(t, az, `(-> 1 (+ 2) (+ 3))`)
	if n.Kind != node.KindConstant {
		t.Fatalf("Kind = %v, want KindConstant (threaded arithmetic folds to 6)", n.Kind)
	}
	if !value.Equal(n.Const.(value.Value), value.Int(6)) {
		t.Fatalf("Const = %v, want 6", n.Const)
	}
}

func TestDestructuringSequentialBinding(t *testing.T) {
	az := newAnalyzer(t)
	n := analyzeOne(t, az, `(let [[a b] [1 2]] b)`)
	if n.Kind != node.KindLet {
		t.Fatalf("Kind = %v, want KindLet", n.Kind)
	}
	if len(n.BindingNames) < 2 {
		t.Fatalf("destructuring a 2-element vector binding should produce at least 2 let bindings, got %d", len(n.BindingNames))
	}
}

func TestDefInternsVarBeforeAnalysingInitializerForRecursion(t *testing.T) {
	az := newAnalyzer(t)
	n := analyzeOne(t, az, `(def fact (fn [n] (if (<= n 1) 1 (* n (fact (dec n))))))`)
	if n.Kind != node.KindDef {
		t.Fatalf("Kind = %v, want KindDef", n.Kind)
	}
	// If fact weren't interned before the initializer is analyzed, the
	// recursive call inside the fn body would fail to resolve and
	// AnalyzeTopLevel above would already have returned an error.
}

func TestOddLengthMapLiteralIsReaderError(t *testing.T) {
	_, errs := reader.ReadAll(`{:a}`, "<test>")
	if len(errs) == 0 {
		t.Fatalf("expected a reader error for an odd-length map literal")
	}
}

func TestDynamicVectorLiteralLowersToConstructorCall(t *testing.T) {
	az := newAnalyzer(t)
	n := analyzeOne(t, az, `(fn [x] [x 1])`)
	body := n.Arities[0].Body[0]
	if body.Kind != node.KindCall {
		t.Fatalf("a vector literal with a non-constant element must lower to a call, got %v", body.Kind)
	}
	if body.Fn.VarName != "vector" {
		t.Fatalf("dynamic vector literal should call clojure.core/vector, got %s", body.Fn.VarName)
	}
}
