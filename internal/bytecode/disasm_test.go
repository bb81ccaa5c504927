package bytecode_test

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/clj-lang/clj/internal/analyzer"
	"github.com/clj-lang/clj/internal/builtins"
	"github.com/clj-lang/clj/internal/bytecode"
	"github.com/clj-lang/clj/internal/reader"
	"github.com/clj-lang/clj/internal/runtime"
)

func compileSource(t *testing.T, src string) *bytecode.Chunk {
	t.Helper()
	env := runtime.NewEnv()
	core := env.FindOrCreateNamespace("clojure.core")
	builtins.Install(env, core)
	az := analyzer.New(env)

	forms, errs := reader.ReadAll(src, "<disasm_test>")
	if len(errs) > 0 {
		t.Fatalf("read errors: %v", errs)
	}
	if len(forms) != 1 {
		t.Fatalf("expected exactly one form, got %d", len(forms))
	}
	n, err := az.AnalyzeTopLevel(forms[0])
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	chunk, err := bytecode.Compile(n)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return chunk
}

func disassemble(chunk *bytecode.Chunk) string {
	var sb strings.Builder
	bytecode.NewDisassembler(chunk, &sb).Disassemble()
	return sb.String()
}

func TestDisassembleArithmetic(t *testing.T) {
	chunk := compileSource(t, `(+ 1 2)`)
	snaps.MatchSnapshot(t, disassemble(chunk))
}

func TestDisassembleIf(t *testing.T) {
	chunk := compileSource(t, `(if true 1 2)`)
	snaps.MatchSnapshot(t, disassemble(chunk))
}

func TestDisassembleLet(t *testing.T) {
	chunk := compileSource(t, `(let [x 1 y 2] (+ x y))`)
	snaps.MatchSnapshot(t, disassemble(chunk))
}

func TestDisassembleFn(t *testing.T) {
	chunk := compileSource(t, `(fn [x] (* x x))`)
	snaps.MatchSnapshot(t, disassemble(chunk))
}

func TestDisassembleDef(t *testing.T) {
	chunk := compileSource(t, `(def answer 42)`)
	snaps.MatchSnapshot(t, disassemble(chunk))
}
