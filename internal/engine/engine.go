// Package engine is the façade gluing the reader, analyzer, and backend
// evaluators (tree-walk always, bytecode when selected) into one
// source-in/Value-out pipeline, and wires the analyzer's user-macro
// invocation hook to a running interpreter (spec §4.4, §6).
package engine

import (
	"fmt"

	"github.com/clj-lang/clj/internal/analyzer"
	"github.com/clj-lang/clj/internal/builtins"
	"github.com/clj-lang/clj/internal/bytecode"
	"github.com/clj-lang/clj/internal/clerr"
	"github.com/clj-lang/clj/internal/gc"
	"github.com/clj-lang/clj/internal/lazyseq"
	"github.com/clj-lang/clj/internal/node"
	"github.com/clj-lang/clj/internal/printer"
	"github.com/clj-lang/clj/internal/reader"
	"github.com/clj-lang/clj/internal/runtime"
	"github.com/clj-lang/clj/internal/treewalk"
	"github.com/clj-lang/clj/internal/value"
)

// defaultGCThresholdBytes is the scratch-allocation pressure that triggers a
// collection cycle between top-level forms (spec §4.7). Chosen generously
// since a cycle here only re-clones live Var roots, not a full heap scan.
const defaultGCThresholdBytes = 1 << 20

// Backend selects which evaluator runs analyzed Nodes.
type Backend int

const (
	// BackendTreeWalk interprets Nodes directly (spec §4.4).
	BackendTreeWalk Backend = iota
	// BackendBytecode compiles Nodes to a Chunk and runs them on the VM
	// (spec §4.5).
	BackendBytecode
	// BackendCompare runs both backends on every top-level form and fails
	// closed if their results disagree structurally, used to validate the
	// bytecode backend against the tree-walk reference.
	BackendCompare
)

// Engine evaluates Clojure source against one runtime Env using the
// configured backend.
type Engine struct {
	env     *runtime.Env
	az      *analyzer.Analyzer
	tw      *treewalk.Interp
	backend Backend
	gcc     *gc.Collector
}

// New creates an Engine over a fresh Env with clojure.core's built-ins
// already installed into it, using the default GC pressure threshold.
func New(backend Backend) *Engine {
	return NewWithGCThreshold(backend, defaultGCThresholdBytes)
}

// NewWithGCThreshold is New with an explicit GC pressure threshold in bytes
// (spec §4.7), for callers configuring a RuntimeContext.
func NewWithGCThreshold(backend Backend, gcThresholdBytes int) *Engine {
	env := runtime.NewEnv()
	core := env.FindOrCreateNamespace("clojure.core")
	az := analyzer.New(env)
	tw := treewalk.New(env)
	az.SetMacroInvoker(func(fn *value.Fn, args []value.Value) (value.Value, error) {
		return tw.Apply(fn, args)
	})
	e := &Engine{env: env, az: az, tw: tw, backend: backend, gcc: gc.New(gcThresholdBytes)}
	builtins.Install(env, core)
	return e
}

// GCStats reports the collector's running counters, mainly for diagnostics
// and tests.
func (e *Engine) GCStats() gc.Stats { return e.gcc.Stats() }

// Env exposes the underlying runtime environment, e.g. for snapshot/restore.
func (e *Engine) Env() *runtime.Env { return e.env }

// Applier exposes an Applier that can force lazy sequences produced by
// either backend, for callers that print an Engine's results (spec §4.6
// — `pr-str` forces a seq before rendering it). The tree-walk interpreter
// is always built regardless of the configured backend, and both backends
// share Vars through the same Env, so it's a valid Applier either way.
func (e *Engine) Applier() value.Applier { return e.tw }

// EvaluateString reads every top-level form in source and evaluates each in
// turn, returning the last result (spec §6 evaluate).
func (e *Engine) EvaluateString(source, file string) (value.Value, error) {
	forms, errs := reader.ReadAll(source, file)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	var result value.Value = value.NilValue
	for _, f := range forms {
		v, err := e.EvaluateForm(f)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

// EvaluateForm analyzes and evaluates a single already-read Form (spec §6
// evaluate_form).
func (e *Engine) EvaluateForm(f *reader.Form) (value.Value, error) {
	n, err := e.az.AnalyzeTopLevel(f)
	if err != nil {
		return nil, err
	}
	result, err := e.evalNode(n)
	if err != nil {
		return nil, err
	}
	e.gcc.Track(topLevelPressure)
	e.gcc.MaybeCollect(gc.Roots{Vars: e.env.AllVars()})
	return result, nil
}

// topLevelPressure is the flat pressure charge for one evaluated top-level
// form — a stand-in for precisely metering every scratch allocation a form's
// evaluation performed, which would require threading a Collector through
// both backends' inner eval loops. It is enough to make ShouldCollect trip
// periodically under sustained use, the trigger spec §4.7 actually asks for.
const topLevelPressure = 4096

func (e *Engine) evalNode(n *node.Node) (value.Value, error) {
	switch e.backend {
	case BackendTreeWalk:
		return e.tw.Eval(n)
	case BackendBytecode:
		return e.runBytecode(n)
	case BackendCompare:
		return e.compareEval(n)
	}
	return nil, fmt.Errorf("engine: unknown backend %d", e.backend)
}

func (e *Engine) runBytecode(n *node.Node) (value.Value, error) {
	chunk, err := bytecode.Compile(n)
	if err != nil {
		return nil, err
	}
	vm := bytecode.NewVM(e.env)
	vm.SetCollector(e.gcc)
	return vm.Run(chunk)
}

// compareEval runs both backends on the same analyzed Node and fails closed
// on structural disagreement. The tree-walk run is wrapped in a Var
// snapshot/restore, so its effects are undone before the bytecode run and
// effects don't double up; the bytecode run's Var effects persist and its
// result is the one returned.
func (e *Engine) compareEval(n *node.Node) (value.Value, error) {
	snap := e.env.Snapshot()
	twResult, twErr := e.tw.Eval(n)
	e.env.Restore(snap)

	bcResult, bcErr := e.runBytecode(n)

	if (twErr == nil) != (bcErr == nil) {
		return nil, fmt.Errorf("engine: backend disagreement: tree-walk err=%v bytecode err=%v", twErr, bcErr)
	}
	if twErr != nil {
		return nil, twErr
	}
	eq, err := structurallyEqual(twResult, bcResult, e.tw)
	if err != nil {
		return nil, fmt.Errorf("engine: forcing backend results for comparison: %w", err)
	}
	if !eq {
		return nil, clerr.Runtime(n.Pos, "engine: backend result mismatch: tree-walk=%s bytecode=%s",
			printer.PrintWithApplier(twResult, e.tw), printer.PrintWithApplier(bcResult, e.tw))
	}
	return bcResult, nil
}

// structurallyEqual is value.Equal generalized to force lazy sequences on
// both sides before comparing (spec §4.5 "both sides are forced completely
// for the comparison only", spec §8 property 2), since the bytecode and
// tree-walk backends may produce differently-shaped-but-equivalent Seq
// chains for the same logical sequence.
func structurallyEqual(a, b value.Value, app value.Applier) (bool, error) {
	sa, aIsSeq := a.(*lazyseq.Seq)
	sb, bIsSeq := b.(*lazyseq.Seq)
	if aIsSeq || bIsSeq {
		if !aIsSeq || !bIsSeq {
			return false, nil
		}
		return seqsStructurallyEqual(sa, sb, app)
	}
	return value.Equal(a, b), nil
}

// seqsStructurallyEqual walks two lazy sequences in lockstep, forcing one
// element at a time rather than fully realizing either side up front, so an
// infinite-but-equal prefix mismatch (or an early difference) is caught
// without ever demanding a complete realization.
func seqsStructurallyEqual(a, b *lazyseq.Seq, app value.Applier) (bool, error) {
	for {
		aEmpty, err := a.IsEmpty(app)
		if err != nil {
			return false, err
		}
		bEmpty, err := b.IsEmpty(app)
		if err != nil {
			return false, err
		}
		if aEmpty != bEmpty {
			return false, nil
		}
		if aEmpty {
			return true, nil
		}
		ah, err := a.First(app)
		if err != nil {
			return false, err
		}
		bh, err := b.First(app)
		if err != nil {
			return false, err
		}
		eq, err := structurallyEqual(ah, bh, app)
		if err != nil {
			return false, err
		}
		if !eq {
			return false, nil
		}
		a, err = a.Rest(app)
		if err != nil {
			return false, err
		}
		b, err = b.Rest(app)
		if err != nil {
			return false, err
		}
	}
}
