// Package clj is the public façade spec §6 describes: evaluate and
// evaluate_form entry points over a configured RuntimeContext, plus
// bind_root and the Var snapshot/restore pair test isolation and the
// tree-walk/bytecode comparison mode both rely on.
package clj

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/clj-lang/clj/internal/clojcfg"
	"github.com/clj-lang/clj/internal/engine"
	"github.com/clj-lang/clj/internal/gc"
	"github.com/clj-lang/clj/internal/reader"
	"github.com/clj-lang/clj/internal/runtime"
	"github.com/clj-lang/clj/internal/value"
)

// Runtime is one configured evaluation context: an Engine plus the
// RuntimeContext it was built from.
type Runtime struct {
	ctx *clojcfg.RuntimeContext
	eng *engine.Engine
}

// New builds a Runtime from a RuntimeContext (clojcfg.New(opts...)).
func New(ctx *clojcfg.RuntimeContext) *Runtime {
	if ctx == nil {
		ctx = clojcfg.New()
	}
	return &Runtime{ctx: ctx, eng: engine.NewWithGCThreshold(ctx.Backend, ctx.GCThresholdByte)}
}

// Evaluate reads every top-level form in source and evaluates each in turn,
// returning the last result (spec §6 `evaluate`).
func (r *Runtime) Evaluate(source, file string) (value.Value, error) {
	return r.eng.EvaluateString(source, file)
}

// EvaluateForm reads exactly one top-level form from source and evaluates it
// (spec §6 `evaluate_form`).
func (r *Runtime) EvaluateForm(source, file string) (value.Value, error) {
	forms, errs := reader.ReadAll(source, file)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	if len(forms) == 0 {
		return value.NilValue, nil
	}
	return r.eng.EvaluateForm(forms[0])
}

// BindRoot interns sym in ns and binds its root value, without going through
// a `def` form — used by host code and by require's unit loader to install
// values directly.
func (r *Runtime) BindRoot(ns, sym string, v value.Value) error {
	nsObj := r.eng.Env().FindOrCreateNamespace(ns)
	return nsObj.Intern(sym).BindRoot(v)
}

// SnapshotVars captures every Var's current root, for restoring after a
// speculative or comparison evaluation (spec §6 `snapshot_vars`).
func (r *Runtime) SnapshotVars() *runtime.Snapshot { return r.eng.Env().Snapshot() }

// RestoreVars resets every Var to a previously captured snapshot (spec §6
// `restore_vars`).
func (r *Runtime) RestoreVars(snap *runtime.Snapshot) { r.eng.Env().Restore(snap) }

// GCStats reports the collector's running counters.
func (r *Runtime) GCStats() gc.Stats { return r.eng.GCStats() }

// Applier exposes an Applier that can force a lazy sequence returned by
// Evaluate/EvaluateForm, for callers that print a result (e.g. `pr-str`,
// or cmd/clj's `run` command) — spec §4.6 forces a seq before rendering it.
func (r *Runtime) Applier() value.Applier { return r.eng.Applier() }

// Require loads namespace ns by searching the RuntimeContext's classpath
// roots for a matching source file, translating dots and dashes the way
// Clojure's classpath resolver does (`my-app.core` -> `my_app/core.clj`),
// and evaluating its contents. It is a minimal, single-pass resolver: no
// caching of already-required namespaces, no compiled-artifact fallback.
func (r *Runtime) Require(ns string) error {
	rel := strings.ReplaceAll(strings.ReplaceAll(ns, "-", "_"), ".", string(filepath.Separator)) + ".clj"
	for _, root := range r.ctx.ClasspathRoots {
		path := filepath.Join(root, rel)
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		_, err = r.Evaluate(string(content), path)
		return err
	}
	return fmt.Errorf("clj: could not locate namespace %s on classpath %v", ns, r.ctx.ClasspathRoots)
}
