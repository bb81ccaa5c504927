// Package clojcfg holds the RuntimeContext a pkg/clj caller configures an
// evaluation with: which backend runs analyzed Nodes, the GC pressure
// threshold, classpath roots for require, and which profiling stages (if
// any) to record. Options are functional, following the pack's
// options-struct idiom rather than a field-per-flag constructor.
package clojcfg

import "github.com/clj-lang/clj/internal/engine"

// ProfileStage names one phase a caller can ask to have timed.
type ProfileStage string

const (
	ProfileRead    ProfileStage = "read"
	ProfileAnalyze ProfileStage = "analyze"
	ProfileEval    ProfileStage = "eval"
)

// RuntimeContext is the resolved configuration for one engine.Engine.
type RuntimeContext struct {
	Backend         engine.Backend
	GCThresholdByte int
	ClasspathRoots  []string
	ProfileStages   []ProfileStage
}

// Option mutates a RuntimeContext under construction.
type Option func(*RuntimeContext)

// New builds a RuntimeContext, applying opts in order over the defaults
// (tree-walk backend, a 1MiB GC threshold, no classpath roots, no
// profiling).
func New(opts ...Option) *RuntimeContext {
	rc := &RuntimeContext{
		Backend:         engine.BackendTreeWalk,
		GCThresholdByte: 1 << 20,
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// WithBackend selects which evaluator backend runs analyzed Nodes.
func WithBackend(b engine.Backend) Option {
	return func(rc *RuntimeContext) { rc.Backend = b }
}

// WithGC sets the byte-size pressure threshold that triggers a collection
// cycle (spec §4.7). A non-positive value disables automatic triggering.
func WithGC(thresholdBytes int) Option {
	return func(rc *RuntimeContext) { rc.GCThresholdByte = thresholdBytes }
}

// WithClasspath sets the directories `require` searches, in order, when
// resolving a namespace to a file.
func WithClasspath(roots ...string) Option {
	return func(rc *RuntimeContext) { rc.ClasspathRoots = append([]string(nil), roots...) }
}

// WithProfile requests timing data for the named stages.
func WithProfile(stages ...ProfileStage) Option {
	return func(rc *RuntimeContext) { rc.ProfileStages = append([]ProfileStage(nil), stages...) }
}
