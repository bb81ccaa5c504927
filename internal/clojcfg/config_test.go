package clojcfg_test

import (
	"testing"

	"github.com/clj-lang/clj/internal/clojcfg"
	"github.com/clj-lang/clj/internal/engine"
)

func TestNewDefaults(t *testing.T) {
	rc := clojcfg.New()
	if rc.Backend != engine.BackendTreeWalk {
		t.Fatalf("default Backend = %v, want BackendTreeWalk", rc.Backend)
	}
	if rc.GCThresholdByte != 1<<20 {
		t.Fatalf("default GCThresholdByte = %d, want %d", rc.GCThresholdByte, 1<<20)
	}
	if len(rc.ClasspathRoots) != 0 {
		t.Fatalf("default ClasspathRoots = %v, want empty", rc.ClasspathRoots)
	}
}

func TestOptionsOverrideDefaults(t *testing.T) {
	rc := clojcfg.New(
		clojcfg.WithBackend(engine.BackendCompare),
		clojcfg.WithGC(4096),
		clojcfg.WithClasspath("src", "lib"),
		clojcfg.WithProfile(clojcfg.ProfileRead, clojcfg.ProfileEval),
	)
	if rc.Backend != engine.BackendCompare {
		t.Fatalf("Backend = %v, want BackendCompare", rc.Backend)
	}
	if rc.GCThresholdByte != 4096 {
		t.Fatalf("GCThresholdByte = %d, want 4096", rc.GCThresholdByte)
	}
	if len(rc.ClasspathRoots) != 2 || rc.ClasspathRoots[0] != "src" || rc.ClasspathRoots[1] != "lib" {
		t.Fatalf("ClasspathRoots = %v, want [src lib]", rc.ClasspathRoots)
	}
	if len(rc.ProfileStages) != 2 {
		t.Fatalf("ProfileStages = %v, want 2 entries", rc.ProfileStages)
	}
}

func TestWithClasspathCopiesSlice(t *testing.T) {
	roots := []string{"a", "b"}
	rc := clojcfg.New(clojcfg.WithClasspath(roots...))
	roots[0] = "mutated"
	if rc.ClasspathRoots[0] != "a" {
		t.Fatalf("WithClasspath must copy its input, got %v after mutating caller's slice", rc.ClasspathRoots)
	}
}
