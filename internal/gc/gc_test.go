package gc_test

import (
	"testing"

	"github.com/clj-lang/clj/internal/gc"
	"github.com/clj-lang/clj/internal/value"
)

func TestTrackAccumulatesPressure(t *testing.T) {
	c := gc.New(1000)
	c.Track(400)
	if c.ShouldCollect() {
		t.Fatalf("should not collect yet: pressure %d < threshold", c.Pressure())
	}
	c.Track(700)
	if !c.ShouldCollect() {
		t.Fatalf("expected ShouldCollect once pressure exceeds threshold")
	}
}

func TestZeroThresholdNeverCollects(t *testing.T) {
	c := gc.New(0)
	c.Track(1 << 30)
	if c.ShouldCollect() {
		t.Fatalf("a non-positive threshold must disable automatic collection")
	}
}

func TestCollectResetsPressureAndUpdatesStats(t *testing.T) {
	c := gc.New(10)
	c.Track(50)

	v := value.NewVar("user", "x", value.NewVector(value.Int(1), value.Int(2), value.Int(3)))
	stats := c.Collect(gc.Roots{Vars: []*value.Var{v}})

	if stats.Cycles != 1 {
		t.Fatalf("Cycles = %d, want 1", stats.Cycles)
	}
	if stats.LastLive == 0 {
		t.Fatalf("LastLive = 0, want at least the var's root counted live")
	}
	if c.Pressure() != 0 {
		t.Fatalf("Pressure after Collect = %d, want 0", c.Pressure())
	}
}

func TestCollectClonesVarRootWithoutChangingItsValue(t *testing.T) {
	c := gc.New(10)
	original := value.NewVector(value.Int(1), value.Int(2))
	v := value.NewVar("user", "x", original)

	c.Collect(gc.Roots{Vars: []*value.Var{v}})

	if v.Root == original {
		t.Fatalf("Collect should replace the root with a fresh clone, not keep the same pointer")
	}
	if !value.Equal(v.Root, original) {
		t.Fatalf("cloned root must remain structurally equal to the original")
	}
}

func TestCollectFollowsTransientRootsAndCycles(t *testing.T) {
	c := gc.New(10)

	// A self-referential Atom, reachable only as a transient root, must not
	// hang the Mark phase.
	a := value.NewAtom(value.NilValue)
	_, _ = a.Reset(a)

	stats := c.Collect(gc.Roots{Transient: []value.Value{a}})
	if stats.LastLive == 0 {
		t.Fatalf("expected the cyclic atom to be counted live")
	}
}
