// Package gc implements the collector spec §4.7 describes: a root-tracing
// Mark phase followed by Copy and Fixup, triggered by byte-size pressure at
// top-level expression boundaries and at the recur/call safe points the
// bytecode compiler emits.
//
// It does not reimplement Go's allocator — every Value here already lives in
// memory Go's own runtime manages, and nothing in this package reaches for
// unsafe pointer tricks to relocate it. What it reproduces faithfully is the
// spec's root set, its Mark/Copy/Fixup discipline, and its "does not trace
// Env/Namespace/Var tables/Chunk" boundary: Mark walks only Value edges
// (value.Children), starting only from the value.Var roots the spec names
// plus whatever transient roots the caller supplies (VM stack, frame slots,
// dynamic bindings, the threadlocal thrown slot, REPL history); Copy re-clones
// each live root's value graph into fresh storage via value.DeepClone, and
// Fixup is simply writing the clone back into the root that held it — no
// forwarding-pointer table is needed because DeepClone's recursion already
// rebuilds every parent to reference the new children directly.
package gc

import "github.com/clj-lang/clj/internal/value"

// Stats reports one Collect cycle's outcome.
type Stats struct {
	Cycles       int
	LastLive     int // distinct Values reached by the last Mark
	LastBytes    int // approxSize total for the last Mark
	BytesTracked int64
}

// Collector holds the byte-size pressure threshold and running counters
// described by spec §4.7 — collection is triggered when enough scratch
// allocation has accumulated since the last cycle, not on a fixed schedule.
type Collector struct {
	thresholdBytes int
	bytesSinceGC   int
	stats          Stats
}

// New creates a Collector that triggers once thresholdBytes of tracked
// allocation has accumulated. A non-positive threshold disables automatic
// triggering; Collect can still be invoked directly.
func New(thresholdBytes int) *Collector {
	return &Collector{thresholdBytes: thresholdBytes}
}

// Track records n bytes of allocation pressure, so Pressure/ShouldCollect
// reflect it. Its callers charge flat estimates: the engine once per
// top-level form and the VM once per safe point.
func (c *Collector) Track(n int) {
	c.bytesSinceGC += n
	c.stats.BytesTracked += int64(n)
}

// Pressure returns bytes tracked since the last collection cycle.
func (c *Collector) Pressure() int { return c.bytesSinceGC }

// ShouldCollect reports whether accumulated pressure has crossed the
// threshold.
func (c *Collector) ShouldCollect() bool {
	return c.thresholdBytes > 0 && c.bytesSinceGC >= c.thresholdBytes
}

// Stats returns a snapshot of the running counters.
func (c *Collector) Stats() Stats { return c.stats }

// Roots is the full root set for one Collect cycle: every Var across every
// namespace (supplied by the caller) plus the transient roots
// named by spec §4.7 that live outside any Var — the running VM's operand
// stack and frame slots, the dynamic-binding stack, the threadlocal thrown
// slot, and the REPL's *1/*2/*3/*e history slots.
type Roots struct {
	Vars      []*value.Var
	Transient []value.Value
}

// MaybeCollect runs Collect if pressure has crossed the threshold, else does
// nothing and returns the last Stats unchanged.
func (c *Collector) MaybeCollect(r Roots) Stats {
	if !c.ShouldCollect() {
		return c.stats
	}
	return c.Collect(r)
}

// Collect runs one Mark/Copy/Fixup cycle unconditionally.
//
// Mark walks value.Children from every root with a visited set keyed on
// pointer-identity-bearing Values, so cycles (a letfn closure capturing
// itself, an atom holding a structure reachable back to the atom) terminate
// rather than looping. Copy deep-clones each Var's root graph into fresh
// storage; Fixup is the act of writing that clone back over the Var's Root.
// Transient roots are traced for liveness accounting only — they are owned
// by whatever frame or stack holds them and are not Vars this cycle can
// rewrite.
func (c *Collector) Collect(r Roots) Stats {
	seen := map[value.Value]bool{}
	live, bytes := 0, 0

	var mark func(v value.Value)
	mark = func(v value.Value) {
		if v == nil {
			return
		}
		if seen[v] {
			return
		}
		seen[v] = true
		live++
		bytes += approxSize(v)
		for _, child := range value.Children(v) {
			mark(child)
		}
	}

	for _, v := range r.Vars {
		mark(v.Root)
	}
	for _, v := range r.Transient {
		mark(v)
	}

	for _, v := range r.Vars {
		v.Root = value.DeepClone(v.Root)
	}

	c.stats.Cycles++
	c.stats.LastLive = live
	c.stats.LastBytes = bytes
	c.bytesSinceGC = 0
	return c.stats
}

func approxSize(v value.Value) int {
	switch t := v.(type) {
	case *value.List:
		return 16 + 8*t.Count()
	case *value.Vector:
		return 16 + 8*t.Count()
	case *value.Set:
		return 16 + 8*t.Count()
	case *value.Map:
		return 16 + 16*t.Count()
	case *value.Fn:
		return 32 + 8*len(t.Env)
	case value.Str:
		return len(string(t))
	default:
		return 16
	}
}
