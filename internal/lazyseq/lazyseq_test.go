package lazyseq_test

import (
	"fmt"
	"testing"

	"github.com/clj-lang/clj/internal/lazyseq"
	"github.com/clj-lang/clj/internal/value"
)

// testApplier is a minimal value.Applier: it only understands builtin Fns,
// which is all these tests' transform functions need.
type testApplier struct{}

func (testApplier) Apply(fn value.Value, args []value.Value) (value.Value, error) {
	f, ok := fn.(*value.Fn)
	if !ok || f.Builtin == nil {
		return nil, fmt.Errorf("testApplier: not a builtin Fn: %v", fn)
	}
	return f.Builtin(testApplier{}, args)
}

func builtin(name string, fn func(args []value.Value) (value.Value, error)) *value.Fn {
	return value.NewBuiltin(name, func(app value.Applier, args []value.Value) (value.Value, error) {
		return fn(args)
	})
}

func drain(t *testing.T, s *lazyseq.Seq) []value.Value {
	t.Helper()
	var out []value.Value
	app := testApplier{}
	for {
		empty, err := s.IsEmpty(app)
		if err != nil {
			t.Fatalf("IsEmpty: %v", err)
		}
		if empty {
			return out
		}
		h, err := s.First(app)
		if err != nil {
			t.Fatalf("First: %v", err)
		}
		out = append(out, h)
		s, err = s.Rest(app)
		if err != nil {
			t.Fatalf("Rest: %v", err)
		}
	}
}

func ints(vs ...int64) *lazyseq.Seq {
	var s *lazyseq.Seq = lazyseq.Empty
	for i := len(vs) - 1; i >= 0; i-- {
		s = lazyseq.Cons(value.Int(vs[i]), s)
	}
	return s
}

func assertInts(t *testing.T, got []value.Value, want ...int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i, w := range want {
		if !value.Equal(got[i], value.Int(w)) {
			t.Fatalf("element %d = %v, want %d", i, got[i], w)
		}
	}
}

func TestMapTransform(t *testing.T) {
	sq := builtin("sq", func(args []value.Value) (value.Value, error) {
		n := int64(args[0].(value.Int))
		return value.Int(n * n), nil
	})
	got := drain(t, lazyseq.NewMap(sq, ints(1, 2, 3)))
	assertInts(t, got, 1, 4, 9)
}

func TestFilterTransform(t *testing.T) {
	odd := builtin("odd?", func(args []value.Value) (value.Value, error) {
		return value.BoolOf(int64(args[0].(value.Int))%2 != 0), nil
	})
	got := drain(t, lazyseq.NewFilter(odd, ints(1, 2, 3, 4, 5)))
	assertInts(t, got, 1, 3, 5)
}

func TestTakeWhileAndDropWhile(t *testing.T) {
	lt3 := builtin("lt3", func(args []value.Value) (value.Value, error) {
		return value.BoolOf(int64(args[0].(value.Int)) < 3), nil
	})
	tw := drain(t, lazyseq.NewTakeWhile(lt3, ints(1, 2, 3, 4, 1)))
	assertInts(t, tw, 1, 2)

	dw := drain(t, lazyseq.NewDropWhile(lt3, ints(1, 2, 3, 4, 1)))
	assertInts(t, dw, 3, 4, 1)
}

func TestMapIndexed(t *testing.T) {
	pair := builtin("pair", func(args []value.Value) (value.Value, error) {
		return value.NewVector(args[0], args[1]), nil
	})
	got := drain(t, lazyseq.NewMapIndexed(pair, ints(10, 20), 0))
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	v0 := got[0].(*value.Vector)
	if !value.Equal(v0, value.NewVector(value.Int(0), value.Int(10))) {
		t.Fatalf("first pair = %v, want [0 10]", v0)
	}
}

func TestMapcat(t *testing.T) {
	dup := builtin("dup", func(args []value.Value) (value.Value, error) {
		return ints(int64(args[0].(value.Int)), int64(args[0].(value.Int))), nil
	})
	got := drain(t, lazyseq.NewMapcat(dup, ints(1, 2)))
	assertInts(t, got, 1, 1, 2, 2)
}

func TestConcat(t *testing.T) {
	got := drain(t, lazyseq.NewConcat(ints(1, 2), lazyseq.Empty, ints(3)))
	assertInts(t, got, 1, 2, 3)
}

func TestTake(t *testing.T) {
	rep := lazyseq.NewRepeat(value.Int(7))
	got := drain(t, lazyseq.NewTake(rep, 3))
	assertInts(t, got, 7, 7, 7)
}

func TestRangeFiniteAndStepped(t *testing.T) {
	got := drain(t, lazyseq.NewRange(value.Int(0), value.Int(2), value.Int(10), true))
	assertInts(t, got, 0, 2, 4, 6, 8)
}

func TestIterate(t *testing.T) {
	inc := builtin("inc", func(args []value.Value) (value.Value, error) {
		return value.Int(int64(args[0].(value.Int)) + 1), nil
	})
	got := drain(t, lazyseq.NewTake(lazyseq.NewIterate(inc, value.Int(1)), 4))
	assertInts(t, got, 1, 2, 3, 4)
}

func TestCycle(t *testing.T) {
	got := drain(t, lazyseq.NewTake(lazyseq.NewCycle([]value.Value{value.Int(1), value.Int(2)}), 5))
	assertInts(t, got, 1, 2, 1, 2, 1)
}

func TestOnceRealizedNeverReverts(t *testing.T) {
	calls := 0
	s := lazyseq.NewThunk(func(app value.Applier) (value.Value, error) {
		calls++
		return lazyseq.Cons(value.Int(1), lazyseq.Empty), nil
	})
	app := testApplier{}
	if _, err := s.First(app); err != nil {
		t.Fatalf("First: %v", err)
	}
	if _, err := s.First(app); err != nil {
		t.Fatalf("second First: %v", err)
	}
	if calls != 1 {
		t.Fatalf("thunk invoked %d times, want 1 (testable property 5)", calls)
	}
}

func TestFusedReduceEqualsUnfusedReduce(t *testing.T) {
	app := testApplier{}
	sq := builtin("sq", func(args []value.Value) (value.Value, error) {
		n := int64(args[0].(value.Int))
		return value.Int(n * n), nil
	})
	odd := builtin("odd?", func(args []value.Value) (value.Value, error) {
		return value.BoolOf(int64(args[0].(value.Int))%2 != 0), nil
	})
	add := builtin("+", func(args []value.Value) (value.Value, error) {
		return value.Int(int64(args[0].(value.Int)) + int64(args[1].(value.Int))), nil
	})

	chain := func() *lazyseq.Seq {
		return lazyseq.NewFilter(odd, lazyseq.NewMap(sq, ints(1, 2, 3, 4, 5)))
	}

	unfused, err := lazyseq.Reduce(app, add, value.Int(0), chain())
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	fused, err := lazyseq.FusedReduce(app, add, value.Int(0), chain())
	if err != nil {
		t.Fatalf("FusedReduce: %v", err)
	}
	if !value.Equal(unfused, fused) {
		t.Fatalf("FusedReduce = %v, Reduce = %v; must be equal (testable property 6)", fused, unfused)
	}
}

func TestReducedShortCircuits(t *testing.T) {
	app := testApplier{}
	stopAt3 := builtin("stopAt3", func(args []value.Value) (value.Value, error) {
		acc := args[0].(value.Int)
		h := args[1].(value.Int)
		next := value.Int(int64(acc) + int64(h))
		if int64(h) == 3 {
			return &value.Reduced{Val: next}, nil
		}
		return next, nil
	})
	got, err := lazyseq.Reduce(app, stopAt3, value.Int(0), ints(1, 2, 3, 4, 5))
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if !value.Equal(got, value.Int(6)) {
		t.Fatalf("Reduce with reduced short-circuit = %v, want 6 (1+2+3)", got)
	}
}
