package value_test

import (
	"testing"

	"github.com/clj-lang/clj/internal/value"
)

func TestEqualNumericTower(t *testing.T) {
	if !value.Equal(value.Int(2), value.Float(2.0)) {
		t.Fatalf("Int(2) should equal Float(2.0)")
	}
	if value.Equal(value.Int(2), value.Int(3)) {
		t.Fatalf("Int(2) should not equal Int(3)")
	}
}

func TestEqualSymbolsAndKeywordsCompareByNamespaceAndName(t *testing.T) {
	a := value.NewSymbol("ns", "x")
	b := value.NewSymbol("ns", "x")
	c := value.NewSymbol("other", "x")
	if !value.Equal(a, b) {
		t.Fatalf("two distinct Symbol pointers with the same ns/name must be equal")
	}
	if value.Equal(a, c) {
		t.Fatalf("symbols in different namespaces must not be equal")
	}
}

func TestEqualListsAndVectorsAreCrossComparableWhenSequential(t *testing.T) {
	l := value.NewList(value.Int(1), value.Int(2))
	v := value.NewVector(value.Int(1), value.Int(2))
	if !value.Equal(l, v) {
		t.Fatalf("a List and a Vector with the same elements must compare equal (sequential equality)")
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    value.Value
		want bool
	}{
		{value.NilValue, false},
		{value.False, false},
		{value.True, true},
		{value.Int(0), true},
		{value.NewVector(), true},
		{value.Str(""), true},
	}
	for _, c := range cases {
		if got := value.Truthy(c.v); got != c.want {
			t.Fatalf("Truthy(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestMapAssocLastWriteWins(t *testing.T) {
	m := value.NewMap(
		value.InternKeyword("", "a"), value.Int(1),
		value.InternKeyword("", "a"), value.Int(2),
	)
	got, ok := m.Get(value.InternKeyword("", "a"))
	if !ok || !value.Equal(got, value.Int(2)) {
		t.Fatalf("Get(:a) = %v, ok=%v, want 2, true (testable property 7)", got, ok)
	}
	if m.Count() != 1 {
		t.Fatalf("Count() = %d, want 1 (duplicate key must not double-count)", m.Count())
	}
}

func TestMapAssocPreservesInsertionOrder(t *testing.T) {
	m := value.NewMap().
		Assoc(value.InternKeyword("", "z"), value.Int(1)).
		Assoc(value.InternKeyword("", "a"), value.Int(2)).
		Assoc(value.InternKeyword("", "m"), value.Int(3))
	keys := m.Keys()
	want := []string{":z", ":a", ":m"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() len = %d, want %d", len(keys), len(want))
	}
	for i, k := range keys {
		if k.String() != want[i] {
			t.Fatalf("Keys()[%d] = %s, want %s (insertion order must be preserved)", i, k.String(), want[i])
		}
	}
}

func TestMapDissocRemovesKey(t *testing.T) {
	k := value.InternKeyword("", "a")
	m := value.NewMap(k, value.Int(1))
	m2 := m.Dissoc(k)
	if _, ok := m2.Get(k); ok {
		t.Fatalf("Dissoc should remove the key")
	}
	if _, ok := m.Get(k); !ok {
		t.Fatalf("Dissoc must not mutate the original map (persistent semantics)")
	}
}

func TestMapManyKeysAllFindable(t *testing.T) {
	m := value.EmptyMap
	for i := 0; i < 200; i++ {
		m = m.Assoc(value.Int(i), value.Int(i*i))
	}
	for i := 0; i < 200; i++ {
		got, ok := m.Get(value.Int(i))
		if !ok || !value.Equal(got, value.Int(i*i)) {
			t.Fatalf("Get(%d) = %v, ok=%v, want %d, true", i, got, ok, i*i)
		}
	}
	if _, ok := m.Get(value.Int(999)); ok {
		t.Fatalf("Get of an absent key must return ok=false")
	}
}

func TestSetDedupesByValueEquality(t *testing.T) {
	s := value.NewSet(value.Int(1), value.Int(1), value.Int(2))
	if s.Count() != 2 {
		t.Fatalf("Count() = %d, want 2 (duplicates collapse)", s.Count())
	}
	if !s.Contains(value.Int(1)) || !s.Contains(value.Int(2)) {
		t.Fatalf("set should contain both distinct elements")
	}
}

func TestVectorAssocAppendsAtCount(t *testing.T) {
	v := value.NewVector(value.Int(1), value.Int(2))
	v2, ok := v.Assoc(2, value.Int(3))
	if !ok {
		t.Fatalf("Assoc at index == Count() should be allowed (append)")
	}
	if v2.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", v2.Count())
	}
	if _, ok := v.Assoc(5, value.Int(9)); ok {
		t.Fatalf("Assoc out of range should fail")
	}
}

func TestRatioReducesToLowestTermsAndFoldsToInt(t *testing.T) {
	r := value.NewRatio(4, 2)
	if i, ok := r.(value.Int); !ok || i != 2 {
		t.Fatalf("NewRatio(4,2) = %v, want Int(2) (denominator 1 folds to Int)", r)
	}
	r2 := value.NewRatio(2, -4)
	rv, ok := r2.(value.Ratio)
	if !ok {
		t.Fatalf("NewRatio(2,-4) should remain a Ratio, got %T", r2)
	}
	if rv.Num != -1 || rv.Den != 2 {
		t.Fatalf("NewRatio(2,-4) = %v, want -1/2", rv)
	}
}

func TestHashConsistentWithEqual(t *testing.T) {
	a := value.InternKeyword("ns", "k")
	b := value.InternKeyword("ns", "k")
	if value.Hash(a) != value.Hash(b) {
		t.Fatalf("equal keywords must hash identically")
	}
}
