// Package value implements the runtime Value model: the tagged union of
// primitives and heap-referenced values described in spec §3, including the
// persistent List/Vector/Map/Set collections, hashing and equality.
//
// Every concrete value implements the Value interface, following the same
// shape the teacher's interpreter package uses for its own runtime values
// (Type() name + String() rendering), generalized here with an Equal and
// Hash pair so the persistent Map can use value equality for its index.
package value

import (
	"fmt"
	"math"
	"strconv"
)

// Value is any runtime object observable to a running program.
type Value interface {
	// TypeName returns the type tag (e.g. "Integer", "String", "Symbol").
	TypeName() string
	// String returns the value's pr-str style textual representation.
	String() string
}

// Hashable values can compute a stable hash used by the Map's sorted index.
// Values that do not implement it fall back to a structural hash derived
// from their String() form, at some cost to collision quality.
type Hashable interface {
	Hash() uint64
}

// Equal reports whether a and b are equal under Clojure value equality
// (spec G3): numeric towers compare by numeric value, collections compare
// structurally and element-wise, everything else compares by identity or
// field equality as appropriate.
func Equal(a, b Value) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	switch av := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		switch bv := b.(type) {
		case Int:
			return av == bv
		case Float:
			return float64(av) == float64(bv)
		}
		return false
	case Float:
		switch bv := b.(type) {
		case Int:
			return float64(av) == float64(bv)
		case Float:
			return av == bv
		}
		return false
	case Char:
		bv, ok := b.(Char)
		return ok && av == bv
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case *Symbol:
		bv, ok := b.(*Symbol)
		return ok && av.Namespace == bv.Namespace && av.Name == bv.Name
	case *Keyword:
		bv, ok := b.(*Keyword)
		return ok && av.Namespace == bv.Namespace && av.Name == bv.Name
	case *List:
		return equalSequential(av.items, b)
	case *Vector:
		return equalSequential(av.items, b)
	case *Set:
		bv, ok := b.(*Set)
		if !ok || len(av.items) != len(bv.items) {
			return false
		}
		for _, x := range av.items {
			if !bv.Contains(x) {
				return false
			}
		}
		return true
	case *Map:
		bv, ok := b.(*Map)
		if !ok || av.Count() != bv.Count() {
			return false
		}
		eq := true
		av.Each(func(k, v Value) bool {
			other, found := bv.Get(k)
			if !found || !Equal(v, other) {
				eq = false
				return false
			}
			return true
		})
		return eq
	}
	return a == b
}

func equalSequential(items []Value, b Value) bool {
	var other []Value
	switch bv := b.(type) {
	case *List:
		other = bv.items
	case *Vector:
		other = bv.items
	default:
		return false
	}
	if len(items) != len(other) {
		return false
	}
	for i := range items {
		if !Equal(items[i], other[i]) {
			return false
		}
	}
	return true
}

// Truthy implements spec §4.4's if semantics: only nil and false are
// logically false; everything else, including 0 and empty collections, is
// logically true.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case nil:
		return false
	case Nil:
		return false
	case Bool:
		return bool(t)
	default:
		return true
	}
}

// ---- primitives ----

// Nil is the singleton nil value.
type Nil struct{}

func (Nil) TypeName() string { return "nil" }
func (Nil) String() string   { return "nil" }

// NilValue is the single shared Nil instance, analogous to the teacher's
// pooled singleton booleans.
var NilValue Value = Nil{}

// Bool wraps a boolean.
type Bool bool

func (Bool) TypeName() string { return "Boolean" }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// True and False are the shared boolean singletons.
var (
	True  Value = Bool(true)
	False Value = Bool(false)
)

// BoolOf returns the shared True/False singleton for b.
func BoolOf(b bool) Value {
	if b {
		return True
	}
	return False
}

// Int is a 64-bit signed integer.
type Int int64

func (Int) TypeName() string { return "Long" }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Float is a 64-bit IEEE-754 double. Per spec's open question, ratios are
// represented as a distinct ratio Value and are NOT folded into Float;
// Float is reserved for genuine floating-point literals and results.
type Float float64

func (Float) TypeName() string { return "Double" }
func (f Float) String() string {
	if math.IsInf(float64(f), 1) {
		return "##Inf"
	}
	if math.IsInf(float64(f), -1) {
		return "##-Inf"
	}
	if math.IsNaN(float64(f)) {
		return "##NaN"
	}
	return strconv.FormatFloat(float64(f), 'g', -1, 64)
}

// Ratio is an exact numerator/denominator pair, held in lowest terms with a
// positive denominator. This provisions the Value-model slot the spec's
// open question calls for instead of lossily folding ratios into Float.
type Ratio struct {
	Num, Den int64
}

func (Ratio) TypeName() string { return "Ratio" }
func (r Ratio) String() string { return fmt.Sprintf("%d/%d", r.Num, r.Den) }

// NewRatio reduces n/d to lowest terms with a positive denominator.
func NewRatio(n, d int64) Value {
	if d == 0 {
		panic("divide by zero")
	}
	if d < 0 {
		n, d = -n, -d
	}
	if g := gcd(abs64(n), d); g > 1 {
		n, d = n/g, d/g
	}
	if d == 1 {
		return Int(n)
	}
	return Ratio{Num: n, Den: d}
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// Char is a single Unicode code point.
type Char rune

func (Char) TypeName() string { return "Character" }
func (c Char) String() string { return string(rune(c)) }

// Str is an immutable string.
type Str string

func (Str) TypeName() string { return "String" }
func (s Str) String() string { return string(s) }

// Symbol is an interned-by-value (not by pointer) name, optionally
// namespace-qualified.
type Symbol struct {
	Namespace string
	Name      string
	Meta      Value
}

func (*Symbol) TypeName() string { return "Symbol" }
func (s *Symbol) String() string {
	if s.Namespace != "" {
		return s.Namespace + "/" + s.Name
	}
	return s.Name
}

// NewSymbol constructs an interned Symbol value.
func NewSymbol(ns, name string) *Symbol { return &Symbol{Namespace: ns, Name: name} }

// Keyword is a self-evaluating, namespace-qualifiable constant.
type Keyword struct {
	Namespace string
	Name      string
}

func (*Keyword) TypeName() string { return "Keyword" }
func (k *Keyword) String() string {
	if k.Namespace != "" {
		return ":" + k.Namespace + "/" + k.Name
	}
	return ":" + k.Name
}

var keywordTable = map[string]*Keyword{}

// Intern returns the canonical Keyword instance for ns/name, so keyword
// identity comparisons (used as map keys, dispatch values) are cheap.
func InternKeyword(ns, name string) *Keyword {
	key := ns + "/" + name
	if k, ok := keywordTable[key]; ok {
		return k
	}
	k := &Keyword{Namespace: ns, Name: name}
	keywordTable[key] = k
	return k
}

// ToDisplayString renders v in `str` style: a Str as its raw characters,
// every other Value through its String() method (so strings nested inside
// collections are unquoted too). It is called from the string builtins in
// internal/builtins/strings.go.
func ToDisplayString(v Value) string {
	if v == nil {
		return "nil"
	}
	if s, ok := v.(Str); ok {
		return string(s)
	}
	return v.String()
}

// hashString is the FNV-1a hash used as a fallback for values without a
// bespoke Hash implementation.
func hashString(s string) uint64 {
	var h uint64 = 1469598103934665603
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

// Hash computes a stable hash for v, used by the Map's sorted hash-index
// (spec G3).
func Hash(v Value) uint64 {
	if v == nil {
		return 0
	}
	if h, ok := v.(Hashable); ok {
		return h.Hash()
	}
	switch t := v.(type) {
	case Int:
		return hashString(strconv.FormatInt(int64(t), 10))
	case Float:
		return hashString(strconv.FormatFloat(float64(t), 'g', -1, 64))
	default:
		return hashString(v.String())
	}
}

func (s *Symbol) Hash() uint64  { return hashString("sym:" + s.Namespace + "/" + s.Name) }
func (k *Keyword) Hash() uint64 { return hashString("kw:" + k.Namespace + "/" + k.Name) }
func (s Str) Hash() uint64      { return hashString("str:" + string(s)) }

