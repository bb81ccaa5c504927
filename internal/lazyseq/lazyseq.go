// Package lazyseq implements the lazy sequence engine: thunks, cons cells,
// the six chained transforms, the four generators, concat, take, and the
// fused-reduce optimisation (spec §4.6).
package lazyseq

import (
	"fmt"

	"github.com/clj-lang/clj/internal/value"
)

type role int

const (
	roleThunk role = iota
	roleCons
	roleEmpty
	roleMap
	roleFilter
	roleMapcat
	roleTakeWhile
	roleDropWhile
	roleMapIndexed
	roleConcat
	roleIterate
	roleRepeat
	roleCycle
	roleRange
	roleTake
)

// ThunkFunc produces the next sequence state for an unrealized thunk.
type ThunkFunc func(app value.Applier) (value.Value, error)

// Seq is the lazy-sequence Value: at any instant it holds exactly one role
// (spec §3 "Lazy sequence"). Once Force has transitioned it to roleCons or
// roleEmpty, it never reverts (testable property 5).
type Seq struct {
	role role

	// roleThunk
	thunk ThunkFunc

	// roleCons / after realization
	head value.Value
	tail *Seq

	// roleMap/roleFilter/roleMapcat/roleTakeWhile/roleDropWhile/roleMapIndexed
	fn    *value.Fn
	src   *Seq
	index int // roleMapIndexed's running index

	// roleMapcat pending-inner state
	pending *Seq

	// roleConcat
	sources []*Seq

	// roleIterate/roleRepeat/roleCycle/roleRange
	genState value.Value   // iterate's current value / repeat's constant
	genStep  value.Value   // range's step
	genEnd   value.Value   // range's exclusive end (nil = infinite)
	genCycle []value.Value // cycle's source array
	genPos   int           // cycle's position modulo len(genCycle)
	genHasEnd bool

	// roleTake
	remaining int
}

func (*Seq) TypeName() string { return "LazySeq" }
func (s *Seq) String() string {
	if s.role == roleCons || s.role == roleEmpty {
		return printRealized(s)
	}
	return "#<LazySeq: pending>"
}

func printRealized(s *Seq) string {
	out := "("
	first := true
	for cur := s; cur != nil && cur.role != roleEmpty; {
		if cur.role != roleCons {
			out += " ..."
			break
		}
		if !first {
			out += " "
		}
		first = false
		out += cur.head.String()
		cur = cur.tail
	}
	return out + ")"
}

// Empty is the canonical empty lazy sequence.
var Empty = &Seq{role: roleEmpty}

// NewThunk wraps fn as an unrealized thunk.
func NewThunk(fn ThunkFunc) *Seq { return &Seq{role: roleThunk, thunk: fn} }

// Cons builds an already-realized cons cell.
func Cons(head value.Value, tail *Seq) *Seq {
	if tail == nil {
		tail = Empty
	}
	return &Seq{role: roleCons, head: head, tail: tail}
}

// NewMap builds an unrealized map transform over src.
func NewMap(fn *value.Fn, src *Seq) *Seq { return &Seq{role: roleMap, fn: fn, src: src} }

// NewFilter builds an unrealized filter transform over src.
func NewFilter(fn *value.Fn, src *Seq) *Seq { return &Seq{role: roleFilter, fn: fn, src: src} }

// NewMapcat builds an unrealized mapcat transform over src.
func NewMapcat(fn *value.Fn, src *Seq) *Seq { return &Seq{role: roleMapcat, fn: fn, src: src} }

// NewTakeWhile builds an unrealized take-while transform over src.
func NewTakeWhile(fn *value.Fn, src *Seq) *Seq { return &Seq{role: roleTakeWhile, fn: fn, src: src} }

// NewDropWhile builds an unrealized drop-while transform over src.
func NewDropWhile(fn *value.Fn, src *Seq) *Seq { return &Seq{role: roleDropWhile, fn: fn, src: src} }

// NewMapIndexed builds an unrealized map-indexed transform over src
// starting at index start.
func NewMapIndexed(fn *value.Fn, src *Seq, start int) *Seq {
	return &Seq{role: roleMapIndexed, fn: fn, src: src, index: start}
}

// NewConcat builds an unrealized concatenation of sources.
func NewConcat(sources ...*Seq) *Seq {
	if len(sources) == 0 {
		return Empty
	}
	return &Seq{role: roleConcat, sources: sources}
}

// NewIterate builds the infinite sequence x (f x) (f (f x)) ...
func NewIterate(fn *value.Fn, seed value.Value) *Seq {
	return &Seq{role: roleIterate, fn: fn, genState: seed}
}

// NewRepeat builds the infinite sequence of v repeated.
func NewRepeat(v value.Value) *Seq { return &Seq{role: roleRepeat, genState: v} }

// NewCycle builds the infinite sequence cycling through src modulo its
// length; an empty src yields Empty immediately.
func NewCycle(src []value.Value) *Seq {
	if len(src) == 0 {
		return Empty
	}
	return &Seq{role: roleCycle, genCycle: src}
}

// NewRange builds a stepped sequence from start, stopping before end when
// hasEnd is true, else infinite.
func NewRange(start, step, end value.Value, hasEnd bool) *Seq {
	return &Seq{role: roleRange, genState: start, genStep: step, genEnd: end, genHasEnd: hasEnd}
}

// NewTake builds a sequence yielding at most n elements from src.
func NewTake(src *Seq, n int) *Seq {
	if n <= 0 {
		return Empty
	}
	return &Seq{role: roleTake, src: src, remaining: n}
}

// IsEmpty reports whether s, once forced, is the empty sequence. Forces s
// if necessary.
func (s *Seq) IsEmpty(app value.Applier) (bool, error) {
	if err := s.force(app); err != nil {
		return false, err
	}
	return s.role == roleEmpty, nil
}

// First forces s and returns its head, or Nil if empty.
func (s *Seq) First(app value.Applier) (value.Value, error) {
	if err := s.force(app); err != nil {
		return nil, err
	}
	if s.role == roleEmpty {
		return value.NilValue, nil
	}
	return s.head, nil
}

// Rest forces s and returns its tail (Empty if s is empty or a singleton).
func (s *Seq) Rest(app value.Applier) (*Seq, error) {
	if err := s.force(app); err != nil {
		return nil, err
	}
	if s.role == roleEmpty {
		return Empty, nil
	}
	return s.tail, nil
}

// force advances s to roleCons or roleEmpty exactly once, memoizing the
// result in place so a second Force is a no-op (testable property 5).
func (s *Seq) force(app value.Applier) error {
	switch s.role {
	case roleCons, roleEmpty:
		return nil
	case roleThunk:
		next, err := s.thunk(app)
		if err != nil {
			return err
		}
		s.thunk = nil
		s.adoptFrom(next)
		return nil
	case roleMap:
		empty, err := s.src.IsEmpty(app)
		if err != nil {
			return err
		}
		if empty {
			s.becomeEmpty()
			return nil
		}
		h, err := s.src.First(app)
		if err != nil {
			return err
		}
		newHead, err := app.Apply(s.fn, []value.Value{h})
		if err != nil {
			return err
		}
		rest, err := s.src.Rest(app)
		if err != nil {
			return err
		}
		s.becomeCons(newHead, NewMap(s.fn, rest))
		return nil
	case roleFilter:
		cur := s.src
		for {
			empty, err := cur.IsEmpty(app)
			if err != nil {
				return err
			}
			if empty {
				s.becomeEmpty()
				return nil
			}
			h, err := cur.First(app)
			if err != nil {
				return err
			}
			pass, err := app.Apply(s.fn, []value.Value{h})
			if err != nil {
				return err
			}
			rest, err := cur.Rest(app)
			if err != nil {
				return err
			}
			if value.Truthy(pass) {
				s.becomeCons(h, NewFilter(s.fn, rest))
				return nil
			}
			cur = rest
		}
	case roleMapcat:
		for {
			if s.pending != nil {
				empty, err := s.pending.IsEmpty(app)
				if err != nil {
					return err
				}
				if !empty {
					h, err := s.pending.First(app)
					if err != nil {
						return err
					}
					rest, err := s.pending.Rest(app)
					if err != nil {
						return err
					}
					next := &Seq{role: roleMapcat, fn: s.fn, src: s.src, pending: rest}
					s.becomeCons(h, next)
					return nil
				}
				s.pending = nil
			}
			empty, err := s.src.IsEmpty(app)
			if err != nil {
				return err
			}
			if empty {
				s.becomeEmpty()
				return nil
			}
			h, err := s.src.First(app)
			if err != nil {
				return err
			}
			innerVal, err := app.Apply(s.fn, []value.Value{h})
			if err != nil {
				return err
			}
			inner := ToSeq(innerVal)
			rest, err := s.src.Rest(app)
			if err != nil {
				return err
			}
			s.src = rest
			s.pending = inner
		}
	case roleTakeWhile:
		empty, err := s.src.IsEmpty(app)
		if err != nil {
			return err
		}
		if empty {
			s.becomeEmpty()
			return nil
		}
		h, err := s.src.First(app)
		if err != nil {
			return err
		}
		pass, err := app.Apply(s.fn, []value.Value{h})
		if err != nil {
			return err
		}
		if !value.Truthy(pass) {
			s.becomeEmpty()
			return nil
		}
		rest, err := s.src.Rest(app)
		if err != nil {
			return err
		}
		s.becomeCons(h, NewTakeWhile(s.fn, rest))
		return nil
	case roleDropWhile:
		cur := s.src
		for {
			empty, err := cur.IsEmpty(app)
			if err != nil {
				return err
			}
			if empty {
				s.becomeEmpty()
				return nil
			}
			h, err := cur.First(app)
			if err != nil {
				return err
			}
			pass, err := app.Apply(s.fn, []value.Value{h})
			if err != nil {
				return err
			}
			if !value.Truthy(pass) {
				rest, err := cur.Rest(app)
				if err != nil {
					return err
				}
				s.becomeCons(h, rest)
				return nil
			}
			rest, err := cur.Rest(app)
			if err != nil {
				return err
			}
			cur = rest
		}
	case roleMapIndexed:
		empty, err := s.src.IsEmpty(app)
		if err != nil {
			return err
		}
		if empty {
			s.becomeEmpty()
			return nil
		}
		h, err := s.src.First(app)
		if err != nil {
			return err
		}
		newHead, err := app.Apply(s.fn, []value.Value{value.Int(s.index), h})
		if err != nil {
			return err
		}
		rest, err := s.src.Rest(app)
		if err != nil {
			return err
		}
		s.becomeCons(newHead, NewMapIndexed(s.fn, rest, s.index+1))
		return nil
	case roleConcat:
		for len(s.sources) > 0 {
			empty, err := s.sources[0].IsEmpty(app)
			if err != nil {
				return err
			}
			if empty {
				s.sources = s.sources[1:]
				continue
			}
			h, err := s.sources[0].First(app)
			if err != nil {
				return err
			}
			rest, err := s.sources[0].Rest(app)
			if err != nil {
				return err
			}
			newSources := append([]*Seq{rest}, s.sources[1:]...)
			s.becomeCons(h, NewConcat(newSources...))
			return nil
		}
		s.becomeEmpty()
		return nil
	case roleIterate:
		next, err := app.Apply(s.fn, []value.Value{s.genState})
		if err != nil {
			return err
		}
		s.becomeCons(s.genState, NewIterate(s.fn, next))
		return nil
	case roleRepeat:
		s.becomeCons(s.genState, NewRepeat(s.genState))
		return nil
	case roleCycle:
		h := s.genCycle[s.genPos%len(s.genCycle)]
		nextSeq := &Seq{role: roleCycle, genCycle: s.genCycle, genPos: s.genPos + 1}
		s.becomeCons(h, nextSeq)
		return nil
	case roleRange:
		if s.genHasEnd && !numLess(s.genState, s.genEnd) {
			s.becomeEmpty()
			return nil
		}
		next := numAdd(s.genState, s.genStep)
		s.becomeCons(s.genState, NewRange(next, s.genStep, s.genEnd, s.genHasEnd))
		return nil
	case roleTake:
		if s.remaining <= 0 {
			s.becomeEmpty()
			return nil
		}
		empty, err := s.src.IsEmpty(app)
		if err != nil {
			return err
		}
		if empty {
			s.becomeEmpty()
			return nil
		}
		h, err := s.src.First(app)
		if err != nil {
			return err
		}
		rest, err := s.src.Rest(app)
		if err != nil {
			return err
		}
		s.becomeCons(h, NewTake(rest, s.remaining-1))
		return nil
	}
	return fmt.Errorf("lazyseq: unknown role %d", s.role)
}

func (s *Seq) becomeCons(head value.Value, tail *Seq) {
	s.role = roleCons
	s.head = head
	s.tail = tail
	s.clearTransientFields()
}

func (s *Seq) becomeEmpty() {
	s.role = roleEmpty
	s.clearTransientFields()
}

func (s *Seq) adoptFrom(v value.Value) {
	if v == nil || v == value.NilValue {
		s.becomeEmpty()
		return
	}
	other, ok := v.(*Seq)
	if !ok {
		s.becomeCons(v, Empty)
		return
	}
	s.role = other.role
	s.head, s.tail = other.head, other.tail
	s.thunk, s.fn, s.src = other.thunk, other.fn, other.src
	s.index, s.pending, s.sources = other.index, other.pending, other.sources
	s.genState, s.genStep, s.genEnd = other.genState, other.genStep, other.genEnd
	s.genCycle, s.genPos, s.genHasEnd = other.genCycle, other.genPos, other.genHasEnd
	s.remaining = other.remaining
}

func (s *Seq) clearTransientFields() {
	s.thunk, s.fn, s.src = nil, nil, nil
	s.pending, s.sources = nil, nil
	s.genCycle = nil
}

// ToSeq coerces a realized collection Value into a Seq for mapcat's inner
// sequences and for `seq`/`concat`'s collection arguments.
func ToSeq(v value.Value) *Seq {
	switch t := v.(type) {
	case *Seq:
		return t
	case *value.List:
		return fromSlice(t.Items())
	case *value.Vector:
		return fromSlice(t.Items())
	case *value.Set:
		return fromSlice(t.Items())
	case *value.Map:
		entries := make([]value.Value, 0, t.Count())
		t.Each(func(k, v value.Value) bool {
			entries = append(entries, value.NewVector(k, v))
			return true
		})
		return fromSlice(entries)
	case nil:
		return Empty
	case value.Nil:
		return Empty
	default:
		return Empty
	}
}

// FromValues builds an already-realized Seq from items, used to bind a
// variadic function parameter's trailing arguments as a seq.
func FromValues(items []value.Value) *Seq { return fromSlice(items) }

func fromSlice(items []value.Value) *Seq {
	if len(items) == 0 {
		return Empty
	}
	return Cons(items[0], fromSlice(items[1:]))
}

func numLess(a, b value.Value) bool { return asFloat(a) < asFloat(b) }

func numAdd(a, b value.Value) value.Value {
	ai, aok := a.(value.Int)
	bi, bok := b.(value.Int)
	if aok && bok {
		return ai + bi
	}
	return value.Float(asFloat(a) + asFloat(b))
}

func asFloat(v value.Value) float64 {
	switch t := v.(type) {
	case value.Int:
		return float64(t)
	case value.Float:
		return float64(t)
	}
	return 0
}
