package value

import "fmt"

// Atom is a synchronous, validated, watchable mutable reference (spec §3
// "Atom"). All public mutators are the single-threaded logical equivalent
// of the atomic update spec §5 requires: validate, update, fire watches.
type Atom struct {
	val       Value
	validator Validator
	watches   map[Value]Watch
}

// NewAtom creates an Atom with the given initial value.
func NewAtom(initial Value) *Atom { return &Atom{val: initial} }

func (*Atom) TypeName() string { return "Atom" }
func (a *Atom) String() string { return fmt.Sprintf("#<Atom: %s>", a.val.String()) }

// Deref returns the current value.
func (a *Atom) Deref() Value { return a.val }

// SetValidator installs a validator checked on every future mutation.
func (a *Atom) SetValidator(fn Validator) { a.validator = fn }

// AddWatch registers a watcher under key.
func (a *Atom) AddWatch(key Value, fn Watch) {
	if a.watches == nil {
		a.watches = map[Value]Watch{}
	}
	a.watches[key] = fn
}

// RemoveWatch unregisters the watcher under key.
func (a *Atom) RemoveWatch(key Value) { delete(a.watches, key) }

func (a *Atom) validate(v Value) error {
	if a.validator == nil {
		return nil
	}
	return a.validator(v)
}

func (a *Atom) fireWatches(old, new Value) {
	for key, w := range a.watches {
		w(key, a, old, new)
	}
}

// Reset unconditionally sets the value, returning the new value. The stored
// value is deep cloned (spec §5 migration rule): whatever produced v may
// have built it out of scratch-owned storage.
func (a *Atom) Reset(v Value) (Value, error) {
	if err := a.validate(v); err != nil {
		return nil, err
	}
	old := a.val
	a.val = DeepClone(v)
	a.fireWatches(old, a.val)
	return a.val, nil
}

// ResetVals sets the value, returning [old new].
func (a *Atom) ResetVals(v Value) (old, new Value, err error) {
	if err := a.validate(v); err != nil {
		return nil, nil, err
	}
	old = a.val
	a.val = DeepClone(v)
	a.fireWatches(old, a.val)
	return old, a.val, nil
}

// Swap applies fn to the current value and stores the result.
func (a *Atom) Swap(fn func(Value) (Value, error)) (Value, error) {
	newVal, err := fn(a.val)
	if err != nil {
		return nil, err
	}
	if err := a.validate(newVal); err != nil {
		return nil, err
	}
	old := a.val
	a.val = DeepClone(newVal)
	a.fireWatches(old, a.val)
	return a.val, nil
}

// SwapVals applies fn, returning [old new].
func (a *Atom) SwapVals(fn func(Value) (Value, error)) (old, new Value, err error) {
	newVal, err := fn(a.val)
	if err != nil {
		return nil, nil, err
	}
	if err := a.validate(newVal); err != nil {
		return nil, nil, err
	}
	old = a.val
	a.val = DeepClone(newVal)
	a.fireWatches(old, a.val)
	return old, a.val, nil
}

// CompareAndSet sets the value to new only if the current value is
// identical (by reference) to old, returning whether it did.
func (a *Atom) CompareAndSet(old, new Value) (bool, error) {
	if a.val != old {
		return false, nil
	}
	if err := a.validate(new); err != nil {
		return false, err
	}
	prev := a.val
	a.val = DeepClone(new)
	a.fireWatches(prev, a.val)
	return true, nil
}

// Volatile is an unwatched, unvalidated mutable reference — cheaper than
// Atom, used inside `loop`-free mutation idioms.
type Volatile struct {
	val Value
}

// NewVolatile creates a Volatile with the given initial value.
func NewVolatile(initial Value) *Volatile { return &Volatile{val: initial} }

func (*Volatile) TypeName() string { return "Volatile" }
func (v *Volatile) String() string { return fmt.Sprintf("#<Volatile: %s>", v.val.String()) }

// Deref returns the current value.
func (v *Volatile) Deref() Value { return v.val }

// Reset sets the value.
func (v *Volatile) Reset(newVal Value) Value { v.val = newVal; return newVal }

// Delay memoizes the result of a zero-arg thunk, computed at most once on
// first Deref (spec §3 "Delay").
type Delay struct {
	thunk    func() (Value, error)
	realized bool
	val      Value
	err      error
}

// NewDelay wraps thunk in a Delay.
func NewDelay(thunk func() (Value, error)) *Delay { return &Delay{thunk: thunk} }

func (*Delay) TypeName() string { return "Delay" }
func (d *Delay) String() string {
	if d.realized {
		return fmt.Sprintf("#<Delay: %s>", d.val.String())
	}
	return "#<Delay: pending>"
}

// Deref forces the delay on first call and memoizes the result.
func (d *Delay) Deref() (Value, error) {
	if !d.realized {
		d.val, d.err = d.thunk()
		d.realized = true
		d.thunk = nil
	}
	return d.val, d.err
}

// IsRealized reports whether Deref has run.
func (d *Delay) IsRealized() bool { return d.realized }

// Promise is a single-assignment, blocking-free (single-threaded model)
// reference: Deliver sets the value once; Deref before delivery returns
// (nil, false).
type Promise struct {
	val       Value
	delivered bool
}

// NewPromise creates an undelivered Promise.
func NewPromise() *Promise { return &Promise{} }

func (*Promise) TypeName() string { return "Promise" }
func (p *Promise) String() string {
	if p.delivered {
		return fmt.Sprintf("#<Promise: %s>", p.val.String())
	}
	return "#<Promise: pending>"
}

// Deliver sets the value if not already delivered, returning whether it did.
func (p *Promise) Deliver(v Value) bool {
	if p.delivered {
		return false
	}
	p.val, p.delivered = v, true
	return true
}

// Deref returns the delivered value, or (nil, false) if undelivered.
func (p *Promise) Deref() (Value, bool) { return p.val, p.delivered }

// Reduced wraps a value to short-circuit a reduction (spec §4.6 "Fused
// reduce").
type Reduced struct {
	Val Value
}

func (*Reduced) TypeName() string { return "Reduced" }
func (r *Reduced) String() string { return fmt.Sprintf("#<Reduced: %s>", r.Val.String()) }

// Record is a generic struct-like Value: a named type with a fixed field
// set, produced by `defrecord`-equivalent construction and consumed by
// protocol extend-type dispatch keyed on TypeName().
type Record struct {
	RecordType string
	Fields     *Map
}

func (r *Record) TypeName() string { return r.RecordType }
func (r *Record) String() string   { return "#" + r.RecordType + r.Fields.String() }
