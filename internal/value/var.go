package value

import "fmt"

// Validator checks a proposed new value, returning an error to reject it
// (spec §5 "Var roots" / "Atoms").
type Validator func(newVal Value) error

// Watch is a registered watcher callback: (key, ref, old, new).
type Watch func(key Value, ref Value, old, new Value)

// Var is a named, mutable binding slot at namespace scope (spec §3 "Var").
// Dynamic vars additionally carry a stack of thread-local bindings,
// consulted before falling back to Root (spec §4.4's binding stack).
type Var struct {
	Symbol    string
	Namespace string
	Root      Value
	Dynamic   bool
	Macro     bool
	Meta      Value

	validator Validator
	watches   map[Value]Watch

	// bindingStack holds dynamic per-"binding"-scope overrides, most
	// recent last; Get() consults the top of this stack before Root.
	bindingStack []Value
}

func (*Var) TypeName() string { return "Var" }
func (v *Var) String() string { return "#'" + v.Namespace + "/" + v.Symbol }

// NewVar creates an interned Var with the given root value.
func NewVar(ns, sym string, root Value) *Var {
	return &Var{Symbol: sym, Namespace: ns, Root: root}
}

// Get returns the current value: the top dynamic binding if any, else Root.
func (v *Var) Get() Value {
	if n := len(v.bindingStack); n > 0 {
		return v.bindingStack[n-1]
	}
	return v.Root
}

// SetValidator installs a validator run before every future BindRoot/Swap.
func (v *Var) SetValidator(fn Validator) { v.validator = fn }

// AddWatch registers a watcher under key.
func (v *Var) AddWatch(key Value, fn Watch) {
	if v.watches == nil {
		v.watches = map[Value]Watch{}
	}
	v.watches[key] = fn
}

// RemoveWatch unregisters the watcher under key.
func (v *Var) RemoveWatch(key Value) { delete(v.watches, key) }

// BindRoot validates and sets the root value, then fires every watcher with
// (key ref old new), per spec §5 "Var roots". newVal is deep cloned before
// being stored: a `def` initialiser is evaluated in whatever scratch frame
// is current, and the root must outlive it.
func (v *Var) BindRoot(newVal Value) error {
	if v.validator != nil {
		if err := v.validator(newVal); err != nil {
			return fmt.Errorf("invalid value for var %s/%s: %w", v.Namespace, v.Symbol, err)
		}
	}
	old := v.Root
	v.Root = DeepClone(newVal)
	v.fireWatches(old, v.Root)
	return nil
}

func (v *Var) fireWatches(old, new Value) {
	for key, w := range v.watches {
		w(key, v, old, new)
	}
}

// PushBinding pushes a new dynamic binding (spec §5 "Dynamic bindings":
// strict LIFO, popped on exit via try/finally expansion).
func (v *Var) PushBinding(val Value) {
	v.bindingStack = append(v.bindingStack, val)
}

// PopBinding pops the most recent dynamic binding. Popping more than was
// pushed is a caller bug (internal error, spec §7), and panics rather than
// silently corrupting the stack.
func (v *Var) PopBinding() {
	n := len(v.bindingStack)
	if n == 0 {
		panic("PopBinding: dynamic binding stack underflow for " + v.Namespace + "/" + v.Symbol)
	}
	v.bindingStack = v.bindingStack[:n-1]
}

// SetDynamicTop overwrites the current dynamic binding in place, used by
// `set!` on a thread-bound var.
func (v *Var) SetDynamicTop(val Value) bool {
	n := len(v.bindingStack)
	if n == 0 {
		return false
	}
	v.bindingStack[n-1] = val
	return true
}

// IsBound reports whether v has an active dynamic binding.
func (v *Var) IsBound() bool { return len(v.bindingStack) > 0 }
