package value

import (
	"fmt"

	"github.com/clj-lang/clj/internal/node"
)

// Applier lets a BuiltinFunc call back into whichever backend is running it
// (needed by `apply`, `map`, `reduce`, and friends), without value
// depending on treewalk or bytecode.
type Applier interface {
	Apply(fn Value, args []Value) (Value, error)
}

// BuiltinFunc is a built-in function's Go implementation.
type BuiltinFunc func(app Applier, args []Value) (Value, error)

// UserArity is one arity of a user-defined function: parameter names, the
// variadic flag, and the Node body to evaluate, shared across backends
// since both compile/interpret from the same Node tree (spec §3
// "Function").
type UserArity struct {
	Params    []string
	Variadic  bool
	NumParams int
	Body      []*node.Node
}

// Fn is a callable runtime Value: either a builtin (opaque handle into the
// registration table) or user-defined (ordered arity list + optional
// closure environment + optional name).
type Fn struct {
	Name    string
	Builtin BuiltinFunc

	Arities []*UserArity
	Env     []Value // captured closure slots, deep-cloned at `fn` time

	IsMacro bool
	Meta    Value
}

func (*Fn) TypeName() string { return "Function" }
func (f *Fn) String() string {
	if f.Name != "" {
		return "#'" + f.Name
	}
	if f.Builtin != nil {
		return "#<builtin-fn>"
	}
	return "#<fn>"
}

// FindArity selects the unique fixed arity with n params, else the
// variadic arity whose fixed prefix is <= n (spec §3 "Function").
func (f *Fn) FindArity(n int) (*UserArity, error) {
	var variadic *UserArity
	for _, a := range f.Arities {
		if a.Variadic {
			variadic = a
			continue
		}
		if a.NumParams == n {
			return a, nil
		}
	}
	if variadic != nil && n >= variadic.NumParams {
		return variadic, nil
	}
	return nil, fmt.Errorf("wrong number of args (%d) passed to %s", n, f.displayName())
}

func (f *Fn) displayName() string {
	if f.Name != "" {
		return f.Name
	}
	return "fn"
}

// NewBuiltin wraps a Go implementation as a callable Fn.
func NewBuiltin(name string, fn BuiltinFunc) *Fn {
	return &Fn{Name: name, Builtin: fn}
}
