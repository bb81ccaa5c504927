package builtins

import (
	"fmt"

	"github.com/clj-lang/clj/internal/value"
)

func identityEntries() []entry {
	return []entry{
		{"atom", func(app value.Applier, args []value.Value) (value.Value, error) {
			var init value.Value = value.NilValue
			if len(args) > 0 {
				init = args[0]
			}
			return value.NewAtom(init), nil
		}},
		{"deref", biDeref},
		{"reset!", func(app value.Applier, args []value.Value) (value.Value, error) {
			a, ok := args[0].(*value.Atom)
			if !ok {
				return nil, fmt.Errorf("reset! requires an atom")
			}
			return a.Reset(args[1])
		}},
		{"swap!", func(app value.Applier, args []value.Value) (value.Value, error) {
			a, ok := args[0].(*value.Atom)
			if !ok {
				return nil, fmt.Errorf("swap! requires an atom")
			}
			fn := args[1]
			extra := args[2:]
			return a.Swap(func(cur value.Value) (value.Value, error) {
				callArgs := append([]value.Value{cur}, extra...)
				return app.Apply(fn, callArgs)
			})
		}},
		{"compare-and-set!", func(app value.Applier, args []value.Value) (value.Value, error) {
			a, ok := args[0].(*value.Atom)
			if !ok {
				return nil, fmt.Errorf("compare-and-set! requires an atom")
			}
			ok2, err := a.CompareAndSet(args[1], args[2])
			if err != nil {
				return nil, err
			}
			return value.BoolOf(ok2), nil
		}},
		{"volatile!", func(app value.Applier, args []value.Value) (value.Value, error) {
			var init value.Value = value.NilValue
			if len(args) > 0 {
				init = args[0]
			}
			return value.NewVolatile(init), nil
		}},
		{"vreset!", func(app value.Applier, args []value.Value) (value.Value, error) {
			v, ok := args[0].(*value.Volatile)
			if !ok {
				return nil, fmt.Errorf("vreset! requires a volatile")
			}
			return v.Reset(args[1]), nil
		}},
		{"vswap!", func(app value.Applier, args []value.Value) (value.Value, error) {
			v, ok := args[0].(*value.Volatile)
			if !ok {
				return nil, fmt.Errorf("vswap! requires a volatile")
			}
			fn := args[1]
			callArgs := append([]value.Value{v.Deref()}, args[2:]...)
			r, err := app.Apply(fn, callArgs)
			if err != nil {
				return nil, err
			}
			return v.Reset(r), nil
		}},
		{"promise", func(app value.Applier, args []value.Value) (value.Value, error) {
			return value.NewPromise(), nil
		}},
		{"deliver", func(app value.Applier, args []value.Value) (value.Value, error) {
			p, ok := args[0].(*value.Promise)
			if !ok {
				return nil, fmt.Errorf("deliver requires a promise")
			}
			p.Deliver(args[1])
			return p, nil
		}},
		{"reduced", func(app value.Applier, args []value.Value) (value.Value, error) {
			return &value.Reduced{Val: args[0]}, nil
		}},
		{"reduced?", typePredicate(func(v value.Value) bool { _, ok := v.(*value.Reduced); return ok })},
	}
}

func biDeref(app value.Applier, args []value.Value) (value.Value, error) {
	switch t := args[0].(type) {
	case *value.Atom:
		return t.Deref(), nil
	case *value.Volatile:
		return t.Deref(), nil
	case *value.Delay:
		return t.Deref()
	case *value.Promise:
		v, delivered := t.Deref()
		if !delivered {
			return value.NilValue, nil
		}
		return v, nil
	case *value.Var:
		return t.Get(), nil
	}
	return nil, fmt.Errorf("deref not supported on %s", args[0].TypeName())
}
