package builtins

import (
	"fmt"

	"github.com/clj-lang/clj/internal/runtime"
	"github.com/clj-lang/clj/internal/value"
)

// bindingFrames is the stack of thread-binding frames established by
// `binding`'s push-thread-bindings/pop-thread-bindings expansion (spec §5
// "Dynamic bindings"): each frame records exactly the Vars it pushed, so
// pop-thread-bindings restores only that frame regardless of nesting.
var bindingFrames [][]*value.Var

func metaEntries(env *runtime.Env) []entry {
	return []entry{
		{"with-meta", func(app value.Applier, args []value.Value) (value.Value, error) {
			if err := arity("with-meta", args, 2); err != nil {
				return nil, err
			}
			return attachMeta(args[0], args[1])
		}},
		{"meta", func(app value.Applier, args []value.Value) (value.Value, error) {
			m := metaOf(args[0])
			if m == nil {
				return value.NilValue, nil
			}
			return m, nil
		}},
		{"vary-meta", func(app value.Applier, args []value.Value) (value.Value, error) {
			if len(args) < 2 {
				return nil, fmt.Errorf("wrong number of args passed to vary-meta")
			}
			fn, err := asFn(args[1])
			if err != nil {
				return nil, err
			}
			cur := metaOf(args[0])
			if cur == nil {
				cur = value.EmptyMap
			}
			callArgs := append([]value.Value{cur}, args[2:]...)
			newMeta, err := app.Apply(fn, callArgs)
			if err != nil {
				return nil, err
			}
			return attachMeta(args[0], newMeta)
		}},
		{"push-thread-bindings", func(app value.Applier, args []value.Value) (value.Value, error) {
			if err := arity("push-thread-bindings", args, 1); err != nil {
				return nil, err
			}
			m, ok := args[0].(*value.Map)
			if !ok {
				return nil, fmt.Errorf("push-thread-bindings requires a map")
			}
			var frame []*value.Var
			m.Each(func(k, v value.Value) bool {
				vr, ok := k.(*value.Var)
				if ok {
					vr.PushBinding(v)
					frame = append(frame, vr)
				}
				return true
			})
			bindingFrames = append(bindingFrames, frame)
			return value.NilValue, nil
		}},
		{"pop-thread-bindings", func(app value.Applier, args []value.Value) (value.Value, error) {
			n := len(bindingFrames)
			if n == 0 {
				return nil, fmt.Errorf("pop-thread-bindings: no binding frame to pop")
			}
			frame := bindingFrames[n-1]
			bindingFrames = bindingFrames[:n-1]
			for _, vr := range frame {
				vr.PopBinding()
			}
			return value.NilValue, nil
		}},
		{"set-root!", func(app value.Applier, args []value.Value) (value.Value, error) {
			if err := arity("set-root!", args, 2); err != nil {
				return nil, err
			}
			vr, ok := args[0].(*value.Var)
			if !ok {
				return nil, fmt.Errorf("set-root! requires a var")
			}
			if vr.IsBound() {
				vr.SetDynamicTop(args[1])
				return args[1], nil
			}
			if err := vr.BindRoot(args[1]); err != nil {
				return nil, err
			}
			return args[1], nil
		}},
	}
}

func metaOf(v value.Value) value.Value {
	switch t := v.(type) {
	case *value.Fn:
		return t.Meta
	case *value.Symbol:
		return t.Meta
	}
	return nil
}

func attachMeta(v, m value.Value) (value.Value, error) {
	switch t := v.(type) {
	case *value.Fn:
		cp := *t
		cp.Meta = m
		return &cp, nil
	case *value.Symbol:
		cp := *t
		cp.Meta = m
		return &cp, nil
	}
	return v, nil
}
