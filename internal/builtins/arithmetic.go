package builtins

import (
	"fmt"
	"math"

	"github.com/clj-lang/clj/internal/value"
)

func arithmeticEntries() []entry {
	return []entry{
		{"+", variadicArith(0, addOne)},
		{"*", variadicArith(1, mulOne)},
		{"-", subtractArith},
		{"/", divideArith},
		{"mod", binaryIntFloat(modInt, modFloat)},
		{"rem", binaryIntFloat(remInt, remFloat)},
		{"quot", binaryIntFloat(quotInt, quotFloat)},
		{"inc", func(app value.Applier, args []value.Value) (value.Value, error) {
			if err := arity("inc", args, 1); err != nil {
				return nil, err
			}
			return addOne(args[0], value.Int(1))
		}},
		{"dec", func(app value.Applier, args []value.Value) (value.Value, error) {
			if err := arity("dec", args, 1); err != nil {
				return nil, err
			}
			return addOne(args[0], value.Int(-1))
		}},
		{"max", reduceArith(func(a, b value.Value) value.Value {
			if numLess(a, b) {
				return b
			}
			return a
		})},
		{"min", reduceArith(func(a, b value.Value) value.Value {
			if numLess(b, a) {
				return b
			}
			return a
		})},
	}
}

func arity(name string, args []value.Value, n int) error {
	if len(args) != n {
		return fmt.Errorf("wrong number of args (%d) passed to %s", len(args), name)
	}
	return nil
}

func variadicArith(identity int64, op func(a, b value.Value) (value.Value, error)) value.BuiltinFunc {
	return func(app value.Applier, args []value.Value) (value.Value, error) {
		acc := value.Value(value.Int(identity))
		for _, a := range args {
			var err error
			acc, err = op(acc, a)
			if err != nil {
				return nil, err
			}
		}
		return acc, nil
	}
}

func reduceArith(op func(a, b value.Value) value.Value) value.BuiltinFunc {
	return func(app value.Applier, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("wrong number of args (0)")
		}
		acc := args[0]
		for _, a := range args[1:] {
			acc = op(acc, a)
		}
		return acc, nil
	}
}

func subtractArith(app value.Applier, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("wrong number of args (0) passed to -")
	}
	if len(args) == 1 {
		return subOne(value.Int(0), args[0])
	}
	acc := args[0]
	for _, a := range args[1:] {
		var err error
		acc, err = subOne(acc, a)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func divideArith(app value.Applier, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("wrong number of args (0) passed to /")
	}
	if len(args) == 1 {
		return divOne(value.Int(1), args[0])
	}
	acc := args[0]
	for _, a := range args[1:] {
		var err error
		acc, err = divOne(acc, a)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func toRatio(v value.Value) (value.Ratio, bool) {
	switch t := v.(type) {
	case value.Ratio:
		return t, true
	case value.Int:
		return value.Ratio{Num: int64(t), Den: 1}, true
	}
	return value.Ratio{}, false
}

func isFloaty(v value.Value) bool {
	_, ok := v.(value.Float)
	return ok
}

func asF(v value.Value) float64 {
	switch t := v.(type) {
	case value.Int:
		return float64(t)
	case value.Float:
		return float64(t)
	case value.Ratio:
		return float64(t.Num) / float64(t.Den)
	}
	return 0
}

func numLess(a, b value.Value) bool { return asF(a) < asF(b) }

func addOne(a, b value.Value) (value.Value, error) {
	if isFloaty(a) || isFloaty(b) {
		return value.Float(asF(a) + asF(b)), nil
	}
	ra, _ := toRatio(a)
	rb, _ := toRatio(b)
	return value.NewRatio(ra.Num*rb.Den+rb.Num*ra.Den, ra.Den*rb.Den), nil
}

func subOne(a, b value.Value) (value.Value, error) {
	if isFloaty(a) || isFloaty(b) {
		return value.Float(asF(a) - asF(b)), nil
	}
	ra, _ := toRatio(a)
	rb, _ := toRatio(b)
	return value.NewRatio(ra.Num*rb.Den-rb.Num*ra.Den, ra.Den*rb.Den), nil
}

func mulOne(a, b value.Value) (value.Value, error) {
	if isFloaty(a) || isFloaty(b) {
		return value.Float(asF(a) * asF(b)), nil
	}
	ra, _ := toRatio(a)
	rb, _ := toRatio(b)
	return value.NewRatio(ra.Num*rb.Num, ra.Den*rb.Den), nil
}

func divOne(a, b value.Value) (value.Value, error) {
	if isFloaty(a) || isFloaty(b) {
		bf := asF(b)
		if bf == 0 {
			return nil, fmt.Errorf("divide by zero")
		}
		return value.Float(asF(a) / bf), nil
	}
	ra, _ := toRatio(a)
	rb, _ := toRatio(b)
	if rb.Num == 0 {
		return nil, fmt.Errorf("divide by zero")
	}
	return value.NewRatio(ra.Num*rb.Den, ra.Den*rb.Num), nil
}

func binaryIntFloat(intOp func(a, b int64) (int64, error), floatOp func(a, b float64) float64) value.BuiltinFunc {
	return func(app value.Applier, args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("wrong number of args (%d)", len(args))
		}
		a, b := args[0], args[1]
		if isFloaty(a) || isFloaty(b) {
			return value.Float(floatOp(asF(a), asF(b))), nil
		}
		ai, aok := a.(value.Int)
		bi, bok := b.(value.Int)
		if !aok || !bok {
			return value.Float(floatOp(asF(a), asF(b))), nil
		}
		r, err := intOp(int64(ai), int64(bi))
		if err != nil {
			return nil, err
		}
		return value.Int(r), nil
	}
}

func modInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, fmt.Errorf("divide by zero")
	}
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m, nil
}

func modFloat(a, b float64) float64 {
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func remInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, fmt.Errorf("divide by zero")
	}
	return a % b, nil
}

func remFloat(a, b float64) float64 { return math.Mod(a, b) }

func quotInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, fmt.Errorf("divide by zero")
	}
	return a / b, nil
}

func quotFloat(a, b float64) float64 { return math.Trunc(a / b) }
