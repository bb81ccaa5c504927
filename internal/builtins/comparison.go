package builtins

import "github.com/clj-lang/clj/internal/value"

func comparisonEntries() []entry {
	return []entry{
		{"=", func(app value.Applier, args []value.Value) (value.Value, error) {
			for i := 1; i < len(args); i++ {
				if !value.Equal(args[i-1], args[i]) {
					return value.False, nil
				}
			}
			return value.True, nil
		}},
		{"not=", func(app value.Applier, args []value.Value) (value.Value, error) {
			for i := 1; i < len(args); i++ {
				if !value.Equal(args[i-1], args[i]) {
					return value.True, nil
				}
			}
			return value.False, nil
		}},
		{"<", chainCompare(func(a, b value.Value) bool { return asF(a) < asF(b) })},
		{"<=", chainCompare(func(a, b value.Value) bool { return asF(a) <= asF(b) })},
		{">", chainCompare(func(a, b value.Value) bool { return asF(a) > asF(b) })},
		{">=", chainCompare(func(a, b value.Value) bool { return asF(a) >= asF(b) })},
		{"not", func(app value.Applier, args []value.Value) (value.Value, error) {
			return value.BoolOf(!value.Truthy(args[0])), nil
		}},
	}
}

func chainCompare(cmp func(a, b value.Value) bool) value.BuiltinFunc {
	return func(app value.Applier, args []value.Value) (value.Value, error) {
		for i := 1; i < len(args); i++ {
			if !cmp(args[i-1], args[i]) {
				return value.False, nil
			}
		}
		return value.True, nil
	}
}
