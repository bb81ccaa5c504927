package builtins

import (
	"github.com/clj-lang/clj/internal/lazyseq"
	"github.com/clj-lang/clj/internal/value"
)

func typePredicate(check func(value.Value) bool) value.BuiltinFunc {
	return func(app value.Applier, args []value.Value) (value.Value, error) {
		return value.BoolOf(check(args[0])), nil
	}
}

func predicateEntries() []entry {
	return []entry{
		{"nil?", typePredicate(func(v value.Value) bool { _, ok := v.(value.Nil); return ok || v == nil })},
		{"true?", typePredicate(func(v value.Value) bool { b, ok := v.(value.Bool); return ok && bool(b) })},
		{"false?", typePredicate(func(v value.Value) bool { b, ok := v.(value.Bool); return ok && !bool(b) })},
		{"boolean?", typePredicate(func(v value.Value) bool { _, ok := v.(value.Bool); return ok })},
		{"symbol?", typePredicate(func(v value.Value) bool { _, ok := v.(*value.Symbol); return ok })},
		{"keyword?", typePredicate(func(v value.Value) bool { _, ok := v.(*value.Keyword); return ok })},
		{"string?", typePredicate(func(v value.Value) bool { _, ok := v.(value.Str); return ok })},
		{"char?", typePredicate(func(v value.Value) bool { _, ok := v.(value.Char); return ok })},
		{"fn?", typePredicate(func(v value.Value) bool {
			switch v.(type) {
			case *value.Fn, *value.MultiFn, *value.ProtocolFn:
				return true
			}
			return false
		})},
		{"vector?", typePredicate(func(v value.Value) bool { _, ok := v.(*value.Vector); return ok })},
		{"map?", typePredicate(func(v value.Value) bool { _, ok := v.(*value.Map); return ok })},
		{"set?", typePredicate(func(v value.Value) bool { _, ok := v.(*value.Set); return ok })},
		{"list?", typePredicate(func(v value.Value) bool { _, ok := v.(*value.List); return ok })},
		{"seq?", typePredicate(func(v value.Value) bool {
			switch v.(type) {
			case *value.List, *lazyseq.Seq:
				return true
			}
			return false
		})},
		{"coll?", typePredicate(func(v value.Value) bool {
			switch v.(type) {
			case *value.List, *value.Vector, *value.Map, *value.Set, *lazyseq.Seq:
				return true
			}
			return false
		})},
		{"number?", typePredicate(func(v value.Value) bool {
			switch v.(type) {
			case value.Int, value.Float, value.Ratio:
				return true
			}
			return false
		})},
		{"integer?", typePredicate(func(v value.Value) bool { _, ok := v.(value.Int); return ok })},
		{"float?", typePredicate(func(v value.Value) bool { _, ok := v.(value.Float); return ok })},
		{"ratio?", typePredicate(func(v value.Value) bool { _, ok := v.(value.Ratio); return ok })},
		{"even?", typePredicate(func(v value.Value) bool { i, ok := v.(value.Int); return ok && i%2 == 0 })},
		{"odd?", typePredicate(func(v value.Value) bool { i, ok := v.(value.Int); return ok && i%2 != 0 })},
		{"zero?", typePredicate(func(v value.Value) bool { return asF(v) == 0 })},
		{"pos?", typePredicate(func(v value.Value) bool { return asF(v) > 0 })},
		{"neg?", typePredicate(func(v value.Value) bool { return asF(v) < 0 })},
		{"empty?", func(app value.Applier, args []value.Value) (value.Value, error) {
			empty, err := isEmptyColl(app, args[0])
			if err != nil {
				return nil, err
			}
			return value.BoolOf(empty), nil
		}},
	}
}

func isEmptyColl(app value.Applier, v value.Value) (bool, error) {
	switch t := v.(type) {
	case value.Nil:
		return true, nil
	case *value.List:
		return t.Count() == 0, nil
	case *value.Vector:
		return t.Count() == 0, nil
	case *value.Map:
		return t.Count() == 0, nil
	case *value.Set:
		return t.Count() == 0, nil
	case *lazyseq.Seq:
		return t.IsEmpty(app)
	}
	return v == nil, nil
}
