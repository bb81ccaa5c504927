package builtins

import (
	"fmt"

	"github.com/clj-lang/clj/internal/lazyseq"
	"github.com/clj-lang/clj/internal/value"
)

func seqEntries() []entry {
	return []entry{
		{"seq", biSeq},
		{"first", biFirst},
		{"rest", biRest},
		{"next", biNext},
		{"cons", biCons},
		{"conj", biConj},
		{"concat", biConcat},
		{"list", biList},
		{"vector", biVector},
		{"hash-map", biHashMap},
		{"hash-set", biHashSet},
		{"count", biCount},
		{"nth", biNth},
		{"nthrest", biNthrest},
		{"get", biGet},
		{"assoc", biAssoc},
		{"dissoc", biDissoc},
		{"contains?", biContainsQ},
		{"keys", biKeys},
		{"vals", biVals},
		{"reverse", biReverse},
		{"map", biMap},
		{"filter", biFilter},
		{"remove", biRemove},
		{"reduce", biReduce},
		{"apply", biApply},
		{"take", biTake},
		{"drop", biDrop},
		{"range", biRange},
		{"iterate", biIterate},
		{"repeat", biRepeat},
		{"into", biInto},
		{"take-while", biTakeWhile},
		{"drop-while", biDropWhile},
		{"mapcat", biMapcat},
		{"map-indexed", biMapIndexed},
		{"pop", biPop},
		{"peek", biPeek},
		{"last", biLast},
	}
}

func biSeq(app value.Applier, args []value.Value) (value.Value, error) {
	s := lazyseq.ToSeq(args[0])
	empty, err := s.IsEmpty(app)
	if err != nil {
		return nil, err
	}
	if empty {
		return value.NilValue, nil
	}
	return s, nil
}

func biFirst(app value.Applier, args []value.Value) (value.Value, error) {
	return lazyseq.ToSeq(args[0]).First(app)
}

func biRest(app value.Applier, args []value.Value) (value.Value, error) {
	s, err := lazyseq.ToSeq(args[0]).Rest(app)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func biNext(app value.Applier, args []value.Value) (value.Value, error) {
	s, err := lazyseq.ToSeq(args[0]).Rest(app)
	if err != nil {
		return nil, err
	}
	empty, err := s.IsEmpty(app)
	if err != nil {
		return nil, err
	}
	if empty {
		return value.NilValue, nil
	}
	return s, nil
}

func biCons(app value.Applier, args []value.Value) (value.Value, error) {
	if err := arity("cons", args, 2); err != nil {
		return nil, err
	}
	return lazyseq.Cons(args[0], lazyseq.ToSeq(args[1])), nil
}

func biConj(app value.Applier, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.NewVector(), nil
	}
	coll := args[0]
	for _, x := range args[1:] {
		var err error
		coll, err = conjOne(coll, x)
		if err != nil {
			return nil, err
		}
	}
	return coll, nil
}

func conjOne(coll, x value.Value) (value.Value, error) {
	switch t := coll.(type) {
	case value.Nil:
		return value.NewList(x), nil
	case *value.List:
		return t.Cons(x), nil
	case *value.Vector:
		return t.Conj(x), nil
	case *value.Set:
		return t.Conj(x), nil
	case *value.Map:
		entry, ok := x.(*value.Vector)
		if !ok || entry.Count() != 2 {
			return nil, fmt.Errorf("conj on a map requires a 2-element vector entry")
		}
		k, _ := entry.Nth(0)
		v, _ := entry.Nth(1)
		return t.Assoc(k, v), nil
	}
	return nil, fmt.Errorf("cannot conj onto %s", coll.TypeName())
}

func biConcat(app value.Applier, args []value.Value) (value.Value, error) {
	seqs := make([]*lazyseq.Seq, len(args))
	for i, a := range args {
		seqs[i] = lazyseq.ToSeq(a)
	}
	return lazyseq.NewConcat(seqs...), nil
}

func biList(app value.Applier, args []value.Value) (value.Value, error) { return value.NewList(args...), nil }

func biVector(app value.Applier, args []value.Value) (value.Value, error) {
	return value.NewVector(args...), nil
}

func biHashMap(app value.Applier, args []value.Value) (value.Value, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("hash-map requires an even number of arguments")
	}
	return value.NewMap(args...), nil
}

func biHashSet(app value.Applier, args []value.Value) (value.Value, error) {
	return value.NewSet(args...), nil
}

func biCount(app value.Applier, args []value.Value) (value.Value, error) {
	n, err := countOf(app, args[0])
	if err != nil {
		return nil, err
	}
	return value.Int(n), nil
}

func countOf(app value.Applier, v value.Value) (int, error) {
	switch t := v.(type) {
	case value.Nil:
		return 0, nil
	case value.Str:
		return len([]rune(string(t))), nil
	case *value.List:
		return t.Count(), nil
	case *value.Vector:
		return t.Count(), nil
	case *value.Map:
		return t.Count(), nil
	case *value.Set:
		return t.Count(), nil
	case *lazyseq.Seq:
		n := 0
		cur := t
		for {
			empty, err := cur.IsEmpty(app)
			if err != nil {
				return 0, err
			}
			if empty {
				return n, nil
			}
			n++
			cur, err = cur.Rest(app)
			if err != nil {
				return 0, err
			}
		}
	}
	return 0, fmt.Errorf("count not supported on %s", v.TypeName())
}

func biNth(app value.Applier, args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("wrong number of args passed to nth")
	}
	idx, ok := args[1].(value.Int)
	if !ok {
		return nil, fmt.Errorf("nth index must be an integer")
	}
	n := int(idx)
	var notFound value.Value = nil
	if len(args) >= 3 {
		notFound = args[2]
	}
	switch t := args[0].(type) {
	case *value.Vector:
		if v, ok := t.Nth(n); ok {
			return v, nil
		}
	case *value.List:
		items := t.Items()
		if n >= 0 && n < len(items) {
			return items[n], nil
		}
	default:
		s := lazyseq.ToSeq(args[0])
		for i := 0; i < n; i++ {
			empty, err := s.IsEmpty(app)
			if err != nil {
				return nil, err
			}
			if empty {
				break
			}
			var err2 error
			s, err2 = s.Rest(app)
			if err2 != nil {
				return nil, err2
			}
		}
		empty, err := s.IsEmpty(app)
		if err != nil {
			return nil, err
		}
		if !empty {
			return s.First(app)
		}
	}
	if notFound != nil {
		return notFound, nil
	}
	return nil, fmt.Errorf("index out of bounds")
}

func biNthrest(app value.Applier, args []value.Value) (value.Value, error) {
	if err := arity("nthrest", args, 2); err != nil {
		return nil, err
	}
	n, ok := args[1].(value.Int)
	if !ok {
		return nil, fmt.Errorf("nthrest count must be an integer")
	}
	s := lazyseq.ToSeq(args[0])
	for i := value.Int(0); i < n; i++ {
		empty, err := s.IsEmpty(app)
		if err != nil {
			return nil, err
		}
		if empty {
			break
		}
		var err2 error
		s, err2 = s.Rest(app)
		if err2 != nil {
			return nil, err2
		}
	}
	return s, nil
}

func biGet(app value.Applier, args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("wrong number of args passed to get")
	}
	var notFound value.Value = value.NilValue
	if len(args) >= 3 {
		notFound = args[2]
	}
	switch t := args[0].(type) {
	case *value.Map:
		if v, ok := t.Get(args[1]); ok {
			return v, nil
		}
	case *value.Set:
		if t.Contains(args[1]) {
			return args[1], nil
		}
	case *value.Vector:
		if idx, ok := args[1].(value.Int); ok {
			if v, ok := t.Nth(int(idx)); ok {
				return v, nil
			}
		}
	case value.Nil:
		return notFound, nil
	}
	return notFound, nil
}

func biAssoc(app value.Applier, args []value.Value) (value.Value, error) {
	if len(args) < 3 || len(args)%2 == 0 {
		return nil, fmt.Errorf("assoc expects an odd number of arguments")
	}
	coll := args[0]
	for i := 1; i+1 < len(args); i += 2 {
		k, v := args[i], args[i+1]
		switch t := coll.(type) {
		case value.Nil:
			coll = value.NewMap(k, v)
		case *value.Map:
			coll = t.Assoc(k, v)
		case *value.Vector:
			idx, ok := k.(value.Int)
			if !ok {
				return nil, fmt.Errorf("vector assoc index must be an integer")
			}
			nv, ok := t.Assoc(int(idx), v)
			if !ok {
				return nil, fmt.Errorf("index out of bounds")
			}
			coll = nv
		default:
			return nil, fmt.Errorf("assoc not supported on %s", coll.TypeName())
		}
	}
	return coll, nil
}

func biDissoc(app value.Applier, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.NilValue, nil
	}
	m, ok := args[0].(*value.Map)
	if !ok {
		return nil, fmt.Errorf("dissoc requires a map")
	}
	for _, k := range args[1:] {
		m = m.Dissoc(k)
	}
	return m, nil
}

func biContainsQ(app value.Applier, args []value.Value) (value.Value, error) {
	if err := arity("contains?", args, 2); err != nil {
		return nil, err
	}
	switch t := args[0].(type) {
	case *value.Map:
		_, ok := t.Get(args[1])
		return value.BoolOf(ok), nil
	case *value.Set:
		return value.BoolOf(t.Contains(args[1])), nil
	case *value.Vector:
		idx, ok := args[1].(value.Int)
		return value.BoolOf(ok && int(idx) >= 0 && int(idx) < t.Count()), nil
	}
	return value.False, nil
}

func biKeys(app value.Applier, args []value.Value) (value.Value, error) {
	m, ok := args[0].(*value.Map)
	if !ok {
		return nil, fmt.Errorf("keys requires a map")
	}
	return lazyseq.FromValues(m.Keys()), nil
}

func biVals(app value.Applier, args []value.Value) (value.Value, error) {
	m, ok := args[0].(*value.Map)
	if !ok {
		return nil, fmt.Errorf("vals requires a map")
	}
	return lazyseq.FromValues(m.Vals()), nil
}

func biReverse(app value.Applier, args []value.Value) (value.Value, error) {
	items, err := realize(app, args[0])
	if err != nil {
		return nil, err
	}
	rev := make([]value.Value, len(items))
	for i, v := range items {
		rev[len(items)-1-i] = v
	}
	return value.NewList(rev...), nil
}

func realize(app value.Applier, v value.Value) ([]value.Value, error) {
	switch t := v.(type) {
	case value.Nil:
		return nil, nil
	case *value.List:
		return t.Items(), nil
	case *value.Vector:
		return t.Items(), nil
	case *value.Set:
		return t.Items(), nil
	}
	var out []value.Value
	s := lazyseq.ToSeq(v)
	for {
		empty, err := s.IsEmpty(app)
		if err != nil {
			return nil, err
		}
		if empty {
			return out, nil
		}
		h, err := s.First(app)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
		s, err = s.Rest(app)
		if err != nil {
			return nil, err
		}
	}
}

func asFn(v value.Value) (*value.Fn, error) {
	fn, ok := v.(*value.Fn)
	if !ok {
		return nil, fmt.Errorf("%s is not a function", v.TypeName())
	}
	return fn, nil
}

func biMap(app value.Applier, args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("wrong number of args passed to map")
	}
	fn, err := asFn(args[0])
	if err != nil {
		return nil, err
	}
	if len(args) == 2 {
		return lazyseq.NewMap(fn, lazyseq.ToSeq(args[1])), nil
	}
	// multi-collection map: realize eagerly (kept simple, non-lazy across >1 coll).
	cols := make([][]value.Value, len(args)-1)
	minLen := -1
	for i, c := range args[1:] {
		items, err := realize(app, c)
		if err != nil {
			return nil, err
		}
		cols[i] = items
		if minLen == -1 || len(items) < minLen {
			minLen = len(items)
		}
	}
	out := make([]value.Value, 0, minLen)
	for i := 0; i < minLen; i++ {
		callArgs := make([]value.Value, len(cols))
		for j, c := range cols {
			callArgs[j] = c[i]
		}
		r, err := app.Apply(fn, callArgs)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return lazyseq.FromValues(out), nil
}

func biFilter(app value.Applier, args []value.Value) (value.Value, error) {
	if err := arity("filter", args, 2); err != nil {
		return nil, err
	}
	fn, err := asFn(args[0])
	if err != nil {
		return nil, err
	}
	return lazyseq.NewFilter(fn, lazyseq.ToSeq(args[1])), nil
}

func biRemove(app value.Applier, args []value.Value) (value.Value, error) {
	if err := arity("remove", args, 2); err != nil {
		return nil, err
	}
	fn, err := asFn(args[0])
	if err != nil {
		return nil, err
	}
	negated := value.NewBuiltin("remove-pred", func(app value.Applier, inner []value.Value) (value.Value, error) {
		r, err := app.Apply(fn, inner)
		if err != nil {
			return nil, err
		}
		return value.BoolOf(!value.Truthy(r)), nil
	})
	return lazyseq.NewFilter(negated, lazyseq.ToSeq(args[1])), nil
}

func biReduce(app value.Applier, args []value.Value) (value.Value, error) {
	var fn value.Value
	var init value.Value
	var coll value.Value
	switch len(args) {
	case 2:
		fn, coll = args[0], args[1]
	case 3:
		fn, init, coll = args[0], args[1], args[2]
	default:
		return nil, fmt.Errorf("wrong number of args passed to reduce")
	}
	s := lazyseq.ToSeq(coll)
	var acc value.Value
	if init == nil {
		empty, err := s.IsEmpty(app)
		if err != nil {
			return nil, err
		}
		if empty {
			return app.Apply(fn, nil)
		}
		acc, err = s.First(app)
		if err != nil {
			return nil, err
		}
		s, err = s.Rest(app)
		if err != nil {
			return nil, err
		}
	} else {
		acc = init
	}
	for {
		if r, ok := acc.(*value.Reduced); ok {
			return r.Val, nil
		}
		empty, err := s.IsEmpty(app)
		if err != nil {
			return nil, err
		}
		if empty {
			return acc, nil
		}
		h, err := s.First(app)
		if err != nil {
			return nil, err
		}
		acc, err = app.Apply(fn, []value.Value{acc, h})
		if err != nil {
			return nil, err
		}
		s, err = s.Rest(app)
		if err != nil {
			return nil, err
		}
	}
}

func biApply(app value.Applier, args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("wrong number of args passed to apply")
	}
	fn := args[0]
	fixed := args[1 : len(args)-1]
	last, err := realize(app, args[len(args)-1])
	if err != nil {
		return nil, err
	}
	callArgs := make([]value.Value, 0, len(fixed)+len(last))
	callArgs = append(callArgs, fixed...)
	callArgs = append(callArgs, last...)
	return app.Apply(fn, callArgs)
}

func biTake(app value.Applier, args []value.Value) (value.Value, error) {
	if err := arity("take", args, 2); err != nil {
		return nil, err
	}
	n, ok := args[0].(value.Int)
	if !ok {
		return nil, fmt.Errorf("take count must be an integer")
	}
	return lazyseq.NewTake(lazyseq.ToSeq(args[1]), int(n)), nil
}

func biDrop(app value.Applier, args []value.Value) (value.Value, error) {
	if err := arity("drop", args, 2); err != nil {
		return nil, err
	}
	return biNthrest(app, args)
}

func biRange(app value.Applier, args []value.Value) (value.Value, error) {
	switch len(args) {
	case 0:
		return lazyseq.NewRange(value.Int(0), value.Int(1), nil, false), nil
	case 1:
		return lazyseq.NewRange(value.Int(0), value.Int(1), args[0], true), nil
	case 2:
		return lazyseq.NewRange(args[0], value.Int(1), args[1], true), nil
	case 3:
		return lazyseq.NewRange(args[0], args[2], args[1], true), nil
	}
	return nil, fmt.Errorf("wrong number of args passed to range")
}

func biIterate(app value.Applier, args []value.Value) (value.Value, error) {
	if err := arity("iterate", args, 2); err != nil {
		return nil, err
	}
	fn, err := asFn(args[0])
	if err != nil {
		return nil, err
	}
	return lazyseq.NewIterate(fn, args[1]), nil
}

func biRepeat(app value.Applier, args []value.Value) (value.Value, error) {
	if len(args) == 1 {
		return lazyseq.NewRepeat(args[0]), nil
	}
	if len(args) == 2 {
		n, ok := args[0].(value.Int)
		if !ok {
			return nil, fmt.Errorf("repeat count must be an integer")
		}
		return lazyseq.NewTake(lazyseq.NewRepeat(args[1]), int(n)), nil
	}
	return nil, fmt.Errorf("wrong number of args passed to repeat")
}

func biInto(app value.Applier, args []value.Value) (value.Value, error) {
	if err := arity("into", args, 2); err != nil {
		return nil, err
	}
	items, err := realize(app, args[1])
	if err != nil {
		return nil, err
	}
	coll := args[0]
	for _, x := range items {
		coll, err = conjOne(coll, x)
		if err != nil {
			return nil, err
		}
	}
	return coll, nil
}

func biTakeWhile(app value.Applier, args []value.Value) (value.Value, error) {
	if err := arity("take-while", args, 2); err != nil {
		return nil, err
	}
	fn, err := asFn(args[0])
	if err != nil {
		return nil, err
	}
	return lazyseq.NewTakeWhile(fn, lazyseq.ToSeq(args[1])), nil
}

func biDropWhile(app value.Applier, args []value.Value) (value.Value, error) {
	if err := arity("drop-while", args, 2); err != nil {
		return nil, err
	}
	fn, err := asFn(args[0])
	if err != nil {
		return nil, err
	}
	return lazyseq.NewDropWhile(fn, lazyseq.ToSeq(args[1])), nil
}

func biMapcat(app value.Applier, args []value.Value) (value.Value, error) {
	if err := arity("mapcat", args, 2); err != nil {
		return nil, err
	}
	fn, err := asFn(args[0])
	if err != nil {
		return nil, err
	}
	return lazyseq.NewMapcat(fn, lazyseq.ToSeq(args[1])), nil
}

func biMapIndexed(app value.Applier, args []value.Value) (value.Value, error) {
	if err := arity("map-indexed", args, 2); err != nil {
		return nil, err
	}
	fn, err := asFn(args[0])
	if err != nil {
		return nil, err
	}
	return lazyseq.NewMapIndexed(fn, lazyseq.ToSeq(args[1]), 0), nil
}

func biPop(app value.Applier, args []value.Value) (value.Value, error) {
	switch t := args[0].(type) {
	case *value.Vector:
		return t.Pop(), nil
	case *value.List:
		return t.Rest(), nil
	}
	return nil, fmt.Errorf("pop not supported on %s", args[0].TypeName())
}

func biPeek(app value.Applier, args []value.Value) (value.Value, error) {
	switch t := args[0].(type) {
	case *value.Vector:
		if t.Count() == 0 {
			return value.NilValue, nil
		}
		v, _ := t.Nth(t.Count() - 1)
		return v, nil
	case *value.List:
		return t.First(), nil
	}
	return value.NilValue, nil
}

func biLast(app value.Applier, args []value.Value) (value.Value, error) {
	items, err := realize(app, args[0])
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return value.NilValue, nil
	}
	return items[len(items)-1], nil
}
