package lazyseq

import "github.com/clj-lang/clj/internal/value"

// Reduce walks s via plain first/rest, applying fn(acc, elem), honouring
// `reduced` short-circuiting. It is the unfused baseline that
// FusedReduce's result must equal (testable property 6).
func Reduce(app value.Applier, fn *value.Fn, init value.Value, s *Seq) (value.Value, error) {
	acc := init
	cur := s
	for {
		empty, err := cur.IsEmpty(app)
		if err != nil {
			return nil, err
		}
		if empty {
			return acc, nil
		}
		h, err := cur.First(app)
		if err != nil {
			return nil, err
		}
		next, err := app.Apply(fn, []value.Value{acc, h})
		if err != nil {
			return nil, err
		}
		if r, ok := next.(*value.Reduced); ok {
			return r.Val, nil
		}
		acc = next
		rest, err := cur.Rest(app)
		if err != nil {
			return nil, err
		}
		cur = rest
	}
}

// stage is one link of a transform chain, flattened by unchain for the
// fused walk.
type stage struct {
	role role
	fn   *value.Fn
}

// FusedReduce recognises a chain whose outermost node is a map, filter or
// take-while transform and walks it as a single loop — pulling from the innermost
// source, applying each transform's function in order, accumulating into
// reducer — without allocating intermediate lazy-seq cells (spec §4.6).
//
// When the chain shape isn't one FusedReduce understands (e.g. concat or
// an already-realized cons), it falls back to the unfused Reduce, which is
// always correct; the fused path is purely an optimisation and must never
// change the observable result (testable property 6).
func FusedReduce(app value.Applier, fn *value.Fn, init value.Value, s *Seq) (value.Value, error) {
	stages, source, ok := unchain(s)
	if !ok {
		return Reduce(app, fn, init, s)
	}

	acc := init
	cur := source
	for {
		empty, err := cur.IsEmpty(app)
		if err != nil {
			return nil, err
		}
		if empty {
			return acc, nil
		}
		h, err := cur.First(app)
		if err != nil {
			return nil, err
		}
		rest, err := cur.Rest(app)
		if err != nil {
			return nil, err
		}
		cur = rest

		val, skip, stop, err := runStages(app, stages, h)
		if err != nil {
			return nil, err
		}
		if stop {
			return acc, nil
		}
		if skip {
			continue
		}

		next, err := app.Apply(fn, []value.Value{acc, val})
		if err != nil {
			return nil, err
		}
		if r, ok := next.(*value.Reduced); ok {
			return r.Val, nil
		}
		acc = next
	}
}

// runStages applies every map/filter/take-while stage to v in order,
// reporting skip=true when a filter rejects v and stop=true when a
// take-while stage terminates the whole reduction.
func runStages(app value.Applier, stages []stage, v value.Value) (out value.Value, skip, stop bool, err error) {
	out = v
	for _, st := range stages {
		switch st.role {
		case roleMap:
			out, err = app.Apply(st.fn, []value.Value{out})
			if err != nil {
				return nil, false, false, err
			}
		case roleFilter:
			pass, err := app.Apply(st.fn, []value.Value{out})
			if err != nil {
				return nil, false, false, err
			}
			if !value.Truthy(pass) {
				return nil, true, false, nil
			}
		case roleTakeWhile:
			pass, err := app.Apply(st.fn, []value.Value{out})
			if err != nil {
				return nil, false, false, err
			}
			if !value.Truthy(pass) {
				return nil, false, true, nil
			}
		}
	}
	return out, false, false, nil
}

// unchain walks a map/filter/take-while chain down to its innermost
// non-transform source, returning the stages innermost-first, in
// application order (the source is pulled first, then each stage runs in
// the order the chain was built).
func unchain(s *Seq) (stages []stage, source *Seq, ok bool) {
	var collected []stage
	cur := s
	for {
		switch cur.role {
		case roleMap, roleFilter, roleTakeWhile:
			collected = append(collected, stage{role: cur.role, fn: cur.fn})
			cur = cur.src
		default:
			if len(collected) == 0 {
				return nil, nil, false
			}
			// collected is outermost-first; reverse to innermost-first so
			// runStages applies them in original chain-building order.
			for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
				collected[i], collected[j] = collected[j], collected[i]
			}
			return collected, cur, true
		}
	}
}
