package regex

// state carries the input and the capture-group spans mutated during a
// single backtracking match attempt.
type state struct {
	input  []rune
	groups []Span
}

// match drives a CPS backtracking search for the first successful match of
// n starting at pos, returning the end offset of that match.
func match(n node, input []rune, pos int, st *state) (int, bool) {
	result, ok := -1, false
	matchCont(n, input, pos, st, func(end int) bool {
		result = end
		ok = true
		return true
	})
	return result, ok
}

// matchCont matches n at pos, invoking k with every candidate end offset
// until k accepts one (returns true), backtracking through alternation and
// repetition otherwise.
func matchCont(n node, input []rune, pos int, st *state, k func(int) bool) bool {
	switch n.kind {
	case kindLit:
		if pos < len(input) && input[pos] == n.lit {
			return k(pos + 1)
		}
		return false
	case kindAny:
		if pos < len(input) {
			return k(pos + 1)
		}
		return false
	case kindClass:
		if pos >= len(input) || !classMatches(n, input[pos]) {
			return false
		}
		return k(pos + 1)
	case kindAnchorStart:
		if pos == 0 {
			return k(pos)
		}
		return false
	case kindAnchorEnd:
		if pos == len(input) {
			return k(pos)
		}
		return false
	case kindConcat:
		return matchSeq(n.children, 0, input, pos, st, k)
	case kindAlt:
		for _, c := range n.children {
			if matchCont(c, input, pos, st, k) {
				return true
			}
		}
		return false
	case kindGroup:
		return matchCont(*n.child, input, pos, st, func(end int) bool {
			if n.groupIdx <= 0 {
				return k(end)
			}
			saved := st.groups[n.groupIdx]
			st.groups[n.groupIdx] = Span{pos, end}
			if k(end) {
				return true
			}
			st.groups[n.groupIdx] = saved
			return false
		})
	case kindStar:
		return matchStar(n, input, pos, st, k, 0)
	}
	return false
}

func matchSeq(children []node, idx int, input []rune, pos int, st *state, k func(int) bool) bool {
	if idx == len(children) {
		return k(pos)
	}
	return matchCont(children[idx], input, pos, st, func(next int) bool {
		return matchSeq(children, idx+1, input, next, st, k)
	})
}

func matchStar(n node, input []rune, pos int, st *state, k func(int) bool, count int) bool {
	tryMore := func() bool {
		if n.max >= 0 && count >= n.max {
			return false
		}
		return matchCont(*n.child, input, pos, st, func(next int) bool {
			if next == pos {
				return false // a zero-width repeat would loop forever
			}
			return matchStar(n, input, next, st, k, count+1)
		})
	}
	tryStop := func() bool {
		if count < n.min {
			return false
		}
		return k(pos)
	}
	if n.lazy {
		if tryStop() {
			return true
		}
		return tryMore()
	}
	if tryMore() {
		return true
	}
	return tryStop()
}

func classMatches(n node, r rune) bool {
	in := false
	for _, rg := range n.class {
		if r >= rg.lo && r <= rg.hi {
			in = true
			break
		}
	}
	if n.negate {
		return !in
	}
	return in
}
