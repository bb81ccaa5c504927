package analyzer

import (
	"github.com/clj-lang/clj/internal/node"
	"github.com/clj-lang/clj/internal/value"
)

var foldableArith = map[string]bool{"+": true, "-": true, "*": true, "/": true}
var foldableCompare = map[string]bool{"<": true, ">": true, "<=": true, ">=": true, "=": true}

// tryFold constant-folds a call to one of clojure.core's arithmetic or
// comparison operators when every argument is itself a literal constant
// (spec §4.3 "constant folding"). It returns nil when folding does not
// apply, leaving the ordinary KindCall path to handle it at runtime.
func tryFold(fn *node.Node, args []*node.Node) *node.Node {
	if fn.Kind != node.KindVarRef || (fn.VarNamespace != "" && fn.VarNamespace != "clojure.core") {
		return nil
	}
	consts := make([]value.Value, len(args))
	for i, a := range args {
		if a.Kind != node.KindConstant {
			return nil
		}
		v, ok := a.Const.(value.Value)
		if !ok {
			return nil
		}
		consts[i] = v
	}
	if len(consts) == 0 {
		return nil
	}

	if foldableArith[fn.VarName] {
		if result, ok := foldArith(fn.VarName, consts); ok {
			return &node.Node{Kind: node.KindConstant, Const: result}
		}
		return nil
	}
	if foldableCompare[fn.VarName] {
		if result, ok := foldCompare(fn.VarName, consts); ok {
			return &node.Node{Kind: node.KindConstant, Const: result}
		}
		return nil
	}
	return nil
}

func asNumeric(v value.Value) (float64, bool, bool) { // (val, isFloat, ok)
	switch n := v.(type) {
	case value.Int:
		return float64(n), false, true
	case value.Float:
		return float64(n), true, true
	}
	return 0, false, false
}

func foldArith(op string, args []value.Value) (value.Value, bool) {
	allInt := true
	floats := make([]float64, len(args))
	for i, a := range args {
		f, isFloat, ok := asNumeric(a)
		if !ok {
			return nil, false
		}
		floats[i] = f
		if isFloat {
			allInt = false
		}
	}
	var acc float64
	switch op {
	case "+":
		for _, f := range floats {
			acc += f
		}
	case "*":
		acc = 1
		for _, f := range floats {
			acc *= f
		}
	case "-":
		if len(floats) == 1 {
			acc = -floats[0]
		} else {
			acc = floats[0]
			for _, f := range floats[1:] {
				acc -= f
			}
		}
	case "/":
		if len(floats) == 1 {
			if floats[0] == 0 {
				return nil, false
			}
			acc = 1 / floats[0]
		} else {
			acc = floats[0]
			for _, f := range floats[1:] {
				if f == 0 {
					return nil, false
				}
				acc /= f
			}
		}
	}
	if op == "/" && allInt {
		// integer division yields a Ratio at runtime; fold only the float case
		return nil, false // defer to runtime so exact Ratio semantics apply
	}
	if allInt {
		return value.Int(int64(acc)), true
	}
	return value.Float(acc), true
}

func foldCompare(op string, args []value.Value) (value.Value, bool) {
	floats := make([]float64, len(args))
	for i, a := range args {
		f, _, ok := asNumeric(a)
		if !ok {
			return nil, false
		}
		floats[i] = f
	}
	result := true
	for i := 1; i < len(floats); i++ {
		a, b := floats[i-1], floats[i]
		var ok bool
		switch op {
		case "<":
			ok = a < b
		case ">":
			ok = a > b
		case "<=":
			ok = a <= b
		case ">=":
			ok = a >= b
		case "=":
			ok = a == b
		}
		if !ok {
			result = false
			break
		}
	}
	return value.BoolOf(result), true
}
