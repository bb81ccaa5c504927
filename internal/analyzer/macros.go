package analyzer

import (
	"github.com/clj-lang/clj/internal/clerr"
	"github.com/clj-lang/clj/internal/reader"
)

var macroCounter int

func freshName(prefix string) string {
	macroCounter++
	return "__" + prefix + itoa(macroCounter)
}

type macroFn func(a *Analyzer, f *reader.Form) (*reader.Form, error)

var builtinMacros map[string]macroFn

func init() {
	builtinMacros = map[string]macroFn{
		"let":        macroRenameHead("let*"),
		"loop":       macroRenameHead("loop*"),
		"fn":         macroRenameHead("fn*"),
		"defn":       macroDefn,
		"defn-":      macroDefn,
		"when":       macroWhen,
		"when-not":   macroWhenNot,
		"cond":       macroCond,
		"case":       macroCase,
		"and":        macroAnd,
		"or":         macroOr,
		"->":         macroThreadFirst,
		"->>":        macroThreadLast,
		"some->":     macroSomeThreadFirst,
		"some->>":    macroSomeThreadLast,
		"as->":       macroAsThread,
		"cond->":     macroCondThreadFirst,
		"cond->>":    macroCondThreadLast,
		"if-let":     macroIfLet,
		"when-let":   macroWhenLet,
		"if-some":    macroIfSome,
		"when-some":  macroWhenSome,
		"dotimes":    macroDotimes,
		"doseq":      macroDoseq,
		"while":      macroWhile,
		"binding":    macroBinding,
		"with-redefs": macroWithRedefs,
	}
}

func macroRenameHead(newHead string) macroFn {
	return func(a *Analyzer, f *reader.Form) (*reader.Form, error) {
		children := append([]*reader.Form{reader.Sym(newHead)}, f.Children[1:]...)
		return reader.List(children...), nil
	}
}

// macroexpand1 expands f (a list headed by an unqualified symbol) once
// against the built-in macro table or a user-defined macro Var, reporting
// whether any expansion occurred.
func (a *Analyzer) macroexpand1(f *reader.Form) (*reader.Form, bool, error) {
	head := f.Children[0]
	if fn, ok := builtinMacros[head.Name]; ok {
		expanded, err := fn(a, f)
		if err != nil {
			return nil, false, err
		}
		return expanded, true, nil
	}
	if v, err := a.env.ResolveVar(a.env.CurrentNamespace(), "", head.Name); err == nil && v.Macro {
		expanded, err := a.expandUserMacro(v, f)
		if err != nil {
			return nil, false, clerr.Analysis(f.Pos, "%v", err)
		}
		if expanded != nil {
			return expanded, true, nil
		}
	}
	return nil, false, nil
}

func macroWhen(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	if len(f.Children) < 2 {
		return nil, clerr.Analysis(f.Pos, "InvalidSpecialForm: when requires a test")
	}
	body := append([]*reader.Form{reader.Sym("do")}, f.Children[2:]...)
	return reader.List(reader.Sym("if"), f.Children[1], reader.List(body...)), nil
}

func macroWhenNot(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	if len(f.Children) < 2 {
		return nil, clerr.Analysis(f.Pos, "InvalidSpecialForm: when-not requires a test")
	}
	body := append([]*reader.Form{reader.Sym("do")}, f.Children[2:]...)
	return reader.List(reader.Sym("if"), f.Children[1], reader.Sym("nil"), reader.List(body...)), nil
}

func macroCond(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	clauses := f.Children[1:]
	return buildCond(clauses), nil
}

func buildCond(clauses []*reader.Form) *reader.Form {
	if len(clauses) == 0 {
		return reader.Sym("nil")
	}
	test := clauses[0]
	if len(clauses) == 1 {
		return reader.List(reader.Sym("if"), test, reader.Sym("nil"))
	}
	result := clauses[1]
	if test.Kind == reader.KindKeyword && test.Namespace == "" && test.Name == "else" {
		return result
	}
	return reader.List(reader.Sym("if"), test, result, buildCond(clauses[2:]))
}

func macroCase(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	if len(f.Children) < 2 {
		return nil, clerr.Analysis(f.Pos, "InvalidSpecialForm: case requires an expression")
	}
	exprForm := f.Children[1]
	tmp := freshName("case")
	clauses := f.Children[2:]
	body := buildCaseClauses(tmp, clauses)
	return reader.List(reader.Sym("let*"), reader.Vector(reader.Sym(tmp), exprForm), body), nil
}

func buildCaseClauses(tmp string, clauses []*reader.Form) *reader.Form {
	if len(clauses) == 0 {
		return reader.List(reader.Sym("throw"), reader.List(reader.Sym("ex-info"), &reader.Form{Kind: reader.KindString, Str: "No matching clause"}, reader.List(reader.Sym("hash-map"))))
	}
	if len(clauses) == 1 {
		return clauses[0] // default value, no test
	}
	testForm, result := clauses[0], clauses[1]
	var test *reader.Form
	if testForm.Kind == reader.KindList || testForm.Kind == reader.KindVector {
		var eqs []*reader.Form
		for _, v := range testForm.Children {
			eqs = append(eqs, reader.List(reader.Sym("="), reader.Sym(tmp), v))
		}
		test = reader.List(append([]*reader.Form{reader.Sym("or")}, eqs...)...)
	} else {
		test = reader.List(reader.Sym("="), reader.Sym(tmp), testForm)
	}
	return reader.List(reader.Sym("if"), test, result, buildCaseClauses(tmp, clauses[2:]))
}

func macroAnd(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	args := f.Children[1:]
	return buildAnd(args), nil
}

func buildAnd(args []*reader.Form) *reader.Form {
	if len(args) == 0 {
		return &reader.Form{Kind: reader.KindBool, Bool: true}
	}
	if len(args) == 1 {
		return args[0]
	}
	tmp := freshName("and")
	return reader.List(reader.Sym("let*"), reader.Vector(reader.Sym(tmp), args[0]),
		reader.List(reader.Sym("if"), reader.Sym(tmp), buildAnd(args[1:]), reader.Sym(tmp)))
}

func macroOr(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	return buildOr(f.Children[1:]), nil
}

func buildOr(args []*reader.Form) *reader.Form {
	if len(args) == 0 {
		return reader.Sym("nil")
	}
	if len(args) == 1 {
		return args[0]
	}
	tmp := freshName("or")
	return reader.List(reader.Sym("let*"), reader.Vector(reader.Sym(tmp), args[0]),
		reader.List(reader.Sym("if"), reader.Sym(tmp), reader.Sym(tmp), buildOr(args[1:])))
}

func insertAsFirstArg(call *reader.Form, arg *reader.Form) *reader.Form {
	if call.Kind == reader.KindSymbol {
		return reader.List(call, arg)
	}
	children := append([]*reader.Form{call.Children[0], arg}, call.Children[1:]...)
	return reader.List(children...)
}

func insertAsLastArg(call *reader.Form, arg *reader.Form) *reader.Form {
	if call.Kind == reader.KindSymbol {
		return reader.List(call, arg)
	}
	children := append(append([]*reader.Form{}, call.Children...), arg)
	return reader.List(children...)
}

func macroThreadFirst(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	return threadWith(f.Children[1], f.Children[2:], insertAsFirstArg), nil
}

func macroThreadLast(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	return threadWith(f.Children[1], f.Children[2:], insertAsLastArg), nil
}

func threadWith(init *reader.Form, steps []*reader.Form, insert func(*reader.Form, *reader.Form) *reader.Form) *reader.Form {
	acc := init
	for _, s := range steps {
		acc = insert(s, acc)
	}
	return acc
}

func macroSomeThreadFirst(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	return someThread(f.Children[1], f.Children[2:], insertAsFirstArg), nil
}

func macroSomeThreadLast(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	return someThread(f.Children[1], f.Children[2:], insertAsLastArg), nil
}

func someThread(init *reader.Form, steps []*reader.Form, insert func(*reader.Form, *reader.Form) *reader.Form) *reader.Form {
	if len(steps) == 0 {
		return init
	}
	tmp := freshName("some")
	step := insert(steps[0], reader.Sym(tmp))
	rest := someThread(reader.Sym(tmp), steps[1:], insert)
	return reader.List(reader.Sym("let*"), reader.Vector(reader.Sym(tmp), init),
		reader.List(reader.Sym("if"), reader.List(reader.Sym("nil?"), reader.Sym(tmp)), reader.Sym("nil"),
			reader.List(reader.Sym("let*"), reader.Vector(reader.Sym(tmp), step), rest)))
}

func macroAsThread(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	if len(f.Children) < 3 {
		return nil, clerr.Analysis(f.Pos, "InvalidSpecialForm: as-> requires an expr and a name")
	}
	init, name, steps := f.Children[1], f.Children[2], f.Children[3:]
	body := append([]*reader.Form{reader.Sym("do")}, steps...)
	if len(steps) == 1 {
		return reader.List(reader.Sym("let*"), reader.Vector(name, init), steps[0]), nil
	}
	return reader.List(reader.Sym("let*"), reader.Vector(name, init), body), nil
}

func macroCondThreadFirst(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	return condThread(f.Children[1], f.Children[2:], insertAsFirstArg), nil
}

func macroCondThreadLast(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	return condThread(f.Children[1], f.Children[2:], insertAsLastArg), nil
}

// condThread builds the cond->/cond->> expansion: tmp re-bound through a
// chain of (if test (insert expr tmp) tmp) steps, one per clause pair.
func condThread(init *reader.Form, clauses []*reader.Form, insert func(*reader.Form, *reader.Form) *reader.Form) *reader.Form {
	tmp := freshName("cond")
	result := reader.Sym(tmp)

	var buildSteps func(i int) *reader.Form
	buildSteps = func(i int) *reader.Form {
		if i >= len(clauses) {
			return result
		}
		test, expr := clauses[i], clauses[i+1]
		stepped := insert(expr, result)
		return reader.List(reader.Sym("let*"), reader.Vector(reader.Sym(tmp),
			reader.List(reader.Sym("if"), test, stepped, result)), buildSteps(i+2))
	}
	return reader.List(reader.Sym("let*"), reader.Vector(reader.Sym(tmp), init), buildSteps(0))
}

func macroIfLet(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	return expandIfLet(f, false)
}

func macroWhenLet(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	return expandIfLet(f, true)
}

func expandIfLet(f *reader.Form, isWhen bool) (*reader.Form, error) {
	if len(f.Children) < 3 || f.Children[1].Kind != reader.KindVector || len(f.Children[1].Children) != 2 {
		return nil, clerr.Analysis(f.Pos, "InvalidBinding: requires a single [name test] binding")
	}
	name, test := f.Children[1].Children[0], f.Children[1].Children[1]
	tmp := freshName("iflet")
	var then, els *reader.Form
	if isWhen {
		then = reader.List(append([]*reader.Form{reader.Sym("do")}, f.Children[2:]...)...)
		els = reader.Sym("nil")
	} else {
		then = f.Children[2]
		if len(f.Children) > 3 {
			els = f.Children[3]
		} else {
			els = reader.Sym("nil")
		}
	}
	return reader.List(reader.Sym("let*"), reader.Vector(reader.Sym(tmp), test),
		reader.List(reader.Sym("if"), reader.Sym(tmp),
			reader.List(reader.Sym("let*"), reader.Vector(name, reader.Sym(tmp)), then), els)), nil
}

func macroIfSome(a *Analyzer, f *reader.Form) (*reader.Form, error) { return expandIfSome(f, false) }
func macroWhenSome(a *Analyzer, f *reader.Form) (*reader.Form, error) { return expandIfSome(f, true) }

func expandIfSome(f *reader.Form, isWhen bool) (*reader.Form, error) {
	if len(f.Children) < 3 || f.Children[1].Kind != reader.KindVector || len(f.Children[1].Children) != 2 {
		return nil, clerr.Analysis(f.Pos, "InvalidBinding: requires a single [name test] binding")
	}
	name, test := f.Children[1].Children[0], f.Children[1].Children[1]
	tmp := freshName("ifsome")
	var then, els *reader.Form
	if isWhen {
		then = reader.List(append([]*reader.Form{reader.Sym("do")}, f.Children[2:]...)...)
		els = reader.Sym("nil")
	} else {
		then = f.Children[2]
		if len(f.Children) > 3 {
			els = f.Children[3]
		} else {
			els = reader.Sym("nil")
		}
	}
	return reader.List(reader.Sym("let*"), reader.Vector(reader.Sym(tmp), test),
		reader.List(reader.Sym("if"), reader.List(reader.Sym("nil?"), reader.Sym(tmp)), els,
			reader.List(reader.Sym("let*"), reader.Vector(name, reader.Sym(tmp)), then))), nil
}

func macroDotimes(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	if len(f.Children) < 2 || f.Children[1].Kind != reader.KindVector || len(f.Children[1].Children) != 2 {
		return nil, clerr.Analysis(f.Pos, "InvalidBinding: dotimes requires [i n]")
	}
	i, n := f.Children[1].Children[0], f.Children[1].Children[1]
	body := append([]*reader.Form{reader.Sym("do")}, f.Children[2:]...)
	loopBody := reader.List(reader.Sym("when"), reader.List(reader.Sym("<"), i, n),
		reader.List(body...),
		reader.List(reader.Sym("recur"), reader.List(reader.Sym("+"), i, &reader.Form{Kind: reader.KindInt, Int: 1})))
	return reader.List(reader.Sym("loop*"), reader.Vector(i, &reader.Form{Kind: reader.KindInt, Int: 0}), loopBody), nil
}

func macroWhile(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	body := append([]*reader.Form{reader.Sym("do")}, f.Children[2:]...)
	loopBody := reader.List(reader.Sym("when"), f.Children[1], body, reader.List(reader.Sym("recur")))
	return reader.List(reader.Sym("loop*"), reader.Vector(), loopBody), nil
}

// macroDoseq supports a single [name coll] binding pair; additional pairs
// are sequentially nested, :when/:let modifiers are not supported.
func macroDoseq(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	if len(f.Children) < 2 || f.Children[1].Kind != reader.KindVector {
		return nil, clerr.Analysis(f.Pos, "InvalidBinding: doseq requires a binding vector")
	}
	pairs := f.Children[1].Children
	body := f.Children[2:]
	return buildDoseq(pairs, body), nil
}

func buildDoseq(pairs []*reader.Form, body []*reader.Form) *reader.Form {
	if len(pairs) == 0 {
		return reader.List(append([]*reader.Form{reader.Sym("do")}, body...)...)
	}
	name, coll := pairs[0], pairs[1]
	s := freshName("doseq")
	innerBody := append([]*reader.Form{reader.Sym("let*"), reader.Vector(name, reader.List(reader.Sym("first"), reader.Sym(s)))},
		buildDoseq(pairs[2:], body))
	loopBody := reader.List(reader.Sym("when"), reader.Sym(s),
		reader.List(innerBody...),
		reader.List(reader.Sym("recur"), reader.List(reader.Sym("next"), reader.Sym(s))))
	return reader.List(reader.Sym("loop*"), reader.Vector(reader.Sym(s), reader.List(reader.Sym("seq"), coll)), loopBody)
}

func macroDefn(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	if len(f.Children) < 3 || f.Children[1].Kind != reader.KindSymbol {
		return nil, clerr.Analysis(f.Pos, "InvalidSpecialForm: defn requires a name")
	}
	name := f.Children[1]
	rest := f.Children[2:]
	if len(rest) > 0 && rest[0].Kind == reader.KindString {
		rest = rest[1:] // drop docstring
	}
	fnChildren := append([]*reader.Form{reader.Sym("fn*"), name}, rest...)
	return reader.List(reader.Sym("def"), name, reader.List(fnChildren...)), nil
}

func macroBinding(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	if len(f.Children) < 2 || f.Children[1].Kind != reader.KindVector {
		return nil, clerr.Analysis(f.Pos, "InvalidBinding: binding requires a binding vector")
	}
	pairs := f.Children[1].Children
	if len(pairs)%2 != 0 {
		return nil, clerr.Analysis(f.Pos, "InvalidBinding: odd number of binding forms")
	}
	var varForms, valForms []*reader.Form
	for i := 0; i+1 < len(pairs); i += 2 {
		varForms = append(varForms, reader.List(reader.Sym("var"), pairs[i]))
		valForms = append(valForms, pairs[i+1])
	}
	mapArgs := []*reader.Form{reader.Sym("hash-map")}
	for i := range varForms {
		mapArgs = append(mapArgs, varForms[i], valForms[i])
	}
	body := append([]*reader.Form{reader.Sym("do")}, f.Children[2:]...)
	return reader.List(reader.Sym("try"),
		reader.List(reader.Sym("push-thread-bindings"), reader.List(mapArgs...)),
		body,
		reader.List(reader.Sym("finally"), reader.List(reader.Sym("pop-thread-bindings")))), nil
}

func macroWithRedefs(a *Analyzer, f *reader.Form) (*reader.Form, error) {
	if len(f.Children) < 2 || f.Children[1].Kind != reader.KindVector {
		return nil, clerr.Analysis(f.Pos, "InvalidBinding: with-redefs requires a binding vector")
	}
	pairs := f.Children[1].Children
	var oldNames []string
	var setForms, restoreForms []*reader.Form
	for i := 0; i+1 < len(pairs); i += 2 {
		target, val := pairs[i], pairs[i+1]
		oldName := freshName("redef")
		oldNames = append(oldNames, oldName)
		setForms = append(setForms, reader.List(reader.Sym("set-root!"), reader.List(reader.Sym("var"), target), val))
		restoreForms = append(restoreForms, reader.List(reader.Sym("set-root!"), reader.List(reader.Sym("var"), target), reader.Sym(oldName)))
	}
	var bindingVec []*reader.Form
	for i, name := range oldNames {
		target := pairs[i*2]
		bindingVec = append(bindingVec, reader.Sym(name), reader.List(reader.Sym("deref"), reader.List(reader.Sym("var"), target)))
	}
	body := append([]*reader.Form{reader.Sym("do")}, append(setForms, f.Children[2:]...)...)
	finallyForm := reader.List(append([]*reader.Form{reader.Sym("finally")}, restoreForms...)...)
	return reader.List(reader.Sym("let*"), reader.Vector(bindingVec...),
		reader.List(reader.Sym("try"), body, finallyForm)), nil
}
