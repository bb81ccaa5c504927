package analyzer

import (
	"github.com/clj-lang/clj/internal/clerr"
	"github.com/clj-lang/clj/internal/node"
	"github.com/clj-lang/clj/internal/reader"
)

// analyzeFn lowers (fn* [params...] body...) or (fn* ([p1] b1) ([p2 & r] b2))
// — one or more arities — into a KindFn Node, opening a fresh funcScope per
// arity so captures resolve against the right enclosing scope chain.
func (a *Analyzer) analyzeFn(f *reader.Form, name string) (*node.Node, error) {
	rest := f.Children[1:]
	if len(rest) > 0 && rest[0].Kind == reader.KindSymbol && rest[0].Namespace == "" {
		name = rest[0].Name
		rest = rest[1:]
	}

	var arityForms [][]*reader.Form // each is [paramsVector, body...]
	if len(rest) > 0 && rest[0].Kind == reader.KindVector {
		arityForms = [][]*reader.Form{rest}
	} else {
		for _, c := range rest {
			if c.Kind != reader.KindList || len(c.Children) == 0 || c.Children[0].Kind != reader.KindVector {
				return nil, clerr.Analysis(f.Pos, "InvalidSpecialForm: malformed fn* arity")
			}
			arityForms = append(arityForms, c.Children)
		}
	}

	arities := make([]*node.FnArity, len(arityForms))
	for i, af := range arityForms {
		arity, err := a.analyzeArity(af[0], af[1:], name)
		if err != nil {
			return nil, err
		}
		arities[i] = arity
	}

	return &node.Node{Kind: node.KindFn, Arities: arities, FnName: name, Pos: f.Pos}, nil
}

// analyzeLetfn lowers (letfn [(f1 [args] body1) (f2 [args] body2) ...] body...)
// into an IsLetfn KindLet Node: every name is defined in scope before any
// fn* initializer is analyzed, so f1 and f2 can reference each other.
func (a *Analyzer) analyzeLetfn(f *reader.Form) (*node.Node, error) {
	if len(f.Children) < 2 || f.Children[1].Kind != reader.KindVector {
		return nil, clerr.Analysis(f.Pos, "InvalidBinding: letfn requires a binding vector")
	}
	specs := f.Children[1].Children

	prevScope := a.scope
	a.scope = newLexScope(prevScope)
	mark := a.curFn.mark()
	defer func() {
		a.scope = prevScope
		a.curFn.restore(mark)
	}()

	names := make([]string, len(specs))
	for i, spec := range specs {
		if spec.Kind != reader.KindList || len(spec.Children) == 0 || spec.Children[0].Kind != reader.KindSymbol {
			return nil, clerr.Analysis(f.Pos, "InvalidBinding: malformed letfn binding")
		}
		names[i] = spec.Children[0].Name
		a.scope.define(names[i], a.curFn)
	}

	inits := make([]*node.Node, len(specs))
	for i, spec := range specs {
		fnForm := reader.List(append([]*reader.Form{reader.Sym("fn*"), reader.Sym(names[i])}, spec.Children[1:]...)...)
		n, err := a.analyzeFn(fnForm, "")
		if err != nil {
			return nil, err
		}
		inits[i] = n
	}

	body, err := a.analyzeBody(f.Children[2:])
	if err != nil {
		return nil, err
	}
	return &node.Node{Kind: node.KindLet, BindingNames: names, BindingInit: inits, Body: body, IsLetfn: true, Pos: f.Pos}, nil
}

func (a *Analyzer) analyzeArity(paramsVec *reader.Form, bodyForms []*reader.Form, fnName string) (*node.FnArity, error) {
	outerFn := a.curFn
	outerScope := a.scope

	a.curFn = newFuncScope(outerFn)
	a.scope = newLexScope(outerScope)
	defer func() {
		a.curFn = outerFn
		a.scope = outerScope
	}()

	if fnName != "" {
		// self-reference for recursive named fns resolves through a local in
		// the arity's own scope bound to the Fn value itself at call time.
		a.scope.define(fnName, a.curFn)
	}

	var params []string
	variadic := false
	numParams := 0
	for i := 0; i < len(paramsVec.Children); i++ {
		p := paramsVec.Children[i]
		if p.IsSymbolNamed("&") {
			variadic = true
			i++
			if i >= len(paramsVec.Children) {
				return nil, clerr.Analysis(paramsVec.Pos, "InvalidBinding: & must be followed by a rest parameter")
			}
			restParam := paramsVec.Children[i]
			a.scope.define(restParam.Name, a.curFn)
			params = append(params, restParam.Name)
			continue
		}
		if p.Kind == reader.KindSymbol && p.Namespace == "" {
			a.scope.define(p.Name, a.curFn)
			params = append(params, p.Name)
			numParams++
			continue
		}
		// destructured parameter: bind a synthetic name, then destructure it
		// as the arity's first body statements.
		synthetic := "__arg" + itoa(numParams)
		a.scope.define(synthetic, a.curFn)
		params = append(params, synthetic)
		numParams++
		destructured, err := a.destructure(p, synthetic)
		if err != nil {
			return nil, err
		}
		bodyForms = prependDestructure(destructured, bodyForms)
	}

	body, err := a.analyzeBody(bodyForms)
	if err != nil {
		return nil, err
	}

	return &node.FnArity{
		Params:    params,
		Variadic:  variadic,
		NumParams: numParams,
		Body:      body,
		Captures:  a.curFn.captures,
	}, nil
}

// prependDestructure wraps bodyForms in a `let*` that performs the
// destructuring bindings computed for a destructured parameter, expressed at
// the Form level so the ordinary let-analysis path handles it.
func prependDestructure(ds []destructureBinding, bodyForms []*reader.Form) []*reader.Form {
	if len(ds) == 0 {
		return bodyForms
	}
	bindingVec := make([]*reader.Form, 0, len(ds)*2)
	for _, d := range ds {
		bindingVec = append(bindingVec, reader.Sym(d.name), d.init)
	}
	letBody := append([]*reader.Form{reader.Sym("let*"), reader.Vector(bindingVec...)}, bodyForms...)
	return []*reader.Form{reader.List(letBody...)}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
