// Package analyzer lowers Form trees into Node trees (spec §4.3):
// special-form recognition, Var/local resolution with slot indices,
// built-in macro expansion to a fixed point, constant folding of pure
// arithmetic/comparisons, destructuring, and quasiquotation.
package analyzer

import (
	"fmt"

	"github.com/clj-lang/clj/internal/clerr"
	"github.com/clj-lang/clj/internal/node"
	"github.com/clj-lang/clj/internal/reader"
	"github.com/clj-lang/clj/internal/runtime"
	"github.com/clj-lang/clj/internal/value"
)

// Analyzer lowers Forms to Nodes against a runtime Env, tracking lexical
// scope and function-boundary captures as it goes.
type Analyzer struct {
	env         *runtime.Env
	curFn       *funcScope
	scope       *lexScope
	invokeMacro MacroInvoker
}

// New creates an Analyzer bound to env.
func New(env *runtime.Env) *Analyzer {
	return &Analyzer{env: env}
}

// AnalyzeTopLevel analyzes one top-level Form, in a fresh top-level
// function scope (so `let`/`loop` locals at the top level get real slots,
// and the top-level scope itself has no enclosing function to capture from).
func (a *Analyzer) AnalyzeTopLevel(f *reader.Form) (*node.Node, error) {
	a.curFn = newFuncScope(nil)
	a.scope = newLexScope(nil)
	return a.analyze(f)
}

func (a *Analyzer) analyze(f *reader.Form) (*node.Node, error) {
	if f == nil {
		return &node.Node{Kind: node.KindConstant, Const: value.NilValue}, nil
	}

	switch f.Kind {
	case reader.KindNil:
		return &node.Node{Kind: node.KindConstant, Const: value.NilValue, Pos: f.Pos}, nil
	case reader.KindBool:
		return &node.Node{Kind: node.KindConstant, Const: value.BoolOf(f.Bool), Pos: f.Pos}, nil
	case reader.KindInt:
		return &node.Node{Kind: node.KindConstant, Const: value.Int(f.Int), Pos: f.Pos}, nil
	case reader.KindFloat:
		return &node.Node{Kind: node.KindConstant, Const: value.Float(f.Float), Pos: f.Pos}, nil
	case reader.KindRatio:
		return &node.Node{Kind: node.KindConstant, Const: value.NewRatio(f.RatioN, f.RatioD), Pos: f.Pos}, nil
	case reader.KindString:
		return &node.Node{Kind: node.KindConstant, Const: value.Str(f.Str), Pos: f.Pos}, nil
	case reader.KindChar:
		return &node.Node{Kind: node.KindConstant, Const: value.Char(f.Char), Pos: f.Pos}, nil
	case reader.KindKeyword:
		return &node.Node{Kind: node.KindConstant, Const: value.InternKeyword(f.Namespace, f.Name), Pos: f.Pos}, nil
	case reader.KindRegex:
		pat, err := compileConstantRegex(f.Str)
		if err != nil {
			return nil, clerr.Analysis(f.Pos, "%v", err)
		}
		return &node.Node{Kind: node.KindConstant, Const: pat, Pos: f.Pos}, nil
	case reader.KindSymbol:
		return a.analyzeSymbol(f)
	case reader.KindVector:
		return a.analyzeCollectionLiteral(f, "vector")
	case reader.KindSet:
		return a.analyzeCollectionLiteral(f, "hash-set")
	case reader.KindMap:
		return a.analyzeCollectionLiteral(f, "hash-map")
	case reader.KindList:
		return a.analyzeList(f)
	}
	return nil, clerr.Analysis(f.Pos, "unsupported form")
}

func (a *Analyzer) analyzeSymbol(f *reader.Form) (*node.Node, error) {
	if f.Namespace == "" {
		if b := a.scope.resolve(f.Name); b != nil {
			slot, isCapture := resolveFor(a.curFn, b)
			return &node.Node{Kind: node.KindLocalRef, LocalName: f.Name, LocalSlot: slot, IsCapture: isCapture, Pos: f.Pos}, nil
		}
	}
	v, err := a.env.ResolveVar(a.env.CurrentNamespace(), f.Namespace, f.Name)
	if err != nil {
		return nil, clerr.Analysis(f.Pos, "UndefinedSymbol: %s", f)
	}
	return &node.Node{Kind: node.KindVarRef, VarNamespace: v.Namespace, VarName: v.Symbol, Pos: f.Pos}, nil
}

// analyzeCollectionLiteral implements spec §4.3's "dynamic collection
// literals" rule: a literal whose elements are all compile-time constants
// folds to a single Node constant; otherwise it lowers to a call against
// the corresponding builtin constructor.
func (a *Analyzer) analyzeCollectionLiteral(f *reader.Form, ctorName string) (*node.Node, error) {
	if v, ok := formToConstant(f); ok {
		return &node.Node{Kind: node.KindConstant, Const: v, Pos: f.Pos}, nil
	}
	args := make([]*node.Node, len(f.Children))
	for i, c := range f.Children {
		n, err := a.analyze(c)
		if err != nil {
			return nil, err
		}
		args[i] = n
	}
	return &node.Node{
		Kind: node.KindCall,
		Fn:   &node.Node{Kind: node.KindVarRef, VarNamespace: "clojure.core", VarName: ctorName, Pos: f.Pos},
		Args: args,
		Pos:  f.Pos,
	}, nil
}

// formToConstant recursively converts f into a runtime Value if every
// element is itself a compile-time constant (atomic literal, keyword, or a
// nested all-constant vector/set/map); symbols and lists do not qualify.
func formToConstant(f *reader.Form) (value.Value, bool) {
	switch f.Kind {
	case reader.KindNil:
		return value.NilValue, true
	case reader.KindBool:
		return value.BoolOf(f.Bool), true
	case reader.KindInt:
		return value.Int(f.Int), true
	case reader.KindFloat:
		return value.Float(f.Float), true
	case reader.KindRatio:
		return value.NewRatio(f.RatioN, f.RatioD), true
	case reader.KindString:
		return value.Str(f.Str), true
	case reader.KindChar:
		return value.Char(f.Char), true
	case reader.KindKeyword:
		return value.InternKeyword(f.Namespace, f.Name), true
	case reader.KindVector:
		items, ok := formsToConstants(f.Children)
		if !ok {
			return nil, false
		}
		return value.NewVector(items...), true
	case reader.KindSet:
		items, ok := formsToConstants(f.Children)
		if !ok {
			return nil, false
		}
		return value.NewSet(items...), true
	case reader.KindMap:
		items, ok := formsToConstants(f.Children)
		if !ok {
			return nil, false
		}
		return value.NewMap(items...), true
	}
	return nil, false
}

func formsToConstants(fs []*reader.Form) ([]value.Value, bool) {
	out := make([]value.Value, len(fs))
	for i, f := range fs {
		v, ok := formToConstant(f)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func (a *Analyzer) analyzeList(f *reader.Form) (*node.Node, error) {
	if len(f.Children) == 0 {
		return &node.Node{Kind: node.KindConstant, Const: value.NewList(), Pos: f.Pos}, nil
	}

	head := f.Children[0]
	if head.Kind == reader.KindSymbol && head.Namespace == "" {
		if expanded, did, err := a.macroexpand1(f); err != nil {
			return nil, err
		} else if did {
			return a.analyze(expanded)
		}

		switch head.Name {
		case "if":
			return a.analyzeIf(f)
		case "do":
			return a.analyzeDo(f)
		case "let*":
			return a.analyzeLet(f, false)
		case "loop*":
			return a.analyzeLet(f, true)
		case "letfn":
			return a.analyzeLetfn(f)
		case "recur":
			return a.analyzeRecur(f)
		case "fn*":
			return a.analyzeFn(f, "")
		case "def":
			return a.analyzeDef(f)
		case "quote":
			return a.analyzeQuote(f)
		case "var":
			return a.analyzeVarSpecial(f)
		case "throw":
			return a.analyzeThrow(f)
		case "try":
			return a.analyzeTry(f)
		case "defmulti":
			return a.analyzeDefMulti(f)
		case "defmethod":
			return a.analyzeDefMethod(f)
		case "defprotocol":
			return a.analyzeDefProtocol(f)
		case "extend-type", "extend-protocol":
			return a.analyzeExtendType(f)
		case "with-meta":
			return a.analyzeWithMeta(f)
		case "deref":
			return a.analyzeDeref(f)
		case "syntax-quote":
			expanded, err := a.expandSyntaxQuote(f.Children[1])
			if err != nil {
				return nil, err
			}
			return a.analyze(expanded)
		case "unquote", "unquote-splicing":
			return nil, clerr.Analysis(f.Pos, "%s not in syntax-quote", head.Name)
		}
	}

	return a.analyzeCall(f)
}

func (a *Analyzer) analyzeIf(f *reader.Form) (*node.Node, error) {
	if len(f.Children) < 3 || len(f.Children) > 4 {
		return nil, clerr.Analysis(f.Pos, "InvalidSpecialForm: if requires 2 or 3 arguments")
	}
	cond, err := a.analyze(f.Children[1])
	if err != nil {
		return nil, err
	}
	then, err := a.analyze(f.Children[2])
	if err != nil {
		return nil, err
	}
	var els *node.Node
	if len(f.Children) == 4 {
		els, err = a.analyze(f.Children[3])
		if err != nil {
			return nil, err
		}
	} else {
		els = &node.Node{Kind: node.KindConstant, Const: value.NilValue}
	}
	return &node.Node{Kind: node.KindIf, Cond: cond, Then: then, Else: els, Pos: f.Pos}, nil
}

func (a *Analyzer) analyzeDo(f *reader.Form) (*node.Node, error) {
	body, err := a.analyzeBody(f.Children[1:])
	if err != nil {
		return nil, err
	}
	return &node.Node{Kind: node.KindDo, Body: body, Pos: f.Pos}, nil
}

func (a *Analyzer) analyzeBody(forms []*reader.Form) ([]*node.Node, error) {
	out := make([]*node.Node, len(forms))
	for i, f := range forms {
		n, err := a.analyze(f)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// analyzeLet handles both let* and loop*; loop additionally marks the
// pushed slots as a recur target.
func (a *Analyzer) analyzeLet(f *reader.Form, isLoop bool) (*node.Node, error) {
	if len(f.Children) < 2 || f.Children[1].Kind != reader.KindVector {
		return nil, clerr.Analysis(f.Pos, "InvalidBinding: let/loop requires a binding vector")
	}
	bindingForms := f.Children[1].Children
	if len(bindingForms)%2 != 0 {
		return nil, clerr.Analysis(f.Pos, "InvalidBinding: odd number of binding forms")
	}

	prevScope := a.scope
	a.scope = newLexScope(prevScope)
	mark := a.curFn.mark()
	defer func() {
		a.scope = prevScope
		a.curFn.restore(mark)
	}()

	names := make([]string, 0, len(bindingForms)/2)
	inits := make([]*node.Node, 0, len(bindingForms)/2)
	for i := 0; i+1 < len(bindingForms); i += 2 {
		target := bindingForms[i]
		initForm := bindingForms[i+1]
		initNode, err := a.analyze(initForm)
		if err != nil {
			return nil, err
		}
		if target.Kind == reader.KindSymbol && target.Namespace == "" {
			a.scope.define(target.Name, a.curFn)
			names = append(names, target.Name)
			inits = append(inits, initNode)
			continue
		}
		// destructuring: rewrite into an aux binding plus nested lets.
		auxName := fmt.Sprintf("__destructure_%d", len(names))
		a.scope.define(auxName, a.curFn)
		names = append(names, auxName)
		inits = append(inits, initNode)
		destructured, err := a.destructure(target, auxName)
		if err != nil {
			return nil, err
		}
		for _, d := range destructured {
			dn, err := a.analyze(d.init)
			if err != nil {
				return nil, err
			}
			a.scope.define(d.name, a.curFn)
			names = append(names, d.name)
			inits = append(inits, dn)
		}
	}

	body, err := a.analyzeBody(f.Children[2:])
	if err != nil {
		return nil, err
	}
	kind := node.KindLet
	if isLoop {
		kind = node.KindLoop
	}
	return &node.Node{Kind: kind, BindingNames: names, BindingInit: inits, Body: body, Pos: f.Pos}, nil
}

func (a *Analyzer) analyzeRecur(f *reader.Form) (*node.Node, error) {
	args, err := a.analyzeBody(f.Children[1:])
	if err != nil {
		return nil, err
	}
	return &node.Node{Kind: node.KindRecur, RecurArgs: args, Pos: f.Pos}, nil
}

func (a *Analyzer) analyzeQuote(f *reader.Form) (*node.Node, error) {
	if len(f.Children) != 2 {
		return nil, clerr.Analysis(f.Pos, "InvalidSpecialForm: quote requires exactly 1 argument")
	}
	return &node.Node{Kind: node.KindQuote, Const: formToQuotedValue(f.Children[1]), Pos: f.Pos}, nil
}

// formToQuotedValue converts a Form into the runtime data it denotes under
// `quote`: symbols and keywords become Value data rather than being
// evaluated, and compositions become persistent list/vector/map/set.
func formToQuotedValue(f *reader.Form) value.Value {
	switch f.Kind {
	case reader.KindNil:
		return value.NilValue
	case reader.KindBool:
		return value.BoolOf(f.Bool)
	case reader.KindInt:
		return value.Int(f.Int)
	case reader.KindFloat:
		return value.Float(f.Float)
	case reader.KindRatio:
		return value.NewRatio(f.RatioN, f.RatioD)
	case reader.KindString:
		return value.Str(f.Str)
	case reader.KindChar:
		return value.Char(f.Char)
	case reader.KindSymbol:
		return value.NewSymbol(f.Namespace, f.Name)
	case reader.KindKeyword:
		return value.InternKeyword(f.Namespace, f.Name)
	case reader.KindList:
		items := make([]value.Value, len(f.Children))
		for i, c := range f.Children {
			items[i] = formToQuotedValue(c)
		}
		return value.NewList(items...)
	case reader.KindVector:
		items := make([]value.Value, len(f.Children))
		for i, c := range f.Children {
			items[i] = formToQuotedValue(c)
		}
		return value.NewVector(items...)
	case reader.KindSet:
		items := make([]value.Value, len(f.Children))
		for i, c := range f.Children {
			items[i] = formToQuotedValue(c)
		}
		return value.NewSet(items...)
	case reader.KindMap:
		items := make([]value.Value, len(f.Children))
		for i, c := range f.Children {
			items[i] = formToQuotedValue(c)
		}
		return value.NewMap(items...)
	}
	return value.NilValue
}

func (a *Analyzer) analyzeVarSpecial(f *reader.Form) (*node.Node, error) {
	if len(f.Children) != 2 || f.Children[1].Kind != reader.KindSymbol {
		return nil, clerr.Analysis(f.Pos, "InvalidSpecialForm: var requires a symbol")
	}
	target := f.Children[1]
	v, err := a.env.ResolveVar(a.env.CurrentNamespace(), target.Namespace, target.Name)
	if err != nil {
		return nil, clerr.Analysis(f.Pos, "UndefinedSymbol: %s", target)
	}
	return &node.Node{Kind: node.KindConstant, Const: v, Pos: f.Pos}, nil
}

func (a *Analyzer) analyzeDeref(f *reader.Form) (*node.Node, error) {
	inner, err := a.analyze(f.Children[1])
	if err != nil {
		return nil, err
	}
	return &node.Node{
		Kind: node.KindCall,
		Fn:   &node.Node{Kind: node.KindVarRef, VarNamespace: "clojure.core", VarName: "deref"},
		Args: []*node.Node{inner},
		Pos:  f.Pos,
	}, nil
}

func (a *Analyzer) analyzeWithMeta(f *reader.Form) (*node.Node, error) {
	target, err := a.analyze(f.Children[1])
	if err != nil {
		return nil, err
	}
	meta, err := a.analyze(f.Children[2])
	if err != nil {
		return nil, err
	}
	return &node.Node{
		Kind: node.KindCall,
		Fn:   &node.Node{Kind: node.KindVarRef, VarNamespace: "clojure.core", VarName: "with-meta"},
		Args: []*node.Node{target, meta},
		Pos:  f.Pos,
	}, nil
}

func (a *Analyzer) analyzeDef(f *reader.Form) (*node.Node, error) {
	if len(f.Children) < 2 || f.Children[1].Kind != reader.KindSymbol {
		return nil, clerr.Analysis(f.Pos, "InvalidSpecialForm: def requires a symbol")
	}
	sym := f.Children[1]
	ns := a.env.CurrentNamespace()
	v := ns.Intern(sym.Name) // intern before analysing initialiser, so recursive def works
	isMacro := symHasMacroMeta(sym)
	v.Macro = v.Macro || isMacro

	var initForm *reader.Form
	if len(f.Children) >= 3 {
		initForm = f.Children[len(f.Children)-1]
	}
	var initNode *node.Node
	if initForm != nil {
		n, err := a.analyze(initForm)
		if err != nil {
			return nil, err
		}
		initNode = n
	}
	return &node.Node{
		Kind:         node.KindDef,
		DefNamespace: ns.Name,
		DefName:      sym.Name,
		DefInit:      initNode,
		DefIsMacro:   isMacro,
		Pos:          f.Pos,
	}, nil
}

// symHasMacroMeta reports whether sym carries ^:macro metadata, the
// convention defmacro-style definitions use to mark a Var as a macro.
func symHasMacroMeta(sym *reader.Form) bool {
	if sym.Meta == nil {
		return false
	}
	m := sym.Meta
	if m.Kind == reader.KindKeyword && m.Name == "macro" {
		return true
	}
	for i := 0; i+1 < len(m.Children); i += 2 {
		if m.Children[i].Kind == reader.KindKeyword && m.Children[i].Name == "macro" {
			if b, ok := formToConstant(m.Children[i+1]); ok {
				return value.Truthy(b)
			}
		}
	}
	return false
}

func (a *Analyzer) analyzeThrow(f *reader.Form) (*node.Node, error) {
	expr, err := a.analyze(f.Children[1])
	if err != nil {
		return nil, err
	}
	return &node.Node{Kind: node.KindThrow, ThrowExpr: expr, Pos: f.Pos}, nil
}

func (a *Analyzer) analyzeTry(f *reader.Form) (*node.Node, error) {
	var bodyForms, catchForms, finallyForms []*reader.Form
	var catchName string
	hasCatch, hasFinally := false, false

	for _, c := range f.Children[1:] {
		if c.Kind == reader.KindList && len(c.Children) > 0 && c.Children[0].IsSymbolNamed("catch") {
			hasCatch = true
			// (catch ExceptionClass e body...)
			if len(c.Children) < 3 {
				return nil, clerr.Analysis(f.Pos, "InvalidSpecialForm: catch requires a class and binding")
			}
			catchName = c.Children[2].Name
			catchForms = c.Children[3:]
			continue
		}
		if c.Kind == reader.KindList && len(c.Children) > 0 && c.Children[0].IsSymbolNamed("finally") {
			hasFinally = true
			finallyForms = c.Children[1:]
			continue
		}
		bodyForms = append(bodyForms, c)
	}

	body, err := a.analyzeBody(bodyForms)
	if err != nil {
		return nil, err
	}

	n := &node.Node{Kind: node.KindTry, TryBody: body, HasCatch: hasCatch, HasFinally: hasFinally, Pos: f.Pos}

	if hasCatch {
		prevScope := a.scope
		a.scope = newLexScope(prevScope)
		mark := a.curFn.mark()
		a.scope.define(catchName, a.curFn)
		cb, err := a.analyzeBody(catchForms)
		a.scope = prevScope
		a.curFn.restore(mark)
		if err != nil {
			return nil, err
		}
		n.CatchName = catchName
		n.CatchBody = cb
	}
	if hasFinally {
		fb, err := a.analyzeBody(finallyForms)
		if err != nil {
			return nil, err
		}
		n.FinallyBody = fb
	}
	return n, nil
}

func (a *Analyzer) analyzeCall(f *reader.Form) (*node.Node, error) {
	fnNode, err := a.analyze(f.Children[0])
	if err != nil {
		return nil, err
	}
	args, err := a.analyzeBody(f.Children[1:])
	if err != nil {
		return nil, err
	}
	if folded := tryFold(fnNode, args); folded != nil {
		folded.Pos = f.Pos
		return folded, nil
	}
	return &node.Node{Kind: node.KindCall, Fn: fnNode, Args: args, Pos: f.Pos}, nil
}
