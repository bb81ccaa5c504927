package analyzer

import (
	"github.com/clj-lang/clj/internal/reader"
	"github.com/clj-lang/clj/internal/value"
)

// MacroInvoker applies a user-defined macro Fn to its (already-quoted)
// argument data and returns the resulting code as a Value, the same
// contract the tree-walk evaluator's Apply uses for ordinary calls. The
// engine package wires this in once the evaluator exists, breaking what
// would otherwise be an analyzer->treewalk->node import cycle.
type MacroInvoker func(fn *value.Fn, args []value.Value) (value.Value, error)

// SetMacroInvoker installs the callback used to expand user-defined
// (defmacro-style, ^:macro) macros.
func (a *Analyzer) SetMacroInvoker(inv MacroInvoker) { a.invokeMacro = inv }

// expandUserMacro calls v's function with f's unevaluated argument forms
// (as quoted data) and converts the resulting data back into a Form.
func (a *Analyzer) expandUserMacro(v *value.Var, f *reader.Form) (*reader.Form, error) {
	if a.invokeMacro == nil {
		return nil, nil // no invoker wired yet; leave as an ordinary call
	}
	fn, ok := v.Get().(*value.Fn)
	if !ok {
		return nil, nil
	}
	args := make([]value.Value, len(f.Children)-1)
	for i, c := range f.Children[1:] {
		args[i] = formToQuotedValue(c)
	}
	result, err := a.invokeMacro(fn, args)
	if err != nil {
		return nil, err
	}
	return valueToForm(result), nil
}

// valueToForm converts runtime data back into a Form, the inverse of
// formToQuotedValue, so a macro's returned code can be analyzed normally.
func valueToForm(v value.Value) *reader.Form {
	switch t := v.(type) {
	case value.Nil:
		return reader.Sym("nil")
	case value.Bool:
		return &reader.Form{Kind: reader.KindBool, Bool: bool(t)}
	case value.Int:
		return &reader.Form{Kind: reader.KindInt, Int: int64(t)}
	case value.Float:
		return &reader.Form{Kind: reader.KindFloat, Float: float64(t)}
	case value.Ratio:
		return &reader.Form{Kind: reader.KindRatio, RatioN: t.Num, RatioD: t.Den}
	case value.Str:
		return &reader.Form{Kind: reader.KindString, Str: string(t)}
	case value.Char:
		return &reader.Form{Kind: reader.KindChar, Char: rune(t)}
	case *value.Symbol:
		return &reader.Form{Kind: reader.KindSymbol, Namespace: t.Namespace, Name: t.Name}
	case *value.Keyword:
		return &reader.Form{Kind: reader.KindKeyword, Namespace: t.Namespace, Name: t.Name}
	case *value.List:
		children := make([]*reader.Form, t.Count())
		for i, it := range t.Items() {
			children[i] = valueToForm(it)
		}
		return reader.List(children...)
	case *value.Vector:
		children := make([]*reader.Form, t.Count())
		for i, it := range t.Items() {
			children[i] = valueToForm(it)
		}
		return reader.Vector(children...)
	case *value.Set:
		children := make([]*reader.Form, t.Count())
		for i, it := range t.Items() {
			children[i] = valueToForm(it)
		}
		return &reader.Form{Kind: reader.KindSet, Children: children}
	case *value.Map:
		var children []*reader.Form
		t.Each(func(k, val value.Value) bool {
			children = append(children, valueToForm(k), valueToForm(val))
			return true
		})
		return &reader.Form{Kind: reader.KindMap, Children: children}
	}
	return reader.Sym("nil")
}
