package analyzer

import (
	"github.com/clj-lang/clj/internal/reader"
)

// destructureBinding is one (name, init-form) pair produced by flattening a
// destructuring pattern; init is a Form to be analyzed in the enclosing
// let*/fn arity the same as any ordinary binding.
type destructureBinding struct {
	name string
	init *reader.Form
}

var destructureCounter int

func freshDestructureName() string {
	destructureCounter++
	return "__destructure_aux" + itoa(destructureCounter)
}

// destructure flattens a sequential ([a b & rest :as all]) or associative
// ({a :a :keys [b c] :or {c 0} :as m}) binding pattern against a source
// expression already bound to srcName, per spec §4.3's destructuring rule.
func (a *Analyzer) destructure(target *reader.Form, srcName string) ([]destructureBinding, error) {
	switch target.Kind {
	case reader.KindVector:
		return a.destructureSeq(target, srcName)
	case reader.KindMap:
		return a.destructureMap(target, srcName)
	case reader.KindSymbol:
		if target.Name == "_" {
			return nil, nil
		}
		return []destructureBinding{{name: target.Name, init: reader.Sym(srcName)}}, nil
	}
	return nil, nil
}

func (a *Analyzer) destructureSeq(target *reader.Form, srcName string) ([]destructureBinding, error) {
	var out []destructureBinding
	idx := 0
	children := target.Children
	for i := 0; i < len(children); i++ {
		c := children[i]
		if c.IsSymbolNamed("&") {
			i++
			if i >= len(children) {
				break
			}
			restForm := reader.List(reader.Sym("nthrest"), reader.Sym(srcName), intForm(idx))
			bs, err := a.bindPatternTo(children[i], restForm)
			if err != nil {
				return nil, err
			}
			out = append(out, bs...)
			continue
		}
		if c.Kind == reader.KindKeyword && c.Name == "as" {
			i++
			if i >= len(children) {
				break
			}
			out = append(out, destructureBinding{name: children[i].Name, init: reader.Sym(srcName)})
			continue
		}
		nthForm := reader.List(reader.Sym("nth"), reader.Sym(srcName), intForm(idx), reader.Sym("nil"))
		bs, err := a.bindPatternTo(c, nthForm)
		if err != nil {
			return nil, err
		}
		out = append(out, bs...)
		idx++
	}
	return out, nil
}

func (a *Analyzer) destructureMap(target *reader.Form, srcName string) ([]destructureBinding, error) {
	var out []destructureBinding
	children := target.Children

	defaults := map[string]*reader.Form{}
	for i := 0; i+1 < len(children); i += 2 {
		if children[i].Kind == reader.KindKeyword && children[i].Name == "or" {
			orMap := children[i+1]
			for j := 0; j+1 < len(orMap.Children); j += 2 {
				defaults[orMap.Children[j].Name] = orMap.Children[j+1]
			}
		}
	}

	withDefault := func(name string, get *reader.Form) *reader.Form {
		d, ok := defaults[name]
		if !ok {
			return get
		}
		return reader.List(reader.Sym("if"), reader.List(reader.Sym("nil?"), get), d, get)
	}

	for i := 0; i+1 < len(children); i += 2 {
		k, v := children[i], children[i+1]
		if k.Kind == reader.KindKeyword {
			switch k.Name {
			case "as":
				out = append(out, destructureBinding{name: v.Name, init: reader.Sym(srcName)})
				continue
			case "or":
				continue
			case "keys":
				for _, sym := range v.Children {
					get := reader.List(reader.Sym("get"), reader.Sym(srcName), keywordForm("", sym.Name))
					out = append(out, destructureBinding{name: sym.Name, init: withDefault(sym.Name, get)})
				}
				continue
			case "strs":
				for _, sym := range v.Children {
					get := reader.List(reader.Sym("get"), reader.Sym(srcName), stringForm(sym.Name))
					out = append(out, destructureBinding{name: sym.Name, init: withDefault(sym.Name, get)})
				}
				continue
			case "syms":
				for _, sym := range v.Children {
					get := reader.List(reader.Sym("get"), reader.Sym(srcName), reader.List(reader.Sym("quote"), sym))
					out = append(out, destructureBinding{name: sym.Name, init: withDefault(sym.Name, get)})
				}
				continue
			}
		}
		get := reader.List(reader.Sym("get"), reader.Sym(srcName), v)
		if k.Kind == reader.KindSymbol {
			out = append(out, destructureBinding{name: k.Name, init: withDefault(k.Name, get)})
			continue
		}
		bs, err := a.bindPatternTo(k, withDefault("", get))
		if err != nil {
			return nil, err
		}
		out = append(out, bs...)
	}
	return out, nil
}

// bindPatternTo binds pattern against the Form valueExpr, either directly
// (symbol pattern) or via a synthetic auxiliary plus recursive destructure.
func (a *Analyzer) bindPatternTo(pattern *reader.Form, valueExpr *reader.Form) ([]destructureBinding, error) {
	if pattern.Kind == reader.KindSymbol {
		if pattern.Name == "_" {
			return nil, nil
		}
		return []destructureBinding{{name: pattern.Name, init: valueExpr}}, nil
	}
	aux := freshDestructureName()
	nested, err := a.destructure(pattern, aux)
	if err != nil {
		return nil, err
	}
	out := make([]destructureBinding, 0, len(nested)+1)
	out = append(out, destructureBinding{name: aux, init: valueExpr})
	out = append(out, nested...)
	return out, nil
}

func intForm(n int) *reader.Form { return &reader.Form{Kind: reader.KindInt, Int: int64(n)} }
func stringForm(s string) *reader.Form { return &reader.Form{Kind: reader.KindString, Str: s} }
func keywordForm(ns, name string) *reader.Form {
	return &reader.Form{Kind: reader.KindKeyword, Namespace: ns, Name: name}
}
