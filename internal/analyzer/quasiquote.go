package analyzer

import (
	"strings"

	"github.com/google/uuid"

	"github.com/clj-lang/clj/internal/clerr"
	"github.com/clj-lang/clj/internal/reader"
)

// expandSyntaxQuote lowers a syntax-quoted form into ordinary Forms that,
// when analyzed and evaluated, reconstruct the templated data — auto-gensym
// symbols (trailing `#`) resolved once per syntax-quote and seeded with a
// uuid suffix so nested macro expansions never collide (spec §4.2).
func (a *Analyzer) expandSyntaxQuote(f *reader.Form) (*reader.Form, error) {
	gensyms := map[string]string{}
	return a.sqExpand(f, gensyms)
}

func (a *Analyzer) sqExpand(f *reader.Form, gensyms map[string]string) (*reader.Form, error) {
	switch f.Kind {
	case reader.KindList:
		if len(f.Children) == 2 && f.Children[0].IsSymbolNamed("unquote") {
			return f.Children[1], nil
		}
		if len(f.Children) == 2 && f.Children[0].IsSymbolNamed("unquote-splicing") {
			return nil, clerr.Analysis(f.Pos, "InvalidSpecialForm: unquote-splicing not in a sequence")
		}
		return a.sqExpandSeq(f.Children, "list", gensyms)
	case reader.KindVector:
		return a.sqExpandSeq(f.Children, "vector", gensyms)
	case reader.KindSet:
		return a.sqExpandSeq(f.Children, "hash-set", gensyms)
	case reader.KindMap:
		inner, err := a.sqExpandSeq(f.Children, "list", gensyms)
		if err != nil {
			return nil, err
		}
		return reader.List(reader.Sym("apply"), reader.Sym("hash-map"), inner), nil
	case reader.KindSymbol:
		return a.sqExpandSymbol(f, gensyms), nil
	}
	return f, nil
}

func (a *Analyzer) sqExpandSymbol(f *reader.Form, gensyms map[string]string) *reader.Form {
	if f.Namespace == "" && strings.HasSuffix(f.Name, "#") {
		base := strings.TrimSuffix(f.Name, "#")
		name, ok := gensyms[base]
		if !ok {
			name = base + "__" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8] + "__auto__"
			gensyms[base] = name
		}
		return reader.List(reader.Sym("quote"), reader.Sym(name))
	}
	return reader.List(reader.Sym("quote"), f)
}

// sqExpandSeq builds (coreFn (concat part...)) where each normal child
// becomes (list <expansion>) and each (unquote-splicing x) child
// contributes x directly, so runtime concat flattens spliced sequences in
// place (the standard syntax-quote desugaring).
func (a *Analyzer) sqExpandSeq(children []*reader.Form, coreFn string, gensyms map[string]string) (*reader.Form, error) {
	if len(children) == 0 {
		return reader.List(reader.Sym(coreFn)), nil
	}
	parts := make([]*reader.Form, 0, len(children))
	for _, c := range children {
		if c.Kind == reader.KindList && len(c.Children) == 2 && c.Children[0].IsSymbolNamed("unquote-splicing") {
			parts = append(parts, c.Children[1])
			continue
		}
		expanded, err := a.sqExpand(c, gensyms)
		if err != nil {
			return nil, err
		}
		parts = append(parts, reader.List(reader.Sym("list"), expanded))
	}
	concatCall := append([]*reader.Form{reader.Sym("concat")}, parts...)
	return reader.List(reader.Sym("apply"), reader.Sym(coreFn), reader.List(concatCall...)), nil
}
