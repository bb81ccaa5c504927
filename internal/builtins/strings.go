package builtins

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/clj-lang/clj/internal/printer"
	"github.com/clj-lang/clj/internal/reader"
	"github.com/clj-lang/clj/internal/value"
)

func stringEntries() []entry {
	return []entry{
		{"str", func(app value.Applier, args []value.Value) (value.Value, error) {
			return value.Str(printer.DisplayAllWithApplier(args, app)), nil
		}},
		{"pr-str", func(app value.Applier, args []value.Value) (value.Value, error) {
			return value.Str(printer.PrintAllWithApplier(args, app)), nil
		}},
		{"subs", func(app value.Applier, args []value.Value) (value.Value, error) {
			s, ok := args[0].(value.Str)
			if !ok {
				return nil, fmt.Errorf("subs requires a string")
			}
			runes := []rune(string(s))
			start, ok := args[1].(value.Int)
			if !ok {
				return nil, fmt.Errorf("subs start must be an integer")
			}
			end := len(runes)
			if len(args) >= 3 {
				e, ok := args[2].(value.Int)
				if !ok {
					return nil, fmt.Errorf("subs end must be an integer")
				}
				end = int(e)
			}
			if int(start) < 0 || end > len(runes) || int(start) > end {
				return nil, fmt.Errorf("index out of bounds")
			}
			return value.Str(string(runes[start:end])), nil
		}},
		{"str/upper-case", stringTransform(cases.Upper(language.Und).String)},
		{"str/lower-case", stringTransform(cases.Lower(language.Und).String)},
		{"str/trim", stringTransform(strings.TrimSpace)},
		{"str/triml", stringTransform(func(s string) string { return strings.TrimLeft(s, " \t\n\r") })},
		{"str/trimr", stringTransform(func(s string) string { return strings.TrimRight(s, " \t\n\r") })},
		{"str/join", biStrJoin},
		{"str/split", biStrSplit},
		{"str/replace", biStrReplace},
		{"str/includes?", func(app value.Applier, args []value.Value) (value.Value, error) {
			s, _ := args[0].(value.Str)
			sub, _ := args[1].(value.Str)
			return value.BoolOf(strings.Contains(string(s), string(sub))), nil
		}},
		{"str/starts-with?", func(app value.Applier, args []value.Value) (value.Value, error) {
			s, _ := args[0].(value.Str)
			sub, _ := args[1].(value.Str)
			return value.BoolOf(strings.HasPrefix(string(s), string(sub))), nil
		}},
		{"str/ends-with?", func(app value.Applier, args []value.Value) (value.Value, error) {
			s, _ := args[0].(value.Str)
			sub, _ := args[1].(value.Str)
			return value.BoolOf(strings.HasSuffix(string(s), string(sub))), nil
		}},
		{"name", func(app value.Applier, args []value.Value) (value.Value, error) {
			switch t := args[0].(type) {
			case *value.Symbol:
				return value.Str(t.Name), nil
			case *value.Keyword:
				return value.Str(t.Name), nil
			case value.Str:
				return t, nil
			}
			return nil, fmt.Errorf("name not supported on %s", args[0].TypeName())
		}},
		{"symbol", func(app value.Applier, args []value.Value) (value.Value, error) {
			if len(args) == 1 {
				s, ok := args[0].(value.Str)
				if !ok {
					return nil, fmt.Errorf("symbol requires a string name")
				}
				return value.NewSymbol("", string(s)), nil
			}
			ns, _ := args[0].(value.Str)
			n, _ := args[1].(value.Str)
			return value.NewSymbol(string(ns), string(n)), nil
		}},
		{"keyword", func(app value.Applier, args []value.Value) (value.Value, error) {
			if len(args) == 1 {
				if kw, ok := args[0].(*value.Keyword); ok {
					return kw, nil
				}
				s, ok := args[0].(value.Str)
				if !ok {
					return nil, fmt.Errorf("keyword requires a string name")
				}
				return value.InternKeyword("", string(s)), nil
			}
			ns, _ := args[0].(value.Str)
			n, _ := args[1].(value.Str)
			return value.InternKeyword(string(ns), string(n)), nil
		}},
		{"read-string", biReadString},
		{"parse-long", func(app value.Applier, args []value.Value) (value.Value, error) {
			s, ok := args[0].(value.Str)
			if !ok {
				return value.NilValue, nil
			}
			n, err := strconv.ParseInt(string(s), 10, 64)
			if err != nil {
				return value.NilValue, nil
			}
			return value.Int(n), nil
		}},
	}
}

func stringTransform(fn func(string) string) value.BuiltinFunc {
	return func(app value.Applier, args []value.Value) (value.Value, error) {
		s, ok := args[0].(value.Str)
		if !ok {
			return nil, fmt.Errorf("expected a string")
		}
		return value.Str(fn(string(s))), nil
	}
}

func biStrJoin(app value.Applier, args []value.Value) (value.Value, error) {
	var sep string
	var coll value.Value
	if len(args) == 1 {
		coll = args[0]
	} else {
		s, _ := args[0].(value.Str)
		sep = string(s)
		coll = args[1]
	}
	items, err := realize(app, coll)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = value.ToDisplayString(it)
	}
	return value.Str(strings.Join(parts, sep)), nil
}

func biStrSplit(app value.Applier, args []value.Value) (value.Value, error) {
	s, _ := args[0].(value.Str)
	sep, _ := args[1].(value.Str)
	parts := strings.Split(string(s), string(sep))
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.Str(p)
	}
	return value.NewVector(out...), nil
}

func biStrReplace(app value.Applier, args []value.Value) (value.Value, error) {
	s, _ := args[0].(value.Str)
	match, _ := args[1].(value.Str)
	repl, _ := args[2].(value.Str)
	return value.Str(strings.ReplaceAll(string(s), string(match), string(repl))), nil
}

// biReadString implements `read-string`: parse exactly one form and return
// it as plain data (numbers, strings, symbols, keywords, and nested
// collections) — not analyzed or evaluated code.
func biReadString(app value.Applier, args []value.Value) (value.Value, error) {
	s, ok := args[0].(value.Str)
	if !ok {
		return nil, fmt.Errorf("read-string requires a string")
	}
	forms, errs := reader.ReadAll(string(s), "<read-string>")
	if len(errs) > 0 {
		return nil, errs[0]
	}
	if len(forms) == 0 {
		return value.NilValue, nil
	}
	return formToValue(forms[0]), nil
}

// formToValue converts a read Form into the runtime Value it denotes as
// data, the same mapping `quote` performs on a literal form.
func formToValue(f *reader.Form) value.Value {
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
	case reader.KindRegex:
		return value.Str(f.Str)
	case reader.KindList:
		items := make([]value.Value, len(f.Children))
		for i, c := range f.Children {
			items[i] = formToValue(c)
		}
		return value.NewList(items...)
	case reader.KindVector:
		items := make([]value.Value, len(f.Children))
		for i, c := range f.Children {
			items[i] = formToValue(c)
		}
		return value.NewVector(items...)
	case reader.KindSet:
		items := make([]value.Value, len(f.Children))
		for i, c := range f.Children {
			items[i] = formToValue(c)
		}
		return value.NewSet(items...)
	case reader.KindMap:
		kvs := make([]value.Value, len(f.Children))
		for i, c := range f.Children {
			kvs[i] = formToValue(c)
		}
		return value.NewMap(kvs...)
	}
	return value.NilValue
}
