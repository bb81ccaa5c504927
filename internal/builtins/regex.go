package builtins

import (
	"fmt"

	"github.com/clj-lang/clj/internal/regex"
	"github.com/clj-lang/clj/internal/value"
)

func regexEntries() []entry {
	return []entry{
		{"re-pattern", func(app value.Applier, args []value.Value) (value.Value, error) {
			s, ok := args[0].(value.Str)
			if !ok {
				return nil, fmt.Errorf("re-pattern requires a string")
			}
			return regex.Compile(string(s))
		}},
		{"re-matches", func(app value.Applier, args []value.Value) (value.Value, error) {
			pat, s, err := patternAndString(args)
			if err != nil {
				return nil, err
			}
			groups, ok := pat.MatchWhole(s)
			if !ok {
				return value.NilValue, nil
			}
			return groupsToValue(s, groups), nil
		}},
		{"re-find", func(app value.Applier, args []value.Value) (value.Value, error) {
			pat, s, err := patternAndString(args)
			if err != nil {
				return nil, err
			}
			groups, ok := pat.Match(s)
			if !ok {
				return value.NilValue, nil
			}
			return groupsToValue(s, groups), nil
		}},
		{"re-seq", func(app value.Applier, args []value.Value) (value.Value, error) {
			pat, s, err := patternAndString(args)
			if err != nil {
				return nil, err
			}
			runes := []rune(s)
			var out []value.Value
			pos := 0
			for pos <= len(runes) {
				groups, ok := pat.Match(string(runes[pos:]))
				if !ok {
					break
				}
				// groups are relative to the substring; shift not needed for value,
				// only for advancing pos below.
				out = append(out, groupsToValue(string(runes[pos:]), groups))
				adv := groups[0].End
				if adv <= 0 {
					adv = 1
				}
				pos += adv
			}
			return value.NewVector(out...), nil
		}},
	}
}

func patternAndString(args []value.Value) (*regex.Pattern, string, error) {
	if len(args) != 2 {
		return nil, "", fmt.Errorf("wrong number of args")
	}
	pat, ok := args[0].(*regex.Pattern)
	if !ok {
		return nil, "", fmt.Errorf("expected a compiled pattern")
	}
	s, ok := args[1].(value.Str)
	if !ok {
		return nil, "", fmt.Errorf("expected a string")
	}
	return pat, string(s), nil
}

func groupsToValue(s string, groups []regex.Span) value.Value {
	runes := []rune(s)
	if len(groups) == 1 {
		return spanValue(runes, groups[0])
	}
	out := make([]value.Value, len(groups))
	for i, g := range groups {
		out[i] = spanValue(runes, g)
	}
	return value.NewVector(out...)
}

func spanValue(runes []rune, g regex.Span) value.Value {
	if !g.Valid() {
		return value.NilValue
	}
	return value.Str(string(runes[g.Start:g.End]))
}
