package builtins

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/clj-lang/clj/internal/clerr"
	"github.com/clj-lang/clj/internal/printer"
	"github.com/clj-lang/clj/internal/runtime"
	"github.com/clj-lang/clj/internal/value"
)

func miscEntries(env *runtime.Env) []entry {
	return []entry{
		{"ex-info", func(app value.Applier, args []value.Value) (value.Value, error) {
			if len(args) < 2 {
				return nil, fmt.Errorf("wrong number of args passed to ex-info")
			}
			msg, ok := args[0].(value.Str)
			if !ok {
				return nil, fmt.Errorf("ex-info message must be a string")
			}
			data, ok := args[1].(*value.Map)
			if !ok {
				return nil, fmt.Errorf("ex-info data must be a map")
			}
			fields := value.NewMap(
				value.InternKeyword("", "message"), msg,
				value.InternKeyword("", "data"), data,
			)
			return &value.Record{RecordType: "ExceptionInfo", Fields: fields}, nil
		}},
		{"ex-message", func(app value.Applier, args []value.Value) (value.Value, error) {
			r, ok := args[0].(*value.Record)
			if !ok {
				return value.NilValue, nil
			}
			v, _ := r.Fields.Get(value.InternKeyword("", "message"))
			if v == nil {
				return value.NilValue, nil
			}
			return v, nil
		}},
		{"ex-data", func(app value.Applier, args []value.Value) (value.Value, error) {
			r, ok := args[0].(*value.Record)
			if !ok {
				return value.NilValue, nil
			}
			v, _ := r.Fields.Get(value.InternKeyword("", "data"))
			if v == nil {
				return value.NilValue, nil
			}
			return v, nil
		}},
		{"identical?", func(app value.Applier, args []value.Value) (value.Value, error) {
			return value.BoolOf(args[0] == args[1]), nil
		}},
		{"type", func(app value.Applier, args []value.Value) (value.Value, error) {
			return value.Str(args[0].TypeName()), nil
		}},
		{"gensym", func(app value.Applier, args []value.Value) (value.Value, error) {
			prefix := "G__"
			if len(args) == 1 {
				s, ok := args[0].(value.Str)
				if !ok {
					return nil, fmt.Errorf("gensym prefix must be a string")
				}
				prefix = string(s)
			}
			return value.NewSymbol("", prefix+uuid.NewString()), nil
		}},
		{"throw-str", func(app value.Applier, args []value.Value) (value.Value, error) {
			s, _ := args[0].(value.Str)
			return nil, &clerr.UserException{Value: value.Str(s)}
		}},
		{"print-namespace", func(app value.Applier, args []value.Value) (value.Value, error) {
			return value.Str(env.CurrentNamespace().Name), nil
		}},
		{"print", func(app value.Applier, args []value.Value) (value.Value, error) {
			fmt.Fprint(os.Stdout, printer.DisplayAllWithApplier(args, app))
			return value.NilValue, nil
		}},
		{"println", func(app value.Applier, args []value.Value) (value.Value, error) {
			fmt.Fprintln(os.Stdout, printer.DisplayAllWithApplier(args, app))
			return value.NilValue, nil
		}},
		{"pr", func(app value.Applier, args []value.Value) (value.Value, error) {
			fmt.Fprint(os.Stdout, printer.PrintAllWithApplier(args, app))
			return value.NilValue, nil
		}},
		{"prn", func(app value.Applier, args []value.Value) (value.Value, error) {
			fmt.Fprintln(os.Stdout, printer.PrintAllWithApplier(args, app))
			return value.NilValue, nil
		}},
	}
}
