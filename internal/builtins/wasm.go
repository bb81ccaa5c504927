package builtins

import (
	"fmt"
	"os"

	"github.com/clj-lang/clj/internal/value"
	"github.com/clj-lang/clj/internal/wasmhost"
)

// wasmHost is shared by every `wasm/*` builtin in one process — the bridge
// is peripheral, interface-only plumbing (spec §1), not a per-Env resource.
var wasmHost = wasmhost.NewHost()

func wasmEntries() []entry {
	return []entry{
		{"wasm/load", func(app value.Applier, args []value.Value) (value.Value, error) {
			path, ok := args[0].(value.Str)
			if !ok {
				return nil, fmt.Errorf("wasm/load requires a string path")
			}
			name := string(path)
			if len(args) >= 2 {
				if n, ok := args[1].(value.Str); ok {
					name = string(n)
				}
			}
			bytes, err := os.ReadFile(string(path))
			if err != nil {
				return nil, fmt.Errorf("wasm/load: %w", err)
			}
			mod, err := wasmHost.LoadModule(name, bytes)
			if err != nil {
				return nil, err
			}
			return mod, nil
		}},
		{"wasm/call", func(app value.Applier, args []value.Value) (value.Value, error) {
			mod, ok := args[0].(*wasmhost.Module)
			if !ok {
				return nil, fmt.Errorf("wasm/call requires a WasmModule as its first argument")
			}
			fnName, ok := args[1].(value.Str)
			if !ok {
				return nil, fmt.Errorf("wasm/call requires a function name string as its second argument")
			}
			callArgs := make([]uint64, len(args)-2)
			for i, a := range args[2:] {
				n, ok := a.(value.Int)
				if !ok {
					return nil, fmt.Errorf("wasm/call: argument %d is not an integer", i)
				}
				callArgs[i] = uint64(n)
			}
			results, err := wasmHost.Call(mod, string(fnName), callArgs...)
			if err != nil {
				return nil, err
			}
			out := make([]value.Value, len(results))
			for i, r := range results {
				out[i] = value.Int(r)
			}
			return value.NewVector(out...), nil
		}},
	}
}
