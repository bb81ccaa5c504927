// Package wasmhost implements the WebAssembly bridge spec §1/§6 calls for
// as a peripheral, interface-only capability: a compiled module is an
// ordinary opaque runtime Value (spec §3 "wasm module"), and the host
// exposes just enough surface to instantiate a module and call an exported
// function. Internals (instruction execution, memory layout) are wazero's.
package wasmhost

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Module is a compiled-and-instantiated WebAssembly module, exposed to the
// language runtime as an opaque Value (TypeName "WasmModule").
type Module struct {
	name     string
	instance api.Module
	closer   func(context.Context) error
}

func (*Module) TypeName() string { return "WasmModule" }
func (m *Module) String() string { return "#wasm[" + m.name + "]" }

// Close releases this module's instance independently of its Host.
func (m *Module) Close(ctx context.Context) error { return m.closer(ctx) }

// Host owns a wazero runtime and every Module instantiated from it. One
// Host is enough for a whole evaluation context; Close releases it and
// every instantiated module together.
type Host struct {
	ctx     context.Context
	runtime wazero.Runtime
}

// NewHost builds a Host with a fresh wazero runtime.
func NewHost() *Host {
	ctx := context.Background()
	return &Host{ctx: ctx, runtime: wazero.NewRuntime(ctx)}
}

// LoadModule compiles and instantiates a WebAssembly binary under name.
// The module is instantiated with a default ModuleConfig that sets only its
// name; no WASI imports are provided.
func (h *Host) LoadModule(name string, wasmBytes []byte) (*Module, error) {
	compiled, err := h.runtime.CompileModule(h.ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("wasmhost: compiling module %s: %w", name, err)
	}
	instance, err := h.runtime.InstantiateModule(h.ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, fmt.Errorf("wasmhost: instantiating module %s: %w", name, err)
	}
	return &Module{name: name, instance: instance, closer: instance.Close}, nil
}

// Call invokes an exported function by name with uint64-encoded arguments,
// the calling convention wazero's api.Function uses, and returns its raw
// uint64 results unconverted — value-level argument/result marshalling is
// a builtin's concern, not this package's.
func (h *Host) Call(m *Module, fnName string, args ...uint64) ([]uint64, error) {
	fn := m.instance.ExportedFunction(fnName)
	if fn == nil {
		return nil, fmt.Errorf("wasmhost: module %s has no exported function %q", m.name, fnName)
	}
	return fn.Call(h.ctx, args...)
}

// Close releases every module instantiated from this Host and the
// underlying wazero runtime.
func (h *Host) Close() error {
	return h.runtime.Close(h.ctx)
}
