package wasmhost_test

import (
	"context"
	"testing"

	"github.com/clj-lang/clj/internal/wasmhost"
)

// addModuleWASM is a hand-assembled minimal WebAssembly binary exporting a
// single function add(i32, i32) -> i32 that computes local.get 0 + local.get 1.
// There is no toolchain available to compile a .wat source for this test, so
// the module is laid out section by section instead.
var addModuleWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic "\0asm"
	0x01, 0x00, 0x00, 0x00, // version 1

	// Type section (id 1): one func type (i32, i32) -> i32
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,

	// Function section (id 3): one function, using type index 0
	0x03, 0x02, 0x01, 0x00,

	// Export section (id 7): export function index 0 as "add"
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00,

	// Code section (id 10): body = local.get 0; local.get 1; i32.add; end
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

func TestLoadModuleAndCallExportedFunction(t *testing.T) {
	h := wasmhost.NewHost()
	defer h.Close()

	m, err := h.LoadModule("arith", addModuleWASM)
	if err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	defer m.Close(context.Background())

	results, err := h.Call(m, "add", 3, 4)
	if err != nil {
		t.Fatalf("Call(add, 3, 4): %v", err)
	}
	if len(results) != 1 || results[0] != 7 {
		t.Fatalf("add(3, 4) = %v, want [7]", results)
	}
}

func TestCallUnknownExportIsError(t *testing.T) {
	h := wasmhost.NewHost()
	defer h.Close()

	m, err := h.LoadModule("arith", addModuleWASM)
	if err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	defer m.Close(context.Background())

	if _, err := h.Call(m, "subtract", 3, 4); err == nil {
		t.Fatalf("expected an error calling a non-exported function")
	}
}

func TestLoadModuleRejectsMalformedBinary(t *testing.T) {
	h := wasmhost.NewHost()
	defer h.Close()

	if _, err := h.LoadModule("garbage", []byte{0x00, 0x01, 0x02}); err == nil {
		t.Fatalf("expected an error compiling a malformed module")
	}
}

func TestModuleStringAndTypeName(t *testing.T) {
	h := wasmhost.NewHost()
	defer h.Close()

	m, err := h.LoadModule("arith", addModuleWASM)
	if err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	defer m.Close(context.Background())

	if m.TypeName() != "WasmModule" {
		t.Fatalf("TypeName() = %s, want WasmModule", m.TypeName())
	}
	if m.String() != "#wasm[arith]" {
		t.Fatalf("String() = %s, want #wasm[arith]", m.String())
	}
}
