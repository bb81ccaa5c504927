// Package bytecode implements the second evaluator backend (spec §4.5): a
// Node-to-Chunk compiler and a stack-based VM. Function bodies stay
// Node-shaped in the shared value.Fn/UserArity representation (the same
// Nodes the tree-walk evaluator uses); the VM compiles each arity's body to
// a Chunk the first time it is actually called and caches the result, so a
// value.Fn built by either backend is callable from either backend.
package bytecode

import "github.com/clj-lang/clj/internal/node"

// Op is one VM instruction's opcode.
type Op byte

const (
	OpConst Op = iota
	OpLoadLocal
	OpLoadCapture
	OpLoadVar
	OpPop
	OpJump
	OpJumpIfFalse
	OpPushSlot   // pop TOS, append as a new frame slot (ordinary let binding)
	OpReserveNil // append N nil slots (letfn's pre-declaration pass)
	OpStoreLocal // pop TOS, store into an already-reserved slot (letfn init)
	OpDropSlots  // truncate the frame's slot stack back to a saved mark
	OpMakeFn     // build a closure from the KindFn node at Chunk.FnNodes[A]
	OpCall       // pop A args + 1 fn value, push the call's result
	OpDef
	OpThrow
	OpTry // run the TrySpec at Chunk.Tries[A]
	OpRecur
	OpDefMulti
	OpDefMethod
	OpDefProtocol
	OpExtendType
)

// Instr is one compiled instruction.
type Instr struct {
	Op  Op
	A   int
	B   int
	Val node.Value // OpConst's payload
}

// TrySpec holds a compiled try/catch/finally's three bodies, each a Chunk
// sharing the enclosing frame.
type TrySpec struct {
	Try        *Chunk
	Catch      *Chunk
	Finally    *Chunk
	HasCatch   bool
	HasFinally bool
}

// Chunk is one compiled instruction stream plus the tables its instructions
// index into: nested KindFn nodes (compiled lazily, on first call), Var
// references, and try/catch/finally specs.
type Chunk struct {
	Code    []Instr
	FnNodes []*node.Node
	Names   []NameRef
	Tries   []*TrySpec
}

// NameRef is a namespace-qualified Var reference.
type NameRef struct {
	Namespace, Name string
}

func (c *Chunk) emit(op Op, a, b int) int {
	c.Code = append(c.Code, Instr{Op: op, A: a, B: b})
	return len(c.Code) - 1
}

func (c *Chunk) emitConst(v node.Value) int {
	c.Code = append(c.Code, Instr{Op: OpConst, Val: v})
	return len(c.Code) - 1
}

func (c *Chunk) addName(ns, name string) int {
	for i, n := range c.Names {
		if n.Namespace == ns && n.Name == name {
			return i
		}
	}
	c.Names = append(c.Names, NameRef{Namespace: ns, Name: name})
	return len(c.Names) - 1
}

func (c *Chunk) addFnNode(n *node.Node) int {
	c.FnNodes = append(c.FnNodes, n)
	return len(c.FnNodes) - 1
}

func (c *Chunk) addTry(t *TrySpec) int {
	c.Tries = append(c.Tries, t)
	return len(c.Tries) - 1
}

func (c *Chunk) patchJump(at int) {
	c.Code[at].A = len(c.Code)
}

func (c *Chunk) here() int { return len(c.Code) }
