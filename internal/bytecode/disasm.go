package bytecode

import (
	"fmt"
	"io"
)

// Disassembler renders a Chunk's instructions as human-readable text,
// mirroring the teacher's own NewDisassembler/Disassemble pairing used by
// the compile command's --disassemble flag.
type Disassembler struct {
	chunk *Chunk
	w     io.Writer
}

// NewDisassembler builds a Disassembler writing to w.
func NewDisassembler(chunk *Chunk, w io.Writer) *Disassembler {
	return &Disassembler{chunk: chunk, w: w}
}

// Disassemble writes one line per instruction, followed by one labeled
// header line per nested fn of the chunk; the nested fn bodies, compiled
// lazily on first call, are not listed.
func (d *Disassembler) Disassemble() {
	for i, instr := range d.chunk.Code {
		fmt.Fprintf(d.w, "%4d  %-14s", i, opName(instr.Op))
		switch instr.Op {
		case OpConst:
			fmt.Fprintf(d.w, " %v", instr.Val)
		case OpLoadLocal, OpStoreLocal:
			fmt.Fprintf(d.w, " slot=%d", instr.A)
		case OpLoadCapture:
			fmt.Fprintf(d.w, " env=%d", instr.A)
		case OpLoadVar, OpDef:
			fmt.Fprintf(d.w, " %s", d.nameAt(instr.A))
		case OpMakeFn:
			fmt.Fprintf(d.w, " fn#%d", instr.A)
		case OpTry:
			fmt.Fprintf(d.w, " try#%d", instr.A)
		case OpJump, OpJumpIfFalse:
			fmt.Fprintf(d.w, " -> %d", instr.A)
		case OpCall:
			fmt.Fprintf(d.w, " argc=%d", instr.A)
		case OpReserveNil, OpDropSlots:
			fmt.Fprintf(d.w, " n=%d", instr.A)
		case OpDefMulti, OpDefMethod, OpDefProtocol, OpExtendType:
			fmt.Fprintf(d.w, " %s", d.nameAt(instr.A))
		}
		fmt.Fprintln(d.w)
	}
	for i, fn := range d.chunk.FnNodes {
		label := fn.FnName
		if label == "" {
			label = "anonymous"
		}
		fmt.Fprintf(d.w, "\n-- fn#%d (%s), compiled lazily on first call --\n", i, label)
	}
}

func (d *Disassembler) nameAt(i int) string {
	if i < 0 || i >= len(d.chunk.Names) {
		return "?"
	}
	n := d.chunk.Names[i]
	if n.Namespace == "" {
		return n.Name
	}
	return n.Namespace + "/" + n.Name
}

func opName(op Op) string {
	switch op {
	case OpConst:
		return "const"
	case OpLoadLocal:
		return "load_local"
	case OpLoadCapture:
		return "load_capture"
	case OpLoadVar:
		return "load_var"
	case OpPop:
		return "pop"
	case OpJump:
		return "jump"
	case OpJumpIfFalse:
		return "jump_if_false"
	case OpPushSlot:
		return "push_slot"
	case OpReserveNil:
		return "reserve_nil"
	case OpStoreLocal:
		return "store_local"
	case OpDropSlots:
		return "drop_slots"
	case OpMakeFn:
		return "make_fn"
	case OpCall:
		return "call"
	case OpDef:
		return "def"
	case OpThrow:
		return "throw"
	case OpTry:
		return "try"
	case OpRecur:
		return "recur"
	case OpDefMulti:
		return "def_multi"
	case OpDefMethod:
		return "def_method"
	case OpDefProtocol:
		return "def_protocol"
	case OpExtendType:
		return "extend_type"
	default:
		return "unknown"
	}
}
