package bytecode

import (
	"fmt"

	"github.com/clj-lang/clj/internal/node"
)

// compiler holds the state needed while compiling one function/top-level
// body's worth of Chunks: the current slot-stack depth (mirroring
// funcScope.nextSlot at analysis time) and the innermost enclosing loop's
// recur target. try/catch/finally bodies share this same state but emit
// into their own sub-Chunk (swapped into c.chunk for the duration), since
// they share the enclosing frame rather than opening a new one the way a
// KindFn body does.
type compiler struct {
	chunk *Chunk
	depth int

	loopMark  int
	loopStart int
	loopChunk *Chunk // the Chunk loopStart indexes into — differs from c.chunk inside a try sub-chunk
	inLoop    bool
}

// recurTarget is OpRecur's payload: the mark/start pair plus which Chunk
// they index into, since a recur compiled inside a try/catch/finally body
// lives in its own sub-Chunk but must still resume the outer loop or fn
// body's instruction stream (spec allows recur to cross a try, matching
// treewalk propagating a recurSignal error straight through evalTry).
type recurTarget struct {
	chunk *Chunk
	mark  int
	start int
}

// Compile lowers a single top-level Node into a runnable Chunk.
func Compile(n *node.Node) (*Chunk, error) {
	return CompileBody([]*node.Node{n}, 0)
}

// CompileBody compiles an implicit `do` over body, starting at slot-stack
// depth startDepth — 0 for a fresh top-level evaluation, or the arity's
// fixed parameter count for a function body (its frame already holds the
// bound parameters before the body Chunk runs).
func CompileBody(body []*node.Node, startDepth int) (*Chunk, error) {
	c := &compiler{chunk: &Chunk{}, depth: startDepth}
	if err := c.compileDo(body); err != nil {
		return nil, err
	}
	return c.chunk, nil
}

// CompileFnBody compiles one arity's body, its own params standing as the
// implicit recur target — the same role treewalk's apply plays by catching
// a recurSignal around evalBody and re-running with new param values,
// without an explicit loop* Node in between.
func CompileFnBody(body []*node.Node, numParams int) (*Chunk, error) {
	c := &compiler{chunk: &Chunk{}, depth: numParams, loopMark: 0, loopStart: 0, inLoop: true}
	c.loopChunk = c.chunk
	if err := c.compileDo(body); err != nil {
		return nil, err
	}
	return c.chunk, nil
}

func (c *compiler) compileDo(body []*node.Node) error {
	if len(body) == 0 {
		c.chunk.emitConst(nil)
		return nil
	}
	for i, stmt := range body {
		if err := c.compileExpr(stmt); err != nil {
			return err
		}
		if i < len(body)-1 {
			c.chunk.emit(OpPop, 0, 0)
		}
	}
	return nil
}

func (c *compiler) pushSlot() {
	c.chunk.emit(OpPushSlot, 0, 0)
	c.depth++
}

func (c *compiler) reserveNil(n int) {
	c.chunk.emit(OpReserveNil, n, 0)
	c.depth += n
}

func (c *compiler) dropSlots(n int) {
	c.chunk.emit(OpDropSlots, n, 0)
	c.depth -= n
}

func (c *compiler) compileExpr(n *node.Node) error {
	switch n.Kind {
	case node.KindConstant, node.KindQuote, node.KindFoldedArith, node.KindFoldedCompare:
		c.chunk.emitConst(n.Const)
		return nil

	case node.KindVarRef:
		idx := c.chunk.addName(n.VarNamespace, n.VarName)
		c.chunk.emit(OpLoadVar, idx, 0)
		return nil

	case node.KindLocalRef:
		if n.IsCapture {
			c.chunk.emit(OpLoadCapture, n.LocalSlot, 0)
		} else {
			c.chunk.emit(OpLoadLocal, n.LocalSlot, 0)
		}
		return nil

	case node.KindIf:
		if err := c.compileExpr(n.Cond); err != nil {
			return err
		}
		jf := c.chunk.emit(OpJumpIfFalse, 0, 0)
		if err := c.compileExpr(n.Then); err != nil {
			return err
		}
		jend := c.chunk.emit(OpJump, 0, 0)
		c.chunk.patchJump(jf)
		if n.Else != nil {
			if err := c.compileExpr(n.Else); err != nil {
				return err
			}
		} else {
			c.chunk.emitConst(nil)
		}
		c.chunk.patchJump(jend)
		return nil

	case node.KindDo:
		return c.compileDo(n.Body)

	case node.KindLet:
		return c.compileLet(n)

	case node.KindLoop:
		return c.compileLoop(n)

	case node.KindRecur:
		for _, a := range n.RecurArgs {
			if err := c.compileExpr(a); err != nil {
				return err
			}
		}
		if !c.inLoop {
			return fmt.Errorf("bytecode: recur outside of loop or fn")
		}
		idx := c.chunk.emit(OpRecur, 0, len(n.RecurArgs))
		c.chunk.Code[idx].Val = recurTarget{chunk: c.loopChunk, mark: c.loopMark, start: c.loopStart}
		return nil

	case node.KindFn:
		idx := c.chunk.addFnNode(n)
		c.chunk.emit(OpMakeFn, idx, 0)
		return nil

	case node.KindCall:
		if err := c.compileExpr(n.Fn); err != nil {
			return err
		}
		for _, a := range n.Args {
			if err := c.compileExpr(a); err != nil {
				return err
			}
		}
		c.chunk.emit(OpCall, len(n.Args), 0)
		return nil

	case node.KindDef:
		if n.DefInit != nil {
			if err := c.compileExpr(n.DefInit); err != nil {
				return err
			}
		} else {
			c.chunk.emitConst(nil)
		}
		idx := c.chunk.addName(n.DefNamespace, n.DefName)
		instr := Instr{Op: OpDef, A: idx, Val: n.DefName}
		if n.DefIsMacro {
			instr.B = 1
		}
		c.chunk.Code = append(c.chunk.Code, instr)
		return nil

	case node.KindThrow:
		if err := c.compileExpr(n.ThrowExpr); err != nil {
			return err
		}
		c.chunk.emit(OpThrow, 0, 0)
		return nil

	case node.KindTry:
		return c.compileTry(n)

	case node.KindDefMulti:
		if err := c.compileExpr(n.DispatchFn); err != nil {
			return err
		}
		c.chunk.Code = append(c.chunk.Code, Instr{Op: OpDefMulti, Val: n.MultiName})
		return nil

	case node.KindDefMethod:
		fnIdx := c.chunk.addFnNode(n.MethodBody)
		c.chunk.Code = append(c.chunk.Code, Instr{Op: OpDefMethod, A: fnIdx, Val: [2]any{n.MethodMultiName, n.DispatchVal}})
		return nil

	case node.KindDefProtocol:
		c.chunk.Code = append(c.chunk.Code, Instr{Op: OpDefProtocol, Val: [2]any{n.ProtocolName, n.ProtocolMethods}})
		return nil

	case node.KindExtendType:
		methodIdx := map[string]int{}
		for name, fnNode := range n.ExtendMethods {
			methodIdx[name] = c.chunk.addFnNode(fnNode)
		}
		c.chunk.Code = append(c.chunk.Code, Instr{Op: OpExtendType, Val: [3]any{n.ProtocolName, n.ExtendTypeName, methodIdx}})
		return nil
	}
	return fmt.Errorf("bytecode: cannot compile node kind %d", n.Kind)
}

// compileLet compiles let*/letfn* bindings, pushing the body's single
// result value and then dropping the block's slots.
//
// letfn reserves all N slots (nil-initialized) before evaluating any
// initializer, so a closure built by an earlier initializer can already
// reference a slot a later initializer will fill — OpStoreLocal addresses
// the reserved range from the top of the slot stack (len(slots)-N+i), which
// stays correct even though nested constructs inside a later initializer
// may transiently grow and shrink the slot stack before that initializer
// runs.
func (c *compiler) compileLet(n *node.Node) error {
	count := len(n.BindingNames)
	if n.IsLetfn {
		c.reserveNil(count)
		for i, initNode := range n.BindingInit {
			if err := c.compileExpr(initNode); err != nil {
				return err
			}
			c.chunk.emit(OpStoreLocal, i, count)
		}
	} else {
		for _, initNode := range n.BindingInit {
			if err := c.compileExpr(initNode); err != nil {
				return err
			}
			c.pushSlot()
		}
	}
	if err := c.compileDo(n.Body); err != nil {
		return err
	}
	c.dropSlots(count)
	return nil
}

// compileLoop compiles a loop*'s initial bindings, then its body with
// `recur` wired to truncate back to the loop's own slot range and jump to
// loopStart, mirroring treewalk's evalLoop catching a recurSignal and
// truncating to `base` before re-running.
func (c *compiler) compileLoop(n *node.Node) error {
	mark := c.depth
	for _, initNode := range n.BindingInit {
		if err := c.compileExpr(initNode); err != nil {
			return err
		}
		c.pushSlot()
	}
	loopStart := c.chunk.here()

	savedMark, savedStart, savedChunk, savedIn := c.loopMark, c.loopStart, c.loopChunk, c.inLoop
	c.loopMark, c.loopStart, c.loopChunk, c.inLoop = mark, loopStart, c.chunk, true

	err := c.compileDo(n.Body)

	c.loopMark, c.loopStart, c.loopChunk, c.inLoop = savedMark, savedStart, savedChunk, savedIn
	if err != nil {
		return err
	}
	c.dropSlots(len(n.BindingInit))
	return nil
}

// compileTry compiles try/catch/finally into sub-Chunks that share this
// compiler's depth/loop state (swapped into c.chunk for the duration) since
// all three bodies execute against the same frame as the surrounding code,
// not a fresh one.
func (c *compiler) compileTry(n *node.Node) error {
	spec := &TrySpec{HasCatch: n.HasCatch, HasFinally: n.HasFinally}

	var err error
	spec.Try, err = c.compileSub(n.TryBody)
	if err != nil {
		return err
	}
	if n.HasCatch {
		c.depth++ // the caught value's binding slot
		spec.Catch, err = c.compileSub(n.CatchBody)
		c.depth--
		if err != nil {
			return err
		}
	}
	if n.HasFinally {
		spec.Finally, err = c.compileSub(n.FinallyBody)
		if err != nil {
			return err
		}
	}
	idx := c.chunk.addTry(spec)
	c.chunk.emit(OpTry, idx, 0)
	return nil
}

// compileSub compiles body into its own Chunk using this compiler's current
// depth/loop state, without disturbing the enclosing chunk being built.
func (c *compiler) compileSub(body []*node.Node) (*Chunk, error) {
	outer := c.chunk
	c.chunk = &Chunk{}
	err := c.compileDo(body)
	sub := c.chunk
	c.chunk = outer
	return sub, err
}
