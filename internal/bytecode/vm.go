package bytecode

import (
	"fmt"

	"github.com/clj-lang/clj/internal/clerr"
	"github.com/clj-lang/clj/internal/gc"
	"github.com/clj-lang/clj/internal/lazyseq"
	"github.com/clj-lang/clj/internal/node"
	"github.com/clj-lang/clj/internal/runtime"
	"github.com/clj-lang/clj/internal/value"
)

// frame is one activation record: a flat slot array for this call's locals
// plus the closure environment it was created with — the same shape as
// treewalk's frame, since both backends address Locals/Captures by the
// analyzer's absolute slot numbers.
type frame struct {
	slots []value.Value
	env   []value.Value
}

// recurSignal unwinds an OpRecur to the Chunk/mark/start its recurTarget
// names. It propagates as an ordinary error through execTry exactly like
// treewalk's recurSignal propagates through evalTry — uncaught by `catch`,
// still running `finally` — until it reaches the exec call actually running
// the target Chunk, which resumes its own loop in place instead of
// returning.
type recurSignal struct {
	target recurTarget
	args   []value.Value
}

func (*recurSignal) Error() string { return "recur outside of loop or fn" }

// VM runs compiled Chunks against one runtime Env. It compiles a user Fn's
// arity body to a Chunk lazily on first call and caches the result, so a Fn
// built by either backend (both store Node bodies, spec §9) is callable
// from either.
type VM struct {
	env   *runtime.Env
	cache map[*value.UserArity]*Chunk
	gcc   *gc.Collector
}

// NewVM creates a VM bound to env.
func NewVM(env *runtime.Env) *VM {
	return &VM{env: env, cache: map[*value.UserArity]*Chunk{}}
}

// SetCollector wires a shared Collector into this VM, so the gc_safe_point
// checks at OpCall/OpRecur (spec §4.7's trigger points, in addition to the
// top-level-expression-boundary trigger the engine drives directly) pool
// their pressure accounting with the rest of the running program.
func (vm *VM) SetCollector(c *gc.Collector) { vm.gcc = c }

// safePointPressure is the flat pressure charge for one gc_safe_point check,
// the bytecode analogue of engine's topLevelPressure.
const safePointPressure = 256

// safePoint is the gc_safe_point opcode's behavior inlined at OpCall/OpRecur:
// charge a little pressure, collect if that trips the threshold, tracing the
// Var roots plus whatever of this call's own frame/stack is still live.
func (vm *VM) safePoint(fr *frame, stack []value.Value) {
	if vm.gcc == nil {
		return
	}
	vm.gcc.Track(safePointPressure)
	if !vm.gcc.ShouldCollect() {
		return
	}
	transient := make([]value.Value, 0, len(fr.slots)+len(fr.env)+len(stack))
	transient = append(transient, fr.slots...)
	transient = append(transient, fr.env...)
	transient = append(transient, stack...)
	vm.gcc.Collect(gc.Roots{Vars: vm.env.AllVars(), Transient: transient})
}

// Run executes chunk against a fresh top-level frame.
func (vm *VM) Run(chunk *Chunk) (value.Value, error) {
	return vm.exec(chunk, &frame{})
}

// Apply implements value.Applier, letting builtins call back into the VM
// regardless of which Fn flavor they're given.
func (vm *VM) Apply(fn value.Value, args []value.Value) (value.Value, error) {
	f, ok := fn.(*value.Fn)
	if !ok {
		return nil, fmt.Errorf("cannot call a value of type %s", fn.TypeName())
	}
	return vm.apply(f, args)
}

// exec runs chunk's instruction stream against fr to completion, returning
// its result value. A recurSignal whose target is some other Chunk (a try
// body recurring past its own boundary) is returned as an ordinary error for
// an enclosing exec call — the one actually running that target Chunk,
// reached via an OpTry frame somewhere up the Go call stack — to catch and
// resume locally.
func (vm *VM) exec(chunk *Chunk, fr *frame) (value.Value, error) {
	var stack []value.Value
	push := func(v value.Value) { stack = append(stack, v) }
	pop := func() value.Value {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}

	ip := 0
	for ip < len(chunk.Code) {
		instr := chunk.Code[ip]
		switch instr.Op {
		case OpConst:
			v, _ := instr.Val.(value.Value)
			if v == nil {
				push(value.NilValue)
			} else {
				push(v)
			}
			ip++

		case OpLoadLocal:
			push(fr.slots[instr.A])
			ip++

		case OpLoadCapture:
			push(fr.env[instr.A])
			ip++

		case OpLoadVar:
			ref := chunk.Names[instr.A]
			v, err := vm.resolveVar(ref)
			if err != nil {
				return nil, err
			}
			push(v.Get())
			ip++

		case OpPop:
			pop()
			ip++

		case OpJump:
			ip = instr.A

		case OpJumpIfFalse:
			if !value.Truthy(pop()) {
				ip = instr.A
			} else {
				ip++
			}

		case OpPushSlot:
			fr.slots = append(fr.slots, pop())
			ip++

		case OpReserveNil:
			fr.slots = append(fr.slots, make([]value.Value, instr.A)...)
			ip++

		case OpStoreLocal:
			v := pop()
			n := len(fr.slots)
			fr.slots[n-instr.B+instr.A] = v
			ip++

		case OpDropSlots:
			fr.slots = fr.slots[:len(fr.slots)-instr.A]
			ip++

		case OpMakeFn:
			push(vm.makeClosure(chunk.FnNodes[instr.A], fr))
			ip++

		case OpCall:
			n := instr.A
			args := make([]value.Value, n)
			for i := n - 1; i >= 0; i-- {
				args[i] = pop()
			}
			fnVal := pop()
			result, err := vm.applyValue(fnVal, args)
			if err != nil {
				return nil, err
			}
			push(result)
			vm.safePoint(fr, stack)
			ip++

		case OpDef:
			v := pop()
			name, _ := instr.Val.(string)
			ref := chunk.Names[instr.A]
			ns := vm.env.FindOrCreateNamespace(ref.Namespace)
			varr := ns.Intern(name)
			if fnVal, ok := v.(*value.Fn); ok && fnVal.Name == "" {
				fnVal.Name = name
			}
			if err := varr.BindRoot(v); err != nil {
				return nil, err
			}
			if instr.B == 1 {
				varr.Macro = true
			}
			push(varr)
			ip++

		case OpThrow:
			v := pop()
			return nil, &clerr.UserException{Value: v}

		case OpTry:
			result, err := vm.execTry(chunk.Tries[instr.A], fr)
			if rs, ok := err.(*recurSignal); ok && rs.target.chunk == chunk {
				fr.slots = fr.slots[:rs.target.mark]
				fr.slots = append(fr.slots, rs.args...)
				ip = rs.target.start
				continue
			}
			if err != nil {
				return nil, err
			}
			push(result)
			ip++

		case OpRecur:
			n := instr.B
			args := make([]value.Value, n)
			for i := n - 1; i >= 0; i-- {
				args[i] = pop()
			}
			target, _ := instr.Val.(recurTarget)
			if target.chunk != chunk {
				return nil, &recurSignal{target: target, args: args}
			}
			fr.slots = fr.slots[:target.mark]
			fr.slots = append(fr.slots, args...)
			ip = target.start
			vm.safePoint(fr, stack)

		case OpDefMulti:
			dispatchFnVal := pop()
			dispatchFn, ok := dispatchFnVal.(*value.Fn)
			if !ok {
				return nil, fmt.Errorf("defmulti dispatch value must be a function")
			}
			name, _ := instr.Val.(string)
			ns := vm.env.CurrentNamespace()
			varr := ns.Intern(name)
			multi := value.NewMultiFn(name, dispatchFn)
			if err := varr.BindRoot(multi); err != nil {
				return nil, err
			}
			push(varr)
			ip++

		case OpDefMethod:
			pair, _ := instr.Val.([2]any)
			multiName, _ := pair[0].(string)
			dispatchVal, _ := pair[1].(value.Value)
			ns := vm.env.CurrentNamespace()
			varr, ok := ns.Lookup(multiName)
			if !ok {
				return nil, fmt.Errorf("defmethod: no such multimethod %s", multiName)
			}
			multi, ok := varr.Get().(*value.MultiFn)
			if !ok {
				return nil, fmt.Errorf("defmethod: %s is not a multimethod", multiName)
			}
			methodFn := vm.makeClosure(chunk.FnNodes[instr.A], fr)
			if dispatchVal == nil {
				dispatchVal = value.DefaultDispatchVal
			}
			multi.AddMethod(dispatchVal, methodFn)
			push(varr)
			ip++

		case OpDefProtocol:
			pair, _ := instr.Val.([2]any)
			name, _ := pair[0].(string)
			methods, _ := pair[1].([]string)
			ns := vm.env.CurrentNamespace()
			proto := value.NewProtocol(name, methods)
			protoVar := ns.Intern(name)
			if err := protoVar.BindRoot(proto); err != nil {
				return nil, err
			}
			for _, m := range methods {
				methodVar := ns.Intern(m)
				if err := methodVar.BindRoot(&value.ProtocolFn{Protocol: proto, Method: m}); err != nil {
					return nil, err
				}
			}
			push(protoVar)
			ip++

		case OpExtendType:
			triple, _ := instr.Val.([3]any)
			protoName, _ := triple[0].(string)
			typeName, _ := triple[1].(string)
			methodIdx, _ := triple[2].(map[string]int)
			ns := vm.env.CurrentNamespace()
			protoVarVal, ok := ns.Lookup(protoName)
			if !ok {
				return nil, fmt.Errorf("extend-type: no such protocol %s", protoName)
			}
			proto, ok := protoVarVal.Get().(*value.Protocol)
			if !ok {
				return nil, fmt.Errorf("extend-type: %s is not a protocol", protoName)
			}
			methods := make(map[string]*value.Fn, len(methodIdx))
			for name, idx := range methodIdx {
				methods[name] = vm.makeClosure(chunk.FnNodes[idx], fr)
			}
			proto.Extend(typeName, methods)
			push(value.NilValue)
			ip++

		default:
			return nil, fmt.Errorf("bytecode: unhandled opcode %d", instr.Op)
		}
	}
	if len(stack) == 0 {
		return value.NilValue, nil
	}
	return stack[len(stack)-1], nil
}

func (vm *VM) resolveVar(ref NameRef) (*value.Var, error) {
	ns, ok := vm.env.FindNamespace(ref.Namespace)
	if !ok {
		return nil, fmt.Errorf("no such namespace: %s", ref.Namespace)
	}
	v, ok := ns.Lookup(ref.Name)
	if !ok {
		return nil, fmt.Errorf("unable to resolve var: %s/%s", ref.Namespace, ref.Name)
	}
	return v, nil
}

// makeClosure builds a Fn whose Env is populated by reading each arity's
// Captures against the defining frame, matching treewalk.makeClosure — the
// bytecode VM never precompiles a closure's body; that happens lazily in
// apply, the first time it's actually called.
func (vm *VM) makeClosure(n *node.Node, fr *frame) *value.Fn {
	fn := &value.Fn{Name: n.FnName}
	if len(n.Arities) > 0 {
		fn.Env = captureEnv(n.Arities[0].Captures, fr)
	}
	for _, a := range n.Arities {
		fn.Arities = append(fn.Arities, &value.UserArity{
			Params:    a.Params,
			Variadic:  a.Variadic,
			NumParams: a.NumParams,
			Body:      a.Body,
		})
	}
	return fn
}

// captureEnv mirrors treewalk's captureEnv, including the deep-clone
// migration rule: a captured slot must not alias storage the frame it came
// from may go on to reuse.
func captureEnv(captures []node.Capture, fr *frame) []value.Value {
	env := make([]value.Value, len(captures))
	for i, c := range captures {
		if c.FromCapture {
			env[i] = value.DeepClone(fr.env[c.FromSlot])
		} else {
			env[i] = value.DeepClone(fr.slots[c.FromSlot])
		}
	}
	return env
}

func (vm *VM) applyValue(target value.Value, args []value.Value) (value.Value, error) {
	switch t := target.(type) {
	case *value.Fn:
		return vm.apply(t, args)
	case *value.MultiFn:
		return vm.applyMultiFn(t, args)
	case *value.ProtocolFn:
		if len(args) == 0 {
			return nil, fmt.Errorf("protocol method %s requires at least 1 argument", t.Method)
		}
		fn, err := t.Dispatch(args[0])
		if err != nil {
			return nil, err
		}
		return vm.apply(fn, args)
	case *value.Keyword:
		return keywordAsFn(t, args)
	case *value.Map:
		return mapAsFn(t, args)
	case *value.Set:
		return setAsFn(t, args)
	default:
		return nil, fmt.Errorf("cannot call a value of type %s", displayType(target))
	}
}

// keywordAsFn implements spec §4.4's "keyword used as a 1-arg map
// accessor": (:k coll [default]) looks k up in coll the way `get` does.
func keywordAsFn(k *value.Keyword, args []value.Value) (value.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("wrong number of args (%d) passed to keyword %s", len(args), k)
	}
	notFound := notFoundArg(args)
	switch c := args[0].(type) {
	case *value.Map:
		if v, ok := c.Get(k); ok {
			return v, nil
		}
	case *value.Set:
		if c.Contains(k) {
			return k, nil
		}
	}
	return notFound, nil
}

// mapAsFn implements spec §4.4's "map used as a function": (m k [default]).
func mapAsFn(m *value.Map, args []value.Value) (value.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("wrong number of args (%d) passed to a map", len(args))
	}
	if v, ok := m.Get(args[0]); ok {
		return v, nil
	}
	return notFoundArg(args), nil
}

// setAsFn implements spec §4.4's "set membership": (s x) returns x if
// present, else nil.
func setAsFn(s *value.Set, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("wrong number of args (%d) passed to a set", len(args))
	}
	if s.Contains(args[0]) {
		return args[0], nil
	}
	return value.NilValue, nil
}

func notFoundArg(args []value.Value) value.Value {
	if len(args) == 2 {
		return args[1]
	}
	return value.NilValue
}

func displayType(v value.Value) string {
	if v == nil {
		return "nil"
	}
	return v.TypeName()
}

func (vm *VM) applyMultiFn(m *value.MultiFn, args []value.Value) (value.Value, error) {
	dispatchVal, err := vm.apply(m.DispatchFn, args)
	if err != nil {
		return nil, err
	}
	fn, ok := m.Resolve(dispatchVal)
	if !ok {
		return nil, fmt.Errorf("no method in multimethod %s for dispatch value %s", m.Name, dispatchVal)
	}
	return vm.apply(fn, args)
}

// apply invokes an ordinary Fn: builtin Go code, or a user arity whose body
// is compiled to a Chunk on first call (cached thereafter) and run in a
// fresh frame seeded with the closure environment and bound params. Since
// CompileFnBody resolves every recur targeting the arity's own params
// directly within that one Chunk (no cross-Chunk escape needed unless it
// passes through a try), exec never returns here with an unresolved
// recurSignal — there's nothing left enclosing it to target.
func (vm *VM) apply(fn *value.Fn, args []value.Value) (value.Value, error) {
	if fn.Builtin != nil {
		return fn.Builtin(vm, args)
	}
	arity, err := fn.FindArity(len(args))
	if err != nil {
		return nil, err
	}
	bodyChunk, err := vm.chunkFor(arity)
	if err != nil {
		return nil, err
	}
	callFrame := &frame{env: fn.Env, slots: bindParams(arity, args)}
	return vm.exec(bodyChunk, callFrame)
}

func (vm *VM) chunkFor(arity *value.UserArity) (*Chunk, error) {
	if c, ok := vm.cache[arity]; ok {
		return c, nil
	}
	c, err := CompileFnBody(arity.Body, len(arity.Params))
	if err != nil {
		return nil, err
	}
	vm.cache[arity] = c
	return c, nil
}

func bindParams(arity *value.UserArity, args []value.Value) []value.Value {
	slots := make([]value.Value, len(arity.Params))
	if !arity.Variadic {
		copy(slots, args)
		return slots
	}
	fixed := arity.NumParams
	n := fixed
	if len(args) < n {
		n = len(args)
	}
	copy(slots, args[:n])
	var rest []value.Value
	if len(args) > fixed {
		rest = append(rest, args[fixed:]...)
	}
	if len(rest) == 0 {
		slots[len(slots)-1] = lazyseq.Empty
	} else {
		slots[len(slots)-1] = lazyseq.FromValues(rest)
	}
	return slots
}

// execTry runs a TrySpec's try body, falling through to catch on error
// (but never on a recurSignal — recur may cross a try, per treewalk.evalTry)
// and always running finally.
func (vm *VM) execTry(spec *TrySpec, fr *frame) (result value.Value, retErr error) {
	if spec.HasFinally {
		defer func() {
			if _, ferr := vm.exec(spec.Finally, fr); ferr != nil && retErr == nil {
				retErr = ferr
			}
		}()
	}

	result, err := vm.exec(spec.Try, fr)
	if err == nil {
		return result, nil
	}
	if _, isRecur := err.(*recurSignal); isRecur {
		return nil, err
	}
	if !spec.HasCatch {
		return nil, err
	}

	caught := errorToValue(err)
	fr.slots = append(fr.slots, caught)
	result, cerr := vm.exec(spec.Catch, fr)
	fr.slots = fr.slots[:len(fr.slots)-1]
	return result, cerr
}

// errorToValue converts a Go error produced during execution into the
// runtime Value a `catch` binding sees: a user-thrown value passes through
// unwrapped, everything else becomes an ex-info-shaped map (spec §7),
// matching treewalk.errorToValue.
func errorToValue(err error) value.Value {
	if ue, ok := err.(*clerr.UserException); ok {
		if v, ok := ue.Value.(value.Value); ok {
			return v
		}
	}
	msg := err.Error()
	return value.NewMap(
		value.InternKeyword("", "message"), value.Str(msg),
		value.InternKeyword("", "data"), value.NilValue,
	)
}
