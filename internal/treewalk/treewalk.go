// Package treewalk implements the tree-walk evaluator backend (spec §4.4):
// a direct Node-to-Value interpreter used both standalone and as the
// reference half of engine's compare mode against the bytecode VM.
package treewalk

import (
	"fmt"

	"github.com/clj-lang/clj/internal/clerr"
	"github.com/clj-lang/clj/internal/lazyseq"
	"github.com/clj-lang/clj/internal/node"
	"github.com/clj-lang/clj/internal/runtime"
	"github.com/clj-lang/clj/internal/value"
)

// frame is one activation record: a flat slot array for this call's locals
// plus the closure environment it was created with.
type frame struct {
	slots []value.Value
	env   []value.Value // closed-over values, indexed by Capture
	outer *frame         // lexically enclosing frame, for let/loop slot growth
}

func newFrame(env []value.Value) *frame {
	return &frame{env: env}
}

// recurSignal unwinds a `recur` to its nearest enclosing loop/fn boundary,
// carrying the new argument values (spec §4.4's recur/tail-call contract).
type recurSignal struct {
	args []value.Value
}

func (*recurSignal) Error() string { return "recur outside of loop or fn" }

// Interp is a tree-walk evaluator bound to one runtime Env.
type Interp struct {
	env *runtime.Env
}

// New creates an Interp over env.
func New(env *runtime.Env) *Interp {
	return &Interp{env: env}
}

// Apply implements value.Applier, letting builtins (map, reduce, apply...)
// call back into the evaluator regardless of which Fn flavor they're given.
func (in *Interp) Apply(fn value.Value, args []value.Value) (value.Value, error) {
	f, ok := fn.(*value.Fn)
	if !ok {
		return nil, fmt.Errorf("cannot call a value of type %s", fn.TypeName())
	}
	return in.apply(f, args)
}

// Eval evaluates n against an empty top-level frame.
func (in *Interp) Eval(n *node.Node) (value.Value, error) {
	return in.eval(n, newFrame(nil))
}

func (in *Interp) eval(n *node.Node, fr *frame) (value.Value, error) {
	switch n.Kind {
	case node.KindConstant, node.KindQuote:
		v, _ := n.Const.(value.Value)
		if v == nil {
			return value.NilValue, nil
		}
		return v, nil

	case node.KindVarRef:
		v, err := in.resolveVarRef(n)
		if err != nil {
			return nil, err
		}
		return v.Get(), nil

	case node.KindLocalRef:
		if n.IsCapture {
			return fr.env[n.LocalSlot], nil
		}
		return fr.slots[n.LocalSlot], nil

	case node.KindIf:
		cond, err := in.eval(n.Cond, fr)
		if err != nil {
			return nil, err
		}
		if value.Truthy(cond) {
			return in.eval(n.Then, fr)
		}
		return in.eval(n.Else, fr)

	case node.KindDo:
		return in.evalBody(n.Body, fr)

	case node.KindLet:
		return in.evalLet(n, fr)

	case node.KindLoop:
		return in.evalLoop(n, fr)

	case node.KindRecur:
		args := make([]value.Value, len(n.RecurArgs))
		for i, a := range n.RecurArgs {
			v, err := in.eval(a, fr)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return nil, &recurSignal{args: args}

	case node.KindFn:
		return in.makeClosure(n, fr), nil

	case node.KindCall:
		return in.evalCall(n, fr)

	case node.KindDef:
		return in.evalDef(n, fr)

	case node.KindThrow:
		v, err := in.eval(n.ThrowExpr, fr)
		if err != nil {
			return nil, err
		}
		return nil, &clerr.UserException{Value: v}

	case node.KindTry:
		return in.evalTry(n, fr)

	case node.KindDefMulti:
		return in.evalDefMulti(n, fr)

	case node.KindDefMethod:
		return in.evalDefMethod(n, fr)

	case node.KindDefProtocol:
		return in.evalDefProtocol(n, fr)

	case node.KindExtendType:
		return in.evalExtendType(n, fr)

	case node.KindFoldedArith, node.KindFoldedCompare:
		v, _ := n.Const.(value.Value)
		return v, nil
	}
	return nil, fmt.Errorf("treewalk: unhandled node kind %d", n.Kind)
}

func (in *Interp) evalBody(body []*node.Node, fr *frame) (value.Value, error) {
	var result value.Value = value.NilValue
	for _, stmt := range body {
		v, err := in.eval(stmt, fr)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

func (in *Interp) resolveVarRef(n *node.Node) (*value.Var, error) {
	ns, ok := in.env.FindNamespace(n.VarNamespace)
	if !ok {
		return nil, clerr.Runtime(n.Pos, "no such namespace: %s", n.VarNamespace)
	}
	v, ok := ns.Lookup(n.VarName)
	if !ok {
		return nil, clerr.Runtime(n.Pos, "unable to resolve var: %s/%s", n.VarNamespace, n.VarName)
	}
	return v, nil
}

// evalLet handles let*, loop* (via evalLoop wrapping it) and letfn*
// (IsLetfn): ordinary lets grow fr.slots incrementally as each binding is
// analyzed and evaluated; letfn pre-allocates every slot (nil-initialized)
// before evaluating any initializer, so mutually-recursive fn closures can
// already capture each other's (not-yet-filled) slots.
func (in *Interp) evalLet(n *node.Node, fr *frame) (value.Value, error) {
	base := len(fr.slots)
	if n.IsLetfn {
		fr.slots = append(fr.slots, make([]value.Value, len(n.BindingNames))...)
		for i, initNode := range n.BindingInit {
			v, err := in.eval(initNode, fr)
			if err != nil {
				return nil, err
			}
			fr.slots[base+i] = v
		}
	} else {
		for _, initNode := range n.BindingInit {
			v, err := in.eval(initNode, fr)
			if err != nil {
				return nil, err
			}
			fr.slots = append(fr.slots, v)
		}
	}
	result, err := in.evalBody(n.Body, fr)
	fr.slots = fr.slots[:base]
	return result, err
}

// evalLoop evaluates a loop* body, catching recurSignal and re-running with
// the new bindings until the body completes normally (spec §4.4 recur).
func (in *Interp) evalLoop(n *node.Node, fr *frame) (value.Value, error) {
	base := len(fr.slots)
	for _, initNode := range n.BindingInit {
		v, err := in.eval(initNode, fr)
		if err != nil {
			return nil, err
		}
		fr.slots = append(fr.slots, v)
	}
	for {
		result, err := in.evalBody(n.Body, fr)
		if err == nil {
			fr.slots = fr.slots[:base]
			return result, nil
		}
		rs, ok := err.(*recurSignal)
		if !ok {
			fr.slots = fr.slots[:base]
			return nil, err
		}
		if len(rs.args) != len(n.BindingInit) {
			fr.slots = fr.slots[:base]
			return nil, fmt.Errorf("recur argument count (%d) does not match loop binding count (%d)", len(rs.args), len(n.BindingInit))
		}
		copy(fr.slots[base:], rs.args)
	}
}

// makeClosure builds a Fn whose Env is populated by reading each arity's
// Captures against the *defining* frame (spec §9's index-into-array
// representation).
func (in *Interp) makeClosure(n *node.Node, fr *frame) *value.Fn {
	fn := &value.Fn{Name: n.FnName}
	// All arities of one fn* share the same lexical closure environment;
	// capture against the first arity's capture list (they are identical by
	// construction — every arity was analyzed against the same funcScope).
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

// captureEnv copies the closed-over slots into the new Fn's own Env, deep
// cloning each one (spec §5 migration rule): a captured slot may still be
// backed by storage the enclosing frame reuses or drops, so the closure
// needs its own copy rather than an alias into someone else's stack.
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

func (in *Interp) evalCall(n *node.Node, fr *frame) (value.Value, error) {
	fnVal, err := in.eval(n.Fn, fr)
	if err != nil {
		return nil, err
	}
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := in.eval(a, fr)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return in.applyValue(fnVal, args, n)
}

// applyValue dispatches a call target that may be an ordinary Fn, a
// MultiFn, or a ProtocolFn — anything value.Applier.Apply forwards here.
func (in *Interp) applyValue(target value.Value, args []value.Value, n *node.Node) (value.Value, error) {
	switch t := target.(type) {
	case *value.Fn:
		return in.apply(t, args)
	case *value.MultiFn:
		return in.applyMultiFn(t, args)
	case *value.ProtocolFn:
		if len(args) == 0 {
			return nil, fmt.Errorf("protocol method %s requires at least 1 argument", t.Method)
		}
		fn, err := t.Dispatch(args[0])
		if err != nil {
			return nil, err
		}
		return in.apply(fn, args)
	case *value.Keyword:
		return keywordAsFn(t, args)
	case *value.Map:
		return mapAsFn(t, args)
	case *value.Set:
		return setAsFn(t, args)
	default:
		return nil, clerr.Runtime(n.Pos, "cannot call a value of type %s", displayType(target))
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

func (in *Interp) applyMultiFn(m *value.MultiFn, args []value.Value) (value.Value, error) {
	dispatchVal, err := in.apply(m.DispatchFn, args)
	if err != nil {
		return nil, err
	}
	fn, ok := m.Resolve(dispatchVal)
	if !ok {
		return nil, fmt.Errorf("no method in multimethod %s for dispatch value %s", m.Name, dispatchVal)
	}
	return in.apply(fn, args)
}

// apply invokes an ordinary Fn: builtin Go code, or a user arity evaluated
// in a fresh frame seeded with the closure environment and bound params.
func (in *Interp) apply(fn *value.Fn, args []value.Value) (value.Value, error) {
	if fn.Builtin != nil {
		return fn.Builtin(in, args)
	}
	arity, err := fn.FindArity(len(args))
	if err != nil {
		return nil, err
	}
	for {
		callFrame := &frame{env: fn.Env}
		callFrame.slots = bindParams(arity, args)
		result, err := in.evalBody(arity.Body, callFrame)
		if err == nil {
			return result, nil
		}
		rs, ok := err.(*recurSignal)
		if !ok {
			return nil, err
		}
		if len(rs.args) != len(arity.Params) {
			return nil, fmt.Errorf("recur argument count (%d) does not match fn arity (%d)", len(rs.args), len(arity.Params))
		}
		args = rs.args
	}
}

func bindParams(arity *value.UserArity, args []value.Value) []value.Value {
	slots := make([]value.Value, len(arity.Params))
	if !arity.Variadic {
		copy(slots, args)
		return slots
	}
	fixed := arity.NumParams
	copy(slots, args[:min(fixed, len(args))])
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

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (in *Interp) evalDef(n *node.Node, fr *frame) (value.Value, error) {
	ns := in.env.FindOrCreateNamespace(n.DefNamespace)
	v := ns.Intern(n.DefName)
	if n.DefInit != nil {
		val, err := in.eval(n.DefInit, fr)
		if err != nil {
			return nil, err
		}
		if fnVal, ok := val.(*value.Fn); ok && fnVal.Name == "" {
			fnVal.Name = n.DefName
		}
		if err := v.BindRoot(val); err != nil {
			return nil, err
		}
	}
	v.Macro = v.Macro || n.DefIsMacro
	return v, nil
}

func (in *Interp) evalTry(n *node.Node, fr *frame) (result value.Value, retErr error) {
	if n.HasFinally {
		defer func() {
			if _, err := in.evalBody(n.FinallyBody, fr); err != nil && retErr == nil {
				retErr = err
			}
		}()
	}

	result, err := in.evalBody(n.TryBody, fr)
	if err == nil {
		return result, nil
	}
	if _, isRecur := err.(*recurSignal); isRecur {
		return nil, err
	}
	if !n.HasCatch {
		return nil, err
	}

	caught := errorToValue(err)
	base := len(fr.slots)
	fr.slots = append(fr.slots, caught)
	result, cerr := in.evalBody(n.CatchBody, fr)
	fr.slots = fr.slots[:base]
	return result, cerr
}

// errorToValue converts a Go error produced during evaluation into the
// runtime Value a `catch` binding sees: a user-thrown value passes through
// unwrapped, everything else becomes an ex-info-shaped map (spec §7).
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

func (in *Interp) evalDefMulti(n *node.Node, fr *frame) (value.Value, error) {
	dispatchVal, err := in.eval(n.DispatchFn, fr)
	if err != nil {
		return nil, err
	}
	dispatchFn, ok := dispatchVal.(*value.Fn)
	if !ok {
		return nil, fmt.Errorf("defmulti dispatch value must be a function")
	}
	ns := in.env.CurrentNamespace()
	v := ns.Intern(n.MultiName)
	multi := value.NewMultiFn(n.MultiName, dispatchFn)
	if err := v.BindRoot(multi); err != nil {
		return nil, err
	}
	return v, nil
}

func (in *Interp) evalDefMethod(n *node.Node, fr *frame) (value.Value, error) {
	ns := in.env.CurrentNamespace()
	v, ok := ns.Lookup(n.MethodMultiName)
	if !ok {
		return nil, fmt.Errorf("defmethod: no such multimethod %s", n.MethodMultiName)
	}
	multi, ok := v.Get().(*value.MultiFn)
	if !ok {
		return nil, fmt.Errorf("defmethod: %s is not a multimethod", n.MethodMultiName)
	}
	methodFn := in.makeClosure(n.MethodBody, fr)
	dispatchVal, _ := n.DispatchVal.(value.Value)
	if dispatchVal == nil {
		dispatchVal = value.DefaultDispatchVal
	}
	multi.AddMethod(dispatchVal, methodFn)
	return v, nil
}

func (in *Interp) evalDefProtocol(n *node.Node, fr *frame) (value.Value, error) {
	ns := in.env.CurrentNamespace()
	proto := value.NewProtocol(n.ProtocolName, n.ProtocolMethods)
	protoVar := ns.Intern(n.ProtocolName)
	if err := protoVar.BindRoot(proto); err != nil {
		return nil, err
	}
	for _, method := range n.ProtocolMethods {
		methodVar := ns.Intern(method)
		if err := methodVar.BindRoot(&value.ProtocolFn{Protocol: proto, Method: method}); err != nil {
			return nil, err
		}
	}
	return protoVar, nil
}

func (in *Interp) evalExtendType(n *node.Node, fr *frame) (value.Value, error) {
	ns := in.env.CurrentNamespace()
	protoVarVal, ok := ns.Lookup(n.ProtocolName)
	if !ok {
		return nil, fmt.Errorf("extend-type: no such protocol %s", n.ProtocolName)
	}
	proto, ok := protoVarVal.Get().(*value.Protocol)
	if !ok {
		return nil, fmt.Errorf("extend-type: %s is not a protocol", n.ProtocolName)
	}
	methods := make(map[string]*value.Fn, len(n.ExtendMethods))
	for name, fnNode := range n.ExtendMethods {
		methods[name] = in.makeClosure(fnNode, fr)
	}
	proto.Extend(n.ExtendTypeName, methods)
	return value.NilValue, nil
}
