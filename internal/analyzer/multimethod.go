package analyzer

import (
	"github.com/clj-lang/clj/internal/clerr"
	"github.com/clj-lang/clj/internal/node"
	"github.com/clj-lang/clj/internal/reader"
)

// analyzeDefMulti lowers (defmulti name dispatch-fn) into a KindDefMulti
// Node that installs a fresh MultiFn var at evaluation time.
func (a *Analyzer) analyzeDefMulti(f *reader.Form) (*node.Node, error) {
	if len(f.Children) < 3 || f.Children[1].Kind != reader.KindSymbol {
		return nil, clerr.Analysis(f.Pos, "InvalidSpecialForm: defmulti requires a name and dispatch function")
	}
	name := f.Children[1].Name
	dispatchForm := f.Children[len(f.Children)-1]
	if dispatchForm.Kind == reader.KindKeyword {
		// A keyword dispatch fn looks itself up in the first argument.
		arg := reader.Sym("dispatch-arg__")
		dispatchForm = reader.List(reader.Sym("fn*"),
			reader.Vector(arg, reader.Sym("&"), reader.Sym("_")),
			reader.List(dispatchForm, arg))
	}
	dispatchNode, err := a.analyze(dispatchForm)
	if err != nil {
		return nil, err
	}
	return &node.Node{Kind: node.KindDefMulti, MultiName: name, DispatchFn: dispatchNode, Pos: f.Pos}, nil
}

// analyzeDefMethod lowers (defmethod name dispatch-val [params] body...)
// into a KindDefMethod Node wrapping the arity as an ordinary fn Node.
func (a *Analyzer) analyzeDefMethod(f *reader.Form) (*node.Node, error) {
	if len(f.Children) < 4 {
		return nil, clerr.Analysis(f.Pos, "InvalidSpecialForm: defmethod requires a name, dispatch value, and body")
	}
	name := f.Children[1].Name
	dispatchForm := f.Children[2]
	var dispatchVal node.Value
	if !dispatchForm.IsSymbolNamed(":default") {
		dispatchVal = formToQuotedValue(dispatchForm)
	} else {
		dispatchVal = nil
	}

	fnForm := reader.List(append([]*reader.Form{reader.Sym("fn*"), f.Children[3]}, f.Children[4:]...)...)
	fnNode, err := a.analyzeFn(fnForm, "")
	if err != nil {
		return nil, err
	}
	return &node.Node{
		Kind:            node.KindDefMethod,
		MethodMultiName: name,
		DispatchVal:     dispatchVal,
		MethodBody:      fnNode,
		Pos:             f.Pos,
	}, nil
}

// analyzeDefProtocol lowers (defprotocol Name (method1 [this ...]) ...) into
// a KindDefProtocol Node naming the protocol's method signatures; each
// method becomes a protocol-dispatching Var at evaluation time.
func (a *Analyzer) analyzeDefProtocol(f *reader.Form) (*node.Node, error) {
	if len(f.Children) < 2 || f.Children[1].Kind != reader.KindSymbol {
		return nil, clerr.Analysis(f.Pos, "InvalidSpecialForm: defprotocol requires a name")
	}
	name := f.Children[1].Name
	var methods []string
	for _, c := range f.Children[2:] {
		if c.Kind != reader.KindList || len(c.Children) == 0 || c.Children[0].Kind != reader.KindSymbol {
			continue // docstrings and other non-signature forms are ignored
		}
		methods = append(methods, c.Children[0].Name)
	}
	return &node.Node{Kind: node.KindDefProtocol, ProtocolName: name, ProtocolMethods: methods, Pos: f.Pos}, nil
}

// analyzeExtendType lowers (extend-type Type Protocol (method [this ...] body...) ...)
// — and the (extend-protocol Protocol Type (method ...) ...) spelling — into
// a KindExtendType Node, one per (protocol, type) pair. extend-protocol
// groups several types under one protocol head; we normalize both to the
// same Node shape by reprocessing extend-protocol's body per type.
func (a *Analyzer) analyzeExtendType(f *reader.Form) (*node.Node, error) {
	isProtocolFirst := f.Children[0].IsSymbolNamed("extend-protocol")
	if len(f.Children) < 2 {
		return nil, clerr.Analysis(f.Pos, "InvalidSpecialForm: missing target")
	}
	headName := f.Children[1].Name

	methods := map[string]*node.Node{}
	var protocolName, typeName string
	if isProtocolFirst {
		protocolName = headName
	} else {
		typeName = headName
	}

	for _, c := range f.Children[2:] {
		if c.Kind == reader.KindSymbol {
			// extend-protocol's per-type head, or extend-type's protocol name.
			if isProtocolFirst {
				typeName = c.Name
			} else {
				protocolName = c.Name
			}
			continue
		}
		if c.Kind != reader.KindList || len(c.Children) < 2 {
			continue
		}
		methodName := c.Children[0].Name
		fnForm := reader.List(append([]*reader.Form{reader.Sym("fn*"), c.Children[1]}, c.Children[2:]...)...)
		fnNode, err := a.analyzeFn(fnForm, "")
		if err != nil {
			return nil, err
		}
		methods[methodName] = fnNode
	}

	return &node.Node{
		Kind:           node.KindExtendType,
		ProtocolName:   protocolName,
		ExtendTypeName: typeName,
		ExtendMethods:  methods,
		Pos:            f.Pos,
	}, nil
}
