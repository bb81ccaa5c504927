// Package node defines Node, the Analyzer's output: a semantically
// resolved, lowered intermediate representation ready for evaluation or
// compilation (spec §3 "Node", §4.3).
package node

import "github.com/clj-lang/clj/internal/token"

// Kind identifies a Node's variant.
type Kind int

const (
	KindConstant Kind = iota
	KindVarRef
	KindLocalRef
	KindIf
	KindDo
	KindLet
	KindLoop
	KindRecur
	KindFn
	KindCall
	KindDef
	KindQuote
	KindThrow
	KindTry
	KindDefMulti
	KindDefMethod
	KindDefProtocol
	KindExtendType
	// constant-folded arithmetic/comparison
	KindFoldedArith
	KindFoldedCompare
)

// Value is the minimal interface Node uses to carry already-resolved
// runtime constants (quoted data, folded literals) without node importing
// the value package, avoiding an import cycle between node and value.
type Value interface{}

// Node is the analyzer's resolved intermediate representation. Exactly the
// fields relevant to Kind are populated; the others are zero.
type Node struct {
	Kind Kind
	Pos  token.Position

	// KindConstant / KindQuote / KindFoldedArith / KindFoldedCompare
	Const Value

	// KindVarRef
	VarNamespace string
	VarName      string

	// KindLocalRef: LocalSlot is frame-relative unless IsCapture is set, in
	// which case it indexes the enclosing Fn's captured-environment slice.
	LocalName string
	LocalSlot int
	IsCapture bool

	// KindIf: Cond, Then, Else
	// KindDo: Body ([]*Node)
	// KindLet / KindLoop: Bindings (names+init nodes), Body
	// KindCall: Fn + Args
	Cond  *Node
	Then  *Node
	Else  *Node
	Body  []*Node
	Fn    *Node
	Args  []*Node

	// KindLet/KindLoop
	BindingNames []string
	BindingInit  []*Node
	// IsLetfn marks a KindLet produced by `letfn`: every binding slot is
	// allocated (nil-initialized) before any initializer is evaluated, so
	// mutually-recursive closures can capture each other's slots.
	IsLetfn bool

	// KindRecur
	RecurArgs []*Node

	// KindFn
	Arities  []*FnArity
	FnName   string // empty for anonymous fns

	// KindDef
	DefNamespace string
	DefName      string
	DefInit      *Node
	DefIsMacro   bool

	// KindThrow
	ThrowExpr *Node

	// KindTry
	TryBody     []*Node
	CatchName   string
	CatchBody   []*Node
	FinallyBody []*Node
	HasCatch    bool
	HasFinally  bool

	// KindDefMulti
	MultiName string
	DispatchFn *Node

	// KindDefMethod
	MethodMultiName string
	DispatchVal     Value // dispatch-value Form converted to a constant, or nil for :default
	MethodBody      *Node // fn node

	// KindDefProtocol / KindExtendType
	ProtocolName    string
	ProtocolMethods []string
	ExtendTypeName  string
	ExtendMethods   map[string]*Node

	// FoldedOp for KindFoldedArith/KindFoldedCompare, e.g. "+", "<"
	FoldedOp string
}

// FnArity is one arity (parameter list + body) of a user-defined function.
type FnArity struct {
	Params    []string
	Variadic  bool
	NumParams int // fixed parameter count, excluding the variadic rest param
	Body      []*Node

	// Captures lists, in closure-env order, where each captured slot's
	// value comes from in the *defining* scope: a frame-relative local
	// slot (FromCapture=false) or an already-captured env slot of the
	// enclosing function (FromCapture=true). make_closure / the tree-walk
	// evaluator's `fn` case build the new Fn's Env by reading these.
	Captures []Capture
}

// Capture describes one closure-environment slot's source in the
// enclosing scope.
type Capture struct {
	FromSlot    int
	FromCapture bool
}
