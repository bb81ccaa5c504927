package analyzer

import "github.com/clj-lang/clj/internal/node"

// binding is one lexically-bound local: the function scope that owns its
// storage slot, and the slot index within that scope.
type binding struct {
	name      string
	funcScope *funcScope
	slot      int
}

// funcScope tracks one function's (or the top-level's) locals and the
// upvalue captures it needs from its lexically enclosing function, per the
// index-into-array closure representation spec §9 recommends.
type funcScope struct {
	parent       *funcScope
	nextSlot     int
	captures     []node.Capture
	captureIndex map[*binding]int
}

func newFuncScope(parent *funcScope) *funcScope {
	return &funcScope{parent: parent, captureIndex: map[*binding]int{}}
}

// addLocal allocates the next free slot in fs.
func (fs *funcScope) addLocal() int {
	slot := fs.nextSlot
	fs.nextSlot++
	return slot
}

// mark/restore bracket a lexical block's bindings (let*/loop*/letfn/catch):
// nextSlot is restored to its pre-block value once the block's body has
// been analyzed, so a later sibling block reuses the same slot range — the
// analysis-time mirror of the tree-walk evaluator truncating fr.slots back
// to the block's entry length once it returns.
func (fs *funcScope) mark() int        { return fs.nextSlot }
func (fs *funcScope) restore(mark int) { fs.nextSlot = mark }

// addCapture returns the dedup'd capture index for b within fs, adding a
// new Capture entry on first reference.
func (fs *funcScope) addCapture(b *binding, src node.Capture) int {
	if idx, ok := fs.captureIndex[b]; ok {
		return idx
	}
	idx := len(fs.captures)
	fs.captures = append(fs.captures, src)
	fs.captureIndex[b] = idx
	return idx
}

// lexScope is one nested lexical block (let/loop/fn-params); name
// resolution walks outward through these, independent of function
// boundaries, which are tracked per-binding via binding.funcScope.
type lexScope struct {
	parent *lexScope
	names  map[string]*binding
}

func newLexScope(parent *lexScope) *lexScope {
	return &lexScope{parent: parent, names: map[string]*binding{}}
}

func (ls *lexScope) define(name string, fs *funcScope) *binding {
	b := &binding{name: name, funcScope: fs, slot: fs.addLocal()}
	ls.names[name] = b
	return b
}

func (ls *lexScope) resolve(name string) *binding {
	for s := ls; s != nil; s = s.parent {
		if b, ok := s.names[name]; ok {
			return b
		}
	}
	return nil
}

// resolveFor returns the Node fields needed to reference b from within cur,
// inserting capture chain entries through every intermediate function scope
// between cur and b's defining scope.
func resolveFor(cur *funcScope, b *binding) (slot int, isCapture bool) {
	if cur == b.funcScope {
		return b.slot, false
	}
	idx := captureChain(cur, b)
	return idx, true
}

// captureChain ensures fs (and every function scope between fs and b's
// home scope) has a capture entry referencing b, returning fs's own
// capture index for it.
func captureChain(fs *funcScope, b *binding) int {
	if fs.parent == b.funcScope {
		return fs.addCapture(b, node.Capture{FromSlot: b.slot, FromCapture: false})
	}
	parentIdx := captureChain(fs.parent, b)
	return fs.addCapture(b, node.Capture{FromSlot: parentIdx, FromCapture: true})
}
