package value

// DeepClone produces a structurally equal copy of v whose composite
// collections do not share backing storage with v. This is the migration
// discipline spec §5 requires at every scratch-to-persistent crossing
// (`def` initialiser -> Var root, `fn` body capture, atom update, chunk
// constant pool insertion): since the persistent collections below are
// already copy-on-write immutable values, cloning is a shallow recursive
// copy rather than a pointer-graph rewrite.
func DeepClone(v Value) Value {
	switch t := v.(type) {
	case nil:
		return nil
	case *List:
		items := make([]Value, len(t.items))
		for i, it := range t.items {
			items[i] = DeepClone(it)
		}
		return &List{items: items}
	case *Vector:
		items := make([]Value, len(t.items))
		for i, it := range t.items {
			items[i] = DeepClone(it)
		}
		return &Vector{items: items}
	case *Set:
		items := make([]Value, len(t.items))
		for i, it := range t.items {
			items[i] = DeepClone(it)
		}
		return &Set{items: items}
	case *Map:
		entries := make([]mapEntry, len(t.entries))
		for i, e := range t.entries {
			entries[i] = mapEntry{key: DeepClone(e.key), val: DeepClone(e.val), hash: e.hash}
		}
		index := append([]int(nil), t.index...)
		return &Map{entries: entries, index: index}
	case *Fn:
		env := make([]Value, len(t.Env))
		for i, e := range t.Env {
			env[i] = DeepClone(e)
		}
		clone := *t
		clone.Env = env
		return &clone
	default:
		// primitives (Int, Float, Str, Bool, Char, Nil) and identity-bearing
		// values (Var, Atom, Promise, Delay, Volatile, MultiFn, Protocol) are
		// copied by reference: primitives are immutable in Go already, and
		// identity-bearing values must keep their identity across the
		// crossing (spec "Identity vs value").
		return v
	}
}
