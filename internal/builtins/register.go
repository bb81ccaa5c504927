// Package builtins registers clojure.core's built-in functions into a
// runtime Env: arithmetic, comparisons, collection operations, atoms,
// sequence primitives, and the ex-info/protocol support functions the
// analyzer's lowered special forms rely on.
package builtins

import (
	"fmt"

	"github.com/clj-lang/clj/internal/runtime"
	"github.com/clj-lang/clj/internal/value"
)

// entry is one builtin registration: its core-namespace name and
// implementation.
type entry struct {
	name string
	fn   value.BuiltinFunc
}

// Install interns every built-in function into ns (normally
// "clojure.core"), panicking on a duplicate name — a registration bug, not
// a runtime condition.
func Install(env *runtime.Env, ns *runtime.Namespace) {
	seen := map[string]bool{}
	register := func(entries []entry) {
		for _, e := range entries {
			if seen[e.name] {
				panic(fmt.Sprintf("builtins: duplicate registration for %s", e.name))
			}
			seen[e.name] = true
			v := ns.Intern(e.name)
			if err := v.BindRoot(value.NewBuiltin(e.name, e.fn)); err != nil {
				panic(err)
			}
		}
	}

	register(arithmeticEntries())
	register(comparisonEntries())
	register(predicateEntries())
	register(seqEntries())
	register(identityEntries())
	register(stringEntries())
	register(regexEntries())
	register(metaEntries(env))
	register(miscEntries(env))
	register(wasmEntries())
}
