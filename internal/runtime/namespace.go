// Package runtime holds the mutable global state isolated behind an
// explicit context object (spec §9 "Global mutable state"): Vars,
// namespaces, the dynamic binding stack, and the threadlocal "thrown"
// slot used to communicate a non-local return out of a nested `try`.
package runtime

import (
	"fmt"

	"github.com/clj-lang/clj/internal/value"
)

// Namespace is a mapping from symbol name to Var, plus an alias table and a
// refer table (spec §3 "Namespace").
type Namespace struct {
	Name    string
	vars    map[string]*value.Var
	aliases map[string]*Namespace
	refers  map[string]*value.Var
}

// NewNamespace creates an empty namespace named name.
func NewNamespace(name string) *Namespace {
	return &Namespace{
		Name:    name,
		vars:    map[string]*value.Var{},
		aliases: map[string]*Namespace{},
		refers:  map[string]*value.Var{},
	}
}

// Intern returns the existing Var for sym, or creates one rooted at nil.
func (ns *Namespace) Intern(sym string) *value.Var {
	if v, ok := ns.vars[sym]; ok {
		return v
	}
	v := value.NewVar(ns.Name, sym, value.NilValue)
	ns.vars[sym] = v
	return v
}

// Lookup resolves sym against this namespace's own vars, then its refer
// table.
func (ns *Namespace) Lookup(sym string) (*value.Var, bool) {
	if v, ok := ns.vars[sym]; ok {
		return v, true
	}
	v, ok := ns.refers[sym]
	return v, ok
}

// Refer makes v visible under name without interning it in ns.
func (ns *Namespace) Refer(name string, v *value.Var) { ns.refers[name] = v }

// AddAlias registers alias as a short name for other.
func (ns *Namespace) AddAlias(alias string, other *Namespace) { ns.aliases[alias] = other }

// ResolveAlias looks up a registered namespace alias.
func (ns *Namespace) ResolveAlias(alias string) (*Namespace, bool) {
	other, ok := ns.aliases[alias]
	return other, ok
}

// Vars returns every directly-interned Var, for iteration (e.g. `ns-map`).
func (ns *Namespace) Vars() map[string]*value.Var { return ns.vars }

// Env is the root runtime environment: the namespace table plus the
// "current namespace" cursor used when resolving unqualified symbols.
type Env struct {
	namespaces map[string]*Namespace
	current    *Namespace
}

// NewEnv creates an Env with a single "user" namespace current.
func NewEnv() *Env {
	e := &Env{namespaces: map[string]*Namespace{}}
	e.current = e.FindOrCreateNamespace("user")
	return e
}

// FindOrCreateNamespace returns the namespace named name, creating it if
// absent.
func (e *Env) FindOrCreateNamespace(name string) *Namespace {
	if ns, ok := e.namespaces[name]; ok {
		return ns
	}
	ns := NewNamespace(name)
	e.namespaces[name] = ns
	return ns
}

// FindNamespace looks up an existing namespace by name.
func (e *Env) FindNamespace(name string) (*Namespace, bool) {
	ns, ok := e.namespaces[name]
	return ns, ok
}

// CurrentNamespace returns the namespace new `def`s and unqualified symbol
// resolutions target.
func (e *Env) CurrentNamespace() *Namespace { return e.current }

// SetCurrentNamespace switches the current-namespace cursor (`in-ns`).
func (e *Env) SetCurrentNamespace(ns *Namespace) { e.current = ns }

// Namespaces returns every namespace known to this Env, for snapshotting.
func (e *Env) Namespaces() map[string]*Namespace { return e.namespaces }

// AllVars flattens every namespace's Var table into one slice — the Var-root
// portion of spec §4.7's GC root set.
func (e *Env) AllVars() []*value.Var {
	var vars []*value.Var
	for _, ns := range e.namespaces {
		for _, v := range ns.Vars() {
			vars = append(vars, v)
		}
	}
	return vars
}

// ResolveVar resolves a possibly-namespace-qualified symbol against ns,
// falling back to alias resolution for the namespace part.
func (e *Env) ResolveVar(ns *Namespace, symNamespace, symName string) (*value.Var, error) {
	if symNamespace == "" {
		if v, ok := ns.Lookup(symName); ok {
			return v, nil
		}
		return nil, fmt.Errorf("unable to resolve symbol: %s in this context", symName)
	}
	target, ok := ns.ResolveAlias(symNamespace)
	if !ok {
		target, ok = e.FindNamespace(symNamespace)
	}
	if !ok {
		return nil, fmt.Errorf("no such namespace: %s", symNamespace)
	}
	v, ok := target.Lookup(symName)
	if !ok {
		return nil, fmt.Errorf("unable to resolve symbol: %s/%s in this context", symNamespace, symName)
	}
	return v, nil
}

// Snapshot is an opaque capture of every Var's root value across every
// namespace, used by compare mode and test isolation (spec §6
// snapshot_vars/restore_vars).
type Snapshot struct {
	roots map[*value.Var]value.Value
	curNS string
}

// Snapshot captures the current root value of every interned Var.
func (e *Env) Snapshot() *Snapshot {
	snap := &Snapshot{roots: map[*value.Var]value.Value{}, curNS: e.current.Name}
	for _, ns := range e.namespaces {
		for _, v := range ns.Vars() {
			snap.roots[v] = v.Root
		}
	}
	return snap
}

// Restore resets every captured Var to its snapshotted root value and
// restores the current-namespace cursor.
func (e *Env) Restore(snap *Snapshot) {
	for v, root := range snap.roots {
		v.Root = root
	}
	if ns, ok := e.namespaces[snap.curNS]; ok {
		e.current = ns
	}
}
