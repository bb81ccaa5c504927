package value

import "fmt"

// MultiFn is a function whose body is selected at call time by an explicit
// dispatch function, result looked up against a method table (spec §3
// "Multimethod", §4.4 defmulti/defmethod).
type MultiFn struct {
	Name       string
	DispatchFn *Fn
	Methods    *Map // dispatch-value (or the :default keyword) -> *Fn
	Prefers    map[string]map[string]bool // dispatch-value.String() -> preferred-over set
}

func (*MultiFn) TypeName() string { return "MultiFn" }
func (m *MultiFn) String() string { return "#<MultiFn: " + m.Name + ">" }

// NewMultiFn creates an empty MultiFn dispatching via dispatchFn.
func NewMultiFn(name string, dispatchFn *Fn) *MultiFn {
	return &MultiFn{Name: name, DispatchFn: dispatchFn, Methods: EmptyMap}
}

// DefaultDispatchVal is the dispatch-value matched by a `:default` method.
var DefaultDispatchVal Value = InternKeyword("", "default")

// AddMethod installs or replaces the method for dispatchVal.
func (m *MultiFn) AddMethod(dispatchVal Value, fn *Fn) {
	m.Methods = m.Methods.Assoc(dispatchVal, fn)
}

// PreferMethod records that x should be preferred over y when both match.
func (m *MultiFn) PreferMethod(x, y Value) {
	if m.Prefers == nil {
		m.Prefers = map[string]map[string]bool{}
	}
	xs := x.String()
	if m.Prefers[xs] == nil {
		m.Prefers[xs] = map[string]bool{}
	}
	m.Prefers[xs][y.String()] = true
}

// Resolve looks up the method for dispatchVal, falling back to :default.
// When exactly one dispatch value is requested this is a plain lookup;
// preference resolution (spec §4.4's preference DAG) only matters when a
// caller pre-filters multiple candidate dispatch values — exposed here via
// ResolveAmbiguous for completeness.
func (m *MultiFn) Resolve(dispatchVal Value) (*Fn, bool) {
	if fn, ok := m.Methods.Get(dispatchVal); ok {
		return fn.(*Fn), true
	}
	if fn, ok := m.Methods.Get(DefaultDispatchVal); ok {
		return fn.(*Fn), true
	}
	return nil, false
}

// ResolveAmbiguous picks among multiple matching dispatch values using the
// preference DAG, returning an error if none is preferred over the others.
func (m *MultiFn) ResolveAmbiguous(candidates []Value) (*Fn, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no matching method")
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if m.prefers(c.String(), best.String()) {
			best = c
		}
	}
	for _, c := range candidates {
		if c.String() == best.String() {
			continue
		}
		if !m.prefers(best.String(), c.String()) {
			return nil, fmt.Errorf("multiple methods match dispatch value and no preference is declared between %s and %s", best, c)
		}
	}
	fn, _ := m.Methods.Get(best)
	return fn.(*Fn), nil
}

func (m *MultiFn) prefers(x, y string) bool {
	return m.Prefers != nil && m.Prefers[x] != nil && m.Prefers[x][y]
}

// Protocol is a set of method signatures dispatched by the type of the
// first argument (spec §3 "Protocol").
type Protocol struct {
	Name    string
	Methods []string
	// Impls maps a concrete TypeName() -> method name -> implementation.
	Impls map[string]map[string]*Fn
}

func (*Protocol) TypeName() string { return "Protocol" }
func (p *Protocol) String() string { return "#<Protocol: " + p.Name + ">" }

// NewProtocol creates an empty Protocol declaring the given method names.
func NewProtocol(name string, methods []string) *Protocol {
	return &Protocol{Name: name, Methods: methods, Impls: map[string]map[string]*Fn{}}
}

// Extend registers method implementations for typeName.
func (p *Protocol) Extend(typeName string, methods map[string]*Fn) {
	if p.Impls[typeName] == nil {
		p.Impls[typeName] = map[string]*Fn{}
	}
	for name, fn := range methods {
		p.Impls[typeName][name] = fn
	}
}

// Resolve finds the implementation of method for a value of the given
// runtime type name.
func (p *Protocol) Resolve(typeName, method string) (*Fn, bool) {
	impls, ok := p.Impls[typeName]
	if !ok {
		return nil, false
	}
	fn, ok := impls[method]
	return fn, ok
}

// ProtocolFn is the callable Value bound to a protocol method's name (e.g.
// the `area` symbol after `(defprotocol P (area [x]))`), dispatching on the
// runtime type of its first argument.
type ProtocolFn struct {
	Protocol *Protocol
	Method   string
}

func (*ProtocolFn) TypeName() string { return "ProtocolFn" }
func (pf *ProtocolFn) String() string {
	return "#<ProtocolFn: " + pf.Protocol.Name + "/" + pf.Method + ">"
}

// Dispatch resolves and returns the implementation for the type of self.
func (pf *ProtocolFn) Dispatch(self Value) (*Fn, error) {
	typeName := self.TypeName()
	if fn, ok := pf.Protocol.Resolve(typeName, pf.Method); ok {
		return fn, nil
	}
	return nil, fmt.Errorf("no implementation of method %s found for type %s", pf.Method, typeName)
}
