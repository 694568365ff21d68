package beans

// PropertyValue is a single name → value binding. Value is a literal, a Ref
// or a nested *Definition (inner bean).
type PropertyValue struct {
	Name  string
	Value any
}

// PropertyValues is an ordered set of property bindings. Iteration follows
// the order in which names were first added.
type PropertyValues struct {
	list []PropertyValue
}

// Add binds name to value. An existing binding keeps its position and has
// its value replaced.
func (p *PropertyValues) Add(name string, value any) {
	for i := range p.list {
		if p.list[i].Name == name {
			p.list[i].Value = value
			return
		}
	}
	p.list = append(p.list, PropertyValue{Name: name, Value: value})
}

// Get returns the value bound to name.
func (p *PropertyValues) Get(name string) (any, bool) {
	for _, pv := range p.list {
		if pv.Name == name {
			return pv.Value, true
		}
	}
	return nil, false
}

// Contains reports whether name is bound.
func (p *PropertyValues) Contains(name string) bool {
	_, ok := p.Get(name)
	return ok
}

// Remove drops the binding for name, if any.
func (p *PropertyValues) Remove(name string) {
	for i := range p.list {
		if p.list[i].Name == name {
			p.list = append(p.list[:i], p.list[i+1:]...)
			return
		}
	}
}

// All returns a copy of the bindings in order.
func (p *PropertyValues) All() []PropertyValue {
	return append([]PropertyValue(nil), p.list...)
}

// Len returns the number of bindings.
func (p *PropertyValues) Len() int { return len(p.list) }

// AddAll overlays other onto p: names in other win.
func (p *PropertyValues) AddAll(other *PropertyValues) {
	for _, pv := range other.list {
		p.Add(pv.Name, cloneValue(pv.Value))
	}
}

func (p *PropertyValues) clone() PropertyValues {
	if len(p.list) == 0 {
		return PropertyValues{}
	}
	out := PropertyValues{list: make([]PropertyValue, len(p.list))}
	for i, pv := range p.list {
		out.list[i] = PropertyValue{Name: pv.Name, Value: cloneValue(pv.Value)}
	}
	return out
}

// cloneValue deep-copies the value kinds the model owns. Literals are
// shared; they are never mutated by the container.
func cloneValue(v any) any {
	switch x := v.(type) {
	case *Definition:
		return x.Clone()
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = cloneValue(x[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}
