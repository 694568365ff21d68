package beans

import (
	"sort"
	"strings"
)

// ValidationError is a bag of structural problems found in a definition,
// keyed by the offending field.
type ValidationError struct {
	Bag map[string][]string `json:"errors"`
}

func (e *ValidationError) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if any problem was recorded.
func (e *ValidationError) Has() bool { return len(e.Bag) > 0 }

// First returns the first problem recorded for field.
func (e *ValidationError) First(field string) string {
	if msgs, ok := e.Bag[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Bag))
	for f := range e.Bag {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Bag[f], "; "))
	}
	return "invalid bean definition: " + strings.Join(parts, ", ")
}

// Validate performs structural checks. It returns nil or a *ValidationError.
func (d *Definition) Validate() error {
	errs := &ValidationError{}

	switch d.kind {
	case KindChild:
		if d.parentName == "" {
			errs.add("parent", "child definition must name a parent")
		}
	case KindRoot:
		if !d.IsAbstract() && d.class == nil && d.className == "" && d.factoryBean == "" {
			errs.add("class", "root definition must declare a class, a class name or a factory bean")
		}
	}

	if d.IsLazyInit() && d.scope == ScopePrototype {
		errs.add("lazyInit", "lazy initialization only applies to singletons")
	}
	if d.IsAbstract() && d.factoryMethod != "" && !d.args.IsEmpty() {
		errs.add("factoryMethod", "abstract definition cannot bind constructor arguments to a factory method")
	}
	if d.factoryBean != "" && d.factoryMethod == "" {
		errs.add("factoryBean", "factory bean requires a factory method")
	}
	for i := range d.args.Indexed {
		if i < 0 {
			errs.add("constructorArgs", "argument index must not be negative")
			break
		}
	}
	for _, pv := range d.properties.list {
		if pv.Name == "" {
			errs.add("properties", "property name must not be empty")
		}
		if inner, ok := pv.Value.(*Definition); ok {
			if err := inner.Validate(); err != nil {
				errs.add("properties", "inner bean for "+pv.Name+": "+err.Error())
			}
		}
	}

	if errs.Has() {
		return errs
	}
	return nil
}
