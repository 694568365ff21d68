package beans

import (
	"fmt"
	"reflect"
	"strings"
)

// ── Scope ─────────────────────────────────────────────────────────────────────

// Scope selects how many instances a definition yields per factory.
type Scope string

const (
	// ScopeDefault is "not set". Root definitions treat it as singleton,
	// child definitions inherit the parent's scope.
	ScopeDefault Scope = ""

	// ScopeSingleton yields one shared instance per factory.
	ScopeSingleton Scope = "singleton"

	// ScopePrototype yields a fresh instance on every lookup.
	ScopePrototype Scope = "prototype"
)

// Kind tags the two definition variants.
type Kind int

const (
	KindRoot Kind = iota
	KindChild
)

func (k Kind) String() string {
	if k == KindChild {
		return "child"
	}
	return "root"
}

// ── Values ────────────────────────────────────────────────────────────────────

// Ref is a property or argument value pointing at another bean by name.
//
//	def.WithProperty("repo", beans.Ref{Name: "userRepository"})
type Ref struct {
	Name string
}

func (r Ref) String() string { return "<ref " + r.Name + ">" }

// ArgValue is one constructor or factory-method argument.
// Type optionally names the expected parameter type for diagnostics.
type ArgValue struct {
	Value any
	Type  string
}

// ConstructorArgs holds indexed and generic (ordered) argument values.
// Indexed values win over generic values at the same position.
type ConstructorArgs struct {
	Indexed map[int]ArgValue
	Generic []ArgValue
}

// Len returns the number of argument positions described.
func (a ConstructorArgs) Len() int {
	n := len(a.Generic)
	for i := range a.Indexed {
		if i+1 > n {
			n = i + 1
		}
	}
	return n
}

// IsEmpty reports whether no argument was configured.
func (a ConstructorArgs) IsEmpty() bool {
	return len(a.Indexed) == 0 && len(a.Generic) == 0
}

// Resolve flattens indexed and generic values into positional order.
// Positions not covered by an indexed value consume generic values in order.
func (a ConstructorArgs) Resolve() []ArgValue {
	out := make([]ArgValue, a.Len())
	next := 0
	for i := range out {
		if v, ok := a.Indexed[i]; ok {
			out[i] = v
			continue
		}
		if next < len(a.Generic) {
			out[i] = a.Generic[next]
			next++
		}
	}
	return out
}

func (a ConstructorArgs) clone() ConstructorArgs {
	out := ConstructorArgs{}
	if len(a.Indexed) > 0 {
		out.Indexed = make(map[int]ArgValue, len(a.Indexed))
		for i, v := range a.Indexed {
			out.Indexed[i] = ArgValue{Value: cloneValue(v.Value), Type: v.Type}
		}
	}
	if len(a.Generic) > 0 {
		out.Generic = make([]ArgValue, len(a.Generic))
		for i, v := range a.Generic {
			out.Generic[i] = ArgValue{Value: cloneValue(v.Value), Type: v.Type}
		}
	}
	return out
}

// ── Definition ────────────────────────────────────────────────────────────────

// Definition describes how to build a bean.
//
// It is a tagged union over two variants. A root definition is complete on
// its own. A child definition names a parent and records only what it
// overrides; its effective configuration is computed by Merge.
//
// Definitions are built with the fluent With* setters during startup and
// treated as read-only once registered.
type Definition struct {
	kind       Kind
	parentName string

	class     reflect.Type
	className string

	scope    Scope
	lazyInit *bool
	abstract *bool

	properties PropertyValues
	args       ConstructorArgs

	factoryMethod string
	factoryBean   string
	initMethod    string
	destroyMethod string
	dependsOn     []string

	resource string
}

// NewRoot creates a root definition for a resolved type.
//
//	def := beans.NewRoot(reflect.TypeOf(&Foo{})).WithProperty("name", "foo")
func NewRoot(class reflect.Type) *Definition {
	return &Definition{kind: KindRoot, class: class}
}

// NewRootNamed creates a root definition whose class is resolved later
// through a class name known to the creation strategy.
func NewRootNamed(className string) *Definition {
	return &Definition{kind: KindRoot, className: className}
}

// NewChild creates a child definition inheriting from parentName.
func NewChild(parentName string) *Definition {
	return &Definition{kind: KindChild, parentName: parentName}
}

// ── Fluent setters ────────────────────────────────────────────────────────────

func (d *Definition) WithClass(class reflect.Type) *Definition {
	d.class = class
	return d
}

func (d *Definition) WithClassName(name string) *Definition {
	d.className = name
	return d
}

func (d *Definition) WithScope(s Scope) *Definition {
	d.scope = s
	return d
}

func (d *Definition) WithLazyInit(lazy bool) *Definition {
	d.lazyInit = &lazy
	return d
}

func (d *Definition) WithAbstract(abstract bool) *Definition {
	d.abstract = &abstract
	return d
}

// WithProperty sets a property value, replacing an earlier value for the
// same name in place.
func (d *Definition) WithProperty(name string, value any) *Definition {
	d.properties.Add(name, value)
	return d
}

// WithRef is shorthand for WithProperty(name, Ref{Name: bean}).
func (d *Definition) WithRef(name, bean string) *Definition {
	return d.WithProperty(name, Ref{Name: bean})
}

// WithConstructorArg appends a generic (positional) argument.
func (d *Definition) WithConstructorArg(value any) *Definition {
	d.args.Generic = append(d.args.Generic, ArgValue{Value: value})
	return d
}

// WithIndexedArg binds an argument to an explicit position.
func (d *Definition) WithIndexedArg(index int, value any) *Definition {
	if d.args.Indexed == nil {
		d.args.Indexed = make(map[int]ArgValue)
	}
	d.args.Indexed[index] = ArgValue{Value: value}
	return d
}

func (d *Definition) WithFactoryMethod(name string) *Definition {
	d.factoryMethod = name
	return d
}

// WithFactoryBean selects an instance factory: the factory method is
// invoked on the named bean rather than statically on the class.
func (d *Definition) WithFactoryBean(name string) *Definition {
	d.factoryBean = name
	return d
}

func (d *Definition) WithInitMethod(name string) *Definition {
	d.initMethod = name
	return d
}

func (d *Definition) WithDestroyMethod(name string) *Definition {
	d.destroyMethod = name
	return d
}

// WithDependsOn names beans that must be initialised before this one.
func (d *Definition) WithDependsOn(names ...string) *Definition {
	d.dependsOn = append(d.dependsOn, names...)
	return d
}

func (d *Definition) WithResourceDescription(desc string) *Definition {
	d.resource = desc
	return d
}

// ── Accessors ─────────────────────────────────────────────────────────────────

func (d *Definition) Kind() Kind          { return d.kind }
func (d *Definition) ParentName() string  { return d.parentName }
func (d *Definition) Class() reflect.Type { return d.class }
func (d *Definition) ClassName() string   { return d.className }
func (d *Definition) HasClass() bool      { return d.class != nil }
func (d *Definition) Scope() Scope        { return d.scope }

// IsSingleton reports the effective scope; an unset scope is singleton.
func (d *Definition) IsSingleton() bool { return d.scope != ScopePrototype }

func (d *Definition) IsPrototype() bool { return d.scope == ScopePrototype }
func (d *Definition) IsLazyInit() bool  { return d.lazyInit != nil && *d.lazyInit }
func (d *Definition) IsAbstract() bool  { return d.abstract != nil && *d.abstract }

func (d *Definition) Properties() *PropertyValues { return &d.properties }
func (d *Definition) ConstructorArgs() ConstructorArgs {
	return d.args
}
func (d *Definition) FactoryMethod() string { return d.factoryMethod }
func (d *Definition) FactoryBean() string   { return d.factoryBean }
func (d *Definition) InitMethod() string    { return d.initMethod }
func (d *Definition) DestroyMethod() string { return d.destroyMethod }
func (d *Definition) DependsOn() []string   { return append([]string(nil), d.dependsOn...) }
func (d *Definition) ResourceDescription() string {
	return d.resource
}

// TypeName returns the resolved type name, or the deferred class name.
func (d *Definition) TypeName() string {
	if d.class != nil {
		return d.class.String()
	}
	return d.className
}

// ResolveClass fills in the class from the deferred class name using
// resolver. It is a no-op when the class is already known.
func (d *Definition) ResolveClass(resolver ClassResolver) error {
	if d.class != nil || d.className == "" {
		return nil
	}
	t, err := resolver.ResolveClass(d.className)
	if err != nil {
		return err
	}
	d.class = t
	return nil
}

// ClassResolver maps class names to types.
type ClassResolver interface {
	ResolveClass(name string) (reflect.Type, error)
}

func (d *Definition) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s definition [class=%s; scope=%s; abstract=%t; lazyInit=%t",
		d.kind, d.TypeName(), d.effectiveScope(), d.IsAbstract(), d.IsLazyInit())
	if d.kind == KindChild {
		fmt.Fprintf(&b, "; parent=%s", d.parentName)
	}
	if d.factoryBean != "" {
		fmt.Fprintf(&b, "; factoryBean=%s", d.factoryBean)
	}
	if d.factoryMethod != "" {
		fmt.Fprintf(&b, "; factoryMethod=%s", d.factoryMethod)
	}
	b.WriteString("]")
	if d.resource != "" {
		fmt.Fprintf(&b, " defined in %s", d.resource)
	}
	return b.String()
}

func (d *Definition) effectiveScope() Scope {
	if d.scope == ScopeDefault {
		return ScopeSingleton
	}
	return d.scope
}
