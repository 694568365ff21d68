package support

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ── Constructors ──────────────────────────────────────────────────────────────

// constructor holds metadata about a registered constructor or factory
// method function.
//
// Supported signatures:
//   - func(...) T
//   - func(...) (T, error)
type constructor struct {
	fn           reflect.Value
	returnType   reflect.Type
	returnsError bool
}

func parseConstructor(fn any) (*constructor, error) {
	if fn == nil {
		return nil, fmt.Errorf("constructor cannot be nil")
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %v", t.Kind())
	}

	switch t.NumOut() {
	case 1:
	case 2:
		if !t.Out(1).Implements(errorType) {
			return nil, fmt.Errorf("constructor's second return value must be error, got %v", t.Out(1))
		}
	default:
		return nil, fmt.Errorf("constructor must return (T) or (T, error), got %d return values", t.NumOut())
	}

	return &constructor{fn: v, returnType: t.Out(0), returnsError: t.NumOut() == 2}, nil
}

// ── TypeRegistry ──────────────────────────────────────────────────────────────

// classInfo is what the registry knows about one class name.
type classInfo struct {
	name           string
	typ            reflect.Type
	ctor           *constructor
	factoryMethods map[string]*constructor
}

// TypeRegistry maps class names used in definitions to Go types, their
// constructors and their static factory methods.
//
//	types := support.NewTypeRegistry()
//	types.Register("mail.SMTP", mail.NewSMTP)
//	types.RegisterType("cache.Memory", reflect.TypeOf(&cache.Memory{}))
//	types.RegisterFactoryMethod("cache.Memory", "WithSize", cache.NewMemoryWithSize)
type TypeRegistry struct {
	mu      sync.RWMutex
	classes map[string]*classInfo
	byType  map[reflect.Type]*classInfo
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		classes: make(map[string]*classInfo),
		byType:  make(map[reflect.Type]*classInfo),
	}
}

// Register binds name to the type produced by ctor. Beans of that class are
// built by calling ctor with the definition's constructor arguments.
func (r *TypeRegistry) Register(name string, ctor any) error {
	c, err := parseConstructor(ctor)
	if err != nil {
		return fmt.Errorf("register class %q: %w", name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	info := r.info(name, c.returnType)
	info.ctor = c
	return nil
}

// RegisterType binds name to t. Beans of that class are allocated with
// reflect.New and configured through their properties.
func (r *TypeRegistry) RegisterType(name string, t reflect.Type) error {
	if t == nil {
		return fmt.Errorf("register class %q: type cannot be nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.info(name, t)
	return nil
}

// RegisterFactoryMethod attaches a static factory method to className.
// The class is created from the method's return type if unknown.
func (r *TypeRegistry) RegisterFactoryMethod(className, method string, fn any) error {
	c, err := parseConstructor(fn)
	if err != nil {
		return fmt.Errorf("register factory method %s.%s: %w", className, method, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.classes[className]
	if !ok {
		info = r.info(className, c.returnType)
	}
	if info.factoryMethods == nil {
		info.factoryMethods = make(map[string]*constructor)
	}
	info.factoryMethods[method] = c
	return nil
}

// info returns the entry for name, creating it. Caller holds mu.
func (r *TypeRegistry) info(name string, t reflect.Type) *classInfo {
	info, ok := r.classes[name]
	if !ok {
		info = &classInfo{name: name}
		r.classes[name] = info
	}
	if info.typ != nil && info.typ != t {
		delete(r.byType, info.typ)
	}
	info.typ = t
	r.byType[t] = info
	return info
}

// Lookup returns the type registered under name.
func (r *TypeRegistry) Lookup(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.classes[name]
	if !ok {
		return nil, false
	}
	return info.typ, true
}

// ResolveClass implements beans.ClassResolver.
func (r *TypeRegistry) ResolveClass(name string) (reflect.Type, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("class %q is not registered", name)
	}
	return t, nil
}

// Names returns the registered class names, sorted.
func (r *TypeRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.classes))
	for n := range r.classes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// constructorFor prefers the entry named className and falls back to the
// last entry registered for t.
func (r *TypeRegistry) constructorFor(className string, t reflect.Type) *constructor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if info, ok := r.classes[className]; ok {
		return info.ctor
	}
	if info, ok := r.byType[t]; ok {
		return info.ctor
	}
	return nil
}

func (r *TypeRegistry) factoryMethod(className string, class reflect.Type, method string) *constructor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.classes[className]
	if !ok && class != nil {
		info, ok = r.byType[class]
	}
	if !ok {
		return nil
	}
	return info.factoryMethods[method]
}
