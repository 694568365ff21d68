package support

import (
	"context"
	"fmt"
	"reflect"
	"unicode"

	"github.com/km-arc/go-beans/framework/beans"
	"github.com/km-arc/go-beans/framework/container"
)

// Instantiator is the default container.CreationStrategy. It builds beans
// from registered constructors, factory methods or plain allocation, then
// sets properties and runs the initialisation callbacks.
//
//	types := support.NewTypeRegistry()
//	types.Register("service", NewService)
//	f := container.New(support.NewInstantiator(types))
type Instantiator struct {
	types *TypeRegistry
}

// NewInstantiator creates a strategy resolving class names through types.
func NewInstantiator(types *TypeRegistry) *Instantiator {
	if types == nil {
		types = NewTypeRegistry()
	}
	return &Instantiator{types: types}
}

// Types returns the class registry.
func (in *Instantiator) Types() *TypeRegistry { return in.types }

// ResolveClass implements beans.ClassResolver.
func (in *Instantiator) ResolveClass(name string) (reflect.Type, error) {
	return in.types.ResolveClass(name)
}

// CreateBean implements container.CreationStrategy.
func (in *Instantiator) CreateBean(ctx context.Context, f *container.Factory, name string, def *beans.Definition, args []any) (any, error) {
	log := f.Logger().WithField("bean", name)

	for _, dep := range def.DependsOn() {
		if _, err := f.GetBean(ctx, dep); err != nil {
			return nil, fmt.Errorf("depends-on bean '%s': %w", dep, err)
		}
	}
	if !def.HasClass() && def.ClassName() != "" && def.FactoryBean() == "" {
		return nil, fmt.Errorf("class %q is not registered", def.ClassName())
	}

	log.Debug("instantiating bean")
	v, err := in.instantiate(ctx, f, name, def, args)
	if err != nil {
		return nil, err
	}
	if err := in.populate(ctx, f, name, def, v); err != nil {
		return nil, err
	}
	return in.initialize(ctx, f, name, def, v.Interface())
}

// DestroyBean implements container.CreationStrategy.
func (in *Instantiator) DestroyBean(f *container.Factory, name string, bean any) error {
	d, disposable := bean.(DisposableBean)
	if disposable {
		if err := d.Destroy(); err != nil {
			return err
		}
	}
	def, err := f.MergedDefinition(name, false)
	if err != nil || def.DestroyMethod() == "" {
		return nil
	}
	if disposable && def.DestroyMethod() == "Destroy" {
		return nil
	}
	return callNoArg(bean, def.DestroyMethod())
}

// ── Instantiation ─────────────────────────────────────────────────────────────

func (in *Instantiator) instantiate(ctx context.Context, f *container.Factory, name string, def *beans.Definition, args []any) (reflect.Value, error) {
	if args == nil {
		resolved, err := in.constructorArgs(ctx, f, name, def)
		if err != nil {
			return reflect.Value{}, err
		}
		args = resolved
	}

	switch {
	case def.FactoryBean() != "":
		target, err := f.GetBean(ctx, def.FactoryBean())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("factory bean '%s': %w", def.FactoryBean(), err)
		}
		m := reflect.ValueOf(target).MethodByName(def.FactoryMethod())
		if !m.IsValid() {
			return reflect.Value{}, fmt.Errorf("factory bean '%s' (%T) has no method %s", def.FactoryBean(), target, def.FactoryMethod())
		}
		c, err := parseConstructor(m.Interface())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("factory method %s: %w", def.FactoryMethod(), err)
		}
		return call(f, c, args)

	case def.FactoryMethod() != "":
		c := in.types.factoryMethod(def.ClassName(), def.Class(), def.FactoryMethod())
		if c == nil {
			return reflect.Value{}, fmt.Errorf("no factory method %s registered for class %s", def.FactoryMethod(), def.TypeName())
		}
		return call(f, c, args)
	}

	if c := in.types.constructorFor(def.ClassName(), def.Class()); c != nil {
		return call(f, c, args)
	}
	if len(args) > 0 {
		return reflect.Value{}, fmt.Errorf("class %s has constructor arguments but no registered constructor", def.TypeName())
	}
	if def.Class().Kind() == reflect.Ptr {
		return reflect.New(def.Class().Elem()), nil
	}
	return reflect.New(def.Class()).Elem(), nil
}

func (in *Instantiator) constructorArgs(ctx context.Context, f *container.Factory, name string, def *beans.Definition) ([]any, error) {
	resolved := def.ConstructorArgs().Resolve()
	out := make([]any, len(resolved))
	for i, a := range resolved {
		v, err := in.resolveValue(ctx, f, fmt.Sprintf("%s#arg%d", name, i), a.Value)
		if err != nil {
			return nil, fmt.Errorf("constructor argument %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// call invokes c with args converted to its parameter types.
func call(f *container.Factory, c *constructor, args []any) (reflect.Value, error) {
	ft := c.fn.Type()
	n := ft.NumIn()
	if (!ft.IsVariadic() && len(args) != n) || (ft.IsVariadic() && len(args) < n-1) {
		return reflect.Value{}, fmt.Errorf("%v expects %d arguments, got %d", ft, n, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		if ft.IsVariadic() && i >= n-1 {
			pt = ft.In(n - 1).Elem()
		} else {
			pt = ft.In(i)
		}
		v, err := convert(f, a, pt)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}

	out := c.fn.Call(in)
	if c.returnsError && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	return out[0], nil
}

// ── Properties ────────────────────────────────────────────────────────────────

func (in *Instantiator) populate(ctx context.Context, f *container.Factory, name string, def *beans.Definition, bean reflect.Value) error {
	for _, pv := range def.Properties().All() {
		value, err := in.resolveValue(ctx, f, name+"#"+pv.Name, pv.Value)
		if err != nil {
			return fmt.Errorf("property '%s': %w", pv.Name, err)
		}
		if err := setProperty(f, bean, pv.Name, value); err != nil {
			return fmt.Errorf("property '%s': %w", pv.Name, err)
		}
	}
	return nil
}

// resolveValue turns references and inner definitions into instances.
func (in *Instantiator) resolveValue(ctx context.Context, f *container.Factory, innerName string, value any) (any, error) {
	switch v := value.(type) {
	case beans.Ref:
		return f.GetBean(ctx, v.Name)
	case *beans.Definition:
		def := v
		if def.Kind() == beans.KindChild {
			parent, err := f.MergedDefinition(def.ParentName(), true)
			if err != nil {
				return nil, err
			}
			def = beans.Merge(parent, def)
		}
		if !def.HasClass() && def.ClassName() != "" {
			def = def.Clone()
			if err := def.ResolveClass(in.types); err != nil {
				return nil, err
			}
		}
		return in.CreateBean(ctx, f, innerName, def, nil)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			r, err := in.resolveValue(ctx, f, fmt.Sprintf("%s[%d]", innerName, i), item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			r, err := in.resolveValue(ctx, f, innerName+"["+k+"]", item)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	}
	return value, nil
}

// setProperty prefers a SetXxx method and falls back to the exported field
// tagged `bean:"name"` or named Xxx.
func setProperty(f *container.Factory, bean reflect.Value, name string, value any) error {
	exported := exportName(name)

	if m := bean.MethodByName("Set" + exported); m.IsValid() && m.Type().NumIn() == 1 {
		arg, err := convert(f, value, m.Type().In(0))
		if err != nil {
			return err
		}
		out := m.Call([]reflect.Value{arg})
		if len(out) > 0 {
			if err, ok := out[len(out)-1].Interface().(error); ok && err != nil {
				return err
			}
		}
		return nil
	}

	target := bean
	for target.Kind() == reflect.Ptr {
		if target.IsNil() {
			return fmt.Errorf("cannot set property on nil %v", target.Type())
		}
		target = target.Elem()
	}
	if target.Kind() != reflect.Struct {
		return fmt.Errorf("%v has no property '%s'", bean.Type(), name)
	}

	field := fieldFor(target, name, exported)
	if !field.IsValid() || !field.CanSet() {
		return fmt.Errorf("%v has no writable property '%s'", bean.Type(), name)
	}
	v, err := convert(f, value, field.Type())
	if err != nil {
		return err
	}
	field.Set(v)
	return nil
}

func fieldFor(target reflect.Value, name, exported string) reflect.Value {
	t := target.Type()
	for i := 0; i < t.NumField(); i++ {
		if tag, ok := t.Field(i).Tag.Lookup("bean"); ok && tag == name {
			return target.Field(i)
		}
	}
	return target.FieldByName(exported)
}

func exportName(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// ── Initialisation ────────────────────────────────────────────────────────────

func (in *Instantiator) initialize(ctx context.Context, f *container.Factory, name string, def *beans.Definition, bean any) (any, error) {
	if a, ok := bean.(BeanNameAware); ok {
		a.SetBeanName(name)
	}
	if a, ok := bean.(FactoryAware); ok {
		a.SetBeanFactory(f)
	}

	processors := f.BeanPostProcessors()
	for _, p := range processors {
		next, err := p.BeforeInitialization(ctx, name, bean)
		if err != nil {
			return nil, fmt.Errorf("post-processor %T before initialization: %w", p, err)
		}
		if next != nil {
			bean = next
		}
	}

	ib, initializing := bean.(InitializingBean)
	if initializing {
		if err := ib.AfterPropertiesSet(); err != nil {
			return nil, fmt.Errorf("after properties set: %w", err)
		}
	}
	if m := def.InitMethod(); m != "" && !(initializing && m == "AfterPropertiesSet") {
		if err := callNoArg(bean, m); err != nil {
			return nil, fmt.Errorf("init method %s: %w", m, err)
		}
	}

	for _, p := range processors {
		next, err := p.AfterInitialization(ctx, name, bean)
		if err != nil {
			return nil, fmt.Errorf("post-processor %T after initialization: %w", p, err)
		}
		if next != nil {
			bean = next
		}
	}
	return bean, nil
}

// callNoArg invokes the named method, which may return nothing or an error.
func callNoArg(bean any, method string) error {
	m := reflect.ValueOf(bean).MethodByName(method)
	if !m.IsValid() {
		return fmt.Errorf("%T has no method %s", bean, method)
	}
	if m.Type().NumIn() != 0 {
		return fmt.Errorf("method %s must take no arguments", method)
	}
	out := m.Call(nil)
	if len(out) > 0 {
		if err, ok := out[len(out)-1].Interface().(error); ok && err != nil {
			return err
		}
	}
	return nil
}
