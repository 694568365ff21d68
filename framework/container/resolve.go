package container

import (
	"context"
	"fmt"
	"reflect"
)

// TypeOf returns the reflect.Type of T, including interface types.
//
//	f.Names(container.TypeOf[Greeter]())
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Resolve looks name up in f and asserts it to T.
//
//	svc, err := container.Resolve[*Service](ctx, f, "service")
func Resolve[T any](ctx context.Context, f BeanFactory, name string) (T, error) {
	var zero T
	bean, err := f.GetBean(ctx, name)
	if err != nil {
		return zero, err
	}
	typed, ok := bean.(T)
	if !ok {
		return zero, &TypeMismatchError{Name: name, Required: TypeOf[T](), Actual: reflect.TypeOf(bean)}
	}
	return typed, nil
}

// MustResolve is Resolve that panics on error. Use it in wiring code where
// a missing bean is a programming error.
//
//	cfg := container.MustResolve[*config.Config](ctx, f, "config")
func MustResolve[T any](ctx context.Context, f BeanFactory, name string) T {
	v, err := Resolve[T](ctx, f, name)
	if err != nil {
		panic(fmt.Sprintf("container: resolve [%s]: %v", name, err))
	}
	return v
}

// ResolveAll returns every bean assignable to T keyed by name, including
// FactoryBean products.
func ResolveAll[T any](ctx context.Context, f *Factory, includePrototypes bool) (map[string]T, error) {
	beans, err := f.BeansOfType(ctx, TypeOf[T](), includePrototypes, true)
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(beans))
	for name, b := range beans {
		if typed, ok := b.(T); ok {
			out[name] = typed
		}
	}
	return out, nil
}
