package aop

import (
	"fmt"
	"reflect"
	"sort"
)

// Proxy dispatches calls for a fixed interface set through the advice
// chain configured when it was built. It is safe for concurrent use.
type Proxy struct {
	target     any
	interfaces []reflect.Type
	methods    map[string]*dispatch
}

type dispatch struct {
	iface  reflect.Type
	method reflect.Method
	chain  []MethodInterceptor
}

// Invoke calls method with args. Results exclude a trailing error, which
// is returned as err instead.
func (p *Proxy) Invoke(method string, args ...any) ([]any, error) {
	d, ok := p.methods[method]
	if !ok {
		return nil, &UnknownMethodError{Method: method}
	}
	inv := &Invocation{
		Method:    method,
		Interface: d.iface,
		Args:      args,
		Target:    p.target,
		proxy:     p,
		dispatch:  d,
	}
	return inv.Proceed()
}

// Implements reports whether iface is in the proxied set.
func (p *Proxy) Implements(iface reflect.Type) bool {
	for _, i := range p.interfaces {
		if i == iface {
			return true
		}
	}
	return false
}

// Interfaces returns the proxied interfaces.
func (p *Proxy) Interfaces() []reflect.Type {
	return append([]reflect.Type(nil), p.interfaces...)
}

// Methods returns the dispatchable method names, sorted.
func (p *Proxy) Methods() []string {
	out := make([]string, 0, len(p.methods))
	for name := range p.methods {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Target returns the invocation target, or nil.
func (p *Proxy) Target() any { return p.target }

// Call invokes method and returns its first result as T.
func Call[T any](p *Proxy, method string, args ...any) (T, error) {
	var zero T
	results, err := p.Invoke(method, args...)
	if err != nil {
		return zero, err
	}
	if len(results) == 0 || results[0] == nil {
		return zero, nil
	}
	v, ok := results[0].(T)
	if !ok {
		return zero, fmt.Errorf("aop: %s returned %T, not %v", method, results[0], reflect.TypeOf((*T)(nil)).Elem())
	}
	return v, nil
}

// ── Invocation ────────────────────────────────────────────────────────────────

// Invocation is one call travelling down the advice chain.
type Invocation struct {
	Method    string
	Interface reflect.Type
	Args      []any
	Target    any

	proxy    *Proxy
	dispatch *dispatch
	index    int
}

// Proxy returns the proxy the call was made on.
func (inv *Invocation) Proxy() *Proxy { return inv.proxy }

// Proceed runs the next interceptor, or the target when the chain is done.
func (inv *Invocation) Proceed() ([]any, error) {
	if inv.index < len(inv.dispatch.chain) {
		next := inv.dispatch.chain[inv.index]
		inv.index++
		return next.Invoke(inv)
	}
	return inv.invokeTarget()
}

func (inv *Invocation) invokeTarget() ([]any, error) {
	if inv.Target == nil {
		return nil, &NoTargetError{Method: inv.Method}
	}
	fn := reflect.ValueOf(inv.Target).MethodByName(inv.Method)
	if !fn.IsValid() {
		return nil, &UnknownMethodError{Method: inv.Method}
	}
	in, err := arguments(fn.Type(), inv.Args)
	if err != nil {
		return nil, fmt.Errorf("aop: %s: %w", inv.Method, err)
	}
	return splitResults(fn.Call(in))
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func arguments(ft reflect.Type, args []any) ([]reflect.Value, error) {
	n := ft.NumIn()
	if ft.IsVariadic() {
		if len(args) < n-1 {
			return nil, fmt.Errorf("want at least %d arguments, got %d", n-1, len(args))
		}
	} else if len(args) != n {
		return nil, fmt.Errorf("want %d arguments, got %d", n, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		if ft.IsVariadic() && i >= n-1 {
			pt = ft.In(n - 1).Elem()
		} else {
			pt = ft.In(i)
		}
		v, err := argument(a, pt)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}
	return in, nil
}

func argument(a any, t reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(a)
	switch {
	case v.Type().AssignableTo(t):
		return v, nil
	case v.Type().ConvertibleTo(t):
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %v as %v", v.Type(), t)
}

func splitResults(out []reflect.Value) ([]any, error) {
	var err error
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if e := out[n-1].Interface(); e != nil {
			err = e.(error)
		}
		out = out[:n-1]
	}
	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, err
}
