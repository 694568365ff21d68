package aop

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/samber/lo"
)

// ── Interface registry ────────────────────────────────────────────────────────

// Go cannot enumerate the interfaces a type satisfies, so the candidates
// for NewProxyFactory without an explicit list come from DeclareInterface.
var declared struct {
	mu   sync.RWMutex
	list []reflect.Type
}

// InterfaceOf returns the reflect.Type of interface T.
func InterfaceOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// DeclareInterface makes t a proxy candidate for every target implementing it.
func DeclareInterface(t reflect.Type) error {
	if t == nil || t.Kind() != reflect.Interface {
		return fmt.Errorf("aop: %v is not an interface type", t)
	}
	declared.mu.Lock()
	defer declared.mu.Unlock()
	if !lo.Contains(declared.list, t) {
		declared.list = append(declared.list, t)
	}
	return nil
}

// DeclaredInterfaces returns the registered candidates in declaration order.
func DeclaredInterfaces() []reflect.Type {
	declared.mu.RLock()
	defer declared.mu.RUnlock()
	return append([]reflect.Type(nil), declared.list...)
}

// ── ProxyFactory ──────────────────────────────────────────────────────────────

// ProxyFactory holds the configuration proxies are built from. Changes
// only affect proxies created by later GetProxy calls.
type ProxyFactory struct {
	mu         sync.RWMutex
	target     any
	interfaces []reflect.Type
	advisors   []Advisor
}

// NewProxyFactory proxies target for every candidate interface its type
// implements. With no candidates the declared interfaces are used.
func NewProxyFactory(target any, candidates ...reflect.Type) *ProxyFactory {
	if len(candidates) == 0 {
		candidates = DeclaredInterfaces()
	}
	pf := &ProxyFactory{target: target}
	if target == nil {
		return pf
	}
	t := reflect.TypeOf(target)
	pf.interfaces = lo.Uniq(lo.Filter(candidates, func(c reflect.Type, _ int) bool {
		return c != nil && c.Kind() == reflect.Interface && t.Implements(c)
	}))
	return pf
}

// NewInterfaceProxyFactory creates a factory without a target. Its advice
// must handle every call, since there is nothing to delegate to.
func NewInterfaceProxyFactory(ifaces ...reflect.Type) (*ProxyFactory, error) {
	pf := &ProxyFactory{}
	for _, i := range ifaces {
		if err := pf.AddInterface(i); err != nil {
			return nil, err
		}
	}
	return pf, nil
}

// AddInterface adds t to the proxied set.
func (pf *ProxyFactory) AddInterface(t reflect.Type) error {
	if t == nil || t.Kind() != reflect.Interface {
		return fmt.Errorf("aop: %v is not an interface type", t)
	}
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if pf.target != nil && !reflect.TypeOf(pf.target).Implements(t) {
		return &NotImplementedError{Target: reflect.TypeOf(pf.target), Interface: t}
	}
	if !lo.Contains(pf.interfaces, t) {
		pf.interfaces = append(pf.interfaces, t)
	}
	return nil
}

// RemoveInterface drops t from the proxied set.
func (pf *ProxyFactory) RemoveInterface(t reflect.Type) bool {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	before := len(pf.interfaces)
	pf.interfaces = lo.Without(pf.interfaces, t)
	return len(pf.interfaces) != before
}

// Interfaces returns the proxied interfaces.
func (pf *ProxyFactory) Interfaces() []reflect.Type {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	return append([]reflect.Type(nil), pf.interfaces...)
}

// AddAdvice appends advice applying to every method. The first advice
// added is the outermost.
func (pf *ProxyFactory) AddAdvice(advice any) error {
	return pf.AddAdvisor(NewAdvisor(advice))
}

// AddAdvisor appends a.
func (pf *ProxyFactory) AddAdvisor(a Advisor) error {
	if _, err := interceptorFor(a.Advice); err != nil {
		return err
	}
	pf.mu.Lock()
	defer pf.mu.Unlock()
	pf.advisors = append(pf.advisors, a)
	return nil
}

// RemoveAdvice removes the first advisor carrying advice. Only comparable
// advice values can be found; use RemoveAdvisor for function adapters.
func (pf *ProxyFactory) RemoveAdvice(advice any) bool {
	if advice == nil || !reflect.TypeOf(advice).Comparable() {
		return false
	}
	pf.mu.Lock()
	defer pf.mu.Unlock()
	for i, a := range pf.advisors {
		if sameAdvice(a.Advice, advice) {
			pf.advisors = append(pf.advisors[:i], pf.advisors[i+1:]...)
			return true
		}
	}
	return false
}

// sameAdvice compares two advice values of the same dynamic type. A
// comparable type can still hold an uncomparable value in an interface
// field; such values never match.
func sameAdvice(a, b any) (same bool) {
	if a == nil || reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// RemoveAdvisor removes the advisor at index.
func (pf *ProxyFactory) RemoveAdvisor(index int) error {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if index < 0 || index >= len(pf.advisors) {
		return fmt.Errorf("aop: advisor index %d out of range [0,%d)", index, len(pf.advisors))
	}
	pf.advisors = append(pf.advisors[:index], pf.advisors[index+1:]...)
	return nil
}

// Advisors returns the advisor chain.
func (pf *ProxyFactory) Advisors() []Advisor {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	return append([]Advisor(nil), pf.advisors...)
}

// SetTarget replaces the invocation target. It must implement every
// proxied interface; nil removes the target.
func (pf *ProxyFactory) SetTarget(target any) error {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if target != nil {
		t := reflect.TypeOf(target)
		for _, i := range pf.interfaces {
			if !t.Implements(i) {
				return &NotImplementedError{Target: t, Interface: i}
			}
		}
	}
	pf.target = target
	return nil
}

// Target returns the current target.
func (pf *ProxyFactory) Target() any {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	return pf.target
}

// GetProxy builds a proxy from the current configuration.
func (pf *ProxyFactory) GetProxy() (*Proxy, error) {
	pf.mu.RLock()
	target := pf.target
	ifaces := append([]reflect.Type(nil), pf.interfaces...)
	advisors := append([]Advisor(nil), pf.advisors...)
	pf.mu.RUnlock()

	if len(ifaces) == 0 {
		return nil, fmt.Errorf("aop: no interfaces to proxy")
	}

	p := &Proxy{target: target, interfaces: ifaces, methods: make(map[string]*dispatch)}
	for _, iface := range ifaces {
		for i := 0; i < iface.NumMethod(); i++ {
			m := iface.Method(i)
			if _, ok := p.methods[m.Name]; ok {
				continue
			}
			d := &dispatch{iface: iface, method: m}
			for _, a := range advisors {
				if !a.matches(iface, m.Name) {
					continue
				}
				ic, err := interceptorFor(a.Advice)
				if err != nil {
					return nil, err
				}
				d.chain = append(d.chain, ic)
			}
			p.methods[m.Name] = d
		}
	}
	return p, nil
}

// ProxyOf builds a target-less proxy for iface handled by interceptor.
func ProxyOf(iface reflect.Type, interceptor MethodInterceptor) (*Proxy, error) {
	pf, err := NewInterfaceProxyFactory(iface)
	if err != nil {
		return nil, err
	}
	if err := pf.AddAdvice(interceptor); err != nil {
		return nil, err
	}
	return pf.GetProxy()
}
