package aop

import (
	"context"
	"fmt"
	"path"
	"reflect"

	"github.com/samber/lo"
)

// AutoProxyCreator is a bean post-processor that replaces beans whose
// names match one of Patterns with a proxy carrying Advisors.
//
// Patterns use path.Match syntax ("*Service", "repo?"). The proxy is handed
// to Wrap, which returns the value stored in the factory, normally a typed
// facade over the proxy. Beans implementing none of Interfaces are left
// alone.
type AutoProxyCreator struct {
	Patterns   []string
	Interfaces []reflect.Type
	Advisors   []Advisor
	Wrap       func(name string, p *Proxy) (any, error)
	Precedence int
}

// Order implements container.Ordered.
func (c *AutoProxyCreator) Order() int { return c.Precedence }

// BeforeInitialization implements container.BeanPostProcessor.
func (c *AutoProxyCreator) BeforeInitialization(_ context.Context, _ string, bean any) (any, error) {
	return bean, nil
}

// AfterInitialization implements container.BeanPostProcessor.
func (c *AutoProxyCreator) AfterInitialization(_ context.Context, name string, bean any) (any, error) {
	if !c.matches(name) {
		return bean, nil
	}
	pf := NewProxyFactory(bean, c.Interfaces...)
	if len(pf.Interfaces()) == 0 {
		return bean, nil
	}
	for _, a := range c.Advisors {
		if err := pf.AddAdvisor(a); err != nil {
			return nil, fmt.Errorf("auto-proxy %q: %w", name, err)
		}
	}
	p, err := pf.GetProxy()
	if err != nil {
		return nil, fmt.Errorf("auto-proxy %q: %w", name, err)
	}
	if c.Wrap == nil {
		return p, nil
	}
	return c.Wrap(name, p)
}

func (c *AutoProxyCreator) matches(name string) bool {
	return lo.ContainsBy(c.Patterns, func(pattern string) bool {
		ok, err := path.Match(pattern, name)
		return err == nil && ok
	})
}
