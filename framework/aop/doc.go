// Package aop routes interface method calls through ordered advice chains.
//
// Go has no runtime proxy generation, so a proxy is an explicit dispatch
// table: one entry per method of the declared interfaces, each holding the
// interceptors whose pointcut matched that method. Callers reach the proxy
// through Invoke, usually behind a small typed facade:
//
//	type greeterProxy struct{ p *aop.Proxy }
//
//	func (g greeterProxy) Greet(name string) (string, error) {
//	    return aop.Call[string](g.p, "Greet", name)
//	}
//
//	pf := aop.NewProxyFactory(&englishGreeter{}, aop.InterfaceOf[Greeter]())
//	pf.AddAdvice(aop.BeforeFunc(func(inv *aop.Invocation) error {
//	    log.Printf("calling %s", inv.Method)
//	    return nil
//	}))
//	p, _ := pf.GetProxy()
//	var g Greeter = greeterProxy{p}
package aop
