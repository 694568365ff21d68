package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/km-arc/go-beans/framework/aop"
	"github.com/km-arc/go-beans/framework/app"
	"github.com/km-arc/go-beans/framework/beans"
	"github.com/km-arc/go-beans/framework/config"
	"github.com/km-arc/go-beans/framework/container"
)

// ── Demo beans ────────────────────────────────────────────────────────────────

// Service is configured entirely from its definition.
type Service struct {
	Name    string
	Host    string
	Port    int
	Timeout time.Duration
}

// Greeter is proxied so every call is timed.
type Greeter interface {
	Greet(name string) (string, error)
}

type politeGreeter struct {
	Greeting string
}

func (g *politeGreeter) Greet(name string) (string, error) {
	return fmt.Sprintf("%s, %s!", g.Greeting, name), nil
}

// greeterFacade satisfies Greeter by dispatching through the proxy.
type greeterFacade struct{ p *aop.Proxy }

func (g greeterFacade) Greet(name string) (string, error) {
	return aop.Call[string](g.p, "Greet", name)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(config.Load())
	if err != nil {
		return err
	}
	log := application.Log()

	if err := application.RegisterClass("Service", reflect.TypeOf(&Service{})); err != nil {
		return err
	}
	if err := application.RegisterClass("PoliteGreeter", reflect.TypeOf(&politeGreeter{})); err != nil {
		return err
	}

	// ── Definitions ──────────────────────────────────────────────────────────

	application.MustRegister("service", beans.NewRootNamed("Service").
		WithProperty("name", "service").
		WithProperty("host", "localhost").
		WithProperty("port", 8080).
		WithProperty("timeout", "5s"))
	application.MustRegister("specialService", beans.NewChild("service").
		WithProperty("name", "special").
		WithProperty("port", 9090))
	application.MustRegister("greeter", beans.NewRootNamed("PoliteGreeter").
		WithProperty("greeting", "Hello"))
	if err := application.RegisterAlias("hello", "greeter"); err != nil {
		return err
	}

	timing := aop.InterceptorFunc(func(inv *aop.Invocation) ([]any, error) {
		start := time.Now()
		res, err := inv.Proceed()
		log.WithField("method", inv.Method).WithField("took", time.Since(start)).Debug("advised call")
		return res, err
	})
	if err := application.RegisterSingleton("autoProxyCreator", &aop.AutoProxyCreator{
		Patterns:   []string{"greeter"},
		Interfaces: []reflect.Type{aop.InterfaceOf[Greeter]()},
		Advisors:   []aop.Advisor{aop.NewAdvisor(timing)},
		Wrap:       func(_ string, p *aop.Proxy) (any, error) { return greeterFacade{p}, nil },
	}); err != nil {
		return err
	}

	// ── Lifecycle ────────────────────────────────────────────────────────────

	if err := application.Refresh(ctx); err != nil {
		return err
	}

	special, err := container.Resolve[*Service](ctx, application, "specialService")
	if err != nil {
		return err
	}
	fmt.Printf("specialService: name=%s host=%s port=%d timeout=%s\n",
		special.Name, special.Host, special.Port, special.Timeout)

	greeter, err := container.Resolve[Greeter](ctx, application, "hello")
	if err != nil {
		return err
	}
	msg, err := greeter.Greet("world")
	if err != nil {
		return err
	}
	fmt.Println(msg)

	for _, name := range application.DefinitionNames() {
		singleton, err := application.IsSingleton(ctx, name)
		if err != nil {
			return err
		}
		fmt.Printf("  %-16s singleton=%t\n", name, singleton)
	}

	if !application.Config().Inspector.Enabled {
		application.Close()
		return nil
	}
	fmt.Printf("inspector on http://localhost:%s/beans\n", application.Config().Inspector.Port)
	return application.Run(ctx)
}
