package container_test

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/km-arc/go-beans/framework/beans"
	"github.com/km-arc/go-beans/framework/container"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type Greeter interface {
	Greet() string
}

type service struct {
	Name    string
	Timeout string
}

func (s *service) Greet() string { return "hello from " + s.Name }

var serviceType = reflect.TypeOf(&service{})

type connection struct{ id int }

// connFactory is a FactoryBean producing *connection values.
type connFactory struct {
	mu        sync.Mutex
	singleton bool
	nilResult bool
	made      int
	shared    *connection
}

func (c *connFactory) Object(context.Context) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nilResult {
		return nil, nil
	}
	if c.singleton && c.shared != nil {
		return c.shared, nil
	}
	c.made++
	conn := &connection{id: c.made}
	if c.singleton {
		c.shared = conn
	}
	return conn, nil
}

func (c *connFactory) ObjectType() reflect.Type { return reflect.TypeOf(&connection{}) }
func (c *connFactory) IsSingleton() bool        { return c.singleton }

var connFactoryType = reflect.TypeOf(&connFactory{})

// ── stub strategy ─────────────────────────────────────────────────────────────

type builder func(ctx context.Context, f *container.Factory, args []any) (any, error)

// stubStrategy builds beans from per-name builders, or by allocating the
// definition's class and copying properties onto exported fields.
type stubStrategy struct {
	mu        sync.Mutex
	builders  map[string]builder
	calls     map[string]int
	destroyed []string
	destroyFn func(name string) error
}

func newStub() *stubStrategy {
	return &stubStrategy{builders: map[string]builder{}, calls: map[string]int{}}
}

func (s *stubStrategy) on(name string, b builder) *stubStrategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builders[name] = b
	return s
}

func (s *stubStrategy) callCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubStrategy) destroyOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.destroyed...)
}

func (s *stubStrategy) CreateBean(ctx context.Context, f *container.Factory, name string, def *beans.Definition, args []any) (any, error) {
	s.mu.Lock()
	s.calls[name]++
	b := s.builders[name]
	s.mu.Unlock()

	if b != nil {
		return b(ctx, f, args)
	}
	if !def.HasClass() || def.Class().Kind() != reflect.Ptr {
		return nil, fmt.Errorf("stub cannot build %s", def.TypeName())
	}
	v := reflect.New(def.Class().Elem())
	for _, pv := range def.Properties().All() {
		field := v.Elem().FieldByName(strings.ToUpper(pv.Name[:1]) + pv.Name[1:])
		if field.IsValid() && field.CanSet() {
			field.Set(reflect.ValueOf(pv.Value))
		}
	}
	return v.Interface(), nil
}

func (s *stubStrategy) DestroyBean(_ *container.Factory, name string, _ any) error {
	s.mu.Lock()
	s.destroyed = append(s.destroyed, name)
	fn := s.destroyFn
	s.mu.Unlock()
	if fn != nil {
		return fn(name)
	}
	return nil
}

func (s *stubStrategy) ResolveClass(name string) (reflect.Type, error) {
	switch name {
	case "service":
		return serviceType, nil
	case "connFactory":
		return connFactoryType, nil
	}
	return nil, fmt.Errorf("unknown class %q", name)
}

// newFactory returns a factory with a discarding logger and its log hook.
func newFactory(s container.CreationStrategy, opts ...container.Option) (*container.Factory, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	opts = append([]container.Option{container.WithLogger(logrus.NewEntry(logger))}, opts...)
	return container.New(s, opts...), hook
}
