package container_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-beans/framework/beans"
	"github.com/km-arc/go-beans/framework/container"
)

func factoryWithProducer(t *testing.T, producer *connFactory, scope beans.Scope) *container.Factory {
	t.Helper()
	stub := newStub().on("connection", func(context.Context, *container.Factory, []any) (any, error) {
		return producer, nil
	})
	f, _ := newFactory(stub)
	require.NoError(t, f.Register("connection", beans.NewRoot(connFactoryType).WithScope(scope)))
	return f
}

func TestFactoryBean_NameReturnsProduct(t *testing.T) {
	producer := &connFactory{singleton: true}
	f := factoryWithProducer(t, producer, beans.ScopeSingleton)
	ctx := context.Background()

	product, err := f.GetBean(ctx, "connection")
	require.NoError(t, err)
	assert.IsType(t, &connection{}, product)

	again, err := f.GetBean(ctx, "connection")
	require.NoError(t, err)
	assert.Same(t, product, again)

	deref, err := f.GetBean(ctx, "&connection")
	require.NoError(t, err)
	assert.Same(t, producer, deref)
}

func TestFactoryBean_NonSingletonProducts(t *testing.T) {
	producer := &connFactory{singleton: false}
	f := factoryWithProducer(t, producer, beans.ScopeSingleton)
	ctx := context.Background()

	a, err := f.GetBean(ctx, "connection")
	require.NoError(t, err)
	b, err := f.GetBean(ctx, "connection")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, producer.made)
}

func TestFactoryBean_NilProduct(t *testing.T) {
	f := factoryWithProducer(t, &connFactory{nilResult: true}, beans.ScopeSingleton)

	_, err := f.GetBean(context.Background(), "connection")
	var unavailable *container.FactoryProductUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "connection", unavailable.Name)
}

func TestFactoryBean_DereferenceOfPlainBean(t *testing.T) {
	f, _ := newFactory(newStub())
	require.NoError(t, f.Register("service", beans.NewRoot(serviceType)))

	_, err := f.GetBean(context.Background(), "&service")
	var notFactory *container.NotAFactoryError
	assert.ErrorAs(t, err, &notFactory)
}

func TestFactoryBean_PrototypeProducerIsUnwrapped(t *testing.T) {
	f, _ := newFactory(newStub().on("connection", func(context.Context, *container.Factory, []any) (any, error) {
		return &connFactory{singleton: true}, nil
	}))
	require.NoError(t, f.Register("connection", beans.NewRoot(connFactoryType).WithScope(beans.ScopePrototype)))
	ctx := context.Background()

	product, err := f.GetBean(ctx, "connection")
	require.NoError(t, err)
	assert.IsType(t, &connection{}, product)

	p1, err := f.GetBean(ctx, "&connection")
	require.NoError(t, err)
	p2, err := f.GetBean(ctx, "&connection")
	require.NoError(t, err)
	assert.NotSame(t, p1, p2)
}

// ── IsSingleton ───────────────────────────────────────────────────────────────

func TestIsSingleton(t *testing.T) {
	stub := newStub()
	stub.on("sharedConn", func(context.Context, *container.Factory, []any) (any, error) {
		return &connFactory{singleton: true}, nil
	})
	stub.on("freshConn", func(context.Context, *container.Factory, []any) (any, error) {
		return &connFactory{singleton: false}, nil
	})
	f, _ := newFactory(stub)
	require.NoError(t, f.Register("service", beans.NewRoot(serviceType)))
	require.NoError(t, f.Register("job", beans.NewRoot(serviceType).WithScope(beans.ScopePrototype)))
	require.NoError(t, f.Register("sharedConn", beans.NewRoot(connFactoryType)))
	require.NoError(t, f.Register("freshConn", beans.NewRoot(connFactoryType)))
	require.NoError(t, f.RegisterSingleton("external", &service{}))

	tests := []struct {
		name string
		want bool
	}{
		{"service", true},
		{"job", false},
		{"external", true},
		{"sharedConn", true},
		{"freshConn", false},
		{"&freshConn", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.IsSingleton(context.Background(), tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsSingleton_CachedProducerGoverns(t *testing.T) {
	f, _ := newFactory(newStub().on("conn", func(context.Context, *container.Factory, []any) (any, error) {
		return &connFactory{singleton: false}, nil
	}))
	require.NoError(t, f.Register("conn", beans.NewRoot(connFactoryType)))
	ctx := context.Background()

	_, err := f.GetBean(ctx, "&conn")
	require.NoError(t, err)

	single, err := f.IsSingleton(ctx, "conn")
	require.NoError(t, err)
	assert.False(t, single)
}

func TestSingletonFactoryBean(t *testing.T) {
	calls := 0
	fb := &container.SingletonFactoryBean{
		Type: reflect.TypeOf(&service{}),
		Produce: func(context.Context) (any, error) {
			calls++
			return &service{Name: "made"}, nil
		},
	}
	f, _ := newFactory(newStub())
	require.NoError(t, f.RegisterSingleton("made", fb))
	ctx := context.Background()

	a, err := f.GetBean(ctx, "made")
	require.NoError(t, err)
	b, err := f.GetBean(ctx, "made")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)
	single, err := f.IsSingleton(ctx, "made")
	require.NoError(t, err)
	assert.True(t, single)
}

// lookupFactory is a FactoryBean whose product comes from produce.
type lookupFactory struct {
	produce func(ctx context.Context) (any, error)
}

func (l *lookupFactory) Object(ctx context.Context) (any, error) { return l.produce(ctx) }
func (l *lookupFactory) ObjectType() reflect.Type                { return serviceType }
func (l *lookupFactory) IsSingleton() bool                       { return false }

// getWithin fails the test instead of hanging when the lookup blocks.
func getWithin(t *testing.T, f *container.Factory, name string) (any, error) {
	t.Helper()
	type result struct {
		bean any
		err  error
	}
	done := make(chan result, 1)
	go func() {
		bean, err := f.GetBean(context.Background(), name)
		done <- result{bean, err}
	}()
	select {
	case r := <-done:
		return r.bean, r.err
	case <-time.After(2 * time.Second):
		t.Fatalf("GetBean(%q) did not return", name)
		return nil, nil
	}
}

func TestFactoryBean_ProductLookupInsideSingletonCreation(t *testing.T) {
	var f *container.Factory
	stub := newStub()
	stub.on("outer", func(ctx context.Context, f *container.Factory, _ []any) (any, error) {
		product, err := f.GetBean(ctx, "producer")
		if err != nil {
			return nil, err
		}
		return &service{Name: "outer:" + product.(*service).Name}, nil
	})
	stub.on("producer", func(context.Context, *container.Factory, []any) (any, error) {
		return &lookupFactory{produce: func(ctx context.Context) (any, error) {
			return f.GetBean(ctx, "dep")
		}}, nil
	})
	f, _ = newFactory(stub)
	require.NoError(t, f.Register("outer", beans.NewRoot(serviceType)))
	require.NoError(t, f.Register("producer", beans.NewRoot(connFactoryType)))
	require.NoError(t, f.Register("dep", beans.NewRoot(serviceType).WithProperty("name", "dep")))

	bean, err := getWithin(t, f, "outer")
	require.NoError(t, err)
	assert.Equal(t, "outer:dep", bean.(*service).Name)
	assert.Equal(t, []string{"producer", "dep", "outer"}, f.SingletonNames(nil))
}

func TestFactoryBean_CycleThroughProductFailsFast(t *testing.T) {
	var f *container.Factory
	stub := newStub()
	stub.on("outer", func(ctx context.Context, f *container.Factory, _ []any) (any, error) {
		return f.GetBean(ctx, "producer")
	})
	stub.on("producer", func(context.Context, *container.Factory, []any) (any, error) {
		return &lookupFactory{produce: func(ctx context.Context) (any, error) {
			return f.GetBean(ctx, "outer")
		}}, nil
	})
	f, _ = newFactory(stub)
	require.NoError(t, f.Register("outer", beans.NewRoot(serviceType)))
	require.NoError(t, f.Register("producer", beans.NewRoot(connFactoryType)))

	_, err := getWithin(t, f, "outer")
	var circular *container.CircularCreationError
	require.ErrorAs(t, err, &circular)
	assert.Equal(t, "outer", circular.Name)
	assert.NotContains(t, f.SingletonNames(nil), "outer")
}

func TestFactoryBean_ProductErrorNamesProducer(t *testing.T) {
	cause := errors.New("pool exhausted")
	f, _ := newFactory(newStub().on("producer", func(context.Context, *container.Factory, []any) (any, error) {
		return &lookupFactory{produce: func(context.Context) (any, error) { return nil, cause }}, nil
	}))
	require.NoError(t, f.Register("producer", beans.NewRoot(connFactoryType)))
	require.NoError(t, f.RegisterAlias("pool", "producer"))

	for _, name := range []string{"producer", "pool"} {
		t.Run(name, func(t *testing.T) {
			_, err := f.GetBean(context.Background(), name)
			var bce *container.BeanCreationError
			require.ErrorAs(t, err, &bce)
			assert.Equal(t, "producer", bce.Name)
			assert.ErrorIs(t, err, cause)
		})
	}
}
