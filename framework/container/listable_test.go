package container_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-beans/framework/beans"
	"github.com/km-arc/go-beans/framework/container"
)

// ── PreInstantiateSingletons ──────────────────────────────────────────────────

func TestPreInstantiateSingletons(t *testing.T) {
	producer := &connFactory{singleton: true}
	stub := newStub().on("conn", func(context.Context, *container.Factory, []any) (any, error) {
		return producer, nil
	})
	f, _ := newFactory(stub)
	require.NoError(t, f.Register("eager", beans.NewRoot(serviceType)))
	require.NoError(t, f.Register("lazy", beans.NewRoot(serviceType).WithLazyInit(true)))
	require.NoError(t, f.Register("proto", beans.NewRoot(serviceType).WithScope(beans.ScopePrototype)))
	require.NoError(t, f.Register("template", beans.NewRoot(serviceType).WithAbstract(true)))
	require.NoError(t, f.Register("conn", beans.NewRoot(connFactoryType)))

	require.NoError(t, f.PreInstantiateSingletons(context.Background()))

	assert.Equal(t, []string{"eager", "conn"}, f.SingletonNames(nil))
	assert.Equal(t, 0, stub.callCount("lazy"))
	assert.Equal(t, 0, stub.callCount("proto"))
	assert.Equal(t, 0, stub.callCount("template"))
	assert.Equal(t, 1, producer.made, "singleton product is created eagerly")
}

func TestPreInstantiateSingletons_FailureDestroysCreated(t *testing.T) {
	stub := newStub().on("third", func(context.Context, *container.Factory, []any) (any, error) {
		return nil, errors.New("cannot start")
	})
	f, _ := newFactory(stub)
	for _, n := range []string{"first", "second", "third", "fourth"} {
		require.NoError(t, f.Register(n, beans.NewRoot(serviceType)))
	}

	err := f.PreInstantiateSingletons(context.Background())
	var bce *container.BeanCreationError
	require.ErrorAs(t, err, &bce)
	assert.Equal(t, "third", bce.Name)

	assert.Empty(t, f.SingletonNames(nil))
	assert.Equal(t, []string{"second", "first"}, stub.destroyOrder())
	assert.Equal(t, 0, stub.callCount("fourth"))
}

// ── BeansOfType ───────────────────────────────────────────────────────────────

func TestBeansOfType(t *testing.T) {
	stub := newStub().on("conn", func(context.Context, *container.Factory, []any) (any, error) {
		return &connFactory{singleton: true}, nil
	})
	f, _ := newFactory(stub)
	require.NoError(t, f.Register("a", beans.NewRoot(serviceType)))
	require.NoError(t, f.Register("p", beans.NewRoot(serviceType).WithScope(beans.ScopePrototype)))
	require.NoError(t, f.Register("tmpl", beans.NewRoot(serviceType).WithAbstract(true)))
	require.NoError(t, f.Register("conn", beans.NewRoot(connFactoryType)))
	require.NoError(t, f.RegisterSingleton("ext", &service{Name: "ext"}))
	ctx := context.Background()

	singletonsOnly, err := f.BeansOfType(ctx, container.TypeOf[Greeter](), false, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "ext"}, keys(singletonsOnly))

	withPrototypes, err := f.BeansOfType(ctx, container.TypeOf[Greeter](), true, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "p", "ext"}, keys(withPrototypes))

	conns, err := f.BeansOfType(ctx, container.TypeOf[*connection](), false, true)
	require.NoError(t, err)
	require.Contains(t, conns, "conn")
	assert.IsType(t, &connection{}, conns["conn"])

	all, err := container.ResolveAll[Greeter](ctx, f, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
