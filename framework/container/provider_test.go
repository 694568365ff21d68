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

// ── stub providers ────────────────────────────────────────────────────────────

type eagerProvider struct {
	container.BaseProvider
	registerCalls int
	bootCalled    bool
}

func (p *eagerProvider) Register(f *container.Factory) error {
	p.registerCalls++
	return f.Register("eager-svc", beans.NewRoot(serviceType).WithProperty("name", "eager"))
}

func (p *eagerProvider) Boot(ctx context.Context, f *container.Factory) error {
	p.bootCalled = true
	_, err := f.GetBean(ctx, "eager-svc")
	return err
}

// multiProvider registers multiple definitions.
type multiProvider struct {
	container.BaseProvider
}

func (p *multiProvider) Register(f *container.Factory) error {
	if err := f.Register("alpha", beans.NewRoot(serviceType).WithProperty("name", "α")); err != nil {
		return err
	}
	return f.Register("beta", beans.NewRoot(serviceType).WithProperty("name", "β"))
}

type failingProvider struct {
	container.BaseProvider
}

func (p *failingProvider) Register(*container.Factory) error { return errors.New("no database") }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

func TestRegistry_EagerProvider_RegisterCalled(t *testing.T) {
	f, _ := newFactory(newStub())
	reg := container.NewProviderRegistry(f)

	p := &eagerProvider{}
	require.NoError(t, reg.Register(context.Background(), p))

	assert.Equal(t, 1, p.registerCalls)
	assert.True(t, f.ContainsDefinition("eager-svc"))
}

func TestRegistry_EagerProvider_BootCalledAfterBoot(t *testing.T) {
	f, _ := newFactory(newStub())
	reg := container.NewProviderRegistry(f)
	ctx := context.Background()

	p := &eagerProvider{}
	require.NoError(t, reg.Register(ctx, p))
	assert.False(t, p.bootCalled, "Boot() should NOT be called before registry.Boot()")

	require.NoError(t, reg.Boot(ctx))
	assert.True(t, p.bootCalled)
}

func TestRegistry_Boot_IdempotentCallsAreIgnored(t *testing.T) {
	f, _ := newFactory(newStub())
	reg := container.NewProviderRegistry(f)
	ctx := context.Background()
	assert.False(t, reg.Booted())

	require.NoError(t, reg.Register(ctx, &eagerProvider{}))
	require.NoError(t, reg.Boot(ctx))
	require.NoError(t, reg.Boot(ctx))

	assert.True(t, reg.Booted())
}

func TestRegistry_DuplicateRegister_Ignored(t *testing.T) {
	f, _ := newFactory(newStub())
	reg := container.NewProviderRegistry(f)
	ctx := context.Background()

	p := &eagerProvider{}
	require.NoError(t, reg.Register(ctx, p))
	require.NoError(t, reg.Register(ctx, p))

	assert.Equal(t, 1, p.registerCalls)
	assert.Len(t, reg.Providers(), 1)
}

func TestRegistry_MultipleProviders_AllServicesResolvable(t *testing.T) {
	f, _ := newFactory(newStub())
	reg := container.NewProviderRegistry(f)
	ctx := context.Background()
	require.NoError(t, reg.Register(ctx, &multiProvider{}))
	require.NoError(t, reg.Register(ctx, &eagerProvider{}))
	require.NoError(t, reg.Boot(ctx))

	for name, want := range map[string]string{"alpha": "α", "beta": "β", "eager-svc": "eager"} {
		svc, err := container.Resolve[*service](ctx, f, name)
		require.NoError(t, err)
		assert.Equal(t, want, svc.Name)
	}
}

func TestRegistry_RegisterErrorIsReturned(t *testing.T) {
	f, _ := newFactory(newStub())
	reg := container.NewProviderRegistry(f)

	err := reg.Register(context.Background(), &failingProvider{})
	assert.ErrorContains(t, err, "no database")
	assert.Empty(t, reg.Providers())
}

func TestRegistry_RegisterAfterBoot_BootsImmediately(t *testing.T) {
	f, _ := newFactory(newStub())
	reg := container.NewProviderRegistry(f)
	ctx := context.Background()
	require.NoError(t, reg.Boot(ctx))

	p := &eagerProvider{}
	require.NoError(t, reg.Register(ctx, p))

	assert.True(t, p.bootCalled, "provider registered after Boot() should be booted immediately")
}

func TestBaseProvider_Defaults(t *testing.T) {
	var p container.BaseProvider
	f, _ := newFactory(newStub())
	assert.NoError(t, p.Boot(context.Background(), f))
}
