package container_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-beans/framework/beans"
	"github.com/km-arc/go-beans/framework/container"
)

// ── Registration ──────────────────────────────────────────────────────────────

func TestRegister_KeepsRegistrationOrder(t *testing.T) {
	f, _ := newFactory(newStub())
	for _, n := range []string{"c", "a", "b"} {
		require.NoError(t, f.Register(n, beans.NewRoot(serviceType)))
	}

	assert.Equal(t, []string{"c", "a", "b"}, f.DefinitionNames())
	assert.Equal(t, 3, f.DefinitionCount())
	assert.True(t, f.ContainsDefinition("a"))
	assert.False(t, f.ContainsDefinition("z"))
}

func TestRegister_OverrideReplacesInPlace(t *testing.T) {
	f, hook := newFactory(newStub())
	require.NoError(t, f.Register("a", beans.NewRoot(serviceType).WithProperty("name", "old")))
	require.NoError(t, f.Register("b", beans.NewRoot(serviceType)))
	require.NoError(t, f.Register("a", beans.NewRoot(serviceType).WithProperty("name", "new")))

	assert.Equal(t, []string{"a", "b"}, f.DefinitionNames())
	def, err := f.Definition("a")
	require.NoError(t, err)
	name, _ := def.Properties().Get("name")
	assert.Equal(t, "new", name)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "a", entry.Data["bean"])
}

func TestRegister_OverrideDisallowed(t *testing.T) {
	f, _ := newFactory(newStub(), container.WithAllowOverriding(false))
	require.NoError(t, f.Register("a", beans.NewRoot(serviceType).WithProperty("name", "old")))

	err := f.Register("a", beans.NewRoot(serviceType))
	var conflict *container.DefinitionConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "a", conflict.Name)

	def, _ := f.Definition("a")
	name, _ := def.Properties().Get("name")
	assert.Equal(t, "old", name)
}

func TestRegister_InvalidDefinition(t *testing.T) {
	f, _ := newFactory(newStub())

	err := f.Register("lazyProto", beans.NewRoot(serviceType).
		WithScope(beans.ScopePrototype).
		WithLazyInit(true).
		WithResourceDescription("app.go"))

	var store *container.DefinitionStoreError
	require.ErrorAs(t, err, &store)
	assert.Equal(t, "app.go", store.Resource)
	var verr *beans.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.False(t, f.ContainsDefinition("lazyProto"))

	assert.Error(t, f.Register("", beans.NewRoot(serviceType)))
	assert.Error(t, f.Register("nil", nil))
}

func TestNames_FiltersByAssignability(t *testing.T) {
	f, _ := newFactory(newStub())
	require.NoError(t, f.Register("service", beans.NewRoot(serviceType)))
	require.NoError(t, f.Register("conn", beans.NewRoot(connFactoryType)))
	require.NoError(t, f.Register("child", beans.NewChild("service")))

	assert.Equal(t, []string{"service", "child"}, f.Names(container.TypeOf[Greeter]()))
	assert.Equal(t, []string{"conn"}, f.Names(container.TypeOf[container.FactoryBean]()))
	assert.Len(t, f.Names(nil), 3)
}

// ── Merged definitions ────────────────────────────────────────────────────────

func TestMergedDefinition(t *testing.T) {
	f, _ := newFactory(newStub())
	root := beans.NewRoot(serviceType).WithProperty("name", "X")
	require.NoError(t, f.Register("root", root))
	require.NoError(t, f.Register("mid", beans.NewChild("root").WithProperty("timeout", "2s")))
	require.NoError(t, f.Register("leaf", beans.NewChild("mid").WithProperty("name", "Z")))

	got, err := f.MergedDefinition("root", false)
	require.NoError(t, err)
	assert.Same(t, root, got)

	leaf, err := f.MergedDefinition("leaf", false)
	require.NoError(t, err)
	assert.Equal(t, beans.KindRoot, leaf.Kind())
	name, _ := leaf.Properties().Get("name")
	timeout, _ := leaf.Properties().Get("timeout")
	assert.Equal(t, "Z", name)
	assert.Equal(t, "2s", timeout)
}

func TestMergedDefinition_MissingParent(t *testing.T) {
	f, _ := newFactory(newStub())
	require.NoError(t, f.Register("orphan", beans.NewChild("nobody")))

	_, err := f.GetBean(context.Background(), "orphan")
	var nsd *container.NoSuchDefinitionError
	require.ErrorAs(t, err, &nsd)
	assert.Equal(t, "nobody", nsd.Name)
}

func TestMergedDefinition_SelfParentWithoutParentFactory(t *testing.T) {
	f, _ := newFactory(newStub())
	require.NoError(t, f.Register("self", beans.NewChild("self")))

	_, err := f.MergedDefinition("self", false)
	var nsd *container.NoSuchDefinitionError
	require.ErrorAs(t, err, &nsd)
	assert.Contains(t, nsd.Reason, "parent factory")
}

func TestMergedDefinition_CircularParentChain(t *testing.T) {
	f, _ := newFactory(newStub())
	require.NoError(t, f.Register("x", beans.NewChild("y")))
	require.NoError(t, f.Register("y", beans.NewChild("x")))

	_, err := f.MergedDefinition("x", false)
	var store *container.DefinitionStoreError
	assert.ErrorAs(t, err, &store)
}
