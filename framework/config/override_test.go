package config_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-beans/framework/beans"
	"github.com/km-arc/go-beans/framework/config"
	"github.com/km-arc/go-beans/framework/container"
	"github.com/km-arc/go-beans/framework/support"
)

type dataSource struct {
	URL      string `bean:"url"`
	MaxConns int    `bean:"maxConns"`
}

func newFactory(t *testing.T) *container.Factory {
	t.Helper()
	types := support.NewTypeRegistry()
	require.NoError(t, types.RegisterType("dataSource", reflect.TypeOf(&dataSource{})))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	f := container.New(support.NewInstantiator(types), container.WithLogger(logrus.NewEntry(logger)))
	require.NoError(t, f.Register("db", beans.NewRootNamed("dataSource").
		WithProperty("url", "postgres://localhost").
		WithProperty("maxConns", 4)))
	return f
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "override.env")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestPropertyOverride_AppliesFileThenMap(t *testing.T) {
	f := newFactory(t)
	c := &config.PropertyOverrideConfigurer{
		Files:      []string{writeFile(t, "db.url=postgres://file\ndb.maxConns=16\n")},
		Properties: map[string]string{"db.url": "postgres://explicit"},
	}

	require.NoError(t, c.PostProcessFactory(context.Background(), f))

	bean, err := f.GetBean(context.Background(), "db")
	require.NoError(t, err)
	ds := bean.(*dataSource)
	assert.Equal(t, "postgres://explicit", ds.URL)
	assert.Equal(t, 16, ds.MaxConns)
}

func TestPropertyOverride_UnknownBean(t *testing.T) {
	f := newFactory(t)
	c := &config.PropertyOverrideConfigurer{Properties: map[string]string{"cache.size": "10"}}

	err := c.PostProcessFactory(context.Background(), f)
	var nsd *container.NoSuchDefinitionError
	require.ErrorAs(t, err, &nsd)
	assert.Equal(t, "cache", nsd.Name)

	c.IgnoreInvalidKeys = true
	assert.NoError(t, c.PostProcessFactory(context.Background(), f))
}

func TestPropertyOverride_InvalidKey(t *testing.T) {
	f := newFactory(t)
	c := &config.PropertyOverrideConfigurer{Properties: map[string]string{"nodot": "x"}}

	assert.ErrorContains(t, c.PostProcessFactory(context.Background(), f), "expected bean.property")
}

func TestPropertyOverride_MissingFile(t *testing.T) {
	f := newFactory(t)
	missing := filepath.Join(t.TempDir(), "nope.env")
	c := &config.PropertyOverrideConfigurer{Files: []string{missing}}

	assert.Error(t, c.PostProcessFactory(context.Background(), f))

	c.IgnoreResourceNotFound = true
	assert.NoError(t, c.PostProcessFactory(context.Background(), f))
}

func TestPropertyOverride_Order(t *testing.T) {
	c := &config.PropertyOverrideConfigurer{Precedence: 5}
	assert.Equal(t, 5, container.OrderOf(c))
}
