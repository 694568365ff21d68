package metrics

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-beans/framework/beans"
	"github.com/km-arc/go-beans/framework/container"
	"github.com/km-arc/go-beans/framework/support"
)

type widget struct{ Name string }

func newFactory(t *testing.T, c *Collector) *container.Factory {
	t.Helper()
	types := support.NewTypeRegistry()
	require.NoError(t, types.RegisterType("widget", reflect.TypeOf(&widget{})))
	require.NoError(t, types.Register("broken", func() (*widget, error) { return nil, errors.New("boom") }))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return container.New(c.Instrument(support.NewInstantiator(types)), container.WithLogger(logrus.NewEntry(logger)))
}

func TestNewCollector_DefaultNamespace(t *testing.T) {
	c := NewCollector("")
	require.NotNil(t, c.Registry())

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "beans_factory_circular_references_total", families[0].GetName())
}

func TestInstrument_RecordsCreations(t *testing.T) {
	c := NewCollector("test")
	f := newFactory(t, c)
	c.Watch(f)
	require.NoError(t, f.Register("w", beans.NewRootNamed("widget").WithProperty("name", "x")))
	require.NoError(t, f.Register("bad", beans.NewRootNamed("broken")))
	ctx := context.Background()

	_, err := f.GetBean(ctx, "w")
	require.NoError(t, err)
	_, err = f.GetBean(ctx, "w")
	require.NoError(t, err)
	_, err = f.GetBean(ctx, "bad")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.creations.WithLabelValues("w", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.creations.WithLabelValues("bad", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.singletons))
	assert.Equal(t, 2, testutil.CollectAndCount(c.creationLatency))
}

func TestInstrument_ForwardsClassResolution(t *testing.T) {
	c := NewCollector("test")
	f := newFactory(t, c)
	require.NoError(t, f.Register("w", beans.NewRootNamed("widget")))

	assert.Equal(t, []string{"w"}, f.Names(reflect.TypeOf(&widget{})))
}

func TestInstrument_RecordsCircularReferences(t *testing.T) {
	c := NewCollector("test")
	f := newFactory(t, c)
	require.NoError(t, f.Register("a", beans.NewRootNamed("widget").WithRef("name", "b")))
	require.NoError(t, f.Register("b", beans.NewRootNamed("widget").WithRef("name", "a")))

	_, err := f.GetBean(context.Background(), "a")
	var circ *container.CircularCreationError
	require.ErrorAs(t, err, &circ)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.circular))
}

func TestInstrument_RecordsDestructions(t *testing.T) {
	c := NewCollector("test")
	f := newFactory(t, c)
	c.Watch(f)
	require.NoError(t, f.Register("w", beans.NewRootNamed("widget")))
	_, err := f.GetBean(context.Background(), "w")
	require.NoError(t, err)

	f.DestroySingletons()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.destructions.WithLabelValues("w", "success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.singletons))
}

func TestCollector_RecordCreation(t *testing.T) {
	c := NewCollector("test")

	c.RecordCreation("x", 5*time.Millisecond, nil)
	c.RecordCreation("x", 5*time.Millisecond, errors.New("failed"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.creations.WithLabelValues("x", "error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.circular))
}
