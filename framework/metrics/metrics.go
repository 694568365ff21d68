// Package metrics provides bean factory metrics collection.
// It wraps Prometheus collectors to record bean creation latency, creation
// and destruction outcomes, circular reference failures and the size of the
// singleton cache.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/km-arc/go-beans/framework/beans"
	"github.com/km-arc/go-beans/framework/container"
)

// Collector provides bean factory metrics collection.
type Collector struct {
	registry  *prometheus.Registry
	namespace string

	creationLatency *prometheus.HistogramVec
	creations       *prometheus.CounterVec
	destructions    *prometheus.CounterVec
	circular        prometheus.Counter
	singletons      prometheus.GaugeFunc
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "beans"
	}

	c := &Collector{registry: prometheus.NewRegistry(), namespace: namespace}

	c.creationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "factory",
			Name:      "creation_duration_seconds",
			Help:      "Time taken by the creation strategy to build a bean",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
		},
		[]string{"bean", "result"},
	)

	c.creations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "factory",
			Name:      "creations_total",
			Help:      "Total number of bean creations",
		},
		[]string{"bean", "result"},
	)

	c.destructions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "factory",
			Name:      "destructions_total",
			Help:      "Total number of bean destructions",
		},
		[]string{"bean", "result"},
	)

	c.circular = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "factory",
			Name:      "circular_references_total",
			Help:      "Total number of creations failed by a circular reference",
		},
	)

	c.registry.MustRegister(
		c.creationLatency,
		c.creations,
		c.destructions,
		c.circular,
	)
	return c
}

// Registry returns the Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordCreation records one call to a creation strategy.
func (c *Collector) RecordCreation(bean string, duration time.Duration, err error) {
	result := resultOf(err)
	c.creationLatency.WithLabelValues(bean, result).Observe(duration.Seconds())
	c.creations.WithLabelValues(bean, result).Inc()

	var circ *container.CircularCreationError
	if errors.As(err, &circ) {
		c.circular.Inc()
	}
}

// RecordDestruction records one bean destruction.
func (c *Collector) RecordDestruction(bean string, err error) {
	c.destructions.WithLabelValues(bean, resultOf(err)).Inc()
}

// Watch exports the size of f's singleton cache, read at scrape time.
// Only one factory can be watched per collector.
func (c *Collector) Watch(f *container.Factory) {
	c.singletons = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: c.namespace,
			Subsystem: "factory",
			Name:      "singletons",
			Help:      "Number of cached singleton instances",
		},
		func() float64 { return float64(len(f.SingletonNames(nil))) },
	)
	c.registry.MustRegister(c.singletons)
}

func resultOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ── Instrumented strategy ─────────────────────────────────────────────────────

// Instrument wraps next so every creation and destruction is recorded.
// Class name resolution is forwarded when next supports it.
func (c *Collector) Instrument(next container.CreationStrategy) container.CreationStrategy {
	s := &instrumented{next: next, c: c}
	if r, ok := next.(beans.ClassResolver); ok {
		return &instrumentedResolver{instrumented: s, resolver: r}
	}
	return s
}

type instrumented struct {
	next container.CreationStrategy
	c    *Collector
}

func (s *instrumented) CreateBean(ctx context.Context, f *container.Factory, name string, def *beans.Definition, args []any) (any, error) {
	start := time.Now()
	bean, err := s.next.CreateBean(ctx, f, name, def, args)
	s.c.RecordCreation(name, time.Since(start), err)
	return bean, err
}

func (s *instrumented) DestroyBean(f *container.Factory, name string, bean any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("destroy panicked: %v", r)
		}
		s.c.RecordDestruction(name, err)
	}()
	return s.next.DestroyBean(f, name, bean)
}

type instrumentedResolver struct {
	*instrumented
	resolver beans.ClassResolver
}

func (s *instrumentedResolver) ResolveClass(name string) (reflect.Type, error) {
	return s.resolver.ResolveClass(name)
}
