package providers

import (
	"context"
	"reflect"

	"github.com/km-arc/go-beans/framework/config"
	"github.com/km-arc/go-beans/framework/container"
	"github.com/km-arc/go-beans/framework/inspector"
	"github.com/km-arc/go-beans/framework/metrics"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider exposes the loaded configuration as a bean and,
// when Overrides is set, installs it as a factory post-processor.
//
// Registered beans:
//   - "config"                      → *config.Config (alias "configuration")
//   - "propertyOverrideConfigurer"  → *config.PropertyOverrideConfigurer
type ConfigServiceProvider struct {
	container.BaseProvider
	Config    *config.Config
	Overrides *config.PropertyOverrideConfigurer
}

func (p *ConfigServiceProvider) Register(f *container.Factory) error {
	if err := f.RegisterSingleton("config", p.Config); err != nil {
		return err
	}
	if err := f.RegisterAlias("configuration", "config"); err != nil {
		return err
	}
	if p.Overrides != nil {
		return f.RegisterSingleton("propertyOverrideConfigurer", p.Overrides)
	}
	return nil
}

// ── MetricsServiceProvider ────────────────────────────────────────────────────

// MetricsServiceProvider exposes the collector instrumenting the factory.
//
// Registered beans:
//   - "metrics" → *metrics.Collector
type MetricsServiceProvider struct {
	container.BaseProvider
	Collector *metrics.Collector
}

func (p *MetricsServiceProvider) Register(f *container.Factory) error {
	return f.RegisterSingleton("metrics", p.Collector)
}

// ── InspectorServiceProvider ──────────────────────────────────────────────────

// InspectorServiceProvider registers the HTTP inspector behind a
// FactoryBean, so it is only built when first looked up. It serves the
// "metrics" collector on /metrics when one is registered.
//
// Registered beans:
//   - "inspector"  → *inspector.Inspector
//   - "&inspector" → the producing FactoryBean
type InspectorServiceProvider struct {
	container.BaseProvider
}

func (p *InspectorServiceProvider) Register(f *container.Factory) error {
	return f.RegisterSingleton("inspector", &container.SingletonFactoryBean{
		Type: reflect.TypeOf(&inspector.Inspector{}),
		Produce: func(ctx context.Context) (any, error) {
			var opts []inspector.Option
			if f.ContainsBean("metrics") {
				c, err := container.Resolve[*metrics.Collector](ctx, f, "metrics")
				if err != nil {
					return nil, err
				}
				opts = append(opts, inspector.WithGatherer(c.Registry()))
			}
			return inspector.New(f, opts...), nil
		},
	})
}
