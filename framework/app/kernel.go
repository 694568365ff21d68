package app

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/km-arc/go-beans/framework/config"
	"github.com/km-arc/go-beans/framework/container"
	"github.com/km-arc/go-beans/framework/inspector"
	"github.com/km-arc/go-beans/framework/logging"
	"github.com/km-arc/go-beans/framework/metrics"
	"github.com/km-arc/go-beans/framework/providers"
	"github.com/km-arc/go-beans/framework/support"
)

var (
	// ErrAlreadyRefreshed is returned by a second Refresh.
	ErrAlreadyRefreshed = errors.New("application already refreshed")
	// ErrClosed is returned by Refresh after Close or a failed Refresh.
	ErrClosed = errors.New("application is closed")
)

// Application is the top-level application context. It embeds the bean
// factory so user code can call app.Register(name, def) and app.GetBean()
// directly, and adds the lifecycle around it: providers, post-processor
// discovery, eager singleton creation and shutdown.
//
// An application is refreshed once. Close, or a failed Refresh, destroys
// every singleton, including those registered by providers.
//
//	application, err := app.New(config.Load())
//	application.Types().Register("mail.SMTP", mail.NewSMTP)
//	application.MustRegister("mailer", beans.NewRootNamed("mail.SMTP"))
//	if err := application.Refresh(ctx); err != nil { ... }
//	defer application.Close()
type Application struct {
	*container.Factory
	Providers *container.ProviderRegistry

	id          string
	displayName string
	parent      *Application
	cfg         *config.Config
	types       *support.TypeRegistry
	collector   *metrics.Collector
	log         *logrus.Entry

	mu                sync.Mutex
	factoryProcessors []container.FactoryPostProcessor
	startup           time.Time
	active            bool
	closed            bool
}

// Option configures an Application.
type Option func(*options)

type options struct {
	parent      *Application
	types       *support.TypeRegistry
	logger      *logrus.Logger
	displayName string
	overrides   *config.PropertyOverrideConfigurer
}

// WithParent makes lookups fall back to parent's factory.
func WithParent(parent *Application) Option {
	return func(o *options) { o.parent = parent }
}

// WithTypes supplies the class registry used to instantiate beans.
func WithTypes(types *support.TypeRegistry) Option {
	return func(o *options) { o.types = types }
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDisplayName sets a human readable name. Defaults to App.Name.
func WithDisplayName(name string) Option {
	return func(o *options) { o.displayName = name }
}

// WithPropertyOverrides installs c as the "propertyOverrideConfigurer" bean.
func WithPropertyOverrides(c *config.PropertyOverrideConfigurer) Option {
	return func(o *options) { o.overrides = c }
}

// New creates the application and registers the framework providers
// (config, metrics, inspector). Beans are not created until Refresh.
func New(cfg *config.Config, opts ...Option) (*Application, error) {
	if cfg == nil {
		cfg = config.Load()
	}
	o := &options{displayName: cfg.App.Name}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		l, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
		if err != nil {
			return nil, err
		}
		o.logger = l
	}
	if o.types == nil {
		o.types = support.NewTypeRegistry()
	}

	var strategy container.CreationStrategy = support.NewInstantiator(o.types)
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector("")
		strategy = collector.Instrument(strategy)
	}

	factoryOpts := []container.Option{
		container.WithAllowOverriding(cfg.Factory.AllowOverriding),
		container.WithLogger(logging.Component(o.logger, "bean-factory")),
	}
	if o.parent != nil {
		factoryOpts = append(factoryOpts, container.WithParent(o.parent.Factory))
	}
	f := container.New(strategy, factoryOpts...)
	support.RegisterDefaultEditors(f)
	if collector != nil {
		collector.Watch(f)
	}

	a := &Application{
		Factory:     f,
		Providers:   container.NewProviderRegistry(f),
		id:          uuid.NewString(),
		displayName: o.displayName,
		parent:      o.parent,
		cfg:         cfg,
		types:       o.types,
		collector:   collector,
		log:         logging.Component(o.logger, "application"),
	}

	ctx := context.Background()
	core := []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg, Overrides: o.overrides},
	}
	if collector != nil {
		core = append(core, &providers.MetricsServiceProvider{Collector: collector})
	}
	core = append(core, &providers.InspectorServiceProvider{})
	for _, p := range core {
		if err := a.Providers.Register(ctx, p); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// RegisterProvider adds a ServiceProvider to the application.
func (a *Application) RegisterProvider(ctx context.Context, provider container.ServiceProvider) error {
	return a.Providers.Register(ctx, provider)
}

// AddFactoryPostProcessor adds p to the processors run by Refresh, in
// addition to FactoryPostProcessor beans.
func (a *Application) AddFactoryPostProcessor(p container.FactoryPostProcessor) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.factoryProcessors = append(a.factoryProcessors, p)
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

// Refresh boots providers, runs factory post-processors, installs bean
// post-processors and, unless BEANS_PRE_INSTANTIATE is off, creates every
// eager singleton. On failure the created singletons are destroyed.
func (a *Application) Refresh(ctx context.Context) error {
	a.mu.Lock()
	switch {
	case a.closed:
		a.mu.Unlock()
		return ErrClosed
	case a.active:
		a.mu.Unlock()
		return ErrAlreadyRefreshed
	}
	a.startup = time.Now()
	a.mu.Unlock()

	a.log.WithField("id", a.id).Info("refreshing application")

	if err := a.refresh(ctx); err != nil {
		a.log.WithError(err).Error("refresh failed, destroying singletons")
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()
		a.DestroySingletons()
		return err
	}

	a.mu.Lock()
	a.active = true
	a.mu.Unlock()
	a.log.WithFields(logrus.Fields{
		"definitions": a.DefinitionCount(),
		"singletons":  len(a.SingletonNames(nil)),
		"took":        time.Since(a.StartupTime()),
	}).Info("application refreshed")
	return nil
}

func (a *Application) refresh(ctx context.Context) error {
	if err := a.Providers.Boot(ctx); err != nil {
		return err
	}
	if err := a.invokeFactoryPostProcessors(ctx); err != nil {
		return err
	}
	if err := a.registerBeanPostProcessors(ctx); err != nil {
		return err
	}
	if a.cfg.Factory.PreInstantiate {
		return a.PreInstantiateSingletons(ctx)
	}
	return nil
}

func (a *Application) invokeFactoryPostProcessors(ctx context.Context) error {
	found, err := container.ResolveAll[container.FactoryPostProcessor](ctx, a.Factory, false)
	if err != nil {
		return err
	}
	a.mu.Lock()
	processors := append([]container.FactoryPostProcessor(nil), a.factoryProcessors...)
	a.mu.Unlock()
	processors = append(processors, ordered(found)...)
	sort.SliceStable(processors, func(i, j int) bool {
		return container.OrderOf(processors[i]) < container.OrderOf(processors[j])
	})

	for _, p := range processors {
		a.log.WithField("processor", fmt.Sprintf("%T", p)).Debug("invoking factory post-processor")
		if err := p.PostProcessFactory(ctx, a.Factory); err != nil {
			return fmt.Errorf("factory post-processor %T: %w", p, err)
		}
	}
	return nil
}

func (a *Application) registerBeanPostProcessors(ctx context.Context) error {
	found, err := container.ResolveAll[container.BeanPostProcessor](ctx, a.Factory, false)
	if err != nil {
		return err
	}
	for _, p := range ordered(found) {
		a.AddBeanPostProcessor(p)
	}
	return nil
}

// ordered sorts beans by Order, then by name.
func ordered[T any](found map[string]T) []T {
	names := lo.Keys(found)
	sort.Slice(names, func(i, j int) bool {
		oi, oj := container.OrderOf(found[names[i]]), container.OrderOf(found[names[j]])
		if oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})
	return lo.Map(names, func(n string, _ int) T { return found[n] })
}

// Close destroys all singletons. Further calls are no-ops.
func (a *Application) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	wasActive := a.active
	a.active = false
	a.closed = true
	a.mu.Unlock()
	if wasActive {
		a.log.WithField("id", a.id).Info("closing application")
	}
	a.DestroySingletons()
}

// Run refreshes the application if needed and blocks until ctx is done,
// serving the inspector when INSPECTOR_ENABLED is set. Singletons are
// destroyed on return.
func (a *Application) Run(ctx context.Context) error {
	if !a.IsActive() {
		if err := a.Refresh(ctx); err != nil {
			return err
		}
	}
	defer a.Close()

	if !a.cfg.Inspector.Enabled {
		<-ctx.Done()
		return nil
	}
	insp, err := container.Resolve[*inspector.Inspector](ctx, a.Factory, "inspector")
	if err != nil {
		return err
	}
	return insp.Serve(ctx, ":"+a.cfg.Inspector.Port)
}

// ── Accessors ─────────────────────────────────────────────────────────────────

func (a *Application) ID() string                   { return a.id }
func (a *Application) DisplayName() string          { return a.displayName }
func (a *Application) Parent() *Application         { return a.parent }
func (a *Application) Config() *config.Config       { return a.cfg }
func (a *Application) Types() *support.TypeRegistry { return a.types }
func (a *Application) Metrics() *metrics.Collector  { return a.collector }
func (a *Application) Log() *logrus.Entry           { return a.log }

// RegisterClass binds a class name used in definitions to t.
func (a *Application) RegisterClass(name string, t reflect.Type) error {
	return a.types.RegisterType(name, t)
}

// StartupTime returns when the last Refresh started.
func (a *Application) StartupTime() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.startup
}

// IsActive reports whether Refresh succeeded and Close has not been called.
func (a *Application) IsActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.cfg.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.cfg.App.Debug }
func (a *Application) Version() string     { return "0.1.0" }

func (a *Application) String() string {
	return fmt.Sprintf("%s [%s], started on %s; %s",
		a.displayName, a.id, a.StartupTime().Format(time.RFC3339), a.Factory.String())
}
