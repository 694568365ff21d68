// Package inspector serves a read-only JSON view of a bean factory.
//
//	GET /beans            definitions in registration order (?scope=, ?cached)
//	GET /beans/{name}     merged definition of one bean or alias
//	GET /singletons       names of cached singletons in creation order
//	GET /health           liveness plus basic counts
//	GET /metrics          Prometheus exposition, when a gatherer is set
package inspector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/km-arc/go-beans/framework/beans"
	"github.com/km-arc/go-beans/framework/container"
	gohttp "github.com/km-arc/go-beans/framework/http"
	"github.com/km-arc/go-beans/framework/routing"
)

// Inspector exposes f over HTTP. It never creates beans.
type Inspector struct {
	factory  *container.Factory
	gatherer prometheus.Gatherer
	log      *logrus.Entry
	router   *routing.Router
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithGatherer serves g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(i *Inspector) { i.gatherer = g }
}

// WithLogger sets the request and server logger.
func WithLogger(log *logrus.Entry) Option {
	return func(i *Inspector) { i.log = log }
}

// New builds the inspector routes for f.
func New(f *container.Factory, opts ...Option) *Inspector {
	i := &Inspector{factory: f, log: f.Logger().WithField("component", "inspector")}
	for _, opt := range opts {
		opt(i)
	}

	r := routing.New(i.log)
	r.Get("/beans", i.listBeans)
	r.Get("/beans/{name}", i.showBean)
	r.Get("/singletons", i.listSingletons)
	r.Get("/health", i.health)
	if i.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(i.gatherer, promhttp.HandlerOpts{}))
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		gohttp.NewResponse(w).NotFound()
	})
	i.router = r
	return i
}

// ServeHTTP implements http.Handler.
func (i *Inspector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	i.router.ServeHTTP(w, r)
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (i *Inspector) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: i, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		i.log.WithField("addr", addr).Info("inspector listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("inspector: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		i.log.Info("inspector shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// ── Views ─────────────────────────────────────────────────────────────────────

// BeanSummary is one row of GET /beans.
type BeanSummary struct {
	Name     string `json:"name"`
	Class    string `json:"class,omitempty"`
	Scope    string `json:"scope"`
	Lazy     bool   `json:"lazy"`
	Abstract bool   `json:"abstract"`
	Cached   bool   `json:"cached"`
	Parent   string `json:"parent,omitempty"`
}

// BeanDetail is the body of GET /beans/{name}.
type BeanDetail struct {
	BeanSummary
	Aliases       []string          `json:"aliases"`
	Singleton     bool              `json:"singleton"`
	Properties    map[string]string `json:"properties,omitempty"`
	DependsOn     []string          `json:"dependsOn,omitempty"`
	FactoryBean   string            `json:"factoryBean,omitempty"`
	FactoryMethod string            `json:"factoryMethod,omitempty"`
	InitMethod    string            `json:"initMethod,omitempty"`
	DestroyMethod string            `json:"destroyMethod,omitempty"`
	Resource      string            `json:"resource,omitempty"`
}

func (i *Inspector) summary(name string, cached []string) (BeanSummary, *beans.Definition, error) {
	raw, err := i.factory.Definition(name)
	if err != nil {
		return BeanSummary{}, nil, err
	}
	merged, err := i.factory.MergedDefinition(name, true)
	if err != nil {
		return BeanSummary{}, nil, err
	}
	scope := string(merged.Scope())
	if scope == "" {
		scope = string(beans.ScopeSingleton)
	}
	return BeanSummary{
		Name:     name,
		Class:    merged.TypeName(),
		Scope:    scope,
		Lazy:     merged.IsLazyInit(),
		Abstract: merged.IsAbstract(),
		Cached:   lo.Contains(cached, name),
		Parent:   raw.ParentName(),
	}, merged, nil
}

// ── Handlers ──────────────────────────────────────────────────────────────────

func (i *Inspector) listBeans(w http.ResponseWriter, r *http.Request) {
	req := gohttp.NewRequest(r)
	res := gohttp.NewResponse(w)
	scope := req.Query("scope")
	cachedOnly := req.QueryBool("cached", false)
	cached := i.factory.SingletonNames(nil)

	out := make([]BeanSummary, 0, i.factory.DefinitionCount())
	for _, name := range i.factory.DefinitionNames() {
		s, _, err := i.summary(name, cached)
		if err != nil {
			i.log.WithField("bean", name).WithError(err).Warn("cannot describe bean")
			continue
		}
		if scope != "" && s.Scope != scope {
			continue
		}
		if cachedOnly && !s.Cached {
			continue
		}
		out = append(out, s)
	}
	res.Success(out)
}

func (i *Inspector) showBean(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	raw := strings.TrimPrefix(gohttp.NewRequest(r).RouteParam("name"), container.FactoryBeanPrefix)
	name := i.factory.CanonicalName(raw)

	s, merged, err := i.summary(name, i.factory.SingletonNames(nil))
	if err != nil {
		var nsd *container.NoSuchDefinitionError
		if errors.As(err, &nsd) {
			res.NotFound(err.Error())
			return
		}
		res.ServerError(err.Error())
		return
	}

	aliases, err := i.factory.GetAliases(name)
	if err != nil {
		aliases = nil
	}
	detail := BeanDetail{
		BeanSummary:   s,
		Aliases:       lo.Ternary(aliases == nil, []string{}, aliases),
		Singleton:     merged.IsSingleton(),
		DependsOn:     merged.DependsOn(),
		FactoryBean:   merged.FactoryBean(),
		FactoryMethod: merged.FactoryMethod(),
		InitMethod:    merged.InitMethod(),
		DestroyMethod: merged.DestroyMethod(),
		Resource:      merged.ResourceDescription(),
	}
	if props := merged.Properties().All(); len(props) > 0 {
		detail.Properties = make(map[string]string, len(props))
		for _, p := range props {
			detail.Properties[p.Name] = describe(p.Value)
		}
	}
	res.Success(detail)
}

func (i *Inspector) listSingletons(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(i.factory.SingletonNames(nil))
}

func (i *Inspector) health(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(map[string]any{
		"status":      "ok",
		"definitions": i.factory.DefinitionCount(),
		"singletons":  len(i.factory.SingletonNames(nil)),
	})
}

// describe renders a configured value without resolving it.
func describe(v any) string {
	switch val := v.(type) {
	case beans.Ref:
		return val.String()
	case *beans.Definition:
		return "<inner " + val.TypeName() + ">"
	default:
		return fmt.Sprint(v)
	}
}
