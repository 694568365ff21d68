// Package container provides the bean factory: a registry of bean
// definitions plus the lookup protocol that turns them into instances.
//
// # Factory Lifecycle
//
//  1. Create: f := container.New(strategy)
//  2. Register definitions, directly or through providers
//  3. Optionally pre-instantiate: f.PreInstantiateSingletons(ctx)
//  4. Look beans up
//  5. Shut down: f.DestroySingletons()
//
// # Definitions
//
//	// Singleton (the default scope), created once and cached
//	f.Register("cache", beans.NewRoot(reflect.TypeOf(&RedisCache{})).
//	    WithProperty("addr", "localhost:6379"))
//
//	// Prototype, a new instance for every lookup
//	f.Register("job", beans.NewRootNamed("jobs.Import").
//	    WithScope(beans.ScopePrototype))
//
//	// Child, inherits everything it does not set from "cache"
//	f.Register("sessionCache", beans.NewChild("cache").
//	    WithProperty("addr", "localhost:6380"))
//
//	// Alias
//	f.RegisterAlias("sessions", "sessionCache")
//
// # Resolving
//
//	// Untyped
//	raw, err := f.GetBean(ctx, "cache")
//
//	// Generic (preferred, no type assertion required)
//	cache, err := container.Resolve[*RedisCache](ctx, f, "cache")
//
// A CreationStrategy receives a ctx carrying the creation frame of the
// bean it builds. Nested lookups must reuse that ctx: it is how the factory
// tells a circular reference on the same stack from a concurrent creation
// on another goroutine.
//
// # FactoryBean
//
// A bean implementing FactoryBean is a producer. Looking it up by name
// returns its product; prefixing the name with "&" returns the producer.
//
//	conn, _ := f.GetBean(ctx, "connection")   // product
//	fb, _ := f.GetBean(ctx, "&connection")    // the FactoryBean
//
// # Hierarchy
//
// A factory created WithParent falls back to the parent for names it does
// not define, and a child definition may name a parent definition that
// only the parent factory knows.
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(f *container.Factory) error {
//	    return f.Register("mailer", beans.NewRootNamed("mail.SMTP"))
//	}
//
//	registry := container.NewProviderRegistry(f)
//	registry.Register(ctx, &AppServiceProvider{})
//	registry.Boot(ctx)
package container
