package container

import (
	"context"
	"fmt"
	"sync"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider supplies bean definitions to a factory.
//
// Register is called as soon as the provider is added and should only
// register definitions, aliases or singletons. Boot is called after ALL
// providers have been registered, making it safe to look beans up.
//
//	type RepoProvider struct{ container.BaseProvider }
//
//	func (p *RepoProvider) Register(f *container.Factory) error {
//	    return f.Register("userRepo", beans.NewRootNamed("repo.Users").
//	        WithRef("db", "dataSource"))
//	}
type ServiceProvider interface {
	// Register adds definitions to f. Do NOT look beans up here.
	Register(f *Factory) error

	// Boot is called after all providers are registered.
	Boot(ctx context.Context, f *Factory) error
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with a no-op Boot.
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(f *container.Factory) error { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ context.Context, _ *Factory) error { return nil }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry runs the register and boot phases of a set of providers
// against one factory.
type ProviderRegistry struct {
	mu         sync.Mutex
	factory    *Factory
	providers  []ServiceProvider
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a registry bound to f.
func NewProviderRegistry(f *Factory) *ProviderRegistry {
	return &ProviderRegistry{
		factory:    f,
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register method. Adding the same
// provider twice is a no-op. Providers added after Boot are booted
// immediately.
func (r *ProviderRegistry) Register(ctx context.Context, provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true
	booted := r.booted
	r.mu.Unlock()

	if err := provider.Register(r.factory); err != nil {
		return fmt.Errorf("register provider %T: %w", provider, err)
	}

	r.mu.Lock()
	r.providers = append(r.providers, provider)
	r.mu.Unlock()

	if booted {
		if err := provider.Boot(ctx, r.factory); err != nil {
			return fmt.Errorf("boot provider %T: %w", provider, err)
		}
	}
	return nil
}

// Boot calls Boot on every registered provider in registration order.
// Subsequent calls are no-ops.
func (r *ProviderRegistry) Boot(ctx context.Context) error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	providers := append([]ServiceProvider(nil), r.providers...)
	r.mu.Unlock()

	for _, provider := range providers {
		if err := provider.Boot(ctx, r.factory); err != nil {
			return fmt.Errorf("boot provider %T: %w", provider, err)
		}
	}
	return nil
}

// Booted returns true if Boot has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns the registered providers in registration order.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.providers...)
}
