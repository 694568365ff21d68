package container

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/km-arc/go-beans/framework/beans"
)

// creationMarker occupies a singleton slot while its bean is being built.
// The type is unexported so no caller-supplied bean can ever equal it.
type creationMarker struct{ name string }

func isInCreation(v any) bool {
	_, ok := v.(*creationMarker)
	return ok
}

// ── Cache ─────────────────────────────────────────────────────────────────────

// singletonCache maps bean names to shared instances.
//
// create serialises ABSENT -> IN_CREATION -> CACHED transitions; mu guards
// the maps themselves so cached reads never wait on a creation.
type singletonCache struct {
	create sync.Mutex

	mu      sync.RWMutex
	entries map[string]any
	order   []string
}

func newSingletonCache() *singletonCache {
	return &singletonCache{entries: make(map[string]any)}
}

func (c *singletonCache) get(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[name]
	return v, ok
}

func (c *singletonCache) contains(name string) bool {
	_, ok := c.get(name)
	return ok
}

// put stores v. order records completion, so a bean lands after the
// dependencies it pulled in while it was being created.
func (c *singletonCache) put(name string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, seen := c.entries[name]
	c.entries[name] = v
	if isInCreation(v) {
		return
	}
	if !seen || isInCreation(prev) {
		c.order = append(c.order, name)
	}
}

// putIfAbsent stores v and reports true when name was free.
func (c *singletonCache) putIfAbsent(name string, v any) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[name]; ok {
		return existing, false
	}
	c.entries[name] = v
	c.order = append(c.order, name)
	return v, true
}

func (c *singletonCache) remove(name string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[name]
	if !ok {
		return nil, false
	}
	delete(c.entries, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return v, true
}

// names returns the names of fully created instances in creation order.
func (c *singletonCache) names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.order))
	for _, n := range c.order {
		if !isInCreation(c.entries[n]) {
			out = append(out, n)
		}
	}
	return out
}

// ── Creation frames ───────────────────────────────────────────────────────────

type frameKey struct{}

// creationFrame records one bean under construction on the current call
// stack. Frames are carried by the ctx handed to the creation strategy.
type creationFrame struct {
	factory   *Factory
	name      string
	holdsLock bool
	prev      *creationFrame
}

func withFrame(ctx context.Context, f *Factory, name string, holdsLock bool) context.Context {
	prev, _ := ctx.Value(frameKey{}).(*creationFrame)
	return context.WithValue(ctx, frameKey{}, &creationFrame{
		factory:   f,
		name:      name,
		holdsLock: holdsLock,
		prev:      prev,
	})
}

func frames(ctx context.Context) *creationFrame {
	fr, _ := ctx.Value(frameKey{}).(*creationFrame)
	return fr
}

// holdsCreationLock reports whether the stack behind ctx already owns f's
// creation lock.
func (f *Factory) holdsCreationLock(ctx context.Context) bool {
	for fr := frames(ctx); fr != nil; fr = fr.prev {
		if fr.factory == f && fr.holdsLock {
			return true
		}
	}
	return false
}

func (f *Factory) inCreationOnStack(ctx context.Context, name string) bool {
	for fr := frames(ctx); fr != nil; fr = fr.prev {
		if fr.factory == f && fr.name == name {
			return true
		}
	}
	return false
}

// circular builds the error for name, listing this factory's frames
// outermost first.
func (f *Factory) circular(ctx context.Context, name string) error {
	var chain []string
	for fr := frames(ctx); fr != nil; fr = fr.prev {
		if fr.factory == f {
			chain = append([]string{fr.name}, chain...)
		}
	}
	return &CircularCreationError{Name: name, Chain: chain}
}

// lockCreation acquires the creation lock unless the stack behind ctx
// already owns it. The returned func releases what was acquired.
func (f *Factory) lockCreation(ctx context.Context) func() {
	if f.holdsCreationLock(ctx) {
		return func() {}
	}
	f.singletons.create.Lock()
	return f.singletons.create.Unlock
}

// ── Singleton lifecycle ───────────────────────────────────────────────────────

// getOrCreateSingleton returns the cached instance for name or creates it.
// At most one creation runs per name; concurrent callers wait and then
// observe the cached instance.
func (f *Factory) getOrCreateSingleton(ctx context.Context, name string, def *beans.Definition) (any, error) {
	release := f.lockCreation(ctx)
	defer release()

	if shared, ok := f.singletons.get(name); ok {
		if isInCreation(shared) {
			return nil, f.circular(ctx, name)
		}
		return shared, nil
	}

	f.singletons.put(name, &creationMarker{name: name})
	f.log.WithField("bean", name).Info("creating shared instance of singleton bean")

	bean, err := f.createBean(ctx, name, def, nil, true)
	if err != nil {
		f.singletons.remove(name)
		return nil, err
	}
	f.singletons.put(name, bean)
	return bean, nil
}

// RegisterSingleton stores an externally built instance under name.
func (f *Factory) RegisterSingleton(name string, bean any) error {
	if name == "" || isNil(bean) {
		return &DefinitionStoreError{Name: name, Cause: fmt.Errorf("singleton name and instance must not be empty")}
	}
	if existing, ok := f.singletons.putIfAbsent(name, bean); !ok {
		return &DefinitionConflictError{
			Name:     name,
			Existing: fmt.Sprintf("%T", existing),
			Incoming: fmt.Sprintf("%T", bean),
		}
	}
	f.log.WithField("bean", name).Debug("registered singleton instance")
	return nil
}

// SingletonNames returns the names of created singletons assignable to t,
// or all of them when t is nil.
func (f *Factory) SingletonNames(t reflect.Type) []string {
	names := f.singletons.names()
	if t == nil {
		return names
	}
	out := names[:0]
	for _, n := range names {
		if v, ok := f.singletons.get(n); ok && reflect.TypeOf(v).AssignableTo(t) {
			out = append(out, n)
		}
	}
	return out
}

// DestroySingletons empties the cache, handing every instance to the
// strategy's DestroyBean in reverse creation order. Failures are logged
// and do not stop the sweep.
func (f *Factory) DestroySingletons() {
	f.log.Info("destroying singletons")

	names := f.singletons.names()
	for i := len(names) - 1; i >= 0; i-- {
		if bean, ok := f.singletons.remove(names[i]); ok {
			f.destroyBean(names[i], bean)
		}
	}
}

func (f *Factory) destroyBean(name string, bean any) {
	defer func() {
		if r := recover(); r != nil {
			f.log.WithField("bean", name).Errorf("destroy method panicked: %v", r)
		}
	}()
	if f.strategy == nil {
		return
	}
	if err := f.strategy.DestroyBean(f, name, bean); err != nil {
		f.log.WithField("bean", name).WithError(err).Error("destroy method failed")
	}
}
