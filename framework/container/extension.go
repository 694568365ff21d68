package container

import (
	"context"
	"reflect"

	"github.com/km-arc/go-beans/framework/beans"
)

// ── Creation strategy ─────────────────────────────────────────────────────────

// CreationStrategy instantiates and tears down beans for a Factory.
//
// CreateBean receives the merged (root) definition. ctx carries the
// factory's creation frame: nested lookups made while building the bean
// must pass this ctx back to the factory so circular references are
// detected instead of deadlocking. args is nil unless the caller used
// GetBeanWithArgs.
type CreationStrategy interface {
	CreateBean(ctx context.Context, f *Factory, name string, def *beans.Definition, args []any) (any, error)
	DestroyBean(f *Factory, name string, bean any) error
}

// ── Post-processors ───────────────────────────────────────────────────────────

// BeanPostProcessor hooks into bean initialisation. The creation strategy
// calls BeforeInitialization before init callbacks run and
// AfterInitialization after; either may return a replacement instance.
// ctx is the creation ctx of the bean; lookups made from a callback must
// use it.
type BeanPostProcessor interface {
	BeforeInitialization(ctx context.Context, name string, bean any) (any, error)
	AfterInitialization(ctx context.Context, name string, bean any) (any, error)
}

// FactoryPostProcessor may modify registered definitions before any bean
// is created.
type FactoryPostProcessor interface {
	PostProcessFactory(ctx context.Context, f *Factory) error
}

// Ordered lets post-processors declare their position. Lower runs first.
type Ordered interface {
	Order() int
}

// LowestPrecedence is the order of components that do not implement Ordered.
const LowestPrecedence = int(^uint(0) >> 1)

// OrderOf returns v's order, or LowestPrecedence.
func OrderOf(v any) int {
	if o, ok := v.(Ordered); ok {
		return o.Order()
	}
	return LowestPrecedence
}

// ── Type editors ──────────────────────────────────────────────────────────────

// TypeEditor converts a configured literal into a value of its target type.
type TypeEditor interface {
	Convert(value any) (any, error)
}

// EditorFunc adapts a function to TypeEditor.
type EditorFunc func(value any) (any, error)

func (fn EditorFunc) Convert(value any) (any, error) { return fn(value) }

// AddBeanPostProcessor appends p to the ordered post-processor list.
func (f *Factory) AddBeanPostProcessor(p BeanPostProcessor) {
	f.extMu.Lock()
	defer f.extMu.Unlock()
	f.postProcessors = append(f.postProcessors, p)
}

// BeanPostProcessors returns a copy of the post-processor list.
func (f *Factory) BeanPostProcessors() []BeanPostProcessor {
	f.extMu.RLock()
	defer f.extMu.RUnlock()
	return append([]BeanPostProcessor(nil), f.postProcessors...)
}

// RegisterCustomEditor installs editor for values targeting t.
func (f *Factory) RegisterCustomEditor(t reflect.Type, editor TypeEditor) {
	f.extMu.Lock()
	defer f.extMu.Unlock()
	f.editors[t] = editor
}

// CustomEditor returns the editor registered for t.
func (f *Factory) CustomEditor(t reflect.Type) (TypeEditor, bool) {
	f.extMu.RLock()
	defer f.extMu.RUnlock()
	e, ok := f.editors[t]
	return e, ok
}

// CustomEditors returns a copy of the editor registry.
func (f *Factory) CustomEditors() map[reflect.Type]TypeEditor {
	f.extMu.RLock()
	defer f.extMu.RUnlock()
	out := make(map[reflect.Type]TypeEditor, len(f.editors))
	for t, e := range f.editors {
		out[t] = e
	}
	return out
}
