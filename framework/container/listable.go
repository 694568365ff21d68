package container

import (
	"context"
	"errors"
	"reflect"

	"github.com/samber/lo"
)

// PreInstantiateSingletons creates every non-abstract, non-lazy singleton
// in registration order. A FactoryBean is created, and its product too when
// the producer reports a singleton product.
//
// On the first failure all singletons created so far are destroyed and the
// error is returned.
func (f *Factory) PreInstantiateSingletons(ctx context.Context) error {
	f.log.WithField("factory", f.String()).Info("pre-instantiating singletons")

	for _, name := range f.DefinitionNames() {
		if err := f.preInstantiate(ctx, name); err != nil {
			f.log.WithField("bean", name).WithError(err).Error("pre-instantiation failed: destroying singletons")
			f.DestroySingletons()
			return err
		}
	}
	return nil
}

func (f *Factory) preInstantiate(ctx context.Context, name string) error {
	merged, err := f.MergedDefinition(name, false)
	if err != nil {
		return err
	}
	if !merged.HasClass() || merged.IsAbstract() || !merged.IsSingleton() || merged.IsLazyInit() {
		return nil
	}

	if !merged.Class().Implements(factoryBeanType) {
		_, err = f.GetBean(ctx, name)
		return err
	}

	producer, err := f.GetBean(ctx, FactoryBeanPrefix+name)
	if err != nil {
		return err
	}
	if producer.(FactoryBean).IsSingleton() {
		_, err = f.GetBean(ctx, name)
	}
	return err
}

// BeansOfType returns the beans assignable to t keyed by name.
//
// Prototypes are created only when includePrototypes is set. With
// includeFactoryBeans set, FactoryBean products whose type matches are
// included too. Beans that are abstract or currently in creation are
// skipped.
func (f *Factory) BeansOfType(ctx context.Context, t reflect.Type, includePrototypes, includeFactoryBeans bool) (map[string]any, error) {
	result := make(map[string]any)

	for _, name := range f.Names(t) {
		singleton, err := f.IsSingleton(ctx, FactoryBeanPrefix+name)
		if err != nil {
			return nil, err
		}
		if !includePrototypes && !singleton {
			continue
		}
		bean, err := f.GetBean(ctx, name)
		if skippable(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if t == nil || reflect.TypeOf(bean).AssignableTo(t) {
			result[name] = bean
		}
	}

	// instances registered directly, without a definition
	for _, name := range f.SingletonNames(t) {
		if f.ContainsDefinition(name) {
			continue
		}
		if bean, ok := f.singletons.get(name); ok {
			result[name] = bean
		}
	}

	if includeFactoryBeans {
		if err := f.collectFactoryProducts(ctx, t, includePrototypes, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (f *Factory) collectFactoryProducts(ctx context.Context, t reflect.Type, includePrototypes bool, result map[string]any) error {
	names := lo.Uniq(append(f.Names(factoryBeanType), f.SingletonNames(factoryBeanType)...))
	for _, name := range names {
		if _, done := result[name]; done {
			continue
		}
		if !includePrototypes && f.ContainsDefinition(name) {
			singleton, err := f.IsSingleton(ctx, FactoryBeanPrefix+name)
			if err != nil {
				return err
			}
			if !singleton {
				continue
			}
		}
		producerAny, err := f.GetBean(ctx, FactoryBeanPrefix+name)
		if skippable(err) {
			continue
		}
		if err != nil {
			return err
		}
		producer := producerAny.(FactoryBean)
		if !includePrototypes && !producer.IsSingleton() {
			continue
		}
		if ot := producer.ObjectType(); ot != nil && t != nil && !ot.AssignableTo(t) {
			continue
		}
		product, err := f.GetBean(ctx, name)
		if skippable(err) {
			continue
		}
		if err != nil {
			return err
		}
		if t == nil || reflect.TypeOf(product).AssignableTo(t) {
			result[name] = product
		}
	}
	return nil
}

// skippable reports lookup failures BeansOfType ignores.
func skippable(err error) bool {
	var (
		circ     *CircularCreationError
		abstract *AbstractBeanError
		product  *FactoryProductUnavailableError
	)
	return errors.As(err, &circ) || errors.As(err, &abstract) || errors.As(err, &product)
}
