package container

import (
	"context"
	"reflect"
	"sync"
)

// FactoryBean is a bean that produces another object. Looking the bean up
// by name yields the product; "&name" yields the FactoryBean itself.
type FactoryBean interface {
	// Object returns the product. A nil product means the producer is not
	// ready, usually because of a circular reference. ctx carries the
	// caller's creation frame and must be passed to any nested lookup.
	Object(ctx context.Context) (any, error)

	// ObjectType returns the product type, or nil if not known in advance.
	ObjectType() reflect.Type

	// IsSingleton reports whether Object always returns the same instance.
	IsSingleton() bool
}

var factoryBeanType = reflect.TypeOf((*FactoryBean)(nil)).Elem()

// objectForSharedInstance applies the dereference rules to inst. Plain
// beans and dereferenced producers are returned as is; otherwise the
// producer's product is returned, built under the caller's frame.
func (f *Factory) objectForSharedInstance(ctx context.Context, name, beanName string, inst any) (any, error) {
	producer, isFactory := inst.(FactoryBean)
	if isFactoryDereference(name) {
		if !isFactory {
			return nil, &NotAFactoryError{Name: beanName, Actual: reflect.TypeOf(inst)}
		}
		return inst, nil
	}
	if !isFactory {
		return inst, nil
	}

	f.log.WithField("bean", beanName).Debug("bean instance is a factory bean: returning its product")
	product, err := producer.Object(ctx)
	if err != nil {
		return nil, &BeanCreationError{Name: beanName, Message: "factory bean returned an error on object creation", Cause: err}
	}
	if isNil(product) {
		return nil, &FactoryProductUnavailableError{Name: beanName}
	}
	return product, nil
}

// SingletonFactoryBean adapts a constructor into a FactoryBean whose
// product is built once and then shared.
type SingletonFactoryBean struct {
	Type    reflect.Type
	Produce func(ctx context.Context) (any, error)

	mu      sync.Mutex
	product any
}

func (s *SingletonFactoryBean) Object(ctx context.Context) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.product != nil {
		return s.product, nil
	}
	p, err := s.Produce(ctx)
	if err != nil {
		return nil, err
	}
	s.product = p
	return p, nil
}

func (s *SingletonFactoryBean) ObjectType() reflect.Type { return s.Type }
func (s *SingletonFactoryBean) IsSingleton() bool        { return true }
