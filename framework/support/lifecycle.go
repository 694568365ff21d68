package support

import "github.com/km-arc/go-beans/framework/container"

// BeanNameAware beans are told the name they were registered under.
type BeanNameAware interface {
	SetBeanName(name string)
}

// FactoryAware beans receive the factory that created them.
type FactoryAware interface {
	SetBeanFactory(f *container.Factory)
}

// InitializingBean beans are called once all properties are set.
type InitializingBean interface {
	AfterPropertiesSet() error
}

// DisposableBean beans are called when their singleton is destroyed.
type DisposableBean interface {
	Destroy() error
}
