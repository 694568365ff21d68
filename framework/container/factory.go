package container

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/km-arc/go-beans/framework/beans"
)

// FactoryBeanPrefix dereferences a FactoryBean: "&name" returns the
// producer itself rather than the object it produces.
const FactoryBeanPrefix = "&"

// ── Interfaces ────────────────────────────────────────────────────────────────

// BeanFactory is the lookup contract a Factory offers to its children.
type BeanFactory interface {
	GetBean(ctx context.Context, name string) (any, error)
	ContainsBean(name string) bool
	IsSingleton(ctx context.Context, name string) (bool, error)
	GetAliases(name string) ([]string, error)
}

// argumentBeanFactory is implemented by parents that can create
// prototypes from explicit arguments.
type argumentBeanFactory interface {
	GetBeanWithArgs(ctx context.Context, name string, args ...any) (any, error)
}

// mergedDefinitionSource is implemented by parents able to resolve
// definitions for a child factory's merge.
type mergedDefinitionSource interface {
	MergedDefinition(name string, includingAncestors bool) (*beans.Definition, error)
}

// ── Factory ───────────────────────────────────────────────────────────────────

// Factory is a bean factory: a registry of bean definitions plus the
// singleton cache and lookup protocol built on top of it.
//
// It supports:
//   - ordered definition registration with an override policy
//   - aliases
//   - singleton and prototype scopes, with circular creation detection
//   - parent/child definition merging
//   - FactoryBean producers and the "&" dereference prefix
//   - delegation to a parent factory
type Factory struct {
	defMu           sync.RWMutex
	definitions     map[string]*beans.Definition
	names           []string
	allowOverriding bool

	aliasMu sync.RWMutex
	aliases map[string]string

	singletons *singletonCache

	extMu          sync.RWMutex
	postProcessors []BeanPostProcessor
	editors        map[reflect.Type]TypeEditor

	parent   BeanFactory
	strategy CreationStrategy
	log      *logrus.Entry
}

// Option configures a Factory.
type Option func(*Factory)

// WithParent sets the parent factory consulted for names not defined
// locally. The child never manages the parent's lifecycle.
func WithParent(parent BeanFactory) Option {
	return func(f *Factory) { f.parent = parent }
}

// WithAllowOverriding controls whether a name may be re-registered.
func WithAllowOverriding(allow bool) Option {
	return func(f *Factory) { f.allowOverriding = allow }
}

// WithLogger sets the log entry used by the factory.
func WithLogger(log *logrus.Entry) Option {
	return func(f *Factory) {
		if log != nil {
			f.log = log
		}
	}
}

// New creates an empty factory that builds beans with strategy.
//
//	f := container.New(support.NewInstantiator(types), container.WithAllowOverriding(false))
func New(strategy CreationStrategy, opts ...Option) *Factory {
	f := &Factory{
		definitions:     make(map[string]*beans.Definition),
		allowOverriding: true,
		aliases:         make(map[string]string),
		singletons:      newSingletonCache(),
		editors:         make(map[reflect.Type]TypeEditor),
		strategy:        strategy,
		log:             logrus.StandardLogger().WithField("component", "bean-factory"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Parent returns the parent factory, or nil.
func (f *Factory) Parent() BeanFactory { return f.parent }

// Logger returns the factory's log entry.
func (f *Factory) Logger() *logrus.Entry { return f.log }

// ── Resolution ────────────────────────────────────────────────────────────────

// GetBean returns the bean registered under name, creating it if needed.
//
// name may be an alias and may carry the "&" prefix. When the name is not
// defined locally the lookup is delegated to the parent factory.
//
// ctx identifies the calling creation stack. Code running inside a
// CreationStrategy or a FactoryBean must pass the ctx it was given.
func (f *Factory) GetBean(ctx context.Context, name string) (any, error) {
	return f.doGetBean(ctx, name, nil)
}

// GetBeanOfType is GetBean plus a check that the instance is assignable
// to required.
func (f *Factory) GetBeanOfType(ctx context.Context, name string, required reflect.Type) (any, error) {
	bean, err := f.GetBean(ctx, name)
	if err != nil {
		return nil, err
	}
	if required != nil && !reflect.TypeOf(bean).AssignableTo(required) {
		return nil, &TypeMismatchError{Name: name, Required: required, Actual: reflect.TypeOf(bean)}
	}
	return bean, nil
}

// GetBeanWithArgs creates a prototype through its factory method using
// explicit arguments. Any other use of args fails with InvalidArgumentsError.
func (f *Factory) GetBeanWithArgs(ctx context.Context, name string, args ...any) (any, error) {
	if args == nil {
		args = []any{}
	}
	return f.doGetBean(ctx, name, args)
}

func (f *Factory) doGetBean(ctx context.Context, name string, args []any) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	beanName, err := f.transformedBeanName(name)
	if err != nil {
		return nil, err
	}

	// eagerly check the cache for already created or registered singletons
	if shared, ok := f.singletons.get(beanName); ok {
		if !isInCreation(shared) {
			if args != nil {
				return nil, &InvalidArgumentsError{Name: name,
					Reason: "cannot specify arguments when referring to a singleton bean"}
			}
			f.log.WithField("bean", beanName).Debug("returning cached instance of singleton bean")
			return f.objectForSharedInstance(ctx, name, beanName, shared)
		}
		if f.holdsCreationLock(ctx) {
			return nil, f.circular(ctx, beanName)
		}
		// in creation on another goroutine: wait for it under the lock below
	}

	if !f.ContainsDefinition(beanName) && f.parent != nil {
		if args != nil {
			p, ok := f.parent.(argumentBeanFactory)
			if !ok {
				return nil, &InvalidArgumentsError{Name: name,
					Reason: "parent factory does not accept explicit arguments"}
			}
			return p.GetBeanWithArgs(ctx, name, args...)
		}
		return f.parent.GetBean(ctx, name)
	}

	merged, err := f.MergedDefinition(beanName, false)
	if err != nil {
		return nil, err
	}
	if merged.IsAbstract() {
		return nil, &AbstractBeanError{Name: name}
	}
	if args != nil {
		if merged.IsSingleton() {
			return nil, &InvalidArgumentsError{Name: name,
				Reason: "cannot specify arguments when referring to a singleton bean"}
		}
		if merged.FactoryMethod() == "" {
			return nil, &InvalidArgumentsError{Name: name,
				Reason: "arguments can only be used in conjunction with a factory method"}
		}
	}

	if merged.IsSingleton() {
		shared, err := f.getOrCreateSingleton(ctx, beanName, merged)
		if err != nil {
			return nil, err
		}
		return f.objectForSharedInstance(ctx, name, beanName, shared)
	}

	if f.inCreationOnStack(ctx, beanName) {
		return nil, f.circular(ctx, beanName)
	}
	bean, err := f.createBean(ctx, beanName, merged, args, f.holdsCreationLock(ctx))
	if err != nil {
		return nil, err
	}
	return f.objectForSharedInstance(ctx, name, beanName, bean)
}

// createBean hands the merged definition to the strategy inside a new
// creation frame and normalises the result.
func (f *Factory) createBean(ctx context.Context, name string, def *beans.Definition, args []any, holdsLock bool) (any, error) {
	if f.strategy == nil {
		return nil, &BeanCreationError{Name: name, Message: "no creation strategy configured"}
	}
	ctx = withFrame(ctx, f, name, holdsLock)

	bean, err := f.strategy.CreateBean(ctx, f, name, def, args)
	if err != nil {
		var bce *BeanCreationError
		if errors.As(err, &bce) && bce.Name == name {
			return nil, err
		}
		return nil, &BeanCreationError{Name: name, Cause: err}
	}
	if isNil(bean) {
		return nil, &BeanCreationError{Name: name, Message: "creation strategy returned nil"}
	}
	return bean, nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

// ContainsBean reports whether name is cached, defined locally, or known
// to an ancestor.
func (f *Factory) ContainsBean(name string) bool {
	beanName, err := f.transformedBeanName(name)
	if err != nil {
		return false
	}
	if f.singletons.contains(beanName) || f.ContainsDefinition(beanName) {
		return true
	}
	if f.parent != nil {
		return f.parent.ContainsBean(beanName)
	}
	return false
}

// IsSingleton reports whether lookups of name return a shared instance.
//
// For a FactoryBean the producer's IsSingleton governs, unless name carries
// the "&" prefix, in which case the producer's own definition scope does.
func (f *Factory) IsSingleton(ctx context.Context, name string) (bool, error) {
	beanName, err := f.transformedBeanName(name)
	if err != nil {
		return false, err
	}

	var class reflect.Type
	singleton := true
	if inst, ok := f.singletons.get(beanName); ok && !isInCreation(inst) {
		class = reflect.TypeOf(inst)
	} else {
		if !f.ContainsDefinition(beanName) && f.parent != nil {
			return f.parent.IsSingleton(ctx, beanName)
		}
		merged, err := f.MergedDefinition(beanName, false)
		if err != nil {
			return false, err
		}
		class = merged.Class()
		singleton = merged.IsSingleton()
	}

	if class != nil && class.Implements(factoryBeanType) && !isFactoryDereference(name) {
		producer, err := f.GetBean(ctx, FactoryBeanPrefix+beanName)
		if err != nil {
			return false, err
		}
		return producer.(FactoryBean).IsSingleton(), nil
	}
	return singleton, nil
}

// GetAliases returns the aliases of name, when name resolves locally;
// otherwise the parent is asked.
func (f *Factory) GetAliases(name string) ([]string, error) {
	beanName, err := f.transformedBeanName(name)
	if err != nil {
		return nil, err
	}
	if f.singletons.contains(beanName) || f.ContainsDefinition(beanName) {
		return f.aliasesFor(beanName), nil
	}
	if f.parent != nil {
		return f.parent.GetAliases(beanName)
	}
	return nil, &NoSuchDefinitionError{Name: beanName}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// transformedBeanName strips the dereference prefix and resolves aliases
// to the canonical name.
func (f *Factory) transformedBeanName(name string) (string, error) {
	if name == "" {
		return "", &NoSuchDefinitionError{Name: name, Reason: "cannot get bean with empty name"}
	}
	name = strings.TrimPrefix(name, FactoryBeanPrefix)
	return f.canonical(name), nil
}

func isFactoryDereference(name string) bool {
	return strings.HasPrefix(name, FactoryBeanPrefix)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func (f *Factory) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "bean factory defining beans [%s]", strings.Join(f.DefinitionNames(), ","))
	if f.parent == nil {
		b.WriteString("; root of factory hierarchy")
	} else {
		fmt.Fprintf(&b, "; parent=<%v>", f.parent)
	}
	return b.String()
}
