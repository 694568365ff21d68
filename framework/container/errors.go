package container

import (
	"fmt"
	"reflect"
	"strings"
)

// NoSuchDefinitionError is returned when a name is not registered in the
// factory or any of its ancestors.
type NoSuchDefinitionError struct {
	Name   string
	Reason string
}

func (e *NoSuchDefinitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("no bean named '%s' is defined: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("no bean named '%s' is defined", e.Name)
}

// AbstractBeanError is returned when a lookup targets a template-only definition.
type AbstractBeanError struct {
	Name string
}

func (e *AbstractBeanError) Error() string {
	return fmt.Sprintf("bean definition '%s' is abstract and cannot be instantiated", e.Name)
}

// CircularCreationError is returned when a bean is requested again while it
// is still being created on the same call stack.
type CircularCreationError struct {
	Name  string
	Chain []string
}

func (e *CircularCreationError) Error() string {
	if len(e.Chain) == 0 {
		return fmt.Sprintf("bean '%s' is currently in creation: circular reference", e.Name)
	}
	path := append(append([]string(nil), e.Chain...), e.Name)
	return fmt.Sprintf("bean '%s' is currently in creation: circular reference %s",
		e.Name, strings.Join(path, " -> "))
}

// InvalidArgumentsError is returned when explicit arguments are passed to a
// lookup that cannot use them.
type InvalidArgumentsError struct {
	Name   string
	Reason string
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for bean '%s': %s", e.Name, e.Reason)
}

// DefinitionConflictError is returned when a name is already bound and
// overriding is not allowed.
type DefinitionConflictError struct {
	Name     string
	Existing string
	Incoming string
}

func (e *DefinitionConflictError) Error() string {
	return fmt.Sprintf("cannot register [%s] under bean name '%s': there is already [%s] bound",
		e.Incoming, e.Name, e.Existing)
}

// AliasConflictError is returned when an alias is already bound to a
// different canonical name.
type AliasConflictError struct {
	Alias     string
	Existing  string
	Requested string
}

func (e *AliasConflictError) Error() string {
	return fmt.Sprintf("cannot register alias '%s' for bean name '%s': it is already registered for bean name '%s'",
		e.Alias, e.Requested, e.Existing)
}

// DefinitionStoreError is returned when a definition fails validation at
// registration time.
type DefinitionStoreError struct {
	Name     string
	Resource string
	Cause    error
}

func (e *DefinitionStoreError) Error() string {
	where := ""
	if e.Resource != "" {
		where = fmt.Sprintf(" defined in %s", e.Resource)
	}
	return fmt.Sprintf("error registering bean '%s'%s: %v", e.Name, where, e.Cause)
}

func (e *DefinitionStoreError) Unwrap() error { return e.Cause }

// BeanCreationError wraps any failure raised while creating a bean or while
// obtaining a FactoryBean's product.
type BeanCreationError struct {
	Name    string
	Message string
	Cause   error
}

func (e *BeanCreationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "creation failed"
	}
	if e.Cause != nil {
		return fmt.Sprintf("error creating bean '%s': %s: %v", e.Name, msg, e.Cause)
	}
	return fmt.Sprintf("error creating bean '%s': %s", e.Name, msg)
}

func (e *BeanCreationError) Unwrap() error { return e.Cause }

// FactoryProductUnavailableError is returned when a FactoryBean completes
// normally but yields no product, typically because a circular reference
// left it partially initialised.
type FactoryProductUnavailableError struct {
	Name string
}

func (e *FactoryProductUnavailableError) Error() string {
	return fmt.Sprintf("factory bean '%s' returned nil: not fully initialized, probably due to a circular reference", e.Name)
}

// TypeMismatchError is returned when a bean is not assignable to the type
// the caller required.
type TypeMismatchError struct {
	Name     string
	Required reflect.Type
	Actual   reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("bean named '%s' must be of type [%v], but was actually of type [%v]",
		e.Name, e.Required, e.Actual)
}

// NotAFactoryError is returned when the dereference prefix is used on a
// bean that is not a FactoryBean.
type NotAFactoryError struct {
	Name   string
	Actual reflect.Type
}

func (e *NotAFactoryError) Error() string {
	return fmt.Sprintf("bean named '%s' must be a factory bean to be dereferenced, but was of type [%v]",
		e.Name, e.Actual)
}
