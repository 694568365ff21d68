package aop

import (
	"fmt"
	"reflect"
)

// ── Advice kinds ──────────────────────────────────────────────────────────────

// MethodInterceptor surrounds a call. It continues the chain with
// inv.Proceed and may rewrite the results or skip the call entirely.
type MethodInterceptor interface {
	Invoke(inv *Invocation) ([]any, error)
}

// BeforeAdvice runs before the call. A returned error aborts it.
type BeforeAdvice interface {
	Before(inv *Invocation) error
}

// AfterReturningAdvice observes the results of a call that returned
// normally. It is skipped when anything further down the chain fails.
type AfterReturningAdvice interface {
	AfterReturning(results []any, inv *Invocation) error
}

// ThrowsAdvice sees a failed call. It may return a replacement error;
// returning err unchanged propagates it.
type ThrowsAdvice interface {
	AfterThrowing(err error, inv *Invocation) error
}

// InterceptorFunc adapts a function to MethodInterceptor.
type InterceptorFunc func(inv *Invocation) ([]any, error)

func (fn InterceptorFunc) Invoke(inv *Invocation) ([]any, error) { return fn(inv) }

// BeforeFunc adapts a function to BeforeAdvice.
type BeforeFunc func(inv *Invocation) error

func (fn BeforeFunc) Before(inv *Invocation) error { return fn(inv) }

// AfterReturningFunc adapts a function to AfterReturningAdvice.
type AfterReturningFunc func(results []any, inv *Invocation) error

func (fn AfterReturningFunc) AfterReturning(results []any, inv *Invocation) error {
	return fn(results, inv)
}

// ThrowsFunc adapts a function to ThrowsAdvice.
type ThrowsFunc func(err error, inv *Invocation) error

func (fn ThrowsFunc) AfterThrowing(err error, inv *Invocation) error { return fn(err, inv) }

// ── Adaptation to interceptors ────────────────────────────────────────────────

type beforeInterceptor struct{ advice BeforeAdvice }

func (b beforeInterceptor) Invoke(inv *Invocation) ([]any, error) {
	if err := b.advice.Before(inv); err != nil {
		return nil, err
	}
	return inv.Proceed()
}

type afterReturningInterceptor struct{ advice AfterReturningAdvice }

func (a afterReturningInterceptor) Invoke(inv *Invocation) ([]any, error) {
	results, err := inv.Proceed()
	if err != nil {
		return results, err
	}
	if err := a.advice.AfterReturning(append([]any(nil), results...), inv); err != nil {
		return nil, err
	}
	return results, nil
}

type throwsInterceptor struct{ advice ThrowsAdvice }

func (t throwsInterceptor) Invoke(inv *Invocation) ([]any, error) {
	results, err := inv.Proceed()
	if err != nil {
		return results, t.advice.AfterThrowing(err, inv)
	}
	return results, nil
}

// interceptorFor converts a supported advice value into an interceptor.
func interceptorFor(advice any) (MethodInterceptor, error) {
	switch a := advice.(type) {
	case MethodInterceptor:
		return a, nil
	case BeforeAdvice:
		return beforeInterceptor{a}, nil
	case AfterReturningAdvice:
		return afterReturningInterceptor{a}, nil
	case ThrowsAdvice:
		return throwsInterceptor{a}, nil
	default:
		return nil, &UnsupportedAdviceError{Type: reflect.TypeOf(advice)}
	}
}

// ── Errors ────────────────────────────────────────────────────────────────────

// UnsupportedAdviceError is returned for advice that implements none of
// the advice interfaces.
type UnsupportedAdviceError struct {
	Type reflect.Type
}

func (e *UnsupportedAdviceError) Error() string {
	return fmt.Sprintf("aop: %v is not a supported advice type", e.Type)
}

// NoTargetError is returned when the chain is exhausted on a proxy without
// a target.
type NoTargetError struct {
	Method string
}

func (e *NoTargetError) Error() string {
	return fmt.Sprintf("aop: no target to invoke for %s; an interceptor must handle the call", e.Method)
}

// UnknownMethodError is returned by Invoke for methods outside the proxy's
// interfaces.
type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("aop: proxy does not implement method %s", e.Method)
}

// NotImplementedError is returned when the target does not implement an
// interface it is proxied for.
type NotImplementedError struct {
	Target    reflect.Type
	Interface reflect.Type
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("aop: %v does not implement %v", e.Target, e.Interface)
}
