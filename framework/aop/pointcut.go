package aop

import (
	"fmt"
	"reflect"
	"regexp"
)

// Pointcut selects the methods an advisor applies to.
type Pointcut interface {
	Matches(iface reflect.Type, method string) bool
}

// PointcutFunc adapts a function to Pointcut.
type PointcutFunc func(iface reflect.Type, method string) bool

func (fn PointcutFunc) Matches(iface reflect.Type, method string) bool { return fn(iface, method) }

// TruePointcut matches every method.
var TruePointcut Pointcut = PointcutFunc(func(reflect.Type, string) bool { return true })

// RegexpMethodPointcut matches "Interface.Method" against its patterns,
// minus any exclusions. Patterns are anchored.
type RegexpMethodPointcut struct {
	patterns []*regexp.Regexp
	excludes []*regexp.Regexp
}

// NewRegexpMethodPointcut compiles patterns and exclusions.
//
//	pc, _ := aop.NewRegexpMethodPointcut([]string{`Greeter\..*`}, []string{`.*\.Close`})
func NewRegexpMethodPointcut(patterns, excludes []string) (*RegexpMethodPointcut, error) {
	pc := &RegexpMethodPointcut{}
	var err error
	if pc.patterns, err = compileAll(patterns); err != nil {
		return nil, err
	}
	if pc.excludes, err = compileAll(excludes); err != nil {
		return nil, err
	}
	return pc, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("^(?:" + p + ")$")
		if err != nil {
			return nil, fmt.Errorf("aop: pointcut pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func (pc *RegexpMethodPointcut) Matches(iface reflect.Type, method string) bool {
	name := method
	if iface != nil {
		name = iface.Name() + "." + method
	}
	if !matchAny(pc.patterns, name) {
		return false
	}
	return !matchAny(pc.excludes, name)
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Advisor pairs advice with the pointcut selecting where it applies.
type Advisor struct {
	Pointcut Pointcut
	Advice   any
}

// NewAdvisor returns an advisor applying advice to every method.
func NewAdvisor(advice any) Advisor {
	return Advisor{Pointcut: TruePointcut, Advice: advice}
}

func (a Advisor) matches(iface reflect.Type, method string) bool {
	if a.Pointcut == nil {
		return true
	}
	return a.Pointcut.Matches(iface, method)
}
