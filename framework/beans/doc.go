// Package beans holds the bean definition model: the declarative recipe
// the container follows to build, configure and scope a bean.
//
// # Variants
//
// A definition is either a root or a child. A root is complete. A child
// names a parent definition and records only what it changes:
//
//	service := beans.NewRoot(reflect.TypeOf(&Foo{})).
//	    WithProperty("name", "default").
//	    WithProperty("timeout", "5s")
//
//	special := beans.NewChild("service").
//	    WithProperty("name", "special")
//
// The container resolves a child by merging it over its resolved parent
// (see Merge): properties, constructor arguments and flags set on the child
// win, everything else is inherited.
//
// # Values
//
// Property and constructor argument values are literals, references to
// other beans (Ref) or nested definitions (inner beans). Literal
// conversion to the target field type is left to the creation strategy.
package beans
