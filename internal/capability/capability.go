// Package capability models optional collaborators injected at startup.
//
// A Capability holds either an implementation of T or nothing. Consumers query
// presence with Get and fall back to their built-in behaviour when it is absent.
package capability

import "reflect"

// Capability is a typed optional dependency.
type Capability[T any] struct {
	impl    T
	present bool
}

// Of wraps impl. A nil interface or nil pointer yields an absent capability.
func Of[T any](impl T) Capability[T] {
	if isNil(impl) {
		return Capability[T]{}
	}
	return Capability[T]{impl: impl, present: true}
}

// None returns an absent capability.
func None[T any]() Capability[T] {
	return Capability[T]{}
}

// Get returns the implementation and whether it is present.
func (c Capability[T]) Get() (T, bool) {
	return c.impl, c.present
}

// Present reports whether an implementation was supplied.
func (c Capability[T]) Present() bool {
	return c.present
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
