package models

import "fmt"

// NotLoaded is the type of Unloaded. It has no fields, so every NotLoaded
// value is the same value.
type NotLoaded struct{}

// Unloaded marks a value the service could supply but the current response
// did not. Consumers must treat it as "unknown, fetch more", never as empty.
var Unloaded = NotLoaded{}

// String renders the marker
func (NotLoaded) String() string {
	return "<NotLoaded>"
}

// Lazy holds either a known value of T or Unloaded. The zero value is Unloaded.
type Lazy[T any] struct {
	value  T
	loaded bool
}

// Known wraps a value delivered by the service
func Known[T any](v T) Lazy[T] {
	return Lazy[T]{value: v, loaded: true}
}

// Pending returns a Lazy holding Unloaded
func Pending[T any]() Lazy[T] {
	return Lazy[T]{}
}

// Loaded reports whether the value is known. An Unloaded Lazy is falsy.
func (l Lazy[T]) Loaded() bool {
	return l.loaded
}

// Get returns the value and whether it is known. Callers must check ok
// before using the value.
func (l Lazy[T]) Get() (T, bool) {
	return l.value, l.loaded
}

// Or returns the value, or fallback when Unloaded
func (l Lazy[T]) Or(fallback T) T {
	if !l.loaded {
		return fallback
	}
	return l.value
}

// String renders the value, or <NotLoaded>
func (l Lazy[T]) String() string {
	if !l.loaded {
		return Unloaded.String()
	}
	return fmt.Sprint(l.value)
}
