// Package optional provides a presence-aware wrapper for partial-update
// request fields, distinguishing "leave unchanged" from an explicit value.
package optional

// Value holds a field value together with whether the field was supplied.
type Value[T any] struct {
	value   T
	present bool
}

// Some returns a present Value wrapping v.
func Some[T any](v T) Value[T] {
	return Value[T]{value: v, present: true}
}

// None returns an absent Value.
func None[T any]() Value[T] {
	return Value[T]{}
}

// FromPointer converts a decoded JSON pointer into a Value: a nil pointer
// means the field was absent from the request.
func FromPointer[T any](p *T) Value[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// Present reports whether the field was supplied.
func (v Value[T]) Present() bool {
	return v.present
}

// Get returns the wrapped value and whether it was supplied.
func (v Value[T]) Get() (T, bool) {
	return v.value, v.present
}
