package option

// Option represents an optional value.
// It either contains a value or it does not.
type Option[T any] interface {
	// HasValue returns true if the Option contains a value.
	HasValue() bool

	// Value returns the value (or its zero value) stored in the Option.
	Value() T
}

// Some returns an Option containing value.
func Some[T any](value T) Option[T] {
	return some[T]{value: value}
}

// None returns an empty Option.
func None[T any]() Option[T] {
	return none[T]{}
}

type some[T any] struct {
	value T
}

func (s some[T]) HasValue() bool {
	return true
}

func (s some[T]) Value() T {
	return s.value
}

type none[T any] struct{}

func (none[T]) HasValue() bool {
	return false
}

func (none[T]) Value() T {
	var value T

	return value
}

// MapOr returns def if o is empty, otherwise it applies fn to the contained value.
func MapOr[T any, U any](o Option[T], def U, fn func(T) U) U {
	if !o.HasValue() {
		return def
	}

	return fn(o.Value())
}
