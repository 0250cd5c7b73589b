package discord

// Option distinguishes an argument that was never supplied from one that
// was supplied with its zero value. The zero Option is unset. To send an
// explicit null over the wire, use an Option of a pointer type holding
// nil.
type Option[T any] struct {
	value T
	set   bool
}

// Some returns a set Option holding value.
func Some[T any](value T) Option[T] {
	return Option[T]{value: value, set: true}
}

// IsSet returns true when the argument was supplied.
func (o Option[T]) IsSet() bool {
	return o.set
}

// Value returns the held value, or the zero value when unset.
func (o Option[T]) Value() T {
	return o.value
}
