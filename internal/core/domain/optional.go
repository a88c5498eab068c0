package domain

import "encoding/json"

// Optional is a value that is either present or absent. Absent differs from
// a present zero value: a peer registered with an empty name still has a name.
//
// The zero Optional is absent, and IsZero lets `json:",omitzero"` drop it.
type Optional[T comparable] struct {
	value T
	ok    bool
}

func Some[T comparable](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

func None[T comparable]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// Or returns the value, or def when absent.
func (o Optional[T]) Or(def T) T {
	if !o.ok {
		return def
	}
	return o.value
}

func (o Optional[T]) Present() bool {
	return o.ok
}

func (o Optional[T]) IsZero() bool {
	return !o.ok
}

// Equal reports whether both are absent, or both present with equal values.
func (o Optional[T]) Equal(other Optional[T]) bool {
	if o.ok != other.ok {
		return false
	}
	return !o.ok || o.value == other.value
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
