// Package optional provides an explicit present/absent value, used wherever a
// field only exists "when applicable" (content variants, optional input paths).
package optional

import "encoding/json"

// Value holds either a T or nothing. The zero Value is absent.
type Value[T any] struct {
	v  T
	ok bool
}

// Some returns a present Value.
func Some[T any](v T) Value[T] {
	return Value[T]{v: v, ok: true}
}

// None returns an absent Value.
func None[T any]() Value[T] {
	return Value[T]{}
}

// Get returns the held value and whether it is present.
func (o Value[T]) Get() (T, bool) {
	return o.v, o.ok
}

// Present reports whether a value is held.
func (o Value[T]) Present() bool { return o.ok }

// Value returns the held value, or the zero T when absent.
func (o Value[T]) Value() T { return o.v }

// Or returns the held value, or fallback when absent.
func (o Value[T]) Or(fallback T) T {
	if o.ok {
		return o.v
	}
	return fallback
}

// MarshalJSON encodes an absent value as null.
func (o Value[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.v)
}

// UnmarshalJSON decodes null as absent.
func (o *Value[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Value[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// FromString treats the empty string as absent. It is meant for flag and
// config boundaries only; nothing past them passes empty strings around.
func FromString(s string) Value[string] {
	if s == "" {
		return None[string]()
	}
	return Some(s)
}
