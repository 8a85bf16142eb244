package domain

import "encoding/json"

// Optional holds a field value that may or may not be part of an update.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional carrying v
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an empty Optional
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is set
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the field carries a value
func (o Optional[T]) IsSet() bool {
	return o.set
}

// IsZero lets encoding/json omit unset fields tagged omitzero
func (o Optional[T]) IsZero() bool {
	return !o.set
}

// Or returns later if it is set, o otherwise (later wins).
func (o Optional[T]) Or(later Optional[T]) Optional[T] {
	if later.set {
		return later
	}
	return o
}

// MarshalJSON encodes the value, or null when unset
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes a value; null leaves the field unset
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// mergeKeyed unions two keyed deltas, later entries winning per key.
func mergeKeyed[K comparable, V any](earlier, later map[K]Optional[V]) map[K]Optional[V] {
	if len(earlier) == 0 && len(later) == 0 {
		return nil
	}
	merged := make(map[K]Optional[V], len(earlier)+len(later))
	for k, v := range earlier {
		merged[k] = v
	}
	for k, v := range later {
		merged[k] = v
	}
	return merged
}

// applyKeyed applies a keyed delta to a map copy: set entries are stored,
// unset entries delete the key.
func applyKeyed[K comparable, V any](base map[K]V, delta map[K]Optional[V]) map[K]V {
	if len(base) == 0 && len(delta) == 0 {
		return base
	}
	out := make(map[K]V, len(base)+len(delta))
	for k, v := range base {
		out[k] = v
	}
	for k, d := range delta {
		if v, ok := d.Get(); ok {
			out[k] = v
		} else {
			delete(out, k)
		}
	}
	return out
}
