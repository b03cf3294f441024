package jsonish

import (
	"slices"

	j "github.com/goccy/go-json"

	"github.com/reoring/jsonish/value"
)

// ValueWrapper is either unset or holds a value. Reading the value of an
// unset wrapper is a programming error and panics with ErrUnset.
type ValueWrapper[T any] struct {
	set bool
	v   T
}

// Set wraps v.
func Set[T any](v T) ValueWrapper[T] { return ValueWrapper[T]{set: true, v: v} }

// Unset returns the empty wrapper.
func Unset[T any]() ValueWrapper[T] { return ValueWrapper[T]{} }

func (w ValueWrapper[T]) IsSet() bool { return w.set }

// Value returns the wrapped value and panics with ErrUnset when there is none.
func (w ValueWrapper[T]) Value() T {
	if !w.set {
		panic(ErrUnset)
	}
	return w.v
}

// Get returns the value and whether it is set.
func (w ValueWrapper[T]) Get() (T, bool) { return w.v, w.set }

// MarshalJSON encodes {"value": ...}, or null when unset.
func (w ValueWrapper[T]) MarshalJSON() ([]byte, error) {
	if !w.set {
		return []byte("null"), nil
	}
	return j.Marshal(struct {
		Value T `json:"value"`
	}{w.v})
}

// PartialValueWrapper is one event of a stream: the delta that produced it
// and the partial value recovered from the text so far.
type PartialValueWrapper[T any] struct {
	Delta   string
	Partial ValueWrapper[T]
}

// MarshalJSON encodes {"delta": ..., "parsed": {"value": ...} | null}.
func (p PartialValueWrapper[T]) MarshalJSON() ([]byte, error) {
	return j.Marshal(struct {
		Delta  string          `json:"delta"`
		Parsed ValueWrapper[T] `json:"parsed"`
	}{p.Delta, p.Partial})
}

// Checked is a value together with the results of its checks. Use it as a
// field type for schema nodes that declare checks.
type Checked[T any] struct {
	Value  T                      `json:"value"`
	Checks map[string]value.Check `json:"checks"`
}

// Passed reports whether every check succeeded.
func (c Checked[T]) Passed() bool {
	for _, ch := range c.Checks {
		if ch.Status != value.Succeeded {
			return false
		}
	}
	return true
}

// Failed lists the names of failed checks, sorted.
func (c Checked[T]) Failed() []string {
	var out []string
	for name, ch := range c.Checks {
		if ch.Status == value.Failed {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
