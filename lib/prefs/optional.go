package prefs

// Optional is a value that may be absent.
type Optional[V any] struct {
	Value V
	Valid bool
}

// Some wraps a present value.
func Some[V any](v V) Optional[V] {
	return Optional[V]{Value: v, Valid: true}
}

// None returns an absent value.
func None[V any]() Optional[V] {
	return Optional[V]{}
}

// Get returns the value and whether it is present.
func (o Optional[V]) Get() (V, bool) {
	return o.Value, o.Valid
}

// OrElse returns the value if present and def otherwise.
func (o Optional[V]) OrElse(def V) V {
	if o.Valid {
		return o.Value
	}
	return def
}
