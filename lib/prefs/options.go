package prefs

import "github.com/ValentinKolb/dPref/lib/db"

// options of a declared preference
type options[V db.Value] struct {
	def    Optional[V]
	cached bool
}

// Option configures a declared preference.
type Option[V db.Value] func(o *options[V])

// WithDefault binds a default value. Reads of an absent key return it.
func WithDefault[V db.Value](v V) Option[V] {
	return func(o *options[V]) {
		o.def = Some(v)
	}
}

// WithCache attaches a cache slot to the preference (see Cached).
func WithCache[V db.Value]() Option[V] {
	return func(o *options[V]) {
		o.cached = true
	}
}

func applyOptions[V db.Value](opts []Option[V]) options[V] {
	var o options[V]
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
