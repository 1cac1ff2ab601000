package prefs

import "github.com/ValentinKolb/dPref/lib/db"

// --------------------------------------------------------------------------
// Typed Declaration Helpers
// --------------------------------------------------------------------------

// Each helper declares a preference of one kind. Without def the preference is
// nullable (Get reports loaded=false for an absent key), with def the first
// value is bound as default.

func Int32(o *Owner, name string, def ...int32) (Preference[int32], error) {
	return Declare(o, name, defaultOption(def)...)
}

func Int64(o *Owner, name string, def ...int64) (Preference[int64], error) {
	return Declare(o, name, defaultOption(def)...)
}

func Float32(o *Owner, name string, def ...float32) (Preference[float32], error) {
	return Declare(o, name, defaultOption(def)...)
}

func Float64(o *Owner, name string, def ...float64) (Preference[float64], error) {
	return Declare(o, name, defaultOption(def)...)
}

func Bool(o *Owner, name string, def ...bool) (Preference[bool], error) {
	return Declare(o, name, defaultOption(def)...)
}

func String(o *Owner, name string, def ...string) (Preference[string], error) {
	return Declare(o, name, defaultOption(def)...)
}

// StringSet declares a set preference, the default is built from the given members
func StringSet(o *Owner, name string, def ...string) (Preference[db.StringSet], error) {
	if def == nil {
		return Declare[db.StringSet](o, name)
	}
	return Declare(o, name, WithDefault(db.NewStringSet(def...)))
}

func defaultOption[V db.Value](def []V) []Option[V] {
	if len(def) == 0 {
		return nil
	}
	return []Option[V]{WithDefault(def[0])}
}
