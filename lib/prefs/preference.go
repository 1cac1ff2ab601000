package prefs

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dPref/lib/db"
	"github.com/ValentinKolb/dPref/lib/store"
	"github.com/ValentinKolb/dPref/lib/util"
)

// UpdateFunc computes the next value of a preference inside the edit
// transaction of its store.
//
//   - current and loaded are the stored value (or the default) at the time the
//     transaction runs, not at the time Update was called
//   - prefs is the complete map before the edit, it is read-only
//   - keep=false removes the key from the map
//   - a non-nil err aborts the edit, nothing is committed
type UpdateFunc[V db.Value] func(current V, loaded bool, prefs db.Preferences) (next V, keep bool, err error)

// Preference is a typed binding of one declared name to one key of a store.
//
// Thread-safety: all methods are safe for concurrent use.
type Preference[V db.Value] interface {
	// Key returns the key the preference is bound to.
	Key() Key[V]
	// Default returns the bound default value.
	Default() (def V, ok bool)
	// Owner returns the owner that declared the preference.
	Owner() *Owner

	// Get waits for the current map of the store and returns the stored value,
	// the default if nothing is stored, or loaded=false if there is neither.
	Get(ctx context.Context) (v V, loaded bool, err error)
	// GetOrDefault is Get but fails with ErrNoDefaultValue instead of
	// returning loaded=false.
	GetOrDefault(ctx context.Context) (v V, err error)
	// Set atomically writes v and returns the committed map.
	Set(ctx context.Context, v V) (prefs db.Preferences, err error)
	// Update atomically replaces the value with the result of fn.
	Update(ctx context.Context, fn UpdateFunc[V]) (prefs db.Preferences, err error)
	// Clear removes the key. Afterwards reads fall back to the default.
	Clear(ctx context.Context) (prefs db.Preferences, err error)
	// Stream emits the current value and every later change of the store,
	// resolved with the same default rule as Get.
	Stream() (stream util.Stream[Optional[V]])
}

// --------------------------------------------------------------------------
// Core Handle
// --------------------------------------------------------------------------

// handle implements Preference directly on top of the store
type handle[V db.Value] struct {
	key   Key[V]
	def   Optional[V]
	owner *Owner
	store store.IStore
}

func newHandle[V db.Value](o *Owner, key Key[V], def Optional[V]) *handle[V] {
	return &handle[V]{
		key:   key,
		def:   def,
		owner: o,
		store: o.Store(),
	}
}

func (h *handle[V]) Key() Key[V] {
	return h.key
}

func (h *handle[V]) Default() (V, bool) {
	return cloneValue(h.def.Value), h.def.Valid
}

func (h *handle[V]) Owner() *Owner {
	return h.owner
}

func (h *handle[V]) Get(ctx context.Context) (V, bool, error) {
	var zero V
	prefs, err := util.First(ctx, h.store.Data())
	if err != nil {
		return zero, false, err
	}
	return h.resolve(prefs)
}

func (h *handle[V]) GetOrDefault(ctx context.Context) (V, error) {
	v, ok, err := h.Get(ctx)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, missingDefault(h.key)
	}
	return v, nil
}

func (h *handle[V]) Set(ctx context.Context, v V) (db.Preferences, error) {
	return h.store.Edit(ctx, func(m *db.MutablePreferences) error {
		if err := h.checkKind(m); err != nil {
			return err
		}
		return db.Put(m, h.key.Name, v)
	})
}

func (h *handle[V]) Update(ctx context.Context, fn UpdateFunc[V]) (db.Preferences, error) {
	return h.store.Edit(ctx, func(m *db.MutablePreferences) error {
		current, loaded, err := db.LookupMutable[V](m, h.key.Name)
		if err != nil {
			return err
		}
		if !loaded && h.def.Valid {
			current, loaded = cloneValue(h.def.Value), true
		}

		next, keep, err := fn(current, loaded, m.Freeze())
		if err != nil {
			return err
		}
		if !keep {
			m.Remove(h.key.Name)
			return nil
		}
		return db.Put(m, h.key.Name, next)
	})
}

func (h *handle[V]) Clear(ctx context.Context) (db.Preferences, error) {
	return h.store.Edit(ctx, func(m *db.MutablePreferences) error {
		if err := h.checkKind(m); err != nil {
			return err
		}
		m.Remove(h.key.Name)
		return nil
	})
}

func (h *handle[V]) Stream() util.Stream[Optional[V]] {
	return util.Map(h.store.Data(), func(prefs db.Preferences) (Optional[V], error) {
		v, ok, err := h.resolve(prefs)
		if err != nil {
			return Optional[V]{}, err
		}
		return Optional[V]{Value: v, Valid: ok}, nil
	})
}

// resolve applies the default rule to a committed map
func (h *handle[V]) resolve(prefs db.Preferences) (V, bool, error) {
	v, ok, err := db.Lookup[V](prefs, h.key.Name)
	if err != nil || ok {
		return v, ok, err
	}
	if h.def.Valid {
		return cloneValue(h.def.Value), true, nil
	}
	return v, false, nil
}

// checkKind refuses to overwrite or remove an entry of another kind
func (h *handle[V]) checkKind(m *db.MutablePreferences) error {
	_, _, err := db.LookupMutable[V](m, h.key.Name)
	return err
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// ValueOf extracts the value of p from a committed map using the same default
// rule as Preference.Get.
func ValueOf[V db.Value](prefs db.Preferences, p Preference[V]) (V, bool, error) {
	v, ok, err := db.Lookup[V](prefs, p.Key().Name)
	if err != nil || ok {
		return v, ok, err
	}
	def, ok := p.Default()
	return def, ok, nil
}

// SetFunc returns an UpdateFunc that maps the current value with fn and keeps
// the result.
//
// Example:
//
//	counter.Update(ctx, prefs.SetFunc(func(v int32) int32 { return v + 1 }))
func SetFunc[V db.Value](fn func(current V) V) UpdateFunc[V] {
	return func(current V, _ bool, _ db.Preferences) (V, bool, error) {
		return fn(current), true, nil
	}
}

func missingDefault[V db.Value](key Key[V]) error {
	return fmt.Errorf("%w: %s", ErrNoDefaultValue, key)
}

// cloneValue copies sets, all other values are immutable
func cloneValue[V db.Value](v V) V {
	if set, ok := any(v).(db.StringSet); ok {
		return any(set.Clone()).(V)
	}
	return v
}
