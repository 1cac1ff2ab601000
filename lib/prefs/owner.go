package prefs

import (
	"fmt"

	"github.com/ValentinKolb/dPref/lib/db"
	"github.com/ValentinKolb/dPref/lib/store"
	"github.com/puzpuzpuz/xsync/v3"
)

// Owner binds a logical store name to one store and memoizes the preferences
// declared on it. There is exactly one Owner per store name and Runtime.
//
// Within one owner a name is bound to the kind of its first declaration,
// declaring it again with another kind fails with ErrTypeMismatch.
//
// Thread-safety: all methods are safe for concurrent use.
type Owner struct {
	name    string
	runtime *Runtime
	store   store.IStore

	// lockKey and lockOwner identify the lock on the store location
	lockKey   string
	lockOwner string

	kinds   *xsync.MapOf[string, db.Kind] // name -> claimed kind
	handles *xsync.MapOf[string, any]     // variant + "/" + name -> memoized handle
}

func newOwner(r *Runtime, name string, s store.IStore, lockKey, lockOwner string) *Owner {
	return &Owner{
		name:      name,
		runtime:   r,
		store:     s,
		lockKey:   lockKey,
		lockOwner: lockOwner,
		kinds:     xsync.NewMapOf[string, db.Kind](),
		handles:   xsync.NewMapOf[string, any](),
	}
}

// Name returns the store name of the owner.
func (o *Owner) Name() string {
	return o.name
}

// Store returns the store all preferences of this owner are bound to.
func (o *Owner) Store() store.IStore {
	return o.store
}

// Runtime returns the runtime that created the owner.
func (o *Owner) Runtime() *Runtime {
	return o.runtime
}

// Names returns the declared preference names and their kinds.
func (o *Owner) Names() map[string]db.Kind {
	out := make(map[string]db.Kind, o.kinds.Size())
	o.kinds.Range(func(name string, kind db.Kind) bool {
		out[name] = kind
		return true
	})
	return out
}

// claim binds name to kind or reports the kind it is already bound to
func (o *Owner) claim(name string, kind db.Kind) error {
	if name == "" {
		return fmt.Errorf("%w: empty preference name", ErrInvalidKey)
	}
	actual, _ := o.kinds.LoadOrStore(name, kind)
	if actual != kind {
		return fmt.Errorf("%w: %q of store %s is declared as %s, requested as %s", ErrTypeMismatch, name, o.name, actual, kind)
	}
	return nil
}

// --------------------------------------------------------------------------
// Declaration
// --------------------------------------------------------------------------

// Memoize returns the handle memoized under (variant, name) or creates it with
// build. The name is bound to kind first. Concurrent callers for the same
// handle all receive the instance of the one build that succeeded, a failed
// build is not memoized.
//
// Adapter packages use Memoize to keep one instance of their own handle type
// per declared name.
func Memoize[T any](o *Owner, variant, name string, kind db.Kind, build func() (T, error)) (T, error) {
	var zero T
	if err := o.claim(name, kind); err != nil {
		return zero, err
	}

	var buildErr error
	actual, _ := o.handles.Compute(variant+"/"+name, func(old any, loaded bool) (any, bool) {
		if loaded {
			return old, false
		}
		h, err := build()
		if err != nil {
			buildErr = err
			return nil, true
		}
		return h, false
	})
	if buildErr != nil {
		return zero, buildErr
	}

	h, ok := actual.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q of store %s is memoized as %T", ErrTypeMismatch, name, o.name, actual)
	}
	return h, nil
}

// New creates a preference without memoizing it. The name is still bound to
// the kind of V. Most callers want Declare.
func New[V db.Value](o *Owner, name string, opts ...Option[V]) (Preference[V], error) {
	key, err := NewKey[V](name)
	if err != nil {
		return nil, err
	}
	if err := o.claim(name, key.Kind()); err != nil {
		return nil, err
	}

	cfg := applyOptions(opts)
	var p Preference[V] = newHandle(o, key, cfg.def)
	if cfg.cached {
		p = Cached(p)
	}
	return p, nil
}

// Declare returns the preference called name of owner o. The first call
// creates it from opts, every later call returns the identical instance (and
// ignores opts).
func Declare[V db.Value](o *Owner, name string, opts ...Option[V]) (Preference[V], error) {
	return Memoize(o, "pref", name, db.KindOf[V](), func() (Preference[V], error) {
		return New(o, name, opts...)
	})
}

// Must panics if err is not nil and returns v otherwise.
//
// Example:
//
//	var counter = prefs.Must(prefs.Int32(owner, "counter", 0))
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
