package rx

import (
	"context"
	"errors"
	"io"

	"github.com/ValentinKolb/dPref/lib/db"
	"github.com/ValentinKolb/dPref/lib/prefs"
	"github.com/ValentinKolb/dPref/lib/util"
)

// UpdateFunc computes the next value of a preference. current is never absent,
// see Preference.
type UpdateFunc[V db.Value] func(current V, prefs db.Preferences) (next V, err error)

// Preference is the callback oriented front end of a declared preference.
// It never reports an absent value: without stored value it yields the
// declared default or, if there is none, the zero value of V (the empty set
// for string sets).
//
// Thread-safety: all methods are safe for concurrent use.
type Preference[V db.Value] struct {
	core prefs.Preference[V]
	def  V
}

// Declare returns the callback front end of the preference called name of
// owner o. It shares the core preference declared by prefs.Declare, so opts
// only apply if name was not declared before.
func Declare[V db.Value](o *prefs.Owner, name string, opts ...prefs.Option[V]) (*Preference[V], error) {
	return prefs.Memoize(o, "rx", name, db.KindOf[V](), func() (*Preference[V], error) {
		core, err := prefs.Declare(o, name, opts...)
		if err != nil {
			return nil, err
		}
		def, ok := core.Default()
		if !ok {
			def = zeroValue[V]()
		}
		return &Preference[V]{core: core, def: def}, nil
	})
}

// Preference returns the single-shot preference the front end is built on.
func (p *Preference[V]) Preference() prefs.Preference[V] {
	return p.core
}

func (p *Preference[V]) Key() prefs.Key[V] {
	return p.core.Key()
}

// Default returns the value used for an absent key.
func (p *Preference[V]) Default() V {
	return clone(p.def)
}

// --------------------------------------------------------------------------
// Subscriptions
// --------------------------------------------------------------------------

// Flowable streams the current value and every later change.
func (p *Preference[V]) Flowable() util.Stream[V] {
	return util.Map(p.core.Stream(), func(v prefs.Optional[V]) (V, error) {
		return p.resolve(v), nil
	})
}

// Subscribe calls onNext with every element of Flowable until the returned
// Disposable is disposed. A terminal error of the stream is passed to onError
// (if not nil), completion of the stream (closed store) ends the subscription
// silently. Both callbacks run on one goroutine owned by the subscription.
func (p *Preference[V]) Subscribe(onNext func(v V), onError func(err error)) Disposable {
	ctx, cancel := context.WithCancel(context.Background())
	d := &disposable{cancel: cancel}

	go func() {
		defer d.Dispose()
		s := p.Flowable()
		defer s.Close()

		for {
			v, err := s.Next(ctx)
			switch {
			case err == nil:
				onNext(v)
			case errors.Is(err, io.EOF), ctx.Err() != nil:
				return
			default:
				if onError != nil {
					onError(err)
				}
				return
			}
		}
	}()
	return d
}

// --------------------------------------------------------------------------
// Async Operations
// --------------------------------------------------------------------------

// GetAsync resolves to the first element of Flowable.
func (p *Preference[V]) GetAsync(ctx context.Context) *Future[V] {
	return async(ctx, func(ctx context.Context) (V, error) {
		return util.First(ctx, p.Flowable())
	})
}

// SetAsync writes v and resolves to the committed map.
func (p *Preference[V]) SetAsync(ctx context.Context, v V) *Future[db.Preferences] {
	return async(ctx, func(ctx context.Context) (db.Preferences, error) {
		return p.core.Set(ctx, v)
	})
}

// UpdateAsync replaces the value with the result of fn inside the edit and
// resolves to the committed map.
func (p *Preference[V]) UpdateAsync(ctx context.Context, fn UpdateFunc[V]) *Future[db.Preferences] {
	return async(ctx, func(ctx context.Context) (db.Preferences, error) {
		return p.core.Update(ctx, func(current V, loaded bool, m db.Preferences) (V, bool, error) {
			if !loaded {
				current = clone(p.def)
			}
			next, err := fn(current, m)
			return next, true, err
		})
	})
}

// ClearAsync removes the key and resolves to the committed map.
func (p *Preference[V]) ClearAsync(ctx context.Context) *Future[db.Preferences] {
	return async(ctx, func(ctx context.Context) (db.Preferences, error) {
		return p.core.Clear(ctx)
	})
}

func (p *Preference[V]) resolve(v prefs.Optional[V]) V {
	if v.Valid {
		return v.Value
	}
	return clone(p.def)
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

func zeroValue[V db.Value]() V {
	var zero V
	if _, ok := any(zero).(db.StringSet); ok {
		return any(db.NewStringSet()).(V)
	}
	return zero
}

func clone[V db.Value](v V) V {
	if set, ok := any(v).(db.StringSet); ok {
		return any(set.Clone()).(V)
	}
	return v
}
