package flow

import (
	"context"
	"errors"
	"io"

	"github.com/ValentinKolb/dPref/lib/db"
	"github.com/ValentinKolb/dPref/lib/prefs"
	"github.com/ValentinKolb/dPref/lib/util"
)

// Preference is the stream oriented front end of a declared preference.
// Reads are served from a cache slot that every emission of Values refreshes.
//
// Thread-safety: all methods are safe for concurrent use.
type Preference[V db.Value] struct {
	cached *prefs.CachedPreference[V]
}

// Declare returns the stream front end of the preference called name of owner
// o. It shares the core preference declared by prefs.Declare, so opts only
// apply if name was not declared before.
func Declare[V db.Value](o *prefs.Owner, name string, opts ...prefs.Option[V]) (*Preference[V], error) {
	return prefs.Memoize(o, "flow", name, db.KindOf[V](), func() (*Preference[V], error) {
		core, err := prefs.Declare(o, name, opts...)
		if err != nil {
			return nil, err
		}
		return &Preference[V]{cached: prefs.Cached(core)}, nil
	})
}

// Preference returns the single-shot preference the stream front end is built on.
func (p *Preference[V]) Preference() prefs.Preference[V] {
	return p.cached
}

func (p *Preference[V]) Key() prefs.Key[V] {
	return p.cached.Key()
}

func (p *Preference[V]) Default() (V, bool) {
	return p.cached.Default()
}

// --------------------------------------------------------------------------
// Reading
// --------------------------------------------------------------------------

// Values streams the current value and every later change. Absent values
// without default are emitted with Valid=false.
func (p *Preference[V]) Values() util.Stream[prefs.Optional[V]] {
	return p.cached.Stream()
}

// Get returns the cached value, the store is only read if the cache is empty.
func (p *Preference[V]) Get(ctx context.Context) (V, bool, error) {
	return p.cached.Get(ctx)
}

// First returns the first element of Values.
func (p *Preference[V]) First(ctx context.Context) (prefs.Optional[V], error) {
	return util.First(ctx, p.Values())
}

// Observe delivers every element of Values to fn until ctx is done. The
// returned channel receives one value and is closed when observing stops: nil
// if ctx ended or the store was closed, otherwise the error of the stream or
// of fn.
//
// fn runs on a goroutine owned by Observe, one call at a time.
func (p *Preference[V]) Observe(ctx context.Context, fn func(v prefs.Optional[V]) error) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- p.observe(ctx, fn)
	}()
	return done
}

func (p *Preference[V]) observe(ctx context.Context, fn func(v prefs.Optional[V]) error) error {
	s := p.Values()
	defer s.Close()

	for {
		v, err := s.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), ctx.Err() != nil:
			return nil
		default:
			return err
		}

		if err := fn(v); err != nil {
			return err
		}
	}
}

// --------------------------------------------------------------------------
// Writing
// --------------------------------------------------------------------------

// The write methods return cold streams. The edit runs on the first call to
// Next (with its ctx) and the committed map is the only element. A stream that
// is closed before Next was called never edits the store.

// SetValue writes v.
func (p *Preference[V]) SetValue(v V) util.Stream[db.Preferences] {
	return util.Once(func(ctx context.Context) (db.Preferences, error) {
		return p.cached.Set(ctx, v)
	})
}

// UpdateValue replaces the value with the result of fn inside the edit.
func (p *Preference[V]) UpdateValue(fn prefs.UpdateFunc[V]) util.Stream[db.Preferences] {
	return util.Once(func(ctx context.Context) (db.Preferences, error) {
		return p.cached.Update(ctx, fn)
	})
}

// ClearValue removes the key.
func (p *Preference[V]) ClearValue() util.Stream[db.Preferences] {
	return util.Once(func(ctx context.Context) (db.Preferences, error) {
		return p.cached.Clear(ctx)
	})
}
