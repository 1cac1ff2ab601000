package prefs

import (
	"context"
	"sync"

	"github.com/ValentinKolb/dPref/lib/db"
	"github.com/ValentinKolb/dPref/lib/util"
)

// CachedPreference is a Preference with a last-known-value slot.
//
//   - Get returns the slot if it is filled, without touching the store.
//     Otherwise it reads the store and fills the slot.
//   - Set, Update and Clear fill the slot with the committed value as soon as
//     the edit returns.
//   - Every value delivered through Stream refreshes the slot.
//   - The slot only moves forward: a value read from a map with an older
//     revision than the last fill is dropped.
//   - Update still resolves the current value inside the edit transaction.
//
// The slot is not authoritative. Changes made through another store instance
// (or outside the process) are only seen with the next emission of Stream, and
// never if nobody streams. Use Invalidate or the uncached preference where
// strict consistency is required.
type CachedPreference[V db.Value] struct {
	Preference[V]

	mu     sync.Mutex
	slot   Optional[V]
	filled bool
	rev    uint64 // revision of the newest map the slot was filled from
}

// Cached attaches a cache slot to p. Wrapping an already cached preference
// returns it unchanged.
func Cached[V db.Value](p Preference[V]) *CachedPreference[V] {
	if c, ok := p.(*CachedPreference[V]); ok {
		return c
	}
	return &CachedPreference[V]{Preference: p}
}

// Uncached returns the wrapped preference.
func (c *CachedPreference[V]) Uncached() Preference[V] {
	return c.Preference
}

// --------------------------------------------------------------------------
// Interface Methods (docu see prefs.Preference)
// --------------------------------------------------------------------------

func (c *CachedPreference[V]) Get(ctx context.Context) (V, bool, error) {
	c.mu.Lock()
	if c.filled {
		slot := c.slot
		c.mu.Unlock()
		return cloneValue(slot.Value), slot.Valid, nil
	}
	c.mu.Unlock()

	var zero V
	prefs, err := util.First(ctx, c.Owner().Store().Data())
	if err != nil {
		return zero, false, err
	}
	v, ok, err := ValueOf(prefs, c.Preference)
	if err != nil {
		return zero, false, err
	}
	c.fill(prefs.Revision(), Optional[V]{Value: v, Valid: ok})
	return cloneValue(v), ok, nil
}

func (c *CachedPreference[V]) GetOrDefault(ctx context.Context) (V, error) {
	v, ok, err := c.Get(ctx)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, missingDefault(c.Key())
	}
	return v, nil
}

func (c *CachedPreference[V]) Set(ctx context.Context, v V) (db.Preferences, error) {
	return c.commit(c.Preference.Set(ctx, v))
}

func (c *CachedPreference[V]) Update(ctx context.Context, fn UpdateFunc[V]) (db.Preferences, error) {
	return c.commit(c.Preference.Update(ctx, fn))
}

func (c *CachedPreference[V]) Clear(ctx context.Context) (db.Preferences, error) {
	return c.commit(c.Preference.Clear(ctx))
}

func (c *CachedPreference[V]) Stream() util.Stream[Optional[V]] {
	return util.Map(c.Owner().Store().Data(), func(prefs db.Preferences) (Optional[V], error) {
		v, ok, err := ValueOf(prefs, c.Preference)
		if err != nil {
			return Optional[V]{}, err
		}
		opt := Optional[V]{Value: v, Valid: ok}
		c.fill(prefs.Revision(), opt)
		return Optional[V]{Value: cloneValue(v), Valid: ok}, nil
	})
}

// --------------------------------------------------------------------------
// Cache Slot
// --------------------------------------------------------------------------

// Peek returns the slot without reading the store. ok is false if the slot is empty.
func (c *CachedPreference[V]) Peek() (value Optional[V], ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Optional[V]{Value: cloneValue(c.slot.Value), Valid: c.slot.Valid}, c.filled
}

// Invalidate empties the slot, the next Get reads the store again.
func (c *CachedPreference[V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot = Optional[V]{}
	c.filled = false
}

// commit fills the slot with the value of a committed map
func (c *CachedPreference[V]) commit(prefs db.Preferences, err error) (db.Preferences, error) {
	if err != nil {
		return prefs, err
	}
	v, ok, rerr := ValueOf(prefs, c.Preference)
	if rerr != nil {
		log.Warningf("failed to cache %s after commit: %v", c.Key().Name, rerr)
		return prefs, nil
	}
	c.fill(prefs.Revision(), Optional[V]{Value: v, Valid: ok})
	return prefs, nil
}

// fill stores v unless the slot already holds a value from a newer map
func (c *CachedPreference[V]) fill(rev uint64, v Optional[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rev < c.rev {
		return
	}
	c.slot = Optional[V]{Value: cloneValue(v.Value), Valid: v.Valid}
	c.filled = true
	c.rev = rev
}
