package prefs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ValentinKolb/dPref/lib/db"
)

func TestCachedFillsSlot(t *testing.T) {
	o := newTestOwner(t)
	ctx := testCtx(t)
	c := Cached(Must(Int32(o, "counter", 0)))

	if _, ok := c.Peek(); ok {
		t.Fatalf("Expected empty slot before the first read")
	}
	if v, ok, err := c.Get(ctx); err != nil || !ok || v != 0 {
		t.Fatalf("Expected default 0, got %d (ok=%v, err=%v)", v, ok, err)
	}
	if v, ok := c.Peek(); !ok || !v.Valid || v.Value != 0 {
		t.Errorf("Expected slot to hold 0, got %+v (filled=%v)", v, ok)
	}

	if _, err := c.Set(ctx, 5); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, _ := c.Peek(); v.Value != 5 {
		t.Errorf("Expected Set to fill the slot with 5, got %d", v.Value)
	}

	if _, err := c.Update(ctx, SetFunc(func(v int32) int32 { return v * 2 })); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if v, _, _ := c.Get(ctx); v != 10 {
		t.Errorf("Expected 10, got %d", v)
	}

	if _, err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if v, ok := c.Peek(); !ok || v.Value != 0 {
		t.Errorf("Expected slot to hold the default after Clear, got %+v", v)
	}
}

func TestCachedServesSlot(t *testing.T) {
	o := newTestOwner(t)
	ctx := testCtx(t)
	plain := Must(String(o, "theme", "light"))
	c := Cached(plain)

	if v, _, _ := c.Get(ctx); v != "light" {
		t.Fatalf("Expected light, got %q", v)
	}

	// writes bypassing the cache are not seen until the slot is refreshed
	if _, err := plain.Set(ctx, "dark"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, _, _ := c.Get(ctx); v != "light" {
		t.Errorf("Expected the cached value light, got %q", v)
	}

	c.Invalidate()
	if v, _, _ := c.Get(ctx); v != "dark" {
		t.Errorf("Expected dark after Invalidate, got %q", v)
	}
}

func TestCachedStreamRefreshesSlot(t *testing.T) {
	o := newTestOwner(t)
	ctx := testCtx(t)
	plain := Must(Int64(o, "n"))
	c := Cached(plain)

	s := c.Stream()
	defer s.Close()
	if v, err := s.Next(ctx); err != nil || v.Valid {
		t.Fatalf("Expected absent value first, got %+v (err=%v)", v, err)
	}

	if _, err := plain.Set(ctx, 3); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, err := s.Next(ctx); err != nil || v.Value != 3 {
		t.Fatalf("Expected 3, got %+v (err=%v)", v, err)
	}
	if v, ok := c.Peek(); !ok || v.Value != 3 {
		t.Errorf("Expected emission to refresh the slot, got %+v", v)
	}
}

func TestCachedIgnoresOlderMaps(t *testing.T) {
	o := newTestOwner(t)
	c := Cached(Must(Int32(o, "counter")))

	c.fill(5, Optional[int32]{Value: 50, Valid: true})
	c.fill(4, Optional[int32]{Value: 40, Valid: true})
	if v, _ := c.Peek(); v.Value != 50 {
		t.Errorf("Expected the slot to keep 50 from revision 5, got %d", v.Value)
	}

	c.Invalidate()
	c.fill(4, Optional[int32]{Value: 40, Valid: true})
	if _, ok := c.Peek(); ok {
		t.Errorf("Expected a map older than the last fill to leave the slot empty")
	}
	c.fill(5, Optional[int32]{Value: 51, Valid: true})
	if v, ok := c.Peek(); !ok || v.Value != 51 {
		t.Errorf("Expected 51 from revision 5, got %+v (filled=%v)", v, ok)
	}
}

func TestCachedStreamDoesNotRewindSlot(t *testing.T) {
	o := newTestOwner(t)
	ctx := testCtx(t)
	c := Cached(Must(Int32(o, "counter", 0)))

	streamCtx, cancel := context.WithCancel(ctx)
	s := c.Stream()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			if _, err := s.Next(streamCtx); err != nil {
				return
			}
		}
	}()
	defer func() {
		cancel()
		s.Close()
		wg.Wait()
	}()

	for i := int32(1); i <= 200; i++ {
		if _, err := c.Set(ctx, i); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if v, _ := c.Peek(); v.Value != i {
			t.Fatalf("Expected the slot to hold %d after Set, got %d", i, v.Value)
		}
	}
}

func TestCachedCommitKeepsSlotOnKindMismatch(t *testing.T) {
	o := newTestOwner(t)
	ctx := testCtx(t)
	c := Cached(Must(Int32(o, "counter", 7)))

	if v, _, err := c.Get(ctx); err != nil || v != 7 {
		t.Fatalf("Expected default 7, got %d (err=%v)", v, err)
	}

	m := db.NewMutablePreferences()
	if err := db.Put(m, "counter", "not a number"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	foreign := m.Freeze().WithRevision(99)
	if _, err := c.commit(foreign, nil); err != nil {
		t.Fatalf("Expected commit to succeed even if the slot cannot be filled, got %v", err)
	}
	if v, ok := c.Peek(); !ok || v.Value != 7 {
		t.Errorf("Expected the slot to keep 7, got %+v (filled=%v)", v, ok)
	}

	if _, err := c.commit(db.EmptyPreferences(), errors.New("edit failed")); err == nil {
		t.Errorf("Expected the edit error to be returned")
	}
}

func TestCachedOption(t *testing.T) {
	o := newTestOwner(t)

	p := Must(Declare(o, "tags", WithDefault(db.NewStringSet("a")), WithCache[db.StringSet]()))
	c, ok := p.(*CachedPreference[db.StringSet])
	if !ok {
		t.Fatalf("Expected WithCache to return a cached preference, got %T", p)
	}
	if Cached[db.StringSet](c) != c {
		t.Errorf("Expected Cached of a cached preference to be a no-op")
	}
	if _, isCached := c.Uncached().(*CachedPreference[db.StringSet]); isCached {
		t.Errorf("Expected Uncached to return the plain preference")
	}
}
