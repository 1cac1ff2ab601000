package testing

import (
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/dPref/lib/db"
)

// DBFactory creates a new engine instance. dir is an empty directory owned by
// the test. Calling the factory twice with the same dir must open the same
// persisted state (for engines supporting db.FeaturePersistent).
type DBFactory func(t testing.TB, dir string) db.PrefDB

// RunPrefDBTests runs a comprehensive test suite for a PrefDB implementation.
func RunPrefDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("EmptyLoad", func(t *testing.T) {
			testEmptyLoad(t, factory(t, t.TempDir()))
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory(t, t.TempDir()))
		})

		t.Run("AllKinds", func(t *testing.T) {
			testAllKinds(t, factory(t, t.TempDir()))
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory(t, t.TempDir()))
		})

		t.Run("Isolation", func(t *testing.T) {
			testIsolation(t, factory(t, t.TempDir()))
		})

		t.Run("Persistence", func(t *testing.T) {
			testPersistence(t, factory)
		})

		t.Run("ConcurrentLoad", func(t *testing.T) {
			testConcurrentLoad(t, factory(t, t.TempDir()))
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory(t, t.TempDir()))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.PrefDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

// allKinds returns a map holding one entry of every kind
func allKinds(t testing.TB) db.Preferences {
	m := db.NewMutablePreferences()
	put := func(err error) {
		if err != nil {
			t.Fatalf("Failed to build map: %v", err)
		}
	}
	put(db.Put(m, "int32", int32(-32)))
	put(db.Put(m, "int64", int64(64)<<33))
	put(db.Put(m, "float32", float32(1.5)))
	put(db.Put(m, "float64", 0.1))
	put(db.Put(m, "bool", true))
	put(db.Put(m, "string", "value"))
	put(db.Put(m, "string_set", db.NewStringSet("a", "b")))
	put(db.Put(m, "empty_set", db.NewStringSet()))
	return m.Freeze()
}

func mustLoad(t testing.TB, database db.PrefDB) db.Preferences {
	t.Helper()
	prefs, err := database.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return prefs
}

func mustSave(t testing.TB, database db.PrefDB, prefs db.Preferences) {
	t.Helper()
	if err := database.Save(prefs); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testEmptyLoad(t *testing.T, database db.PrefDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureLoad)

	prefs := mustLoad(t, database)
	if prefs.Len() != 0 {
		t.Errorf("Expected empty map for a fresh engine, got %v", prefs)
	}
}

func testSaveLoad(t *testing.T, database db.PrefDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureLoad|db.FeatureSave)

	m := db.NewMutablePreferences()
	if err := db.Put(m, "counter", int32(1)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	mustSave(t, database, m.Freeze())

	prefs := mustLoad(t, database)
	v, ok, err := db.Lookup[int32](prefs, "counter")
	if err != nil || !ok || v != 1 {
		t.Errorf("Expected counter=1, got %v (ok=%v, err=%v)", v, ok, err)
	}

	// saving an empty map removes everything
	mustSave(t, database, db.EmptyPreferences())
	if prefs := mustLoad(t, database); prefs.Len() != 0 {
		t.Errorf("Expected empty map after saving an empty map, got %v", prefs)
	}
}

func testAllKinds(t *testing.T, database db.PrefDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureLoad|db.FeatureSave)

	original := allKinds(t)
	mustSave(t, database, original)

	loaded := mustLoad(t, database)
	if !loaded.Equal(original) {
		t.Errorf("Round trip failed.\nSaved:  %v\nLoaded: %v", original, loaded)
	}
}

func testOverwrite(t *testing.T, database db.PrefDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureLoad|db.FeatureSave)

	m := db.NewMutablePreferences()
	_ = db.Put(m, "a", "first")
	_ = db.Put(m, "b", "second")
	mustSave(t, database, m.Freeze())

	m.Remove("a")
	_ = db.Put(m, "b", "changed")
	_ = db.Put(m, "c", int64(3))
	mustSave(t, database, m.Freeze())

	loaded := mustLoad(t, database)
	if loaded.Has("a") {
		t.Errorf("Expected removed key to be absent")
	}
	if v, _, _ := db.Lookup[string](loaded, "b"); v != "changed" {
		t.Errorf("Expected b=changed, got %q", v)
	}
	if v, _, _ := db.Lookup[int64](loaded, "c"); v != 3 {
		t.Errorf("Expected c=3, got %d", v)
	}
	if loaded.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", loaded.Len())
	}
}

// testIsolation checks that loaded snapshots are independent of later saves
func testIsolation(t *testing.T, database db.PrefDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureLoad|db.FeatureSave)

	m := db.NewMutablePreferences()
	_ = db.Put(m, "set", db.NewStringSet("a"))
	mustSave(t, database, m.Freeze())

	before := mustLoad(t, database)

	_ = db.Put(m, "set", db.NewStringSet("a", "b"))
	mustSave(t, database, m.Freeze())

	set, _, _ := db.Lookup[db.StringSet](before, "set")
	if len(set) != 1 {
		t.Errorf("Expected previously loaded snapshot to be unchanged, got %v", set.Sorted())
	}

	// mutating a read value must not leak into the engine
	set.Add("mutated")
	after := mustLoad(t, database)
	if got, _, _ := db.Lookup[db.StringSet](after, "set"); got.Contains("mutated") {
		t.Errorf("Expected engine state to be independent of read values")
	}
}

func testPersistence(t *testing.T, factory DBFactory) {
	dir := t.TempDir()

	database := factory(t, dir)
	requireFeature(t, database, db.FeaturePersistent|db.FeatureLoad|db.FeatureSave)

	original := allKinds(t)
	mustSave(t, database, original)
	if err := database.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := factory(t, dir)
	defer reopened.Close()

	loaded := mustLoad(t, reopened)
	if !loaded.Equal(original) {
		t.Errorf("Expected state to survive reopening.\nSaved:  %v\nLoaded: %v", original, loaded)
	}
}

func testConcurrentLoad(t *testing.T, database db.PrefDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureLoad|db.FeatureSave)

	const numReaders = 8
	const numSaves = 50

	var wg sync.WaitGroup
	errs := make(chan error, numReaders+1)
	done := make(chan struct{})

	// writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		m := db.NewMutablePreferences()
		for i := 0; i < numSaves; i++ {
			_ = db.Put(m, "i", int32(i))
			_ = db.Put(m, fmt.Sprintf("key-%d", i%5), fmt.Sprintf("v%d", i))
			if err := database.Save(m.Freeze()); err != nil {
				errs <- err
				return
			}
		}
	}()

	// readers: every load must be a complete map (there is always an "i"
	// together with all keys written before it)
	for r := 0; r < numReaders; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				prefs, err := database.Load()
				if err != nil {
					errs <- err
					return
				}
				i, ok, err := db.Lookup[int32](prefs, "i")
				if err != nil {
					errs <- err
					return
				}
				if !ok {
					continue
				}
				want := int(i) + 1
				if want > 5 {
					want = 5
				}
				if prefs.Len() != want+1 {
					errs <- fmt.Errorf("partial map observed: i=%d, %d entries", i, prefs.Len())
					return
				}
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	loaded := mustLoad(t, database)
	if v, _, _ := db.Lookup[int32](loaded, "i"); v != numSaves-1 {
		t.Errorf("Expected final i=%d, got %d", numSaves-1, v)
	}
}

func testInfo(t *testing.T, database db.PrefDB) {
	defer database.Close()

	info := database.GetInfo()
	if info.DbType == "" {
		t.Errorf("Expected DbType to be set")
	}
	if info.Location != database.Location() {
		t.Errorf("Expected info location %q to equal Location() %q", info.Location, database.Location())
	}
	for _, f := range info.SupportedFeatures {
		if !database.SupportsFeature(f) {
			t.Errorf("Feature %s listed in info but not supported", f)
		}
	}
}
