package testing

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/dPref/lib/db"
)

// RunPrefDBBenchmarks runs all benchmarks for a preference database implementation
func RunPrefDBBenchmarks(b *testing.B, name string, factory DBFactory) {

	b.Run("SaveSmall", func(b *testing.B) {
		benchmarkSave(b, factory(b, b.TempDir()), 10)
	})

	b.Run("SaveLarge", func(b *testing.B) {
		benchmarkSave(b, factory(b, b.TempDir()), 1000)
	})

	b.Run("Load", func(b *testing.B) {
		benchmarkLoad(b, factory(b, b.TempDir()), 100)
	})

	b.Run("SingleChange", func(b *testing.B) {
		benchmarkSingleChange(b, factory(b, b.TempDir()), 100)
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkMap(n int) *db.MutablePreferences {
	m := db.NewMutablePreferences()
	for i := 0; i < n; i++ {
		switch i % 3 {
		case 0:
			_ = db.Put(m, fmt.Sprintf("key-%d", i), int64(i))
		case 1:
			_ = db.Put(m, fmt.Sprintf("key-%d", i), fmt.Sprintf("value-%d", i))
		default:
			_ = db.Put(m, fmt.Sprintf("key-%d", i), i%2 == 0)
		}
	}
	return m
}

// Benchmark for saving a complete map of n entries
func benchmarkSave(b *testing.B, database db.PrefDB, n int) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSave)

	prefs := benchmarkMap(n).Freeze()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := database.Save(prefs); err != nil {
			b.Fatalf("Save failed: %v", err)
		}
	}
}

// Benchmark for loading a map of n entries
func benchmarkLoad(b *testing.B, database db.PrefDB, n int) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSave|db.FeatureLoad)

	if err := database.Save(benchmarkMap(n).Freeze()); err != nil {
		b.Fatalf("Save failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := database.Load(); err != nil {
			b.Fatalf("Load failed: %v", err)
		}
	}
}

// Benchmark for the typical edit: one changed value in a map of n entries
func benchmarkSingleChange(b *testing.B, database db.PrefDB, n int) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSave)

	m := benchmarkMap(n)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = db.Put(m, "counter", int64(i))
		if err := database.Save(m.Freeze()); err != nil {
			b.Fatalf("Save failed: %v", err)
		}
	}
}
