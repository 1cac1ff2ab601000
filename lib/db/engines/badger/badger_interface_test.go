package badger

import (
	"testing"

	"github.com/ValentinKolb/dPref/lib/db"
	dbtesting "github.com/ValentinKolb/dPref/lib/db/testing"
)

func newTestDB(t testing.TB, dir string) db.PrefDB {
	database, err := NewBadgerDB(PathFor(dir, "test"), &DBOptions{Logger: quietLogger{}})
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}
	return database
}

func Test(t *testing.T) {
	dbtesting.RunPrefDBTests(t, "BadgerDB", newTestDB)
}

func Benchmark(b *testing.B) {
	dbtesting.RunPrefDBBenchmarks(b, "BadgerDB", newTestDB)
}

func TestSaveWritesOnlyDifference(t *testing.T) {
	database := newTestDB(t, t.TempDir())
	defer database.Close()

	m := db.NewMutablePreferences()
	_ = db.Put(m, "a", int32(1))
	_ = db.Put(m, "b", "two")
	if err := database.Save(m.Freeze()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// change one, remove one, add one
	_ = db.Put(m, "a", int32(2))
	m.Remove("b")
	_ = db.Put(m, "c", true)
	if err := database.Save(m.Freeze()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	impl := database.(*badgerImpl)
	if got := impl.written.Load(); got != 4 {
		t.Errorf("Expected 4 written keys, got %d", got)
	}
	if got := impl.deleted.Load(); got != 1 {
		t.Errorf("Expected 1 deleted key, got %d", got)
	}

	loaded, err := database.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded.Equal(m.Freeze()) {
		t.Errorf("Expected %v, got %v", m.Freeze(), loaded)
	}
}

func TestInMemory(t *testing.T) {
	database, err := NewBadgerDB("", &DBOptions{InMemory: true, Logger: quietLogger{}})
	if err != nil {
		t.Fatalf("Failed to open in-memory badger: %v", err)
	}
	defer database.Close()

	m := db.NewMutablePreferences()
	_ = db.Put(m, "set", db.NewStringSet("x"))
	if err := database.Save(m.Freeze()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := database.Load()
	if err != nil || !loaded.Equal(m.Freeze()) {
		t.Errorf("Expected %v, got %v (err=%v)", m.Freeze(), loaded, err)
	}
}

// quietLogger drops badger's log output in tests
type quietLogger struct{}

func (quietLogger) Errorf(string, ...interface{})   {}
func (quietLogger) Warningf(string, ...interface{}) {}
func (quietLogger) Infof(string, ...interface{})    {}
func (quietLogger) Debugf(string, ...interface{})   {}
