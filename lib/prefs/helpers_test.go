package prefs

import (
	"context"
	"testing"
	"time"

	"github.com/ValentinKolb/dPref/lib/common"
	"github.com/ValentinKolb/dPref/lib/db"
	"github.com/ValentinKolb/dPref/lib/lockmgr"
)

// testEngines lists the engine configurations shared tests run against
var testEngines = []struct {
	name   string
	engine string
	codec  string
}{
	{"Memory", common.EngineMemory, ""},
	{"FileJSON", common.EngineFile, common.CodecJSON},
	{"FileGOB", common.EngineFile, common.CodecGOB},
	{"FileBinary", common.EngineFile, common.CodecBinary},
	{"Badger", common.EngineBadger, ""},
}

func testConfig(t testing.TB, engine, codec string) common.Config {
	cfg := common.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Engine = engine
	if codec != "" {
		cfg.Codec = codec
	}
	cfg.LogLevel = "error"
	return cfg
}

func newTestRuntime(t testing.TB, cfg common.Config) *Runtime {
	t.Helper()
	r, err := NewRuntime(cfg, WithLockManager(lockmgr.NewLockManager()))
	if err != nil {
		t.Fatalf("NewRuntime failed: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// newTestOwner returns the owner of store "A" of a fresh memory runtime
func newTestOwner(t testing.TB) *Owner {
	t.Helper()
	r := newTestRuntime(t, testConfig(t, common.EngineMemory, ""))
	o, err := r.Owner("A")
	if err != nil {
		t.Fatalf("Owner failed: %v", err)
	}
	return o
}

func testCtx(t testing.TB) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func equalValues[V db.Value](a, b V) bool {
	return db.NewEntry(a).Equal(db.NewEntry(b))
}

// rawMap returns the current map of the owner's store
func rawMap(t testing.TB, o *Owner) db.Preferences {
	t.Helper()
	s := o.Store().Data()
	defer s.Close()
	prefs, err := s.Next(testCtx(t))
	if err != nil {
		t.Fatalf("reading raw map failed: %v", err)
	}
	return prefs
}
