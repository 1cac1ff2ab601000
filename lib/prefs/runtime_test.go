package prefs

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ValentinKolb/dPref/lib/common"
	"github.com/ValentinKolb/dPref/lib/db"
	"github.com/ValentinKolb/dPref/lib/db/engines/badger"
	"github.com/ValentinKolb/dPref/lib/lockmgr"
)

func TestOwnerOpensOnce(t *testing.T) {
	r := newTestRuntime(t, testConfig(t, common.EngineFile, common.CodecJSON))

	const n = 32
	owners := make([]*Owner, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			owners[i] = Must(r.Owner("A"))
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if owners[i] != owners[0] {
			t.Fatalf("Expected one owner per store name")
		}
	}

	s := Must(r.StoreFor("A"))
	if s != owners[0].Store() {
		t.Errorf("Expected StoreFor to return the store of the owner")
	}
	if names := r.Stores(); len(names) != 1 || names[0] != "A" {
		t.Errorf("Expected exactly store A to be open, got %v", names)
	}
}

func TestStoresAreIsolated(t *testing.T) {
	for _, engine := range testEngines {
		t.Run(engine.name, func(t *testing.T) {
			r := newTestRuntime(t, testConfig(t, engine.engine, engine.codec))
			ctx := testCtx(t)

			a := Must(Int32(Must(r.Owner("A")), "counter", 0))
			b := Must(Int32(Must(r.Owner("B")), "counter", 0))

			if _, err := a.Set(ctx, 1); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if v, _, _ := b.Get(ctx); v != 0 {
				t.Errorf("Expected store B to be unaffected, got %d", v)
			}
		})
	}
}

func TestDefaultOwner(t *testing.T) {
	r := newTestRuntime(t, testConfig(t, common.EngineMemory, ""))

	o := Must(r.DefaultOwner())
	if o.Name() != DefaultStoreName {
		t.Errorf("Expected store %q, got %q", DefaultStoreName, o.Name())
	}
	if o.Runtime() != r {
		t.Errorf("Expected owner to reference its runtime")
	}
}

func TestInvalidStoreNames(t *testing.T) {
	r := newTestRuntime(t, testConfig(t, common.EngineFile, common.CodecBinary))

	for _, name := range []string{"", ".", "..", "a/b", `a\b`, "a\x00b"} {
		if _, err := r.Owner(name); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Owner(%q): expected ErrInvalidKey, got %v", name, err)
		}
	}
}

func TestRuntimeClose(t *testing.T) {
	r := newTestRuntime(t, testConfig(t, common.EngineMemory, ""))
	Must(r.Owner("A"))

	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Expected second Close to succeed, got %v", err)
	}
	if _, err := r.Owner("A"); !errors.Is(err, ErrRuntimeClosed) {
		t.Errorf("Expected ErrRuntimeClosed, got %v", err)
	}
	if names := r.Stores(); len(names) != 0 {
		t.Errorf("Expected no open stores, got %v", names)
	}
}

func TestPersistenceAcrossRuntimes(t *testing.T) {
	for _, engine := range testEngines {
		if engine.engine == common.EngineMemory {
			continue
		}
		t.Run(engine.name, func(t *testing.T) {
			cfg := testConfig(t, engine.engine, engine.codec)
			ctx := testCtx(t)

			r1 := newTestRuntime(t, cfg)
			o1 := Must(r1.Owner("A"))
			if _, err := Must(Int64(o1, "visits")).Set(ctx, 42); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if _, err := Must(StringSet(o1, "tags")).Set(ctx, db.NewStringSet("a", "b")); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if _, err := Must(Float64(o1, "ratio")).Set(ctx, math.NaN()); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if _, err := Must(Float32(o1, "limit")).Set(ctx, float32(math.Inf(-1))); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if _, err := Must(String(o1, "raw")).Set(ctx, "\xff\xfe"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if _, err := Must(StringSet(o1, "bytes")).Set(ctx, db.NewStringSet("ok", "\x80")); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if err := r1.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			r2 := newTestRuntime(t, cfg)
			o2 := Must(r2.Owner("A"))
			if v, ok, err := Must(Int64(o2, "visits")).Get(ctx); err != nil || !ok || v != 42 {
				t.Errorf("Expected 42 after reopen, got %d (ok=%v, err=%v)", v, ok, err)
			}
			if v, _, _ := Must(StringSet(o2, "tags")).Get(ctx); !v.Equal(db.NewStringSet("a", "b")) {
				t.Errorf("Expected [a b] after reopen, got %v", v.Sorted())
			}
			if v, _, err := Must(Float64(o2, "ratio")).Get(ctx); err != nil || !math.IsNaN(v) {
				t.Errorf("Expected NaN after reopen, got %v (err=%v)", v, err)
			}
			if v, _, err := Must(Float32(o2, "limit")).Get(ctx); err != nil || !math.IsInf(float64(v), -1) {
				t.Errorf("Expected -Inf after reopen, got %v (err=%v)", v, err)
			}
			if v, _, err := Must(String(o2, "raw")).Get(ctx); err != nil || v != "\xff\xfe" {
				t.Errorf("Expected the raw bytes after reopen, got %q (err=%v)", v, err)
			}
			if v, _, _ := Must(StringSet(o2, "bytes")).Get(ctx); !v.Equal(db.NewStringSet("ok", "\x80")) {
				t.Errorf("Expected [ok \\x80] after reopen, got %q", v.Sorted())
			}
		})
	}
}

func TestMemoryIsNotShared(t *testing.T) {
	cfg := testConfig(t, common.EngineMemory, "")
	lm := lockmgr.NewLockManager()
	ctx := testCtx(t)

	r1 := Must(NewRuntime(cfg, WithLockManager(lm)))
	defer r1.Close()
	r2 := Must(NewRuntime(cfg, WithLockManager(lm)))
	defer r2.Close()

	if _, err := Must(Int32(Must(r1.Owner("A")), "n")).Set(ctx, 1); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok, _ := Must(Int32(Must(r2.Owner("A")), "n")).Get(ctx); ok {
		t.Errorf("Expected memory stores of two runtimes to be independent")
	}
}

func TestLocationIsLocked(t *testing.T) {
	for _, engine := range []string{common.EngineFile, common.EngineBadger} {
		t.Run(engine, func(t *testing.T) {
			cfg := testConfig(t, engine, common.CodecBinary)
			lm := lockmgr.NewLockManager()

			r1 := Must(NewRuntime(cfg, WithLockManager(lm)))
			defer r1.Close()
			r2 := Must(NewRuntime(cfg, WithLockManager(lm)))
			defer r2.Close()

			Must(r1.Owner("A"))
			if _, err := r2.Owner("A"); !errors.Is(err, lockmgr.ErrLocked) {
				t.Fatalf("Expected ErrLocked, got %v", err)
			}
			if _, err := r2.Owner("B"); err != nil {
				t.Errorf("Expected another store to open, got %v", err)
			}

			if err := r1.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}
			if _, err := r2.Owner("A"); err != nil {
				t.Errorf("Expected store to open after the first runtime closed, got %v", err)
			}
		})
	}
}

func TestFailedOpenIsRetried(t *testing.T) {
	cfg := testConfig(t, common.EngineBadger, "")
	lm := lockmgr.NewLockManager()
	r := newTestRuntime(t, cfg)
	r.locks = lm

	// a regular file where the badger directory belongs
	dir := badger.PathFor(cfg.DataDir, "A")
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(dir, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := r.Owner("A"); err == nil {
		t.Fatalf("Expected open to fail")
	}
	if len(lm.Locks()) != 0 {
		t.Errorf("Expected failed open to release its lock, got %v", lm.Locks())
	}

	if err := os.Remove(dir); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := r.Owner("A"); err != nil {
		t.Errorf("Expected open to be retried, got %v", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	cfg := testConfig(t, "tape", "")
	if _, err := NewRuntime(cfg); err == nil {
		t.Errorf("Expected invalid engine to be rejected")
	}
}
