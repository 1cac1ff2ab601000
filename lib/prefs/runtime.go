package prefs

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/ValentinKolb/dPref/lib/common"
	"github.com/ValentinKolb/dPref/lib/db"
	"github.com/ValentinKolb/dPref/lib/db/codec"
	"github.com/ValentinKolb/dPref/lib/db/engines/badger"
	"github.com/ValentinKolb/dPref/lib/db/engines/file"
	"github.com/ValentinKolb/dPref/lib/db/engines/memory"
	"github.com/ValentinKolb/dPref/lib/lockmgr"
	"github.com/ValentinKolb/dPref/lib/store"
	"github.com/ValentinKolb/dPref/lib/store/lstore"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"
)

var log = logger.GetLogger("prefs")

// DefaultStoreName is the store used by DefaultOwner.
const DefaultStoreName = "default"

// Runtime maps store names to stores. Every store is opened on first use and
// then shared by all callers until Close.
//
// Thread-safety: all methods are safe for concurrent use.
type Runtime struct {
	id    string
	cfg   common.Config
	locks lockmgr.ILockManager

	// mu guards closed against concurrent opens. Opens hold the read lock.
	mu     sync.RWMutex
	closed bool
	owners *xsync.MapOf[string, *Owner]

	closeOnce sync.Once
	closeErr  error
}

// RuntimeOption configures a Runtime
type RuntimeOption func(r *Runtime)

// WithLockManager replaces the process wide lock manager (lockmgr.Default).
func WithLockManager(lm lockmgr.ILockManager) RuntimeOption {
	return func(r *Runtime) {
		r.locks = lm
	}
}

// NewRuntime creates a runtime for cfg. No store is opened yet.
func NewRuntime(cfg common.Config, opts ...RuntimeOption) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	r := &Runtime{
		id:     uuid.NewString(),
		cfg:    cfg,
		locks:  lockmgr.Default(),
		owners: xsync.NewMapOf[string, *Owner](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Config returns the config of the runtime.
func (r *Runtime) Config() common.Config {
	return r.cfg
}

// Owner returns the owner of the store called name and opens the store on the
// first call. Concurrent first calls open the store exactly once. A failed
// open is returned to every caller that waited for it and retried by the next.
func (r *Runtime) Owner(name string) (*Owner, error) {
	if err := validateStoreName(name); err != nil {
		return nil, err
	}

	// fast path
	if o, ok := r.owners.Load(name); ok {
		return o, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrRuntimeClosed
	}

	var openErr error
	o, _ := r.owners.Compute(name, func(old *Owner, loaded bool) (*Owner, bool) {
		if loaded {
			return old, false
		}
		o, err := r.open(name)
		if err != nil {
			openErr = err
			return nil, true
		}
		return o, false
	})
	if openErr != nil {
		return nil, openErr
	}
	return o, nil
}

// DefaultOwner returns the owner of the store DefaultStoreName.
func (r *Runtime) DefaultOwner() (*Owner, error) {
	return r.Owner(DefaultStoreName)
}

// StoreFor returns the store called name (see Owner).
func (r *Runtime) StoreFor(name string) (store.IStore, error) {
	o, err := r.Owner(name)
	if err != nil {
		return nil, err
	}
	return o.Store(), nil
}

// Stores returns the names of all open stores.
func (r *Runtime) Stores() []string {
	var names []string
	r.owners.Range(func(name string, _ *Owner) bool {
		names = append(names, name)
		return true
	})
	return names
}

// Close closes all stores concurrently and releases their locks. Persisted
// data is kept. Close is idempotent, every later Owner call fails with
// ErrRuntimeClosed.
func (r *Runtime) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()

		var g errgroup.Group
		r.owners.Range(func(name string, o *Owner) bool {
			g.Go(func() error {
				defer r.locks.ReleaseLock(o.lockKey, o.lockOwner)
				if err := o.store.Close(); err != nil {
					return fmt.Errorf("close store %s: %w", name, err)
				}
				return nil
			})
			return true
		})
		r.closeErr = g.Wait()
		r.owners.Clear()
		log.Infof("runtime %s closed", r.id)
	})
	return r.closeErr
}

// --------------------------------------------------------------------------
// Store Construction
// --------------------------------------------------------------------------

// open locks the location of the store called name and creates the store
func (r *Runtime) open(name string) (*Owner, error) {
	location, factory, err := r.engineFor(name)
	if err != nil {
		return nil, err
	}

	lockOwner, err := r.locks.AcquireLock(location)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", name, err)
	}

	s, err := lstore.NewLocalStore(name, factory)
	if err != nil {
		r.locks.ReleaseLock(location, lockOwner)
		return nil, err
	}

	log.Debugf("runtime %s opened store %s at %s", r.id, name, location)
	return newOwner(r, name, s, location, lockOwner), nil
}

// engineFor returns the lock key and the engine factory of the store called name
func (r *Runtime) engineFor(name string) (string, store.DBFactory, error) {
	switch r.cfg.Engine {
	case common.EngineMemory:
		location := "memory:" + r.id + "/" + name
		return location, func() (db.PrefDB, error) {
			return memory.NewMemoryDB(location), nil
		}, nil

	case common.EngineFile:
		c, err := codec.ByName(r.cfg.Codec)
		if err != nil {
			return "", nil, err
		}
		path, err := filepath.Abs(file.PathFor(r.cfg.DataDir, name, c))
		if err != nil {
			return "", nil, err
		}
		return path, func() (db.PrefDB, error) {
			return file.NewFileDB(path, c), nil
		}, nil

	case common.EngineBadger:
		dir, err := filepath.Abs(badger.PathFor(r.cfg.DataDir, name))
		if err != nil {
			return "", nil, err
		}
		return dir, func() (db.PrefDB, error) {
			return badger.NewBadgerDB(dir, &badger.DBOptions{Logger: logger.GetLogger("badger")})
		}, nil

	default:
		return "", nil, fmt.Errorf("invalid engine %q", r.cfg.Engine)
	}
}
