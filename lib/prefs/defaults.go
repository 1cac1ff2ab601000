package prefs

import (
	"sync"

	"github.com/ValentinKolb/dPref/lib/common"
)

// --------------------------------------------------------------------------
// Process Wide Default Runtime
// --------------------------------------------------------------------------

var (
	defaultMu      sync.RWMutex
	defaultRuntime *Runtime
)

// Init creates the process wide default runtime and configures logging.
// It must be called exactly once during startup, later calls fail with
// ErrAlreadyInitialized until Shutdown.
func Init(cfg common.Config) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultRuntime != nil {
		return ErrAlreadyInitialized
	}
	if err := common.InitLoggers(cfg); err != nil {
		return err
	}
	r, err := NewRuntime(cfg)
	if err != nil {
		return err
	}
	defaultRuntime = r
	log.Infof("initialized default runtime:%s", cfg.String())
	return nil
}

// DefaultRuntime returns the runtime created by Init.
func DefaultRuntime() (*Runtime, error) {
	defaultMu.RLock()
	defer defaultMu.RUnlock()

	if defaultRuntime == nil {
		return nil, ErrOwnerNotInitialized
	}
	return defaultRuntime, nil
}

// Default returns the owner of the default store of the default runtime.
func Default() (*Owner, error) {
	r, err := DefaultRuntime()
	if err != nil {
		return nil, err
	}
	return r.DefaultOwner()
}

// NewOwner returns the owner of the store called name of the default runtime.
func NewOwner(name string) (*Owner, error) {
	r, err := DefaultRuntime()
	if err != nil {
		return nil, err
	}
	return r.Owner(name)
}

// Shutdown closes the default runtime. Afterwards the default owner is
// uninitialized again and Init may be called anew. Preferences declared
// before Shutdown keep failing with store.ErrStoreClosed.
func Shutdown() error {
	defaultMu.Lock()
	r := defaultRuntime
	defaultRuntime = nil
	defaultMu.Unlock()

	if r == nil {
		return nil
	}
	return r.Close()
}
