package lockmgr

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var log = logger.GetLogger("lockmgr")

type lockMgrImpl struct {
	locks *xsync.MapOf[string, string]
}

// NewLockManager creates an independent lock manager
func NewLockManager() ILockManager {
	return &lockMgrImpl{
		locks: xsync.NewMapOf[string, string](),
	}
}

// processLocks is shared by all users of Default
var processLocks = NewLockManager()

// Default returns the lock manager shared by the whole process.
// Every store location must be locked through it before it is opened.
func Default() ILockManager {
	return processLocks
}

func (lm *lockMgrImpl) AcquireLock(key string) (string, error) {
	ownerID := uuid.NewString()

	// Try to acquire the lock (by setting the value only if it doesn't exist - atomic CAS operation)
	actual, loaded := lm.locks.LoadOrStore(key, ownerID)
	if loaded {
		log.Warningf("lock %s is already held by %s", key, actual)
		return "", fmt.Errorf("%w: %s", ErrLocked, key)
	}

	log.Debugf("lock %s acquired by %s", key, ownerID)
	return ownerID, nil
}

func (lm *lockMgrImpl) ReleaseLock(key string, ownerID string) (bool, error) {
	released := true

	lm.locks.Compute(key, func(current string, loaded bool) (string, bool) {
		// Lock does not exist
		if !loaded {
			return current, true
		}
		// Check if the lock is owned by us, otherwise keep it
		if current != ownerID {
			released = false
			return current, false
		}
		// Release the lock
		return current, true
	})

	if released {
		log.Debugf("lock %s released by %s", key, ownerID)
	}
	return released, nil
}

func (lm *lockMgrImpl) Locks() map[string]string {
	out := make(map[string]string, lm.locks.Size())
	lm.locks.Range(func(key, owner string) bool {
		out[key] = owner
		return true
	})
	return out
}
