package lockmgr

import "errors"

// ErrLocked is returned by AcquireLock if the key is held by another owner.
var ErrLocked = errors.New("already locked")

// ILockManager defines the interface for a lock provider.
type ILockManager interface {
	// AcquireLock acquires an exclusive lock for the given key.
	// Returns a random owner ID that is needed to release the lock, or
	// ErrLocked if another owner holds the lock.
	AcquireLock(key string) (ownerID string, err error)

	// ReleaseLock releases the lock for the given key.
	// Return a boolean indicating whether the lock was released, and an error if any.
	// The method will also return true if the lock did not exist.
	ReleaseLock(key string, ownerID string) (ok bool, err error)

	// Locks returns a snapshot of all held locks (key -> owner ID).
	Locks() map[string]string
}
