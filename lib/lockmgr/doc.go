// Package lockmgr implements exclusive, process-wide ownership of keys.
//
// It is used to guarantee that a persisted store location (a file or a badger
// directory) is only ever opened by one store instance at a time: two stores
// writing the same file would silently overwrite each other's commits.
//
// Core Functionality:
//   - Lock acquisition with a random owner ID (uuid)
//   - Safe release operations that verify ownership
//
// Implementation Approach:
//
//	Locks live in a concurrent map (xsync.MapOf) of key to owner ID.
//
//	- Lock Acquisition: LoadOrStore guarantees that exactly one requester
//	  can create the key. Everybody else gets ErrLocked.
//
//	- Safe Release: ReleaseLock deletes the key inside Compute, but only if
//	  the stored owner ID matches the one of the requester.
//
// The locks are not persisted and not visible to other processes. Engines
// that need cross-process protection bring their own (badger holds a
// directory lock).
//
// Usage Example:
//
//	ownerID, err := lockmgr.Default().AcquireLock("/data/datastore/settings.preferences_binary")
//	if errors.Is(err, lockmgr.ErrLocked) {
//	    // another store instance owns the file
//	}
//	defer lockmgr.Default().ReleaseLock(key, ownerID)
package lockmgr
