// Package store provides the interface of a transactional, observable
// preference store together with unified error handling.
// It serves as an abstraction layer over the lower-level db.PrefDB engines,
// adding serialized read-modify-write transactions and change notification.
//
// The package focuses on:
//   - A unified interface (IStore) for reading, editing and observing one
//     preference map, independent of the engine persisting it
//   - Pluggable storage backend architecture through the DBFactory pattern
//
// Key Components:
//
//   - IStore Interface: Data returns a stream of the complete map (current
//     value first, then every committed edit). Edit runs a function on a copy
//     of the map and commits its result atomically.
//
//   - Error Type: a custom *Error type that carries a RetCode, a message and the
//     underlying cause. Error.Is compares codes, so callers can check
//     errors.Is(err, store.ErrStoreUnavailable) or errors.Is(err,
//     store.ErrStoreClosed) and still unwrap the cause.
//
//   - Return Codes: typed codes for internal errors, unsupported operations,
//     unavailable (unreadable or unwritable) stores and closed stores.
//
// Implementations:
//   - lstore: a local, single-process store over any db.PrefDB
package store
