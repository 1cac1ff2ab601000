package store

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dPref/lib/db"
	"github.com/ValentinKolb/dPref/lib/util"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new db used by the store.
// This is used to abstract the creation of the db from the store implementation.
type DBFactory func() (db.PrefDB, error)

// EditFunc modifies the preference map inside a store transaction.
// Returning an error aborts the transaction, nothing is committed.
type EditFunc func(prefs *db.MutablePreferences) error

// IStore is the interface of a transactional, observable preference store.
// A store owns exactly one preference map.
type IStore interface {
	// Data returns a stream of the complete preference map. The first element
	// is the current map, every later element is the map after one committed
	// edit (conflated for slow readers). A store that cannot be read ends the
	// stream with an *Error (RetCStoreUnavailable). Every element carries the
	// revision of its commit (db.Preferences.Revision), the loaded map is
	// revision 1.
	Data() (stream util.Stream[db.Preferences])
	// Edit runs fn on a copy of the current map and atomically commits the
	// result. Edits are serialized per store instance. ctx only bounds waiting
	// for the edit slot, once fn runs the edit completes or fails as a whole.
	// The committed map is returned, an edit that changes nothing returns the
	// current map with its revision.
	Edit(ctx context.Context, fn EditFunc) (prefs db.Preferences, err error)
	// GetInfo returns metadata about the store and the database underlying it.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetInfo() (info Info, err error)
	// Close ends all data streams and closes the database.
	// Every later operation fails with RetCStoreClosed.
	Close() (err error)
}

// Info describes a store instance
type Info struct {
	ID          string          `json:"id"`   // Random id of this store instance
	Name        string          `json:"name"` // Logical store name
	Loaded      bool            `json:"loaded"`
	Entries     int             `json:"entries"`
	Subscribers int             `json:"subscribers"`
	Stats       EditStats       `json:"stats"`
	DB          db.DatabaseInfo `json:"db"`
}

// EditStats summarizes the edits of one store instance
type EditStats struct {
	Commits  int64   `json:"commits"`
	Aborts   int64   `json:"aborts"`
	Failures int64   `json:"failures"`
	MeanMs   float64 `json:"mean_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P99Ms    float64 `json:"p99_ms"`
	MaxMs    float64 `json:"max_ms"`
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
	Err  error   // The underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("StoreError (code %s): %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code, so
// errors.Is(err, store.ErrStoreUnavailable) works for every unavailable error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new StoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// WrapError creates a new StoreError with the given code and message wrapping err.
func WrapError(code RetCode, msg string, err error) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
		Err:  err,
	}
}

// Sentinels for errors.Is, only the code is compared
var (
	ErrStoreUnavailable = NewError(RetCStoreUnavailable, "store unavailable")
	ErrStoreClosed      = NewError(RetCStoreClosed, "store closed")
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by underlying database.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCStoreUnavailable                    // 4: The persisted map could not be read or written.
	RetCStoreClosed                         // 5: The store was closed.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCStoreUnavailable:
		return "StoreUnavailable"
	case RetCStoreClosed:
		return "StoreClosed"
	default:
		return "Unknown"
	}
}
