package prefs

import (
	"errors"

	"github.com/ValentinKolb/dPref/lib/db"
)

var (
	// ErrOwnerNotInitialized is returned when the process wide default
	// runtime is used before Init.
	ErrOwnerNotInitialized = errors.New("preference owner not initialized")
	// ErrAlreadyInitialized is returned by a second call to Init.
	ErrAlreadyInitialized = errors.New("preferences already initialized")
	// ErrNoDefaultValue is returned by GetOrDefault if neither a stored value
	// nor a default exists.
	ErrNoDefaultValue = errors.New("no default value")
	// ErrInvalidKey is returned for empty preference names and for store names
	// that cannot be used as file names.
	ErrInvalidKey = errors.New("invalid key")
	// ErrRuntimeClosed is returned by a runtime after Close.
	ErrRuntimeClosed = errors.New("runtime closed")
	// ErrTypeMismatch is db.ErrTypeMismatch, repeated here for convenience.
	ErrTypeMismatch = db.ErrTypeMismatch
)
