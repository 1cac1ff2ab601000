// Package memory implements a db.PrefDB that only lives as long as the process.
//
// It is useful for tests and for settings that should not be persisted.
package memory
