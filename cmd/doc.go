// Package cmd implements the command-line interface of dPref, an inspection
// tool for preference stores on disk. It opens the stores of a data directory
// with the same engines an application uses and reads, edits or watches them.
//
// The package is organized into several subpackages:
//
//   - pref: Commands operating on one store (get, set, del, list, watch, bench, metrics)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Two processes must not open the same store at the same time, stop the
// application before editing its stores.
//
// See dpref -help for a list of all commands.
package cmd
