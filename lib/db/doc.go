// Package db provides the data model of a preference map and a standardized
// interface for the engines that persist it.
//
// The package focuses on:
//   - A typed, immutable snapshot of one preference map (Preferences)
//   - An editable view used inside store transactions (MutablePreferences)
//   - A small engine interface (PrefDB) with feature discovery
//
// Key Components:
//
//   - Kind and Value: every stored value carries a type tag. Only primitive
//     kinds are supported: 32/64-bit integers, single/double precision floats,
//     booleans, strings and sets of strings. The Value constraint lists the
//     matching Go types and KindOf maps a Go type to its tag.
//
//   - Preferences: an immutable map of name -> Entry. Every read returns a
//     copy, so a snapshot that was published to subscribers can never be
//     changed afterwards. Lookup reads a typed value and reports
//     ErrTypeMismatch if the stored kind differs from the requested one.
//     A store stamps every snapshot it publishes with a revision, so readers
//     can order snapshots of the same store.
//
//   - MutablePreferences: the editable copy handed to an edit function. It is
//     frozen back into a Preferences snapshot once the edit completes.
//
//   - PrefDB Interface: the engine contract. An engine loads and saves one
//     complete snapshot. Engines do not serialize writers themselves, the
//     store on top of them does.
//
//   - Feature Flags: the Feature type defines capability flags that engines
//     advertise through SupportsFeature (Load, Save, Persistent).
//
// Implementations live in the engines subpackages:
//   - memory: keeps the last saved snapshot in memory (tests, ephemeral settings)
//   - file: one snapshot file per store, written atomically, codec selectable
//   - badger: one badger key per preference inside a badger database
//
// A conformance test suite for engines is available in the testing subpackage.
package db
