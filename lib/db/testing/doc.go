// Package testing provides standardised tests and benchmarks for
// engine implementations that satisfy the db.PrefDB interface.
//
// The package contains:
//   - testing: A conformance suite for the PrefDB contract (empty load, round
//     trips of every kind, overwrite semantics, snapshot isolation,
//     persistence across reopening, loads concurrent to saves)
//   - benchmark: Performance tests for full saves, loads and single changes
//
// Tests that need a feature the engine does not advertise are skipped.
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func(t testing.TB, dir string) db.PrefDB {
//		return NewMyDatabase(dir)
//	}
//
//	// Running the standard test suite
//	dbtesting.RunPrefDBTests(t, "MyDatabase", factory)
//
//	// Running performance benchmarks
//	dbtesting.RunPrefDBBenchmarks(b, "MyDatabase", factory)
package testing
