// Package prefs provides typed, observable access to preference stores.
//
// A preference is declared once on an Owner with a name, a kind (the Go type
// parameter) and an optional default. The resulting Preference reads, writes
// and observes exactly one key of the owner's store.
//
// Key Components:
//
//   - Preference: the core handle. Get and GetOrDefault read the current map,
//     Set and Clear commit a new value (or remove the key), Update runs an
//     UpdateFunc inside the store's edit transaction, so concurrent updates
//     like increments never lose writes. Stream emits the current value and
//     every later change. Absent keys resolve to the default.
//
//   - CachedPreference: a Preference with a last-known-value slot that lets Get
//     skip the store after a write or a streamed value. The slot is best
//     effort, the persisted map is ground truth.
//
//   - Owner: binds one store name to one store and memoizes declared
//     preferences. Declaring the same name twice returns the identical
//     instance, declaring it with another kind fails with ErrTypeMismatch.
//
//   - Runtime: maps store names to stores, opens each store exactly once
//     (engine and location from common.Config) and locks its location so no
//     second store writes the same file. Close closes all stores.
//
//   - Default runtime: Init creates a process wide runtime, Default and
//     NewOwner return its owners and fail with ErrOwnerNotInitialized before
//     Init. Shutdown is the matching teardown.
//
// The continuous-stream (flow) and callback (rx) access styles live in the
// subpackages of the same name. Both are thin shells over Preference.
//
// Usage Example:
//
//	if err := prefs.Init(common.DefaultConfig()); err != nil {
//		return err
//	}
//	defer prefs.Shutdown()
//
//	owner, _ := prefs.NewOwner("A")
//	counter := prefs.Must(prefs.Int32(owner, "counter", 0))
//
//	_, err := counter.Set(ctx, 5)
//	_, err = counter.Update(ctx, prefs.SetFunc(func(v int32) int32 { return v + 1 }))
//	v, _, err := counter.Get(ctx) // 6
//	_, err = counter.Clear(ctx)
//	v, _, err = counter.Get(ctx) // 0
//
// Errors:
//
//	Store failures are returned as *store.Error (errors.Is(err,
//	store.ErrStoreUnavailable)). Streams end with io.EOF when their store is
//	closed and with the failure otherwise.
package prefs
