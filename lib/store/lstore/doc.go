// Package lstore implements a local, single-process preference store based on
// the store.IStore interface. It wraps any db.PrefDB engine with serialized
// transactions and change notification.
//
// Key Features:
//   - Lazy loading: the persisted map is read on the first Data().Next or Edit
//   - Serialized edits: one edit at a time per store instance (not per key)
//   - Conflated change streams: every subscriber sees the latest committed map
//   - Metrics: Prometheus counters and histograms plus per instance statistics
//
// Implementation Details:
//
//   - Edit Slot: a one-slot semaphore guards loading and editing. Waiting for
//     the slot honours the context of Edit, once acquired the edit runs to
//     completion: either the new map is saved and published, or nothing
//     happens at all. An edit function returning an error aborts the edit.
//
//   - Commit Order: the committed map is published while the slot is still
//     held, so subscribers observe commits in the order they happened. Edits
//     that leave the map unchanged are neither saved nor published.
//
//   - Error Mapping: failing loads and saves are reported as *store.Error with
//     RetCStoreUnavailable wrapping the engine error. They are not retried. A
//     failed load is not remembered, the next access loads again.
//
//   - Metrics: exported through github.com/VictoriaMetrics/metrics (use
//     metrics.WritePrometheus) under the names dpref_store_commits_total,
//     dpref_store_noop_edits_total, dpref_store_aborted_edits_total,
//     dpref_store_failed_saves_total, dpref_store_failed_loads_total and
//     dpref_store_edit_duration_seconds, labelled with the store name. The
//     store.Info of an instance carries go-metrics based edit statistics.
//
// Thread Safety:
//
//	All methods are thread-safe. The engine only sees one Load or Save at a
//	time, GetInfo may run concurrently.
//
// Usage Example:
//
//	factory := func() (db.PrefDB, error) {
//		c := codec.NewBinaryCodec()
//		return file.NewFileDB(file.PathFor("data", "settings", c), c), nil
//	}
//	s, err := lstore.NewLocalStore("settings", factory)
//
//	prefs, err := s.Edit(ctx, func(m *db.MutablePreferences) error {
//		return db.Put(m, "theme", "dark")
//	})
package lstore
