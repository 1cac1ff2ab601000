// Package rx provides the callback/subscription front end of a preference.
//
// An rx.Preference never yields an absent value. A key without stored value
// resolves to the declared default, or to the zero value of its kind if the
// preference was declared without one (0, false, "" or the empty set).
//
// Values are delivered to callbacks through Subscribe, one-off operations
// return a Future:
//
//	volume := prefs.Must(rx.Declare[int32](owner, "volume"))
//
//	sub := volume.Subscribe(func(v int32) { fmt.Println("volume", v) }, nil)
//	defer sub.Dispose()
//
//	_, err := volume.UpdateAsync(ctx, func(v int32, _ db.Preferences) (int32, error) {
//		return v + 1, nil
//	}).Await(ctx)
package rx
