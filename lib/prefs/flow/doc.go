// Package flow provides the continuous-stream front end of a preference.
//
// A flow.Preference wraps the core preference of the same name (declared
// through prefs.Declare) with a cache slot and exposes it as streams:
//
//   - Values: the current value followed by every committed change
//   - SetValue, UpdateValue, ClearValue: cold streams that perform the edit
//     when they are first pulled and emit the committed map
//   - Observe: pushes values into a callback until a context ends, the
//     context acts as lifecycle token of the observing component
//
// Example:
//
//	theme := prefs.Must(flow.Declare(owner, "theme", prefs.WithDefault("light")))
//
//	done := theme.Observe(ctx, func(v prefs.Optional[string]) error {
//		render(v.Value)
//		return nil
//	})
//	_, err := util.First(ctx, theme.SetValue("dark"))
package flow
