// Package util provides the stream primitives used to observe preference
// stores.
//
// The package contains:
//   - Stream: a pull based, context aware sequence of values with io.EOF as
//     normal completion signal and any other error as terminal failure
//   - Broadcaster: a conflated multi-subscriber publisher. Each subscriber
//     holds at most one pending value and new subscribers start with the
//     latest value
//   - Once and Failed: cold single value streams and streams that fail
//     right away
//   - Map, First and All: operators to transform a stream, take its first
//     element or range over it
//
// Example usage:
//
//	b := util.NewBroadcaster[int]()
//	b.Publish(1)
//
//	s := b.Subscribe()
//	defer s.Close()
//
//	v, err := s.Next(ctx) // 1
package util
