package util

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"
)

// Stream is a pull based sequence of values.
//
// Next blocks until the next value is available, the stream ends or ctx is
// done. A stream that completed normally returns io.EOF, any other error is
// terminal and returned again by every later call. Close stops delivery and
// releases the resources of the stream, it never affects the producer.
//
// Thread-safety: a single stream must only be consumed by one goroutine at a
// time. Close may be called from any goroutine.
type Stream[T any] interface {
	Next(ctx context.Context) (T, error)
	Close() error
}

// ErrStreamClosed is returned by Next after the consumer closed the stream.
var ErrStreamClosed = errors.New("stream closed")

// --------------------------------------------------------------------------
// Single value streams
// --------------------------------------------------------------------------

// onceStream runs fn on the first Next and then completes
type onceStream[T any] struct {
	mu     sync.Mutex
	fn     func(ctx context.Context) (T, error)
	done   bool
	err    error
	closed bool
}

// Once returns a cold stream: fn runs on the first call to Next (with that
// call's ctx) and its result is the only element. A stream that is closed
// before the first Next never runs fn.
func Once[T any](fn func(ctx context.Context) (T, error)) Stream[T] {
	return &onceStream[T]{fn: fn}
}

func (s *onceStream[T]) Next(ctx context.Context) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	switch {
	case s.closed:
		return zero, ErrStreamClosed
	case s.err != nil:
		return zero, s.err
	case s.done:
		return zero, io.EOF
	}

	v, err := s.fn(ctx)
	if err != nil {
		s.err = err
		return zero, err
	}
	s.done = true
	return v, nil
}

func (s *onceStream[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// failedStream only returns err
type failedStream[T any] struct {
	err error
}

// Failed returns a stream that terminates with err right away.
func Failed[T any](err error) Stream[T] {
	return failedStream[T]{err: err}
}

func (s failedStream[T]) Next(context.Context) (T, error) {
	var zero T
	return zero, s.err
}

func (s failedStream[T]) Close() error {
	return nil
}

// --------------------------------------------------------------------------
// Operators
// --------------------------------------------------------------------------

type mapStream[T, U any] struct {
	src Stream[T]
	fn  func(T) (U, error)
	err error
}

// Map applies fn to every element of src. An error of fn terminates the
// resulting stream. Closing the result closes src.
func Map[T, U any](src Stream[T], fn func(T) (U, error)) Stream[U] {
	return &mapStream[T, U]{src: src, fn: fn}
}

func (s *mapStream[T, U]) Next(ctx context.Context) (U, error) {
	var zero U
	if s.err != nil {
		return zero, s.err
	}
	v, err := s.src.Next(ctx)
	if err != nil {
		return zero, err
	}
	u, err := s.fn(v)
	if err != nil {
		s.err = err
		return zero, err
	}
	return u, nil
}

func (s *mapStream[T, U]) Close() error {
	return s.src.Close()
}

// First returns the first element of s and closes it.
// A stream that ends without any element results in io.EOF.
func First[T any](ctx context.Context, s Stream[T]) (T, error) {
	defer s.Close()
	return s.Next(ctx)
}

// All adapts s to a range-over-func iterator. Iteration stops silently when
// the stream completes or is closed, a terminal error is yielded once as the last pair.
// The stream is closed when the iteration ends.
//
// Example:
//
//	for prefs, err := range util.All(ctx, store.Data()) {
//		if err != nil {
//			return err
//		}
//		...
//	}
func All[T any](ctx context.Context, s Stream[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer s.Close()
		for {
			v, err := s.Next(ctx)
			if errors.Is(err, io.EOF) || errors.Is(err, ErrStreamClosed) {
				return
			}
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}
