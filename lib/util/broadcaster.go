package util

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
)

// Broadcaster publishes values to any number of conflated subscriber streams.
//
// Every subscriber holds at most one pending value: publishing replaces a value
// the subscriber has not consumed yet, so a slow subscriber always continues
// with the latest value and never blocks the publisher. A new subscriber
// receives the latest published value first.
//
// Thread-safety: all methods are thread-safe. Values are delivered to each
// subscriber in the order Publish was called.
type Broadcaster[T any] struct {
	mu        sync.Mutex
	subs      map[*subscription[T]]struct{}
	latest    T
	hasLatest bool
	err       error // terminal error, io.EOF after Close
}

// NewBroadcaster creates a broadcaster without a latest value.
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[*subscription[T]]struct{})}
}

// Publish delivers v to all current subscribers and remembers it as latest
// value. Publishing after Fail or Close is a no-op.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return
	}
	b.latest = v
	b.hasLatest = true
	for sub := range b.subs {
		sub.offer(v)
	}
}

// Subscribe returns a new stream of published values that starts with the
// latest value (if any). After Fail or Close the stream ends right away.
func (b *Broadcaster[T]) Subscribe() Stream[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return Failed[T](b.err)
	}

	sub := &subscription[T]{
		b:    b,
		ch:   make(chan T, 1),
		done: make(chan struct{}),
	}
	if b.hasLatest {
		sub.ch <- b.latest
	}
	b.subs[sub] = struct{}{}
	return sub
}

// Latest returns the last published value.
func (b *Broadcaster[T]) Latest() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest, b.hasLatest
}

// Len returns the number of active subscribers.
func (b *Broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Fail terminates all subscribers with err after they consumed their pending
// value. Later subscribers receive err right away.
func (b *Broadcaster[T]) Fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return
	}
	b.err = err
	for sub := range b.subs {
		sub.finish(err)
	}
	b.subs = make(map[*subscription[T]]struct{})
}

// Close completes all subscribers (io.EOF).
func (b *Broadcaster[T]) Close() {
	b.Fail(io.EOF)
}

// --------------------------------------------------------------------------
// Subscription
// --------------------------------------------------------------------------

type subscription[T any] struct {
	b    *Broadcaster[T]
	ch   chan T        // pending value (capacity 1)
	done chan struct{} // closed once the subscription ended
	err  error         // terminal error, valid after done is closed

	finishOnce sync.Once
	closed     atomic.Bool // set when the consumer called Close
}

// offer replaces the pending value with v.
// It is only called with b.mu held, so there is never a second sender.
func (s *subscription[T]) offer(v T) {
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- v:
	default:
	}
}

func (s *subscription[T]) finish(err error) {
	s.finishOnce.Do(func() {
		s.err = err
		close(s.done)
	})
}

func (s *subscription[T]) Next(ctx context.Context) (T, error) {
	var zero T

	if s.closed.Load() {
		return zero, ErrStreamClosed
	}

	select {
	case v := <-s.ch:
		return v, nil
	case <-s.done:
		if s.closed.Load() {
			return zero, ErrStreamClosed
		}
		// a value published right before the end is still delivered
		select {
		case v := <-s.ch:
			return v, nil
		default:
			return zero, s.err
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (s *subscription[T]) Close() error {
	s.closed.Store(true)

	s.b.mu.Lock()
	delete(s.b.subs, s)
	s.b.mu.Unlock()

	s.finish(ErrStreamClosed)
	return nil
}
