package util

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSubscribeReceivesLatest tests that a new subscriber starts with the latest value
func TestSubscribeReceivesLatest(t *testing.T) {
	b := NewBroadcaster[int]()
	b.Publish(1)
	b.Publish(2)

	s := b.Subscribe()
	defer s.Close()

	v, err := s.Next(testCtx(t))
	if err != nil || v != 2 {
		t.Fatalf("Expected 2, got %d (err=%v)", v, err)
	}

	b.Publish(3)
	v, err = s.Next(testCtx(t))
	if err != nil || v != 3 {
		t.Fatalf("Expected 3, got %d (err=%v)", v, err)
	}
}

// TestConflation tests that a slow subscriber only sees the latest value
func TestConflation(t *testing.T) {
	b := NewBroadcaster[int]()
	s := b.Subscribe()
	defer s.Close()

	for i := 1; i <= 100; i++ {
		b.Publish(i)
	}

	v, err := s.Next(testCtx(t))
	if err != nil || v != 100 {
		t.Fatalf("Expected conflated value 100, got %d (err=%v)", v, err)
	}

	// nothing else is pending
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if v, err := s.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected no pending value, got %d (err=%v)", v, err)
	}
}

// TestNoSubscriberBlocksPublisher tests that publishing never waits for subscribers
func TestNoSubscriberBlocksPublisher(t *testing.T) {
	b := NewBroadcaster[int]()
	for i := 0; i < 10; i++ {
		s := b.Subscribe()
		defer s.Close()
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			b.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publisher blocked by subscribers that do not consume")
	}
}

// TestOrderPreserved tests that a consuming subscriber sees an increasing sequence
func TestOrderPreserved(t *testing.T) {
	b := NewBroadcaster[int]()
	s := b.Subscribe()
	defer s.Close()

	const n = 1000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= n; i++ {
			b.Publish(i)
		}
	}()

	last := 0
	ctx := testCtx(t)
	for last < n {
		v, err := s.Next(ctx)
		if err != nil {
			t.Fatalf("Next failed after %d: %v", last, err)
		}
		if v <= last {
			t.Fatalf("Out of order value %d after %d", v, last)
		}
		last = v
	}
	wg.Wait()
}

// TestFailDeliversPendingValueFirst tests the terminal error path
func TestFailDeliversPendingValueFirst(t *testing.T) {
	b := NewBroadcaster[string]()
	s := b.Subscribe()
	defer s.Close()

	boom := errors.New("boom")
	b.Publish("last")
	b.Fail(boom)

	ctx := testCtx(t)
	v, err := s.Next(ctx)
	if err != nil || v != "last" {
		t.Fatalf("Expected pending value before error, got %q (err=%v)", v, err)
	}
	if _, err := s.Next(ctx); !errors.Is(err, boom) {
		t.Fatalf("Expected terminal error, got %v", err)
	}
	if _, err := s.Next(ctx); !errors.Is(err, boom) {
		t.Fatalf("Expected terminal error to stick, got %v", err)
	}

	// late subscribers fail right away
	late := b.Subscribe()
	if _, err := late.Next(ctx); !errors.Is(err, boom) {
		t.Fatalf("Expected late subscriber to fail, got %v", err)
	}

	// publishing after failure is ignored
	b.Publish("ignored")
	if v, _ := b.Latest(); v != "last" {
		t.Errorf("Expected latest to stay %q, got %q", "last", v)
	}
}

// TestCloseCompletesSubscribers tests normal completion
func TestCloseCompletesSubscribers(t *testing.T) {
	b := NewBroadcaster[int]()
	s := b.Subscribe()

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Next(context.Background())
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	b.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, io.EOF) {
			t.Errorf("Expected io.EOF, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Subscriber not completed by Close")
	}
}

// TestSubscriberClose tests that closing a subscription stops delivery
func TestSubscriberClose(t *testing.T) {
	b := NewBroadcaster[int]()
	s := b.Subscribe()
	b.Publish(1)

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("Expected closed subscriber to be removed, %d left", b.Len())
	}
	if _, err := s.Next(testCtx(t)); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("Expected ErrStreamClosed, got %v", err)
	}

	// other subscribers are not affected
	other := b.Subscribe()
	defer other.Close()
	b.Publish(2)
	if v, err := other.Next(testCtx(t)); err != nil || v != 2 {
		t.Errorf("Expected 2, got %d (err=%v)", v, err)
	}
}

// TestNextHonorsContext tests cancellation while waiting
func TestNextHonorsContext(t *testing.T) {
	b := NewBroadcaster[int]()
	s := b.Subscribe()
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
