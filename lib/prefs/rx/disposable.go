package rx

import (
	"context"
	"sync/atomic"
)

// Disposable cancels a subscription.
type Disposable interface {
	// Dispose stops the delivery of values. It does not wait for a callback
	// that is running and may be called from inside a callback.
	Dispose()
	// IsDisposed reports whether Dispose was called or the subscription ended.
	IsDisposed() bool
}

type disposable struct {
	cancel   context.CancelFunc
	disposed atomic.Bool
}

func (d *disposable) Dispose() {
	d.disposed.Store(true)
	d.cancel()
}

func (d *disposable) IsDisposed() bool {
	return d.disposed.Load()
}
