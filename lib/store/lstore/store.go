package lstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dPref/lib/db"
	"github.com/ValentinKolb/dPref/lib/store"
	"github.com/ValentinKolb/dPref/lib/util"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("store")

type storeImpl struct {
	id   string
	name string
	db   db.PrefDB

	// sem is the one-slot edit semaphore. Loading and editing both hold it,
	// so the map only changes inside the critical section.
	sem chan struct{}

	loaded atomic.Bool
	closed atomic.Bool

	closeOnce sync.Once
	closeErr  error

	data    *util.Broadcaster[db.Preferences]
	metrics *storeMetrics
}

// NewLocalStore creates a new local store instance called name.
// This store implementation is not distributed and only works inside a single
// process: the database created by factory must not be shared with another
// store. The persisted map is loaded lazily on the first read or edit.
func NewLocalStore(name string, factory store.DBFactory) (store.IStore, error) {
	database, err := factory()
	if err != nil {
		return nil, store.WrapError(store.RetCStoreUnavailable, fmt.Sprintf("open store %s", name), err)
	}

	s := &storeImpl{
		id:      uuid.NewString(),
		name:    name,
		db:      database,
		sem:     make(chan struct{}, 1),
		data:    util.NewBroadcaster[db.Preferences](),
		metrics: newStoreMetrics(name),
	}
	log.Infof("opened store %s (%s at %s)", name, database.GetInfo().DbType, database.Location())
	return s, nil
}

// --------------------------------------------------------------------------
// Critical Section
// --------------------------------------------------------------------------

// acquire takes the edit slot or gives up when ctx is done
func (s *storeImpl) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *storeImpl) release() {
	<-s.sem
}

// ensureLoaded loads the persisted map once. A failed load is not remembered,
// the next access tries again.
func (s *storeImpl) ensureLoaded(ctx context.Context) error {
	if s.loaded.Load() {
		return nil
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	if s.closed.Load() {
		return store.ErrStoreClosed
	}
	return s.loadLocked()
}

// loadLocked must be called with the edit slot held
func (s *storeImpl) loadLocked() error {
	if s.loaded.Load() {
		return nil
	}

	start := time.Now()
	prefs, err := s.db.Load()
	if err != nil {
		s.metrics.loadFailures.Inc()
		log.Errorf("failed to load store %s: %v", s.name, err)
		return store.WrapError(store.RetCStoreUnavailable, fmt.Sprintf("load store %s", s.name), err)
	}

	// the loaded map is the first revision, every commit increments it
	s.data.Publish(prefs.WithRevision(1))
	s.loaded.Store(true)
	log.Debugf("loaded store %s with %d entries in %s", s.name, prefs.Len(), time.Since(start))
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Data() util.Stream[db.Preferences] {
	if s.closed.Load() {
		return util.Failed[db.Preferences](store.ErrStoreClosed)
	}
	return &dataStream{s: s}
}

func (s *storeImpl) Edit(ctx context.Context, fn store.EditFunc) (db.Preferences, error) {
	if s.closed.Load() {
		return db.Preferences{}, store.ErrStoreClosed
	}

	if err := s.acquire(ctx); err != nil {
		return db.Preferences{}, err
	}
	defer s.release()

	// the store may have been closed while waiting for the slot
	if s.closed.Load() {
		return db.Preferences{}, store.ErrStoreClosed
	}
	if err := s.loadLocked(); err != nil {
		return db.Preferences{}, err
	}

	start := time.Now()
	current, _ := s.data.Latest()

	m := current.Mutable()
	if err := fn(m); err != nil {
		s.metrics.abort()
		return db.Preferences{}, err
	}
	next := m.Freeze()

	// an edit that changes nothing is neither written nor published
	if next.Equal(current) {
		s.metrics.commit(time.Since(start), false)
		return current, nil
	}

	next = next.WithRevision(current.Revision() + 1)
	if err := s.db.Save(next); err != nil {
		s.metrics.fail()
		log.Errorf("failed to save store %s: %v", s.name, err)
		return db.Preferences{}, store.WrapError(store.RetCStoreUnavailable, fmt.Sprintf("save store %s", s.name), err)
	}

	// publishing inside the critical section keeps notifications in commit order
	s.data.Publish(next)
	s.metrics.commit(time.Since(start), true)
	return next, nil
}

func (s *storeImpl) GetInfo() (store.Info, error) {
	if s.closed.Load() {
		return store.Info{}, store.ErrStoreClosed
	}

	current, _ := s.data.Latest()
	return store.Info{
		ID:          s.id,
		Name:        s.name,
		Loaded:      s.loaded.Load(),
		Entries:     current.Len(),
		Subscribers: s.data.Len(),
		Stats:       s.metrics.snapshot(),
		DB:          s.db.GetInfo(),
	}, nil
}

func (s *storeImpl) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)

		// wait for a running edit, later edits see the closed flag
		s.sem <- struct{}{}
		defer s.release()

		s.data.Close()
		s.closeErr = s.db.Close()
		log.Infof("closed store %s", s.name)
	})
	return s.closeErr
}

// --------------------------------------------------------------------------
// Data Stream
// --------------------------------------------------------------------------

// dataStream subscribes to the store on its first Next, so the persisted map
// is only loaded when somebody actually reads it.
type dataStream struct {
	s      *storeImpl
	mu     sync.Mutex
	sub    util.Stream[db.Preferences]
	err    error
	closed bool
}

func (d *dataStream) Next(ctx context.Context) (db.Preferences, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return db.Preferences{}, util.ErrStreamClosed
	}
	if d.err != nil {
		err := d.err
		d.mu.Unlock()
		return db.Preferences{}, err
	}
	if d.sub == nil {
		if err := d.s.ensureLoaded(ctx); err != nil {
			// cancellation while waiting is not terminal
			if ctx.Err() == nil {
				d.err = err
			}
			d.mu.Unlock()
			return db.Preferences{}, err
		}
		d.sub = d.s.data.Subscribe()
	}
	sub := d.sub
	d.mu.Unlock()

	return sub.Next(ctx)
}

func (d *dataStream) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.sub != nil {
		return d.sub.Close()
	}
	return nil
}
