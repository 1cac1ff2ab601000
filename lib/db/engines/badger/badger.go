package badger

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/ValentinKolb/dPref/lib/db"
	"github.com/ValentinKolb/dPref/lib/db/codec"
	"github.com/dgraph-io/badger/v4"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	dirName   = "datastore"
	dirSuffix = ".badger"
	keyPrefix = "pref/" // Every preference is stored under keyPrefix + name
)

// PathFor returns the badger directory a store called name is persisted in.
func PathFor(dataDir, name string) string {
	return filepath.Join(dataDir, dirName, name+dirSuffix)
}

// --------------------------------------------------------------------------
// Core Badger database structure
// --------------------------------------------------------------------------

// badgerImpl stores every preference as its own badger key
type badgerImpl struct {
	dir string
	bdb *badger.DB

	saves   atomic.Uint64
	written atomic.Uint64 // Number of keys set over the lifetime of this engine
	deleted atomic.Uint64 // Number of keys deleted over the lifetime of this engine
}

// DBOptions configures the badger engine
type DBOptions struct {
	Logger   badger.Logger // Logger used by badger (nil = badger's default logger)
	InMemory bool          // Run badger without touching the disk
}

// NewBadgerDB opens (or creates) a badger database in dir.
// opts may be nil.
func NewBadgerDB(dir string, opts *DBOptions) (db.PrefDB, error) {
	if opts == nil {
		opts = &DBOptions{}
	}

	bopts := badger.DefaultOptions(dir)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	if opts.Logger != nil {
		bopts = bopts.WithLogger(opts.Logger)
	}

	bdb, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}

	return &badgerImpl{dir: dir, bdb: bdb}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.PrefDB)
// --------------------------------------------------------------------------

func (b *badgerImpl) Load() (db.Preferences, error) {
	var prefs db.Preferences
	err := b.bdb.View(func(txn *badger.Txn) error {
		m, err := readAll(txn)
		if err != nil {
			return err
		}
		prefs = m.Freeze()
		return nil
	})
	if err != nil {
		return db.Preferences{}, err
	}
	return prefs, nil
}

// Save compares the persisted entries with prefs inside one read-write
// transaction and only writes the difference.
func (b *badgerImpl) Save(prefs db.Preferences) error {
	var written, deleted uint64

	err := b.bdb.Update(func(txn *badger.Txn) error {
		persisted, err := readAll(txn)
		if err != nil {
			return err
		}

		// Delete entries that are not part of the new map anymore
		old := persisted.Freeze()
		for _, name := range old.Names() {
			if prefs.Has(name) {
				continue
			}
			if err := txn.Delete([]byte(keyPrefix + name)); err != nil {
				return err
			}
			deleted++
		}

		// Write new or changed entries
		var rangeErr error
		prefs.Range(func(name string, e db.Entry) bool {
			if prev, ok := old.Get(name); ok && prev.Equal(e) {
				return true
			}
			value, err := codec.EncodeEntry(e)
			if err != nil {
				rangeErr = fmt.Errorf("preference %q: %w", name, err)
				return false
			}
			if err := txn.Set([]byte(keyPrefix+name), value); err != nil {
				rangeErr = err
				return false
			}
			written++
			return true
		})
		return rangeErr
	})
	if err != nil {
		return err
	}

	b.saves.Add(1)
	b.written.Add(written)
	b.deleted.Add(deleted)
	return nil
}

func (b *badgerImpl) SupportsFeature(feature db.Feature) bool {
	supportedFeatures := db.FeatureLoad |
		db.FeatureSave |
		db.FeaturePersistent
	return supportedFeatures&feature == feature
}

func (b *badgerImpl) GetInfo() db.DatabaseInfo {
	lsm, vlog := b.bdb.Size()

	meta := &struct {
		LSMBytes    int64  `json:"lsm_bytes"`
		VLogBytes   int64  `json:"vlog_bytes"`
		Saves       uint64 `json:"saves"`
		KeysWritten uint64 `json:"keys_written"`
		KeysDeleted uint64 `json:"keys_deleted"`
	}{
		LSMBytes:    lsm,
		VLogBytes:   vlog,
		Saves:       b.saves.Load(),
		KeysWritten: b.written.Load(),
		KeysDeleted: b.deleted.Load(),
	}

	return db.DatabaseInfo{
		SizeBytes:         int(lsm + vlog),
		DbType:            db.ImplBadger,
		Location:          b.dir,
		SupportedFeatures: []db.Feature{db.FeatureLoad, db.FeatureSave, db.FeaturePersistent},
		Metadata:          meta,
	}
}

func (b *badgerImpl) Location() string {
	return b.dir
}

func (b *badgerImpl) Close() error {
	return b.bdb.Close()
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// readAll collects all preferences visible in txn
func readAll(txn *badger.Txn) (*db.MutablePreferences, error) {
	m := db.NewMutablePreferences()
	prefix := []byte(keyPrefix)

	itOpts := badger.DefaultIteratorOptions
	itOpts.Prefix = prefix
	it := txn.NewIterator(itOpts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		name := string(bytes.TrimPrefix(item.Key(), prefix))

		value, err := item.ValueCopy(nil)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", name, err)
		}
		e, err := codec.DecodeEntry(value)
		if err != nil {
			return nil, fmt.Errorf("decode %q: %w", name, err)
		}
		if err := m.Set(name, e); err != nil {
			return nil, err
		}
	}
	return m, nil
}
