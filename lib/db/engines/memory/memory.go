package memory

import (
	"sync"

	"github.com/ValentinKolb/dPref/lib/db"
)

// memoryImpl keeps the last saved snapshot in memory.
// Nothing survives a process restart.
type memoryImpl struct {
	mu       sync.RWMutex
	location string
	current  db.Preferences
	saves    uint64
}

// NewMemoryDB creates an empty in-memory engine. The location is only used as
// identifier (for locking and logging).
func NewMemoryDB(location string) db.PrefDB {
	return &memoryImpl{location: location}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.PrefDB)
// --------------------------------------------------------------------------

func (m *memoryImpl) Load() (db.Preferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, nil
}

func (m *memoryImpl) Save(prefs db.Preferences) error {
	// Snapshots are already immutable, a copy through Mutable keeps this
	// engine independent of the caller regardless
	snapshot := prefs.Mutable().Freeze()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = snapshot
	m.saves++
	return nil
}

func (m *memoryImpl) SupportsFeature(feature db.Feature) bool {
	supportedFeatures := db.FeatureLoad | db.FeatureSave
	return supportedFeatures&feature == feature
}

func (m *memoryImpl) GetInfo() db.DatabaseInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return db.DatabaseInfo{
		SizeBytes:         0,
		DbType:            db.ImplMemory,
		Location:          m.location,
		SupportedFeatures: []db.Feature{db.FeatureLoad, db.FeatureSave},
		Metadata: &struct {
			Entries int    `json:"entries"`
			Saves   uint64 `json:"saves"`
		}{
			Entries: m.current.Len(),
			Saves:   m.saves,
		},
	}
}

func (m *memoryImpl) Location() string {
	return m.location
}

func (m *memoryImpl) Close() error {
	return nil
}
