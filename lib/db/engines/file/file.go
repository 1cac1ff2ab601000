package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dPref/lib/db"
	"github.com/ValentinKolb/dPref/lib/db/codec"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	dirName    = "datastore"     // Sub directory of the data dir holding all stores
	fileSuffix = ".preferences_" // Followed by the codec name
	filePerm   = 0o600
	dirPerm    = 0o755
)

// PathFor returns the file a store called name is persisted in.
func PathFor(dataDir, name string, c codec.ICodec) string {
	return filepath.Join(dataDir, dirName, name+fileSuffix+c.Name())
}

// --------------------------------------------------------------------------
// Core File database structure
// --------------------------------------------------------------------------

// fileImpl persists one snapshot per file
type fileImpl struct {
	path  string
	codec codec.ICodec

	// saveMu serializes concurrent Save calls on the same engine, the rename
	// itself is atomic for readers
	saveMu sync.Mutex

	loads     atomic.Uint64
	saves     atomic.Uint64
	lastBytes atomic.Int64
}

// NewFileDB creates an engine persisting to path using the given codec.
// The file and its directory are created on the first Save.
func NewFileDB(path string, c codec.ICodec) db.PrefDB {
	return &fileImpl{path: path, codec: c}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.PrefDB)
// --------------------------------------------------------------------------

func (f *fileImpl) Load() (db.Preferences, error) {
	f.loads.Add(1)

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return db.EmptyPreferences(), nil
	}
	if err != nil {
		return db.Preferences{}, fmt.Errorf("read %s: %w", f.path, err)
	}

	prefs, err := f.codec.Decode(data)
	if err != nil {
		return db.Preferences{}, fmt.Errorf("decode %s: %w", f.path, err)
	}
	f.lastBytes.Store(int64(len(data)))
	return prefs, nil
}

// Save writes the snapshot to a temporary file in the target directory and
// renames it over the previous file.
func (f *fileImpl) Save(prefs db.Preferences) error {
	data, err := f.codec.Encode(prefs)
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}

	f.saveMu.Lock()
	defer f.saveMu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", tmpName, err)
	}

	f.saves.Add(1)
	f.lastBytes.Store(int64(len(data)))
	return nil
}

func (f *fileImpl) SupportsFeature(feature db.Feature) bool {
	supportedFeatures := db.FeatureLoad |
		db.FeatureSave |
		db.FeaturePersistent
	return supportedFeatures&feature == feature
}

func (f *fileImpl) GetInfo() db.DatabaseInfo {
	size := int(f.lastBytes.Load())
	if stat, err := os.Stat(f.path); err == nil {
		size = int(stat.Size())
	}

	meta := &struct {
		Codec string `json:"codec"`
		Loads uint64 `json:"loads"`
		Saves uint64 `json:"saves"`
	}{
		Codec: f.codec.Name(),
		Loads: f.loads.Load(),
		Saves: f.saves.Load(),
	}

	return db.DatabaseInfo{
		SizeBytes:         size,
		DbType:            db.ImplFile,
		Location:          f.path,
		SupportedFeatures: []db.Feature{db.FeatureLoad, db.FeatureSave, db.FeaturePersistent},
		Metadata:          meta,
	}
}

func (f *fileImpl) Location() string {
	return f.path
}

// Close is a no-op, the file is not held open between operations
func (f *fileImpl) Close() error {
	return nil
}
