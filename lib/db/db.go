package db

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMemory Implementation = "memory"
	ImplFile   Implementation = "file"
	ImplBadger Implementation = "badger"
)

// Feature represents engine features as bit flags
type Feature uint64

const (
	FeatureLoad       Feature = 1 << iota // Support for Load operations
	FeatureSave                           // Support for Save operations
	FeaturePersistent                     // Saved state survives a process restart
)

func (f Feature) String() string {
	switch f {
	case FeatureLoad:
		return "Load"
	case FeatureSave:
		return "Save"
	case FeaturePersistent:
		return "Persistent"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	DbType            Implementation `json:"db_type"`
	Location          string         `json:"location"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// PrefDB defines the interface for preference database engines.
// An engine persists exactly one preference map. It is not responsible for
// serializing writers, that is done by the store on top of it, but every
// implementation must tolerate Load and GetInfo being called concurrently
// with Save.
type PrefDB interface {

	// --------------------------------------------------------------------------
	// Persistence Operations
	// --------------------------------------------------------------------------

	// Load reads the persisted preference map.
	// A location that does not exist yet yields an empty map and no error.
	// Corrupt or unreadable state must be reported as an error.
	Load() (prefs Preferences, err error)

	// Save replaces the persisted preference map with prefs.
	// Save must be atomic: after a failed Save the previously saved map is still intact.
	Save(prefs Preferences) (err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the engine supports the specified feature.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the engine.
	GetInfo() (info DatabaseInfo)

	// Location returns the identifier of the persisted state (a path for file
	// based engines). Two engines with the same location must not be opened at
	// the same time.
	Location() string

	// Close releases the engine's resources.
	Close() (err error)
}
