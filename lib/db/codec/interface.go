package codec

import (
	"fmt"

	"github.com/ValentinKolb/dPref/lib/db"
)

// ICodec is the interface for all preference map encodings
type ICodec interface {
	// Name returns the short name of the codec (json, gob, binary).
	// It is used as file suffix by file based engines.
	Name() string
	// Encode serializes a preference snapshot into a byte array
	Encode(prefs db.Preferences) ([]byte, error)
	// Decode deserializes a byte array into a preference snapshot
	// Unknown kinds, duplicate names and truncated data are reported as errors
	Decode(b []byte) (db.Preferences, error)
}

// ByName returns the codec registered under name
func ByName(name string) (ICodec, error) {
	switch name {
	case "json":
		return NewJSONCodec(), nil
	case "gob":
		return NewGOBCodec(), nil
	case "binary":
		return NewBinaryCodec(), nil
	default:
		return nil, fmt.Errorf("invalid codec %s", name)
	}
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// collect adds a decoded entry to m and rejects duplicates and invalid entries
func collect(m *db.MutablePreferences, name string, e db.Entry) error {
	if _, exists := m.Get(name); exists {
		return fmt.Errorf("duplicate preference %q", name)
	}
	return m.Set(name, e)
}
