package codec

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/ValentinKolb/dPref/lib/db"
)

// NewGOBCodec creates a new codec using Go's binary gob format
func NewGOBCodec() ICodec {
	return &gobCodecImpl{}
}

// gobCodecImpl implements the ICodec interface using gob encoding
type gobCodecImpl struct {
}

// gobEntry is a flat record, only the field that matches Kind is used
type gobEntry struct {
	Name  string
	Kind  uint8
	Int   int64
	Float float64
	Bool  bool
	Str   string
	Set   []string
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.ICodec)
// --------------------------------------------------------------------------

func (g gobCodecImpl) Name() string {
	return "gob"
}

func (g gobCodecImpl) Encode(prefs db.Preferences) ([]byte, error) {
	entries := make([]gobEntry, 0, prefs.Len())
	prefs.Range(func(name string, e db.Entry) bool {
		ge := gobEntry{Name: name, Kind: uint8(e.Kind)}
		switch v := e.Value.(type) {
		case int32:
			ge.Int = int64(v)
		case int64:
			ge.Int = v
		case float32:
			ge.Float = float64(v)
		case float64:
			ge.Float = v
		case bool:
			ge.Bool = v
		case string:
			ge.Str = v
		case db.StringSet:
			ge.Set = v.Sorted()
		}
		entries = append(entries, ge)
		return true
	})

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobCodecImpl) Decode(b []byte) (db.Preferences, error) {
	var entries []gobEntry
	buf := bytes.NewBuffer(b)
	dec := gob.NewDecoder(buf)
	if err := dec.Decode(&entries); err != nil {
		return db.Preferences{}, err
	}

	m := db.NewMutablePreferences()
	for _, ge := range entries {
		kind := db.Kind(ge.Kind)
		var value any
		switch kind {
		case db.KindInt32:
			value = int32(ge.Int)
		case db.KindInt64:
			value = ge.Int
		case db.KindFloat32:
			value = float32(ge.Float)
		case db.KindFloat64:
			value = ge.Float
		case db.KindBool:
			value = ge.Bool
		case db.KindString:
			value = ge.Str
		case db.KindStringSet:
			value = db.NewStringSet(ge.Set...)
		default:
			return db.Preferences{}, fmt.Errorf("preference %q: invalid kind %d", ge.Name, ge.Kind)
		}
		if err := collect(m, ge.Name, db.Entry{Kind: kind, Value: value}); err != nil {
			return db.Preferences{}, err
		}
	}
	return m.Freeze(), nil
}
