package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/ValentinKolb/dPref/lib/db"
)

const jsonVersion = 1

// NewJSONCodec creates a new codec using json encoding
func NewJSONCodec() ICodec {
	return &jsonCodecImpl{}
}

// jsonCodecImpl implements the ICodec interface using json encoding
type jsonCodecImpl struct {
}

type jsonDocument struct {
	Version int         `json:"version"`
	Entries []jsonEntry `json:"entries"`
}

// jsonEntry holds one preference. Strings (or set members) that are not valid
// UTF-8 are stored base64 encoded with Encoding set to encodingBase64.
// Non-finite floats are stored as the strings "NaN", "+Inf" and "-Inf".
type jsonEntry struct {
	Name     string          `json:"name"`
	Kind     string          `json:"kind"`
	Encoding string          `json:"encoding,omitempty"`
	Value    json.RawMessage `json:"value"`
}

const encodingBase64 = "base64"

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.ICodec)
// --------------------------------------------------------------------------

func (j jsonCodecImpl) Name() string {
	return "json"
}

func (j jsonCodecImpl) Encode(prefs db.Preferences) ([]byte, error) {
	doc := jsonDocument{
		Version: jsonVersion,
		Entries: make([]jsonEntry, 0, prefs.Len()),
	}

	var encErr error
	prefs.Range(func(name string, e db.Entry) bool {
		value, encoding := encodeJSONValue(e.Value)
		raw, err := json.Marshal(value)
		if err != nil {
			encErr = fmt.Errorf("preference %q: %w", name, err)
			return false
		}
		doc.Entries = append(doc.Entries, jsonEntry{Name: name, Kind: e.Kind.String(), Encoding: encoding, Value: raw})
		return true
	})
	if encErr != nil {
		return nil, encErr
	}

	return json.Marshal(doc)
}

func (j jsonCodecImpl) Decode(b []byte) (db.Preferences, error) {
	var doc jsonDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return db.Preferences{}, err
	}
	if doc.Version != jsonVersion {
		return db.Preferences{}, fmt.Errorf("unsupported version: %d (expected %d)", doc.Version, jsonVersion)
	}

	m := db.NewMutablePreferences()
	for _, je := range doc.Entries {
		kind, err := db.ParseKind(je.Kind)
		if err != nil {
			return db.Preferences{}, fmt.Errorf("preference %q: %w", je.Name, err)
		}
		value, err := decodeJSONValue(kind, je.Encoding, je.Value)
		if err != nil {
			return db.Preferences{}, fmt.Errorf("preference %q: %w", je.Name, err)
		}
		if err := collect(m, je.Name, db.Entry{Kind: kind, Value: value}); err != nil {
			return db.Preferences{}, err
		}
	}
	return m.Freeze(), nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// encodeJSONValue maps v to a value json can represent without loss
func encodeJSONValue(v any) (value any, encoding string) {
	switch v := v.(type) {
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return strconv.FormatFloat(float64(v), 'g', -1, 32), ""
		}
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return strconv.FormatFloat(v, 'g', -1, 64), ""
		}
	case string:
		if !utf8.ValidString(v) {
			return base64.StdEncoding.EncodeToString([]byte(v)), encodingBase64
		}
	case db.StringSet:
		members := v.Sorted()
		for _, m := range members {
			if utf8.ValidString(m) {
				continue
			}
			for i := range members {
				members[i] = base64.StdEncoding.EncodeToString([]byte(members[i]))
			}
			return members, encodingBase64
		}
		return members, ""
	}
	return v, ""
}

// decodeJSONValue decodes raw into the Go type of kind
func decodeJSONValue(kind db.Kind, encoding string, raw json.RawMessage) (any, error) {
	switch encoding {
	case "":
	case encodingBase64:
		if kind != db.KindString && kind != db.KindStringSet {
			return nil, fmt.Errorf("encoding %q is not supported for kind %s", encoding, kind)
		}
	default:
		return nil, fmt.Errorf("unknown encoding %q", encoding)
	}

	switch kind {
	case db.KindInt32:
		var v int32
		err := json.Unmarshal(raw, &v)
		return v, err
	case db.KindInt64:
		var v int64
		err := json.Unmarshal(raw, &v)
		return v, err
	case db.KindFloat32:
		v, err := decodeJSONFloat(raw, 32)
		return float32(v), err
	case db.KindFloat64:
		return decodeJSONFloat(raw, 64)
	case db.KindBool:
		var v bool
		err := json.Unmarshal(raw, &v)
		return v, err
	case db.KindString:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if encoding == encodingBase64 {
			return decodeBase64(v)
		}
		return v, nil
	case db.KindStringSet:
		var v []string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if encoding == encodingBase64 {
			for i := range v {
				member, err := decodeBase64(v[i])
				if err != nil {
					return nil, err
				}
				v[i] = member
			}
		}
		return db.NewStringSet(v...), nil
	default:
		return nil, fmt.Errorf("invalid kind %d", kind)
	}
}

// decodeJSONFloat accepts a json number or one of "NaN", "+Inf" and "-Inf"
func decodeJSONFloat(raw json.RawMessage, bitSize int) (float64, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		var v float64
		if bitSize == 32 {
			var v32 float32
			err := json.Unmarshal(raw, &v32)
			return float64(v32), err
		}
		err := json.Unmarshal(raw, &v)
		return v, err
	}
	v, err := strconv.ParseFloat(text, bitSize)
	if err != nil {
		return 0, err
	}
	if !math.IsNaN(v) && !math.IsInf(v, 0) {
		return 0, fmt.Errorf("finite float %q must be stored as a number", text)
	}
	return v, nil
}

func decodeBase64(s string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
