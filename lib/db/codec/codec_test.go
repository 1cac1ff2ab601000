package codec

import (
	"math"
	"strings"
	"testing"

	"github.com/ValentinKolb/dPref/lib/db"
)

// testCodecs is a map of codec name to factory function
var testCodecs = map[string]func() ICodec{
	"JSON":   NewJSONCodec,
	"GOB":    NewGOBCodec,
	"Binary": NewBinaryCodec,
}

// testMaps creates preference maps covering every kind and some edge values
func testMaps(t *testing.T) []db.Preferences {
	t.Helper()

	build := func(fn func(m *db.MutablePreferences) error) db.Preferences {
		m := db.NewMutablePreferences()
		if err := fn(m); err != nil {
			t.Fatalf("Failed to build test map: %v", err)
		}
		return m.Freeze()
	}

	return []db.Preferences{
		// Empty map
		db.EmptyPreferences(),

		// One entry per kind
		build(func(m *db.MutablePreferences) error {
			var err error
			must := func(e error) {
				if err == nil {
					err = e
				}
			}
			must(db.Put(m, "int32", int32(-42)))
			must(db.Put(m, "int64", int64(1)<<40))
			must(db.Put(m, "float32", float32(3.25)))
			must(db.Put(m, "float64", 2.718281828))
			must(db.Put(m, "bool", true))
			must(db.Put(m, "string", "hello wörld"))
			must(db.Put(m, "set", db.NewStringSet("b", "a", "c")))
			return err
		}),

		// Edge values
		build(func(m *db.MutablePreferences) error {
			var err error
			must := func(e error) {
				if err == nil {
					err = e
				}
			}
			must(db.Put(m, "max", int64(math.MaxInt64)))
			must(db.Put(m, "min", int32(math.MinInt32)))
			must(db.Put(m, "empty-string", ""))
			must(db.Put(m, "empty-set", db.NewStringSet()))
			must(db.Put(m, "false", false))
			must(db.Put(m, "zero", float64(0)))
			must(db.Put(m, "negative-zero", math.Copysign(0, -1)))
			must(db.Put(m, "negative-zero32", float32(math.Copysign(0, -1))))
			return err
		}),

		// Non-finite floats and strings that are not valid UTF-8
		build(func(m *db.MutablePreferences) error {
			var err error
			must := func(e error) {
				if err == nil {
					err = e
				}
			}
			must(db.Put(m, "nan", math.NaN()))
			must(db.Put(m, "inf", math.Inf(1)))
			must(db.Put(m, "-inf", math.Inf(-1)))
			must(db.Put(m, "nan32", float32(math.NaN())))
			must(db.Put(m, "inf32", float32(math.Inf(1))))
			must(db.Put(m, "-inf32", float32(math.Inf(-1))))
			must(db.Put(m, "bytes", "\xff\xfe"))
			must(db.Put(m, "mixed", "ok\x80"))
			must(db.Put(m, "set", db.NewStringSet("ok", "\xff", "")))
			return err
		}),
	}
}

// TestCodecRoundTrip tests that maps can be encoded and decoded without loss
func TestCodecRoundTrip(t *testing.T) {
	maps := testMaps(t)

	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			c := factory()

			for i, original := range maps {
				data, err := c.Encode(original)
				if err != nil {
					t.Fatalf("Map %d: Failed to encode: %v", i, err)
				}

				decoded, err := c.Decode(data)
				if err != nil {
					t.Fatalf("Map %d: Failed to decode: %v", i, err)
				}

				if !original.Equal(decoded) {
					t.Errorf("Map %d: Round trip failed.\nOriginal: %v\nDecoded:  %v", i, original, decoded)
				}
			}
		})
	}
}

// TestCodecPreservesKinds checks that kinds with the same JSON representation stay distinct
func TestCodecPreservesKinds(t *testing.T) {
	m := db.NewMutablePreferences()
	_ = db.Put(m, "a", int32(1))
	_ = db.Put(m, "b", int64(1))
	_ = db.Put(m, "c", float32(1))
	_ = db.Put(m, "d", float64(1))
	original := m.Freeze()

	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			c := factory()
			data, err := c.Encode(original)
			if err != nil {
				t.Fatalf("Failed to encode: %v", err)
			}
			decoded, err := c.Decode(data)
			if err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}
			for _, key := range []string{"a", "b", "c", "d"} {
				want, _ := original.Get(key)
				got, ok := decoded.Get(key)
				if !ok || got.Kind != want.Kind {
					t.Errorf("Key %s: expected kind %s, got %s (present=%v)", key, want.Kind, got.Kind, ok)
				}
			}
		})
	}
}

// TestCodecByName tests codec lookup
func TestCodecByName(t *testing.T) {
	for _, name := range []string{"json", "gob", "binary"} {
		c, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q) failed: %v", name, err)
		}
		if c.Name() != name {
			t.Errorf("Expected codec name %q, got %q", name, c.Name())
		}
	}

	if _, err := ByName("xml"); err == nil {
		t.Errorf("Expected error for unknown codec")
	}
}

// TestBinaryInvalidData tests that the binary codec rejects corrupt input
func TestBinaryInvalidData(t *testing.T) {
	c := NewBinaryCodec()

	valid, err := c.Encode(testMaps(t)[1])
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}

	badVersion := append([]byte(nil), valid...)
	badVersion[len(binaryMagic)] = 99

	badKind := []byte(binaryMagic)
	badKind = append(badKind, binaryVersion, 0, 0, 0, 1, 0, 0, 0, 1, 'x', 42)

	duplicate := []byte(binaryMagic)
	duplicate = append(duplicate, binaryVersion, 0, 0, 0, 2)
	for i := 0; i < 2; i++ {
		duplicate = append(duplicate, 0, 0, 0, 1, 'x', byte(db.KindBool), 1)
	}

	testCases := []struct {
		name string
		data []byte
	}{
		{"Empty data", []byte{}},
		{"Too short header", []byte("DPREF")},
		{"Wrong magic", append([]byte("XPREF\x00\x00\x00"), valid[len(binaryMagic):]...)},
		{"Wrong version", badVersion},
		{"Truncated", valid[:len(valid)-3]},
		{"Trailing bytes", append(append([]byte(nil), valid...), 0)},
		{"Invalid kind", badKind},
		{"Duplicate name", duplicate},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.Decode(tc.data); err == nil {
				t.Errorf("Expected error for invalid data, got nil")
			}
		})
	}
}

// TestJSONInvalidData tests that the json codec rejects unknown kinds and versions
func TestJSONInvalidData(t *testing.T) {
	c := NewJSONCodec()

	testCases := []struct {
		name string
		data string
	}{
		{"Not JSON", `{`},
		{"Wrong version", `{"version":7,"entries":[]}`},
		{"Unknown kind", `{"version":1,"entries":[{"name":"a","kind":"complex","value":1}]}`},
		{"Wrong value type", `{"version":1,"entries":[{"name":"a","kind":"bool","value":"yes"}]}`},
		{"Duplicate name", `{"version":1,"entries":[{"name":"a","kind":"bool","value":true},{"name":"a","kind":"bool","value":false}]}`},
		{"Empty name", `{"version":1,"entries":[{"name":"","kind":"bool","value":true}]}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.Decode([]byte(tc.data)); err == nil {
				t.Errorf("Expected error for invalid data, got nil")
			}
		})
	}
}

// TestJSONEncoding tests the representation of values json cannot hold natively
func TestJSONEncoding(t *testing.T) {
	c := NewJSONCodec()

	build := func(name string, v any) db.Preferences {
		m := db.NewMutablePreferences()
		if err := m.Set(name, db.Entry{Kind: kindOf(v), Value: v}); err != nil {
			t.Fatalf("Failed to build test map: %v", err)
		}
		return m.Freeze()
	}

	testCases := []struct {
		name     string
		value    any
		contains string
		encoded  bool
	}{
		{"Plain string", "héllo", `"value":"héllo"`, false},
		{"Invalid UTF-8", "\xff", `"encoding":"base64","value":"/w=="`, true},
		{"Set with invalid member", db.NewStringSet("\xff"), `"encoding":"base64","value":["/w=="]`, true},
		{"NaN", math.NaN(), `"value":"NaN"`, false},
		{"Positive infinity", math.Inf(1), `"value":"+Inf"`, false},
		{"Negative infinity", float32(math.Inf(-1)), `"value":"-Inf"`, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			original := build("a", tc.value)
			data, err := c.Encode(original)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			text := string(data)
			if !strings.Contains(text, tc.contains) {
				t.Errorf("Expected %s in %s", tc.contains, text)
			}
			if !tc.encoded && strings.Contains(text, `"encoding"`) {
				t.Errorf("Expected no encoding field in %s", text)
			}

			decoded, err := c.Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !original.Equal(decoded) {
				t.Errorf("Round trip failed: %v != %v", original, decoded)
			}
		})
	}

	invalid := []string{
		`{"version":1,"entries":[{"name":"a","kind":"string","encoding":"hex","value":"ff"}]}`,
		`{"version":1,"entries":[{"name":"a","kind":"string","encoding":"base64","value":"%%"}]}`,
		`{"version":1,"entries":[{"name":"a","kind":"int32","encoding":"base64","value":1}]}`,
		`{"version":1,"entries":[{"name":"a","kind":"float64","value":"1.5"}]}`,
		`{"version":1,"entries":[{"name":"a","kind":"float64","value":"many"}]}`,
	}
	for _, data := range invalid {
		if _, err := c.Decode([]byte(data)); err == nil {
			t.Errorf("Expected error decoding %s", data)
		}
	}
}

func kindOf(v any) db.Kind {
	switch v.(type) {
	case float32:
		return db.KindFloat32
	case float64:
		return db.KindFloat64
	case db.StringSet:
		return db.KindStringSet
	default:
		return db.KindString
	}
}

// TestEntryRoundTrip tests the single entry layout used by key-per-preference engines
func TestEntryRoundTrip(t *testing.T) {
	entries := []db.Entry{
		db.NewEntry(int32(7)),
		db.NewEntry(int64(-7)),
		db.NewEntry(float32(0.5)),
		db.NewEntry(1e100),
		db.NewEntry(false),
		db.NewEntry("value"),
		db.NewEntry(db.NewStringSet("x", "y")),
	}

	for _, e := range entries {
		data, err := EncodeEntry(e)
		if err != nil {
			t.Fatalf("Failed to encode %v: %v", e, err)
		}
		decoded, err := DecodeEntry(data)
		if err != nil {
			t.Fatalf("Failed to decode %v: %v", e, err)
		}
		if !e.Equal(decoded) {
			t.Errorf("Entry round trip failed: %v != %v", e, decoded)
		}
	}

	if _, err := EncodeEntry(db.Entry{Kind: db.KindBool, Value: "no"}); err == nil {
		t.Errorf("Expected error for entry with mismatching value")
	}
	if _, err := DecodeEntry([]byte{byte(db.KindInt64), 1, 2}); err == nil {
		t.Errorf("Expected error for truncated entry")
	}
}
