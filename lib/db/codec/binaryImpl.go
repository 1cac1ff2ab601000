package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ValentinKolb/dPref/lib/db"
)

// NewBinaryCodec creates a new codec using a custom binary format
// optimized for speed and size
func NewBinaryCodec() ICodec {
	return &binaryCodecImpl{}
}

// binaryCodecImpl implements ICodec using a custom binary format
type binaryCodecImpl struct {
}

const (
	binaryMagic   = "DPREF\x00\x00\x00"
	binaryVersion = byte(1)
	headerSize    = len(binaryMagic) + 1 + 4
)

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.ICodec)
// --------------------------------------------------------------------------

func (b binaryCodecImpl) Name() string {
	return "binary"
}

func (b binaryCodecImpl) Encode(prefs db.Preferences) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, headerSize+prefs.Len()*16))

	// Write header
	buf.WriteString(binaryMagic)
	buf.WriteByte(binaryVersion)
	writeUint32(buf, uint32(prefs.Len()))

	// Write entries (Range iterates in name order, so the output is deterministic)
	var encErr error
	prefs.Range(func(name string, e db.Entry) bool {
		writeString(buf, name)
		if err := appendEntry(buf, e); err != nil {
			encErr = fmt.Errorf("preference %q: %w", name, err)
			return false
		}
		return true
	})
	if encErr != nil {
		return nil, encErr
	}

	return buf.Bytes(), nil
}

func (b binaryCodecImpl) Decode(data []byte) (db.Preferences, error) {
	if len(data) < headerSize {
		return db.Preferences{}, fmt.Errorf("data too short for header")
	}
	if string(data[:len(binaryMagic)]) != binaryMagic {
		return db.Preferences{}, fmt.Errorf("invalid magic header")
	}
	pos := len(binaryMagic)
	if data[pos] != binaryVersion {
		return db.Preferences{}, fmt.Errorf("unsupported version: %d (expected %d)", data[pos], binaryVersion)
	}
	pos++
	count := binary.BigEndian.Uint32(data[pos : pos+4])
	pos += 4

	m := db.NewMutablePreferences()
	for i := uint32(0); i < count; i++ {
		name, n, err := readString(data[pos:])
		if err != nil {
			return db.Preferences{}, fmt.Errorf("entry %d: name: %w", i, err)
		}
		pos += n

		e, n, err := readEntry(data[pos:])
		if err != nil {
			return db.Preferences{}, fmt.Errorf("preference %q: %w", name, err)
		}
		pos += n

		if err := collect(m, name, e); err != nil {
			return db.Preferences{}, err
		}
	}

	if pos != len(data) {
		return db.Preferences{}, fmt.Errorf("%d trailing bytes after last entry", len(data)-pos)
	}

	return m.Freeze(), nil
}

// --------------------------------------------------------------------------
// Single Entry Encoding
// --------------------------------------------------------------------------

// EncodeEntry encodes a single entry (kind byte followed by the value).
// Engines that store every preference separately use this layout.
func EncodeEntry(e db.Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := appendEntry(&buf, e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeEntry is the inverse of EncodeEntry. The whole input must be consumed.
func DecodeEntry(data []byte) (db.Entry, error) {
	e, n, err := readEntry(data)
	if err != nil {
		return db.Entry{}, err
	}
	if n != len(data) {
		return db.Entry{}, fmt.Errorf("%d trailing bytes after entry", len(data)-n)
	}
	return e, nil
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

func appendEntry(buf *bytes.Buffer, e db.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	buf.WriteByte(byte(e.Kind))

	switch v := e.Value.(type) {
	case int32:
		writeUint32(buf, uint32(v))
	case int64:
		writeUint64(buf, uint64(v))
	case float32:
		writeUint32(buf, math.Float32bits(v))
	case float64:
		writeUint64(buf, math.Float64bits(v))
	case bool:
		if v {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case string:
		writeString(buf, v)
	case db.StringSet:
		members := v.Sorted()
		writeUint32(buf, uint32(len(members)))
		for _, s := range members {
			writeString(buf, s)
		}
	}
	return nil
}

// readEntry decodes one entry and returns the number of bytes consumed
func readEntry(data []byte) (db.Entry, int, error) {
	if len(data) < 1 {
		return db.Entry{}, 0, fmt.Errorf("data too short for kind")
	}
	kind := db.Kind(data[0])
	pos := 1

	need := func(n int) error {
		if len(data) < pos+n {
			return fmt.Errorf("data too short for %s value", kind)
		}
		return nil
	}

	var value any
	switch kind {
	case db.KindInt32:
		if err := need(4); err != nil {
			return db.Entry{}, 0, err
		}
		value = int32(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
	case db.KindInt64:
		if err := need(8); err != nil {
			return db.Entry{}, 0, err
		}
		value = int64(binary.BigEndian.Uint64(data[pos : pos+8]))
		pos += 8
	case db.KindFloat32:
		if err := need(4); err != nil {
			return db.Entry{}, 0, err
		}
		value = math.Float32frombits(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
	case db.KindFloat64:
		if err := need(8); err != nil {
			return db.Entry{}, 0, err
		}
		value = math.Float64frombits(binary.BigEndian.Uint64(data[pos : pos+8]))
		pos += 8
	case db.KindBool:
		if err := need(1); err != nil {
			return db.Entry{}, 0, err
		}
		switch data[pos] {
		case 0:
			value = false
		case 1:
			value = true
		default:
			return db.Entry{}, 0, fmt.Errorf("invalid bool byte %d", data[pos])
		}
		pos++
	case db.KindString:
		s, n, err := readString(data[pos:])
		if err != nil {
			return db.Entry{}, 0, err
		}
		value = s
		pos += n
	case db.KindStringSet:
		if err := need(4); err != nil {
			return db.Entry{}, 0, err
		}
		count := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4
		set := make(db.StringSet)
		for i := uint32(0); i < count; i++ {
			s, n, err := readString(data[pos:])
			if err != nil {
				return db.Entry{}, 0, fmt.Errorf("set member %d: %w", i, err)
			}
			set.Add(s)
			pos += n
		}
		value = set
	default:
		return db.Entry{}, 0, fmt.Errorf("invalid kind %d", kind)
	}

	return db.Entry{Kind: kind, Value: value}, pos, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

// readString reads a length prefixed string and returns the number of bytes consumed
func readString(data []byte) (string, int, error) {
	if len(data) < 4 {
		return "", 0, fmt.Errorf("data too short for string length")
	}
	l := int(binary.BigEndian.Uint32(data[:4]))
	if len(data) < 4+l {
		return "", 0, fmt.Errorf("data too short for string")
	}
	return string(data[4 : 4+l]), 4 + l, nil
}
