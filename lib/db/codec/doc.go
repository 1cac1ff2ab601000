// Package codec provides encodings for complete preference maps.
//
// Three codecs are available, all implementing ICodec:
//
//   - json: human readable, versioned document with one record per entry
//   - gob: Go's native binary encoding
//   - binary: compact custom format with a magic header
//
// Binary Layout:
//
//	magic   "DPREF\x00\x00\x00"   (8 bytes)
//	version 1                     (1 byte)
//	count   number of entries     (uint32, big endian)
//	entries count times:
//	    name  uint32 length + bytes
//	    kind  1 byte (db.Kind)
//	    value int32/float32: 4 bytes, int64/float64: 8 bytes,
//	          bool: 1 byte, string: uint32 length + bytes,
//	          string_set: uint32 count + sorted strings
//
// EncodeEntry and DecodeEntry expose the per entry layout (kind + value) for
// engines that persist every preference under its own key.
//
// Every codec rejects unknown kinds, duplicate names and truncated input, so a
// corrupt file is reported instead of being silently replaced.
package codec
