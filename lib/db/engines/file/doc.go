// Package file implements a db.PrefDB that persists one preference map per file.
//
// The file is located at <data-dir>/datastore/<name>.preferences_<codec> (see
// PathFor) and is written with one of the codecs of the codec package.
//
// Every Save encodes the complete map, writes it to a temporary file next to
// the target and renames it over the previous version. Readers therefore see
// either the old or the new map, never a partially written one, and a failed
// Save leaves the previous file untouched.
//
// A missing file is treated as an empty map. A file that cannot be decoded is
// reported as an error and is never overwritten by Load.
package file
