// Package badger implements a db.PrefDB on top of a badger key-value database.
//
// Unlike the file engine, every preference is stored under its own badger key
// (keyPrefix + name) with the single entry layout of codec.EncodeEntry. A Save
// reads the persisted entries and writes only the changed and removed ones, all
// inside one badger transaction, so the persisted map is replaced atomically.
//
// The database directory is <data-dir>/datastore/<name>.badger (see PathFor).
// Badger holds a directory lock while open, so a second process opening the
// same store fails on open instead of corrupting it.
package badger
