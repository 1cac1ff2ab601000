// Package pref contains the commands operating on a single preference store.
//
// Values are read and written with their kind:
//
//	dpref set ui theme string dark
//	dpref set ui tags string_set a,b,c
//	dpref get ui theme
//	dpref watch ui theme
package pref
