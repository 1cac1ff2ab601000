package prefs

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/dPref/lib/db"
)

// Key identifies one entry of a preference map. The kind is part of the type.
type Key[V db.Value] struct {
	Name string
}

// NewKey creates a key after validating the name.
func NewKey[V db.Value](name string) (Key[V], error) {
	if name == "" {
		return Key[V]{}, fmt.Errorf("%w: empty preference name", ErrInvalidKey)
	}
	return Key[V]{Name: name}, nil
}

// Kind returns the kind of the values stored under this key.
func (k Key[V]) Kind() db.Kind {
	return db.KindOf[V]()
}

func (k Key[V]) String() string {
	return k.Name + ":" + k.Kind().String()
}

// validateStoreName checks that name can be used as a single path element
func validateStoreName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty store name", ErrInvalidKey)
	case name == "." || name == "..":
		return fmt.Errorf("%w: store name %q", ErrInvalidKey, name)
	case strings.ContainsAny(name, `/\`+"\x00"):
		return fmt.Errorf("%w: store name %q contains a path separator", ErrInvalidKey, name)
	}
	return nil
}
