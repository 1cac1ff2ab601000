package db

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrTypeMismatch is returned when a preference name is accessed with a
// different kind than the one it is bound to.
var ErrTypeMismatch = errors.New("type mismatch")

// --------------------------------------------------------------------------
// Kinds
// --------------------------------------------------------------------------

// Kind is the type tag of a stored preference value.
type Kind uint8

const (
	KindInvalid   Kind = iota // 0: not a valid kind
	KindInt32                 // 1: int32
	KindInt64                 // 2: int64
	KindFloat32               // 3: float32
	KindFloat64               // 4: float64
	KindBool                  // 5: bool
	KindString                // 6: string
	KindStringSet             // 7: StringSet
)

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindStringSet:
		return "string_set"
	default:
		return "invalid"
	}
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k >= KindInt32 && k <= KindStringSet
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k := KindInt32; k <= KindStringSet; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown kind %q", s)
}

// Value is the set of Go types a preference can hold.
type Value interface {
	int32 | int64 | float32 | float64 | bool | string | StringSet
}

// KindOf returns the kind that corresponds to the Go type V.
func KindOf[V Value]() Kind {
	var zero V
	switch any(zero).(type) {
	case int32:
		return KindInt32
	case int64:
		return KindInt64
	case float32:
		return KindFloat32
	case float64:
		return KindFloat64
	case bool:
		return KindBool
	case string:
		return KindString
	case StringSet:
		return KindStringSet
	default:
		return KindInvalid
	}
}

// --------------------------------------------------------------------------
// StringSet
// --------------------------------------------------------------------------

// StringSet is an unordered set of strings.
type StringSet map[string]struct{}

// NewStringSet creates a set holding the given values.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s StringSet) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

func (s StringSet) Add(v string) {
	s[v] = struct{}{}
}

// Sorted returns the members in lexical order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy. The clone of a nil set is an empty set.
func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

func (s StringSet) Equal(other StringSet) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if _, ok := other[v]; !ok {
			return false
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Entry
// --------------------------------------------------------------------------

// Entry is one stored preference value together with its kind.
// Value always holds the Go type that matches Kind.
type Entry struct {
	Kind  Kind
	Value any
}

// NewEntry wraps v into an entry of the matching kind.
func NewEntry[V Value](v V) Entry {
	return Entry{Kind: KindOf[V](), Value: cloneValue(any(v))}
}

// Validate checks that the value matches the kind.
func (e Entry) Validate() error {
	ok := false
	switch e.Kind {
	case KindInt32:
		_, ok = e.Value.(int32)
	case KindInt64:
		_, ok = e.Value.(int64)
	case KindFloat32:
		_, ok = e.Value.(float32)
	case KindFloat64:
		_, ok = e.Value.(float64)
	case KindBool:
		_, ok = e.Value.(bool)
	case KindString:
		_, ok = e.Value.(string)
	case KindStringSet:
		_, ok = e.Value.(StringSet)
	default:
		return fmt.Errorf("invalid kind %d", e.Kind)
	}
	if !ok {
		return fmt.Errorf("value of type %T does not match kind %s", e.Value, e.Kind)
	}
	return nil
}

// Equal compares kind and value. Floats are compared by their bits, so NaN
// equals NaN and 0 differs from -0.
func (e Entry) Equal(other Entry) bool {
	if e.Kind != other.Kind {
		return false
	}
	switch e.Kind {
	case KindStringSet:
		a, _ := e.Value.(StringSet)
		b, _ := other.Value.(StringSet)
		return a.Equal(b)
	case KindFloat32:
		a, _ := e.Value.(float32)
		b, _ := other.Value.(float32)
		return math.Float32bits(a) == math.Float32bits(b) || (math.IsNaN(float64(a)) && math.IsNaN(float64(b)))
	case KindFloat64:
		a, _ := e.Value.(float64)
		b, _ := other.Value.(float64)
		return math.Float64bits(a) == math.Float64bits(b) || (math.IsNaN(float64(a)) && math.IsNaN(float64(b)))
	}
	return e.Value == other.Value
}

func (e Entry) String() string {
	if set, ok := e.Value.(StringSet); ok {
		return fmt.Sprintf("%s%v", e.Kind, set.Sorted())
	}
	return fmt.Sprintf("%s(%v)", e.Kind, e.Value)
}

func (e Entry) clone() Entry {
	return Entry{Kind: e.Kind, Value: cloneValue(e.Value)}
}

// cloneValue copies the only mutable value type, sets are the exception to the
// otherwise value-typed preferences.
func cloneValue(v any) any {
	if set, ok := v.(StringSet); ok {
		return set.Clone()
	}
	return v
}

// --------------------------------------------------------------------------
// Preferences (immutable snapshot)
// --------------------------------------------------------------------------

// Preferences is an immutable snapshot of one preference map.
// The zero value is an empty map.
type Preferences struct {
	entries  map[string]Entry
	revision uint64
}

// EmptyPreferences returns a snapshot without entries.
func EmptyPreferences() Preferences {
	return Preferences{}
}

// Get returns a copy of the entry stored under name.
func (p Preferences) Get(name string) (Entry, bool) {
	e, ok := p.entries[name]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Revision is the commit number a store assigned to the snapshot. Later commits
// of the same store have higher revisions. Snapshots that were not produced by
// a store have revision 0.
func (p Preferences) Revision() uint64 {
	return p.revision
}

// WithRevision returns the snapshot stamped with rev.
func (p Preferences) WithRevision(rev uint64) Preferences {
	return Preferences{entries: p.entries, revision: rev}
}

func (p Preferences) Has(name string) bool {
	_, ok := p.entries[name]
	return ok
}

func (p Preferences) Len() int {
	return len(p.entries)
}

// Names returns all names in lexical order.
func (p Preferences) Names() []string {
	names := make([]string, 0, len(p.entries))
	for name := range p.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Range calls fn for every entry in name order until fn returns false.
func (p Preferences) Range(fn func(name string, e Entry) bool) {
	for _, name := range p.Names() {
		if !fn(name, p.entries[name].clone()) {
			return
		}
	}
}

// Equal reports whether both snapshots hold the same entries. The revision is
// not compared.
func (p Preferences) Equal(other Preferences) bool {
	if len(p.entries) != len(other.entries) {
		return false
	}
	for name, e := range p.entries {
		o, ok := other.entries[name]
		if !ok || !e.Equal(o) {
			return false
		}
	}
	return true
}

// AsMap returns a detached name -> value map.
func (p Preferences) AsMap() map[string]any {
	out := make(map[string]any, len(p.entries))
	for name, e := range p.entries {
		out[name] = cloneValue(e.Value)
	}
	return out
}

// Mutable returns an editable copy of the snapshot.
func (p Preferences) Mutable() *MutablePreferences {
	entries := make(map[string]Entry, len(p.entries))
	for name, e := range p.entries {
		entries[name] = e.clone()
	}
	return &MutablePreferences{entries: entries}
}

func (p Preferences) String() string {
	s := "{"
	for i, name := range p.Names() {
		if i > 0 {
			s += ", "
		}
		s += name + "=" + p.entries[name].String()
	}
	return s + "}"
}

// --------------------------------------------------------------------------
// MutablePreferences (edit view)
// --------------------------------------------------------------------------

// MutablePreferences is the editable view handed to a store edit.
// It is not safe for concurrent use.
type MutablePreferences struct {
	entries map[string]Entry
}

// NewMutablePreferences creates an empty editable map.
func NewMutablePreferences() *MutablePreferences {
	return &MutablePreferences{entries: make(map[string]Entry)}
}

func (m *MutablePreferences) Get(name string) (Entry, bool) {
	e, ok := m.entries[name]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Set stores e under name. The entry is validated first.
func (m *MutablePreferences) Set(name string, e Entry) error {
	if name == "" {
		return fmt.Errorf("empty preference name")
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("preference %q: %w", name, err)
	}
	m.entries[name] = e.clone()
	return nil
}

func (m *MutablePreferences) Remove(name string) {
	delete(m.entries, name)
}

func (m *MutablePreferences) Clear() {
	m.entries = make(map[string]Entry)
}

func (m *MutablePreferences) Len() int {
	return len(m.entries)
}

// Freeze returns an immutable snapshot of the current state.
// The mutable map can still be used afterwards without affecting the snapshot.
func (m *MutablePreferences) Freeze() Preferences {
	entries := make(map[string]Entry, len(m.entries))
	for name, e := range m.entries {
		entries[name] = e.clone()
	}
	return Preferences{entries: entries}
}

// --------------------------------------------------------------------------
// Typed helpers
// --------------------------------------------------------------------------

// Put stores v under name in m.
func Put[V Value](m *MutablePreferences, name string, v V) error {
	return m.Set(name, NewEntry(v))
}

// Lookup reads the value stored under name as V.
// A stored entry of another kind results in ErrTypeMismatch.
func Lookup[V Value](p Preferences, name string) (V, bool, error) {
	var zero V
	e, ok := p.entries[name]
	if !ok {
		return zero, false, nil
	}
	return decodeEntry[V](name, e)
}

// LookupMutable is Lookup for an edit view.
func LookupMutable[V Value](m *MutablePreferences, name string) (V, bool, error) {
	var zero V
	e, ok := m.entries[name]
	if !ok {
		return zero, false, nil
	}
	return decodeEntry[V](name, e)
}

func decodeEntry[V Value](name string, e Entry) (V, bool, error) {
	var zero V
	if want := KindOf[V](); e.Kind != want {
		return zero, false, fmt.Errorf("%w: %q is stored as %s, accessed as %s", ErrTypeMismatch, name, e.Kind, want)
	}
	v, ok := cloneValue(e.Value).(V)
	if !ok {
		return zero, false, fmt.Errorf("%w: %q holds %T", ErrTypeMismatch, name, e.Value)
	}
	return v, true, nil
}
