package form

import (
	"fmt"
)

// Store holds the current values of one form instance. It is not safe for
// concurrent use; callers that share a store must serialize access.
type Store struct {
	def    *Definition
	values Snapshot
}

// NewStore creates an empty store with every declared field set to nil.
func NewStore(kind Kind) (*Store, error) {
	def, ok := Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	values := make(Snapshot, len(def.Fields))
	for _, f := range def.Fields {
		values[f] = nil
	}
	return &Store{def: def, values: values}, nil
}

// Definition returns the form definition backing the store.
func (s *Store) Definition() *Definition {
	return s.def
}

// Set replaces the value of a declared field. A nil value clears it.
// Undeclared names are rejected and leave the store untouched.
func (s *Store) Set(name string, value *string) error {
	if !s.def.Has(name) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if value == nil {
		s.values[name] = nil
		return nil
	}
	v := *value
	s.values[name] = &v
	return nil
}

// Clear resets a declared field to nil.
func (s *Store) Clear(name string) error {
	return s.Set(name, nil)
}

// Snapshot returns a copy of the current values.
func (s *Store) Snapshot() Snapshot {
	return s.values.Clone()
}
