package form

// Snapshot maps each declared field to its value. A nil value means the
// field has not been entered yet.
type Snapshot map[string]*string

// Clone returns a deep copy; the copy shares no pointers with s.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		if v == nil {
			out[k] = nil
			continue
		}
		val := *v
		out[k] = &val
	}
	return out
}

// Value returns the field value, or "" when the field is unset.
func (s Snapshot) Value(name string) string {
	if v := s[name]; v != nil {
		return *v
	}
	return ""
}

// Filled reports whether every named field holds a non-empty value.
func (s Snapshot) Filled(names ...string) bool {
	for _, name := range names {
		if s.Value(name) == "" {
			return false
		}
	}
	return true
}

// String is a helper for building snapshots by hand.
func String(v string) *string {
	return &v
}
