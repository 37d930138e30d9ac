package policy

import (
	"encoding/json"
	"sort"
)

// Permission names a single fine-grained capability, e.g. "loans.approve".
type Permission string

// PermissionSet is the set of permissions granted to a principal.
// A nil set is valid and grants nothing.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given permission names.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		if p == "" {
			continue
		}
		set[p] = struct{}{}
	}
	return set
}

// Has reports membership. Safe on a nil set.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Names returns the member permissions sorted lexicographically.
func (s PermissionSet) Names() []Permission {
	if len(s) == 0 {
		return nil
	}
	names := make([]Permission, 0, len(s))
	for p := range s {
		names = append(names, p)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// MarshalJSON encodes the set as a sorted JSON array of strings so that
// persisted principals are byte-stable across saves.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON decodes a JSON array of permission names.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var names []Permission
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = NewPermissionSet(names...)
	return nil
}
