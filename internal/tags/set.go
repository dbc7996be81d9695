package tags

import "slices"

// Set is an insertion-ordered set of normalized tags.
type Set struct {
	items []string
}

// NewSet builds a set from raw tags, normalizing and deduplicating them.
func NewSet(raw ...string) *Set {
	s := &Set{}
	for _, tag := range raw {
		s.Add(tag)
	}
	return s
}

// Add normalizes raw and inserts it. It returns the canonical tag and whether
// the set changed. Blank input is ignored.
func (s *Set) Add(raw string) (string, bool) {
	tag := Normalize(raw)
	if tag == "" || s.Contains(tag) {
		return tag, false
	}
	s.items = append(s.items, tag)
	return tag, true
}

// Remove deletes the tag matching raw after normalization.
func (s *Set) Remove(raw string) bool {
	tag := Normalize(raw)
	idx := slices.Index(s.items, tag)
	if idx < 0 {
		return false
	}
	s.items = slices.Delete(s.items, idx, idx+1)
	return true
}

// Contains reports whether the canonical tag is present.
func (s *Set) Contains(tag string) bool {
	return slices.Contains(s.items, tag)
}

// Values returns a copy of the tags in insertion order.
func (s *Set) Values() []string {
	return slices.Clone(s.items)
}

// Len returns the number of tags.
func (s *Set) Len() int { return len(s.items) }
