package catalog

import "slices"

// DefaultMaxCategories caps how many categories a work carries.
const DefaultMaxCategories = 2

// Selection is a capped, ordered set of categories.
type Selection struct {
	max   int
	items []Entry
}

// NewSelection builds a selection capped at limit. Initial entries beyond
// the cap, and duplicates, are dropped.
func NewSelection(limit int, initial ...Entry) *Selection {
	if limit <= 0 {
		limit = DefaultMaxCategories
	}
	s := &Selection{max: limit}
	for _, e := range initial {
		s.Select(e)
	}
	return s
}

// Select adds e. Selecting an entry already present, or selecting while at
// the cap, leaves the selection unchanged and returns false.
func (s *Selection) Select(e Entry) bool {
	if s.Contains(e.ID) || !s.CanAdd() {
		return false
	}
	s.items = append(s.items, e)
	return true
}

// Unselect removes the entry with id. Unknown IDs are a no-op.
func (s *Selection) Unselect(id int) bool {
	idx := slices.IndexFunc(s.items, func(e Entry) bool { return e.ID == id })
	if idx < 0 {
		return false
	}
	s.items = slices.Delete(s.items, idx, idx+1)
	return true
}

// CanAdd reports whether another category fits.
func (s *Selection) CanAdd() bool { return len(s.items) < s.max }

// Contains reports whether id is selected.
func (s *Selection) Contains(id int) bool {
	return slices.ContainsFunc(s.items, func(e Entry) bool { return e.ID == id })
}

// Entries returns the selected entries in selection order.
func (s *Selection) Entries() []Entry { return slices.Clone(s.items) }

// IDs returns the selected IDs in selection order.
func (s *Selection) IDs() []int {
	ids := make([]int, 0, len(s.items))
	for _, e := range s.items {
		ids = append(ids, e.ID)
	}
	return ids
}

// Len returns the number of selected categories.
func (s *Selection) Len() int { return len(s.items) }

// Max returns the cap.
func (s *Selection) Max() int { return s.max }

// Clear removes every selection.
func (s *Selection) Clear() { s.items = nil }
