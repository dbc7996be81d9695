package tags

import "slices"

// Manager owns a work's tags and its suggestion panel.
type Manager struct {
	set         *Set
	suggestions []string
	open        bool
}

// NewManager seeds the manager with existing tags.
func NewManager(initial ...string) *Manager {
	return &Manager{set: NewSet(initial...)}
}

// Add inserts a user-typed tag.
func (m *Manager) Add(raw string) (string, bool) {
	return m.set.Add(raw)
}

// Remove deletes a tag.
func (m *Manager) Remove(raw string) bool {
	return m.set.Remove(raw)
}

// Tags returns the current tags.
func (m *Manager) Tags() []string {
	return m.set.Values()
}

// Len returns the number of tags.
func (m *Manager) Len() int { return m.set.Len() }

// OpenSuggestions fills the panel with normalized suggestions, skipping ones
// already present as tags. The panel opens only when something remains;
// the return value is the number shown.
func (m *Manager) OpenSuggestions(raw []string) int {
	m.suggestions = m.suggestions[:0]
	for _, item := range raw {
		tag := Normalize(item)
		if tag == "" || m.set.Contains(tag) || slices.Contains(m.suggestions, tag) {
			continue
		}
		m.suggestions = append(m.suggestions, tag)
	}
	m.open = len(m.suggestions) > 0
	return len(m.suggestions)
}

// AcceptSuggestion moves a suggestion into the tag set. The panel closes
// when it runs out of suggestions.
func (m *Manager) AcceptSuggestion(raw string) (string, bool) {
	tag := Normalize(raw)
	idx := slices.Index(m.suggestions, tag)
	if idx < 0 {
		return tag, false
	}
	m.suggestions = slices.Delete(m.suggestions, idx, idx+1)
	m.set.Add(tag)
	if len(m.suggestions) == 0 {
		m.open = false
	}
	return tag, true
}

// DismissSuggestions closes the panel and drops what was in it.
func (m *Manager) DismissSuggestions() {
	m.suggestions = nil
	m.open = false
}

// SuggestionsOpen reports whether the panel is showing.
func (m *Manager) SuggestionsOpen() bool { return m.open }

// Suggestions returns the pending suggestions.
func (m *Manager) Suggestions() []string {
	return slices.Clone(m.suggestions)
}
