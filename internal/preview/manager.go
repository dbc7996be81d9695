package preview

import (
	"sync"

	"quill/internal/media"
)

// Manager tracks the current preview for each image slot.
type Manager struct {
	mu     sync.Mutex
	alloc  Allocator
	slots  map[media.AssetKind]Handle
	closed bool
}

// NewManager binds a manager to an allocator.
func NewManager(alloc Allocator) *Manager {
	return &Manager{alloc: alloc, slots: make(map[media.AssetKind]Handle)}
}

// SetPreview releases the slot's current handle, if any, then allocates one
// for file. On allocation failure the slot is left empty.
func (m *Manager) SetPreview(kind media.AssetKind, file media.File) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releaseLocked(kind)
	if m.closed {
		return Handle{}, ErrClosed
	}
	handle, err := m.alloc.Allocate(file)
	if err != nil {
		return Handle{}, err
	}
	m.slots[kind] = handle
	return handle, nil
}

// ClearPreview releases the slot's handle.
func (m *Manager) ClearPreview(kind media.AssetKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked(kind)
}

// Current returns the slot's live handle.
func (m *Manager) Current(kind media.AssetKind) (Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.slots[kind]
	return h, ok
}

// Close releases every handle. It is safe to call more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for kind := range m.slots {
		m.releaseLocked(kind)
	}
	m.closed = true
}

func (m *Manager) releaseLocked(kind media.AssetKind) {
	if h, ok := m.slots[kind]; ok {
		m.alloc.Release(h.ID)
		delete(m.slots, kind)
	}
}
