package draftstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another session holds the editor lock.
var ErrLocked = errors.New("another quill editing session is already running")

// EditorLock is an exclusive advisory lock on the draft store.
type EditorLock struct {
	lock *flock.Flock
}

// AcquireEditorLock takes the lock at path without blocking.
func AcquireEditorLock(path string) (*EditorLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &EditorLock{lock: lock}, nil
}

// Release drops the lock. It is safe to call on a nil lock.
func (l *EditorLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
