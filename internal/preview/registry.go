package preview

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"quill/internal/media"
)

// Errors returned by allocation.
var (
	ErrUnsupported = errors.New("preview: unsupported file")
	ErrClosed      = errors.New("preview: manager closed")
)

// Handle is a renderable reference to a locally selected file.
type Handle struct {
	ID          string
	URL         string
	FileID      string
	Name        string
	ContentType string
}

// IsZero reports whether h is the empty handle.
func (h Handle) IsZero() bool { return h.ID == "" }

// Allocator creates and releases preview handles.
type Allocator interface {
	Allocate(file media.File) (Handle, error)
	Release(id string)
}

type entry struct {
	handle Handle
	file   media.File
}

// Registry is the process-wide Allocator.
type Registry struct {
	mu      sync.Mutex
	baseURL string
	entries map[string]entry
}

// NewRegistry returns an empty registry. An empty baseURL yields file or
// opaque URLs until SetBaseURL is called.
func NewRegistry(baseURL string) *Registry {
	return &Registry{
		baseURL: strings.TrimRight(baseURL, "/"),
		entries: make(map[string]entry),
	}
}

// SetBaseURL changes the prefix for handles allocated afterwards.
func (r *Registry) SetBaseURL(baseURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.baseURL = strings.TrimRight(baseURL, "/")
}

// Allocate registers file and returns its handle.
func (r *Registry) Allocate(file media.File) (Handle, error) {
	if file.IsZero() {
		return Handle{}, fmt.Errorf("%w: empty file", ErrUnsupported)
	}
	if !file.IsImage() {
		return Handle{}, fmt.Errorf("%w: %s is %s", ErrUnsupported, file.Name, file.ContentType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	handle := Handle{
		ID:          id,
		URL:         r.urlFor(id, file),
		FileID:      file.ID,
		Name:        file.Name,
		ContentType: file.ContentType,
	}
	r.entries[id] = entry{handle: handle, file: file}
	return handle, nil
}

func (r *Registry) urlFor(id string, file media.File) string {
	switch {
	case r.baseURL != "":
		return r.baseURL + "/previews/" + id
	case file.Path != "":
		return (&url.URL{Scheme: "file", Path: file.Path}).String()
	default:
		return "preview:" + id
	}
}

// Release drops the handle. Unknown IDs are ignored.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Lookup returns the file behind a live handle.
func (r *Registry) Lookup(id string) (media.File, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	return e.file, ok
}

// Live reports how many handles are currently allocated.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
