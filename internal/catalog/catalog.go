// Package catalog holds the reference lists a work draws from (categories,
// formats, languages and the cover-generation options) and the capped
// category selection.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Entry is one id/name pair from a reference list.
type Entry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Kind names a reference list.
type Kind string

const (
	KindCategories     Kind = "categories"
	KindFormats        Kind = "formats"
	KindLanguages      Kind = "languages"
	KindArtisticStyles Kind = "artistic-styles"
	KindColorPalettes  Kind = "color-palettes"
	KindCompositions   Kind = "compositions"
)

// Kinds lists every reference list in load order.
var Kinds = []Kind{
	KindCategories,
	KindFormats,
	KindLanguages,
	KindArtisticStyles,
	KindColorPalettes,
	KindCompositions,
}

// ParseKind accepts a kind name, ignoring case and surrounding space.
func ParseKind(value string) (Kind, error) {
	needle := Kind(strings.ToLower(strings.TrimSpace(value)))
	for _, kind := range Kinds {
		if kind == needle {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown catalog %q", value)
}

// Catalog is a loaded set of reference lists.
type Catalog struct {
	lists map[Kind][]Entry
}

// New builds a catalog from pre-loaded lists.
func New(lists map[Kind][]Entry) Catalog {
	c := Catalog{lists: make(map[Kind][]Entry, len(lists))}
	for kind, entries := range lists {
		c.lists[kind] = append([]Entry(nil), entries...)
	}
	return c
}

// List returns a copy of the entries for kind.
func (c Catalog) List(kind Kind) []Entry {
	return append([]Entry(nil), c.lists[kind]...)
}

// Find looks up an entry by id.
func (c Catalog) Find(kind Kind, id int) (Entry, bool) {
	for _, e := range c.lists[kind] {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Loader fetches one reference list from the backend.
type Loader interface {
	FetchCatalog(ctx context.Context, kind Kind) ([]Entry, error)
}

// Cache loads the catalog on first use and keeps it for the process
// lifetime. Failed loads are not cached.
type Cache struct {
	mu     sync.Mutex
	loader Loader
	loaded bool
	value  Catalog
}

// NewCache binds a cache to loader.
func NewCache(loader Loader) *Cache {
	return &Cache{loader: loader}
}

// Get returns the cached catalog, loading every list on the first call.
func (c *Cache) Get(ctx context.Context) (Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.value, nil
	}
	lists := make(map[Kind][]Entry, len(Kinds))
	for _, kind := range Kinds {
		entries, err := c.loader.FetchCatalog(ctx, kind)
		if err != nil {
			return Catalog{}, fmt.Errorf("load catalog %s: %w", kind, err)
		}
		lists[kind] = entries
	}
	c.value = New(lists)
	c.loaded = true
	return c.value, nil
}

// Loaded reports whether a catalog is cached.
func (c *Cache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}
