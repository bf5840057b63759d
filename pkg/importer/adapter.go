// Package importer fetches reference tables, snapshots them into table
// directories, and keeps track of where each table comes from.
package importer

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Adapter defines a reference data source that downloads, parses, and
// serializes a table directory.
type Adapter interface {
	// ID returns the unique identifier of this source (e.g. "jcr-2024").
	ID() string
	// TableID returns the target table ID written to the manifest.
	TableID() string
	// Description returns a human-readable description.
	Description() string
	// DefaultURL returns the default source URL used for seeding the database.
	DefaultURL() string
	// License returns the license identifier for this source.
	License() string
	// Import downloads the source from sourceURL, parses it, and writes
	// data.gob + manifest.yaml into a subdirectory of outputDir named after TableID().
	Import(ctx context.Context, sourceURL, outputDir string) (Result, error)
}

// Result summarizes one import.
type Result struct {
	Dir     string
	Entries int
	Skipped int
}

// Catalog holds the adapters known to this process.
type Catalog struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewCatalog returns a catalog holding adapters.
func NewCatalog(adapters ...Adapter) *Catalog {
	c := &Catalog{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		c.Register(a)
	}
	return c
}

// Register adds an adapter, replacing any with the same ID.
func (c *Catalog) Register(a Adapter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adapters[a.ID()] = a
}

// Get returns a registered adapter by ID, or an error if not found.
func (c *Catalog) Get(id string) (Adapter, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.adapters[id]
	if !ok {
		return nil, fmt.Errorf("unknown import source: %q", id)
	}
	return a, nil
}

// All returns all registered adapters sorted by ID.
func (c *Catalog) All() []Adapter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Adapter, 0, len(c.adapters))
	for _, a := range c.adapters {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}
