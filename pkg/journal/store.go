package journal

import (
	"errors"
	"log/slog"
	"sync"
)

// Loader produces a fresh table, for example from a table directory or a
// fetched blob.
type Loader func() (*Table, LoadStats, error)

// Store holds the current table and swaps it on reload. Callers take one
// Matcher per pass so a reload never changes the table mid-run.
type Store struct {
	mu       sync.RWMutex
	table    *Table
	stats    LoadStats
	load     Loader
	denylist []string
	logger   *slog.Logger
}

// NewStore creates an empty store. Until Load succeeds every lookup misses.
func NewStore(load Loader, denylist []string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{load: load, denylist: denylist, logger: logger}
}

// Load runs the loader and installs whatever it produced: a partial table
// after a mid-stream failure, or an empty one when nothing could be read.
// Lookups then degrade to misses. The error is logged and returned.
func (s *Store) Load() error {
	t, stats, err := s.load()
	if err != nil && !errors.Is(err, ErrEmptyTable) {
		s.logger.Warn("table load failed, lookups degrade to misses", "error", err, "kept", t.Len())
	}
	s.install(t, stats)
	return err
}

// Reload reloads the table (hot reload). Unlike Load, a failed reload keeps
// the previous table; only an empty table replaces it.
func (s *Store) Reload() error {
	t, stats, err := s.load()
	if err != nil && !errors.Is(err, ErrEmptyTable) {
		s.logger.Warn("table reload failed, keeping current table", "error", err)
		return err
	}
	s.install(t, stats)
	return err
}

func (s *Store) install(t *Table, stats LoadStats) {
	if t == nil {
		t = NewBuilder(nil).Build(nil)
	}
	LogStats(s.logger, t, stats)

	s.mu.Lock()
	s.table = t
	s.stats = stats
	s.mu.Unlock()
}

// Matcher returns a matcher bound to the current table.
func (s *Store) Matcher() *Matcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NewMatcher(s.table, s.denylist)
}

// TableInfo is the public metadata for the loaded table.
type TableInfo struct {
	ID        string    `json:"id"`
	Version   string    `json:"version,omitempty"`
	Metric    string    `json:"metric,omitempty"`
	Source    string    `json:"source,omitempty"`
	SourceURL string    `json:"source_url,omitempty"`
	License   string    `json:"license,omitempty"`
	Entries   int       `json:"entries"`
	Stats     LoadStats `json:"stats"`
}

// Info describes the current table.
func (s *Store) Info() TableInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := TableInfo{Entries: s.table.Len(), Stats: s.stats}
	if s.table != nil && s.table.Manifest != nil {
		m := s.table.Manifest
		info.ID = m.ID
		info.Version = m.Version
		info.Metric = m.Metric
		info.Source = m.Source
		info.SourceURL = m.SourceURL
		info.License = m.License
	}
	return info
}
