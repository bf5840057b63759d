package importer

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Source represents a row from the table_sources table.
type Source struct {
	SourceID    string
	TableID     string
	Description string
	SourceURL   string
	License     string
	LastCheck   *int64
	LastStatus  *int
	LastError   *string
	LastImport  *int64
	Entries     *int
	UpdatedAt   int64
}

// SourceDB manages the table_sources SQLite table.
type SourceDB struct {
	db *sql.DB
}

// OpenSourceDB opens (or creates) the SQLite database at path and ensures the
// table_sources table exists.
func OpenSourceDB(path string) (*SourceDB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open source db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS table_sources (
		source_id    TEXT PRIMARY KEY,
		table_id     TEXT NOT NULL,
		description  TEXT NOT NULL,
		source_url   TEXT NOT NULL,
		license      TEXT NOT NULL DEFAULT '',
		last_check   INTEGER,
		last_status  INTEGER,
		last_error   TEXT,
		last_import  INTEGER,
		entries      INTEGER,
		updated_at   INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table_sources table: %w", err)
	}

	return &SourceDB{db: db}, nil
}

// Close closes the SQLite connection.
func (s *SourceDB) Close() error {
	return s.db.Close()
}

// Seed inserts default rows for each adapter (INSERT OR IGNORE: existing rows
// are left untouched so that manual URL overrides survive restarts).
func (s *SourceDB) Seed(adapters []Adapter) error {
	const q = `INSERT OR IGNORE INTO table_sources
		(source_id, table_id, description, source_url, license, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	now := time.Now().Unix()
	for _, a := range adapters {
		if _, err := s.db.Exec(q, a.ID(), a.TableID(), a.Description(), a.DefaultURL(), a.License(), now); err != nil {
			return fmt.Errorf("seed %s: %w", a.ID(), err)
		}
	}
	return nil
}

// GetURL returns the current source URL for a given source ID.
func (s *SourceDB) GetURL(sourceID string) (string, error) {
	var url string
	err := s.db.QueryRow(`SELECT source_url FROM table_sources WHERE source_id = ?`, sourceID).Scan(&url)
	if err != nil {
		return "", fmt.Errorf("get url for %s: %w", sourceID, err)
	}
	return url, nil
}

// SetURL updates the source URL for a given source and records the change timestamp.
func (s *SourceDB) SetURL(sourceID, url string) error {
	res, err := s.db.Exec(
		`UPDATE table_sources SET source_url = ?, updated_at = ? WHERE source_id = ?`,
		url, time.Now().Unix(), sourceID,
	)
	if err != nil {
		return fmt.Errorf("set url for %s: %w", sourceID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("source %s not found in table_sources", sourceID)
	}
	return nil
}

// UpdateCheck persists the result of an availability check.
func (s *SourceDB) UpdateCheck(sourceID string, status int, checkErr string) error {
	now := time.Now().Unix()
	var errPtr *string
	if checkErr != "" {
		errPtr = &checkErr
	}
	_, err := s.db.Exec(
		`UPDATE table_sources SET last_check = ?, last_status = ?, last_error = ? WHERE source_id = ?`,
		now, status, errPtr, sourceID,
	)
	if err != nil {
		return fmt.Errorf("update check for %s: %w", sourceID, err)
	}
	return nil
}

// RecordImport persists the entry count of a successful import.
func (s *SourceDB) RecordImport(sourceID string, entries int) error {
	_, err := s.db.Exec(
		`UPDATE table_sources SET last_import = ?, entries = ? WHERE source_id = ?`,
		time.Now().Unix(), entries, sourceID,
	)
	if err != nil {
		return fmt.Errorf("record import for %s: %w", sourceID, err)
	}
	return nil
}

// ListSources returns all rows from table_sources ordered by source_id.
func (s *SourceDB) ListSources() ([]Source, error) {
	rows, err := s.db.Query(`SELECT source_id, table_id, description, source_url, license,
		last_check, last_status, last_error, last_import, entries, updated_at
		FROM table_sources ORDER BY source_id`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.SourceID, &src.TableID, &src.Description, &src.SourceURL,
			&src.License, &src.LastCheck, &src.LastStatus, &src.LastError,
			&src.LastImport, &src.Entries, &src.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}
