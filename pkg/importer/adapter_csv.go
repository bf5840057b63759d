// CLAUDE:SUMMARY Import adapter for name,score CSV reference tables (journal impact exports), optionally zipped.
package importer

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/hazyhaar/scholar-impact/pkg/journal"
)

// Spec describes a CSV source as declared in configuration.
type Spec struct {
	ID          string `yaml:"id" validate:"required"`
	TableID     string `yaml:"table_id"`
	Description string `yaml:"description"`
	URL         string `yaml:"url" validate:"required"`
	License     string `yaml:"license"`
	Version     string `yaml:"version"`
	Delimiter   string `yaml:"delimiter"`
	Encoding    string `yaml:"encoding"`
}

type csvAdapter struct {
	spec Spec
}

// NewCSVAdapter returns an adapter for a CSV source.
func NewCSVAdapter(spec Spec) Adapter {
	if spec.TableID == "" {
		spec.TableID = spec.ID
	}
	if spec.Description == "" {
		spec.Description = "CSV reference table " + spec.ID
	}
	return &csvAdapter{spec: spec}
}

func (a *csvAdapter) ID() string          { return a.spec.ID }
func (a *csvAdapter) TableID() string     { return a.spec.TableID }
func (a *csvAdapter) Description() string { return a.spec.Description }
func (a *csvAdapter) DefaultURL() string  { return a.spec.URL }
func (a *csvAdapter) License() string     { return a.spec.License }

func (a *csvAdapter) manifest(sourceURL string) *journal.Manifest {
	return &journal.Manifest{
		ID:        a.spec.TableID,
		Version:   a.spec.Version,
		Metric:    "impact_factor",
		Source:    a.spec.Description,
		SourceURL: sourceURL,
		License:   a.spec.License,
		DataFile:  "data.gob",
		Format: journal.FormatSpec{
			Delimiter: a.spec.Delimiter,
			Encoding:  a.spec.Encoding,
		},
	}
}

func (a *csvAdapter) Import(ctx context.Context, sourceURL, outputDir string) (Result, error) {
	blob, err := Fetch(ctx, sourceURL)
	if err != nil {
		return Result{}, fmt.Errorf("download: %w", err)
	}

	m := a.manifest(sourceURL)
	table, stats, err := journal.ParseCSV(bytes.NewReader(blob), m)
	// ErrEmptyTable aborts too: an empty snapshot would silently replace a good one.
	if err != nil {
		return Result{}, fmt.Errorf("parse %s: %w", sourceURL, err)
	}

	dir := filepath.Join(outputDir, a.TableID())
	if err := ensureDir(dir); err != nil {
		return Result{}, err
	}
	if err := journal.SaveGob(table, filepath.Join(dir, "data.gob")); err != nil {
		return Result{}, fmt.Errorf("save gob: %w", err)
	}
	if err := writeManifest(dir, m); err != nil {
		return Result{}, err
	}
	return Result{Dir: dir, Entries: table.Len(), Skipped: stats.Skipped()}, nil
}

// RemoteLoader returns a journal.Loader that fetches and parses the CSV at
// sourceURL on every call.
func RemoteLoader(ctx context.Context, spec Spec) journal.Loader {
	a := NewCSVAdapter(spec).(*csvAdapter)
	return func() (*journal.Table, journal.LoadStats, error) {
		blob, err := Fetch(ctx, spec.URL)
		if err != nil {
			return nil, journal.LoadStats{}, fmt.Errorf("fetch table: %w", err)
		}
		m := a.manifest(spec.URL)
		m.DataFile = ""
		return journal.ParseCSV(bytes.NewReader(blob), m)
	}
}
