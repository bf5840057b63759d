// CLAUDE:SUMMARY Manifest YAML schema describing a reference table directory: provenance and CSV layout.
package journal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest describes a reference table: its source, format, and how to interpret it.
type Manifest struct {
	ID        string     `yaml:"id" json:"id"`
	Version   string     `yaml:"version" json:"version"`
	Metric    string     `yaml:"metric" json:"metric"`
	Source    string     `yaml:"source" json:"source"`
	SourceURL string     `yaml:"source_url" json:"source_url,omitempty"`
	License   string     `yaml:"license" json:"license"`
	DataFile  string     `yaml:"data_file" json:"data_file"`
	Format    FormatSpec `yaml:"format" json:"-"`
}

// FormatSpec describes the CSV layout.
type FormatSpec struct {
	Delimiter string `yaml:"delimiter"`
	Encoding  string `yaml:"encoding"`
	// SkipHeader is a pointer so an absent field keeps the default (skip).
	SkipHeader *bool  `yaml:"skip_header"`
	Normalize  string `yaml:"normalize"`
}

// HeaderSkipped reports whether the first row is a header.
func (f FormatSpec) HeaderSkipped() bool {
	return f.SkipHeader == nil || *f.SkipHeader
}

// LoadManifest reads and parses a manifest.yaml file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("manifest %s: missing id", path)
	}
	if m.DataFile == "" {
		m.DataFile = "data.csv"
	}
	if m.Metric == "" {
		m.Metric = "impact_factor"
	}
	return &m, nil
}
