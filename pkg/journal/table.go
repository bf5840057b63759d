package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// ErrEmptyTable is returned by loaders when no usable row survived parsing.
// The returned table is still valid and simply misses every lookup.
var ErrEmptyTable = errors.New("reference table is empty")

// Table maps canonical venue keys to scores. It is immutable once built and
// safe to share between runs without locking.
type Table struct {
	Manifest *Manifest
	scores   map[string]float64
	keys     []string
}

// Builder accumulates rows into a Table. Duplicate keys keep their first
// position in the scan order and take the last score written.
type Builder struct {
	normalize  Normalizer
	scores     map[string]float64
	keys       []string
	collisions int
}

// NewBuilder returns a Builder that canonicalizes keys with n (Normalize if nil).
func NewBuilder(n Normalizer) *Builder {
	if n == nil {
		n = Normalize
	}
	return &Builder{normalize: n, scores: make(map[string]float64)}
}

// Add records name with score. It reports false when the normalized key is
// empty or the score is not a finite number.
func (b *Builder) Add(name string, score float64) bool {
	key := b.normalize(strings.TrimSpace(name))
	if key == "" || math.IsNaN(score) || math.IsInf(score, 0) {
		return false
	}
	if _, exists := b.scores[key]; exists {
		b.collisions++
	} else {
		b.keys = append(b.keys, key)
	}
	b.scores[key] = score
	return true
}

// Build freezes the accumulated rows. The builder must not be reused.
func (b *Builder) Build(m *Manifest) *Table {
	return &Table{Manifest: m, scores: b.scores, keys: b.keys}
}

// Score returns the score stored under an already-normalized key.
func (t *Table) Score(key string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	s, ok := t.scores[key]
	return s, ok
}

// Keys returns the keys in scan order. The slice must not be modified.
func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}
	return t.keys
}

// Len returns the number of keys.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// ID returns the manifest id, or "" for an anonymous table.
func (t *Table) ID() string {
	if t == nil || t.Manifest == nil {
		return ""
	}
	return t.Manifest.ID
}

// LoadStats reports what happened to each row while parsing.
type LoadStats struct {
	Rows         int `json:"rows"`
	Kept         int `json:"kept"`
	MissingField int `json:"missing_field"`
	InvalidScore int `json:"invalid_score"`
	Malformed    int `json:"malformed"`
	Collisions   int `json:"collisions"`
}

// Skipped is the number of rows that did not produce an entry.
func (s LoadStats) Skipped() int {
	return s.MissingField + s.InvalidScore + s.Malformed
}

// ParseCSV builds a table from name,score rows. Malformed rows are counted and
// skipped; only a failure of the underlying reader aborts the parse, in which
// case the rows read so far are still returned.
func ParseCSV(r io.Reader, m *Manifest) (*Table, LoadStats, error) {
	var stats LoadStats
	if m == nil {
		m = &Manifest{}
	}

	// Transcode non-UTF-8 encodings declared in the manifest.
	if enc := m.Format.Encoding; enc != "" && !isUTF8(enc) {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return NewBuilder(nil).Build(m), stats, fmt.Errorf("unsupported encoding %q: %w", enc, err)
		}
		r = transform.NewReader(r, e.NewDecoder())
	}

	cr := csv.NewReader(r)
	if delim := m.Format.Delimiter; delim != "" {
		cr.Comma = []rune(delim)[0]
	}
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	b := NewBuilder(GetNormalizer(m.Format.Normalize))
	first := true
	var readErr error
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			stats.Malformed++
			first = false
			continue
		}
		if err != nil {
			readErr = fmt.Errorf("read row: %w", err)
			break
		}
		if first {
			first = false
			if m.Format.HeaderSkipped() {
				continue
			}
		}

		stats.Rows++
		if len(record) < 2 || strings.TrimSpace(record[0]) == "" || strings.TrimSpace(record[1]) == "" {
			stats.MissingField++
			continue
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
			stats.InvalidScore++
			continue
		}
		// A name made only of punctuation normalizes to nothing.
		if !b.Add(record[0], score) {
			stats.MissingField++
			continue
		}
		stats.Kept++
	}

	stats.Collisions = b.collisions
	t := b.Build(m)
	if readErr != nil {
		return t, stats, readErr
	}
	if t.Len() == 0 {
		return t, stats, ErrEmptyTable
	}
	return t, stats, nil
}

// LoadTable reads a manifest.yaml and loads data from gob or csv.
func LoadTable(dir string) (*Table, LoadStats, error) {
	manifest, err := LoadManifest(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		return nil, LoadStats{}, err
	}

	// Gob takes priority over CSV.
	gobPath := filepath.Join(dir, "data.gob")
	if _, err := os.Stat(gobPath); err == nil {
		t, err := loadGob(gobPath, manifest)
		if err != nil {
			return nil, LoadStats{}, fmt.Errorf("table %s: %w", manifest.ID, err)
		}
		stats := LoadStats{Rows: t.Len(), Kept: t.Len()}
		if t.Len() == 0 {
			return t, stats, ErrEmptyTable
		}
		return t, stats, nil
	}

	return LoadCSVFile(filepath.Join(dir, manifest.DataFile), manifest)
}

// LoadCSVFile parses the CSV file at path.
func LoadCSVFile(path string, m *Manifest) (*Table, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()
	return ParseCSV(f, m)
}

// LogStats reports load results the same way for every entry point.
func LogStats(logger *slog.Logger, t *Table, stats LoadStats) {
	if logger == nil {
		logger = slog.Default()
	}
	if stats.Collisions > 0 {
		logger.Warn("key collisions after normalization", "table", t.ID(), "collisions", stats.Collisions)
	}
	if stats.Skipped() > 0 {
		logger.Warn("rows skipped",
			"table", t.ID(),
			"missing_field", stats.MissingField,
			"invalid_score", stats.InvalidScore,
			"malformed", stats.Malformed,
		)
	}
	logger.Info("table loaded", "table", t.ID(), "entries", t.Len(), "rows", stats.Rows)
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
