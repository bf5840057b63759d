// CLAUDE:SUMMARY Gob serialization of reference tables (ordered keys + scores) for fast loading.
package journal

import (
	"encoding/gob"
	"fmt"
	"os"
)

// snapshot is the on-disk gob form. Keys carry the scan order the prefix
// fallback depends on, which a bare map would lose.
type snapshot struct {
	Keys   []string
	Scores []float64
}

func loadGob(path string, m *Manifest) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gob file: %w", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode gob: %w", err)
	}
	if len(snap.Keys) != len(snap.Scores) {
		return nil, fmt.Errorf("decode gob: %d keys for %d scores", len(snap.Keys), len(snap.Scores))
	}

	// Keys were normalized when the snapshot was written.
	b := NewBuilder(NormalizeNone)
	for i, k := range snap.Keys {
		b.Add(k, snap.Scores[i])
	}
	return b.Build(m), nil
}

// SaveGob serializes t to a gob-encoded file at path.
func SaveGob(t *Table, path string) error {
	snap := snapshot{
		Keys:   t.Keys(),
		Scores: make([]float64, 0, t.Len()),
	}
	for _, k := range snap.Keys {
		s, _ := t.Score(k)
		snap.Scores = append(snap.Scores, s)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gob file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		return fmt.Errorf("encode gob: %w", err)
	}
	return nil
}
