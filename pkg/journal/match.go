package journal

import "strings"

// minPrefixKeyLen is the key length a candidate must exceed before prefix
// fallback is attempted; shorter keys only match exactly.
const minPrefixKeyLen = 5

// DefaultDenylist holds category words marking non-journal venues.
var DefaultDenylist = []string{
	"conference", "proceedings", "workshop", "symposium",
	"book", "chapter", "thesis", "poster", "patent",
}

// MatchResult is the outcome of resolving one candidate key.
type MatchResult struct {
	Matched      bool    `json:"matched"`
	CanonicalKey string  `json:"canonical_key,omitempty"`
	Score        float64 `json:"score"`
	Eligible     bool    `json:"eligible"`
	Prefix       bool    `json:"prefix,omitempty"`
}

// Matcher resolves candidate keys against one table.
type Matcher struct {
	table    *Table
	denylist []string
}

// NewMatcher returns a Matcher over t. A nil denylist uses DefaultDenylist.
func NewMatcher(t *Table, denylist []string) *Matcher {
	if denylist == nil {
		denylist = DefaultDenylist
	}
	return &Matcher{table: t, denylist: denylist}
}

// Table returns the table the matcher resolves against.
func (m *Matcher) Table() *Table { return m.table }

// Resolve looks key up exactly, then falls back to the first table key (in
// scan order) that key starts with.
func (m *Matcher) Resolve(key string) MatchResult {
	if score, ok := m.table.Score(key); ok {
		return m.result(key, score, false)
	}
	if len(key) > minPrefixKeyLen {
		for _, tk := range m.table.Keys() {
			if strings.HasPrefix(key, tk) {
				score, _ := m.table.Score(tk)
				return m.result(tk, score, true)
			}
		}
	}
	return MatchResult{}
}

func (m *Matcher) result(key string, score float64, prefix bool) MatchResult {
	return MatchResult{
		Matched:      true,
		CanonicalKey: key,
		Score:        score,
		Eligible:     m.Eligible(key),
		Prefix:       prefix,
	}
}

// Eligible reports whether a resolved canonical key counts toward the total.
func (m *Matcher) Eligible(canonicalKey string) bool {
	for _, w := range m.denylist {
		if strings.Contains(canonicalKey, w) {
			return false
		}
	}
	return true
}

// ResolveLabel runs the full pipeline on raw listing text and returns the
// extracted key alongside the result.
func (m *Matcher) ResolveLabel(raw string) (string, MatchResult) {
	key := ExtractLabel(raw)
	return key, m.Resolve(key)
}
