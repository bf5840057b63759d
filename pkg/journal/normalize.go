// CLAUDE:SUMMARY Venue-name canonicalization (case fold, ampersand, hyphens, diacritics, emoji, punctuation, whitespace) shared by table keys and lookups.
package journal

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer transforms a term before lookup.
type Normalizer func(string) string

var hyphens = strings.NewReplacer("-", " ", "–", " ", "—", " ")

// emoji covers the pictograph blocks seen in profile exports.
var emoji = &unicode.RangeTable{
	R32: []unicode.Range32{
		{Lo: 0x1F300, Hi: 0x1F5FF, Stride: 1},
		{Lo: 0x1F600, Hi: 0x1F6FF, Stride: 1},
	},
}

func stripAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), runes.Remove(runes.In(emoji)))
}

// Normalize canonicalizes a venue name into a matchable key. Table keys and
// extracted labels must both pass through it for exact matches to work.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "&", "and")
	s = hyphens.Replace(s)

	// transform.String only fails on transformer errors; NFD and Remove never report one.
	s, _, _ = transform.String(stripAccents(), s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeNone returns the term unchanged.
func NormalizeNone(s string) string {
	return s
}

// GetNormalizer returns the normalizer for the given manifest mode.
// Default is venue.
func GetNormalizer(mode string) Normalizer {
	switch mode {
	case "none":
		return NormalizeNone
	default:
		return Normalize
	}
}
