package journal

import (
	"regexp"
	"strings"
)

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	digitRun      = regexp.MustCompile(`[0-9]+`)
)

// maxStrippedDigits is the longest digit run treated as a year, volume or issue number.
const maxStrippedDigits = 4

// ExtractLabel strips citation noise (issue notes, years, volume numbers,
// separators, trailing disambiguation letters) from the raw text of a listing
// entry and returns the normalized candidate key.
func ExtractLabel(raw string) string {
	s := parenthetical.ReplaceAllString(raw, "")
	s = digitRun.ReplaceAllStringFunc(s, func(run string) string {
		if len(run) <= maxStrippedDigits {
			return ""
		}
		return run
	})
	s = strings.ReplaceAll(s, ",", "")
	key := Normalize(strings.TrimSpace(s))

	parts := strings.Split(key, " ")
	if n := len(parts); n > 1 && len(parts[n-1]) == 1 {
		key = strings.Join(parts[:n-1], " ")
	}
	return key
}
