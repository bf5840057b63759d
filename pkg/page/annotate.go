package page

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/scholar-impact/pkg/journal"
)

// EntryReport is what the annotator decided for one entry.
type EntryReport struct {
	Index  int                 `json:"index"`
	Label  string              `json:"label"`
	Key    string              `json:"key"`
	Result journal.MatchResult `json:"result"`
}

func markerHTML(score float64) string {
	return fmt.Sprintf(`<span %s="true" style="color: green; font-weight: bold;"> | IF: %.2f</span>`, AttrMarker, score)
}

// Annotate re-derives every entry from scratch: previous markers go, the label
// is resolved again, and matched entries get a fresh marker and state while
// unmatched ones lose any stale state. Calling it repeatedly is safe.
func (p *Page) Annotate(m *journal.Matcher) []EntryReport {
	entries := p.Entries()
	reports := make([]EntryReport, 0, entries.Length())

	entries.Each(func(i int, s *goquery.Selection) {
		s.Find("[" + AttrMarker + "]").Remove()

		label := p.labelText(s)
		key, res := m.ResolveLabel(label)
		reports = append(reports, EntryReport{Index: i, Label: label, Key: key, Result: res})

		if !res.Matched {
			clearState(s)
			return
		}
		// Display does not depend on eligibility; only the total does.
		s.AppendHtml(markerHTML(res.Score))
		writeState(s, res)
	})
	return reports
}
