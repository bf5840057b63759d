package page

import "github.com/hazyhaar/scholar-impact/pkg/journal"

// Report is the outcome of one full pass over a page.
type Report struct {
	Entries []EntryReport `json:"entries"`
	Summary Summary       `json:"summary"`
	Removed int           `json:"removed,omitempty"`
}

// Run annotates every entry and then renders the summary from the state the
// annotator just wrote. Off a profile page it only removes stray summary
// blocks and returns ErrOffPage.
func (p *Page) Run(m *journal.Matcher) (Report, error) {
	if !p.IsProfile() {
		return Report{Removed: p.RemoveSummary()}, ErrOffPage
	}
	entries := p.Annotate(m)
	return Report{Entries: entries, Summary: p.RenderSummary()}, nil
}
