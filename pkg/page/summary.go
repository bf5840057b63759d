package page

import (
	"fmt"
	"html"

	"github.com/PuerkitoBio/goquery"
)

// SummaryClass identifies the summary block; at most one exists per document.
const SummaryClass = "gscholar-total-if-block"

// Disclaimer is shown under the total.
const Disclaimer = "Note: The Impact Factor values used are based on a manually compiled dataset of publicly observed journal metrics. These scores are approximate and for informational use only."

// Summary is the aggregate over the persisted entry state.
type Summary struct {
	Total    float64 `json:"total"`
	Counted  int     `json:"counted"`
	Matched  int     `json:"matched"`
	Entries  int     `json:"entries"`
	Position string  `json:"position"`
}

// Insertion points, in the order they are tried.
const (
	PositionStats   = "stats"
	PositionProfile = "profile"
	PositionRoot    = "root"
)

func summaryHTML(total float64) string {
	return fmt.Sprintf(`<div class="%s" style="margin-top: 10px;">`+
		`<div style="color: #336699; font-weight: bold; font-size: 16px;">📊 Total Author IF: %.2f</div>`+
		`<div style="color: #999999; font-size: 12px; margin-top: 4px;">%s</div>`+
		`</div>`, SummaryClass, total, html.EscapeString(Disclaimer))
}

// RemoveSummary deletes every summary block and returns how many were removed.
func (p *Page) RemoveSummary() int {
	blocks := p.doc.Find("." + SummaryClass)
	n := blocks.Length()
	blocks.Remove()
	return n
}

// RenderSummary sums the scores of entries persisted as matched and eligible
// and replaces the summary block. Each entry counts on its own, even when
// several resolve to the same key.
func (p *Page) RenderSummary() Summary {
	p.RemoveSummary()

	var sum Summary
	entries := p.Entries()
	sum.Entries = entries.Length()
	entries.Each(func(_ int, s *goquery.Selection) {
		st := readState(s)
		if !st.matched {
			return
		}
		sum.Matched++
		if !st.eligible {
			return
		}
		sum.Counted++
		sum.Total += st.score
	})

	block := summaryHTML(sum.Total)
	switch {
	case p.insertAfter(p.sel.StatsAnchor, block):
		sum.Position = PositionStats
	case p.insertAfter(p.sel.ProfileAnchor, block):
		sum.Position = PositionProfile
	default:
		p.prependRoot(block)
		sum.Position = PositionRoot
	}
	return sum
}

func (p *Page) insertAfter(selector, block string) bool {
	if selector == "" {
		return false
	}
	anchor := p.doc.Find(selector).First()
	if anchor.Length() == 0 {
		return false
	}
	anchor.AfterHtml(block)
	return true
}

func (p *Page) prependRoot(block string) {
	root := p.doc.Find("body")
	if root.Length() == 0 {
		root = p.doc.Children().First()
	}
	root.PrependHtml(block)
}
