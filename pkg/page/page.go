// Package page is the boundary to a profile listing document. It finds the
// listing entries, injects score markers and per-entry match state, and keeps
// a single summary block in sync with that state.
package page

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/hazyhaar/scholar-impact/pkg/journal"
)

// ErrOffPage is returned by Run when the document has no listing container.
var ErrOffPage = errors.New("not a profile listing page")

// Entry state attributes. The aggregator reads only these, never the label text.
const (
	AttrMarker   = "data-if-extension"
	AttrMatched  = "data-if-matched"
	AttrScore    = "data-if-score"
	AttrKey      = "data-if-key"
	AttrEligible = "data-if-eligible"
)

var stateAttrs = []string{AttrMatched, AttrScore, AttrKey, AttrEligible}

// Selectors locate the parts of the host page the annotator depends on.
type Selectors struct {
	Container     string `yaml:"container" validate:"required"`
	Entries       string `yaml:"entries" validate:"required"`
	BadgedClass   string `yaml:"badged_class"`
	StatsAnchor   string `yaml:"stats_anchor"`
	ProfileAnchor string `yaml:"profile_anchor"`
}

// DefaultSelectors match the Google Scholar profile layout.
func DefaultSelectors() Selectors {
	return Selectors{
		Container:     "#gsc_a_t",
		Entries:       ".gsc_a_t .gs_gray:not(.gs_oph), .gsc_a_t .gs_gray.badged",
		BadgedClass:   "badged",
		StatsAnchor:   ".gsc_rsb_st",
		ProfileAnchor: ".gsc_prf_il",
	}
}

// Page wraps one parsed document. It is not safe for concurrent use.
type Page struct {
	doc *goquery.Document
	sel Selectors
}

// Parse reads an HTML document.
func Parse(r io.Reader, sel Selectors) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &Page{doc: doc, sel: sel}, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(s string, sel Selectors) (*Page, error) {
	return Parse(strings.NewReader(s), sel)
}

// IsProfile reports whether the listing container is present.
func (p *Page) IsProfile() bool {
	return p.doc.Find(p.sel.Container).Length() > 0
}

// Entries returns the live set of entry label nodes.
func (p *Page) Entries() *goquery.Selection {
	return p.doc.Find(p.sel.Entries)
}

// HTML renders the whole document.
func (p *Page) HTML() (string, error) {
	return p.doc.Html()
}

// labelText returns the text the extractor should see. Badged entries carry
// decoration elements, so only their direct text nodes count.
func (p *Page) labelText(s *goquery.Selection) string {
	if p.sel.BadgedClass == "" || !s.HasClass(p.sel.BadgedClass) {
		return strings.TrimSpace(s.Text())
	}
	var b strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if n := c.Get(0); n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
			b.WriteByte(' ')
		}
	})
	return b.String()
}

// entryState is the match outcome persisted on an entry.
type entryState struct {
	matched  bool
	eligible bool
	score    float64
	key      string
}

func readState(s *goquery.Selection) entryState {
	var st entryState
	st.matched = s.AttrOr(AttrMatched, "") == "true"
	st.eligible = s.AttrOr(AttrEligible, "") == "true"
	st.key = s.AttrOr(AttrKey, "")
	if v, ok := s.Attr(AttrScore); ok {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			// A tampered score cannot be trusted as matched input.
			st.matched = false
		}
		st.score = score
	}
	return st
}

func writeState(s *goquery.Selection, res journal.MatchResult) {
	s.SetAttr(AttrMatched, "true")
	s.SetAttr(AttrScore, strconv.FormatFloat(res.Score, 'g', -1, 64))
	s.SetAttr(AttrKey, res.CanonicalKey)
	s.SetAttr(AttrEligible, strconv.FormatBool(res.Eligible))
}

func clearState(s *goquery.Selection) {
	for _, a := range stateAttrs {
		s.RemoveAttr(a)
	}
}
