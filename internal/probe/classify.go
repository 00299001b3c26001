package probe

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// parkingIndicators is the fixed vocabulary that marks a parked or
// for-sale domain.
var parkingIndicators = []string{
	"domain for sale",
	"parked domain",
	"buy this domain",
	"domain parking",
	"coming soon",
	"under construction",
}

// businessIndicators is the fixed vocabulary that marks a real business
// page, counted alongside the business name tokens.
var businessIndicators = []string{
	"contact",
	"menu",
	"about",
	"reservation",
	"booking",
	"address",
	"hours",
}

// classification is the outcome of scoring one response body.
type classification struct {
	BusinessScore int
	ParkingScore  int
}

// Real reports whether the page is accepted as a genuine business site:
// business signals must both exist and outweigh parking signals.
func (c classification) Real() bool {
	return c.BusinessScore > c.ParkingScore && c.BusinessScore > 0
}

// classify scores an HTML body against the business and parking
// vocabularies. The title and meta description carry the strongest identity
// signals, so they are folded into the searched text alongside the raw body.
func classify(businessName string, body []byte) classification {
	text := strings.ToLower(string(body))

	// Pull title and meta description out of the document; on malformed
	// HTML the raw body alone is scored.
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body))); err == nil {
		var extra strings.Builder
		extra.WriteString(doc.Find("title").Text())
		extra.WriteString(" ")
		if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
			extra.WriteString(desc)
		}
		text = text + " " + strings.ToLower(extra.String())
	}

	var result classification
	for _, token := range nameTokens(businessName) {
		if strings.Contains(text, token) {
			result.BusinessScore++
		}
	}
	for _, indicator := range businessIndicators {
		if strings.Contains(text, indicator) {
			result.BusinessScore++
		}
	}
	for _, indicator := range parkingIndicators {
		if strings.Contains(text, indicator) {
			result.ParkingScore++
		}
	}
	return result
}

// nameTokens splits a business name into lower-cased tokens worth matching.
// Single-character fragments (French articles like "l'") are skipped.
func nameTokens(name string) []string {
	fields := strings.Fields(strings.ToLower(name))
	tokens := fields[:0:0]
	for _, f := range fields {
		f = strings.Trim(f, `"'.,!?()`)
		if len(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
