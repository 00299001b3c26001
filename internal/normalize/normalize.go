// Package normalize coerces heterogeneous raw business records into the
// canonical BusinessRecord schema.
package normalize

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/khabzox/business-lead-finder/internal/config"
	"github.com/khabzox/business-lead-finder/internal/model"
)

// ErrEmptyName marks a raw record whose name is empty after trimming. The
// record is unusable and is excluded from the batch; the error never aborts
// a run.
var ErrEmptyName = eris.New("normalize: record name is empty")

// Normalizer turns RawRecords into BusinessRecords. It is stateless and safe
// for concurrent use.
type Normalizer struct {
	phone config.PhoneConfig
}

// New creates a Normalizer with the given phone configuration.
func New(phone config.PhoneConfig) *Normalizer {
	return &Normalizer{phone: phone}
}

// Normalize coerces one raw record. It fails only when the name is empty
// after trimming; every other field degrades to a zero value instead of
// erroring, since upstream sources are unreliable.
func (n *Normalizer) Normalize(raw model.RawRecord) (model.BusinessRecord, error) {
	name := CollapseWhitespace(raw.String("name"))
	if name == "" {
		return model.BusinessRecord{}, eris.Wrap(ErrEmptyName, "normalize")
	}

	rating := raw.Float("rating")
	if rating < 0 || rating > 5 {
		rating = 0
	}
	reviews := raw.Int("review_count")
	if reviews < 0 {
		reviews = 0
	}

	return model.BusinessRecord{
		Name:        name,
		Category:    strings.ToLower(strings.TrimSpace(raw.String("category"))),
		Address:     CollapseWhitespace(raw.String("address")),
		Phone:       n.CleanPhone(raw.String("phone")),
		Website:     strings.TrimSpace(raw.String("website")),
		Rating:      rating,
		ReviewCount: reviews,
		Latitude:    raw.FloatPtr("latitude"),
		Longitude:   raw.FloatPtr("longitude"),
		Source:      strings.TrimSpace(raw.String("source")),
	}, nil
}

// CleanPhone strips everything except digits and a leading + and rewrites
// national forms to E.164 using the configured default country code.
// Unparseable input becomes "" rather than an error.
func (n *Normalizer) CleanPhone(phone string) string {
	if phone == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "+" {
		return ""
	}

	cc := n.phone.DefaultCountryCode // "+212"
	ccDigits := strings.TrimPrefix(cc, "+")
	natLen := n.phone.NationalLength

	switch {
	case strings.HasPrefix(cleaned, "+"):
		return cleaned
	case strings.HasPrefix(cleaned, "0") && len(cleaned) == natLen+1:
		// National form with trunk zero, e.g. 0524443322.
		return cc + cleaned[1:]
	case strings.HasPrefix(cleaned, ccDigits) && len(cleaned) == len(ccDigits)+natLen:
		// International form missing the +.
		return "+" + cleaned
	case len(cleaned) == natLen:
		// Bare national digits.
		return cc + cleaned
	default:
		// Unparseable: drop rather than carry garbage downstream.
		return ""
	}
}

// CollapseWhitespace trims s and collapses internal whitespace runs to a
// single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
