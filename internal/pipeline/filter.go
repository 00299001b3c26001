package pipeline

import "github.com/khabzox/business-lead-finder/internal/model"

// Filter narrows a ranked lead list for output. Zero values mean "no
// constraint".
type Filter struct {
	MinScore      int  `json:"min_score,omitempty"`
	NoWebsiteOnly bool `json:"no_website_only,omitempty"`
	Limit         int  `json:"limit,omitempty"`
}

// Apply returns the leads passing the filter, preserving order.
func (f Filter) Apply(leads []model.BusinessRecord) []model.BusinessRecord {
	out := make([]model.BusinessRecord, 0, len(leads))
	for _, lead := range leads {
		if lead.LeadScore < f.MinScore {
			continue
		}
		if f.NoWebsiteOnly && lead.HasWebsite() {
			continue
		}
		out = append(out, lead)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}
