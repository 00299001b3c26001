package model

// ProbeMethod describes how a website was (or was attempted to be) located.
type ProbeMethod string

const (
	// ProbeMethodProvidedURL means the record already carried a website URL
	// and the prober only validated it.
	ProbeMethodProvidedURL ProbeMethod = "provided_url"
	// ProbeMethodDomainGuessing means candidate domains were generated from
	// the business name and probed.
	ProbeMethodDomainGuessing ProbeMethod = "domain_guessing"
	// ProbeMethodDirectoryLookup is reserved for directory-based discovery.
	ProbeMethodDirectoryLookup ProbeMethod = "directory_lookup"
)

// WebsiteProbeResult holds the outcome of one probing pass over a business.
// It is immutable once attached to a record; a later pass replaces it
// wholesale rather than patching fields.
type WebsiteProbeResult struct {
	Found           bool        `json:"found"`
	URL             string      `json:"url,omitempty"`
	ConfidenceScore int         `json:"confidence_score"`
	DomainsChecked  []string    `json:"domains_checked"`
	Method          ProbeMethod `json:"method"`
}

// BusinessRecord is the canonical business entity flowing through the
// pipeline. Name is never empty after normalization; LeadScore is a pure
// function of the other fields at scoring time.
type BusinessRecord struct {
	Name         string              `json:"name"`
	Category     string              `json:"category"`
	Address      string              `json:"address"`
	Phone        string              `json:"phone"`
	Website      string              `json:"website,omitempty"`
	Rating       float64             `json:"rating"`
	ReviewCount  int                 `json:"review_count"`
	Latitude     *float64            `json:"latitude,omitempty"`
	Longitude    *float64            `json:"longitude,omitempty"`
	Source       string              `json:"source"`
	LeadScore    int                 `json:"lead_score"`
	WebsiteProbe *WebsiteProbeResult `json:"website_probe,omitempty"`
}

// HasWebsite reports whether a working website is known for the record,
// either supplied upstream or discovered by probing.
func (b *BusinessRecord) HasWebsite() bool {
	if b.Website != "" {
		return true
	}
	return b.WebsiteProbe != nil && b.WebsiteProbe.Found
}

// OpportunityLevel buckets a lead score for reporting.
type OpportunityLevel string

const (
	OpportunityHigh    OpportunityLevel = "high"
	OpportunityMedium  OpportunityLevel = "medium"
	OpportunityLow     OpportunityLevel = "low"
	OpportunityMinimal OpportunityLevel = "minimal"
)

// Opportunity returns the opportunity level for a lead score.
func Opportunity(leadScore int) OpportunityLevel {
	switch {
	case leadScore >= 80:
		return OpportunityHigh
	case leadScore >= 60:
		return OpportunityMedium
	case leadScore >= 40:
		return OpportunityLow
	default:
		return OpportunityMinimal
	}
}
