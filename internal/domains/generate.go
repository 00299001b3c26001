// Package domains derives plausible website domains for a business without
// any network access.
package domains

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/khabzox/business-lead-finder/internal/config"
)

// domainShape is the minimal sanity check applied to every candidate before
// it is emitted. Hyphens are permitted inside the label for the suffixed
// variants ("argana-marrakech.com").
var domainShape = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?\.[a-z]{2,}$`)

// deaccent strips combining marks after NFD decomposition, so "Café" slugs
// to "cafe".
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Generator produces ordered, deterministic candidate domain lists.
type Generator struct {
	cfg config.DomainsConfig
}

// New creates a Generator.
func New(cfg config.DomainsConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Generate returns the candidate domains for a business, in probing order.
// The output is finite, reproducible for identical input, deduplicated with
// first-seen order preserved, and capped at MaxCandidates.
func (g *Generator) Generate(name, category string) []string {
	stripped := g.slug(name, true)
	full := g.slug(name, false)
	cat := g.slug(category, false)

	// Base name variants, most specific first. The un-stripped form is kept
	// because a generic word is sometimes itself the domain prefix
	// ("restaurantargana.com" for Café Argana).
	var bases []string
	addBase := func(b string) {
		if b != "" {
			bases = append(bases, b)
		}
	}
	addBase(stripped)
	if full != stripped {
		addBase(full)
	}
	if stripped != "" {
		for _, alias := range g.categoryWords(cat) {
			addBase(alias + stripped)
			addBase(stripped + alias)
		}
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(label, tld string) {
		candidate := label + tld
		if !domainShape.MatchString(candidate) {
			return
		}
		if _, dup := seen[candidate]; dup {
			return
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}

	for _, base := range bases {
		for _, tld := range g.cfg.TLDs {
			add(base, tld)
		}
	}
	for _, base := range bases {
		for _, suffix := range g.cfg.Suffixes {
			for _, tld := range g.cfg.TLDs {
				add(base+"-"+suffix, tld)
				add(base+suffix, tld)
			}
		}
	}

	if len(out) > g.cfg.MaxCandidates {
		out = out[:g.cfg.MaxCandidates]
	}
	return out
}

// slug lowers, de-accents, and strips non-alphanumerics from s. When
// stripGeneric is set, generic business words and French articles are
// removed first; if nothing survives the stripping, the full word set is
// used instead.
func (g *Generator) slug(s string, stripGeneric bool) string {
	flattened, _, err := transform.String(deaccent, strings.ToLower(s))
	if err != nil {
		flattened = strings.ToLower(s)
	}

	// Split on anything non-alphanumeric so "l'Agdal" yields ["l", "agdal"].
	words := strings.FieldsFunc(flattened, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	if len(words) == 0 {
		return ""
	}

	if stripGeneric {
		kept := words[:0:0]
		for _, w := range words {
			if !g.isGeneric(w) {
				kept = append(kept, w)
			}
		}
		if len(kept) > 0 {
			words = kept
		}
	}

	return strings.Join(words, "")
}

// categoryWords returns the business-type words tried alongside the base
// slug: the category itself plus its configured aliases.
func (g *Generator) categoryWords(cat string) []string {
	if cat == "" {
		return nil
	}
	words := []string{cat}
	for _, alias := range g.cfg.CategoryAliases[cat] {
		if alias != cat {
			words = append(words, alias)
		}
	}
	return words
}

func (g *Generator) isGeneric(word string) bool {
	for _, generic := range g.cfg.GenericWords {
		if word == generic {
			return true
		}
	}
	return false
}
