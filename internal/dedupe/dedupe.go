// Package dedupe merges normalized records that describe the same business.
package dedupe

import (
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/khabzox/business-lead-finder/internal/model"
)

// Deduplicate drops records that share a duplicate key with an earlier
// record. Two key variants are checked independently: (name, phone) and
// (name, address prefix). A collision on either one drops the later record;
// phone is the stronger signal, so records with matching name and phone are
// duplicates even when their addresses differ. The first record seen for a
// key survives unchanged; no field-level merging happens. Output order is
// first-occurrence order. O(n) over two hash sets.
//
// Records with neither phone nor address participate with empty key parts
// and can over-merge; that imprecision matches upstream behavior and is
// deliberately not corrected here.
func Deduplicate(records []model.BusinessRecord) []model.BusinessRecord {
	seenPhone := make(map[string]struct{}, len(records))
	seenAddr := make(map[string]struct{}, len(records))
	unique := make([]model.BusinessRecord, 0, len(records))

	dropped := 0
	for _, rec := range records {
		name := normalizeName(rec.Name)
		phoneKey := name + "|" + rec.Phone
		addrKey := name + "|" + addressPrefix(rec.Address)

		_, phoneDup := seenPhone[phoneKey]
		_, addrDup := seenAddr[addrKey]
		if phoneDup || addrDup {
			dropped++
			zap.L().Debug("dedupe: duplicate merged",
				zap.String("name", rec.Name),
				zap.String("source", rec.Source),
				zap.Bool("phone_match", phoneDup),
				zap.Bool("address_match", addrDup),
			)
			continue
		}

		seenPhone[phoneKey] = struct{}{}
		seenAddr[addrKey] = struct{}{}
		unique = append(unique, rec)
	}

	if dropped > 0 {
		zap.L().Info("dedupe: removed duplicates",
			zap.Int("input", len(records)),
			zap.Int("removed", dropped),
		)
	}
	return unique
}

// normalizeName lower-cases the name and strips punctuation so that
// "Restaurant Atlas" and "restaurant atlas!" produce the same key.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// addressPrefix reduces an address to the lower-cased text before the first
// comma, the part most stable across sources.
func addressPrefix(address string) string {
	if i := strings.Index(address, ","); i >= 0 {
		address = address[:i]
	}
	return strings.ToLower(strings.TrimSpace(address))
}
