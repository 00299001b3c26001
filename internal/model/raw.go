package model

import (
	"strconv"
	"strings"
)

// RawRecord is a loosely-typed business record as delivered by upstream
// fetchers (map APIs, scraped directories, manual entry). Field values may be
// strings, numbers, or missing entirely; the normalizer coerces them.
type RawRecord map[string]any

// String returns the named field as a trimmed string, or "" when absent.
func (r RawRecord) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// Float returns the named field coerced to float64. Invalid or missing
// values return 0; upstream sources are unreliable so coercion never errors.
func (r RawRecord) Float(key string) float64 {
	v, ok := r[key]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Int returns the named field coerced to int, defaulting to 0.
func (r RawRecord) Int(key string) int {
	return int(r.Float(key))
}

// FloatPtr returns the named field as *float64, or nil when absent or
// unparseable. Used for optional coordinates.
func (r RawRecord) FloatPtr(key string) *float64 {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}
