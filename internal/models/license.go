package models

import "strings"

// Origin tags where a LicenseEntry came from.
type Origin string

const (
	OriginCatalog    Origin = "catalog"
	OriginSimilarity Origin = "similarity"
	OriginLive       Origin = "live"
)

// CostRange is an estimated cost interval in whole currency units.
type CostRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Add returns the component-wise sum of two cost ranges.
func (c CostRange) Add(other CostRange) CostRange {
	return CostRange{Min: c.Min + other.Min, Max: c.Max + other.Max}
}

// TimelineRange is an estimated processing interval in weeks.
type TimelineRange struct {
	MinWeeks int `json:"minWeeks"`
	MaxWeeks int `json:"maxWeeks"`
}

// Add returns the component-wise sum of two timeline ranges.
func (t TimelineRange) Add(other TimelineRange) TimelineRange {
	return TimelineRange{MinWeeks: t.MinWeeks + other.MinWeeks, MaxWeeks: t.MaxWeeks + other.MaxWeeks}
}

// LicenseEntry is a single license or permit candidate in an assembled response.
type LicenseEntry struct {
	LicenseID    string        `json:"licenseId"`
	Title        string        `json:"title"`
	Jurisdiction string        `json:"jurisdiction"`
	Category     string        `json:"category"`
	Cost         CostRange     `json:"cost"`
	Timeline     TimelineRange `json:"timeline"`
	SourceURLs   []string      `json:"sourceUrls"`
	Origin       Origin        `json:"origin"`

	// Score orders entries for truncation: classifier confidence for catalog
	// entries, similarity score for retrieved entries, extraction relevance
	// for live entries.
	Score float64 `json:"score"`
}

// NormalizedKey identifies the same conceptual license across origins.
// Near-duplicate titles ("Florida Food Service License", "florida food
// service license.") collapse to one key per jurisdiction.
func (e LicenseEntry) NormalizedKey() string {
	return NormalizeLicenseKey(e.Title, e.Jurisdiction)
}

// NormalizeLicenseKey lowercases the title, strips punctuation and collapses
// whitespace, then appends the jurisdiction code.
func NormalizeLicenseKey(title, jurisdiction string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	key := strings.TrimSpace(b.String())
	return key + "|" + strings.ToUpper(strings.TrimSpace(jurisdiction))
}

// UnionSourceURLs merges b's source URLs into a's, preserving a's order and
// appending unseen URLs from b in order.
func UnionSourceURLs(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, u := range a {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	for _, u := range b {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
