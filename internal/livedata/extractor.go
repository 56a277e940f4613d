package livedata

import (
	"regexp"
	"strconv"
	"strings"

	"license-navigator/internal/models"
)

var (
	// phrases like "Food Service License", "building permit", "Annual
	// Resale Certificate"
	licensePattern = regexp.MustCompile(`(?i)\b((?:[A-Za-z][A-Za-z&'-]*\s+){0,4}(?:license|permit|certificate|registration))\b`)

	// "$150", "$1,500 - $3,000", "$500 to $2000"
	costPattern = regexp.MustCompile(`\$\s?([0-9][0-9,]*)(?:\s*(?:-|–|to)\s*\$?\s?([0-9][0-9,]*))?`)

	// "4-8 weeks", "2 to 6 weeks", "30 days", "10 business days"
	timelinePattern = regexp.MustCompile(`(?i)\b([0-9]+)(?:\s*(?:-|–|to)\s*([0-9]+))?\s*(?:business\s+)?(weeks?|days?)\b`)
)

// Extract pulls license-like entries out of fetched documents, tagged
// origin=live. Cost and timeline stay zero when the snippet carries no
// figures; the merger fills those from catalog data instead of guessing.
func Extract(docs []FetchedDocument, jurisdiction string) []models.LicenseEntry {
	jurisdiction = strings.ToUpper(strings.TrimSpace(jurisdiction))

	byKey := make(map[string]int)
	var entries []models.LicenseEntry

	for _, doc := range docs {
		text := doc.Title + ". " + doc.Snippet
		titles := extractTitles(text)
		if len(titles) == 0 {
			continue
		}
		cost := extractCost(text)
		timeline := extractTimeline(text)

		score := doc.Relevance
		if score > 1.0 {
			score = 1.0
		}

		for _, title := range titles {
			entry := models.LicenseEntry{
				LicenseID:    models.NormalizeLicenseKey(title, jurisdiction),
				Title:        title,
				Jurisdiction: jurisdiction,
				Category:     categorize(title),
				Cost:         cost,
				Timeline:     timeline,
				SourceURLs:   []string{doc.URL},
				Origin:       models.OriginLive,
				Score:        score,
			}

			key := entry.NormalizedKey()
			if idx, ok := byKey[key]; ok {
				existing := &entries[idx]
				existing.SourceURLs = models.UnionSourceURLs(existing.SourceURLs, entry.SourceURLs)
				if existing.Cost == (models.CostRange{}) {
					existing.Cost = entry.Cost
				}
				if existing.Timeline == (models.TimelineRange{}) {
					existing.Timeline = entry.Timeline
				}
				if entry.Score > existing.Score {
					existing.Score = entry.Score
				}
				continue
			}
			byKey[key] = len(entries)
			entries = append(entries, entry)
		}
	}

	return entries
}

// extractTitles returns cleaned license phrases in order of appearance,
// without duplicates.
func extractTitles(text string) []string {
	matches := licensePattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool)
	var titles []string
	for _, match := range matches {
		title := cleanTitle(match[1])
		if title == "" {
			continue
		}
		key := strings.ToLower(title)
		if seen[key] {
			continue
		}
		seen[key] = true
		titles = append(titles, title)
	}
	return titles
}

// cleanTitle strips leading stopwords the pattern drags in ("a business
// license" becomes "business license") and discards bare generic matches.
func cleanTitle(raw string) string {
	words := strings.Fields(raw)
	for len(words) > 0 {
		switch strings.ToLower(words[0]) {
		case "a", "an", "the", "your", "this", "every", "any", "all", "each",
			"obtain", "obtaining", "get", "getting", "need", "needs", "requires", "required",
			"and", "or", "with", "for", "of", "to", "in", "on", "by", "is", "are", "valid":
			words = words[1:]
		default:
			return strings.Join(words, " ")
		}
	}
	return ""
}

func extractCost(text string) models.CostRange {
	match := costPattern.FindStringSubmatch(text)
	if match == nil {
		return models.CostRange{}
	}
	min := parseAmount(match[1])
	max := min
	if match[2] != "" {
		max = parseAmount(match[2])
	}
	if max < min {
		min, max = max, min
	}
	return models.CostRange{Min: min, Max: max}
}

func extractTimeline(text string) models.TimelineRange {
	match := timelinePattern.FindStringSubmatch(text)
	if match == nil {
		return models.TimelineRange{}
	}
	min, _ := strconv.Atoi(match[1])
	max := min
	if match[2] != "" {
		max, _ = strconv.Atoi(match[2])
	}
	if strings.HasPrefix(strings.ToLower(match[3]), "day") {
		min = (min + 6) / 7
		max = (max + 6) / 7
	}
	if max < min {
		min, max = max, min
	}
	return models.TimelineRange{MinWeeks: min, MaxWeeks: max}
}

func categorize(title string) string {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "permit"):
		return "permit"
	case strings.Contains(lower, "certificate"):
		return "certificate"
	case strings.Contains(lower, "registration"):
		return "registration"
	default:
		return "license"
	}
}

func parseAmount(s string) int {
	n, _ := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	return n
}
