// Package classifier maps free-text business queries onto catalog business
// types using weighted keyword matching. Rare keywords ("veterinary") count
// for more than keywords shared across many types ("service").
package classifier

import (
	"sort"
	"strings"

	"license-navigator/internal/catalog"
	"license-navigator/internal/models"
)

// Logger interface definition
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Classifier struct {
	snapshot  *catalog.Snapshot
	threshold float64
	logger    Logger
}

// New builds a classifier over the catalog snapshot. Candidates whose top
// confidence falls below threshold collapse to the unknown sentinel.
func New(snapshot *catalog.Snapshot, threshold float64, log Logger) *Classifier {
	return &Classifier{
		snapshot:  snapshot,
		threshold: threshold,
		logger: log.With(map[string]interface{}{
			"component": "classifier",
		}),
	}
}

// Classify scores every business type against the query and returns
// candidates in descending confidence order. The same query always yields
// the same candidate list. A query that matches nothing, or whose best match
// is below the confidence threshold, yields the single unknown sentinel with
// confidence 1.0.
func (c *Classifier) Classify(query string) []models.BusinessTypeCandidate {
	normalized := normalize(query)
	if normalized == "" {
		return sentinel()
	}

	stems := make(map[string]bool)
	for _, token := range strings.Fields(normalized) {
		stems[stem(token)] = true
	}
	padded := " " + normalized + " "

	var candidates []models.BusinessTypeCandidate
	for _, bt := range c.snapshot.ListTypes() {
		var matchedWeight, totalWeight float64
		var matched []string
		for _, kw := range bt.Keywords {
			norm := strings.ToLower(strings.TrimSpace(kw))
			if norm == "" {
				continue
			}
			freq := c.snapshot.KeywordFrequency(norm)
			if freq < 1 {
				freq = 1
			}
			weight := 1.0 / float64(freq)
			totalWeight += weight
			if c.matches(norm, stems, padded) {
				matchedWeight += weight
				matched = append(matched, norm)
			}
		}
		if matchedWeight == 0 || totalWeight == 0 {
			continue
		}
		candidates = append(candidates, models.BusinessTypeCandidate{
			TypeID:          bt.TypeID,
			Confidence:      matchedWeight / totalWeight,
			MatchedKeywords: matched,
		})
	}

	if len(candidates) == 0 {
		c.logger.Debug("no keyword matches", map[string]interface{}{"query": normalized})
		return sentinel()
	}

	// stable sort keeps catalog declaration order for equal confidences
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	if candidates[0].Confidence < c.threshold {
		c.logger.Debug("top candidate below threshold", map[string]interface{}{
			"typeId":     candidates[0].TypeID,
			"confidence": candidates[0].Confidence,
		})
		return sentinel()
	}

	return candidates
}

// matches checks one normalized keyword against the query. Multi-word
// keywords match as whole phrases; single words match on stems so that
// "bakeries" still hits the "bakery" keyword.
func (c *Classifier) matches(keyword string, stems map[string]bool, paddedQuery string) bool {
	if strings.Contains(keyword, " ") {
		return strings.Contains(paddedQuery, " "+keyword+" ")
	}
	return stems[stem(keyword)]
}

func sentinel() []models.BusinessTypeCandidate {
	return []models.BusinessTypeCandidate{{
		TypeID:     models.UnknownBusinessType,
		Confidence: 1.0,
	}}
}

// normalize lowercases the query, replaces punctuation with spaces and
// collapses runs of whitespace.
func normalize(query string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(query) {
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
	return strings.TrimSpace(b.String())
}

// stem applies two cheap suffix rules that cover the plural forms seen in
// real queries. Anything heavier belongs in the embedding retriever.
func stem(token string) string {
	if strings.HasSuffix(token, "ies") && len(token) > 4 {
		return token[:len(token)-3] + "y"
	}
	if strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss") && len(token) > 3 {
		return token[:len(token)-1]
	}
	return token
}
