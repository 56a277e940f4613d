package livedata

import (
	"license-navigator/internal/common/logger"
	"license-navigator/internal/models"
)

// defaultPrecedence orders origins for merge conflicts, highest first. Live
// data wins over catalog, catalog over similarity. The order is a policy
// parameter so deployments that trust their catalog over scraped snippets
// can flip it in configuration.
var defaultPrecedence = []string{
	string(models.OriginLive),
	string(models.OriginCatalog),
	string(models.OriginSimilarity),
}

// Merger folds license entries from all origins into the shared mapping of a
// RetrievalContext. Identity is the normalized title plus jurisdiction, so
// near-duplicate titles collapse onto one entry.
type Merger struct {
	rank   map[models.Origin]int
	logger logger.Logger
}

// NewMerger builds a merger with the given precedence policy (highest
// priority first). An empty policy uses the default live > catalog >
// similarity ordering.
func NewMerger(policy []string, log logger.Logger) *Merger {
	if len(policy) == 0 {
		policy = defaultPrecedence
	}
	rank := make(map[models.Origin]int, len(policy))
	for i, origin := range policy {
		// earlier in the policy list means higher rank
		rank[models.Origin(origin)] = len(policy) - i
	}
	return &Merger{
		rank:   rank,
		logger: log.With(map[string]interface{}{"component": "merger"}),
	}
}

// Merge applies the entries to the context mapping and returns how many of
// them ended up winning their slot (inserted or replaced an existing entry).
// Merging is idempotent: replaying the same entries leaves the mapping
// byte-identical.
func (m *Merger) Merge(rc *models.RetrievalContext, entries []models.LicenseEntry) int {
	won := 0
	for _, entry := range entries {
		key := entry.NormalizedKey()
		existing, ok := rc.Lookup(key)
		if !ok {
			rc.AddLicense(entry)
			won++
			continue
		}
		if m.resolve(existing, entry) {
			merged := entry
			merged.SourceURLs = models.UnionSourceURLs(entry.SourceURLs, existing.SourceURLs)
			// a live snippet without figures must not erase catalog numbers
			if merged.Cost == (models.CostRange{}) {
				merged.Cost = existing.Cost
			}
			if merged.Timeline == (models.TimelineRange{}) {
				merged.Timeline = existing.Timeline
			}
			rc.ReplaceLicense(key, merged)
			won++
			continue
		}
		// loser still contributes its sources
		existing.SourceURLs = models.UnionSourceURLs(existing.SourceURLs, entry.SourceURLs)
		rc.ReplaceLicense(key, existing)
	}
	return won
}

// resolve reports whether challenger displaces incumbent. Higher origin rank
// wins; within the same origin a higher score wins, so replaying identical
// entries never flips the mapping.
func (m *Merger) resolve(incumbent, challenger models.LicenseEntry) bool {
	ri, rc := m.rank[incumbent.Origin], m.rank[challenger.Origin]
	if rc != ri {
		return rc > ri
	}
	return challenger.Score > incumbent.Score
}
