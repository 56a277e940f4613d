package retriever

import (
	"context"
	"sort"
	"strings"

	"license-navigator/internal/catalog"
	"license-navigator/internal/common/logger"
	"license-navigator/internal/models"
)

// KeywordRetriever scans the same catalog texts the embedding index is built
// from. It is the always-available fallback: pure, in-memory and error-free.
type KeywordRetriever struct {
	snapshot *catalog.Snapshot
	minScore float64
	texts    []string
	logger   logger.Logger
}

func NewKeyword(snapshot *catalog.Snapshot, minScore float64, log logger.Logger) *KeywordRetriever {
	docs := snapshot.LicenseDocs()
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = " " + normalizeText(doc.Text) + " "
	}
	return &KeywordRetriever{
		snapshot: snapshot,
		minScore: minScore,
		texts:    texts,
		logger:   log.With(map[string]interface{}{"retriever": "keyword"}),
	}
}

func (r *KeywordRetriever) Name() string { return "keyword" }

// Retrieve scores each catalog doc by the share of query characters covered
// by tokens found in the doc text. The synthetic score lands in [0,1] like a
// cosine similarity, so downstream thresholds keep working.
func (r *KeywordRetriever) Retrieve(_ context.Context, query, _ string, topK int) ([]models.LicenseEntry, error) {
	topK = clampTopK(topK)

	tokens := uniqueTokens(normalizeText(query))
	if len(tokens) == 0 {
		return nil, nil
	}
	var totalLen int
	for _, tok := range tokens {
		totalLen += len(tok)
	}

	docs := r.snapshot.LicenseDocs()
	type scored struct {
		idx   int
		score float64
	}
	var hits []scored
	for i := range docs {
		var matchedLen int
		for _, tok := range tokens {
			if strings.Contains(r.texts[i], tok) {
				matchedLen += len(tok)
			}
		}
		if matchedLen == 0 {
			continue
		}
		score := float64(matchedLen) / float64(totalLen)
		if score < r.minScore {
			continue
		}
		hits = append(hits, scored{idx: i, score: score})
	}

	// stable sort preserves catalog order between equal scores
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > topK {
		hits = hits[:topK]
	}

	entries := make([]models.LicenseEntry, 0, len(hits))
	for _, h := range hits {
		entries = append(entries, catalog.EntryFromDoc(docs[h.idx], h.score))
	}
	return entries, nil
}

func normalizeText(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
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

// uniqueTokens drops duplicates and single-letter noise, preserving first
// occurrence order.
func uniqueTokens(normalized string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, tok := range strings.Fields(normalized) {
		if len(tok) < 2 || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	return tokens
}
