package retriever

import (
	"context"

	chromem "github.com/philippgille/chromem-go"

	"license-navigator/internal/catalog"
	apperrors "license-navigator/internal/common/errors"
	"license-navigator/internal/common/logger"
	"license-navigator/internal/embedding"
	"license-navigator/internal/models"
)

// VectorRetriever answers queries from an in-process embedding index. Index
// failures degrade transparently to the keyword fallback; callers see the
// same output shape either way.
type VectorRetriever struct {
	snapshot   *catalog.Snapshot
	collection *chromem.Collection
	fallback   *KeywordRetriever
	minScore   float32
	logger     logger.Logger
}

// NewVector builds the embedding index from the catalog snapshot. The
// returned retriever owns the collection for the process lifetime; catalog
// reloads require constructing a new one.
func NewVector(ctx context.Context, snapshot *catalog.Snapshot, embedder embedding.Embedder, persistPath string, minScore float64, log logger.Logger) (*VectorRetriever, error) {
	collection, err := buildIndex(ctx, snapshot, embedder, persistPath)
	if err != nil {
		return nil, err
	}
	return &VectorRetriever{
		snapshot:   snapshot,
		collection: collection,
		fallback:   NewKeyword(snapshot, minScore, log),
		minScore:   float32(minScore),
		logger:     log.With(map[string]interface{}{"retriever": "vector"}),
	}, nil
}

func (r *VectorRetriever) Name() string { return "vector" }

func (r *VectorRetriever) Retrieve(ctx context.Context, query, jurisdiction string, topK int) ([]models.LicenseEntry, error) {
	topK = clampTopK(topK)

	n := topK
	if count := r.collection.Count(); n > count {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	results, err := r.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		r.logger.Warn("embedding index query failed, falling back to keyword search", map[string]interface{}{
			"error": err.Error(),
		})
		entries, fbErr := r.fallback.Retrieve(ctx, query, jurisdiction, topK)
		if fbErr != nil {
			return nil, apperrors.NewRetrievalUnavailableError(err)
		}
		return entries, nil
	}

	entries := make([]models.LicenseEntry, 0, len(results))
	for _, res := range results {
		// hits below the relevance floor are dropped, not padded
		if res.Similarity < r.minScore {
			continue
		}
		licenseID, docJurisdiction := splitDocID(res.ID)
		doc, ok := r.snapshot.FindDoc(licenseID, docJurisdiction)
		if !ok {
			continue
		}
		entries = append(entries, catalog.EntryFromDoc(doc, float64(res.Similarity)))
	}
	return entries, nil
}
