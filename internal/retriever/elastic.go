package retriever

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"license-navigator/internal/catalog"
	"license-navigator/internal/common/logger"
	apperrors "license-navigator/internal/common/errors"
	"license-navigator/internal/models"
)

// ElasticRetriever queries an externally maintained license index. Scores
// are normalized against the result's max_score so the relevance floor
// behaves like the cosine floor of the embedding variant. A missing index
// degrades transparently to the keyword fallback, mirroring the embedding
// variant's query-failure behavior.
type ElasticRetriever struct {
	client    *elasticsearch.Client
	snapshot  *catalog.Snapshot
	indexName string
	fallback  *KeywordRetriever
	minScore  float64
	logger    logger.Logger
}

func NewElastic(client *elasticsearch.Client, snapshot *catalog.Snapshot, indexName string, minScore float64, log logger.Logger) *ElasticRetriever {
	return &ElasticRetriever{
		client:    client,
		snapshot:  snapshot,
		indexName: indexName,
		fallback:  NewKeyword(snapshot, minScore, log),
		minScore:  minScore,
		logger:    log.With(map[string]interface{}{"retriever": "elasticsearch", "index": indexName}),
	}
}

func (r *ElasticRetriever) Name() string { return "elasticsearch" }

func (r *ElasticRetriever) Retrieve(ctx context.Context, query, jurisdiction string, topK int) ([]models.LicenseEntry, error) {
	topK = clampTopK(topK)

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":  query,
							"fields": []string{"title^3", "text"},
							"type":   "best_fields",
						},
					},
				},
			},
		},
	}
	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index: []string{r.indexName},
		Body:  bytes.NewReader(body),
		Size:  &topK,
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewSearchTimeoutError()
		}
		return nil, apperrors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		r.logger.Warn("search index missing, falling back to keyword search", nil)
		entries, fbErr := r.fallback.Retrieve(ctx, query, jurisdiction, topK)
		if fbErr != nil {
			return nil, apperrors.NewRetrievalUnavailableError(apperrors.NewIndexNotFoundError(r.indexName))
		}
		return entries, nil
	}
	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(fmt.Errorf("search returned %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			MaxScore float64 `json:"max_score"`
			Hits     []struct {
				Score  float64 `json:"_score"`
				Source struct {
					LicenseID    string `json:"licenseId"`
					Jurisdiction string `json:"jurisdiction"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(err)
	}
	if parsed.Hits.MaxScore <= 0 {
		return nil, nil
	}

	entries := make([]models.LicenseEntry, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		score := hit.Score / parsed.Hits.MaxScore
		if score < r.minScore {
			continue
		}
		doc, ok := r.snapshot.FindDoc(hit.Source.LicenseID, hit.Source.Jurisdiction)
		if !ok {
			continue
		}
		entries = append(entries, catalog.EntryFromDoc(doc, score))
	}
	return entries, nil
}
