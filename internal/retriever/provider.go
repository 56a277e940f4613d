package retriever

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"license-navigator/internal/catalog"
	"license-navigator/internal/common/config"
	"license-navigator/internal/common/logger"
	"license-navigator/internal/embedding"
)

// New selects the retrieval variant at construction time. The configured
// provider is health-checked once; if it cannot be built or does not answer,
// the keyword fallback is returned instead so retrieval is never absent.
func New(ctx context.Context, cfg config.RetrievalConfig, snapshot *catalog.Snapshot, embedder embedding.Embedder, esClient *elasticsearch.Client, log logger.Logger) Retriever {
	minScore := cfg.MinScore

	switch cfg.Provider {
	case "vector":
		buildCtx := ctx
		if cfg.HealthTimeout > 0 {
			var cancel context.CancelFunc
			buildCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.HealthTimeout)*time.Millisecond)
			defer cancel()
		}
		v, err := NewVector(buildCtx, snapshot, embedder, cfg.PersistPath, minScore, log)
		if err != nil {
			log.Warn("embedding index unavailable, using keyword retrieval", map[string]interface{}{
				"error": err.Error(),
			})
			return NewKeyword(snapshot, minScore, log)
		}
		log.Info("embedding index ready", map[string]interface{}{
			"documents": len(snapshot.LicenseDocs()),
		})
		return v

	case "elasticsearch":
		if esClient == nil || !elasticHealthy(ctx, esClient, cfg, log) {
			log.Warn("elasticsearch unavailable, using keyword retrieval", nil)
			return NewKeyword(snapshot, minScore, log)
		}
		return NewElastic(esClient, snapshot, cfg.IndexName, minScore, log)

	default:
		return NewKeyword(snapshot, minScore, log)
	}
}

func elasticHealthy(ctx context.Context, client *elasticsearch.Client, cfg config.RetrievalConfig, log logger.Logger) bool {
	if cfg.HealthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.HealthTimeout)*time.Millisecond)
		defer cancel()
	}
	res, err := client.Ping(client.Ping.WithContext(ctx))
	if err != nil {
		log.Warn("elasticsearch ping failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	defer res.Body.Close()
	return !res.IsError()
}
