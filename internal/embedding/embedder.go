// Package embedding wraps an OpenAI-compatible embeddings endpoint behind an
// LRU cache. Catalog texts embed once at startup and user queries repeat
// often enough that the cache absorbs most calls.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"license-navigator/internal/common/config"
	apperrors "license-navigator/internal/common/errors"
)

const maxBatchSize = 100

// Embedder turns text into vectors for the similarity index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Logger interface definition
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type httpEmbedder struct {
	config     config.EmbeddingConfig
	client     *http.Client
	cache      *lru.Cache[string, []float32]
	maxRetries int
	logger     Logger
}

// New builds the HTTP embedder. The cache key is the raw text.
func New(cfg config.EmbeddingConfig, log Logger) (Embedder, error) {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 10000
	}
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cache, err := lru.New[string, []float32](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}

	return &httpEmbedder{
		config:     cfg,
		client:     &http.Client{Timeout: timeout},
		cache:      cache,
		maxRetries: 2,
		logger: log.With(map[string]interface{}{
			"component": "embedder",
			"model":     cfg.Model,
		}),
	}, nil
}

func (e *httpEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *httpEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, apperrors.NewEmbeddingFailedError(errors.New("no texts provided"))
	}
	if len(texts) > maxBatchSize {
		return nil, apperrors.NewEmbeddingFailedError(
			fmt.Errorf("batch size %d exceeds limit %d", len(texts), maxBatchSize))
	}

	results := make([][]float32, len(texts))
	var missIndices []int
	var misses []string
	for i, text := range texts {
		if cached, ok := e.cache.Get(text); ok {
			results[i] = cached
			continue
		}
		missIndices = append(missIndices, i)
		misses = append(misses, text)
	}
	if len(misses) == 0 {
		return results, nil
	}

	var vectors [][]float32
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, apperrors.NewEmbeddingFailedError(ctx.Err())
			}
		}

		vectors, lastErr = e.callAPI(ctx, misses)
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, apperrors.NewEmbeddingFailedError(ctx.Err())
		}
		e.logger.Warn("embedding request failed", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		})
	}
	if lastErr != nil {
		return nil, apperrors.NewEmbeddingFailedError(lastErr)
	}
	if len(vectors) != len(misses) {
		return nil, apperrors.NewEmbeddingFailedError(
			fmt.Errorf("expected %d embeddings, got %d", len(misses), len(vectors)))
	}

	for i, idx := range missIndices {
		e.cache.Add(texts[idx], vectors[i])
		results[idx] = vectors[i]
	}
	return results, nil
}

func (e *httpEmbedder) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(map[string]interface{}{
		"model": e.config.Model,
		"input": texts,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.config.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.config.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("embeddings API returned %d: %s", resp.StatusCode, string(raw))
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	vectors := make([][]float32, len(texts))
	for _, item := range apiResp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}
	return vectors, nil
}
