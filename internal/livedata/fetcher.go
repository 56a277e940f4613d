package livedata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"license-navigator/internal/common/config"
	"license-navigator/internal/common/database"
	apperrors "license-navigator/internal/common/errors"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Fetcher calls the external search API. Results are cached in Redis keyed
// by (query, jurisdiction) because the same business question repeats across
// conversation turns.
type Fetcher struct {
	config config.LiveFetchConfig
	client *http.Client
	cache  *database.RedisClient
	logger Logger
}

// NewFetcher builds the live-fetch client. cache may be nil; fetching then
// always goes to the network.
func NewFetcher(cfg config.LiveFetchConfig, cache *database.RedisClient, log Logger) *Fetcher {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	return &Fetcher{
		config: cfg,
		client: &http.Client{Timeout: timeout},
		cache:  cache,
		logger: log.With(map[string]interface{}{
			"component": "live-fetch",
		}),
	}
}

// Fetch runs a live search for license information in the jurisdiction.
// Timeouts surface as FetchTimeout so the pipeline can degrade instead of
// failing the query.
func (f *Fetcher) Fetch(ctx context.Context, query, jurisdiction string) ([]FetchedDocument, error) {
	cacheKey := f.cacheKey(query, jurisdiction)
	if docs, ok := f.fromCache(ctx, cacheKey); ok {
		return docs, nil
	}

	searchURL := f.buildSearchURL(f.buildQuery(query, jurisdiction))
	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, apperrors.NewFetchFailedError(err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded ||
			strings.Contains(err.Error(), "deadline") ||
			strings.Contains(err.Error(), "Client.Timeout") {
			return nil, apperrors.NewFetchTimeoutError(jurisdiction)
		}
		return nil, apperrors.NewFetchFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewFetchFailedError(fmt.Errorf("search API returned %d", resp.StatusCode))
	}

	var apiResponse struct {
		Items []struct {
			Link    string `json:"link"`
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Mime    string `json:"mime"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, apperrors.NewFetchFailedError(err)
	}

	seen := make(map[string]bool)
	var docs []FetchedDocument
	for _, item := range apiResponse.Items {
		if item.Mime != "" && !strings.Contains(item.Mime, "html") {
			continue
		}
		if item.Link == "" || seen[item.Link] {
			continue
		}
		seen[item.Link] = true

		relevance := 1.0
		if strings.Contains(item.Link, ".gov") || strings.Contains(item.Link, ".edu") {
			relevance += 0.2
		}
		if strings.Contains(strings.ToLower(item.Title), "official") {
			relevance += 0.1
		}
		if relevance < f.config.MinRelevance {
			continue
		}

		docs = append(docs, FetchedDocument{
			URL:       item.Link,
			Title:     item.Title,
			Snippet:   item.Snippet,
			Relevance: relevance,
		})
	}

	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Relevance > docs[j].Relevance })
	if len(docs) > f.config.MaxResults {
		docs = docs[:f.config.MaxResults]
	}

	f.logger.Info("live fetch completed", map[string]interface{}{
		"jurisdiction": jurisdiction,
		"resultCount":  len(docs),
	})

	f.toCache(ctx, cacheKey, docs)
	return docs, nil
}

func (f *Fetcher) buildQuery(query, jurisdiction string) string {
	parts := []string{query, "business license requirements"}
	if jurisdiction != "" {
		parts = append(parts, jurisdiction)
	}
	return strings.Join(parts, " ")
}

func (f *Fetcher) buildSearchURL(query string) string {
	baseURL, _ := url.Parse(f.config.BaseURL)
	params := url.Values{}
	params.Add("key", f.config.APIKey)
	params.Add("cx", f.config.EngineID)
	params.Add("q", query)
	params.Add("num", fmt.Sprintf("%d", f.config.MaxResults))
	baseURL.RawQuery = params.Encode()
	return baseURL.String()
}

func (f *Fetcher) cacheKey(query, jurisdiction string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return "livefetch:" + strings.ToUpper(jurisdiction) + ":" + normalized
}

func (f *Fetcher) fromCache(ctx context.Context, key string) ([]FetchedDocument, bool) {
	if f.cache == nil {
		return nil, false
	}
	raw, err := f.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var docs []FetchedDocument
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		f.logger.Warn("dropping malformed cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}
	return docs, true
}

func (f *Fetcher) toCache(ctx context.Context, key string, docs []FetchedDocument) {
	if f.cache == nil {
		return
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return
	}
	ttl := time.Duration(f.config.CacheTTL) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	if err := f.cache.Set(ctx, key, string(raw), ttl); err != nil {
		f.logger.Warn("cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
