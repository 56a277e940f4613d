// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"license-navigator/internal/assembler"
	"license-navigator/internal/catalog"
	"license-navigator/internal/classifier"
	"license-navigator/internal/common/config"
	"license-navigator/internal/common/logger"
	"license-navigator/internal/genai"
	"license-navigator/internal/livedata"
	"license-navigator/internal/matcher"
	"license-navigator/internal/models"
	"license-navigator/internal/pipeline"
	"license-navigator/internal/retriever"
)

// Logger adapters to bridge logger.Logger to component-specific Logger interfaces
type classifierLoggerAdapter struct {
	logger.Logger
}

func (a *classifierLoggerAdapter) With(fields map[string]interface{}) classifier.Logger {
	return &classifierLoggerAdapter{a.Logger.With(fields)}
}

type liveFetchLoggerAdapter struct {
	logger.Logger
}

func (a *liveFetchLoggerAdapter) With(fields map[string]interface{}) livedata.Logger {
	return &liveFetchLoggerAdapter{a.Logger.With(fields)}
}

type genaiLoggerAdapter struct {
	logger.Logger
}

func (a *genaiLoggerAdapter) With(fields map[string]interface{}) genai.Logger {
	return &genaiLoggerAdapter{a.Logger.With(fields)}
}

func loadProductionCatalog(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snapshot, err := catalog.LoadFile("../../configs/catalog.json")
	require.NoError(t, err, "the shipped catalog must always validate")
	return snapshot
}

// searchStub serves a Google-custom-search-shaped response for Florida food
// service queries.
func searchStub(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]string{
				{
					"link":    "https://www2.myfloridalicense.com/hotels-restaurants/food-service",
					"title":   "Florida Food Service License",
					"snippet": "A Florida Food Service License costs $350 - $950 and takes 6 to 10 weeks to process.",
				},
			},
		})
	}))
}

func newPipeline(t *testing.T, snapshot *catalog.Snapshot, fetcher pipeline.Fetcher) *pipeline.Pipeline {
	t.Helper()
	log := logger.NewTestLogger(t)
	cfg := config.PipelineConfig{
		FetchTimeout:        500,
		PromptBudget:        6000,
		ConfidenceThreshold: 0.15,
		HistoryTurns:        3,
		MaxQueryLength:      2000,
	}

	return pipeline.New(
		cfg,
		snapshot,
		classifier.New(snapshot, cfg.ConfidenceThreshold, &classifierLoggerAdapter{log}),
		matcher.New(snapshot, log),
		retriever.NewKeyword(snapshot, 0.35, log),
		5,
		fetcher,
		livedata.NewMerger(nil, log),
		assembler.New(snapshot, cfg.PromptBudget, log),
		log,
	)
}

func newFetcher(t *testing.T, baseURL string) *livedata.Fetcher {
	t.Helper()
	return livedata.NewFetcher(config.LiveFetchConfig{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		EngineID:     "test-cx",
		Timeout:      2000,
		MaxResults:   5,
		MinRelevance: 1.0,
	}, nil, &liveFetchLoggerAdapter{logger.NewTestLogger(t)})
}

func TestIceCreamFranchiseInFlorida(t *testing.T) {
	snapshot := loadProductionCatalog(t)
	search := searchStub(t, 0)
	defer search.Close()

	pipe := newPipeline(t, snapshot, newFetcher(t, search.URL))

	res, err := pipe.ProcessQuery(context.Background(),
		"I want to open an ice cream franchise in FL", "FL", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Degraded)

	summary := res.Prompt.StructuredSummary
	assert.Equal(t, "food_hospitality", summary.BusinessType)
	assert.Greater(t, summary.Confidence, 0.5)
	assert.Equal(t, "FL", summary.Jurisdiction)
	assert.True(t, summary.DataFreshness)

	var foodService *models.LicenseEntry
	for i := range summary.Licenses {
		if summary.Licenses[i].Category == "food-service" {
			foodService = &summary.Licenses[i]
			break
		}
	}
	require.NotNil(t, foodService, "at least one food-service license expected")

	assert.Greater(t, summary.TotalCostEstimate.Min, 500)
	assert.Less(t, summary.TotalCostEstimate.Max, 5000)

	// the live entry for the same normalized (title, jurisdiction) wins and
	// carries the union of sources
	var flFood *models.LicenseEntry
	for i := range summary.Licenses {
		if summary.Licenses[i].Title == "Florida Food Service License" {
			flFood = &summary.Licenses[i]
			break
		}
	}
	require.NotNil(t, flFood)
	assert.Equal(t, models.OriginLive, flFood.Origin)
	assert.Equal(t, models.CostRange{Min: 350, Max: 950}, flFood.Cost)
	assert.Contains(t, flFood.SourceURLs, "https://www2.myfloridalicense.com/hotels-restaurants/food-service")
	assert.Contains(t, flFood.SourceURLs, "https://www2.myfloridalicense.com/hotels-restaurants")
}

func TestGibberishQuery(t *testing.T) {
	snapshot := loadProductionCatalog(t)
	pipe := newPipeline(t, snapshot, nil)

	res, err := pipe.ProcessQuery(context.Background(), "asdkjaslkdj", "", nil)
	require.NoError(t, err)

	summary := res.Prompt.StructuredSummary
	assert.Equal(t, models.UnknownBusinessType, summary.BusinessType)
	assert.False(t, summary.DataFreshness)
	assert.Empty(t, summary.Licenses)
}

func TestLiveFetchTimeout(t *testing.T) {
	snapshot := loadProductionCatalog(t)
	search := searchStub(t, 3*time.Second)
	defer search.Close()

	pipe := newPipeline(t, snapshot, newFetcher(t, search.URL))

	res, err := pipe.ProcessQuery(context.Background(),
		"I want to open an ice cream franchise in FL", "FL", nil)
	require.NoError(t, err, "a slow fetch must never raise to the caller")

	assert.Contains(t, res.Degraded, "fetch_timeout")
	assert.False(t, res.Prompt.StructuredSummary.DataFreshness)
	assert.NotEmpty(t, res.Prompt.StructuredSummary.Licenses, "catalog data still answers")
}

func TestDeterministicAssembly(t *testing.T) {
	snapshot := loadProductionCatalog(t)
	pipe := newPipeline(t, snapshot, nil)

	first, err := pipe.ProcessQuery(context.Background(),
		"opening a restaurant in Delaware", "DE", nil)
	require.NoError(t, err)
	second, err := pipe.ProcessQuery(context.Background(),
		"opening a restaurant in Delaware", "DE", nil)
	require.NoError(t, err)

	assert.Equal(t, first.Prompt.NarrativeText, second.Prompt.NarrativeText)
}

func TestGenerationRoundTrip(t *testing.T) {
	snapshot := loadProductionCatalog(t)
	pipe := newPipeline(t, snapshot, nil)

	var received struct {
		Prompt  string                   `json:"prompt"`
		Context models.StructuredSummary `json:"context"`
	}
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"text": "You will need a Florida Food Service License to get started.",
		})
	}))
	defer llm.Close()

	res, err := pipe.ProcessQuery(context.Background(),
		"I want to open an ice cream franchise in FL", "FL", nil)
	require.NoError(t, err)

	client := genai.NewClient(config.GenAIConfig{
		BaseURL:    llm.URL,
		Timeout:    2000,
		MaxRetries: 1,
	}, &genaiLoggerAdapter{logger.NewTestLogger(t)})

	reply, err := client.Generate(context.Background(), res.Prompt)
	require.NoError(t, err)
	assert.Contains(t, reply, "Florida Food Service License")
	assert.Equal(t, "food_hospitality", received.Context.BusinessType)
	assert.Equal(t, res.Prompt.NarrativeText, received.Prompt)
}
