package livedata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"license-navigator/internal/models"
)

func TestExtract_LicensePhrases(t *testing.T) {
	docs := []FetchedDocument{
		{
			URL:       "https://myfloridalicense.com/food",
			Title:     "Florida Food Service License",
			Snippet:   "You need a Food Service License. Fees run $200 - $800 and approval takes 6-10 weeks.",
			Relevance: 1.2,
		},
	}

	entries := Extract(docs, "fl")
	require.Len(t, entries, 2)

	assert.Equal(t, "Florida Food Service License", entries[0].Title)
	assert.Equal(t, "Food Service License", entries[1].Title)
	for _, e := range entries {
		assert.Equal(t, models.OriginLive, e.Origin)
		assert.Equal(t, "FL", e.Jurisdiction)
		assert.Equal(t, "license", e.Category)
		assert.Equal(t, models.CostRange{Min: 200, Max: 800}, e.Cost)
		assert.Equal(t, models.TimelineRange{MinWeeks: 6, MaxWeeks: 10}, e.Timeline)
		assert.Equal(t, []string{"https://myfloridalicense.com/food"}, e.SourceURLs)
		assert.Equal(t, 1.0, e.Score, "relevance is clamped to 1.0")
	}
}

func TestExtract_DaysConvertToWeeks(t *testing.T) {
	docs := []FetchedDocument{
		{
			URL:       "https://example.gov/permit",
			Title:     "Building Permit",
			Snippet:   "Processing takes 10 business days. Fee: $150.",
			Relevance: 1.0,
		},
	}

	entries := Extract(docs, "DE")
	require.Len(t, entries, 1)
	assert.Equal(t, "Building Permit", entries[0].Title)
	assert.Equal(t, "permit", entries[0].Category)
	assert.Equal(t, models.CostRange{Min: 150, Max: 150}, entries[0].Cost)
	assert.Equal(t, models.TimelineRange{MinWeeks: 2, MaxWeeks: 2}, entries[0].Timeline)
}

func TestExtract_NoFiguresLeavesRangesZero(t *testing.T) {
	docs := []FetchedDocument{
		{
			URL:       "https://example.gov/info",
			Title:     "Seller Registration",
			Snippet:   "Register your business with the state.",
			Relevance: 1.0,
		},
	}

	entries := Extract(docs, "FL")
	require.Len(t, entries, 1)
	assert.Equal(t, models.CostRange{}, entries[0].Cost)
	assert.Equal(t, models.TimelineRange{}, entries[0].Timeline)
}

func TestExtract_DeduplicatesAcrossDocuments(t *testing.T) {
	docs := []FetchedDocument{
		{
			URL:       "https://a.gov",
			Title:     "Food Service License",
			Snippet:   "Costs $100.",
			Relevance: 0.9,
		},
		{
			URL:       "https://b.gov",
			Title:     "food service license.",
			Snippet:   "Takes 4 weeks.",
			Relevance: 1.0,
		},
	}

	entries := Extract(docs, "FL")
	require.Len(t, entries, 1, "near-duplicate titles collapse to one entry")

	e := entries[0]
	assert.Equal(t, []string{"https://a.gov", "https://b.gov"}, e.SourceURLs)
	assert.Equal(t, models.CostRange{Min: 100, Max: 100}, e.Cost)
	assert.Equal(t, models.TimelineRange{MinWeeks: 4, MaxWeeks: 4}, e.Timeline, "later doc fills the missing timeline")
	assert.Equal(t, 1.0, e.Score, "highest relevance wins")
}

func TestExtract_NoLicensePhrases(t *testing.T) {
	docs := []FetchedDocument{
		{URL: "https://x.gov", Title: "Weather report", Snippet: "Sunny, 5 days of rain.", Relevance: 1.0},
	}
	assert.Empty(t, Extract(docs, "FL"))
}
