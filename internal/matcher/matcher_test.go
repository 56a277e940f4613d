package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"license-navigator/internal/catalog"
	"license-navigator/internal/common/logger"
	"license-navigator/internal/models"
)

const testCatalog = `{
	"version": "test",
	"businessTypes": [
		{
			"typeId": "food_hospitality",
			"displayName": "Food & Hospitality",
			"keywords": ["restaurant", "food"],
			"templates": [
				{
					"licenseId": "food-service",
					"title": "Food Service License",
					"category": "health",
					"cost": {"min": 100, "max": 500},
					"timeline": {"minWeeks": 4, "maxWeeks": 8},
					"sourceUrls": ["https://example.gov/food"]
				},
				{
					"licenseId": "business-license",
					"title": "General Business License",
					"category": "registration",
					"cost": {"min": 50, "max": 200},
					"timeline": {"minWeeks": 1, "maxWeeks": 3},
					"sourceUrls": ["https://example.gov/business"]
				}
			]
		}
	],
	"jurisdictions": [
		{
			"code": "FL",
			"name": "Florida",
			"overrides": [
				{
					"typeId": "food_hospitality",
					"templates": [
						{
							"licenseId": "fl-food-service",
							"title": "Florida Food Service License",
							"category": "health",
							"cost": {"min": 200, "max": 800},
							"timeline": {"minWeeks": 6, "maxWeeks": 10},
							"sourceUrls": ["https://myfloridalicense.com"]
						},
						{
							"licenseId": "fl-seller-permit",
							"title": "Florida Annual Resale Certificate",
							"category": "tax",
							"cost": {"min": 0, "max": 50},
							"timeline": {"minWeeks": 1, "maxWeeks": 2},
							"sourceUrls": ["https://floridarevenue.com"]
						}
					]
				}
			]
		}
	]
}`

func newTestMatcher(t *testing.T) *Matcher {
	snap, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	return New(snap, logger.NewTestLogger(t))
}

func candidate(typeID string, confidence float64) models.BusinessTypeCandidate {
	return models.BusinessTypeCandidate{TypeID: typeID, Confidence: confidence}
}

func TestMatch_GenericTemplates(t *testing.T) {
	m := newTestMatcher(t)

	entries := m.Match(candidate("food_hospitality", 0.6), "")
	require.Len(t, entries, 2)

	assert.Equal(t, "food-service", entries[0].LicenseID)
	assert.Equal(t, "business-license", entries[1].LicenseID)
	for _, e := range entries {
		assert.Equal(t, models.OriginCatalog, e.Origin)
		assert.Equal(t, 0.6, e.Score)
		assert.Equal(t, "", e.Jurisdiction)
		assert.NotEmpty(t, e.SourceURLs)
	}
}

func TestMatch_JurisdictionOverridesReplaceByCategory(t *testing.T) {
	m := newTestMatcher(t)

	entries := m.Match(candidate("food_hospitality", 0.6), "FL")
	require.Len(t, entries, 3)

	// the health override takes the generic health template's position,
	// registration survives untouched, the new tax category is appended
	assert.Equal(t, "fl-food-service", entries[0].LicenseID)
	assert.Equal(t, "business-license", entries[1].LicenseID)
	assert.Equal(t, "fl-seller-permit", entries[2].LicenseID)

	for _, e := range entries {
		assert.Equal(t, "FL", e.Jurisdiction)
	}
}

func TestMatch_UnknownJurisdictionFallsBackToGeneric(t *testing.T) {
	m := newTestMatcher(t)

	entries := m.Match(candidate("food_hospitality", 0.6), "de")
	require.Len(t, entries, 2)
	assert.Equal(t, "food-service", entries[0].LicenseID)
	// jurisdiction codes are normalized even without overrides
	assert.Equal(t, "DE", entries[0].Jurisdiction)
}

func TestMatch_UnknownTypeYieldsNothing(t *testing.T) {
	m := newTestMatcher(t)

	assert.Nil(t, m.Match(candidate(models.UnknownBusinessType, 1.0), "FL"))
	assert.Nil(t, m.Match(candidate("aerospace", 0.9), ""))
}

func TestMatch_Deterministic(t *testing.T) {
	m := newTestMatcher(t)

	first := m.Match(candidate("food_hospitality", 0.42), "FL")
	second := m.Match(candidate("food_hospitality", 0.42), "FL")
	assert.Equal(t, first, second)
}
