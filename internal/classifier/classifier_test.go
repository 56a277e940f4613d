package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"license-navigator/internal/catalog"
	"license-navigator/internal/models"
)

// ==========================
// Test Logger Implementation
// ==========================

// TestLogger implements the Logger interface for testing
type TestLogger struct {
	t testing.TB
}

func NewTestLogger(t testing.TB) *TestLogger {
	return &TestLogger{t: t}
}

func (l *TestLogger) Debug(msg string, fields map[string]interface{}) {
	l.t.Logf("DEBUG: %s %v", msg, fields)
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return l
}

// ==========================
// Fixtures
// ==========================

const testCatalog = `{
	"version": "test",
	"businessTypes": [
		{
			"typeId": "food_hospitality",
			"displayName": "Food & Hospitality",
			"keywords": ["restaurant", "food", "ice cream", "cafe", "bakery"],
			"templates": []
		},
		{
			"typeId": "retail",
			"displayName": "Retail",
			"keywords": ["store", "shop", "retail", "food"],
			"templates": []
		},
		{
			"typeId": "construction",
			"displayName": "Construction",
			"keywords": ["construction", "contractor", "builder", "renovation"],
			"templates": []
		}
	]
}`

func newTestClassifier(t *testing.T, threshold float64) *Classifier {
	snap, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	return New(snap, threshold, NewTestLogger(t))
}

// ==========================
// Tests
// ==========================

func TestClassify_KeywordMatch(t *testing.T) {
	c := newTestClassifier(t, 0.15)

	candidates := c.Classify("I want to open a restaurant and ice cream cafe with a small shop in Florida")
	require.NotEmpty(t, candidates)

	assert.Equal(t, "food_hospitality", candidates[0].TypeID)
	assert.Greater(t, candidates[0].Confidence, 0.5)
	assert.Equal(t, []string{"restaurant", "ice cream", "cafe"}, candidates[0].MatchedKeywords)

	// "shop" also hits retail, which must appear as a lower-ranked candidate
	require.Len(t, candidates, 2)
	assert.Equal(t, "retail", candidates[1].TypeID)
	assert.Greater(t, candidates[0].Confidence, candidates[1].Confidence)
}

func TestClassify_SharedKeywordsWeighLess(t *testing.T) {
	c := newTestClassifier(t, 0.01)

	// "food" is declared by two types so it carries half the weight of an
	// exclusive keyword like "restaurant".
	shared := c.Classify("food")
	exclusive := c.Classify("restaurant")

	require.NotEmpty(t, shared)
	require.NotEmpty(t, exclusive)
	assert.Equal(t, "food_hospitality", exclusive[0].TypeID)
	assert.Greater(t, exclusive[0].Confidence, shared[0].Confidence)
}

func TestClassify_Deterministic(t *testing.T) {
	c := newTestClassifier(t, 0.15)

	first := c.Classify("renovation contractor for food trucks")
	second := c.Classify("renovation contractor for food trucks")
	assert.Equal(t, first, second)
}

func TestClassify_PluralStemming(t *testing.T) {
	c := newTestClassifier(t, 0.15)

	candidates := c.Classify("licenses for bakeries and cafes")
	require.NotEmpty(t, candidates)
	assert.Equal(t, "food_hospitality", candidates[0].TypeID)
	assert.Contains(t, candidates[0].MatchedKeywords, "bakery")
	assert.Contains(t, candidates[0].MatchedKeywords, "cafe")
}

func TestClassify_UnknownSentinel(t *testing.T) {
	c := newTestClassifier(t, 0.15)

	tests := []struct {
		name  string
		query string
	}{
		{name: "no keyword matches", query: "quantum flux capacitor maintenance"},
		{name: "empty query", query: ""},
		{name: "whitespace only", query: "   \t\n  "},
		{name: "punctuation only", query: "?!. --- ..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := c.Classify(tt.query)
			require.Len(t, candidates, 1)
			assert.Equal(t, models.UnknownBusinessType, candidates[0].TypeID)
			assert.Equal(t, 1.0, candidates[0].Confidence)
			assert.Empty(t, candidates[0].MatchedKeywords)
		})
	}
}

func TestClassify_BelowThresholdCollapsesToSentinel(t *testing.T) {
	// one weak shared keyword out of four retail keywords scores well under
	// a high threshold
	c := newTestClassifier(t, 0.9)

	candidates := c.Classify("food")
	require.Len(t, candidates, 1)
	assert.Equal(t, models.UnknownBusinessType, candidates[0].TypeID)
}

func TestStem(t *testing.T) {
	assert.Equal(t, "bakery", stem("bakeries"))
	assert.Equal(t, "shop", stem("shops"))
	assert.Equal(t, "business", stem("business"))
	assert.Equal(t, "gas", stem("gas"))
	assert.Equal(t, "bus", stem("bus"))
}
