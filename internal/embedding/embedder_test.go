package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"license-navigator/internal/common/config"
	apperrors "license-navigator/internal/common/errors"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t testing.TB
}

func NewTestLogger(t testing.TB) *TestLogger {
	return &TestLogger{t: t}
}

func (l *TestLogger) Debug(msg string, fields map[string]interface{}) {
	l.t.Logf("DEBUG: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return l
}

// ==========================
// Helpers
// ==========================

func embeddingServer(t *testing.T, calls *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		data := make([]map[string]interface{}, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]interface{}{
				"index":     i,
				"embedding": []float32{float32(len(req.Input[i])), 0.5, 0.25},
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
}

func newTestEmbedder(t *testing.T, baseURL string) Embedder {
	e, err := New(config.EmbeddingConfig{
		BaseURL:   baseURL,
		APIKey:    "test-key",
		Model:     "test-model",
		CacheSize: 16,
		Timeout:   2000,
	}, NewTestLogger(t))
	require.NoError(t, err)
	return e
}

// ==========================
// Tests
// ==========================

func TestEmbed_Success(t *testing.T) {
	var calls int32
	server := embeddingServer(t, &calls)
	defer server.Close()

	e := newTestEmbedder(t, server.URL)

	vec, err := e.Embed(context.Background(), "ice cream shop")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEmbed_CacheHit(t *testing.T) {
	var calls int32
	server := embeddingServer(t, &calls)
	defer server.Close()

	e := newTestEmbedder(t, server.URL)

	first, err := e.Embed(context.Background(), "food truck")
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), "food truck")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second call must come from cache")
}

func TestEmbedBatch_PartialCache(t *testing.T) {
	var calls int32
	server := embeddingServer(t, &calls)
	defer server.Close()

	e := newTestEmbedder(t, server.URL)

	_, err := e.Embed(context.Background(), "a")
	require.NoError(t, err)

	vectors, err := e.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for _, v := range vectors {
		assert.Len(t, v, 3)
	}
	// the cached "a" must not be re-sent
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, float32(2), vectors[1][0])
	assert.Equal(t, float32(3), vectors[2][0])
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	e := newTestEmbedder(t, "http://localhost:0")

	_, err := e.EmbedBatch(context.Background(), nil)
	assert.Equal(t, apperrors.ErrCodeEmbeddingFailed, apperrors.CodeOf(err))
}

func TestEmbedBatch_ServerErrorRetriesThenFails(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	e := newTestEmbedder(t, server.URL)

	_, err := e.Embed(context.Background(), "anything")
	assert.Equal(t, apperrors.ErrCodeEmbeddingFailed, apperrors.CodeOf(err))
	assert.True(t, apperrors.IsRecoverable(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "initial attempt plus two retries")
}

func TestEmbedBatch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	e := newTestEmbedder(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := e.Embed(ctx, "slow")
	assert.Equal(t, apperrors.ErrCodeEmbeddingFailed, apperrors.CodeOf(err))
}
