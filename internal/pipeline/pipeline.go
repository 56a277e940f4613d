// Package pipeline orchestrates one query end to end: classification,
// concurrent catalog matching and similarity retrieval, the soft-deadline
// live-data join, and prompt assembly. Recoverable stage failures degrade
// the result instead of failing the query.
package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"license-navigator/internal/assembler"
	"license-navigator/internal/catalog"
	"license-navigator/internal/classifier"
	"license-navigator/internal/common/config"
	apperrors "license-navigator/internal/common/errors"
	"license-navigator/internal/common/logger"
	"license-navigator/internal/common/metrics"
	"license-navigator/internal/livedata"
	"license-navigator/internal/matcher"
	"license-navigator/internal/models"
	"license-navigator/internal/retriever"
)

// Fetcher is the live-fetch collaborator contract. May block up to its own
// timeout; the pipeline joins it with a soft deadline and proceeds without
// its result when it is late.
type Fetcher interface {
	Fetch(ctx context.Context, query, jurisdiction string) ([]livedata.FetchedDocument, error)
}

// Result is everything one processed query produces.
type Result struct {
	Prompt *models.AssembledPrompt
	RC     *models.RetrievalContext

	// Degraded lists the causes of reduced quality, empty for a clean run.
	Degraded []string
}

type Pipeline struct {
	cfg        config.PipelineConfig
	snapshot   *catalog.Snapshot
	classifier *classifier.Classifier
	matcher    *matcher.Matcher
	retriever  retriever.Retriever
	topK       int
	fetcher    Fetcher
	merger     *livedata.Merger
	assembler  *assembler.Assembler
	logger     logger.Logger
}

// New wires the pipeline stages. fetcher may be nil when live data is
// disabled; every other collaborator is required. topK bounds similarity
// results per query.
func New(
	cfg config.PipelineConfig,
	snapshot *catalog.Snapshot,
	cls *classifier.Classifier,
	m *matcher.Matcher,
	r retriever.Retriever,
	topK int,
	fetcher Fetcher,
	merger *livedata.Merger,
	asm *assembler.Assembler,
	log logger.Logger,
) *Pipeline {
	if topK < 1 {
		topK = retriever.DefaultTopK
	}
	return &Pipeline{
		cfg:        cfg,
		snapshot:   snapshot,
		classifier: cls,
		matcher:    m,
		retriever:  r,
		topK:       topK,
		fetcher:    fetcher,
		merger:     merger,
		assembler:  asm,
		logger:     log.With(map[string]interface{}{"component": "pipeline"}),
	}
}

// ProcessQuery runs the full pipeline for one query. Malformed input (over
// the length bound or invalid UTF-8) is the caller's error; everything the
// collaborators can get wrong at runtime degrades the result instead.
func (p *Pipeline) ProcessQuery(ctx context.Context, query, jurisdiction string, history []models.Turn) (*Result, error) {
	start := time.Now()

	query = sanitize(query)
	if err := p.validate(query); err != nil {
		metrics.QueriesProcessed.WithLabelValues("rejected").Inc()
		return nil, err
	}

	queryID := uuid.New().String()
	log := p.logger.With(map[string]interface{}{"queryId": queryID})
	log.Info("processing query", map[string]interface{}{
		"jurisdiction": jurisdiction,
		"queryLength":  len(query),
	})

	rc := models.NewRetrievalContext(queryID, query, strings.ToUpper(strings.TrimSpace(jurisdiction)), p.trimHistory(history))
	var degraded []string

	// the live fetch is the latency hog, start it before anything else
	liveCh := p.startLiveFetch(ctx, query, rc.Jurisdiction)

	stageStart := time.Now()
	rc.Candidates = p.classifier.Classify(query)
	metrics.StageDuration.WithLabelValues("classify").Observe(time.Since(stageStart).Seconds())

	catalogEntries, similarityEntries, retrievalErr := p.matchAndRetrieve(ctx, rc)
	if retrievalErr != nil {
		if !apperrors.IsRecoverable(retrievalErr) {
			metrics.QueriesProcessed.WithLabelValues("error").Inc()
			return nil, retrievalErr
		}
		log.Warn("similarity retrieval degraded", map[string]interface{}{
			"error": retrievalErr.Error(),
		})
		metrics.DegradedResults.WithLabelValues("retrieval_unavailable").Inc()
		degraded = append(degraded, "retrieval_unavailable")
	}

	stageStart = time.Now()
	p.merger.Merge(rc, catalogEntries)
	p.merger.Merge(rc, similarityEntries)
	metrics.StageDuration.WithLabelValues("merge").Observe(time.Since(stageStart).Seconds())

	if cause := p.joinLiveFetch(ctx, rc, liveCh, log); cause != "" {
		metrics.DegradedResults.WithLabelValues(cause).Inc()
		degraded = append(degraded, cause)
	}

	stageStart = time.Now()
	prompt, err := p.assembler.Assemble(rc)
	metrics.StageDuration.WithLabelValues("assemble").Observe(time.Since(stageStart).Seconds())
	if err != nil {
		if !apperrors.IsRecoverable(err) {
			metrics.QueriesProcessed.WithLabelValues("error").Inc()
			return nil, err
		}
		log.Warn("fixed sections exceed the budget, rendering minimal narrative", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.DegradedResults.WithLabelValues("prompt_overflow").Inc()
		degraded = append(degraded, "prompt_overflow")
		prompt = p.assembler.Minimal(rc)
	}
	if prompt.Truncated {
		metrics.PromptTruncations.Inc()
	}

	status := "success"
	if len(degraded) > 0 {
		status = "degraded"
	}
	metrics.QueriesProcessed.WithLabelValues(status).Inc()

	log.Info("query processed", map[string]interface{}{
		"status":        status,
		"businessType":  rc.TopCandidate().TypeID,
		"licenseCount":  rc.LicenseCount(),
		"dataFreshness": prompt.StructuredSummary.DataFreshness,
		"durationMs":    time.Since(start).Milliseconds(),
	})

	return &Result{Prompt: prompt, RC: rc, Degraded: degraded}, nil
}

// GetStructuredSummary returns the machine-readable view of an assembled
// prompt, zero-valued for a nil prompt.
func GetStructuredSummary(prompt *models.AssembledPrompt) models.StructuredSummary {
	if prompt == nil {
		return models.StructuredSummary{}
	}
	return prompt.StructuredSummary
}

// sanitize strips control characters and outer whitespace; tabs and newlines
// become spaces so multi-line input stays one query.
func sanitize(query string) string {
	query = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, query)
	return strings.TrimSpace(query)
}

func (p *Pipeline) validate(query string) error {
	if p.cfg.MaxQueryLength > 0 && len(query) > p.cfg.MaxQueryLength {
		return apperrors.NewMalformedQueryError("query exceeds maximum length")
	}
	if !utf8.ValidString(query) {
		return apperrors.NewMalformedQueryError("query is not valid UTF-8")
	}
	return nil
}

// trimHistory keeps the most recent turns only; old context dilutes the
// prompt without improving answers.
func (p *Pipeline) trimHistory(history []models.Turn) []models.Turn {
	limit := p.cfg.HistoryTurns
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}

type liveResult struct {
	docs []livedata.FetchedDocument
	err  error
}

func (p *Pipeline) startLiveFetch(ctx context.Context, query, jurisdiction string) <-chan liveResult {
	if p.fetcher == nil {
		return nil
	}
	ch := make(chan liveResult, 1)
	go func() {
		// detached from the soft deadline on purpose: a late fetch still
		// warms the cache for the next turn even though its result is
		// discarded for this query
		docs, err := p.fetcher.Fetch(ctx, query, jurisdiction)
		ch <- liveResult{docs: docs, err: err}
	}()
	return ch
}

// matchAndRetrieve runs the catalog matcher and the similarity retriever
// concurrently; they have no data dependency on each other.
func (p *Pipeline) matchAndRetrieve(ctx context.Context, rc *models.RetrievalContext) ([]models.LicenseEntry, []models.LicenseEntry, error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var catalogEntries, similarityEntries []models.LicenseEntry
	var retrievalErr error

	stageStart := time.Now()

	wg.Add(2)
	go func() {
		defer wg.Done()
		entries := p.matcher.Match(rc.TopCandidate(), rc.Jurisdiction)
		mu.Lock()
		catalogEntries = entries
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		entries, err := p.retriever.Retrieve(ctx, rc.Query, rc.Jurisdiction, p.topK)
		mu.Lock()
		similarityEntries = entries
		retrievalErr = err
		mu.Unlock()
	}()
	wg.Wait()

	metrics.StageDuration.WithLabelValues("match_retrieve").Observe(time.Since(stageStart).Seconds())
	return catalogEntries, similarityEntries, retrievalErr
}

// joinLiveFetch waits for the live fetch up to the soft deadline and merges
// whatever arrived. Returns the degradation cause, or "" for a clean merge.
func (p *Pipeline) joinLiveFetch(ctx context.Context, rc *models.RetrievalContext, liveCh <-chan liveResult, log logger.Logger) string {
	if liveCh == nil {
		return ""
	}

	deadline := time.Duration(p.cfg.FetchTimeout) * time.Millisecond
	if deadline <= 0 {
		deadline = 15 * time.Second
	}
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	var res liveResult
	select {
	case res = <-liveCh:
	case <-timer.C:
		log.Warn("live fetch missed the soft deadline, proceeding without it", map[string]interface{}{
			"deadlineMs": deadline.Milliseconds(),
		})
		return "fetch_timeout"
	case <-ctx.Done():
		return "fetch_timeout"
	}

	if res.err != nil {
		if !apperrors.IsRecoverable(res.err) {
			log.Error("live fetch failed", map[string]interface{}{"error": res.err.Error()})
		} else {
			log.Warn("live fetch degraded", map[string]interface{}{"error": res.err.Error()})
		}
		if apperrors.CodeOf(res.err) == apperrors.ErrCodeFetchTimeout {
			return "fetch_timeout"
		}
		return "fetch_failed"
	}

	stageStart := time.Now()
	entries := livedata.Extract(res.docs, rc.Jurisdiction)
	merged := p.merger.Merge(rc, entries)
	metrics.StageDuration.WithLabelValues("live_merge").Observe(time.Since(stageStart).Seconds())
	metrics.LiveEntriesMerged.Add(float64(merged))
	return ""
}
