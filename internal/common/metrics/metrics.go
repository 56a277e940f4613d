// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_queries_processed_total",
			Help: "Total number of queries processed by the pipeline",
		},
		[]string{"status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_stage_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	DegradedResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_degraded_results_total",
			Help: "Queries answered with reduced quality, by cause",
		},
		[]string{"cause"},
	)

	PromptTruncations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_prompt_truncations_total",
			Help: "Assembled prompts that exceeded the character budget",
		},
	)

	LiveEntriesMerged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_live_entries_merged_total",
			Help: "License entries merged from live-fetched documents",
		},
	)
)
