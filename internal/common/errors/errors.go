// Package errors provides standardized error handling for the retrieval pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Fatal at startup: the catalog document failed schema validation or
	// could not be read at all.
	ErrCodeConfigInvalid     ErrorCode = "CONFIG_INVALID"
	ErrCodeCatalogLoadFailed ErrorCode = "CATALOG_LOAD_FAILED"

	// Per-query, fatal to the query: the caller handed the pipeline
	// something that is not a usable question. An empty query is not an
	// error; it classifies to the unknown sentinel.
	ErrCodeMalformedQuery ErrorCode = "MALFORMED_QUERY"

	// Recoverable: absorbed inside the pipeline, reflected only as reduced
	// result quality.
	ErrCodeRetrievalUnavailable ErrorCode = "RETRIEVAL_UNAVAILABLE"
	ErrCodeEmbeddingFailed      ErrorCode = "EMBEDDING_FAILED"
	ErrCodeFetchTimeout         ErrorCode = "FETCH_TIMEOUT"
	ErrCodeFetchFailed          ErrorCode = "FETCH_FAILED"
	ErrCodePromptTooLarge       ErrorCode = "PROMPT_TOO_LARGE"

	// Model-call collaborator.
	ErrCodeLLMTimeout          ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMSynthesisFailed  ErrorCode = "LLM_SYNTHESIS_FAILED"
	ErrCodeLLMPermanentFailure ErrorCode = "LLM_PERMANENT_FAILURE"

	// Infrastructure.
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout            ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound            ErrorCode = "INDEX_NOT_FOUND"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from err, or empty when err is not a
// StandardError anywhere in its chain.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsRecoverable reports whether the pipeline should absorb err and continue
// with degraded results instead of failing the query.
func IsRecoverable(err error) bool {
	switch CodeOf(err) {
	case ErrCodeRetrievalUnavailable, ErrCodeEmbeddingFailed,
		ErrCodeFetchTimeout, ErrCodeFetchFailed, ErrCodePromptTooLarge,
		ErrCodeSearchQueryFailed, ErrCodeSearchTimeout:
		return true
	}
	return false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewConfigInvalidError creates a fatal startup configuration error.
func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Catalog document failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogLoadFailedError creates a fatal catalog load error.
func NewCatalogLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLoadFailed,
		Message:   "Catalog document could not be loaded",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedQueryError creates a non-retryable malformed input error.
func NewMalformedQueryError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedQuery,
		Message:   "Query text is not usable",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRetrievalUnavailableError creates a recoverable retrieval error: the
// similarity index is down and the keyword fallback also failed.
func NewRetrievalUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRetrievalUnavailable,
		Message:   "Similarity retrieval unavailable, continuing degraded",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmbeddingFailedError creates a recoverable embedding error.
func NewEmbeddingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingFailed,
		Message:   "Query embedding failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewFetchTimeoutError creates a recoverable live-fetch timeout error.
func NewFetchTimeoutError(jurisdiction string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFetchTimeout,
		Message:   "Live data fetch exceeded its deadline",
		Details:   fmt.Sprintf("jurisdiction: %s", jurisdiction),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewFetchFailedError creates a recoverable live-fetch error.
func NewFetchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFetchFailed,
		Message:   "Live data fetch failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPromptTooLargeError creates a recoverable truncation marker error. It is
// never surfaced to the caller; the assembler applies its truncation policy.
func NewPromptTooLargeError(have, budget int) *StandardError {
	return &StandardError{
		Code:      ErrCodePromptTooLarge,
		Message:   "Assembled narrative exceeds character budget",
		Details:   fmt.Sprintf("have: %d, budget: %d", have, budget),
		Retryable: true,
		Metadata:  map[string]interface{}{"have": have, "budget": budget},
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable model-call timeout error.
func NewLLMTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "Generative model call timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMSynthesisFailedError creates a retryable model-call error.
func NewLLMSynthesisFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMSynthesisFailed,
		Message:   "Generative model call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMPermanentFailureError creates a non-retryable model-call error.
func NewLLMPermanentFailureError(status int, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMPermanentFailure,
		Message:   "Generative model rejected the request",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Search index query error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable search timeout error.
func NewSearchTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Search index query timeout",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexNotFoundError creates a non-retryable index not found error.
func NewIndexNotFoundError(indexName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexNotFound,
		Message:   "Search index not found",
		Details:   fmt.Sprintf("indexName: %s", indexName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
