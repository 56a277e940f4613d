// Package genai is the opaque model-call collaborator. The pipeline hands it
// an assembled prompt and expects text back eventually, or an error; nothing
// in the core depends on any richer contract.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"license-navigator/internal/common/config"
	apperrors "license-navigator/internal/common/errors"
	"license-navigator/internal/models"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Generator is the capability the chat shell consumes.
type Generator interface {
	Generate(ctx context.Context, prompt *models.AssembledPrompt) (string, error)
}

type Client struct {
	config  config.GenAIConfig
	client  *http.Client
	timeout time.Duration
	logger  Logger
}

func NewClient(cfg config.GenAIConfig, log Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Client{
		config: cfg,
		// no client timeout, the per-call context bounds each request
		client:  &http.Client{},
		timeout: timeout,
		logger: log.With(map[string]interface{}{
			"component": "genai",
		}),
	}
}

// Generate sends the narrative and structured summary to the generation
// endpoint and returns the synthesized answer. 4xx responses are permanent
// and not retried; 5xx and transport errors retry with exponential backoff.
func (c *Client) Generate(ctx context.Context, prompt *models.AssembledPrompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestBody := map[string]interface{}{
		"prompt":      prompt.NarrativeText,
		"context":     prompt.StructuredSummary,
		"max_tokens":  c.config.MaxTokens,
		"temperature": c.config.Temperature,
	}
	body, _ := json.Marshal(requestBody)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", apperrors.NewLLMTimeoutError()
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/api/ai/generate", bytes.NewBuffer(body))
		if err != nil {
			return "", apperrors.NewLLMSynthesisFailedError(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		}

		resp, lastErr = c.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			status := resp.StatusCode
			resp.Body.Close()
			resp = nil
			if status >= 400 && status < 500 {
				return "", apperrors.NewLLMPermanentFailureError(status, "generation endpoint rejected the request")
			}
			lastErr = fmt.Errorf("status %d", status)
		}
		if ctx.Err() != nil {
			return "", apperrors.NewLLMTimeoutError()
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", apperrors.NewLLMTimeoutError()
		}
		return "", apperrors.NewLLMSynthesisFailedError(lastErr)
	}
	if resp == nil {
		return "", apperrors.NewLLMSynthesisFailedError(fmt.Errorf("no successful response after retries"))
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", apperrors.NewLLMSynthesisFailedError(fmt.Errorf("decode error: %w", err))
	}

	if strings.TrimSpace(apiResponse.Text) == "" {
		apiResponse.Text = "I don't have enough information to answer that question."
	}

	c.logger.Info("generation completed", map[string]interface{}{
		"responseLength": len(apiResponse.Text),
	})
	return apiResponse.Text, nil
}
