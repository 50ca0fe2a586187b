// Package orchestrate implements the automation dispatch capability
// against the downstream workflow automation API.
package orchestrate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lumenvoice/feedback-api/internal/capability"
	"github.com/lumenvoice/feedback-api/internal/config"
)

// maxResponseBytes bounds how much of an upstream response body is
// retained for the stored dispatch record.
const maxResponseBytes = 64 * 1024

// Client submits skill runs to the automation API. It implements
// capability.Dispatcher.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an automation API client from the given configuration.
func NewClient(cfg config.AutomationConfig, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: automation base URL cannot be empty", capability.ErrInvalidConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: automation API key cannot be empty", capability.ErrInvalidConfig)
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// Dispatch triggers the named skill with the given payload. A 200, 201,
// or 202 response counts as an accepted submission; any other status is
// reported as an unsuccessful result rather than an error, so the caller
// can record the upstream rejection and apply its retry policy.
func (c *Client) Dispatch(
	ctx context.Context,
	skillID string,
	payload json.RawMessage,
) (capability.DispatchResult, error) {
	if skillID == "" {
		return capability.DispatchResult{}, errors.New("skill ID cannot be empty")
	}

	url := fmt.Sprintf("%s/v1/skills/%s/run", c.baseURL, skillID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return capability.DispatchResult{}, fmt.Errorf("failed to build dispatch request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return capability.DispatchResult{}, fmt.Errorf("%w: %v", capability.ErrUnavailable, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close dispatch response body", "error", cerr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return capability.DispatchResult{}, fmt.Errorf("%w: %v", capability.ErrUnavailable, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return acceptedResult(body)
	default:
		c.logger.Error("automation API rejected dispatch",
			"skill_id", skillID,
			"status", resp.StatusCode,
			"body", truncate(string(body), 512))
		return capability.DispatchResult{
			Success:  false,
			Response: json.RawMessage(body),
			Error:    fmt.Sprintf("API error: %d", resp.StatusCode),
		}, nil
	}
}

// acceptedResult builds the successful dispatch result, pulling the
// external reference from the run_id or id field when present.
func acceptedResult(body []byte) (capability.DispatchResult, error) {
	var envelope struct {
		RunID string `json:"run_id"`
		ID    string `json:"id"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return capability.DispatchResult{}, fmt.Errorf("%w: %v", capability.ErrInvalidResponse, err)
	}

	ref := envelope.RunID
	if ref == "" {
		ref = envelope.ID
	}

	return capability.DispatchResult{
		Success:     true,
		Response:    json.RawMessage(body),
		ExternalRef: ref,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
