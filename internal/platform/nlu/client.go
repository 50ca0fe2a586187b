// Package nlu implements the entity extraction capability against a
// natural-language-understanding API exposing entities, keywords, and
// category classification for a text.
package nlu

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
	"github.com/lumenvoice/feedback-api/internal/domain"
)

// apiVersion is the NLU API version the client pins itself to.
const apiVersion = "2022-04-07"

// Per-feature result limits requested from the API.
const (
	keywordLimit  = 10
	categoryLimit = 5
)

// supportedLanguages are the codes the NLU service accepts. Anything
// else (including the auto sentinel) falls back to English.
var supportedLanguages = map[string]struct{}{
	"en": {}, "es": {}, "fr": {}, "de": {}, "it": {}, "pt": {},
	"ru": {}, "ja": {}, "ko": {}, "zh": {}, "ar": {},
}

// Client calls the NLU API. It implements capability.EntityExtractor.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an NLU API client from the given configuration.
func NewClient(cfg config.NLUConfig, logger *slog.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: NLU URL cannot be empty", capability.ErrInvalidConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: NLU API key cannot be empty", capability.ErrInvalidConfig)
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Client{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// analyzeResponse is the subset of the NLU response the extractor consumes.
type analyzeResponse struct {
	Entities []struct {
		Text       string         `json:"text"`
		Type       string         `json:"type"`
		Confidence float64        `json:"confidence"`
		Count      int            `json:"count"`
		Sentiment  map[string]any `json:"sentiment"`
	} `json:"entities"`
	Keywords []struct {
		Text      string  `json:"text"`
		Relevance float64 `json:"relevance"`
		Count     int     `json:"count"`
	} `json:"keywords"`
	Categories []struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	} `json:"categories"`
}

// ExtractEntities extracts entities, keywords, and categories from the
// text, using the closest supported language for the given hint.
func (c *Client) ExtractEntities(
	ctx context.Context,
	text, language string,
) (capability.EntityResult, error) {
	lang := c.languageCode(language)

	body := map[string]any{
		"text": text,
		"features": map[string]any{
			"entities": map[string]any{"sentiment": true},
			"keywords": map[string]any{"sentiment": true, "limit": keywordLimit},
			"categories": map[string]any{"limit": categoryLimit},
		},
		"language":             lang,
		"return_analyzed_text": false,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return capability.EntityResult{}, fmt.Errorf("failed to encode NLU request: %w", err)
	}

	url := c.url + "/v1/analyze?version=" + apiVersion
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return capability.EntityResult{}, fmt.Errorf("failed to build NLU request: %w", err)
	}
	req.SetBasicAuth("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return capability.EntityResult{}, fmt.Errorf("%w: %v", capability.ErrUnavailable, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close NLU response body", "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("NLU API error",
			"status", resp.StatusCode,
			"body", string(snippet))
		return capability.EntityResult{}, fmt.Errorf(
			"%w: status %d", capability.ErrUnavailable, resp.StatusCode)
	}

	var raw analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return capability.EntityResult{}, fmt.Errorf("%w: %v", capability.ErrInvalidResponse, err)
	}

	result := capability.EntityResult{Service: "nlu"}

	for _, e := range raw.Entities {
		entity := domain.Entity{
			Text:       e.Text,
			Type:       strings.ToLower(e.Type),
			Confidence: e.Confidence,
		}
		if e.Count > 0 || e.Sentiment != nil {
			entity.Metadata = map[string]any{"count": e.Count}
			if e.Sentiment != nil {
				entity.Metadata["sentiment"] = e.Sentiment
			}
		}
		result.Entities = append(result.Entities, entity)
	}

	for _, k := range raw.Keywords {
		result.Keywords = append(result.Keywords, domain.Keyword{
			Text:      k.Text,
			Relevance: k.Relevance,
			Count:     k.Count,
		})
	}

	for _, cat := range raw.Categories {
		result.Categories = append(result.Categories, domain.Category{
			Label: cat.Label,
			Score: cat.Score,
		})
	}

	return result, nil
}

// languageCode maps a detected language onto a code the NLU service supports.
func (c *Client) languageCode(language string) string {
	if _, ok := supportedLanguages[language]; ok {
		return language
	}
	return "en"
}
