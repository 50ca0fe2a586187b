// Package inference implements the sentiment analysis and topic
// classification capabilities against a hosted-model inference API.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/lumenvoice/feedback-api/internal/capability"
	"github.com/lumenvoice/feedback-api/internal/config"
	"github.com/lumenvoice/feedback-api/internal/domain"
)

// Model identifiers used per capability. The multilingual sentiment
// model covers everything except English.
const (
	sentimentModelEnglish      = "distilbert-base-uncased-finetuned-sst-2-english"
	sentimentModelMultilingual = "twitter-xlm-roberta-base-sentiment-multilingual"
	topicModel                 = "bart-large-mnli"
)

// topicThreshold is the minimum zero-shot score a candidate label needs
// to be reported as a topic.
const topicThreshold = 0.35

// candidateLabels are the zero-shot candidates offered to the topic
// model. Variants are normalized onto the canonical labels below.
var candidateLabels = []string{
	"price", "pricing", "billing",
	"service", "customer service",
	"product", "product quality",
	"delivery", "shipping",
	"location", "place",
	"quality", "quality control",
	"after-sales", "support", "technical support",
}

// topicAliases maps candidate-label variants onto canonical topic labels.
var topicAliases = map[string]string{
	"pricing": "price", "billing": "price",
	"customer service": "service",
	"product quality":  "product",
	"shipping":         "delivery",
	"place":            "location",
	"quality control":  "quality",
	"support":          "after-sales", "technical support": "after-sales",
}

// Client calls the inference API for sentiment and topic capabilities.
// It implements capability.SentimentAnalyzer and capability.TopicClassifier.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an inference API client from the given configuration.
func NewClient(cfg config.InferenceConfig, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: inference base URL cannot be empty", capability.ErrInvalidConfig)
	}
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("%w: inference API token cannot be empty", capability.ErrInvalidConfig)
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiToken:   cfg.APIToken,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// AnalyzeSentiment classifies the tone of the text using the model best
// suited to the given language hint.
func (c *Client) AnalyzeSentiment(
	ctx context.Context,
	text, language string,
) (capability.SentimentResult, error) {
	model := sentimentModelForLanguage(language)

	body := map[string]any{"inputs": text}

	// The API returns one score list per input.
	var raw [][]struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := c.post(ctx, model, body, &raw); err != nil {
		return capability.SentimentResult{}, err
	}

	if len(raw) == 0 || len(raw[0]) == 0 {
		return capability.SentimentResult{}, fmt.Errorf(
			"%w: empty sentiment score list", capability.ErrInvalidResponse)
	}

	best := raw[0][0]
	for _, s := range raw[0][1:] {
		if s.Score > best.Score {
			best = s
		}
	}

	return capability.SentimentResult{
		Label:      normalizeSentimentLabel(best.Label),
		Score:      best.Score,
		Confidence: best.Score,
		Model:      model,
	}, nil
}

// ClassifyTopics runs zero-shot topic classification over the text and
// returns the labels above the score threshold, highest first.
func (c *Client) ClassifyTopics(
	ctx context.Context,
	text string,
) (capability.TopicResult, error) {
	body := map[string]any{
		"inputs": text,
		"parameters": map[string]any{
			"candidate_labels": candidateLabels,
			"multi_label":      true,
		},
	}

	var raw struct {
		Labels []string  `json:"labels"`
		Scores []float64 `json:"scores"`
	}
	if err := c.post(ctx, topicModel, body, &raw); err != nil {
		return capability.TopicResult{}, err
	}

	if len(raw.Labels) != len(raw.Scores) {
		return capability.TopicResult{}, fmt.Errorf(
			"%w: label/score length mismatch", capability.ErrInvalidResponse)
	}

	seen := map[string]struct{}{}
	var topics []domain.TopicScore
	for i, label := range raw.Labels {
		if raw.Scores[i] < topicThreshold {
			continue
		}
		normalized := normalizeTopicLabel(label)
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		topics = append(topics, domain.TopicScore{
			Label:      normalized,
			Score:      raw.Scores[i],
			Confidence: raw.Scores[i],
		})
	}

	sort.Slice(topics, func(i, j int) bool { return topics[i].Score > topics[j].Score })

	return capability.TopicResult{
		Topics:    topics,
		Model:     topicModel,
		Threshold: topicThreshold,
	}, nil
}

// post sends a JSON request to the model endpoint and decodes the response.
func (c *Client) post(ctx context.Context, model string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode inference request: %w", err)
	}

	url := c.baseURL + "/" + model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build inference request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", capability.ErrUnavailable, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close inference response body", "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("inference API error",
			"model", model,
			"status", resp.StatusCode,
			"body", string(snippet))
		return fmt.Errorf("%w: status %d", capability.ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", capability.ErrInvalidResponse, err)
	}

	return nil
}

// sentimentModelForLanguage picks the sentiment model for a language
// hint. English gets the dedicated model, everything else (including
// the auto sentinel) the multilingual one.
func sentimentModelForLanguage(language string) string {
	if language == "en" {
		return sentimentModelEnglish
	}
	return sentimentModelMultilingual
}

// normalizeSentimentLabel maps model-specific label spellings onto the
// domain sentiment labels.
func normalizeSentimentLabel(label string) domain.SentimentLabel {
	switch strings.ToLower(label) {
	case "positive", "pos", "1":
		return domain.SentimentPositive
	case "negative", "neg", "0":
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// normalizeTopicLabel folds candidate-label variants onto canonical labels.
func normalizeTopicLabel(label string) string {
	lower := strings.ToLower(label)
	if canonical, ok := topicAliases[lower]; ok {
		return canonical
	}
	return lower
}
