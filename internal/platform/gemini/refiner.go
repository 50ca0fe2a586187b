// Package gemini implements the refinement capability using Google's
// Gemini API: it summarizes a feedback item, revises the topic list,
// and produces the urgency/action insights block from the fan-out
// results of the analysis pipeline.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lumenvoice/feedback-api/internal/capability"
	"github.com/lumenvoice/feedback-api/internal/config"
	"github.com/lumenvoice/feedback-api/internal/domain"
	"google.golang.org/genai"
)

// tieBreakThreshold is the sentiment confidence below which the model
// is asked to produce a tie-break note.
const tieBreakThreshold = 0.6

// maxAttempts bounds retries for transient API failures.
const maxAttempts = 3

// baseRetryDelay is the delay before the first retry; subsequent
// retries double it.
const baseRetryDelay = 2 * time.Second

// Refiner implements capability.Refiner using the Gemini API.
type Refiner struct {
	logger *slog.Logger
	client *genai.Client
	model  string
}

// NewRefiner creates a new Refiner with the provided dependencies.
func NewRefiner(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Refiner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", capability.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", capability.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			capability.ErrInvalidConfig, err)
	}

	return &Refiner{
		logger: logger,
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// Refine runs the refinement pass over the text and the prior fan-out
// results. Transient API failures are retried with doubling delays;
// malformed or safety-blocked responses fail immediately.
func (r *Refiner) Refine(
	ctx context.Context,
	text string,
	prior capability.PriorAnalysis,
) (capability.RefinementResult, error) {
	prompt := buildPrompt(text, prior)

	delay := baseRetryDelay
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := r.client.Models.GenerateContent(ctx, r.model, genai.Text(prompt),
			&genai.GenerateContentConfig{
				Temperature: genai.Ptr[float32](0.3),
				TopP:        genai.Ptr[float32](0.9),
			})

		switch {
		case err != nil:
			// Assume transient, retry below.
			lastErr = fmt.Errorf("%w: %v", capability.ErrUnavailable, err)
			r.logger.WarnContext(ctx, "refinement API call failed",
				"attempt", attempt,
				"error", err)
		case resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil:
			return capability.RefinementResult{}, fmt.Errorf(
				"%w: no content generated", capability.ErrInvalidResponse)
		case resp.Candidates[0].FinishReason == genai.FinishReasonSafety:
			return capability.RefinementResult{}, fmt.Errorf(
				"%w: refinement prompt rejected", capability.ErrContentBlocked)
		default:
			raw := resp.Text()
			result, perr := parseResponse(raw, prior)
			if perr != nil {
				return capability.RefinementResult{}, perr
			}
			return result, nil
		}

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return capability.RefinementResult{}, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return capability.RefinementResult{}, lastErr
}

// buildPrompt renders the refinement prompt from the text and the
// structured summary of prior results: language, top sentiment, top 3
// topics, top 3 entities.
func buildPrompt(text string, prior capability.PriorAnalysis) string {
	topics := make([]string, 0, 3)
	for _, t := range prior.Topics {
		if len(topics) == 3 {
			break
		}
		topics = append(topics, t.Label)
	}

	entities := make([]string, 0, 3)
	for _, e := range prior.Entities {
		if len(entities) == 3 {
			break
		}
		entities = append(entities, e.Text)
	}

	var b strings.Builder
	b.WriteString("You are an expert customer feedback analyst. Analyze the following customer feedback and respond with JSON only.\n\n")
	fmt.Fprintf(&b, "Customer Feedback:\n%q\n\n", text)
	b.WriteString("Previous Analysis:\n")
	fmt.Fprintf(&b, "- Language: %s\n", prior.Language)
	fmt.Fprintf(&b, "- Sentiment: %s (confidence: %.2f)\n", prior.Sentiment.Label, prior.Sentiment.Confidence)
	fmt.Fprintf(&b, "- Topics: %s\n", strings.Join(topics, ", "))
	fmt.Fprintf(&b, "- Key Entities: %s\n\n", strings.Join(entities, ", "))
	b.WriteString(`Respond in this JSON format:
{
  "summary": "brief summary of the feedback in 1-2 sentences",
  "topics": [{"label": "normalized_topic", "score": 0.85, "confidence": 0.9}],
  "tie_break": {"needed": false, "reasoning": "explanation if sentiment confidence was low"},
  "insights": {
    "urgency": "low|medium|high",
    "action_recommendation": "specific actionable recommendation",
    "confidence": 0.85,
    "reasoning": "why this urgency and action is recommended"
  }
}

Guidelines:
- Normalize topics to: price, service, product, delivery, location, quality, after-sales
- Urgency: low (positive feedback, minor issues), medium (constructive criticism), high (serious complaints, service failures)
- Include tie_break only if the sentiment confidence above is below 0.6
`)

	return b.String()
}

// refinementSchema mirrors the JSON structure requested in the prompt.
type refinementSchema struct {
	Summary string `json:"summary"`
	Topics  []struct {
		Label      string  `json:"label"`
		Score      float64 `json:"score"`
		Confidence float64 `json:"confidence"`
	} `json:"topics"`
	TieBreak *struct {
		Needed    bool   `json:"needed"`
		Reasoning string `json:"reasoning"`
	} `json:"tie_break"`
	Insights struct {
		Urgency              string  `json:"urgency"`
		ActionRecommendation string  `json:"action_recommendation"`
		Confidence           float64 `json:"confidence"`
		Reasoning            string  `json:"reasoning"`
	} `json:"insights"`
}

// parseResponse extracts and validates the JSON document embedded in
// the model output. The tie-break note is kept only when the incoming
// sentiment confidence was below the tie-break threshold.
func parseResponse(raw string, prior capability.PriorAnalysis) (capability.RefinementResult, error) {
	doc := extractJSON(raw)
	if doc == "" {
		return capability.RefinementResult{}, fmt.Errorf(
			"%w: no JSON document in model output", capability.ErrInvalidResponse)
	}

	var schema refinementSchema
	if err := json.Unmarshal([]byte(doc), &schema); err != nil {
		return capability.RefinementResult{}, fmt.Errorf(
			"%w: %v", capability.ErrInvalidResponse, err)
	}

	result := capability.RefinementResult{
		Summary: schema.Summary,
		Raw:     raw,
		Insights: domain.Insights{
			Urgency:              domain.NormalizeUrgency(strings.ToLower(schema.Insights.Urgency)),
			ActionRecommendation: schema.Insights.ActionRecommendation,
			Confidence:           schema.Insights.Confidence,
			Reasoning:            schema.Insights.Reasoning,
		},
	}

	if result.Insights.ActionRecommendation == "" {
		result.Insights.ActionRecommendation = "No specific action required"
	}

	for _, topic := range schema.Topics {
		if topic.Label == "" {
			continue
		}
		confidence := topic.Confidence
		if confidence == 0 {
			confidence = topic.Score
		}
		result.Topics = append(result.Topics, domain.TopicScore{
			Label:      topic.Label,
			Score:      topic.Score,
			Confidence: confidence,
		})
	}

	if schema.TieBreak != nil && prior.Sentiment.Confidence < tieBreakThreshold {
		result.TieBreak = &domain.TieBreak{
			Needed:    schema.TieBreak.Needed,
			Reasoning: schema.TieBreak.Reasoning,
		}
	}

	return result, nil
}

// extractJSON returns the first top-level JSON object embedded in s,
// or an empty string when none is found.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
