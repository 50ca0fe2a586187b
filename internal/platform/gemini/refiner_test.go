package gemini

import (
	"testing"

	"github.com/lumenvoice/feedback-api/internal/capability"
	"github.com/lumenvoice/feedback-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = "Here is the analysis:\n" + `{
  "summary": "Customer reports a late delivery and unhelpful support.",
  "topics": [
    {"label": "delivery", "score": 0.9, "confidence": 0.92},
    {"label": "service", "score": 0.6}
  ],
  "tie_break": {"needed": true, "reasoning": "sentiment was ambiguous"},
  "insights": {
    "urgency": "HIGH",
    "action_recommendation": "Contact the customer within 24 hours",
    "confidence": 0.85,
    "reasoning": "Repeated service failure"
  }
}`

func TestParseResponse(t *testing.T) {
	t.Parallel()

	t.Run("full document", func(t *testing.T) {
		t.Parallel()

		prior := capability.PriorAnalysis{
			Sentiment: capability.SentimentResult{Confidence: 0.4},
		}

		result, err := parseResponse(sampleResponse, prior)
		require.NoError(t, err)

		assert.Equal(t, "Customer reports a late delivery and unhelpful support.", result.Summary)
		assert.Equal(t, domain.UrgencyHigh, result.Insights.Urgency)
		assert.Equal(t, "Contact the customer within 24 hours", result.Insights.ActionRecommendation)

		require.Len(t, result.Topics, 2)
		assert.Equal(t, "delivery", result.Topics[0].Label)
		assert.InDelta(t, 0.92, result.Topics[0].Confidence, 1e-9)
		// Confidence falls back to score when absent.
		assert.InDelta(t, 0.6, result.Topics[1].Confidence, 1e-9)

		require.NotNil(t, result.TieBreak)
		assert.True(t, result.TieBreak.Needed)
	})

	t.Run("tie break dropped at confident sentiment", func(t *testing.T) {
		t.Parallel()

		prior := capability.PriorAnalysis{
			Sentiment: capability.SentimentResult{Confidence: 0.9},
		}

		result, err := parseResponse(sampleResponse, prior)
		require.NoError(t, err)
		assert.Nil(t, result.TieBreak)
	})

	t.Run("no JSON in output", func(t *testing.T) {
		t.Parallel()

		_, err := parseResponse("I could not analyze this.", capability.PriorAnalysis{})
		assert.ErrorIs(t, err, capability.ErrInvalidResponse)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		t.Parallel()

		_, err := parseResponse(`{"summary": `+"`broken`"+`}`, capability.PriorAnalysis{})
		assert.ErrorIs(t, err, capability.ErrInvalidResponse)
	})

	t.Run("unknown urgency defaults to low", func(t *testing.T) {
		t.Parallel()

		result, err := parseResponse(
			`{"summary":"s","insights":{"urgency":"critical","action_recommendation":"a"}}`,
			capability.PriorAnalysis{})
		require.NoError(t, err)
		assert.Equal(t, domain.UrgencyLow, result.Insights.Urgency)
	})
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prior := capability.PriorAnalysis{
		Language: "en",
		Sentiment: capability.SentimentResult{
			Label:      domain.SentimentNegative,
			Confidence: 0.88,
		},
		Topics: []domain.TopicScore{
			{Label: "delivery"}, {Label: "service"}, {Label: "quality"}, {Label: "price"},
		},
		Entities: []domain.Entity{
			{Text: "Jakarta"}, {Text: "warehouse"},
		},
	}

	prompt := buildPrompt("The package arrived broken.", prior)

	assert.Contains(t, prompt, `"The package arrived broken."`)
	assert.Contains(t, prompt, "negative (confidence: 0.88)")
	assert.Contains(t, prompt, "- Topics: delivery, service, quality\n", "only the top 3 topics are included")
	assert.Contains(t, prompt, "Jakarta, warehouse")
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":1}`, extractJSON("noise {\"a\":1} trailing"))
	assert.Equal(t, `{"a":{"b":2}}`, extractJSON(`{"a":{"b":2}}`))
	assert.Empty(t, extractJSON("no json here"))
	assert.Empty(t, extractJSON("}{"))
}
