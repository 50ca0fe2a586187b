package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SentimentLabel classifies the overall tone of a feedback item.
type SentimentLabel string

// Possible sentiment label values
const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// UrgencyLevel is the three-level severity classification driving
// automation decisions.
type UrgencyLevel string

// Possible urgency values
const (
	UrgencyLow    UrgencyLevel = "low"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyHigh   UrgencyLevel = "high"
)

// Common validation errors for Analysis
var (
	ErrEmptyAnalysisID         = errors.New("analysis ID cannot be empty")
	ErrEmptyAnalysisFeedbackID = errors.New("analysis feedback ID cannot be empty")
	ErrInvalidSentimentLabel   = errors.New("invalid sentiment label")
	ErrInvalidUrgencyLevel     = errors.New("invalid urgency level")
)

// TopicScore is a single classified topic with its model score.
type TopicScore struct {
	Label      string  `json:"label"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// Entity is a named entity extracted from the feedback text.
type Entity struct {
	Text       string         `json:"text"`
	Type       string         `json:"type"`
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Keyword is a salient term extracted alongside entities.
type Keyword struct {
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
	Count     int     `json:"count"`
}

// Category is a taxonomy classification of the feedback text.
type Category struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Sentiment holds the sentiment classification for a feedback item.
type Sentiment struct {
	Label      SentimentLabel `json:"label"`
	Score      float64        `json:"score"`
	Confidence float64        `json:"confidence"`
	Model      string         `json:"model"`
}

// Insights is the refined assessment produced by the refinement pass.
type Insights struct {
	Urgency              UrgencyLevel `json:"urgency"`
	ActionRecommendation string       `json:"action_recommendation"`
	Confidence           float64      `json:"confidence"`
	Reasoning            string       `json:"reasoning,omitempty"`
}

// TieBreak records a sentiment tie-break note. It is populated only
// when the incoming sentiment confidence was below the refinement
// service's tie-break threshold.
type TieBreak struct {
	Needed    bool   `json:"needed"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Analysis is the enrichment result for a single feedback item.
// Exactly one Analysis exists per Feedback once the pipeline completes;
// re-running without force-reanalysis returns the existing row.
//
// Errors accumulates non-fatal sub-step failures. A populated Errors
// slice never blocks completion, it records which capability calls were
// substituted with fallback values.
type Analysis struct {
	ID               uuid.UUID    `json:"id"`
	FeedbackID       uuid.UUID    `json:"feedback_id"`
	DetectedLanguage string       `json:"detected_language"`
	Sentiment        Sentiment    `json:"sentiment"`
	Topics           []TopicScore `json:"topics"`
	RefinedTopics    []TopicScore `json:"refined_topics"`
	Entities         []Entity     `json:"entities"`
	Keywords         []Keyword    `json:"keywords"`
	Categories       []Category   `json:"categories"`
	Summary          string       `json:"summary"`
	Insights         Insights     `json:"insights"`
	TieBreak         *TieBreak    `json:"tie_break,omitempty"`
	ProcessingTimeMs int64        `json:"processing_time_ms"`
	Errors           []string     `json:"errors"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// NewAnalysis creates a new Analysis shell for the given feedback.
// Capability results are filled in by the orchestrator before the
// analysis is persisted.
func NewAnalysis(feedbackID uuid.UUID) (*Analysis, error) {
	now := time.Now().UTC()
	a := &Analysis{
		ID:         uuid.New(),
		FeedbackID: feedbackID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}

	return a, nil
}

// Validate checks if the Analysis has valid data.
func (a *Analysis) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyAnalysisID
	}

	if a.FeedbackID == uuid.Nil {
		return ErrEmptyAnalysisFeedbackID
	}

	if a.Sentiment.Label != "" && !IsValidSentimentLabel(a.Sentiment.Label) {
		return ErrInvalidSentimentLabel
	}

	if a.Insights.Urgency != "" && !IsValidUrgencyLevel(a.Insights.Urgency) {
		return ErrInvalidUrgencyLevel
	}

	return nil
}

// IsValidSentimentLabel checks if the given label is a known SentimentLabel.
func IsValidSentimentLabel(label SentimentLabel) bool {
	switch label {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	default:
		return false
	}
}

// IsValidUrgencyLevel checks if the given level is a known UrgencyLevel.
func IsValidUrgencyLevel(level UrgencyLevel) bool {
	switch level {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	default:
		return false
	}
}

// NormalizeUrgency maps free-form urgency text to an UrgencyLevel,
// defaulting to low for anything unrecognized.
func NormalizeUrgency(s string) UrgencyLevel {
	switch UrgencyLevel(s) {
	case UrgencyHigh:
		return UrgencyHigh
	case UrgencyMedium:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}
