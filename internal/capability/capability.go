package capability

import (
	"context"
	"encoding/json"

	"github.com/lumenvoice/feedback-api/internal/domain"
)

// SentimentResult is the outcome of a sentiment analysis call.
type SentimentResult struct {
	Label      domain.SentimentLabel
	Score      float64
	Confidence float64
	Model      string
}

// TopicResult is the outcome of a topic classification call.
type TopicResult struct {
	Topics    []domain.TopicScore
	Model     string
	Threshold float64
}

// EntityResult is the outcome of an entity extraction call.
type EntityResult struct {
	Entities   []domain.Entity
	Keywords   []domain.Keyword
	Categories []domain.Category
	Service    string
}

// PriorAnalysis is the structured summary of earlier pipeline results
// handed to the refinement pass.
type PriorAnalysis struct {
	Language  string
	Sentiment SentimentResult
	Topics    []domain.TopicScore
	Entities  []domain.Entity
}

// RefinementResult is the outcome of the refinement pass: a summary,
// a possibly-revised topic list, an optional sentiment tie-break note,
// and the insights block driving automation decisions.
type RefinementResult struct {
	Summary  string
	Topics   []domain.TopicScore
	TieBreak *domain.TieBreak
	Insights domain.Insights
	Raw      string
}

// DispatchResult is the outcome of an automation dispatch call.
// Success distinguishes an accepted submission from an upstream
// rejection; Error carries the upstream cause when Success is false.
type DispatchResult struct {
	Success     bool
	Response    json.RawMessage
	ExternalRef string
	Error       string
}

// SentimentAnalyzer classifies the overall tone of a text.
type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, text, language string) (SentimentResult, error)
}

// TopicClassifier assigns zero-shot topic labels to a text.
type TopicClassifier interface {
	ClassifyTopics(ctx context.Context, text string) (TopicResult, error)
}

// EntityExtractor extracts entities, keywords, and categories from a text.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text, language string) (EntityResult, error)
}

// Refiner runs the sequential refinement pass over the fan-out results.
// This interface serves as a boundary between the application core and
// the external LLM service.
type Refiner interface {
	Refine(ctx context.Context, text string, prior PriorAnalysis) (RefinementResult, error)
}

// Dispatcher submits an automation action to the downstream target.
// A non-nil error reports a transport-level failure; an unsuccessful
// DispatchResult reports an upstream rejection. The worker treats both
// as a dispatch failure subject to the retry policy.
type Dispatcher interface {
	Dispatch(ctx context.Context, skillID string, payload json.RawMessage) (DispatchResult, error)
}
