package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenvoice/feedback-api/internal/automation"
	"github.com/lumenvoice/feedback-api/internal/capability"
	"github.com/lumenvoice/feedback-api/internal/config"
	"github.com/lumenvoice/feedback-api/internal/domain"
	"github.com/lumenvoice/feedback-api/internal/store"
)

// testDeps bundles the mocks behind an orchestrator under test.
type testDeps struct {
	feedbacks *mockFeedbackStore
	analyses  *mockAnalysisStore
	jobs      *mockJobStore
	sentiment *mockSentimentAnalyzer
	topics    *mockTopicClassifier
	entities  *mockEntityExtractor
	refiner   *mockRefiner
}

func newTestOrchestrator(t *testing.T, deps *testDeps) *Orchestrator {
	t.Helper()

	o, err := NewOrchestrator(
		deps.feedbacks,
		deps.analyses,
		deps.jobs,
		deps.sentiment,
		deps.topics,
		deps.entities,
		deps.refiner,
		automation.NewDefaultEngine(),
		config.AnalysisConfig{CallTimeout: time.Second},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	require.NoError(t, err)

	return o
}

func newTestDeps(feedback *domain.Feedback) *testDeps {
	return &testDeps{
		feedbacks: &mockFeedbackStore{
			GetByIDFn: func(_ context.Context, id uuid.UUID) (*domain.Feedback, error) {
				if feedback != nil && id == feedback.ID {
					return feedback, nil
				}
				return nil, store.ErrFeedbackNotFound
			},
		},
		analyses:  &mockAnalysisStore{},
		jobs:      &mockJobStore{},
		sentiment: &mockSentimentAnalyzer{},
		topics:    &mockTopicClassifier{},
		entities:  &mockEntityExtractor{},
		refiner:   &mockRefiner{},
	}
}

func newEnglishFeedback(t *testing.T, content string) *domain.Feedback {
	t.Helper()

	fb, err := domain.NewFeedback(content, domain.FeedbackSourceManual)
	require.NoError(t, err)
	fb.Language = "en"

	return fb
}

func TestAnalyzeIdempotence(t *testing.T) {
	t.Parallel()

	feedback := newEnglishFeedback(t, "the service was slow but the staff apologized")
	deps := newTestDeps(feedback)

	existing := &domain.Analysis{
		ID:         uuid.New(),
		FeedbackID: feedback.ID,
		Sentiment:  domain.Sentiment{Label: domain.SentimentNeutral},
	}
	deps.analyses.GetByFeedbackIDFn = func(
		_ context.Context,
		feedbackID uuid.UUID,
	) (*domain.Analysis, error) {
		return existing, nil
	}

	o := newTestOrchestrator(t, deps)

	first, err := o.Analyze(context.Background(), feedback.ID, false)
	require.NoError(t, err)
	second, err := o.Analyze(context.Background(), feedback.ID, false)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, first.ID)
	assert.Equal(t, first.ID, second.ID)

	// The existing result short-circuits everything downstream.
	assert.Zero(t, callCount(&deps.sentiment.calls))
	assert.Zero(t, callCount(&deps.topics.calls))
	assert.Zero(t, callCount(&deps.entities.calls))
	assert.Zero(t, callCount(&deps.refiner.calls))
	assert.Zero(t, deps.analyses.upsertCount())
	assert.Empty(t, deps.jobs.createdJobs())
}

func TestAnalyzeForceReanalysis(t *testing.T) {
	t.Parallel()

	feedback := newEnglishFeedback(t, "checkout flow works fine")
	deps := newTestDeps(feedback)
	deps.analyses.GetByFeedbackIDFn = func(
		_ context.Context,
		feedbackID uuid.UUID,
	) (*domain.Analysis, error) {
		t.Fatal("existing-analysis check must be skipped on force reanalysis")
		return nil, nil
	}

	o := newTestOrchestrator(t, deps)

	result, err := o.Analyze(context.Background(), feedback.ID, true)
	require.NoError(t, err)

	assert.Equal(t, 1, callCount(&deps.sentiment.calls))
	assert.Equal(t, 1, deps.analyses.upsertCount())
	assert.Equal(t, feedback.ID, result.FeedbackID)
}

func TestAnalyzeForceReanalysisKeepsPersistedID(t *testing.T) {
	t.Parallel()

	feedback := newEnglishFeedback(t, "the app crashes every time I open my order history")
	deps := newTestDeps(feedback)

	// The store replaces the row in place on a feedback_id conflict and
	// writes the surviving id back. A re-analysis must surface that id,
	// never the freshly minted one.
	persistedID := uuid.New()
	persistedCreatedAt := time.Now().UTC().Add(-time.Hour)
	deps.analyses.UpsertFn = func(_ context.Context, a *domain.Analysis) error {
		a.ID = persistedID
		a.CreatedAt = persistedCreatedAt
		return nil
	}

	deps.sentiment.Fn = func(context.Context, string, string) (capability.SentimentResult, error) {
		return capability.SentimentResult{
			Label:      domain.SentimentNegative,
			Score:      0.9,
			Confidence: 0.9,
			Model:      "test",
		}, nil
	}
	deps.topics.Fn = func(context.Context, string) (capability.TopicResult, error) {
		return capability.TopicResult{
			Topics: []domain.TopicScore{{Label: "quality", Score: 0.85, Confidence: 0.85}},
			Model:  "test",
		}, nil
	}
	deps.refiner.Fn = func(
		context.Context,
		string,
		capability.PriorAnalysis,
	) (capability.RefinementResult, error) {
		return capability.RefinementResult{
			Summary: "Recurring crash in order history",
			Topics:  []domain.TopicScore{{Label: "quality", Score: 0.85, Confidence: 0.85}},
			Insights: domain.Insights{
				Urgency:              domain.UrgencyHigh,
				ActionRecommendation: "File a crash ticket",
				Confidence:           0.9,
			},
		}, nil
	}

	o := newTestOrchestrator(t, deps)

	result, err := o.Analyze(context.Background(), feedback.ID, true)
	require.NoError(t, err)

	assert.Equal(t, persistedID, result.ID)
	assert.Equal(t, persistedCreatedAt, result.CreatedAt)

	// Automation jobs reference the persisted analysis, not a dangling id.
	jobs := deps.jobs.createdJobs()
	require.NotEmpty(t, jobs)
	for _, job := range jobs {
		assert.Equal(t, persistedID, job.AnalysisID)
	}
}

func TestAnalyzeFallbackCompleteness(t *testing.T) {
	t.Parallel()

	feedback := newEnglishFeedback(t, "nothing works and nobody answers")
	deps := newTestDeps(feedback)

	deps.sentiment.Fn = func(context.Context, string, string) (capability.SentimentResult, error) {
		return capability.SentimentResult{}, capability.ErrUnavailable
	}
	deps.topics.Fn = func(context.Context, string) (capability.TopicResult, error) {
		return capability.TopicResult{}, capability.ErrUnavailable
	}
	deps.entities.Fn = func(context.Context, string, string) (capability.EntityResult, error) {
		return capability.EntityResult{}, capability.ErrUnavailable
	}

	o := newTestOrchestrator(t, deps)

	result, err := o.Analyze(context.Background(), feedback.ID, false)
	require.NoError(t, err)

	assert.Equal(t, domain.SentimentNeutral, result.Sentiment.Label)
	assert.Equal(t, "fallback", result.Sentiment.Model)
	assert.Zero(t, result.Sentiment.Confidence)
	assert.Empty(t, result.Topics)
	assert.Empty(t, result.Entities)

	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "Sentiment analysis failed")
	assert.Contains(t, result.Errors[1], "Topic classification failed")
	assert.Contains(t, result.Errors[2], "Entity extraction failed")

	// Degraded results are still persisted.
	assert.Equal(t, 1, deps.analyses.upsertCount())
}

func TestAnalyzeRefinementFallback(t *testing.T) {
	t.Parallel()

	feedback := newEnglishFeedback(t, "terrible support experience, still waiting for a reply")
	deps := newTestDeps(feedback)

	deps.sentiment.Fn = func(context.Context, string, string) (capability.SentimentResult, error) {
		return capability.SentimentResult{
			Label:      domain.SentimentNegative,
			Score:      0.95,
			Confidence: 0.95,
			Model:      "test",
		}, nil
	}
	deps.refiner.Fn = func(
		context.Context,
		string,
		capability.PriorAnalysis,
	) (capability.RefinementResult, error) {
		return capability.RefinementResult{}, capability.ErrUnavailable
	}

	o := newTestOrchestrator(t, deps)

	result, err := o.Analyze(context.Background(), feedback.ID, false)
	require.NoError(t, err)

	assert.Equal(t, domain.UrgencyHigh, result.Insights.Urgency)
	assert.Equal(t, "Address customer concerns immediately", result.Insights.ActionRecommendation)
	assert.Contains(t, result.Summary, "Customer feedback:")
	assert.Empty(t, result.RefinedTopics)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Refinement failed")
}

func TestAnalyzeTriggersAutomation(t *testing.T) {
	t.Parallel()

	feedback := newEnglishFeedback(t, "my order never arrived and support ignores me")
	deps := newTestDeps(feedback)

	deps.sentiment.Fn = func(context.Context, string, string) (capability.SentimentResult, error) {
		return capability.SentimentResult{
			Label:      domain.SentimentNegative,
			Score:      0.9,
			Confidence: 0.9,
			Model:      "test",
		}, nil
	}
	deps.topics.Fn = func(context.Context, string) (capability.TopicResult, error) {
		return capability.TopicResult{
			Topics: []domain.TopicScore{{Label: "service", Score: 0.8, Confidence: 0.8}},
			Model:  "test",
		}, nil
	}
	deps.refiner.Fn = func(
		context.Context,
		string,
		capability.PriorAnalysis,
	) (capability.RefinementResult, error) {
		return capability.RefinementResult{
			Summary: "Customer reports a lost order and unresponsive support",
			Topics:  []domain.TopicScore{{Label: "service", Score: 0.8, Confidence: 0.8}},
			Insights: domain.Insights{
				Urgency:              domain.UrgencyHigh,
				ActionRecommendation: "Escalate to support lead",
				Confidence:           0.85,
			},
		}, nil
	}

	o := newTestOrchestrator(t, deps)

	result, err := o.Analyze(context.Background(), feedback.ID, false)
	require.NoError(t, err)

	jobs := deps.jobs.createdJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, domain.JobKindTicket, jobs[0].Kind)
	assert.Equal(t, domain.JobKindAlert, jobs[1].Kind)
	for _, job := range jobs {
		assert.Equal(t, feedback.ID, job.FeedbackID)
		assert.Equal(t, result.ID, job.AnalysisID)
		assert.Equal(t, domain.JobStatusQueued, job.Status)
		assert.NotEmpty(t, job.Payload)
	}
}

func TestAnalyzeNoAutomationForCalmFeedback(t *testing.T) {
	t.Parallel()

	feedback := newEnglishFeedback(t, "great service, very happy")
	deps := newTestDeps(feedback)

	deps.sentiment.Fn = func(context.Context, string, string) (capability.SentimentResult, error) {
		return capability.SentimentResult{
			Label:      domain.SentimentPositive,
			Score:      0.97,
			Confidence: 0.97,
			Model:      "test",
		}, nil
	}
	deps.topics.Fn = func(context.Context, string) (capability.TopicResult, error) {
		return capability.TopicResult{
			Topics: []domain.TopicScore{{Label: "service", Score: 0.9, Confidence: 0.9}},
			Model:  "test",
		}, nil
	}

	o := newTestOrchestrator(t, deps)

	_, err := o.Analyze(context.Background(), feedback.ID, false)
	require.NoError(t, err)
	assert.Empty(t, deps.jobs.createdJobs())
}

func TestAnalyzeAutomationFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	feedback := newEnglishFeedback(t, "the delivery is three weeks late")
	deps := newTestDeps(feedback)

	deps.sentiment.Fn = func(context.Context, string, string) (capability.SentimentResult, error) {
		return capability.SentimentResult{Label: domain.SentimentNegative, Score: 0.9, Confidence: 0.9, Model: "test"}, nil
	}
	deps.topics.Fn = func(context.Context, string) (capability.TopicResult, error) {
		return capability.TopicResult{
			Topics: []domain.TopicScore{{Label: "delivery", Score: 0.9, Confidence: 0.9}},
			Model:  "test",
		}, nil
	}
	deps.refiner.Fn = func(
		context.Context,
		string,
		capability.PriorAnalysis,
	) (capability.RefinementResult, error) {
		return capability.RefinementResult{
			Summary:  "Late delivery complaint",
			Insights: domain.Insights{Urgency: domain.UrgencyHigh, ActionRecommendation: "Expedite"},
		}, nil
	}
	deps.jobs.CreateFn = func(context.Context, *domain.AutomationJob) error {
		return errors.New("job table unavailable")
	}

	o := newTestOrchestrator(t, deps)

	result, err := o.Analyze(context.Background(), feedback.ID, false)
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 1, deps.analyses.upsertCount())
}

func TestAnalyzeLanguageResolution(t *testing.T) {
	t.Parallel()

	t.Run("explicit language is trusted", func(t *testing.T) {
		t.Parallel()

		feedback := newEnglishFeedback(t, "ok")
		feedback.Language = "fr"
		deps := newTestDeps(feedback)

		var gotLanguage string
		deps.sentiment.Fn = func(_ context.Context, _, language string) (capability.SentimentResult, error) {
			gotLanguage = language
			return capability.SentimentResult{Label: domain.SentimentNeutral, Model: "test"}, nil
		}

		o := newTestOrchestrator(t, deps)

		result, err := o.Analyze(context.Background(), feedback.ID, false)
		require.NoError(t, err)
		assert.Equal(t, "fr", gotLanguage)
		assert.Equal(t, "fr", result.DetectedLanguage)
	})

	t.Run("auto sentinel runs local detection", func(t *testing.T) {
		t.Parallel()

		fb, err := domain.NewFeedback(
			"the delivery was late and the package was damaged on arrival",
			domain.FeedbackSourceManual,
		)
		require.NoError(t, err)
		require.Equal(t, domain.LanguageAuto, fb.Language)

		deps := newTestDeps(fb)
		o := newTestOrchestrator(t, deps)

		result, err := o.Analyze(context.Background(), fb.ID, false)
		require.NoError(t, err)
		assert.Equal(t, "en", result.DetectedLanguage)
	})
}

func TestAnalyzeMissingFeedback(t *testing.T) {
	t.Parallel()

	deps := newTestDeps(nil)
	o := newTestOrchestrator(t, deps)

	_, err := o.Analyze(context.Background(), uuid.New(), false)
	assert.ErrorIs(t, err, store.ErrFeedbackNotFound)
}

func TestAnalyzePersistenceError(t *testing.T) {
	t.Parallel()

	feedback := newEnglishFeedback(t, "fine")
	deps := newTestDeps(feedback)
	deps.analyses.UpsertFn = func(context.Context, *domain.Analysis) error {
		return errors.New("connection refused")
	}

	o := newTestOrchestrator(t, deps)

	_, err := o.Analyze(context.Background(), feedback.ID, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist analysis")
	assert.Empty(t, deps.jobs.createdJobs())
}

func TestAnalyzeRecordsProcessingTime(t *testing.T) {
	t.Parallel()

	feedback := newEnglishFeedback(t, "fine")
	deps := newTestDeps(feedback)
	deps.sentiment.Fn = func(context.Context, string, string) (capability.SentimentResult, error) {
		time.Sleep(10 * time.Millisecond)
		return capability.SentimentResult{Label: domain.SentimentNeutral, Model: "test"}, nil
	}

	o := newTestOrchestrator(t, deps)

	result, err := o.Analyze(context.Background(), feedback.ID, false)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.ProcessingTimeMs, int64(10))
}
