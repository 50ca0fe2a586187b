package analysis

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lumenvoice/feedback-api/internal/capability"
	"github.com/lumenvoice/feedback-api/internal/domain"
	"github.com/lumenvoice/feedback-api/internal/store"
)

// mockFeedbackStore implements store.FeedbackStore with function fields
// so each test configures exactly the behavior it needs.
type mockFeedbackStore struct {
	CreateFn  func(ctx context.Context, feedback *domain.Feedback) error
	GetByIDFn func(ctx context.Context, id uuid.UUID) (*domain.Feedback, error)
}

func (m *mockFeedbackStore) Create(ctx context.Context, feedback *domain.Feedback) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, feedback)
	}
	return nil
}

func (m *mockFeedbackStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Feedback, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, store.ErrFeedbackNotFound
}

func (m *mockFeedbackStore) WithTx(tx *sql.Tx) store.FeedbackStore { return m }

// mockAnalysisStore implements store.AnalysisStore. Upserted analyses
// are retained for assertions.
type mockAnalysisStore struct {
	mu       sync.Mutex
	upserted []*domain.Analysis

	UpsertFn          func(ctx context.Context, analysis *domain.Analysis) error
	GetByFeedbackIDFn func(ctx context.Context, feedbackID uuid.UUID) (*domain.Analysis, error)
}

func (m *mockAnalysisStore) Upsert(ctx context.Context, analysis *domain.Analysis) error {
	m.mu.Lock()
	m.upserted = append(m.upserted, analysis)
	m.mu.Unlock()

	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, analysis)
	}
	return nil
}

func (m *mockAnalysisStore) GetByFeedbackID(
	ctx context.Context,
	feedbackID uuid.UUID,
) (*domain.Analysis, error) {
	if m.GetByFeedbackIDFn != nil {
		return m.GetByFeedbackIDFn(ctx, feedbackID)
	}
	return nil, store.ErrAnalysisNotFound
}

func (m *mockAnalysisStore) WithTx(tx *sql.Tx) store.AnalysisStore { return m }

func (m *mockAnalysisStore) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.upserted)
}

// mockJobStore implements store.JobStore. Created jobs are retained for
// assertions.
type mockJobStore struct {
	mu      sync.Mutex
	created []*domain.AutomationJob

	CreateFn func(ctx context.Context, job *domain.AutomationJob) error
}

func (m *mockJobStore) Create(ctx context.Context, job *domain.AutomationJob) error {
	m.mu.Lock()
	m.created = append(m.created, job)
	m.mu.Unlock()

	if m.CreateFn != nil {
		return m.CreateFn(ctx, job)
	}
	return nil
}

func (m *mockJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.AutomationJob, error) {
	return nil, store.ErrJobNotFound
}

func (m *mockJobStore) List(
	ctx context.Context,
	filter store.JobFilter,
) ([]*domain.AutomationJob, error) {
	return nil, nil
}

func (m *mockJobStore) ClaimQueued(
	ctx context.Context,
	limit int,
	now time.Time,
) ([]*domain.AutomationJob, error) {
	return nil, nil
}

func (m *mockJobStore) Update(ctx context.Context, job *domain.AutomationJob) error {
	return nil
}

func (m *mockJobStore) WithTx(tx *sql.Tx) store.JobStore { return m }

func (m *mockJobStore) createdJobs() []*domain.AutomationJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AutomationJob(nil), m.created...)
}

// Capability mocks with call counting. Counts use atomics because the
// fan-out invokes the capabilities from separate goroutines.

func atomicAdd(p *int32) { atomic.AddInt32(p, 1) }

func callCount(p *int32) int { return int(atomic.LoadInt32(p)) }

type mockSentimentAnalyzer struct {
	calls int32
	Fn    func(ctx context.Context, text, language string) (capability.SentimentResult, error)
}

func (m *mockSentimentAnalyzer) AnalyzeSentiment(
	ctx context.Context,
	text, language string,
) (capability.SentimentResult, error) {
	atomicAdd(&m.calls)
	if m.Fn != nil {
		return m.Fn(ctx, text, language)
	}
	return capability.SentimentResult{
		Label:      domain.SentimentNeutral,
		Score:      0.5,
		Confidence: 0.5,
		Model:      "test",
	}, nil
}

type mockTopicClassifier struct {
	calls int32
	Fn    func(ctx context.Context, text string) (capability.TopicResult, error)
}

func (m *mockTopicClassifier) ClassifyTopics(
	ctx context.Context,
	text string,
) (capability.TopicResult, error) {
	atomicAdd(&m.calls)
	if m.Fn != nil {
		return m.Fn(ctx, text)
	}
	return capability.TopicResult{Topics: []domain.TopicScore{}, Model: "test"}, nil
}

type mockEntityExtractor struct {
	calls int32
	Fn    func(ctx context.Context, text, language string) (capability.EntityResult, error)
}

func (m *mockEntityExtractor) ExtractEntities(
	ctx context.Context,
	text, language string,
) (capability.EntityResult, error) {
	atomicAdd(&m.calls)
	if m.Fn != nil {
		return m.Fn(ctx, text, language)
	}
	return capability.EntityResult{
		Entities:   []domain.Entity{},
		Keywords:   []domain.Keyword{},
		Categories: []domain.Category{},
		Service:    "test",
	}, nil
}

type mockRefiner struct {
	calls int32
	Fn    func(ctx context.Context, text string, prior capability.PriorAnalysis) (capability.RefinementResult, error)
}

func (m *mockRefiner) Refine(
	ctx context.Context,
	text string,
	prior capability.PriorAnalysis,
) (capability.RefinementResult, error) {
	atomicAdd(&m.calls)
	if m.Fn != nil {
		return m.Fn(ctx, text, prior)
	}
	return capability.RefinementResult{
		Summary: "test summary",
		Topics:  []domain.TopicScore{},
		Insights: domain.Insights{
			Urgency:              domain.UrgencyLow,
			ActionRecommendation: "No specific action required",
			Confidence:           0.8,
		},
	}, nil
}
