package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumenvoice/feedback-api/internal/analysis"
	"github.com/lumenvoice/feedback-api/internal/domain"
	"github.com/lumenvoice/feedback-api/internal/service"
	"github.com/lumenvoice/feedback-api/internal/store"
)

// mockFeedbackService implements service.FeedbackService with function fields.
type mockFeedbackService struct {
	CreateFeedbackFn func(ctx context.Context, input service.CreateFeedbackInput) (*domain.Feedback, error)
	GetFeedbackFn    func(ctx context.Context, id uuid.UUID) (*domain.Feedback, error)
}

func (m *mockFeedbackService) CreateFeedback(
	ctx context.Context,
	input service.CreateFeedbackInput,
) (*domain.Feedback, error) {
	if m.CreateFeedbackFn != nil {
		return m.CreateFeedbackFn(ctx, input)
	}
	return domain.NewFeedback(input.Content, input.Source)
}

func (m *mockFeedbackService) GetFeedback(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Feedback, error) {
	if m.GetFeedbackFn != nil {
		return m.GetFeedbackFn(ctx, id)
	}
	return nil, store.ErrFeedbackNotFound
}

// mockJobService implements service.JobService with function fields.
type mockJobService struct {
	CreateJobFn func(ctx context.Context, input service.CreateJobInput) (*domain.AutomationJob, error)
	GetJobFn    func(ctx context.Context, id uuid.UUID) (*domain.AutomationJob, error)
	ListJobsFn  func(ctx context.Context, filter store.JobFilter) ([]*domain.AutomationJob, error)
	RetryJobFn  func(ctx context.Context, id uuid.UUID) (*domain.AutomationJob, error)
	CancelJobFn func(ctx context.Context, id uuid.UUID) (*domain.AutomationJob, error)
}

func (m *mockJobService) CreateJob(
	ctx context.Context,
	input service.CreateJobInput,
) (*domain.AutomationJob, error) {
	if m.CreateJobFn != nil {
		return m.CreateJobFn(ctx, input)
	}
	return domain.NewAutomationJob(input.FeedbackID, uuid.Nil, input.Kind, input.Payload)
}

func (m *mockJobService) GetJob(
	ctx context.Context,
	id uuid.UUID,
) (*domain.AutomationJob, error) {
	if m.GetJobFn != nil {
		return m.GetJobFn(ctx, id)
	}
	return nil, store.ErrJobNotFound
}

func (m *mockJobService) ListJobs(
	ctx context.Context,
	filter store.JobFilter,
) ([]*domain.AutomationJob, error) {
	if m.ListJobsFn != nil {
		return m.ListJobsFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockJobService) RetryJob(
	ctx context.Context,
	id uuid.UUID,
) (*domain.AutomationJob, error) {
	if m.RetryJobFn != nil {
		return m.RetryJobFn(ctx, id)
	}
	return nil, store.ErrJobNotFound
}

func (m *mockJobService) CancelJob(
	ctx context.Context,
	id uuid.UUID,
) (*domain.AutomationJob, error) {
	if m.CancelJobFn != nil {
		return m.CancelJobFn(ctx, id)
	}
	return nil, store.ErrJobNotFound
}

// mockAnalyzer implements Analyzer with a function field.
type mockAnalyzer struct {
	AnalyzeFn func(ctx context.Context, feedbackID uuid.UUID, forceReanalysis bool) (*domain.Analysis, error)
}

func (m *mockAnalyzer) Analyze(
	ctx context.Context,
	feedbackID uuid.UUID,
	forceReanalysis bool,
) (*domain.Analysis, error) {
	if m.AnalyzeFn != nil {
		return m.AnalyzeFn(ctx, feedbackID, forceReanalysis)
	}
	return domain.NewAnalysis(feedbackID)
}

// mockBatchAnalyzer implements BatchAnalyzer with a function field.
type mockBatchAnalyzer struct {
	AnalyzeBatchFn func(ctx context.Context, feedbackIDs []uuid.UUID, forceReanalysis bool) (*analysis.BatchResult, error)
}

func (m *mockBatchAnalyzer) AnalyzeBatch(
	ctx context.Context,
	feedbackIDs []uuid.UUID,
	forceReanalysis bool,
) (*analysis.BatchResult, error) {
	if m.AnalyzeBatchFn != nil {
		return m.AnalyzeBatchFn(ctx, feedbackIDs, forceReanalysis)
	}
	return &analysis.BatchResult{
		Total:   len(feedbackIDs),
		Success: []analysis.BatchSuccess{},
		Failed:  []analysis.BatchFailure{},
	}, nil
}
