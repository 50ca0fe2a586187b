package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lumenvoice/feedback-api/internal/domain"
	"github.com/lumenvoice/feedback-api/internal/store"
)

// JobServiceError is a custom error type for job service errors.
type JobServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for JobServiceError.
func (e *JobServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("job service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("job service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *JobServiceError) Unwrap() error {
	return e.Err
}

// NewJobServiceError creates a new JobServiceError.
func NewJobServiceError(operation, message string, err error) *JobServiceError {
	return &JobServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// CreateJobInput carries the fields for an operator-initiated job.
// Kind may be any skill identifier, not just the kinds the decision
// engine emits; the worker dispatches unknown kinds verbatim.
type CreateJobInput struct {
	FeedbackID uuid.UUID
	Kind       string
	Payload    json.RawMessage
}

// JobService provides operator-facing automation job operations.
// The worker loop mutates jobs directly through the store; everything
// here is request-scoped.
type JobService interface {
	// CreateJob inserts a manually triggered job for an existing
	// feedback item. Returns store.ErrFeedbackNotFound if the feedback
	// does not exist.
	CreateJob(ctx context.Context, input CreateJobInput) (*domain.AutomationJob, error)

	// GetJob retrieves a job by ID.
	// Returns store.ErrJobNotFound if it does not exist.
	GetJob(ctx context.Context, id uuid.UUID) (*domain.AutomationJob, error)

	// ListJobs retrieves jobs matching the filter, newest first.
	ListJobs(ctx context.Context, filter store.JobFilter) ([]*domain.AutomationJob, error)

	// RetryJob re-queues a failed or cancelled job for immediate
	// dispatch. Returns domain.ErrJobNotRetryable if the job is not in
	// a retryable state or has exhausted its retry budget.
	RetryJob(ctx context.Context, id uuid.UUID) (*domain.AutomationJob, error)

	// CancelJob cancels a queued or processing job.
	// Returns domain.ErrJobNotCancellable if the job is already terminal.
	CancelJob(ctx context.Context, id uuid.UUID) (*domain.AutomationJob, error)
}

// jobServiceImpl implements the JobService interface.
type jobServiceImpl struct {
	jobs      store.JobStore
	feedbacks store.FeedbackStore
	analyses  store.AnalysisStore
	logger    *slog.Logger
	now       func() time.Time
}

// NewJobService creates a new JobService.
// It returns an error if any of the required dependencies are nil.
func NewJobService(
	jobs store.JobStore,
	feedbacks store.FeedbackStore,
	analyses store.AnalysisStore,
	logger *slog.Logger,
) (JobService, error) {
	switch {
	case jobs == nil:
		return nil, errors.New("job store cannot be nil")
	case feedbacks == nil:
		return nil, errors.New("feedback store cannot be nil")
	case analyses == nil:
		return nil, errors.New("analysis store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &jobServiceImpl{
		jobs:      jobs,
		feedbacks: feedbacks,
		analyses:  analyses,
		logger:    logger.With(slog.String("component", "job_service")),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateJob implements JobService.CreateJob.
func (s *jobServiceImpl) CreateJob(
	ctx context.Context,
	input CreateJobInput,
) (*domain.AutomationJob, error) {
	if _, err := s.feedbacks.GetByID(ctx, input.FeedbackID); err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewJobServiceError("create", "failed to verify feedback", err)
	}

	// Link the job to the feedback's analysis when one exists; a manual
	// job is still valid before any analysis has run.
	analysisID := uuid.Nil
	analysis, err := s.analyses.GetByFeedbackID(ctx, input.FeedbackID)
	switch {
	case err == nil:
		analysisID = analysis.ID
	case store.IsNotFoundError(err):
		// No analysis yet.
	default:
		return nil, NewJobServiceError("create", "failed to look up analysis", err)
	}

	job, err := domain.NewAutomationJob(input.FeedbackID, analysisID, input.Kind, input.Payload)
	if err != nil {
		return nil, err
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		s.logger.ErrorContext(ctx, "failed to create job",
			slog.String("job_id", job.ID.String()),
			slog.String("kind", job.Kind),
			slog.String("error", err.Error()))
		return nil, NewJobServiceError("create", "failed to save job", err)
	}

	s.logger.InfoContext(ctx, "manual job created",
		slog.String("job_id", job.ID.String()),
		slog.String("feedback_id", input.FeedbackID.String()),
		slog.String("kind", job.Kind))

	return job, nil
}

// GetJob implements JobService.GetJob.
func (s *jobServiceImpl) GetJob(
	ctx context.Context,
	id uuid.UUID,
) (*domain.AutomationJob, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewJobServiceError("get", "failed to retrieve job", err)
	}
	return job, nil
}

// ListJobs implements JobService.ListJobs.
func (s *jobServiceImpl) ListJobs(
	ctx context.Context,
	filter store.JobFilter,
) ([]*domain.AutomationJob, error) {
	jobs, err := s.jobs.List(ctx, filter)
	if err != nil {
		return nil, NewJobServiceError("list", "failed to list jobs", err)
	}
	return jobs, nil
}

// RetryJob implements JobService.RetryJob.
func (s *jobServiceImpl) RetryJob(
	ctx context.Context,
	id uuid.UUID,
) (*domain.AutomationJob, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewJobServiceError("retry", "failed to retrieve job", err)
	}

	if err := job.Retry(s.now()); err != nil {
		return nil, err
	}

	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, NewJobServiceError("retry", "failed to save job", err)
	}

	s.logger.InfoContext(ctx, "job re-queued",
		slog.String("job_id", job.ID.String()),
		slog.Int("retry_count", job.RetryCount))

	return job, nil
}

// CancelJob implements JobService.CancelJob.
func (s *jobServiceImpl) CancelJob(
	ctx context.Context,
	id uuid.UUID,
) (*domain.AutomationJob, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewJobServiceError("cancel", "failed to retrieve job", err)
	}

	if err := job.Cancel(s.now()); err != nil {
		return nil, err
	}

	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, NewJobServiceError("cancel", "failed to save job", err)
	}

	s.logger.InfoContext(ctx, "job cancelled",
		slog.String("job_id", job.ID.String()))

	return job, nil
}
