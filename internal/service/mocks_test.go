package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lumenvoice/feedback-api/internal/domain"
	"github.com/lumenvoice/feedback-api/internal/store"
)

// mockFeedbackStore implements store.FeedbackStore with function fields.
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

func (m *mockFeedbackStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Feedback, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, store.ErrFeedbackNotFound
}

func (m *mockFeedbackStore) WithTx(tx *sql.Tx) store.FeedbackStore { return m }

// mockAnalysisStore implements store.AnalysisStore with function fields.
type mockAnalysisStore struct {
	UpsertFn          func(ctx context.Context, analysis *domain.Analysis) error
	GetByFeedbackIDFn func(ctx context.Context, feedbackID uuid.UUID) (*domain.Analysis, error)
}

func (m *mockAnalysisStore) Upsert(ctx context.Context, analysis *domain.Analysis) error {
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

// mockJobStore implements store.JobStore with function fields.
type mockJobStore struct {
	CreateFn      func(ctx context.Context, job *domain.AutomationJob) error
	GetByIDFn     func(ctx context.Context, id uuid.UUID) (*domain.AutomationJob, error)
	ListFn        func(ctx context.Context, filter store.JobFilter) ([]*domain.AutomationJob, error)
	ClaimQueuedFn func(ctx context.Context, limit int, now time.Time) ([]*domain.AutomationJob, error)
	UpdateFn      func(ctx context.Context, job *domain.AutomationJob) error
}

func (m *mockJobStore) Create(ctx context.Context, job *domain.AutomationJob) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, job)
	}
	return nil
}

func (m *mockJobStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.AutomationJob, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, store.ErrJobNotFound
}

func (m *mockJobStore) List(
	ctx context.Context,
	filter store.JobFilter,
) ([]*domain.AutomationJob, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockJobStore) ClaimQueued(
	ctx context.Context,
	limit int,
	now time.Time,
) ([]*domain.AutomationJob, error) {
	if m.ClaimQueuedFn != nil {
		return m.ClaimQueuedFn(ctx, limit, now)
	}
	return nil, errors.New("unexpected ClaimQueued call")
}

func (m *mockJobStore) Update(ctx context.Context, job *domain.AutomationJob) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, job)
	}
	return nil
}

func (m *mockJobStore) WithTx(tx *sql.Tx) store.JobStore { return m }
