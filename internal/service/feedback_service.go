package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lumenvoice/feedback-api/internal/domain"
	"github.com/lumenvoice/feedback-api/internal/store"
)

// FeedbackServiceError is a custom error type for feedback service errors.
type FeedbackServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for FeedbackServiceError.
func (e *FeedbackServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("feedback service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("feedback service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *FeedbackServiceError) Unwrap() error {
	return e.Err
}

// NewFeedbackServiceError creates a new FeedbackServiceError.
func NewFeedbackServiceError(operation, message string, err error) *FeedbackServiceError {
	return &FeedbackServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// CreateFeedbackInput carries the caller-supplied fields for a new
// feedback item. Content and Source are required; everything else is
// optional metadata from the ingestion source.
type CreateFeedbackInput struct {
	Content        string
	Source         domain.FeedbackSource
	SourceURL      string
	SourceMetadata map[string]any
	AuthorName     string
	AuthorHandle   string
	PostedAt       *time.Time
	Language       string
}

// FeedbackService provides feedback ingestion and retrieval operations.
type FeedbackService interface {
	// CreateFeedback validates and persists a new feedback item.
	// Returns a domain validation error if the input is invalid.
	CreateFeedback(ctx context.Context, input CreateFeedbackInput) (*domain.Feedback, error)

	// GetFeedback retrieves a feedback item by ID.
	// Returns store.ErrFeedbackNotFound if it does not exist.
	GetFeedback(ctx context.Context, id uuid.UUID) (*domain.Feedback, error)
}

// feedbackServiceImpl implements the FeedbackService interface.
type feedbackServiceImpl struct {
	feedbacks store.FeedbackStore
	logger    *slog.Logger
}

// NewFeedbackService creates a new FeedbackService.
// It returns an error if any of the required dependencies are nil.
func NewFeedbackService(
	feedbacks store.FeedbackStore,
	logger *slog.Logger,
) (FeedbackService, error) {
	if feedbacks == nil {
		return nil, errors.New("feedback store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &feedbackServiceImpl{
		feedbacks: feedbacks,
		logger:    logger.With(slog.String("component", "feedback_service")),
	}, nil
}

// CreateFeedback implements FeedbackService.CreateFeedback.
func (s *feedbackServiceImpl) CreateFeedback(
	ctx context.Context,
	input CreateFeedbackInput,
) (*domain.Feedback, error) {
	feedback, err := domain.NewFeedback(input.Content, input.Source)
	if err != nil {
		return nil, err
	}

	feedback.SourceURL = input.SourceURL
	feedback.SourceMetadata = input.SourceMetadata
	feedback.AuthorName = input.AuthorName
	feedback.AuthorHandle = input.AuthorHandle
	feedback.PostedAt = input.PostedAt
	if input.Language != "" {
		feedback.Language = input.Language
	}

	if err := s.feedbacks.Create(ctx, feedback); err != nil {
		s.logger.ErrorContext(ctx, "failed to create feedback",
			slog.String("feedback_id", feedback.ID.String()),
			slog.String("error", err.Error()))
		return nil, NewFeedbackServiceError("create", "failed to save feedback", err)
	}

	s.logger.DebugContext(ctx, "feedback created",
		slog.String("feedback_id", feedback.ID.String()),
		slog.String("source", string(feedback.Source)))

	return feedback, nil
}

// GetFeedback implements FeedbackService.GetFeedback.
func (s *feedbackServiceImpl) GetFeedback(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Feedback, error) {
	feedback, err := s.feedbacks.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewFeedbackServiceError("get", "failed to retrieve feedback", err)
	}
	return feedback, nil
}
