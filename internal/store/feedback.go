package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lumenvoice/feedback-api/internal/domain"
)

// FeedbackStore defines the interface for feedback data persistence.
// Feedback rows are created by the ingestion surface and are read-only
// to the analysis pipeline.
type FeedbackStore interface {
	// Create saves a new feedback item to the store.
	// Returns ErrDuplicate if a feedback with the same ID already exists.
	Create(ctx context.Context, feedback *domain.Feedback) error

	// GetByID retrieves a feedback item by its unique ID.
	// Returns ErrFeedbackNotFound if the feedback does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Feedback, error)

	// WithTx returns a new store instance that uses the provided transaction.
	WithTx(tx *sql.Tx) FeedbackStore
}
