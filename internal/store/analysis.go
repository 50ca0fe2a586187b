package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lumenvoice/feedback-api/internal/domain"
)

// AnalysisStore defines the interface for analysis result persistence.
// The store enforces the one-analysis-per-feedback invariant: Upsert is
// idempotent by feedback ID.
type AnalysisStore interface {
	// Upsert creates the analysis for its feedback, or replaces the
	// existing one when a force re-analysis ran. The feedback_id unique
	// constraint makes concurrent upserts for the same feedback safe.
	// A replaced row keeps its original id and created_at; Upsert
	// writes both back onto the analysis, so callers always hold the
	// persisted identity afterwards.
	Upsert(ctx context.Context, analysis *domain.Analysis) error

	// GetByFeedbackID retrieves the analysis for the given feedback.
	// Returns ErrAnalysisNotFound if no analysis exists yet.
	GetByFeedbackID(ctx context.Context, feedbackID uuid.UUID) (*domain.Analysis, error)

	// WithTx returns a new store instance that uses the provided transaction.
	WithTx(tx *sql.Tx) AnalysisStore
}
