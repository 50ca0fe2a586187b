package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lumenvoice/feedback-api/internal/domain"
)

// JobFilter narrows List results. Zero values mean "no filter".
type JobFilter struct {
	FeedbackID uuid.UUID
	Status     domain.JobStatus
	Limit      int
	Offset     int
}

// JobStore defines the interface for automation job persistence.
//
// All concurrency safety of the job state machine reduces to the
// store's atomic per-row conditional updates: ClaimQueued must be a
// compare-and-set on status, not a read-then-write, so that two
// concurrent claimants never receive the same job.
type JobStore interface {
	// Create saves a new automation job to the store.
	Create(ctx context.Context, job *domain.AutomationJob) error

	// GetByID retrieves a job by its unique ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AutomationJob, error)

	// List retrieves jobs matching the filter, newest first.
	List(ctx context.Context, filter JobFilter) ([]*domain.AutomationJob, error)

	// ClaimQueued atomically claims up to limit eligible jobs
	// (status == queued and scheduled_at <= now), ordered oldest-eligible
	// first, transitioning each to processing with started_at = now.
	// A job claimed by one caller is never returned to another.
	ClaimQueued(ctx context.Context, limit int, now time.Time) ([]*domain.AutomationJob, error)

	// Update persists the mutable fields of a job (status, response,
	// external ref, error message, retry count, schedule and
	// lifecycle timestamps). Returns ErrJobNotFound if the job does
	// not exist.
	Update(ctx context.Context, job *domain.AutomationJob) error

	// WithTx returns a new store instance that uses the provided transaction.
	WithTx(tx *sql.Tx) JobStore
}
