package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lumenvoice/feedback-api/internal/domain"
	"github.com/lumenvoice/feedback-api/internal/store"
)

// jobColumns is the column list shared by every job query in this file.
const jobColumns = `id, feedback_id, analysis_id, kind, status, payload, response,
	external_ref, error_message, retry_count, max_retries,
	scheduled_at, started_at, completed_at, created_at, updated_at`

// PostgresJobStore implements the store.JobStore interface using a
// PostgreSQL database as the storage backend. Claim atomicity relies on
// row locks (FOR UPDATE SKIP LOCKED), never on in-process state, so
// multiple worker instances can share one table safely.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobStore creates a new PostgreSQL implementation of the
// JobStore interface. If logger is nil, the default logger is used.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

// Ensure PostgresJobStore implements store.JobStore interface
var _ store.JobStore = (*PostgresJobStore)(nil)

// Create implements store.JobStore.Create
func (s *PostgresJobStore) Create(ctx context.Context, job *domain.AutomationJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO automation_jobs (id, feedback_id, analysis_id, kind, status,
			payload, response, external_ref, error_message, retry_count, max_retries,
			scheduled_at, started_at, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.FeedbackID,
		job.AnalysisID,
		job.Kind,
		job.Status,
		[]byte(job.Payload),
		[]byte(job.Response),
		nullString(job.ExternalRef),
		nullString(job.ErrorMessage),
		job.RetryCount,
		job.MaxRetries,
		job.ScheduledAt,
		job.StartedAt,
		job.CompletedAt,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to create automation job",
			"job_id", job.ID,
			"feedback_id", job.FeedbackID,
			"kind", job.Kind,
			"error", err)
		return MapError(err)
	}

	return nil
}

// GetByID implements store.JobStore.GetByID
// Returns store.ErrJobNotFound if the job does not exist.
func (s *PostgresJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.AutomationJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM automation_jobs WHERE id = $1`, jobColumns)

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrJobNotFound
		}
		s.logger.Error("failed to get automation job",
			"job_id", id,
			"error", err)
		return nil, MapError(err)
	}

	return job, nil
}

// List implements store.JobStore.List
// Jobs are returned newest first.
func (s *PostgresJobStore) List(
	ctx context.Context,
	filter store.JobFilter,
) ([]*domain.AutomationJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM automation_jobs`, jobColumns)

	var clauses []string
	var args []any
	if filter.FeedbackID != uuid.Nil {
		args = append(args, filter.FeedbackID)
		clauses = append(clauses, fmt.Sprintf("feedback_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to list automation jobs", "error", err)
		return nil, MapError(err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// ClaimQueued implements store.JobStore.ClaimQueued
// The inner SELECT takes row locks with SKIP LOCKED, so concurrent
// claimants partition the eligible set instead of blocking on or
// double-claiming each other's rows.
func (s *PostgresJobStore) ClaimQueued(
	ctx context.Context,
	limit int,
	now time.Time,
) ([]*domain.AutomationJob, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		UPDATE automation_jobs
		SET status = $1, started_at = $2, updated_at = $2
		WHERE id IN (
			SELECT id FROM automation_jobs
			WHERE status = $3 AND scheduled_at <= $2
			ORDER BY scheduled_at ASC
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING %s`, jobColumns)

	rows, err := s.db.QueryContext(ctx, query,
		domain.JobStatusProcessing,
		now,
		domain.JobStatusQueued,
		limit,
	)
	if err != nil {
		s.logger.Error("failed to claim queued jobs", "error", err)
		return nil, MapError(err)
	}
	defer rows.Close()

	jobs, err := collectJobs(rows)
	if err != nil {
		return nil, err
	}

	// RETURNING does not preserve the subquery order.
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].ScheduledAt.Before(jobs[j].ScheduledAt)
	})

	return jobs, nil
}

// Update implements store.JobStore.Update
// It persists every mutable field of the job. Returns
// store.ErrJobNotFound if the job does not exist.
func (s *PostgresJobStore) Update(ctx context.Context, job *domain.AutomationJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE automation_jobs
		SET status = $1, payload = $2, response = $3, external_ref = $4,
			error_message = $5, retry_count = $6, scheduled_at = $7,
			started_at = $8, completed_at = $9, updated_at = $10
		WHERE id = $11
	`

	result, err := s.db.ExecContext(ctx, query,
		job.Status,
		[]byte(job.Payload),
		[]byte(job.Response),
		nullString(job.ExternalRef),
		nullString(job.ErrorMessage),
		job.RetryCount,
		job.ScheduledAt,
		job.StartedAt,
		job.CompletedAt,
		job.UpdatedAt,
		job.ID,
	)
	if err != nil {
		s.logger.Error("failed to update automation job",
			"job_id", job.ID,
			"status", job.Status,
			"error", err)
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "automation job"); err != nil {
		return err
	}

	return nil
}

// WithTx implements store.JobStore.WithTx
// It returns a new store instance backed by the given transaction.
func (s *PostgresJobStore) WithTx(tx *sql.Tx) store.JobStore {
	return &PostgresJobStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.AutomationJob, error) {
	var (
		job          domain.AutomationJob
		payload      []byte
		response     []byte
		externalRef  sql.NullString
		errorMessage sql.NullString
		startedAt    sql.NullTime
		completedAt  sql.NullTime
	)

	err := row.Scan(
		&job.ID,
		&job.FeedbackID,
		&job.AnalysisID,
		&job.Kind,
		&job.Status,
		&payload,
		&response,
		&externalRef,
		&errorMessage,
		&job.RetryCount,
		&job.MaxRetries,
		&job.ScheduledAt,
		&startedAt,
		&completedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Payload = payload
	job.Response = response
	job.ExternalRef = externalRef.String
	job.ErrorMessage = errorMessage.String
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}

	return &job, nil
}

func collectJobs(rows *sql.Rows) ([]*domain.AutomationJob, error) {
	var jobs []*domain.AutomationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return jobs, nil
}
