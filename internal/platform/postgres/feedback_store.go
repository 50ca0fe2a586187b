package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lumenvoice/feedback-api/internal/domain"
	"github.com/lumenvoice/feedback-api/internal/store"
)

// PostgresFeedbackStore implements the store.FeedbackStore interface
// using a PostgreSQL database as the storage backend.
type PostgresFeedbackStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFeedbackStore creates a new PostgreSQL implementation of
// the FeedbackStore interface. It accepts a database connection or
// transaction that should be initialized and managed by the caller.
// If logger is nil, the default logger is used.
func NewPostgresFeedbackStore(db store.DBTX, logger *slog.Logger) *PostgresFeedbackStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFeedbackStore{
		db:     db,
		logger: logger.With(slog.String("component", "feedback_store")),
	}
}

// Ensure PostgresFeedbackStore implements store.FeedbackStore interface
var _ store.FeedbackStore = (*PostgresFeedbackStore)(nil)

// Create implements store.FeedbackStore.Create
// It validates the feedback and inserts it. A duplicate ID surfaces as
// store.ErrDuplicate.
func (s *PostgresFeedbackStore) Create(ctx context.Context, feedback *domain.Feedback) error {
	if err := feedback.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	metadata, err := json.Marshal(feedback.SourceMetadata)
	if err != nil {
		return fmt.Errorf("failed to encode source metadata: %w", err)
	}

	query := `
		INSERT INTO feedbacks (id, content, source, source_url, source_metadata,
			author_name, author_handle, posted_at, language, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = s.db.ExecContext(ctx, query,
		feedback.ID,
		feedback.Content,
		feedback.Source,
		nullString(feedback.SourceURL),
		metadata,
		nullString(feedback.AuthorName),
		nullString(feedback.AuthorHandle),
		feedback.PostedAt,
		feedback.Language,
		feedback.CreatedAt,
		feedback.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to create feedback",
			"feedback_id", feedback.ID,
			"source", feedback.Source,
			"error", err)
		return MapError(err)
	}

	return nil
}

// GetByID implements store.FeedbackStore.GetByID
// Returns store.ErrFeedbackNotFound if the feedback does not exist.
func (s *PostgresFeedbackStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Feedback, error) {
	query := `
		SELECT id, content, source, source_url, source_metadata,
			author_name, author_handle, posted_at, language, created_at, updated_at
		FROM feedbacks
		WHERE id = $1
	`

	var (
		fb           domain.Feedback
		sourceURL    sql.NullString
		metadata     []byte
		authorName   sql.NullString
		authorHandle sql.NullString
		postedAt     sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&fb.ID,
		&fb.Content,
		&fb.Source,
		&sourceURL,
		&metadata,
		&authorName,
		&authorHandle,
		&postedAt,
		&fb.Language,
		&fb.CreatedAt,
		&fb.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrFeedbackNotFound
		}
		s.logger.Error("failed to get feedback",
			"feedback_id", id,
			"error", err)
		return nil, MapError(err)
	}

	fb.SourceURL = sourceURL.String
	fb.AuthorName = authorName.String
	fb.AuthorHandle = authorHandle.String
	if postedAt.Valid {
		t := postedAt.Time
		fb.PostedAt = &t
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &fb.SourceMetadata); err != nil {
			return nil, fmt.Errorf("failed to decode source metadata: %w", err)
		}
	}

	return &fb, nil
}

// WithTx implements store.FeedbackStore.WithTx
// It returns a new store instance backed by the given transaction.
func (s *PostgresFeedbackStore) WithTx(tx *sql.Tx) store.FeedbackStore {
	return &PostgresFeedbackStore{
		db:     tx,
		logger: s.logger,
	}
}

// nullString converts an empty string to a NULL value for storage.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
