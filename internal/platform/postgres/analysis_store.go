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

// PostgresAnalysisStore implements the store.AnalysisStore interface
// using a PostgreSQL database as the storage backend. The feedback_id
// unique constraint enforces the one-analysis-per-feedback invariant.
type PostgresAnalysisStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAnalysisStore creates a new PostgreSQL implementation of
// the AnalysisStore interface. If logger is nil, the default logger is
// used.
func NewPostgresAnalysisStore(db store.DBTX, logger *slog.Logger) *PostgresAnalysisStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAnalysisStore{
		db:     db,
		logger: logger.With(slog.String("component", "analysis_store")),
	}
}

// Ensure PostgresAnalysisStore implements store.AnalysisStore interface
var _ store.AnalysisStore = (*PostgresAnalysisStore)(nil)

// Upsert implements store.AnalysisStore.Upsert
// The ON CONFLICT clause keys on feedback_id, so a force re-analysis
// replaces the existing row in place and concurrent upserts for the
// same feedback cannot produce duplicates. The conflicting row keeps
// its primary key, so the RETURNING clause feeds the persisted id and
// created_at back onto the analysis.
func (s *PostgresAnalysisStore) Upsert(ctx context.Context, analysis *domain.Analysis) error {
	if err := analysis.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	cols, err := marshalAnalysisColumns(analysis)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO analyses (id, feedback_id, detected_language,
			sentiment_label, sentiment_score, sentiment_confidence, sentiment_model,
			topics, refined_topics, entities, keywords, categories,
			summary, insights, tie_break, processing_time_ms, errors,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (feedback_id) DO UPDATE SET
			detected_language = EXCLUDED.detected_language,
			sentiment_label = EXCLUDED.sentiment_label,
			sentiment_score = EXCLUDED.sentiment_score,
			sentiment_confidence = EXCLUDED.sentiment_confidence,
			sentiment_model = EXCLUDED.sentiment_model,
			topics = EXCLUDED.topics,
			refined_topics = EXCLUDED.refined_topics,
			entities = EXCLUDED.entities,
			keywords = EXCLUDED.keywords,
			categories = EXCLUDED.categories,
			summary = EXCLUDED.summary,
			insights = EXCLUDED.insights,
			tie_break = EXCLUDED.tie_break,
			processing_time_ms = EXCLUDED.processing_time_ms,
			errors = EXCLUDED.errors,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err = s.db.QueryRowContext(ctx, query,
		analysis.ID,
		analysis.FeedbackID,
		nullString(analysis.DetectedLanguage),
		nullString(string(analysis.Sentiment.Label)),
		analysis.Sentiment.Score,
		analysis.Sentiment.Confidence,
		nullString(analysis.Sentiment.Model),
		cols.topics,
		cols.refinedTopics,
		cols.entities,
		cols.keywords,
		cols.categories,
		nullString(analysis.Summary),
		cols.insights,
		cols.tieBreak,
		analysis.ProcessingTimeMs,
		cols.errs,
		analysis.CreatedAt,
		analysis.UpdatedAt,
	).Scan(&analysis.ID, &analysis.CreatedAt)
	if err != nil {
		s.logger.Error("failed to upsert analysis",
			"analysis_id", analysis.ID,
			"feedback_id", analysis.FeedbackID,
			"error", err)
		return MapError(err)
	}

	return nil
}

// GetByFeedbackID implements store.AnalysisStore.GetByFeedbackID
// Returns store.ErrAnalysisNotFound if no analysis exists for the feedback.
func (s *PostgresAnalysisStore) GetByFeedbackID(
	ctx context.Context,
	feedbackID uuid.UUID,
) (*domain.Analysis, error) {
	query := `
		SELECT id, feedback_id, detected_language,
			sentiment_label, sentiment_score, sentiment_confidence, sentiment_model,
			topics, refined_topics, entities, keywords, categories,
			summary, insights, tie_break, processing_time_ms, errors,
			created_at, updated_at
		FROM analyses
		WHERE feedback_id = $1
	`

	var (
		a                domain.Analysis
		detectedLanguage sql.NullString
		sentimentLabel   sql.NullString
		sentimentModel   sql.NullString
		summary          sql.NullString
		topics           []byte
		refinedTopics    []byte
		entities         []byte
		keywords         []byte
		categories       []byte
		insights         []byte
		tieBreak         []byte
		errs             []byte
	)

	err := s.db.QueryRowContext(ctx, query, feedbackID).Scan(
		&a.ID,
		&a.FeedbackID,
		&detectedLanguage,
		&sentimentLabel,
		&a.Sentiment.Score,
		&a.Sentiment.Confidence,
		&sentimentModel,
		&topics,
		&refinedTopics,
		&entities,
		&keywords,
		&categories,
		&summary,
		&insights,
		&tieBreak,
		&a.ProcessingTimeMs,
		&errs,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrAnalysisNotFound
		}
		s.logger.Error("failed to get analysis",
			"feedback_id", feedbackID,
			"error", err)
		return nil, MapError(err)
	}

	a.DetectedLanguage = detectedLanguage.String
	a.Sentiment.Label = domain.SentimentLabel(sentimentLabel.String)
	a.Sentiment.Model = sentimentModel.String
	a.Summary = summary.String

	for _, col := range []struct {
		raw []byte
		out any
	}{
		{topics, &a.Topics},
		{refinedTopics, &a.RefinedTopics},
		{entities, &a.Entities},
		{keywords, &a.Keywords},
		{categories, &a.Categories},
		{insights, &a.Insights},
		{errs, &a.Errors},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.out); err != nil {
			return nil, fmt.Errorf("failed to decode analysis column: %w", err)
		}
	}

	if len(tieBreak) > 0 {
		var tb domain.TieBreak
		if err := json.Unmarshal(tieBreak, &tb); err != nil {
			return nil, fmt.Errorf("failed to decode tie break: %w", err)
		}
		a.TieBreak = &tb
	}

	return &a, nil
}

// WithTx implements store.AnalysisStore.WithTx
// It returns a new store instance backed by the given transaction.
func (s *PostgresAnalysisStore) WithTx(tx *sql.Tx) store.AnalysisStore {
	return &PostgresAnalysisStore{
		db:     tx,
		logger: s.logger,
	}
}

// analysisColumns holds the JSON-encoded column values for an analysis row.
type analysisColumns struct {
	topics        []byte
	refinedTopics []byte
	entities      []byte
	keywords      []byte
	categories    []byte
	insights      []byte
	tieBreak      []byte
	errs          []byte
}

func marshalAnalysisColumns(analysis *domain.Analysis) (*analysisColumns, error) {
	var cols analysisColumns
	var err error

	for _, col := range []struct {
		out *[]byte
		in  any
	}{
		{&cols.topics, emptySlice(analysis.Topics)},
		{&cols.refinedTopics, emptySlice(analysis.RefinedTopics)},
		{&cols.entities, emptySlice(analysis.Entities)},
		{&cols.keywords, emptySlice(analysis.Keywords)},
		{&cols.categories, emptySlice(analysis.Categories)},
		{&cols.insights, analysis.Insights},
		{&cols.errs, emptySlice(analysis.Errors)},
	} {
		if *col.out, err = json.Marshal(col.in); err != nil {
			return nil, fmt.Errorf("failed to encode analysis column: %w", err)
		}
	}

	if analysis.TieBreak != nil {
		if cols.tieBreak, err = json.Marshal(analysis.TieBreak); err != nil {
			return nil, fmt.Errorf("failed to encode tie break: %w", err)
		}
	}

	return &cols, nil
}

// emptySlice substitutes an empty slice for nil so JSON columns store
// [] instead of null.
func emptySlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
