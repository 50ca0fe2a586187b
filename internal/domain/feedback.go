package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// FeedbackSource identifies where a feedback item was collected from.
type FeedbackSource string

// Possible feedback source values
const (
	FeedbackSourceManual    FeedbackSource = "manual"
	FeedbackSourceTwitter   FeedbackSource = "twitter"
	FeedbackSourceMaps      FeedbackSource = "google_maps"
	FeedbackSourceCSVImport FeedbackSource = "csv_import"
	FeedbackSourceAPI       FeedbackSource = "api"
)

// LanguageAuto is the sentinel language value that requests local
// language detection during analysis.
const LanguageAuto = "auto"

// MaxFeedbackContentLength bounds the accepted feedback text length.
const MaxFeedbackContentLength = 5000

// Common validation errors for Feedback
var (
	ErrEmptyFeedbackID        = errors.New("feedback ID cannot be empty")
	ErrEmptyFeedbackContent   = errors.New("feedback content cannot be empty")
	ErrFeedbackContentTooLong = errors.New("feedback content exceeds maximum length")
	ErrInvalidFeedbackSource  = errors.New("invalid feedback source")
)

// Feedback represents a unit of customer-submitted text to be analyzed.
// It is created by the ingestion surface and is read-only to the
// analysis pipeline.
type Feedback struct {
	ID             uuid.UUID      `json:"id"`
	Content        string         `json:"content"`
	Source         FeedbackSource `json:"source"`
	SourceURL      string         `json:"source_url,omitempty"`
	SourceMetadata map[string]any `json:"source_metadata,omitempty"`
	AuthorName     string         `json:"author_name,omitempty"`
	AuthorHandle   string         `json:"author_handle,omitempty"`
	PostedAt       *time.Time     `json:"posted_at,omitempty"`
	Language       string         `json:"language"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewFeedback creates a new Feedback with the given content and source.
// It generates a new UUID, defaults the language to auto-detection,
// and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewFeedback(content string, source FeedbackSource) (*Feedback, error) {
	now := time.Now().UTC()
	fb := &Feedback{
		ID:        uuid.New(),
		Content:   content,
		Source:    source,
		Language:  LanguageAuto,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := fb.Validate(); err != nil {
		return nil, err
	}

	return fb, nil
}

// Validate checks if the Feedback has valid data.
// Returns an error if any field fails validation.
func (f *Feedback) Validate() error {
	if f.ID == uuid.Nil {
		return ErrEmptyFeedbackID
	}

	if f.Content == "" {
		return ErrEmptyFeedbackContent
	}

	if len(f.Content) > MaxFeedbackContentLength {
		return ErrFeedbackContentTooLong
	}

	if !isValidFeedbackSource(f.Source) {
		return ErrInvalidFeedbackSource
	}

	return nil
}

// isValidFeedbackSource checks if the given source is a known FeedbackSource.
func isValidFeedbackSource(source FeedbackSource) bool {
	switch source {
	case FeedbackSourceManual, FeedbackSourceTwitter, FeedbackSourceMaps,
		FeedbackSourceCSVImport, FeedbackSourceAPI:
		return true
	default:
		return false
	}
}
