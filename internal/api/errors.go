package api

import (
	"errors"
	"net/http"

	"github.com/lumenvoice/feedback-api/internal/domain"
	"github.com/lumenvoice/feedback-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors: duplicates and rejected state transitions
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, domain.ErrJobNotRetryable),
		errors.Is(err, domain.ErrJobNotCancellable):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrEmptyFeedbackContent),
		errors.Is(err, domain.ErrFeedbackContentTooLong),
		errors.Is(err, domain.ErrInvalidFeedbackSource),
		errors.Is(err, domain.ErrEmptyJobKind):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, store.ErrFeedbackNotFound):
		return "Feedback not found"

	case errors.Is(err, store.ErrJobNotFound):
		return "Job not found"

	case errors.Is(err, store.ErrAnalysisNotFound):
		return "Analysis not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, domain.ErrJobNotRetryable):
		return "Job cannot be retried"

	case errors.Is(err, domain.ErrJobNotCancellable):
		return "Job cannot be cancelled"

	case errors.Is(err, domain.ErrEmptyFeedbackContent),
		errors.Is(err, domain.ErrFeedbackContentTooLong):
		return "Invalid feedback content"

	case errors.Is(err, domain.ErrInvalidFeedbackSource):
		return "Invalid feedback source"

	case errors.Is(err, domain.ErrEmptyJobKind):
		return "Job kind is required"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}
