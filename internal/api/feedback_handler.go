package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumenvoice/feedback-api/internal/api/shared"
	"github.com/lumenvoice/feedback-api/internal/domain"
	"github.com/lumenvoice/feedback-api/internal/service"
)

// CreateFeedbackRequest represents the request body for submitting feedback.
type CreateFeedbackRequest struct {
	Content        string         `json:"content"        validate:"required,min=1,max=5000"`
	Source         string         `json:"source"         validate:"required"`
	SourceURL      string         `json:"source_url"     validate:"omitempty,url"`
	SourceMetadata map[string]any `json:"source_metadata"`
	AuthorName     string         `json:"author_name"`
	AuthorHandle   string         `json:"author_handle"`
	PostedAt       *time.Time     `json:"posted_at"`
	Language       string         `json:"language"`
}

// FeedbackHandler handles feedback-related HTTP requests.
type FeedbackHandler struct {
	feedbackService service.FeedbackService
	logger          *slog.Logger
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(feedbackService service.FeedbackService, logger *slog.Logger) *FeedbackHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackHandler{
		feedbackService: feedbackService,
		logger:          logger.With(slog.String("component", "feedback_handler")),
	}
}

// CreateFeedback handles POST /api/feedbacks requests.
func (h *FeedbackHandler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req CreateFeedbackRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	feedback, err := h.feedbackService.CreateFeedback(r.Context(), service.CreateFeedbackInput{
		Content:        req.Content,
		Source:         domain.FeedbackSource(req.Source),
		SourceURL:      req.SourceURL,
		SourceMetadata: req.SourceMetadata,
		AuthorName:     req.AuthorName,
		AuthorHandle:   req.AuthorHandle,
		PostedAt:       req.PostedAt,
		Language:       req.Language,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, feedbackToResponse(feedback))
}

// GetFeedback handles GET /api/feedbacks/{id} requests.
func (h *FeedbackHandler) GetFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid feedback ID")
		return
	}

	feedback, err := h.feedbackService.GetFeedback(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, feedbackToResponse(feedback))
}
