package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/lumenvoice/feedback-api/internal/analysis"
	"github.com/lumenvoice/feedback-api/internal/api/shared"
	"github.com/lumenvoice/feedback-api/internal/domain"
)

// Analyzer runs the analysis pipeline for a single feedback item.
type Analyzer interface {
	Analyze(ctx context.Context, feedbackID uuid.UUID, forceReanalysis bool) (*domain.Analysis, error)
}

// BatchAnalyzer runs the analysis pipeline for a batch of feedback items.
type BatchAnalyzer interface {
	AnalyzeBatch(ctx context.Context, feedbackIDs []uuid.UUID, forceReanalysis bool) (*analysis.BatchResult, error)
}

// AnalyzeRequest represents the request body for analyzing one feedback item.
type AnalyzeRequest struct {
	FeedbackID      uuid.UUID `json:"feedback_id"       validate:"required"`
	ForceReanalysis bool      `json:"force_reanalysis"`
}

// BatchAnalyzeRequest represents the request body for analyzing a batch.
type BatchAnalyzeRequest struct {
	FeedbackIDs     []uuid.UUID `json:"feedback_ids"     validate:"required,min=1,max=100"`
	ForceReanalysis bool        `json:"force_reanalysis"`
}

// AnalysisHandler handles analysis-related HTTP requests.
type AnalysisHandler struct {
	analyzer Analyzer
	batch    BatchAnalyzer
	logger   *slog.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analyzer Analyzer, batch BatchAnalyzer, logger *slog.Logger) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{
		analyzer: analyzer,
		batch:    batch,
		logger:   logger.With(slog.String("component", "analysis_handler")),
	}
}

// Analyze handles POST /api/analysis requests. The response is the
// persisted analysis; domain.Analysis carries the wire format directly.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.FeedbackID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "feedback_id is required")
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), req.FeedbackID, req.ForceReanalysis)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// AnalyzeBatch handles POST /api/analysis/batch requests.
func (h *AnalysisHandler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchAnalyzeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result, err := h.batch.AnalyzeBatch(r.Context(), req.FeedbackIDs, req.ForceReanalysis)
	if err != nil {
		// Only context cancellation reaches here; item failures are in the result.
		shared.RespondWithErrorAndLog(w, r,
			http.StatusServiceUnavailable, "Batch analysis interrupted", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
