package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumenvoice/feedback-api/internal/api/shared"
	"github.com/lumenvoice/feedback-api/internal/domain"
	"github.com/lumenvoice/feedback-api/internal/service"
	"github.com/lumenvoice/feedback-api/internal/store"
)

// defaultJobListLimit caps unpaginated job listings.
const defaultJobListLimit = 50

// CreateJobRequest represents the request body for manually triggering a job.
type CreateJobRequest struct {
	FeedbackID uuid.UUID       `json:"feedback_id" validate:"required"`
	Kind       string          `json:"kind"        validate:"required,min=1"`
	Payload    json.RawMessage `json:"payload"`
}

// JobHandler handles automation job HTTP requests.
type JobHandler struct {
	jobService service.JobService
	logger     *slog.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobService service.JobService, logger *slog.Logger) *JobHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobHandler{
		jobService: jobService,
		logger:     logger.With(slog.String("component", "job_handler")),
	}
}

// CreateJob handles POST /api/jobs requests.
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.FeedbackID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "feedback_id is required")
		return
	}
	if req.Kind == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "kind is required")
		return
	}

	job, err := h.jobService.CreateJob(r.Context(), service.CreateJobInput{
		FeedbackID: req.FeedbackID,
		Kind:       req.Kind,
		Payload:    req.Payload,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, jobToResponse(job))
}

// ListJobs handles GET /api/jobs requests. Supported query parameters:
// feedback_id, status, limit, offset.
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := store.JobFilter{Limit: defaultJobListLimit}

	if raw := r.URL.Query().Get("feedback_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid feedback_id filter")
			return
		}
		filter.FeedbackID = id
	}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.JobStatus(raw)
		if !domain.IsValidJobStatus(status) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid status filter")
			return
		}
		filter.Status = status
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 200 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid offset")
			return
		}
		filter.Offset = offset
	}

	jobs, err := h.jobService.ListJobs(r.Context(), filter)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobsToResponse(jobs))
}

// GetJob handles GET /api/jobs/{id} requests.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	job, err := h.jobService.GetJob(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(job))
}

// RetryJob handles POST /api/jobs/{id}/retry requests.
func (h *JobHandler) RetryJob(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	job, err := h.jobService.RetryJob(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(job))
}

// CancelJob handles POST /api/jobs/{id}/cancel requests.
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	job, err := h.jobService.CancelJob(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(job))
}

// jobID parses the {id} route parameter, writing a 400 response on failure.
func (h *JobHandler) jobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return uuid.Nil, false
	}
	return id, true
}
