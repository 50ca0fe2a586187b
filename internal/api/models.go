package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/lumenvoice/feedback-api/internal/domain"
)

// FeedbackResponse represents the response data for a feedback item.
type FeedbackResponse struct {
	ID           string     `json:"id"`
	Content      string     `json:"content"`
	Source       string     `json:"source"`
	SourceURL    string     `json:"source_url,omitempty"`
	AuthorName   string     `json:"author_name,omitempty"`
	AuthorHandle string     `json:"author_handle,omitempty"`
	PostedAt     *time.Time `json:"posted_at,omitempty"`
	Language     string     `json:"language"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// JobResponse represents the response data for an automation job.
type JobResponse struct {
	ID           string          `json:"id"`
	FeedbackID   string          `json:"feedback_id"`
	AnalysisID   string          `json:"analysis_id,omitempty"`
	Kind         string          `json:"kind"`
	Status       string          `json:"status"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Response     json.RawMessage `json:"response,omitempty"`
	ExternalRef  string          `json:"external_ref,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
	ScheduledAt  time.Time       `json:"scheduled_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// feedbackToResponse converts a domain.Feedback to a FeedbackResponse.
func feedbackToResponse(feedback *domain.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:           feedback.ID.String(),
		Content:      feedback.Content,
		Source:       string(feedback.Source),
		SourceURL:    feedback.SourceURL,
		AuthorName:   feedback.AuthorName,
		AuthorHandle: feedback.AuthorHandle,
		PostedAt:     feedback.PostedAt,
		Language:     feedback.Language,
		CreatedAt:    feedback.CreatedAt,
		UpdatedAt:    feedback.UpdatedAt,
	}
}

// jobToResponse converts a domain.AutomationJob to a JobResponse.
// A nil analysis ID (manual job created before analysis) serializes as
// an absent field rather than the zero UUID.
func jobToResponse(job *domain.AutomationJob) JobResponse {
	resp := JobResponse{
		ID:           job.ID.String(),
		FeedbackID:   job.FeedbackID.String(),
		Kind:         job.Kind,
		Status:       string(job.Status),
		Payload:      job.Payload,
		Response:     job.Response,
		ExternalRef:  job.ExternalRef,
		ErrorMessage: job.ErrorMessage,
		RetryCount:   job.RetryCount,
		MaxRetries:   job.MaxRetries,
		ScheduledAt:  job.ScheduledAt,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
	if job.AnalysisID != uuid.Nil {
		resp.AnalysisID = job.AnalysisID.String()
	}
	return resp
}

// jobsToResponse converts a slice of jobs to their response form.
func jobsToResponse(jobs []*domain.AutomationJob) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, jobToResponse(job))
	}
	return out
}
