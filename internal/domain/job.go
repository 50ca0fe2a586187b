package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of an automation job.
type JobStatus string

// Possible job status values
const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Job kind constants for the built-in automation handlers. Any other
// kind is dispatched as a generic skill identifier.
const (
	JobKindTicket = "ticket"
	JobKindAlert  = "alert"
)

// DefaultMaxRetries is the retry budget assigned to newly created jobs.
const DefaultMaxRetries = 3

// Common validation and transition errors for AutomationJob
var (
	ErrEmptyJobID         = errors.New("job ID cannot be empty")
	ErrEmptyJobFeedbackID = errors.New("job feedback ID cannot be empty")
	ErrEmptyJobKind       = errors.New("job kind cannot be empty")
	ErrInvalidJobStatus   = errors.New("invalid job status")

	// ErrJobNotRetryable is returned when a retry is requested for a job
	// that is not in a retryable state or has exhausted its retry budget.
	ErrJobNotRetryable = errors.New("job cannot be retried")

	// ErrJobNotCancellable is returned when a cancel is requested for a
	// job that has already reached a terminal state.
	ErrJobNotCancellable = errors.New("job cannot be cancelled")
)

// AutomationJob is a durable, retryable unit of downstream work
// (ticket creation, alerting, or an arbitrary skill invocation).
//
// State machine: queued -> processing -> {completed | failed}, with
// queued|processing -> cancelled on operator request and
// failed|cancelled -> queued via an explicit Retry. A job is eligible
// for claim only when Status == queued and ScheduledAt <= now.
type AutomationJob struct {
	ID           uuid.UUID       `json:"id"`
	FeedbackID   uuid.UUID       `json:"feedback_id"`
	AnalysisID   uuid.UUID       `json:"analysis_id"`
	Kind         string          `json:"kind"`
	Status       JobStatus       `json:"status"`
	Payload      json.RawMessage `json:"payload"`
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

// NewAutomationJob creates a queued job for the given feedback/analysis
// pair, scheduled for immediate dispatch.
// Returns an error if validation fails.
func NewAutomationJob(
	feedbackID, analysisID uuid.UUID,
	kind string,
	payload json.RawMessage,
) (*AutomationJob, error) {
	now := time.Now().UTC()
	job := &AutomationJob{
		ID:          uuid.New(),
		FeedbackID:  feedbackID,
		AnalysisID:  analysisID,
		Kind:        kind,
		Status:      JobStatusQueued,
		Payload:     payload,
		MaxRetries:  DefaultMaxRetries,
		ScheduledAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the AutomationJob has valid data.
func (j *AutomationJob) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if j.FeedbackID == uuid.Nil {
		return ErrEmptyJobFeedbackID
	}

	if j.Kind == "" {
		return ErrEmptyJobKind
	}

	if !IsValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	return nil
}

// IsValidJobStatus checks if the given status is a known JobStatus.
func IsValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusQueued, JobStatusProcessing, JobStatusCompleted,
		JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the job has reached a state the worker
// will never pick up again. A failed job is terminal unless an explicit
// Retry transitions it back to queued.
func (j *AutomationJob) IsTerminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// EligibleAt reports whether the job may be claimed at the given time.
func (j *AutomationJob) EligibleAt(now time.Time) bool {
	return j.Status == JobStatusQueued && !j.ScheduledAt.After(now)
}

// MarkProcessing transitions the job from queued to processing.
func (j *AutomationJob) MarkProcessing(now time.Time) {
	j.Status = JobStatusProcessing
	j.StartedAt = &now
	j.UpdatedAt = now
}

// Complete records a successful dispatch result and transitions the job
// to its terminal completed state.
func (j *AutomationJob) Complete(response json.RawMessage, externalRef string, now time.Time) {
	j.Status = JobStatusCompleted
	j.Response = response
	j.ExternalRef = externalRef
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// RecordFailure applies the retry/backoff policy after a dispatch
// failure. If the retry budget allows, the job is requeued with the
// given delay; otherwise it transitions to the terminal failed state.
func (j *AutomationJob) RecordFailure(cause string, retryDelay time.Duration, now time.Time) {
	j.RetryCount++
	j.ErrorMessage = cause
	j.UpdatedAt = now

	if j.RetryCount <= j.MaxRetries {
		j.Status = JobStatusQueued
		j.ScheduledAt = now.Add(retryDelay)
		return
	}

	// Clamp so RetryCount <= MaxRetries always holds.
	j.RetryCount = j.MaxRetries
	j.Status = JobStatusFailed
	j.CompletedAt = &now
}

// Fail transitions the job directly to the terminal failed state,
// bypassing the retry budget. Used for unexpected handler errors that
// must not be infinitely retried.
func (j *AutomationJob) Fail(cause string, now time.Time) {
	j.Status = JobStatusFailed
	j.ErrorMessage = cause
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// Retry transitions a failed or cancelled job back to queued. It
// requires remaining retry budget, increments the retry count, clears
// the error message, and resets the schedule to now.
func (j *AutomationJob) Retry(now time.Time) error {
	if j.Status != JobStatusFailed && j.Status != JobStatusCancelled {
		return ErrJobNotRetryable
	}

	if j.RetryCount >= j.MaxRetries {
		return ErrJobNotRetryable
	}

	j.Status = JobStatusQueued
	j.RetryCount++
	j.ErrorMessage = ""
	j.ScheduledAt = now
	j.CompletedAt = nil
	j.UpdatedAt = now
	return nil
}

// Cancel transitions a queued or processing job to cancelled.
func (j *AutomationJob) Cancel(now time.Time) error {
	if j.Status != JobStatusQueued && j.Status != JobStatusProcessing {
		return ErrJobNotCancellable
	}

	j.Status = JobStatusCancelled
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}
