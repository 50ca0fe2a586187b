// Package worker implements the background loop that drains the
// automation job queue: claim eligible jobs, dispatch each to the
// downstream automation target, and apply the retry or terminal-failure
// policy to the outcome.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumenvoice/feedback-api/internal/automation"
	"github.com/lumenvoice/feedback-api/internal/capability"
	"github.com/lumenvoice/feedback-api/internal/config"
	"github.com/lumenvoice/feedback-api/internal/domain"
	"github.com/lumenvoice/feedback-api/internal/store"
)

// Loop interval and policy defaults, applied when the configuration
// leaves them zero.
const (
	DefaultClaimLimit    = 5
	DefaultIdleInterval  = 30 * time.Second
	DefaultBatchInterval = 10 * time.Second
	DefaultErrorInterval = 60 * time.Second
	DefaultRetryDelay    = 5 * time.Minute
)

// Loop is the automation job worker. It owns no in-process queue state:
// claims go through the job store's atomic claim operation, so several
// Loop instances can share one job table.
type Loop struct {
	jobs       store.JobStore
	dispatcher capability.Dispatcher
	logger     *slog.Logger

	claimLimit    int
	idleInterval  time.Duration
	batchInterval time.Duration
	errorInterval time.Duration
	retryDelay    time.Duration

	// now and sleep are replaceable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a worker loop. Zero config values fall back to the
// package defaults. If logger is nil, the default logger is used.
func New(
	jobs store.JobStore,
	dispatcher capability.Dispatcher,
	cfg config.WorkerConfig,
	logger *slog.Logger,
) (*Loop, error) {
	if jobs == nil {
		return nil, errors.New("job store cannot be nil")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	l := &Loop{
		jobs:          jobs,
		dispatcher:    dispatcher,
		logger:        logger.With(slog.String("component", "automation_worker")),
		claimLimit:    cfg.ClaimLimit,
		idleInterval:  cfg.IdleInterval,
		batchInterval: cfg.BatchInterval,
		errorInterval: cfg.ErrorInterval,
		retryDelay:    cfg.RetryDelay,
		now:           func() time.Time { return time.Now().UTC() },
		sleep:         sleepCtx,
	}

	if l.claimLimit <= 0 {
		l.claimLimit = DefaultClaimLimit
	}
	if l.idleInterval <= 0 {
		l.idleInterval = DefaultIdleInterval
	}
	if l.batchInterval <= 0 {
		l.batchInterval = DefaultBatchInterval
	}
	if l.errorInterval <= 0 {
		l.errorInterval = DefaultErrorInterval
	}
	if l.retryDelay <= 0 {
		l.retryDelay = DefaultRetryDelay
	}

	return l, nil
}

// Run executes the worker loop until the context is cancelled. It
// returns the context's error on shutdown; the loop itself never exits
// on a job or store error, it applies the error backoff interval and
// keeps going.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("automation worker started",
		"claim_limit", l.claimLimit,
		"idle_interval", l.idleInterval,
		"batch_interval", l.batchInterval)

	for {
		if err := ctx.Err(); err != nil {
			l.logger.Info("automation worker stopping")
			return err
		}

		interval := l.runOnce(ctx)

		if err := l.sleep(ctx, interval); err != nil {
			l.logger.Info("automation worker stopping")
			return err
		}
	}
}

// runOnce performs a single claim-and-dispatch iteration and returns
// the interval to sleep before the next one: the error interval when
// the claim failed, the idle interval when the queue was empty, and the
// batch interval otherwise.
func (l *Loop) runOnce(ctx context.Context) time.Duration {
	jobs, err := l.jobs.ClaimQueued(ctx, l.claimLimit, l.now())
	if err != nil {
		l.logger.Error("failed to claim queued jobs", "error", err)
		return l.errorInterval
	}

	if len(jobs) == 0 {
		return l.idleInterval
	}

	l.logger.Info("claimed automation jobs", "count", len(jobs))
	for _, job := range jobs {
		l.processJob(ctx, job)
	}

	return l.batchInterval
}

// processJob dispatches one claimed job and persists the outcome. A
// dispatch failure goes through the retry policy; a panic in the
// handler path transitions the job straight to terminal failed so a
// poisoned payload cannot be retried forever.
func (l *Loop) processJob(ctx context.Context, job *domain.AutomationJob) {
	log := l.logger.With(
		"job_id", job.ID,
		"feedback_id", job.FeedbackID,
		"kind", job.Kind,
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing job", "panic", r)
			job.Fail(fmt.Sprintf("unexpected error: %v", r), l.now())
			if err := l.jobs.Update(ctx, job); err != nil {
				log.Error("failed to persist job failure after panic", "error", err)
			}
		}
	}()

	result, err := l.dispatcher.Dispatch(ctx, automation.SkillFor(job.Kind), job.Payload)

	switch {
	case err != nil:
		l.applyFailure(job, err.Error(), log)
	case !result.Success:
		cause := result.Error
		if cause == "" {
			cause = "Unknown error"
		}
		l.applyFailure(job, cause, log)
	default:
		job.Complete(result.Response, result.ExternalRef, l.now())
		log.Info("job completed", "external_ref", result.ExternalRef)
	}

	if err := l.jobs.Update(ctx, job); err != nil {
		log.Error("failed to persist job outcome",
			"status", job.Status,
			"error", err)
	}
}

// applyFailure runs the retry policy for a failed dispatch.
func (l *Loop) applyFailure(job *domain.AutomationJob, cause string, log *slog.Logger) {
	job.RecordFailure(cause, l.retryDelay, l.now())

	if job.Status == domain.JobStatusFailed {
		log.Error("job failed permanently",
			"retry_count", job.RetryCount,
			"max_retries", job.MaxRetries,
			"error", cause)
		return
	}

	log.Warn("job failed, requeued for retry",
		"retry_count", job.RetryCount,
		"max_retries", job.MaxRetries,
		"scheduled_at", job.ScheduledAt,
		"error", cause)
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
