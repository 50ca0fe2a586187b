package analysis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lumenvoice/feedback-api/internal/config"
)

// Default batch pacing parameters.
const (
	defaultGroupSize  = 5
	defaultGroupDelay = 1 * time.Second
)

// BatchSuccess records one successfully analyzed feedback.
type BatchSuccess struct {
	FeedbackID uuid.UUID `json:"feedback_id"`
	AnalysisID uuid.UUID `json:"analysis_id"`
}

// BatchFailure records one feedback whose pipeline run failed outright.
type BatchFailure struct {
	FeedbackID uuid.UUID `json:"feedback_id"`
	Error      string    `json:"error"`
}

// BatchResult aggregates the outcome of a batch run. Per-item failure
// never fails the batch; it is reported here instead.
type BatchResult struct {
	Total   int            `json:"total"`
	Success []BatchSuccess `json:"success"`
	Failed  []BatchFailure `json:"failed"`
}

// BatchCoordinator runs the analysis pipeline over many feedback items
// with bounded concurrency: items are processed in fixed-size groups,
// the members of a group concurrently, with a pacing delay between
// groups so the capability services are not overwhelmed.
type BatchCoordinator struct {
	orchestrator *Orchestrator
	groupSize    int
	groupDelay   time.Duration
	logger       *slog.Logger

	// sleep is replaceable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewBatchCoordinator creates a batch coordinator over the given
// orchestrator. Zero config values fall back to the package defaults.
func NewBatchCoordinator(
	orchestrator *Orchestrator,
	cfg config.AnalysisConfig,
	logger *slog.Logger,
) *BatchCoordinator {
	groupSize := cfg.GroupSize
	if groupSize <= 0 {
		groupSize = defaultGroupSize
	}

	groupDelay := cfg.GroupDelay
	if groupDelay < 0 {
		groupDelay = defaultGroupDelay
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &BatchCoordinator{
		orchestrator: orchestrator,
		groupSize:    groupSize,
		groupDelay:   groupDelay,
		logger:       logger,
		sleep:        sleepCtx,
	}
}

// AnalyzeBatch runs the pipeline for every feedback ID. Items are
// grouped by the configured group size; each group runs concurrently
// and the next group starts only after the pacing delay. There is no
// delay after the final group.
//
// The returned error is non-nil only when the context is cancelled
// mid-batch; per-item failures land in the result's Failed list.
func (c *BatchCoordinator) AnalyzeBatch(
	ctx context.Context,
	feedbackIDs []uuid.UUID,
	forceReanalysis bool,
) (*BatchResult, error) {
	result := &BatchResult{
		Total:   len(feedbackIDs),
		Success: []BatchSuccess{},
		Failed:  []BatchFailure{},
	}

	var mu sync.Mutex

	for start := 0; start < len(feedbackIDs); start += c.groupSize {
		end := start + c.groupSize
		if end > len(feedbackIDs) {
			end = len(feedbackIDs)
		}
		group := feedbackIDs[start:end]

		g, groupCtx := errgroup.WithContext(ctx)
		for _, id := range group {
			g.Go(func() error {
				analysis, err := c.orchestrator.Analyze(groupCtx, id, forceReanalysis)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Failed = append(result.Failed, BatchFailure{
						FeedbackID: id,
						Error:      err.Error(),
					})
					// Item failure must not cancel the rest of the group.
					return nil
				}
				result.Success = append(result.Success, BatchSuccess{
					FeedbackID: id,
					AnalysisID: analysis.ID,
				})
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return result, err
		}

		if end < len(feedbackIDs) {
			if err := c.sleep(ctx, c.groupDelay); err != nil {
				return result, err
			}
		}
	}

	c.logger.Info("batch analysis completed",
		"total", result.Total,
		"success", len(result.Success),
		"failed", len(result.Failed))

	return result, nil
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
