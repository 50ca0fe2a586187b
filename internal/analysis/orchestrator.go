// Package analysis implements the feedback analysis pipeline: language
// resolution, parallel capability fan-out, sequential refinement,
// persistence, and the automation decision. The pipeline degrades
// instead of aborting: every capability failure is replaced with a
// fallback value and recorded in the result's error list.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumenvoice/feedback-api/internal/automation"
	"github.com/lumenvoice/feedback-api/internal/capability"
	"github.com/lumenvoice/feedback-api/internal/config"
	"github.com/lumenvoice/feedback-api/internal/domain"
	"github.com/lumenvoice/feedback-api/internal/langdetect"
	"github.com/lumenvoice/feedback-api/internal/store"
)

// defaultCallTimeout bounds each capability call when the configuration
// does not set one.
const defaultCallTimeout = 30 * time.Second

// summaryPreviewLength bounds the content preview used in fallback summaries.
const summaryPreviewLength = 100

// Orchestrator runs the per-feedback analysis pipeline.
type Orchestrator struct {
	feedbacks store.FeedbackStore
	analyses  store.AnalysisStore
	jobs      store.JobStore

	sentiment capability.SentimentAnalyzer
	topics    capability.TopicClassifier
	entities  capability.EntityExtractor
	refiner   capability.Refiner

	engine      *automation.Engine
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewOrchestrator creates an analysis orchestrator. All dependencies
// are required except the logger, which defaults to slog.Default.
func NewOrchestrator(
	feedbacks store.FeedbackStore,
	analyses store.AnalysisStore,
	jobs store.JobStore,
	sentiment capability.SentimentAnalyzer,
	topics capability.TopicClassifier,
	entities capability.EntityExtractor,
	refiner capability.Refiner,
	engine *automation.Engine,
	cfg config.AnalysisConfig,
	logger *slog.Logger,
) (*Orchestrator, error) {
	switch {
	case feedbacks == nil:
		return nil, errors.New("feedback store cannot be nil")
	case analyses == nil:
		return nil, errors.New("analysis store cannot be nil")
	case jobs == nil:
		return nil, errors.New("job store cannot be nil")
	case sentiment == nil:
		return nil, errors.New("sentiment analyzer cannot be nil")
	case topics == nil:
		return nil, errors.New("topic classifier cannot be nil")
	case entities == nil:
		return nil, errors.New("entity extractor cannot be nil")
	case refiner == nil:
		return nil, errors.New("refiner cannot be nil")
	case engine == nil:
		return nil, errors.New("automation engine cannot be nil")
	}

	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		feedbacks:   feedbacks,
		analyses:    analyses,
		jobs:        jobs,
		sentiment:   sentiment,
		topics:      topics,
		entities:    entities,
		refiner:     refiner,
		engine:      engine,
		callTimeout: callTimeout,
		logger:      logger,
	}, nil
}

// Analyze runs the full pipeline for one feedback item and returns the
// persisted analysis.
//
// The operation is idempotent: unless forceReanalysis is set, an
// existing analysis for the feedback is returned as-is and no new
// capability calls or automation jobs happen. Capability failures never
// fail the pipeline; only a missing feedback or a persistence error do.
func (o *Orchestrator) Analyze(
	ctx context.Context,
	feedbackID uuid.UUID,
	forceReanalysis bool,
) (*domain.Analysis, error) {
	start := time.Now()
	log := o.logger.With("feedback_id", feedbackID)

	feedback, err := o.feedbacks.GetByID(ctx, feedbackID)
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback: %w", err)
	}

	if !forceReanalysis {
		existing, err := o.analyses.GetByFeedbackID(ctx, feedbackID)
		if err == nil {
			log.Info("analysis already exists, returning existing result",
				"analysis_id", existing.ID)
			return existing, nil
		}
		if !errors.Is(err, store.ErrAnalysisNotFound) {
			return nil, fmt.Errorf("failed to check for existing analysis: %w", err)
		}
	}

	log.Info("starting analysis pipeline", "force_reanalysis", forceReanalysis)

	analysis, err := domain.NewAnalysis(feedbackID)
	if err != nil {
		return nil, err
	}

	language, langConfidence := o.resolveLanguage(feedback)
	analysis.DetectedLanguage = language
	log.Debug("resolved language",
		"language", language,
		"confidence", langConfidence)

	fanout := o.runFanout(ctx, feedback.Content, language)
	analysis.Sentiment = domain.Sentiment{
		Label:      fanout.sentiment.Label,
		Score:      fanout.sentiment.Score,
		Confidence: fanout.sentiment.Confidence,
		Model:      fanout.sentiment.Model,
	}
	analysis.Topics = fanout.topics.Topics
	analysis.Entities = fanout.entities.Entities
	analysis.Keywords = fanout.entities.Keywords
	analysis.Categories = fanout.entities.Categories
	analysis.Errors = fanout.errors

	o.runRefinement(ctx, feedback.Content, language, fanout, analysis)

	analysis.ProcessingTimeMs = time.Since(start).Milliseconds()
	analysis.UpdatedAt = time.Now().UTC()

	if err := o.analyses.Upsert(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to persist analysis: %w", err)
	}

	// Automation failures are reported but never fail an analysis that
	// has already been persisted.
	if o.engine.ShouldTrigger(analysis) {
		if err := o.enqueueAutomation(ctx, feedback, analysis); err != nil {
			log.Error("failed to enqueue automation jobs", "error", err)
		}
	}

	log.Info("analysis pipeline completed",
		"analysis_id", analysis.ID,
		"sentiment", analysis.Sentiment.Label,
		"urgency", analysis.Insights.Urgency,
		"error_count", len(analysis.Errors),
		"processing_time_ms", analysis.ProcessingTimeMs)

	return analysis, nil
}

// resolveLanguage returns the language to analyze in. An explicit
// language on the feedback is trusted outright; the auto sentinel (or
// an empty value) runs local detection.
func (o *Orchestrator) resolveLanguage(feedback *domain.Feedback) (string, float64) {
	if feedback.Language != "" && feedback.Language != domain.LanguageAuto {
		return feedback.Language, 1.0
	}
	return langdetect.Detect(feedback.Content)
}

// fanoutResult collects the outcomes of the parallel capability calls.
// Failed calls carry their fallback value and an entry in errors.
type fanoutResult struct {
	sentiment capability.SentimentResult
	topics    capability.TopicResult
	entities  capability.EntityResult
	errors    []string
}

// runFanout invokes the three independent capability services
// concurrently, each under its own timeout. A failing or slow call
// never cancels its siblings; it is replaced by a fallback value and
// recorded. Errors are reported in a fixed order (sentiment, topics,
// entities) so results are deterministic regardless of completion order.
func (o *Orchestrator) runFanout(ctx context.Context, text, language string) *fanoutResult {
	res := &fanoutResult{}
	var sentimentErr, topicsErr, entitiesErr error

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
		defer cancel()
		res.sentiment, sentimentErr = o.sentiment.AnalyzeSentiment(callCtx, text, language)
	}()

	go func() {
		defer wg.Done()
		callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
		defer cancel()
		res.topics, topicsErr = o.topics.ClassifyTopics(callCtx, text)
	}()

	go func() {
		defer wg.Done()
		callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
		defer cancel()
		res.entities, entitiesErr = o.entities.ExtractEntities(callCtx, text, language)
	}()

	wg.Wait()

	if sentimentErr != nil {
		res.errors = append(res.errors, fmt.Sprintf("Sentiment analysis failed: %v", sentimentErr))
		res.sentiment = capability.SentimentResult{
			Label:      domain.SentimentNeutral,
			Score:      0.5,
			Confidence: 0.0,
			Model:      "fallback",
		}
	}

	if topicsErr != nil {
		res.errors = append(res.errors, fmt.Sprintf("Topic classification failed: %v", topicsErr))
		res.topics = capability.TopicResult{Topics: []domain.TopicScore{}, Model: "fallback"}
	}

	if entitiesErr != nil {
		res.errors = append(res.errors, fmt.Sprintf("Entity extraction failed: %v", entitiesErr))
		res.entities = capability.EntityResult{
			Entities:   []domain.Entity{},
			Keywords:   []domain.Keyword{},
			Categories: []domain.Category{},
			Service:    "fallback",
		}
	}

	return res
}

// runRefinement invokes the refinement pass sequentially after the
// fan-out and writes its outcome onto the analysis. On failure the
// heuristic fallback takes over: urgency and recommendation derived
// from the sentiment, a content-preview summary, and no topic revision.
func (o *Orchestrator) runRefinement(
	ctx context.Context,
	text, language string,
	fanout *fanoutResult,
	analysis *domain.Analysis,
) {
	prior := capability.PriorAnalysis{
		Language:  language,
		Sentiment: fanout.sentiment,
		Topics:    fanout.topics.Topics,
		Entities:  fanout.entities.Entities,
	}

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	refined, err := o.refiner.Refine(callCtx, text, prior)
	if err != nil {
		analysis.Errors = append(analysis.Errors, fmt.Sprintf("Refinement failed: %v", err))
		o.applyFallbackRefinement(text, fanout.sentiment.Label, analysis)
		return
	}

	analysis.Summary = refined.Summary
	analysis.RefinedTopics = refined.Topics
	analysis.TieBreak = refined.TieBreak
	analysis.Insights = refined.Insights
}

// applyFallbackRefinement synthesizes insights from the sentiment alone.
func (o *Orchestrator) applyFallbackRefinement(
	text string,
	sentiment domain.SentimentLabel,
	analysis *domain.Analysis,
) {
	var urgency domain.UrgencyLevel
	var action string
	switch sentiment {
	case domain.SentimentNegative:
		urgency = domain.UrgencyHigh
		action = "Address customer concerns immediately"
	case domain.SentimentPositive:
		urgency = domain.UrgencyLow
		action = "Maintain current service quality"
	default:
		urgency = domain.UrgencyMedium
		action = "Monitor for trends and improvements"
	}

	preview := text
	if len(preview) > summaryPreviewLength {
		preview = preview[:summaryPreviewLength] + "..."
	}

	analysis.Summary = "Customer feedback: " + preview
	analysis.RefinedTopics = []domain.TopicScore{}
	analysis.Insights = domain.Insights{
		Urgency:              urgency,
		ActionRecommendation: action,
		Confidence:           0.5,
		Reasoning:            "Fallback analysis due to AI service failure",
	}
}

// enqueueAutomation creates one job per kind the engine derives from
// the analysis. Any build or persistence error aborts the remaining
// kinds and is reported to the caller, which treats it as non-fatal.
func (o *Orchestrator) enqueueAutomation(
	ctx context.Context,
	feedback *domain.Feedback,
	analysis *domain.Analysis,
) error {
	kinds := o.engine.JobKinds(analysis)
	for _, kind := range kinds {
		payload, err := o.engine.BuildPayload(feedback, analysis, kind)
		if err != nil {
			return fmt.Errorf("failed to build %s payload: %w", kind, err)
		}

		job, err := domain.NewAutomationJob(feedback.ID, analysis.ID, kind, payload)
		if err != nil {
			return fmt.Errorf("failed to create %s job: %w", kind, err)
		}

		if err := o.jobs.Create(ctx, job); err != nil {
			return fmt.Errorf("failed to enqueue %s job: %w", kind, err)
		}

		o.logger.Info("enqueued automation job",
			"job_id", job.ID,
			"feedback_id", feedback.ID,
			"kind", kind)
	}

	if len(kinds) > 0 {
		o.logger.Debug("automation jobs created",
			"feedback_id", feedback.ID,
			"kinds", strings.Join(kinds, ","))
	}

	return nil
}
