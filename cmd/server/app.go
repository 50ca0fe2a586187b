package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lumenvoice/feedback-api/internal/analysis"
	"github.com/lumenvoice/feedback-api/internal/automation"
	"github.com/lumenvoice/feedback-api/internal/config"
	"github.com/lumenvoice/feedback-api/internal/platform/gemini"
	"github.com/lumenvoice/feedback-api/internal/platform/inference"
	"github.com/lumenvoice/feedback-api/internal/platform/nlu"
	"github.com/lumenvoice/feedback-api/internal/platform/orchestrate"
	"github.com/lumenvoice/feedback-api/internal/platform/postgres"
	"github.com/lumenvoice/feedback-api/internal/service"
	"github.com/lumenvoice/feedback-api/internal/worker"
)

// application holds all initialized components and their dependencies.
// It is assembled once at startup and torn down by cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	feedbackStore *postgres.PostgresFeedbackStore
	analysisStore *postgres.PostgresAnalysisStore
	jobStore      *postgres.PostgresJobStore

	feedbackService service.FeedbackService
	jobService      service.JobService

	orchestrator *analysis.Orchestrator
	batch        *analysis.BatchCoordinator
	worker       *worker.Loop
}

// newApplication wires every component of the server: stores over the
// shared connection pool, capability clients, the decision engine, the
// analysis pipeline, the worker loop, and the request-scoped services.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.feedbackStore = postgres.NewPostgresFeedbackStore(db, logger)
	app.analysisStore = postgres.NewPostgresAnalysisStore(db, logger)
	app.jobStore = postgres.NewPostgresJobStore(db, logger)

	inferenceClient, err := inference.NewClient(cfg.Inference, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create inference client: %w", err)
	}

	nluClient, err := nlu.NewClient(cfg.NLU, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create NLU client: %w", err)
	}

	refiner, err := gemini.NewRefiner(ctx, logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create refiner: %w", err)
	}

	dispatcher, err := orchestrate.NewClient(cfg.Automation, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create automation client: %w", err)
	}

	engine := automation.NewDefaultEngine()

	app.orchestrator, err = analysis.NewOrchestrator(
		app.feedbackStore,
		app.analysisStore,
		app.jobStore,
		inferenceClient,
		inferenceClient,
		nluClient,
		refiner,
		engine,
		cfg.Analysis,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	app.batch = analysis.NewBatchCoordinator(app.orchestrator, cfg.Analysis, logger)

	app.worker, err = worker.New(app.jobStore, dispatcher, cfg.Worker, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker: %w", err)
	}

	app.feedbackService, err = service.NewFeedbackService(app.feedbackStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create feedback service: %w", err)
	}

	app.jobService, err = service.NewJobService(
		app.jobStore, app.feedbackStore, app.analysisStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create job service: %w", err)
	}

	return app, nil
}

// cleanup releases application resources during shutdown.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Failed to close database connection", "error", err)
		}
	}
}
