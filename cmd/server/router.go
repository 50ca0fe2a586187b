package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lumenvoice/feedback-api/internal/api"
	apiMiddleware "github.com/lumenvoice/feedback-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	feedbackHandler := api.NewFeedbackHandler(app.feedbackService, app.logger)
	analysisHandler := api.NewAnalysisHandler(app.orchestrator, app.batch, app.logger)
	jobHandler := api.NewJobHandler(app.jobService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/feedbacks", feedbackHandler.CreateFeedback)
		r.Get("/feedbacks/{id}", feedbackHandler.GetFeedback)

		r.Post("/analysis", analysisHandler.Analyze)
		r.Post("/analysis/batch", analysisHandler.AnalyzeBatch)

		r.Post("/jobs", jobHandler.CreateJob)
		r.Get("/jobs", jobHandler.ListJobs)
		r.Get("/jobs/{id}", jobHandler.GetJob)
		r.Post("/jobs/{id}/retry", jobHandler.RetryJob)
		r.Post("/jobs/{id}/cancel", jobHandler.CancelJob)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
