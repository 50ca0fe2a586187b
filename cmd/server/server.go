package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// startHTTPServer starts the HTTP server and the background worker loop
// with graceful shutdown support. It blocks until a termination signal
// arrives or the context is cancelled.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: router,
	}

	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	// The worker shares the server context so a shutdown stops both; it
	// observes cancellation at iteration boundaries, never mid-dispatch.
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := app.worker.Run(serverCtx); err != nil && serverCtx.Err() == nil {
			app.logger.Error("Worker loop exited unexpectedly", "error", err)
		}
	}()

	go func() {
		app.logger.Info("Starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Error("Server failed", "error", err)
			cancelServer()
		}
	}()

	select {
	case <-shutdownCh:
		app.logger.Info("Shutting down server...")
	case <-serverCtx.Done():
		app.logger.Info("Server context canceled, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("Server shutdown failed", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop the worker and wait for its in-flight batch to finish.
	cancelServer()
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		app.logger.Warn("Worker did not stop before shutdown deadline")
	}

	app.cleanup()

	app.logger.Info("Server shutdown completed")
	return nil
}
