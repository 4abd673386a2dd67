// Package main is the long-lived host for the attendance summary job.
//
// It serves the ops API (health and manual trigger) and, unless
// ENABLE_SCHEDULE=false, fires the job every day at REPORT_DELIVERY_TIME in
// REPORT_TIMEZONE. The scheduler loop and a manual trigger share one job
// instance, so its RunGuard keeps them from overlapping.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hrpulse/internal/app"
	"hrpulse/internal/config"
	"hrpulse/internal/core"
	"hrpulse/internal/scheduler"
)

// shutdownTimeout bounds draining in-flight requests and closing stores.
const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var provider config.SecretProvider
	if os.Getenv("APP_ENV") != "local" {
		provider = config.NewSSMProvider(os.Getenv("AWS_REGION"))
	}
	cfg, err := config.LoadConfig(provider)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := app.NewLogger(os.Stdout, cfg.LogLevel, true)
	logger.Info("digest server starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wired, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("wiring job: %w", err)
	}

	srv, err := core.NewServer(wired.Job, logger, wired.Probes...)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.MountRoutes()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if !cfg.Server.ScheduleEnabled {
			logger.Info("in-process schedule disabled")
			return
		}
		runSchedule(ctx, wired.Job, cfg.Report.DeliveryTime, wired.Location, logger)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			stop()
			<-loopDone
			_ = wired.Close(context.Background())
			return fmt.Errorf("server error: %w", err)
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	<-loopDone

	if err := wired.Close(shutdownCtx); err != nil {
		logger.Error("store shutdown error", "error", err)
		return fmt.Errorf("closing stores: %w", err)
	}

	logger.Info("digest server stopped cleanly")
	return nil
}

// runSchedule drives the daily loop until ctx is cancelled.
func runSchedule(ctx context.Context, job scheduler.Runner, deliveryTime string, loc *time.Location, logger *slog.Logger) {
	err := scheduler.RunDaily(ctx, job, deliveryTime, loc, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("daily schedule stopped", "error", err)
	}
}
