// Package main is the entrypoint for the attendance summary Lambda.
//
// An EventBridge schedule invokes it once per day with a JobPayload. The
// handler validates the task, runs the job for the reference time and
// returns the RunResult as its result string. Job failures are reported in
// that result, never as a Lambda error, so the platform does not retry a run
// that may already have written part of the notification log.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"hrpulse/internal/app"
	"hrpulse/internal/config"
	"hrpulse/internal/scheduler"
	"hrpulse/internal/types"
)

// coldStartTimeout bounds connecting the store backend during init.
const coldStartTimeout = 30 * time.Second

// JobRunner runs the summary job once for a reference instant.
type JobRunner interface {
	RunAt(ctx context.Context, now time.Time) scheduler.RunResult
}

// Handler holds the dependencies of the Lambda handler function.
type Handler struct {
	Job    JobRunner
	Logger *slog.Logger

	now func() time.Time
}

// Handle validates the payload and runs the job. Only malformed payloads
// produce an error.
func (h *Handler) Handle(ctx context.Context, payload scheduler.JobPayload) (string, error) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := h.now
	if clock == nil {
		clock = time.Now
	}

	if payload.Task != scheduler.TaskAttendanceSummary {
		logger.ErrorContext(ctx, "rejecting unknown task", "task", string(payload.Task))
		return "", types.NewAppError(types.ErrCodeValidationUnknownTask,
			fmt.Sprintf("unknown task type %q", payload.Task), nil)
	}

	now := clock().UTC()
	if payload.ReferenceTime != nil {
		now = payload.ReferenceTime.UTC()
	}

	logger.InfoContext(ctx, "digest job invoked",
		"task", string(payload.Task),
		"reference_time", now.Format(time.RFC3339),
	)

	result := h.Job.RunAt(ctx, now)

	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("task %s %s", payload.Task, result.Status), nil
	}
	return string(body), nil
}

func main() {
	logger := app.NewLogger(os.Stdout, os.Getenv("LOG_LEVEL"), true)
	logger.Info("digest job Lambda initializing (cold start)")

	cfg, err := config.LoadConfig(config.NewSSMProvider(os.Getenv("AWS_REGION")))
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger = app.NewLogger(os.Stdout, cfg.LogLevel, true)

	ctx, cancel := context.WithTimeout(context.Background(), coldStartTimeout)
	wired, err := app.Build(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to wire attendance summary job", "error", err)
		os.Exit(1)
	}

	handler := &Handler{Job: wired.Job, Logger: logger}

	logger.Info("digest job Lambda initialized",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"store_backend", cfg.StoreBackend,
	)

	lambda.Start(handler.Handle)
}
