package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hrpulse/internal/config"
)

// Runner is the subset of AttendanceSummaryJob used by trigger loops.
type Runner interface {
	Run(ctx context.Context) RunResult
}

// NextRunAt returns the next occurrence of deliveryTime ("HH:MM") in loc
// strictly after now, in UTC.
func NextRunAt(now time.Time, deliveryTime string, loc *time.Location) (time.Time, error) {
	hour, minute, err := config.ParseTimeOfDay(deliveryTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid delivery time %q: %w", deliveryTime, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return computeNextDayAtTime(now.In(loc), hour, minute, loc).UTC(), nil
}

// computeNextDayAtTime returns the next occurrence of hour:minute in loc
// after now. time.Date normalizes times that fall into a DST gap.
func computeNextDayAtTime(now time.Time, hour, minute int, loc *time.Location) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
	if today.After(now) {
		return today
	}
	return time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, loc)
}

// RunDaily fires job once per day at deliveryTime in loc until ctx is
// cancelled. Each iteration's result is logged; a failed run does not stop
// the loop.
func RunDaily(ctx context.Context, job Runner, deliveryTime string, loc *time.Location, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	return runDaily(ctx, job, deliveryTime, loc, logger, time.Now, time.NewTimer)
}

type timerFactory func(d time.Duration) *time.Timer

func runDaily(
	ctx context.Context,
	job Runner,
	deliveryTime string,
	loc *time.Location,
	logger *slog.Logger,
	now func() time.Time,
	newTimer timerFactory,
) error {
	for {
		next, err := NextRunAt(now(), deliveryTime, loc)
		if err != nil {
			return err
		}

		wait := next.Sub(now())
		if wait < 0 {
			wait = 0
		}
		logger.InfoContext(ctx, "next attendance summary run scheduled",
			"next_run_at", next.Format(time.RFC3339),
			"wait", wait.String(),
		)

		timer := newTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.InfoContext(ctx, "daily trigger loop stopped")
			return nil
		case <-timer.C:
		}

		result := job.Run(ctx)
		logger.InfoContext(ctx, "scheduled attendance summary run finished",
			"status", string(result.Status),
			"period_key", result.Window.PeriodKey,
			"created", result.Created,
		)
	}
}
