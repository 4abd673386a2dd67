package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"hrpulse/internal/notifications/digest"
	"hrpulse/internal/types"
)

// JobType is recorded in job history for attendance summary runs.
const JobType = string(TaskAttendanceSummary)

// JobConfig holds the tunables of an AttendanceSummaryJob.
type JobConfig struct {
	Kind        string
	TargetRoles []string
	DayOffset   int
	Location    *time.Location

	// StoreCallTimeout bounds each store call. Zero disables the bound.
	StoreCallTimeout time.Duration

	// Concurrency is the number of recipients processed in parallel.
	// Values below 1 are treated as 1.
	Concurrency int
}

// JobDeps are the collaborators of an AttendanceSummaryJob. Publisher,
// Metrics and History are optional.
type JobDeps struct {
	Attendance    AttendanceStore
	Roles         RoleAssignmentStore
	Profiles      ProfileStore
	Notifications NotificationLogStore

	Publisher DeliveryPublisher
	Metrics   JobMetrics
	History   JobHistory
}

// AttendanceSummaryJob appends the daily attendance summary to the
// notification log of every HR recipient, at most once per period.
//
// Overlapping runs on one instance are rejected by its RunGuard. Runs on
// other processes are kept from double-sending by the conditional insert
// of the notification log.
type AttendanceSummaryJob struct {
	cfg      JobConfig
	deps     JobDeps
	resolver *RecipientResolver
	guard    RunGuard
	logger   *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewAttendanceSummaryJob creates the job.
func NewAttendanceSummaryJob(cfg JobConfig, deps JobDeps, logger *slog.Logger) *AttendanceSummaryJob {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &AttendanceSummaryJob{
		cfg:      cfg,
		deps:     deps,
		resolver: NewRecipientResolver(deps.Roles, deps.Profiles, cfg.TargetRoles, cfg.StoreCallTimeout, logger),
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Run executes the job for the current time.
func (j *AttendanceSummaryJob) Run(ctx context.Context) RunResult {
	return j.RunAt(ctx, j.now())
}

// Running reports whether a run currently holds the guard.
func (j *AttendanceSummaryJob) Running() bool {
	return j.guard.Running()
}

// RunAt executes the job as if invoked at now. It never returns an error
// and never panics; the outcome is reported in the RunResult.
func (j *AttendanceSummaryJob) RunAt(ctx context.Context, now time.Time) (result RunResult) {
	release, ok := j.guard.TryAcquire()
	if !ok {
		j.logger.WarnContext(ctx, "attendance summary run already in progress, skipping")
		result = RunResult{Status: RunSkipped, StartedAt: j.now()}
		j.recordMetrics(ctx, result)
		return result
	}
	defer release()

	started := j.now()
	var historyID string

	defer func() {
		if r := recover(); r != nil {
			j.logger.ErrorContext(ctx, "attendance summary run panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			result.Status = RunFailed
			result.Error = fmt.Sprintf("panic: %v", r)
		}
		result.StartedAt = started
		result.Duration = j.now().Sub(started)

		j.finishHistory(ctx, historyID, result)
		j.recordMetrics(ctx, result)

		j.logger.InfoContext(ctx, "attendance summary run finished",
			"status", string(result.Status),
			"period_key", result.Window.PeriodKey,
			"record_count", result.RecordCount,
			"recipients", result.Recipients,
			"created", result.Created,
			"already_notified", result.AlreadyNotified,
			"failed", result.Failed,
			"dropped", result.Dropped,
			"duration_ms", result.Duration.Milliseconds(),
		)
	}()

	historyID = j.startHistory(ctx)
	return j.execute(ctx, now)
}

func (j *AttendanceSummaryJob) execute(ctx context.Context, now time.Time) RunResult {
	window := ComputeWindow(now, j.cfg.DayOffset, j.cfg.Location)
	result := RunResult{Window: window}

	j.logger.InfoContext(ctx, "attendance summary run started",
		"period_key", window.PeriodKey,
		"window_start", window.Start.Format(time.RFC3339),
		"window_end", window.End.Format(time.RFC3339Nano),
	)

	records, err := j.fetchRecords(ctx, window)
	if err != nil {
		j.logger.ErrorContext(ctx, "failed to fetch attendance records",
			"period_key", window.PeriodKey,
			"error", err,
		)
		result.Error = err.Error()
	}
	if len(records) == 0 {
		j.logger.InfoContext(ctx, "no attendance records in window, nothing to report",
			"period_key", window.PeriodKey,
		)
		result.Status = RunNoRecords
		return result
	}
	result.RecordCount = len(records)

	resolution := j.resolver.Resolve(ctx)
	result.Dropped = len(resolution.Dropped)
	if len(resolution.Recipients) == 0 {
		j.logger.WarnContext(ctx, "no recipients resolved, nothing to notify",
			"period_key", window.PeriodKey,
			"roles", j.cfg.TargetRoles,
		)
		result.Status = RunNoRecipients
		return result
	}
	result.Recipients = len(resolution.Recipients)

	message := digest.Render(digest.Summarize(records), window)

	tally := j.notifyAll(ctx, resolution.Recipients, window, message, len(records))
	result.Created = tally.created
	result.AlreadyNotified = tally.alreadyNotified
	result.Failed = tally.failed
	result.Status = RunCompleted
	return result
}

func (j *AttendanceSummaryJob) fetchRecords(ctx context.Context, window types.ReportingWindow) ([]types.AttendanceRecord, error) {
	callCtx, cancel := withCallTimeout(ctx, j.cfg.StoreCallTimeout)
	defer cancel()

	records, err := j.deps.Attendance.ListCreatedBetween(callCtx, window.Start, window.End)
	if err != nil {
		return nil, wrapStoreErr("list attendance records", err)
	}
	return records, nil
}

type notifyOutcome int

const (
	outcomeCreated notifyOutcome = iota
	outcomeAlreadyNotified
	outcomeFailed
)

type notifyTally struct {
	created         int
	alreadyNotified int
	failed          int
}

// notifyAll processes every recipient with at most cfg.Concurrency in
// flight. Each recipient is handled by exactly one goroutine so its
// check-then-write stays serialized.
func (j *AttendanceSummaryJob) notifyAll(ctx context.Context, recipients []types.Recipient, window types.ReportingWindow, message string, recordCount int) notifyTally {
	var created, already, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(j.cfg.Concurrency)
	for _, rcp := range recipients {
		g.Go(func() error {
			switch j.notifyOne(ctx, rcp, window, message, recordCount) {
			case outcomeCreated:
				created.Add(1)
			case outcomeAlreadyNotified:
				already.Add(1)
			default:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return notifyTally{
		created:         int(created.Load()),
		alreadyNotified: int(already.Load()),
		failed:          int(failed.Load()),
	}
}

func (j *AttendanceSummaryJob) notifyOne(ctx context.Context, rcp types.Recipient, window types.ReportingWindow, message string, recordCount int) (outcome notifyOutcome) {
	defer func() {
		if r := recover(); r != nil {
			j.logger.ErrorContext(ctx, "recipient notification panicked",
				"profile_id", rcp.ProfileID,
				"panic", fmt.Sprint(r),
			)
			outcome = outcomeFailed
		}
	}()

	exists, err := j.exists(ctx, rcp.ProfileID, window.PeriodKey)
	if err != nil {
		j.logger.WarnContext(ctx, "notification pre-check failed, relying on conditional insert",
			"profile_id", rcp.ProfileID,
			"period_key", window.PeriodKey,
			"error", err,
		)
	} else if exists {
		j.logger.DebugContext(ctx, "recipient already notified",
			"profile_id", rcp.ProfileID,
			"period_key", window.PeriodKey,
		)
		return outcomeAlreadyNotified
	}

	generatedAt := j.now().UTC()
	entry := &types.NotificationLogEntry{
		ID:      j.newID(),
		To:      rcp.ProfileID,
		Kind:    j.cfg.Kind,
		Message: message,
		Metadata: types.NotificationMetadata{
			PeriodKey:   window.PeriodKey,
			RecordCount: recordCount,
			GeneratedAt: generatedAt,
		},
		CreatedAt: generatedAt,
	}

	created, err := j.create(ctx, entry)
	if err != nil {
		j.logger.ErrorContext(ctx, "failed to write notification",
			"profile_id", rcp.ProfileID,
			"period_key", window.PeriodKey,
			"error", err,
		)
		return outcomeFailed
	}
	if !created {
		j.logger.InfoContext(ctx, "notification written concurrently by another run",
			"profile_id", rcp.ProfileID,
			"period_key", window.PeriodKey,
		)
		return outcomeAlreadyNotified
	}

	j.publish(ctx, *entry)
	return outcomeCreated
}

func (j *AttendanceSummaryJob) exists(ctx context.Context, to, periodKey string) (bool, error) {
	callCtx, cancel := withCallTimeout(ctx, j.cfg.StoreCallTimeout)
	defer cancel()

	found, err := j.deps.Notifications.Exists(callCtx, to, j.cfg.Kind, periodKey)
	if err != nil {
		return false, wrapStoreErr("check notification log", err)
	}
	return found, nil
}

func (j *AttendanceSummaryJob) create(ctx context.Context, entry *types.NotificationLogEntry) (bool, error) {
	callCtx, cancel := withCallTimeout(ctx, j.cfg.StoreCallTimeout)
	defer cancel()

	created, err := j.deps.Notifications.CreateIfAbsent(callCtx, entry)
	if err != nil {
		return false, wrapStoreErr("write notification log", err)
	}
	return created, nil
}

// publish hands a new entry to delivery fan-out. The log entry is the
// source of truth, so failures are only logged.
func (j *AttendanceSummaryJob) publish(ctx context.Context, entry types.NotificationLogEntry) {
	if j.deps.Publisher == nil {
		return
	}
	if err := j.deps.Publisher.PublishDelivery(ctx, entry); err != nil {
		j.logger.WarnContext(ctx, "failed to publish notification delivery",
			"notification_id", entry.ID,
			"profile_id", entry.To,
			"error", err,
		)
	}
}

func (j *AttendanceSummaryJob) startHistory(ctx context.Context) (id string) {
	if j.deps.History == nil {
		return ""
	}
	defer j.recoverBookkeeping(ctx, "history_start")

	callCtx, cancel := withCallTimeout(ctx, j.cfg.StoreCallTimeout)
	defer cancel()

	id, err := j.deps.History.Start(callCtx, JobType)
	if err != nil {
		j.logger.WarnContext(ctx, "failed to record job start", "error", err)
		return ""
	}
	return id
}

func (j *AttendanceSummaryJob) finishHistory(ctx context.Context, id string, result RunResult) {
	if j.deps.History == nil || id == "" {
		return
	}
	defer j.recoverBookkeeping(ctx, "history_finish")

	status := "success"
	var jobErr error
	if result.Status == RunFailed {
		status = "failed"
		jobErr = errors.New(result.Error)
	}
	callCtx, cancel := withCallTimeout(ctx, j.cfg.StoreCallTimeout)
	defer cancel()

	if err := j.deps.History.Finish(callCtx, id, status, result.Created, jobErr); err != nil {
		j.logger.WarnContext(ctx, "failed to record job finish",
			"history_id", id,
			"error", err,
		)
	}
}

func (j *AttendanceSummaryJob) recordMetrics(ctx context.Context, result RunResult) {
	if j.deps.Metrics == nil {
		return
	}
	defer j.recoverBookkeeping(ctx, "metrics")

	if err := j.deps.Metrics.RecordRun(ctx, result); err != nil {
		j.logger.WarnContext(ctx, "failed to record run metrics", "error", err)
	}
}

// recoverBookkeeping logs and swallows a panic from history or metrics.
func (j *AttendanceSummaryJob) recoverBookkeeping(ctx context.Context, op string) {
	if r := recover(); r != nil {
		j.logger.ErrorContext(ctx, "run bookkeeping panicked",
			"op", op,
			"panic", fmt.Sprint(r),
		)
	}
}

// Preview is a read-only dry run of the job at now.
type Preview struct {
	Window     types.ReportingWindow
	Summary    digest.Summary
	Message    string
	Recipients []types.Recipient
	Dropped    []DroppedRecipient
}

// Preview computes what a run at now would send without writing anything.
// Unlike RunAt it surfaces the fetch error.
func (j *AttendanceSummaryJob) Preview(ctx context.Context, now time.Time) (Preview, error) {
	window := ComputeWindow(now, j.cfg.DayOffset, j.cfg.Location)
	records, err := j.fetchRecords(ctx, window)
	if err != nil {
		return Preview{}, err
	}
	summary := digest.Summarize(records)
	resolution := j.resolver.Resolve(ctx)
	return Preview{
		Window:     window,
		Summary:    summary,
		Message:    digest.Render(summary, window),
		Recipients: resolution.Recipients,
		Dropped:    resolution.Dropped,
	}, nil
}
