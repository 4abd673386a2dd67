// Package scheduler implements the daily attendance summary job.
//
// A run computes the reporting window for a local calendar day, aggregates
// the attendance records created in it, resolves the HR recipients by role
// and appends at most one summary notification per recipient per period.
// Runs are triggered by EventBridge (cmd/digest-job), the ops server
// (cmd/digest-server) or the job-runner CLI.
package scheduler

import (
	"context"
	"time"

	"hrpulse/internal/types"
)

// TaskType identifies which job should handle a trigger event.
type TaskType string

const (
	TaskAttendanceSummary TaskType = "attendance_summary"
)

// JobPayload is the JSON payload sent by EventBridge or a manual invoke.
//
//	{
//	  "task": "attendance_summary",
//	  "reference_time": "2024-03-02T01:00:00Z"  // optional
//	}
type JobPayload struct {
	Task TaskType `json:"task"`
	// ReferenceTime overrides "now" for backfills. If nil, time.Now() is used.
	ReferenceTime *time.Time `json:"reference_time,omitempty"`
}

// RunStatus is the terminal state of one job run.
type RunStatus string

const (
	RunCompleted    RunStatus = "completed"
	RunSkipped      RunStatus = "skipped"
	RunNoRecords    RunStatus = "no_records"
	RunNoRecipients RunStatus = "no_recipients"
	RunFailed       RunStatus = "failed"
)

// RunResult is the observable outcome of a run. Run never returns an error;
// failures are reported through Status and Error.
type RunResult struct {
	Status          RunStatus             `json:"status"`
	Window          types.ReportingWindow `json:"window"`
	RecordCount     int                   `json:"record_count"`
	Recipients      int                   `json:"recipients"`
	Created         int                   `json:"created"`
	AlreadyNotified int                   `json:"already_notified"`
	Failed          int                   `json:"failed"`
	Dropped         int                   `json:"dropped"`
	StartedAt       time.Time             `json:"started_at"`
	Duration        time.Duration         `json:"duration"`
	Error           string                `json:"error,omitempty"`
}

// AttendanceStore reads attendance records.
type AttendanceStore interface {
	// ListCreatedBetween returns records with CreatedAt in [start, end],
	// both ends inclusive.
	ListCreatedBetween(ctx context.Context, start, end time.Time) ([]types.AttendanceRecord, error)
}

// RoleAssignmentStore reads role assignments.
type RoleAssignmentStore interface {
	// ListActiveByRoles returns active assignments holding any of roles.
	ListActiveByRoles(ctx context.Context, roles []string) ([]types.RoleAssignment, error)
}

// ProfileStore reads profiles.
type ProfileStore interface {
	// ListActiveByIDs batch-fetches the active profiles among ids.
	ListActiveByIDs(ctx context.Context, ids []string) ([]types.Profile, error)
}

// NotificationLogStore is the append-only notification log.
type NotificationLogStore interface {
	// Exists reports whether an entry for (to, kind, periodKey) is present.
	Exists(ctx context.Context, to, kind, periodKey string) (bool, error)

	// CreateIfAbsent inserts entry unless one with the same (To, Kind,
	// Metadata.PeriodKey) exists. It returns false, nil when the unique key
	// already holds an entry.
	CreateIfAbsent(ctx context.Context, entry *types.NotificationLogEntry) (bool, error)
}

// DeliveryPublisher fans a freshly created notification out to delivery
// channels. A nil publisher disables fan-out.
type DeliveryPublisher interface {
	PublishDelivery(ctx context.Context, entry types.NotificationLogEntry) error
}

// JobMetrics records the outcome of a run.
type JobMetrics interface {
	RecordRun(ctx context.Context, result RunResult) error
}

// JobHistory tracks run executions for operational visibility.
type JobHistory interface {
	Start(ctx context.Context, jobType string) (string, error)
	Finish(ctx context.Context, id string, status string, items int, jobErr error) error
}
