package db

import (
	"context"
	"strconv"

	"hrpulse/internal/types"
)

// JobHistoryRepository provides data access for the job_history table.
// Entries track executions of scheduled jobs for operational visibility.
type JobHistoryRepository struct {
	db DBTX
}

// NewJobHistoryRepository creates a new JobHistoryRepository backed by the
// given database connection (pool or transaction).
func NewJobHistoryRepository(db DBTX) *JobHistoryRepository {
	return &JobHistoryRepository{db: db}
}

// Start inserts a new job_history row with status 'running' and returns its
// ID for the matching Finish call. The BIGSERIAL id is returned as a decimal
// string so both backends share the scheduler.JobHistory signature.
func (r *JobHistoryRepository) Start(ctx context.Context, jobType string) (string, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO job_history (job_type, started_at, status)
		 VALUES ($1, NOW(), 'running')
		 RETURNING id`,
		jobType,
	).Scan(&id)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalDB, "failed to start job history entry", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// Finish updates the row with the final status, item count and optional
// error message. A non-numeric id is rejected before any query is sent.
// An id that matches no row returns ErrCodeInternalUnexpected.
func (r *JobHistoryRepository) Finish(ctx context.Context, id string, status string, items int, jobErr error) error {
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return types.NewAppError(types.ErrCodeValidationMissingField, "invalid job history id", err).
			WithDetails(map[string]any{"id": id})
	}

	var errMsg *string
	if jobErr != nil {
		s := jobErr.Error()
		errMsg = &s
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE job_history
		 SET finished_at = NOW(), status = $2, items_count = $3, error = $4
		 WHERE id = $1`,
		rowID,
		status,
		items,
		errMsg,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to finish job history entry", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "job history entry not found", nil)
	}
	return nil
}
