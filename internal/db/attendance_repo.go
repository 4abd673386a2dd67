package db

import (
	"context"
	"time"

	"hrpulse/internal/types"
)

// AttendanceRepository reads the attendance_records table, which is owned
// by the HR application. The job never writes to it.
//
// The only query is a created_at range scan. It is served by
// idx_attendance_records_created_at when ApplyReadIndexes has been run;
// without that index it falls back to a sequential scan.
type AttendanceRepository struct {
	db DBTX
}

// NewAttendanceRepository creates a new AttendanceRepository backed by the
// given database connection (pool or transaction).
func NewAttendanceRepository(db DBTX) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListCreatedBetween returns records with created_at in [start, end], both
// ends inclusive, oldest first.
//
// Status and the late/early-exit flags are optional columns: a NULL status
// is returned as "" and a NULL flag as false.
func (r *AttendanceRepository) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]types.AttendanceRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, employee_id, COALESCE(status, ''),
		        COALESCE(is_late, false), COALESCE(is_early_exit, false), created_at
		 FROM attendance_records
		 WHERE created_at >= $1 AND created_at <= $2
		 ORDER BY created_at, id`,
		start,
		end,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query attendance records", err)
	}
	defer rows.Close()

	var records []types.AttendanceRecord
	for rows.Next() {
		var rec types.AttendanceRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.EmployeeID,
			&rec.Status,
			&rec.IsLate,
			&rec.IsEarlyExit,
			&rec.CreatedAt,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan attendance record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating attendance records", err)
	}
	return records, nil
}
