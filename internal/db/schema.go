package db

import (
	"context"
	"errors"
	"fmt"

	"hrpulse/internal/types"
)

// Schema is the DDL for the tables this package writes. It is applied as a
// single batch and every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS notifications (
    id           TEXT PRIMARY KEY,
    recipient_id TEXT NOT NULL,
    kind         TEXT NOT NULL,
    message      TEXT NOT NULL,
    period_key   TEXT NOT NULL,
    metadata     JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT notifications_recipient_kind_period_key
        UNIQUE (recipient_id, kind, period_key)
);

CREATE TABLE IF NOT EXISTS job_history (
    id          BIGSERIAL PRIMARY KEY,
    job_type    TEXT NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ,
    status      TEXT NOT NULL,
    items_count INTEGER NOT NULL DEFAULT 0,
    error       TEXT
);
`

// ReadIndexes are advisory indexes on tables owned by the HR application.
// Each statement runs on its own so a missing table only costs its index.
var ReadIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_attendance_records_created_at
    ON attendance_records (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_role_assignments_roles_active
    ON role_assignments USING GIN (roles) WHERE is_active`,
}

// ApplySchema executes Schema. Without these tables the job cannot write its
// notification log, so callers should treat a failure as fatal.
func ApplySchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to apply schema", err)
	}
	return nil
}

// ApplyReadIndexes executes every statement of ReadIndexes, continuing past
// failures. The returned error joins each failed statement; the job does not
// depend on these indexes, so callers may log it as a warning.
func ApplyReadIndexes(ctx context.Context, db DBTX) error {
	var errs []error
	for i, stmt := range ReadIndexes {
		if _, err := db.Exec(ctx, stmt); err != nil {
			errs = append(errs, fmt.Errorf("read index %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to apply read indexes", errors.Join(errs...))
	}
	return nil
}
