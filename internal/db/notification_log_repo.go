package db

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"hrpulse/internal/types"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// NotificationLogRepository is the append-only notifications table. The
// (recipient_id, kind, period_key) unique constraint is the idempotency key
// of the attendance summary.
type NotificationLogRepository struct {
	db DBTX
}

// NewNotificationLogRepository creates a new NotificationLogRepository backed
// by the given database connection (pool or transaction). The notifications
// table must exist; see ApplySchema.
func NewNotificationLogRepository(db DBTX) *NotificationLogRepository {
	return &NotificationLogRepository{db: db}
}

// Exists reports whether a notification for (to, kind, periodKey) exists.
// The lookup is a point query on the unique constraint's index.
//
// Exists is advisory only. A false result does not reserve the key, so the
// caller must still go through CreateIfAbsent.
func (r *NotificationLogRepository) Exists(ctx context.Context, to, kind, periodKey string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM notifications
		   WHERE recipient_id = $1 AND kind = $2 AND period_key = $3
		 )`,
		to,
		kind,
		periodKey,
	).Scan(&exists)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to check notification log", err)
	}
	return exists, nil
}

// CreateIfAbsent inserts entry unless the unique key is already taken, in
// which case it returns false, nil.
//
// SQL pattern:
//
//	INSERT INTO notifications (...) VALUES (...)
//	ON CONFLICT (recipient_id, kind, period_key) DO NOTHING
//
// Zero rows affected means another writer got there first.
func (r *NotificationLogRepository) CreateIfAbsent(ctx context.Context, entry *types.NotificationLogEntry) (bool, error) {
	if entry.To == "" || entry.Kind == "" || entry.Metadata.PeriodKey == "" {
		return false, types.NewAppError(types.ErrCodeValidationMissingField,
			"notification requires recipient, kind and period key", nil)
	}

	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode notification metadata", err)
	}

	tag, err := r.db.Exec(ctx,
		`INSERT INTO notifications
		 (id, recipient_id, kind, message, period_key, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (recipient_id, kind, period_key) DO NOTHING`,
		entry.ID,
		entry.To,
		entry.Kind,
		entry.Message,
		entry.Metadata.PeriodKey,
		metadata,
		entry.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to create notification", err)
	}
	return tag.RowsAffected() > 0, nil
}

// isUniqueViolation catches conflicts on a constraint the ON CONFLICT target
// does not name, such as a reused primary key.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
