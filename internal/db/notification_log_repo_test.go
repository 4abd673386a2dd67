package db

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hrpulse/internal/types"
)

func testEntry() *types.NotificationLogEntry {
	now := time.Date(2024, 3, 2, 3, 0, 0, 0, time.UTC)
	return &types.NotificationLogEntry{
		ID:      "n-1",
		To:      "p2",
		Kind:    "daily_attendance_summary",
		Message: "Daily attendance summary for 2024-03-01",
		Metadata: types.NotificationMetadata{
			PeriodKey:   "2024-03-01",
			RecordCount: 5,
			GeneratedAt: now,
		},
		CreatedAt: now,
	}
}

func TestNotificationLogRepository_Exists(t *testing.T) {
	for _, want := range []bool{true, false} {
		db := new(mockDBTX)
		repo := NewNotificationLogRepository(db)

		row := &mockRow{scanFn: func(dest ...any) error {
			*dest[0].(*bool) = want
			return nil
		}}
		db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"),
			[]any{"p1", "daily_attendance_summary", "2024-03-01"}).Return(row)

		got, err := repo.Exists(context.Background(), "p1", "daily_attendance_summary", "2024-03-01")
		require.NoError(t, err)
		assert.Equal(t, want, got)
		db.AssertExpectations(t)
	}
}

func TestNotificationLogRepository_Exists_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewNotificationLogRepository(db)

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: errors.New("connection refused")})

	_, err := repo.Exists(context.Background(), "p1", "k", "2024-03-01")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrCodeInternalDB))
}

func TestNotificationLogRepository_CreateIfAbsent_Inserted(t *testing.T) {
	db := new(mockDBTX)
	repo := NewNotificationLogRepository(db)
	entry := testEntry()

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			sql := args.Get(1).(string)
			assert.Contains(t, sql, "ON CONFLICT (recipient_id, kind, period_key) DO NOTHING")

			params := args.Get(2).([]any)
			require.Len(t, params, 7)
			assert.Equal(t, "n-1", params[0])
			assert.Equal(t, "p2", params[1])
			assert.Equal(t, "2024-03-01", params[4])

			var meta map[string]any
			require.NoError(t, json.Unmarshal(params[5].([]byte), &meta))
			assert.Equal(t, "2024-03-01", meta["period_key"])
			assert.EqualValues(t, 5, meta["record_count"])
		}).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	created, err := repo.CreateIfAbsent(context.Background(), entry)
	require.NoError(t, err)
	assert.True(t, created)
	db.AssertExpectations(t)
}

func TestNotificationLogRepository_CreateIfAbsent_Conflict(t *testing.T) {
	db := new(mockDBTX)
	repo := NewNotificationLogRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 0"), nil)

	created, err := repo.CreateIfAbsent(context.Background(), testEntry())
	require.NoError(t, err)
	assert.False(t, created)
}

func TestNotificationLogRepository_CreateIfAbsent_UniqueViolation(t *testing.T) {
	db := new(mockDBTX)
	repo := NewNotificationLogRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, &pgconn.PgError{Code: "23505", ConstraintName: "notifications_pkey"})

	created, err := repo.CreateIfAbsent(context.Background(), testEntry())
	require.NoError(t, err)
	assert.False(t, created)
}

func TestNotificationLogRepository_CreateIfAbsent_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewNotificationLogRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection refused"))

	created, err := repo.CreateIfAbsent(context.Background(), testEntry())
	require.Error(t, err)
	assert.False(t, created)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestNotificationLogRepository_CreateIfAbsent_MissingKey(t *testing.T) {
	db := new(mockDBTX)
	repo := NewNotificationLogRepository(db)

	entry := testEntry()
	entry.Metadata.PeriodKey = ""

	_, err := repo.CreateIfAbsent(context.Background(), entry)
	assert.True(t, types.IsCode(err, types.ErrCodeValidationMissingField))
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}
