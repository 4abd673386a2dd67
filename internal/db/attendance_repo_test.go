package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hrpulse/internal/types"
)

func TestAttendanceRepository_ListCreatedBetween_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAttendanceRepository(db)

	start := time.Date(2024, 2, 29, 17, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 16, 59, 59, 999_000_000, time.UTC)
	t1 := start.Add(time.Hour)
	t2 := start.Add(2 * time.Hour)

	rows := newMockRows([][]any{
		{"r1", "e1", "present", false, false, t1},
		{"r2", "e2", "", true, false, t2},
	})

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), []any{start, end}).
		Run(func(args mock.Arguments) {
			sql := args.Get(1).(string)
			assert.Contains(t, sql, "created_at >= $1 AND created_at <= $2")
		}).
		Return(rows, nil)

	records, err := repo.ListCreatedBetween(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "r1", records[0].ID)
	assert.Equal(t, "e1", records[0].EmployeeID)
	assert.Equal(t, "present", records[0].Status)
	assert.Equal(t, t1, records[0].CreatedAt)
	assert.True(t, records[1].IsLate)
	assert.Empty(t, records[1].Status)
	assert.True(t, rows.closed)
	db.AssertExpectations(t)
}

func TestAttendanceRepository_ListCreatedBetween_OptionalFlagsCoalesced(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAttendanceRepository(db)

	created := time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC)
	// The database resolves NULL flags to false before they reach Scan.
	rows := newMockRows([][]any{{"r1", "e1", "", false, false, created}})

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			sql := args.Get(1).(string)
			assert.Contains(t, sql, "COALESCE(status, '')")
			assert.Contains(t, sql, "COALESCE(is_late, false)")
			assert.Contains(t, sql, "COALESCE(is_early_exit, false)")
		}).
		Return(rows, nil)

	records, err := repo.ListCreatedBetween(context.Background(), created, created)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].IsLate)
	assert.False(t, records[0].IsEarlyExit)
	db.AssertExpectations(t)
}

func TestAttendanceRepository_ListCreatedBetween_Empty(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAttendanceRepository(db)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(newMockRows(nil), nil)

	records, err := repo.ListCreatedBetween(context.Background(), time.Now(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAttendanceRepository_ListCreatedBetween_QueryError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAttendanceRepository(db)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return((*mockRows)(nil), errors.New("connection refused"))

	records, err := repo.ListCreatedBetween(context.Background(), time.Now(), time.Now())
	require.Error(t, err)
	assert.Nil(t, records)
	assert.True(t, types.IsCode(err, types.ErrCodeInternalDB))
}

func TestAttendanceRepository_ListCreatedBetween_ScanError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAttendanceRepository(db)

	rows := newMockRows([][]any{{"r1"}})
	rows.scanErr = errors.New("type mismatch")
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	_, err := repo.ListCreatedBetween(context.Background(), time.Now(), time.Now())
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestAttendanceRepository_ListCreatedBetween_RowsError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAttendanceRepository(db)

	rows := newMockRows(nil)
	rows.errVal = errors.New("stream interrupted")
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	_, err := repo.ListCreatedBetween(context.Background(), time.Now(), time.Now())
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrCodeInternalDB))
}
