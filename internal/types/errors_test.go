package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorFormat(t *testing.T) {
	appErr := NewAppError(ErrCodeInternalDB, "failed to list attendance records", nil)
	assert.Equal(t, "internal_database_error: failed to list attendance records", appErr.Error())
}

func TestAppError_ErrorIncludesCause(t *testing.T) {
	appErr := NewAppError(ErrCodeInternalDB, "failed to list attendance records", errors.New("connection reset"))
	assert.Equal(t, "internal_database_error: failed to list attendance records: connection reset", appErr.Error())
}

func TestAppError_UnwrapChain(t *testing.T) {
	underlying := errors.New("connection refused")
	appErr := NewAppError(ErrCodeInternalDB, "failed to query profiles", underlying)
	wrapped := fmt.Errorf("resolving recipients: %w", appErr)

	assert.True(t, errors.Is(wrapped, underlying))

	var target *AppError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, ErrCodeInternalDB, target.Code)
}

func TestAppError_WithDetailsDoesNotMutate(t *testing.T) {
	base := &AppError{
		Code:    ErrCodeInternalDB,
		Message: "insert failed",
		Details: map[string]any{"table": "notification_log"},
	}

	extended := base.WithDetails(map[string]any{"period_key": "2024-03-01"})

	assert.Len(t, base.Details, 1)
	assert.Equal(t, "notification_log", extended.Details["table"])
	assert.Equal(t, "2024-03-01", extended.Details["period_key"])
}

func TestIsCode(t *testing.T) {
	cause := errors.New("queue unreachable")
	err := fmt.Errorf("outer: %w", NewAppError(ErrCodeUpstreamUnavailable, "publish failed", cause))

	assert.True(t, IsCode(err, ErrCodeUpstreamUnavailable))
	assert.False(t, IsCode(err, ErrCodeInternalDB))
	assert.False(t, IsCode(errors.New("plain"), ErrCodeInternalDB))
	assert.True(t, errors.Is(err, cause))
}

func TestAppError_HTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationInvalidTime, 400},
		{ErrCodeValidationInvalidJSON, 400},
		{ErrCodeUpstreamUnavailable, 503},
		{ErrCodeInternalDB, 500},
		{ErrCodeInternalUnexpected, 500},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, NewAppError(tt.code, "x", nil).HTTPStatus())
		})
	}
}
