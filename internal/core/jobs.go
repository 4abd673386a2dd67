package core

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"hrpulse/internal/scheduler"
	"hrpulse/internal/types"
)

// runRequest is the optional body of a manual run. ReferenceTime is RFC 3339;
// when absent the server clock is used.
type runRequest struct {
	ReferenceTime string `json:"reference_time,omitempty"`
}

// HandleRunAttendanceSummary runs the summary job once and returns the
// RunResult. A run rejected by the guard answers 409 with the skipped result.
func (s *Server) HandleRunAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := DecodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		Error(w, r, err)
		return
	}

	now := s.now()
	if req.ReferenceTime != "" {
		parsed, err := time.Parse(time.RFC3339, req.ReferenceTime)
		if err != nil {
			Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidTime, "reference_time must be RFC 3339", err).
				WithDetails(map[string]any{"reference_time": req.ReferenceTime}))
			return
		}
		now = parsed
	}

	result := s.Job.RunAt(r.Context(), now)

	s.Logger.InfoContext(r.Context(), "manual run finished",
		slog.String("status", string(result.Status)),
		slog.String("period_key", result.Window.PeriodKey),
		slog.String("request_id", GetRequestID(r.Context())),
	)

	JSON(w, r, runStatusCode(result), result)
}

// runStatusCode maps a RunResult onto an HTTP status. Short-circuits are
// successful runs; a store error surfaced on a short-circuit is not.
func runStatusCode(result scheduler.RunResult) int {
	switch {
	case result.Status == scheduler.RunSkipped:
		return http.StatusConflict
	case result.Status == scheduler.RunFailed, result.Error != "":
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
