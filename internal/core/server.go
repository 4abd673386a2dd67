// Package core provides the operational HTTP surface for the attendance
// summary job: a health endpoint backed by store probes and a manual trigger
// that runs the job once and returns its RunResult. Cross-cutting concerns
// (panic recovery, request IDs, request logging, timeouts) are enforced here
// before requests reach the handlers.
package core

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrpulse/internal/scheduler"
)

// JobTrigger runs the summary job once for a reference instant.
// *scheduler.AttendanceSummaryJob satisfies it.
type JobTrigger interface {
	RunAt(ctx context.Context, now time.Time) scheduler.RunResult
}

// Server holds the dependencies of the ops API so tests can inject fakes.
type Server struct {
	Logger       *slog.Logger
	Job          JobTrigger
	HealthProbes []HealthProbe

	// RequestTimeout bounds every request context. A manual run shares this
	// deadline, so it should exceed the worst-case job duration.
	RequestTimeout time.Duration

	// now supplies the reference time for runs without an explicit one.
	now func() time.Time

	router *chi.Mux
}

// NewServer validates critical dependencies and prepares an empty router.
// Callers mount routes with MountRoutes.
func NewServer(job JobTrigger, logger *slog.Logger, probes ...HealthProbe) (*Server, error) {
	if job == nil {
		return nil, errors.New("job must not be nil")
	}
	if logger == nil {
		return nil, errors.New("logger must not be nil")
	}

	return &Server{
		Logger:         logger,
		Job:            job,
		HealthProbes:   probes,
		RequestTimeout: defaultRequestTimeout,
		now:            time.Now,
		router:         chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux.
func (s *Server) Router() *chi.Mux {
	return s.router
}
