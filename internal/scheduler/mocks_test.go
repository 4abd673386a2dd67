package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"hrpulse/internal/types"
)

// --- Mocks ---

// mockAttendanceStore returns a fixed record set and records the windows
// it was queried with.
type mockAttendanceStore struct {
	mu      sync.Mutex
	records []types.AttendanceRecord
	err     error
	panicOn bool

	// entered/release make the call block so tests can overlap runs.
	entered chan struct{}
	release chan struct{}

	calls       int
	hadDeadline bool
	starts      []time.Time
	ends        []time.Time
}

func (m *mockAttendanceStore) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]types.AttendanceRecord, error) {
	m.mu.Lock()
	m.calls++
	m.starts = append(m.starts, start)
	m.ends = append(m.ends, end)
	_, m.hadDeadline = ctx.Deadline()
	m.mu.Unlock()

	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.release != nil {
		<-m.release
	}
	if m.panicOn {
		panic("attendance store exploded")
	}
	if m.err != nil {
		return nil, m.err
	}
	var out []types.AttendanceRecord
	for _, r := range m.records {
		if !r.CreatedAt.Before(start) && !r.CreatedAt.After(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockAttendanceStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockRoleStore struct {
	mu          sync.Mutex
	assignments []types.RoleAssignment
	err         error
	calls       int
	gotRoles    [][]string
}

func (m *mockRoleStore) ListActiveByRoles(_ context.Context, roles []string) ([]types.RoleAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.gotRoles = append(m.gotRoles, roles)
	if m.err != nil {
		return nil, m.err
	}
	return m.assignments, nil
}

type mockProfileStore struct {
	mu       sync.Mutex
	profiles []types.Profile
	err      error
	calls    int
	gotIDs   [][]string
}

func (m *mockProfileStore) ListActiveByIDs(_ context.Context, ids []string) ([]types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.gotIDs = append(m.gotIDs, append([]string(nil), ids...))
	if m.err != nil {
		return nil, m.err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []types.Profile
	for _, p := range m.profiles {
		if want[p.ID] && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

// mockNotificationLog is an in-memory notification log that enforces the
// (to, kind, period_key) unique key like the real backends.
type mockNotificationLog struct {
	mu      sync.Mutex
	entries []types.NotificationLogEntry

	existsErr error
	createErr map[string]error // keyed by recipient
	// hideFromExists simulates a concurrent writer: Exists misses the entry
	// but the conditional insert still sees it.
	hideFromExists bool

	existsCalls int
	createCalls int
}

func (m *mockNotificationLog) key(to, kind, period string) string {
	return to + "|" + kind + "|" + period
}

func (m *mockNotificationLog) has(to, kind, period string) bool {
	for _, e := range m.entries {
		if m.key(e.To, e.Kind, e.Metadata.PeriodKey) == m.key(to, kind, period) {
			return true
		}
	}
	return false
}

func (m *mockNotificationLog) Exists(_ context.Context, to, kind, periodKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existsCalls++
	if m.existsErr != nil {
		return false, m.existsErr
	}
	if m.hideFromExists {
		return false, nil
	}
	return m.has(to, kind, periodKey), nil
}

func (m *mockNotificationLog) CreateIfAbsent(_ context.Context, entry *types.NotificationLogEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if err := m.createErr[entry.To]; err != nil {
		return false, err
	}
	if m.has(entry.To, entry.Kind, entry.Metadata.PeriodKey) {
		return false, nil
	}
	m.entries = append(m.entries, *entry)
	return true, nil
}

func (m *mockNotificationLog) seed(to, kind, period string) {
	m.entries = append(m.entries, types.NotificationLogEntry{
		ID:       "seed-" + to,
		To:       to,
		Kind:     kind,
		Metadata: types.NotificationMetadata{PeriodKey: period},
	})
}

func (m *mockNotificationLog) entriesFor(to string) []types.NotificationLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.NotificationLogEntry
	for _, e := range m.entries {
		if e.To == to {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockNotificationLog) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls
}

type mockPublisher struct {
	mu        sync.Mutex
	published []types.NotificationLogEntry
	err       error
}

func (m *mockPublisher) PublishDelivery(_ context.Context, entry types.NotificationLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, entry)
	return nil
}

type mockMetrics struct {
	mu      sync.Mutex
	results []RunResult
}

func (m *mockMetrics) RecordRun(_ context.Context, result RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
	return nil
}

type historyFinish struct {
	ID     string
	Status string
	Items  int
	Err    error
}

type mockHistory struct {
	mu       sync.Mutex
	started  []string
	finished []historyFinish
	startErr error

	panicOnStart  bool
	panicOnFinish bool

	startHadDeadline  bool
	finishHadDeadline bool
}

func (m *mockHistory) Start(ctx context.Context, jobType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, m.startHadDeadline = ctx.Deadline()
	if m.panicOnStart {
		panic("history down")
	}
	if m.startErr != nil {
		return "", m.startErr
	}
	m.started = append(m.started, jobType)
	return "h-1", nil
}

func (m *mockHistory) Finish(ctx context.Context, id string, status string, items int, jobErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, m.finishHadDeadline = ctx.Deadline()
	if m.panicOnFinish {
		panic("history down")
	}
	m.finished = append(m.finished, historyFinish{ID: id, Status: status, Items: items, Err: jobErr})
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
