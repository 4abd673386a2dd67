package scheduler

import (
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("loading %s: %v", name, err)
	}
	return loc
}

func TestComputeWindow_PreviousLocalDay(t *testing.T) {
	loc := mustLoad(t, "Asia/Ho_Chi_Minh")
	now := time.Date(2024, 3, 2, 10, 30, 0, 0, loc)

	w := ComputeWindow(now, -1, loc)

	if w.PeriodKey != "2024-03-01" {
		t.Errorf("PeriodKey = %q, want 2024-03-01", w.PeriodKey)
	}
	if want := time.Date(2024, 2, 29, 17, 0, 0, 0, time.UTC); !w.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", w.Start, want)
	}
	if want := time.Date(2024, 3, 1, 16, 59, 59, 999_000_000, time.UTC); !w.End.Equal(want) {
		t.Errorf("End = %v, want %v", w.End, want)
	}
	if w.Start.Location() != time.UTC || w.End.Location() != time.UTC {
		t.Error("window bounds should be expressed in UTC")
	}
}

func TestComputeWindow_NowJustAfterLocalMidnight(t *testing.T) {
	loc := mustLoad(t, "Asia/Ho_Chi_Minh")
	// 17:00:01 UTC is 00:00:01 local on the next day.
	now := time.Date(2024, 3, 1, 17, 0, 1, 0, time.UTC)

	w := ComputeWindow(now, -1, loc)

	if w.PeriodKey != "2024-03-01" {
		t.Errorf("PeriodKey = %q, want 2024-03-01", w.PeriodKey)
	}
}

func TestComputeWindow_SameDayOffset(t *testing.T) {
	now := time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)

	w := ComputeWindow(now, 0, time.UTC)

	if w.PeriodKey != "2024-12-31" {
		t.Errorf("PeriodKey = %q", w.PeriodKey)
	}
	if !w.Start.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %v", w.Start)
	}
}

func TestComputeWindow_CrossesYearBoundary(t *testing.T) {
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	w := ComputeWindow(now, -1, time.UTC)

	if w.PeriodKey != "2024-12-31" {
		t.Errorf("PeriodKey = %q, want 2024-12-31", w.PeriodKey)
	}
}

func TestComputeWindow_DSTDays(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	tests := []struct {
		name      string
		now       time.Time
		periodKey string
		length    time.Duration
	}{
		{
			name:      "spring forward is 23h",
			now:       time.Date(2026, 3, 9, 9, 0, 0, 0, ny),
			periodKey: "2026-03-08",
			length:    23 * time.Hour,
		},
		{
			name:      "fall back is 25h",
			now:       time.Date(2026, 11, 2, 9, 0, 0, 0, ny),
			periodKey: "2026-11-01",
			length:    25 * time.Hour,
		},
		{
			name:      "regular day is 24h",
			now:       time.Date(2026, 6, 2, 9, 0, 0, 0, ny),
			periodKey: "2026-06-01",
			length:    24 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ComputeWindow(tt.now, -1, ny)

			if w.PeriodKey != tt.periodKey {
				t.Errorf("PeriodKey = %q, want %q", w.PeriodKey, tt.periodKey)
			}
			if got := w.End.Add(time.Millisecond).Sub(w.Start); got != tt.length {
				t.Errorf("window length = %v, want %v", got, tt.length)
			}
			startLocal := w.Start.In(ny)
			if startLocal.Hour() != 0 || startLocal.Minute() != 0 {
				t.Errorf("Start local = %v, want midnight", startLocal)
			}
			nextLocal := w.End.Add(time.Millisecond).In(ny)
			if nextLocal.Hour() != 0 || nextLocal.Day() == startLocal.Day() {
				t.Errorf("End+1ms local = %v, want next midnight", nextLocal)
			}
		})
	}
}

func TestComputeWindow_ConsecutiveDaysTile(t *testing.T) {
	loc := mustLoad(t, "Europe/London")
	base := time.Date(2026, 3, 20, 12, 0, 0, 0, loc)

	prev := ComputeWindow(base, 0, loc)
	for i := 1; i <= 20; i++ {
		w := ComputeWindow(base, i, loc)
		if !w.Start.Equal(prev.End.Add(time.Millisecond)) {
			t.Fatalf("day %d starts at %v, previous ended at %v", i, w.Start, prev.End)
		}
		prev = w
	}
}

func TestComputeWindow_NilLocationIsUTC(t *testing.T) {
	now := time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC)

	w := ComputeWindow(now, -1, nil)

	if w.PeriodKey != "2024-03-01" {
		t.Errorf("PeriodKey = %q", w.PeriodKey)
	}
}
