package scheduler

import (
	"time"

	"hrpulse/internal/types"
)

// PeriodKeyLayout formats the local date of a window start.
const PeriodKeyLayout = "2006-01-02"

// DefaultDayOffset selects the previous local day.
const DefaultDayOffset = -1

// ComputeWindow returns the reporting window for the local calendar day
// dayOffset days from now in loc. Start is local midnight of that day and
// End is the next local midnight minus one millisecond.
//
// Day boundaries are built with time.Date so 23h and 25h DST days span
// wall-clock midnight to wall-clock midnight.
func ComputeWindow(now time.Time, dayOffset int, loc *time.Location) types.ReportingWindow {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)

	start := time.Date(local.Year(), local.Month(), local.Day()+dayOffset, 0, 0, 0, 0, loc)
	next := time.Date(start.Year(), start.Month(), start.Day()+1, 0, 0, 0, 0, loc)

	return types.ReportingWindow{
		Start:     start.UTC(),
		End:       next.Add(-time.Millisecond).UTC(),
		PeriodKey: start.Format(PeriodKeyLayout),
	}
}
