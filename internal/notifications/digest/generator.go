package digest

import (
	"fmt"
	"sort"
	"strings"

	"hrpulse/internal/types"
)

// windowDateLayout formats the window date in the rendered summary.
const windowDateLayout = "2006-01-02"

type subMetric int

const (
	subMetricNone subMetric = iota
	subMetricLate
	subMetricEarlyExit
)

// Summarize aggregates records into a Summary. It is pure: the caller has
// already restricted records to the reporting window.
func Summarize(records []types.AttendanceRecord) Summary {
	var s Summary
	employees := make(map[string]struct{}, len(records))
	byStatus := make(map[string]int)

	for _, r := range records {
		s.Total++
		if r.EmployeeID != "" {
			employees[r.EmployeeID] = struct{}{}
		}
		byStatus[categoryLabel(r.Status)]++

		switch classify(r) {
		case subMetricLate:
			s.Late++
		case subMetricEarlyExit:
			s.EarlyExit++
		}
	}

	s.Employees = len(employees)
	s.Categories = make([]CategoryCount, 0, len(byStatus))
	for label, count := range byStatus {
		s.Categories = append(s.Categories, CategoryCount{Label: label, Count: count})
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		return s.Categories[i].Label < s.Categories[j].Label
	})

	return s
}

// classify places a record in at most one derived sub-metric. Flags are
// checked before status labels, and late before early exit.
func classify(r types.AttendanceRecord) subMetric {
	status := strings.TrimSpace(r.Status)
	switch {
	case r.IsLate:
		return subMetricLate
	case r.IsEarlyExit:
		return subMetricEarlyExit
	case strings.EqualFold(status, StatusLate):
		return subMetricLate
	case strings.EqualFold(status, StatusEarlyExit):
		return subMetricEarlyExit
	default:
		return subMetricNone
	}
}

func categoryLabel(status string) string {
	label := strings.TrimSpace(status)
	if label == "" {
		return UnspecifiedStatus
	}
	return label
}

// Render produces the notification message body for a summary. The output
// depends only on its inputs.
func Render(s Summary, window types.ReportingWindow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily attendance summary for %s\n", windowDate(window))
	fmt.Fprintf(&b, "Total records: %d\n", s.Total)
	fmt.Fprintf(&b, "Employees: %d\n", s.Employees)
	fmt.Fprintf(&b, "By status: %s\n", renderCategories(s.Categories))
	fmt.Fprintf(&b, "Late arrivals: %d\n", s.Late)
	fmt.Fprintf(&b, "Early exits: %d", s.EarlyExit)
	return b.String()
}

func renderCategories(categories []CategoryCount) string {
	if len(categories) == 0 {
		return NoCategoriesPlaceholder
	}
	parts := make([]string, 0, len(categories))
	for _, c := range categories {
		parts = append(parts, fmt.Sprintf("%s: %d", c.Label, c.Count))
	}
	return strings.Join(parts, CategorySeparator)
}

// windowDate prefers the period key, which is already the local date of
// the window start.
func windowDate(window types.ReportingWindow) string {
	if window.PeriodKey != "" {
		return window.PeriodKey
	}
	return window.Start.Format(windowDateLayout)
}
