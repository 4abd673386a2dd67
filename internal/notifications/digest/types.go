// Package digest aggregates attendance records for one reporting window and
// renders the deterministic text body of the daily attendance summary.
package digest

// Status labels that feed the derived sub-metrics in addition to the
// per-record boolean flags.
const (
	StatusLate      = "late"
	StatusEarlyExit = "early_exit"

	// UnspecifiedStatus groups records with an empty status label so the
	// per-status table always reconciles to the total.
	UnspecifiedStatus = "unspecified"
)

// CategorySeparator joins "label: count" pairs on the status line.
const CategorySeparator = ", "

// NoCategoriesPlaceholder is rendered when no status was observed.
const NoCategoriesPlaceholder = "none recorded"

// CategoryCount is one row of the per-status breakdown.
type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary is the aggregate of one window's attendance records.
//
// Categories holds only observed statuses, sorted by label, and its counts
// sum to Total. Late and EarlyExit are derived sub-metrics; a record is
// counted in at most one of them.
type Summary struct {
	Total      int             `json:"total"`
	Employees  int             `json:"employees"`
	Categories []CategoryCount `json:"categories"`
	Late       int             `json:"late"`
	EarlyExit  int             `json:"early_exit"`
}

// CategoryTotal returns the sum of all per-status counts.
func (s Summary) CategoryTotal() int {
	total := 0
	for _, c := range s.Categories {
		total += c.Count
	}
	return total
}
