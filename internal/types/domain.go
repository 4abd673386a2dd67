package types

import "time"

// ReportingWindow is a single local calendar day expressed as UTC instants.
// End is inclusive (next local midnight minus one millisecond). PeriodKey is
// the local date of Start formatted as YYYY-MM-DD and partitions the
// notification log for idempotency.
type ReportingWindow struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	PeriodKey string    `json:"period_key"`
}

// AttendanceRecord is a check-in/check-out event owned by an employee.
// Records are produced by the attendance module and are read-only here.
type AttendanceRecord struct {
	ID          string    `json:"id" db:"id" bson:"_id"`
	EmployeeID  string    `json:"employee_id" db:"employee_id" bson:"employeeId"`
	Status      string    `json:"status" db:"status" bson:"status"`
	IsLate      bool      `json:"is_late" db:"is_late" bson:"isLate"`
	IsEarlyExit bool      `json:"is_early_exit" db:"is_early_exit" bson:"isEarlyExit"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" bson:"createdAt"`
}

// RoleAssignment records which named roles a profile currently holds.
type RoleAssignment struct {
	ProfileID string   `json:"profile_id" db:"profile_id" bson:"profileId"`
	Roles     []string `json:"roles" db:"roles" bson:"roles"`
	IsActive  bool     `json:"is_active" db:"is_active" bson:"isActive"`
}

// HasAnyRole reports whether the assignment holds at least one of roles.
func (a RoleAssignment) HasAnyRole(roles []string) bool {
	for _, held := range a.Roles {
		for _, want := range roles {
			if held == want {
				return true
			}
		}
	}
	return false
}

// Profile is an employee/user profile.
type Profile struct {
	ID       string `json:"id" db:"id" bson:"_id"`
	IsActive bool   `json:"is_active" db:"is_active" bson:"isActive"`
	FullName string `json:"full_name" db:"full_name" bson:"fullName"`
	Email    string `json:"email,omitempty" db:"email" bson:"email,omitempty"`
}

// Recipient is the in-memory join of an active RoleAssignment against an
// active Profile. It is never persisted.
type Recipient struct {
	ProfileID string  `json:"profile_id"`
	Profile   Profile `json:"profile"`
}

// NotificationMetadata is stored alongside every notification log entry.
// PeriodKey is part of the uniqueness key (to, kind, metadata.period_key).
type NotificationMetadata struct {
	PeriodKey   string    `json:"period_key" bson:"periodKey"`
	RecordCount int       `json:"record_count" bson:"recordCount"`
	GeneratedAt time.Time `json:"generated_at" bson:"generatedAt"`
}

// NotificationLogEntry is an append-only in-app notification. Its existence
// for (To, Kind, Metadata.PeriodKey) is the idempotency guard condition.
type NotificationLogEntry struct {
	ID        string               `json:"id" db:"id" bson:"_id"`
	To        string               `json:"to" db:"recipient_id" bson:"to"`
	Kind      string               `json:"kind" db:"kind" bson:"kind"`
	Message   string               `json:"message" db:"message" bson:"message"`
	Metadata  NotificationMetadata `json:"metadata" db:"metadata" bson:"metadata"`
	CreatedAt time.Time            `json:"created_at" db:"created_at" bson:"createdAt"`
}
