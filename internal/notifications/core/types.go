// Package core provides the delivery and observability plumbing around the
// notification log: fan-out of new entries to the delivery queue and run
// metrics for the summary job.
package core

import "time"

// DeliveryMessage is the SQS body published for each newly created
// notification log entry. Delivery workers resolve the message text from
// the log by NotificationID.
type DeliveryMessage struct {
	NotificationID string    `json:"notification_id"`
	To             string    `json:"to"`
	Kind           string    `json:"kind"`
	PeriodKey      string    `json:"period_key"`
	CreatedAt      time.Time `json:"created_at"`
}
