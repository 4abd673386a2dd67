package types

// CloudWatch metric names and dimensions emitted by the summary job.
const (
	MetricDigestRun            = "DigestRun"
	MetricNotificationsCreated = "NotificationsCreated"
	MetricNotificationsSkipped = "NotificationsSkipped"
	MetricNotificationsFailed  = "NotificationsFailed"
	MetricRecipientsDropped    = "RecipientsDropped"
	MetricRecordsAggregated    = "RecordsAggregated"

	DimStatus = "Status"
	DimKind   = "Kind"

	// MetricNamespace is the default CloudWatch namespace.
	MetricNamespace = "HRPulse"
)
