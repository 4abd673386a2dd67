package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"hrpulse/internal/scheduler"
	"hrpulse/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Compile-time assertions that both implementations satisfy scheduler.JobMetrics.
var (
	_ scheduler.JobMetrics = (*CloudWatchJobMetrics)(nil)
	_ scheduler.JobMetrics = NoopJobMetrics{}
)

// CloudWatchJobMetrics emits summary job outcomes to CloudWatch.
//
// Metrics emitted per run:
//   - DigestRun: Dims {Status}, value 1
//   - NotificationsCreated, NotificationsSkipped, NotificationsFailed,
//     RecipientsDropped, RecordsAggregated: Dims {Kind}, counts
//
// Skipped runs emit only DigestRun.
type CloudWatchJobMetrics struct {
	client    CloudWatchClient
	namespace string
	kind      string
	logger    *slog.Logger
}

// NewCloudWatchJobMetrics creates a CloudWatchJobMetrics. An empty namespace
// falls back to types.MetricNamespace.
func NewCloudWatchJobMetrics(client CloudWatchClient, namespace, kind string, logger *slog.Logger) *CloudWatchJobMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchJobMetrics{
		client:    client,
		namespace: namespace,
		kind:      kind,
		logger:    logger,
	}
}

// RecordRun publishes the metrics for result in a single PutMetricData call.
func (m *CloudWatchJobMetrics) RecordRun(ctx context.Context, result scheduler.RunResult) error {
	data := []cwtypes.MetricDatum{
		{
			MetricName: aws.String(types.MetricDigestRun),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{
				{Name: aws.String(types.DimStatus), Value: aws.String(string(result.Status))},
			},
		},
	}

	if result.Status != scheduler.RunSkipped {
		data = append(data,
			m.count(types.MetricNotificationsCreated, result.Created),
			m.count(types.MetricNotificationsSkipped, result.AlreadyNotified),
			m.count(types.MetricNotificationsFailed, result.Failed),
			m.count(types.MetricRecipientsDropped, result.Dropped),
			m.count(types.MetricRecordsAggregated, result.RecordCount),
		)
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.ErrorContext(ctx, "failed to record run metrics",
			"error", err.Error(),
			"status", string(result.Status),
		)
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

func (m *CloudWatchJobMetrics) count(name string, value int) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(float64(value)),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String(types.DimKind), Value: aws.String(m.kind)},
		},
	}
}

// NoopJobMetrics discards run metrics. Used when ENABLE_METRICS is false.
type NoopJobMetrics struct{}

// RecordRun does nothing.
func (NoopJobMetrics) RecordRun(context.Context, scheduler.RunResult) error { return nil }
