package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/sony/gobreaker/v2"

	"hrpulse/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// DeliveryPublisher sends DeliveryMessages to the notification queue
// through a circuit breaker, so a queue outage fails fast for the rest of a
// run instead of costing one timeout per recipient.
type DeliveryPublisher struct {
	client   SQSSender
	queueURL string
	breaker  *gobreaker.CircuitBreaker[*sqs.SendMessageOutput]
	logger   *slog.Logger
}

// NewDeliveryPublisher creates a DeliveryPublisher targeting queueURL.
func NewDeliveryPublisher(client SQSSender, queueURL string, logger *slog.Logger) *DeliveryPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeliveryPublisher{
		client:   client,
		queueURL: queueURL,
		breaker:  newSQSBreaker(logger),
		logger:   logger,
	}
}

func newSQSBreaker(logger *slog.Logger) *gobreaker.CircuitBreaker[*sqs.SendMessageOutput] {
	return gobreaker.NewCircuitBreaker[*sqs.SendMessageOutput](gobreaker.Settings{
		Name:        "sqs-notifications",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

// PublishDelivery publishes a delivery message for entry.
func (p *DeliveryPublisher) PublishDelivery(ctx context.Context, entry types.NotificationLogEntry) error {
	msg := DeliveryMessage{
		NotificationID: entry.ID,
		To:             entry.To,
		Kind:           entry.Kind,
		PeriodKey:      entry.Metadata.PeriodKey,
		CreatedAt:      entry.CreatedAt,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("delivery publisher: failed to marshal message: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"kind": {
				DataType:    aws.String("String"),
				StringValue: aws.String(entry.Kind),
			},
		},
	}

	_, err = p.breaker.Execute(func() (*sqs.SendMessageOutput, error) {
		return p.client.SendMessage(ctx, input)
	})
	if err != nil {
		return types.NewAppError(types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("failed to send delivery message to %s", p.queueURL), err)
	}

	p.logger.InfoContext(ctx, "delivery message published",
		"notification_id", msg.NotificationID,
		"profile_id", msg.To,
		"period_key", msg.PeriodKey,
	)
	return nil
}
