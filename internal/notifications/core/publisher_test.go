package core

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"hrpulse/internal/types"
)

// mockSQSSender records all SendMessage calls for verification.
type mockSQSSender struct {
	calls     []*sqs.SendMessageInput
	returnErr error
}

func (m *mockSQSSender) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.calls = append(m.calls, params)
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	return &sqs.SendMessageOutput{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testQueueURL = "https://sqs.ap-southeast-1.amazonaws.com/123/notifications"

func testEntry() types.NotificationLogEntry {
	created := time.Date(2024, 3, 2, 3, 0, 0, 0, time.UTC)
	return types.NotificationLogEntry{
		ID:      "n-1",
		To:      "p2",
		Kind:    "daily_attendance_summary",
		Message: "Daily attendance summary for 2024-03-01",
		Metadata: types.NotificationMetadata{
			PeriodKey:   "2024-03-01",
			RecordCount: 5,
			GeneratedAt: created,
		},
		CreatedAt: created,
	}
}

func TestDeliveryPublisher_PublishDelivery(t *testing.T) {
	sender := &mockSQSSender{}
	pub := NewDeliveryPublisher(sender, testQueueURL, discardLogger())

	if err := pub.PublishDelivery(context.Background(), testEntry()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.calls) != 1 {
		t.Fatalf("expected 1 SQS call, got %d", len(sender.calls))
	}
	call := sender.calls[0]
	if *call.QueueUrl != testQueueURL {
		t.Errorf("QueueUrl = %q", *call.QueueUrl)
	}
	if got := *call.MessageAttributes["kind"].StringValue; got != "daily_attendance_summary" {
		t.Errorf("kind attribute = %q", got)
	}

	var sent DeliveryMessage
	if err := json.Unmarshal([]byte(*call.MessageBody), &sent); err != nil {
		t.Fatalf("failed to unmarshal sent body: %v", err)
	}
	if sent.NotificationID != "n-1" || sent.To != "p2" || sent.PeriodKey != "2024-03-01" {
		t.Errorf("sent = %+v", sent)
	}
}

func TestDeliveryPublisher_SendError(t *testing.T) {
	sender := &mockSQSSender{returnErr: errors.New("throttled")}
	pub := NewDeliveryPublisher(sender, testQueueURL, discardLogger())

	err := pub.PublishDelivery(context.Background(), testEntry())
	if err == nil {
		t.Fatal("expected error")
	}
	if !types.IsCode(err, types.ErrCodeUpstreamUnavailable) {
		t.Errorf("err = %v, want upstream unavailable", err)
	}
}

func TestDeliveryPublisher_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	sender := &mockSQSSender{returnErr: errors.New("queue down")}
	pub := NewDeliveryPublisher(sender, testQueueURL, discardLogger())

	for i := 0; i < 10; i++ {
		_ = pub.PublishDelivery(context.Background(), testEntry())
	}

	if len(sender.calls) != 3 {
		t.Errorf("SQS calls = %d, want 3 before the breaker opens", len(sender.calls))
	}
}

func TestDeliveryPublisher_NilLogger(t *testing.T) {
	pub := NewDeliveryPublisher(&mockSQSSender{}, testQueueURL, nil)
	if err := pub.PublishDelivery(context.Background(), testEntry()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
