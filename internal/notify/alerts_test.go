// internal/notify/alerts_test.go
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "care-chatbot/internal/common/errors"
	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/models"
)

type MockSNSAPI struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSAPI) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func testTicket() *models.EscalationTicket {
	return &models.EscalationTicket{
		ID:        "ESC-20260610-1234",
		UserID:    "user-1",
		Reason:    "User requested assistance",
		Priority:  models.PriorityHigh,
		Status:    models.TicketPending,
		CreatedAt: time.Date(2026, 6, 10, 14, 30, 0, 0, time.UTC),
	}
}

func TestPublishEscalation_Success(t *testing.T) {
	var captured *sns.PublishInput
	mock := &MockSNSAPI{
		PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			captured = params
			return &sns.PublishOutput{}, nil
		},
	}

	publisher := NewAlertPublisher(mock, testNotificationConfig(), logger.NewTestLogger(t))
	require.NoError(t, publisher.PublishEscalation(context.Background(), testTicket()))

	require.NotNil(t, captured)
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:escalations", *captured.TopicArn)
	assert.Equal(t, "Escalation ESC-20260610-1234 (high)", *captured.Subject)

	var alert map[string]string
	require.NoError(t, json.Unmarshal([]byte(*captured.Message), &alert))
	assert.Equal(t, "ESC-20260610-1234", alert["ticketId"])
	assert.Equal(t, "user-1", alert["userId"])
	assert.Equal(t, "high", alert["priority"])
	assert.Equal(t, "2026-06-10T14:30:00Z", alert["createdAt"])
	assert.NotContains(t, alert, "conversationSummary")
}

func TestPublishEscalation_FailureReturnsStandardError(t *testing.T) {
	mock := &MockSNSAPI{
		PublishFunc: func(_ context.Context, _ *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("topic not found")
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	publisher := NewAlertPublisher(mock, testNotificationConfig(), logger.NewTestLogger(t))
	err := publisher.PublishEscalation(ctx, testTicket())
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, stdErr.Code)
}
