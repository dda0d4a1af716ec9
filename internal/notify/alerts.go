// internal/notify/alerts.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"care-chatbot/internal/common/config"
	apperrors "care-chatbot/internal/common/errors"
	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/common/metrics"
	"care-chatbot/internal/common/resilience"
	"care-chatbot/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSAPI is the slice of the SNS client the alert publisher uses.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// AlertPublisher pushes high-priority escalation tickets onto an SNS topic
// so the on-call support channel is paged ahead of the queue.
type AlertPublisher struct {
	api     SNSAPI
	topic   string
	breaker *resilience.Breaker
	log     logger.Logger
}

// NewAlertPublisher builds the publisher. Callers should skip construction
// entirely when notifications.alerts.enabled is false.
func NewAlertPublisher(api SNSAPI, cfg config.NotificationConfig, log logger.Logger) *AlertPublisher {
	return &AlertPublisher{
		api:     api,
		topic:   cfg.Alerts.TopicARN,
		breaker: resilience.NewBreaker(5, 0),
		log: log.WithFields(map[string]interface{}{
			"component": "alert-publisher",
		}),
	}
}

// escalationAlert is the topic message payload.
type escalationAlert struct {
	TicketID  string `json:"ticketId"`
	UserID    string `json:"userId"`
	Reason    string `json:"reason"`
	Priority  string `json:"priority"`
	CreatedAt string `json:"createdAt"`
}

// PublishEscalation sends one alert per ticket. The conversation summary is
// deliberately left out of the payload; subscribers fetch it through the
// admin API if they need it.
func (p *AlertPublisher) PublishEscalation(ctx context.Context, ticket *models.EscalationTicket) error {
	payload, err := json.Marshal(escalationAlert{
		TicketID:  ticket.ID,
		UserID:    ticket.UserID,
		Reason:    ticket.Reason,
		Priority:  string(ticket.Priority),
		CreatedAt: ticket.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(p.topic),
		Subject:  aws.String(fmt.Sprintf("Escalation %s (%s)", ticket.ID, ticket.Priority)),
		Message:  aws.String(string(payload)),
	}

	err = p.breaker.Execute(func() error {
		return resilience.Retry(ctx, 2, func() error {
			_, pubErr := p.api.Publish(ctx, input)
			return pubErr
		})
	})
	if err != nil {
		metrics.NotificationsSent.WithLabelValues("sns", "failed").Inc()
		p.log.WithError(err).Error("escalation alert failed", map[string]interface{}{
			"ticket_id": ticket.ID,
		})
		return apperrors.NewNotificationSendFailedError("sns", err)
	}

	metrics.NotificationsSent.WithLabelValues("sns", "sent").Inc()
	p.log.Info("escalation alert published", map[string]interface{}{
		"ticket_id": ticket.ID,
		"priority":  string(ticket.Priority),
	})
	return nil
}
