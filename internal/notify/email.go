// internal/notify/email.go

// Package notify delivers outbound notifications: appointment confirmation
// emails over SES and escalation alerts over SNS. Delivery is best-effort
// from the caller's point of view; each sender carries its own retry and
// circuit breaker so a flapping AWS endpoint cannot stall the dialog.
package notify

import (
	"context"
	"fmt"

	"care-chatbot/internal/common/config"
	apperrors "care-chatbot/internal/common/errors"
	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/common/metrics"
	"care-chatbot/internal/common/resilience"
	"care-chatbot/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the slice of the SES client the email sender uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailSender sends appointment confirmation and update emails. It
// implements appointment.ConfirmationSender.
type EmailSender struct {
	api     SESAPI
	from    string
	breaker *resilience.Breaker
	log     logger.Logger
}

// NewEmailSender builds the sender. Callers should skip construction
// entirely when notifications.email.enabled is false.
func NewEmailSender(api SESAPI, cfg config.NotificationConfig, log logger.Logger) *EmailSender {
	return &EmailSender{
		api:     api,
		from:    cfg.Email.FromEmail,
		breaker: resilience.NewBreaker(5, 0),
		log: log.WithFields(map[string]interface{}{
			"component": "email-sender",
		}),
	}
}

// SendConfirmation emails the booking details to the customer. A booking
// whose record was never updated reads as a confirmation; one with an
// UpdatedAt after CreatedAt reads as a change notice.
func (e *EmailSender) SendConfirmation(ctx context.Context, appt *models.Appointment) error {
	if appt.Email == "" {
		e.log.Warn("appointment has no email address", map[string]interface{}{
			"appointment_id": appt.ID,
		})
		metrics.NotificationsSent.WithLabelValues("email", "skipped").Inc()
		return nil
	}

	updated := appt.UpdatedAt.After(appt.CreatedAt)
	subject := fmt.Sprintf("Appointment Confirmed - %s", appt.ServiceType)
	if updated {
		subject = fmt.Sprintf("Appointment Updated - %s", appt.ServiceType)
	}

	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{appt.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(confirmationText(appt, updated))},
				Html: &types.Content{Data: aws.String(confirmationHTML(appt, updated))},
			},
		},
		Source: aws.String(e.from),
	}

	err := e.breaker.Execute(func() error {
		return resilience.Retry(ctx, 2, func() error {
			_, sendErr := e.api.SendEmail(ctx, input)
			return sendErr
		})
	})
	if err != nil {
		metrics.NotificationsSent.WithLabelValues("email", "failed").Inc()
		e.log.WithError(err).Error("confirmation email failed", map[string]interface{}{
			"appointment_id": appt.ID,
		})
		return apperrors.NewNotificationSendFailedError("email", err)
	}

	metrics.NotificationsSent.WithLabelValues("email", "sent").Inc()
	e.log.Info("confirmation email sent", map[string]interface{}{
		"appointment_id": appt.ID,
		"service_type":   appt.ServiceType,
	})
	return nil
}

func confirmationText(appt *models.Appointment, updated bool) string {
	headline := "Your appointment has been confirmed!"
	if updated {
		headline = "Your appointment has been updated!"
	}

	return fmt.Sprintf(`Hello %s,

%s

APPOINTMENT DETAILS
Service: %s
Date: %s
Time: %s
Name: %s
Email: %s

APPOINTMENT ID: %s

We look forward to serving you!

The Customer Care Team
This is an automated message. Please do not reply.`,
		appt.CustomerName, headline,
		appt.ServiceType, appt.Date, appt.Time, appt.CustomerName, appt.Email,
		appt.ID)
}

func confirmationHTML(appt *models.Appointment, updated bool) string {
	headline := "Appointment Confirmed!"
	if updated {
		headline = "Appointment Updated!"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: #4a5fc1; color: white; padding: 24px; text-align: center;">
    <h1 style="margin: 0;">%s</h1>
  </div>
  <div style="background: #f9f9f9; padding: 24px;">
    <p>Hello <strong>%s</strong>,</p>
    <div style="background: white; border-left: 4px solid #4a5fc1; padding: 16px; margin: 16px 0;">
      <p><strong>Service:</strong> %s</p>
      <p><strong>Date:</strong> %s</p>
      <p><strong>Time:</strong> %s</p>
      <p><strong>Email:</strong> %s</p>
    </div>
    <p style="text-align: center;"><strong>Appointment ID: %s</strong></p>
    <p style="text-align: center; color: #666;">We look forward to serving you!<br>
      <strong>The Customer Care Team</strong></p>
  </div>
  <div style="text-align: center; color: #999; font-size: 12px; padding: 16px;">
    <p>This is an automated message. Please do not reply.</p>
  </div>
</body></html>`,
		headline, appt.CustomerName,
		appt.ServiceType, appt.Date, appt.Time, appt.Email,
		appt.ID)
}
