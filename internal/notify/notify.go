// Package notify delivers patient-facing email through SendGrid.
package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/medibot/intake-platform/internal/appointments"
	"github.com/medibot/intake-platform/pkg/logging"
)

// EmailSender sends one email. Satisfied by SendGridSender in production and
// fakes in tests.
type EmailSender interface {
	Send(ctx context.Context, toEmail, subject, plainText string) error
}

// SendGridSender sends through the SendGrid v3 API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

// NewSendGridSender builds a sender. fromName defaults to "MediBot".
func NewSendGridSender(apiKey, fromName, fromEmail string) *SendGridSender {
	if fromName == "" {
		fromName = "MediBot"
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// Send delivers one plain-text email.
func (s *SendGridSender) Send(ctx context.Context, toEmail, subject, plainText string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, "")

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("notify: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("notify: sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// Service formats and sends the patient-facing messages.
type Service struct {
	sender EmailSender
	logger *logging.Logger
}

// NewService wires the notification service.
func NewService(sender EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{sender: sender, logger: logger}
}

// SendAppointmentConfirmation emails the booked slot details.
func (s *Service) SendAppointmentConfirmation(ctx context.Context, email string, c appointments.Confirmation) error {
	body := fmt.Sprintf(
		"Your appointment is confirmed.\n\nDate: %s\nTime: %s\nConfirmation number: %d\n\nIf you need to change your appointment, reply to this email.",
		c.Date, c.Time, c.AppointmentID,
	)
	if err := s.sender.Send(ctx, email, "Your appointment is confirmed", body); err != nil {
		return err
	}
	s.logger.Info("confirmation email sent", "appointment_id", c.AppointmentID)
	return nil
}
