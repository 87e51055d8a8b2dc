package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/medibot/intake-platform/internal/appointments"
	"github.com/medibot/intake-platform/pkg/logging"
)

type fakeSender struct {
	to      string
	subject string
	body    string
	err     error
}

func (f *fakeSender) Send(_ context.Context, toEmail, subject, plainText string) error {
	f.to, f.subject, f.body = toEmail, subject, plainText
	return f.err
}

func TestSendAppointmentConfirmation(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, logging.Default())

	err := svc.SendAppointmentConfirmation(context.Background(), "john@example.com", appointments.Confirmation{
		AppointmentID: 90,
		Date:          "2026-09-01",
		Time:          "10:00:00",
	})
	if err != nil {
		t.Fatalf("SendAppointmentConfirmation: %v", err)
	}
	if sender.to != "john@example.com" {
		t.Fatalf("to = %q", sender.to)
	}
	if !strings.Contains(sender.body, "2026-09-01") || !strings.Contains(sender.body, "10:00:00") {
		t.Fatalf("body missing slot details: %q", sender.body)
	}
	if !strings.Contains(sender.body, "90") {
		t.Fatalf("body missing confirmation number: %q", sender.body)
	}
}

func TestSendFailurePropagates(t *testing.T) {
	sender := &fakeSender{err: errors.New("rate limited")}
	svc := NewService(sender, logging.Default())

	err := svc.SendAppointmentConfirmation(context.Background(), "x@y.com", appointments.Confirmation{})
	if err == nil {
		t.Fatal("expected error")
	}
}
