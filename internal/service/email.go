package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"rcca-backend/internal/domain"
)

// sendFunc posts one message and reports the HTTP status SendGrid answered
// with.
type sendFunc func(ctx context.Context, m *mail.SGMailV3) (int, string, error)

type emailSink struct {
	send      sendFunc
	fromEmail string
	fromName  string
}

func NewEmailSink(apiKey, fromEmail, fromName string) NotificationSink {
	client := sendgrid.NewSendClient(apiKey)
	send := func(ctx context.Context, m *mail.SGMailV3) (int, string, error) {
		resp, err := client.SendWithContext(ctx, m)
		if err != nil {
			return 0, "", err
		}
		return resp.StatusCode, resp.Body, nil
	}
	return newEmailSink(send, fromEmail, fromName)
}

func newEmailSink(send sendFunc, fromEmail, fromName string) *emailSink {
	return &emailSink{send: send, fromEmail: fromEmail, fromName: fromName}
}

func (s *emailSink) Name() string { return "sendgrid" }

func (s *emailSink) Notify(ctx context.Context, recipients []domain.User, ev domain.Event) error {
	subject, text := render(ev)
	from := mail.NewEmail(s.fromName, s.fromEmail)

	var errs []error
	for _, u := range recipients {
		if u.Email == "" {
			continue
		}
		body := fmt.Sprintf("Hello %s,\n\n%s\n\nRecord: %s\n\nBest regards,\nThe Quality Team", u.Name, text, ev.RecordID)
		msg := mail.NewSingleEmail(from, subject, mail.NewEmail(u.Name, u.Email), body, "")

		status, respBody, err := s.send(ctx, msg)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to send email to %s: %w", u.Email, err))
			continue
		}
		if status >= 400 {
			errs = append(errs, fmt.Errorf("sendgrid error: status %d, body: %s", status, respBody))
		}
	}
	return errors.Join(errs...)
}
