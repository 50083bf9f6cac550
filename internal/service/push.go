package service

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"rcca-backend/internal/domain"
)

// messenger is the part of *messaging.Client the push sink needs.
type messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type pushSink struct {
	client messenger
}

// NewPushSink connects to Firebase Cloud Messaging with a service account
// key file.
func NewPushSink(ctx context.Context, credentialsFile string) (NotificationSink, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}
	return &pushSink{client: client}, nil
}

func (s *pushSink) Name() string { return "fcm" }

// Notify pushes to every recipient with a registered device token.
func (s *pushSink) Notify(ctx context.Context, recipients []domain.User, ev domain.Event) error {
	title, body := render(ev)
	var errs []error
	for _, u := range recipients {
		if u.PushToken == "" {
			continue
		}
		_, err := s.client.Send(ctx, &messaging.Message{
			Token:        u.PushToken,
			Notification: &messaging.Notification{Title: title, Body: body},
			Data:         eventAttributes(ev),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("push to %s: %w", u.ID, err))
		}
	}
	return errors.Join(errs...)
}
