package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"rcca-backend/internal/domain"
	"rcca-backend/internal/events"
	"rcca-backend/internal/logger"
	"rcca-backend/internal/metrics"
	"rcca-backend/internal/repository"
)

// Dispatcher turns committed workflow events into notifications and fans
// them out to every sink. Delivery failures are logged and counted; they
// never reach the caller that committed the transition.
type Dispatcher struct {
	userRepo repository.UserRepository
	sinks    []NotificationSink
	metrics  *metrics.Metrics
	wg       sync.WaitGroup
}

func NewDispatcher(userRepo repository.UserRepository, m *metrics.Metrics, sinks ...NotificationSink) *Dispatcher {
	return &Dispatcher{userRepo: userRepo, sinks: sinks, metrics: m}
}

// Register subscribes the dispatcher to the events that notify someone.
// Delivery runs in the background; Wait blocks until it drains.
func (d *Dispatcher) Register(bus *events.Bus) {
	for _, t := range []domain.EventType{
		domain.EventSubmitted,
		domain.EventResubmitted,
		domain.EventApproved,
		domain.EventRejected,
		domain.EventDeleted,
	} {
		bus.Subscribe(t, d.dispatchAsync)
	}
}

func (d *Dispatcher) dispatchAsync(ctx context.Context, ev domain.Event) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Handle(context.WithoutCancel(ctx), ev)
	}()
}

// Wait blocks until every background delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Handle delivers ev synchronously.
func (d *Dispatcher) Handle(ctx context.Context, ev domain.Event) {
	recipients, err := d.recipients(ctx, ev)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to resolve notification recipients", "event", ev.Type, "recordID", ev.RecordID, "error", err)
		return
	}
	if len(recipients) == 0 {
		return
	}

	for _, sink := range d.sinks {
		logger.ExternalServiceCall(sink.Name(), "Notify", "event", ev.Type, "recipients", len(recipients))
		err := sink.Notify(ctx, recipients, ev)
		logger.ExternalServiceResult(sink.Name(), "Notify", err)
		if err != nil {
			logger.ErrorContext(ctx, "Notification delivery failed", "sink", sink.Name(), "event", ev.Type, "recordID", ev.RecordID, "error", err)
			if d.metrics != nil {
				d.metrics.ObserveNotificationFailure(sink.Name())
			}
		}
	}
}

// recipients picks who hears about ev. Submissions go to the admins and the
// assigned members, decisions and deletions go to the creator. The actor is
// never notified of their own action.
func (d *Dispatcher) recipients(ctx context.Context, ev domain.Event) ([]domain.User, error) {
	var ids []string
	var users []domain.User

	switch ev.Type {
	case domain.EventSubmitted, domain.EventResubmitted:
		admins, err := d.userRepo.ListAdmins(ctx)
		if err != nil {
			return nil, err
		}
		users = append(users, admins...)
		ids = append(ids, ev.MemberIDs...)
	case domain.EventApproved, domain.EventRejected, domain.EventDeleted:
		ids = append(ids, ev.CreatorID)
	}

	for _, id := range ids {
		if id == "" {
			continue
		}
		u, err := d.userRepo.GetByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Notification recipient not in directory", "userID", id, "recordID", ev.RecordID)
			continue
		}
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	seen := make(map[string]bool, len(users))
	out := users[:0]
	for _, u := range users {
		if u.ID == ev.ActorID || seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		out = append(out, u)
	}
	return out, nil
}

// render builds the title and body shared by every sink.
func render(ev domain.Event) (string, string) {
	title := ev.Title
	if title == "" {
		title = ev.RecordID
	}
	switch ev.Type {
	case domain.EventSubmitted:
		return "RCCA submitted for approval", fmt.Sprintf("RCCA %q was submitted and is awaiting approval.", title)
	case domain.EventResubmitted:
		return "RCCA resubmitted for approval", fmt.Sprintf("RCCA %q was revised and resubmitted for approval.", title)
	case domain.EventApproved:
		return "RCCA approved", fmt.Sprintf("Your RCCA %q has been approved.", title)
	case domain.EventRejected:
		return "RCCA rejected", fmt.Sprintf("Your RCCA %q was rejected. Reason: %s", title, ev.Reason)
	case domain.EventDeleted:
		return "RCCA deleted", fmt.Sprintf("RCCA %q was deleted. Reason: %s", title, ev.Reason)
	default:
		return "RCCA updated", fmt.Sprintf("RCCA %q was updated.", title)
	}
}

func eventAttributes(ev domain.Event) map[string]string {
	attrs := map[string]string{
		"record_id": ev.RecordID,
		"event":     string(ev.Type),
	}
	if ev.OriginalID != "" {
		attrs["original_id"] = ev.OriginalID
	}
	return attrs
}

// inAppSink stores notifications for the in-app inbox.
type inAppSink struct {
	noteRepo repository.NotificationRepository
}

func NewInAppSink(noteRepo repository.NotificationRepository) NotificationSink {
	return &inAppSink{noteRepo: noteRepo}
}

func (s *inAppSink) Name() string { return "in_app" }

func (s *inAppSink) Notify(ctx context.Context, recipients []domain.User, ev domain.Event) error {
	title, message := render(ev)
	var errs []error
	for _, u := range recipients {
		n := &domain.Notification{
			UserID:     u.ID,
			Title:      title,
			Message:    message,
			Attributes: eventAttributes(ev),
			CreatedOn:  ev.OccurredAt,
		}
		if err := s.noteRepo.Create(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", u.ID, err))
		}
	}
	return errors.Join(errs...)
}
