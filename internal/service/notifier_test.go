package service

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rcca-backend/internal/domain"
	"rcca-backend/internal/events"
	"rcca-backend/internal/metrics"
)

var (
	erin = domain.User{ID: "e1", Name: "Erin", Email: "erin@example.com", PushToken: "tok-e1"}
	mo   = domain.User{ID: "m1", Name: "Mo", Email: "mo@example.com"}
	ada  = domain.User{ID: "a1", Name: "Ada", Email: "ada@example.com", IsAdmin: true}
	ben  = domain.User{ID: "a2", Name: "Ben", Email: "", IsAdmin: true, PushToken: "tok-a2"}
)

func TestDispatcher_Submitted(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepo)
	sink := new(MockSink)
	d := NewDispatcher(users, metrics.New(), sink)

	ev := domain.Event{Type: domain.EventSubmitted, RecordID: "r1", ActorID: "e1", CreatorID: "e1", MemberIDs: []string{"m1", "ghost"}}
	users.On("ListAdmins", ctx).Return([]domain.User{ada, ben}, nil).Once()
	users.On("GetByID", ctx, "m1").Return(&mo, nil).Once()
	users.On("GetByID", ctx, "ghost").Return(nil, domain.ErrNotFound).Once()
	sink.On("Notify", ctx, []domain.User{ada, ben, mo}, ev).Return(nil).Once()

	d.Handle(ctx, ev)
	users.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestDispatcher_DecisionNotifiesCreatorOnly(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepo)
	sink := new(MockSink)
	d := NewDispatcher(users, nil, sink)

	ev := domain.Event{Type: domain.EventRejected, RecordID: "r1", ActorID: "a1", CreatorID: "e1", MemberIDs: []string{"m1"}, Reason: "no 5-why"}
	users.On("GetByID", ctx, "e1").Return(&erin, nil).Once()
	sink.On("Notify", ctx, []domain.User{erin}, ev).Return(nil).Once()

	d.Handle(ctx, ev)
	sink.AssertExpectations(t)
	users.AssertNotCalled(t, "ListAdmins", mock.Anything)
}

func TestDispatcher_SelfActionSkipsDelivery(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepo)
	sink := new(MockSink)
	d := NewDispatcher(users, nil, sink)

	// an admin deleting their own record
	ev := domain.Event{Type: domain.EventDeleted, RecordID: "r1", ActorID: "a1", CreatorID: "a1"}
	users.On("GetByID", ctx, "a1").Return(&ada, nil).Once()

	d.Handle(ctx, ev)
	sink.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_FailureIsCountedNotReturned(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepo)
	failing := new(MockSink)
	m := metrics.New()
	d := NewDispatcher(users, m, failing)

	ev := domain.Event{Type: domain.EventApproved, RecordID: "r1", ActorID: "a1", CreatorID: "e1"}
	users.On("GetByID", ctx, "e1").Return(&erin, nil).Once()
	failing.On("Notify", ctx, mock.Anything, ev).Return(errors.New("smtp down")).Once()

	d.Handle(ctx, ev)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationFailures.WithLabelValues("mock")))
}

func TestDispatcher_Register(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepo)
	sink := new(MockSink)
	d := NewDispatcher(users, nil, sink)
	bus := events.NewBus()
	d.Register(bus)

	users.On("GetByID", mock.Anything, "e1").Return(&erin, nil).Once()
	sink.On("Notify", mock.Anything, []domain.User{erin}, mock.Anything).Return(nil).Once()

	bus.Publish(ctx, domain.Event{Type: domain.EventDraftSaved, RecordID: "r1", ActorID: "e1", CreatorID: "e1"})
	bus.Publish(ctx, domain.Event{Type: domain.EventApproved, RecordID: "r1", ActorID: "a1", CreatorID: "e1"})
	d.Wait()

	sink.AssertExpectations(t)
}

func TestInAppSink(t *testing.T) {
	ctx := context.Background()
	notes := new(MockNotificationRepo)
	sink := NewInAppSink(notes)

	ev := domain.Event{Type: domain.EventRejected, RecordID: "r1", Title: "Seal leak", Reason: "no 5-why", OccurredAt: now}
	notes.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "e1" && n.Title == "RCCA rejected" &&
			n.Message == `Your RCCA "Seal leak" was rejected. Reason: no 5-why` &&
			n.Attributes["record_id"] == "r1" && n.Attributes["event"] == "REJECTED"
	})).Return(nil).Once()
	notes.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool { return n.UserID == "m1" })).
		Return(errors.New("insert failed")).Once()

	err := sink.Notify(ctx, []domain.User{erin, mo}, ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify m1")
	notes.AssertExpectations(t)
}

func TestEmailSink(t *testing.T) {
	ctx := context.Background()
	var sent []*mail.SGMailV3
	sink := newEmailSink(func(_ context.Context, m *mail.SGMailV3) (int, string, error) {
		sent = append(sent, m)
		if m.Personalizations[0].To[0].Address == "mo@example.com" {
			return 400, "bad request", nil
		}
		return 202, "", nil
	}, "quality@example.com", "Quality")

	ev := domain.Event{Type: domain.EventSubmitted, RecordID: "r1", Title: "Seal leak"}
	err := sink.Notify(ctx, []domain.User{erin, ben, mo}, ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")

	// ben has no address
	require.Len(t, sent, 2)
	assert.Equal(t, "RCCA submitted for approval", sent[0].Subject)
	assert.Equal(t, "quality@example.com", sent[0].From.Address)
	assert.Equal(t, "erin@example.com", sent[0].Personalizations[0].To[0].Address)
}

type fakeMessenger struct {
	sent []*messaging.Message
	err  error
}

func (f *fakeMessenger) Send(_ context.Context, m *messaging.Message) (string, error) {
	f.sent = append(f.sent, m)
	return "projects/p/messages/1", f.err
}

func TestPushSink(t *testing.T) {
	ctx := context.Background()
	fm := &fakeMessenger{}
	sink := &pushSink{client: fm}

	ev := domain.Event{Type: domain.EventApproved, RecordID: "r1", Title: "Seal leak"}
	require.NoError(t, sink.Notify(ctx, []domain.User{erin, mo, ben}, ev))
	require.Len(t, fm.sent, 2)
	assert.Equal(t, "tok-e1", fm.sent[0].Token)
	assert.Equal(t, "RCCA approved", fm.sent[0].Notification.Title)
	assert.Equal(t, "r1", fm.sent[0].Data["record_id"])

	fm.err = errors.New("unregistered")
	assert.Error(t, sink.Notify(ctx, []domain.User{erin}, ev))
}
