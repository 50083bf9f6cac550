package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"rcca-backend/internal/domain"
)

func TestBus_PublishRoutesByType(t *testing.T) {
	b := NewBus()
	var got []string

	b.Subscribe(domain.EventApproved, func(_ context.Context, ev domain.Event) {
		got = append(got, "approved:"+ev.RecordID)
	})
	b.Subscribe(domain.EventRejected, func(_ context.Context, ev domain.Event) {
		got = append(got, "rejected:"+ev.RecordID)
	})
	b.SubscribeAll(func(_ context.Context, ev domain.Event) {
		got = append(got, "all:"+string(ev.Type))
	})

	b.Publish(context.Background(), domain.Event{Type: domain.EventApproved, RecordID: "r1"})
	b.Publish(context.Background(), domain.Event{Type: domain.EventSubmitted, RecordID: "r2"})

	assert.Equal(t, []string{"all:APPROVED", "approved:r1", "all:SUBMITTED"}, got)
}

func TestBus_PanickingHandlerDoesNotStopOthers(t *testing.T) {
	b := NewBus()
	called := false
	b.Subscribe(domain.EventSubmitted, func(context.Context, domain.Event) { panic("boom") })
	b.Subscribe(domain.EventSubmitted, func(context.Context, domain.Event) { called = true })

	assert.NotPanics(t, func() {
		b.Publish(context.Background(), domain.Event{Type: domain.EventSubmitted})
	})
	assert.True(t, called)
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	assert.NotPanics(t, func() {
		NewBus().Publish(context.Background(), domain.Event{Type: domain.EventDeleted})
	})
}
