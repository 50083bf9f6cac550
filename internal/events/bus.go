// Package events is the in-process pub/sub for committed workflow events.
package events

import (
	"context"
	"sync"

	"rcca-backend/internal/domain"
	"rcca-backend/internal/logger"
)

// Handler reacts to a published event. Handlers run synchronously in
// subscription order and must not block for long.
type Handler func(ctx context.Context, ev domain.Event)

type Bus struct {
	mu       sync.RWMutex
	handlers map[domain.EventType][]Handler
	all      []Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[domain.EventType][]Handler)}
}

// Subscribe registers h for one event type.
func (b *Bus) Subscribe(t domain.EventType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// SubscribeAll registers h for every event type.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish delivers ev to its subscribers. A panicking handler is logged and
// skipped; the remaining handlers still run.
func (b *Bus) Publish(ctx context.Context, ev domain.Event) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.all)+len(b.handlers[ev.Type]))
	hs = append(hs, b.all...)
	hs = append(hs, b.handlers[ev.Type]...)
	b.mu.RUnlock()

	for _, h := range hs {
		b.deliver(ctx, h, ev)
	}
}

func (b *Bus) deliver(ctx context.Context, h Handler, ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Event handler panicked", "event", ev.Type, "record_id", ev.RecordID, "panic", r)
		}
	}()
	h(ctx, ev)
}
