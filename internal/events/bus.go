package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Handler processes one event. Returning an error gets it logged; it
// does not stop other handlers or the publisher.
type Handler func(ctx context.Context, evt Event) error

// Bus is a synchronous in-process dispatcher. Handlers run in subscribe
// order on the publisher's goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   zerolog.Logger
}

func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for the named event. Subscriptions are
// made during startup wiring; there is no unsubscribe.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish delivers the event to every subscriber of its name.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	b.mu.RLock()
	handlers := b.handlers[evt.Name()]
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, evt); err != nil {
			b.logger.Error().Err(err).Str("event", evt.Name()).Msg("event handler failed")
		}
	}
}
