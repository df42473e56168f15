package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/phrazzld/taskhub/internal/platform/logger"
)

var _ EventEmitter = (*InMemoryEventEmitter)(nil)

// InMemoryEventEmitter delivers events synchronously to handlers registered
// in the same process.
type InMemoryEventEmitter struct {
	handlers []EventHandler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEventEmitter creates a new instance of InMemoryEventEmitter.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		handlers: make([]EventHandler, 0),
		logger:   logger.With("component", "in_memory_event_emitter"),
	}
}

// RegisterHandler adds a new event handler to receive events.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered new event handler", "handler_count", len(e.handlers))
}

// EmitEvent hands event to every registered handler in registration order.
// A failing handler does not stop the others; all handler errors are joined.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *DomainEvent) error {
	e.mu.RLock()
	handlers := make([]EventHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	log := logger.FromContextOrDefault(ctx, e.logger).With(
		"event_id", event.ID,
		"event_type", event.Type)

	if len(handlers) == 0 {
		log.Warn("no handlers registered for event")
		return nil
	}

	var errs []error
	for i, handler := range handlers {
		if err := handler.HandleEvent(ctx, event); err != nil {
			log.Error("handler failed to process event",
				"error", err,
				"handler_index", i)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
