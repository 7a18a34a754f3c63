package infrastructure

import (
	"context"
	"fmt"
	"sync"

	"bookmaker/domain/events"

	log "github.com/sirupsen/logrus"
)

// EventHandler handles a published domain event
type EventHandler func(ctx context.Context, event events.Event) error

// LocalEventBus delivers events to in-process handlers. Each handler runs in
// its own goroutine so publishers never wait on consumers.
type LocalEventBus struct {
	mu       sync.RWMutex
	handlers map[events.EventType][]EventHandler
	wg       sync.WaitGroup
}

// NewLocalEventBus creates a new in-process event bus
func NewLocalEventBus() *LocalEventBus {
	return &LocalEventBus{
		handlers: make(map[events.EventType][]EventHandler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *LocalEventBus) Subscribe(eventType events.EventType, handler func(context.Context, events.Event) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler on local event bus")
	return nil
}

// RegisterLocalHandler is Subscribe under the name used by the NATS publisher
func (b *LocalEventBus) RegisterLocalHandler(eventType events.EventType, handler func(context.Context, events.Event) error) {
	_ = b.Subscribe(eventType, handler)
}

// Publish dispatches the event to every handler registered for its type
func (b *LocalEventBus) Publish(event events.Event) error {
	b.mu.RLock()
	handlers := make([]EventHandler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event on local event bus")

	for i, handler := range handlers {
		b.wg.Add(1)
		go func(h EventHandler, index int) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": index,
						"panic":        fmt.Sprint(r),
					}).Error("Event handler panicked")
				}
			}()

			if err := h(context.Background(), event); err != nil {
				log.WithFields(log.Fields{
					"eventType":    event.Type(),
					"handlerIndex": index,
					"error":        err,
				}).Error("Event handler failed")
			}
		}(handler, i)
	}
	return nil
}

// Wait blocks until every dispatched handler has returned
func (b *LocalEventBus) Wait() {
	b.wg.Wait()
}
