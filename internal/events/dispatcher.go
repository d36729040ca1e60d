package events

import (
	"context"
	"errors"
	"sync"
)

// NotificationHandler handles a published notification.
type NotificationHandler func(context.Context, Notification) error

// Dispatcher interface allows notification publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, n Notification) error
	Subscribe(eventType EventType, handler NotificationHandler)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]NotificationHandler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]NotificationHandler),
	}
}

// Publish synchronously invokes handlers for the given notification. Every handler
// runs even when an earlier one fails; the failures are joined.
func (d *inMemoryDispatcher) Publish(ctx context.Context, n Notification) error {
	d.mu.RLock()
	handlers := append([]NotificationHandler{}, d.listeners[n.Type]...)
	d.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler NotificationHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}
