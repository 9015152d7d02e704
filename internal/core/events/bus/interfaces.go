package bus

import "time"

// EventBus is a thread-safe, in-process pub/sub bus.
//
// Key characteristics:
//   - Type-based fan-out: handlers subscribe by Event.Type() string.
//   - Synchronous delivery: Publish calls handlers in the caller goroutine, in
//     subscription order.
//   - Error aggregation: handler errors are joined and returned from Publish.
//   - Metrics are always counted; observers are notified only while
//     registered.
//
// Handlers must not publish on the same goroutine while holding locks their
// publisher also takes. Handlers should be quick or hand work off.
type EventBus interface {
	// Publish delivers the event to all active subscribers of event.Type().
	Publish(event Event) error
	// PublishWithFilters drops the event silently if any filter rejects it.
	PublishWithFilters(event Event, filters ...EventFilter) error
	// Subscribe registers a handler for an event type.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. Safe with nil.
	Unsubscribe(Subscription) error

	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns a best-effort snapshot of accumulated metrics.
	GetMetrics() EventBusMetrics
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type (
	// EventHandler is invoked per delivered event.
	EventHandler func(event Event) error
	// EventFilter decides whether an event should be delivered.
	EventFilter func(event Event) bool
)

// Subscription is a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified about deliveries and errors.
type EventBusObserver interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, duration time.Duration)
}

// EventBusMetrics counts bus activity since creation.
type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	DroppedByFilters  uint64
	SubscribersActive uint64
}
