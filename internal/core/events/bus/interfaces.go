package bus

import "time"

// EventBus is the in-process pub/sub boundary between the simulation core
// and its consumers (render, audio, UI, network relays).
//
// Delivery is synchronous: Publish invokes handlers in the caller's
// goroutine, in line with the engine's single-threaded tick. Publishing with
// zero subscribers is a no-op, never an error; the core must not depend on
// subscriber presence. Handler errors are joined and returned to the
// publisher but never interrupt fan-out.
//
// Topics give consumers an optional isolation scope; the default topic is
// the empty string and the plain Publish/Subscribe methods operate on it.
// All methods are safe for concurrent use so out-of-core consumers may
// subscribe from other goroutines.
type EventBus interface {
	Publish(event Event) error
	Subscribe(eventType string, handler Handler) (Subscription, error)
	Unsubscribe(sub Subscription) error

	PublishToTopic(topic string, event Event) error
	SubscribeTopic(topic, eventType string, handler Handler) (Subscription, error)

	// PublishWithFilters drops the event without error if any filter
	// rejects it.
	PublishWithFilters(event Event, filters ...Filter) error
	// PublishAsync delivers from a fresh goroutine and reports the joined
	// handler error on the returned channel, which is then closed.
	PublishAsync(event Event) <-chan error
	// PublishBatch publishes sequentially, aggregating errors across events.
	PublishBatch(events ...Event) error

	// Observers receive per-delivery callbacks; metrics accumulate only
	// while at least one observer is registered.
	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	Metrics() Metrics
}

// Event is the {type, payload} message shape the core emits. Consumers must
// treat events as read-only.
type Event struct {
	Type      string
	Source    string
	Timestamp time.Time
	Payload   any
}

// New builds an event stamped with the current time.
func New(eventType, source string, payload any) Event {
	return Event{Type: eventType, Source: source, Timestamp: time.Now(), Payload: payload}
}

// Handler is invoked once per delivered event. A returned error is
// aggregated into the publisher's result.
type Handler func(event Event) error

// Filter decides whether an event is delivered at all.
type Filter func(event Event) bool

// Subscription is the cancellation handle returned by Subscribe. Cancel is
// safe to call repeatedly.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	Cancel() error
}

// Observer is notified around deliveries; implementations should return
// quickly.
type Observer interface {
	OnPublish(topic, eventType string, event Event)
	OnDelivered(topic, eventType string, handlers int, err error)
}

// Metrics is a best-effort counter snapshot, collected only while observed.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	DroppedByFilters  uint64
	SubscribersActive uint64
}
