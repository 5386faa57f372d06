package bus

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// subscription implements Subscription.
type subscription struct {
	id        string
	eventType string
	handler   Handler
	active    bool
	cancel    func()
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }
func (s *subscription) IsActive() bool    { return s.active }

func (s *subscription) Cancel() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.active = false
	return nil
}

// inMemoryBus is the single EventBus implementation: a nested subscription
// registry (topic -> event type -> subscription id) guarded by a RWMutex.
type inMemoryBus struct {
	mu        sync.RWMutex
	handlers  map[string]map[string]map[string]*subscription
	metrics   Metrics
	observers map[Observer]struct{}
}

// NewBus creates an empty in-memory event bus.
func NewBus() EventBus {
	return &inMemoryBus{
		handlers:  make(map[string]map[string]map[string]*subscription),
		observers: make(map[Observer]struct{}),
	}
}

func (b *inMemoryBus) Publish(event Event) error {
	return b.deliver("", event)
}

func (b *inMemoryBus) PublishToTopic(topic string, event Event) error {
	return b.deliver(topic, event)
}

func (b *inMemoryBus) PublishWithFilters(event Event, filters ...Filter) error {
	for _, f := range filters {
		if !f(event) {
			b.mu.Lock()
			if len(b.observers) > 0 {
				b.metrics.DroppedByFilters++
			}
			b.mu.Unlock()
			return nil
		}
	}
	return b.Publish(event)
}

func (b *inMemoryBus) Subscribe(eventType string, handler Handler) (Subscription, error) {
	return b.SubscribeTopic("", eventType, handler)
}

func (b *inMemoryBus) SubscribeTopic(topic, eventType string, handler Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[string]map[string]*subscription)
	}
	if b.handlers[topic][eventType] == nil {
		b.handlers[topic][eventType] = make(map[string]*subscription)
	}

	id := uuid.NewString()
	s := &subscription{id: id, eventType: eventType, handler: handler, active: true}
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if byType, ok := b.handlers[topic][eventType]; ok {
			delete(byType, id)
		}
		s.active = false
	}
	b.handlers[topic][eventType][id] = s
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) PublishAsync(event Event) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- b.Publish(event)
		close(ch)
	}()
	return ch
}

func (b *inMemoryBus) PublishBatch(events ...Event) error {
	var all error
	for _, e := range events {
		if err := b.Publish(e); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

func (b *inMemoryBus) AddObserver(obs Observer) {
	b.mu.Lock()
	b.observers[obs] = struct{}{}
	b.mu.Unlock()
}

func (b *inMemoryBus) RemoveObserver(obs Observer) {
	b.mu.Lock()
	delete(b.observers, obs)
	b.mu.Unlock()
}

func (b *inMemoryBus) Metrics() Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}

func (b *inMemoryBus) deliver(topic string, event Event) error {
	b.mu.RLock()
	var subs []*subscription
	if byType := b.handlers[topic]; byType != nil {
		if byID := byType[event.Type]; len(byID) > 0 {
			subs = make([]*subscription, 0, len(byID))
			for _, s := range byID {
				subs = append(subs, s)
			}
		}
	}
	observers := make([]Observer, 0, len(b.observers))
	for obs := range b.observers {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	for _, obs := range observers {
		obs.OnPublish(topic, event.Type, event)
	}

	var all error
	for _, s := range subs {
		if !s.active {
			continue
		}
		if err := s.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}

	if len(observers) > 0 {
		for _, obs := range observers {
			obs.OnDelivered(topic, event.Type, len(subs), all)
		}
		b.mu.Lock()
		b.metrics.Published++
		b.metrics.DeliveredHandlers += uint64(len(subs))
		if all != nil {
			b.metrics.Errors++
		}
		var active uint64
		for _, byType := range b.handlers {
			for _, byID := range byType {
				active += uint64(len(byID))
			}
		}
		b.metrics.SubscribersActive = active
		b.mu.Unlock()
	}
	return all
}
