package bus

import (
	"errors"
	"testing"
	"time"
)

type testObserver struct {
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_, _ string, _ Event) {
	o.publishCount++
}

func (o *testObserver) OnDelivered(_, _ string, handlers int, err error) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := NewBus()
	called := 0
	_, err := b.Subscribe(TypeCollision, func(e Event) error {
		called++
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err = b.Publish(New(TypeCollision, "physics", nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if called != 1 {
		t.Fatalf("handler called %d times, want 1", called)
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	b := NewBus()
	if err := b.Publish(New(TypeTriggerEnter, "collision", nil)); err != nil {
		t.Fatalf("publish with zero subscribers must not error: %v", err)
	}
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := NewBus()
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	_, _ = b.Subscribe("ev", func(e Event) error { return errA })
	_, _ = b.Subscribe("ev", func(e Event) error { return errB })
	_, _ = b.Subscribe("ev", func(e Event) error { return nil })

	err := b.Publish(New("ev", "test", nil))
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("joined error missing a handler failure: %v", err)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := NewBus()
	count := 0
	sub, _ := b.Subscribe("ev", func(e Event) error { count++; return nil })

	_ = b.Publish(New("ev", "test", nil))
	if err := b.Unsubscribe(sub); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	_ = b.Publish(New("ev", "test", nil))

	if count != 1 {
		t.Fatalf("delivered %d events after cancel, want 1", count)
	}
	if sub.IsActive() {
		t.Fatal("subscription still active after cancel")
	}
	// Cancelling twice is safe.
	if err := sub.Cancel(); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
}

func TestTopicIsolation(t *testing.T) {
	b := NewBus()
	count1, count2 := 0, 0
	_, _ = b.SubscribeTopic("render", "ev", func(e Event) error { count1++; return nil })
	_, _ = b.SubscribeTopic("audio", "ev", func(e Event) error { count2++; return nil })

	_ = b.PublishToTopic("render", New("ev", "test", nil))
	if count1 != 1 || count2 != 0 {
		t.Fatalf("topic isolation failed: render=%d audio=%d", count1, count2)
	}
}

func TestFiltersDropSilently(t *testing.T) {
	b := NewBus()
	count := 0
	_, _ = b.Subscribe("ev", func(e Event) error { count++; return nil })

	rejectAll := func(e Event) bool { return false }
	if err := b.PublishWithFilters(New("ev", "test", nil), rejectAll); err != nil {
		t.Fatalf("filtered publish errored: %v", err)
	}
	if count != 0 {
		t.Fatalf("filtered event was delivered")
	}
}

func TestPublishAsync(t *testing.T) {
	b := NewBus()
	handlerErr := errors.New("fail")
	_, _ = b.Subscribe("ev", func(e Event) error { return handlerErr })

	ch := b.PublishAsync(New("ev", "test", nil))
	select {
	case err := <-ch:
		if !errors.Is(err, handlerErr) {
			t.Fatalf("async error = %v, want %v", err, handlerErr)
		}
	case <-time.After(time.Second):
		t.Fatal("async publish never completed")
	}
}

func TestMetricsOnlyWhenObserved(t *testing.T) {
	b := NewBus()
	_, _ = b.Subscribe("ev", func(e Event) error { return nil })

	_ = b.Publish(New("ev", "test", nil))
	if m := b.Metrics(); m.Published != 0 {
		t.Fatalf("metrics accumulated without observers: %+v", m)
	}

	obs := &testObserver{}
	b.AddObserver(obs)
	_ = b.Publish(New("ev", "test", nil))

	m := b.Metrics()
	if m.Published != 1 || m.DeliveredHandlers != 1 {
		t.Fatalf("metrics not updated with observer: %+v", m)
	}
	if obs.publishCount != 1 || obs.deliveredCount != 1 {
		t.Fatalf("observer callbacks: %+v", obs)
	}

	b.RemoveObserver(obs)
	_ = b.Publish(New("ev", "test", nil))
	if m := b.Metrics(); m.Published != 1 {
		t.Fatalf("metrics accumulated after observer removal: %+v", m)
	}
}

func TestPublishBatchAggregates(t *testing.T) {
	b := NewBus()
	failing := errors.New("boom")
	_, _ = b.Subscribe("bad", func(e Event) error { return failing })

	err := b.PublishBatch(
		New("good", "test", nil),
		New("bad", "test", nil),
		New("good", "test", nil),
	)
	if !errors.Is(err, failing) {
		t.Fatalf("batch error = %v, want %v", err, failing)
	}
}
