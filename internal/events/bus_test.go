package events_test

import (
	"testing"
	"time"

	"zentrio/internal/events"
)

func TestBus_ProgressAndStatusDelivered(t *testing.T) {
	bus := events.NewBus()
	ch, unsubscribe := bus.Subscribe(10)
	defer unsubscribe()

	bus.Progress(events.ProgressEvent{ID: "job-1", Progress: 50})
	bus.Status(events.StatusEvent{ID: "job-1", Status: events.StatusCompleted})

	select {
	case got := <-ch:
		if p, ok := got.(events.ProgressEvent); !ok || p.Progress != 50 {
			t.Errorf("expected ProgressEvent{Progress:50}, got %#v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for progress event")
	}

	select {
	case got := <-ch:
		if s, ok := got.(events.StatusEvent); !ok || s.Status != events.StatusCompleted {
			t.Errorf("expected StatusEvent{Status:completed}, got %#v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for status event")
	}
}

func TestBus_ProgressRateLimited(t *testing.T) {
	bus := events.NewBus()
	ch, unsubscribe := bus.Subscribe(100)
	defer unsubscribe()

	for i := 0; i < 100; i++ {
		bus.Progress(events.ProgressEvent{ID: "job-1", Progress: float64(i)})
	}

	if len(ch) >= 100 {
		t.Errorf("expected rate limiting to drop some events, got %d queued", len(ch))
	}
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := events.NewBus()
	ch, unsubscribe := bus.Subscribe(1)
	unsubscribe()

	bus.Status(events.StatusEvent{ID: "job-1", Status: events.StatusCompleted})

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
}
