package events

import (
	"sync"

	"golang.org/x/time/rate"
)

// progressRateLimit bounds how often a single job's progress events are
// forwarded to subscribers, as a defense-in-depth throttle on top of
// the Fetchers' own ~1%-change coalescing.
const progressRateLimit = 10 // events per second per job

// Bus is an in-process Sink that fans events out to subscribers (the
// websocket transport subscribes one channel per connected client).
type Bus struct {
	mu          sync.RWMutex
	subscribers map[chan any]struct{}
	limiters    map[string]*rate.Limiter
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[chan any]struct{}),
		limiters:    make(map[string]*rate.Limiter),
	}
}

// Subscribe registers a new channel that receives every published
// event as either a ProgressEvent or a StatusEvent. The returned
// unsubscribe function must be called when the subscriber disconnects.
func (b *Bus) Subscribe(buffer int) (ch chan any, unsubscribe func()) {
	ch = make(chan any, buffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
}

// Progress publishes a progress update, subject to the per-job rate
// limiter.
func (b *Bus) Progress(e ProgressEvent) {
	if !b.limiterFor(e.ID).Allow() {
		return
	}
	b.broadcast(e)
}

// Status publishes a status transition. Status events are never
// throttled — a terminal state must always reach subscribers.
func (b *Bus) Status(e StatusEvent) {
	b.broadcast(e)

	switch e.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		b.forgetJob(e.ID)
	}
}

func (b *Bus) limiterFor(jobID string) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	l, ok := b.limiters[jobID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(progressRateLimit), 1)
		b.limiters[jobID] = l
	}
	return l
}

// forgetJob drops the rate limiter for a job once it reaches a
// terminal state, so the limiter map doesn't grow unbounded.
func (b *Bus) forgetJob(jobID string) {
	b.mu.Lock()
	delete(b.limiters, jobID)
	b.mu.Unlock()
}

func (b *Bus) broadcast(event any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Slow subscriber: drop rather than block the publisher.
		}
	}
}
