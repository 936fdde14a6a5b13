package fetch

import (
	"sync"

	"zentrio/internal/events"
	"zentrio/internal/store"
)

type fakeStore struct {
	mu       sync.Mutex
	progress []float64
	bytes    []int64
	status   store.Status
	path     string
	size     int64
	errMsg   string
}

func (f *fakeStore) UpdateProgress(id string, progress float64, b int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, progress)
	f.bytes = append(f.bytes, b)
	return nil
}

func (f *fakeStore) UpdateStatus(id string, status store.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	return nil
}

func (f *fakeStore) UpdateComplete(id, path string, size int64, now int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = store.StatusCompleted
	f.path = path
	f.size = size
	return nil
}

func (f *fakeStore) UpdateError(id, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = store.StatusFailed
	f.errMsg = msg
	return nil
}

type fakeSink struct {
	mu       sync.Mutex
	statuses []events.StatusEvent
}

func (f *fakeSink) Progress(events.ProgressEvent) {}

func (f *fakeSink) Status(e events.StatusEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, e)
}

type fakeNotifier struct{}

func (fakeNotifier) Progress(id, title string, pct, speedKBps float64) {}
func (fakeNotifier) Complete(title string)                             {}
func (fakeNotifier) Failed(title string)                               {}

type fakePaused struct {
	mu  sync.Mutex
	ids map[string]bool
}

func newFakePaused() *fakePaused {
	return &fakePaused{ids: make(map[string]bool)}
}

func (f *fakePaused) IsPaused(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids[id]
}

func (f *fakePaused) Pause(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids[id] = true
}
