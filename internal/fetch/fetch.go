// Package fetch implements the engine's two streaming protocols behind
// one contract: a range-resumable Direct HTTP fetch, and a segmented
// HLS fetch that first resolves a playlist hierarchy. Both write bytes
// into a part file, honor cooperative pause, and report progress
// through an events.Sink.
package fetch

import (
	"context"
	"net/http"
	"strings"
	"time"

	"zentrio/internal/events"
	"zentrio/internal/store"
)

// userAgent is fixed per the engine's external-interfaces contract.
const userAgent = "Zentrio/1.0"

// httpTimeout bounds a single HTTP request/response; there is no
// global deadline on an entire job.
const httpTimeout = 30 * time.Second

// Request carries everything a Fetcher needs to stream one job.
type Request struct {
	ID        string
	ProfileID string
	Title     string
	StreamURL string
	Quality   store.Quality
	PartPath  string
	FinalPath string
}

// Result reports how a fetch attempt ended.
type Result struct {
	FileSize int64
	Paused   bool
}

// PausedSet is polled by a Fetcher between write units; if a job's id
// is present, the Fetcher stops cleanly in the Paused state.
type PausedSet interface {
	IsPaused(id string) bool
}

// ProgressStore is the subset of the Store a Fetcher mutates directly,
// matching the "set status via Store" steps of the fetch contract.
type ProgressStore interface {
	UpdateProgress(id string, progress float64, bytes int64) error
	UpdateStatus(id string, status store.Status) error
	UpdateComplete(id, path string, size int64, now int64) error
	UpdateError(id, msg string) error
}

// Notifier surfaces OS notifications; failures are the notifier's own
// concern and never propagate here.
type Notifier interface {
	Progress(id, title string, pct, speedKBps float64)
	Complete(title string)
	Failed(title string)
}

// Fetcher is the common contract both engines implement.
type Fetcher interface {
	Fetch(ctx context.Context, req Request, paused PausedSet, st ProgressStore, sink events.Sink, notif Notifier) (Result, error)
}

// Select returns the Fetcher appropriate for a stream URL: HLS when
// the URL looks like it names an HLS manifest (case-insensitive
// substring match on "m3u8"), Direct otherwise.
func Select(streamURL string) Fetcher {
	if strings.Contains(strings.ToLower(streamURL), "m3u8") {
		return NewHLSFetcher()
	}
	return NewDirectFetcher()
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}
