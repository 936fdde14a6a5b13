// Package events is the engine's EventSink: it pushes progress and
// status updates to anything subscribed (typically the websocket
// transport in internal/server), throttling progress emissions so a
// fast download doesn't flood subscribers.
package events

// ProgressEvent reports a job's running progress.
type ProgressEvent struct {
	ID              string  `json:"id"`
	Progress        float64 `json:"progress"`
	DownloadedBytes int64   `json:"downloadedBytes"`
	SpeedBytesPerSec float64 `json:"speedBytesPerSec"`
}

// StatusEvent reports a job's status transition.
type StatusEvent struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	FilePath string `json:"filePath,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Status string values carried on StatusEvent.Status.
const (
	StatusQueued      = "queued"
	StatusDownloading = "downloading"
	StatusPaused      = "paused"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusCancelled   = "cancelled"
)

// Sink is the abstract destination for progress/status events. Both
// the Manager and the Fetchers depend only on this interface, never on
// a concrete transport — the Manager holds the Sink and passes it to
// each Fetcher as an argument of Fetch.
type Sink interface {
	Progress(ProgressEvent)
	Status(StatusEvent)
}

// NopSink discards every event. Useful for tests and for callers that
// don't want UI plumbing.
type NopSink struct{}

func (NopSink) Progress(ProgressEvent) {}
func (NopSink) Status(StatusEvent)     {}
