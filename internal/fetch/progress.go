package fetch

import (
	"time"

	"zentrio/internal/events"
	"zentrio/internal/store"
)

// notifyBoundary is the OS-notification granularity: a notification
// fires on every 10-percentage-point boundary crossed...
const notifyBoundary = 10.0

// ...or after this much time since the last notification, whichever
// comes first.
const notifyInterval = 30 * time.Second

// progressCoalesce is the minimum percentage delta between emitted
// progress events and Store writes.
const progressCoalesce = 1.0

// progressTracker centralizes the progress/notification throttling
// rules shared by the Direct and HLS fetchers: emit no more than once
// per ~1% change, and notify on every 10% boundary or 30s elapsed.
type progressTracker struct {
	jobID     string
	title     string
	totalSize int64 // 0 if unknown

	st    ProgressStore
	sink  events.Sink
	notif Notifier

	startTime      time.Time
	lastProgress   float64
	lastNotifyPct  float64
	lastNotifyTime time.Time
}

func newProgressTracker(jobID, title string, totalSize int64, st ProgressStore, sink events.Sink, notif Notifier) *progressTracker {
	now := time.Now()
	return &progressTracker{
		jobID:          jobID,
		title:          title,
		totalSize:      totalSize,
		st:             st,
		sink:           sink,
		notif:          notif,
		startTime:      now,
		lastNotifyTime: now,
	}
}

// update reports the running total of downloaded bytes, emitting a
// progress event/Store write and, if warranted, an OS notification.
func (p *progressTracker) update(downloaded int64) {
	progress := 0.0
	if p.totalSize > 0 {
		progress = float64(downloaded) / float64(p.totalSize) * 100
	}
	p.report(progress, downloaded)
}

// updateSegments reports HLS segment progress: done/total segments,
// plus the cumulative bytes written so far (for the speed figure).
func (p *progressTracker) updateSegments(done, total int, downloadedBytes int64) {
	progress := 0.0
	if total > 0 {
		progress = float64(done) / float64(total) * 100
	}
	p.report(progress, downloadedBytes)
}

func (p *progressTracker) report(progress float64, downloaded int64) {
	elapsed := time.Since(p.startTime).Seconds()
	speed := 0.0
	if elapsed > 0 {
		speed = float64(downloaded) / elapsed
	}

	if progress-p.lastProgress >= progressCoalesce || downloaded == 0 {
		p.sink.Progress(events.ProgressEvent{
			ID:               p.jobID,
			Progress:         progress,
			DownloadedBytes:  downloaded,
			SpeedBytesPerSec: speed,
		})
		p.st.UpdateProgress(p.jobID, progress, downloaded)
		p.lastProgress = progress
	}

	elapsedSinceNotify := time.Since(p.lastNotifyTime)
	crossedBoundary := int(progress/notifyBoundary) > int(p.lastNotifyPct/notifyBoundary)
	if crossedBoundary || elapsedSinceNotify >= notifyInterval {
		p.notif.Progress(p.jobID, p.title, progress, speed/1024)
		p.lastNotifyPct = progress
		p.lastNotifyTime = time.Now()
	}
}

// finalStatusPaused, finalStatusFailed and finalStatusCompleted persist
// the status a fetch ends in and fire the matching status event.
func finalStatusPaused(jobID string, st ProgressStore, sink events.Sink) {
	st.UpdateStatus(jobID, store.StatusPaused)
	sink.Status(events.StatusEvent{ID: jobID, Status: events.StatusPaused})
}

func finalStatusFailed(jobID, msg string, title string, st ProgressStore, sink events.Sink, notif Notifier) {
	st.UpdateError(jobID, msg)
	sink.Status(events.StatusEvent{ID: jobID, Status: events.StatusFailed, Error: msg})
	notif.Failed(title)
}

func finalStatusCompleted(jobID, path string, size int64, title string, st ProgressStore, sink events.Sink, notif Notifier) {
	st.UpdateComplete(jobID, path, size, time.Now().UnixMilli())
	sink.Status(events.StatusEvent{ID: jobID, Status: events.StatusCompleted, FilePath: path})
	notif.Complete(title)
}
