// Package manager implements the engine's Manager: a bounded concurrent
// job scheduler sitting on top of the Store, FileStore, and Fetchers.
// Its queue, active set, and paused set are each a short-lived
// mutex-guarded value, not a channel/semaphore pipeline — pausing and
// cancelling a running job is a flag another goroutine polls, not a
// message it waits on.
package manager

import (
	"context"
	"sync"
	"time"

	apperr "zentrio/internal/apperrors"
	"zentrio/internal/events"
	"zentrio/internal/fetch"
	"zentrio/internal/filestore"
	"zentrio/internal/logger"
	"zentrio/internal/notifier"
	"zentrio/internal/store"
	"zentrio/internal/validate"
)

// queueItem is the lightweight in-memory queue entry; everything else
// about a job lives in the Store row.
type queueItem struct {
	id            string
	profileID     string
	title         string
	streamURL     string
	quality       store.Quality
	smartDownload bool
	autoDelete    bool
}

// EnqueueRequest carries the fields a caller supplies to start a new
// download; SmartDownload and AutoDelete are optional overrides of the
// profile defaults.
type EnqueueRequest struct {
	ProfileID     string
	MediaType     store.MediaType
	MediaID       string
	EpisodeID     string
	Title         string
	EpisodeTitle  string
	Season        *int64
	Episode       *int64
	PosterPath    string
	StreamURL     string
	AddonID       string
	Quality       store.Quality
	SmartDownload *bool
	AutoDelete    *bool
}

// Manager coordinates download jobs with bounded concurrency, cooperative
// pause/cancel, and the Smart Downloads chaining hook.
type Manager struct {
	store    *store.DB
	files    *filestore.FileStore
	sink     events.Sink
	notifier *notifier.Notifier

	maxConcurrent int

	mu     sync.Mutex
	queue  []queueItem
	active map[string]struct{}
	paused map[string]struct{}
}

// New creates a Manager. maxConcurrent below 1 is treated as 1.
func New(db *store.DB, files *filestore.FileStore, sink events.Sink, notif *notifier.Notifier, maxConcurrent int) *Manager {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Manager{
		store:         db,
		files:         files,
		sink:          sink,
		notifier:      notif,
		maxConcurrent: maxConcurrent,
		active:        make(map[string]struct{}),
		paused:        make(map[string]struct{}),
	}
}

// IsPaused implements fetch.PausedSet: a running Fetcher polls this
// between write units to learn it should stop cleanly.
func (m *Manager) IsPaused(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.paused[id]
	return ok
}

// Enqueue creates a job record and adds it to the queue, starting it
// immediately if a concurrency slot is free. Series episodes are
// rejected if a non-cancelled job already exists for the same
// (profile, media, season, episode) — enforced here as well as in the
// Smart Downloads chaining hook, per the duplicate-episode invariant.
func (m *Manager) Enqueue(req EnqueueRequest) (string, error) {
	if _, err := validate.StreamURL(req.StreamURL); err != nil {
		return "", err
	}

	if req.MediaType == store.MediaSeries && req.Season != nil && req.Episode != nil {
		exists, err := m.store.ExistsActiveEpisode(req.ProfileID, req.MediaID, *req.Season, *req.Episode)
		if err != nil {
			return "", err
		}
		if exists {
			return "", apperr.NewWithMessage("Manager.Enqueue", apperr.ErrAlreadyExists, "an active download already exists for this episode")
		}
	}

	if err := m.files.EnsureDir(req.ProfileID); err != nil {
		return "", err
	}

	smartDefault, autoDeleteDefault, err := m.store.GetSmartDefaults(req.ProfileID)
	if err != nil {
		return "", err
	}
	smartDownload := smartDefault
	if req.SmartDownload != nil {
		smartDownload = *req.SmartDownload
	}
	autoDelete := autoDeleteDefault
	if req.AutoDelete != nil {
		autoDelete = *req.AutoDelete
	}

	id := store.NewJobID()
	job := &store.Job{
		ID:            id,
		ProfileID:     req.ProfileID,
		MediaType:     req.MediaType,
		MediaID:       req.MediaID,
		EpisodeID:     req.EpisodeID,
		Title:         req.Title,
		EpisodeTitle:  req.EpisodeTitle,
		Season:        req.Season,
		Episode:       req.Episode,
		PosterPath:    req.PosterPath,
		Status:        store.StatusQueued,
		Quality:       req.Quality,
		FilePath:      m.files.FinalPath(req.ProfileID, id),
		AddedAt:       time.Now().UnixMilli(),
		StreamURL:     req.StreamURL,
		AddonID:       req.AddonID,
		SmartDownload: smartDownload,
		AutoDelete:    autoDelete,
	}

	if err := m.store.Insert(job); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.queue = append(m.queue, queueItem{
		id: id, profileID: req.ProfileID, title: req.Title, streamURL: req.StreamURL,
		quality: req.Quality, smartDownload: smartDownload, autoDelete: autoDelete,
	})
	m.mu.Unlock()

	logger.Log.Info().Str("jobID", id).Str("profileID", req.ProfileID).Msg("job enqueued")

	m.tryStartNext()
	return id, nil
}

// tryStartNext pops the next queued item and starts it in its own
// goroutine if a concurrency slot is free.
func (m *Manager) tryStartNext() {
	m.mu.Lock()
	if len(m.active) >= m.maxConcurrent || len(m.queue) == 0 {
		m.mu.Unlock()
		return
	}
	item := m.queue[0]
	m.queue = m.queue[1:]
	m.active[item.id] = struct{}{}
	m.mu.Unlock()

	go m.runJob(item)
}

// runJob runs one download to completion (or pause/failure), then
// frees its concurrency slot, fires the Smart Downloads hook if
// warranted, and tries to start the next queued item.
func (m *Manager) runJob(item queueItem) {
	fetcher := fetch.Select(item.streamURL)
	req := fetch.Request{
		ID: item.id, ProfileID: item.profileID, Title: item.title, StreamURL: item.streamURL,
		Quality: item.quality, PartPath: m.files.PartPath(item.profileID, item.id), FinalPath: m.files.FinalPath(item.profileID, item.id),
	}

	result, err := fetcher.Fetch(context.Background(), req, m, m.store, m.sink, m.notifier)

	m.mu.Lock()
	delete(m.active, item.id)
	m.mu.Unlock()

	if err == nil && !result.Paused && item.smartDownload {
		m.smartDownloadHook(item.id, item.autoDelete)
	}

	m.tryStartNext()
}

// smartDownloadHook is the post-completion chain for Smart Downloads:
// it looks up the next episode template and, if one applies, enqueues
// and starts it directly — bypassing the normal queue to keep a
// binge-watch chain going without waiting on a concurrency slot that
// may already be occupied by an unrelated download.
func (m *Manager) smartDownloadHook(completedID string, autoDelete bool) {
	template, err := m.store.NextEpisodeTemplate(completedID)
	if err != nil {
		logger.Log.Warn().Err(err).Str("jobID", completedID).Msg("smart download: failed to resolve next episode")
		return
	}
	if template == nil {
		return
	}

	title := template.Title
	if template.EpisodeTitle != "" {
		title = template.EpisodeTitle
	}
	logger.Log.Info().Str("title", title).Msg("smart download: queuing next episode")

	newID := store.NewJobID()
	if err := m.files.EnsureDir(template.ProfileID); err != nil {
		logger.Log.Warn().Err(err).Msg("smart download: failed to ensure directory")
		return
	}
	template.ID = newID
	template.FilePath = m.files.FinalPath(template.ProfileID, newID)
	template.AddedAt = time.Now().UnixMilli()

	if err := m.store.Insert(template); err != nil {
		logger.Log.Warn().Err(err).Msg("smart download: failed to insert next episode")
		return
	}

	if autoDelete {
		m.files.DeleteFiles(template.ProfileID, completedID)
		m.store.Delete(completedID)
	}

	item := queueItem{
		id: newID, profileID: template.ProfileID, title: title, streamURL: template.StreamURL,
		quality: template.Quality, smartDownload: true, autoDelete: template.AutoDelete,
	}
	m.mu.Lock()
	m.active[newID] = struct{}{}
	m.mu.Unlock()

	m.runJob(item)
}

// Pause marks a job paused: a running Fetcher notices on its next poll
// and stops cleanly; a queued job is taken out of the queue and won't be
// dequeued until resumed (Resume re-queues it at the front).
func (m *Manager) Pause(id string) error {
	m.mu.Lock()
	m.paused[id] = struct{}{}
	m.queue = removeQueueItem(m.queue, id)
	m.mu.Unlock()

	if err := m.store.UpdateStatus(id, store.StatusPaused); err != nil {
		return err
	}
	m.sink.Status(events.StatusEvent{ID: id, Status: events.StatusPaused})
	return nil
}

// Resume clears a job's paused flag, re-queues it at the front (so a
// paused job resumes ahead of jobs added after it), and tries to start
// it immediately.
func (m *Manager) Resume(id string) error {
	m.mu.Lock()
	delete(m.paused, id)
	m.mu.Unlock()

	job, err := m.store.Get(id)
	if err != nil {
		return err
	}
	if err := m.store.UpdateStatus(id, store.StatusQueued); err != nil {
		return err
	}

	item := queueItem{
		id: id, profileID: job.ProfileID, title: job.Title, streamURL: job.StreamURL,
		quality: job.Quality, smartDownload: job.SmartDownload, autoDelete: job.AutoDelete,
	}
	m.mu.Lock()
	m.queue = append([]queueItem{item}, m.queue...)
	m.mu.Unlock()

	m.tryStartNext()
	return nil
}

// Cancel marks a job paused (so a running Fetcher exits on its next
// poll), removes it from the queue if still pending, and transitions
// it to Cancelled.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	m.paused[id] = struct{}{}
	m.queue = removeQueueItem(m.queue, id)
	m.mu.Unlock()

	if err := m.store.UpdateStatus(id, store.StatusCancelled); err != nil {
		return err
	}
	m.sink.Status(events.StatusEvent{ID: id, Status: events.StatusCancelled})
	return nil
}

// Delete removes a job's files and its Store record. Idempotent: a
// missing job or missing files are not errors.
func (m *Manager) Delete(id string) error {
	job, err := m.store.Get(id)
	if err != nil && !apperr.IsNotFound(err) {
		return err
	}
	if job != nil {
		m.files.DeleteFiles(job.ProfileID, id)
	}

	m.mu.Lock()
	m.queue = removeQueueItem(m.queue, id)
	delete(m.paused, id)
	delete(m.active, id)
	m.mu.Unlock()

	return m.store.Delete(id)
}

// List returns a profile's jobs.
func (m *Manager) List(profileID string) ([]*store.Job, error) {
	return m.store.List(profileID)
}

// StorageStats returns a profile's completed-download byte total and count.
func (m *Manager) StorageStats(profileID string) (int64, int, error) {
	return m.store.StorageStats(profileID)
}

// GetQuota returns a profile's quota in bytes.
func (m *Manager) GetQuota(profileID string) (int64, error) {
	return m.store.GetQuota(profileID)
}

// SetQuota sets a profile's quota in bytes.
func (m *Manager) SetQuota(profileID string, bytes int64) error {
	return m.store.SetQuota(profileID, bytes)
}

// GetSmartDefaults returns a profile's Smart Downloads / auto-delete defaults.
func (m *Manager) GetSmartDefaults(profileID string) (bool, bool, error) {
	return m.store.GetSmartDefaults(profileID)
}

// SetSmartDefaults sets a profile's Smart Downloads / auto-delete defaults.
func (m *Manager) SetSmartDefaults(profileID string, smartDownload, autoDelete bool) error {
	return m.store.SetSmartDefaults(profileID, smartDownload, autoDelete)
}

// DeleteAllForProfile removes every job (and its files) for a profile.
func (m *Manager) DeleteAllForProfile(profileID string) error {
	ids, err := m.store.DeleteAll(profileID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	for _, id := range ids {
		m.queue = removeQueueItem(m.queue, id)
		delete(m.paused, id)
		delete(m.active, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.files.DeleteFiles(profileID, id)
	}
	return nil
}

// RestorePending re-queues every job left Queued or Downloading by a
// prior process, so an engine restart doesn't strand jobs in-flight at
// shutdown. A job found Downloading is demoted back to Queued first:
// nothing actually resumed writing its part file while the process was
// down.
func (m *Manager) RestorePending(profileID string) error {
	jobs, err := m.store.List(profileID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	var restored int
	for _, job := range jobs {
		if job.Status != store.StatusQueued && job.Status != store.StatusDownloading {
			continue
		}
		if job.Status == store.StatusDownloading {
			if err := m.store.UpdateStatus(job.ID, store.StatusQueued); err != nil {
				logger.Log.Warn().Err(err).Str("jobID", job.ID).Msg("failed to demote stranded job to queued")
				continue
			}
		}
		m.queue = append(m.queue, queueItem{
			id: job.ID, profileID: job.ProfileID, title: job.Title, streamURL: job.StreamURL,
			quality: job.Quality, smartDownload: job.SmartDownload, autoDelete: job.AutoDelete,
		})
		restored++
	}
	m.mu.Unlock()

	logger.Log.Info().Int("count", restored).Str("profileID", profileID).Msg("restored pending jobs")

	for i := 0; i < restored; i++ {
		m.tryStartNext()
	}
	return nil
}

func removeQueueItem(queue []queueItem, id string) []queueItem {
	out := queue[:0]
	for _, item := range queue {
		if item.id != id {
			out = append(out, item)
		}
	}
	return out
}
