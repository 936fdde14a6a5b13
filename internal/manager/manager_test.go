package manager

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"zentrio/internal/events"
	"zentrio/internal/filestore"
	"zentrio/internal/notifier"
	"zentrio/internal/store"
)

func newTestManager(t *testing.T, maxConcurrent int) (*Manager, *store.DB) {
	t.Helper()
	dir := t.TempDir()

	db, err := store.New(dir)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	files := filestore.New(dir)
	bus := events.NewBus()
	notif := notifier.New("")

	return New(db, files, bus, notif, maxConcurrent), db
}

func waitForStatus(t *testing.T, db *store.DB, id string, want store.Status, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		job, err := db.Get(id)
		if err == nil && job.Status == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for job %s to reach status %s", id, want)
}

func TestEnqueue_StartsImmediatelyUnderCapacity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "5")
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	m, db := newTestManager(t, 2)

	id, err := m.Enqueue(EnqueueRequest{
		ProfileID: "p1", MediaType: store.MediaMovie, MediaID: "m1", Title: "Movie",
		StreamURL: srv.URL, Quality: store.QualityBest,
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	waitForStatus(t, db, id, store.StatusCompleted, 2*time.Second)
}

func TestEnqueue_DuplicateActiveEpisodeRejected(t *testing.T) {
	m, _ := newTestManager(t, 0)
	season, ep := int64(1), int64(1)

	req := EnqueueRequest{
		ProfileID: "p1", MediaType: store.MediaSeries, MediaID: "show1", Title: "Show",
		Season: &season, Episode: &ep, StreamURL: "http://host/a.mp4", Quality: store.QualityBest,
	}

	if _, err := m.Enqueue(req); err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	if _, err := m.Enqueue(req); err == nil {
		t.Fatal("expected second Enqueue for same episode to fail")
	}
}

func TestPauseThenCancel(t *testing.T) {
	m, db := newTestManager(t, 0) // maxConcurrent 0 invalid -> becomes 1, but we won't let it start
	m.maxConcurrent = 0           // force nothing to auto-start so the job stays queued

	id, err := m.Enqueue(EnqueueRequest{
		ProfileID: "p1", MediaType: store.MediaMovie, MediaID: "m1", Title: "Movie",
		StreamURL: "http://host/a.mp4", Quality: store.QualityBest,
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if err := m.Pause(id); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	job, _ := db.Get(id)
	if job.Status != store.StatusPaused {
		t.Errorf("expected paused status, got %v", job.Status)
	}

	if err := m.Cancel(id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	job, _ = db.Get(id)
	if job.Status != store.StatusCancelled {
		t.Errorf("expected cancelled status, got %v", job.Status)
	}
}

func TestDelete_RemovesRecordIdempotently(t *testing.T) {
	m, db := newTestManager(t, 0)
	m.maxConcurrent = 0

	id, err := m.Enqueue(EnqueueRequest{
		ProfileID: "p1", MediaType: store.MediaMovie, MediaID: "m1", Title: "Movie",
		StreamURL: "http://host/a.mp4", Quality: store.QualityBest,
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if err := m.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Get(id); err == nil {
		t.Fatal("expected job to be gone after delete")
	}
	// Deleting again must not error.
	if err := m.Delete(id); err != nil {
		t.Fatalf("second Delete should be idempotent, got: %v", err)
	}
}

func TestMaxConcurrentEnforced(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "2")
		flusher, _ := w.(http.Flusher)
		w.Write([]byte("a"))
		if flusher != nil {
			flusher.Flush()
		}
		<-release
	}))
	defer srv.Close()
	defer close(release)

	m, db := newTestManager(t, 1)

	id1, err := m.Enqueue(EnqueueRequest{ProfileID: "p1", MediaType: store.MediaMovie, MediaID: "m1", Title: "A", StreamURL: srv.URL, Quality: store.QualityBest})
	if err != nil {
		t.Fatalf("Enqueue 1: %v", err)
	}
	id2, err := m.Enqueue(EnqueueRequest{ProfileID: "p1", MediaType: store.MediaMovie, MediaID: "m2", Title: "B", StreamURL: srv.URL, Quality: store.QualityBest})
	if err != nil {
		t.Fatalf("Enqueue 2: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	job1, _ := db.Get(id1)
	job2, _ := db.Get(id2)
	if job1.Status != store.StatusDownloading {
		t.Errorf("expected job1 downloading, got %v", job1.Status)
	}
	if job2.Status != store.StatusQueued {
		t.Errorf("expected job2 to remain queued under capacity 1, got %v", job2.Status)
	}
}
