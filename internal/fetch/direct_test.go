package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zentrio/internal/store"
)

func TestDirectFetcher_CompletesSmallFile(t *testing.T) {
	body := "hello world, this is a small file"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "33")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	dir := t.TempDir()
	req := Request{
		ID: "job-1", Title: "Test", StreamURL: srv.URL,
		PartPath: filepath.Join(dir, "job-1.part"), FinalPath: filepath.Join(dir, "job-1.mp4"),
	}

	st := &fakeStore{}
	sink := &fakeSink{}
	f := NewDirectFetcher()

	res, err := f.Fetch(context.Background(), req, newFakePaused(), st, sink, fakeNotifier{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.FileSize != int64(len(body)) {
		t.Errorf("expected FileSize %d, got %d", len(body), res.FileSize)
	}

	got, err := os.ReadFile(req.FinalPath)
	if err != nil {
		t.Fatalf("reading final file: %v", err)
	}
	if string(got) != body {
		t.Errorf("expected final file contents %q, got %q", body, got)
	}
	if st.status != store.StatusCompleted {
		t.Errorf("expected status completed, got %v", st.status)
	}
}

func TestDirectFetcher_PauseEmitsRangeResume(t *testing.T) {
	full := strings.Repeat("x", 200*1024)
	var sawRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rangeHeader := r.Header.Get("Range")
		if rangeHeader == "" {
			w.Header().Set("Content-Length", "204800")
			w.Write([]byte(full))
			return
		}
		sawRange = rangeHeader
		w.Header().Set("Content-Length", "1")
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	partPath := filepath.Join(dir, "job-2.part")
	// Pre-seed a partial part file to simulate a prior run.
	if err := os.WriteFile(partPath, []byte(strings.Repeat("x", 1024)), 0644); err != nil {
		t.Fatal(err)
	}

	req := Request{ID: "job-2", Title: "Test", StreamURL: srv.URL, PartPath: partPath, FinalPath: filepath.Join(dir, "job-2.mp4")}

	st := &fakeStore{}
	sink := &fakeSink{}
	f := NewDirectFetcher()

	if _, err := f.Fetch(context.Background(), req, newFakePaused(), st, sink, fakeNotifier{}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if sawRange != "bytes=1024-" {
		t.Errorf("expected Range header bytes=1024-, got %q", sawRange)
	}
}

func TestDirectFetcher_PausedDuringTransferStopsCleanly(t *testing.T) {
	big := strings.Repeat("y", 5*directChunkSize)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < len(big); i += directChunkSize {
			end := i + directChunkSize
			if end > len(big) {
				end = len(big)
			}
			w.Write([]byte(big[i:end]))
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	req := Request{ID: "job-3", Title: "Test", StreamURL: srv.URL, PartPath: filepath.Join(dir, "job-3.part"), FinalPath: filepath.Join(dir, "job-3.mp4")}

	paused := newFakePaused()
	paused.Pause("job-3")

	st := &fakeStore{}
	sink := &fakeSink{}
	f := NewDirectFetcher()

	res, err := f.Fetch(context.Background(), req, paused, st, sink, fakeNotifier{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !res.Paused {
		t.Error("expected Result.Paused to be true")
	}
	if st.status != store.StatusPaused {
		t.Errorf("expected status paused, got %v", st.status)
	}
	if _, err := os.Stat(req.FinalPath); err == nil {
		t.Error("final file should not exist when paused")
	}
}
