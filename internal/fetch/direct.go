package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/natefinch/atomic"

	apperr "zentrio/internal/apperrors"
	"zentrio/internal/events"
)

// directChunkSize bounds a single read from the response body between
// pause checks.
const directChunkSize = 64 * 1024

// DirectFetcher streams a plain HTTP response into a part file,
// resuming via Range when a partial part file already exists.
type DirectFetcher struct {
	client *http.Client
}

// NewDirectFetcher creates a Direct fetcher with a fresh per-job HTTP
// client.
func NewDirectFetcher() *DirectFetcher {
	return &DirectFetcher{client: newHTTPClient()}
}

func (f *DirectFetcher) Fetch(ctx context.Context, req Request, paused PausedSet, st ProgressStore, sink events.Sink, notif Notifier) (Result, error) {
	offset := fileSize(req.PartPath)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.StreamURL, nil)
	if err != nil {
		return f.fail(req, st, sink, notif, err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	if offset > 0 {
		httpReq.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return f.fail(req, st, sink, notif, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return f.fail(req, st, sink, notif, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var totalSize int64
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, convErr := strconv.ParseInt(cl, 10, 64); convErr == nil {
			totalSize = n + offset
		}
	}

	partFile, err := os.OpenFile(req.PartPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return f.fail(req, st, sink, notif, err)
	}
	defer partFile.Close()

	tracker := newProgressTracker(req.ID, req.Title, totalSize, st, sink, notif)
	downloaded := offset
	buf := make([]byte, directChunkSize)

	for {
		if paused.IsPaused(req.ID) {
			partFile.Sync()
			finalStatusPaused(req.ID, st, sink)
			return Result{Paused: true}, nil
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := partFile.Write(buf[:n]); writeErr != nil {
				return f.fail(req, st, sink, notif, writeErr)
			}
			downloaded += int64(n)
			tracker.update(downloaded)
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return f.fail(req, st, sink, notif, readErr)
		}
	}

	if err := partFile.Sync(); err != nil {
		return f.fail(req, st, sink, notif, err)
	}
	partFile.Close()

	if err := atomic.ReplaceFile(req.PartPath, req.FinalPath); err != nil {
		return f.fail(req, st, sink, notif, apperr.Wrap("DirectFetcher.Fetch", apperr.ErrFilesystem))
	}

	size := fileSize(req.FinalPath)
	finalStatusCompleted(req.ID, req.FinalPath, size, req.Title, st, sink, notif)

	return Result{FileSize: size}, nil
}

func (f *DirectFetcher) fail(req Request, st ProgressStore, sink events.Sink, notif Notifier, err error) (Result, error) {
	wrapped := apperr.WrapWithMessage("DirectFetcher.Fetch", apperr.ErrTransport, err.Error())
	finalStatusFailed(req.ID, err.Error(), req.Title, st, sink, notif)
	return Result{}, wrapped
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
