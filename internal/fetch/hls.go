package fetch

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/natefinch/atomic"

	apperr "zentrio/internal/apperrors"
	"zentrio/internal/events"
	"zentrio/internal/logger"
	"zentrio/internal/store"
)

// segmentMaxRetries bounds retries on a single segment fetch before the
// job fails.
const segmentMaxRetries = 3

// segmentRetryBackoff is the linear backoff unit: attempt N waits
// N*segmentRetryBackoff before retrying.
const segmentRetryBackoff = 500 * time.Millisecond

// HLSFetcher resolves an HLS playlist (master or media) to a sequential
// segment list and streams the segments into a part file, concatenated
// in order.
type HLSFetcher struct {
	client *http.Client
}

// NewHLSFetcher creates an HLS fetcher with a fresh per-job HTTP client.
func NewHLSFetcher() *HLSFetcher {
	return &HLSFetcher{client: newHTTPClient()}
}

func (f *HLSFetcher) Fetch(ctx context.Context, req Request, paused PausedSet, st ProgressStore, sink events.Sink, notif Notifier) (Result, error) {
	segments, err := f.resolveSegments(ctx, req.StreamURL, req.Quality)
	if err != nil {
		return f.fail(req, st, sink, notif, err)
	}
	if len(segments) == 0 {
		return f.fail(req, st, sink, notif, apperr.Wrap("HLSFetcher.Fetch", apperr.ErrEmptyPlaylist))
	}

	partFile, err := os.OpenFile(req.PartPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return f.fail(req, st, sink, notif, err)
	}
	defer partFile.Close()

	tracker := newProgressTracker(req.ID, req.Title, 0, st, sink, notif)
	total := len(segments)
	var downloaded int64

	for i, segURL := range segments {
		if paused.IsPaused(req.ID) {
			partFile.Sync()
			finalStatusPaused(req.ID, st, sink)
			return Result{Paused: true}, nil
		}

		data, err := f.fetchSegmentWithRetry(ctx, segURL)
		if err != nil {
			return f.fail(req, st, sink, notif, err)
		}

		if _, err := partFile.Write(data); err != nil {
			return f.fail(req, st, sink, notif, err)
		}
		downloaded += int64(len(data))
		tracker.updateSegments(i+1, total, downloaded)
	}

	if err := partFile.Sync(); err != nil {
		return f.fail(req, st, sink, notif, err)
	}
	partFile.Close()

	if err := atomic.ReplaceFile(req.PartPath, req.FinalPath); err != nil {
		return f.fail(req, st, sink, notif, apperr.Wrap("HLSFetcher.Fetch", apperr.ErrFilesystem))
	}

	size := fileSize(req.FinalPath)
	finalStatusCompleted(req.ID, req.FinalPath, size, req.Title, st, sink, notif)

	return Result{FileSize: size}, nil
}

// resolveSegments fetches playlistURL and returns the ordered list of
// absolute segment URLs. A master playlist is resolved one level down
// via the variant chosen for quality; a nested master at that point is
// rejected.
func (f *HLSFetcher) resolveSegments(ctx context.Context, playlistURL string, quality store.Quality) ([]string, error) {
	body, err := f.fetchBytes(ctx, playlistURL)
	if err != nil {
		return nil, apperr.WrapWithMessage("HLSFetcher.resolveSegments", apperr.ErrTransport, err.Error())
	}

	parsed := parseM3U8(string(body))

	if !parsed.isMaster() {
		if len(parsed.Segments) == 0 {
			return nil, apperr.Wrap("HLSFetcher.resolveSegments", apperr.ErrParse)
		}
		return resolveAll(parsed.Segments, playlistURL), nil
	}

	variant, err := pickVariant(parsed.Variants, quality)
	if err != nil {
		return nil, err
	}
	variantURL := resolveURL(playlistURL, variant.URI)

	mediaBody, err := f.fetchBytes(ctx, variantURL)
	if err != nil {
		return nil, apperr.WrapWithMessage("HLSFetcher.resolveSegments", apperr.ErrTransport, err.Error())
	}
	media := parseM3U8(string(mediaBody))
	if media.isMaster() {
		return nil, apperr.Wrap("HLSFetcher.resolveSegments", apperr.ErrNestedMaster)
	}
	return resolveAll(media.Segments, variantURL), nil
}

func resolveAll(segments []string, baseURL string) []string {
	resolved := make([]string, len(segments))
	for i, seg := range segments {
		resolved[i] = resolveURL(baseURL, seg)
	}
	return resolved
}

func (f *HLSFetcher) fetchSegmentWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= segmentMaxRetries; attempt++ {
		data, err := f.fetchBytes(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if attempt == segmentMaxRetries {
			break
		}
		logger.Log.Warn().Str("url", url).Int("attempt", attempt+1).Err(err).Msg("segment fetch failed, retrying")
		time.Sleep(time.Duration(attempt+1) * segmentRetryBackoff)
	}
	return nil, apperr.WrapWithMessage("HLSFetcher.fetchSegmentWithRetry", apperr.ErrTransport, lastErr.Error())
}

func (f *HLSFetcher) fetchBytes(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, apperr.NewWithMessage("HLSFetcher.fetchBytes", apperr.ErrTransport, "unexpected status")
	}
	return io.ReadAll(resp.Body)
}

func (f *HLSFetcher) fail(req Request, st ProgressStore, sink events.Sink, notif Notifier, err error) (Result, error) {
	wrapped := apperr.WrapWithMessage("HLSFetcher.Fetch", apperr.ErrTransport, err.Error())
	finalStatusFailed(req.ID, err.Error(), req.Title, st, sink, notif)
	return Result{}, wrapped
}
