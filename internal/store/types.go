package store

// Status is a job's position in the state machine (§4.5 of the engine
// design: Queued → Downloading → {Paused→Queued, Completed, Failed,
// Cancelled}).
type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusPaused      Status = "paused"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// parseStatus maps a stored string back to a Status. An unrecognized
// value maps to Cancelled rather than erroring, matching the original
// engine's defensive fallback for rows written by an older schema.
func parseStatus(s string) Status {
	switch Status(s) {
	case StatusQueued, StatusDownloading, StatusPaused, StatusCompleted, StatusFailed, StatusCancelled:
		return Status(s)
	default:
		return StatusCancelled
	}
}

// Quality is the HLS variant preference for a job.
type Quality string

const (
	QualityStandard Quality = "standard"
	QualityHigher   Quality = "higher"
	QualityBest     Quality = "best"
)

func (q Quality) String() string {
	return string(q)
}

// parseQuality maps a stored string back to a Quality, defaulting to
// Standard for anything unrecognized.
func parseQuality(s string) Quality {
	switch Quality(s) {
	case QualityStandard, QualityHigher, QualityBest:
		return Quality(s)
	default:
		return QualityStandard
	}
}

// MediaType distinguishes a one-off movie download from a series
// episode; only series jobs are eligible for chaining.
type MediaType string

const (
	MediaMovie  MediaType = "movie"
	MediaSeries MediaType = "series"
)

// Job is one download task and its persistent record. JSON tags use
// camelCase to match the /ws/events wire convention, since the same
// struct is serialized directly by the HTTP facade's list endpoint.
type Job struct {
	ID              string    `json:"id"`
	ProfileID       string    `json:"profileId"`
	MediaType       MediaType `json:"mediaType"`
	MediaID         string    `json:"mediaId"`
	EpisodeID       string    `json:"episodeId,omitempty"`
	Title           string    `json:"title"`
	EpisodeTitle    string    `json:"episodeTitle,omitempty"`
	Season          *int64    `json:"season,omitempty"`
	Episode         *int64    `json:"episode,omitempty"`
	PosterPath      string    `json:"posterPath,omitempty"`
	Status          Status    `json:"status"`
	Progress        float64   `json:"progress"`
	Quality         Quality   `json:"quality"`
	FilePath        string    `json:"filePath,omitempty"`
	FileSize        int64     `json:"fileSize"`
	DownloadedBytes int64     `json:"downloadedBytes"`
	AddedAt         int64     `json:"addedAt"`
	CompletedAt     *int64    `json:"completedAt,omitempty"`
	LastWatchedAt   *int64    `json:"lastWatchedAt,omitempty"`
	WatchedPercent  float64   `json:"watchedPercent"`
	StreamURL       string    `json:"streamUrl"`
	AddonID         string    `json:"addonId,omitempty"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
	SmartDownload   bool      `json:"smartDownload"`
	AutoDelete      bool      `json:"autoDelete"`
}

// ProfileSettings holds per-profile defaults and quota.
type ProfileSettings struct {
	ProfileID            string `json:"profileId"`
	QuotaBytes           int64  `json:"quotaBytes"`
	SmartDownloadDefault bool   `json:"smartDownloadDefault"`
	AutoDeleteDefault    bool   `json:"autoDeleteDefault"`
}
