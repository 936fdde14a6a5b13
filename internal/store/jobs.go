package store

import (
	"database/sql"

	"github.com/google/uuid"

	apperr "zentrio/internal/apperrors"
)

// jobColumns lists every column of the jobs table in scan order, using
// COALESCE for nullable text columns to avoid sql.NullString overhead
// on every row.
const jobColumns = `
	id, profile_id, media_type, media_id, COALESCE(episode_id,''),
	title, COALESCE(episode_title,''), season, episode, COALESCE(poster_path,''),
	status, progress, quality, file_path, file_size, downloaded_bytes,
	added_at, completed_at, last_watched_at, watched_percent,
	stream_url, COALESCE(addon_id,''), COALESCE(error_message,''),
	smart_download, auto_delete
`

// NewJobID generates a fresh job identifier.
func NewJobID() string {
	return uuid.New().String()
}

// Insert persists a new job. Fails with apperr.ErrAlreadyExists if the
// id is already in use.
func (db *DB) Insert(j *Job) error {
	var mediaType string = string(j.MediaType)

	_, err := db.conn.Exec(`
		INSERT INTO jobs (
			id, profile_id, media_type, media_id, episode_id,
			title, episode_title, season, episode, poster_path,
			status, progress, quality, file_path, file_size, downloaded_bytes,
			added_at, completed_at, last_watched_at, watched_percent,
			stream_url, addon_id, error_message, smart_download, auto_delete
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.ProfileID, mediaType, j.MediaID, nullString(j.EpisodeID),
		j.Title, nullString(j.EpisodeTitle), nullInt64Ptr(j.Season), nullInt64Ptr(j.Episode), nullString(j.PosterPath),
		string(j.Status), j.Progress, string(j.Quality), j.FilePath, j.FileSize, j.DownloadedBytes,
		j.AddedAt, nullInt64Ptr(j.CompletedAt), nullInt64Ptr(j.LastWatchedAt), j.WatchedPercent,
		j.StreamURL, nullString(j.AddonID), nullString(j.ErrorMessage), boolToInt(j.SmartDownload), boolToInt(j.AutoDelete),
	)
	if err != nil {
		return apperr.WrapWithMessage("Store.Insert", apperr.ErrAlreadyExists, err.Error())
	}
	return nil
}

// Get fetches a job by id, returning apperr.ErrNotFound if absent.
func (db *DB) Get(id string) (*Job, error) {
	row := db.conn.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, apperr.Wrap("Store.Get", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Wrap("Store.Get", err)
	}
	return j, nil
}

// List returns every job for profileID ordered by added_at descending.
func (db *DB) List(profileID string) ([]*Job, error) {
	rows, err := db.conn.Query(`SELECT `+jobColumns+` FROM jobs WHERE profile_id = ? ORDER BY added_at DESC`, profileID)
	if err != nil {
		return nil, apperr.Wrap("Store.List", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

// UpdateProgress records downloaded bytes and percentage, forcing the
// status to Downloading.
func (db *DB) UpdateProgress(id string, progress float64, bytes int64) error {
	_, err := db.conn.Exec(
		`UPDATE jobs SET progress = ?, downloaded_bytes = ?, status = ? WHERE id = ?`,
		progress, bytes, string(StatusDownloading), id,
	)
	return apperr.Wrap("Store.UpdateProgress", err)
}

// UpdateStatus sets status unconditionally.
func (db *DB) UpdateStatus(id string, status Status) error {
	_, err := db.conn.Exec(`UPDATE jobs SET status = ? WHERE id = ?`, string(status), id)
	return apperr.Wrap("Store.UpdateStatus", err)
}

// UpdateComplete marks a job Completed with its final path and size.
func (db *DB) UpdateComplete(id, path string, size int64, now int64) error {
	_, err := db.conn.Exec(
		`UPDATE jobs SET status = ?, progress = 100, file_path = ?, file_size = ?, completed_at = ? WHERE id = ?`,
		string(StatusCompleted), path, size, now, id,
	)
	return apperr.Wrap("Store.UpdateComplete", err)
}

// UpdateError marks a job Failed with the given message.
func (db *DB) UpdateError(id, msg string) error {
	_, err := db.conn.Exec(
		`UPDATE jobs SET status = ?, error_message = ? WHERE id = ?`,
		string(StatusFailed), msg, id,
	)
	return apperr.Wrap("Store.UpdateError", err)
}

// UpdateSmartFlags updates the smart_download/auto_delete flags on an
// existing job.
func (db *DB) UpdateSmartFlags(id string, smartDownload, autoDelete bool) error {
	_, err := db.conn.Exec(
		`UPDATE jobs SET smart_download = ?, auto_delete = ? WHERE id = ?`,
		boolToInt(smartDownload), boolToInt(autoDelete), id,
	)
	return apperr.Wrap("Store.UpdateSmartFlags", err)
}

// Delete removes a job row. Deleting an id that doesn't exist is a
// no-op, making repeated calls idempotent.
func (db *DB) Delete(id string) error {
	_, err := db.conn.Exec(`DELETE FROM jobs WHERE id = ?`, id)
	return apperr.Wrap("Store.Delete", err)
}

// DeleteAll removes every job for profileID and returns the deleted
// ids so the caller can clean up on-disk artifacts.
func (db *DB) DeleteAll(profileID string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT id FROM jobs WHERE profile_id = ?`, profileID)
	if err != nil {
		return nil, apperr.Wrap("Store.DeleteAll", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, apperr.Wrap("Store.DeleteAll", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap("Store.DeleteAll", err)
	}

	if _, err := db.conn.Exec(`DELETE FROM jobs WHERE profile_id = ?`, profileID); err != nil {
		return nil, apperr.Wrap("Store.DeleteAll", err)
	}

	return ids, nil
}

// StorageStats sums file_size and counts rows with status Completed
// for profileID.
func (db *DB) StorageStats(profileID string) (totalBytes int64, count int, err error) {
	row := db.conn.QueryRow(
		`SELECT COALESCE(SUM(file_size),0), COUNT(*) FROM jobs WHERE profile_id = ? AND status = ?`,
		profileID, string(StatusCompleted),
	)
	if scanErr := row.Scan(&totalBytes, &count); scanErr != nil {
		return 0, 0, apperr.Wrap("Store.StorageStats", scanErr)
	}
	return totalBytes, count, nil
}

// DistinctProfileIDs returns every profile id that has at least one
// job row, so a restarting engine can restore pending jobs across all
// profiles without the caller tracking profile identity itself.
func (db *DB) DistinctProfileIDs() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT profile_id FROM jobs`)
	if err != nil {
		return nil, apperr.Wrap("Store.DistinctProfileIDs", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Wrap("Store.DistinctProfileIDs", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ExistsActiveEpisode reports whether a non-cancelled job already
// exists for (profileID, mediaID, season, episode) — invariant §3.4.
func (db *DB) ExistsActiveEpisode(profileID, mediaID string, season, episode int64) (bool, error) {
	var count int
	row := db.conn.QueryRow(
		`SELECT COUNT(*) FROM jobs WHERE profile_id = ? AND media_id = ? AND season = ? AND episode = ? AND status != ?`,
		profileID, mediaID, season, episode, string(StatusCancelled),
	)
	if err := row.Scan(&count); err != nil {
		return false, apperr.Wrap("Store.ExistsActiveEpisode", err)
	}
	return count > 0, nil
}

func scanJob(row *sql.Row) (*Job, error) {
	j := &Job{}
	var mediaType, status, quality string
	var season, episode, completedAt, lastWatchedAt sql.NullInt64
	var smartDownload, autoDelete int

	err := row.Scan(
		&j.ID, &j.ProfileID, &mediaType, &j.MediaID, &j.EpisodeID,
		&j.Title, &j.EpisodeTitle, &season, &episode, &j.PosterPath,
		&status, &j.Progress, &quality, &j.FilePath, &j.FileSize, &j.DownloadedBytes,
		&j.AddedAt, &completedAt, &lastWatchedAt, &j.WatchedPercent,
		&j.StreamURL, &j.AddonID, &j.ErrorMessage, &smartDownload, &autoDelete,
	)
	if err != nil {
		return nil, err
	}

	j.MediaType = MediaType(mediaType)
	j.Status = parseStatus(status)
	j.Quality = parseQuality(quality)
	j.SmartDownload = smartDownload != 0
	j.AutoDelete = autoDelete != 0
	if season.Valid {
		v := season.Int64
		j.Season = &v
	}
	if episode.Valid {
		v := episode.Int64
		j.Episode = &v
	}
	if completedAt.Valid {
		v := completedAt.Int64
		j.CompletedAt = &v
	}
	if lastWatchedAt.Valid {
		v := lastWatchedAt.Int64
		j.LastWatchedAt = &v
	}

	return j, nil
}

func scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		j := &Job{}
		var mediaType, status, quality string
		var season, episode, completedAt, lastWatchedAt sql.NullInt64
		var smartDownload, autoDelete int

		err := rows.Scan(
			&j.ID, &j.ProfileID, &mediaType, &j.MediaID, &j.EpisodeID,
			&j.Title, &j.EpisodeTitle, &season, &episode, &j.PosterPath,
			&status, &j.Progress, &quality, &j.FilePath, &j.FileSize, &j.DownloadedBytes,
			&j.AddedAt, &completedAt, &lastWatchedAt, &j.WatchedPercent,
			&j.StreamURL, &j.AddonID, &j.ErrorMessage, &smartDownload, &autoDelete,
		)
		if err != nil {
			return nil, err
		}

		j.MediaType = MediaType(mediaType)
		j.Status = parseStatus(status)
		j.Quality = parseQuality(quality)
		j.SmartDownload = smartDownload != 0
		j.AutoDelete = autoDelete != 0
		if season.Valid {
			v := season.Int64
			j.Season = &v
		}
		if episode.Valid {
			v := episode.Int64
			j.Episode = &v
		}
		if completedAt.Valid {
			v := completedAt.Int64
			j.CompletedAt = &v
		}
		if lastWatchedAt.Valid {
			v := lastWatchedAt.Int64
			j.LastWatchedAt = &v
		}

		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullInt64Ptr(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
