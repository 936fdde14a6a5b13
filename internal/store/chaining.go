package store

import "fmt"

// NextEpisodeTemplate returns an unsaved Job template for the episode
// following completedID, or nil if chaining does not apply: the
// completed job must be a series episode with both season and episode
// set, and no non-cancelled job may already exist for the successor's
// (profile_id, media_id, season, episode).
//
// The template copies every inheritable field from the predecessor —
// poster_path, addon_id, quality, and auto_delete included, not only
// the fields the chaining policy prose calls out — so the caller only
// has to fill in a fresh id and added_at before inserting it.
func (db *DB) NextEpisodeTemplate(completedID string) (*Job, error) {
	rec, err := db.Get(completedID)
	if err != nil {
		return nil, err
	}

	if rec.MediaType != MediaSeries || rec.Season == nil || rec.Episode == nil {
		return nil, nil
	}

	nextEpisode := *rec.Episode + 1

	exists, err := db.ExistsActiveEpisode(rec.ProfileID, rec.MediaID, *rec.Season, nextEpisode)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	season := *rec.Season
	template := &Job{
		ID:            "",
		ProfileID:     rec.ProfileID,
		MediaType:     rec.MediaType,
		MediaID:       rec.MediaID,
		EpisodeID:     "",
		Title:         rec.Title,
		EpisodeTitle:  fmt.Sprintf("S%d:E%d", season, nextEpisode),
		Season:        &season,
		Episode:       &nextEpisode,
		PosterPath:    rec.PosterPath,
		Status:        StatusQueued,
		Progress:      0,
		Quality:       rec.Quality,
		FilePath:      "",
		FileSize:      0,
		DownloadedBytes: 0,
		AddedAt:       0,
		StreamURL:     rec.StreamURL,
		AddonID:       rec.AddonID,
		SmartDownload: true,
		AutoDelete:    rec.AutoDelete,
	}

	return template, nil
}
