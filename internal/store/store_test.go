package store

import (
	"testing"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newTestJob(profileID, mediaID string) *Job {
	return &Job{
		ID:        NewJobID(),
		ProfileID: profileID,
		MediaType: MediaMovie,
		MediaID:   mediaID,
		Title:     "Test Movie",
		Status:    StatusQueued,
		Quality:   QualityBest,
		StreamURL: "http://host/a.mp4",
		AddedAt:   1000,
	}
}

func newTestEpisode(profileID, mediaID string, season, episode int64) *Job {
	j := newTestJob(profileID, mediaID)
	j.MediaType = MediaSeries
	j.Season = &season
	j.Episode = &episode
	return j
}

func TestNew_CreatesDatabaseAndMigrates(t *testing.T) {
	db := setupTestDB(t)

	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM jobs").Scan(&count); err != nil {
		t.Fatalf("jobs table should exist: %v", err)
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM profile_settings").Scan(&count); err != nil {
		t.Fatalf("profile_settings table should exist: %v", err)
	}
}

func TestNew_SetsWALMode(t *testing.T) {
	db := setupTestDB(t)

	var journalMode string
	if err := db.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("failed to query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %q, want %q", journalMode, "wal")
	}
}

func TestInsertAndGet_RoundTrip(t *testing.T) {
	db := setupTestDB(t)

	j := newTestJob("p1", "m1")
	if err := db.Insert(j); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	found, err := db.Get(j.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if found.ProfileID != j.ProfileID || found.MediaID != j.MediaID || found.Title != j.Title {
		t.Errorf("round-trip mismatch: got %+v, want %+v", found, j)
	}
	if found.Status != StatusQueued {
		t.Errorf("Status = %q, want %q", found.Status, StatusQueued)
	}
}

func TestInsert_RejectsDuplicateID(t *testing.T) {
	db := setupTestDB(t)

	j1 := newTestJob("p1", "m1")
	if err := db.Insert(j1); err != nil {
		t.Fatalf("first Insert() should succeed: %v", err)
	}

	j2 := newTestJob("p1", "m2")
	j2.ID = j1.ID
	if err := db.Insert(j2); err == nil {
		t.Error("expected error inserting duplicate id")
	}
}

func TestGet_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.Get("does-not-exist")
	if err == nil {
		t.Error("expected error for missing id")
	}
}

func TestList_OrderedByAddedAtDescending(t *testing.T) {
	db := setupTestDB(t)

	j1 := newTestJob("p1", "m1")
	j1.AddedAt = 100
	j2 := newTestJob("p1", "m2")
	j2.AddedAt = 300
	j3 := newTestJob("p1", "m3")
	j3.AddedAt = 200

	for _, j := range []*Job{j1, j2, j3} {
		if err := db.Insert(j); err != nil {
			t.Fatal(err)
		}
	}

	list, err := db.List("p1")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List() returned %d items, want 3", len(list))
	}
	if list[0].ID != j2.ID || list[1].ID != j3.ID || list[2].ID != j1.ID {
		t.Error("List() not ordered by added_at descending")
	}
}

func TestUpdateProgress_ForcesDownloading(t *testing.T) {
	db := setupTestDB(t)
	j := newTestJob("p1", "m1")
	db.Insert(j)

	if err := db.UpdateProgress(j.ID, 42.5, 1000); err != nil {
		t.Fatalf("UpdateProgress() error: %v", err)
	}

	found, _ := db.Get(j.ID)
	if found.Status != StatusDownloading {
		t.Errorf("Status = %q, want %q", found.Status, StatusDownloading)
	}
	if found.Progress != 42.5 {
		t.Errorf("Progress = %v, want 42.5", found.Progress)
	}
	if found.DownloadedBytes != 1000 {
		t.Errorf("DownloadedBytes = %d, want 1000", found.DownloadedBytes)
	}
}

func TestUpdateComplete(t *testing.T) {
	db := setupTestDB(t)
	j := newTestJob("p1", "m1")
	db.Insert(j)

	if err := db.UpdateComplete(j.ID, "/tmp/a.mp4", 2048, 999999); err != nil {
		t.Fatalf("UpdateComplete() error: %v", err)
	}

	found, _ := db.Get(j.ID)
	if found.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", found.Status)
	}
	if found.Progress != 100 {
		t.Errorf("Progress = %v, want 100", found.Progress)
	}
	if found.FilePath != "/tmp/a.mp4" || found.FileSize != 2048 {
		t.Error("file_path/file_size not set correctly")
	}
	if found.CompletedAt == nil || *found.CompletedAt != 999999 {
		t.Error("completed_at not set correctly")
	}
}

func TestUpdateError(t *testing.T) {
	db := setupTestDB(t)
	j := newTestJob("p1", "m1")
	db.Insert(j)

	if err := db.UpdateError(j.ID, "connection reset"); err != nil {
		t.Fatalf("UpdateError() error: %v", err)
	}

	found, _ := db.Get(j.ID)
	if found.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", found.Status)
	}
	if found.ErrorMessage != "connection reset" {
		t.Errorf("ErrorMessage = %q, want %q", found.ErrorMessage, "connection reset")
	}
}

func TestDelete_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	j := newTestJob("p1", "m1")
	db.Insert(j)

	if err := db.Delete(j.ID); err != nil {
		t.Fatalf("first Delete() error: %v", err)
	}
	if err := db.Delete(j.ID); err != nil {
		t.Fatalf("second Delete() should be a no-op, got error: %v", err)
	}

	if _, err := db.Get(j.ID); err == nil {
		t.Error("expected job to be gone")
	}
}

func TestDeleteAll_ReturnsIDs(t *testing.T) {
	db := setupTestDB(t)
	j1 := newTestJob("p1", "m1")
	j2 := newTestJob("p1", "m2")
	other := newTestJob("p2", "m3")
	for _, j := range []*Job{j1, j2, other} {
		db.Insert(j)
	}

	ids, err := db.DeleteAll("p1")
	if err != nil {
		t.Fatalf("DeleteAll() error: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("DeleteAll() returned %d ids, want 2", len(ids))
	}

	list, _ := db.List("p1")
	if len(list) != 0 {
		t.Error("profile p1 should have no jobs left")
	}
	otherList, _ := db.List("p2")
	if len(otherList) != 1 {
		t.Error("profile p2 jobs should be untouched")
	}
}

func TestStorageStats_OnlyCompletedCount(t *testing.T) {
	db := setupTestDB(t)

	j1 := newTestJob("p1", "m1")
	db.Insert(j1)
	db.UpdateComplete(j1.ID, "/tmp/a.mp4", 1000, 1)

	j2 := newTestJob("p1", "m2")
	db.Insert(j2) // stays queued

	totalBytes, count, err := db.StorageStats("p1")
	if err != nil {
		t.Fatalf("StorageStats() error: %v", err)
	}
	if totalBytes != 1000 || count != 1 {
		t.Errorf("StorageStats() = (%d, %d), want (1000, 1)", totalBytes, count)
	}
}

func TestQuota_DefaultsToZeroThenUpserts(t *testing.T) {
	db := setupTestDB(t)

	quota, err := db.GetQuota("p1")
	if err != nil {
		t.Fatalf("GetQuota() error: %v", err)
	}
	if quota != 0 {
		t.Errorf("GetQuota() default = %d, want 0", quota)
	}

	if err := db.SetQuota("p1", 500); err != nil {
		t.Fatalf("SetQuota() error: %v", err)
	}
	quota, _ = db.GetQuota("p1")
	if quota != 500 {
		t.Errorf("GetQuota() = %d, want 500", quota)
	}

	// Upsert again should update, not duplicate/fail.
	if err := db.SetQuota("p1", 900); err != nil {
		t.Fatalf("SetQuota() second call error: %v", err)
	}
	quota, _ = db.GetQuota("p1")
	if quota != 900 {
		t.Errorf("GetQuota() after update = %d, want 900", quota)
	}
}

func TestSmartDefaults_Upsert(t *testing.T) {
	db := setupTestDB(t)

	smart, auto, err := db.GetSmartDefaults("p1")
	if err != nil {
		t.Fatalf("GetSmartDefaults() error: %v", err)
	}
	if smart || auto {
		t.Error("defaults should start false")
	}

	if err := db.SetSmartDefaults("p1", true, true); err != nil {
		t.Fatalf("SetSmartDefaults() error: %v", err)
	}
	smart, auto, _ = db.GetSmartDefaults("p1")
	if !smart || !auto {
		t.Error("SetSmartDefaults() did not persist")
	}
}

func TestExistsActiveEpisode(t *testing.T) {
	db := setupTestDB(t)

	exists, err := db.ExistsActiveEpisode("p1", "m1", 1, 3)
	if err != nil {
		t.Fatalf("ExistsActiveEpisode() error: %v", err)
	}
	if exists {
		t.Error("should not exist yet")
	}

	ep := newTestEpisode("p1", "m1", 1, 3)
	db.Insert(ep)

	exists, _ = db.ExistsActiveEpisode("p1", "m1", 1, 3)
	if !exists {
		t.Error("should exist after insert")
	}

	db.UpdateStatus(ep.ID, StatusCancelled)
	exists, _ = db.ExistsActiveEpisode("p1", "m1", 1, 3)
	if exists {
		t.Error("cancelled job should not count as active")
	}
}

func TestNextEpisodeTemplate_MovieReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	j := newTestJob("p1", "m1")
	db.Insert(j)
	db.UpdateComplete(j.ID, "/tmp/a.mp4", 100, 1)

	tmpl, err := db.NextEpisodeTemplate(j.ID)
	if err != nil {
		t.Fatalf("NextEpisodeTemplate() error: %v", err)
	}
	if tmpl != nil {
		t.Error("movies should never produce a chaining template")
	}
}

func TestNextEpisodeTemplate_SeriesProducesTemplate(t *testing.T) {
	db := setupTestDB(t)
	ep := newTestEpisode("p1", "m1", 1, 3)
	ep.SmartDownload = true
	ep.AutoDelete = true
	ep.PosterPath = "poster.jpg"
	ep.AddonID = "addon-x"
	db.Insert(ep)
	db.UpdateComplete(ep.ID, "/tmp/s1e3.mp4", 100, 1)

	tmpl, err := db.NextEpisodeTemplate(ep.ID)
	if err != nil {
		t.Fatalf("NextEpisodeTemplate() error: %v", err)
	}
	if tmpl == nil {
		t.Fatal("expected a chaining template")
	}
	if tmpl.Season == nil || *tmpl.Season != 1 || tmpl.Episode == nil || *tmpl.Episode != 4 {
		t.Error("expected season 1, episode 4")
	}
	if tmpl.EpisodeTitle != "S1:E4" {
		t.Errorf("EpisodeTitle = %q, want %q", tmpl.EpisodeTitle, "S1:E4")
	}
	if !tmpl.SmartDownload {
		t.Error("template should have smart_download = true")
	}
	if !tmpl.AutoDelete {
		t.Error("auto_delete should be inherited from predecessor")
	}
	if tmpl.PosterPath != "poster.jpg" || tmpl.AddonID != "addon-x" {
		t.Error("poster_path/addon_id should be inherited from predecessor")
	}
}

func TestNextEpisodeTemplate_AlreadyExistsReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	ep := newTestEpisode("p1", "m1", 1, 3)
	db.Insert(ep)
	db.UpdateComplete(ep.ID, "/tmp/s1e3.mp4", 100, 1)

	next := newTestEpisode("p1", "m1", 1, 4)
	db.Insert(next)

	tmpl, err := db.NextEpisodeTemplate(ep.ID)
	if err != nil {
		t.Fatalf("NextEpisodeTemplate() error: %v", err)
	}
	if tmpl != nil {
		t.Error("should not produce a template when the successor already exists")
	}
}
