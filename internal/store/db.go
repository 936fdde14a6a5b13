// Package store is the Download Engine's durable job store: a SQLite
// database mapping job id to job record, plus per-profile settings and
// the queries the Manager's scheduler and smart-download hook need.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection backing the store.
type DB struct {
	conn *sql.DB
	path string
}

// New creates (or opens) the store database in dataDir/downloads.db,
// applying pragmas tuned for a single-writer desktop workload and
// running migrations.
func New(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "downloads.db")

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	db := &DB{conn: conn, path: dbPath}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn exposes the underlying connection for callers that need raw
// access (tests, maintenance scripts).
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// migrate creates the schema if absent and additively applies any
// columns introduced after the initial release. ALTER TABLE ADD COLUMN
// fails if the column already exists; that failure is expected and
// ignored, making the migration idempotent across restarts.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL,
		media_type TEXT NOT NULL,
		media_id TEXT NOT NULL,
		episode_id TEXT,
		title TEXT NOT NULL,
		episode_title TEXT,
		season INTEGER,
		episode INTEGER,
		poster_path TEXT,
		status TEXT NOT NULL DEFAULT 'queued',
		progress REAL NOT NULL DEFAULT 0,
		quality TEXT NOT NULL DEFAULT 'standard',
		file_path TEXT NOT NULL DEFAULT '',
		file_size INTEGER NOT NULL DEFAULT 0,
		downloaded_bytes INTEGER NOT NULL DEFAULT 0,
		added_at INTEGER NOT NULL,
		completed_at INTEGER,
		last_watched_at INTEGER,
		watched_percent REAL NOT NULL DEFAULT 0,
		stream_url TEXT NOT NULL,
		addon_id TEXT,
		error_message TEXT,
		smart_download INTEGER NOT NULL DEFAULT 0,
		auto_delete INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_profile_id ON jobs(profile_id);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	CREATE INDEX IF NOT EXISTS idx_jobs_chain ON jobs(profile_id, media_id, season, episode);

	CREATE TABLE IF NOT EXISTS profile_settings (
		profile_id TEXT PRIMARY KEY,
		quota_bytes INTEGER NOT NULL DEFAULT 0,
		smart_download_default INTEGER NOT NULL DEFAULT 0,
		auto_delete_default INTEGER NOT NULL DEFAULT 0
	);
	`

	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}

	// Additive columns for future releases go here, e.g.:
	// db.conn.Exec(`ALTER TABLE jobs ADD COLUMN some_new_field TEXT`)

	return nil
}
