package store

import (
	"database/sql"

	apperr "zentrio/internal/apperrors"
)

// GetQuota returns the profile's quota in bytes, 0 (unlimited) if no
// settings row exists yet.
func (db *DB) GetQuota(profileID string) (int64, error) {
	var quota int64
	row := db.conn.QueryRow(`SELECT quota_bytes FROM profile_settings WHERE profile_id = ?`, profileID)
	err := row.Scan(&quota)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.Wrap("Store.GetQuota", err)
	}
	return quota, nil
}

// SetQuota upserts the profile's quota. A plain UPDATE would silently
// no-op for a profile with no settings row yet, so this is an insert
// with an on-conflict update.
func (db *DB) SetQuota(profileID string, bytes int64) error {
	_, err := db.conn.Exec(`
		INSERT INTO profile_settings (profile_id, quota_bytes)
		VALUES (?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET quota_bytes = excluded.quota_bytes`,
		profileID, bytes,
	)
	return apperr.Wrap("Store.SetQuota", err)
}

// GetSmartDefaults returns the profile's smart-download/auto-delete
// defaults, both false if no settings row exists yet.
func (db *DB) GetSmartDefaults(profileID string) (smartDownload, autoDelete bool, err error) {
	var sd, ad int
	row := db.conn.QueryRow(
		`SELECT smart_download_default, auto_delete_default FROM profile_settings WHERE profile_id = ?`,
		profileID,
	)
	scanErr := row.Scan(&sd, &ad)
	if scanErr == sql.ErrNoRows {
		return false, false, nil
	}
	if scanErr != nil {
		return false, false, apperr.Wrap("Store.GetSmartDefaults", scanErr)
	}
	return sd != 0, ad != 0, nil
}

// SetSmartDefaults upserts the profile's smart-download/auto-delete
// defaults.
func (db *DB) SetSmartDefaults(profileID string, smartDownload, autoDelete bool) error {
	_, err := db.conn.Exec(`
		INSERT INTO profile_settings (profile_id, smart_download_default, auto_delete_default)
		VALUES (?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET
			smart_download_default = excluded.smart_download_default,
			auto_delete_default = excluded.auto_delete_default`,
		profileID, boolToInt(smartDownload), boolToInt(autoDelete),
	)
	return apperr.Wrap("Store.SetSmartDefaults", err)
}
