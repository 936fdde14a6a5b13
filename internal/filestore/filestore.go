// Package filestore resolves the on-disk paths a job's bytes live at,
// and performs the small set of filesystem operations the engine needs:
// ensuring directories exist, sizing files, and removing artifacts.
package filestore

import (
	"os"
	"path/filepath"
	"strings"

	apperr "zentrio/internal/apperrors"
)

const (
	finalExt = ".mp4"
	partExt  = ".zentrio-part"
)

// FileStore is pure path arithmetic plus directory/file operations
// rooted at an app-data directory.
type FileStore struct {
	appDataDir string
}

// New creates a FileStore rooted at appDataDir (the directory holding
// downloads.db, download_dir.txt, and — absent an override — the
// downloads tree itself).
func New(appDataDir string) *FileStore {
	return &FileStore{appDataDir: appDataDir}
}

// customDirPath is where a user-configured base directory override is
// persisted, a plain UTF-8 text file.
func (fs *FileStore) customDirPath() string {
	return filepath.Join(fs.appDataDir, "download_dir.txt")
}

// customDir reads the override file, trimmed. An absent file or a
// file that is empty after trimming means "no override".
func (fs *FileStore) customDir() string {
	data, err := os.ReadFile(fs.customDirPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// baseDir returns the custom override if set, else the app-data
// directory itself.
func (fs *FileStore) baseDir() string {
	if custom := fs.customDir(); custom != "" {
		return custom
	}
	return fs.appDataDir
}

// DownloadsDir returns <base>/downloads/<profileID>.
func (fs *FileStore) DownloadsDir(profileID string) string {
	return filepath.Join(fs.baseDir(), "downloads", profileID)
}

// FinalPath returns the completed artifact's path for a job.
func (fs *FileStore) FinalPath(profileID, id string) string {
	return filepath.Join(fs.DownloadsDir(profileID), id+finalExt)
}

// PartPath returns the in-progress artifact's path for a job.
func (fs *FileStore) PartPath(profileID, id string) string {
	return filepath.Join(fs.DownloadsDir(profileID), id+partExt)
}

// EnsureDir creates the profile's downloads directory recursively.
func (fs *FileStore) EnsureDir(profileID string) error {
	if err := os.MkdirAll(fs.DownloadsDir(profileID), 0755); err != nil {
		return apperr.Wrap("FileStore.EnsureDir", apperr.ErrFilesystem)
	}
	return nil
}

// DeleteFiles removes both the final and part files for a job,
// ignoring files that are already absent.
func (fs *FileStore) DeleteFiles(profileID, id string) {
	os.Remove(fs.FinalPath(profileID, id))
	os.Remove(fs.PartPath(profileID, id))
}

// FileSize returns the file's size, or 0 if it doesn't exist or can't
// be stat'd.
func (fs *FileStore) FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// GetCustomDir returns the current base-directory override, or "" if
// none is set.
func (fs *FileStore) GetCustomDir() string {
	return fs.customDir()
}

// SetCustomDir persists a base-directory override, trimmed.
func (fs *FileStore) SetCustomDir(path string) error {
	if err := os.MkdirAll(fs.appDataDir, 0755); err != nil {
		return apperr.Wrap("FileStore.SetCustomDir", apperr.ErrFilesystem)
	}
	trimmed := strings.TrimSpace(path)
	if err := os.WriteFile(fs.customDirPath(), []byte(trimmed), 0644); err != nil {
		return apperr.Wrap("FileStore.SetCustomDir", apperr.ErrFilesystem)
	}
	return nil
}
