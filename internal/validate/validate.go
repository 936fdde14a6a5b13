// Package validate provides input validation for the engine's public
// surface: stream URLs and the user-configurable downloads directory.
package validate

import (
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	apperr "zentrio/internal/apperrors"
)

// dangerousPathPatterns flags path-traversal attempts in a
// user-supplied directory override.
var dangerousPathPatterns = []string{"..", "~", "$", "%"}

// filenameUnsafeChars matches characters not allowed in filenames.
var filenameUnsafeChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// StreamURL validates a fetch source URL: non-empty, http(s), with a
// host. Addons supply these URLs, so this is the engine's only line
// of defense against a malformed or non-network scheme reaching a
// Fetcher.
func StreamURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperr.NewWithMessage("validate.StreamURL", apperr.ErrInvalidJob, "stream URL must not be empty")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return nil, apperr.NewWithMessage("validate.StreamURL", apperr.ErrInvalidJob, "stream URL must use http or https")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, apperr.NewWithMessage("validate.StreamURL", apperr.ErrInvalidJob, "malformed stream URL")
	}
	if parsed.Host == "" {
		return nil, apperr.NewWithMessage("validate.StreamURL", apperr.ErrInvalidJob, "stream URL has no host")
	}
	return parsed, nil
}

// DirectoryPath validates a user-supplied downloads-directory override,
// returning the cleaned absolute path. A path that doesn't exist yet
// is valid — the caller creates it on first use.
func DirectoryPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", apperr.NewWithMessage("validate.DirectoryPath", apperr.ErrInvalidJob, "path must not be empty")
	}
	for _, pattern := range dangerousPathPatterns {
		if strings.Contains(path, pattern) {
			return "", apperr.NewWithMessage("validate.DirectoryPath", apperr.ErrFilesystem, "path contains disallowed characters")
		}
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", apperr.Wrap("validate.DirectoryPath", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return absPath, nil
		}
		return "", apperr.Wrap("validate.DirectoryPath", err)
	}
	if !info.IsDir() {
		return "", apperr.NewWithMessage("validate.DirectoryPath", apperr.ErrInvalidJob, "path is not a directory")
	}
	return absPath, nil
}

// Filename sanitizes a title for use as part of a displayed or logged
// filename. Job artifacts themselves are named by job id, not title,
// so this only ever touches presentation strings.
func Filename(name string) string {
	if name == "" {
		return "untitled"
	}
	safe := filenameUnsafeChars.ReplaceAllString(name, "_")
	safe = strings.Trim(safe, " .")
	if len(safe) > 200 {
		safe = safe[:200]
	}
	if safe == "" {
		return "untitled"
	}
	return safe
}
