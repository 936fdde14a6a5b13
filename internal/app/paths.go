// Package app resolves the OS-specific directory the engine's state
// (job database, logs, default downloads tree) lives under.
package app

import (
	"os"
	"path/filepath"
	"runtime"
)

// DevMode is set at build time via ldflags to isolate a dev environment
// from production. When true, uses "Zentrio-dev" instead of "Zentrio".
// Example: -ldflags "-X 'zentrio/internal/app.DevMode=true'"
var DevMode string = "false"

func appDirName() string {
	if DevMode == "true" {
		return "Zentrio-dev"
	}
	return "Zentrio"
}

// Paths holds the directories the engine reads and writes.
type Paths struct {
	AppData   string // %AppData%/Zentrio — downloads.db, engine.json, logs/
	Downloads string // ~/Videos/Zentrio (~/Movies on macOS) — created by EnsureDirectories; job files go under AppData/downloads unless overridden
}

// GetPaths resolves Paths for the current OS.
func GetPaths() (*Paths, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	var downloads string
	switch runtime.GOOS {
	case "darwin":
		downloads = filepath.Join(homeDir, "Movies", appDirName())
	default:
		downloads = filepath.Join(homeDir, "Videos", appDirName())
	}

	return &Paths{
		AppData:   filepath.Join(configDir, appDirName()),
		Downloads: downloads,
	}, nil
}

// EnsureDirectories creates every directory Paths names.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.AppData, p.Downloads} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
