// Package notifier surfaces OS-level toast notifications for download
// progress and terminal states. Emissions are best-effort: a failure
// to push a native notification is logged and swallowed, never
// promoted to a job failure.
package notifier

import (
	"fmt"

	toast "git.sr.ht/~jackmordaunt/go-toast/v2"

	"zentrio/internal/logger"
)

const appID = "Zentrio"

// Notifier pushes OS notifications for job lifecycle events.
type Notifier struct {
	iconPath string
}

// New creates a Notifier. iconPath may be empty.
func New(iconPath string) *Notifier {
	return &Notifier{iconPath: iconPath}
}

// Progress notifies on a download's progress, expressed as a
// percentage and a speed in KB/s for display.
func (n *Notifier) Progress(id, title string, pct, speedKBps float64) {
	n.push(title, fmt.Sprintf("%.0f%% · %.0f KB/s", pct, speedKBps), id)
}

// Complete notifies that a download finished successfully.
func (n *Notifier) Complete(title string) {
	n.push(title, "Download complete", "")
}

// Failed notifies that a download failed.
func (n *Notifier) Failed(title string) {
	n.push(title, "Download failed", "")
}

func (n *Notifier) push(title, body, id string) {
	note := toast.Notification{
		AppID: appID,
		Title: title,
		Body:  body,
		Icon:  n.iconPath,
	}

	if err := note.Push(); err != nil {
		logger.Log.Warn().Err(err).Str("jobID", id).Msg("failed to push native notification")
	}
}
