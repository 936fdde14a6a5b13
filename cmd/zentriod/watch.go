package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// jobView is the subset of a store.Job the watch subcommand needs,
// decoded from the running engine's JSON response.
type jobView struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Status          string  `json:"status"`
	Progress        float64 `json:"progress"`
	FileSize        int64   `json:"fileSize"`
	DownloadedBytes int64   `json:"downloadedBytes"`
}

// runWatch polls the running engine's REST API for a single job and
// renders a terminal progress bar until the job reaches a terminal
// status. It's a standalone CLI convenience, not part of the server.
func runWatch(addr, profileID, jobID string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	url := fmt.Sprintf("http://%s/api/downloads/?profile_id=%s", addr, profileID)

	var bar *progressbar.ProgressBar
	for {
		job, err := fetchJob(client, url, jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return fmt.Errorf("job %s not found", jobID)
		}

		if bar == nil {
			total := job.FileSize
			if total <= 0 {
				total = -1 // unknown length, spinner mode
			}
			bar = progressbar.DefaultBytes(total, "downloading "+job.Title)
		}
		bar.Set64(job.DownloadedBytes)

		switch job.Status {
		case "completed":
			bar.Finish()
			fmt.Fprintln(os.Stdout, "\ncompleted")
			return nil
		case "failed", "cancelled":
			fmt.Fprintf(os.Stdout, "\n%s\n", job.Status)
			return nil
		}

		time.Sleep(500 * time.Millisecond)
	}
}

func fetchJob(client *http.Client, listURL, jobID string) (*jobView, error) {
	resp, err := client.Get(listURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope struct {
		Data []jobView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, err
	}
	for _, j := range envelope.Data {
		if j.ID == jobID {
			return &j, nil
		}
	}
	return nil, nil
}
