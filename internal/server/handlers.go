package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperr "zentrio/internal/apperrors"
	"zentrio/internal/manager"
	"zentrio/internal/ratelimit"
	"zentrio/internal/store"
	"zentrio/internal/validate"
)

// apiResponse is the uniform envelope for every JSON response this
// facade writes.
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: status < 400, Data: data})
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: false, Error: err.Error()})
}

func statusForErr(err error) int {
	switch {
	case apperr.IsNotFound(err):
		return http.StatusNotFound
	case apperr.IsAlreadyExists(err):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInvalidJob):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// startDownloadRequest mirrors the download_start payload of spec §6.
type startDownloadRequest struct {
	ProfileID     string  `json:"profileId"`
	MediaType     string  `json:"mediaType"`
	MediaID       string  `json:"mediaId"`
	EpisodeID     string  `json:"episodeId,omitempty"`
	Title         string  `json:"title"`
	EpisodeTitle  string  `json:"episodeTitle,omitempty"`
	Season        *int64  `json:"season,omitempty"`
	Episode       *int64  `json:"episode,omitempty"`
	PosterPath    string  `json:"posterPath,omitempty"`
	StreamURL     string  `json:"streamUrl"`
	AddonID       string  `json:"addonId,omitempty"`
	Quality       string  `json:"quality"`
	SmartDownload *bool   `json:"smartDownload,omitempty"`
	AutoDelete    *bool   `json:"autoDelete,omitempty"`
}

func (s *Server) handleDownloadStart(w http.ResponseWriter, r *http.Request) {
	if !ratelimit.DownloadStartLimiter.Allow() {
		writeError(w, http.StatusTooManyRequests, apperr.NewWithMessage("handleDownloadStart", apperr.ErrQuotaExceeded, "too many requests"))
		return
	}

	var req startDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.WrapWithMessage("handleDownloadStart", apperr.ErrInvalidJob, err.Error()))
		return
	}

	id, err := s.mgr.Enqueue(manager.EnqueueRequest{
		ProfileID: req.ProfileID, MediaType: store.MediaType(req.MediaType), MediaID: req.MediaID,
		EpisodeID: req.EpisodeID, Title: req.Title, EpisodeTitle: req.EpisodeTitle,
		Season: req.Season, Episode: req.Episode, PosterPath: req.PosterPath,
		StreamURL: req.StreamURL, AddonID: req.AddonID, Quality: store.Quality(req.Quality),
		SmartDownload: req.SmartDownload, AutoDelete: req.AutoDelete,
	})
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleDownloadPause(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.mgr.Pause(id); err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleDownloadResume(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.mgr.Resume(id); err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleDownloadCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.mgr.Cancel(id); err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleDownloadDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.mgr.Delete(id); err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleDownloadList(w http.ResponseWriter, r *http.Request) {
	if !ratelimit.QueryLimiter.Allow() {
		writeError(w, http.StatusTooManyRequests, apperr.NewWithMessage("handleDownloadList", apperr.ErrQuotaExceeded, "too many requests"))
		return
	}
	profileID := r.URL.Query().Get("profile_id")
	jobs, err := s.mgr.List(profileID)
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleStorageStats(w http.ResponseWriter, r *http.Request) {
	profileID := r.URL.Query().Get("profile_id")
	total, count, err := s.mgr.StorageStats(profileID)
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"total_bytes": total, "count": int64(count)})
}

func (s *Server) handlePurgeProfile(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	if err := s.mgr.DeleteAllForProfile(profileID); err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleGetQuota(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	bytes, err := s.mgr.GetQuota(profileID)
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"quota_bytes": bytes})
}

func (s *Server) handleSetQuota(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	var body struct {
		QuotaBytes int64 `json:"quotaBytes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, apperr.WrapWithMessage("handleSetQuota", apperr.ErrInvalidJob, err.Error()))
		return
	}
	if err := s.mgr.SetQuota(profileID, body.QuotaBytes); err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleGetSmartDefaults(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	smart, autoDelete, err := s.mgr.GetSmartDefaults(profileID)
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"smartDownload": smart, "autoDelete": autoDelete})
}

func (s *Server) handleSetSmartDefaults(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	var body struct {
		SmartDownload bool `json:"smartDownload"`
		AutoDelete    bool `json:"autoDelete"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, apperr.WrapWithMessage("handleSetSmartDefaults", apperr.ErrInvalidJob, err.Error()))
		return
	}
	if err := s.mgr.SetSmartDefaults(profileID, body.SmartDownload, body.AutoDelete); err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleGetDirectory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"path": s.files.GetCustomDir()})
}

func (s *Server) handleSetDirectory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, apperr.WrapWithMessage("handleSetDirectory", apperr.ErrInvalidJob, err.Error()))
		return
	}
	absPath, err := validate.DirectoryPath(body.Path)
	if err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	if err := s.files.SetCustomDir(absPath); err != nil {
		writeError(w, statusForErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
