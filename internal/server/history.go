package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/MeKo-Tech/stylizer/internal/history"
)

// HistoryEntry is a history record as served by the API.
type HistoryEntry struct {
	ID               string    `json:"id"`
	Style            string    `json:"style"`
	OriginalImage    string    `json:"originalImage,omitempty"`
	TransformedImage string    `json:"transformedImage,omitempty"`
	Thumbnail        string    `json:"thumbnail,omitempty"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	ElapsedMS        int64     `json:"elapsed_ms"`
	Status           string    `json:"status"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func toEntry(rec history.Record) HistoryEntry {
	e := HistoryEntry{
		ID:        rec.ID,
		Style:     rec.Style,
		Width:     rec.Width,
		Height:    rec.Height,
		ElapsedMS: rec.Elapsed.Milliseconds(),
		Status:    string(rec.Status),
		Error:     rec.Error,
		CreatedAt: rec.CreatedAt,
	}
	if rec.Input != "" && rec.Status == history.StatusOK {
		e.OriginalImage = "/uploads/" + rec.Input
	}
	if rec.Output != "" {
		e.TransformedImage = "/outputs/" + rec.Output
	}
	if rec.HasThumbnail {
		e.Thumbnail = "/api/history/" + rec.ID + "/thumbnail"
	}
	return e
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, apiError{Message: "History is disabled"})
		return false
	}
	return true
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	q := r.URL.Query()
	f := history.Filter{Style: q.Get("style"), Status: history.Status(q.Get("status"))}
	if f.Style != "" {
		if st, ok := s.runner.Registry().Lookup(f.Style); ok {
			f.Style = st.Name
		}
	}
	var err error
	if f.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, apiError{Message: "Invalid limit", Error: err.Error()})
		return
	}
	if f.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, apiError{Message: "Invalid offset", Error: err.Error()})
		return
	}

	records, err := s.store.List(r.Context(), f)
	if err != nil {
		s.log().Error("failed to list history", "error", err)
		writeError(w, http.StatusInternalServerError, apiError{Message: "Failed to list history", Error: err.Error()})
		return
	}
	entries := make([]HistoryEntry, len(records))
	for i, rec := range records {
		entries[i] = toEntry(rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (s *Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.historyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntry(rec))
}

func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id := r.PathValue("id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.historyError(w, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.historyError(w, err)
		return
	}
	// Files may already be gone.
	if rec.Input != "" {
		os.Remove(filepath.Join(s.cfg.UploadDir, filepath.Base(rec.Input))) // nolint:errcheck
	}
	if rec.Output != "" {
		os.Remove(filepath.Join(s.cfg.OutputDir, filepath.Base(rec.Output))) // nolint:errcheck
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistoryThumbnail(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	data, err := s.store.Thumbnail(r.Context(), r.PathValue("id"))
	if err != nil {
		s.historyError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", s.cfg.CacheControl)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		s.log().Debug("failed to write thumbnail", "error", err)
	}
}

func (s *Server) historyError(w http.ResponseWriter, err error) {
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, apiError{Message: "History record not found"})
		return
	}
	s.log().Error("history request failed", "error", err)
	writeError(w, http.StatusInternalServerError, apiError{Message: "History request failed", Error: err.Error()})
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("must be a non-negative integer")
	}
	return n, nil
}
