package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"
)

// Job is a transform currently running.
type Job struct {
	ID        string `json:"id"`
	Style     string `json:"style"`
	RunningMS int64  `json:"running_ms"`
}

// Status reports transform activity.
type Status struct {
	Active           int32 `json:"active"`
	Queued           int32 `json:"queued"`
	TotalTransformed int64 `json:"total_transformed"`
	TotalFailed      int64 `json:"total_failed"`
	MaxConcurrent    int   `json:"max_concurrent"`
	Jobs             []Job `json:"jobs"`
}

// Status returns a snapshot of transform activity.
func (s *Server) Status() Status {
	st := Status{
		Active:           s.activeTransforms.Load(),
		Queued:           s.queuedTransforms.Load(),
		TotalTransformed: s.totalTransformed.Load(),
		TotalFailed:      s.totalFailed.Load(),
		MaxConcurrent:    s.cfg.MaxConcurrentTransforms,
		Jobs:             []Job{},
	}
	now := time.Now()
	s.current.Range(func(key, value any) bool {
		info := value.(jobInfo)
		st.Jobs = append(st.Jobs, Job{
			ID:        key.(string),
			Style:     info.Style,
			RunningMS: now.Sub(info.Started).Milliseconds(),
		})
		return true
	})
	sort.Slice(st.Jobs, func(i, j int) bool { return st.Jobs[i].ID < st.Jobs[j].ID })
	return st
}

// StatusHandler returns an HTTP handler for the status endpoint.
func (s *Server) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Status())
	})
}

// StatusStreamHandler returns an HTTP handler for Server-Sent Events status updates.
func (s *Server) StatusStreamHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		s.sendStatusEvent(w, flusher)

		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				s.sendStatusEvent(w, flusher)
			}
		}
	})
}

func (s *Server) sendStatusEvent(w http.ResponseWriter, flusher http.Flusher) {
	data, err := json.Marshal(s.Status())
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
