// Package server exposes the style pipelines over HTTP: multipart uploads are
// transformed under a concurrency limit, written to disk and recorded in the
// transform history.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/stylizer/internal/history"
	"github.com/MeKo-Tech/stylizer/internal/pipeline"
)

// Defaults applied by New.
const (
	DefaultMaxUploadBytes   = 10 << 20
	DefaultTransformTimeout = 2 * time.Minute
)

// Config configures the HTTP service.
type Config struct {
	UploadDir               string
	OutputDir               string
	CacheControl            string
	AllowedOrigin           string
	MaxUploadBytes          int64
	MaxConcurrentTransforms int
	TransformTimeout        time.Duration
}

// Server handles transform requests.
type Server struct {
	runner *pipeline.Runner
	store  *history.Store
	logger *slog.Logger
	sem    chan struct{}
	cfg    Config

	// Status tracking for transforms
	activeTransforms atomic.Int32
	queuedTransforms atomic.Int32
	totalTransformed atomic.Int64
	totalFailed      atomic.Int64
	current          sync.Map // map[string]jobInfo - request id -> running job
}

type jobInfo struct {
	Style   string
	Started time.Time
}

// New creates the service. store may be nil, in which case history endpoints
// answer 503 and transforms are not recorded.
func New(runner *pipeline.Runner, store *history.Store, cfg Config, logger *slog.Logger) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "outputs"
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "public, max-age=3600"
	}
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "*"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.MaxConcurrentTransforms <= 0 {
		cfg.MaxConcurrentTransforms = 1
	}
	if cfg.TransformTimeout <= 0 {
		cfg.TransformTimeout = DefaultTransformTimeout
	}

	for _, dir := range []string{cfg.UploadDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
	}

	return &Server{
		runner: runner,
		store:  store,
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxConcurrentTransforms),
		cfg:    cfg,
	}, nil
}

// Handler returns the routed HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/transform", s.handleTransform)
	mux.HandleFunc("POST /api/image/transform", s.handleTransform)
	mux.HandleFunc("GET /api/styles", s.handleStyles)

	mux.HandleFunc("GET /api/history", s.handleHistoryList)
	mux.HandleFunc("GET /api/history/{id}", s.handleHistoryGet)
	mux.HandleFunc("DELETE /api/history/{id}", s.handleHistoryDelete)
	mux.HandleFunc("GET /api/history/{id}/thumbnail", s.handleHistoryThumbnail)

	mux.Handle("GET /api/status", s.StatusHandler())
	mux.Handle("GET /api/status/stream", s.StatusStreamHandler())
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.Handle("GET /uploads/", s.static("/uploads/", s.cfg.UploadDir))
	mux.Handle("GET /outputs/", s.static("/outputs/", s.cfg.OutputDir))

	return s.cors(mux)
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) static(prefix, dir string) http.Handler {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", s.cfg.CacheControl)
		fs.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StyleInfo describes a style in the styles listing.
type StyleInfo struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Stages      []string `json:"stages"`
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	styles := s.runner.Registry().Styles()
	out := make([]StyleInfo, len(styles))
	for i, st := range styles {
		out[i] = StyleInfo{Name: st.Name, Label: st.Label, Description: st.Description, Stages: st.Ops()}
	}
	writeJSON(w, http.StatusOK, map[string]any{"styles": out})
}

// apiError is the JSON body of every error response.
type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, e apiError) {
	writeJSON(w, status, e)
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
