package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/stylizer/internal/history"
	"github.com/MeKo-Tech/stylizer/internal/imageio"
	"github.com/google/uuid"
)

var uploadExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true, ".bmp": true,
}

// TransformResponse is returned for a successful transform.
type TransformResponse struct {
	Message          string `json:"message"`
	ID               string `json:"id"`
	Style            string `json:"style"`
	OriginalImage    string `json:"originalImage"`
	TransformedImage string `json:"transformedImage"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	ElapsedMS        int64  `json:"elapsed_ms"`
	HistoryID        string `json:"historyId,omitempty"`
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart envelope around the file itself.
	limit := s.cfg.MaxUploadBytes + 1<<20
	if r.ContentLength > limit {
		s.tooLarge(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.tooLarge(w)
			return
		}
		writeError(w, http.StatusBadRequest, apiError{Message: "Invalid multipart form", Error: err.Error()})
		return
	}
	defer r.MultipartForm.RemoveAll() // nolint:errcheck

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, apiError{
			Message: "No image file uploaded",
			Hint:    `Ensure the form field name is "image"`,
		})
		return
	}
	defer file.Close()

	if header.Size > s.cfg.MaxUploadBytes {
		s.tooLarge(w)
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !uploadExtensions[ext] {
		writeError(w, http.StatusBadRequest, apiError{
			Message: "Only image files are allowed",
			Hint:    "Accepted extensions: jpeg, jpg, png, webp, gif, bmp",
		})
		return
	}

	styleName := strings.TrimSpace(r.FormValue("style"))
	if styleName == "" {
		writeError(w, http.StatusBadRequest, apiError{
			Message: "Transformation style is required",
			Hint:    `Include "style" in request body`,
		})
		return
	}
	st, err := s.runner.Lookup(styleName)
	if err != nil {
		writeError(w, http.StatusBadRequest, apiError{
			Message: "Invalid transformation style",
			Hint:    "Valid styles: " + strings.Join(s.styleLabels(), ", "),
		})
		return
	}

	id := uuid.NewString()
	uploadName := id + ext
	uploadPath := filepath.Join(s.cfg.UploadDir, uploadName)
	if err := saveUpload(file, uploadPath); err != nil {
		s.log().Error("failed to store upload", "path", uploadPath, "error", err)
		writeError(w, http.StatusInternalServerError, apiError{Message: "Failed to store upload", Error: err.Error()})
		return
	}

	// Wait for a transform slot.
	s.queuedTransforms.Add(1)
	select {
	case s.sem <- struct{}{}:
		s.queuedTransforms.Add(-1)
		defer func() { <-s.sem }()
	case <-r.Context().Done():
		s.queuedTransforms.Add(-1)
		os.Remove(uploadPath) // nolint:errcheck
		writeError(w, http.StatusRequestTimeout, apiError{Message: "Request cancelled"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.TransformTimeout)
	defer cancel()

	outputName := "transformed-" + id + ".png"
	outputPath := filepath.Join(s.cfg.OutputDir, outputName)

	s.activeTransforms.Add(1)
	s.current.Store(id, jobInfo{Style: st.Name, Started: time.Now()})
	res, err := s.runner.Run(ctx, st, uploadPath, outputPath)
	s.activeTransforms.Add(-1)
	s.current.Delete(id)

	if err != nil {
		s.totalFailed.Add(1)
		s.log().Error("transform failed", "id", id, "style", st.Name, "input", uploadPath, "error", err)
		s.record(r.Context(), history.Record{
			ID:      id,
			Style:   st.Name,
			Input:   uploadName,
			Status:  history.StatusFailed,
			Error:   err.Error(),
			Elapsed: res.Elapsed,
		}, "")
		os.Remove(uploadPath) // nolint:errcheck

		status := http.StatusServiceUnavailable
		var de *imageio.DecodeError
		if errors.As(err, &de) {
			status = http.StatusBadRequest
		}
		writeError(w, status, apiError{
			Message: "Image transformation failed",
			Error:   err.Error(),
			Hint:    "Try a different image or style.",
		})
		return
	}
	s.totalTransformed.Add(1)

	historyID := s.record(r.Context(), history.Record{
		ID:      id,
		Style:   st.Name,
		Input:   uploadName,
		Output:  outputName,
		Width:   res.Width,
		Height:  res.Height,
		Elapsed: res.Elapsed,
		Status:  history.StatusOK,
	}, outputPath)

	s.log().Info("transform served", "id", id, "style", st.Name, "ms", res.Elapsed.Milliseconds())
	writeJSON(w, http.StatusOK, TransformResponse{
		Message:          "Image transformed successfully",
		ID:               id,
		Style:            st.Name,
		OriginalImage:    "/uploads/" + uploadName,
		TransformedImage: "/outputs/" + outputName,
		Width:            res.Width,
		Height:           res.Height,
		ElapsedMS:        res.Elapsed.Milliseconds(),
		HistoryID:        historyID,
	})
}

// record stores a history entry, attaching a thumbnail of thumbFrom when set.
// Failures are logged and do not fail the request.
func (s *Server) record(ctx context.Context, rec history.Record, thumbFrom string) string {
	if s.store == nil {
		return ""
	}
	if thumbFrom != "" {
		if img, err := imageio.Load(thumbFrom); err == nil {
			if thumb, err := history.MakeThumbnail(img); err == nil {
				rec.Thumbnail = thumb
			} else {
				s.log().Warn("failed to build thumbnail", "id", rec.ID, "error", err)
			}
		}
	}
	stored, err := s.store.Add(context.WithoutCancel(ctx), rec)
	if err != nil {
		s.log().Error("failed to record history", "id", rec.ID, "error", err)
		return ""
	}
	return stored.ID
}

func (s *Server) tooLarge(w http.ResponseWriter) {
	writeError(w, http.StatusRequestEntityTooLarge, apiError{
		Message: "Upload too large",
		Hint:    fmt.Sprintf("Maximum upload size is %d bytes", s.cfg.MaxUploadBytes),
	})
}

func (s *Server) styleLabels() []string {
	styles := s.runner.Registry().Styles()
	labels := make([]string, len(styles))
	for i, st := range styles {
		labels[i] = st.Label
	}
	return labels
}

func saveUpload(src io.Reader, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path) // nolint:errcheck
		return err
	}
	return f.Close()
}
