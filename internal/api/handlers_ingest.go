package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/bteparse/internal/doctree"
	"github.com/dgallion1/bteparse/internal/parser"
	"github.com/dgallion1/bteparse/internal/pipeline"
)

// maxBatch caps how many URLs one batch request may enqueue.
const maxBatch = 500

// ingestURLRequest is the body of POST /api/ingest/url and one entry of
// a batch.
type ingestURLRequest struct {
	URL    string          `json:"url"`
	Type   doctree.DocType `json:"type,omitempty"`
	Year   int             `json:"year,omitempty"`
	Number string          `json:"number,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	sourceURL := r.FormValue("source_url")
	if err := checkSourceURL(sourceURL); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	year := 0
	if v := r.FormValue("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "year must be a positive integer", http.StatusBadRequest)
			return
		}
		year = n
	}
	docType := doctree.DocType(r.FormValue("type"))
	if docType != "" && !docType.Valid() {
		jsonError(w, fmt.Sprintf("unknown type %q", docType), http.StatusBadRequest)
		return
	}

	// Read file data.
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if !parser.LooksLikePDF(data) {
		jsonError(w, "file is not a PDF", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(filename, sourceURL)
	job.Type = docType
	job.Year = year
	job.Number = r.FormValue("number")
	job.SetFileData(data)

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, acceptedBody(job))
}

func (s *Server) handleIngestURL(w http.ResponseWriter, r *http.Request) {
	var req ingestURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	job, err := s.jobFromRequest(req)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, acceptedBody(job))
}

func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Documents []ingestURLRequest `json:"documents"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Documents) == 0 {
		jsonError(w, "at least one document is required", http.StatusBadRequest)
		return
	}
	if len(req.Documents) > maxBatch {
		jsonError(w, fmt.Sprintf("too many documents (max %d)", maxBatch), http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(req.Documents))
	for _, d := range req.Documents {
		job, err := s.jobFromRequest(d)
		if err != nil {
			results = append(results, map[string]any{"url": d.URL, "error": err.Error()})
			continue
		}
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{"url": d.URL, "error": err.Error()})
			continue
		}
		body := acceptedBody(job)
		body["url"] = d.URL
		results = append(results, body)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) jobFromRequest(req ingestURLRequest) (*pipeline.Job, error) {
	if err := checkSourceURL(req.URL); err != nil {
		return nil, err
	}
	if req.Type != "" && !req.Type.Valid() {
		return nil, fmt.Errorf("unknown type %q", req.Type)
	}
	if req.Year < 0 {
		return nil, errors.New("year must be positive")
	}
	job := pipeline.NewJob("", req.URL)
	job.Type = req.Type
	job.Year = req.Year
	job.Number = req.Number
	return job, nil
}

func acceptedBody(job *pipeline.Job) map[string]any {
	return map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/ingest/%s/status", job.ID),
	}
}

func checkSourceURL(raw string) error {
	if raw == "" {
		return errors.New("source url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("source url must be an absolute http(s) URL: %q", raw)
	}
	return nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
