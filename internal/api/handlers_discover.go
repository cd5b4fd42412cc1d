package api

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/dgallion1/bteparse/internal/parser"
	"github.com/dgallion1/bteparse/internal/pipeline"
)

// handleDiscover fetches an index page, lists the PDFs it links to and
// optionally queues each one for ingestion.
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL     string `json:"url"`
		Enqueue bool   `json:"enqueue"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := checkSourceURL(req.URL); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	base, _ := url.Parse(req.URL)

	page, err := s.fetcher.Get(r.Context(), req.URL)
	if err != nil {
		s.log.Warn("discover fetch failed", "url", req.URL, "error", err)
		jsonError(w, "failed to fetch index: "+err.Error(), http.StatusBadGateway)
		return
	}
	links, err := parser.ExtractPDFLinks(bytes.NewReader(page), base)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	if links == nil {
		links = []parser.Link{}
	}

	resp := map[string]any{"links": links}
	if req.Enqueue {
		jobs := make([]map[string]any, 0, len(links))
		for _, l := range links {
			job := pipeline.NewJob("", l.URL)
			job.Type, job.Year, job.Number = l.Type, l.Year, l.Number
			if err := s.orchestrator.Submit(job); err != nil {
				jobs = append(jobs, map[string]any{"url": l.URL, "error": err.Error()})
				continue
			}
			body := acceptedBody(job)
			body["url"] = l.URL
			jobs = append(jobs, body)
		}
		resp["jobs"] = jobs
	}
	s.log.Info("discovered documents", "url", req.URL, "links", len(links), "enqueued", req.Enqueue)
	writeJSON(w, http.StatusOK, resp)
}
