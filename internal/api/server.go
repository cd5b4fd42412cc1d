package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/bteparse/internal/config"
	"github.com/dgallion1/bteparse/internal/pipeline"
	"github.com/dgallion1/bteparse/internal/store"
)

// Documents is the read and delete side of the record store.
type Documents interface {
	Get(ctx context.Context, id string) (*store.Document, error)
	List(ctx context.Context, limit, offset int) ([]store.Document, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
}

// Server is the HTTP API server for bteparse.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	docs         Documents
	fetcher      pipeline.Fetcher
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, docs Documents, fetcher pipeline.Fetcher, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		docs:         docs,
		fetcher:      fetcher,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(ExposeRequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Post("/api/ingest/url", s.handleIngestURL)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/discover", s.handleDiscover)
		r.Get("/api/stats", s.handleStats)

		r.Get("/api/documents", s.handleListDocuments)
		r.Route("/api/documents/{docID}", func(r chi.Router) {
			r.Get("/", s.handleGetDocument)
			r.Get("/markdown", s.handleDocumentMarkdown)
			r.Get("/html", s.handleDocumentHTML)
			r.Get("/docx", s.handleDocumentDOCX)
			r.Delete("/", s.handleDeleteDocument)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
