package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/ragprep/internal/config"
	"github.com/dgallion1/ragprep/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for ragprep.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Server
}

// NewServer creates and configures the HTTP server. A nil logger falls back
// to slog.Default().
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Server) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		orchestrator: orch,
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
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/healthz", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/v1/documents", s.handleSubmitDocument)
		r.Post("/v1/documents/batch", s.handleBatchDocuments)
		r.Get("/v1/jobs/{jobID}", s.handleJobStatus)
		r.Get("/v1/documents/{jobID}", s.handleDocumentStructure)
		r.Get("/v1/documents/{jobID}/chunks", s.handleDocumentChunks)
		r.Get("/v1/stats", s.handlePhaseStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
