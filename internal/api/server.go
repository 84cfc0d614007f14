package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/webmark/internal/config"
	"github.com/dgallion1/webmark/internal/fetch"
	"github.com/dgallion1/webmark/internal/page"
	"github.com/dgallion1/webmark/internal/pipeline"
)

// Server is the HTTP API server for webmark.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	fetcher      *fetch.Client
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. fetcher may be nil, in
// which case fetch stats are reported as unavailable.
func NewServer(orch *pipeline.Orchestrator, fetcher *fetch.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
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
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/convert", s.handleConvert)
		r.Post("/api/scrape", s.handleScrape)
		r.Post("/api/scrape/upload", s.handleUpload)
		r.Get("/api/scrape/{jobID}", s.handleScrapeStatus)
		r.Get("/api/stats/fetch", s.handleFetchStats)
	})

	s.router = r
}

// converter returns a converter for one request. Fetching is never done on
// the request path, so it carries no fetcher.
func (s *Server) converter(opts page.Options) *page.Converter {
	return &page.Converter{Log: s.log, Opts: opts}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
