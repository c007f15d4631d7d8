package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Hassanibrar632/Automated-BookGen/internal/bookgen"
	"github.com/Hassanibrar632/Automated-BookGen/internal/config"
	"github.com/Hassanibrar632/Automated-BookGen/internal/llm"
	"github.com/Hassanibrar632/Automated-BookGen/internal/store"
)

// Server is the HTTP API server for the book service.
type Server struct {
	router chi.Router
	store  *store.Store
	gen    *bookgen.Generator
	runner *bookgen.Runner
	client *llm.Client
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(st *store.Store, gen *bookgen.Generator, runner *bookgen.Runner, client *llm.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		store:  st,
		gen:    gen,
		runner: runner,
		client: client,
		log:    log,
		cfg:    cfg,
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

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.BookgenAPIKey, s.log))

		r.Post("/api/books", s.handleCreateBook)
		r.Get("/api/books/{title}", s.handleGetBook)
		r.Patch("/api/books/{title}", s.handleUpdateBook)
		r.Delete("/api/books/{title}", s.handleDeleteBook)
		r.Get("/api/books/{title}/headings", s.handleListHeadings)

		r.Post("/api/books/{title}/generate", s.handleGenerate)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)

		r.Get("/api/books/{title}/export", s.handleExport)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// bookTitle extracts and unescapes the {title} route parameter.
func bookTitle(r *http.Request) string {
	return chi.URLParam(r, "title")
}
