// CLAUDE:SUMMARY HTTP surface — chi routes, embedded pages and static assets, wiring for the research pipeline.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JohanWes/deepresearch/config"
	"github.com/JohanWes/deepresearch/research"
	"github.com/JohanWes/deepresearch/search"
	"github.com/JohanWes/deepresearch/store"
)

//go:embed templates static
var assetFS embed.FS

// Extractor is what the pipeline controller needs from the content
// extractor.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, bool)
}

// Orchestrator runs the synthesis phase of a request.
type Orchestrator interface {
	Run(ctx context.Context, sink research.EventSink, job research.Job)
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Searcher     search.Searcher
	Extractor    Extractor
	Orchestrator Orchestrator
	Results      *store.Results
	Usage        store.UsageStore
}

// Server holds the handlers and their dependencies.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	deps   Deps

	loginTmpl  *template.Template
	appTmpl    *template.Template
	resultTmpl *template.Template
}

func New(cfg *config.Config, logger *slog.Logger, deps Deps) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:        cfg,
		logger:     logger.With("component", "server"),
		deps:       deps,
		loginTmpl: template.Must(template.ParseFS(assetFS, "templates/login.html")),
		appTmpl:   template.Must(template.ParseFS(assetFS, "templates/app.html")),
		resultTmpl: template.Must(template.New("result.html").
			Funcs(template.FuncMap{"addOne": func(i int) int { return i + 1 }}).
			ParseFS(assetFS, "templates/result.html")),
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHome)
	r.Post("/login", s.handleLogin)
	r.Get("/research/{id}", s.handleResult)
	r.Handle("/static/*", http.FileServer(http.FS(assetFS)))

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/api/models", s.handleModels)
		r.Post("/process-and-summarize", s.handleProcess)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Post("/search", s.handleSearch)
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
