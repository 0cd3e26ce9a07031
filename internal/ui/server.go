// Package ui serves the editor front-end: the rendered page, its static
// assets, and the JSON action endpoints the page script calls. Handlers only
// translate HTTP to session operations; all editing logic lives in the
// editor package, all privileged work behind the host client.
package ui

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mgruber/texpad/internal/config"
	"github.com/mgruber/texpad/internal/editor"
)

//go:embed static
var staticFS embed.FS

// Backend is everything the UI needs from the host process.
type Backend interface {
	editor.Backend
	DebugInfo(ctx context.Context) (string, error)
}

// Server holds the UI host's HTTP surface.
type Server struct {
	cfg      config.Config
	log      *slog.Logger
	backend  Backend
	registry *Registry
}

func NewServer(cfg config.Config, backend Backend, log *slog.Logger) *Server {
	s := &Server{cfg: cfg, log: log, backend: backend}
	s.registry = NewRegistry(func() *editor.Session {
		return editor.NewSession(backend, editor.Options{
			AutosaveEnabled: cfg.AutosaveEnabled,
			AutosaveDelay:   cfg.AutosaveDelay(),
		}, log.With("component", "session"))
	})
	return s
}

// Registry exposes the session registry for sweeping and shutdown.
func (s *Server) Registry() *Registry { return s.registry }

// Router builds the chi router for the UI host.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.DevOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/", s.handlePage)

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireSession(s.registry))
		r.Get("/state", s.handleState)
		r.Post("/edit", s.handleEdit)
		r.Post("/file/new", s.handleNew)
		r.Post("/file/open", s.handleOpen)
		r.Post("/file/save", s.handleSave)
		r.Post("/file/save-as", s.handleSaveAs)
		r.Post("/file/template", s.handleTemplate)
		r.Post("/build", s.handleBuild)
		r.Post("/requirements/recheck", s.handleRecheck)
		r.Post("/landing/continue", s.handleContinue)
		r.Post("/autosave", s.handleAutosave)
		r.Post("/logpanel", s.handleLogPanel)
		r.Post("/notice/dismiss", s.handleDismissNotice)
		r.Get("/debug", s.handleDebug)
	})

	return r
}

// SweepLoop closes idle sessions until the context is cancelled.
func (s *Server) SweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.registry.Sweep(); n > 0 {
				s.log.Info("swept idle sessions", "count", n)
			}
		}
	}
}
