// Package web hosts the cleaning widget over HTTP.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/refinery/internal/config"
	"github.com/JonMunkholm/refinery/internal/core"
	weblog "github.com/JonMunkholm/refinery/internal/web/middleware"
	"github.com/JonMunkholm/refinery/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size limit for the
// multipart envelope, so the loader reports ErrTooLarge for the file itself.
const multipartOverhead = 1 << 20

// Server is the HTTP server for the cleaning widget.
type Server struct {
	ctrl   *core.Controller
	cfg    *config.Config
	router *chi.Mux
	server *http.Server
	now    func() time.Time
}

// NewServer creates a new Server around ctrl.
func NewServer(ctrl *core.Controller, cfg *config.Config) *Server {
	s := &Server{
		ctrl:   ctrl,
		cfg:    cfg,
		router: chi.NewRouter(),
		now:    time.Now,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(weblog.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5, "text/html", "application/json", "text/csv"))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handlePage)
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Dataset lifecycle
		r.Post("/load", s.handleLoad)
		r.Post("/ops/{opID}", s.handleApply)
		r.Get("/export", s.handleExport)
		r.Post("/clear", s.handleClear)

		// Read-only views
		r.Get("/state", s.handleState)
		r.Get("/ops", s.handleListOps)

		// Notifications
		r.Post("/notifications/{id}/dismiss", s.handleDismiss)

		// Executor lifecycle
		r.Post("/engine/bootstrap", s.handleBootstrap)
		r.Get("/engine/status", s.handleEngineStatus)
	})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	csp := "default-src 'self'; script-src 'self' 'unsafe-inline' https://unpkg.com; " +
		"style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self'"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			// htmx is the only third-party script; toasts use inline handlers
			if enableCSP {
				w.Header().Set("Content-Security-Policy", csp)
			}

			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// widgetParams assembles the current view of the controller.
func (s *Server) widgetParams() templates.WidgetParams {
	return templates.WidgetParams{
		Snapshot: s.ctrl.Snapshot(),
		Ops:      operations(),
		Now:      s.now(),
	}
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
