// Package web serves the catalog import API over HTTP.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/catalogimport/internal/config"
	"github.com/JonMunkholm/catalogimport/internal/core"
	mw "github.com/JonMunkholm/catalogimport/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes a core.Service as JSON endpoints.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer builds the router for service.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
	}
	s.router = s.routes()
	return s
}

// routes mounts:
//
//	GET  /healthz
//	GET  /api/import/endpoints
//	POST /api/import/{endpoint}           multipart field "file"
//	GET  /api/import/{endpoint}/history   ?limit=1..500
func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(mw.TrustedRealIP(s.cfg.Server.TrustedProxies))
	r.Use(mw.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiHeaders)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/import", func(r chi.Router) {
		r.Get("/endpoints", s.handleListEndpoints)
		r.Post("/{endpoint}", s.handleImport)
		r.Get("/{endpoint}/history", s.handleHistory)
	})
	return r
}

// Start listens on cfg.Server.Addr() until Shutdown is called.
func (s *Server) Start() error {
	sc := s.cfg.Server
	s.server = &http.Server{
		Addr:         sc.Addr(),
		Handler:      s.router,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		IdleTimeout:  sc.IdleTimeout,
	}

	slog.Info("listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections and waits for open requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router exposes the handler for httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

func apiHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// headers are already sent
		slog.Error("encode response", "error", err)
	}
}
