// Package server exposes the engine over HTTP: one endpoint to process a
// document with a batch of questions, one to clear every cache.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Engine is the core surface the server fronts.
type Engine interface {
	Process(ctx context.Context, url string, questions []string) (map[string]string, error)
	ClearAllCaches(ctx context.Context) error
}

// Config holds server configuration.
type Config struct {
	Port      int
	AuthToken string // empty disables auth
	AllowAll  bool   // allow all CORS origins (dev mode)
}

// Server serves the document question-answering API.
type Server struct {
	cfg        Config
	engine     Engine
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server fronting the given engine.
func New(cfg Config, engine Engine) *Server {
	s := &Server{cfg: cfg, engine: engine}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/run", s.handleRun)
		r.Delete("/cache", s.handleClearCache)
	})

	return r
}

// Router returns the http.Handler (useful for tests).
func (s *Server) Router() http.Handler { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	log.Printf("server: listening on %s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
