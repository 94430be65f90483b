// Package web serves the dashboard: the HTML overview, the JSON API and a
// WebSocket feed of live run progress.
package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/blockedby/autorecruit/internal/logger"
	"github.com/blockedby/autorecruit/internal/models"
	"github.com/blockedby/autorecruit/internal/repository"
)

// Config holds server configuration
type Config struct {
	Port           int
	Title          string
	AllowedOrigins []string
}

// HistorySource feeds the dashboard page.
type HistorySource interface {
	ListRuns(ctx context.Context, limit int) ([]models.Run, error)
	Stats(ctx context.Context) (*repository.DashboardStats, error)
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	config     *Config
	listener   net.Listener
	hub        *Hub // WebSocket Hub
	history    HistorySource
	pages      *TemplateEngine
	log        *logger.Logger
}

// NewServer creates a new HTTP server. history and hub may be nil; the
// corresponding routes are then not registered.
func NewServer(cfg *Config, history HistorySource, hub *Hub) (*Server, error) {
	pages, err := NewTemplateEngine(nil)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	if cfg.Title == "" {
		cfg.Title = "AutoRecruit"
	}

	srv := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		hub:     hub,
		history: history,
		pages:   pages,
		log:     logger.Get().Component("web"),
	}

	srv.setupMiddleware()
	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupMiddleware() {
	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
}

func (s *Server) setupRoutes() {
	// WebSocket
	if s.hub != nil {
		s.router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			ServeWs(s.hub, w, r)
		})
	}

	// Health endpoint
	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok","version":"dev"}`)); err != nil {
			_ = err // Client disconnected
		}
	})

	if s.history != nil {
		s.router.With(middleware.Timeout(30*time.Second), middleware.Compress(5)).
			Get("/", s.dashboard)
	}
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	runs, err := s.history.ListRuns(r.Context(), 20)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	stats, err := s.history.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Title": s.config.Title,
		"Runs":  runs,
		"Stats": stats,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.Render(w, "dashboard", data); err != nil {
		s.log.Error().Err(err).Msg("render dashboard")
	}
}

// Mount attaches a handler (the JSON API) under pattern.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

// Router exposes the router for additional routes such as API docs.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	// Create listener
	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s.httpServer.Serve(listener)
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// BaseURL returns the server's base URL
func (s *Server) BaseURL() string {
	if s.listener != nil {
		return fmt.Sprintf("http://%s", s.listener.Addr().String())
	}
	return fmt.Sprintf("http://localhost:%d", s.config.Port)
}

// ServeHTTP lets tests drive the router directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger logs each request through zerolog.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
