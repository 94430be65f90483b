package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
)

// Server represents the Fuego API server.
type Server struct {
	fuego   *fuego.Server
	deps    *Dependencies
	version string
}

// Dependencies contains all service dependencies.
type Dependencies struct {
	HistoryRepo HistoryRepository
	StatsRepo   StatsRepository
	Hub         HubBroadcaster
}

// Config holds API server configuration.
type Config struct {
	Port        int
	Title       string
	Description string
	Version     string
}

// NewServer creates a new Fuego API server.
func NewServer(cfg *Config, deps *Dependencies) *Server {
	s := fuego.NewServer(
		fuego.WithAddr(fmt.Sprintf(":%d", cfg.Port)),
		fuego.WithEngineOptions(
			fuego.WithOpenAPIConfig(fuego.OpenAPIConfig{
				PrettyFormatJSON: true,
				DisableLocalSave: true,
				SwaggerURL:       "/docs",
				SpecURL:          "/openapi.json",
				UIHandler: func(specURL string) http.Handler {
					return ScalarHandler(specURL, cfg.Title, cfg.Description)
				},
			}),
		),
	)

	// Set OpenAPI info
	s.OpenAPI.Description().Info.Title = cfg.Title
	s.OpenAPI.Description().Info.Description = cfg.Description
	s.OpenAPI.Description().Info.Version = cfg.Version

	// Add Chi middleware (Fuego is net/http compatible)
	fuego.Use(s, middleware.RequestID)
	fuego.Use(s, middleware.RealIP)
	fuego.Use(s, middleware.Recoverer)

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	srv := &Server{
		fuego:   s,
		deps:    deps,
		version: version,
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) registerRoutes() {
	// Health check
	fuego.Get(s.fuego, "/health", s.healthCheck,
		option.Summary("Health Check"),
		option.Description("Returns the health status of the API"),
		option.Tags("System"),
	)

	// Runs API
	fuego.Get(s.fuego, "/api/v1/runs", s.listRuns,
		option.Summary("List Runs"),
		option.Description("Returns the most recent outreach runs, newest first"),
		option.Query("limit", "Maximum number of runs (default: 50, max: 500)"),
		option.Tags("Runs"),
	)

	fuego.Get(s.fuego, "/api/v1/runs/{id}", s.getRun,
		option.Summary("Get Run"),
		option.Description("Returns a single run by ID"),
		option.Tags("Runs"),
	)

	fuego.Get(s.fuego, "/api/v1/runs/{id}/entries", s.listEntries,
		option.Summary("List Run Entries"),
		option.Description("Returns the delivery log of a run in send order"),
		option.Tags("Runs"),
	)

	fuego.GetStd(s.fuego, "/api/v1/runs/{id}/log.csv", s.downloadLog,
		option.Summary("Download Delivery Log"),
		option.Description("Returns the delivery log of a run as CSV"),
		option.Tags("Runs"),
	)

	fuego.Delete(s.fuego, "/api/v1/entries", s.clearEntries,
		option.Summary("Clear History"),
		option.Description("Deletes all runs and delivery entries"),
		option.Tags("Runs"),
	)

	// Stats API
	fuego.Get(s.fuego, "/api/v1/stats", s.getStats,
		option.Summary("Get Statistics"),
		option.Description("Returns sent and failed totals across all runs"),
		option.Tags("Analytics"),
	)

	// Template preview
	fuego.Post(s.fuego, "/api/v1/preview", s.previewTemplate,
		option.Summary("Preview Template"),
		option.Description("Renders a subject and body against one contact's fields"),
		option.Tags("Templates"),
	)
}

// Handler returns the API as an http.Handler for mounting on another router.
func (s *Server) Handler() http.Handler {
	return s.fuego.Mux
}

// MountDocsOn mounts the OpenAPI documentation routes (/docs, /openapi.json)
// on a Chi router. This allows using Fuego's OpenAPI generation with an
// existing router.
func (s *Server) MountDocsOn(r interface {
	Get(pattern string, handlerFn http.HandlerFunc)
}, title, description string) {
	// Serve Scalar UI directly at /docs
	scalarHandler := ScalarHandler("/openapi.json", title, description)
	r.Get("/docs", func(w http.ResponseWriter, req *http.Request) {
		scalarHandler.ServeHTTP(w, req)
	})

	// Serve OpenAPI spec from Fuego's generated schema
	r.Get("/openapi.json", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		spec := s.fuego.OpenAPI.Description()
		if err := json.NewEncoder(w).Encode(spec); err != nil {
			http.Error(w, "Failed to encode OpenAPI spec", http.StatusInternalServerError)
		}
	})
}
