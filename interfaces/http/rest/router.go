// Package rest assembles the HTTP API.
package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/application/savedmaps"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/observability"
	"github.com/adriaan-vdb/map-my-mind-WebApp/interfaces/http/rest/handlers"
	"github.com/adriaan-vdb/map-my-mind-WebApp/interfaces/http/rest/middleware"
	"github.com/adriaan-vdb/map-my-mind-WebApp/pkg/api"
	"github.com/adriaan-vdb/map-my-mind-WebApp/pkg/errors"
)

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	EnableCORS     bool
	// RequestTimeout bounds each API request; zero disables it.
	RequestTimeout time.Duration
	ProviderName   string
	StorageDriver  string
}

// Router creates and configures the HTTP router
type Router struct {
	collab       ports.Collaborator
	repo         *savedmaps.Repository
	metrics      *observability.Collector
	logger       *zap.Logger
	errorHandler *errors.ErrorHandler
	opts         Options
}

// NewRouter creates a new router instance. metrics may be nil.
func NewRouter(
	collab ports.Collaborator,
	repo *savedmaps.Repository,
	metrics *observability.Collector,
	logger *zap.Logger,
	errorHandler *errors.ErrorHandler,
	opts Options,
) *Router {
	return &Router{
		collab:       collab,
		repo:         repo,
		metrics:      metrics,
		logger:       logger,
		errorHandler: errorHandler,
		opts:         opts,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(middleware.RequestIDHeader)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	router.Use(rt.errorHandler.Middleware)
	if rt.metrics != nil {
		router.Use(rt.metrics.Middleware)
	}

	if rt.opts.EnableCORS {
		origins := rt.opts.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if rt.opts.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(rt.opts.RequestTimeout))
		}

		collab := handlers.NewCollaboratorHandler(rt.collab, rt.logger, rt.errorHandler)
		r.Post("/generate", collab.Generate)
		r.Post("/suggest", collab.Suggest)
		r.Post("/insight", collab.Insight)
		r.Post("/clusters", collab.Clusters)

		r.Route("/maps", func(r chi.Router) {
			maps := handlers.NewMapHandler(rt.repo, rt.logger, rt.errorHandler)
			r.Get("/", maps.ListMaps)
			r.Post("/cleanup", maps.CleanupMaps)
			r.Get("/{name}", maps.GetMap)
			r.Put("/{name}", maps.SaveMap)
			r.Delete("/{name}", maps.DeleteMap)
			r.Post("/{name}/rename", maps.RenameMap)
			r.Get("/{name}/export", maps.ExportMap)
			r.Post("/{name}/import", maps.ImportMap)
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := api.HealthResponse{
		Status:   "healthy",
		Provider: rt.opts.ProviderName,
		Storage:  rt.opts.StorageDriver,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		rt.logger.Error("Failed to encode health response", zap.Error(err))
	}
}
