// Package di wires the application's dependencies.
package di

import (
	"go.uber.org/zap"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/interaction"
	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/application/savedmaps"
	"github.com/adriaan-vdb/map-my-mind-WebApp/application/services"
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/config"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/observability"
	"github.com/adriaan-vdb/map-my-mind-WebApp/pkg/errors"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	LogLevel     zap.AtomicLevel
	Logger       *zap.Logger
	ErrorHandler *errors.ErrorHandler
	Metrics      *observability.Collector
	Tracer       *observability.TracerProvider
	KV           ports.KeyValueStore
	Repository   *savedmaps.Repository
	Collaborator ports.Collaborator
	Layout       ports.LayoutEngine
}

// Session is one interactive editing session: a graph store with the
// services and controller that act on it.
type Session struct {
	Store      *graph.Store
	Edits      *services.EditService
	Library    *savedmaps.Library
	Controller *interaction.Controller

	stopMetrics func()
}

// NewSession builds a session rendering to surface.
func (c *Container) NewSession(surface ports.Surface) *Session {
	store := graph.NewStore()
	edits := services.NewEditService(store, c.Collaborator, c.Layout, c.Logger)
	return &Session{
		Store:       store,
		Edits:       edits,
		Library:     savedmaps.NewLibrary(c.Repository, store, c.Logger),
		Controller:  interaction.NewController(edits, surface, c.Config.Editor.Settings(), c.Logger),
		stopMetrics: c.Metrics.ObserveStore(store),
	}
}

// Close detaches the session from the store.
func (s *Session) Close() {
	s.Controller.Close()
	s.stopMetrics()
}

// ApplyConfig pushes the reloadable parts of cfg into the running
// container and session.
func (c *Container) ApplyConfig(cfg *config.Config, session *Session) {
	if lvl, err := observability.ParseLevel(cfg.Logging.Level); err == nil {
		c.LogLevel.SetLevel(lvl.Level())
	}
	if session != nil {
		session.Controller.UpdateSettings(cfg.Editor.Settings())
	}
}
