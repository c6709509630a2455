// Package cli implements the mindmap command line: saved-map management,
// one-shot generation and an interactive editor shell.
package cli

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/config"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/di"
)

// App holds global flags and the lazily built container.
type App struct {
	ConfigFile string
	Remote     string
	Storage    string
	LogLevel   string

	once      sync.Once
	closeOnce sync.Once
	container *di.Container
	cleanup   func()
	err       error
}

// NewAppWithContainer returns an App that uses c instead of loading
// configuration.
func NewAppWithContainer(c *di.Container) *App {
	a := &App{container: c, cleanup: func() {}}
	a.once.Do(func() {})
	return a
}

// Container loads configuration, applies flag overrides and wires the
// container on first use.
func (a *App) Container(ctx context.Context) (*di.Container, error) {
	a.once.Do(func() {
		a.container, a.cleanup, a.err = a.build(ctx)
	})
	return a.container, a.err
}

func (a *App) build(ctx context.Context) (*di.Container, func(), error) {
	if a.ConfigFile != "" {
		if err := os.Setenv("CONFIG_FILE", a.ConfigFile); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	a.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return di.InitializeContainer(ctx, cfg)
}

// applyOverrides sets the command line defaults and flags on cfg. It runs on
// the initial load and on every hot reload.
func (a *App) applyOverrides(cfg *config.Config) {
	cfg.Logging.Format = "console"
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.Logging.Level = "warn"
	}
	if a.LogLevel != "" {
		cfg.Logging.Level = a.LogLevel
	}
	if a.Storage != "" {
		cfg.Storage.Driver = a.Storage
	}
	if a.Remote != "" {
		cfg.LLM.Provider = config.ProviderRemote
		cfg.LLM.RemoteURL = a.Remote
	}
}

// reloadHandler applies a reloaded configuration to c and session, keeping
// the command line overrides.
func (a *App) reloadHandler(c *di.Container, session *di.Session) func(prev, next *config.Config) {
	return func(_, next *config.Config) {
		cfg := *next
		a.applyOverrides(&cfg)
		c.ApplyConfig(&cfg, session)
	}
}

// Close releases the container. Later calls do nothing.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.cleanup != nil {
			a.cleanup()
		}
	})
}
