//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideErrorHandler,
	ProvideMetrics,
	ProvideTracing,
	ProvideKeyValueStore,
	ProvideRepository,
	ProvideCollaborator,
	ProvideLayoutEngine,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
