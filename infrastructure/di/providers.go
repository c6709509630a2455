package di

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/application/savedmaps"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/config"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/layout"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/llm"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/observability"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/persistence/kv"
	"github.com/adriaan-vdb/map-my-mind-WebApp/pkg/errors"
)

// ProvideLogLevel parses the configured level.
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	return observability.ParseLevel(cfg.Logging.Level)
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *errors.ErrorHandler {
	return errors.NewErrorHandler(logger, cfg.Server.Debug || cfg.IsDevelopment())
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("mapmymind")
}

// ProvideTracing installs the OTLP tracer provider when tracing is enabled.
// The provider is nil otherwise.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.Tracing.Enabled {
		return nil, func() {}, nil
	}
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Server.Environment,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise tracing: %w", err)
	}
	logger.Info("Tracing enabled", zap.String("endpoint", cfg.Tracing.Endpoint))
	return tp, func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}, nil
}

// ProvideKeyValueStore opens the configured storage backend
func ProvideKeyValueStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.KeyValueStore, func(), error) {
	store, err := kv.Open(ctx, cfg.Storage.Options(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	logger.Info("Storage opened", zap.String("driver", cfg.Storage.Driver))
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("Storage close failed", zap.Error(err))
		}
	}, nil
}

// ProvideRepository creates the saved-map repository
func ProvideRepository(store ports.KeyValueStore, metrics *observability.Collector, logger *zap.Logger) *savedmaps.Repository {
	return savedmaps.NewRepository(store, logger, savedmaps.WithMetrics(metrics))
}

// ProvideCollaborator selects the LLM collaborator
func ProvideCollaborator(cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) (ports.Collaborator, error) {
	switch cfg.LLM.Provider {
	case config.ProviderRemote:
		return llm.NewClient(cfg.LLM.RemoteURL, cfg.LLM.Timeout(), logger), nil
	case config.ProviderOpenAI:
		provider := llm.NewOpenAIProvider(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)
		return llm.NewService(provider, logger, llm.WithTimeout(cfg.LLM.Timeout()), llm.WithMetrics(metrics)), nil
	case config.ProviderMock:
		logger.Warn("Using mock LLM provider")
		return llm.NewService(llm.NewMockProvider(), logger, llm.WithTimeout(cfg.LLM.Timeout()), llm.WithMetrics(metrics)), nil
	}
	return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
}

// ProvideLayoutEngine creates the layout engine
func ProvideLayoutEngine(logger *zap.Logger) ports.LayoutEngine {
	return layout.NewEngine(logger)
}
