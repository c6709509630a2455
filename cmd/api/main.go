package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/config"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/di"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/observability"
	"github.com/adriaan-vdb/map-my-mind-WebApp/interfaces/http/rest"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()
	logger := container.Logger

	if cfg.File != "" {
		watcher, err := config.NewWatcher(cfg, logger)
		if err != nil {
			logger.Warn("Config hot reload disabled", zap.Error(err))
		} else {
			watcher.OnChange(func(_, next *config.Config) { container.ApplyConfig(next, nil) })
			watcher.Start()
			defer watcher.Stop()
		}
	}

	var metrics *observability.Collector
	if cfg.EnableMetrics {
		metrics = container.Metrics
	}
	router := rest.NewRouter(
		container.Collaborator,
		container.Repository,
		metrics,
		logger,
		container.ErrorHandler,
		rest.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			EnableCORS:     cfg.Server.EnableCORS,
			RequestTimeout: cfg.LLM.Timeout() + 5*time.Second,
			ProviderName:   cfg.LLM.Provider,
			StorageDriver:  cfg.Storage.Driver,
		},
	)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router.Setup(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.Server.Address),
			zap.String("environment", cfg.Server.Environment),
			zap.String("llm_provider", cfg.LLM.Provider),
			zap.String("storage", cfg.Storage.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		logger.Info("Shutting down server...", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	logger.Info("Server stopped")
}
