package kv

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string
	SQLitePath  string
	PostgresURL string
	MaxConns    int32
	Retries     int
	RetryDelay  time.Duration
}

// Open returns the backend named by opts.Driver.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (ports.KeyValueStore, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, "":
		return NewSQLiteStore(opts.SQLitePath)
	case DriverPostgres:
		return NewPostgresStore(ctx, PostgresConfig{
			URL:            opts.PostgresURL,
			MaxConns:       opts.MaxConns,
			ConnectRetries: opts.Retries,
			RetryDelay:     opts.RetryDelay,
		}, logger)
	}
	return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
}
