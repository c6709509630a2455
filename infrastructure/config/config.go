// Package config loads application configuration from .env files, an
// optional YAML/JSON/TOML file and environment variables, in that order.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/interaction"
	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/persistence/kv"
	"github.com/adriaan-vdb/map-my-mind-WebApp/pkg/utils"
)

// LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
	ProviderRemote = "remote"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address            string   `json:"address" yaml:"address" toml:"address" validate:"required"`
	Environment        string   `json:"environment" yaml:"environment" toml:"environment" validate:"oneof=development staging production test"`
	EnableCORS         bool     `json:"enableCors" yaml:"enable_cors" toml:"enable_cors"`
	AllowedOrigins     []string `json:"allowedOrigins" yaml:"allowed_origins" toml:"allowed_origins"`
	ReadTimeoutSec     int      `json:"readTimeoutSec" yaml:"read_timeout_sec" toml:"read_timeout_sec" validate:"gte=0"`
	WriteTimeoutSec    int      `json:"writeTimeoutSec" yaml:"write_timeout_sec" toml:"write_timeout_sec" validate:"gte=0"`
	ShutdownTimeoutSec int      `json:"shutdownTimeoutSec" yaml:"shutdown_timeout_sec" toml:"shutdown_timeout_sec" validate:"gte=0"`
	Debug              bool     `json:"debug" yaml:"debug" toml:"debug"`
}

// StorageConfig selects the saved-map backend.
type StorageConfig struct {
	Driver         string `json:"driver" yaml:"driver" toml:"driver" validate:"oneof=memory sqlite postgres"`
	SQLitePath     string `json:"sqlitePath" yaml:"sqlite_path" toml:"sqlite_path"`
	PostgresURL    string `json:"postgresUrl" yaml:"postgres_url" toml:"postgres_url" validate:"required_if=Driver postgres"`
	MaxConns       int32  `json:"maxConns" yaml:"max_conns" toml:"max_conns" validate:"gte=0"`
	ConnectRetries int    `json:"connectRetries" yaml:"connect_retries" toml:"connect_retries" validate:"gte=0"`
	RetryDelayMs   int    `json:"retryDelayMs" yaml:"retry_delay_ms" toml:"retry_delay_ms" validate:"gte=0"`
}

// Options converts to kv.Options.
func (s StorageConfig) Options() kv.Options {
	return kv.Options{
		Driver:      s.Driver,
		SQLitePath:  s.SQLitePath,
		PostgresURL: s.PostgresURL,
		MaxConns:    s.MaxConns,
		Retries:     s.ConnectRetries,
		RetryDelay:  time.Duration(s.RetryDelayMs) * time.Millisecond,
	}
}

// LLMConfig selects the collaborator. The API key is only read from the
// environment.
type LLMConfig struct {
	Provider   string `json:"provider" yaml:"provider" toml:"provider" validate:"oneof=openai mock remote"`
	APIKey     string `json:"-" yaml:"-" toml:"-"`
	Model      string `json:"model" yaml:"model" toml:"model"`
	BaseURL    string `json:"baseUrl" yaml:"base_url" toml:"base_url" validate:"omitempty,url"`
	RemoteURL  string `json:"remoteUrl" yaml:"remote_url" toml:"remote_url" validate:"required_if=Provider remote"`
	TimeoutSec int    `json:"timeoutSec" yaml:"timeout_sec" toml:"timeout_sec" validate:"gt=0"`
}

// Timeout returns the per-call timeout.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSec) * time.Second
}

// EditorConfig holds the interaction tunables. It is the part of the
// configuration the watcher reloads at runtime.
type EditorConfig struct {
	OverlayDebounceMs  int                 `json:"overlayDebounceMs" yaml:"overlay_debounce_ms" toml:"overlay_debounce_ms" validate:"gte=1,lte=1000"`
	ToolbarOffset      float64             `json:"toolbarOffset" yaml:"toolbar_offset" toml:"toolbar_offset" validate:"gte=0"`
	DefaultDetailLevel int                 `json:"defaultDetailLevel" yaml:"default_detail_level" toml:"default_detail_level" validate:"gte=1,lte=5"`
	MenuWidth          float64             `json:"menuWidth" yaml:"menu_width" toml:"menu_width" validate:"gte=0"`
	MenuHeight         float64             `json:"menuHeight" yaml:"menu_height" toml:"menu_height" validate:"gte=0"`
	Layout             ports.LayoutOptions `json:"layout" yaml:"layout" toml:"layout"`
}

// Settings converts to controller settings.
func (e EditorConfig) Settings() interaction.Settings {
	return interaction.Settings{
		OverlayDebounce:    time.Duration(e.OverlayDebounceMs) * time.Millisecond,
		ToolbarOffset:      e.ToolbarOffset,
		DefaultDetailLevel: e.DefaultDetailLevel,
		MenuWidth:          e.MenuWidth,
		MenuHeight:         e.MenuHeight,
		Layout:             e.Layout,
	}
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" toml:"format" validate:"oneof=json console"`
}

type TracingConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled" toml:"enabled"`
	Endpoint    string  `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	ServiceName string  `json:"serviceName" yaml:"service_name" toml:"service_name"`
	SampleRatio float64 `json:"sampleRatio" yaml:"sample_ratio" toml:"sample_ratio" validate:"gte=0,lte=1"`
}

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig  `json:"server" yaml:"server" toml:"server"`
	Storage       StorageConfig `json:"storage" yaml:"storage" toml:"storage"`
	LLM           LLMConfig     `json:"llm" yaml:"llm" toml:"llm"`
	Editor        EditorConfig  `json:"editor" yaml:"editor" toml:"editor"`
	Logging       LoggingConfig `json:"logging" yaml:"logging" toml:"logging"`
	Tracing       TracingConfig `json:"tracing" yaml:"tracing" toml:"tracing"`
	EnableMetrics bool          `json:"enableMetrics" yaml:"enable_metrics" toml:"enable_metrics"`

	// File is the configuration file the values were read from, if any.
	File string `json:"-" yaml:"-" toml:"-"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	s := interaction.DefaultSettings()
	return &Config{
		Server: ServerConfig{
			Address:            ":8080",
			Environment:        "development",
			EnableCORS:         true,
			AllowedOrigins:     []string{"*"},
			ReadTimeoutSec:     15,
			WriteTimeoutSec:    90,
			ShutdownTimeoutSec: 10,
		},
		Storage: StorageConfig{
			Driver:         kv.DriverSQLite,
			SQLitePath:     filepath.Join("data", "mindmaps.db"),
			MaxConns:       5,
			ConnectRetries: 5,
			RetryDelayMs:   500,
		},
		LLM: LLMConfig{
			TimeoutSec: 60,
		},
		Editor: EditorConfig{
			OverlayDebounceMs:  int(s.OverlayDebounce / time.Millisecond),
			ToolbarOffset:      s.ToolbarOffset,
			DefaultDetailLevel: s.DefaultDetailLevel,
			MenuWidth:          s.MenuWidth,
			MenuHeight:         s.MenuHeight,
			Layout:             s.Layout,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Tracing: TracingConfig{ServiceName: "map-my-mind", SampleRatio: 1},
	}
}

// LoadConfig reads .env files, then CONFIG_FILE if set, then the
// environment.
func LoadConfig() (*Config, error) {
	for _, f := range []string{".env.local", ".env"} {
		// godotenv never overrides variables that are already set, so the
		// first file wins.
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return Load(os.Getenv("CONFIG_FILE"))
}

// Load builds a configuration from defaults, the file at path (skipped when
// empty) and the environment, and validates it.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
		cfg.File = path
	}
	applyEnv(cfg)

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderMock
		if cfg.LLM.APIKey != "" {
			cfg.LLM.Provider = ProviderOpenAI
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	case ".toml":
		_, err = toml.Decode(string(data), cfg)
	default:
		return fmt.Errorf("unsupported config file type %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Address = getEnv("SERVER_ADDRESS", cfg.Server.Address)
	cfg.Server.Environment = getEnv("ENVIRONMENT", cfg.Server.Environment)
	cfg.Server.EnableCORS = getEnvBool("ENABLE_CORS", cfg.Server.EnableCORS)
	cfg.Server.AllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Server.Debug = getEnvBool("DEBUG", cfg.Server.Debug)

	cfg.Storage.Driver = getEnv("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.SQLitePath = getEnv("SQLITE_PATH", cfg.Storage.SQLitePath)
	cfg.Storage.PostgresURL = getEnv("DATABASE_URL", cfg.Storage.PostgresURL)
	cfg.Storage.MaxConns = int32(getEnvInt("DB_MAX_CONNS", int(cfg.Storage.MaxConns)))

	cfg.LLM.Provider = getEnv("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.APIKey = getEnv("OPENAI_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.RemoteURL = getEnv("REMOTE_API_URL", cfg.LLM.RemoteURL)
	cfg.LLM.TimeoutSec = getEnvInt("LLM_TIMEOUT_SECONDS", cfg.LLM.TimeoutSec)

	cfg.Editor.OverlayDebounceMs = getEnvInt("OVERLAY_DEBOUNCE_MS", cfg.Editor.OverlayDebounceMs)
	cfg.Editor.ToolbarOffset = getEnvFloat("TOOLBAR_OFFSET", cfg.Editor.ToolbarOffset)
	cfg.Editor.DefaultDetailLevel = getEnvInt("DEFAULT_DETAIL_LEVEL", cfg.Editor.DefaultDetailLevel)
	cfg.Editor.Layout.Name = getEnv("LAYOUT_NAME", cfg.Editor.Layout.Name)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)

	cfg.EnableMetrics = getEnvBool("ENABLE_METRICS", cfg.EnableMetrics)
	cfg.Tracing.Enabled = getEnvBool("ENABLE_TRACING", cfg.Tracing.Enabled)
	cfg.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.ServiceName = getEnv("SERVICE_NAME", cfg.Tracing.ServiceName)
}

// Validate checks field constraints and production requirements.
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	if c.IsProduction() && c.LLM.Provider == ProviderMock {
		return fmt.Errorf("LLM_PROVIDER=mock is not allowed in production")
	}
	if c.LLM.Provider == ProviderOpenAI && c.LLM.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
