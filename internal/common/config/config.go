// Package config provides configuration management for squadwatch.
// It supports loading configuration from a .env file, environment variables,
// config files, and defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration sections for squadwatch.
type Config struct {
	Backend  BackendConfig  `mapstructure:"backend"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Poller   PollerConfig   `mapstructure:"poller"`
	Server   ServerConfig   `mapstructure:"server"`
	UI       UIConfig       `mapstructure:"ui"`
	Database DatabaseConfig `mapstructure:"database"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// BackendConfig points at the squad orchestration backend.
type BackendConfig struct {
	APIURL         string `mapstructure:"apiUrl"`
	WSURL          string `mapstructure:"wsUrl"`
	RequestTimeout int    `mapstructure:"requestTimeout"` // in seconds
}

// SyncConfig tunes the websocket synchronization layer.
type SyncConfig struct {
	ReconnectInterval    int  `mapstructure:"reconnectInterval"` // in milliseconds
	MaxReconnectAttempts int  `mapstructure:"maxReconnectAttempts"`
	HeartbeatInterval    int  `mapstructure:"heartbeatInterval"` // in seconds, 0 disables
	FrameBuffer          int  `mapstructure:"frameBuffer"`
	UnsubscribeOnSwitch  bool `mapstructure:"unsubscribeOnSwitch"`
	SendOverWebSocket    bool `mapstructure:"sendOverWebSocket"`
	MessageHistoryLimit  int  `mapstructure:"messageHistoryLimit"`
}

// PollerConfig holds the REST refresh intervals.
type PollerConfig struct {
	SquadInterval  int    `mapstructure:"squadInterval"`  // in seconds
	HealthInterval int    `mapstructure:"healthInterval"` // in seconds
	StatusFilter   string `mapstructure:"statusFilter"`
}

// ServerConfig holds the local gateway HTTP server configuration.
type ServerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"readTimeout"`  // in seconds
	WriteTimeout int    `mapstructure:"writeTimeout"` // in seconds
}

// UIConfig selects the terminal presentation.
type UIConfig struct {
	TUI bool `mapstructure:"tui"`
}

// DatabaseConfig holds settings persistence configuration.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, postgres
	Path   string `mapstructure:"path"`   // sqlite file
	DSN    string `mapstructure:"dsn"`    // postgres connection string
}

// NATSConfig holds NATS messaging configuration. An empty URL selects the
// in-memory event bus.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ClientID      string `mapstructure:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// RequestTimeoutDuration returns the REST timeout as a time.Duration.
func (b *BackendConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(b.RequestTimeout) * time.Second
}

// ReconnectIntervalDuration returns the reconnect delay as a time.Duration.
func (s *SyncConfig) ReconnectIntervalDuration() time.Duration {
	return time.Duration(s.ReconnectInterval) * time.Millisecond
}

// HeartbeatIntervalDuration returns the heartbeat period as a time.Duration.
func (s *SyncConfig) HeartbeatIntervalDuration() time.Duration {
	return time.Duration(s.HeartbeatInterval) * time.Second
}

// SquadIntervalDuration returns the squad refresh period as a time.Duration.
func (p *PollerConfig) SquadIntervalDuration() time.Duration {
	return time.Duration(p.SquadInterval) * time.Second
}

// HealthIntervalDuration returns the health refresh period as a time.Duration.
func (p *PollerConfig) HealthIntervalDuration() time.Duration {
	return time.Duration(p.HealthInterval) * time.Second
}

// ReadTimeoutDuration returns the read timeout as a time.Duration.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration.
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// Addr returns the listen address of the gateway.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func detectDefaultLogFormat() string {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "json"
	}
	if env := os.Getenv("SQUADWATCH_ENV"); env == "production" || env == "prod" {
		return "json"
	}
	return "text"
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.apiUrl", "http://localhost:8002")
	v.SetDefault("backend.wsUrl", "ws://localhost:8002/ws")
	v.SetDefault("backend.requestTimeout", 15)

	v.SetDefault("sync.reconnectInterval", 3000)
	v.SetDefault("sync.maxReconnectAttempts", 10)
	v.SetDefault("sync.heartbeatInterval", 0)
	v.SetDefault("sync.frameBuffer", 256)
	v.SetDefault("sync.unsubscribeOnSwitch", true)
	v.SetDefault("sync.sendOverWebSocket", false)
	v.SetDefault("sync.messageHistoryLimit", 100)

	v.SetDefault("poller.squadInterval", 30)
	v.SetDefault("poller.healthInterval", 10)
	v.SetDefault("poller.statusFilter", "")

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	v.SetDefault("ui.tui", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./squadwatch.db")
	v.SetDefault("database.dsn", "")

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.clientId", "squadwatch")
	v.SetDefault("nats.maxReconnects", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.outputPath", "stderr")
}

// Load reads configuration from .env, environment variables, config file, and defaults.
// Environment variables use the prefix SQUADWATCH_ with the dotted key
// flattened by underscores (e.g. SQUADWATCH_BACKEND_APIURL).
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the specified path or default locations.
func LoadWithPath(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SQUADWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The dashboard front end was configured through NEXT_PUBLIC_* variables;
	// keep honoring them so existing deployments do not need new env names.
	_ = v.BindEnv("backend.apiUrl", "SQUADWATCH_BACKEND_API_URL", "NEXT_PUBLIC_API_URL")
	_ = v.BindEnv("backend.wsUrl", "SQUADWATCH_BACKEND_WS_URL", "NEXT_PUBLIC_WS_URL")
	_ = v.BindEnv("database.driver", "SQUADWATCH_DB_DRIVER")
	_ = v.BindEnv("database.path", "SQUADWATCH_DB_PATH")
	_ = v.BindEnv("database.dsn", "SQUADWATCH_DB_DSN")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/squadwatch/")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks that all required configuration fields are set.
func validate(cfg *Config) error {
	var errs []string

	if u, err := url.Parse(cfg.Backend.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, "backend.apiUrl must be an http(s) URL")
	}
	if u, err := url.Parse(cfg.Backend.WSURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		errs = append(errs, "backend.wsUrl must be a ws(s) URL")
	}
	if cfg.Backend.RequestTimeout <= 0 {
		errs = append(errs, "backend.requestTimeout must be positive")
	}

	if cfg.Sync.ReconnectInterval <= 0 {
		errs = append(errs, "sync.reconnectInterval must be positive")
	}
	if cfg.Sync.MaxReconnectAttempts < 0 {
		errs = append(errs, "sync.maxReconnectAttempts must not be negative")
	}
	if cfg.Sync.HeartbeatInterval < 0 {
		errs = append(errs, "sync.heartbeatInterval must not be negative")
	}
	if cfg.Sync.FrameBuffer <= 0 {
		errs = append(errs, "sync.frameBuffer must be positive")
	}
	if cfg.Sync.MessageHistoryLimit <= 0 {
		errs = append(errs, "sync.messageHistoryLimit must be positive")
	}

	if cfg.Poller.SquadInterval <= 0 {
		errs = append(errs, "poller.squadInterval must be positive")
	}
	if cfg.Poller.HealthInterval <= 0 {
		errs = append(errs, "poller.healthInterval must be positive")
	}

	if cfg.Server.Enabled && (cfg.Server.Port <= 0 || cfg.Server.Port > 65535) {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	switch cfg.Database.Driver {
	case "sqlite":
		if cfg.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite driver")
		}
	case "postgres":
		if cfg.Database.DSN == "" {
			errs = append(errs, "database.dsn is required for the postgres driver")
		}
	default:
		errs = append(errs, "database.driver must be one of: sqlite, postgres")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
