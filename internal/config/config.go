package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/scorely/scorely/internal/gateway"
	"github.com/scorely/scorely/pkg/database"
	"github.com/scorely/scorely/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvScorelyEnv             = "SCORELY_ENV"
	EnvScorelyShutdownTimeout = "SCORELY_SHUTDOWN_TIMEOUT"
	EnvScorelyVersion         = "SCORELY_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "SCORELY_DB_HOST",
	Port:            "SCORELY_DB_PORT",
	Name:            "SCORELY_DB_NAME",
	User:            "SCORELY_DB_USER",
	Password:        "SCORELY_DB_PASSWORD",
	SSLMode:         "SCORELY_DB_SSL_MODE",
	MaxOpenConns:    "SCORELY_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "SCORELY_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "SCORELY_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "SCORELY_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "SCORELY_STORAGE_CONTAINER_NAME",
	ConnectionString: "SCORELY_STORAGE_CONNECTION_STRING",
}

var gatewayEnv = &gateway.Env{
	BaseURL:          "SCORELY_GATEWAY_BASE_URL",
	RequesterAddress: "SCORELY_GATEWAY_REQUESTER_ADDRESS",
	AppAddress:       "SCORELY_GATEWAY_APP_ADDRESS",
}

// Config is the root configuration for the Scorely service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	Gateway         gateway.Config  `toml:"gateway"`
	API             APIConfig       `toml:"api"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the SCORELY_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvScorelyEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.ShutdownTimeout)
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Gateway.Merge(&overlay.Gateway)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Gateway.Finalize(gatewayEnv); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	setDefault(&c.ShutdownTimeout, "30s")
	setDefault(&c.Version, "0.1.0")
}

func (c *Config) loadEnv() {
	envString(EnvScorelyShutdownTimeout, &c.ShutdownTimeout)
	envString(EnvScorelyVersion, &c.Version)
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvScorelyEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
