package config

import (
	"fmt"

	"github.com/scorely/scorely/pkg/formatting"
	"github.com/scorely/scorely/pkg/middleware"
	"github.com/scorely/scorely/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "SCORELY_CORS_ENABLED",
	Origins:          "SCORELY_CORS_ORIGINS",
	AllowedMethods:   "SCORELY_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "SCORELY_CORS_ALLOWED_HEADERS",
	AllowCredentials: "SCORELY_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "SCORELY_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "SCORELY_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "SCORELY_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, and pagination settings.
type APIConfig struct {
	BasePath    string                `toml:"base_path"`
	MaxBodySize string                `toml:"max_body_size"`
	CORS        middleware.CORSConfig `toml:"cors"`
	Pagination  pagination.Config     `toml:"pagination"`
}

// MaxBodySizeBytes returns the request body limit in bytes.
func (c *APIConfig) MaxBodySizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxBodySize)
	if err != nil {
		return 4 * 1024 * 1024 // 4MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	setDefault(&c.BasePath, "/api")
	setDefault(&c.MaxBodySize, "4MB")
}

func (c *APIConfig) loadEnv() {
	envString("SCORELY_API_BASE_PATH", &c.BasePath)
	envString("SCORELY_API_MAX_BODY_SIZE", &c.MaxBodySize)
}
