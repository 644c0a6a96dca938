// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/scorely/scorely/internal/config"
	"github.com/scorely/scorely/internal/infrastructure"
	"github.com/scorely/scorely/pkg/middleware"
	"github.com/scorely/scorely/pkg/module"
)

// NewModule wires the domain systems into an API module mounted at the
// configured base path, with CORS and request logging applied.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime, cfg.API.MaxBodySizeBytes())

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
