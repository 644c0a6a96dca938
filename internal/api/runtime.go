package api

import (
	"github.com/scorely/scorely/internal/config"
	"github.com/scorely/scorely/internal/infrastructure"
	"github.com/scorely/scorely/pkg/pagination"
)

// Runtime bundles shared infrastructure with API-level settings for
// injection into domain systems.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Gateway:   infra.Gateway,
		},
		Pagination: cfg.API.Pagination,
	}
}
