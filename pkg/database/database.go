// Package database manages the PostgreSQL connection pool and ties its
// health to application lifecycle.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/scorely/scorely/pkg/lifecycle"
)

// System exposes the shared connection pool to domain modules.
type System interface {
	// Connection returns the pooled *sql.DB handle.
	Connection() *sql.DB
	// Start registers the readiness ping and shutdown close with the coordinator.
	Start(lc *lifecycle.Coordinator) error
}

type postgres struct {
	pool        *sql.DB
	logger      *slog.Logger
	pingTimeout time.Duration
}

// New opens the pool described by cfg. sql.Open validates the DSN and sets
// pool parameters without dialing; the first connection is made by the
// startup ping in Start.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	pool, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &postgres{
		pool:        pool,
		logger:      logger.With("system", "database"),
		pingTimeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func (p *postgres) Connection() *sql.DB {
	return p.pool
}

func (p *postgres) Start(lc *lifecycle.Coordinator) error {
	p.logger.Info("starting database connection")

	lc.OnStartup(func() {
		ctx, cancel := context.WithTimeout(lc.Context(), p.pingTimeout)
		defer cancel()

		if err := p.pool.PingContext(ctx); err != nil {
			p.logger.Error("database ping failed", "error", err)
			return
		}
		p.logger.Info("database connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		p.logger.Info("closing database connection")

		if err := p.pool.Close(); err != nil {
			p.logger.Error("database close failed", "error", err)
			return
		}
		p.logger.Info("database connection closed")
	})

	return nil
}
