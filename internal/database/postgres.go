package database

import (
	"context"
	"fmt"
	"time"

	"github.com/busseva/busseva-backend/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// NewPostgresPool creates a PostgreSQL connection pool.
// The pool connects lazily, so an unreachable server at startup is logged
// rather than returned; requests fail until connectivity is restored.
func NewPostgresPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxDBConns
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	if poolCfg.ConnConfig.ConnectTimeout == 0 {
		poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	logEvent := func(e *zerolog.Event) *zerolog.Event {
		return e.Str("host", poolCfg.ConnConfig.Host).Str("database", poolCfg.ConnConfig.Database)
	}

	if err := pool.Ping(pingCtx); err != nil {
		logEvent(log.Error()).Err(err).Msg("PostgreSQL unreachable, continuing without store")
		return pool, nil
	}

	logEvent(log.Info()).
		Int32("max_conns", cfg.MaxDBConns).
		Msg("PostgreSQL connected")

	return pool, nil
}
