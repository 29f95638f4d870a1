package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// Ticket store backends reported by Postgres.Backend.
const (
	TicketStorePostgres = "postgres"
	TicketStoreMemory   = "memory"
)

// ErrTicketDBDisabled is returned by Ping when no DSN was configured.
var ErrTicketDBDisabled = errors.New("ticket database not configured")

// Postgres holds the pool behind the durable ticket store. A nil Pool means
// POSTGRES_DSN was empty and the service keeps tickets in memory instead;
// Enabled and Backend report which one is live.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres opens and pings the ticket database. An empty DSN is not an
// error: it yields a disabled handle so local runs work without a database.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		logger.Warn("POSTGRES_DSN not provided; tickets will be kept in memory and lost on restart")
		return &Postgres{}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	applyPoolLimits(poolCfg, cfg)
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = "helpdesk-service"
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("ticket store connected",
		zap.String("backend", TicketStorePostgres),
		zap.Int32("max_conns", poolCfg.MaxConns))
	return &Postgres{Pool: pool}, nil
}

func applyPoolLimits(poolCfg *pgxpool.Config, cfg config.PostgresConfig) {
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p.Enabled() {
		p.Pool.Close()
	}
}

// PoolHandle returns the pool, or nil when the store is in memory.
func (p *Postgres) PoolHandle() *pgxpool.Pool {
	if p == nil {
		return nil
	}
	return p.Pool
}

// Enabled reports whether tickets are persisted in Postgres.
func (p *Postgres) Enabled() bool {
	return p != nil && p.Pool != nil
}

// Backend names the live ticket store for the startup log.
func (p *Postgres) Backend() string {
	if p.Enabled() {
		return TicketStorePostgres
	}
	return TicketStoreMemory
}

// Ping checks the ticket database for the readiness check.
func (p *Postgres) Ping(ctx context.Context) error {
	if !p.Enabled() {
		return ErrTicketDBDisabled
	}
	return p.Pool.Ping(ctx)
}
