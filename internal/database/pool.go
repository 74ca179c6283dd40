// Package database holds the optional PostgreSQL pool. The service owns no
// schema; the pool backs the readiness probe and is available to future handlers.
package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	zerologadapter "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/multitracer"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"
)

// ErrNotStarted is returned by Check before Start or after Stop.
var ErrNotStarted = errors.New("database pool not started")

// Options configures the pool.
type Options struct {
	URL      string
	MaxConns int
	// NewRelic adds datastore segments to the transaction in the query context.
	NewRelic bool
}

// Pool is the pgx pool as a lifecycle component.
type Pool struct {
	opts   Options
	logger zerolog.Logger

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

// NewPool returns an unstarted Pool.
func NewPool(opts Options, logger zerolog.Logger) *Pool {
	return &Pool{
		opts:   opts,
		logger: logger.With().Str("component", "database").Logger(),
	}
}

// poolConfig parses the URL and installs the query tracers.
func (p *Pool) poolConfig() (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(p.opts.URL)
	if err != nil {
		// pgx includes the URL in some parse errors
		return nil, errors.New("parse database url: invalid connection string")
	}
	if p.opts.MaxConns > 0 {
		cfg.MaxConns = int32(p.opts.MaxConns)
	}

	var tracer pgx.QueryTracer = &tracelog.TraceLog{
		Logger:   zerologadapter.NewLogger(p.logger),
		LogLevel: tracelog.LogLevelWarn,
	}
	if p.opts.NewRelic {
		tracer = multitracer.New(tracer, nrpgx5.NewTracer())
	}
	cfg.ConnConfig.Tracer = tracer
	return cfg, nil
}

func (p *Pool) Name() string { return "database" }

// Start creates the pool. Connections are opened lazily, so an unreachable
// server shows up in Check rather than failing startup.
func (p *Pool) Start(ctx context.Context) error {
	cfg, err := p.poolConfig()
	if err != nil {
		return err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}

	p.mu.Lock()
	p.pool = pool
	p.mu.Unlock()

	p.logger.Info().
		Str("host", cfg.ConnConfig.Host).
		Str("database", cfg.ConnConfig.Database).
		Int32("max_conns", cfg.MaxConns).
		Msg("database pool created")
	return nil
}

func (p *Pool) Stop(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
	return nil
}

// Check pings the server.
func (p *Pool) Check(ctx context.Context) error {
	p.mu.RLock()
	pool := p.pool
	p.mu.RUnlock()
	if pool == nil {
		return ErrNotStarted
	}
	return pool.Ping(ctx)
}

// Pool returns the underlying pool, nil when not started.
func (p *Pool) Pool() *pgxpool.Pool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pool
}
