// Package postgres archives alert rows in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/boom-astro/babamul/internal/config"
	"github.com/boom-astro/babamul/internal/observability"
	"github.com/boom-astro/babamul/internal/storage"
)

// uniqueViolation is the SQLSTATE of a primary key conflict.
const uniqueViolation = "23505"

// Pool is a pgx pool that times its queries into the DB metrics.
type Pool struct {
	*pgxpool.Pool
}

// NewPool validates cfg, connects and pings the server.
func NewPool(ctx context.Context, cfg config.PostgresConfig) (*Pool, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: parse postgres dsn: %v", storage.ErrInvalidInput, err)
	}
	pcfg.MaxConns = cfg.MaxConns
	if cfg.ConnectTimeout > 0 {
		pcfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

// observe starts timing operation. Call the result when the query is done.
func (p *Pool) observe(operation string) func() {
	start := time.Now()
	return func() {
		observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds())
	}
}

// storeError maps driver errors onto the storage sentinels and wraps the rest with what.
func storeError(err error, what string) error {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return storage.ErrDuplicateKey
	case errors.Is(err, pgx.ErrNoRows):
		return storage.ErrNotFound
	}
	return fmt.Errorf("%s: %w", what, err)
}
