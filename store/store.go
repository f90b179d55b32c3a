package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Store wraps the Postgres connection pool every ingestion primitive
// runs against. The pool is owned by the Store; Close releases it.
type Store struct {
	Pool *pgxpool.Pool
	Log  zerolog.Logger
}

// Open connects to Postgres and verifies the connection with a ping.
// maxConns caps the pool size when positive.
func Open(ctx context.Context, connString string, maxConns int32, log zerolog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().Str("database", cfg.ConnConfig.Database).Msg("connected to postgres")
	return &Store{Pool: pool, Log: log}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.Pool.Close()
}
