package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Session pins one pooled connection so that advisory locks, which
// Postgres scopes to the session, stay on a connection we control for
// their whole lifetime.
type Session struct {
	conn *pgxpool.Conn
	log  zerolog.Logger
}

// Session acquires a dedicated connection from the pool.
func (s *Store) Session(ctx context.Context) (*Session, error) {
	conn, err := s.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &Session{conn: conn, log: s.Log}, nil
}

// TryLock attempts the two-key advisory lock without blocking and
// reports whether it was acquired.
func (s *Session) TryLock(ctx context.Context, key1, key2 int32) (bool, error) {
	var locked bool
	err := s.conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1, $2)", key1, key2).Scan(&locked)
	if err != nil {
		return false, fmt.Errorf("try advisory lock (%d,%d): %w", key1, key2, err)
	}
	return locked, nil
}

// Unlock releases the advisory lock. The lock lives on the session, so
// if the unlock round trip fails the underlying connection is closed
// instead of going back into the pool still holding it.
func (s *Session) Unlock(ctx context.Context, key1, key2 int32) error {
	var released bool
	if err := s.conn.QueryRow(ctx, "SELECT pg_advisory_unlock($1, $2)", key1, key2).Scan(&released); err != nil {
		s.conn.Conn().Close(ctx)
		return fmt.Errorf("release advisory lock (%d,%d): %w", key1, key2, err)
	}
	if !released {
		s.log.Warn().Int32("key1", key1).Int32("key2", key2).Msg("advisory lock was not held")
	}
	return nil
}

// Release returns the connection to the pool.
func (s *Session) Release() {
	s.conn.Release()
}
