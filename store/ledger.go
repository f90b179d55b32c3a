package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Ledger records per-dataset HTTP revalidation metadata in the
// gtfs_meta.feed_meta table. The table is created lazily on first use
// so a fresh database needs no manual setup.
type Ledger struct {
	pool *pgxpool.Pool
	log  zerolog.Logger

	mu    sync.Mutex
	ready bool
}

// Ledger returns the cache ledger backed by this store.
func (s *Store) Ledger() *Ledger {
	return &Ledger{pool: s.Pool, log: s.Log}
}

// ensure creates the metadata schema and table if they do not exist
// yet. A failed attempt is retried on the next call.
func (l *Ledger) ensure(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ready {
		return nil
	}

	if _, err := l.pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS gtfs_meta"); err != nil {
		return fmt.Errorf("create metadata schema: %w", err)
	}
	const ddl = `CREATE TABLE IF NOT EXISTS gtfs_meta.feed_meta (
		dataset text PRIMARY KEY,
		etag text,
		last_modified text,
		fetched_at timestamptz
	)`
	if _, err := l.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create metadata table: %w", err)
	}

	l.ready = true
	l.log.Debug().Msg("cache ledger ready")
	return nil
}

// Read returns the stored ETag and Last-Modified values for a dataset.
// ok is false when the dataset has never been fetched.
func (l *Ledger) Read(ctx context.Context, dataset string) (etag, lastModified string, ok bool, err error) {
	if err := l.ensure(ctx); err != nil {
		return "", "", false, err
	}

	const query = `SELECT COALESCE(etag, ''), COALESCE(last_modified, '')
		FROM gtfs_meta.feed_meta WHERE dataset = $1`
	err = l.pool.QueryRow(ctx, query, dataset).Scan(&etag, &lastModified)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("read feed metadata for %s: %w", dataset, err)
	}
	return etag, lastModified, true, nil
}

// Write upserts the revalidation metadata observed by the latest
// download.
func (l *Ledger) Write(ctx context.Context, dataset, etag, lastModified string, fetchedAt time.Time) error {
	if err := l.ensure(ctx); err != nil {
		return err
	}

	const upsert = `INSERT INTO gtfs_meta.feed_meta (dataset, etag, last_modified, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (dataset) DO UPDATE SET
			etag = EXCLUDED.etag,
			last_modified = EXCLUDED.last_modified,
			fetched_at = EXCLUDED.fetched_at`
	if _, err := l.pool.Exec(ctx, upsert, dataset, etag, lastModified, fetchedAt); err != nil {
		return fmt.Errorf("record feed metadata for %s: %w", dataset, err)
	}
	return nil
}
