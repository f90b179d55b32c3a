package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/theoremus-urban-solutions/gtfs-ingest/archive"
	"github.com/theoremus-urban-solutions/gtfs-ingest/fetch"
	"github.com/theoremus-urban-solutions/gtfs-ingest/gtfs"
)

// ErrLockContention reports that another worker holds the dataset's
// advisory lock; the dataset was skipped without fetching anything.
var ErrLockContention = errors.New("dataset locked by another worker")

// Outcome summarizes a completed dataset run.
type Outcome string

const (
	// OutcomeUpdated means a new snapshot was loaded and promoted.
	OutcomeUpdated Outcome = "updated"
	// OutcomeUnchanged means the remote feed matched the cache ledger.
	OutcomeUnchanged Outcome = "unchanged"
)

// Session is an advisory lock session pinned to one connection.
type Session interface {
	TryLock(ctx context.Context, key1, key2 int32) (bool, error)
	Unlock(ctx context.Context, key1, key2 int32) error
	Release()
}

// Store is the database behavior the runner drives.
type Store interface {
	Session(ctx context.Context) (Session, error)
	LoadSnapshot(ctx context.Context, ar *archive.Reader, spec gtfs.TableSpec, staging string) error
	Promote(ctx context.Context, staging, live string) error
}

// Fetcher downloads a dataset's archive unless it is unchanged.
type Fetcher interface {
	Fetch(ctx context.Context, ds gtfs.Dataset) (fetch.Result, error)
}

// Runner executes the ingestion pipeline for one dataset at a time:
// lock, conditional fetch, unlock, bulk load into staging, promote.
type Runner struct {
	Store   Store
	Fetcher Fetcher
	Spec    gtfs.TableSpec
	Log     zerolog.Logger
}

// fetchUnderLock performs the check-and-download phase under the
// dataset's advisory lock. The session and the lock are both scoped to
// this call; by the time it returns, the connection is back in the
// pool.
func (r *Runner) fetchUnderLock(ctx context.Context, ds gtfs.Dataset) (fetch.Result, error) {
	session, err := r.Store.Session(ctx)
	if err != nil {
		return fetch.Result{}, fmt.Errorf("open lock session: %w", err)
	}
	defer session.Release()

	key1, key2 := ds.LockKeys()
	locked, err := session.TryLock(ctx, key1, key2)
	if err != nil {
		return fetch.Result{}, fmt.Errorf("try lock %s: %w", ds.Name, err)
	}
	if !locked {
		return fetch.Result{}, fmt.Errorf("%w: %s", ErrLockContention, ds.Name)
	}
	defer func() {
		if err := session.Unlock(ctx, key1, key2); err != nil {
			r.Log.Warn().Err(err).Str("dataset", ds.Name).Msg("advisory unlock failed")
		}
	}()

	res, err := r.Fetcher.Fetch(ctx, ds)
	if err != nil {
		return fetch.Result{}, fmt.Errorf("fetch %s: %w", ds.Name, err)
	}
	return res, nil
}

// RunDataset processes a single dataset end to end. The advisory lock
// covers only the check-and-download phase; load and promote run after
// it is released. The downloaded archive and its temporary directory
// are removed before returning, whatever the outcome.
func (r *Runner) RunDataset(ctx context.Context, ds gtfs.Dataset) (Outcome, error) {
	log := r.Log.With().Str("dataset", ds.Name).Logger()

	res, err := r.fetchUnderLock(ctx, ds)
	if err != nil {
		return "", err
	}
	if res.State == fetch.Unchanged {
		log.Info().Msg("dataset unchanged")
		return OutcomeUnchanged, nil
	}
	defer os.RemoveAll(res.Dir)

	ar, err := archive.Open(res.Path)
	if err != nil {
		return "", fmt.Errorf("open archive for %s: %w", ds.Name, err)
	}
	defer ar.Close()

	staging := ds.StagingSchema(time.Now())
	if err := r.Store.LoadSnapshot(ctx, ar, r.Spec, staging); err != nil {
		return "", fmt.Errorf("load snapshot for %s: %w", ds.Name, err)
	}
	if err := r.Store.Promote(ctx, staging, ds.Schema()); err != nil {
		return "", fmt.Errorf("promote snapshot for %s: %w", ds.Name, err)
	}

	log.Info().Str("schema", ds.Schema()).Msg("dataset updated")
	return OutcomeUpdated, nil
}
