package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Promote replaces the live schema with the staging schema. The drop
// and rename run in one transaction, so a failure leaves the previous
// live schema untouched and the staging schema still present for
// inspection.
func (s *Store) Promote(ctx context.Context, staging, live string) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin promote transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	drop := fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pgx.Identifier{live}.Sanitize())
	if _, err := tx.Exec(ctx, drop); err != nil {
		return fmt.Errorf("drop schema %s: %w", live, err)
	}

	rename := fmt.Sprintf("ALTER SCHEMA %s RENAME TO %s",
		pgx.Identifier{staging}.Sanitize(), pgx.Identifier{live}.Sanitize())
	if _, err := tx.Exec(ctx, rename); err != nil {
		return fmt.Errorf("rename schema %s to %s: %w", staging, live, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit promote transaction: %w", err)
	}

	s.Log.Info().Str("schema", live).Str("staging", staging).Msg("snapshot promoted")
	return nil
}
