package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/theoremus-urban-solutions/gtfs-ingest/archive"
	"github.com/theoremus-urban-solutions/gtfs-ingest/gtfs"
)

// ErrNoMatchingColumns reports a feed entry whose header shares no
// columns with its table spec.
var ErrNoMatchingColumns = errors.New("no matching columns")

// tablePlan pairs an archive entry with the table and columns inferred
// from its header line.
type tablePlan struct {
	entry   archive.Entry
	table   gtfs.Table
	columns []gtfs.Column
}

// LoadSnapshot copies every recognized entry of the archive into a
// fresh staging schema within one transaction. The first pass reads
// each entry's header, intersects it with the table spec and creates
// the staging tables; the second streams the full entries through
// COPY. Any failure rolls the whole snapshot back, leaving no trace of
// the staging schema.
func (s *Store) LoadSnapshot(ctx context.Context, ar *archive.Reader, spec gtfs.TableSpec, staging string) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{staging}.Sanitize()); err != nil {
		return fmt.Errorf("create schema %s: %w", staging, err)
	}

	var plans []tablePlan
	for _, entry := range ar.Entries() {
		table, ok := spec.Lookup(entry.Name())
		if !ok {
			s.Log.Debug().Str("entry", entry.Name()).Msg("no table spec for entry, skipping")
			continue
		}
		header, err := entry.Header()
		if err != nil {
			return fmt.Errorf("read header of %s: %w", entry.Name(), err)
		}
		columns := table.MatchColumns(header)
		if len(columns) == 0 {
			return fmt.Errorf("%w in %s", ErrNoMatchingColumns, entry.Name())
		}
		if _, err := tx.Exec(ctx, createTableSQL(staging, table.Name, columns)); err != nil {
			return fmt.Errorf("create table %s.%s: %w", staging, table.Name, err)
		}
		plans = append(plans, tablePlan{entry: entry, table: table, columns: columns})
	}

	for _, p := range plans {
		rc, err := p.entry.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", p.entry.Name(), err)
		}
		tag, err := tx.Conn().PgConn().CopyFrom(ctx, rc, copySQL(staging, p.table.Name, p.columns))
		rc.Close()
		if err != nil {
			return fmt.Errorf("copy %s into %s.%s: %w", p.entry.Name(), staging, p.table.Name, err)
		}
		s.Log.Info().
			Str("schema", staging).
			Str("table", p.table.Name).
			Int64("rows", tag.RowsAffected()).
			Msg("table loaded")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot transaction: %w", err)
	}
	return nil
}

func createTableSQL(schema, table string, columns []gtfs.Column) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgx.Identifier{c.Name}.Sanitize() + " " + c.Type
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)",
		pgx.Identifier{schema, table}.Sanitize(), strings.Join(defs, ", "))
}

func copySQL(schema, table string, columns []gtfs.Column) string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = pgx.Identifier{c.Name}.Sanitize()
	}
	list := strings.Join(names, ", ")
	return fmt.Sprintf("COPY %s (%s) FROM STDIN WITH (FORMAT csv, HEADER true, FORCE_NOT_NULL (%s))",
		pgx.Identifier{schema, table}.Sanitize(), list, list)
}
