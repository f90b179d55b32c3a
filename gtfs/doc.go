/*
Package gtfs defines the static identity side of feed ingestion:
datasets and the table specification.

A Dataset is one configured feed. Everything the pipeline derives from
it is deterministic: the slug, the live schema name, the staging schema
name for a given start time, and the advisory lock key pair.

	ds := gtfs.Dataset{Name: "agencytest", URL: "https://example.com/gtfs.zip"}
	ds.Schema()              // "gtfs_agencytest"
	k1, k2 := ds.LockKeys()  // fixed magic + fnv32a(name)

The TableSpec maps archive entry names to destination tables and their
ordered, typed columns. It is injected into the loader as a read-only
value; DefaultSpec covers the standard GTFS files with all-text columns.
Column matching against a feed's header line lives here too, so the
database layer never parses CSV:

	table, ok := spec.Lookup("stops.txt")
	cols := table.MatchColumns("stop_id,stop_name,stop_lat")

Matching preserves the header's left-to-right order, which is also the
column order of the staging table and of the bulk load.
*/
package gtfs
