/*
Package store implements the Postgres side of feed ingestion: advisory
lock sessions, the revalidation cache ledger, bulk COPY loading into
per-run staging schemas, and the atomic schema swap that promotes a
staging snapshot to live.
*/
package store
