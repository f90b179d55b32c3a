/*
Package ingest orchestrates the per-dataset pipeline.

A Runner takes one dataset through five steps: acquire the dataset's
advisory lock, fetch the feed conditionally, release the lock, bulk
load the archive into a timestamped staging schema, and promote that
schema to live. Datasets whose remote copy is unchanged stop after the
fetch. Contended datasets are skipped and reported as ErrLockContention
so concurrent workers never double-download a feed.
*/
package ingest
