/*
Package fetch downloads feed archives over HTTP with conditional
requests. A cache ledger supplies the ETag and Last-Modified values of
the previous fetch; when the remote copy matches, the fetcher reports
Unchanged and nothing is written to disk.
*/
package fetch
