// Package monitor serves the operational endpoints: a JSON health
// report on /healthz and Prometheus metrics on /metrics.
package monitor
