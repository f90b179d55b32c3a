package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gtfs_ingest_runs_total",
		Help: "Total number of dataset runs by outcome",
	}, []string{"dataset", "outcome"})

	runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gtfs_ingest_run_duration_seconds",
		Help:    "Time taken by one dataset run",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~7min
	}, []string{"dataset"})

	lastUpdateEpoch = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gtfs_ingest_last_update_epoch",
		Help: "Unix time of the last successful snapshot promotion",
	}, []string{"dataset"})
)

func init() {
	prometheus.MustRegister(
		runsTotal,
		runDuration,
		lastUpdateEpoch,
	)
}

func observeRun(dataset, outcome string, d time.Duration) {
	runsTotal.WithLabelValues(dataset, outcome).Inc()
	runDuration.WithLabelValues(dataset).Observe(d.Seconds())
	if outcome == "updated" {
		lastUpdateEpoch.WithLabelValues(dataset).SetToCurrentTime()
	}
}
