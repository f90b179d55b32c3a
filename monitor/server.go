package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/theoremus-urban-solutions/gtfs-ingest/utils"
)

// Server exposes /healthz and /metrics for operators and scrapers.
type Server struct {
	srv *http.Server
	log zerolog.Logger

	mu       sync.Mutex
	lastRun  time.Time
	datasets map[string]datasetStatus
}

type datasetStatus struct {
	Outcome   string  `json:"outcome"`
	Error     string  `json:"error,omitempty"`
	RunEpoch  int64   `json:"run_epoch"`
	DurationS float64 `json:"duration_seconds"`
}

type healthResponse struct {
	Status       string                   `json:"status"`
	GeneratedAt  string                   `json:"generated_at"`
	LastRunEpoch int64                    `json:"last_run_epoch"`
	Datasets     map[string]datasetStatus `json:"datasets"`
}

// NewServer builds the listener; nothing is served until Start.
func NewServer(addr string, log zerolog.Logger) *Server {
	s := &Server{
		log:      log,
		datasets: make(map[string]datasetStatus),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("monitor server error")
		}
	}()
	s.log.Info().Str("addr", s.srv.Addr).Msg("monitor listening")
}

// Shutdown drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Record notes the result of one dataset run for the health report and
// the Prometheus series. outcome is "updated", "unchanged", "skipped"
// or "error".
func (s *Server) Record(dataset, outcome string, d time.Duration, runErr error) {
	st := datasetStatus{
		Outcome:   outcome,
		RunEpoch:  time.Now().Unix(),
		DurationS: d.Seconds(),
	}
	if runErr != nil {
		st.Error = runErr.Error()
	}

	s.mu.Lock()
	s.datasets[dataset] = st
	s.lastRun = time.Now()
	s.mu.Unlock()

	observeRun(dataset, outcome, d)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := healthResponse{
		Status:      "ok",
		GeneratedAt: utils.Iso8601Now(),
		Datasets:    make(map[string]datasetStatus, len(s.datasets)),
	}
	if !s.lastRun.IsZero() {
		resp.LastRunEpoch = s.lastRun.Unix()
	}
	for name, st := range s.datasets {
		if st.Error != "" {
			resp.Status = "degraded"
		}
		resp.Datasets[name] = st
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
