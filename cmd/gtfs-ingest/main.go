package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/theoremus-urban-solutions/gtfs-ingest/config"
	"github.com/theoremus-urban-solutions/gtfs-ingest/fetch"
	"github.com/theoremus-urban-solutions/gtfs-ingest/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-ingest/ingest"
	"github.com/theoremus-urban-solutions/gtfs-ingest/monitor"
	"github.com/theoremus-urban-solutions/gtfs-ingest/store"
	"github.com/theoremus-urban-solutions/gtfs-ingest/utils"
)

// database adapts store.Store to the runner's Store interface; the
// method sets match except for Session's concrete return type.
type database struct {
	*store.Store
}

func (d database) Session(ctx context.Context) (ingest.Session, error) {
	return d.Store.Session(ctx)
}

func main() {
	configPath := flag.String("config", "config.yml", "path to config file")
	dataset := flag.String("dataset", "", "run only the named dataset")
	mode := flag.String("mode", "oneshot", "oneshot|loop")
	interval := flag.Duration("interval", time.Hour, "pass interval in loop mode")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	_ = godotenv.Load()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	cfg.Database.URL = utils.GetEnvOrDefault("DATABASE_URL", cfg.Database.URL)

	datasets, err := selectDatasets(cfg.Datasets, *dataset)
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, cfg.Database.ConnString(), int32(cfg.Database.MaxConns), log)
	if err != nil {
		panic(err)
	}

	fetcher := fetch.New(st.Ledger(), time.Duration(cfg.Fetch.TimeoutMS)*time.Millisecond, log)
	fetcher.UserAgent = cfg.Fetch.UserAgent

	runner := &ingest.Runner{
		Store:   database{st},
		Fetcher: fetcher,
		Spec:    gtfs.DefaultSpec(),
		Log:     log,
	}

	var mon *monitor.Server
	if cfg.Monitor.Addr != "" {
		mon = monitor.NewServer(cfg.Monitor.Addr, log)
		mon.Start()
	}

	switch *mode {
	case "oneshot":
		err := runPass(ctx, runner, datasets, mon, log)
		shutdown(mon, st, log)
		if err != nil {
			os.Exit(1)
		}
	case "loop":
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()

		_ = runPass(ctx, runner, datasets, mon, log)
		for {
			select {
			case <-ticker.C:
				_ = runPass(ctx, runner, datasets, mon, log)
			case sig := <-sigs:
				log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
				cancel()
				shutdown(mon, st, log)
				return
			}
		}
	default:
		panic("unknown mode")
	}
}

// runPass processes every dataset once, sequentially. Lock contention
// counts as a skip, not a failure; all other errors are joined into the
// returned error after the pass completes.
func runPass(ctx context.Context, runner *ingest.Runner, datasets []gtfs.Dataset, mon *monitor.Server, log zerolog.Logger) error {
	passLog := log.With().Str("run_id", uuid.NewString()).Logger()
	runner.Log = passLog

	var errs []error
	for _, ds := range datasets {
		start := time.Now()
		outcome, err := runner.RunDataset(ctx, ds)
		elapsed := time.Since(start)

		status := string(outcome)
		switch {
		case errors.Is(err, ingest.ErrLockContention):
			status = "skipped"
			err = nil
			passLog.Info().Str("dataset", ds.Name).Msg("dataset locked elsewhere, skipping")
		case err != nil:
			status = "error"
			errs = append(errs, err)
			passLog.Error().Err(err).Str("dataset", ds.Name).Msg("dataset run failed")
		default:
			passLog.Info().
				Str("dataset", ds.Name).
				Str("outcome", status).
				Dur("elapsed", elapsed).
				Msg("dataset run finished")
		}
		if mon != nil {
			mon.Record(ds.Name, status, elapsed, err)
		}
	}
	return errors.Join(errs...)
}

// selectDatasets converts the configured datasets, rejecting duplicate
// names and colliding schema slugs, then optionally filters to one.
func selectDatasets(configured []config.DatasetConfig, only string) ([]gtfs.Dataset, error) {
	seenName := map[string]bool{}
	seenSlug := map[string]string{}
	var datasets []gtfs.Dataset
	for _, dc := range configured {
		ds := gtfs.Dataset{Name: dc.Name, URL: dc.URL, Headers: dc.Headers}
		if seenName[ds.Name] {
			return nil, fmt.Errorf("duplicate dataset name %q", ds.Name)
		}
		seenName[ds.Name] = true
		if prev, ok := seenSlug[ds.Slug()]; ok {
			return nil, fmt.Errorf("datasets %q and %q map to the same schema %q", prev, ds.Name, ds.Schema())
		}
		seenSlug[ds.Slug()] = ds.Name
		datasets = append(datasets, ds)
	}
	if only != "" {
		for _, ds := range datasets {
			if ds.Name == only {
				return []gtfs.Dataset{ds}, nil
			}
		}
		return nil, fmt.Errorf("dataset %q is not configured", only)
	}
	return datasets, nil
}

func shutdown(mon *monitor.Server, st *store.Store, log zerolog.Logger) {
	if mon != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mon.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("monitor shutdown error")
		}
	}
	st.Close()
}
