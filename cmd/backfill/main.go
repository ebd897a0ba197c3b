package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/weatheredge/config"
	"github.com/alejandrodnm/weatheredge/internal/adapters/notify"
	"github.com/alejandrodnm/weatheredge/internal/adapters/storage"
	"github.com/alejandrodnm/weatheredge/internal/backfill"
	"github.com/alejandrodnm/weatheredge/internal/domain"
	"github.com/alejandrodnm/weatheredge/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "classify and count without writing updates")
	limit := flag.Int("limit", 0, "stop after N batches (0 = run to completion)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("weatheredge backfill starting",
		"config", *configPath,
		"driver", cfg.Storage.Driver,
		"batch_size", cfg.Backfill.BatchSize,
		"dry_run", *dryRun,
	)

	store, err := openStore(cfg.Storage)
	if err != nil {
		fatal(err)
	}
	defer store.Close()

	pricer := domain.NewPricer(domain.PricerConfig{
		KellyMultiplier:    cfg.Backfill.KellyFraction,
		KalshiTakerFeeRate: cfg.Backfill.KalshiTakerFeeRate,
		EdgeThresholds: [4]float64{
			cfg.Backfill.EdgeThresholds[0],
			cfg.Backfill.EdgeThresholds[1],
			cfg.Backfill.EdgeThresholds[2],
			cfg.Backfill.EdgeThresholds[3],
		},
		ProbabilityDP: int32(cfg.Backfill.ProbabilityDP),
		EdgeDP:        int32(cfg.Backfill.EdgeDP),
	}, nil) // corrección nil → identidad: la calibración v1 queda deshabilitada

	runCfg := backfill.Config{
		BatchSize:     cfg.Backfill.BatchSize,
		DryRun:        *dryRun,
		MaxBatches:    *limit,
		ErrorLogLimit: cfg.Backfill.ErrorLogLimit,
		SampleSize:    cfg.Backfill.SampleSize,
	}
	runner := backfill.New(runCfg, store, pricer, notify.NewConsole())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if _, err := runner.Run(ctx); err != nil {
		fatal(err)
	}
}

// openStore abre el record store según el driver configurado.
func openStore(cfg config.StorageConfig) (ports.OpportunityStore, error) {
	switch cfg.Driver {
	case "postgres":
		return storage.NewPostgres(cfg.DSN)
	default:
		return storage.NewSQLite(cfg.DSN)
	}
}

// fatal imprime el error con prefijo distinguible y termina con exit code 1.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
	os.Exit(1)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
