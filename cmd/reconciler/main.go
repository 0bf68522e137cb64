package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/streetpaws/tnvr-booking/internal/appointments"
	appconfig "github.com/streetpaws/tnvr-booking/internal/config"
	"github.com/streetpaws/tnvr-booking/internal/observability/metrics"
	"github.com/streetpaws/tnvr-booking/internal/worker/reconcile"
	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

// Standalone reconciler for deployments that run the sweep outside the API
// process. The API's inline worker should be disabled when this runs.
func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting tnvr-booking reconciler",
		"interval", cfg.ReconcileInterval.String(),
		"chunk_size", cfg.ReconcileChunkSize,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	worker := reconcile.NewWorker(appointments.NewRepository(pool), metrics.NewReconcilerMetrics(nil), logger).
		WithInterval(cfg.ReconcileInterval).
		WithChunkSize(cfg.ReconcileChunkSize)

	worker.Run(ctx)
	logger.Info("reconciler stopped")
}
