// Package reconcile flips past-dated Upcoming appointments to Completed on a
// schedule.
package reconcile

import (
	"context"
	"time"

	"github.com/streetpaws/tnvr-booking/internal/observability/metrics"
	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

// Sweeper is the repository slice the worker drives.
type Sweeper interface {
	SweepCompleted(ctx context.Context, now time.Time, chunkSize int) (int64, error)
}

// Worker runs the reconciliation sweep on a fixed interval.
type Worker struct {
	sweeper   Sweeper
	metrics   *metrics.ReconcilerMetrics
	logger    *logging.Logger
	interval  time.Duration
	chunkSize int
	now       func() time.Time
}

func NewWorker(sweeper Sweeper, m *metrics.ReconcilerMetrics, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		sweeper:   sweeper,
		metrics:   m,
		logger:    logger,
		interval:  24 * time.Hour,
		chunkSize: 400,
		now:       time.Now,
	}
}

// WithInterval sets the sweep interval.
func (w *Worker) WithInterval(interval time.Duration) *Worker {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// WithChunkSize sets the per-transaction batch size.
func (w *Worker) WithChunkSize(n int) *Worker {
	if n > 0 {
		w.chunkSize = n
	}
	return w
}

// Run blocks until ctx is canceled, sweeping once immediately and then every
// interval. A failed sweep is logged and retried on the next tick.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("starting appointment reconciler",
		"interval", w.interval.String(), "chunk_size", w.chunkSize)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("appointment reconciler shutting down")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep. Also invoked by the admin manual trigger.
func (w *Worker) RunOnce(ctx context.Context) (int64, error) {
	began := time.Now()
	completed, err := w.sweeper.SweepCompleted(ctx, w.now(), w.chunkSize)
	w.metrics.ObserveRun(completed, time.Since(began).Seconds(), err)
	if err != nil {
		w.logger.Error("reconcile sweep failed", "error", err, "completed_before_failure", completed)
		return completed, err
	}
	if completed > 0 {
		w.logger.Info("reconcile sweep finished", "completed", completed)
	}
	return completed, nil
}
