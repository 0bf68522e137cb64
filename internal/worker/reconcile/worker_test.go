package reconcile

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/streetpaws/tnvr-booking/pkg/logging"
)

type stubSweeper struct {
	calls     int
	completed int64
	err       error
	seenChunk int
	seenNow   time.Time
}

func (s *stubSweeper) SweepCompleted(ctx context.Context, now time.Time, chunkSize int) (int64, error) {
	s.calls++
	s.seenChunk = chunkSize
	s.seenNow = now
	return s.completed, s.err
}

func quietLogger() *logging.Logger {
	return logging.NewWithWriter("error", io.Discard)
}

func TestRunOncePassesClockAndChunkSize(t *testing.T) {
	sweeper := &stubSweeper{completed: 7}
	fixed := time.Date(2026, 9, 2, 4, 0, 0, 0, time.UTC)

	w := NewWorker(sweeper, nil, quietLogger()).WithChunkSize(50)
	w.now = func() time.Time { return fixed }

	completed, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once failed: %v", err)
	}
	if completed != 7 {
		t.Fatalf("expected 7 completed, got %d", completed)
	}
	if sweeper.seenChunk != 50 || !sweeper.seenNow.Equal(fixed) {
		t.Fatalf("sweep called with chunk=%d now=%v", sweeper.seenChunk, sweeper.seenNow)
	}
}

func TestRunOnceSurfacesSweepError(t *testing.T) {
	sweeper := &stubSweeper{completed: 2, err: errors.New("connection reset")}
	w := NewWorker(sweeper, nil, quietLogger())

	completed, err := w.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if completed != 2 {
		t.Fatalf("expected partial count surfaced, got %d", completed)
	}
}

func TestRunSweepsImmediatelyThenOnTicks(t *testing.T) {
	sweeper := &stubSweeper{}
	w := NewWorker(sweeper, nil, quietLogger()).WithInterval(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()
	<-done

	if sweeper.calls < 2 {
		t.Fatalf("expected at least 2 sweeps, got %d", sweeper.calls)
	}
}

func TestOptionSettersIgnoreInvalidValues(t *testing.T) {
	w := NewWorker(&stubSweeper{}, nil, quietLogger()).
		WithInterval(0).
		WithChunkSize(-1)

	if w.interval != 24*time.Hour {
		t.Fatalf("expected default interval kept, got %v", w.interval)
	}
	if w.chunkSize != 400 {
		t.Fatalf("expected default chunk size kept, got %d", w.chunkSize)
	}
}
