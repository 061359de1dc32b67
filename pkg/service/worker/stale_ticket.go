package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/utils/logging"
)

// ErrInvalidInterval is returned by Start when the sweep interval is not positive
var ErrInvalidInterval = goerr.New("sweep interval must be positive")

// StaleSweeper marks idle tickets as stale
type StaleSweeper interface {
	SweepStale(ctx context.Context, now time.Time) (int, error)
}

// StaleTicketWorker periodically moves idle opened tickets to stale
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Repeated sweeps are harmless because the opened -> stale transition is idempotent
type StaleTicketWorker struct {
	sweeper  StaleSweeper
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// Option configures StaleTicketWorker
type Option func(*StaleTicketWorker)

// WithClock replaces the time source used for sweeps
func WithClock(now func() time.Time) Option {
	return func(w *StaleTicketWorker) {
		w.now = now
	}
}

// NewStaleTicketWorker creates a new worker sweeping every interval
func NewStaleTicketWorker(sweeper StaleSweeper, interval time.Duration, opts ...Option) *StaleTicketWorker {
	w := &StaleTicketWorker{
		sweeper:  sweeper,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the background sweep loop without blocking
func (w *StaleTicketWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.Wrap(ErrInvalidInterval, "cannot start stale ticket worker",
			goerr.V("interval", w.interval.String()))
	}

	logging.Default().Info("Stale ticket worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *StaleTicketWorker) Stop() {
	logging.Default().Info("Stale ticket worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Stale ticket worker stopped")
}

func (w *StaleTicketWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep(ctx)

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Stale ticket worker context cancelled")
			return
		}
	}
}

func (w *StaleTicketWorker) sweep(ctx context.Context) {
	startTime := w.now()
	marked, err := w.sweeper.SweepStale(ctx, startTime)
	if err != nil {
		// retried on the next tick
		logging.Default().Error("Stale ticket sweep failed (will retry next interval)",
			"error", err.Error())
		return
	}

	if marked > 0 {
		logging.Default().Info("Stale ticket sweep completed",
			"marked", marked,
			"duration", time.Since(startTime).String())
	}
}
