package async

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/utils/errutil"
	"github.com/secmon-lab/shepherd/pkg/utils/logging"
	"golang.org/x/sync/semaphore"
)

// Task is a unit of work submitted to the Pool
type Task func(ctx context.Context) error

// Pool runs fire-and-forget tasks in their own goroutines. Every task has its
// own error boundary: a returned error or a panic is logged with the task
// attributes and never reaches the submitter or sibling tasks.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// Option configures a Pool
type Option func(*Pool)

// WithMaxConcurrency caps the number of tasks running at once. Zero or a
// negative value means unbounded.
func WithMaxConcurrency(n int64) Option {
	return func(p *Pool) {
		if n > 0 {
			p.sem = semaphore.NewWeighted(n)
		}
	}
}

// NewPool creates a new Pool
func NewPool(opts ...Option) *Pool {
	p := &Pool{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit schedules task and returns immediately. The task runs on a
// background context that keeps the submitter's logger, so it survives the
// end of the HTTP request that triggered it. attrs are attached to every log
// line the task emits.
func (p *Pool) Submit(ctx context.Context, name string, task Task, attrs ...any) {
	logger := logging.From(ctx).With("task", name).With(attrs...)
	bgCtx := logging.With(context.Background(), logger)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if p.sem != nil {
			if err := p.sem.Acquire(bgCtx, 1); err != nil {
				errutil.Handle(bgCtx, goerr.Wrap(err, "failed to acquire worker slot"), "task dropped")
				return
			}
			defer p.sem.Release(1)
		}

		run(bgCtx, task)
	}()
}

// Wait blocks until all submitted tasks have finished. Used for graceful
// shutdown and in tests.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func run(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			logging.From(ctx).Error("panic in async task",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	if err := task(ctx); err != nil {
		errutil.Handle(ctx, err, "async task failed")
	}
}
