package async_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/shepherd/pkg/utils/async"
	"github.com/secmon-lab/shepherd/pkg/utils/logging"
)

// syncBuffer guards bytes.Buffer against concurrent writes from tasks
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPool(t *testing.T) {
	t.Run("failing task does not affect siblings", func(t *testing.T) {
		pool := async.NewPool()
		var done atomic.Bool

		pool.Submit(t.Context(), "fail", func(ctx context.Context) error {
			return errors.New("boom")
		})
		pool.Submit(t.Context(), "panic", func(ctx context.Context) error {
			panic("unexpected")
		})
		pool.Submit(t.Context(), "ok", func(ctx context.Context) error {
			done.Store(true)
			return nil
		})
		pool.Wait()

		gt.Bool(t, done.Load()).True()
	})

	t.Run("task logs carry submit attributes", func(t *testing.T) {
		buf := &syncBuffer{}
		ctx := logging.With(t.Context(), slog.New(slog.NewJSONHandler(buf, nil)))
		pool := async.NewPool()

		pool.Submit(ctx, "close_ticket", func(ctx context.Context) error {
			return errors.New("store timeout")
		}, "channel", "C1", "actor", "U1")
		pool.Wait()

		gt.String(t, buf.String()).Contains("close_ticket")
		gt.String(t, buf.String()).Contains("store timeout")
		gt.String(t, buf.String()).Contains(`"channel":"C1"`)
	})

	t.Run("task outlives the submitting context", func(t *testing.T) {
		pool := async.NewPool()
		ctx, cancel := context.WithCancel(t.Context())
		var ctxErr atomic.Value

		pool.Submit(ctx, "slow", func(ctx context.Context) error {
			time.Sleep(10 * time.Millisecond)
			if ctx.Err() != nil {
				ctxErr.Store(ctx.Err())
			}
			return nil
		})
		cancel()
		pool.Wait()

		gt.Value(t, ctxErr.Load()).Nil()
	})

	t.Run("max concurrency caps running tasks", func(t *testing.T) {
		pool := async.NewPool(async.WithMaxConcurrency(2))
		var running, peak atomic.Int64

		for range 8 {
			pool.Submit(t.Context(), "work", func(ctx context.Context) error {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return nil
			})
		}
		pool.Wait()

		gt.Bool(t, peak.Load() <= 2).True()
	})
}
