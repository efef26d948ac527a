package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/pkg/goerror"
	"go.uber.org/atomic"
)

// RetrySweep redelivers every notification whose delivery is not confirmed.
// A sweep already running in this process makes the call return Skipped.
// On cancellation it stops scanning, waits for submitted sends and returns the
// counts so far with the context error.
func (s *Usecase) RetrySweep(ctx context.Context) (_ entity.SweepResult, err error) {
	ctx, span := s.startSpan(ctx, "RetrySweep")
	defer span.End()

	if !s.sweeping.CompareAndSwap(false, true) {
		slog.InfoContext(ctx, "retry sweep already running, skipped")
		return entity.SweepResult{Skipped: true}, nil
	}
	defer s.sweeping.Store(false)

	s.metrics.sweepRuns.Add(ctx, 1)

	batchSize := s.intOr("modules.notification.sweep.batch_size", 100)
	maxRecords := s.cfg.GetInt64("modules.notification.sweep.max_records")
	workers := s.intOr("modules.notification.sweep.workers", 8)

	pool, err := ants.NewPool(workers,
		ants.WithNonblocking(false),
		ants.WithPanicHandler(func(p any) {
			slog.ErrorContext(ctx, "panic in retry sweep worker", "panic", p)
		}),
	)
	if err != nil {
		return entity.SweepResult{}, err
	}
	defer func() {
		if rErr := pool.ReleaseTimeout(10 * time.Second); rErr != nil {
			slog.WarnContext(ctx, "retry sweep pool release timed out", "error", rErr)
		}
	}()

	var (
		wg        sync.WaitGroup
		attempted atomic.Int64
		succeeded atomic.Int64
		failed    atomic.Int64
		afterID   int64
	)

	scanErr := func() error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			limit := batchSize
			if maxRecords > 0 {
				left := maxRecords - attempted.Load()
				if left <= 0 {
					return nil
				}
				limit = int(min(int64(limit), left))
			}

			items, err := s.repoDB.ListPendingDelivery(ctx, afterID, limit)
			if err != nil {
				slog.ErrorContext(ctx, "failed to repo list pending delivery", "after_id", afterID, "error", err)
				return err
			}
			if len(items) == 0 {
				return nil
			}

			for _, n := range items {
				if err := ctx.Err(); err != nil {
					return err
				}

				attempted.Inc()
				wg.Add(1)
				// Sends use a context that outlives cancellation so submitted records finish.
				sendCtx := context.WithoutCancel(ctx)
				if err := pool.Submit(func() {
					defer wg.Done()
					if err := s.deliver(sendCtx, n, deliveryPathSweep); err != nil {
						failed.Inc()
						slog.WarnContext(sendCtx, "retry delivery failed", "notification_id", n.ID, "error", err)
						return
					}
					succeeded.Inc()
				}); err != nil {
					wg.Done()
					attempted.Dec()
					return err
				}
			}

			afterID = items[len(items)-1].ID
			if len(items) < limit {
				return nil
			}
		}
	}()

	wg.Wait()

	res := entity.SweepResult{
		Attempted: attempted.Load(),
		Succeeded: succeeded.Load(),
		Failed:    failed.Load(),
	}
	slog.InfoContext(ctx, "retry sweep finished",
		"attempted", res.Attempted, "succeeded", res.Succeeded, "failed", res.Failed, "error", scanErr)

	if scanErr != nil && !errors.Is(scanErr, context.Canceled) && !errors.Is(scanErr, context.DeadlineExceeded) {
		return res, goerror.NewServer(scanErr)
	}
	return res, scanErr
}

// ProcessUnsent is the administrative trigger of RetrySweep.
func (s *Usecase) ProcessUnsent(ctx context.Context) (entity.SweepResult, error) {
	ctx, span := s.startSpan(ctx, "ProcessUnsent")
	defer span.End()

	if err := s.requireAdmin(ctx); err != nil {
		return entity.SweepResult{}, err
	}

	return s.RetrySweep(ctx)
}
