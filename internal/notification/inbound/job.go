package inbound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/shandysiswandi/gonotify/internal/pkg/config"
	"github.com/shandysiswandi/gonotify/internal/pkg/goroutine"
	"github.com/shandysiswandi/gonotify/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	SchedulerRiver  = "river"
	SchedulerTicker = "ticker"
	SchedulerNone   = "none"

	defaultSweepInterval = time.Minute
)

// SweepArgs is the River job that runs one retry sweep.
type SweepArgs struct{}

func (SweepArgs) Kind() string { return "notification_retry_sweep" }

func (SweepArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
	}
}

// SweepWorker executes SweepArgs jobs.
type SweepWorker struct {
	river.WorkerDefaults[SweepArgs]
	job *sweepJob
}

// Timeout keeps one run shorter than the schedule period.
func (w *SweepWorker) Timeout(*river.Job[SweepArgs]) time.Duration {
	return w.job.interval
}

func (w *SweepWorker) Work(ctx context.Context, _ *river.Job[SweepArgs]) error {
	return w.job.run(ctx, SchedulerRiver)
}

type sweepJob struct {
	uc       ucSweeper
	ins      instrument.Instrumentation
	interval time.Duration
}

func (j *sweepJob) run(ctx context.Context, trigger string) error {
	ctx, span := j.ins.Tracer("notification.inbound.job").Start(ctx, "RetrySweep")
	defer span.End()
	span.SetAttributes(attribute.String("trigger", trigger))

	res, err := j.uc.RetrySweep(ctx)
	span.SetAttributes(
		attribute.Int64("attempted", res.Attempted),
		attribute.Int64("succeeded", res.Succeeded),
		attribute.Int64("failed", res.Failed),
		attribute.Bool("skipped", res.Skipped),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !errors.Is(err, context.Canceled) {
			slog.ErrorContext(ctx, "retry sweep failed", "trigger", trigger, "error", err)
		}
		return err
	}

	slog.InfoContext(ctx, "retry sweep finished",
		"trigger", trigger,
		"attempted", res.Attempted,
		"succeeded", res.Succeeded,
		"failed", res.Failed,
		"skipped", res.Skipped,
	)
	return nil
}

func sweepInterval(cfg config.Config) time.Duration {
	if d := cfg.GetSecond("modules.notification.sweep.interval_seconds"); d > 0 {
		return d
	}
	return defaultSweepInterval
}

// RegisterSweepJob schedules the periodic retry sweep. It returns a stop
// function for the scheduler, which is nil when nothing needs stopping.
//
// The river scheduler needs the Postgres pool; without it the ticker is used.
func RegisterSweepJob(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	pool *pgxpool.Pool,
	uc ucSweeper,
	ins instrument.Instrumentation,
) (func(context.Context) error, error) {
	job := &sweepJob{uc: uc, ins: ins, interval: sweepInterval(cfg)}

	scheduler := cfg.GetString("modules.notification.sweep.scheduler")
	if scheduler == SchedulerRiver && pool == nil {
		slog.WarnContext(ctx, "river scheduler requires postgres, falling back to ticker")
		scheduler = SchedulerTicker
	}

	switch scheduler {
	case SchedulerNone:
		slog.InfoContext(ctx, "retry sweep scheduler disabled")
		return nil, nil
	case SchedulerRiver:
		client, err := newRiverClient(ctx, pool, job)
		if err != nil {
			return nil, err
		}
		if err := client.Start(ctx); err != nil {
			return nil, fmt.Errorf("start river client: %w", err)
		}
		slog.InfoContext(ctx, "retry sweep scheduled on river", "interval", job.interval.String())
		return client.Stop, nil
	case SchedulerTicker, "":
		routine.Go(ctx, "notification.sweep.ticker", func(pCtx context.Context) error {
			runTicker(pCtx, job)
			return nil
		})
		slog.InfoContext(ctx, "retry sweep scheduled on ticker", "interval", job.interval.String())
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown sweep scheduler %q", scheduler)
	}
}

func runTicker(ctx context.Context, job *sweepJob) {
	ticker := time.NewTicker(job.interval)
	defer ticker.Stop()

	for {
		//nolint:errcheck // logged inside run
		_ = job.run(ctx, SchedulerTicker)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func newRiverClient(ctx context.Context, pool *pgxpool.Pool, job *sweepJob) (*river.Client[pgx.Tx], error) {
	driver := riverpgxv5.New(pool)

	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return nil, fmt.Errorf("create river migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return nil, fmt.Errorf("river migrate up: %w", err)
	}
	slog.InfoContext(ctx, "river migration completed", "versions_applied", len(res.Versions))

	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, &SweepWorker{job: job}); err != nil {
		return nil, fmt.Errorf("register sweep worker: %w", err)
	}

	client, err := river.NewClient(driver, &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 1},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(job.interval),
				func() (river.JobArgs, *river.InsertOpts) {
					return SweepArgs{}, &river.InsertOpts{
						MaxAttempts: 1,
						UniqueOpts:  river.UniqueOpts{ByPeriod: job.interval},
					}
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create river client: %w", err)
	}

	return client, nil
}
