// Package runengine implements the run lifecycle: assignment, completion,
// and cascading re-materialisation of a schedule's next run. Every
// mutating operation runs inside store.TxRunner.WithTx so completion and
// materialisation commit atomically.
package runengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kallihansen/jobplane/internal/cronx"
	"github.com/kallihansen/jobplane/internal/domain"
	"github.com/kallihansen/jobplane/internal/metrics"
	"github.com/kallihansen/jobplane/internal/repository"
	"github.com/kallihansen/jobplane/internal/store"
)

type Engine struct {
	tx       store.TxRunner
	reads    store.Querier
	runs     repository.RunRepository
	jobs     repository.JobRepository
	minLease time.Duration
	maxLease time.Duration
}

// New wires an Engine to a live database pool. Tests construct an Engine
// via NewWithStore instead, against a fake TxRunner/Querier.
func New(pool *pgxpool.Pool, runs repository.RunRepository, jobs repository.JobRepository, minLease, maxLease time.Duration) *Engine {
	return NewWithStore(store.NewTxRunner(pool), store.FromPool(pool), runs, jobs, minLease, maxLease)
}

func NewWithStore(tx store.TxRunner, reads store.Querier, runs repository.RunRepository, jobs repository.JobRepository, minLease, maxLease time.Duration) *Engine {
	return &Engine{tx: tx, reads: reads, runs: runs, jobs: jobs, minLease: minLease, maxLease: maxLease}
}

func (e *Engine) GetRun(ctx context.Context, id string) (*domain.JobRun, error) {
	run, err := e.runs.GetRun(ctx, e.reads, id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

type ListRunsInput struct {
	AssignableOnly    bool
	SortByScheduledAt bool
	Descending        bool
	Offset            int
	Limit             int
}

type Page[T any] struct {
	Items []T
	Total int
}

func (e *Engine) ListRuns(ctx context.Context, input ListRunsInput) (Page[*domain.JobRun], error) {
	runs, total, err := e.runs.ListRuns(ctx, e.reads, repository.ListRunsInput{
		AssignableOnly:    input.AssignableOnly,
		SortByScheduledAt: input.SortByScheduledAt,
		Descending:        input.Descending,
		Offset:            input.Offset,
		Limit:             input.Limit,
	})
	if err != nil {
		return Page[*domain.JobRun]{}, fmt.Errorf("list runs: %w", err)
	}
	return Page[*domain.JobRun]{Items: runs, Total: total}, nil
}

// AssignRun validates leaseDuration against the configured bounds, then
// delegates to the database-evaluated conditional update. Validation
// failure never reaches the database.
func (e *Engine) AssignRun(ctx context.Context, id, worker string, leaseDuration time.Duration) (*domain.JobRun, error) {
	if leaseDuration < e.minLease || leaseDuration > e.maxLease {
		metrics.AssignAttemptsTotal.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: lease duration must be between %s and %s", domain.ErrValidation, e.minLease, e.maxLease)
	}

	var run *domain.JobRun
	err := e.tx.WithTx(ctx, func(ctx context.Context, q store.Querier) error {
		var err error
		run, err = e.runs.AssignRun(ctx, q, id, worker, leaseDuration)
		return err
	})
	if err != nil {
		metrics.AssignAttemptsTotal.WithLabelValues("failure").Inc()
		if errors.Is(err, domain.ErrRunAssignmentFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("assign run: %w", err)
	}
	metrics.AssignAttemptsTotal.WithLabelValues("success").Inc()
	return run, nil
}

// CompleteRun marks the run completed and, if it descends from a
// schedule, materialises that schedule's next run in the same
// transaction. The cron anchor for the new run is the database's own
// completed_at value rather than a fresh time.Now() call, so the next
// fire time never drifts from commit-time clock skew or round-trip
// latency.
func (e *Engine) CompleteRun(ctx context.Context, id, worker, result string) (*domain.JobRun, error) {
	var completed *domain.JobRun

	err := e.tx.WithTx(ctx, func(ctx context.Context, q store.Querier) error {
		run, err := e.runs.CompleteRun(ctx, q, id, worker, result)
		if err != nil {
			return err
		}
		completed = run

		if run.JobScheduleID == nil {
			return nil
		}

		schedule, err := e.jobs.GetSchedule(ctx, q, *run.JobScheduleID)
		if err != nil {
			return fmt.Errorf("get schedule for materialisation: %w", err)
		}

		if _, err := e.materialiseNext(ctx, q, *schedule, *run.CompletedAt); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		metrics.CompletionsTotal.WithLabelValues("failure").Inc()
		if errors.Is(err, domain.ErrRunCompletionFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("complete run: %w", err)
	}
	metrics.CompletionsTotal.WithLabelValues("success").Inc()
	return completed, nil
}

func (e *Engine) materialiseNext(ctx context.Context, q store.Querier, schedule domain.JobSchedule, now time.Time) (*domain.JobRun, error) {
	next, err := cronx.Next(schedule.Cron, now)
	if err != nil {
		return nil, err
	}
	run, err := e.runs.MaterialiseNext(ctx, q, schedule, next)
	if err != nil {
		return nil, fmt.Errorf("materialise next run: %w", err)
	}
	metrics.MaterialisationsTotal.Inc()
	return run, nil
}

// ScheduleRuns materialises the next run for each schedule, in one
// transaction per call. Used by seeding/backfill paths that need to
// populate a schedule's first run outside of CreateJob's own cascade.
func (e *Engine) ScheduleRuns(ctx context.Context, schedules []domain.JobSchedule, now time.Time) error {
	return e.tx.WithTx(ctx, func(ctx context.Context, q store.Querier) error {
		for _, s := range schedules {
			if _, err := e.materialiseNext(ctx, q, s, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateAdHocRun inserts a run with no originating schedule, so its
// completion never cascades into materialisation — side-stepping the
// concurrent-completion race that a shared job_schedule_id would invite
// (see design notes).
func (e *Engine) CreateAdHocRun(ctx context.Context, jobID string, scheduledAt *time.Time) (*domain.JobRun, error) {
	var run *domain.JobRun
	err := e.tx.WithTx(ctx, func(ctx context.Context, q store.Querier) error {
		var err error
		run, err = e.runs.CreateAdHocRun(ctx, q, jobID, scheduledAt)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create ad hoc run: %w", err)
	}
	return run, nil
}
