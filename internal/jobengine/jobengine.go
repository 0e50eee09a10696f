// Package jobengine implements job and schedule creation and listing. A
// job's schedules are returned as sibling data on a composite DTO rather
// than as back-pointers on the domain structs, avoiding the original
// source's bidirectional Job<->JobSchedule relationship.
package jobengine

import (
	"context"
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
	tx    store.TxRunner
	reads store.Querier
	jobs  repository.JobRepository
	runs  repository.RunRepository
}

// New wires an Engine to a live database pool. Tests construct an Engine
// via NewWithStore instead, against a fake TxRunner/Querier.
func New(pool *pgxpool.Pool, jobs repository.JobRepository, runs repository.RunRepository) *Engine {
	return NewWithStore(store.NewTxRunner(pool), store.FromPool(pool), jobs, runs)
}

func NewWithStore(tx store.TxRunner, reads store.Querier, jobs repository.JobRepository, runs repository.RunRepository) *Engine {
	return &Engine{tx: tx, reads: reads, jobs: jobs, runs: runs}
}

// JobWithSchedules is the query-facing composite: a job alongside the
// schedules that currently target it.
type JobWithSchedules struct {
	Job       domain.Job
	Schedules []domain.JobSchedule
}

type CreateJobInput struct {
	Name  string
	Crons []string
}

// CreateJob inserts the job and each of its schedules, then materialises
// one initial SCHEDULED run per schedule, all within a single
// transaction. A bad cron expression in any entry aborts the whole
// create, so a job is never left half-scheduled.
func (e *Engine) CreateJob(ctx context.Context, input CreateJobInput) (*JobWithSchedules, error) {
	for _, c := range input.Crons {
		if err := cronx.Validate(c); err != nil {
			return nil, err
		}
	}

	var result JobWithSchedules

	err := e.tx.WithTx(ctx, func(ctx context.Context, q store.Querier) error {
		job, err := e.jobs.CreateJob(ctx, q, input.Name)
		if err != nil {
			return fmt.Errorf("create job: %w", err)
		}
		result.Job = *job

		now := time.Now().UTC()
		for _, c := range input.Crons {
			schedule, err := e.jobs.CreateSchedule(ctx, q, job.ID, c)
			if err != nil {
				return fmt.Errorf("create schedule: %w", err)
			}

			next, err := cronx.Next(schedule.Cron, now)
			if err != nil {
				return err
			}
			if _, err := e.runs.MaterialiseNext(ctx, q, *schedule, next); err != nil {
				return fmt.Errorf("materialise initial run: %w", err)
			}

			result.Schedules = append(result.Schedules, *schedule)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.JobsCreatedTotal.Inc()
	return &result, nil
}

func (e *Engine) GetJob(ctx context.Context, id string) (*JobWithSchedules, error) {
	job, err := e.jobs.GetJob(ctx, e.reads, id)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}

	schedules, err := e.jobs.ListSchedulesByJob(ctx, e.reads, id)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	return &JobWithSchedules{Job: *job, Schedules: schedules}, nil
}

type ListJobsInput struct {
	SortByName bool
	Descending bool
	Offset     int
	Limit      int
}

type Page[T any] struct {
	Items []T
	Total int
}

func (e *Engine) ListJobs(ctx context.Context, input ListJobsInput) (Page[*domain.Job], error) {
	jobs, total, err := e.jobs.ListJobs(ctx, e.reads, repository.ListJobsInput{
		SortByName: input.SortByName,
		Descending: input.Descending,
		Offset:     input.Offset,
		Limit:      input.Limit,
	})
	if err != nil {
		return Page[*domain.Job]{}, fmt.Errorf("list jobs: %w", err)
	}
	return Page[*domain.Job]{Items: jobs, Total: total}, nil
}
