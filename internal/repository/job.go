package repository

import (
	"context"

	"github.com/kallihansen/jobplane/internal/domain"
	"github.com/kallihansen/jobplane/internal/store"
)

type ListJobsInput struct {
	SortByName bool
	Descending bool
	Offset     int
	Limit      int
}

// JobRepository is the job engine's storage dependency, covering jobs and
// their schedules. It does not touch job_runs — that lives in
// RunRepository, which JobEngine composes to cascade run materialisation
// on create.
type JobRepository interface {
	CreateJob(ctx context.Context, q store.Querier, name string) (*domain.Job, error)
	GetJob(ctx context.Context, q store.Querier, id string) (*domain.Job, error)
	ListJobs(ctx context.Context, q store.Querier, input ListJobsInput) ([]*domain.Job, int, error)

	CreateSchedule(ctx context.Context, q store.Querier, jobID, cron string) (*domain.JobSchedule, error)
	GetSchedule(ctx context.Context, q store.Querier, id string) (*domain.JobSchedule, error)
	ListSchedulesByJob(ctx context.Context, q store.Querier, jobID string) ([]domain.JobSchedule, error)
}
