package jobengine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kallihansen/jobplane/internal/domain"
	"github.com/kallihansen/jobplane/internal/jobengine"
	"github.com/kallihansen/jobplane/internal/repository"
	"github.com/kallihansen/jobplane/internal/store"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(ctx context.Context, q store.Querier) error) error {
	return fn(ctx, nil)
}

type fakeJobRepo struct {
	createJob      func(ctx context.Context, name string) (*domain.Job, error)
	createSchedule func(ctx context.Context, jobID, cron string) (*domain.JobSchedule, error)
	getJob         func(ctx context.Context, id string) (*domain.Job, error)
	listSchedules  func(ctx context.Context, jobID string) ([]domain.JobSchedule, error)
	listJobs       func(ctx context.Context, input repository.ListJobsInput) ([]*domain.Job, int, error)
}

func (r *fakeJobRepo) CreateJob(ctx context.Context, _ store.Querier, name string) (*domain.Job, error) {
	return r.createJob(ctx, name)
}
func (r *fakeJobRepo) GetJob(ctx context.Context, _ store.Querier, id string) (*domain.Job, error) {
	return r.getJob(ctx, id)
}
func (r *fakeJobRepo) ListJobs(ctx context.Context, _ store.Querier, input repository.ListJobsInput) ([]*domain.Job, int, error) {
	return r.listJobs(ctx, input)
}
func (r *fakeJobRepo) CreateSchedule(ctx context.Context, _ store.Querier, jobID, cron string) (*domain.JobSchedule, error) {
	return r.createSchedule(ctx, jobID, cron)
}
func (r *fakeJobRepo) GetSchedule(ctx context.Context, _ store.Querier, id string) (*domain.JobSchedule, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeJobRepo) ListSchedulesByJob(ctx context.Context, _ store.Querier, jobID string) ([]domain.JobSchedule, error) {
	return r.listSchedules(ctx, jobID)
}

type fakeRunRepo struct {
	materialiseNext func(ctx context.Context, schedule domain.JobSchedule, scheduledAt time.Time) (*domain.JobRun, error)
}

func (r *fakeRunRepo) GetRun(ctx context.Context, _ store.Querier, id string) (*domain.JobRun, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeRunRepo) ListRuns(ctx context.Context, _ store.Querier, input repository.ListRunsInput) ([]*domain.JobRun, int, error) {
	return nil, 0, errors.New("not implemented")
}
func (r *fakeRunRepo) AssignRun(ctx context.Context, _ store.Querier, id, worker string, lease time.Duration) (*domain.JobRun, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeRunRepo) CompleteRun(ctx context.Context, _ store.Querier, id, worker, result string) (*domain.JobRun, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeRunRepo) MaterialiseNext(ctx context.Context, _ store.Querier, schedule domain.JobSchedule, scheduledAt time.Time) (*domain.JobRun, error) {
	return r.materialiseNext(ctx, schedule, scheduledAt)
}
func (r *fakeRunRepo) CreateAdHocRun(ctx context.Context, _ store.Querier, jobID string, scheduledAt *time.Time) (*domain.JobRun, error) {
	return nil, errors.New("not implemented")
}

func TestCreateJob_RejectsBadCronBeforeTouchingStore(t *testing.T) {
	jobs := &fakeJobRepo{
		createJob: func(ctx context.Context, name string) (*domain.Job, error) {
			t.Fatal("CreateJob must not be called when a cron expression is invalid")
			return nil, nil
		},
	}
	e := jobengine.NewWithStore(fakeTxRunner{}, nil, jobs, &fakeRunRepo{})

	_, err := e.CreateJob(context.Background(), jobengine.CreateJobInput{Name: "job", Crons: []string{"not a cron"}})
	if !errors.Is(err, domain.ErrInvalidCronExpression) {
		t.Fatalf("expected ErrInvalidCronExpression, got %v", err)
	}
}

func TestCreateJob_MaterialisesOneRunPerSchedule(t *testing.T) {
	job := &domain.Job{ID: "job-1", Name: "nightly"}
	var createdSchedules []string
	var materialised []string

	jobs := &fakeJobRepo{
		createJob: func(ctx context.Context, name string) (*domain.Job, error) {
			return job, nil
		},
		createSchedule: func(ctx context.Context, jobID, cron string) (*domain.JobSchedule, error) {
			id := "sched-" + cron
			createdSchedules = append(createdSchedules, id)
			return &domain.JobSchedule{ID: id, JobID: jobID, Cron: cron}, nil
		},
	}
	runs := &fakeRunRepo{
		materialiseNext: func(ctx context.Context, schedule domain.JobSchedule, scheduledAt time.Time) (*domain.JobRun, error) {
			materialised = append(materialised, schedule.ID)
			return &domain.JobRun{ID: "run-" + schedule.ID, JobID: schedule.JobID, JobScheduleID: &schedule.ID, Status: domain.StatusScheduled}, nil
		},
	}
	e := jobengine.NewWithStore(fakeTxRunner{}, nil, jobs, runs)

	result, err := e.CreateJob(context.Background(), jobengine.CreateJobInput{
		Name:  "nightly",
		Crons: []string{"0 2 * * *", "0 3 * * *"},
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if result.Job.ID != job.ID {
		t.Fatalf("result job = %v, want %v", result.Job, job)
	}
	if len(result.Schedules) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(result.Schedules))
	}
	if len(materialised) != 2 {
		t.Fatalf("expected a materialised run per schedule, got %d", len(materialised))
	}
}

func TestGetJob_ComposesJobAndSchedules(t *testing.T) {
	job := &domain.Job{ID: "job-1", Name: "nightly"}
	schedules := []domain.JobSchedule{{ID: "sched-1", JobID: "job-1", Cron: "0 2 * * *"}}

	jobs := &fakeJobRepo{
		getJob: func(ctx context.Context, id string) (*domain.Job, error) {
			return job, nil
		},
		listSchedules: func(ctx context.Context, jobID string) ([]domain.JobSchedule, error) {
			return schedules, nil
		},
	}
	e := jobengine.NewWithStore(fakeTxRunner{}, nil, jobs, &fakeRunRepo{})

	result, err := e.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if result.Job.ID != job.ID || len(result.Schedules) != 1 {
		t.Fatalf("GetJob() = %+v, want job %v with 1 schedule", result, job)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	jobs := &fakeJobRepo{
		getJob: func(ctx context.Context, id string) (*domain.Job, error) {
			return nil, domain.ErrNotFound
		},
	}
	e := jobengine.NewWithStore(fakeTxRunner{}, nil, jobs, &fakeRunRepo{})

	_, err := e.GetJob(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
