package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kallihansen/jobplane/internal/domain"
	"github.com/kallihansen/jobplane/internal/repository"
	"github.com/kallihansen/jobplane/internal/store"
)

// JobRepository implements repository.JobRepository against Postgres,
// covering jobs and their schedules. Run rows are owned by RunRepository.
type JobRepository struct{}

func NewJobRepository() *JobRepository {
	return &JobRepository{}
}

const jobColumns = `id, name, created_at`

func (r *JobRepository) CreateJob(ctx context.Context, q store.Querier, name string) (*domain.Job, error) {
	row := q.QueryRow(ctx, `INSERT INTO jobs (name) VALUES ($1) RETURNING `+jobColumns, name)
	return scanJob(row)
}

func (r *JobRepository) GetJob(ctx context.Context, q store.Querier, id string) (*domain.Job, error) {
	row := q.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	return scanJob(row)
}

func (r *JobRepository) ListJobs(ctx context.Context, q store.Querier, input repository.ListJobsInput) ([]*domain.Job, int, error) {
	order := "name ASC"
	if input.SortByName {
		if input.Descending {
			order = "name DESC, id"
		} else {
			order = "name ASC, id"
		}
	} else {
		order = "created_at DESC, id"
		if !input.Descending {
			order = "created_at ASC, id"
		}
	}

	selectQuery := fmt.Sprintf(`SELECT %s FROM jobs ORDER BY %s LIMIT $1 OFFSET $2`, jobColumns, order)
	countQuery := `SELECT COUNT(*) FROM jobs`

	rows, total, err := store.Page(ctx, q, selectQuery, []any{input.Limit, input.Offset}, countQuery, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, total, nil
}

const scheduleColumns = `id, job_id, cron, created_at`

func (r *JobRepository) CreateSchedule(ctx context.Context, q store.Querier, jobID, cron string) (*domain.JobSchedule, error) {
	row := q.QueryRow(ctx,
		`INSERT INTO job_schedules (job_id, cron) VALUES ($1, $2) RETURNING `+scheduleColumns,
		jobID, cron)
	return scanSchedule(row)
}

func (r *JobRepository) GetSchedule(ctx context.Context, q store.Querier, id string) (*domain.JobSchedule, error) {
	row := q.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM job_schedules WHERE id = $1`, id)
	return scanSchedule(row)
}

func (r *JobRepository) ListSchedulesByJob(ctx context.Context, q store.Querier, jobID string) ([]domain.JobSchedule, error) {
	rows, err := q.Query(ctx, `SELECT `+scheduleColumns+` FROM job_schedules WHERE job_id = $1 ORDER BY created_at ASC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []domain.JobSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var j domain.Job
	err := row.Scan(&j.ID, &j.Name, &j.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return &j, nil
}

func scanSchedule(row rowScanner) (*domain.JobSchedule, error) {
	var s domain.JobSchedule
	err := row.Scan(&s.ID, &s.JobID, &s.Cron, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan schedule: %w", err)
	}
	return &s, nil
}
