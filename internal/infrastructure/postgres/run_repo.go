package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kallihansen/jobplane/internal/domain"
	"github.com/kallihansen/jobplane/internal/repository"
	"github.com/kallihansen/jobplane/internal/store"
)

// RunRepository implements repository.RunRepository against Postgres. Every
// method takes its own store.Querier rather than holding one, so the same
// repository instance serves both pool-backed reads and transaction-bound
// writes.
type RunRepository struct{}

func NewRunRepository() *RunRepository {
	return &RunRepository{}
}

const runColumns = `id, job_id, job_schedule_id, scheduled_at, completed_at,
	assigned_to, assigned_until, status, result, created_at`

func (r *RunRepository) GetRun(ctx context.Context, q store.Querier, id string) (*domain.JobRun, error) {
	row := q.QueryRow(ctx, `SELECT `+runColumns+` FROM job_runs WHERE id = $1`, id)
	return scanRun(row)
}

func (r *RunRepository) ListRuns(ctx context.Context, q store.Querier, input repository.ListRunsInput) ([]*domain.JobRun, int, error) {
	where := "TRUE"
	if input.AssignableOnly {
		where = `status IN ('SCHEDULED', 'IN_PROGRESS')
			AND (scheduled_at IS NULL OR scheduled_at <= NOW())
			AND (assigned_to IS NULL OR assigned_until IS NULL OR assigned_until < NOW())`
	}

	order := "scheduled_at ASC"
	if input.Descending {
		order = "scheduled_at DESC"
	}
	if input.SortByScheduledAt {
		// scheduled_at is the only supported sort key today; kept as an
		// explicit branch so a second sort key has somewhere to go.
		order = "scheduled_at"
		if input.Descending {
			order += " DESC"
		} else {
			order += " ASC"
		}
	}

	selectQuery := fmt.Sprintf(`SELECT %s FROM job_runs WHERE %s ORDER BY %s, id LIMIT $1 OFFSET $2`,
		runColumns, where, order)
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM job_runs WHERE %s`, where)

	rows, total, err := store.Page(ctx, q, selectQuery, []any{input.Limit, input.Offset}, countQuery, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.JobRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	return runs, total, nil
}

// AssignRun is the sole concurrency-correctness primitive on the hot path:
// the WHERE clause re-states the AssignableForWorker predicate and the database
// evaluates it atomically against its own clock, so two workers racing on
// the same run id can never both succeed.
func (r *RunRepository) AssignRun(ctx context.Context, q store.Querier, id, worker string, leaseDuration time.Duration) (*domain.JobRun, error) {
	query := `
		UPDATE job_runs
		SET    assigned_to    = $2,
		       assigned_until = NOW() + make_interval(secs => $3),
		       status         = 'IN_PROGRESS'
		WHERE  id = $1
		  AND  status IN ('SCHEDULED', 'IN_PROGRESS')
		  AND  (scheduled_at IS NULL OR scheduled_at <= NOW())
		  AND  (assigned_to IS NULL OR assigned_to = $2 OR assigned_until IS NULL OR assigned_until < NOW())
		RETURNING ` + runColumns

	row := q.QueryRow(ctx, query, id, worker, leaseDuration.Seconds())
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrRunAssignmentFailed
		}
		return nil, err
	}
	return run, nil
}

// CompleteRun requires the caller to still hold the lease it was assigned
// under; a run whose lease has since expired (and may already be claimed by
// another worker) cannot be completed by the original holder.
func (r *RunRepository) CompleteRun(ctx context.Context, q store.Querier, id, worker, result string) (*domain.JobRun, error) {
	query := `
		UPDATE job_runs
		SET    status       = 'COMPLETED',
		       result       = $3,
		       completed_at = NOW()
		WHERE  id = $1
		  AND  status = 'IN_PROGRESS'
		  AND  assigned_to = $2
		  AND  assigned_until >= NOW()
		RETURNING ` + runColumns

	row := q.QueryRow(ctx, query, id, worker, result)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrRunCompletionFailed
		}
		return nil, err
	}
	return run, nil
}

func (r *RunRepository) MaterialiseNext(ctx context.Context, q store.Querier, schedule domain.JobSchedule, scheduledAt time.Time) (*domain.JobRun, error) {
	query := `
		INSERT INTO job_runs (job_id, job_schedule_id, scheduled_at, status)
		VALUES ($1, $2, $3, 'SCHEDULED')
		RETURNING ` + runColumns

	row := q.QueryRow(ctx, query, schedule.JobID, schedule.ID, scheduledAt)
	return scanRun(row)
}

func (r *RunRepository) CreateAdHocRun(ctx context.Context, q store.Querier, jobID string, scheduledAt *time.Time) (*domain.JobRun, error) {
	query := `
		INSERT INTO job_runs (job_id, job_schedule_id, scheduled_at, status)
		VALUES ($1, NULL, $2, 'SCHEDULED')
		RETURNING ` + runColumns

	row := q.QueryRow(ctx, query, jobID, scheduledAt)
	return scanRun(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.JobRun, error) {
	var run domain.JobRun
	err := row.Scan(
		&run.ID, &run.JobID, &run.JobScheduleID, &run.ScheduledAt, &run.CompletedAt,
		&run.AssignedTo, &run.AssignedUntil, &run.Status, &run.Result, &run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return &run, nil
}
