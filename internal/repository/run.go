package repository

import (
	"context"
	"time"

	"github.com/kallihansen/jobplane/internal/domain"
	"github.com/kallihansen/jobplane/internal/store"
)

type ListRunsInput struct {
	AssignableOnly bool
	SortByScheduledAt bool
	Descending        bool
	Offset            int
	Limit             int
}

// RunRepository is the run engine's storage dependency. Every method takes
// an already-resolved store.Querier — either a bare pool handle for
// read-only calls or an open transaction for mutating calls — so the
// engine, not the repository, owns the transaction boundary.
type RunRepository interface {
	// GetRun returns the run or domain.ErrNotFound.
	GetRun(ctx context.Context, q store.Querier, id string) (*domain.JobRun, error)

	// ListRuns returns the page of runs matching input alongside the
	// unpaged total count.
	ListRuns(ctx context.Context, q store.Querier, input ListRunsInput) ([]*domain.JobRun, int, error)

	// AssignRun atomically evaluates the assignability predicate against
	// database time and, on match, sets assigned_to/assigned_until/status
	// in one UPDATE ... RETURNING. Returns domain.ErrRunAssignmentFailed
	// if the predicate matched no row.
	AssignRun(ctx context.Context, q store.Querier, id, worker string, leaseDuration time.Duration) (*domain.JobRun, error)

	// CompleteRun atomically evaluates the live-lease predicate and, on
	// match, marks the run completed in one UPDATE ... RETURNING. Returns
	// domain.ErrRunCompletionFailed if the predicate matched no row.
	CompleteRun(ctx context.Context, q store.Querier, id, worker, result string) (*domain.JobRun, error)

	// MaterialiseNext inserts the next SCHEDULED run for schedule, due at
	// scheduledAt.
	MaterialiseNext(ctx context.Context, q store.Querier, schedule domain.JobSchedule, scheduledAt time.Time) (*domain.JobRun, error)

	// CreateAdHocRun inserts a SCHEDULED run with no originating schedule.
	// scheduledAt absent means the run is immediately eligible.
	CreateAdHocRun(ctx context.Context, q store.Querier, jobID string, scheduledAt *time.Time) (*domain.JobRun, error)
}
