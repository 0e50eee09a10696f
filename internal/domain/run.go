package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidCronExpression = errors.New("invalid cron expression")
	ErrRunAssignmentFailed   = errors.New("run is not assignable")
	ErrRunCompletionFailed   = errors.New("run is not completable")
	ErrValidation            = errors.New("validation failed")
)

type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Job is a named schedulable unit. The core never mutates a job after
// creation and never deletes one.
type Job struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// JobSchedule binds a cron expression to a job. Immutable after creation.
type JobSchedule struct {
	ID        string
	JobID     string
	Cron      string
	CreatedAt time.Time
}

// JobRun is one materialised occurrence of work, either cascaded from a
// JobSchedule or created ad hoc (JobScheduleID absent).
type JobRun struct {
	ID            string
	JobID         string
	JobScheduleID *string
	ScheduledAt   *time.Time
	CompletedAt   *time.Time
	AssignedTo    *string
	AssignedUntil *time.Time
	Status        Status
	Result        *string
	CreatedAt     time.Time
}

// Assignable reports whether r can be claimed at now by a worker other than
// its current holder, per the read-only form of the assignability predicate
// (status, scheduled_at and lease expiry — the form the list endpoint's SQL
// filter uses). AssignableForWorker additionally allows renewal
// by the current holder, which only the conditional UPDATE in the
// persistence layer evaluates transactionally; this copy exists so the
// same rule can be asserted against in tests without a database.
func (r JobRun) Assignable(now time.Time) bool {
	if r.Status != StatusScheduled && r.Status != StatusInProgress {
		return false
	}
	if r.ScheduledAt != nil && r.ScheduledAt.After(now) {
		return false
	}
	if r.AssignedTo == nil {
		return true
	}
	return r.AssignedUntil == nil || r.AssignedUntil.Before(now)
}

// AssignableForWorker is Assignable plus the current-holder renewal case.
func (r JobRun) AssignableForWorker(now time.Time, worker string) bool {
	if r.Status != StatusScheduled && r.Status != StatusInProgress {
		return false
	}
	if r.ScheduledAt != nil && r.ScheduledAt.After(now) {
		return false
	}
	if r.AssignedTo == nil || *r.AssignedTo == worker {
		return true
	}
	return r.AssignedUntil == nil || r.AssignedUntil.Before(now)
}
