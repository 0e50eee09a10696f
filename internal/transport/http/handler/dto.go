package handler

import (
	"time"

	"github.com/kallihansen/jobplane/internal/domain"
	"github.com/kallihansen/jobplane/internal/jobengine"
)

// page is the wire shape for every paginated list response: Page<T> in
// the HTTP API table.
type page struct {
	Items []any `json:"items"`
	Count int   `json:"count"`
}

type scheduleDTO struct {
	ID        string    `json:"id"`
	Cron      string    `json:"cron"`
	CreatedAt time.Time `json:"created_at"`
}

type jobDTO struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Schedules []scheduleDTO `json:"schedules,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

func newJobDTO(j *jobengine.JobWithSchedules) jobDTO {
	dto := jobDTO{ID: j.Job.ID, Name: j.Job.Name, CreatedAt: j.Job.CreatedAt}
	for _, s := range j.Schedules {
		dto.Schedules = append(dto.Schedules, scheduleDTO{ID: s.ID, Cron: s.Cron, CreatedAt: s.CreatedAt})
	}
	return dto
}

func newBareJobDTO(j *domain.Job) jobDTO {
	return jobDTO{ID: j.ID, Name: j.Name, CreatedAt: j.CreatedAt}
}

type runDTO struct {
	ID            string     `json:"id"`
	JobID         string     `json:"job_id"`
	JobScheduleID *string    `json:"job_schedule_id,omitempty"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	AssignedTo    *string    `json:"assigned_to,omitempty"`
	AssignedUntil *time.Time `json:"assigned_until,omitempty"`
	Status        string     `json:"status"`
	Result        *string    `json:"result,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func newRunDTO(r *domain.JobRun) runDTO {
	return runDTO{
		ID:            r.ID,
		JobID:         r.JobID,
		JobScheduleID: r.JobScheduleID,
		ScheduledAt:   r.ScheduledAt,
		CompletedAt:   r.CompletedAt,
		AssignedTo:    r.AssignedTo,
		AssignedUntil: r.AssignedUntil,
		Status:        string(r.Status),
		Result:        r.Result,
		CreatedAt:     r.CreatedAt,
	}
}
