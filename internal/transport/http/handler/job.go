package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kallihansen/jobplane/internal/domain"
	"github.com/kallihansen/jobplane/internal/jobengine"
)

// jobEngine is satisfied by *jobengine.Engine; handler tests substitute a
// fake so they exercise request binding and error translation without a
// database.
type jobEngine interface {
	CreateJob(ctx context.Context, input jobengine.CreateJobInput) (*jobengine.JobWithSchedules, error)
	GetJob(ctx context.Context, id string) (*jobengine.JobWithSchedules, error)
	ListJobs(ctx context.Context, input jobengine.ListJobsInput) (jobengine.Page[*domain.Job], error)
}

type JobHandler struct {
	engine jobEngine
	logger *slog.Logger
}

func NewJobHandler(engine jobEngine, logger *slog.Logger) *JobHandler {
	return &JobHandler{engine: engine, logger: logger.With("component", "job_handler")}
}

type createScheduleRequest struct {
	Cron string `json:"cron" binding:"required"`
}

type createJobRequest struct {
	Name      string                   `json:"name" binding:"required"`
	Schedules []createScheduleRequest  `json:"schedules"`
}

func (h *JobHandler) Create(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	crons := make([]string, 0, len(req.Schedules))
	for _, s := range req.Schedules {
		crons = append(crons, s.Cron)
	}

	job, err := h.engine.CreateJob(c.Request.Context(), jobengine.CreateJobInput{
		Name:  req.Name,
		Crons: crons,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newJobDTO(job))
}

func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.engine.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newJobDTO(job))
}

func (h *JobHandler) List(c *gin.Context) {
	offset, limit, descending := parsePage(c)
	sortByName := c.Query("sort") == "name"

	result, err := h.engine.ListJobs(c.Request.Context(), jobengine.ListJobsInput{
		SortByName: sortByName,
		Descending: descending,
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]any, 0, len(result.Items))
	for _, j := range result.Items {
		items = append(items, newBareJobDTO(j))
	}
	c.JSON(http.StatusOK, page{Items: items, Count: result.Total})
}
