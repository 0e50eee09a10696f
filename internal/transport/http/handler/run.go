package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kallihansen/jobplane/internal/domain"
	"github.com/kallihansen/jobplane/internal/isodur"
	"github.com/kallihansen/jobplane/internal/runengine"
)

// runEngine is satisfied by *runengine.Engine; handler tests substitute a
// fake so they exercise request binding and error translation without a
// database.
type runEngine interface {
	GetRun(ctx context.Context, id string) (*domain.JobRun, error)
	ListRuns(ctx context.Context, input runengine.ListRunsInput) (runengine.Page[*domain.JobRun], error)
	AssignRun(ctx context.Context, id, worker string, leaseDuration time.Duration) (*domain.JobRun, error)
	CompleteRun(ctx context.Context, id, worker, result string) (*domain.JobRun, error)
}

type RunHandler struct {
	engine runEngine
	logger *slog.Logger
}

func NewRunHandler(engine runEngine, logger *slog.Logger) *RunHandler {
	return &RunHandler{engine: engine, logger: logger.With("component", "run_handler")}
}

func (h *RunHandler) Get(c *gin.Context) {
	run, err := h.engine.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRunDTO(run))
}

func (h *RunHandler) List(c *gin.Context) {
	offset, limit, descending := parsePage(c)
	assignableOnly := c.Query("assignable_only") == "true"
	sortByScheduledAt := c.Query("sort") == "scheduled_at"

	result, err := h.engine.ListRuns(c.Request.Context(), runengine.ListRunsInput{
		AssignableOnly:    assignableOnly,
		SortByScheduledAt: sortByScheduledAt,
		Descending:        descending,
		Offset:            offset,
		Limit:             limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]any, 0, len(result.Items))
	for _, r := range result.Items {
		items = append(items, newRunDTO(r))
	}
	c.JSON(http.StatusOK, page{Items: items, Count: result.Total})
}

type assignRunRequest struct {
	Worker        string `json:"worker" binding:"required"`
	LeaseDuration string `json:"lease_duration" binding:"required"`
}

func (h *RunHandler) Assign(c *gin.Context) {
	var req assignRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	lease, err := isodur.Parse(req.LeaseDuration)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	run, err := h.engine.AssignRun(c.Request.Context(), c.Param("id"), req.Worker, lease)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRunDTO(run))
}

type completeRunRequest struct {
	Worker string `json:"worker" binding:"required"`
	Result string `json:"result"`
}

func (h *RunHandler) Complete(c *gin.Context) {
	var req completeRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	run, err := h.engine.CompleteRun(c.Request.Context(), c.Param("id"), req.Worker, req.Result)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRunDTO(run))
}
