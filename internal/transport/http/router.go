package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/kallihansen/jobplane/internal/health"
	"github.com/kallihansen/jobplane/internal/transport/http/handler"
	"github.com/kallihansen/jobplane/internal/transport/http/middleware"
)

// NewRouter wires the public API. workerAuthKey, when non-empty, gates
// every /v1/runs/* route behind WorkerAuth; a nil/empty key leaves the
// routes open, matching local-dev config where WORKER_AUTH_SECRET is
// unset.
func NewRouter(logger *slog.Logger, checker *health.Checker, jobHandler *handler.JobHandler, runHandler *handler.RunHandler, workerAuthKey []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	r.GET("/livez", func(c *gin.Context) {
		c.JSON(http.StatusOK, checker.Liveness(c.Request.Context()))
	})
	r.GET("/readyz", func(c *gin.Context) {
		result := checker.Readiness(c.Request.Context())
		status := http.StatusOK
		if result.Status != "up" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, result)
	})

	v1 := r.Group("/v1")

	jobs := v1.Group("/jobs")
	jobs.GET("", jobHandler.List)
	jobs.POST("", jobHandler.Create)
	jobs.GET("/:id", jobHandler.Get)

	runs := v1.Group("/runs")
	if len(workerAuthKey) > 0 {
		runs.Use(middleware.WorkerAuth(workerAuthKey))
	}
	runs.GET("", runHandler.List)
	runs.GET("/:id", runHandler.Get)
	runs.POST("/:id/assign", runHandler.Assign)
	runs.POST("/:id/complete", runHandler.Complete)

	return r
}
