package handler_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kallihansen/jobplane/internal/domain"
	"github.com/kallihansen/jobplane/internal/jobengine"
	"github.com/kallihansen/jobplane/internal/transport/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeJobEngine struct {
	createJob func(ctx context.Context, input jobengine.CreateJobInput) (*jobengine.JobWithSchedules, error)
	getJob    func(ctx context.Context, id string) (*jobengine.JobWithSchedules, error)
	listJobs  func(ctx context.Context, input jobengine.ListJobsInput) (jobengine.Page[*domain.Job], error)
}

func (f *fakeJobEngine) CreateJob(ctx context.Context, input jobengine.CreateJobInput) (*jobengine.JobWithSchedules, error) {
	return f.createJob(ctx, input)
}
func (f *fakeJobEngine) GetJob(ctx context.Context, id string) (*jobengine.JobWithSchedules, error) {
	return f.getJob(ctx, id)
}
func (f *fakeJobEngine) ListJobs(ctx context.Context, input jobengine.ListJobsInput) (jobengine.Page[*domain.Job], error) {
	return f.listJobs(ctx, input)
}

func newTestJobEngine(e *fakeJobEngine) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	h := handler.NewJobHandler(e, logger)

	r := gin.New()
	r.GET("/v1/jobs", h.List)
	r.POST("/v1/jobs", h.Create)
	r.GET("/v1/jobs/:id", h.Get)
	return r
}

func TestCreateJob_InvalidJSON_Returns400(t *testing.T) {
	e := newTestJobEngine(&fakeJobEngine{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", strings.NewReader(`{bad json}`))
	req.Header.Set("Content-Type", "application/json")
	e.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCreateJob_InvalidCron_Returns400(t *testing.T) {
	e := newTestJobEngine(&fakeJobEngine{
		createJob: func(ctx context.Context, input jobengine.CreateJobInput) (*jobengine.JobWithSchedules, error) {
			return nil, domain.ErrInvalidCronExpression
		},
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs",
		strings.NewReader(`{"name":"job","schedules":[{"cron":"garbage"}]}`))
	req.Header.Set("Content-Type", "application/json")
	e.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCreateJob_Success_Returns201(t *testing.T) {
	e := newTestJobEngine(&fakeJobEngine{
		createJob: func(ctx context.Context, input jobengine.CreateJobInput) (*jobengine.JobWithSchedules, error) {
			return &jobengine.JobWithSchedules{Job: domain.Job{ID: "job-1", Name: input.Name}}, nil
		},
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs",
		strings.NewReader(`{"name":"nightly","schedules":[{"cron":"0 2 * * *"}]}`))
	req.Header.Set("Content-Type", "application/json")
	e.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", w.Code, w.Body.String())
	}
}

func TestGetJob_NotFound_Returns404(t *testing.T) {
	e := newTestJobEngine(&fakeJobEngine{
		getJob: func(ctx context.Context, id string) (*jobengine.JobWithSchedules, error) {
			return nil, domain.ErrNotFound
		},
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/missing", nil)
	e.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetJob_UnexpectedError_Returns500(t *testing.T) {
	e := newTestJobEngine(&fakeJobEngine{
		getJob: func(ctx context.Context, id string) (*jobengine.JobWithSchedules, error) {
			return nil, errors.New("db exploded")
		},
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/job-1", nil)
	e.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "db exploded") {
		t.Fatal("internal error detail must not leak to the client")
	}
}

func TestListJobs_Success_Returns200(t *testing.T) {
	e := newTestJobEngine(&fakeJobEngine{
		listJobs: func(ctx context.Context, input jobengine.ListJobsInput) (jobengine.Page[*domain.Job], error) {
			return jobengine.Page[*domain.Job]{Items: []*domain.Job{{ID: "job-1", Name: "nightly"}}, Total: 1}, nil
		},
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/jobs?limit=10", nil)
	e.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
