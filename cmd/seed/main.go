// seed inserts a handful of demo jobs, schedules, and an ad hoc run into
// the local dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kallihansen/jobplane/internal/infrastructure/postgres"
	"github.com/kallihansen/jobplane/internal/jobengine"
	"github.com/kallihansen/jobplane/internal/runengine"
)

type jobSpec struct {
	name  string
	crons []string
}

var jobs = []jobSpec{
	{"nightly-report", []string{"0 2 * * *"}},
	{"hourly-sync", []string{"0 * * * *"}},
	{"five-minute-healthcheck", []string{"*/5 * * * *"}},
	{"weekday-digest", []string{"30 9 * * 1-5"}},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	jobRepo := postgres.NewJobRepository()
	runRepo := postgres.NewRunRepository()
	jobEngine := jobengine.New(pool, jobRepo, runRepo)
	runEngine := runengine.New(pool, runRepo, jobRepo, 30*time.Second, 120*time.Second)

	var created []string
	for _, spec := range jobs {
		j, err := jobEngine.CreateJob(ctx, jobengine.CreateJobInput{Name: spec.name, Crons: spec.crons})
		if err != nil {
			log.Fatalf("create job %s: %v", spec.name, err)
		}
		created = append(created, j.Job.ID)
	}

	adhocJobID := created[0]
	run, err := runEngine.CreateAdHocRun(ctx, adhocJobID, nil)
	if err != nil {
		log.Fatalf("create ad hoc run: %v", err)
	}

	// Backfill: simulate recovering a schedule whose next run was never
	// materialised (e.g. after downtime), exercising the same batch path
	// a recovery job would use rather than CreateJob's own per-schedule cascade.
	backfillJob, err := jobEngine.GetJob(ctx, created[len(created)-1])
	if err != nil {
		log.Fatalf("load job for backfill: %v", err)
	}
	if err := runEngine.ScheduleRuns(ctx, backfillJob.Schedules, time.Now().UTC()); err != nil {
		log.Fatalf("backfill schedule runs: %v", err)
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Jobs created:   %d\n", len(created))
	fmt.Printf("  Ad hoc run:     %s (job %s, immediately assignable)\n", run.ID, adhocJobID)
	fmt.Printf("  Backfilled:     %d schedule(s) on job %s\n", len(backfillJob.Schedules), backfillJob.Job.ID)
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  curl -s http://localhost:8080/v1/jobs")
	fmt.Printf("  curl -s -X POST http://localhost:8080/v1/runs/%s/assign \\\n", run.ID)
	fmt.Println(`    -H "Content-Type: application/json" -d '{"worker":"worker-1","lease_duration":"PT60S"}'`)
}
