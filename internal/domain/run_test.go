package domain_test

import (
	"testing"
	"time"

	"github.com/kallihansen/jobplane/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestAssignable(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	cases := []struct {
		name string
		run  domain.JobRun
		want bool
	}{
		{"scheduled, unassigned, due", domain.JobRun{Status: domain.StatusScheduled, ScheduledAt: &past}, true},
		{"scheduled, not yet due", domain.JobRun{Status: domain.StatusScheduled, ScheduledAt: &future}, false},
		{"completed is never assignable", domain.JobRun{Status: domain.StatusCompleted}, false},
		{"in progress with live lease", domain.JobRun{Status: domain.StatusInProgress, AssignedTo: ptr("w1"), AssignedUntil: &future}, false},
		{"in progress with expired lease", domain.JobRun{Status: domain.StatusInProgress, AssignedTo: ptr("w1"), AssignedUntil: &past}, true},
		{"scheduled with no lease ever taken", domain.JobRun{Status: domain.StatusScheduled}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.run.Assignable(now); got != tc.want {
				t.Fatalf("Assignable() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAssignableForWorker_OwnerCanRenew(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)

	run := domain.JobRun{Status: domain.StatusInProgress, AssignedTo: ptr("w1"), AssignedUntil: &future}

	if !run.AssignableForWorker(now, "w1") {
		t.Fatal("expected current holder to be able to renew a live lease")
	}
	if run.AssignableForWorker(now, "w2") {
		t.Fatal("expected a different worker to be rejected while the lease is live")
	}
}
