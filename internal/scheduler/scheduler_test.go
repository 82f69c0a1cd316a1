package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"bondfolio/internal/models"
	"bondfolio/internal/pagination"
	"bondfolio/internal/services"
)

type fakeSnapshotService struct {
	recordedAt time.Time
	err        error
}

var _ services.PortfolioSnapshotServicer = (*fakeSnapshotService)(nil)

func (f *fakeSnapshotService) ComputeAndRecordSnapshots(_ context.Context, recordedAt time.Time) (int, error) {
	f.recordedAt = recordedAt
	return 1, f.err
}

func (f *fakeSnapshotService) GetSnapshots(string, time.Time, time.Time, pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error) {
	return nil, nil
}

func TestAddJob(t *testing.T) {
	t.Run("registers_job", func(t *testing.T) {
		s := New()
		if err := s.AddJob(Job{Name: "b", Schedule: "0 18 * * 1-5", Run: func(context.Context) error { return nil }}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.AddJob(Job{Name: "a", Schedule: "@hourly", Run: func(context.Context) error { return nil }}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		jobs := s.Jobs()
		if len(jobs) != 2 || jobs[0] != "a" || jobs[1] != "b" {
			t.Errorf("expected [a b], got %v", jobs)
		}
	})

	t.Run("replaces_same_name", func(t *testing.T) {
		s := New()
		for i := 0; i < 2; i++ {
			if err := s.AddJob(Job{Name: "a", Schedule: "@daily", Run: func(context.Context) error { return nil }}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if len(s.cron.Entries()) != 1 {
			t.Errorf("expected 1 cron entry, got %d", len(s.cron.Entries()))
		}
	})

	t.Run("rejects_invalid_schedule", func(t *testing.T) {
		s := New()
		if err := s.AddJob(Job{Name: "bad", Schedule: "every tuesday"}); err == nil {
			t.Error("expected error for invalid schedule")
		}
		if len(s.Jobs()) != 0 {
			t.Errorf("expected no jobs, got %v", s.Jobs())
		}
	})
}

func TestStartStop(t *testing.T) {
	s := New()
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestSnapshotJob(t *testing.T) {
	t.Run("records_at_run_time", func(t *testing.T) {
		svc := &fakeSnapshotService{}
		job := SnapshotJob("0 18 * * *", svc)

		before := time.Now().UTC().Add(-time.Second)
		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc.recordedAt.Before(before) {
			t.Errorf("expected recorded_at after %v, got %v", before, svc.recordedAt)
		}
		if svc.recordedAt.Nanosecond() != 0 {
			t.Errorf("expected recorded_at truncated to seconds, got %v", svc.recordedAt)
		}
	})

	t.Run("propagates_error", func(t *testing.T) {
		svc := &fakeSnapshotService{err: errors.New("boom")}
		if err := SnapshotJob("@daily", svc).Run(context.Background()); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("execute_logs_failure", func(t *testing.T) {
		svc := &fakeSnapshotService{err: errors.New("boom")}
		s := New()
		s.execute(SnapshotJob("@daily", svc))
		if svc.recordedAt.IsZero() {
			t.Error("expected job to run")
		}
	})
}
