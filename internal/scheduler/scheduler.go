// Package scheduler runs recurring background jobs on cron schedules.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"bondfolio/internal/logger"
	"bondfolio/internal/services"
)

// jobTimeout bounds a single run of any job.
const jobTimeout = 5 * time.Minute

// Job is a named unit of recurring work.
type Job struct {
	Name     string
	Schedule string // standard five-field cron expression
	Run      func(ctx context.Context) error
}

// Scheduler wraps a cron runner. A job whose previous run has not finished
// is skipped rather than started twice.
type Scheduler struct {
	cron *cron.Cron
	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

// New creates a Scheduler that evaluates schedules in UTC.
func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		jobs: make(map[string]cron.EntryID),
	}
}

// AddJob registers a job. A job with the same name is replaced.
func (s *Scheduler) AddJob(job Job) error {
	entryID, err := s.cron.AddFunc(job.Schedule, func() { s.execute(job) })
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.jobs[job.Name]; ok {
		s.cron.Remove(old)
	}
	s.jobs[job.Name] = entryID
	return nil
}

func (s *Scheduler) execute(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	log := logger.Named("scheduler")
	log.Infow("Executing scheduled job", "job", job.Name)
	if err := job.Run(ctx); err != nil {
		log.Errorw("Scheduled job failed", "job", job.Name, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	log.Infow("Scheduled job finished", "job", job.Name, "duration_ms", time.Since(start).Milliseconds())
}

// Jobs returns the registered job names in order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Named("scheduler").Infow("Job scheduler started", "jobs", s.Jobs())
}

// Stop halts the scheduler and waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		logger.Named("scheduler").Info("Job scheduler stopped")
	case <-ctx.Done():
		logger.Named("scheduler").Warn("Job scheduler stop timed out with jobs still running")
	}
}

// SnapshotJob records analytics snapshots for every portfolio, stamped with
// the time the run starts.
func SnapshotJob(schedule string, snapshots services.PortfolioSnapshotServicer) Job {
	return Job{
		Name:     "portfolio_snapshots",
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			_, err := snapshots.ComputeAndRecordSnapshots(ctx, time.Now().UTC().Truncate(time.Second))
			return err
		},
	}
}
