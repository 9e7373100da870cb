package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"skillbridge-backend/internal/jobs"
	"skillbridge-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	// UTC with seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler. The
// outbox relay is only scheduled when the server does not run it.
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config()

	if !cfg.Notifications.RelayInServer {
		if _, err := s.cron.AddFunc(cfg.Scheduler.DrainOutbox, s.jobs.DrainOutbox); err != nil {
			logger.Error("Failed to register DrainOutbox job", "error", err)
			return err
		}
	} else {
		logger.Info("Outbox relay runs in the server, DrainOutbox not scheduled")
	}

	if _, err := s.cron.AddFunc(cfg.Scheduler.PurgeDeliveredEvents, s.jobs.PurgeDeliveredEvents); err != nil {
		logger.Error("Failed to register PurgeDeliveredEvents job", "error", err)
		return err
	}

	logger.Info("All cron jobs registered successfully", "count", len(s.cron.Entries()))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// JobCount returns the number of registered jobs
func (s *Scheduler) JobCount() int {
	return len(s.cron.Entries())
}
