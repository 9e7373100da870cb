package jobs

import (
	"context"
	"time"

	"skillbridge-backend/internal/config"
	"skillbridge-backend/internal/logger"
	"skillbridge-backend/internal/repository"
)

// Drainer delivers pending outbox events.
type Drainer interface {
	DrainOnce(ctx context.Context) (int, error)
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	outbox     repository.OutboxRepository
	dispatcher Drainer
	config     *config.Config
	timeout    time.Duration
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(outbox repository.OutboxRepository, dispatcher Drainer, cfg *config.Config) *JobRunner {
	return &JobRunner{
		outbox:     outbox,
		dispatcher: dispatcher,
		config:     cfg,
		timeout:    5 * time.Minute,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery and a deadline
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()

	logger.Info("Starting job", "job", jobName)
	jobFunc(ctx)
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.DrainOutbox()
	jr.PurgeDeliveredEvents()
}
