package jobs

import (
	"context"

	"skillbridge-backend/internal/logger"
)

// DrainOutbox delivers pending events until the outbox is empty or a pass
// makes no progress.
func (jr *JobRunner) DrainOutbox() {
	jr.runWithRecovery("DrainOutbox", func(ctx context.Context) {
		total := 0
		for {
			n, err := jr.dispatcher.DrainOnce(ctx)
			total += n
			if err != nil {
				logger.Error("Failed to drain outbox", "error", err, "delivered", total)
				return
			}
			if n == 0 {
				break
			}
		}
		logger.Info("Outbox drained", "delivered", total)
	})
}

// PurgeDeliveredEvents deletes delivered events older than the configured
// retention. Dead events are kept for inspection.
func (jr *JobRunner) PurgeDeliveredEvents() {
	jr.runWithRecovery("PurgeDeliveredEvents", func(ctx context.Context) {
		days := jr.config.Scheduler.DeliveredRetentionDays
		n, err := jr.outbox.PurgeDelivered(ctx, days)
		if err != nil {
			logger.Error("Failed to purge delivered events", "error", err)
			return
		}
		logger.Info("Purged delivered events", "count", n, "retention_days", days)
	})
}
