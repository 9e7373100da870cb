// Package dispatch delivers outbox events to notification sinks after the
// transaction that produced them has committed. Delivery is at-least-once;
// events of one aggregate reach the sinks in the order they were written.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/logger"
	"skillbridge-backend/internal/metrics"
	"skillbridge-backend/internal/repository"
)

// Sink is one delivery target. Deliver may be called more than once for the
// same event.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e domain.Event) error
}

// Emit appends e to the outbox of the transaction tx.
func Emit(ctx context.Context, tx repository.Tx, e *domain.Event) error {
	if err := tx.Outbox().Append(ctx, e); err != nil {
		return fmt.Errorf("emit %s: %w", e.Type, err)
	}
	return nil
}

type Config struct {
	BatchSize    int
	MaxAttempts  int
	PollInterval time.Duration
}

func (c *Config) withDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
}

type Dispatcher struct {
	outbox repository.OutboxRepository
	cfg    Config

	mu    sync.Mutex // serializes drains
	sinks []Sink
	kick  chan struct{}
}

func New(outbox repository.OutboxRepository, cfg Config) *Dispatcher {
	cfg.withDefaults()
	return &Dispatcher{
		outbox: outbox,
		cfg:    cfg,
		kick:   make(chan struct{}, 1),
	}
}

func (d *Dispatcher) Register(s Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, s)
	logger.Info("Registered notification sink", "sink", s.Name())
}

// Notify wakes Run without waiting for the next poll. It never blocks.
func (d *Dispatcher) Notify() {
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

// DrainOnce delivers one batch of pending events and returns how many were
// delivered to every sink.
func (d *Dispatcher) DrainOnce(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	events, err := d.outbox.ListPending(ctx, d.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("load pending events: %w", err)
	}

	delivered := 0
	blocked := make(map[string]bool)
	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		if blocked[e.AggregateID] {
			continue
		}

		if derr := d.deliver(ctx, e); derr != nil {
			blocked[e.AggregateID] = true
			if err := d.outbox.MarkFailed(ctx, e.ID, derr.Error(), d.cfg.MaxAttempts); err != nil {
				return delivered, fmt.Errorf("record failure of event %d: %w", e.ID, err)
			}
			if e.Attempts+1 >= d.cfg.MaxAttempts {
				metrics.DeadEvent()
				logger.Error("Event exhausted delivery attempts", "eventID", e.ID, "type", e.Type, "aggregateID", e.AggregateID, "error", derr)
			} else {
				logger.Warn("Event delivery failed", "eventID", e.ID, "type", e.Type, "attempt", e.Attempts+1, "error", derr)
			}
			continue
		}

		if err := d.outbox.MarkDelivered(ctx, e.ID); err != nil {
			return delivered, fmt.Errorf("mark event %d delivered: %w", e.ID, err)
		}
		delivered++
	}
	if len(events) > 0 {
		logger.Debug("Outbox drained", "loaded", len(events), "delivered", delivered)
	}
	return delivered, nil
}

func (d *Dispatcher) deliver(ctx context.Context, e domain.Event) error {
	var errs []error
	for _, s := range d.sinks {
		err := s.Deliver(ctx, e)
		metrics.Delivery(s.Name(), err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Run drains on every poll tick and whenever Notify is called, until ctx is
// cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	logger.Info("Notification dispatcher started", "pollInterval", d.cfg.PollInterval, "batchSize", d.cfg.BatchSize)
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := d.DrainOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Outbox drain failed", "error", err)
		}
		select {
		case <-ctx.Done():
			logger.Info("Notification dispatcher stopped")
			return nil
		case <-ticker.C:
		case <-d.kick:
		}
	}
}
