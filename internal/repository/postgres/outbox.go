package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/logger"
	"skillbridge-backend/internal/repository"
)

type outboxRepository struct {
	db Querier
}

func NewOutboxRepository(db Querier) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Append(ctx context.Context, e *domain.Event) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.Status = domain.EventStatusPending

	query := `INSERT INTO outbox_events (type, aggregate_id, payload, status, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	logger.DatabaseCall("INSERT", "outbox_events", "type", e.Type, "aggregateID", e.AggregateID)
	err = r.db.QueryRowContext(ctx, query, e.Type, e.AggregateID, payload, e.Status, e.CreatedAt).Scan(&e.ID)
	logger.DatabaseResult("INSERT", 1, err, "eventID", e.ID)
	if err != nil {
		return fmt.Errorf("append event: %w", mapError(err))
	}
	return nil
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]domain.Event, error) {
	query := `SELECT id, type, aggregate_id, payload, status, attempts, last_error, created_at, delivered_at
	          FROM outbox_events WHERE status = 'pending' ORDER BY id LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var payload []byte
		var deliveredAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.Type, &e.AggregateID, &payload, &e.Status, &e.Attempts, &e.LastError, &e.CreatedAt, &deliveredAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return nil, fmt.Errorf("decode payload of event %d: %w", e.ID, err)
			}
		}
		if deliveredAt.Valid {
			t := deliveredAt.Time
			e.DeliveredAt = &t
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *outboxRepository) MarkDelivered(ctx context.Context, id int64) error {
	query := `UPDATE outbox_events SET status = 'delivered', attempts = attempts + 1, last_error = '', delivered_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark event %d delivered: %w", id, err)
	}
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id int64, lastErr string, maxAttempts int) error {
	query := `UPDATE outbox_events
	          SET attempts = attempts + 1,
	              last_error = $1,
	              status = CASE WHEN attempts + 1 >= $2 THEN 'dead' ELSE 'pending' END
	          WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, lastErr, maxAttempts, id)
	if err != nil {
		return fmt.Errorf("mark event %d failed: %w", id, err)
	}
	return nil
}

func (r *outboxRepository) PurgeDelivered(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	query := `DELETE FROM outbox_events WHERE status = 'delivered' AND delivered_at < $1`
	logger.DatabaseCall("DELETE", "outbox_events", "cutoff", cutoff)
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		logger.DatabaseResult("DELETE", 0, err)
		return 0, fmt.Errorf("purge delivered events: %w", err)
	}
	n, err := result.RowsAffected()
	logger.DatabaseResult("DELETE", n, err)
	return n, err
}
