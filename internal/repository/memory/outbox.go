package memory

import (
	"context"
	"time"

	"skillbridge-backend/internal/domain"
)

type outboxRepository struct {
	with access
}

func copyEvent(e domain.Event) domain.Event {
	payload := make(map[string]string, len(e.Payload))
	for k, v := range e.Payload {
		payload[k] = v
	}
	e.Payload = payload
	return e
}

func (r *outboxRepository) Append(ctx context.Context, e *domain.Event) error {
	return r.with(ctx, func(st *state) error {
		st.nextEventID++
		e.ID = st.nextEventID
		e.Status = domain.EventStatusPending
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now().UTC()
		}
		st.events = append(st.events, copyEvent(*e))
		return nil
	})
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]domain.Event, error) {
	var out []domain.Event
	err := r.with(ctx, func(st *state) error {
		for _, e := range st.events {
			if len(out) >= limit {
				break
			}
			if e.Status == domain.EventStatusPending {
				out = append(out, copyEvent(e))
			}
		}
		return nil
	})
	return out, err
}

func (r *outboxRepository) update(ctx context.Context, id int64, fn func(e *domain.Event)) error {
	return r.with(ctx, func(st *state) error {
		for i := range st.events {
			if st.events[i].ID == id {
				fn(&st.events[i])
				return nil
			}
		}
		return domain.NewError(domain.KindNotFound, "event %d not found", id)
	})
}

func (r *outboxRepository) MarkDelivered(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	return r.update(ctx, id, func(e *domain.Event) {
		e.Attempts++
		e.Status = domain.EventStatusDelivered
		e.LastError = ""
		e.DeliveredAt = &now
	})
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id int64, lastErr string, maxAttempts int) error {
	return r.update(ctx, id, func(e *domain.Event) {
		e.Attempts++
		e.LastError = lastErr
		if e.Attempts >= maxAttempts {
			e.Status = domain.EventStatusDead
		}
	})
}

func (r *outboxRepository) PurgeDelivered(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	var purged int64
	err := r.with(ctx, func(st *state) error {
		kept := st.events[:0:0]
		for _, e := range st.events {
			if e.Status == domain.EventStatusDelivered && e.DeliveredAt != nil && e.DeliveredAt.Before(cutoff) {
				purged++
				continue
			}
			kept = append(kept, e)
		}
		st.events = kept
		return nil
	})
	return purged, err
}

// Events returns every outbox row in id order, delivered or not.
func (s *Store) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Event, 0, len(s.st.events))
	for _, e := range s.st.events {
		out = append(out, copyEvent(e))
	}
	return out
}
