package memory

import (
	"context"
	"sort"
	"time"

	"skillbridge-backend/internal/domain"
)

type notificationRepository struct {
	with access
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.with(ctx, func(st *state) error {
		st.nextNoteID++
		n.ID = st.nextNoteID
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now().UTC()
		}
		st.notifications = append(st.notifications, *n)
		return nil
	})
}

func (r *notificationRepository) List(ctx context.Context, profileID string, limit, offset int32) ([]domain.Notification, int32, error) {
	var mine []domain.Notification
	err := r.with(ctx, func(st *state) error {
		for _, n := range st.notifications {
			if n.ProfileID == profileID {
				mine = append(mine, n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(mine, func(i, j int) bool {
		if !mine[i].CreatedAt.Equal(mine[j].CreatedAt) {
			return mine[i].CreatedAt.After(mine[j].CreatedAt)
		}
		return mine[i].ID > mine[j].ID
	})

	total := int32(len(mine))
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return mine[offset:end], total, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id int64, profileID string) error {
	return r.with(ctx, func(st *state) error {
		for i := range st.notifications {
			if st.notifications[i].ID == id && st.notifications[i].ProfileID == profileID {
				st.notifications[i].IsRead = true
				return nil
			}
		}
		return domain.NewError(domain.KindNotFound, "notification %d not found", id)
	})
}

type messageRepository struct {
	with access
}

func (r *messageRepository) Create(ctx context.Context, m *domain.Message) error {
	return r.with(ctx, func(st *state) error {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now().UTC()
		}
		st.messages = append(st.messages, *m)
		return nil
	})
}

func (r *messageRepository) ListByApplication(ctx context.Context, applicationID string) ([]domain.Message, error) {
	var out []domain.Message
	err := r.with(ctx, func(st *state) error {
		for _, m := range st.messages {
			if m.ApplicationID != nil && *m.ApplicationID == applicationID {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}
