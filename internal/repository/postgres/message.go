package postgres

import (
	"context"
	"fmt"
	"time"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/logger"
	"skillbridge-backend/internal/repository"
)

type messageRepository struct {
	db Querier
}

func NewMessageRepository(db Querier) repository.MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, m *domain.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO messages (id, application_id, sender_id, recipient_id, body, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	logger.DatabaseCall("INSERT", "messages", "messageID", m.ID, "recipientID", m.RecipientID)
	_, err := r.db.ExecContext(ctx, query, m.ID, m.ApplicationID, m.SenderID, m.RecipientID, m.Body, m.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "messageID", m.ID)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *messageRepository) ListByApplication(ctx context.Context, applicationID string) ([]domain.Message, error) {
	query := `SELECT id, application_id, sender_id, recipient_id, body, created_at
	          FROM messages WHERE application_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ApplicationID, &m.SenderID, &m.RecipientID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
