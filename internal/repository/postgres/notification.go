package postgres

import (
	"context"
	"encoding/json"
	"time"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/logger"
	"skillbridge-backend/internal/repository"
)

type notificationRepository struct {
	db Querier
}

func NewNotificationRepository(db Querier) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "profileID", n.ProfileID, "title", n.Title)

	attrs, err := json.Marshal(n.Attributes)
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "reason", "failed to marshal attributes")
		return err
	}

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO notifications (profile_id, title, message, is_read, attributes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	logger.DatabaseCall("INSERT", "notifications", "profileID", n.ProfileID)
	err = r.db.QueryRowContext(ctx, query, n.ProfileID, n.Title, n.Message, n.IsRead, attrs, n.CreatedAt).Scan(&n.ID)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID)

	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "profileID", n.ProfileID)
	} else {
		logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	}
	return err
}

func (r *notificationRepository) List(ctx context.Context, profileID string, limit, offset int32) ([]domain.Notification, int32, error) {
	var count int32
	countQuery := `SELECT count(*) FROM notifications WHERE profile_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, profileID).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, profile_id, title, message, is_read, attributes, created_at
	          FROM notifications WHERE profile_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, profileID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notes []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var attrs []byte
		if err := rows.Scan(&n.ID, &n.ProfileID, &n.Title, &n.Message, &n.IsRead, &attrs, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &n.Attributes); err != nil {
				return nil, 0, err
			}
		}
		notes = append(notes, n)
	}
	return notes, count, rows.Err()
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id int64, profileID string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND profile_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, profileID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.NewError(domain.KindNotFound, "notification %d not found", id)
	}
	return nil
}
