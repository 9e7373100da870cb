package service

import (
	"context"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type notificationService struct {
	noteRepo    repository.NotificationRepository
	messageRepo repository.MessageRepository
	lifecycle   ApplicationService
}

func NewNotificationService(noteRepo repository.NotificationRepository, messageRepo repository.MessageRepository, lifecycle ApplicationService) NotificationService {
	return &notificationService{noteRepo: noteRepo, messageRepo: messageRepo, lifecycle: lifecycle}
}

func (s *notificationService) GetNotifications(ctx context.Context, actor domain.Actor, page, pageSize int32) ([]domain.Notification, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	offset := (page - 1) * pageSize
	return s.noteRepo.List(ctx, actor.ProfileID(), pageSize, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, actor domain.Actor, notificationID int64) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, actor.ProfileID())
}

// ListApplicationMessages returns the thread of an application visible to
// the caller.
func (s *notificationService) ListApplicationMessages(ctx context.Context, actor domain.Actor, applicationID string) ([]domain.Message, error) {
	if _, err := s.lifecycle.GetApplication(ctx, actor, applicationID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListByApplication(ctx, applicationID)
}
