package services

import (
	"context"
	"errors"

	"github.com/Dosada05/league-rating-system/models"
	"github.com/Dosada05/league-rating-system/repositories"
)

type NotificationService interface {
	ListForUser(ctx context.Context, userID int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID int) error
}

type notificationService struct {
	notifications repositories.NotificationRepository
}

func NewNotificationService(notificationRepo repositories.NotificationRepository) NotificationService {
	return &notificationService{notifications: notificationRepo}
}

func (s *notificationService) ListForUser(ctx context.Context, userID int) ([]*models.Notification, error) {
	return s.notifications.ListByUser(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID int) error {
	err := s.notifications.MarkRead(ctx, notificationID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
