package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/league-rating-system/models"
	"github.com/Dosada05/league-rating-system/store"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(ctx context.Context, ex store.Executor, notification *models.Notification) error
	ListByUser(ctx context.Context, userID int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, userID int) error
}

type sqlNotificationRepository struct {
	store *store.Store
}

func NewNotificationRepository(s *store.Store) NotificationRepository {
	return &sqlNotificationRepository{store: s}
}

func (r *sqlNotificationRepository) Create(ctx context.Context, ex store.Executor, notification *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, message, related_id, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	id, err := ex.InsertID(ctx, query,
		notification.UserID,
		notification.Type,
		notification.Title,
		notification.Message,
		notification.RelatedID,
		notification.IsRead,
		notification.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	notification.ID = id
	return nil
}

func (r *sqlNotificationRepository) ListByUser(ctx context.Context, userID int) ([]*models.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, related_id, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`

	rows, err := r.store.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications for user %d: %w", userID, err)
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		n := &models.Notification{}
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.RelatedID,
			&n.IsRead,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during notification rows iteration: %w", err)
	}
	return notifications, nil
}

func (r *sqlNotificationRepository) MarkRead(ctx context.Context, id, userID int) error {
	query := `UPDATE notifications SET is_read = ? WHERE id = ? AND user_id = ?`
	result, err := r.store.ExecContext(ctx, query, true, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification %d read: %w", id, err)
	}
	return checkAffectedRows(result, ErrNotificationNotFound)
}
