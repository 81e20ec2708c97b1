package services

import (
	"context"
	"time"

	"github.com/Dosada05/league-rating-system/models"
	"github.com/Dosada05/league-rating-system/repositories"
	"github.com/Dosada05/league-rating-system/store"
)

// Broadcaster pushes live events to a league's websocket room.
// Broadcasts are best-effort; implementations must never block the
// caller on a slow client.
type Broadcaster interface {
	Publish(leagueID int, eventType string, payload interface{})
}

// Notifier persists user notifications. Creates that are part of a match
// lifecycle transaction go through the caller's Executor so that a failed
// notification write aborts the whole unit of work.
type Notifier interface {
	NotifyTx(ctx context.Context, ex store.Executor, userID *int, typ models.NotificationType, title, message string, relatedID int) error
}

type notifier struct {
	notifications repositories.NotificationRepository
}

func NewNotifier(notifications repositories.NotificationRepository) Notifier {
	return &notifier{notifications: notifications}
}

// NotifyTx writes a notification row inside the caller's transaction.
// A nil userID (placeholder roster entry not yet bound to a user) is a
// no-op.
func (n *notifier) NotifyTx(ctx context.Context, ex store.Executor, userID *int, typ models.NotificationType, title, message string, relatedID int) error {
	if userID == nil {
		return nil
	}
	related := relatedID
	return n.notifications.Create(ctx, ex, &models.Notification{
		UserID:    *userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		RelatedID: &related,
		CreatedAt: time.Now().UTC(),
	})
}
