package models

import "time"

type NotificationType string

const (
	NotificationMatchSubmitted NotificationType = "match_submitted"
	NotificationMatchAccepted  NotificationType = "match_accepted"
	NotificationMatchDeferred  NotificationType = "match_deferred"
	NotificationMatchRejected  NotificationType = "match_rejected"
	NotificationRatingApplied  NotificationType = "rating_applied"
)

type Notification struct {
	ID        int              `json:"id"`
	UserID    int              `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	RelatedID *int             `json:"related_id,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
