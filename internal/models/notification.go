package models

import (
	"encoding/json"
	"time"
)

// NotificationType enumerates the structured event kinds recorded for users.
type NotificationType string

const (
	NotificationApplicationStatusChanged NotificationType = "APPLICATION_STATUS_CHANGED"
	NotificationTaskSubmitted            NotificationType = "TASK_SUBMITTED"
	NotificationFeedbackReceived         NotificationType = "FEEDBACK_RECEIVED"
)

// Notification is an append-only event recorded for a user. Delivery is
// handled out of band; the row is the durable record.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Type      NotificationType `db:"type" json:"type"`
	Payload   json.RawMessage  `db:"payload" json:"payload"`
	Read      bool             `db:"read" json:"read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// NotificationFilter captures listing criteria for a user's notifications.
type NotificationFilter struct {
	UserID     string
	UnreadOnly bool
	Page       int
	PageSize   int
}
