package models

import "time"

// NotificationType identifies where a notification came from.
type NotificationType string

const (
	NotificationUser    NotificationType = "user"
	NotificationAdmin   NotificationType = "admin"
	NotificationArduino NotificationType = "arduino"
	NotificationSystem  NotificationType = "system"
	NotificationWarning NotificationType = "warning"
)

type Notification struct {
	ID        string           `json:"id"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	Timestamp time.Time        `json:"timestamp"`
	Type      NotificationType `json:"type"`
}
