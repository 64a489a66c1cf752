package model

import (
	"time"

	"github.com/google/uuid"
)

// ToastDuration is how long a notification stays in the status bar.
const ToastDuration = 3 * time.Second

// NotificationLevel distinguishes informational toasts from failures.
type NotificationLevel int

const (
	LevelInfo NotificationLevel = iota
	LevelError
)

// Notification is a transient message surfaced to the user.
type Notification struct {
	// ID is the unique identifier for this notification. The UI uses it
	// to expire only the toast it scheduled.
	ID string `json:"id"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	Level NotificationLevel `json:"level"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at"`
}

// NewNotification creates a notification with a fresh ID.
func NewNotification(level NotificationLevel, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Level:     level,
		CreatedAt: time.Now(),
	}
}

// Info is shorthand for an informational notification.
func Info(message string) Notification {
	return NewNotification(LevelInfo, message)
}

// Failure is shorthand for an error notification.
func Failure(message string) Notification {
	return NewNotification(LevelError, message)
}
