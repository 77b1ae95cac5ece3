package core

import (
	"time"

	"github.com/google/uuid"
)

// DefaultNotificationTTL is how long a notification stays visible.
const DefaultNotificationTTL = 3 * time.Second

// NotificationKind is the visual category of a notification.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyInfo    NotificationKind = "info"
	NotifyError   NotificationKind = "error"
)

// Notification is a transient message shown to the user.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	Message   string           `json:"message"`
	Kind      NotificationKind `json:"kind"`
	Code      string           `json:"code,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

func newNotification(kind NotificationKind, msg, code string, now time.Time, ttl time.Duration) *Notification {
	return &Notification{
		ID:        uuid.New(),
		Message:   msg,
		Kind:      kind,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether n is no longer visible at now.
func (n *Notification) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}

// Remaining returns how long n stays visible after now, never negative.
func (n *Notification) Remaining(now time.Time) time.Duration {
	if d := n.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
