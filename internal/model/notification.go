package model

import "time"

// NotificationKind classifies a notification for display purposes.
type NotificationKind string

const (
	NotifyInfo    NotificationKind = "info"
	NotifySuccess NotificationKind = "success"
	NotifyWarning NotificationKind = "warning"
	NotifyError   NotificationKind = "error"
)

// Notification is a message delivered to a user's in-app inbox,
// such as a waitlist offer or a booking confirmation.  Rows are
// written best-effort by the event dispatcher; losing one never
// fails the state change that produced it.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – recipient of the notification.
//  Title     – short headline.
//  Message   – full text shown to the user.
//  Kind      – display class (info, success, warning, error).
//  Read      – whether the user has opened the notification.
//  CreatedAt – creation timestamp.
type Notification struct {
	ID        uint64           // notifications.id
	UserID    uint64           // notifications.user_id
	Title     string           // notifications.title
	Message   string           // notifications.message
	Kind      NotificationKind // notifications.kind
	Read      bool             // notifications.is_read
	CreatedAt time.Time        // notifications.created_at
}
