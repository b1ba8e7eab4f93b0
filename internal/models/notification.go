// internal/models/notification.go
package models

import "time"

// Notification types recorded in the attempt log.
const (
	TypeMembershipReminder = "membership_reminder"
)

// Attempt statuses.
const (
	AttemptStatusSent   = "sent"
	AttemptStatusFailed = "failed"
)

// NotificationAttempt is one row of the append-only delivery log. Rows are
// created once per delivery attempt and never mutated.
type NotificationAttempt struct {
	ID           string    `json:"id"`
	MemberID     string    `json:"memberId"`
	Type         string    `json:"type"`
	Subject      string    `json:"subject"`
	Provider     string    `json:"provider,omitempty"`
	MessageID    string    `json:"messageId,omitempty"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	SentAt       time.Time `json:"sentAt"`
}

// Template holds the reminder subject and body with {{placeholder}} markers.
type Template struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}
