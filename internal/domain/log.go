package domain

import "time"

// LogStatus is the recorded outcome of one delivery attempt.
type LogStatus string

const (
	LogStatusSent      LogStatus = "sent"
	LogStatusFailed    LogStatus = "failed"
	LogStatusDelivered LogStatus = "delivered"
	LogStatusOpened    LogStatus = "opened"
)

func (s LogStatus) String() string { return string(s) }

// NotificationLog is the append-only audit record of one delivery attempt.
// UserID is nullable for failures that happen before recipient resolution.
type NotificationLog struct {
	ID               string
	UserID           *string
	NotificationType NotificationType
	Title            string
	Body             string
	URL              string
	Status           LogStatus
	ErrorMessage     *string
	Metadata         map[string]any
	SentAt           time.Time
}
