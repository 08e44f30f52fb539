package domain

import (
	"fmt"
	"strings"
	"time"
)

// TaskType identifies one family of deferred work.
type TaskType string

const (
	TaskEventReminder1h          TaskType = "event_reminder_1h"
	TaskEventReminder15m         TaskType = "event_reminder_15m"
	TaskBookingReminder24h       TaskType = "booking_reminder_24h"
	TaskCertificatesAutoGenerate TaskType = "certificates_auto_generate"
	TaskFeedbackInvitesSend      TaskType = "feedback_invites_send"
)

func (t TaskType) String() string { return string(t) }

func (t TaskType) IsValid() bool {
	switch t {
	case TaskEventReminder1h, TaskEventReminder15m, TaskBookingReminder24h,
		TaskCertificatesAutoGenerate, TaskFeedbackInvitesSend:
		return true
	}
	return false
}

func ParseTaskTypeFromString(s string) (TaskType, error) {
	t := TaskType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: invalid task type %q", ErrValidation, s)
	}
	return t, nil
}

// IsMarker reports whether tasks of this type carry no single owning user.
// Marker tasks represent event-level work whose per-user expansion happens
// when the task fires, and they are never deleted on event edits because
// their fan-out may already have been observed downstream.
func (t TaskType) IsMarker() bool {
	return t == TaskCertificatesAutoGenerate || t == TaskFeedbackInvitesSend
}

// EventReminderTaskTypes are the types that are safe to delete and recreate
// when an event's schedule changes.
var EventReminderTaskTypes = []TaskType{TaskEventReminder1h, TaskEventReminder15m}

// TaskStatus is the lifecycle state of a scheduled task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusQueued    TaskStatus = "QUEUED"
	TaskStatusCompleted TaskStatus = "COMPLETED"
	TaskStatusFailed    TaskStatus = "FAILED"
	TaskStatusCancelled TaskStatus = "CANCELLED"
)

func (s TaskStatus) String() string { return string(s) }

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusQueued, TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	}
	return false
}

// ScheduledTask is a durable, idempotent unit of deferred work. EventID and
// UserID are optional because marker tasks apply to an event as a whole, and
// ad-hoc tasks may be owned by neither.
type ScheduledTask struct {
	ID             string
	TaskType       TaskType
	EventID        *string
	UserID         *string
	Status         TaskStatus
	RunAt          time.Time
	IdempotencyKey string
	Metadata       map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (t *ScheduledTask) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: task is required", ErrValidation)
	}
	if !t.TaskType.IsValid() {
		return fmt.Errorf("%w: invalid task type %q", ErrValidation, t.TaskType)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: invalid task status %q", ErrValidation, t.Status)
	}
	if t.RunAt.IsZero() {
		return fmt.Errorf("%w: run_at is required", ErrValidation)
	}
	if t.IdempotencyKey == "" {
		return fmt.Errorf("%w: idempotency key is required", ErrValidation)
	}
	return nil
}

// TaskIdempotencyKey derives the deterministic key guarding one logical task
// instance. The date component (not the full timestamp) keeps a same-day edit
// from minting a second key for the same reminder.
func TaskIdempotencyKey(taskType TaskType, domainID string, day time.Time) string {
	return fmt.Sprintf("%s|%s|%s", taskType, domainID, day.Format("2006-01-02"))
}

// NewUserTask builds a pending task owned by a single user. keyDomainID is
// the identifier the idempotency key is derived from (the booking id for
// booking reminders, not the event id); anchorDay is the event's calendar day.
func NewUserTask(taskType TaskType, eventID, userID, keyDomainID string, runAt, anchorDay time.Time, metadata map[string]any) *ScheduledTask {
	task := newTask(taskType, keyDomainID, runAt, anchorDay, metadata)
	task.EventID = &eventID
	task.UserID = &userID
	return task
}

// NewEventTask builds a pending task that fans out to an event's audience.
// Metadata carries what the send-half needs at fire time (title, cohorts),
// so firing never depends on a table this engine does not own.
func NewEventTask(taskType TaskType, eventID string, runAt, anchorDay time.Time, metadata map[string]any) *ScheduledTask {
	task := newTask(taskType, eventID, runAt, anchorDay, metadata)
	task.EventID = &eventID
	return task
}

// NewMarkerTask builds a pending event-level marker task with no owning user.
func NewMarkerTask(taskType TaskType, eventID string, runAt, anchorDay time.Time, metadata map[string]any) *ScheduledTask {
	task := newTask(taskType, eventID, runAt, anchorDay, metadata)
	task.EventID = &eventID
	return task
}

// The key's date component comes from the event's anchor day, not the fire
// instant: a reminder that fires the evening before an early-morning event
// must share its key with later replans of the same event day.
func newTask(taskType TaskType, keyDomainID string, runAt, anchorDay time.Time, metadata map[string]any) *ScheduledTask {
	return &ScheduledTask{
		TaskType:       taskType,
		Status:         TaskStatusPending,
		RunAt:          runAt,
		IdempotencyKey: TaskIdempotencyKey(taskType, keyDomainID, anchorDay),
		Metadata:       metadata,
	}
}
