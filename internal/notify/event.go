package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
)

// EventInfo describes one teaching event for notification building.
type EventInfo struct {
	EventID string
	Title   string
	Date    time.Time
	StartAt *time.Time
	Cohorts []string
}

// Events builds and sends event-lifecycle notifications: immediate update and
// cancellation notices plus the reminder send-half for fired reminder tasks.
type Events struct {
	sender  Sender
	baseURL string
	logger  *zap.Logger
}

func NewEvents(sender Sender, baseURL string, logger *zap.Logger) *Events {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Events{sender: sender, baseURL: baseURL, logger: logger}
}

// EventUpdated notifies every target cohort that an event's details changed.
// Per-cohort failures are aggregated, not fatal.
func (n *Events) EventUpdated(ctx context.Context, info EventInfo) (*domain.DispatchResult, error) {
	payload := domain.Payload{
		Title: "Event updated: " + info.Title,
		Body:  "Now on " + FormatEventDateTime(info.Date, info.StartAt),
		URL:   eventURL(n.baseURL, info.EventID),
		Data:  map[string]any{"event_id": info.EventID},
	}
	return n.sendToCohorts(ctx, info.Cohorts, domain.TypeEventUpdated, payload)
}

// EventCancelled notifies every target cohort that an event was cancelled.
func (n *Events) EventCancelled(ctx context.Context, info EventInfo) (*domain.DispatchResult, error) {
	payload := domain.Payload{
		Title: "Event cancelled: " + info.Title,
		Body:  "The session on " + FormatEventDateTime(info.Date, info.StartAt) + " has been cancelled",
		URL:   eventURL(n.baseURL, info.EventID),
		Data:  map[string]any{"event_id": info.EventID},
	}
	return n.sendToCohorts(ctx, info.Cohorts, domain.TypeEventCancelled, payload)
}

// HandleReminderTask is the send-half for fired event reminder tasks. The
// event snapshot travels in the task metadata; a task without cohorts simply
// reaches nobody.
func (n *Events) HandleReminderTask(ctx context.Context, task *domain.ScheduledTask) error {
	notificationType, window, err := reminderTypeFor(task.TaskType)
	if err != nil {
		return err
	}

	eventID := metaString(task.Metadata, "event_id")
	if eventID == "" && task.EventID != nil {
		eventID = *task.EventID
	}
	title := metaString(task.Metadata, "title")
	cohorts := metaStrings(task.Metadata, "cohorts")

	payload := domain.Payload{
		Title: "Starting soon: " + title,
		Body:  fmt.Sprintf("%s starts in %s", title, window),
		URL:   eventURL(n.baseURL, eventID),
		Data:  map[string]any{"event_id": eventID},
	}
	if startsAt, ok := metaTime(task.Metadata, "starts_at"); ok {
		payload.Body = fmt.Sprintf("%s starts in %s, at %s", title, window, startsAt.Format(eventTimeLayout))
	}

	result, err := n.sendToCohorts(ctx, cohorts, notificationType, payload)
	if err != nil {
		return err
	}

	n.logger.Info("event reminder dispatched",
		zap.String("taskId", task.ID),
		zap.String("eventId", eventID),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
	)
	return nil
}

// sendToCohorts delivers once to the union of the target cohorts. A resolver
// failure is logged and reported as an empty result, not an error: the hooks
// and task handlers treat dispatch as best-effort.
func (n *Events) sendToCohorts(ctx context.Context, cohorts []string, notificationType domain.NotificationType, payload domain.Payload) (*domain.DispatchResult, error) {
	result, err := n.sender.SendToCohort(ctx, cohorts, notificationType, payload)
	if err != nil {
		n.logger.Error("cohort dispatch failed",
			zap.Strings("cohorts", cohorts),
			zap.String("notificationType", notificationType.String()),
			zap.Error(err),
		)
		return &domain.DispatchResult{}, nil
	}
	return result, nil
}

func reminderTypeFor(taskType domain.TaskType) (domain.NotificationType, string, error) {
	switch taskType {
	case domain.TaskEventReminder1h:
		return domain.TypeEventReminder1h, "1 hour", nil
	case domain.TaskEventReminder15m:
		return domain.TypeEventReminder15m, "15 minutes", nil
	default:
		return "", "", fmt.Errorf("%w: %q is not an event reminder task", domain.ErrValidation, taskType)
	}
}
