package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
)

// Bookings builds and sends booking-lifecycle notifications.
type Bookings struct {
	sender  Sender
	baseURL string
	logger  *zap.Logger
}

func NewBookings(sender Sender, baseURL string, logger *zap.Logger) *Bookings {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bookings{sender: sender, baseURL: baseURL, logger: logger}
}

// BookingCancelled tells one user an admin cancelled their booking.
func (n *Bookings) BookingCancelled(ctx context.Context, userID, eventID, eventTitle string) (*domain.DispatchResult, error) {
	payload := domain.Payload{
		Title: "Booking cancelled",
		Body:  "Your booking for " + eventTitle + " has been cancelled",
		URL:   eventURL(n.baseURL, eventID),
		Data:  map[string]any{"event_id": eventID},
	}
	return n.sender.SendToUser(ctx, userID, domain.TypeBookingCancelled, payload)
}

// WaitlistPromoted tells one user they got a place from the waiting list.
func (n *Bookings) WaitlistPromoted(ctx context.Context, userID, eventID, eventTitle string) (*domain.DispatchResult, error) {
	payload := domain.Payload{
		Title: "You're in: " + eventTitle,
		Body:  "A place opened up and your waiting list booking is now confirmed",
		URL:   eventURL(n.baseURL, eventID),
		Data:  map[string]any{"event_id": eventID},
	}
	return n.sender.SendToUser(ctx, userID, domain.TypeWaitlistPromoted, payload)
}

// HandleReminderTask is the send-half for fired booking reminder tasks.
func (n *Bookings) HandleReminderTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task.UserID == nil || *task.UserID == "" {
		return fmt.Errorf("%w: booking reminder task %s has no user", domain.ErrValidation, task.ID)
	}

	eventID := metaString(task.Metadata, "event_id")
	if eventID == "" && task.EventID != nil {
		eventID = *task.EventID
	}
	title := metaString(task.Metadata, "title")

	payload := domain.Payload{
		Title: "Reminder: " + title,
		Body:  "Your booked session is tomorrow",
		URL:   eventURL(n.baseURL, eventID),
		Data:  map[string]any{"event_id": eventID, "booking_id": metaString(task.Metadata, "booking_id")},
	}
	if startsAt, ok := metaTime(task.Metadata, "starts_at"); ok {
		payload.Body = "Your booked session is tomorrow: " + FormatEventDateTime(startsAt, &startsAt)
	}

	result, err := n.sender.SendToUser(ctx, *task.UserID, domain.TypeBookingReminder24h, payload)
	if err != nil {
		return err
	}

	n.logger.Info("booking reminder dispatched",
		zap.String("taskId", task.ID),
		zap.String("userId", *task.UserID),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
	)
	return nil
}
