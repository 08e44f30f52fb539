package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
)

// Feedback builds and sends feedback-request notifications.
type Feedback struct {
	sender  Sender
	baseURL string
	logger  *zap.Logger
}

func NewFeedback(sender Sender, baseURL string, logger *zap.Logger) *Feedback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feedback{sender: sender, baseURL: baseURL, logger: logger}
}

// HandleInvitesMarker is the send-half for the feedback marker: when an event
// ends, its cohorts are invited to leave feedback.
func (n *Feedback) HandleInvitesMarker(ctx context.Context, task *domain.ScheduledTask) error {
	eventID := metaString(task.Metadata, "event_id")
	if eventID == "" && task.EventID != nil {
		eventID = *task.EventID
	}
	title := metaString(task.Metadata, "title")
	cohorts := metaStrings(task.Metadata, "cohorts")

	payload := domain.Payload{
		Title: "How was " + title + "?",
		Body:  "The session has finished. Let us know how it went",
		URL:   feedbackURL(n.baseURL, eventID),
		Data:  map[string]any{"event_id": eventID},
	}

	total, err := n.sender.SendToCohort(ctx, cohorts, domain.TypeFeedbackRequest, payload)
	if err != nil {
		n.logger.Error("feedback invite dispatch failed",
			zap.Strings("cohorts", cohorts),
			zap.Error(err),
		)
		total = &domain.DispatchResult{}
	}

	n.logger.Info("feedback invites dispatched",
		zap.String("taskId", task.ID),
		zap.String("eventId", eventID),
		zap.Int("sent", total.Sent),
		zap.Int("failed", total.Failed),
	)
	return nil
}
