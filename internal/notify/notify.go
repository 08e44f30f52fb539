package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
)

// Sender is the dispatch surface the builders deliver through.
type Sender interface {
	SendToUser(ctx context.Context, userID string, notificationType domain.NotificationType, payload domain.Payload) (*domain.DispatchResult, error)
	SendToMultipleUsers(ctx context.Context, userIDs []string, notificationType domain.NotificationType, payload domain.Payload) (*domain.DispatchResult, error)
	SendToCohort(ctx context.Context, cohortIdentifiers []string, notificationType domain.NotificationType, payload domain.Payload) (*domain.DispatchResult, error)
}

func eventURL(baseURL, eventID string) string {
	return fmt.Sprintf("%s/events/%s", strings.TrimRight(baseURL, "/"), eventID)
}

func feedbackURL(baseURL, eventID string) string {
	return fmt.Sprintf("%s/events/%s/feedback", strings.TrimRight(baseURL, "/"), eventID)
}

func certificatesURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/certificates"
}

// Task metadata round-trips through jsonb, so values come back as any and
// slices as []any.

func metaString(metadata map[string]any, key string) string {
	if value, ok := metadata[key].(string); ok {
		return value
	}
	return ""
}

func metaStrings(metadata map[string]any, key string) []string {
	raw, ok := metadata[key].([]any)
	if !ok {
		return nil
	}

	values := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			values = append(values, s)
		}
	}
	return values
}

func metaTime(metadata map[string]any, key string) (time.Time, bool) {
	raw := metaString(metadata, key)
	if raw == "" {
		return time.Time{}, false
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
