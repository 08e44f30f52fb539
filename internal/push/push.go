package push

import (
	"context"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
)

// Transport is the outbound web-push delivery port. One call is one delivery
// attempt; retry policy belongs to the caller.
type Transport interface {
	Send(ctx context.Context, sub domain.Subscription, payload domain.Payload) (*SendResult, error)
}

// SendResult stores push-service response metadata for audit.
type SendResult struct {
	StatusCode int
}
