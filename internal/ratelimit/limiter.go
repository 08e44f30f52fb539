package ratelimit

import "context"

// ScopePush is the limiter scope shared by all outbound web-push deliveries.
const ScopePush = "push"

// RateLimiter bounds outbound delivery throughput per scope.
type RateLimiter interface {
	Allow(ctx context.Context, scope string) (bool, error)
	Wait(ctx context.Context, scope string) error
}
