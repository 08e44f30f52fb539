package domain

import (
	"fmt"
	"time"
)

// Subscription is one registered web-push delivery endpoint for one user.
// A user may hold any number of subscriptions (one per device/browser).
type Subscription struct {
	ID           string
	UserID       string
	Endpoint     string
	P256dh       string
	Auth         string
	DeviceInfo   *string
	IsActive     bool
	SubscribedAt time.Time
	LastActiveAt time.Time
}

func (s *Subscription) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: subscription is required", ErrValidation)
	}
	if s.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if s.Endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", ErrValidation)
	}
	if s.P256dh == "" || s.Auth == "" {
		return fmt.Errorf("%w: p256dh and auth keys are required", ErrValidation)
	}
	return nil
}
