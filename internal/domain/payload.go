package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NotificationType identifies the logical kind of notification being sent.
// It drives preference filtering and is recorded on every log row.
type NotificationType string

const (
	TypeEventReminder1h      NotificationType = "event_reminder_1h"
	TypeEventReminder15m     NotificationType = "event_reminder_15m"
	TypeEventUpdated         NotificationType = "event_updated"
	TypeEventCancelled       NotificationType = "event_cancelled"
	TypeBookingReminder24h   NotificationType = "booking_reminder_24h"
	TypeBookingCancelled     NotificationType = "booking_cancelled"
	TypeWaitlistPromoted     NotificationType = "waitlist_promoted"
	TypeCertificateAvailable NotificationType = "certificate_available"
	TypeFeedbackRequest      NotificationType = "feedback_request"
	TypeAnnouncement         NotificationType = "announcement"
)

func (t NotificationType) String() string { return string(t) }

// Payload is the notification envelope delivered to a subscription endpoint.
// Encode produces the canonical JSON form that gets encrypted and sent.
type Payload struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Icon  string         `json:"icon,omitempty"`
	Badge string         `json:"badge,omitempty"`
	Image string         `json:"image,omitempty"`
	URL   string         `json:"url"`
	Data  map[string]any `json:"data,omitempty"`
}

func (p Payload) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: payload title is required", ErrValidation)
	}
	if strings.TrimSpace(p.Body) == "" {
		return fmt.Errorf("%w: payload body is required", ErrValidation)
	}
	return nil
}

func (p Payload) Encode() ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return raw, nil
}

// DispatchResult aggregates per-subscription delivery outcomes of one fan-out.
type DispatchResult struct {
	Sent   int
	Failed int
}

func (r DispatchResult) Total() int { return r.Sent + r.Failed }
