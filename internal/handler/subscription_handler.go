package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
)

type SubscriptionStore interface {
	Save(ctx context.Context, s *domain.Subscription) error
	DeactivateByEndpoint(ctx context.Context, endpoint string) error
}

type SubscriptionHandler struct {
	subscriptions SubscriptionStore
}

func NewSubscriptionHandler(subscriptions SubscriptionStore) (*SubscriptionHandler, error) {
	if subscriptions == nil {
		return nil, fmt.Errorf("subscription store is required")
	}
	return &SubscriptionHandler{subscriptions: subscriptions}, nil
}

func RegisterSubscriptionRoutes(router fiber.Router, subscriptions SubscriptionStore) error {
	h, err := NewSubscriptionHandler(subscriptions)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/subscriptions", h.Subscribe)
	v1.Delete("/subscriptions", h.Unsubscribe)

	return nil
}

type subscribeRequest struct {
	UserID     string        `json:"userId"`
	Endpoint   string        `json:"endpoint"`
	Keys       subscribeKeys `json:"keys"`
	DeviceInfo *string       `json:"deviceInfo,omitempty"`
}

type subscribeKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

type subscriptionResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Endpoint     string    `json:"endpoint"`
	IsActive     bool      `json:"isActive"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

func (h *SubscriptionHandler) Subscribe(c *fiber.Ctx) error {
	var req subscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	now := time.Now().UTC()
	sub := domain.Subscription{
		ID:           uuid.NewString(),
		UserID:       strings.TrimSpace(req.UserID),
		Endpoint:     strings.TrimSpace(req.Endpoint),
		P256dh:       strings.TrimSpace(req.Keys.P256dh),
		Auth:         strings.TrimSpace(req.Keys.Auth),
		DeviceInfo:   req.DeviceInfo,
		IsActive:     true,
		SubscribedAt: now,
		LastActiveAt: now,
	}

	if err := sub.Validate(); err != nil {
		return toHTTPError(err)
	}

	if err := h.subscriptions.Save(c.Context(), &sub); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(subscriptionResponse{
		ID:           sub.ID,
		UserID:       sub.UserID,
		Endpoint:     sub.Endpoint,
		IsActive:     sub.IsActive,
		SubscribedAt: sub.SubscribedAt,
	})
}

func (h *SubscriptionHandler) Unsubscribe(c *fiber.Ctx) error {
	var req unsubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	endpoint := strings.TrimSpace(req.Endpoint)
	if endpoint == "" {
		return toHTTPError(fmt.Errorf("%w: endpoint is required", domain.ErrValidation))
	}

	if err := h.subscriptions.DeactivateByEndpoint(c.Context(), endpoint); err != nil {
		// Unsubscribing an unknown endpoint is a no-op, not an error.
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
		}
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
