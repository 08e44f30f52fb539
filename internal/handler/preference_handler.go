package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
)

type PreferenceStore interface {
	GetByUserID(ctx context.Context, userID string) (*domain.NotificationPreference, error)
	Upsert(ctx context.Context, p *domain.NotificationPreference) error
}

type PreferenceHandler struct {
	preferences PreferenceStore
}

func NewPreferenceHandler(preferences PreferenceStore) (*PreferenceHandler, error) {
	if preferences == nil {
		return nil, fmt.Errorf("preference store is required")
	}
	return &PreferenceHandler{preferences: preferences}, nil
}

func RegisterPreferenceRoutes(router fiber.Router, preferences PreferenceStore) error {
	h, err := NewPreferenceHandler(preferences)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/preferences/:userId", h.GetPreferences)
	v1.Put("/preferences/:userId", h.PutPreferences)

	return nil
}

type preferenceResponse struct {
	UserID             string `json:"userId"`
	TeachingEvents     bool   `json:"teachingEvents"`
	Bookings           bool   `json:"bookings"`
	Certificates       bool   `json:"certificates"`
	Feedback           bool   `json:"feedback"`
	Announcements      bool   `json:"announcements"`
	LeaderboardUpdates bool   `json:"leaderboardUpdates"`
	QuizReminders      bool   `json:"quizReminders"`
}

type putPreferencesRequest struct {
	TeachingEvents     *bool `json:"teachingEvents"`
	Bookings           *bool `json:"bookings"`
	Certificates       *bool `json:"certificates"`
	Feedback           *bool `json:"feedback"`
	Announcements      *bool `json:"announcements"`
	LeaderboardUpdates *bool `json:"leaderboardUpdates"`
	QuizReminders      *bool `json:"quizReminders"`
}

// GetPreferences returns the effective per-category settings. A user with no
// stored row gets the fail-open defaults: everything enabled.
func (h *PreferenceHandler) GetPreferences(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Params("userId"))
	if userID == "" {
		return toHTTPError(fmt.Errorf("%w: user id is required", domain.ErrValidation))
	}

	preference, err := h.preferences.GetByUserID(c.Context(), userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toPreferenceResponse(userID, preference))
}

func (h *PreferenceHandler) PutPreferences(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Params("userId"))
	if userID == "" {
		return toHTTPError(fmt.Errorf("%w: user id is required", domain.ErrValidation))
	}

	var req putPreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	preference := &domain.NotificationPreference{
		UserID:             userID,
		TeachingEvents:     req.TeachingEvents,
		Bookings:           req.Bookings,
		Certificates:       req.Certificates,
		Feedback:           req.Feedback,
		Announcements:      req.Announcements,
		LeaderboardUpdates: req.LeaderboardUpdates,
		QuizReminders:      req.QuizReminders,
		UpdatedAt:          time.Now().UTC(),
	}

	if err := h.preferences.Upsert(c.Context(), preference); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toPreferenceResponse(userID, preference))
}

func toPreferenceResponse(userID string, p *domain.NotificationPreference) preferenceResponse {
	return preferenceResponse{
		UserID:             userID,
		TeachingEvents:     p.Allows(domain.CategoryTeachingEvents),
		Bookings:           p.Allows(domain.CategoryBookings),
		Certificates:       p.Allows(domain.CategoryCertificates),
		Feedback:           p.Allows(domain.CategoryFeedback),
		Announcements:      p.Allows(domain.CategoryAnnouncements),
		LeaderboardUpdates: p.Allows(domain.CategoryLeaderboardUpdates),
		QuizReminders:      p.Allows(domain.CategoryQuizReminders),
	}
}
