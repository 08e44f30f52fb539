package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/notify"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/service"
)

// TaskPlanner is the scheduling surface the hooks drive.
type TaskPlanner interface {
	ScheduleEventTasks(ctx context.Context, schedule service.EventSchedule) (int, error)
	RescheduleEventReminders(ctx context.Context, schedule service.EventSchedule) (int, error)
	CancelEventReminders(ctx context.Context, eventID string) (int64, error)
	ScheduleBookingReminder(ctx context.Context, booking service.BookingSchedule) (bool, error)
}

type EventNotifier interface {
	EventUpdated(ctx context.Context, info notify.EventInfo) (*domain.DispatchResult, error)
	EventCancelled(ctx context.Context, info notify.EventInfo) (*domain.DispatchResult, error)
}

type BookingNotifier interface {
	BookingCancelled(ctx context.Context, userID, eventID, eventTitle string) (*domain.DispatchResult, error)
	WaitlistPromoted(ctx context.Context, userID, eventID, eventTitle string) (*domain.DispatchResult, error)
}

type CertificateNotifier interface {
	CertificateIssued(ctx context.Context, userID, eventTitle string) (*domain.DispatchResult, error)
}

// HookHandler receives domain action hooks from the owning application.
// Hooks never fail the triggering request: scheduling or dispatch problems
// are logged and reported in the response body with a 200.
type HookHandler struct {
	planner      TaskPlanner
	events       EventNotifier
	bookings     BookingNotifier
	certificates CertificateNotifier
	logger       *zap.Logger
}

func NewHookHandler(
	planner TaskPlanner,
	events EventNotifier,
	bookings BookingNotifier,
	certificates CertificateNotifier,
	logger *zap.Logger,
) (*HookHandler, error) {
	if planner == nil {
		return nil, fmt.Errorf("task planner is required")
	}
	if events == nil || bookings == nil || certificates == nil {
		return nil, fmt.Errorf("notifiers are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HookHandler{
		planner:      planner,
		events:       events,
		bookings:     bookings,
		certificates: certificates,
		logger:       logger,
	}, nil
}

func RegisterHookRoutes(
	router fiber.Router,
	planner TaskPlanner,
	events EventNotifier,
	bookings BookingNotifier,
	certificates CertificateNotifier,
	logger *zap.Logger,
) error {
	h, err := NewHookHandler(planner, events, bookings, certificates, logger)
	if err != nil {
		return err
	}

	hooks := router.Group("/v1/hooks")
	hooks.Post("/event-saved", h.EventSaved)
	hooks.Post("/booking-created", h.BookingCreated)
	hooks.Post("/booking-cancelled", h.BookingCancelled)
	hooks.Post("/waitlist-promoted", h.WaitlistPromoted)
	hooks.Post("/certificate-issued", h.CertificateIssued)

	return nil
}

const (
	eventActionCreated   = "created"
	eventActionUpdated   = "updated"
	eventActionCancelled = "cancelled"
)

type eventSavedRequest struct {
	EventID   string   `json:"eventId"`
	Title     string   `json:"title"`
	Date      string   `json:"date"`      // 2006-01-02
	StartTime string   `json:"startTime"` // 15:04, optional
	EndTime   string   `json:"endTime"`   // 15:04, optional
	Cohorts   []string `json:"cohorts"`
	Action    string   `json:"action"` // created | updated | cancelled
}

type bookingCreatedRequest struct {
	BookingID  string `json:"bookingId"`
	EventID    string `json:"eventId"`
	UserID     string `json:"userId"`
	EventTitle string `json:"eventTitle"`
	EventStart string `json:"eventStart"` // RFC3339
}

type bookingUserRequest struct {
	UserID     string `json:"userId"`
	EventID    string `json:"eventId"`
	EventTitle string `json:"eventTitle"`
}

type certificateIssuedRequest struct {
	UserID     string `json:"userId"`
	EventTitle string `json:"eventTitle"`
}

type hookResponse struct {
	Status       string `json:"status"`
	TasksCreated int    `json:"tasksCreated,omitempty"`
	Sent         int    `json:"sent,omitempty"`
	Failed       int    `json:"failed,omitempty"`
	Warning      string `json:"warning,omitempty"`
}

func (h *HookHandler) EventSaved(c *fiber.Ctx) error {
	var req eventSavedRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.EventID) == "" {
		return toHTTPError(fmt.Errorf("%w: eventId is required", domain.ErrValidation))
	}

	schedule, err := req.toSchedule()
	if err != nil {
		return toHTTPError(err)
	}

	resp := hookResponse{Status: "ok"}

	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case eventActionCancelled:
		if _, err := h.planner.CancelEventReminders(c.Context(), schedule.EventID); err != nil {
			h.logger.Error("failed to cancel event reminders", zap.String("eventId", schedule.EventID), zap.Error(err))
			resp.Warning = err.Error()
		}
		result, err := h.events.EventCancelled(c.Context(), toEventInfo(schedule))
		if err != nil {
			h.logger.Error("failed to send cancellation notices", zap.String("eventId", schedule.EventID), zap.Error(err))
			resp.Warning = err.Error()
		} else {
			resp.Sent, resp.Failed = result.Sent, result.Failed
		}

	case eventActionUpdated:
		created, err := h.planner.RescheduleEventReminders(c.Context(), schedule)
		if err != nil {
			h.logger.Error("failed to reschedule event reminders", zap.String("eventId", schedule.EventID), zap.Error(err))
			resp.Warning = err.Error()
		}
		resp.TasksCreated = created

		result, err := h.events.EventUpdated(c.Context(), toEventInfo(schedule))
		if err != nil {
			h.logger.Error("failed to send update notices", zap.String("eventId", schedule.EventID), zap.Error(err))
			resp.Warning = err.Error()
		} else {
			resp.Sent, resp.Failed = result.Sent, result.Failed
		}

	default: // created
		created, err := h.planner.ScheduleEventTasks(c.Context(), schedule)
		if err != nil {
			h.logger.Error("failed to schedule event tasks", zap.String("eventId", schedule.EventID), zap.Error(err))
			resp.Warning = err.Error()
		}
		resp.TasksCreated = created
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *HookHandler) BookingCreated(c *fiber.Ctx) error {
	var req bookingCreatedRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	eventStart, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EventStart))
	if err != nil {
		return toHTTPError(fmt.Errorf("%w: eventStart must be RFC3339", domain.ErrValidation))
	}

	resp := hookResponse{Status: "ok"}
	created, err := h.planner.ScheduleBookingReminder(c.Context(), service.BookingSchedule{
		BookingID:  strings.TrimSpace(req.BookingID),
		EventID:    strings.TrimSpace(req.EventID),
		UserID:     strings.TrimSpace(req.UserID),
		EventTitle: strings.TrimSpace(req.EventTitle),
		EventStart: eventStart,
	})
	if err != nil {
		h.logger.Error("failed to schedule booking reminder", zap.String("bookingId", req.BookingID), zap.Error(err))
		resp.Warning = err.Error()
	} else if created {
		resp.TasksCreated = 1
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *HookHandler) BookingCancelled(c *fiber.Ctx) error {
	return h.bookingUserHook(c, h.bookings.BookingCancelled, "failed to send booking cancellation")
}

func (h *HookHandler) WaitlistPromoted(c *fiber.Ctx) error {
	return h.bookingUserHook(c, h.bookings.WaitlistPromoted, "failed to send waitlist promotion")
}

func (h *HookHandler) CertificateIssued(c *fiber.Ctx) error {
	var req certificateIssuedRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	resp := hookResponse{Status: "ok"}
	result, err := h.certificates.CertificateIssued(c.Context(), strings.TrimSpace(req.UserID), strings.TrimSpace(req.EventTitle))
	if err != nil {
		h.logger.Error("failed to send certificate notice", zap.String("userId", req.UserID), zap.Error(err))
		resp.Warning = err.Error()
	} else {
		resp.Sent, resp.Failed = result.Sent, result.Failed
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *HookHandler) bookingUserHook(
	c *fiber.Ctx,
	send func(ctx context.Context, userID, eventID, eventTitle string) (*domain.DispatchResult, error),
	failureMessage string,
) error {
	var req bookingUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	resp := hookResponse{Status: "ok"}
	result, err := send(c.Context(), strings.TrimSpace(req.UserID), strings.TrimSpace(req.EventID), strings.TrimSpace(req.EventTitle))
	if err != nil {
		h.logger.Error(failureMessage, zap.String("userId", req.UserID), zap.Error(err))
		resp.Warning = err.Error()
	} else {
		resp.Sent, resp.Failed = result.Sent, result.Failed
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (r eventSavedRequest) toSchedule() (service.EventSchedule, error) {
	day, err := time.Parse("2006-01-02", strings.TrimSpace(r.Date))
	if err != nil {
		return service.EventSchedule{}, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrValidation)
	}

	schedule := service.EventSchedule{
		EventID: strings.TrimSpace(r.EventID),
		Title:   strings.TrimSpace(r.Title),
		Date:    day,
		Cohorts: r.Cohorts,
	}

	if start, err := parseClockOn(day, r.StartTime); err != nil {
		return service.EventSchedule{}, err
	} else if start != nil {
		schedule.StartAt = start
	}

	if end, err := parseClockOn(day, r.EndTime); err != nil {
		return service.EventSchedule{}, err
	} else if end != nil {
		schedule.EndAt = end
	}

	return schedule, nil
}

func parseClockOn(day time.Time, clock string) (*time.Time, error) {
	trimmed := strings.TrimSpace(clock)
	if trimmed == "" {
		return nil, nil
	}

	parsed, err := time.Parse("15:04", trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: time must be HH:MM", domain.ErrValidation)
	}

	at := time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, day.Location())
	return &at, nil
}

func toEventInfo(schedule service.EventSchedule) notify.EventInfo {
	return notify.EventInfo{
		EventID: schedule.EventID,
		Title:   schedule.Title,
		Date:    schedule.Date,
		StartAt: schedule.StartAt,
		Cohorts: schedule.Cohorts,
	}
}
