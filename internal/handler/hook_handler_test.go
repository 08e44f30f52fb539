package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/notify"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/service"
)

type fakePlanner struct {
	scheduleFn   func(ctx context.Context, schedule service.EventSchedule) (int, error)
	rescheduleFn func(ctx context.Context, schedule service.EventSchedule) (int, error)
	cancelFn     func(ctx context.Context, eventID string) (int64, error)
	bookingFn    func(ctx context.Context, booking service.BookingSchedule) (bool, error)
}

func (f *fakePlanner) ScheduleEventTasks(ctx context.Context, schedule service.EventSchedule) (int, error) {
	if f.scheduleFn != nil {
		return f.scheduleFn(ctx, schedule)
	}
	return 0, nil
}

func (f *fakePlanner) RescheduleEventReminders(ctx context.Context, schedule service.EventSchedule) (int, error) {
	if f.rescheduleFn != nil {
		return f.rescheduleFn(ctx, schedule)
	}
	return 0, nil
}

func (f *fakePlanner) CancelEventReminders(ctx context.Context, eventID string) (int64, error) {
	if f.cancelFn != nil {
		return f.cancelFn(ctx, eventID)
	}
	return 0, nil
}

func (f *fakePlanner) ScheduleBookingReminder(ctx context.Context, booking service.BookingSchedule) (bool, error) {
	if f.bookingFn != nil {
		return f.bookingFn(ctx, booking)
	}
	return false, nil
}

type fakeEventNotifier struct {
	updatedFn   func(ctx context.Context, info notify.EventInfo) (*domain.DispatchResult, error)
	cancelledFn func(ctx context.Context, info notify.EventInfo) (*domain.DispatchResult, error)
}

func (f *fakeEventNotifier) EventUpdated(ctx context.Context, info notify.EventInfo) (*domain.DispatchResult, error) {
	if f.updatedFn != nil {
		return f.updatedFn(ctx, info)
	}
	return &domain.DispatchResult{}, nil
}

func (f *fakeEventNotifier) EventCancelled(ctx context.Context, info notify.EventInfo) (*domain.DispatchResult, error) {
	if f.cancelledFn != nil {
		return f.cancelledFn(ctx, info)
	}
	return &domain.DispatchResult{}, nil
}

type fakeBookingNotifier struct {
	cancelledFn func(ctx context.Context, userID, eventID, eventTitle string) (*domain.DispatchResult, error)
	promotedFn  func(ctx context.Context, userID, eventID, eventTitle string) (*domain.DispatchResult, error)
}

func (f *fakeBookingNotifier) BookingCancelled(ctx context.Context, userID, eventID, eventTitle string) (*domain.DispatchResult, error) {
	if f.cancelledFn != nil {
		return f.cancelledFn(ctx, userID, eventID, eventTitle)
	}
	return &domain.DispatchResult{}, nil
}

func (f *fakeBookingNotifier) WaitlistPromoted(ctx context.Context, userID, eventID, eventTitle string) (*domain.DispatchResult, error) {
	if f.promotedFn != nil {
		return f.promotedFn(ctx, userID, eventID, eventTitle)
	}
	return &domain.DispatchResult{}, nil
}

type fakeCertificateNotifier struct {
	issuedFn func(ctx context.Context, userID, eventTitle string) (*domain.DispatchResult, error)
}

func (f *fakeCertificateNotifier) CertificateIssued(ctx context.Context, userID, eventTitle string) (*domain.DispatchResult, error) {
	if f.issuedFn != nil {
		return f.issuedFn(ctx, userID, eventTitle)
	}
	return &domain.DispatchResult{}, nil
}

type hookDeps struct {
	planner      *fakePlanner
	events       *fakeEventNotifier
	bookings     *fakeBookingNotifier
	certificates *fakeCertificateNotifier
}

func newHookApp(t *testing.T, deps hookDeps) *fiber.App {
	t.Helper()

	if deps.planner == nil {
		deps.planner = &fakePlanner{}
	}
	if deps.events == nil {
		deps.events = &fakeEventNotifier{}
	}
	if deps.bookings == nil {
		deps.bookings = &fakeBookingNotifier{}
	}
	if deps.certificates == nil {
		deps.certificates = &fakeCertificateNotifier{}
	}

	app := fiber.New()
	err := RegisterHookRoutes(app, deps.planner, deps.events, deps.bookings, deps.certificates, nil)
	if err != nil {
		t.Fatalf("RegisterHookRoutes() error = %v", err)
	}
	return app
}

func TestEventSavedCreatedSchedulesTasks(t *testing.T) {
	t.Parallel()

	var got service.EventSchedule
	planner := &fakePlanner{
		scheduleFn: func(ctx context.Context, schedule service.EventSchedule) (int, error) {
			got = schedule
			return 4, nil
		},
	}
	app := newHookApp(t, hookDeps{planner: planner})

	req := jsonRequest(t, http.MethodPost, "/v1/hooks/event-saved", map[string]any{
		"eventId":   "event-1",
		"title":     "Airway workshop",
		"date":      "2026-03-14",
		"startTime": "09:00",
		"cohorts":   []string{"ARU Year 4"},
		"action":    "created",
	})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if got.EventID != "event-1" {
		t.Fatalf("event id = %q", got.EventID)
	}
	if got.StartAt == nil || got.StartAt.Hour() != 9 {
		t.Fatalf("start = %v, want 09:00 on the event day", got.StartAt)
	}
	if len(got.Cohorts) != 1 || got.Cohorts[0] != "ARU Year 4" {
		t.Fatalf("cohorts = %v", got.Cohorts)
	}

	var body hookResponse
	decodeBody(t, resp, &body)
	if body.TasksCreated != 4 {
		t.Fatalf("tasksCreated = %d, want 4", body.TasksCreated)
	}
}

func TestEventSavedUpdatedReschedulesAndNotifies(t *testing.T) {
	t.Parallel()

	rescheduled := false
	planner := &fakePlanner{
		rescheduleFn: func(ctx context.Context, schedule service.EventSchedule) (int, error) {
			rescheduled = true
			return 2, nil
		},
	}
	var notified notify.EventInfo
	events := &fakeEventNotifier{
		updatedFn: func(ctx context.Context, info notify.EventInfo) (*domain.DispatchResult, error) {
			notified = info
			return &domain.DispatchResult{Sent: 3}, nil
		},
	}
	app := newHookApp(t, hookDeps{planner: planner, events: events})

	req := jsonRequest(t, http.MethodPost, "/v1/hooks/event-saved", map[string]any{
		"eventId": "event-1",
		"title":   "Airway workshop",
		"date":    "2026-03-14",
		"cohorts": []string{"ARU Year 4"},
		"action":  "updated",
	})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if !rescheduled {
		t.Fatal("reminders were not rescheduled")
	}
	if notified.Title != "Airway workshop" {
		t.Fatalf("notified = %+v", notified)
	}

	var body hookResponse
	decodeBody(t, resp, &body)
	if body.TasksCreated != 2 || body.Sent != 3 {
		t.Fatalf("response = %+v", body)
	}
}

func TestEventSavedCancelledCancelsAndNotifies(t *testing.T) {
	t.Parallel()

	var cancelledEvent string
	planner := &fakePlanner{
		cancelFn: func(ctx context.Context, eventID string) (int64, error) {
			cancelledEvent = eventID
			return 2, nil
		},
	}
	notified := false
	events := &fakeEventNotifier{
		cancelledFn: func(ctx context.Context, info notify.EventInfo) (*domain.DispatchResult, error) {
			notified = true
			return &domain.DispatchResult{Sent: 5}, nil
		},
	}
	app := newHookApp(t, hookDeps{planner: planner, events: events})

	req := jsonRequest(t, http.MethodPost, "/v1/hooks/event-saved", map[string]any{
		"eventId": "event-1",
		"title":   "Airway workshop",
		"date":    "2026-03-14",
		"cohorts": []string{"ARU Year 4"},
		"action":  "cancelled",
	})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if cancelledEvent != "event-1" {
		t.Fatalf("cancelled event = %q", cancelledEvent)
	}
	if !notified {
		t.Fatal("cancellation notice was not sent")
	}
}

func TestEventSavedSchedulingFailureStillReturns200(t *testing.T) {
	t.Parallel()

	planner := &fakePlanner{
		scheduleFn: func(ctx context.Context, schedule service.EventSchedule) (int, error) {
			return 0, errors.New("database unavailable")
		},
	}
	app := newHookApp(t, hookDeps{planner: planner})

	req := jsonRequest(t, http.MethodPost, "/v1/hooks/event-saved", map[string]any{
		"eventId": "event-1",
		"title":   "Airway workshop",
		"date":    "2026-03-14",
		"action":  "created",
	})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, hooks must not fail the triggering request", resp.StatusCode)
	}

	var body hookResponse
	decodeBody(t, resp, &body)
	if body.Warning == "" {
		t.Fatal("warning was not reported")
	}
}

func TestEventSavedRejectsBadDate(t *testing.T) {
	t.Parallel()

	app := newHookApp(t, hookDeps{})

	req := jsonRequest(t, http.MethodPost, "/v1/hooks/event-saved", map[string]any{
		"eventId": "event-1",
		"date":    "14/03/2026",
	})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for a malformed date", resp.StatusCode)
	}
}

func TestBookingCreatedSchedulesReminder(t *testing.T) {
	t.Parallel()

	var got service.BookingSchedule
	planner := &fakePlanner{
		bookingFn: func(ctx context.Context, booking service.BookingSchedule) (bool, error) {
			got = booking
			return true, nil
		},
	}
	app := newHookApp(t, hookDeps{planner: planner})

	req := jsonRequest(t, http.MethodPost, "/v1/hooks/booking-created", map[string]any{
		"bookingId":  "booking-1",
		"eventId":    "event-1",
		"userId":     "user-1",
		"eventTitle": "Airway workshop",
		"eventStart": "2026-03-14T09:00:00Z",
	})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if got.BookingID != "booking-1" || got.UserID != "user-1" {
		t.Fatalf("schedule = %+v", got)
	}
	wantStart := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	if !got.EventStart.Equal(wantStart) {
		t.Fatalf("event start = %v, want %v", got.EventStart, wantStart)
	}

	var body hookResponse
	decodeBody(t, resp, &body)
	if body.TasksCreated != 1 {
		t.Fatalf("tasksCreated = %d, want 1", body.TasksCreated)
	}
}

func TestBookingCreatedRejectsBadStart(t *testing.T) {
	t.Parallel()

	app := newHookApp(t, hookDeps{})

	req := jsonRequest(t, http.MethodPost, "/v1/hooks/booking-created", map[string]any{
		"bookingId":  "booking-1",
		"eventStart": "tomorrow",
	})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestBookingCancelledHookSendsImmediately(t *testing.T) {
	t.Parallel()

	var gotUser, gotEvent string
	bookings := &fakeBookingNotifier{
		cancelledFn: func(ctx context.Context, userID, eventID, eventTitle string) (*domain.DispatchResult, error) {
			gotUser, gotEvent = userID, eventID
			return &domain.DispatchResult{Sent: 1}, nil
		},
	}
	app := newHookApp(t, hookDeps{bookings: bookings})

	req := jsonRequest(t, http.MethodPost, "/v1/hooks/booking-cancelled", map[string]any{
		"userId":     "user-1",
		"eventId":    "event-1",
		"eventTitle": "Airway workshop",
	})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if gotUser != "user-1" || gotEvent != "event-1" {
		t.Fatalf("sent to user=%q event=%q", gotUser, gotEvent)
	}

	var body hookResponse
	decodeBody(t, resp, &body)
	if body.Sent != 1 {
		t.Fatalf("sent = %d, want 1", body.Sent)
	}
}

func TestWaitlistPromotedHookFailureStillReturns200(t *testing.T) {
	t.Parallel()

	bookings := &fakeBookingNotifier{
		promotedFn: func(ctx context.Context, userID, eventID, eventTitle string) (*domain.DispatchResult, error) {
			return nil, errors.New("resolver down")
		},
	}
	app := newHookApp(t, hookDeps{bookings: bookings})

	req := jsonRequest(t, http.MethodPost, "/v1/hooks/waitlist-promoted", map[string]any{
		"userId":     "user-1",
		"eventId":    "event-1",
		"eventTitle": "Airway workshop",
	})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, hooks must not fail the triggering request", resp.StatusCode)
	}

	var body hookResponse
	decodeBody(t, resp, &body)
	if body.Warning == "" {
		t.Fatal("warning was not reported")
	}
}

func TestCertificateIssuedHook(t *testing.T) {
	t.Parallel()

	var gotUser, gotTitle string
	certificates := &fakeCertificateNotifier{
		issuedFn: func(ctx context.Context, userID, eventTitle string) (*domain.DispatchResult, error) {
			gotUser, gotTitle = userID, eventTitle
			return &domain.DispatchResult{Sent: 1}, nil
		},
	}
	app := newHookApp(t, hookDeps{certificates: certificates})

	req := jsonRequest(t, http.MethodPost, "/v1/hooks/certificate-issued", map[string]any{
		"userId":     "user-1",
		"eventTitle": "Airway workshop",
	})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if gotUser != "user-1" || gotTitle != "Airway workshop" {
		t.Fatalf("sent user=%q title=%q", gotUser, gotTitle)
	}
}
