package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/observability"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/repository"
)

const (
	reminderHourOffset    = time.Hour
	reminderQuarterOffset = 15 * time.Minute
	bookingReminderOffset = 24 * time.Hour
)

// Events may carry a date with no clock time. The scheduler anchors those on
// named day boundaries instead of guessing.
var (
	defaultStartOfDay = dayBoundary{0, 0, 0}
	defaultEndOfDay   = dayBoundary{23, 59, 59}
)

type dayBoundary struct {
	hour, minute, second int
}

func (b dayBoundary) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), b.hour, b.minute, b.second, 0, day.Location())
}

// EventSchedule carries the timing and audience of one event. StartAt and
// EndAt are nil when the event has a date but no clock time. Title and
// Cohorts are snapshotted into task metadata so send-halves have what they
// need at fire time.
type EventSchedule struct {
	EventID string
	Title   string
	Date    time.Time
	StartAt *time.Time
	EndAt   *time.Time
	Cohorts []string
}

func (e EventSchedule) taskMetadata() map[string]any {
	metadata := map[string]any{
		"event_id":  e.EventID,
		"title":     e.Title,
		"starts_at": e.start().Format(time.RFC3339),
	}
	if len(e.Cohorts) > 0 {
		cohorts := make([]any, 0, len(e.Cohorts))
		for _, cohort := range e.Cohorts {
			cohorts = append(cohorts, cohort)
		}
		metadata["cohorts"] = cohorts
	}
	return metadata
}

func (e EventSchedule) start() time.Time {
	if e.StartAt != nil {
		return *e.StartAt
	}
	return defaultStartOfDay.on(e.Date)
}

func (e EventSchedule) end() time.Time {
	if e.EndAt != nil {
		return *e.EndAt
	}
	return defaultEndOfDay.on(e.Date)
}

// BookingSchedule carries what the scheduler needs to plan one booking's
// reminder.
type BookingSchedule struct {
	BookingID  string
	EventID    string
	UserID     string
	EventTitle string
	EventStart time.Time
}

// TaskScheduler plans future-dated tasks. Creation is idempotent: the
// deterministic idempotency key turns a repeated plan for the same logical
// task into a no-op instead of a duplicate.
type TaskScheduler struct {
	tasks   repository.TaskRepository
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

func NewTaskScheduler(tasks repository.TaskRepository, logger *zap.Logger) (*TaskScheduler, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TaskScheduler{
		tasks:  tasks,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (s *TaskScheduler) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// ScheduleEventTasks plans the full task set for a saved event: two reminders
// before the start, and the certificate and feedback markers at the end.
// Offsets already in the past are skipped, so saving an event mid-way through
// its own reminder window never fires a stale notification. Returns how many
// tasks were newly created.
func (s *TaskScheduler) ScheduleEventTasks(ctx context.Context, schedule EventSchedule) (int, error) {
	created, err := s.ScheduleEventReminders(ctx, schedule)
	if err != nil {
		return created, err
	}

	if ok, err := s.ScheduleCertificateGeneration(ctx, schedule); err != nil {
		return created, err
	} else if ok {
		created++
	}

	if ok, err := s.ScheduleFeedbackInvites(ctx, schedule); err != nil {
		return created, err
	} else if ok {
		created++
	}

	return created, nil
}

// ScheduleEventReminders plans the 1-hour and 15-minute reminders for an
// event start.
func (s *TaskScheduler) ScheduleEventReminders(ctx context.Context, schedule EventSchedule) (int, error) {
	if schedule.EventID == "" {
		return 0, fmt.Errorf("%w: event id is required", domain.ErrValidation)
	}
	return s.scheduleEventReminders(ctx, schedule)
}

// ScheduleCertificateGeneration plans the certificate marker at the event end.
func (s *TaskScheduler) ScheduleCertificateGeneration(ctx context.Context, schedule EventSchedule) (bool, error) {
	return s.scheduleMarker(ctx, domain.TaskCertificatesAutoGenerate, schedule)
}

// ScheduleFeedbackInvites plans the feedback-invite marker at the event end.
func (s *TaskScheduler) ScheduleFeedbackInvites(ctx context.Context, schedule EventSchedule) (bool, error) {
	return s.scheduleMarker(ctx, domain.TaskFeedbackInvitesSend, schedule)
}

func (s *TaskScheduler) scheduleMarker(ctx context.Context, taskType domain.TaskType, schedule EventSchedule) (bool, error) {
	if schedule.EventID == "" {
		return false, fmt.Errorf("%w: event id is required", domain.ErrValidation)
	}

	task := domain.NewMarkerTask(taskType, schedule.EventID, schedule.end(), schedule.Date, schedule.taskMetadata())
	return s.createTask(ctx, task)
}

// RescheduleEventReminders replaces the pending reminders of an edited event
// with a fresh pair against the new start time. Marker tasks are left alone:
// their downstream fan-out may already have been observed, and deleting them
// would re-trigger it on the next save.
func (s *TaskScheduler) RescheduleEventReminders(ctx context.Context, schedule EventSchedule) (int, error) {
	if schedule.EventID == "" {
		return 0, fmt.Errorf("%w: event id is required", domain.ErrValidation)
	}

	deleted, err := s.tasks.DeletePendingByEventAndTypes(ctx, schedule.EventID, domain.EventReminderTaskTypes)
	if err != nil {
		return 0, fmt.Errorf("failed to delete pending reminders: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("deleted pending event reminders for reschedule",
			zap.String("eventId", schedule.EventID),
			zap.Int64("deleted", deleted),
		)
	}

	return s.scheduleEventReminders(ctx, schedule)
}

// CancelEventReminders drops the still-pending reminders of a cancelled event.
func (s *TaskScheduler) CancelEventReminders(ctx context.Context, eventID string) (int64, error) {
	if eventID == "" {
		return 0, fmt.Errorf("%w: event id is required", domain.ErrValidation)
	}
	return s.tasks.DeletePendingByEventAndTypes(ctx, eventID, domain.EventReminderTaskTypes)
}

// ScheduleBookingReminder plans the 24-hour reminder for one booking. The
// idempotency key is derived from the booking id, so two bookings by the same
// user for different events each get their own reminder, while re-submitting
// the same booking does not.
func (s *TaskScheduler) ScheduleBookingReminder(ctx context.Context, booking BookingSchedule) (bool, error) {
	if booking.BookingID == "" || booking.EventID == "" || booking.UserID == "" {
		return false, fmt.Errorf("%w: booking id, event id and user id are required", domain.ErrValidation)
	}

	runAt := booking.EventStart.Add(-bookingReminderOffset)
	if !runAt.After(s.now()) {
		s.logger.Info("skipping booking reminder with past run time",
			zap.String("bookingId", booking.BookingID),
			zap.Time("runAt", runAt),
		)
		s.metrics.IncTaskSkipped(domain.TaskBookingReminder24h.String(), "run_at_in_past")
		return false, nil
	}

	task := domain.NewUserTask(
		domain.TaskBookingReminder24h,
		booking.EventID,
		booking.UserID,
		booking.BookingID,
		runAt,
		booking.EventStart,
		map[string]any{
			"booking_id": booking.BookingID,
			"event_id":   booking.EventID,
			"title":      booking.EventTitle,
			"starts_at":  booking.EventStart.Format(time.RFC3339),
		},
	)
	return s.createTask(ctx, task)
}

func (s *TaskScheduler) scheduleEventReminders(ctx context.Context, schedule EventSchedule) (int, error) {
	start := schedule.start()
	offsets := []struct {
		taskType domain.TaskType
		offset   time.Duration
	}{
		{taskType: domain.TaskEventReminder1h, offset: reminderHourOffset},
		{taskType: domain.TaskEventReminder15m, offset: reminderQuarterOffset},
	}

	created := 0
	for _, o := range offsets {
		runAt := start.Add(-o.offset)
		if !runAt.After(s.now()) {
			s.logger.Info("skipping reminder with past run time",
				zap.String("eventId", schedule.EventID),
				zap.String("taskType", o.taskType.String()),
				zap.Time("runAt", runAt),
			)
			s.metrics.IncTaskSkipped(o.taskType.String(), "run_at_in_past")
			continue
		}

		task := domain.NewEventTask(o.taskType, schedule.EventID, runAt, schedule.Date, schedule.taskMetadata())
		ok, err := s.createTask(ctx, task)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}

	return created, nil
}

// createTask inserts a task and reports whether a new row was created. A
// duplicate idempotency key is success, not failure: the task already exists
// and will fire exactly once.
func (s *TaskScheduler) createTask(ctx context.Context, task *domain.ScheduledTask) (bool, error) {
	task.ID = uuid.NewString()

	err := s.tasks.Create(ctx, task)
	if errors.Is(err, domain.ErrAlreadyScheduled) {
		s.logger.Debug("task already scheduled",
			zap.String("taskType", task.TaskType.String()),
			zap.String("idempotencyKey", task.IdempotencyKey),
		)
		s.metrics.IncTaskSkipped(task.TaskType.String(), "already_scheduled")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create %s task: %w", task.TaskType, err)
	}

	s.metrics.IncTaskScheduled(task.TaskType.String())
	return true, nil
}
