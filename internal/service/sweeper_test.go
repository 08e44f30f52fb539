package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/queue"
)

// fnTaskRepo is a function-field task repository fake for flows the map-backed
// fake does not cover.
type fnTaskRepo struct {
	createFn              func(ctx context.Context, task *domain.ScheduledTask) error
	getDueFn              func(ctx context.Context, limit int) ([]domain.ScheduledTask, error)
	markQueuedIfPendingFn func(ctx context.Context, id string) (bool, error)
	lockForProcessingFn   func(ctx context.Context, id string) (*domain.ScheduledTask, error)
	updateStatusFn        func(ctx context.Context, id string, status domain.TaskStatus) error
}

func (f *fnTaskRepo) Create(ctx context.Context, task *domain.ScheduledTask) error {
	return f.createFn(ctx, task)
}

func (f *fnTaskRepo) GetByID(ctx context.Context, id string) (*domain.ScheduledTask, error) {
	return nil, errors.New("not implemented")
}

func (f *fnTaskRepo) GetDue(ctx context.Context, limit int) ([]domain.ScheduledTask, error) {
	return f.getDueFn(ctx, limit)
}

func (f *fnTaskRepo) MarkQueuedIfPending(ctx context.Context, id string) (bool, error) {
	return f.markQueuedIfPendingFn(ctx, id)
}

func (f *fnTaskRepo) LockForProcessing(ctx context.Context, id string) (*domain.ScheduledTask, error) {
	return f.lockForProcessingFn(ctx, id)
}

func (f *fnTaskRepo) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) error {
	return f.updateStatusFn(ctx, id, status)
}

func (f *fnTaskRepo) DeletePendingByEventAndTypes(ctx context.Context, eventID string, types []domain.TaskType) (int64, error) {
	return 0, errors.New("not implemented")
}

type publishedMessage struct {
	queue string
	msg   queue.TaskMessage
}

type fakePublisher struct {
	mu        sync.Mutex
	published []publishedMessage

	publishErr error
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, msg queue.TaskMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, publishedMessage{queue: queueName, msg: msg})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) all() []publishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedMessage(nil), f.published...)
}

func strPtr(s string) *string { return &s }

func TestSweeperEnqueuesDueTasks(t *testing.T) {
	t.Parallel()

	runAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	dueTasks := []domain.ScheduledTask{
		{
			ID:       "task-1",
			TaskType: domain.TaskEventReminder1h,
			EventID:  strPtr("event-1"),
			Status:   domain.TaskStatusPending,
			RunAt:    runAt,
		},
		{
			ID:       "task-2",
			TaskType: domain.TaskFeedbackInvitesSend,
			EventID:  strPtr("event-1"),
			Status:   domain.TaskStatusPending,
			RunAt:    runAt,
		},
	}

	var marked []string
	repo := &fnTaskRepo{
		getDueFn: func(ctx context.Context, limit int) ([]domain.ScheduledTask, error) {
			return dueTasks, nil
		},
		markQueuedIfPendingFn: func(ctx context.Context, id string) (bool, error) {
			marked = append(marked, id)
			return true, nil
		},
	}
	publisher := &fakePublisher{}

	sweeper, err := NewSweeper(repo, publisher, time.Minute, 100, nil)
	if err != nil {
		t.Fatalf("NewSweeper() error = %v", err)
	}

	if err := sweeper.sweepDue(context.Background()); err != nil {
		t.Fatalf("sweepDue() error = %v", err)
	}

	published := publisher.all()
	if len(published) != 2 {
		t.Fatalf("published = %d, want 2", len(published))
	}
	if published[0].queue != queue.ReminderQueue {
		t.Fatalf("reminder queue = %s, want %s", published[0].queue, queue.ReminderQueue)
	}
	if published[0].msg.EventID != "event-1" {
		t.Fatalf("event id = %s, want event-1", published[0].msg.EventID)
	}
	if published[1].queue != queue.MarkerQueue {
		t.Fatalf("marker queue = %s, want %s", published[1].queue, queue.MarkerQueue)
	}

	if len(marked) != 2 {
		t.Fatalf("marked queued = %d, want 2", len(marked))
	}
}

func TestSweeperLeavesTaskPendingOnPublishFailure(t *testing.T) {
	t.Parallel()

	repo := &fnTaskRepo{
		getDueFn: func(ctx context.Context, limit int) ([]domain.ScheduledTask, error) {
			return []domain.ScheduledTask{{
				ID:       "task-1",
				TaskType: domain.TaskEventReminder15m,
				Status:   domain.TaskStatusPending,
				RunAt:    time.Now(),
			}}, nil
		},
		markQueuedIfPendingFn: func(ctx context.Context, id string) (bool, error) {
			t.Fatal("task must stay pending when publish fails")
			return false, nil
		},
	}
	publisher := &fakePublisher{publishErr: errors.New("broker down")}

	sweeper, err := NewSweeper(repo, publisher, time.Minute, 100, nil)
	if err != nil {
		t.Fatalf("NewSweeper() error = %v", err)
	}

	if err := sweeper.sweepDue(context.Background()); err != nil {
		t.Fatalf("sweepDue() error = %v", err)
	}
}

func TestSweeperStartStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	repo := &fnTaskRepo{
		getDueFn: func(ctx context.Context, limit int) ([]domain.ScheduledTask, error) {
			return nil, nil
		},
	}

	sweeper, err := NewSweeper(repo, &fakePublisher{}, 10*time.Millisecond, 100, nil)
	if err != nil {
		t.Fatalf("NewSweeper() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Start(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
