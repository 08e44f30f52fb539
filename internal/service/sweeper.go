package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/queue"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/repository"
)

const (
	defaultSweepInterval = 30 * time.Second
	defaultSweepLimit    = 100
)

// Sweeper periodically moves due pending tasks onto the broker. It only
// flips a task to QUEUED after a successful publish, so a broker outage
// leaves tasks pending and retried on the next sweep.
type Sweeper struct {
	tasks     repository.TaskRepository
	publisher queue.Publisher
	logger    *zap.Logger
	interval  time.Duration
	limit     int
}

func NewSweeper(
	tasks repository.TaskRepository,
	publisher queue.Publisher,
	interval time.Duration,
	limit int,
	logger *zap.Logger,
) (*Sweeper, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if limit <= 0 {
		limit = defaultSweepLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Sweeper{
		tasks:     tasks,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		limit:     limit,
	}, nil
}

func (s *Sweeper) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.sweepDue(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("initial sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.sweepDue(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *Sweeper) sweepDue(ctx context.Context) error {
	dueTasks, err := s.tasks.GetDue(ctx, s.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch due tasks: %w", err)
	}

	for i := range dueTasks {
		task := dueTasks[i]

		msg := queue.TaskMessage{
			TaskID:   task.ID,
			TaskType: task.TaskType,
		}
		if task.EventID != nil {
			msg.EventID = *task.EventID
		}
		if task.UserID != nil {
			msg.UserID = *task.UserID
		}

		queueName := queue.QueueName(task.TaskType)
		if err := s.publisher.Publish(ctx, queueName, msg); err != nil {
			s.logger.Error("failed to enqueue due task",
				zap.String("taskId", task.ID),
				zap.String("queue", queueName),
				zap.Error(err),
			)
			continue
		}

		updated, err := s.tasks.MarkQueuedIfPending(ctx, task.ID)
		if err != nil {
			s.logger.Error("failed to mark task as queued",
				zap.String("taskId", task.ID),
				zap.Error(err),
			)
			continue
		}
		if !updated {
			s.logger.Info("task status changed before queue mark",
				zap.String("taskId", task.ID),
			)
		}
	}

	return nil
}
