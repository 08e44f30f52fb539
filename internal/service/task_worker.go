package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/queue"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/repository"
)

const minWorkerConcurrency = 1

// TaskHandlerFunc executes one fired task.
type TaskHandlerFunc func(ctx context.Context, task *domain.ScheduledTask) error

// TaskWorker consumes fired tasks from the broker and routes them to the
// handler registered for their type.
type TaskWorker struct {
	tasks       repository.TaskRepository
	consumer    queue.Consumer
	handlers    map[domain.TaskType]TaskHandlerFunc
	logger      *zap.Logger
	concurrency int
}

func NewTaskWorker(
	tasks repository.TaskRepository,
	consumer queue.Consumer,
	handlers map[domain.TaskType]TaskHandlerFunc,
	concurrency int,
	logger *zap.Logger,
) (*TaskWorker, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task repository is required")
	}
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if len(handlers) == 0 {
		return nil, fmt.Errorf("at least one task handler is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TaskWorker{
		tasks:       tasks,
		consumer:    consumer,
		handlers:    handlers,
		logger:      logger,
		concurrency: concurrency,
	}, nil
}

// Start consumes the work queues until context cancellation.
func (w *TaskWorker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	queueNames := queue.WorkQueueNames()

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		queueName := queueNames[i%len(queueNames)]
		workerID := i + 1

		g.Go(func() error {
			w.logger.Info("task worker started",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)

			err := w.consumer.Consume(groupCtx, queueName, w.processMessage)
			if err != nil {
				w.logger.Error("task worker stopped with error",
					zap.Int("workerId", workerID),
					zap.String("queue", queueName),
					zap.Error(err),
				)
				return err
			}

			w.logger.Info("task worker stopped",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)
			return nil
		})
	}

	return g.Wait()
}

func (w *TaskWorker) processMessage(ctx context.Context, msg queue.TaskMessage) error {
	task, err := w.tasks.LockForProcessing(ctx, msg.TaskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			w.logger.Warn("task not found during lock, skipping",
				zap.String("taskId", msg.TaskID),
			)
			return nil
		}
		return fmt.Errorf("failed to lock task for processing: %w", err)
	}

	// Nil means the task is no longer queued; ack and skip.
	if task == nil {
		return nil
	}

	handler, ok := w.handlers[task.TaskType]
	if !ok {
		w.logger.Error("no handler registered for task type",
			zap.String("taskId", task.ID),
			zap.String("taskType", task.TaskType.String()),
		)
		if err := w.tasks.UpdateStatus(ctx, task.ID, domain.TaskStatusFailed); err != nil {
			return fmt.Errorf("failed to mark unhandled task as failed: %w", err)
		}
		return nil
	}

	if handlerErr := handler(ctx, task); handlerErr != nil {
		w.logger.Error("task handler failed",
			zap.String("taskId", task.ID),
			zap.String("taskType", task.TaskType.String()),
			zap.Error(handlerErr),
		)
		if err := w.tasks.UpdateStatus(ctx, task.ID, domain.TaskStatusFailed); err != nil {
			return fmt.Errorf("failed to mark task as failed: %w", err)
		}
		return nil
	}

	if err := w.tasks.UpdateStatus(ctx, task.ID, domain.TaskStatusCompleted); err != nil {
		return fmt.Errorf("failed to mark task as completed: %w", err)
	}

	return nil
}
