package queue

import (
	"context"
	"fmt"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
)

// Publisher publishes due task messages to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg TaskMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg TaskMessage) error

// Consumer consumes task messages from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

const (
	// ReminderQueue carries user-facing reminder tasks.
	ReminderQueue = "tasks.reminders"
	// MarkerQueue carries marker tasks consumed by downstream jobs.
	MarkerQueue = "tasks.markers"

	// queueMaxPriority is the RabbitMQ x-max-priority value for work queues.
	queueMaxPriority int32 = 3
)

// QueueName returns the work queue for a task type. Marker tasks go to their
// own queue so a slow downstream job never delays reminders.
func QueueName(taskType domain.TaskType) string {
	if taskType.IsMarker() {
		return MarkerQueue
	}
	return ReminderQueue
}

// DLQName returns the dead-letter queue name, e.g. dlq.tasks.reminders.
func DLQName(queue string) string {
	return fmt.Sprintf("dlq.%s", queue)
}

// WorkQueueNames returns all work queues.
func WorkQueueNames() []string {
	return []string{ReminderQueue, MarkerQueue}
}

// DLQNames returns all dead-letter queues.
func DLQNames() []string {
	work := WorkQueueNames()
	queues := make([]string, 0, len(work))
	for _, queue := range work {
		queues = append(queues, DLQName(queue))
	}
	return queues
}

// PriorityValue maps a task type to RabbitMQ message priority. Reminders are
// time-sensitive; markers can wait behind them.
func PriorityValue(taskType domain.TaskType) uint8 {
	if taskType.IsMarker() {
		return 1
	}
	return 2
}
