package queue

import (
	"fmt"
	"strings"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
)

// TaskMessage is the broker payload for a due scheduled task.
type TaskMessage struct {
	TaskID   string          `json:"taskId"`
	TaskType domain.TaskType `json:"taskType"`
	EventID  string          `json:"eventId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
}

func (m TaskMessage) Validate() error {
	if strings.TrimSpace(m.TaskID) == "" {
		return fmt.Errorf("taskId is required")
	}
	if !m.TaskType.IsValid() {
		return fmt.Errorf("invalid task type %q", m.TaskType)
	}
	return nil
}
