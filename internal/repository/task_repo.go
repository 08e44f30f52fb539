package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaskRepository interface {
	Create(ctx context.Context, task *domain.ScheduledTask) error
	GetByID(ctx context.Context, id string) (*domain.ScheduledTask, error)
	GetDue(ctx context.Context, limit int) ([]domain.ScheduledTask, error)
	MarkQueuedIfPending(ctx context.Context, id string) (bool, error)
	LockForProcessing(ctx context.Context, id string) (*domain.ScheduledTask, error)
	UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) error
	DeletePendingByEventAndTypes(ctx context.Context, eventID string, types []domain.TaskType) (int64, error)
}

type GormTaskRepo struct {
	db *gorm.DB
}

func NewGormTaskRepo(db *gorm.DB) *GormTaskRepo {
	return &GormTaskRepo{db: db}
}

// Create inserts the task in a single statement and relies on the unique
// index over idempotency_key for race safety: a duplicate key comes back as
// domain.ErrAlreadyScheduled, which callers treat as success.
func (r *GormTaskRepo) Create(ctx context.Context, task *domain.ScheduledTask) error {
	model, err := taskModelFromDomain(task)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolationError(err) {
			return domain.ErrAlreadyScheduled
		}
		return err
	}
	if task != nil {
		*task = *taskModelToDomain(model)
	}
	return nil
}

func (r *GormTaskRepo) GetByID(ctx context.Context, id string) (*domain.ScheduledTask, error) {
	var model ScheduledTaskModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return taskModelToDomain(&model), nil
}

func (r *GormTaskRepo) GetDue(ctx context.Context, limit int) ([]domain.ScheduledTask, error) {
	var models []ScheduledTaskModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND run_at <= ?", domain.TaskStatusPending, time.Now()).
		Order("run_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	tasks := make([]domain.ScheduledTask, 0, len(models))
	for i := range models {
		tasks = append(tasks, *taskModelToDomain(&models[i]))
	}

	return tasks, nil
}

func (r *GormTaskRepo) MarkQueuedIfPending(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&ScheduledTaskModel{}).
		Where("id = ? AND status = ?", id, domain.TaskStatusPending).
		Update("status", domain.TaskStatusQueued)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// LockForProcessing row-locks the task and returns nil when it is no longer
// queued, so a redelivered message gets acked without double-processing.
func (r *GormTaskRepo) LockForProcessing(ctx context.Context, id string) (*domain.ScheduledTask, error) {
	var model ScheduledTaskModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if model.Status != domain.TaskStatusQueued {
		return nil, nil
	}

	return taskModelToDomain(&model), nil
}

func (r *GormTaskRepo) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) error {
	result := r.db.WithContext(ctx).
		Model(&ScheduledTaskModel{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeletePendingByEventAndTypes removes the still-pending tasks of the given
// types for one event. Used before recreating reminders after an event edit;
// marker task types are never passed here.
func (r *GormTaskRepo) DeletePendingByEventAndTypes(ctx context.Context, eventID string, types []domain.TaskType) (int64, error) {
	if len(types) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Where("event_id = ? AND status = ? AND task_type IN ?", eventID, domain.TaskStatusPending, types).
		Delete(&ScheduledTaskModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func isUniqueViolationError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
