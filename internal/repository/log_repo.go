package repository

import (
	"context"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
	"gorm.io/gorm"
)

type LogRepository interface {
	Create(ctx context.Context, entry *domain.NotificationLog) error
}

type GormLogRepo struct {
	db *gorm.DB
}

func NewGormLogRepo(db *gorm.DB) *GormLogRepo {
	return &GormLogRepo{db: db}
}

func (r *GormLogRepo) Create(ctx context.Context, entry *domain.NotificationLog) error {
	model, err := logModelFromDomain(entry)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(model).Error
}
