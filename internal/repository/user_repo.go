package repository

import (
	"context"

	"gorm.io/gorm"
)

type UserRepository interface {
	UserIDsByCohort(ctx context.Context, university, year string) ([]string, error)
}

type GormUserRepo struct {
	db *gorm.DB
}

func NewGormUserRepo(db *gorm.DB) *GormUserRepo {
	return &GormUserRepo{db: db}
}

// UserIDsByCohort matches users whose university and study year both equal
// the cohort values. Users with either field unset never match.
func (r *GormUserRepo) UserIDsByCohort(ctx context.Context, university, year string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("university IS NOT NULL AND study_year IS NOT NULL").
		Where("university = ? AND study_year = ?", university, year).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
