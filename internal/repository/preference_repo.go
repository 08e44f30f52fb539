package repository

import (
	"context"
	"errors"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreferenceRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.NotificationPreference, error)
	GetByUserIDs(ctx context.Context, userIDs []string) (map[string]*domain.NotificationPreference, error)
	Upsert(ctx context.Context, p *domain.NotificationPreference) error
}

type GormPreferenceRepo struct {
	db *gorm.DB
}

func NewGormPreferenceRepo(db *gorm.DB) *GormPreferenceRepo {
	return &GormPreferenceRepo{db: db}
}

func (r *GormPreferenceRepo) GetByUserID(ctx context.Context, userID string) (*domain.NotificationPreference, error) {
	var model NotificationPreferenceModel
	err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return preferenceModelToDomain(&model), nil
}

// GetByUserIDs fetches preference rows for a user set in one query. Users
// without a row are simply absent from the result map; callers treat absence
// as "all categories enabled".
func (r *GormPreferenceRepo) GetByUserIDs(ctx context.Context, userIDs []string) (map[string]*domain.NotificationPreference, error) {
	if len(userIDs) == 0 {
		return map[string]*domain.NotificationPreference{}, nil
	}

	var models []NotificationPreferenceModel
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	preferences := make(map[string]*domain.NotificationPreference, len(models))
	for i := range models {
		preferences[models[i].UserID] = preferenceModelToDomain(&models[i])
	}

	return preferences, nil
}

func (r *GormPreferenceRepo) Upsert(ctx context.Context, p *domain.NotificationPreference) error {
	model := preferenceModelFromDomain(p)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"teaching_events", "bookings", "certificates", "feedback",
				"announcements", "leaderboard_updates", "quiz_reminders", "updated_at",
			}),
		}).
		Create(model).Error
	if err != nil {
		return err
	}
	if p != nil {
		*p = *preferenceModelToDomain(model)
	}
	return nil
}
