package repository

import (
	"context"
	"time"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepository interface {
	Save(ctx context.Context, s *domain.Subscription) error
	GetActiveByUserIDs(ctx context.Context, userIDs []string) ([]domain.Subscription, error)
	Deactivate(ctx context.Context, id string) error
	DeactivateByEndpoint(ctx context.Context, endpoint string) error
}

type GormSubscriptionRepo struct {
	db *gorm.DB
}

func NewGormSubscriptionRepo(db *gorm.DB) *GormSubscriptionRepo {
	return &GormSubscriptionRepo{db: db}
}

// Save upserts on the endpoint. A browser re-registering an existing endpoint
// refreshes the keys and reactivates the subscription.
func (r *GormSubscriptionRepo) Save(ctx context.Context, s *domain.Subscription) error {
	model := subscriptionModelFromDomain(s)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id", "p256dh", "auth", "device_info", "is_active", "last_active_at",
			}),
		}).
		Create(model).Error
	if err != nil {
		return err
	}
	if s != nil {
		*s = *subscriptionModelToDomain(model)
	}
	return nil
}

func (r *GormSubscriptionRepo) GetActiveByUserIDs(ctx context.Context, userIDs []string) ([]domain.Subscription, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var models []SubscriptionModel
	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND is_active = ?", userIDs, true).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	subscriptions := make([]domain.Subscription, 0, len(models))
	for i := range models {
		subscriptions = append(subscriptions, *subscriptionModelToDomain(&models[i]))
	}

	return subscriptions, nil
}

func (r *GormSubscriptionRepo) Deactivate(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&SubscriptionModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":      false,
			"last_active_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormSubscriptionRepo) DeactivateByEndpoint(ctx context.Context, endpoint string) error {
	result := r.db.WithContext(ctx).
		Model(&SubscriptionModel{}).
		Where("endpoint = ?", endpoint).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
