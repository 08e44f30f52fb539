package migrations

import (
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createSubscriptionsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_subscriptions",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.SubscriptionModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_subscriptions_user_active ON subscriptions (user_id) WHERE is_active`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.SubscriptionModel{})
		},
	}
}
