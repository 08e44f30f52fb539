package migrations

import (
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createNotificationPreferencesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_notification_preferences",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.NotificationPreferenceModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.NotificationPreferenceModel{})
		},
	}
}
