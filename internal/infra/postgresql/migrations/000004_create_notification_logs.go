package migrations

import (
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createNotificationLogsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_notification_logs",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.NotificationLogModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_notification_logs_user_sent ON notification_logs (user_id, sent_at) WHERE user_id IS NOT NULL`,
				`CREATE INDEX IF NOT EXISTS idx_notification_logs_type_sent ON notification_logs (notification_type, sent_at)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.NotificationLogModel{})
		},
	}
}
