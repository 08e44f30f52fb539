package migrations

import (
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createScheduledTasksTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_scheduled_tasks",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.ScheduledTaskModel{}); err != nil {
				return err
			}
			indexes := []string{
				// The unique index is what makes check-then-insert race-safe.
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_scheduled_tasks_idempotency_key ON scheduled_tasks (idempotency_key)`,
				`CREATE INDEX IF NOT EXISTS idx_scheduled_tasks_due ON scheduled_tasks (run_at) WHERE status = 'PENDING'`,
				`CREATE INDEX IF NOT EXISTS idx_scheduled_tasks_event_type ON scheduled_tasks (event_id, task_type) WHERE event_id IS NOT NULL`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.ScheduledTaskModel{})
		},
	}
}
