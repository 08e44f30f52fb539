package migrations

import (
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		createSubscriptionsTable(),
		createNotificationPreferencesTable(),
		createScheduledTasksTable(),
		createNotificationLogsTable(),
		createUsersProjection(),
	})

	return m.Migrate()
}

// createUsersProjection creates the users table only when the engine runs
// against an empty database (local development). In production the table is
// owned and populated by the main application sharing this database.
func createUsersProjection() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000005_create_users_projection",
		Migrate: func(tx *gorm.DB) error {
			if tx.Migrator().HasTable(&repository.UserModel{}) {
				return nil
			}
			if err := tx.AutoMigrate(&repository.UserModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_users_cohort ON users (university, study_year) WHERE university IS NOT NULL AND study_year IS NOT NULL`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return nil
		},
	}
}
