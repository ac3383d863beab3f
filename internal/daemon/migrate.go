package daemon

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/emolog/emolog/internal/db/models"
)

// Migrate brings the schema up to date.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Unit{},
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.UserRole{},
		&models.RolePermission{},
		&models.RevokedToken{},
		&models.LoginHistory{},
		&models.Diary{},
		&models.DiaryComment{},
		&models.DiaryReaction{},
		&models.SupportContent{},
		&models.WorkNote{},
		&models.EmotionAlert{},
		&models.EmotionStatistic{},
	)
	if err != nil {
		return errors.Wrap(err, "migrating schema")
	}

	return nil
}
