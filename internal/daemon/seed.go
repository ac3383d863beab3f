package daemon

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/emolog/emolog/internal/auth"
	"github.com/emolog/emolog/internal/db/models"
)

// Default admin credentials created on first start. Change the password
// after the first login.
const (
	seedAdminEmail    = "admin@emolog.local"
	seedAdminPassword = "ChangeMe123!"
)

// Seed creates the baseline units, permissions, roles and the admin
// user. It is idempotent; existing rows are left alone.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := seedUnits(tx); err != nil {
			return err
		}

		if err := seedPermissions(tx); err != nil {
			return err
		}

		if err := seedRoles(tx); err != nil {
			return err
		}

		return seedAdmin(tx)
	})
}

func seedUnits(tx *gorm.DB) error {
	seeds := []models.Unit{
		{Code: "DV001", Name: "Headquarters"},
		{Code: "DV002", Name: "First Battalion"},
		{Code: "DV003", Name: "Second Battalion"},
	}

	for _, unit := range seeds {
		err := tx.Where("code = ?", unit.Code).FirstOrCreate(&unit).Error
		if err != nil {
			return errors.Wrapf(err, "seeding unit %s", unit.Code)
		}
	}

	return nil
}

func seedPermissions(tx *gorm.DB) error {
	for _, name := range auth.AllPermissions {
		perm := models.Permission{Name: name}

		err := tx.Where("name = ?", name).FirstOrCreate(&perm).Error
		if err != nil {
			return errors.Wrapf(err, "seeding permission %s", name)
		}
	}

	return nil
}

func seedRoles(tx *gorm.DB) error {
	// ADMIN carries every permission; USER gets the diary self-service
	// permissions only.
	var admin models.Role

	err := tx.Where("name = ?", auth.RoleAdmin).
		FirstOrCreate(&admin, models.Role{Name: auth.RoleAdmin, Description: "Full access"}).Error
	if err != nil {
		return errors.Wrap(err, "seeding admin role")
	}

	var perms []models.Permission
	if err := tx.Find(&perms).Error; err != nil {
		return errors.Wrap(err, "loading permissions")
	}

	if err := tx.Model(&admin).Association("Permissions").Replace(perms); err != nil {
		return errors.Wrap(err, "granting admin permissions")
	}

	var user models.Role

	err = tx.Where("name = ?", auth.RoleUser).
		FirstOrCreate(&user, models.Role{Name: auth.RoleUser, Description: "Regular user"}).Error
	if err != nil {
		return errors.Wrap(err, "seeding user role")
	}

	var userPerms []models.Permission
	err = tx.Where("name IN ?", []string{auth.PermCreateDiary, auth.PermViewOwnDiary}).
		Find(&userPerms).Error
	if err != nil {
		return errors.Wrap(err, "loading user permissions")
	}

	if err := tx.Model(&user).Association("Permissions").Replace(userPerms); err != nil {
		return errors.Wrap(err, "granting user permissions")
	}

	return nil
}

func seedAdmin(tx *gorm.DB) error {
	var count int64

	err := tx.Model(&models.User{}).Where("email = ?", seedAdminEmail).Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "checking admin user")
	}
	if count > 0 {
		return nil
	}

	var adminRole models.Role
	if err := tx.Where("name = ?", auth.RoleAdmin).First(&adminRole).Error; err != nil {
		return errors.Wrap(err, "loading admin role")
	}

	admin := models.User{
		Email:     seedAdminEmail,
		FirstName: "System",
		LastName:  "Administrator",
		Roles:     []models.Role{adminRole},
	}
	if err := admin.HashPassword(seedAdminPassword); err != nil {
		return errors.Wrap(err, "hashing admin password")
	}

	if err := tx.Create(&admin).Error; err != nil {
		return errors.Wrap(err, "creating admin user")
	}

	log.Warn().Str("email", seedAdminEmail).Msg("created default admin user, change its password")

	return nil
}
