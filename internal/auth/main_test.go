package auth

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emolog/emolog/internal/db/models"
)

const testSecret = "test-secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.UserRole{},
		&models.RolePermission{},
		&models.Unit{},
		&models.RevokedToken{},
		&models.LoginHistory{},
	)
	if err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	tokens := NewTokenIssuer(testSecret, 15*time.Minute, 7*24*time.Hour)

	return NewService(newTestDB(t), tokens)
}

// seedUser creates a user with the given roles; each role carries the
// listed permissions.
func seedUser(t *testing.T, db *gorm.DB, email string, rolePerms map[string][]string) *models.User {
	t.Helper()

	user := models.User{Email: email, FirstName: "Test", LastName: "User"}
	if err := user.HashPassword("password123"); err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	for name, perms := range rolePerms {
		role := models.Role{Name: name}

		for _, p := range perms {
			perm := models.Permission{Name: p}
			if err := db.Where("name = ?", p).FirstOrCreate(&perm).Error; err != nil {
				t.Fatalf("creating permission %s: %v", p, err)
			}

			role.Permissions = append(role.Permissions, perm)
		}

		if err := db.Create(&role).Error; err != nil {
			t.Fatalf("creating role %s: %v", name, err)
		}

		user.Roles = append(user.Roles, role)
	}

	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("creating user: %v", err)
	}

	return &user
}
