package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emolog/emolog/internal/analytics"
	"github.com/emolog/emolog/internal/auth"
	"github.com/emolog/emolog/internal/db/models"
	"github.com/emolog/emolog/internal/units"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	authz *auth.Service
	units *units.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{}, &models.Role{}, &models.Permission{},
		&models.UserRole{}, &models.RolePermission{}, &models.RevokedToken{},
		&models.LoginHistory{}, &models.Unit{}, &models.Diary{},
		&models.EmotionAlert{}, &models.EmotionStatistic{},
	)
	if err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	authz := auth.NewService(db, auth.NewTokenIssuer("test-secret", 15*time.Minute, time.Hour))
	unitSvc := units.NewService(db)

	app := fiber.New()
	app.Use(authz.Authenticate())
	Init(app, authz, unitSvc, analytics.NewService(db))

	return &testEnv{app: app, db: db, authz: authz, units: unitSvc}
}

func (e *testEnv) seedManager(t *testing.T, email string, unitID uint) string {
	t.Helper()

	perm := models.Permission{Name: auth.PermViewUnitEmotionDashboard}
	if err := e.db.Where("name = ?", perm.Name).FirstOrCreate(&perm).Error; err != nil {
		t.Fatalf("creating permission: %v", err)
	}

	role := models.Role{Name: "MANAGER-" + email, Permissions: []models.Permission{perm}}
	if err := e.db.Create(&role).Error; err != nil {
		t.Fatalf("creating role: %v", err)
	}

	user := models.User{Email: email, UnitID: &unitID, Roles: []models.Role{role}}
	if err := user.HashPassword("password123"); err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("creating user: %v", err)
	}

	_, pair, err := e.authz.Login(email, "password123", auth.LoginMeta{})
	if err != nil {
		t.Fatalf("logging in: %v", err)
	}

	return pair.AccessToken
}

func (e *testEnv) get(t *testing.T, path, token string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}

	return resp
}

func TestDashboardScopedToOwnSubtree(t *testing.T) {
	env := newTestEnv(t)

	own, err := env.units.Create(units.CreateInput{Code: "DV001", Name: "Alpha"})
	if err != nil {
		t.Fatalf("creating unit: %v", err)
	}
	child, err := env.units.Create(units.CreateInput{Code: "DV001-1", Name: "Squad", ParentID: &own.ID})
	if err != nil {
		t.Fatalf("creating unit: %v", err)
	}
	other, err := env.units.Create(units.CreateInput{Code: "DV002", Name: "Bravo"})
	if err != nil {
		t.Fatalf("creating unit: %v", err)
	}

	token := env.seedManager(t, "manager@example.com", own.ID)

	// Own unit and its direct child are visible.
	for _, id := range []uint{own.ID, child.ID} {
		resp := env.get(t, fmt.Sprintf("/dashboard?unitId=%d", id), token)
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("unit %d: got %d, want %d", id, resp.StatusCode, fiber.StatusOK)
		}
	}

	// A unit outside the subtree is refused.
	resp := env.get(t, fmt.Sprintf("/dashboard?unitId=%d", other.ID), token)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("foreign unit: got %d, want %d", resp.StatusCode, fiber.StatusForbidden)
	}
}

func TestDashboardCountsScopedEntries(t *testing.T) {
	env := newTestEnv(t)

	own, err := env.units.Create(units.CreateInput{Code: "DV001", Name: "Alpha"})
	if err != nil {
		t.Fatalf("creating unit: %v", err)
	}
	other, err := env.units.Create(units.CreateInput{Code: "DV002", Name: "Bravo"})
	if err != nil {
		t.Fatalf("creating unit: %v", err)
	}

	token := env.seedManager(t, "manager@example.com", own.ID)

	member := models.User{Email: "member@example.com", UnitID: &own.ID}
	if err := member.HashPassword("password123"); err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	outsider := models.User{Email: "outsider@example.com", UnitID: &other.ID}
	if err := outsider.HashPassword("password123"); err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	if err := env.db.Create(&member).Error; err != nil {
		t.Fatalf("creating member: %v", err)
	}
	if err := env.db.Create(&outsider).Error; err != nil {
		t.Fatalf("creating outsider: %v", err)
	}

	yesterday := time.Now().AddDate(0, 0, -1)
	for _, u := range []*models.User{&member, &outsider} {
		diary := models.Diary{
			UserID:        u.ID,
			Date:          yesterday,
			EmotionStatus: models.EmotionHappy,
			PrivacyLevel:  models.PrivacyStatisticsOnly,
		}
		if err := env.db.Create(&diary).Error; err != nil {
			t.Fatalf("creating diary: %v", err)
		}
	}

	resp := env.get(t, "/dashboard", token)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("dashboard status: got %d", resp.StatusCode)
	}

	var summary struct {
		TotalDiaries int `json:"totalDiaries"`
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decoding summary: %v", err)
	}

	if summary.TotalDiaries != 1 {
		t.Errorf("total: got %d, want only the own-unit entry", summary.TotalDiaries)
	}
}
