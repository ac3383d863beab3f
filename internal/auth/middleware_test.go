package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newGuardedApp(svc *Service, handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(svc.Authenticate("/public"))

	chain := append(handlers, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/guarded", chain...)
	app.Get("/public", func(c *fiber.Ctx) error {
		return c.SendString("public")
	})

	return app
}

func loginToken(t *testing.T, svc *Service, email string) string {
	t.Helper()

	_, pair, err := svc.Login(email, "password123", LoginMeta{})
	if err != nil {
		t.Fatalf("logging in %s: %v", email, err)
	}

	return pair.AccessToken
}

func doGet(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}

	return resp
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	svc := newTestService(t)
	app := newGuardedApp(svc)

	resp := doGet(t, app, "/guarded", "")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", resp.StatusCode, fiber.StatusUnauthorized)
	}
}

func TestAuthenticateSkipsPublicPaths(t *testing.T) {
	svc := newTestService(t)
	app := newGuardedApp(svc)

	resp := doGet(t, app, "/public", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status: got %d, want %d", resp.StatusCode, fiber.StatusOK)
	}
}

func TestAuthenticateAcceptsValidToken(t *testing.T) {
	svc := newTestService(t)
	seedUser(t, svc.db, "mw@example.com", nil)

	app := newGuardedApp(svc)
	token := loginToken(t, svc, "mw@example.com")

	resp := doGet(t, app, "/guarded", token)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status: got %d, want %d", resp.StatusCode, fiber.StatusOK)
	}
}

func TestAuthenticateRejectsRevokedToken(t *testing.T) {
	svc := newTestService(t)
	user := seedUser(t, svc.db, "revoked@example.com", nil)

	app := newGuardedApp(svc)
	token := loginToken(t, svc, "revoked@example.com")

	claims, err := svc.tokens.VerifyAccess(token)
	if err != nil {
		t.Fatalf("verifying token: %v", err)
	}

	principal := &Principal{User: user, TokenID: claims.ID}
	if err := svc.Logout(principal, claims.ExpiresAt.Unix()); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	resp := doGet(t, app, "/guarded", token)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", resp.StatusCode, fiber.StatusUnauthorized)
	}
}

func TestAuthenticateRejectsBlockedUser(t *testing.T) {
	svc := newTestService(t)
	user := seedUser(t, svc.db, "mwblocked@example.com", nil)

	app := newGuardedApp(svc)
	token := loginToken(t, svc, "mwblocked@example.com")

	// Block after login; the still-valid token must stop working.
	if err := svc.db.Model(user).Update("blocked", true).Error; err != nil {
		t.Fatalf("blocking user: %v", err)
	}

	resp := doGet(t, app, "/guarded", token)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("status: got %d, want %d", resp.StatusCode, fiber.StatusForbidden)
	}
}

func TestRequirePermissionsAllOf(t *testing.T) {
	svc := newTestService(t)
	seedUser(t, svc.db, "andguard@example.com", map[string][]string{
		"EDITOR": {PermCreateDiary},
	})

	app := newGuardedApp(svc, svc.RequirePermissions(PermCreateDiary, PermDeleteUser))
	token := loginToken(t, svc, "andguard@example.com")

	// Holding only one of two required permissions fails.
	resp := doGet(t, app, "/guarded", token)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("status: got %d, want %d", resp.StatusCode, fiber.StatusForbidden)
	}
}

func TestPrincipalCarriesPermissionUnion(t *testing.T) {
	svc := newTestService(t)
	seedUser(t, svc.db, "union@example.com", map[string][]string{
		"EDITOR":    {PermCreateDiary},
		"MODERATOR": {PermDeleteUser},
	})

	// Both permissions come from different roles; the guard must see
	// their union on the attached principal.
	app := newGuardedApp(svc, svc.RequirePermissions(PermCreateDiary, PermDeleteUser))
	token := loginToken(t, svc, "union@example.com")

	resp := doGet(t, app, "/guarded", token)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status: got %d, want %d", resp.StatusCode, fiber.StatusOK)
	}
}

func TestRequirePermissionsEmptyAllows(t *testing.T) {
	svc := newTestService(t)
	seedUser(t, svc.db, "emptyguard@example.com", nil)

	app := newGuardedApp(svc, svc.RequirePermissions())
	token := loginToken(t, svc, "emptyguard@example.com")

	resp := doGet(t, app, "/guarded", token)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status: got %d, want %d", resp.StatusCode, fiber.StatusOK)
	}
}

func TestRequirePermissionsAdminBypass(t *testing.T) {
	svc := newTestService(t)
	seedUser(t, svc.db, "admin@example.com", map[string][]string{
		RoleAdmin: nil,
	})

	app := newGuardedApp(svc, svc.RequirePermissions(PermDeleteUser, PermBlockUser))
	token := loginToken(t, svc, "admin@example.com")

	resp := doGet(t, app, "/guarded", token)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status: got %d, want %d", resp.StatusCode, fiber.StatusOK)
	}
}

func TestRequireRolesAnyOf(t *testing.T) {
	svc := newTestService(t)
	seedUser(t, svc.db, "roleguard@example.com", map[string][]string{
		"MANAGER": nil,
	})

	token := loginToken(t, svc, "roleguard@example.com")

	// Any-of: holding one of the listed roles passes.
	app := newGuardedApp(svc, svc.RequireRoles("MANAGER", "SUPERVISOR"))

	resp := doGet(t, app, "/guarded", token)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status: got %d, want %d", resp.StatusCode, fiber.StatusOK)
	}

	// None of the listed roles fails.
	app = newGuardedApp(svc, svc.RequireRoles("SUPERVISOR"))

	resp = doGet(t, app, "/guarded", token)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("status: got %d, want %d", resp.StatusCode, fiber.StatusForbidden)
	}
}
