package auth

import (
	"errors"
	"sort"
	"testing"
	"time"
)

func TestHasPermission(t *testing.T) {
	svc := newTestService(t)

	user := seedUser(t, svc.db, "perm@example.com", map[string][]string{
		"EDITOR": {PermCreateDiary, PermViewOwnDiary},
	})

	ok, err := svc.HasPermission(user.ID, PermCreateDiary)
	if err != nil {
		t.Fatalf("HasPermission: %v", err)
	}
	if !ok {
		t.Error("expected user to have CREATE_DIARY")
	}

	ok, err = svc.HasPermission(user.ID, PermDeleteUser)
	if err != nil {
		t.Fatalf("HasPermission: %v", err)
	}
	if ok {
		t.Error("expected user to lack DELETE_USER")
	}
}

func TestHasAllPermissions(t *testing.T) {
	svc := newTestService(t)

	user := seedUser(t, svc.db, "all@example.com", map[string][]string{
		"EDITOR": {PermCreateDiary, PermViewOwnDiary},
	})

	ok, err := svc.HasAllPermissions(user.ID, PermCreateDiary, PermViewOwnDiary)
	if err != nil {
		t.Fatalf("HasAllPermissions: %v", err)
	}
	if !ok {
		t.Error("expected all held permissions to pass")
	}

	ok, err = svc.HasAllPermissions(user.ID, PermCreateDiary, PermDeleteUser)
	if err != nil {
		t.Fatalf("HasAllPermissions: %v", err)
	}
	if ok {
		t.Error("expected one missing permission to fail the set")
	}

	// Empty requirement always passes.
	ok, err = svc.HasAllPermissions(user.ID)
	if err != nil {
		t.Fatalf("HasAllPermissions: %v", err)
	}
	if !ok {
		t.Error("expected empty requirement to pass")
	}
}

func TestHasAnyPermission(t *testing.T) {
	svc := newTestService(t)

	user := seedUser(t, svc.db, "any@example.com", map[string][]string{
		"VIEWER": {PermViewOwnDiary},
	})

	ok, err := svc.HasAnyPermission(user.ID, PermDeleteUser, PermViewOwnDiary)
	if err != nil {
		t.Fatalf("HasAnyPermission: %v", err)
	}
	if !ok {
		t.Error("expected one held permission to satisfy any-of")
	}

	ok, err = svc.HasAnyPermission(user.ID, PermDeleteUser, PermBlockUser)
	if err != nil {
		t.Fatalf("HasAnyPermission: %v", err)
	}
	if ok {
		t.Error("expected no held permission to fail any-of")
	}
}

func TestGetUserPermissionsDeduplicates(t *testing.T) {
	svc := newTestService(t)

	// Both roles carry VIEW_OWN_DIARY; it must appear once.
	user := seedUser(t, svc.db, "dedupe@example.com", map[string][]string{
		"A": {PermViewOwnDiary, PermCreateDiary},
		"B": {PermViewOwnDiary},
	})

	perms, err := svc.GetUserPermissions(user.ID)
	if err != nil {
		t.Fatalf("GetUserPermissions: %v", err)
	}

	sort.Strings(perms)

	want := []string{PermCreateDiary, PermViewOwnDiary}
	if len(perms) != len(want) {
		t.Fatalf("permissions: got %v, want %v", perms, want)
	}
	for i := range want {
		if perms[i] != want[i] {
			t.Fatalf("permissions: got %v, want %v", perms, want)
		}
	}
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)

	user := seedUser(t, svc.db, "login@example.com", map[string][]string{
		RoleUser: nil,
	})

	_, pair, err := svc.Login("login@example.com", "password123", LoginMeta{
		IPAddress: "10.0.0.1",
		UserAgent: "Mozilla/5.0 (iPhone) Mobile",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := svc.tokens.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("verifying issued access token: %v", err)
	}
	if claims.Subject != user.ID {
		t.Errorf("subject: got %q, want %q", claims.Subject, user.ID)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != RoleUser {
		t.Errorf("roles: got %v, want [USER]", claims.Roles)
	}

	// The refresh token is stored on the user.
	stored, err := svc.GetUser(user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if stored.RefreshToken == nil || *stored.RefreshToken != pair.RefreshToken {
		t.Error("expected refresh token to be stored on the user")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(t)

	seedUser(t, svc.db, "wrong@example.com", nil)

	_, _, err := svc.Login("wrong@example.com", "nope", LoginMeta{})
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("got %v, want ErrInvalidPassword", err)
	}

	// Unknown email yields the same error, not a user-enumeration hint.
	_, _, err = svc.Login("missing@example.com", "password123", LoginMeta{})
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("got %v, want ErrInvalidPassword", err)
	}
}

func TestLoginBlockedUser(t *testing.T) {
	svc := newTestService(t)

	user := seedUser(t, svc.db, "blocked@example.com", nil)
	if err := svc.db.Model(user).Update("blocked", true).Error; err != nil {
		t.Fatalf("blocking user: %v", err)
	}

	_, _, err := svc.Login("blocked@example.com", "password123", LoginMeta{})
	if !errors.Is(err, ErrUserBlocked) {
		t.Fatalf("got %v, want ErrUserBlocked", err)
	}
}

func TestLoginReplacesRefreshToken(t *testing.T) {
	svc := newTestService(t)

	seedUser(t, svc.db, "single@example.com", nil)

	_, first, err := svc.Login("single@example.com", "password123", LoginMeta{})
	if err != nil {
		t.Fatalf("first login: %v", err)
	}

	_, second, err := svc.Login("single@example.com", "password123", LoginMeta{})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	// The first session can no longer refresh.
	if _, err := svc.Refresh(first.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("got %v, want ErrInvalidRefreshToken", err)
	}

	if _, err := svc.Refresh(second.RefreshToken); err != nil {
		t.Fatalf("refreshing current session: %v", err)
	}
}

func TestRefreshIssuesAccessToken(t *testing.T) {
	svc := newTestService(t)

	seedUser(t, svc.db, "refresh@example.com", nil)

	_, pair, err := svc.Login("refresh@example.com", "password123", LoginMeta{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	access, err := svc.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	claims, err := svc.Tokens().VerifyAccess(access)
	if err != nil {
		t.Fatalf("verifying refreshed access token: %v", err)
	}
	if claims.Email != "refresh@example.com" {
		t.Errorf("email claim: got %q", claims.Email)
	}

	// The refresh token is not rotated; it stays usable.
	if _, err := svc.Refresh(pair.RefreshToken); err != nil {
		t.Fatalf("second refresh with the same token: %v", err)
	}

	if _, err := svc.Refresh("not-a-token"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("got %v, want ErrInvalidRefreshToken", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := newTestService(t)

	user := seedUser(t, svc.db, "logout@example.com", nil)

	_, pair, err := svc.Login("logout@example.com", "password123", LoginMeta{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := svc.tokens.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("verifying access token: %v", err)
	}

	principal := &Principal{User: user, TokenID: claims.ID}
	if err := svc.Logout(principal, claims.ExpiresAt.Unix()); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	revoked, err := svc.IsRevoked(claims.ID)
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if !revoked {
		t.Error("expected token to be on the revocation list")
	}

	stored, err := svc.GetUser(user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if stored.RefreshToken != nil {
		t.Error("expected refresh token to be cleared")
	}
}

func TestChangePassword(t *testing.T) {
	svc := newTestService(t)

	user := seedUser(t, svc.db, "change@example.com", nil)

	err := svc.ChangePassword(user.ID, "not-the-password", "newpassword")
	if !errors.Is(err, ErrInvalidOldPassword) {
		t.Fatalf("got %v, want ErrInvalidOldPassword", err)
	}

	if err := svc.ChangePassword(user.ID, "password123", "newpassword"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, _, err := svc.Login("change@example.com", "newpassword", LoginMeta{}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestPruneRevoked(t *testing.T) {
	svc := newTestService(t)

	now := time.Now()

	if err := svc.Revoke("expired-token", now.Add(-time.Hour).Unix()); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := svc.Revoke("live-token", now.Add(time.Hour).Unix()); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	removed, err := svc.PruneRevoked(now)
	if err != nil {
		t.Fatalf("PruneRevoked: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed: got %d, want 1", removed)
	}

	revoked, err := svc.IsRevoked("live-token")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if !revoked {
		t.Error("expected the live token to stay on the list")
	}
}
