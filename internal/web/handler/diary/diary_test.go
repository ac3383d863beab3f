package diary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emolog/emolog/internal/auth"
	"github.com/emolog/emolog/internal/db/models"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	authz *auth.Service
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
		&models.LoginHistory{}, &models.Diary{}, &models.DiaryComment{},
		&models.DiaryReaction{},
	)
	if err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	authz := auth.NewService(db, auth.NewTokenIssuer("test-secret", 15*time.Minute, time.Hour))

	app := fiber.New()
	app.Use(authz.Authenticate())
	Init(app, db, authz)

	return &testEnv{app: app, db: db, authz: authz}
}

func (e *testEnv) seedUser(t *testing.T, email string) (string, string) {
	t.Helper()

	user := models.User{Email: email}
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

	return user.ID, pair.AccessToken
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, path, err)
	}

	return resp
}

func decode(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()

	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func entryBody(date, emotion, privacy string) fiber.Map {
	return fiber.Map{
		"date":          date,
		"content":       "wrote some tests",
		"emotionStatus": emotion,
		"privacyLevel":  privacy,
		"hashtags":      []string{"testing"},
	}
}

func TestCreateOnePerDay(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "a@example.com")

	resp := env.request(t, fiber.MethodPost, "/diaries/", token,
		entryBody("2026-08-01", "HAPPY", "PRIVATE"))
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, fiber.StatusCreated)
	}

	resp = env.request(t, fiber.MethodPost, "/diaries/", token,
		entryBody("2026-08-01", "SAD", "PRIVATE"))
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("duplicate status: got %d, want %d", resp.StatusCode, fiber.StatusConflict)
	}
}

func TestCreateRejectsUnknownEmotion(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "a@example.com")

	resp := env.request(t, fiber.MethodPost, "/diaries/", token,
		entryBody("2026-08-01", "CONFUSED", "PRIVATE"))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status: got %d, want %d", resp.StatusCode, fiber.StatusBadRequest)
	}
}

func TestOwnershipHidesForeignEntries(t *testing.T) {
	env := newTestEnv(t)
	_, tokenA := env.seedUser(t, "a@example.com")
	_, tokenB := env.seedUser(t, "b@example.com")

	resp := env.request(t, fiber.MethodPost, "/diaries/", tokenA,
		entryBody("2026-08-01", "HAPPY", "PRIVATE"))
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create status: got %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	decode(t, resp, &created)

	// A private entry is invisible to anyone else, as is mutating it.
	resp = env.request(t, fiber.MethodGet, "/diaries/"+created.ID, tokenB, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("foreign get: got %d, want %d", resp.StatusCode, fiber.StatusNotFound)
	}

	resp = env.request(t, fiber.MethodDelete, "/diaries/"+created.ID, tokenB, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("foreign delete: got %d, want %d", resp.StatusCode, fiber.StatusNotFound)
	}
}

func TestFeedHidesAuthorAndSkipsPrivate(t *testing.T) {
	env := newTestEnv(t)
	_, tokenA := env.seedUser(t, "a@example.com")
	_, tokenB := env.seedUser(t, "b@example.com")

	for date, privacy := range map[string]string{
		"2026-08-01": "ANONYMOUS_SHARE",
		"2026-08-02": "PRIVATE",
		"2026-08-03": "STATISTICS_ONLY",
	} {
		resp := env.request(t, fiber.MethodPost, "/diaries/", tokenA,
			entryBody(date, "HAPPY", privacy))
		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("create status: got %d", resp.StatusCode)
		}
	}

	resp := env.request(t, fiber.MethodGet, "/diaries/feed", tokenB, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("feed status: got %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading feed: %v", err)
	}
	resp.Body.Close()

	var body struct {
		Items []struct {
			ID   string `json:"id"`
			Mine bool   `json:"mine"`
		} `json:"items"`
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decoding feed: %v", err)
	}

	if body.Total != 1 || len(body.Items) != 1 {
		t.Fatalf("feed size: got %d items, want 1", len(body.Items))
	}
	if body.Items[0].Mine {
		t.Error("foreign entry marked as mine")
	}
	if bytes.Contains(raw, []byte("a@example.com")) || bytes.Contains(raw, []byte("userId")) {
		t.Error("feed leaks author identity")
	}
}

func TestReactionUpsert(t *testing.T) {
	env := newTestEnv(t)
	_, tokenA := env.seedUser(t, "a@example.com")
	_, tokenB := env.seedUser(t, "b@example.com")

	resp := env.request(t, fiber.MethodPost, "/diaries/", tokenA,
		entryBody("2026-08-01", "HAPPY", "ANONYMOUS_SHARE"))
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create status: got %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	decode(t, resp, &created)

	for _, reaction := range []string{"LIKE", "HEART"} {
		resp = env.request(t, fiber.MethodPut, "/diaries/"+created.ID+"/reaction", tokenB,
			fiber.Map{"reactionType": reaction})
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("react status: got %d", resp.StatusCode)
		}
	}

	var reactions []models.DiaryReaction
	if err := env.db.Where("diary_id = ?", created.ID).Find(&reactions).Error; err != nil {
		t.Fatalf("loading reactions: %v", err)
	}
	if len(reactions) != 1 || reactions[0].ReactionType != "HEART" {
		t.Fatalf("reactions: got %+v, want one HEART", reactions)
	}
}

func TestCommentsOnlyOnSharedEntries(t *testing.T) {
	env := newTestEnv(t)
	_, tokenA := env.seedUser(t, "a@example.com")

	resp := env.request(t, fiber.MethodPost, "/diaries/", tokenA,
		entryBody("2026-08-01", "HAPPY", "PRIVATE"))
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create status: got %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	decode(t, resp, &created)

	resp = env.request(t, fiber.MethodPost, "/diaries/"+created.ID+"/comments", tokenA,
		fiber.Map{"content": "hello"})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("comment on private: got %d, want %d", resp.StatusCode, fiber.StatusBadRequest)
	}
}

func TestPersonalStatsStreak(t *testing.T) {
	env := newTestEnv(t)
	userID, token := env.seedUser(t, "a@example.com")

	// Three consecutive days ending today, plus an older separate day.
	today := time.Now().Truncate(24 * time.Hour)
	for _, offset := range []int{0, -1, -2, -10} {
		diary := models.Diary{
			UserID:        userID,
			Date:          today.AddDate(0, 0, offset),
			EmotionStatus: models.EmotionNormal,
			PrivacyLevel:  models.PrivacyPrivate,
		}
		if err := env.db.Create(&diary).Error; err != nil {
			t.Fatalf("creating diary: %v", err)
		}
	}

	resp := env.request(t, fiber.MethodGet, "/diaries/stats", token, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("stats status: got %d", resp.StatusCode)
	}

	var stats struct {
		TotalEntries  int     `json:"totalEntries"`
		CurrentStreak int     `json:"currentStreak"`
		LongestStreak int     `json:"longestStreak"`
		AvgScore      float64 `json:"avgScore"`
	}
	decode(t, resp, &stats)

	if stats.TotalEntries != 4 {
		t.Errorf("total: got %d, want 4", stats.TotalEntries)
	}
	if stats.CurrentStreak != 3 || stats.LongestStreak != 3 {
		t.Errorf("streaks: got current=%d longest=%d, want 3/3",
			stats.CurrentStreak, stats.LongestStreak)
	}
	if stats.AvgScore != 5.0 {
		t.Errorf("avg: got %f, want 5", stats.AvgScore)
	}
}
