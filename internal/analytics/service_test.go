package analytics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emolog/emolog/internal/db/models"
)

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
		&models.Unit{},
		&models.Diary{},
		&models.EmotionStatistic{},
		&models.EmotionAlert{},
	)
	if err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	return db
}

func seedUnitUser(t *testing.T, db *gorm.DB, email string, unitID uint) *models.User {
	t.Helper()

	user := models.User{Email: email, UnitID: &unitID}
	if err := user.HashPassword("password123"); err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("creating user: %v", err)
	}

	return &user
}

func seedDiary(t *testing.T, db *gorm.DB, userID string, day time.Time, emotion models.EmotionStatus) {
	t.Helper()

	diary := models.Diary{
		UserID:        userID,
		Date:          day,
		EmotionStatus: emotion,
		PrivacyLevel:  models.PrivacyStatisticsOnly,
	}
	if err := db.Create(&diary).Error; err != nil {
		t.Fatalf("creating diary: %v", err)
	}
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}

	return d
}

func TestSummarize(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	unit := models.Unit{Code: "DV001", Name: "Alpha"}
	if err := db.Create(&unit).Error; err != nil {
		t.Fatalf("creating unit: %v", err)
	}

	a := seedUnitUser(t, db, "a@example.com", unit.ID)
	b := seedUnitUser(t, db, "b@example.com", unit.ID)

	seedDiary(t, db, a.ID, day("2026-01-01"), models.EmotionVeryHappy) // 10, positive
	seedDiary(t, db, a.ID, day("2026-01-02"), models.EmotionNormal)    // 5, neutral
	seedDiary(t, db, b.ID, day("2026-01-01"), models.EmotionSad)       // 1, negative

	summary, err := svc.Summarize([]uint{unit.ID}, day("2026-01-01"), day("2026-01-03"))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if summary.TotalDiaries != 3 {
		t.Errorf("total: got %d, want 3", summary.TotalDiaries)
	}
	if summary.ActiveUsers != 2 {
		t.Errorf("active users: got %d, want 2", summary.ActiveUsers)
	}

	wantAvg := (10.0 + 5.0 + 1.0) / 3.0
	if summary.AvgScore != wantAvg {
		t.Errorf("avg: got %f, want %f", summary.AvgScore, wantAvg)
	}
	if summary.PositiveCount != 1 || summary.NeutralCount != 1 || summary.NegativeCount != 1 {
		t.Errorf("split: got %d/%d/%d, want 1/1/1",
			summary.PositiveCount, summary.NeutralCount, summary.NegativeCount)
	}
	if summary.Distribution["VERY_HAPPY"] != 1 {
		t.Errorf("distribution: got %v", summary.Distribution)
	}
}

func TestSummarizeScopesByUnit(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	unitA := models.Unit{Code: "DV001", Name: "Alpha"}
	unitB := models.Unit{Code: "DV002", Name: "Bravo"}
	if err := db.Create(&unitA).Error; err != nil {
		t.Fatalf("creating unit: %v", err)
	}
	if err := db.Create(&unitB).Error; err != nil {
		t.Fatalf("creating unit: %v", err)
	}

	a := seedUnitUser(t, db, "a@example.com", unitA.ID)
	b := seedUnitUser(t, db, "b@example.com", unitB.ID)

	seedDiary(t, db, a.ID, day("2026-01-01"), models.EmotionHappy)
	seedDiary(t, db, b.ID, day("2026-01-01"), models.EmotionSad)

	summary, err := svc.Summarize([]uint{unitA.ID}, day("2026-01-01"), day("2026-01-02"))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.TotalDiaries != 1 || summary.NegativeCount != 0 {
		t.Errorf("expected only unit A entries, got %+v", summary)
	}

	// Empty scope means unrestricted.
	summary, err = svc.Summarize(nil, day("2026-01-01"), day("2026-01-02"))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.TotalDiaries != 2 {
		t.Errorf("total: got %d, want 2", summary.TotalDiaries)
	}
}

func TestSummarizeIgnoresPrivateEntries(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	unit := models.Unit{Code: "DV001", Name: "Alpha"}
	if err := db.Create(&unit).Error; err != nil {
		t.Fatalf("creating unit: %v", err)
	}

	a := seedUnitUser(t, db, "a@example.com", unit.ID)
	seedDiary(t, db, a.ID, day("2026-01-01"), models.EmotionHappy)

	private := models.Diary{
		UserID:        a.ID,
		Date:          day("2026-01-02"),
		EmotionStatus: models.EmotionSad,
		PrivacyLevel:  models.PrivacyPrivate,
	}
	if err := db.Create(&private).Error; err != nil {
		t.Fatalf("creating diary: %v", err)
	}

	summary, err := svc.Summarize([]uint{unit.ID}, day("2026-01-01"), day("2026-01-03"))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.TotalDiaries != 1 || summary.NegativeCount != 0 {
		t.Errorf("private entry leaked into summary: %+v", summary)
	}
}

func TestTopHashtags(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	unit := models.Unit{Code: "DV001", Name: "Alpha"}
	if err := db.Create(&unit).Error; err != nil {
		t.Fatalf("creating unit: %v", err)
	}

	a := seedUnitUser(t, db, "a@example.com", unit.ID)

	entries := []models.Diary{
		{
			UserID: a.ID, Date: day("2026-01-01"), EmotionStatus: models.EmotionHappy,
			PrivacyLevel: models.PrivacyAnonymousShare,
			Hashtags:     models.Hashtags{"teamwork", "coffee"},
		},
		{
			UserID: a.ID, Date: day("2026-01-02"), EmotionStatus: models.EmotionNormal,
			PrivacyLevel: models.PrivacyAnonymousShare,
			Hashtags:     models.Hashtags{"teamwork"},
		},
		// Statistics-only entries count emotions but never expose tags.
		{
			UserID: a.ID, Date: day("2026-01-03"), EmotionStatus: models.EmotionSad,
			PrivacyLevel: models.PrivacyStatisticsOnly,
			Hashtags:     models.Hashtags{"secret"},
		},
	}
	for i := range entries {
		if err := db.Create(&entries[i]).Error; err != nil {
			t.Fatalf("creating diary: %v", err)
		}
	}

	tags, err := svc.TopHashtags([]uint{unit.ID}, day("2026-01-01"), day("2026-01-04"), 10)
	if err != nil {
		t.Fatalf("TopHashtags: %v", err)
	}

	if len(tags) != 2 {
		t.Fatalf("tags: got %+v, want 2 entries", tags)
	}
	if tags[0].Tag != "teamwork" || tags[0].Count != 2 {
		t.Errorf("top tag: got %+v", tags[0])
	}
	if tags[1].Tag != "coffee" || tags[1].Count != 1 {
		t.Errorf("second tag: got %+v", tags[1])
	}
}

func TestTrendFillsEmptyDays(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	unit := models.Unit{Code: "DV001", Name: "Alpha"}
	if err := db.Create(&unit).Error; err != nil {
		t.Fatalf("creating unit: %v", err)
	}

	a := seedUnitUser(t, db, "a@example.com", unit.ID)
	seedDiary(t, db, a.ID, day("2026-01-01"), models.EmotionHappy)
	seedDiary(t, db, a.ID, day("2026-01-03"), models.EmotionSad)

	points, err := svc.Trend([]uint{unit.ID}, day("2026-01-01"), day("2026-01-04"))
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}

	if len(points) != 3 {
		t.Fatalf("points: got %d, want 3", len(points))
	}
	if points[1].Date != "2026-01-02" || points[1].TotalDiaries != 0 {
		t.Errorf("expected an empty middle day, got %+v", points[1])
	}
	if points[0].PositiveCount != 1 || points[2].NegativeCount != 1 {
		t.Errorf("unexpected series: %+v", points)
	}
}

func TestComputeDailyStatisticsRaisesAlert(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	unit := models.Unit{Code: "DV001", Name: "Alpha"}
	if err := db.Create(&unit).Error; err != nil {
		t.Fatalf("creating unit: %v", err)
	}

	a := seedUnitUser(t, db, "a@example.com", unit.ID)
	b := seedUnitUser(t, db, "b@example.com", unit.ID)
	c := seedUnitUser(t, db, "c@example.com", unit.ID)

	// Three entries averaging 1.0: critical.
	seedDiary(t, db, a.ID, day("2026-01-01"), models.EmotionSad)
	seedDiary(t, db, b.ID, day("2026-01-01"), models.EmotionAngry)
	seedDiary(t, db, c.ID, day("2026-01-01"), models.EmotionSad)

	if err := svc.ComputeDailyStatistics(day("2026-01-01")); err != nil {
		t.Fatalf("ComputeDailyStatistics: %v", err)
	}

	var stat models.EmotionStatistic
	if err := db.Where("unit_id = ?", unit.ID).First(&stat).Error; err != nil {
		t.Fatalf("loading statistic: %v", err)
	}
	if stat.TotalDiaries != 3 || stat.AvgScore != 1.0 {
		t.Errorf("statistic: got %+v", stat)
	}

	alerts, err := svc.ListAlerts(nil, true)
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(alerts) != 1 || alerts[0].AlertLevel != models.AlertLevelCritical {
		t.Fatalf("alerts: got %+v", alerts)
	}

	// Re-running the same day must not duplicate rows or alerts.
	if err := svc.ComputeDailyStatistics(day("2026-01-01")); err != nil {
		t.Fatalf("ComputeDailyStatistics rerun: %v", err)
	}

	var stats int64
	if err := db.Model(&models.EmotionStatistic{}).Count(&stats).Error; err != nil {
		t.Fatalf("counting statistics: %v", err)
	}
	if stats != 1 {
		t.Errorf("statistics rows: got %d, want 1", stats)
	}

	alerts, err = svc.ListAlerts(nil, true)
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Errorf("open alerts after rerun: got %d, want 1", len(alerts))
	}
}

func TestComputeDailyStatisticsNeedsMinimumEntries(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	unit := models.Unit{Code: "DV001", Name: "Alpha"}
	if err := db.Create(&unit).Error; err != nil {
		t.Fatalf("creating unit: %v", err)
	}

	a := seedUnitUser(t, db, "a@example.com", unit.ID)
	seedDiary(t, db, a.ID, day("2026-01-01"), models.EmotionSad)

	if err := svc.ComputeDailyStatistics(day("2026-01-01")); err != nil {
		t.Fatalf("ComputeDailyStatistics: %v", err)
	}

	alerts, err := svc.ListAlerts(nil, true)
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("expected no alert for a single entry, got %+v", alerts)
	}
}

func TestResolveAlert(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	unit := models.Unit{Code: "DV001", Name: "Alpha"}
	if err := db.Create(&unit).Error; err != nil {
		t.Fatalf("creating unit: %v", err)
	}

	resolver := seedUnitUser(t, db, "resolver@example.com", unit.ID)

	alert := models.EmotionAlert{UnitID: unit.ID, AlertLevel: models.AlertLevelHigh}
	if err := db.Create(&alert).Error; err != nil {
		t.Fatalf("creating alert: %v", err)
	}

	resolved, err := svc.ResolveAlert(alert.ID, resolver.ID)
	if err != nil {
		t.Fatalf("ResolveAlert: %v", err)
	}
	if !resolved.IsResolved || resolved.ResolvedAt == nil {
		t.Errorf("alert not marked resolved: %+v", resolved)
	}

	if _, err := svc.ResolveAlert(alert.ID, resolver.ID); !errors.Is(err, ErrAlertAlreadyResolved) {
		t.Fatalf("got %v, want ErrAlertAlreadyResolved", err)
	}

	if _, err := svc.ResolveAlert(999, resolver.ID); !errors.Is(err, ErrAlertNotFound) {
		t.Fatalf("got %v, want ErrAlertNotFound", err)
	}
}
